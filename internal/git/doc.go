// Package git runs git commands against a repository directory and
// parses their output into Go values.
//
// The package shells out to the git binary instead of reimplementing
// repository internals. Worktree registration, ref resolution, and
// status reporting all have edge cases that installed git handles
// authoritatively, and the repositories this tool produces are operated
// on by that same binary between invocations, so agreeing with it is
// worth more than avoiding a subprocess.
//
// Commands run through an injected exec.Runner, so every query and
// mutation can be tested against canned output without a repository on
// disk. Machine-readable flags (--porcelain, -z, --quiet) are used
// throughout; parsing never depends on locale or terminal settings.
package git
