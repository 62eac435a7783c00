// Package worktree implements the provisioning engine: converting a
// single checkout into a shared-store layout, adding provisioned
// worktrees to it, and cloning straight into the layout.
//
// The engine is deliberately free of any command-line concerns. Every
// operation takes a context and a directory, resolves the repository
// state it needs through the git package, and returns either a typed
// result or a *model.CLIError describing which stage failed. Commands
// in the cli package translate those results into output and exit
// codes.
//
// Mutating operations are staged: destructive filesystem steps record
// a compensating action before they run, and a failure unwinds the
// recorded actions in reverse so the repository is left in its
// original shape. Worktree provisioning (file copying and post-create
// commands) is the one exception: once the worktree exists it is never
// torn down, and provisioning failures surface as warnings instead of
// errors.
package worktree
