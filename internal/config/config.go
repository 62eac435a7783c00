// Package config loads the copse configuration file.
//
// The file is TOML, found at <user config dir>/copse/config.toml unless
// overridden on the command line. Every key is optional; a missing file is
// not an error and yields the built-in defaults. The engine consumes only
// the resolved values exposed by the accessor methods — defaults are
// applied there, never written back.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/shlex"

	"github.com/elm-hollow/copse/internal/model"
)

// DefaultTOML is the configuration written by `copse config generate`.
// It spells out every default explicitly so the generated file doubles as
// documentation.
const DefaultTOML = `# copse configuration.
#
# Remotes are checked in order when resolving a repository's default
# branch; the first one that exists is consulted.
remotes = ["upstream", "origin"]

# Local branches checked in order when no remote is available.
default_branches = ["main", "master", "trunk"]

# Copy untracked files from the current worktree into new worktrees.
copy_untracked = true

# Clone GitHub OWNER/REPO slugs through the gh CLI when it is installed.
enable_gh = false

# Commands run in a new worktree after it is created. A plain string is
# split like a shell word list; use the table form to run through sh -c:
#   commands = [
#       "direnv allow",
#       { sh = "npm install && npm run build" },
#   ]
commands = []

[add]
# Also copy ignored files (build caches and the like) into new worktrees.
copy_ignored = true

# Patterns excluded from copying, matched against relative paths.
copy_exclude = []

# Rules rewriting branch names into directory names, applied in order:
#   [[add.branch_replacements]]
#   find = '''myname/team-1234-'''
#   replace = ""
#   # count = 1
`

// Config is the parsed configuration file. Raw fields are exported for
// decoding; callers should use the accessor methods, which fill in
// defaults.
type Config struct {
	Remotes         []string  `toml:"remotes"`
	DefaultBranches []string  `toml:"default_branches"`
	CopyUntracked   *bool     `toml:"copy_untracked"`
	EnableGH        *bool     `toml:"enable_gh"`
	Commands        []Command `toml:"commands"`
	Add             Add       `toml:"add"`
}

// Add holds the keys under the [add] table.
type Add struct {
	CopyIgnored        *bool               `toml:"copy_ignored"`
	CopyExclude        []string            `toml:"copy_exclude"`
	BranchReplacements []BranchReplacement `toml:"branch_replacements"`
}

// BranchReplacement is one branch-name rewrite rule. Rules are applied in
// order; each rule's output feeds the next rule's input.
type BranchReplacement struct {
	// Find is an RE2 pattern matched against the branch name.
	Find string `toml:"find"`

	// Replace is the replacement text; $1-style references expand to
	// capture groups of Find.
	Replace string `toml:"replace"`

	// Count limits the rule to the first Count matches. Zero or negative
	// replaces every match.
	Count int `toml:"count"`

	re *regexp.Regexp
}

// Apply rewrites s according to the rule.
func (r *BranchReplacement) Apply(s string) string {
	re := r.re
	if re == nil {
		// Uncompiled rules come from literal test construction; Load
		// always compiles.
		re = regexp.MustCompile(r.Find)
	}
	if r.Count <= 0 {
		return re.ReplaceAllString(s, r.Replace)
	}
	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringSubmatchIndex(s, r.Count) {
		b.WriteString(s[last:m[0]])
		b.Write(re.ExpandString(nil, r.Replace, s, m))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// Command is one post-create command. TOML accepts two shapes: a plain
// string, split into argv like a shell word list, or { sh = "..." },
// which runs the script through `sh -c`.
type Command struct {
	// Display is the command as the user wrote it, for messages.
	Display string

	// Argv is the resolved program and arguments.
	Argv []string
}

// UnmarshalTOML decodes either command shape.
func (c *Command) UnmarshalTOML(v any) error {
	switch value := v.(type) {
	case string:
		argv, err := shlex.Split(value)
		if err != nil {
			return fmt.Errorf("splitting command %q: %w", value, err)
		}
		if len(argv) == 0 {
			return fmt.Errorf("command is empty")
		}
		c.Display = value
		c.Argv = argv
		return nil
	case map[string]any:
		script, ok := value["sh"].(string)
		if !ok {
			return fmt.Errorf("command table must have a string `sh` key")
		}
		c.Display = strings.TrimSpace(script)
		c.Argv = []string{"sh", "-c", script}
		return nil
	default:
		return fmt.Errorf("command must be a string or { sh = \"...\" }, got %T", v)
	}
}

// DefaultPath returns the user-level configuration file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config dir: %w", err)
	}
	return filepath.Join(base, "copse", "config.toml"), nil
}

// Load reads and validates the configuration at path. A missing file
// yields the zero Config; any other failure is a PreconditionError, since
// a broken configuration should stop a command before it mutates anything.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, model.WrapCLIError(model.ExitPreconditionError,
			fmt.Sprintf("reading configuration file %s", path), err)
	}
	return Parse(string(data), path)
}

// Parse decodes and validates TOML configuration text. The path is used
// only for error messages.
func Parse(text, path string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(text, &cfg); err != nil {
		return nil, model.WrapCLIError(model.ExitPreconditionError,
			fmt.Sprintf("parsing configuration file %s", path), err)
	}
	for i := range cfg.Add.BranchReplacements {
		r := &cfg.Add.BranchReplacements[i]
		re, err := regexp.Compile(r.Find)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitPreconditionError,
				fmt.Sprintf("invalid branch_replacements pattern %q in %s", r.Find, path), err)
		}
		r.re = re
	}
	return &cfg, nil
}

// RemoteNames returns the configured remote scan order.
func (c *Config) RemoteNames() []string {
	if len(c.Remotes) == 0 {
		return []string{"upstream", "origin"}
	}
	return c.Remotes
}

// BranchNames returns the configured local default-branch scan order.
func (c *Config) BranchNames() []string {
	if len(c.DefaultBranches) == 0 {
		return []string{"main", "master", "trunk"}
	}
	return c.DefaultBranches
}

// CopyUntrackedFiles reports whether new worktrees receive the source
// worktree's untracked files. Defaults to true.
func (c *Config) CopyUntrackedFiles() bool {
	if c.CopyUntracked == nil {
		return true
	}
	return *c.CopyUntracked
}

// CopyIgnoredFiles reports whether new worktrees receive the source
// worktree's ignored files. Defaults to true, independently of
// CopyUntrackedFiles.
func (c *Config) CopyIgnoredFiles() bool {
	if c.Add.CopyIgnored == nil {
		return true
	}
	return *c.Add.CopyIgnored
}

// GHEnabled reports whether GitHub slugs may be cloned through gh.
// Defaults to false.
func (c *Config) GHEnabled() bool {
	if c.EnableGH == nil {
		return false
	}
	return *c.EnableGH
}

// Replacements returns the compiled branch-name rewrite rules.
func (c *Config) Replacements() []BranchReplacement {
	return c.Add.BranchReplacements
}
