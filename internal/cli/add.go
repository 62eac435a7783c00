// Package cli — add.go implements the "copse add" command.
//
// add is the everyday operation: grow one more provisioned worktree in
// the layout. The engine decides the branch (existing local, tracking a
// unique remote match, or newly created), picks the directory, then
// copies uncommitted files over and runs the configured post-create
// commands. A provisioning failure is reported as a warning; the
// worktree itself stays.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elm-hollow/copse/internal/model"
	"github.com/elm-hollow/copse/internal/worktree"
)

// addFlags holds the flag values for the add command.
type addFlags struct {
	// create makes a new branch named after the worktree instead of
	// matching existing branches.
	create bool

	// branch creates a new branch with this name (git's -b).
	branch string

	// forceBranch is like branch but resets an existing branch (git's -B).
	forceBranch string
}

// NewAddCommand creates the "add" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewAddCommand() *cobra.Command {
	flags := &addFlags{}

	cmd := &cobra.Command{
		Use:   "add [NAME_OR_PATH] [COMMITISH] [-- GIT_ARGS...]",
		Short: "Add a provisioned worktree",
		Long: `Add a new worktree next to the existing ones.

A bare NAME is matched against branches: an existing local branch is
checked out, a branch found on exactly one remote gets a local tracking
branch, and anything else becomes a new branch started from the default
branch. A NAME containing a path separator is used as the worktree path
as written. The optional COMMITISH picks the branch or start point
explicitly.

After the worktree is created, untracked (and ignored) files are copied
over from the current worktree and the configured post-create commands
run inside it. Arguments after -- are passed through to git worktree add.

Examples:
  copse add feature-auth
  copse add -c feature-auth
  copse add -b topic/login-form
  copse add hotfix v2.1.4
  copse add review pr-1823
  copse add pinned -- --lock`,

		// Positional arguments are validated in RunE: cobra's counting
		// validators cannot see the -- boundary.
		Args: cobra.ArbitraryArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			positional, extra := splitDashArgs(cmd, args)
			if len(positional) > 2 {
				return model.NewPreconditionError(
					"add takes at most a name and a commit-ish, got %d arguments", len(positional))
			}

			opts := worktree.AddOptions{
				Create:      flags.create,
				Branch:      flags.branch,
				ForceBranch: flags.forceBranch,
				Extra:       extra,
			}
			if len(positional) > 0 {
				opts.NameOrPath = positional[0]
			}
			if len(positional) > 1 {
				opts.Commitish = positional[1]
			}
			return runAdd(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&flags.create, "create", "c", false,
		"Create a new branch named after the worktree")
	cmd.Flags().StringVarP(&flags.branch, "branch", "b", "",
		"Create a branch with this name")
	cmd.Flags().StringVarP(&flags.forceBranch, "force-branch", "B", "",
		"Like --branch, resetting the branch if it already exists")

	return cmd
}

// runAdd is the main logic function for the add command.
func runAdd(ctx context.Context, opts worktree.AddOptions) error {
	engine, cleanup, err := newEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	cwd, err := workingDir()
	if err != nil {
		return err
	}

	result, err := engine.Add(ctx, cwd, opts)
	if err != nil {
		return err
	}

	printAddResult(result)
	return nil
}

// printAddResult outputs the add summary in text or JSON. The
// provisioning warning, if any, rides along: in the JSON result object,
// or on stderr for text output.
func printAddResult(result *worktree.AddResult) {
	if jsonOutput {
		printJSON(struct {
			Path          string       `json:"path"`
			Branch        string       `json:"branch"`
			CreatedBranch bool         `json:"createdBranch"`
			Warning       *warningJSON `json:"warning,omitempty"`
		}{result.Path, result.Branch, result.CreatedBranch, newWarningJSON(result.Warning)})
		return
	}

	verb := "checked out"
	if result.CreatedBranch {
		verb = "created"
	}
	fmt.Printf("%s %s %s at %s\n",
		successStyle.Render("✓"), verb, branchStyle.Render(result.Branch), pathStyle.Render(result.Path))
	printWarning(result.Warning)
}
