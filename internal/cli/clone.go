// Package cli — clone.go implements the "copse clone" command.
//
// clone fetches a repository straight into the worktree layout: a plain
// clone into the destination, converted in place, provisioned like any
// other new worktree. With gh support enabled in the configuration,
// GitHub OWNER/REPO slugs go through the gh CLI so its authentication
// applies.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elm-hollow/copse/internal/model"
	"github.com/elm-hollow/copse/internal/worktree"
)

// NewCloneCommand creates the "clone" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewCloneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clone URL [DESTINATION] [-- GIT_ARGS...]",
		Short: "Clone a repository into a worktree layout",
		Long: `Clone a repository and convert it into a worktree layout in one step.

The destination defaults to the repository name from the URL. After the
clone, the layout is identical to one produced by convert: a shared
store with the default branch checked out next to it. Arguments after
-- are passed through to git clone.

Examples:
  copse clone https://github.com/silly/doggy.git
  copse clone git@github.com:silly/doggy.git pup
  copse clone silly/doggy                      # gh slug, with enable_gh
  copse clone https://github.com/big/repo -- --filter=blob:none`,

		Args: cobra.ArbitraryArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			positional, extra := splitDashArgs(cmd, args)
			if len(positional) < 1 || len(positional) > 2 {
				return model.NewPreconditionError(
					"clone takes a repository and an optional destination, got %d arguments", len(positional))
			}

			opts := worktree.CloneOptions{URL: positional[0], Extra: extra}
			if len(positional) > 1 {
				opts.Destination = positional[1]
			}
			return runClone(cmd.Context(), opts)
		},
	}

	return cmd
}

// runClone is the main logic function for the clone command.
func runClone(ctx context.Context, opts worktree.CloneOptions) error {
	engine, cleanup, err := newEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	cwd, err := workingDir()
	if err != nil {
		return err
	}

	result, err := engine.Clone(ctx, cwd, opts)
	if err != nil {
		return err
	}

	printCloneResult(result)
	return nil
}

// printCloneResult outputs the clone summary in text or JSON.
func printCloneResult(result *worktree.CloneResult) {
	if jsonOutput {
		printJSON(struct {
			Root     string       `json:"root"`
			Worktree string       `json:"worktree"`
			Branch   string       `json:"branch"`
			GH       bool         `json:"gh"`
			Warning  *warningJSON `json:"warning,omitempty"`
		}{result.Root, result.Worktree, result.Branch, result.GH, newWarningJSON(result.Warning)})
		return
	}

	via := ""
	if result.GH {
		via = " " + dimStyle.Render("(via gh)")
	}
	fmt.Printf("%s cloned into %s%s\n", successStyle.Render("✓"), pathStyle.Render(result.Root), via)
	fmt.Printf("  worktree: %s %s\n", pathStyle.Render(result.Worktree), branchStyle.Render(result.Branch))
	printWarning(result.Warning)
}
