// Package cli — convert.go implements the "copse convert" command.
//
// convert reshapes the repository containing the current directory from a
// conventional single checkout into the shared-store layout: the .git
// directory becomes the store at the old root and the working files move
// into a worktree directory named after the default branch.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elm-hollow/copse/internal/worktree"
)

// convertFlags holds the flag values for the convert command.
type convertFlags struct {
	// defaultBranch skips default-branch resolution and binds the first
	// worktree to this branch.
	defaultBranch string
}

// NewConvertCommand creates the "convert" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewConvertCommand() *cobra.Command {
	flags := &convertFlags{}

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a single checkout into a worktree layout",
		Long: `Convert the current repository from a conventional checkout into a
worktree layout.

The repository root becomes a container: the .git directory turns into
the shared store and the working files move into a worktree directory
named after the default branch. Untracked and ignored files move with
the tree; uncommitted changes to tracked files block the conversion.
If any step fails the original layout is restored.

Examples:
  copse convert
  copse convert --default-branch develop`,

		Args: cobra.NoArgs,

		// RunE is used instead of Run so errors reach the Execute error
		// handler in root.go.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.defaultBranch, "default-branch", "",
		"Branch for the initial worktree (default: resolved from remotes)")

	return cmd
}

// runConvert is the main logic function for the convert command.
func runConvert(ctx context.Context, flags *convertFlags) error {
	engine, cleanup, err := newEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	cwd, err := workingDir()
	if err != nil {
		return err
	}

	result, err := engine.Convert(ctx, cwd, worktree.ConvertOptions{
		DefaultBranch: flags.defaultBranch,
	})
	if err != nil {
		return err
	}

	printConvertResult(result)
	return nil
}

// printConvertResult outputs the conversion summary in text or JSON.
func printConvertResult(result *worktree.ConvertResult) {
	if jsonOutput {
		printJSON(struct {
			Root     string `json:"root"`
			Store    string `json:"store"`
			Worktree string `json:"worktree"`
			Branch   string `json:"branch"`
		}{result.Root, result.Store, result.Worktree, result.Branch})
		return
	}

	fmt.Printf("%s converted %s\n", successStyle.Render("✓"), pathStyle.Render(result.Root))
	fmt.Printf("  store:    %s\n", pathStyle.Render(result.Store))
	fmt.Printf("  worktree: %s %s\n", pathStyle.Render(result.Worktree), branchStyle.Render(result.Branch))
}
