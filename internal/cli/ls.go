// Package cli — ls.go implements the "copse ls" command.
//
// ls lists the worktrees of the repository containing the current
// directory: the store entry first, then one line per worktree with its
// abbreviated HEAD and branch. --format switches between the text table
// and JSON or YAML for scripting.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/elm-hollow/copse/internal/git"
	"github.com/elm-hollow/copse/internal/model"
)

// lsFlags holds the flag values for the ls command.
type lsFlags struct {
	// format selects the output encoding: text, json, or yaml.
	format string
}

// NewLsCommand creates the "ls" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewLsCommand() *cobra.Command {
	flags := &lsFlags{}

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List the worktrees of the current repository",
		Long: `List the worktrees of the repository containing the current directory.

The store's own entry comes first, then each worktree with its
abbreviated HEAD commit and branch. Detached worktrees are marked.

Examples:
  copse ls
  copse ls --format json
  copse ls --format yaml`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runLs(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.format, "format", "text",
		"Output format: text, json, yaml")

	return cmd
}

// runLs is the main logic function for the ls command.
func runLs(ctx context.Context, flags *lsFlags) error {
	format := flags.format
	// The global --json flag is shorthand for --format json.
	if jsonOutput && format == "text" {
		format = "json"
	}
	if format != "text" && format != "json" && format != "yaml" {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid format %q: valid values are text, json, yaml", flags.format))
	}

	engine, cleanup, err := newEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	cwd, err := workingDir()
	if err != nil {
		return err
	}

	worktrees, err := engine.List(ctx, cwd)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		printJSON(struct {
			Worktrees []git.Worktree `json:"worktrees"`
		}{worktrees})
	case "yaml":
		data, err := yaml.Marshal(struct {
			Worktrees []git.Worktree `yaml:"worktrees"`
		}{worktrees})
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "encoding worktrees as YAML", err)
		}
		fmt.Print(string(data))
	default:
		printWorktreeTable(worktrees)
	}
	return nil
}

// printWorktreeTable outputs the worktrees as aligned text, one per
// line. Paths are padded before styling: lipgloss escape sequences
// would break printf width specifiers.
func printWorktreeTable(worktrees []git.Worktree) {
	width := 0
	for _, wt := range worktrees {
		if n := len(wt.Path); n > width {
			width = n
		}
	}
	for _, wt := range worktrees {
		padded := fmt.Sprintf("%-*s", width, wt.Path)
		switch {
		case wt.Bare:
			fmt.Printf("%s %s\n", pathStyle.Render(padded), dimStyle.Render("(store)"))
		case wt.Detached:
			fmt.Printf("%s %s %s\n",
				pathStyle.Render(padded), dimStyle.Render(shortHash(wt.Head)), dimStyle.Render("(detached)"))
		default:
			fmt.Printf("%s %s %s\n",
				pathStyle.Render(padded), dimStyle.Render(shortHash(wt.Head)), branchStyle.Render(wt.Branch))
		}
	}
}
