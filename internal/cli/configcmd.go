// Package cli — configcmd.go implements the "copse config" command group.
//
// config generate writes the default configuration, fully commented, to
// the user config path or to stdout. It never overwrites an existing
// file.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/elm-hollow/copse/internal/config"
	"github.com/elm-hollow/copse/internal/model"
)

// NewConfigCommand creates the "config" cobra command group.
// It is called from NewRootCommand to register as a subcommand.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and generate configuration",
	}

	cmd.AddCommand(newConfigGenerateCommand())

	return cmd
}

// newConfigGenerateCommand creates the "config generate" subcommand.
func newConfigGenerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate [OUTPUT]",
		Short: "Write the default configuration file",
		Long: `Write the default configuration, with comments documenting every
setting, to OUTPUT. Without an argument the file goes to the user
configuration path. Pass - to print to stdout instead.

An existing file is never overwritten.

Examples:
  copse config generate
  copse config generate -
  copse config generate ./copse.toml`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			output := ""
			if len(args) == 1 {
				output = args[0]
			}
			return runConfigGenerate(output)
		},
	}
}

// runConfigGenerate is the main logic function for config generate.
func runConfigGenerate(output string) error {
	if output == "-" {
		fmt.Print(config.DefaultTOML)
		return nil
	}

	path := output
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				"cannot locate the user configuration directory", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("creating %s", filepath.Dir(path)), err)
	}

	// O_EXCL so a concurrent or earlier generate cannot be clobbered.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return model.NewCollisionError("%s already exists; delete it first or pass - for stdout", path)
		}
		return model.WrapCLIError(model.ExitGeneralError, fmt.Sprintf("creating %s", path), err)
	}
	defer f.Close()

	if _, err := f.WriteString(config.DefaultTOML); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, fmt.Sprintf("writing %s", path), err)
	}

	if jsonOutput {
		printJSON(struct {
			Path string `json:"path"`
		}{path})
		return nil
	}
	fmt.Printf("%s wrote %s\n", successStyle.Render("✓"), pathStyle.Render(path))
	return nil
}
