// Package cli implements the cobra-based CLI commands for copse.
//
// Each subcommand (convert, clone, add, ls, config) is defined in its own
// file within this package. This file defines the root command that serves
// as the parent for all subcommands, the global flags, and the plumbing
// every subcommand shares: configuration loading, logger construction, and
// the translation of typed errors into process exit codes.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/elm-hollow/copse/internal/config"
	"github.com/elm-hollow/copse/internal/exec"
	"github.com/elm-hollow/copse/internal/model"
	"github.com/elm-hollow/copse/internal/worktree"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// configPath overrides the configuration file location.
	configPath string

	// jsonOutput switches command results to JSON for machine consumption.
	jsonOutput bool

	// logLevelName selects the stderr log level.
	logLevelName string

	// verbose is shorthand for --log debug.
	verbose bool
)

// Version, Commit, and Date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command itself does not perform any action — it only provides
// help text and global flags. Actual functionality is provided by
// subcommands (convert, clone, add, ls, config).
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "copse",
		Short: "Tend a stand of git worktrees sharing one repository store",
		Long: `copse keeps every branch of a repository checked out side by side:
a shared store at <root>/.git with one worktree directory per branch
next to it.

convert reshapes an existing checkout into that layout, clone builds it
straight from a URL, and add grows new provisioned worktrees inside it.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		// SilenceErrors prevents it printing errors automatically; Execute
		// formats them (text or JSON) and picks the exit code.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	// PersistentFlags are inherited by all subcommands.
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Configuration file (default: <user config dir>/copse/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output results as JSON")
	rootCmd.PersistentFlags().StringVar(&logLevelName, "log", "warn",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Shorthand for --log debug")

	rootCmd.AddCommand(NewConvertCommand())
	rootCmd.AddCommand(NewCloneCommand())
	rootCmd.AddCommand(NewAddCommand())
	rootCmd.AddCommand(NewLsCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// CLIError values carry their own exit codes; any other error exits 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		var cliErr *model.CLIError
		if errors.As(err, &cliErr) {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}
		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// newEngine assembles the worktree engine a subcommand runs against:
// configuration resolved from --config or the user path, a console logger
// on stderr, and the real process runner. The returned cleanup flushes
// buffered log output and is safe to defer immediately.
func newEngine() (*worktree.Engine, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = log.Sync() }
	return worktree.NewEngine(cfg, exec.NewRealRunner(), log), cleanup, nil
}

// loadConfig resolves the configuration. An explicit --config path must
// exist; the default user path is optional and a missing file there just
// yields the built-in defaults.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, model.WrapCLIError(model.ExitPreconditionError,
				fmt.Sprintf("configuration file %s is not readable", configPath), err)
		}
		return config.Load(configPath)
	}
	path, err := config.DefaultPath()
	if err != nil {
		// No resolvable user config dir (HOME unset, typically CI);
		// run on the defaults.
		return &config.Config{}, nil
	}
	return config.Load(path)
}

// newLogger builds the stderr console logger at the level selected by
// --log, with --verbose forcing debug.
func newLogger() (*zap.SugaredLogger, error) {
	level := zapcore.WarnLevel
	if logLevelName != "" {
		parsed, err := zapcore.ParseLevel(logLevelName)
		if err != nil {
			return nil, model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("invalid log level %q: valid values are debug, info, warn, error", logLevelName))
		}
		level = parsed
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "building logger", err)
	}
	return log.Sugar(), nil
}

// workingDir returns the directory commands operate from.
func workingDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}
	return cwd, nil
}

// splitDashArgs separates positional arguments from everything after --,
// which subcommands forward to git verbatim.
func splitDashArgs(cmd *cobra.Command, args []string) (positional, extra []string) {
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		return args[:at], args[at:]
	}
	return args, nil
}
