// Package model defines the domain types for the copse CLI.
//
// All entities in this package are transient values computed per invocation.
// copse keeps no state of its own: everything here is reconstructed from the
// repository, the user configuration, and the command line each time a
// command runs.
package model

import (
	"fmt"
	"strings"
)

// DefaultRef is the outcome of default-branch resolution: the branch a
// repository designates as canonical, optionally qualified by the remote it
// was resolved from. A zero Remote means the branch was found locally
// without consulting any remote.
//
// DefaultRefs are recomputed on every resolution and never cached across
// invocations.
type DefaultRef struct {
	// Remote is the remote the default branch was resolved from,
	// or "" for a local-only resolution.
	Remote string `json:"remote,omitempty"`

	// Branch is the short branch name (no refs/heads/ prefix).
	Branch string `json:"branch"`
}

// IsLocal reports whether the ref was resolved without a remote.
func (r DefaultRef) IsLocal() bool {
	return r.Remote == ""
}

// Qualified returns "remote/branch" for remote resolutions and the bare
// branch name for local ones. This is the form git accepts as a start
// point for new branches.
func (r DefaultRef) Qualified() string {
	if r.Remote == "" {
		return r.Branch
	}
	return r.Remote + "/" + r.Branch
}

// String returns the same form as Qualified, for logging.
func (r DefaultRef) String() string {
	return r.Qualified()
}

// ProvisioningWarning records a post-create command that failed after a
// worktree was successfully created. It is deliberately not an error: the
// worktree stays, the remaining commands are skipped, and the overall
// operation still succeeds.
type ProvisioningWarning struct {
	// Command is the command that failed, as the user configured it.
	Command string `json:"command"`

	// Err is the failure from running the command.
	Err error `json:"-"`

	// Skipped lists the configured commands that were not run because
	// an earlier one failed.
	Skipped []string `json:"skipped,omitempty"`
}

// String renders the warning for human output, naming the failed command
// and how many later commands were skipped.
func (w *ProvisioningWarning) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "post-create command %q failed", w.Command)
	if w.Err != nil {
		fmt.Fprintf(&b, ": %v", w.Err)
	}
	if n := len(w.Skipped); n == 1 {
		fmt.Fprintf(&b, " (skipped 1 remaining command: %q)", w.Skipped[0])
	} else if n > 1 {
		fmt.Fprintf(&b, " (skipped %d remaining commands)", n)
	}
	return b.String()
}

// ExitCode defines the CLI exit codes. Each code corresponds to one class
// of failure so that scripts and CI systems can tell why a command failed.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	// A provisioning warning still exits with ExitSuccess: the worktree
	// was created.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitResolutionError indicates no default remote or branch could be
	// determined, or a remote symbolic-HEAD query failed.
	ExitResolutionError ExitCode = 2

	// ExitPreconditionError indicates the repository was not in a state
	// the command could act on (dirty working tree, already converted,
	// bare store, conflicting arguments). Nothing was mutated.
	ExitPreconditionError ExitCode = 3

	// ExitCollisionError indicates a destination path already exists and
	// could not be disambiguated.
	ExitCollisionError ExitCode = 4

	// ExitExternalToolError indicates a git or filesystem operation
	// failed. The message names the step and the subject involved.
	ExitExternalToolError ExitCode = 5
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description. It must name the
	// step and the path/branch/remote involved; bare generic messages
	// make a multi-step engine impossible to diagnose.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// NewResolutionError reports a failed default-ref resolution.
func NewResolutionError(format string, args ...any) *CLIError {
	return &CLIError{Code: ExitResolutionError, Message: fmt.Sprintf(format, args...)}
}

// NewPreconditionError reports a repository state the command refuses to
// act on. Precondition failures happen before any mutation.
func NewPreconditionError(format string, args ...any) *CLIError {
	return &CLIError{Code: ExitPreconditionError, Message: fmt.Sprintf(format, args...)}
}

// NewCollisionError reports a destination that already exists and cannot
// be disambiguated.
func NewCollisionError(format string, args ...any) *CLIError {
	return &CLIError{Code: ExitCollisionError, Message: fmt.Sprintf(format, args...)}
}

// WrapExternalToolError reports a failed git or filesystem step.
func WrapExternalToolError(message string, err error) *CLIError {
	return &CLIError{Code: ExitExternalToolError, Message: message, Err: err}
}
