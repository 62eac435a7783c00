// Package exec abstracts external command execution so the engine can be
// tested without spawning processes.
//
// Production code uses RealRunner, which shells out via os/exec with an
// inherited environment. Tests inject a MockRunner that returns
// pre-recorded responses and records every invocation.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Runner runs external commands in a given working directory.
// It is the process-execution capability both the git wrapper and the
// provisioning hooks are built on.
type Runner interface {
	// Run executes a command and returns stdout and stderr separately.
	// A non-zero exit reports as a non-nil error (an *exec.ExitError for
	// real commands).
	Run(ctx context.Context, dir string, name string, args ...string) (stdout, stderr []byte, err error)

	// CombinedOutput executes a command and returns interleaved
	// stdout+stderr, as a user would see it in a terminal.
	CombinedOutput(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// RealRunner executes commands using os/exec.
type RealRunner struct{}

// NewRealRunner returns a Runner backed by os/exec.
func NewRealRunner() *RealRunner {
	return &RealRunner{}
}

// Run executes a command and returns stdout, stderr, and any error.
func (r *RealRunner) Run(ctx context.Context, dir string, name string, args ...string) (stdout, stderr []byte, err error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err = cmd.Run()
	return stdoutBuf.Bytes(), stderrBuf.Bytes(), err
}

// CombinedOutput executes a command and returns combined stdout+stderr.
func (r *RealRunner) CombinedOutput(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

var _ Runner = (*RealRunner)(nil)

// ExitError reports a non-zero exit status for commands run through a
// MockRunner. RealRunner failures already carry the status via
// os/exec.ExitError; this type lets tests simulate specific codes.
type ExitError struct {
	Status int
}

// Error satisfies the error interface using the same wording as os/exec.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Status)
}

// ExitStatus extracts the process exit status from an error returned by
// a Runner. It returns -1 when the command did not run to completion or
// the error carries no status. Some git commands answer questions
// through their exit status (1 for "not found"), so callers need the
// code, not just non-nil.
func ExitStatus(err error) int {
	var mockErr *ExitError
	if errors.As(err, &mockErr) {
		return mockErr.Status
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
