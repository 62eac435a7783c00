package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/elm-hollow/copse/internal/exec"
	"github.com/elm-hollow/copse/internal/model"
)

// Repo runs git commands in a single directory.
//
// Repo is a thin handle: it holds no open resources and caches nothing,
// so it is cheap to create and safe to discard. Operations that need to
// run in a different directory (a sibling worktree, a staging area)
// derive a handle with At rather than mutating the receiver.
type Repo struct {
	dir    string
	runner exec.Runner
	log    *zap.SugaredLogger
}

// Open returns a handle that runs git commands in dir. The directory is
// not validated here; the first command reports unusable directories
// with git's own diagnostics. A nil logger disables debug logging.
func Open(dir string, runner exec.Runner, log *zap.SugaredLogger) *Repo {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Repo{dir: dir, runner: runner, log: log}
}

// Dir returns the directory this handle runs commands in.
func (r *Repo) Dir() string {
	return r.dir
}

// At returns a handle for dir sharing the receiver's runner and logger.
func (r *Repo) At(dir string) *Repo {
	return &Repo{dir: dir, runner: r.runner, log: r.log}
}

// run executes a git command and returns its stdout with surrounding
// whitespace trimmed. On failure the returned error carries the full
// command line and git's stderr, since git writes its diagnostics there.
func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	out, err := r.runRaw(ctx, args...)
	return strings.TrimSpace(out), err
}

// runRaw is run without output trimming, for NUL-delimited formats
// where every byte is significant.
func (r *Repo) runRaw(ctx context.Context, args ...string) (string, error) {
	r.log.Debugw("running git", "dir", r.dir, "args", strings.Join(args, " "))
	stdout, stderr, err := r.runner.Run(ctx, r.dir, "git", args...)
	if err != nil {
		return "", r.wrapGitError(args, stderr, err)
	}
	return string(stdout), nil
}

// probe executes a git command whose exit status is its answer, such as
// `show-ref --verify --quiet`, and reports whether it exited zero.
func (r *Repo) probe(ctx context.Context, args ...string) bool {
	r.log.Debugw("probing git", "dir", r.dir, "args", strings.Join(args, " "))
	_, _, err := r.runner.Run(ctx, r.dir, "git", args...)
	return err == nil
}

// wrapGitError turns a failed git invocation into a CLIError whose
// message names the command and repeats git's stderr.
func (r *Repo) wrapGitError(args []string, stderr []byte, err error) error {
	errMsg := strings.TrimSpace(string(stderr))
	if errMsg == "" {
		errMsg = err.Error()
	}
	return model.WrapExternalToolError(
		fmt.Sprintf("git %s failed: %s", strings.Join(args, " "), errMsg), err)
}

// IsInsideWorkTree reports whether the directory sits inside a working
// tree. A bare repository reports false without an error; a directory
// outside any repository reports an error.
func (r *Repo) IsInsideWorkTree(ctx context.Context) (bool, error) {
	out, err := r.run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false, err
	}
	return out == "true", nil
}

// IsBare reports whether the directory belongs to a bare repository.
func (r *Repo) IsBare(ctx context.Context) (bool, error) {
	out, err := r.run(ctx, "rev-parse", "--is-bare-repository")
	if err != nil {
		return false, err
	}
	return out == "true", nil
}

// TopLevel returns the absolute path of the working tree root containing
// the handle's directory.
func (r *Repo) TopLevel(ctx context.Context) (string, error) {
	return r.run(ctx, "rev-parse", "--show-toplevel")
}

// CommonDir returns the absolute path of the administrative store shared
// by every worktree of the repository. For a linked worktree this is the
// main .git directory, not the worktree's private gitdir.
func (r *Repo) CommonDir(ctx context.Context) (string, error) {
	return r.run(ctx, "rev-parse", "--path-format=absolute", "--git-common-dir")
}

// CurrentBranch returns the short name of the currently checked out
// branch, or "" when HEAD is detached.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	// A detached HEAD abbreviates to the literal string "HEAD".
	if out == "HEAD" {
		return "", nil
	}
	return out, nil
}

// Head returns the commit hash HEAD points at.
func (r *Repo) Head(ctx context.Context) (string, error) {
	return r.run(ctx, "rev-parse", "HEAD")
}

// LocalBranchExists reports whether refs/heads/<branch> exists.
func (r *Repo) LocalBranchExists(ctx context.Context, branch string) bool {
	return r.probe(ctx, "show-ref", "--verify", "--quiet", "refs/heads/"+branch)
}

// CreateBranch creates branch at startPoint without checking it out. An
// empty startPoint means HEAD. With track set, the new branch tracks
// startPoint, which must then be a remote-tracking branch.
func (r *Repo) CreateBranch(ctx context.Context, branch, startPoint string, track bool) error {
	args := []string{"branch"}
	if track {
		args = append(args, "--track")
	}
	args = append(args, branch)
	if startPoint != "" {
		args = append(args, startPoint)
	}
	_, err := r.run(ctx, args...)
	return err
}

// DeleteBranch removes a local branch. Force removes it even when it
// is not merged anywhere.
func (r *Repo) DeleteBranch(ctx context.Context, branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := r.run(ctx, "branch", flag, branch)
	return err
}

// ConfigGet reads a configuration key. The second return value is false
// when the key is not set, which git signals with exit status 1 rather
// than output.
func (r *Repo) ConfigGet(ctx context.Context, key string) (string, bool, error) {
	args := []string{"config", "--null", "--get", key}
	r.log.Debugw("running git", "dir", r.dir, "args", strings.Join(args, " "))
	stdout, stderr, err := r.runner.Run(ctx, r.dir, "git", args...)
	if err != nil {
		if exec.ExitStatus(err) == 1 {
			return "", false, nil
		}
		return "", false, r.wrapGitError(args, stderr, err)
	}
	// With --null the value is NUL-terminated instead of
	// newline-terminated, so values keep their exact bytes.
	return strings.TrimSuffix(string(stdout), "\x00"), true, nil
}

// ConfigSet writes a configuration key in the repository's local config.
func (r *Repo) ConfigSet(ctx context.Context, key, value string) error {
	_, err := r.run(ctx, "config", key, value)
	return err
}

// ResetIndex runs a mixed reset, aligning the index with HEAD while
// leaving working files untouched.
func (r *Repo) ResetIndex(ctx context.Context) error {
	_, err := r.run(ctx, "reset")
	return err
}

// Clone clones url into dest, resolved relative to the handle's
// directory. Extra arguments are passed through to git clone ahead of
// the url, so flags like --depth or --filter work unmodified.
func (r *Repo) Clone(ctx context.Context, url, dest string, extra []string) error {
	args := append([]string{"clone"}, extra...)
	args = append(args, "--", url, dest)
	_, err := r.run(ctx, args...)
	return err
}

// IsLinkedWorktree reports whether path is a linked worktree rather than
// a main checkout. Linked worktrees have a .git file pointing back into
// the shared store; main checkouts have a .git directory.
func IsLinkedWorktree(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	if err != nil {
		return false
	}
	return !info.IsDir()
}
