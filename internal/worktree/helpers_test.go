package worktree

import (
	"context"
	"io/fs"
	"os"
	osexec "os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/elm-hollow/copse/internal/config"
	"github.com/elm-hollow/copse/internal/exec"
	"github.com/elm-hollow/copse/internal/model"
)

// setupTestRepo creates a temporary directory with an initialized Git
// repository containing a single commit on branch "main". The branch
// name is pinned with --initial-branch so assertions do not depend on
// the host's init.defaultBranch setting.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	runTestGit(t, dir, "init", "--initial-branch=main")
	runTestGit(t, dir, "config", "user.email", "test@example.com")
	runTestGit(t, dir, "config", "user.name", "Test User")

	err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Test Repo\n"), 0644)
	require.NoError(t, err, "failed to create initial file")

	runTestGit(t, dir, "add", ".")
	runTestGit(t, dir, "commit", "-m", "initial commit")

	return dir
}

// runTestGit runs a git command in the specified directory and fails the
// test immediately if the command exits with a non-zero status.
func runTestGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := osexec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(output))
	return string(output)
}

// newTestEngine returns an Engine backed by the real git binary, with
// logs routed into the test output. A nil cfg uses the defaults.
func newTestEngine(t *testing.T, cfg *config.Config) *Engine {
	t.Helper()
	return NewEngine(cfg, exec.NewRealRunner(), zaptest.NewLogger(t).Sugar())
}

// setupLayout converts a fresh single-commit repository and returns the
// container root and the main worktree path.
func setupLayout(t *testing.T) (root, main string) {
	t.Helper()

	dir := setupTestRepo(t)
	engine := newTestEngine(t, nil)
	result, err := engine.Convert(context.Background(), dir, ConvertOptions{})
	require.NoError(t, err)
	return result.Root, result.Worktree
}

// treeSnapshot maps every path under root to a string describing it:
// directories, symlink targets, and full file contents. Two snapshots
// compare equal exactly when the trees are identical.
func treeSnapshot(t *testing.T, root string) map[string]string {
	t.Helper()

	snapshot := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		switch {
		case entry.IsDir():
			snapshot[rel] = "dir"
		case info.Mode()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			snapshot[rel] = "link:" + target
		default:
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			snapshot[rel] = string(content)
		}
		return nil
	})
	require.NoError(t, err)
	return snapshot
}

// chdir changes the working directory and PWD for the duration of the
// test and restores both on cleanup. It stands in for testing.T.Chdir,
// which requires a newer Go toolchain than this module builds with.
func chdir(t *testing.T, dir string) {
	t.Helper()

	oldwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	if !filepath.IsAbs(dir) {
		dir, err = os.Getwd()
		require.NoError(t, err)
	}
	t.Setenv("PWD", dir)
	t.Cleanup(func() { require.NoError(t, os.Chdir(oldwd)) })
}

// requireExitCode asserts that err is a *model.CLIError carrying code.
func requireExitCode(t *testing.T, err error, code model.ExitCode) *model.CLIError {
	t.Helper()

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	require.Equal(t, code, cliErr.Code, "unexpected exit code in %v", err)
	return cliErr
}

// failingRunner delegates to an inner runner except for git commands
// matching match, which fail like a crashed process.
type failingRunner struct {
	exec.Runner
	match func(args []string) bool
}

func (f *failingRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, []byte, error) {
	if name == "git" && f.match(args) {
		return nil, []byte("injected failure"), &exec.ExitError{Status: 128}
	}
	return f.Runner.Run(ctx, dir, name, args...)
}

func boolPtr(b bool) *bool {
	return &b
}
