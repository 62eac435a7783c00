package worktree

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/elm-hollow/copse/internal/exec"
	"github.com/elm-hollow/copse/internal/model"
)

// workingFiles strips the .git entries from a tree snapshot, leaving
// only working files for before/after comparisons across a conversion.
func workingFiles(snapshot map[string]string) map[string]string {
	files := make(map[string]string)
	for path, desc := range snapshot {
		if path == ".git" || strings.HasPrefix(path, ".git"+string(filepath.Separator)) {
			continue
		}
		files[path] = desc
	}
	return files
}

func TestConvert(t *testing.T) {
	dir := setupTestRepo(t)
	engine := newTestEngine(t, nil)

	result, err := engine.Convert(context.Background(), dir, ConvertOptions{})
	require.NoError(t, err)

	assert.Equal(t, dir, result.Root)
	assert.Equal(t, filepath.Join(dir, ".git"), result.Store)
	assert.Equal(t, filepath.Join(dir, "main"), result.Worktree)
	assert.Equal(t, "main", result.Branch)

	assert.DirExists(t, result.Store)
	assert.FileExists(t, filepath.Join(result.Worktree, "README.md"))
	assert.FileExists(t, filepath.Join(result.Worktree, ".git"))

	assert.Equal(t, "main", strings.TrimSpace(runTestGit(t, result.Worktree, "rev-parse", "--abbrev-ref", "HEAD")))
	assert.Empty(t, strings.TrimSpace(runTestGit(t, result.Worktree, "status", "--porcelain")))

	list := runTestGit(t, result.Root, "worktree", "list", "--porcelain")
	assert.Contains(t, list, "bare")
	assert.Contains(t, list, "branch refs/heads/main")
}

func TestConvertFromSubdirectory(t *testing.T) {
	dir := setupTestRepo(t)
	sub := filepath.Join(dir, "pkg", "deep")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "keep.go"), []byte("package deep\n"), 0644))

	engine := newTestEngine(t, nil)
	result, err := engine.Convert(context.Background(), sub, ConvertOptions{})
	require.NoError(t, err)
	assert.Equal(t, dir, result.Root)
	assert.FileExists(t, filepath.Join(result.Worktree, "pkg", "deep", "keep.go"))
}

func TestConvertRoundTrip(t *testing.T) {
	dir := setupTestRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "nested", "deep.go"), []byte("package nested\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.log\n"), 0644))
	runTestGit(t, dir, "add", ".")
	runTestGit(t, dir, "commit", "-m", "more files")

	// Untracked, ignored, and symlinked content all ride along.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.txt"), []byte("untracked\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "debug.log"), []byte("ignored\n"), 0644))
	require.NoError(t, os.Symlink("README.md", filepath.Join(dir, "readme-link")))

	before := workingFiles(treeSnapshot(t, dir))

	engine := newTestEngine(t, nil)
	result, err := engine.Convert(context.Background(), dir, ConvertOptions{})
	require.NoError(t, err)

	after := workingFiles(treeSnapshot(t, result.Worktree))
	assert.Equal(t, before, after)
	assert.Empty(t, strings.TrimSpace(runTestGit(t, result.Worktree, "status", "--porcelain")))
}

func TestConvertAlreadyConverted(t *testing.T) {
	root, main := setupLayout(t)
	engine := newTestEngine(t, nil)

	// From the container root and from inside a worktree alike, a
	// second conversion refuses and mutates nothing.
	for _, dir := range []string{root, main} {
		before := treeSnapshot(t, root)
		_, err := engine.Convert(context.Background(), dir, ConvertOptions{})
		requireExitCode(t, err, model.ExitPreconditionError)
		assert.Equal(t, before, treeSnapshot(t, root), "convert from %s mutated the tree", dir)
	}
}

func TestConvertDirtyTreeBlocked(t *testing.T) {
	dir := setupTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("edited\n"), 0644))

	engine := newTestEngine(t, nil)
	_, err := engine.Convert(context.Background(), dir, ConvertOptions{})
	requireExitCode(t, err, model.ExitPreconditionError)
	assert.Contains(t, err.Error(), "uncommitted changes")

	assert.DirExists(t, filepath.Join(dir, ".git"))
	assert.FileExists(t, filepath.Join(dir, "README.md"))
}

func TestConvertBindsResolvedDefaultBranch(t *testing.T) {
	dir := setupTestRepo(t)
	runTestGit(t, dir, "checkout", "-b", "feature")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "feature.txt"), []byte("new\n"), 0644))
	runTestGit(t, dir, "add", ".")
	runTestGit(t, dir, "commit", "-m", "feature work")

	engine := newTestEngine(t, nil)
	result, err := engine.Convert(context.Background(), dir, ConvertOptions{})
	require.NoError(t, err)

	// The worktree binds to main, not to the branch that happened to
	// be checked out, and the files stay exactly as they were: work
	// committed only on feature shows up as pending changes.
	assert.Equal(t, "main", result.Branch)
	assert.Equal(t, filepath.Join(dir, "main"), result.Worktree)
	assert.Equal(t, "main", strings.TrimSpace(runTestGit(t, result.Worktree, "rev-parse", "--abbrev-ref", "HEAD")))
	assert.FileExists(t, filepath.Join(result.Worktree, "feature.txt"))
	assert.Contains(t, runTestGit(t, result.Worktree, "status", "--porcelain"), "feature.txt")
}

func TestConvertDetachedHead(t *testing.T) {
	dir := setupTestRepo(t)
	runTestGit(t, dir, "checkout", "--detach")

	engine := newTestEngine(t, nil)
	result, err := engine.Convert(context.Background(), dir, ConvertOptions{})
	require.NoError(t, err)
	assert.Equal(t, "main", result.Branch)
	assert.Equal(t, "main", strings.TrimSpace(runTestGit(t, result.Worktree, "rev-parse", "--abbrev-ref", "HEAD")))
}

func TestConvertDefaultBranchOverride(t *testing.T) {
	dir := setupTestRepo(t)
	runTestGit(t, dir, "branch", "release")

	engine := newTestEngine(t, nil)
	result, err := engine.Convert(context.Background(), dir, ConvertOptions{DefaultBranch: "release"})
	require.NoError(t, err)
	assert.Equal(t, "release", result.Branch)
	assert.Equal(t, filepath.Join(dir, "release"), result.Worktree)
	assert.Equal(t, "release", strings.TrimSpace(runTestGit(t, result.Worktree, "rev-parse", "--abbrev-ref", "HEAD")))
}

func TestConvertCreatesLocalDefaultFromRemote(t *testing.T) {
	local, _ := setupClone(t)

	// The clone checked out main; rename it away so the resolved
	// default has no local branch and must be created from the remote.
	runTestGit(t, local, "branch", "-m", "main", "elsewhere")

	engine := newTestEngine(t, nil)
	result, err := engine.Convert(context.Background(), local, ConvertOptions{})
	require.NoError(t, err)
	assert.Equal(t, "main", result.Branch)

	remote := strings.TrimSpace(runTestGit(t, result.Worktree, "config", "branch.main.remote"))
	assert.Equal(t, "origin", remote)
}

func TestConvertFailureRollsBack(t *testing.T) {
	dir := setupTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.txt"), []byte("untracked\n"), 0644))
	before := treeSnapshot(t, dir)

	runner := &failingRunner{
		Runner: exec.NewRealRunner(),
		match: func(args []string) bool {
			return len(args) >= 2 && args[0] == "worktree" && args[1] == "add"
		},
	}
	engine := NewEngine(nil, runner, zaptest.NewLogger(t).Sugar())

	_, err := engine.Convert(context.Background(), dir, ConvertOptions{})
	requireExitCode(t, err, model.ExitExternalToolError)

	// Everything is back where it started, the staging directory is
	// gone, and the repository still works.
	assert.Equal(t, before, treeSnapshot(t, dir))
	leftovers, globErr := filepath.Glob(filepath.Join(filepath.Dir(dir), ".copse-convert-*"))
	require.NoError(t, globErr)
	assert.Empty(t, leftovers)
	assert.Equal(t, "main", strings.TrimSpace(runTestGit(t, dir, "rev-parse", "--abbrev-ref", "HEAD")))
	assert.Empty(t, strings.TrimSpace(runTestGit(t, dir, "status", "--porcelain", "--untracked-files=no")))
}

func TestConvertRollbackDeletesCreatedBranch(t *testing.T) {
	local, _ := setupClone(t)
	runTestGit(t, local, "branch", "-m", "main", "elsewhere")

	runner := &failingRunner{
		Runner: exec.NewRealRunner(),
		match: func(args []string) bool {
			return len(args) >= 2 && args[0] == "worktree" && args[1] == "repair"
		},
	}
	engine := NewEngine(nil, runner, zaptest.NewLogger(t).Sugar())

	_, err := engine.Convert(context.Background(), local, ConvertOptions{})
	requireExitCode(t, err, model.ExitExternalToolError)

	// The local main branch existed only for the failed conversion.
	assert.Error(t, probeGit(t, local, "show-ref", "--verify", "--quiet", "refs/heads/main"))
}

func TestConvertBareRepository(t *testing.T) {
	dir := t.TempDir()
	runTestGit(t, dir, "init", "--bare", "--initial-branch=main")

	engine := newTestEngine(t, nil)
	_, err := engine.Convert(context.Background(), dir, ConvertOptions{})
	requireExitCode(t, err, model.ExitPreconditionError)
}

func TestConvertOutsideRepository(t *testing.T) {
	engine := newTestEngine(t, nil)
	_, err := engine.Convert(context.Background(), t.TempDir(), ConvertOptions{})
	requireExitCode(t, err, model.ExitPreconditionError)
}

func TestConvertLinkedWorktreeRefused(t *testing.T) {
	dir := setupTestRepo(t)
	linked := filepath.Join(filepath.Dir(dir), "linked")
	runTestGit(t, dir, "worktree", "add", "-b", "side", linked)

	engine := newTestEngine(t, nil)

	_, err := engine.Convert(context.Background(), linked, ConvertOptions{})
	requireExitCode(t, err, model.ExitPreconditionError)
	assert.Contains(t, err.Error(), "linked worktree")

	// The main checkout now has two worktrees, which blocks it too.
	_, err = engine.Convert(context.Background(), dir, ConvertOptions{})
	requireExitCode(t, err, model.ExitPreconditionError)
	assert.Contains(t, err.Error(), "worktrees")
}

func TestConvertWithoutCommits(t *testing.T) {
	dir := t.TempDir()
	runTestGit(t, dir, "init", "--initial-branch=main")

	engine := newTestEngine(t, nil)
	_, err := engine.Convert(context.Background(), dir, ConvertOptions{})
	requireExitCode(t, err, model.ExitPreconditionError)
	assert.Contains(t, err.Error(), "no commits")
}

// probeGit runs a git invocation that is allowed to fail, returning
// its error.
func probeGit(t *testing.T, dir string, args ...string) error {
	t.Helper()
	_, _, err := exec.NewRealRunner().Run(context.Background(), dir, "git", args...)
	return err
}
