package worktree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elm-hollow/copse/internal/config"
	"github.com/elm-hollow/copse/internal/model"
)

func TestDirnameFor(t *testing.T) {
	engine := newTestEngine(t, nil)

	for branch, want := range map[string]string{
		"main":              "main",
		"feature":           "feature",
		"team/feature":      "feature",
		"a/b/c":             "c",
		"release/2024.01":   "2024.01",
		"trailing/slashes/": "slashes",
	} {
		got, err := engine.DirnameFor(branch)
		require.NoError(t, err)
		assert.Equal(t, want, got, "branch %q", branch)
	}
}

func TestDirnameForAppliesRulesInOrder(t *testing.T) {
	engine := newTestEngine(t, &config.Config{
		Add: config.Add{
			BranchReplacements: []config.BranchReplacement{
				{Find: `^myname/team-1234-`, Replace: ""},
				{Find: `ticket`, Replace: "issue"},
			},
		},
	})

	got, err := engine.DirnameFor("myname/team-1234-my-ticket-with-a-very-long-title")
	require.NoError(t, err)
	// The second rule sees the first rule's output, not the raw branch.
	assert.Equal(t, "my-issue-with-a-very-long-title", got)
}

func TestDirnameForCountLimitsReplacements(t *testing.T) {
	engine := newTestEngine(t, &config.Config{
		Add: config.Add{
			BranchReplacements: []config.BranchReplacement{
				{Find: `o`, Replace: "0", Count: 2},
			},
		},
	})

	got, err := engine.DirnameFor("foo-oops")
	require.NoError(t, err)
	assert.Equal(t, "f00-oops", got)
}

func TestDirnameForRejectsEmptyResult(t *testing.T) {
	engine := newTestEngine(t, &config.Config{
		Add: config.Add{
			BranchReplacements: []config.BranchReplacement{
				{Find: `.*`, Replace: ""},
			},
		},
	})

	_, err := engine.DirnameFor("anything")
	requireExitCode(t, err, model.ExitPreconditionError)
	assert.Contains(t, err.Error(), "anything")
}

func TestCreateUniqueDir(t *testing.T) {
	parent := t.TempDir()

	first, err := createUniqueDir(parent, "feature")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(parent, "feature"), first)
	assert.DirExists(t, first)

	second, err := createUniqueDir(parent, "feature")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(parent, "feature-2"), second)

	third, err := createUniqueDir(parent, "feature")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(parent, "feature-3"), third)
}

func TestCreateUniqueDirSkipsExistingFile(t *testing.T) {
	parent := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(parent, "feature"), []byte("x"), 0644))

	got, err := createUniqueDir(parent, "feature")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(parent, "feature-2"), got)
}

func TestCreateUniqueDirGivesUp(t *testing.T) {
	parent := t.TempDir()
	for i := 0; i < maxDirSuffix; i++ {
		_, err := createUniqueDir(parent, "spam")
		require.NoError(t, err)
	}

	_, err := createUniqueDir(parent, "spam")
	requireExitCode(t, err, model.ExitCollisionError)
}
