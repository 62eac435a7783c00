// Package cli — configcmd_test.go contains tests for config generate.
package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elm-hollow/copse/internal/config"
	"github.com/elm-hollow/copse/internal/model"
)

// TestConfigGenerate verifies that config generate writes the default
// configuration to the given path, creating parent directories, and that
// the result parses back into the built-in defaults.
func TestConfigGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "copse", "config.toml")

	require.NoError(t, runConfigGenerate(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTOML, string(data))

	cfg, err := config.Parse(string(data), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"upstream", "origin"}, cfg.RemoteNames())
	assert.Equal(t, []string{"main", "master", "trunk"}, cfg.BranchNames())
	assert.True(t, cfg.CopyUntrackedFiles())
	assert.True(t, cfg.CopyIgnoredFiles())
	assert.False(t, cfg.GHEnabled())
	assert.Empty(t, cfg.Commands)
	assert.Empty(t, cfg.Replacements())
}

// TestConfigGenerateRefusesOverwrite verifies that an existing file is
// left untouched and reported as a collision.
func TestConfigGenerateRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("remotes = [\"fork\"]\n"), 0o644))

	err := runConfigGenerate(path)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitCollisionError, cliErr.Code)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "remotes = [\"fork\"]\n", string(data))
}

// TestConfigGenerateStdout verifies that - prints the default
// configuration and writes nothing to disk.
func TestConfigGenerateStdout(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	out := captureStdout(t, func() error { return runConfigGenerate("-") })
	assert.Equal(t, config.DefaultTOML, out)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
