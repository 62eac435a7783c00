package worktree

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elm-hollow/copse/internal/config"
	"github.com/elm-hollow/copse/internal/exec"
)

func TestExcluded(t *testing.T) {
	engine := NewEngine(&config.Config{
		Add: config.Add{CopyExclude: []string{"*.sock", "node_modules", "secrets/*"}},
	}, exec.NewMockRunner(), nil)

	assert.True(t, engine.excluded("api.sock"))
	assert.True(t, engine.excluded("run/deep/api.sock"))
	assert.True(t, engine.excluded("node_modules/"))
	assert.True(t, engine.excluded("vendor/node_modules"))
	assert.True(t, engine.excluded("secrets/token"))
	assert.False(t, engine.excluded("README.md"))

	// A * in a pattern stops at path separators, the same matching
	// git itself uses for non-** globs.
	assert.False(t, engine.excluded("secrets/nested/token"))
}
