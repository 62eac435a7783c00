package worktree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/elm-hollow/copse/internal/model"
)

// maxDirSuffix bounds collision suffixes for derived directory names.
// Hitting it means something other than normal use is going on.
const maxDirSuffix = 100

// DirnameFor derives a directory name from a branch name. The
// configured rewrite rules are applied in order, then everything up to
// the last path separator is dropped so that a namespaced branch like
// user/feature lands in a directory called feature. A branch whose
// name rewrites away entirely cannot name a directory and is an error.
func (e *Engine) DirnameFor(branch string) (string, error) {
	name := branch
	for _, rule := range e.cfg.Replacements() {
		name = rule.Apply(name)
	}
	name = finalComponent(name)
	if name == "" || name == "." || name == ".." {
		return "", model.NewPreconditionError(
			"branch %q does not leave a usable directory name after rewrite rules", branch)
	}
	return name, nil
}

func finalComponent(name string) string {
	name = strings.TrimRight(name, "/")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// createUniqueDir creates a directory for name under parent, appending
// -2, -3, ... when the unsuffixed name is taken. Creation doubles as
// the claim: the Mkdir either succeeds and reserves the path or fails
// with fs.ErrExist and the next candidate is tried, so two concurrent
// invocations can never settle on the same directory.
func createUniqueDir(parent, name string) (string, error) {
	for i := 1; i <= maxDirSuffix; i++ {
		candidate := name
		if i > 1 {
			candidate = fmt.Sprintf("%s-%d", name, i)
		}
		path := filepath.Join(parent, candidate)
		err := os.Mkdir(path, 0o777)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return "", model.NewCollisionError(
		"gave up finding a free directory name for %s after %d attempts",
		filepath.Join(parent, name), maxDirSuffix)
}
