package worktree

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/elm-hollow/copse/internal/config"
	"github.com/elm-hollow/copse/internal/exec"
	"github.com/elm-hollow/copse/internal/git"
	"github.com/elm-hollow/copse/internal/model"
)

// Engine performs worktree layout operations against a repository. It
// holds the loaded configuration, the command runner used for every
// git (and provisioning) invocation, and a logger. An Engine is
// stateless across operations and safe to reuse.
type Engine struct {
	cfg    *config.Config
	runner exec.Runner
	log    *zap.SugaredLogger
}

// NewEngine returns an Engine backed by the given runner. A nil config
// behaves like an empty configuration file and a nil logger discards
// all output.
func NewEngine(cfg *config.Config, runner exec.Runner, log *zap.SugaredLogger) *Engine {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{cfg: cfg, runner: runner, log: log}
}

// repo opens a repository handle rooted at dir, sharing the engine's
// runner and logger.
func (e *Engine) repo(dir string) *git.Repo {
	return git.Open(dir, e.runner, e.log)
}

// List returns the worktrees of the repository containing dir, the
// store's own entry first. It works from inside any worktree and from
// the container root next to the store.
func (e *Engine) List(ctx context.Context, dir string) ([]git.Worktree, error) {
	worktrees, err := e.repo(dir).Worktrees(ctx)
	if err != nil {
		return nil, err
	}
	if len(worktrees) == 0 {
		return nil, model.NewPreconditionError("%s is not inside a git repository", dir)
	}
	return worktrees, nil
}

// container returns the directory that holds the repository's
// worktrees. The first entry of `git worktree list` is the store
// itself (the bare .git directory in a converted layout, or the main
// checkout otherwise), so its parent is the container.
func container(worktrees []git.Worktree) string {
	return filepath.Dir(worktrees[0].Path)
}
