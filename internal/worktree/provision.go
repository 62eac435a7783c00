package worktree

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/elm-hollow/copse/internal/config"
	"github.com/elm-hollow/copse/internal/model"
)

// provision copies uncommitted files into a freshly created worktree
// and runs the configured post-create commands inside it. The worktree
// is already registered and usable by the time provision runs, so
// failures come back as a warning instead of an error: the first
// failing step stops provisioning and the steps that never ran are
// listed as skipped.
func (e *Engine) provision(ctx context.Context, from, dest string) *model.ProvisioningWarning {
	commands := e.cfg.Commands
	if err := e.copyUncommitted(ctx, from, dest); err != nil {
		return &model.ProvisioningWarning{
			Command: "copy uncommitted files",
			Err:     err,
			Skipped: commandDisplays(commands),
		}
	}
	for i, cmd := range commands {
		if len(cmd.Argv) == 0 {
			continue
		}
		e.log.Infow("running post-create command", "command", cmd.Display, "dir", dest)
		out, err := e.runner.CombinedOutput(ctx, dest, cmd.Argv[0], cmd.Argv[1:]...)
		if err != nil {
			if msg := strings.TrimSpace(string(out)); msg != "" {
				err = fmt.Errorf("%w: %s", err, msg)
			}
			return &model.ProvisioningWarning{
				Command: cmd.Display,
				Err:     err,
				Skipped: commandDisplays(commands[i+1:]),
			}
		}
	}
	return nil
}

// copyUncommitted mirrors untracked (and, separately gated, ignored)
// files from the worktree the command ran in into the new worktree.
// Invocations from the container or the bare store have no working
// tree of their own and carry nothing over. Existing destination files
// always win; provisioning never overwrites.
func (e *Engine) copyUncommitted(ctx context.Context, from, dest string) error {
	repo := e.repo(from)
	inside, err := repo.IsInsideWorkTree(ctx)
	if err != nil || !inside {
		return nil
	}
	src, err := repo.TopLevel(ctx)
	if err != nil {
		return err
	}
	status, err := repo.At(src).Status(ctx)
	if err != nil {
		return err
	}

	var paths []string
	if e.cfg.CopyUntrackedFiles() {
		paths = append(paths, status.Untracked()...)
	}
	if e.cfg.CopyIgnoredFiles() {
		paths = append(paths, status.Ignored()...)
	}
	for _, rel := range paths {
		if e.excluded(rel) {
			e.log.Debugw("not copying excluded path", "path", rel)
			continue
		}
		copied, err := copyPath(filepath.Join(src, rel), filepath.Join(dest, rel))
		if err != nil {
			return fmt.Errorf("copying %s: %w", rel, err)
		}
		if copied {
			e.log.Debugw("copied into new worktree", "path", rel)
		}
	}
	return nil
}

// excluded matches a repository-relative path against the configured
// copy exclusion globs. Patterns match the whole path or its final
// component, so "*.sock" excludes sockets anywhere in the tree.
func (e *Engine) excluded(rel string) bool {
	rel = strings.TrimSuffix(filepath.ToSlash(rel), "/")
	for _, pattern := range e.cfg.Add.CopyExclude {
		if ok, err := path.Match(pattern, rel); err == nil && ok {
			return true
		}
		if ok, err := path.Match(pattern, path.Base(rel)); err == nil && ok {
			return true
		}
	}
	return false
}

func commandDisplays(commands []config.Command) []string {
	if len(commands) == 0 {
		return nil
	}
	displays := make([]string, len(commands))
	for i, cmd := range commands {
		displays[i] = cmd.Display
	}
	return displays
}
