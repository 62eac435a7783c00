package worktree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/elm-hollow/copse/internal/git"
	"github.com/elm-hollow/copse/internal/model"
)

// ConvertOptions adjusts how a repository is converted.
type ConvertOptions struct {
	// DefaultBranch overrides default branch resolution and binds the
	// retained worktree to the named branch instead.
	DefaultBranch string
}

// ConvertResult describes the layout produced by Convert.
type ConvertResult struct {
	// Root is the container directory, at the path the original
	// checkout occupied.
	Root string
	// Store is the shared .git directory under Root.
	Store string
	// Worktree is the default-branch worktree under Root.
	Worktree string
	// Branch is the branch Worktree is bound to.
	Branch string
}

// Convert reshapes the single checkout containing dir into a container
// layout: the checkout's path becomes a plain directory holding the
// shared .git store and one worktree per branch, starting with a
// worktree for the default branch that keeps the original working
// files byte for byte.
//
// Conversion is staged. Every destructive filesystem step records its
// compensating action first, so a failure part way through restores
// the original checkout instead of leaving a half-converted husk.
func (e *Engine) Convert(ctx context.Context, dir string, opts ConvertOptions) (*ConvertResult, error) {
	repo := e.repo(dir)

	inside, err := repo.IsInsideWorkTree(ctx)
	if err != nil {
		e.log.Debugw("rev-parse failed", "dir", dir, "error", err)
		return nil, model.NewPreconditionError("%s is not inside a git repository", dir)
	}
	if !inside {
		return nil, model.NewPreconditionError("cannot convert a bare repository")
	}

	root, err := repo.TopLevel(ctx)
	if err != nil {
		return nil, err
	}
	repo = repo.At(root)

	if git.IsLinkedWorktree(root) {
		return nil, model.NewPreconditionError(
			"%s is a linked worktree; run convert from the repository's main checkout", root)
	}
	worktrees, err := repo.Worktrees(ctx)
	if err != nil {
		return nil, err
	}
	if len(worktrees) > 0 && worktrees[0].Bare {
		return nil, model.NewPreconditionError(
			"%s already uses a worktree layout (store at %s)", root, worktrees[0].Path)
	}
	if len(worktrees) > 1 {
		return nil, model.NewPreconditionError(
			"%s already has %d worktrees; convert expects a single checkout", root, len(worktrees))
	}

	status, err := repo.Status(ctx)
	if err != nil {
		return nil, err
	}
	if status.HasTrackedChanges() {
		return nil, model.NewPreconditionError(
			"the repository has uncommitted changes; commit or stash them before converting")
	}

	head, err := repo.Head(ctx)
	if err != nil {
		return nil, model.NewPreconditionError("the repository has no commits to build a worktree from")
	}

	branch, resolvedRemote, err := e.convertBranch(ctx, repo, opts)
	if err != nil {
		return nil, err
	}
	name, err := e.DirnameFor(branch)
	if err != nil {
		return nil, err
	}

	undo := &undoStack{log: e.log}
	result, err := e.convertLayout(ctx, undo, repo, root, head, branch, resolvedRemote, name)
	if err != nil {
		undo.rollback()
		return nil, err
	}
	return result, nil
}

// convertBranch decides which branch the retained worktree is bound
// to: the explicit override when given, otherwise the resolved default
// branch. The second return value names the remote the default was
// resolved from, or "" when it came from local state.
func (e *Engine) convertBranch(ctx context.Context, repo *git.Repo, opts ConvertOptions) (string, string, error) {
	if opts.DefaultBranch != "" {
		return opts.DefaultBranch, "", nil
	}
	ref, err := e.ResolveDefaultRef(ctx, repo)
	if err != nil {
		return "", "", err
	}
	return ref.Branch, ref.Remote, nil
}

// convertLayout performs the conversion proper, pushing a compensating
// action onto undo after each destructive step. The caller rolls the
// stack back on error.
func (e *Engine) convertLayout(ctx context.Context, undo *undoStack, repo *git.Repo, root, head, branch, resolvedRemote, name string) (*ConvertResult, error) {
	if err := e.ensureLocalBranch(ctx, undo, repo, head, branch, resolvedRemote); err != nil {
		return nil, err
	}

	// All moves go through a staging directory next to the root so a
	// crash mid-move never leaves two half-populated trees, and so the
	// renames stay on one filesystem whenever the parent allows it.
	staging, err := os.MkdirTemp(filepath.Dir(root), ".copse-convert-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	defer func() {
		// Only ever empty by now; a non-empty staging directory means
		// rollback could not finish and its contents must survive.
		if err := os.Remove(staging); err != nil {
			e.log.Debugw("staging directory not removed", "path", staging, "error", err)
		}
	}()

	gitDir := filepath.Join(root, ".git")
	stagedGit := filepath.Join(staging, ".git")
	stagedTree := filepath.Join(staging, name)
	worktreePath := filepath.Join(root, name)

	e.log.Infow("converting to a worktree layout", "root", root, "branch", branch, "worktree", worktreePath)

	if err := renameOrCopy(gitDir, stagedGit); err != nil {
		return nil, fmt.Errorf("staging the .git directory: %w", err)
	}
	undo.push("restore .git directory", func() error {
		return renameOrCopy(stagedGit, gitDir)
	})

	if err := e.repo(stagedGit).ConfigSet(ctx, "core.bare", "true"); err != nil {
		return nil, err
	}
	undo.push("unset core.bare", func() error {
		return e.repo(stagedGit).ConfigSet(ctx, "core.bare", "false")
	})

	if err := renameOrCopy(root, stagedTree); err != nil {
		return nil, fmt.Errorf("staging the working tree: %w", err)
	}
	undo.push("restore working tree", func() error {
		return renameOrCopy(stagedTree, root)
	})

	if err := os.Mkdir(root, 0o777); err != nil {
		return nil, fmt.Errorf("recreating the container directory: %w", err)
	}
	undo.push("remove container directory", func() error {
		return os.Remove(root)
	})

	if err := renameOrCopy(stagedGit, gitDir); err != nil {
		return nil, fmt.Errorf("installing the shared store: %w", err)
	}
	undo.push("stage .git directory again", func() error {
		return renameOrCopy(gitDir, stagedGit)
	})

	// Register the worktree without checking anything out. It exists
	// only so git records the path; the original files are swapped in
	// below.
	store := e.repo(root)
	if err := store.AddWorktree(ctx, worktreePath, git.AddWorktreeOptions{
		NoCheckout: true,
		StartPoint: branch,
	}); err != nil {
		return nil, err
	}
	undo.push("unregister placeholder worktree", func() error {
		if err := store.RemoveWorktree(ctx, worktreePath, true); err == nil {
			return nil
		}
		if err := os.RemoveAll(worktreePath); err != nil {
			return err
		}
		return store.PruneWorktrees(ctx)
	})

	// Align the index with the bound branch. The original files are
	// preserved verbatim, so anything that differs from the branch tip
	// shows up as a local modification afterwards.
	if err := e.repo(worktreePath).ResetIndex(ctx); err != nil {
		return nil, err
	}

	gitFile := filepath.Join(worktreePath, ".git")
	stagedGitFile := filepath.Join(stagedTree, ".git")
	if err := renameOrCopy(gitFile, stagedGitFile); err != nil {
		return nil, fmt.Errorf("attaching the original files to the worktree: %w", err)
	}
	undo.push("detach .git file", func() error {
		return renameOrCopy(stagedGitFile, gitFile)
	})

	if err := os.Remove(worktreePath); err != nil {
		return nil, fmt.Errorf("removing the placeholder checkout: %w", err)
	}
	undo.push("recreate placeholder directory", func() error {
		return os.Mkdir(worktreePath, 0o777)
	})

	if err := renameOrCopy(stagedTree, worktreePath); err != nil {
		return nil, fmt.Errorf("moving the working tree into place: %w", err)
	}
	undo.push("stage working tree again", func() error {
		return renameOrCopy(worktreePath, stagedTree)
	})

	if err := store.RepairWorktrees(ctx, worktreePath); err != nil {
		return nil, err
	}

	undo.actions = nil
	return &ConvertResult{
		Root:     root,
		Store:    gitDir,
		Worktree: worktreePath,
		Branch:   branch,
	}, nil
}

// ensureLocalBranch makes sure the branch the worktree will be bound
// to exists locally. A branch resolved from a remote is created to
// track its remote-tracking ref, fetching it first when the ref is
// missing; with nothing remote to go on, the branch is created at the
// current HEAD so conversion binds to the files it keeps.
func (e *Engine) ensureLocalBranch(ctx context.Context, undo *undoStack, repo *git.Repo, head, branch, resolvedRemote string) error {
	if repo.LocalBranchExists(ctx, branch) {
		return nil
	}
	remote, err := e.remoteForBranch(ctx, repo, branch)
	if err != nil {
		return err
	}
	if remote == "" && resolvedRemote != "" {
		e.log.Infow("fetching the default branch", "remote", resolvedRemote, "branch", branch)
		if err := repo.Fetch(ctx, resolvedRemote, branch); err != nil {
			return err
		}
		if repo.RemoteBranchExists(ctx, resolvedRemote, branch) {
			remote = resolvedRemote
		}
	}
	start, track := head, false
	if remote != "" {
		start, track = remote+"/"+branch, true
	}
	if err := repo.CreateBranch(ctx, branch, start, track); err != nil {
		return err
	}
	undo.push("delete created branch "+branch, func() error {
		return repo.DeleteBranch(ctx, branch, true)
	})
	return nil
}
