package worktree

import (
	"context"
	"slices"

	"github.com/elm-hollow/copse/internal/git"
	"github.com/elm-hollow/copse/internal/model"
)

// ResolveDefaultRef determines the repository's default branch.
//
// When a preferred remote exists, it is asked for its default branch
// and the answer is authoritative: a query failure is reported as a
// resolution error rather than papered over with a local guess, since
// converting or branching from the wrong base is worse than stopping.
// Without a preferred remote, the configured default branch names are
// tried as local branches in order.
func (e *Engine) ResolveDefaultRef(ctx context.Context, repo *git.Repo) (model.DefaultRef, error) {
	remote, err := e.preferredRemote(ctx, repo)
	if err != nil {
		return model.DefaultRef{}, err
	}
	if remote != "" {
		branch, err := repo.RemoteDefaultBranch(ctx, remote)
		if err != nil {
			return model.DefaultRef{}, model.WrapCLIError(model.ExitResolutionError,
				"could not determine the default branch of remote "+remote, err)
		}
		return model.DefaultRef{Remote: remote, Branch: branch}, nil
	}
	for _, name := range e.cfg.BranchNames() {
		if repo.LocalBranchExists(ctx, name) {
			return model.DefaultRef{Branch: name}, nil
		}
	}
	return model.DefaultRef{}, model.NewResolutionError(
		"could not determine the default branch: no preferred remote and none of %v exist locally",
		e.cfg.BranchNames())
}

// preferredRemote picks the remote used for default branch queries.
// The repository's own checkout.defaultRemote wins when it names an
// existing remote; after that the configured remote names are tried in
// order. An empty string means no remote qualifies and resolution
// falls through to local branches.
func (e *Engine) preferredRemote(ctx context.Context, repo *git.Repo) (string, error) {
	remotes, err := repo.Remotes(ctx)
	if err != nil {
		return "", err
	}
	if len(remotes) == 0 {
		return "", nil
	}
	preferred, ok, err := repo.ConfigGet(ctx, "checkout.defaultRemote")
	if err != nil {
		return "", err
	}
	if ok && slices.Contains(remotes, preferred) {
		return preferred, nil
	}
	for _, want := range e.cfg.RemoteNames() {
		if slices.Contains(remotes, want) {
			return want, nil
		}
	}
	return "", nil
}

// remoteForBranch finds the remote whose remote-tracking ref should
// back a local branch named branch. A single match wins outright. With
// several matches the checkout.defaultRemote setting breaks the tie,
// and an unbroken tie counts as no match at all so the caller falls
// back to the default branch instead of guessing.
func (e *Engine) remoteForBranch(ctx context.Context, repo *git.Repo, branch string) (string, error) {
	remotes, err := repo.RemotesWithBranch(ctx, branch)
	if err != nil {
		return "", err
	}
	switch len(remotes) {
	case 0:
		return "", nil
	case 1:
		return remotes[0], nil
	}
	preferred, ok, err := repo.ConfigGet(ctx, "checkout.defaultRemote")
	if err != nil {
		return "", err
	}
	if ok && slices.Contains(remotes, preferred) {
		return preferred, nil
	}
	e.log.Debugw("branch exists on several remotes and checkout.defaultRemote does not settle it",
		"branch", branch, "remotes", remotes)
	return "", nil
}
