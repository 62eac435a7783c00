package worktree

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/elm-hollow/copse/internal/git"
	"github.com/elm-hollow/copse/internal/model"
)

// AddOptions selects what worktree Add creates and where.
type AddOptions struct {
	// NameOrPath names the new worktree. A bare name is placed inside
	// the container next to the existing worktrees; anything with a
	// path separator is used as a path relative to the invocation
	// directory. Optional when Branch or ForceBranch is set.
	NameOrPath string

	// Commitish is the branch, remote-tracking branch, tag, or commit
	// the worktree starts from. Empty means: match NameOrPath against
	// existing branches, falling back to the default branch.
	Commitish string

	// Create makes a new branch named after the destination's final
	// component instead of looking for an existing one.
	Create bool

	// Branch creates a new branch with this name (git's -b).
	Branch string

	// ForceBranch is like Branch but resets the branch if it already
	// exists (git's -B).
	ForceBranch string

	// Extra is forwarded to `git worktree add` verbatim.
	Extra []string
}

// AddResult describes a worktree created by Add.
type AddResult struct {
	// Path is the worktree's directory, including any collision suffix.
	Path string
	// Branch is the branch checked out in the worktree.
	Branch string
	// CreatedBranch is true when Branch was newly created rather than
	// an existing branch checked out.
	CreatedBranch bool
	// Warning is non-nil when the worktree was created but provisioning
	// it did not finish. The worktree is usable regardless.
	Warning *model.ProvisioningWarning
}

// Add creates a new provisioned worktree in the layout containing dir.
// It decides which branch backs the worktree, where the directory
// goes, registers it with git, then copies uncommitted files over and
// runs the configured post-create commands inside it.
func (e *Engine) Add(ctx context.Context, dir string, opts AddOptions) (*AddResult, error) {
	if opts.Branch != "" && opts.ForceBranch != "" {
		return nil, model.NewPreconditionError("--branch and --force-branch are mutually exclusive")
	}
	if opts.NameOrPath == "" && opts.Branch == "" && opts.ForceBranch == "" {
		return nil, model.NewPreconditionError("a worktree name, path, or --branch is required")
	}

	repo := e.repo(dir)
	worktrees, err := repo.Worktrees(ctx)
	if err != nil {
		return nil, err
	}

	plan, err := e.planBranch(ctx, repo, opts)
	if err != nil {
		return nil, err
	}
	dest, claimed, err := e.planDestination(dir, worktrees, opts, plan)
	if err != nil {
		return nil, err
	}

	addOpts := git.AddWorktreeOptions{Extra: opts.Extra}
	if plan.existing != "" {
		addOpts.StartPoint = plan.existing
	} else {
		if plan.force {
			addOpts.ForceBranch = plan.branch
		} else {
			addOpts.Branch = plan.branch
		}
		addOpts.Track = plan.track
		addOpts.StartPoint = plan.startPoint
	}

	e.log.Infow("adding worktree",
		"path", dest, "branch", plan.name(), "start", addOpts.StartPoint, "track", addOpts.Track)
	if err := repo.AddWorktree(ctx, dest, addOpts); err != nil {
		if claimed {
			if rmErr := os.RemoveAll(dest); rmErr != nil {
				e.log.Errorw("could not remove claimed directory", "path", dest, "error", rmErr)
			}
		} else if rmErr := os.Remove(dest); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			e.log.Debugw("destination left behind", "path", dest, "error", rmErr)
		}
		return nil, err
	}

	return &AddResult{
		Path:          dest,
		Branch:        plan.name(),
		CreatedBranch: plan.existing == "",
		Warning:       e.provision(ctx, dir, dest),
	}, nil
}

// branchPlan is the branch half of an Add: either an existing local
// branch to check out, or a branch to create from a start point.
type branchPlan struct {
	existing   string
	branch     string
	force      bool
	startPoint string
	track      bool
}

// name returns the branch the worktree ends up on.
func (p branchPlan) name() string {
	if p.existing != "" {
		return p.existing
	}
	return p.branch
}

// planBranch works out the branch for the new worktree.
//
// An explicit -b/-B always creates that branch, starting from the
// commit-ish when given and from the default branch otherwise. Without
// one, the destination name doubles as a branch hint: an existing
// local branch of that name is checked out, a branch that exists on
// exactly one remote gets a local tracking branch, and otherwise a new
// branch is created from the default branch. --create skips the
// matching and always creates the hinted branch.
func (e *Engine) planBranch(ctx context.Context, repo *git.Repo, opts AddOptions) (branchPlan, error) {
	if branch := firstNonEmpty(opts.ForceBranch, opts.Branch); branch != "" {
		start, track, err := e.startPointFor(ctx, repo, opts.Commitish)
		if err != nil {
			return branchPlan{}, err
		}
		return branchPlan{
			branch:     branch,
			force:      opts.ForceBranch != "",
			startPoint: start,
			track:      track,
		}, nil
	}

	hint, err := e.DirnameFor(opts.NameOrPath)
	if err != nil {
		return branchPlan{}, err
	}
	if opts.Create {
		start, track, err := e.startPointFor(ctx, repo, opts.Commitish)
		if err != nil {
			return branchPlan{}, err
		}
		return branchPlan{branch: hint, startPoint: start, track: track}, nil
	}

	ref := opts.Commitish
	if ref == "" {
		ref = hint
	}
	plan, ok, err := e.planExistingRef(ctx, repo, ref)
	if err != nil || ok {
		return plan, err
	}
	if opts.Commitish != "" {
		// An arbitrary commit-ish: new branch named after the
		// destination, starting there, tracking nothing.
		return branchPlan{branch: hint, startPoint: opts.Commitish}, nil
	}
	start, track, err := e.startPointFor(ctx, repo, "")
	if err != nil {
		return branchPlan{}, err
	}
	return branchPlan{branch: hint, startPoint: start, track: track}, nil
}

// planExistingRef matches ref against local branches first, then
// uniquely against remote branches. A unique remote match plans a new
// local branch tracking it, the same thing `git switch` would do.
func (e *Engine) planExistingRef(ctx context.Context, repo *git.Repo, ref string) (branchPlan, bool, error) {
	if repo.LocalBranchExists(ctx, ref) {
		return branchPlan{existing: ref}, true, nil
	}
	remote, err := e.remoteForBranch(ctx, repo, ref)
	if err != nil {
		return branchPlan{}, false, err
	}
	if remote != "" {
		return branchPlan{branch: ref, startPoint: remote + "/" + ref, track: true}, true, nil
	}
	return branchPlan{}, false, nil
}

// startPointFor resolves where a new branch starts. Starting from any
// branch, local, remote, or the resolved default, sets up tracking;
// tags and commits do not.
func (e *Engine) startPointFor(ctx context.Context, repo *git.Repo, commitish string) (string, bool, error) {
	if commitish == "" {
		ref, err := e.ResolveDefaultRef(ctx, repo)
		if err != nil {
			return "", false, err
		}
		return ref.Qualified(), true, nil
	}
	if repo.LocalBranchExists(ctx, commitish) {
		return commitish, true, nil
	}
	remote, err := e.remoteForBranch(ctx, repo, commitish)
	if err != nil {
		return "", false, err
	}
	if remote != "" {
		return remote + "/" + commitish, true, nil
	}
	if repo.RemoteTrackingBranchExists(ctx, commitish) {
		return commitish, true, nil
	}
	return commitish, false, nil
}

// planDestination picks the worktree's directory. Explicit paths and
// bare names are taken literally and must not exist; only directory
// names derived from a branch are suffixed past collisions, since
// those are the ones the user never typed.
func (e *Engine) planDestination(dir string, worktrees []git.Worktree, opts AddOptions, plan branchPlan) (string, bool, error) {
	if opts.NameOrPath != "" {
		var dest string
		if strings.ContainsRune(opts.NameOrPath, '/') || strings.ContainsRune(opts.NameOrPath, os.PathSeparator) {
			dest = opts.NameOrPath
			if !filepath.IsAbs(dest) {
				dest = filepath.Join(dir, dest)
			}
		} else {
			dest = filepath.Join(container(worktrees), opts.NameOrPath)
		}
		if _, err := os.Lstat(dest); err == nil {
			return "", false, model.NewCollisionError("%s already exists", dest)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", false, err
		}
		return dest, false, nil
	}

	name, err := e.DirnameFor(plan.name())
	if err != nil {
		return "", false, err
	}
	dest, err := createUniqueDir(container(worktrees), name)
	if err != nil {
		return "", false, err
	}
	return dest, true, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
