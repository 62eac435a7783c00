package git

import (
	"context"
	"strings"
)

// Worktree is one entry from `git worktree list`.
type Worktree struct {
	// Path is the absolute path of the worktree root. For the bare
	// entry of a converted repository this is the store directory
	// itself.
	Path string `json:"path" yaml:"path"`

	// Head is the commit the worktree is checked out at, empty for a
	// bare entry.
	Head string `json:"head,omitempty" yaml:"head,omitempty"`

	// Branch is the short branch name, empty when detached or bare.
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty"`

	// Bare marks the administrative store entry of a converted
	// repository.
	Bare bool `json:"bare,omitempty" yaml:"bare,omitempty"`

	// Detached reports a worktree not checked out on any branch.
	Detached bool `json:"detached,omitempty" yaml:"detached,omitempty"`
}

// Worktrees lists every worktree attached to the repository. Git always
// reports the main (or bare) entry first.
func (r *Repo) Worktrees(ctx context.Context) ([]Worktree, error) {
	out, err := r.runRaw(ctx, "worktree", "list", "--porcelain", "-z")
	if err != nil {
		return nil, err
	}
	return parseWorktreeList(out), nil
}

// parseWorktreeList parses `git worktree list --porcelain -z` output.
// Each attribute is a NUL-terminated "key value" field and an empty
// field closes the record, so paths containing spaces or newlines
// survive the round trip.
func parseWorktreeList(output string) []Worktree {
	var worktrees []Worktree
	var current *Worktree

	for _, field := range strings.Split(output, "\x00") {
		if field == "" {
			if current != nil {
				worktrees = append(worktrees, *current)
				current = nil
			}
			continue
		}

		key, value, _ := strings.Cut(field, " ")
		switch key {
		case "worktree":
			if current != nil {
				worktrees = append(worktrees, *current)
			}
			current = &Worktree{Path: value}
		case "HEAD":
			if current != nil {
				current.Head = value
			}
		case "branch":
			if current != nil {
				current.Branch = strings.TrimPrefix(value, "refs/heads/")
			}
		case "bare":
			if current != nil {
				current.Bare = true
			}
		case "detached":
			if current != nil {
				current.Detached = true
			}
		}
		// Other keys (locked, prunable) are irrelevant here.
	}

	if current != nil {
		worktrees = append(worktrees, *current)
	}
	return worktrees
}

// AddWorktreeOptions controls how a worktree is registered. The zero
// value checks out an existing commit-ish with no new branch.
type AddWorktreeOptions struct {
	// Branch creates a new branch (-b) checked out in the worktree.
	Branch string

	// ForceBranch creates or resets a branch (-B). Mutually exclusive
	// with Branch.
	ForceBranch string

	// Track sets the new branch to track its start point, which must
	// then be a remote-tracking branch.
	Track bool

	// NoCheckout registers the worktree without populating its files.
	NoCheckout bool

	// StartPoint is the commit-ish the worktree (and any new branch)
	// starts at. Empty means HEAD.
	StartPoint string

	// Extra is passed through to `git worktree add` verbatim, ahead of
	// the path.
	Extra []string
}

// AddWorktree registers path as a new worktree.
func (r *Repo) AddWorktree(ctx context.Context, path string, opts AddWorktreeOptions) error {
	args := []string{"worktree", "add"}
	if opts.NoCheckout {
		args = append(args, "--no-checkout")
	}
	if opts.Track {
		args = append(args, "--track")
	}
	if opts.Branch != "" {
		args = append(args, "-b", opts.Branch)
	}
	if opts.ForceBranch != "" {
		args = append(args, "-B", opts.ForceBranch)
	}
	args = append(args, opts.Extra...)
	args = append(args, path)
	if opts.StartPoint != "" {
		args = append(args, opts.StartPoint)
	}
	_, err := r.run(ctx, args...)
	return err
}

// RemoveWorktree unregisters and deletes a worktree. Force removes it
// even when it is dirty or locked.
func (r *Repo) RemoveWorktree(ctx context.Context, path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	_, err := r.run(ctx, args...)
	return err
}

// PruneWorktrees drops administrative entries for worktrees whose
// directories no longer exist. Expiry is forced so even entries git
// still considers fresh are pruned.
func (r *Repo) PruneWorktrees(ctx context.Context) error {
	_, err := r.run(ctx, "worktree", "prune", "--expire", "now")
	return err
}

// RepairWorktrees fixes up the links between the administrative store
// and worktrees after either side has been moved on disk.
func (r *Repo) RepairWorktrees(ctx context.Context, paths ...string) error {
	args := append([]string{"worktree", "repair"}, paths...)
	_, err := r.run(ctx, args...)
	return err
}
