package worktree

import (
	"context"
	"errors"
	"io/fs"
	"os"
	osexec "os/exec"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/elm-hollow/copse/internal/model"
)

// CloneOptions selects what Clone fetches and where it lands.
type CloneOptions struct {
	// URL of the repository, in any form git clone accepts, or a
	// GitHub OWNER/REPO slug when gh support is enabled.
	URL string

	// Destination overrides the directory derived from the URL. It is
	// resolved relative to the invocation directory.
	Destination string

	// Extra is forwarded verbatim to `git clone`.
	Extra []string
}

// CloneResult describes the layout Clone produced.
type CloneResult struct {
	// Root is the container directory holding the store and worktrees.
	Root string
	// Worktree is the default-branch worktree under Root.
	Worktree string
	// Branch is the branch the worktree is bound to.
	Branch string
	// GH is true when the gh CLI performed the clone.
	GH bool
	// Warning is non-nil when a post-create command failed. The layout
	// is complete and usable regardless.
	Warning *model.ProvisioningWarning
}

// ghSlug matches GitHub's OWNER/REPO shorthand. Owner names top out at
// 39 characters, repository names at 100.
var ghSlug = regexp.MustCompile(`^[A-Za-z0-9._-]{1,39}/[A-Za-z0-9._-]{1,100}$`)

// Clone clones url straight into a worktree layout: a plain clone into
// the destination, converted in place, with the post-create commands
// then run in the resulting default worktree. A failure at any stage
// removes the destination, so either the finished layout appears or
// nothing does.
func (e *Engine) Clone(ctx context.Context, dir string, opts CloneOptions) (*CloneResult, error) {
	if opts.URL == "" {
		return nil, model.NewPreconditionError("a repository to clone is required")
	}
	dest := opts.Destination
	if dest == "" {
		derived, err := CloneDestination(opts.URL)
		if err != nil {
			return nil, err
		}
		dest = derived
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(dir, dest)
	}
	if _, err := os.Lstat(dest); err == nil {
		return nil, model.NewCollisionError("%s already exists", dest)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	usedGH, err := e.clone(ctx, dir, opts, dest)
	if err != nil {
		e.removeCloneRemnant(dest)
		return nil, err
	}

	conv, err := e.Convert(ctx, dest, ConvertOptions{})
	if err != nil {
		e.removeCloneRemnant(dest)
		return nil, err
	}

	return &CloneResult{
		Root:     conv.Root,
		Worktree: conv.Worktree,
		Branch:   conv.Branch,
		GH:       usedGH,
		Warning:  e.provision(ctx, conv.Root, conv.Worktree),
	}, nil
}

// clone fetches the repository into dest, through gh when the URL is
// an enabled OWNER/REPO slug and plain git otherwise. It reports which
// tool ran.
func (e *Engine) clone(ctx context.Context, dir string, opts CloneOptions, dest string) (bool, error) {
	if e.useGH(opts.URL) {
		e.log.Infow("cloning with gh", "slug", opts.URL, "dest", dest)
		args := []string{"repo", "clone", opts.URL, dest}
		if len(opts.Extra) > 0 {
			args = append(args, "--")
			args = append(args, opts.Extra...)
		}
		out, err := e.runner.CombinedOutput(ctx, dir, "gh", args...)
		if err != nil {
			msg := strings.TrimSpace(string(out))
			if msg == "" {
				msg = err.Error()
			}
			return true, model.WrapExternalToolError("gh repo clone "+opts.URL+" failed: "+msg, err)
		}
		return true, nil
	}
	e.log.Infow("cloning", "url", opts.URL, "dest", dest)
	return false, e.repo(dir).Clone(ctx, opts.URL, dest, opts.Extra)
}

// useGH reports whether url is GitHub shorthand that should go through
// the gh CLI. A slug that also names an existing local path keeps its
// plain-git meaning, and a missing gh binary quietly falls back to git.
func (e *Engine) useGH(url string) bool {
	if !e.cfg.GHEnabled() || !ghSlug.MatchString(url) {
		return false
	}
	if _, err := os.Lstat(url); err == nil {
		return false
	}
	if _, err := osexec.LookPath("gh"); err != nil {
		e.log.Debugw("gh support enabled but gh is not on PATH", "url", url)
		return false
	}
	return true
}

// removeCloneRemnant deletes whatever a failed clone or conversion
// left at dest. The path did not exist before the clone started, so
// anything there now is ours to remove.
func (e *Engine) removeCloneRemnant(dest string) {
	if err := os.RemoveAll(dest); err != nil {
		e.log.Errorw("could not clean up failed clone", "path", dest, "error", err)
	}
}

// CloneDestination derives the destination directory for a clone URL:
// the last path component minus any .git suffix. The endpoint parser
// understands every address form git accepts, including scp-like
// git@host:org/repo.git addresses that url.Parse mishandles.
func CloneDestination(url string) (string, error) {
	ep, err := transport.NewEndpoint(url)
	if err != nil {
		return "", model.NewPreconditionError("cannot parse repository URL %q: %v", url, err)
	}
	name := strings.TrimSuffix(path.Base(strings.TrimRight(ep.Path, "/")), ".git")
	if name == "" || name == "." || name == "/" {
		return "", model.NewPreconditionError("cannot derive a directory name from %q", url)
	}
	return name, nil
}
