package git

import (
	"context"
	"fmt"
	"strings"
)

// Remotes lists the configured remote names, in the order git reports
// them (alphabetical). Preference ordering among remotes is the
// caller's concern.
func (r *Repo) Remotes(ctx context.Context) ([]string, error) {
	out, err := r.run(ctx, "remote")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// RemoteBranchExists reports whether the remote-tracking ref
// refs/remotes/<remote>/<branch> exists.
func (r *Repo) RemoteBranchExists(ctx context.Context, remote, branch string) bool {
	return r.probe(ctx, "show-ref", "--verify", "--quiet", "refs/remotes/"+remote+"/"+branch)
}

// RemoteTrackingBranchExists reports whether ref, already qualified
// with its remote like origin/main, names a remote-tracking branch.
func (r *Repo) RemoteTrackingBranchExists(ctx context.Context, ref string) bool {
	return r.probe(ctx, "show-ref", "--verify", "--quiet", "refs/remotes/"+ref)
}

// RemotesWithBranch returns the remotes that have a remote-tracking ref
// for branch.
func (r *Repo) RemotesWithBranch(ctx context.Context, branch string) ([]string, error) {
	// for-each-ref matches patterns with fnmatch semantics where *
	// stops at /, so the wildcard spans exactly the remote name even
	// for branches containing slashes.
	out, err := r.run(ctx, "for-each-ref", "--format=%(refname)", "refs/remotes/*/"+branch)
	if err != nil {
		return nil, err
	}
	var remotes []string
	for _, line := range strings.Split(out, "\n") {
		rest, ok := strings.CutPrefix(line, "refs/remotes/")
		if !ok {
			continue
		}
		remote, _, ok := strings.Cut(rest, "/")
		if ok {
			remotes = append(remotes, remote)
		}
	}
	return remotes, nil
}

// RemoteDefaultBranch determines the default branch of a remote.
//
// The tracking symref refs/remotes/<remote>/HEAD answers locally when
// the repository was cloned normally. When it is absent (remotes added
// by hand, or clones made by tools that skip it), the remote itself is
// asked over the wire, and the answer is written back so later
// resolutions stay local.
func (r *Repo) RemoteDefaultBranch(ctx context.Context, remote string) (string, error) {
	if branch, ok := r.remoteHead(ctx, remote); ok {
		return branch, nil
	}
	branch, err := r.lsRemoteHead(ctx, remote)
	if err != nil {
		return "", err
	}
	if err := r.SetRemoteHead(ctx, remote, branch); err != nil {
		return "", err
	}
	return branch, nil
}

// remoteHead reads the locally recorded default branch of a remote. A
// missing or malformed symref reports ok=false rather than an error.
func (r *Repo) remoteHead(ctx context.Context, remote string) (string, bool) {
	args := []string{"symbolic-ref", "--quiet", "refs/remotes/" + remote + "/HEAD"}
	r.log.Debugw("running git", "dir", r.dir, "args", strings.Join(args, " "))
	stdout, _, err := r.runner.Run(ctx, r.dir, "git", args...)
	if err != nil {
		return "", false
	}
	ref := strings.TrimSpace(string(stdout))
	branch, ok := strings.CutPrefix(ref, "refs/remotes/"+remote+"/")
	if !ok || branch == "" || branch == "HEAD" {
		return "", false
	}
	return branch, true
}

// lsRemoteHead asks the remote which branch its HEAD points at. The
// answer is the line "ref: refs/heads/<branch>\tHEAD" ahead of the
// usual ref listing.
func (r *Repo) lsRemoteHead(ctx context.Context, remote string) (string, error) {
	out, err := r.run(ctx, "ls-remote", "--symref", remote, "HEAD")
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(out, "\n") {
		rest, ok := strings.CutPrefix(line, "ref: ")
		if !ok {
			continue
		}
		ref, _, _ := strings.Cut(rest, "\t")
		if branch, ok := strings.CutPrefix(ref, "refs/heads/"); ok {
			return branch, nil
		}
	}
	// Servers can respond without a symref line (detached remote HEAD,
	// very old git). There is no default branch to discover then.
	return "", fmt.Errorf("remote %q did not report a symbolic HEAD", remote)
}

// SetRemoteHead records branch as the default branch of remote, so the
// next resolution is answered without network traffic.
func (r *Repo) SetRemoteHead(ctx context.Context, remote, branch string) error {
	_, err := r.run(ctx, "symbolic-ref",
		"refs/remotes/"+remote+"/HEAD",
		"refs/remotes/"+remote+"/"+branch)
	return err
}

// Fetch updates remote-tracking refs from remote. With no refspecs the
// remote's configured refspec applies.
func (r *Repo) Fetch(ctx context.Context, remote string, refspecs ...string) error {
	args := append([]string{"fetch", remote}, refspecs...)
	_, err := r.run(ctx, args...)
	return err
}
