package git

import (
	"context"
	"strings"
)

// StatusEntry is one record from `git status --porcelain`.
type StatusEntry struct {
	// Code is the two-letter XY state, e.g. "??" for untracked files,
	// "!!" for ignored files, " M" for an unstaged modification.
	Code string

	// Path is relative to the working tree root.
	Path string

	// OrigPath is the pre-rename path for rename and copy entries.
	OrigPath string
}

// Untracked reports whether the entry is an untracked file.
func (e StatusEntry) Untracked() bool {
	return e.Code == "??"
}

// Ignored reports whether the entry is an ignored file.
func (e StatusEntry) Ignored() bool {
	return e.Code == "!!"
}

// Tracked reports whether the entry describes a change to a tracked
// file, staged or not.
func (e StatusEntry) Tracked() bool {
	return !e.Untracked() && !e.Ignored()
}

// Status is a parsed working tree state.
type Status []StatusEntry

// HasTrackedChanges reports whether any tracked file is modified,
// staged, renamed, or deleted. Untracked and ignored files do not
// count: they carry no committed state that a relocation could lose.
func (s Status) HasTrackedChanges() bool {
	for _, e := range s {
		if e.Tracked() {
			return true
		}
	}
	return false
}

// Untracked returns the paths of untracked files.
func (s Status) Untracked() []string {
	var paths []string
	for _, e := range s {
		if e.Untracked() {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

// Ignored returns the paths of ignored files.
func (s Status) Ignored() []string {
	var paths []string
	for _, e := range s {
		if e.Ignored() {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

// Status reports the working tree state including ignored files, which
// plain `git status` omits.
func (r *Repo) Status(ctx context.Context) (Status, error) {
	out, err := r.runRaw(ctx, "status", "--porcelain=v1", "--ignored=traditional", "-z")
	if err != nil {
		return nil, err
	}
	return parseStatus(out), nil
}

// parseStatus parses NUL-delimited porcelain v1 output. Each entry is
// "XY path"; rename and copy entries carry the original path as one
// additional NUL-separated field.
func parseStatus(out string) Status {
	fields := strings.Split(out, "\x00")
	var entries Status
	for i := 0; i < len(fields); i++ {
		field := fields[i]
		if len(field) < 4 || field[2] != ' ' {
			continue
		}
		entry := StatusEntry{Code: field[:2], Path: field[3:]}
		if strings.ContainsAny(entry.Code, "RC") {
			if i+1 < len(fields) {
				i++
				entry.OrigPath = fields[i]
			}
		}
		entries = append(entries, entry)
	}
	return entries
}
