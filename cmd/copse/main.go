// Package main is the entry point for the copse CLI.
//
// The binary converts single checkouts into worktree layouts, clones
// repositories directly into that layout, and adds provisioned
// worktrees to it. All command wiring lives in internal/cli; this
// package only carries build metadata into it.
package main

import (
	"github.com/elm-hollow/copse/internal/cli"
)

// Set by GoReleaser at release time via ldflags; the defaults identify
// development builds.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	cli.Execute(cli.NewRootCommand())
}
