// Package main is the entry point for the cephprobe CLI.
//
// cephprobe checks whether a set of candidate hosts is ready for a Ceph
// installation. It bootstraps key-based SSH access, gathers hardware facts,
// evaluates per-host and cluster rules, and reports the result.
//
// Commands: check, access, keygen, version, completion.
//
// For detailed usage information, run:
//
//	cephprobe --help
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/imamik/cephprobe/cmd/cephprobe/commands"
	"github.com/imamik/cephprobe/cmd/cephprobe/handlers"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		if errors.Is(err, handlers.ErrNotReady) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
