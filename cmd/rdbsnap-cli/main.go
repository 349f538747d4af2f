// Command rdbsnap-cli drives the snapshot codec against an in-process
// toy keyspace, for manual exercise of save/bgsave/load/archive/restore
// without a real datastore attached.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/emberkv/rdbsnap/bgsave"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == bgsave.ReExecFlag {
		runReExecChild(os.Args[2:])
		return
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runReExecChild is what the self re-exec'd process runs instead of the
// normal cobra command tree: os.Args[1] is bgsave.ReExecFlag, os.Args[2]
// is the save kind, and the remaining args name the target path. It
// reconstructs a fresh toy keyspace rather than sharing memory with the
// parent, the same isolation fork+CoW would have given for free.
func runReExecChild(args []string) {
	logger := newLogger()
	defer logger.Sync()

	if len(args) < 2 {
		logger.Fatal("bgsave child: missing kind/path arguments")
	}

	path := args[1]
	snap := demoKeyspace()
	snap.Set(0, "rdbsnap:child:marker", "background-save-child")

	cfg, err := newDefaultConfig(logger)
	if err != nil {
		logger.Fatal("bgsave child: build config", zap.Error(err))
	}

	bgsave.RunChild(path, snap, cfg)
}
