package bgsave

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/emberkv/rdbsnap/config"
	"github.com/emberkv/rdbsnap/iochannel"
	"github.com/emberkv/rdbsnap/keyspace"
	"github.com/emberkv/rdbsnap/snapshot"
)

// RunChild is the entrypoint the re-exec'd process calls when it was
// started with ReExecFlag. It saves snap to path and exits 0 on success,
// non-zero on any write failure. It never returns to the caller —
// cmd/rdbsnap-cli's main calls it directly instead of entering cobra's
// command tree.
func RunChild(path string, snap keyspace.Snapshot, cfg *config.SnapshotContext) {
	if err := SaveToFile(path, snap, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	os.Exit(0)
}

// SaveToFile saves snap to a temp-<pid>.rdb file beside path and commits
// it atomically, unlinking the temp file on any failure. The pid in the
// temp name guarantees uniqueness across concurrent (failed) attempts.
func SaveToFile(path string, snap keyspace.Snapshot, cfg *config.SnapshotContext) error {
	tmpPath := filepath.Join(filepath.Dir(path), fmt.Sprintf("temp-%d.rdb", os.Getpid()))

	sink, err := iochannel.NewFileSinkWithTempName(path, tmpPath)
	if err != nil {
		return fmt.Errorf("bgsave: open temp file: %w", err)
	}

	if err := snapshot.Save(sink, snap, cfg); err != nil {
		_ = sink.Abort()

		return fmt.Errorf("bgsave: save: %w", err)
	}

	if err := sink.Commit(); err != nil {
		_ = sink.Abort()

		return fmt.Errorf("bgsave: commit: %w", err)
	}

	return nil
}
