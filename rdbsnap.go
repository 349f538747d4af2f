// Package rdbsnap provides a convenient top-level wrapper around the
// lower-level snapshot/bgsave/replicate/archive packages, for callers
// that just want to save, load or archive a keyspace without wiring the
// pieces themselves.
//
// # Basic usage
//
//	cfg, _ := config.New()
//	err := rdbsnap.Save(dst, snap, cfg)
//	err = rdbsnap.Load(src, host, cfg, nil)
//
// For advanced usage — a custom background-save registry, a replication
// fan-out, or an archive codec choice — use the snapshot, bgsave,
// replicate and archive packages directly; this package only covers the
// common path.
package rdbsnap

import (
	"io"
	"os"

	"github.com/emberkv/rdbsnap/archive"
	"github.com/emberkv/rdbsnap/bgsave"
	"github.com/emberkv/rdbsnap/config"
	"github.com/emberkv/rdbsnap/keyspace"
	"github.com/emberkv/rdbsnap/replicate"
	"github.com/emberkv/rdbsnap/snapshot"
)

// Save serializes snap to dst. dst is any io.Writer; for a file-backed
// save, wrap it in an iochannel.FileSink and call Commit once Save
// returns nil.
func Save(dst io.Writer, snap keyspace.Snapshot, cfg *config.SnapshotContext) error {
	return snapshot.Save(dst, snap, cfg)
}

// Load reads a dump stream from src and populates host. onProgress, if
// non-nil, is invoked periodically with the number of bytes consumed so
// far.
func Load(src io.Reader, host keyspace.Host, cfg *config.SnapshotContext, onProgress func(totalBytes int64)) error {
	return snapshot.Load(src, host, cfg, onProgress)
}

// BGSave re-execs the current binary as a background-save child writing
// to path, using reg to enforce at most one such child at a time, and
// blocks until the child exits. childArgs carries whatever the child's
// own re-exec entrypoint (bgsave.RunChild) needs to reconstruct a
// keyspace.Snapshot and config.SnapshotContext of its own — bgsave.Spawn
// cannot hand the parent's in-memory snap and cfg across the process
// boundary directly.
func BGSave(reg *bgsave.Registry, path string, childArgs ...string) error {
	proc, err := reg.Spawn(bgsave.KindDisk, append([]string{path}, childArgs...)...)
	if err != nil {
		return err
	}

	state, err := proc.Wait()
	if err != nil {
		return err
	}
	if !state.Success() {
		return &bgsaveExitError{state: state.String()}
	}

	return nil
}

type bgsaveExitError struct{ state string }

func (e *bgsaveExitError) Error() string { return "rdbsnap: bgsave child exited with " + e.state }

// Replicate streams snap to every peer, diskless, framed with an EOF
// sentinel each peer uses to detect completion without parsing RDB
// content.
func Replicate(peers []replicate.Peer, snap keyspace.Snapshot, cfg *config.SnapshotContext) ([]replicate.PeerResult, error) {
	return replicate.Transfer(peers, snap, cfg)
}

// Archive reads the sealed dump file at rdbPath, compresses it with
// codec, and writes the resulting archive to archivePath.
func Archive(archivePath, rdbPath string, codec archive.Codec) error {
	dump, err := os.ReadFile(rdbPath)
	if err != nil {
		return err
	}

	archived, err := archive.Create(dump, codec)
	if err != nil {
		return err
	}

	return os.WriteFile(archivePath, archived, 0o644)
}

// Restore reads a sealed archive at archivePath, decompresses it, and
// writes the raw dump bytes to rdbPath.
func Restore(rdbPath, archivePath string) error {
	data, err := os.ReadFile(archivePath)
	if err != nil {
		return err
	}

	dump, err := archive.Restore(data)
	if err != nil {
		return err
	}

	return os.WriteFile(rdbPath, dump, 0o644)
}
