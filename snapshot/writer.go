package snapshot

import (
	"fmt"
	"io"

	"github.com/emberkv/rdbsnap/config"
	"github.com/emberkv/rdbsnap/endian"
	"github.com/emberkv/rdbsnap/format"
	"github.com/emberkv/rdbsnap/iochannel"
	"github.com/emberkv/rdbsnap/internal/keytrack"
	"github.com/emberkv/rdbsnap/keyspace"
	"github.com/emberkv/rdbsnap/object"
	"github.com/emberkv/rdbsnap/wire"
)

// Save serializes every database in snap to dst as a dump stream.
// dst is any io.Writer; the caller is responsible for flush/fsync/rename
// on a file-backed sink (package iochannel's FileSink.Commit) and for
// releasing a memory-backed one.
func Save(dst io.Writer, snap keyspace.Snapshot, cfg *config.SnapshotContext) error {
	sum := iochannel.NewChecksum(cfg.ChecksumEnabled)
	w := sum.WrapWriter(dst)

	if err := writeMagic(w, format.CurrentVersion); err != nil {
		return fmt.Errorf("snapshot: write magic: %w", err)
	}

	var tracker *keytrack.Tracker
	if cfg.AssertUniqueKeys {
		tracker = keytrack.NewTracker()
	}

	err := snap.ForEachDatabase(func(db int, size int, it keyspace.Iterator) error {
		if size == 0 {
			return nil
		}
		if tracker != nil {
			tracker.Reset()
		}

		return saveDatabase(w, db, it, snap, cfg, tracker)
	})
	if err != nil {
		return fmt.Errorf("snapshot: save: %w", err)
	}

	if _, err := w.Write([]byte{byte(format.OpEOF)}); err != nil {
		return fmt.Errorf("snapshot: write eof: %w", err)
	}

	return writeChecksum(dst, sum)
}

func saveDatabase(
	w io.Writer,
	db int,
	it keyspace.Iterator,
	snap keyspace.Snapshot,
	cfg *config.SnapshotContext,
	tracker *keytrack.Tracker,
) error {
	if _, err := w.Write([]byte{byte(format.OpSelectDB)}); err != nil {
		return err
	}
	if err := wire.WriteLength(w, uint32(db)); err != nil {
		return err
	}

	for {
		key, value, ok := it.Next()
		if !ok {
			return nil
		}

		if tracker != nil {
			if err := tracker.Track(key); err != nil {
				return fmt.Errorf("database %d, key %q: %w", db, key, err)
			}
		}

		expiryMS, hasExpiry := snap.ExpiryMS(db, key)
		if hasExpiry && expiryMS <= cfg.Clock().UnixMilli() {
			// Already-expired key at save: silent skip.
			continue
		}

		if hasExpiry {
			if _, err := w.Write([]byte{byte(format.OpExpireTimeMS)}); err != nil {
				return err
			}
			if err := wire.WriteExpireMS(w, expiryMS); err != nil {
				return err
			}
		}

		if err := object.Save(w, value, cfg.CompressionEnabled); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
	}
}

func writeChecksum(dst io.Writer, sum *iochannel.Checksum) error {
	var buf [8]byte
	if sum.Enabled() {
		endian.GetLittleEndianEngine().PutUint64(buf[:], sum.Sum64())
	}

	_, err := dst.Write(buf[:])
	if err != nil {
		return fmt.Errorf("snapshot: write checksum: %w", err)
	}

	return nil
}
