package snapshot

import (
	"errors"
	"fmt"
	"io"

	"github.com/emberkv/rdbsnap/config"
	"github.com/emberkv/rdbsnap/endian"
	"github.com/emberkv/rdbsnap/errs"
	"github.com/emberkv/rdbsnap/format"
	"github.com/emberkv/rdbsnap/iochannel"
	"github.com/emberkv/rdbsnap/keyspace"
	"github.com/emberkv/rdbsnap/object"
	"github.com/emberkv/rdbsnap/wire"
)

// Load reads a dump stream from src and populates host with every key it
// finds. onProgress, if non-nil, is invoked at
// cfg.LoadProgressBytesInterval byte intervals.
func Load(src io.Reader, host keyspace.Host, cfg *config.SnapshotContext, onProgress func(totalBytes int64)) error {
	progress := iochannel.NewProgressReader(src, cfg.LoadProgressBytesInterval, onProgress)

	sum := iochannel.NewChecksum(cfg.ChecksumEnabled)
	br := wire.EnsureByteReader(progress)
	r := sum.WrapReader(br)

	version, err := readMagic(r)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	hasTrailer := version >= 5

	db := 0
	for {
		opByte, err := readOpcode(r)
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}

		var (
			expiryMS  int64
			hasExpiry bool
		)

		switch format.Opcode(opByte) {
		case format.OpEOF:
			if !hasTrailer {
				return nil
			}

			return validateTrailingChecksum(br, sum, cfg)
		case format.OpSelectDB:
			n, _, _, err := wire.ReadLength(r)
			if err != nil {
				return fmt.Errorf("snapshot: selectdb: %w", err)
			}
			if int(n) >= cfg.DatabaseCount {
				return fmt.Errorf("snapshot: selectdb %d: %w", n, errs.ErrDatabaseOutOfRange)
			}
			db = int(n)

			continue
		case format.OpExpireTime:
			ms, err := wire.ReadExpireSeconds(r)
			if err != nil {
				return fmt.Errorf("snapshot: expiretime: %w", err)
			}
			expiryMS, hasExpiry = ms, true

			opByte, err = readOpcode(r)
			if err != nil {
				return fmt.Errorf("snapshot: %w", err)
			}
		case format.OpExpireTimeMS:
			ms, err := wire.ReadExpireMS(r)
			if err != nil {
				return fmt.Errorf("snapshot: expiretime_ms: %w", err)
			}
			expiryMS, hasExpiry = ms, true

			opByte, err = readOpcode(r)
			if err != nil {
				return fmt.Errorf("snapshot: %w", err)
			}
		case format.OpAux:
			// Reserved, read-only: a future writer may emit an aux field
			// we don't understand the payload shape of yet; nothing in
			// this version's writer emits it, and nothing in this
			// version's reader needs to interpret it.
			return fmt.Errorf("snapshot: aux opcode: %w", errs.ErrUnknownType)
		}

		kind := format.ValueKind(opByte)
		key, err := wire.ReadString(r)
		if err != nil {
			return fmt.Errorf("snapshot: key: %w", err)
		}

		dec, err := object.Load(r, kind, cfg.Thresholds)
		if err != nil {
			return fmt.Errorf("snapshot: value for key %q: %w", key, err)
		}

		if hasExpiry && !host.IsReplica() && expiryMS <= cfg.Clock().UnixMilli() {
			// Already-expired key at load on non-replica: silent drop.
			// Replicas keep it so the master's view wins.
			continue
		}

		if err := host.Insert(db, string(key), dec.AsValue(), expiryMS, hasExpiry); err != nil {
			return fmt.Errorf("snapshot: insert key %q: %w", key, err)
		}
	}
}

func readOpcode(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errs.ErrShortRead
	}

	return buf[0], nil
}

func validateTrailingChecksum(raw io.Reader, sum *iochannel.Checksum, cfg *config.SnapshotContext) error {
	if !cfg.ChecksumEnabled {
		var discard [8]byte
		_, _ = io.ReadFull(raw, discard[:])

		return nil
	}

	var buf [8]byte
	if _, err := io.ReadFull(raw, buf[:]); err != nil {
		if cfg.LenientChecksumRead {
			return nil
		}

		return fmt.Errorf("snapshot: trailing checksum: %w", errs.ErrShortRead)
	}

	// A writer with checksums disabled emits an all-zero trailer rather
	// than omitting it; a stored value of zero always means "not
	// computed, don't check" regardless of LenientChecksumRead.
	stored := endian.GetLittleEndianEngine().Uint64(buf[:])
	if stored == 0 {
		return nil
	}

	if stored != sum.Sum64() {
		return errors.Join(errs.ErrChecksumMismatch, fmt.Errorf("snapshot: stored=%x computed=%x", stored, sum.Sum64()))
	}

	return nil
}
