// Package errs holds the sentinel errors surfaced by the snapshot codec.
// Callers should compare against these with errors.Is, since most are
// wrapped with additional context (offset, opcode, key) before propagating.
package errs

import "errors"

var (
	// ErrShortRead means a read ended before the expected number of bytes
	// was available. Fatal everywhere it occurs.
	ErrShortRead = errors.New("rdbsnap: short read")

	// ErrUnknownType means an opcode or value-kind byte was not recognized
	// by this version of the codec. Fatal.
	ErrUnknownType = errors.New("rdbsnap: unknown type or encoding")

	// ErrChecksumMismatch means the trailing CRC-64 did not match the
	// bytes read. Fatal.
	ErrChecksumMismatch = errors.New("rdbsnap: checksum mismatch")

	// ErrUnsupportedVersion means the dump's version field fell outside
	// [format.MinVersion, format.MaxVersion].
	ErrUnsupportedVersion = errors.New("rdbsnap: unsupported dump version")

	// ErrBadMagic means the first 5 bytes were not "REDIS".
	ErrBadMagic = errors.New("rdbsnap: bad magic header")

	// ErrDatabaseOutOfRange means a SELECTDB opcode named an index beyond
	// the configured database count.
	ErrDatabaseOutOfRange = errors.New("rdbsnap: database index out of range")

	// ErrChildAlreadyRunning means BGSave was called while a background
	// save child was already active ("only one child").
	ErrChildAlreadyRunning = errors.New("rdbsnap: background save already in progress")

	// ErrForkFailed means the orchestrator could not spawn the child
	// process at all; there is no child state to clean up.
	ErrForkFailed = errors.New("rdbsnap: failed to start background save child")

	// ErrChildFailed means the child process exited with a non-zero
	// status or was killed by a signal other than the designated
	// kill-without-error signal.
	ErrChildFailed = errors.New("rdbsnap: background save child failed")

	// ErrDuplicateKey is returned only when config.AssertUniqueKeys is
	// enabled and the same key is written twice in one database section.
	// Normally the codec trusts the producer and does not check this.
	ErrDuplicateKey = errors.New("rdbsnap: duplicate key in database section")

	// ErrInvalidLZFData means an LZF-compressed string's framing
	// (compressed/original length pair) was inconsistent with its payload.
	ErrInvalidLZFData = errors.New("rdbsnap: invalid LZF data")

	// ErrNoCompressionBenefit is an internal sentinel: lzf.Compress
	// returns it when the compressed form would not be shorter, so the
	// caller falls back to a raw string.
	ErrNoCompressionBenefit = errors.New("rdbsnap: lzf: no compression benefit")
)
