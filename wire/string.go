package wire

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	rdberrs "github.com/emberkv/rdbsnap/errs"
	"github.com/emberkv/rdbsnap/format"
	"github.com/emberkv/rdbsnap/lzf"
)

// lzfMinLength is the shortest string this codec will even attempt to
// compress, mirroring original_source/src/rdb.c's rdbSaveLzfStringObject
// gate: a string must be strictly longer than this to be worth the LZF
// framing overhead, so the comparison at the call site is strict (>), not
// >=.
const lzfMinLength = 20

// WriteString emits a string value using the three-tier strategy: an
// integer-as-string fast path when the value parses back to exactly the
// same int64, then LZF if it shrinks the payload and compression is
// enabled, else the raw length-prefixed bytes.
func WriteString(w io.Writer, s []byte, compressionEnabled bool) error {
	if v, ok := parseExactInt64(s); ok && fitsInt32(v) {
		return WriteIntegerString(w, v)
	}

	if compressionEnabled && len(s) > lzfMinLength {
		compressed, err := lzf.Compress(s)
		switch {
		case err == nil:
			return writeLZF(w, compressed, len(s))
		case errors.Is(err, rdberrs.ErrNoCompressionBenefit):
			// fall through to raw
		default:
			return fmt.Errorf("wire: lzf compress: %w", err)
		}
	}

	if err := WriteLength(w, uint32(len(s))); err != nil {
		return err
	}

	return writeAll(w, s)
}

// WriteIntString is the fast path keyspace.Value.IntString exposes: the
// value is already known to be an integer, so no parse-back check is
// needed. A value outside the 32-bit range is written as its raw decimal
// digits instead.
func WriteIntString(w io.Writer, v int64) error {
	if !fitsInt32(v) {
		return WriteString(w, []byte(strconv.FormatInt(v, 10)), false)
	}

	return WriteIntegerString(w, v)
}

func parseExactInt64(s []byte) (int64, bool) {
	if len(s) == 0 || len(s) > 20 {
		return 0, false
	}

	v, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		return 0, false
	}

	// Reject forms that wouldn't round-trip byte-for-byte through
	// strconv.FormatInt (leading zeros, "+5", etc.) — such a string must
	// stay a raw string, never an integer-as-string.
	if strconv.FormatInt(v, 10) != string(s) {
		return 0, false
	}

	return v, true
}

func writeLZF(w io.Writer, compressed []byte, originalLen int) error {
	if err := WriteEncodedMarker(w, format.EncLZF); err != nil {
		return err
	}
	if err := WriteLength(w, uint32(len(compressed))); err != nil {
		return err
	}
	if err := WriteLength(w, uint32(originalLen)); err != nil {
		return err
	}

	return writeAll(w, compressed)
}

// ReadString reads one string record in any of the three wire forms,
// returning the decompressed/decoded bytes.
func ReadString(r io.Reader) ([]byte, error) {
	n, form, sub, err := ReadLength(r)
	if err != nil {
		return nil, err
	}

	if form != format.LenEncoded {
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("wire: string body: %w", rdberrs.ErrShortRead)
		}

		return buf, nil
	}

	if sub == format.EncLZF {
		compressedLen, _, _, err := ReadLength(r)
		if err != nil {
			return nil, err
		}
		originalLen, _, _, err := ReadLength(r)
		if err != nil {
			return nil, err
		}

		compressed := make([]byte, compressedLen)
		if _, err := io.ReadFull(r, compressed); err != nil {
			return nil, fmt.Errorf("wire: lzf body: %w", rdberrs.ErrShortRead)
		}

		return lzf.Decompress(compressed, int(originalLen))
	}

	v, err := ReadIntegerString(r, sub)
	if err != nil {
		return nil, err
	}

	return []byte(strconv.FormatInt(v, 10)), nil
}
