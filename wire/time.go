package wire

import (
	"fmt"
	"io"

	"github.com/emberkv/rdbsnap/endian"
	"github.com/emberkv/rdbsnap/errs"
)

// nativeEndian is only used for the legacy second-resolution expiry,
// which original_source/src/rdb.c writes with the host's native int
// layout rather than a fixed wire order ("Second time").
var nativeEndian = func() endian.EndianEngine {
	if endian.IsNativeBigEndian() {
		return endian.GetBigEndianEngine()
	}

	return endian.GetLittleEndianEngine()
}()

// WriteExpireMS emits an 8-byte little-endian absolute millisecond
// timestamp, the body of an OpExpireTimeMS record ("Time").
func WriteExpireMS(w io.Writer, ms int64) error {
	buf := make([]byte, 8)
	le.PutUint64(buf, uint64(ms))

	return writeAll(w, buf)
}

// ReadExpireMS reads the body of an OpExpireTimeMS record.
func ReadExpireMS(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("wire: expire(ms): %w", errs.ErrShortRead)
	}

	return int64(le.Uint64(buf[:])), nil
}

// WriteExpireSeconds emits a 4-byte native-order absolute second
// timestamp, the body of the legacy OpExpireTime record. This codec
// never writes it (CurrentVersion always uses OpExpireTimeMS); it exists
// for ReadExpireSeconds's symmetry.
func WriteExpireSeconds(w io.Writer, sec uint32) error {
	buf := make([]byte, 4)
	nativeEndian.PutUint32(buf, sec)

	return writeAll(w, buf)
}

// ReadExpireSeconds reads the body of a legacy OpExpireTime record and
// widens it to milliseconds, the same unit every other expiry in this
// codec is carried in.
func ReadExpireSeconds(r io.Reader) (int64, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("wire: expire(sec): %w", errs.ErrShortRead)
	}

	return int64(nativeEndian.Uint32(buf[:])) * 1000, nil
}
