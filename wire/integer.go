package wire

import (
	"fmt"
	"io"

	"github.com/emberkv/rdbsnap/endian"
	"github.com/emberkv/rdbsnap/errs"
	"github.com/emberkv/rdbsnap/format"
)

var le = endian.GetLittleEndianEngine()

// fitsInt8/16/32 pick the narrowest signed form that round-trips v, the
// same cutover original_source/src/rdb.c's rdbTryIntegerEncoding uses.
func fitsInt8(v int64) bool  { return v >= -(1<<7) && v < 1<<7 }
func fitsInt16(v int64) bool { return v >= -(1<<15) && v < 1<<15 }
func fitsInt32(v int64) bool { return v >= -(1<<31) && v < 1<<31 }

// WriteIntegerString emits v as an integer-as-string record: an encoded
// length marker naming the narrowest width, followed by that many
// little-endian bytes ("Integer-as-string").
func WriteIntegerString(w io.Writer, v int64) error {
	switch {
	case fitsInt8(v):
		if err := WriteEncodedMarker(w, format.EncInt8); err != nil {
			return err
		}

		return writeAll(w, []byte{byte(int8(v))})
	case fitsInt16(v):
		if err := WriteEncodedMarker(w, format.EncInt16); err != nil {
			return err
		}

		buf := make([]byte, 2)
		le.PutUint16(buf, uint16(int16(v)))

		return writeAll(w, buf)
	case fitsInt32(v):
		if err := WriteEncodedMarker(w, format.EncInt32); err != nil {
			return err
		}

		buf := make([]byte, 4)
		le.PutUint32(buf, uint32(int32(v)))

		return writeAll(w, buf)
	default:
		return fmt.Errorf("wire: value %d does not fit a 32-bit integer-as-string", v)
	}
}

// ReadIntegerString reads the body of an integer-as-string record, given
// the sub-type already parsed from the length byte by ReadLength.
func ReadIntegerString(r io.Reader, sub format.EncodedSubType) (int64, error) {
	switch sub {
	case format.EncInt8:
		b, err := readByte(r)
		if err != nil {
			return 0, err
		}

		return int64(int8(b)), nil
	case format.EncInt16:
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, fmt.Errorf("wire: int16: %w", errs.ErrShortRead)
		}

		return int64(int16(le.Uint16(buf[:]))), nil
	case format.EncInt32:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, fmt.Errorf("wire: int32: %w", errs.ErrShortRead)
		}

		return int64(int32(le.Uint32(buf[:]))), nil
	default:
		return 0, fmt.Errorf("wire: sub-type %d is not an integer encoding: %w", sub, errs.ErrUnknownType)
	}
}
