// Package wire implements the primitive codecs of the dump format: length
// prefixes, integer-as-string encoding, the double encoding, time fields and
// the overall string strategy (int-as-string, then LZF, then raw). It
// operates purely on io.Writer/io.Reader so it has no dependency on package
// iochannel's concrete sinks and sources.
package wire

import (
	"bufio"
	"fmt"
	"io"

	"github.com/emberkv/rdbsnap/endian"
	"github.com/emberkv/rdbsnap/errs"
	"github.com/emberkv/rdbsnap/format"
)

var be = endian.GetBigEndianEngine()

// WriteLength emits n using the narrowest of the 6/14/32-bit forms.
// n must be non-negative and fit in 32 bits; larger lengths are outside
// this version's wire format.
func WriteLength(w io.Writer, n uint32) error {
	switch {
	case n < 1<<6:
		_, err := w.Write([]byte{byte(format.Len6Bit)<<6 | byte(n)})
		return err
	case n < 1<<14:
		b0 := byte(format.Len14Bit)<<6 | byte(n>>8)
		return writeAll(w, []byte{b0, byte(n)})
	default:
		buf := make([]byte, 5)
		buf[0] = byte(format.Len32Bit) << 6
		be.PutUint32(buf[1:], n)

		return writeAll(w, buf)
	}
}

// WriteEncodedMarker emits a length byte whose top bits select
// format.LenEncoded and whose low 6 bits carry sub, for the callers in
// this package that write integer-as-string and LZF payloads.
func WriteEncodedMarker(w io.Writer, sub format.EncodedSubType) error {
	_, err := w.Write([]byte{byte(format.LenEncoded)<<6 | byte(sub)})
	return err
}

// ReadLength reads a length prefix. If the prefix selects the encoded
// form (format.LenEncoded), form is format.LenEncoded, n is 0 and sub
// identifies which encoded
// sub-type follows; the caller (package wire's string codec) is
// responsible for dispatching on sub.
func ReadLength(r io.Reader) (n uint32, form format.LengthEncodedForm, sub format.EncodedSubType, err error) {
	b, err := readByte(r)
	if err != nil {
		return 0, 0, 0, err
	}

	form = format.LengthEncodedForm(b >> 6)
	switch form {
	case format.Len6Bit:
		return uint32(b & 0x3F), form, 0, nil
	case format.Len14Bit:
		b1, err := readByte(r)
		if err != nil {
			return 0, 0, 0, err
		}

		return uint32(b&0x3F)<<8 | uint32(b1), form, 0, nil
	case format.Len32Bit:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, 0, 0, fmt.Errorf("wire: length(32bit): %w", errs.ErrShortRead)
		}

		return be.Uint32(buf[:]), form, 0, nil
	case format.LenEncoded:
		return 0, form, format.EncodedSubType(b & 0x3F), nil
	default:
		return 0, 0, 0, fmt.Errorf("wire: impossible length form %d: %w", form, errs.ErrUnknownType)
	}
}

func writeAll(w io.Writer, p []byte) error {
	_, err := w.Write(p)
	return err
}

func readByte(r io.Reader) (byte, error) {
	if br, ok := r.(io.ByteReader); ok {
		b, err := br.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("wire: %w", errs.ErrShortRead)
		}

		return b, nil
	}

	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("wire: %w", errs.ErrShortRead)
	}

	return buf[0], nil
}

// EnsureByteReader wraps r in a *bufio.Reader if it does not already
// implement io.ByteReader, so ReadLength's single-byte reads stay cheap.
func EnsureByteReader(r io.Reader) io.Reader {
	if _, ok := r.(io.ByteReader); ok {
		return r
	}

	return bufio.NewReader(r)
}
