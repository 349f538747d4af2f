package wire

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/emberkv/rdbsnap/errs"
	"github.com/emberkv/rdbsnap/format"
)

// WriteDouble emits the ASCII double encoding: one length byte, then that
// many ASCII digits, except NaN/+Inf/-Inf which are carried as the three
// reserved length sentinels with no payload ("Double").
func WriteDouble(w io.Writer, v float64) error {
	switch {
	case math.IsNaN(v):
		return writeAll(w, []byte{format.DoubleNaN})
	case math.IsInf(v, 1):
		return writeAll(w, []byte{format.DoublePosInf})
	case math.IsInf(v, -1):
		return writeAll(w, []byte{format.DoubleNegInf})
	}

	s := strconv.FormatFloat(v, 'g', 17, 64)
	if len(s) > 252 {
		return fmt.Errorf("wire: formatted double %q exceeds 252 bytes", s)
	}

	if err := writeAll(w, []byte{byte(len(s))}); err != nil {
		return err
	}

	return writeAll(w, []byte(s))
}

// ReadDouble reads one ASCII double record.
func ReadDouble(r io.Reader) (float64, error) {
	n, err := readByte(r)
	if err != nil {
		return 0, err
	}

	switch n {
	case format.DoubleNaN:
		return math.NaN(), nil
	case format.DoublePosInf:
		return math.Inf(1), nil
	case format.DoubleNegInf:
		return math.Inf(-1), nil
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, fmt.Errorf("wire: double body: %w", errs.ErrShortRead)
	}

	v, err := strconv.ParseFloat(string(buf), 64)
	if err != nil {
		return 0, fmt.Errorf("wire: double body %q: %w", buf, err)
	}

	return v, nil
}
