package iochannel

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Source is the read half of the channel: a plain io.Reader. Readers
// needing byte-level lookahead (wire's length-prefix decoding) wrap it in
// a *bufio.Reader themselves; iochannel only guarantees the bytes it
// returns have already passed through the checksum hook, if any.
type Source = io.Reader

// OpenFileSource opens path for reading and wraps it in a buffered
// reader sized for sequential snapshot scans.
func OpenFileSource(path string) (*os.File, *bufio.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("iochannel: open %s: %w", path, err)
	}

	return f, bufio.NewReaderSize(f, 64*1024), nil
}

// ProgressReader wraps a Source and invokes onRead every time at least
// interval new bytes have been consumed, backing a load's periodic
// progress callback.
type ProgressReader struct {
	r        io.Reader
	interval int64
	total    int64
	sinceCb  int64
	onRead   func(totalBytes int64)
}

// NewProgressReader wraps r. onRead is invoked with the cumulative byte
// count every time interval additional bytes have been read, and once
// more with the final count is left to the caller (Go has no destructor
// hook to call it automatically at EOF).
func NewProgressReader(r io.Reader, interval int64, onRead func(totalBytes int64)) *ProgressReader {
	return &ProgressReader{r: r, interval: interval, onRead: onRead}
}

func (p *ProgressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.total += int64(n)
		p.sinceCb += int64(n)
		if p.onRead != nil && p.interval > 0 && p.sinceCb >= p.interval {
			p.sinceCb = 0
			p.onRead(p.total)
		}
	}

	return n, err
}

// Total returns the cumulative byte count read so far.
func (p *ProgressReader) Total() int64 { return p.total }
