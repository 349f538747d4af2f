package iochannel

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/emberkv/rdbsnap/internal/pool"
)

// Sink is the write half of the channel: an io.Writer that can be
// flushed and, for file-backed sinks, atomically published.
type Sink interface {
	io.Writer
	// Flush pushes any buffered bytes to the underlying medium. It does
	// not imply durability; callers that need an fsync use FileSink
	// directly and call Commit.
	Flush() error
}

// FileSink writes to a temporary file beside the final path and only
// renames it into place on Commit, so a reader never observes a partial
// snapshot file.
type FileSink struct {
	finalPath string
	tmpPath   string
	f         *os.File
	buf       *bufWriter
}

// NewFileSink creates the temporary file finalPath+".tmp" for writing.
func NewFileSink(finalPath string) (*FileSink, error) {
	return NewFileSinkWithTempName(finalPath, finalPath+".tmp")
}

// NewFileSinkWithTempName is NewFileSink with an explicit temp file path,
// for callers that need a pid-qualified name ("temp-<pid>.rdb") to
// guarantee uniqueness across concurrent background-save attempts.
func NewFileSinkWithTempName(finalPath, tmpPath string) (*FileSink, error) {
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("iochannel: create temp file: %w", err)
	}

	return &FileSink{
		finalPath: finalPath,
		tmpPath:   tmpPath,
		f:         f,
		buf:       newBufWriter(f),
	}, nil
}

func (s *FileSink) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

// Flush pushes buffered bytes to the OS but does not fsync.
func (s *FileSink) Flush() error {
	return s.buf.Flush()
}

// Commit flushes, fsyncs the temp file, closes it, and renames it onto
// finalPath. On any failure the temp file is left in place for inspection.
func (s *FileSink) Commit() error {
	if err := s.buf.Flush(); err != nil {
		return fmt.Errorf("iochannel: flush: %w", err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("iochannel: fsync: %w", err)
	}
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("iochannel: close: %w", err)
	}
	if err := os.Rename(s.tmpPath, s.finalPath); err != nil {
		return fmt.Errorf("iochannel: rename into place: %w", err)
	}

	dir, err := os.Open(filepath.Dir(s.finalPath))
	if err != nil {
		// Best effort: the rename already succeeded, a missing directory
		// fsync only risks losing the rename itself on a crash.
		return nil
	}
	defer dir.Close()
	_ = dir.Sync()

	return nil
}

// Abort closes and removes the temp file without publishing it, for the
// caller's error paths.
func (s *FileSink) Abort() error {
	_ = s.f.Close()
	return os.Remove(s.tmpPath)
}

// bufWriter is a tiny unexported buffering layer so FileSink doesn't pull
// in bufio's larger surface for a single Write/Flush pair.
type bufWriter struct {
	w   io.Writer
	buf *pool.ByteBuffer
}

func newBufWriter(w io.Writer) *bufWriter {
	return &bufWriter{w: w, buf: pool.NewByteBuffer(pool.BlobSetBufferDefaultSize)}
}

func (b *bufWriter) Write(p []byte) (int, error) {
	b.buf.MustWrite(p)
	if b.buf.Len() >= pool.BlobSetBufferMaxThreshold {
		if err := b.Flush(); err != nil {
			return 0, err
		}
	}

	return len(p), nil
}

func (b *bufWriter) Flush() error {
	if b.buf.Len() == 0 {
		return nil
	}
	if _, err := b.buf.WriteTo(b.w); err != nil {
		return err
	}
	b.buf.Reset()

	return nil
}

// MemorySink is a growable in-memory Sink, for tests and for rendering a
// snapshot into memory.
type MemorySink struct {
	buf *pool.ByteBuffer
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{buf: pool.GetBlobSetBuffer()}
}

func (s *MemorySink) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

// Flush is a no-op; there is nothing buffered beyond the in-memory slice.
func (s *MemorySink) Flush() error { return nil }

// Bytes returns the accumulated content. The slice is only valid until
// the next Write or Release.
func (s *MemorySink) Bytes() []byte { return s.buf.Bytes() }

// Release returns the backing buffer to the pool. The MemorySink must not
// be used afterward.
func (s *MemorySink) Release() { pool.PutBlobSetBuffer(s.buf) }

// NullSink discards every byte written but counts them, for measuring how
// many bytes a write produces without storing them.
type NullSink struct {
	n int64
}

// NewNullSink creates a zeroed byte counter.
func NewNullSink() *NullSink { return &NullSink{} }

func (s *NullSink) Write(p []byte) (int, error) {
	s.n += int64(len(p))
	return len(p), nil
}

// Flush is a no-op.
func (s *NullSink) Flush() error { return nil }

// Len returns the number of bytes written so far.
func (s *NullSink) Len() int64 { return s.n }
