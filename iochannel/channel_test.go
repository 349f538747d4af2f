package iochannel

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksumDisabledIsZero(t *testing.T) {
	c := NewChecksum(false)
	w := c.WrapWriter(io.Discard)
	_, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, uint64(0), c.Sum64())
}

func TestChecksumWriterAndReaderAgree(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	writeSum := NewChecksum(true)
	w := writeSum.WrapWriter(io.Discard)
	_, err := w.Write(data)
	require.NoError(t, err)

	readSum := NewChecksum(true)
	r := readSum.WrapReader(bytesReader(data))
	_, err = io.ReadAll(r)
	require.NoError(t, err)

	require.Equal(t, writeSum.Sum64(), readSum.Sum64())
	require.NotZero(t, writeSum.Sum64())
}

func bytesReader(b []byte) io.Reader {
	return &sliceReader{b: b}
}

type sliceReader struct {
	b []byte
	i int
}

func (s *sliceReader) Read(p []byte) (int, error) {
	if s.i >= len(s.b) {
		return 0, io.EOF
	}
	n := copy(p, s.b[s.i:])
	s.i += n

	return n, nil
}

func TestFileSinkCommitAtomicRename(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "dump.rdb")

	sink, err := NewFileSink(final)
	require.NoError(t, err)

	_, err = sink.Write([]byte("payload"))
	require.NoError(t, err)

	_, statErr := os.Stat(final)
	require.True(t, os.IsNotExist(statErr), "final path must not exist before Commit")

	require.NoError(t, sink.Commit())

	content, err := os.ReadFile(final)
	require.NoError(t, err)
	require.Equal(t, "payload", string(content))
}

func TestFanOutSinkIsolatesFailedPeer(t *testing.T) {
	good := NewMemorySink()
	bad := &alwaysFailSink{}

	fo := NewFanOutSink(good, bad)
	_, err := fo.Write([]byte("x"))
	require.NoError(t, err)
	require.False(t, fo.Alive(1))
	require.True(t, fo.Alive(0))
	require.Equal(t, 1, fo.AliveCount())

	_, err = fo.Write([]byte("y"))
	require.NoError(t, err)
	require.Equal(t, "xy", string(good.Bytes()))
}

type alwaysFailSink struct{}

func (alwaysFailSink) Write([]byte) (int, error) { return 0, os.ErrClosed }
func (alwaysFailSink) Flush() error              { return nil }

func TestProgressReaderInvokesCallback(t *testing.T) {
	data := make([]byte, 100)
	var calls []int64
	pr := NewProgressReader(bytesReader(data), 30, func(total int64) {
		calls = append(calls, total)
	})

	buf := make([]byte, 10)
	for {
		_, err := pr.Read(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	require.NotEmpty(t, calls)
	require.Equal(t, int64(100), pr.Total())
}
