package lzf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTripRepetitive(t *testing.T) {
	src := []byte(strings.Repeat("aaaaabbbbb", 30))
	compressed, err := Compress(src)
	require.NoError(t, err)
	require.Less(t, len(compressed), len(src))

	got, err := Decompress(compressed, len(src))
	require.NoError(t, err)
	require.True(t, bytes.Equal(src, got))
}

func TestCompressRejectsIncompressible(t *testing.T) {
	// Short, high-entropy input: LZF cannot shrink it.
	src := []byte{0x01, 0x9f, 0x3c, 0x77}
	_, err := Compress(src)
	require.Error(t, err)
}

func TestRoundTripLongRun(t *testing.T) {
	src := bytes.Repeat([]byte("x"), 1000)
	compressed, err := Compress(src)
	require.NoError(t, err)
	require.Less(t, len(compressed), len(src))

	got, err := Decompress(compressed, len(src))
	require.NoError(t, err)
	require.True(t, bytes.Equal(src, got))
}

func TestDecompressRejectsTruncated(t *testing.T) {
	_, err := Decompress([]byte{0x40}, 10)
	require.Error(t, err)
}
