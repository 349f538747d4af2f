package wire

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emberkv/rdbsnap/format"
)

func TestLengthRoundTrip6Bit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLength(&buf, 42))

	n, form, _, err := ReadLength(&buf)
	require.NoError(t, err)
	require.Equal(t, uint32(42), n)
	require.Equal(t, format.Len6Bit, form)
}

func TestLengthRoundTrip14And32Bit(t *testing.T) {
	for _, n := range []uint32{200, 16383, 16384, 1 << 20} {
		var buf bytes.Buffer
		require.NoError(t, WriteLength(&buf, n))

		got, _, _, err := ReadLength(&buf)
		require.NoError(t, err)
		require.Equal(t, n, got)
	}
}

func TestIntegerStringRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 127, -128, 32000, -32768, 70000, -2000000000} {
		var buf bytes.Buffer
		require.NoError(t, WriteIntegerString(&buf, v))

		_, form, sub, err := ReadLength(&buf)
		require.NoError(t, err)
		require.Equal(t, format.LenEncoded, form)

		got, err := ReadIntegerString(&buf, sub)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestDoubleRoundTrip(t *testing.T) {
	values := []float64{0, 1.5, -1.5, 3.1415926535, math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, v := range values {
		var buf bytes.Buffer
		require.NoError(t, WriteDouble(&buf, v))

		got, err := ReadDouble(&buf)
		require.NoError(t, err)
		if math.IsNaN(v) {
			require.True(t, math.IsNaN(got))
		} else {
			require.Equal(t, v, got)
		}
	}
}

func TestStringRoundTripRaw(t *testing.T) {
	var buf bytes.Buffer
	s := []byte("hello world, this is not an integer")
	require.NoError(t, WriteString(&buf, s, false))

	got, err := ReadString(&buf)
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestStringRoundTripInteger(t *testing.T) {
	var buf bytes.Buffer
	s := []byte("12345")
	require.NoError(t, WriteString(&buf, s, false))

	got, err := ReadString(&buf)
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestStringRoundTripLZF(t *testing.T) {
	var buf bytes.Buffer
	s := bytes.Repeat([]byte("abcdefgh"), 50)
	require.NoError(t, WriteString(&buf, s, true))

	got, err := ReadString(&buf)
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestStringWithLeadingZeroIsNeverIntegerEncoded(t *testing.T) {
	var buf bytes.Buffer
	s := []byte("0123")
	require.NoError(t, WriteString(&buf, s, false))

	_, form, _, err := ReadLength(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.NotEqual(t, format.LenEncoded, form)

	got, err := ReadString(&buf)
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestExpireMSRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExpireMS(&buf, 1700000000123))

	got, err := ReadExpireMS(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(1700000000123), got)
}
