package archive

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateRestoreRoundTrip(t *testing.T) {
	dump := []byte("REDIS0011" + "some fairly repetitive dump payload dump payload dump payload")

	for _, codec := range []Codec{CodecNone, CodecS2, CodecLZ4} {
		t.Run(codec.String(), func(t *testing.T) {
			archived, err := Create(dump, codec)
			require.NoError(t, err)

			restored, err := Restore(archived)
			require.NoError(t, err)
			require.Equal(t, dump, restored)
		})
	}
}

func TestRestoreRejectsBadMagic(t *testing.T) {
	_, err := Restore([]byte("not an archive at all"))
	require.Error(t, err)
}

func TestRestoreRejectsTruncatedHeader(t *testing.T) {
	_, err := Restore([]byte{'R', 'D'})
	require.Error(t, err)
}
