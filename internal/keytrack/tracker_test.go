package keytrack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrackDetectsDuplicate(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.Track("k1"))
	require.NoError(t, tr.Track("k2"))
	require.Error(t, tr.Track("k1"))
	require.Equal(t, 2, tr.Count())
}

func TestResetClearsState(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.Track("k1"))
	tr.Reset()
	require.Equal(t, 0, tr.Count())
	require.NoError(t, tr.Track("k1"))
}
