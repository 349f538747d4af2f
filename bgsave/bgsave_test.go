package bgsave

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emberkv/rdbsnap/config"
	"github.com/emberkv/rdbsnap/keyspace"
)

type emptySnapshot struct{}

func (emptySnapshot) ForEachDatabase(fn func(db int, size int, it keyspace.Iterator) error) error {
	return nil
}
func (emptySnapshot) ExpiryMS(db int, key string) (int64, bool) { return 0, false }

func TestSaveToFileCommitsAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.rdb")

	cfg, err := config.New()
	require.NoError(t, err)

	require.NoError(t, SaveToFile(path, emptySnapshot{}, cfg))

	_, err = os.Stat(path)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must not remain after a successful commit")
}

func TestNewRegistryStartsIdle(t *testing.T) {
	r := NewRegistry(nil, nil)
	require.False(t, r.Active())
}
