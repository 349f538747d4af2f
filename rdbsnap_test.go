package rdbsnap

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emberkv/rdbsnap/archive"
	"github.com/emberkv/rdbsnap/config"
	"github.com/emberkv/rdbsnap/format"
	"github.com/emberkv/rdbsnap/keyspace"
)

type fakeSeq struct{}

func (fakeSeq) Next() (string, bool) { return "", false }
func (fakeSeq) Len() int             { return 0 }

type fakeValue struct{ b []byte }

func (v fakeValue) Kind() format.ValueKind      { return format.KindString }
func (v fakeValue) Encoding() format.Encoding   { return format.Packed }
func (v fakeValue) Packed() []byte              { return v.b }
func (v fakeValue) Sequence() keyspace.ValueSeq { return fakeSeq{} }
func (v fakeValue) IntString() (int64, bool)    { return 0, false }
func (v fakeValue) Bytes() []byte               { return v.b }

type fakeIterator struct {
	keys []string
	vals [][]byte
	i    int
}

func (it *fakeIterator) Next() (string, keyspace.Value, bool) {
	if it.i >= len(it.keys) {
		return "", nil, false
	}
	k, v := it.keys[it.i], it.vals[it.i]
	it.i++

	return k, fakeValue{v}, true
}

type fakeSnapshot struct {
	keys []string
	vals [][]byte
}

func (s *fakeSnapshot) ForEachDatabase(fn func(db int, size int, it keyspace.Iterator) error) error {
	return fn(0, len(s.keys), &fakeIterator{keys: s.keys, vals: s.vals})
}

func (s *fakeSnapshot) ExpiryMS(db int, key string) (int64, bool) { return 0, false }

type fakeHost struct {
	got map[string][]byte
}

func (h *fakeHost) Insert(db int, key string, value keyspace.Value, expiryMS int64, hasExpiry bool) error {
	if h.got == nil {
		h.got = make(map[string][]byte)
	}
	h.got[key] = value.Bytes()

	return nil
}

func (h *fakeHost) IsReplica() bool { return false }

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg, err := config.New()
	require.NoError(t, err)

	snap := &fakeSnapshot{keys: []string{"a", "b"}, vals: [][]byte{[]byte("1"), []byte("two")}}

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, snap, cfg))

	host := &fakeHost{}
	require.NoError(t, Load(bytes.NewReader(buf.Bytes()), host, cfg, nil))

	require.Equal(t, "two", string(host.got["b"]))
}

func TestArchiveRestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rdbPath := filepath.Join(dir, "dump.rdb")
	archivePath := filepath.Join(dir, "dump.rdba")
	restoredPath := filepath.Join(dir, "restored.rdb")

	cfg, err := config.New()
	require.NoError(t, err)

	snap := &fakeSnapshot{keys: []string{"k"}, vals: [][]byte{[]byte("v")}}
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, snap, cfg))
	require.NoError(t, os.WriteFile(rdbPath, buf.Bytes(), 0o644))

	require.NoError(t, Archive(archivePath, rdbPath, archive.CodecZstd))
	require.NoError(t, Restore(restoredPath, archivePath))

	restored, err := os.ReadFile(restoredPath)
	require.NoError(t, err)
	require.Equal(t, buf.Bytes(), restored)
}
