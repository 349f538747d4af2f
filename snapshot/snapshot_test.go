package snapshot

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/emberkv/rdbsnap/config"
	"github.com/emberkv/rdbsnap/format"
	"github.com/emberkv/rdbsnap/keyspace"
)

type memRecord struct {
	key      string
	kind     format.ValueKind
	intVal   int64
	hasInt   bool
	bytes    []byte
	expiryMS int64
	hasExp   bool
}

type memSeq struct{}

func (memSeq) Next() (string, bool) { return "", false }
func (memSeq) Len() int             { return 0 }

type memValue struct{ r memRecord }

func (v memValue) Kind() format.ValueKind       { return v.r.kind }
func (v memValue) Encoding() format.Encoding    { return format.Packed }
func (v memValue) Packed() []byte               { return v.r.bytes }
func (v memValue) Sequence() keyspace.ValueSeq  { return memSeq{} }
func (v memValue) IntString() (int64, bool)     { return v.r.intVal, v.r.hasInt }
func (v memValue) Bytes() []byte                { return v.r.bytes }

type memSnapshot struct {
	dbs map[int][]memRecord
}

func (m *memSnapshot) ForEachDatabase(fn func(db int, size int, it keyspace.Iterator) error) error {
	for db, recs := range m.dbs {
		it := &memIterator{recs: recs}
		if err := fn(db, len(recs), it); err != nil {
			return err
		}
	}

	return nil
}

func (m *memSnapshot) ExpiryMS(db int, key string) (int64, bool) {
	for _, r := range m.dbs[db] {
		if r.key == key {
			return r.expiryMS, r.hasExp
		}
	}

	return 0, false
}

type memIterator struct {
	recs []memRecord
	i    int
}

func (it *memIterator) Next() (string, keyspace.Value, bool) {
	if it.i >= len(it.recs) {
		return "", nil, false
	}
	r := it.recs[it.i]
	it.i++

	return r.key, memValue{r}, true
}

type insertedKey struct {
	db       int
	key      string
	expiryMS int64
	hasExp   bool
	value    keyspace.Value
}

type memHost struct {
	inserted  []insertedKey
	isReplica bool
}

func (h *memHost) Insert(db int, key string, value keyspace.Value, expiryMS int64, hasExpiry bool) error {
	h.inserted = append(h.inserted, insertedKey{db, key, expiryMS, hasExpiry, value})
	return nil
}

func (h *memHost) IsReplica() bool { return h.isReplica }

func newTestConfig(t *testing.T) *config.SnapshotContext {
	cfg, err := config.New(config.WithClock(func() time.Time {
		return time.UnixMilli(1_000_000_000_000)
	}))
	require.NoError(t, err)

	return cfg
}

func TestSaveLoadRoundTrip(t *testing.T) {
	snap := &memSnapshot{dbs: map[int][]memRecord{
		0: {
			{key: "counter", kind: format.KindString, intVal: 7, hasInt: true},
			{key: "greeting", kind: format.KindString, bytes: []byte("hello there")},
		},
	}}

	cfg := newTestConfig(t)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, snap, cfg))

	host := &memHost{}
	require.NoError(t, Load(bytes.NewReader(buf.Bytes()), host, cfg, nil))

	require.Len(t, host.inserted, 2)
	require.Equal(t, "counter", host.inserted[0].key)
	iv, ok := host.inserted[0].value.IntString()
	require.True(t, ok)
	require.Equal(t, int64(7), iv)
	require.Equal(t, "hello there", string(host.inserted[1].value.Bytes()))
}

func TestSaveSkipsAlreadyExpiredKey(t *testing.T) {
	cfg := newTestConfig(t)
	pastMS := cfg.Clock().UnixMilli() - 1000

	snap := &memSnapshot{dbs: map[int][]memRecord{
		0: {{key: "stale", kind: format.KindString, bytes: []byte("gone"), expiryMS: pastMS, hasExp: true}},
	}}

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, snap, cfg))

	host := &memHost{}
	require.NoError(t, Load(bytes.NewReader(buf.Bytes()), host, cfg, nil))
	require.Empty(t, host.inserted)
}

func TestLoadDropsAlreadyExpiredOnNonReplicaButKeepsOnReplica(t *testing.T) {
	cfg := newTestConfig(t)
	futureAtSaveMS := cfg.Clock().UnixMilli() + 10_000

	snap := &memSnapshot{dbs: map[int][]memRecord{
		0: {{key: "ephemeral", kind: format.KindString, bytes: []byte("x"), expiryMS: futureAtSaveMS, hasExp: true}},
	}}

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, snap, cfg))

	// Advance the clock past the expiry before loading.
	lateCfg, err := config.New(config.WithClock(func() time.Time {
		return time.UnixMilli(futureAtSaveMS + 1000)
	}))
	require.NoError(t, err)

	nonReplica := &memHost{}
	require.NoError(t, Load(bytes.NewReader(buf.Bytes()), nonReplica, lateCfg, nil))
	require.Empty(t, nonReplica.inserted)

	replica := &memHost{isReplica: true}
	require.NoError(t, Load(bytes.NewReader(buf.Bytes()), replica, lateCfg, nil))
	require.Len(t, replica.inserted, 1)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	cfg := newTestConfig(t)
	host := &memHost{}
	err := Load(bytes.NewReader([]byte("NOTREDIS0011\xff")), host, cfg, nil)
	require.Error(t, err)
}

func TestLoadRejectsChecksumMismatch(t *testing.T) {
	snap := &memSnapshot{dbs: map[int][]memRecord{
		0: {{key: "k", kind: format.KindString, bytes: []byte("v")}},
	}}
	cfg := newTestConfig(t)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, snap, cfg))

	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xFF

	host := &memHost{}
	err := Load(bytes.NewReader(corrupted), host, cfg, nil)
	require.Error(t, err)
}
