package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/emberkv/rdbsnap/format"
	"github.com/emberkv/rdbsnap/keyspace"
)

// toyEntry is one key's in-memory value in the demonstration keyspace
// this CLI drives the codec against. A real host's value representation
// (packed ziplist/intset blobs, hash tables, skip lists) is out of scope
// here; this toy only ever stores plain strings, so every value
// round-trips as format.KindString.
type toyEntry struct {
	value    string
	expiryMS int64
	hasExp   bool
}

// toyKeyspace is a minimal, single-process keyspace.Snapshot and
// keyspace.Host implementation so cmd/rdbsnap-cli's save/load/bgsave
// subcommands have something concrete to exercise the codec against.
type toyKeyspace struct {
	mu  sync.Mutex
	dbs map[int]map[string]toyEntry
}

func newToyKeyspace() *toyKeyspace {
	return &toyKeyspace{dbs: make(map[int]map[string]toyEntry)}
}

func (k *toyKeyspace) Set(db int, key, value string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.dbs[db] == nil {
		k.dbs[db] = make(map[string]toyEntry)
	}
	k.dbs[db][key] = toyEntry{value: value}
}

func (k *toyKeyspace) ForEachDatabase(fn func(db int, size int, it keyspace.Iterator) error) error {
	k.mu.Lock()
	dbIndexes := make([]int, 0, len(k.dbs))
	for db := range k.dbs {
		dbIndexes = append(dbIndexes, db)
	}
	sort.Ints(dbIndexes)
	k.mu.Unlock()

	for _, db := range dbIndexes {
		k.mu.Lock()
		entries := k.dbs[db]
		keys := make([]string, 0, len(entries))
		for key := range entries {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		k.mu.Unlock()

		it := &toyIterator{k: k, db: db, keys: keys}
		if err := fn(db, len(keys), it); err != nil {
			return err
		}
	}

	return nil
}

func (k *toyKeyspace) ExpiryMS(db int, key string) (int64, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.dbs[db][key]
	if !ok {
		return 0, false
	}

	return e.expiryMS, e.hasExp
}

func (k *toyKeyspace) Insert(db int, key string, value keyspace.Value, expiryMS int64, hasExpiry bool) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.dbs[db] == nil {
		k.dbs[db] = make(map[string]toyEntry)
	}

	s := string(value.Bytes())
	if iv, ok := value.IntString(); ok {
		s = strconv.FormatInt(iv, 10)
	}

	k.dbs[db][key] = toyEntry{value: s, expiryMS: expiryMS, hasExp: hasExpiry}

	return nil
}

func (k *toyKeyspace) IsReplica() bool { return false }

// Print writes every loaded key/value pair to w, for cmd/rdbsnap-cli's
// load subcommand to show what a round trip actually produced.
func (k *toyKeyspace) Print(w io.Writer) {
	k.mu.Lock()
	defer k.mu.Unlock()

	dbIndexes := make([]int, 0, len(k.dbs))
	for db := range k.dbs {
		dbIndexes = append(dbIndexes, db)
	}
	sort.Ints(dbIndexes)

	for _, db := range dbIndexes {
		keys := make([]string, 0, len(k.dbs[db]))
		for key := range k.dbs[db] {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			fmt.Fprintf(w, "db=%d %s=%s\n", db, key, k.dbs[db][key].value)
		}
	}
}

type toyIterator struct {
	k    *toyKeyspace
	db   int
	keys []string
	i    int
}

func (it *toyIterator) Next() (string, keyspace.Value, bool) {
	if it.i >= len(it.keys) {
		return "", nil, false
	}
	key := it.keys[it.i]
	it.i++

	it.k.mu.Lock()
	entry := it.k.dbs[it.db][key]
	it.k.mu.Unlock()

	return key, toyStringValue{entry.value}, true
}

// toyStringValue adapts one stored string into keyspace.Value as a plain
// KindString record.
type toyStringValue struct {
	s string
}

func (v toyStringValue) Kind() format.ValueKind    { return format.KindString }
func (v toyStringValue) Encoding() format.Encoding { return format.Packed }
func (v toyStringValue) Packed() []byte            { return []byte(v.s) }
func (v toyStringValue) Sequence() keyspace.ValueSeq {
	return emptySeq{}
}

func (v toyStringValue) IntString() (int64, bool) {
	n, ok := parseExactInt(v.s)
	return n, ok
}

func (v toyStringValue) Bytes() []byte { return []byte(v.s) }

type emptySeq struct{}

func (emptySeq) Next() (string, bool) { return "", false }
func (emptySeq) Len() int             { return 0 }

func parseExactInt(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	if strconv.FormatInt(n, 10) != s {
		return 0, false
	}

	return n, true
}
