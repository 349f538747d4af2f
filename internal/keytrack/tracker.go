// Package keytrack implements an optional, debug-mode assertion that the
// keys written into one database section are unique.
//
// The codec itself does not deduplicate — the producer guarantees
// uniqueness — so this tracker is off by default (config.AssertUniqueKeys)
// and exists only to catch a misbehaving keyspace implementation during
// development and tests.
//
// Unlike a tracker built to tolerate hash collisions between distinct
// names by falling back to storing names verbatim, a repeated key here
// is always a caller bug, never a real 64-bit hash collision worth
// tolerating, so Track returns an error instead of recording a fallback
// path.
package keytrack

import (
	"github.com/emberkv/rdbsnap/errs"
	"github.com/emberkv/rdbsnap/internal/hash"
)

// Tracker detects a key reused within a single database section.
type Tracker struct {
	seen map[uint64]string
}

// NewTracker creates an empty key-uniqueness tracker.
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[uint64]string)}
}

// Track records key and reports errs.ErrDuplicateKey if it was already
// tracked since the last Reset. A different key with the same 64-bit hash
// is not reported; it replaces the earlier entry.
func (t *Tracker) Track(key string) error {
	h := hash.ID(key)
	if prev, ok := t.seen[h]; ok && prev == key {
		return errs.ErrDuplicateKey
	}
	t.seen[h] = key

	return nil
}

// Reset clears tracked keys, for reuse across database sections.
func (t *Tracker) Reset() {
	for k := range t.seen {
		delete(t.seen, k)
	}
}

// Count returns the number of distinct keys tracked since the last Reset.
func (t *Tracker) Count() int {
	return len(t.seen)
}
