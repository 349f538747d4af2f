// Package keyspace defines the external interfaces the snapshot codec
// consumes ("Keyspace interface (consumed)"). The keyspace data
// structures, the expiration table and the command dispatcher are external
// collaborators, out of scope for this repo; this package is the narrow
// seam between them and the codec.
package keyspace

import "github.com/emberkv/rdbsnap/format"

// ValueSeq is a sequence of string elements (List/Set members, or the
// alternating field/value pairs of a Hash, or the alternating member/score
// pairs of a ZSet encoded as strings) handed to the codec one at a time
// during an Expanded-encoding save.
type ValueSeq interface {
	// Next returns the next element and true, or ("", false) when the
	// sequence is exhausted.
	Next() (string, bool)
	// Len returns the number of elements remaining to iterate, known
	// up front so the writer can emit an exact length prefix.
	Len() int
}

// Value is the codec's read-only view of one key's value, as exposed by
// the keyspace.
type Value interface {
	Kind() format.ValueKind
	Encoding() format.Encoding

	// Packed returns the opaque blob form. The codec reads it for the
	// packed wire kinds (ziplist, intset, zipmap), writes it verbatim and
	// never interprets its layout.
	Packed() []byte

	// Sequence returns the expanded element sequence. The codec reads it
	// for the List, Set, ZSet and Hash wire kinds.
	Sequence() ValueSeq

	// IntString reports whether a String-kind value is held internally
	// as an integer, and its value if so; the codec takes the integer
	// fast path directly rather than formatting and re-parsing
	// ("if the in-memory representation is an integer").
	IntString() (int64, bool)

	// Bytes returns the raw byte form of a String-kind value when it is
	// not held as an integer.
	Bytes() []byte
}

// Iterator walks one database section. It must tolerate concurrent
// rehashing of the live keyspace ("Iterators"): implementations
// are expected to be a restartable, bucket-indexed cursor, not a raw
// pointer walk, though from the codec's point of view it is simply
// call-Next-until-exhausted.
type Iterator interface {
	// Next returns the next (key, value) pair and true, or ("", nil,
	// false) once the section is exhausted.
	Next() (key string, value Value, ok bool)
}

// Snapshot is a point-in-time, read-only view of every database handed
// to a save operation — what a forked child process (or, here, a
// re-exec'd child) observes instead of sharing memory with the live
// parent.
type Snapshot interface {
	// ForEachDatabase invokes fn once per non-empty database, in
	// ascending index order, passing the database index, its key count,
	// and an iterator over its (key, value) pairs. fn's returned error
	// aborts the scan.
	ForEachDatabase(fn func(db int, size int, it Iterator) error) error

	// ExpiryMS returns the key's absolute millisecond expiry, if any.
	ExpiryMS(db int, key string) (ms int64, ok bool)
}

// Host is the subset of the live datastore the loader populates.
// IsReplica controls the already-expired-key semantics at load time: a
// replica still inserts an already-expired key (it waits for the
// master's DEL), while a standalone host drops it.
type Host interface {
	// Insert stores key/value in database db. If hasExpiry, expiryMS is
	// the absolute millisecond expiry to associate with the key.
	Insert(db int, key string, value Value, expiryMS int64, hasExpiry bool) error

	// IsReplica reports whether this host is a replication slave; a
	// non-replica host drops an already-expired key instead of loading
	// it.
	IsReplica() bool
}
