// Package object implements the per-value-kind object codec: saving and
// loading the wire form of each value kind, and the load-time re-encoding
// between a value's packed and expanded in-memory forms.
//
// Save dispatches on the kind straight off keyspace.Value; load
// produces a Decoded value the caller (package snapshot) hands to
// keyspace.Host.Insert.
package object

import (
	"fmt"
	"io"
	"strconv"

	"github.com/emberkv/rdbsnap/config"
	"github.com/emberkv/rdbsnap/errs"
	"github.com/emberkv/rdbsnap/format"
	"github.com/emberkv/rdbsnap/keyspace"
	"github.com/emberkv/rdbsnap/wire"
)

// Save writes v's type opcode followed by its value record, dispatching
// on v's kind; the kind byte already names the packed or expanded wire
// form.
func Save(w io.Writer, v keyspace.Value, compressionEnabled bool) error {
	kind := v.Kind()
	if _, err := w.Write([]byte{byte(kind)}); err != nil {
		return fmt.Errorf("object: write type opcode: %w", err)
	}

	return saveBody(w, kind, v, compressionEnabled)
}

func saveBody(w io.Writer, kind format.ValueKind, v keyspace.Value, compressionEnabled bool) error {
	switch kind {
	case format.KindString:
		return saveString(w, v, compressionEnabled)
	case format.KindListZiplist, format.KindSetIntset, format.KindZSetZiplist,
		format.KindHashZiplist, format.KindHashZipMap:
		return wire.WriteString(w, v.Packed(), compressionEnabled)
	case format.KindList, format.KindSet, format.KindHash:
		return saveStringSequence(w, v, compressionEnabled)
	case format.KindZSet:
		return saveZSetPairs(w, v, compressionEnabled)
	default:
		return fmt.Errorf("object: save: kind %s: %w", kind, errs.ErrUnknownType)
	}
}

func saveString(w io.Writer, v keyspace.Value, compressionEnabled bool) error {
	if iv, ok := v.IntString(); ok {
		return wire.WriteIntString(w, iv)
	}

	return wire.WriteString(w, v.Bytes(), compressionEnabled)
}

// saveStringSequence handles List/Set/Hash's unpacked form: a length
// prefix followed by that many strings. For Hash the sequence has
// already interleaved field/value pairs; treating it as 2N plain strings
// keeps this one code path for all three kinds.
func saveStringSequence(w io.Writer, v keyspace.Value, compressionEnabled bool) error {
	seq := v.Sequence()
	if err := wire.WriteLength(w, uint32(seq.Len())); err != nil {
		return err
	}

	for {
		s, ok := seq.Next()
		if !ok {
			return nil
		}
		if err := wire.WriteString(w, []byte(s), compressionEnabled); err != nil {
			return err
		}
	}
}

// saveZSetPairs handles the sorted-set unpacked form: length prefix, then
// N (member string, score double) pairs. keyspace.ValueSeq carries score
// members as the alternating "member", "score" strings that
// keyspace.Value.Sequence documents for ZSet.
func saveZSetPairs(w io.Writer, v keyspace.Value, compressionEnabled bool) error {
	seq := v.Sequence()
	n := seq.Len() / 2
	if err := wire.WriteLength(w, uint32(n)); err != nil {
		return err
	}

	for {
		member, ok := seq.Next()
		if !ok {
			return nil
		}
		scoreStr, ok := seq.Next()
		if !ok {
			return fmt.Errorf("object: zset sequence has odd element count")
		}

		score, err := parseScore(scoreStr)
		if err != nil {
			return err
		}
		if err := wire.WriteString(w, []byte(member), compressionEnabled); err != nil {
			return err
		}
		if err := wire.WriteDouble(w, score); err != nil {
			return err
		}
	}
}

func parseScore(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("object: zset score %q: %w", s, err)
	}

	return v, nil
}

// Decoded is the loader's output: the raw wire-level payload, left for
// package snapshot to hand to keyspace.Host.Insert together with the key
// and expiry already parsed off the surrounding opcodes.
type Decoded struct {
	Kind     format.ValueKind
	Encoding format.Encoding // in-memory form chosen from the thresholds
	Packed   []byte          // String bytes, or the blob of a packed wire kind
	Elements []string        // List/Set/Hash elements or ZSet members, whatever the Encoding
	Scores   []float64       // ZSet scores, parallel to Elements
}

// Load reads one value record given its already-parsed type opcode.
// Thresholds drive the packed/expanded choice the loader makes for the
// four collection kinds.
func Load(r io.Reader, kind format.ValueKind, th config.Thresholds) (Decoded, error) {
	switch kind {
	case format.KindString:
		b, err := wire.ReadString(r)
		return Decoded{Kind: kind, Encoding: format.Packed, Packed: b}, err
	case format.KindListZiplist, format.KindSetIntset, format.KindZSetZiplist, format.KindHashZiplist:
		return loadPacked(r, kind)
	case format.KindHashZipMap:
		return loadLegacyZipMap(r)
	case format.KindList:
		return loadList(r, th)
	case format.KindSet:
		return loadSet(r, th)
	case format.KindHash:
		return loadHash(r, th)
	case format.KindZSet:
		return loadZSet(r, th)
	default:
		return Decoded{}, fmt.Errorf("object: load: kind %d: %w", kind, errs.ErrUnknownType)
	}
}

func loadPacked(r io.Reader, kind format.ValueKind) (Decoded, error) {
	b, err := wire.ReadString(r)
	if err != nil {
		return Decoded{}, err
	}

	return Decoded{Kind: kind, Encoding: format.Packed, Packed: b}, nil
}

// loadLegacyZipMap rewrites the legacy HASH_ZIPMAP wire form into the
// packed HASH_ZIPLIST in-memory form at load time; the wire-level blob
// is opaque to this codec either way, so the rewrite is a Kind relabel,
// not a reinterpretation of its bytes (the keyspace component owns
// translating the zipmap layout into ziplist layout if that conversion
// is needed).
func loadLegacyZipMap(r io.Reader) (Decoded, error) {
	b, err := wire.ReadString(r)
	if err != nil {
		return Decoded{}, err
	}

	return Decoded{Kind: format.KindHashZiplist, Encoding: format.Packed, Packed: b}, nil
}

func readStringSequence(r io.Reader) ([]string, error) {
	n, _, _, err := wire.ReadLength(r)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		b, err := wire.ReadString(r)
		if err != nil {
			return nil, err
		}
		out = append(out, string(b))
	}

	return out, nil
}

func maxElementLen(elems []string) int {
	max := 0
	for _, e := range elems {
		if len(e) > max {
			max = len(e)
		}
	}

	return max
}

func loadList(r io.Reader, th config.Thresholds) (Decoded, error) {
	elems, err := readStringSequence(r)
	if err != nil {
		return Decoded{}, err
	}

	enc := format.Expanded
	if len(elems) <= th.ListMaxPackedEntries && maxElementLen(elems) <= th.ListMaxPackedValue {
		enc = format.Packed
	}

	return Decoded{Kind: format.KindList, Encoding: enc, Elements: elems}, nil
}

func loadSet(r io.Reader, th config.Thresholds) (Decoded, error) {
	elems, err := readStringSequence(r)
	if err != nil {
		return Decoded{}, err
	}

	enc := format.Expanded
	if len(elems) <= th.SetMaxPackedEntries && allIntegers(elems) {
		enc = format.Packed
	}

	return Decoded{Kind: format.KindSet, Encoding: enc, Elements: elems}, nil
}

func allIntegers(elems []string) bool {
	for _, e := range elems {
		if !isDecimalInt(e) {
			return false
		}
	}

	return true
}

func isDecimalInt(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '-' {
		i = 1
	}
	if i == len(s) {
		return false
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

func loadHash(r io.Reader, th config.Thresholds) (Decoded, error) {
	pairs, err := readStringSequence(r)
	if err != nil {
		return Decoded{}, err
	}

	enc := format.Expanded
	if len(pairs)/2 <= th.HashMaxPackedEntries && maxElementLen(pairs) <= th.HashMaxPackedValue {
		enc = format.Packed
	}

	return Decoded{Kind: format.KindHash, Encoding: enc, Elements: pairs}, nil
}

func loadZSet(r io.Reader, th config.Thresholds) (Decoded, error) {
	n, _, _, err := wire.ReadLength(r)
	if err != nil {
		return Decoded{}, err
	}

	members := make([]string, 0, n)
	scores := make([]float64, 0, n)
	for i := uint32(0); i < n; i++ {
		m, err := wire.ReadString(r)
		if err != nil {
			return Decoded{}, err
		}
		s, err := wire.ReadDouble(r)
		if err != nil {
			return Decoded{}, err
		}
		members = append(members, string(m))
		scores = append(scores, s)
	}

	// Populate into the unpacked form, then downgrade to packed only if
	// both count and max-element-length are under threshold.
	enc := format.Expanded
	if int(n) <= th.ZSetMaxPackedEntries && maxElementLen(members) <= th.ZSetMaxPackedValue {
		enc = format.Packed
	}

	return Decoded{Kind: format.KindZSet, Encoding: enc, Elements: members, Scores: scores}, nil
}
