package object

import (
	"strconv"

	"github.com/emberkv/rdbsnap/format"
	"github.com/emberkv/rdbsnap/keyspace"
)

// AsValue adapts a freshly-loaded Decoded record into a keyspace.Value so
// package snapshot can hand it straight to keyspace.Host.Insert without
// the host needing to know this package's Decoded shape.
func (d Decoded) AsValue() keyspace.Value {
	return decodedValue{d}
}

type decodedValue struct{ d Decoded }

func (v decodedValue) Kind() format.ValueKind    { return v.d.Kind }
func (v decodedValue) Encoding() format.Encoding { return v.d.Encoding }
func (v decodedValue) Packed() []byte            { return v.d.Packed }

func (v decodedValue) Sequence() keyspace.ValueSeq {
	if v.d.Kind == format.KindZSet {
		return &zsetSeq{members: v.d.Elements, scores: v.d.Scores}
	}

	return &elementSeq{elems: v.d.Elements}
}

func (v decodedValue) IntString() (int64, bool) {
	if v.d.Kind != format.KindString {
		return 0, false
	}

	n, err := strconv.ParseInt(string(v.d.Packed), 10, 64)
	if err != nil || strconv.FormatInt(n, 10) != string(v.d.Packed) {
		return 0, false
	}

	return n, true
}

func (v decodedValue) Bytes() []byte { return v.d.Packed }

type elementSeq struct {
	elems []string
	i     int
}

func (s *elementSeq) Next() (string, bool) {
	if s.i >= len(s.elems) {
		return "", false
	}
	v := s.elems[s.i]
	s.i++

	return v, true
}

func (s *elementSeq) Len() int { return len(s.elems) - s.i }

// zsetSeq re-flattens a decoded sorted set back into the alternating
// member/score string pairs keyspace.Value.Sequence documents, the
// mirror image of saveZSetPairs's reading of that same shape.
type zsetSeq struct {
	members []string
	scores  []float64
	i       int
}

func (s *zsetSeq) Next() (string, bool) {
	idx := s.i / 2
	if idx >= len(s.members) {
		return "", false
	}

	var out string
	if s.i%2 == 0 {
		out = s.members[idx]
	} else {
		out = strconv.FormatFloat(s.scores[idx], 'g', 17, 64)
	}
	s.i++

	return out, true
}

func (s *zsetSeq) Len() int { return (len(s.members)-s.i/2)*2 - s.i%2 }
