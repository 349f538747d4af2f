package object

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emberkv/rdbsnap/config"
	"github.com/emberkv/rdbsnap/format"
	"github.com/emberkv/rdbsnap/keyspace"
)

type fakeSeq struct {
	elems []string
	i     int
}

func (s *fakeSeq) Next() (string, bool) {
	if s.i >= len(s.elems) {
		return "", false
	}
	v := s.elems[s.i]
	s.i++

	return v, true
}

func (s *fakeSeq) Len() int { return len(s.elems) - s.i }

type fakeValue struct {
	kind     format.ValueKind
	encoding format.Encoding
	packed   []byte
	seq      []string
	intVal   int64
	hasInt   bool
	bytes    []byte
}

func (v *fakeValue) Kind() format.ValueKind    { return v.kind }
func (v *fakeValue) Encoding() format.Encoding { return v.encoding }
func (v *fakeValue) Packed() []byte            { return v.packed }
func (v *fakeValue) Sequence() keyspace.ValueSeq {
	return &fakeSeq{elems: v.seq}
}
func (v *fakeValue) IntString() (int64, bool) { return v.intVal, v.hasInt }
func (v *fakeValue) Bytes() []byte            { return v.bytes }

var _ keyspace.Value = (*fakeValue)(nil)

func TestSaveLoadStringInteger(t *testing.T) {
	var buf bytes.Buffer
	v := &fakeValue{kind: format.KindString, hasInt: true, intVal: 42}
	require.NoError(t, Save(&buf, v, false))

	opcode := make([]byte, 1)
	_, err := buf.Read(opcode)
	require.NoError(t, err)
	require.Equal(t, format.KindString, format.ValueKind(opcode[0]))

	dec, err := Load(&buf, format.KindString, config.DefaultThresholds())
	require.NoError(t, err)
	require.Equal(t, "42", string(dec.Packed))
}

func TestSaveLoadListUnpackedThresholdUpgrade(t *testing.T) {
	var buf bytes.Buffer
	elems := make([]string, 200)
	for i := range elems {
		elems[i] = "x"
	}
	v := &fakeValue{kind: format.KindList, seq: elems}
	require.NoError(t, Save(&buf, v, false))

	opcode := make([]byte, 1)
	_, _ = buf.Read(opcode)

	th := config.DefaultThresholds()
	dec, err := Load(&buf, format.KindList, th)
	require.NoError(t, err)
	require.Equal(t, format.Expanded, dec.Encoding)
	require.Len(t, dec.Elements, 200)
}

func TestSaveLoadZSetPairs(t *testing.T) {
	var buf bytes.Buffer
	v := &fakeValue{kind: format.KindZSet, seq: []string{"alice", "1.5", "bob", "2.5"}}
	require.NoError(t, Save(&buf, v, false))

	opcode := make([]byte, 1)
	_, _ = buf.Read(opcode)

	dec, err := Load(&buf, format.KindZSet, config.DefaultThresholds())
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob"}, dec.Elements)
	require.Equal(t, []float64{1.5, 2.5}, dec.Scores)
}

func TestSaveLoadPackedBlobVerbatim(t *testing.T) {
	var buf bytes.Buffer
	v := &fakeValue{kind: format.KindListZiplist, packed: []byte("opaque-blob-bytes")}
	require.NoError(t, Save(&buf, v, false))

	opcode := make([]byte, 1)
	_, _ = buf.Read(opcode)

	dec, err := Load(&buf, format.KindListZiplist, config.DefaultThresholds())
	require.NoError(t, err)
	require.Equal(t, format.Packed, dec.Encoding)
	require.Equal(t, "opaque-blob-bytes", string(dec.Packed))
}

func TestLoadLegacyZipMapRewritesToZiplist(t *testing.T) {
	var buf bytes.Buffer
	v := &fakeValue{kind: format.KindHashZipMap, packed: []byte("legacy-zipmap-bytes")}
	require.NoError(t, saveBody(&buf, format.KindHashZipMap, v, false))

	dec, err := Load(&buf, format.KindHashZipMap, config.DefaultThresholds())
	require.NoError(t, err)
	require.Equal(t, format.KindHashZiplist, dec.Kind)
}
