package replicate

import (
	"bytes"
	"io"
	"net"
	"strings"
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

func TestTransferFramesWithEOFMark(t *testing.T) {
	serverConn, clientConn := net.Pipe()

	received := make(chan []byte, 1)
	go func() {
		buf, _ := io.ReadAll(serverConn)
		received <- buf
	}()

	cfg, err := config.New()
	require.NoError(t, err)

	results, err := Transfer([]Peer{{SlaveID: "slave-1", Conn: clientConn}}, emptySnapshot{}, cfg)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "slave-1", results[0].SlaveID)
	require.Equal(t, 0, results[0].ErrorCode)

	clientConn.Close()
	got := <-received

	require.True(t, strings.HasPrefix(string(got), "$EOF:"))

	leadingEnd := strings.Index(string(got), "\r\n")
	require.NotEqual(t, -1, leadingEnd, "leading mark must be CRLF-terminated")
	mark := string(got)[len("$EOF:"):leadingEnd]

	require.True(t, strings.HasSuffix(string(got), mark), "trailing mark must be the bare 40 hex bytes, not re-wrapped in $EOF:...\\r\\n")
	require.False(t, strings.HasSuffix(string(got), mark+"\r\n"), "trailing mark must not carry its own CRLF")
}

func TestReportRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := []PeerResult{{SlaveID: "a", ErrorCode: 0}, {SlaveID: "b", ErrorCode: 7}}
	require.NoError(t, WriteReport(&buf, in))

	out := ReadReport(&buf)
	require.Equal(t, in, out)
}

func TestReadReportOnEmptyPipeIsEmptyNotError(t *testing.T) {
	out := ReadReport(bytes.NewReader(nil))
	require.Empty(t, out)
}
