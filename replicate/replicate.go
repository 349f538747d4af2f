// Package replicate implements the diskless replica-transfer variant of
// a snapshot: the same stream package snapshot writes to a file, framed
// instead with an "$EOF:<40 hex>\r\n" sentinel so a receiving replica can
// detect completion without parsing RDB content, and broadcast to a set
// of peer connections through iochannel's fan-out sink.
package replicate

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/emberkv/rdbsnap/config"
	"github.com/emberkv/rdbsnap/iochannel"
	"github.com/emberkv/rdbsnap/keyspace"
	"github.com/emberkv/rdbsnap/snapshot"
)

// markLength is the number of random hex bytes in the EOF sentinel.
const markLength = 40

// writeTimeout bounds how long a single peer write may block before that
// peer is marked errored: the Go equivalent of a non-blocking socket with
// a write timeout.
const writeTimeout = 5 * time.Second

// newMark generates a fresh random hex mark.
func newMark() (string, error) {
	raw := make([]byte, markLength/2)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("replicate: generate eof mark: %w", err)
	}

	return hex.EncodeToString(raw), nil
}

// PeerResult is one entry of the report the child sends the parent
// through the pipe after a diskless transfer.
type PeerResult struct {
	SlaveID   string
	ErrorCode int
}

// deadlineConn adapts a net.Conn into an io.Writer that reapplies
// writeTimeout before every Write, the Go equivalent of switching a
// socket to non-blocking with a per-call timeout.
type deadlineConn struct {
	conn net.Conn
}

func (d deadlineConn) Write(p []byte) (int, error) {
	if err := d.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return 0, fmt.Errorf("replicate: set write deadline: %w", err)
	}

	return d.conn.Write(p)
}

func (deadlineConn) Flush() error { return nil }

// Peer pairs a slave identifier with its live connection.
type Peer struct {
	SlaveID string
	Conn    net.Conn
}

// Transfer frames and streams snap to every peer, returning one
// PeerResult per peer: ErrorCode 0 for a peer that received the full
// stream, non-zero for one the fan-out sink marked failed partway
// through ("(slave_id, error_code)" report).
func Transfer(peers []Peer, snap keyspace.Snapshot, cfg *config.SnapshotContext) ([]PeerResult, error) {
	mark, err := newMark()
	if err != nil {
		return nil, err
	}

	sinks := make([]iochannel.Sink, len(peers))
	for i, p := range peers {
		sinks[i] = deadlineConn{conn: p.Conn}
	}
	fanOut := iochannel.NewFanOutSink(sinks...)

	if err := writeLeadingMark(fanOut, mark); err != nil {
		return nil, fmt.Errorf("replicate: write leading mark: %w", err)
	}

	if err := snapshot.Save(fanOut, snap, cfg); err != nil {
		return nil, fmt.Errorf("replicate: save: %w", err)
	}

	if err := writeTrailingMark(fanOut, mark); err != nil {
		return nil, fmt.Errorf("replicate: write trailing mark: %w", err)
	}

	results := make([]PeerResult, len(peers))
	for i, p := range peers {
		errCode := 0
		if !fanOut.Alive(i) {
			errCode = 1
		}
		results[i] = PeerResult{SlaveID: p.SlaveID, ErrorCode: errCode}
	}

	return results, nil
}

// writeLeadingMark emits the "$EOF:<40 hex>\r\n" sentinel a replica reads
// before the dump stream starts, so it knows up front which 40 bytes to
// watch for at the end.
func writeLeadingMark(w io.Writer, mark string) error {
	_, err := fmt.Fprintf(w, "$EOF:%s\r\n", mark)
	return err
}

// writeTrailingMark emits the bare 40 hex bytes after the dump stream,
// with no "$EOF:" prefix or CRLF suffix: a replica detects completion by
// scanning for this fixed-length mark directly in the byte stream, not by
// re-parsing framing syntax.
func writeTrailingMark(w io.Writer, mark string) error {
	_, err := io.WriteString(w, mark)
	return err
}
