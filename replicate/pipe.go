package replicate

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// WriteReport serializes results onto w as a count followed by that many
// (slave_id, error_code) pairs, for the child→parent report pipe. The
// child calls this on its end of an os.Pipe() before exiting; the parent
// calls ReadReport on the other end.
func WriteReport(w io.Writer, results []PeerResult) error {
	if err := writeUint32(w, uint32(len(results))); err != nil {
		return fmt.Errorf("replicate: report count: %w", err)
	}

	for _, r := range results {
		if err := writeUint32(w, uint32(len(r.SlaveID))); err != nil {
			return fmt.Errorf("replicate: report slave id length: %w", err)
		}
		if _, err := w.Write([]byte(r.SlaveID)); err != nil {
			return fmt.Errorf("replicate: report slave id: %w", err)
		}
		if err := writeUint32(w, uint32(r.ErrorCode)); err != nil {
			return fmt.Errorf("replicate: report error code: %w", err)
		}
	}

	return nil
}

// ReadReport parses WriteReport's output. A short or malformed pipe (e.g.
// the child exited abnormally before writing anything) yields an empty
// report rather than an error — the parent still needs to proceed and
// simply treats every slave as unresolved.
func ReadReport(r io.Reader) []PeerResult {
	br := bufio.NewReader(r)

	count, err := readUint32(br)
	if err != nil {
		return nil
	}

	results := make([]PeerResult, 0, count)
	for i := uint32(0); i < count; i++ {
		idLen, err := readUint32(br)
		if err != nil {
			return nil
		}

		idBuf := make([]byte, idLen)
		if _, err := io.ReadFull(br, idBuf); err != nil {
			return nil
		}

		errCode, err := readUint32(br)
		if err != nil {
			return nil
		}

		results = append(results, PeerResult{SlaveID: string(idBuf), ErrorCode: int(errCode)})
	}

	return results
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])

	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(buf[:]), nil
}
