package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc64"
)

// magic identifies an archive container, distinct from the "REDIS" magic of
// the dump it wraps.
var magic = [4]byte{'R', 'D', 'B', 'A'}

const headerSize = 4 /*magic*/ + 1 /*codec*/ + 8 /*original size*/ + 8 /*original crc64*/

// Header describes an archived dump file.
type Header struct {
	Codec        Codec
	OriginalSize uint64
	OriginalCRC  uint64
}

// Create compresses a complete, checksum-sealed dump (as produced by
// snapshot.Save) with the given codec and returns the archive bytes:
// a fixed Header followed by the compressed payload.
func Create(dump []byte, codec Codec) ([]byte, error) {
	c, err := CreateCodec(codec)
	if err != nil {
		return nil, err
	}

	compressed, err := c.Compress(dump)
	if err != nil {
		return nil, fmt.Errorf("archive: compress with %s: %w", codec, err)
	}

	table := crc64.MakeTable(crc64.ISO)
	hdr := Header{
		Codec:        codec,
		OriginalSize: uint64(len(dump)),
		OriginalCRC:  crc64.Checksum(dump, table),
	}

	out := make([]byte, 0, headerSize+len(compressed))
	out = append(out, magic[:]...)
	out = append(out, byte(hdr.Codec))
	out = binary.LittleEndian.AppendUint64(out, hdr.OriginalSize)
	out = binary.LittleEndian.AppendUint64(out, hdr.OriginalCRC)
	out = append(out, compressed...)

	return out, nil
}

// Restore reverses Create, reproducing the original dump bytes exactly. It
// never interprets RDB opcodes; it only validates the archive container and
// the recovered dump's size/CRC against the values recorded at Create time.
func Restore(data []byte) ([]byte, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("archive: truncated header (%d bytes)", len(data))
	}
	if !bytes.Equal(data[:4], magic[:]) {
		return nil, fmt.Errorf("archive: bad magic %q", data[:4])
	}

	hdr := Header{
		Codec:        Codec(data[4]),
		OriginalSize: binary.LittleEndian.Uint64(data[5:13]),
		OriginalCRC:  binary.LittleEndian.Uint64(data[13:21]),
	}

	c, err := CreateCodec(hdr.Codec)
	if err != nil {
		return nil, err
	}

	dump, err := c.Decompress(data[headerSize:])
	if err != nil {
		return nil, fmt.Errorf("archive: decompress with %s: %w", hdr.Codec, err)
	}

	if uint64(len(dump)) != hdr.OriginalSize {
		return nil, fmt.Errorf("archive: size mismatch, header says %d, got %d", hdr.OriginalSize, len(dump))
	}

	table := crc64.MakeTable(crc64.ISO)
	if got := crc64.Checksum(dump, table); got != hdr.OriginalCRC {
		return nil, fmt.Errorf("archive: crc mismatch, header says %x, got %x", hdr.OriginalCRC, got)
	}

	return dump, nil
}
