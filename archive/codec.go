// Package archive wraps a sealed RDB dump file for cold storage or
// inter-datacenter transfer: a thin container format with its own magic,
// header and CRC-64, built around pluggable compression codecs. It never
// interprets RDB opcodes; it operates purely on the finished byte stream
// package snapshot's writer already produced.
package archive

import "fmt"

// Codec identifies the archive's compression algorithm.
//
// Archiving is unrelated to the RDB wire format: it wraps an already
// complete, checksum-sealed dump file for cold storage or inter-datacenter
// transfer. A Codec never sees RDB opcodes, only the raw dump bytes.
type Codec uint8

const (
	// CodecNone stores the dump bytes verbatim.
	CodecNone Codec = 0x1
	// CodecZstd compresses with Zstandard (cgo via valyala/gozstd, or pure
	// Go via klauspost/compress/zstd, selected by build tag).
	CodecZstd Codec = 0x2
	// CodecS2 compresses with S2, a Snappy-compatible, throughput-oriented codec.
	CodecS2 Codec = 0x3
	// CodecLZ4 compresses with LZ4, favoring fast decompression.
	CodecLZ4 Codec = 0x4
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "None"
	case CodecZstd:
		return "Zstd"
	case CodecS2:
		return "S2"
	case CodecLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// Compressor compresses a complete dump file into an archive payload.
//
// Memory management:
//   - Returned slice is newly allocated and owned by the caller
//   - Input slice is not modified
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses Compressor, reproducing the original dump bytes
// exactly.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codeer combines compression and decompression for one algorithm.
//
// Named Codeer (not Codec) to avoid colliding with the Codec enum above.
type Codeer interface {
	Compressor
	Decompressor
}

// CreateCodec is a factory returning the Codeer for the requested algorithm.
func CreateCodec(codec Codec) (Codeer, error) {
	switch codec {
	case CodecNone:
		return NewNoOpCompressor(), nil
	case CodecZstd:
		return NewZstdCompressor(), nil
	case CodecS2:
		return NewS2Compressor(), nil
	case CodecLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("archive: unknown codec %d", codec)
	}
}
