package archive

// ZstdCompressor compresses a sealed dump file with Zstandard, favoring
// compression ratio over speed.
//
// Good for cold storage of a dump that's written once and read rarely — a
// backup archive or a cross-datacenter transfer — where the extra CPU
// spent at Create time buys a smaller file to move or keep.
type ZstdCompressor struct{}

var _ Codeer = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
