package archive

// NoOpCompressor stores the dump verbatim, for CodecNone: archiving just
// for the container's size/CRC header, or as a baseline to compare the
// other codecs' ratios against.
type NoOpCompressor struct{}

var _ Codeer = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a new no-operation compressor.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns data unchanged. The returned slice aliases data; callers
// should not mutate data afterward.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data unchanged. The returned slice aliases data;
// callers should not mutate data afterward.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
