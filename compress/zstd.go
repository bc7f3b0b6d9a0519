package compress

// ZstdCompressor compresses with Zstandard at the default level.
//
// The implementation depends on the build: gozstd with cgo, the pure Go
// klauspost decoder and encoder without.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a Zstandard codec.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
