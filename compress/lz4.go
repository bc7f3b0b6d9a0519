package compress

import (
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"
)

var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

const (
	// lz4MaxDecoded bounds the output buffer Decompress grows to.
	lz4MaxDecoded = 256 << 20
	// lz4MaxRatio is the largest decoded/encoded size ratio of a block.
	lz4MaxRatio = 255
)

type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates an LZ4 block codec.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses data as one LZ4 block with a pooled compressor.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}

// Decompress decodes one LZ4 block.
//
// A block does not record its decoded size. The output buffer starts at four
// times the input and doubles on lz4.ErrInvalidSourceShortBuffer, up to the
// largest expansion a block can encode or 256 MiB, whichever is smaller.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	limit := len(data)*lz4MaxRatio + 64
	if limit > lz4MaxDecoded {
		limit = lz4MaxDecoded
	}

	for size := len(data) * 4; ; size *= 2 {
		size = min(size, limit)
		buf := make([]byte, size)
		n, err := lz4.UncompressBlock(data, buf)
		if err == nil {
			return buf[:n], nil
		}
		if !errors.Is(err, lz4.ErrInvalidSourceShortBuffer) || size == limit {
			return nil, err
		}
	}
}
