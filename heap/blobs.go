package heap

import (
	"bytes"
	"fmt"

	"github.com/arloliu/mdtable/encoding"
	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/internal/hash"
	"github.com/arloliu/mdtable/internal/pool"
)

// Blobs is the #Blob heap.
type Blobs struct {
	store
}

// NewBlobs creates a heap holding only the empty blob at offset 0.
func NewBlobs() *Blobs {
	return &Blobs{store: newStore([]byte{0})}
}

// LoadBlobs creates a heap from existing #Blob stream bytes. The data is copied.
func LoadBlobs(data []byte) *Blobs {
	if len(data) == 0 {
		return NewBlobs()
	}

	return &Blobs{store: newStore(data)}
}

// Get returns the blob at off. The result aliases the heap.
func (b *Blobs) Get(off uint32) ([]byte, error) {
	return BlobAt(b.buf.Bytes(), off)
}

// Add appends data and returns its offset. An empty blob is always offset 0.
func (b *Blobs) Add(data []byte) (uint32, error) {
	if len(data) == 0 {
		return 0, nil
	}
	if len(data) > encoding.MaxCompressedUint {
		return 0, fmt.Errorf("%w: blob of %d bytes", errs.ErrInvalidLength, len(data))
	}

	b.ensureIndex(b.index)

	return b.intern(hash.Bytes(data),
		func(off uint32) bool {
			got, err := b.Get(off)
			return err == nil && bytes.Equal(got, data)
		},
		func(buf *pool.ByteBuffer) {
			buf.B = encoding.AppendCompressedUint(buf.B, uint32(len(data))) //nolint:gosec
			buf.MustWrite(data)
		}), nil
}

func (b *Blobs) index() {
	data := b.buf.Bytes()
	for off := uint32(1); int(off) < len(data); {
		payload, size, err := entry(data, off, "#Blob")
		if err != nil {
			return
		}
		if len(payload) > 0 {
			b.tracker.Track(hash.Bytes(payload), off)
		}
		off += uint32(size) //nolint:gosec
	}
}

// entry decodes the length-prefixed entry at off and returns its payload and
// total encoded size.
func entry(data []byte, off uint32, stream string) ([]byte, int, error) {
	if off == 0 && len(data) == 0 {
		return nil, 0, nil
	}
	if int64(off) >= int64(len(data)) {
		return nil, 0, fmt.Errorf("%w: %s offset %#x, heap size %#x", errs.ErrInvalidHeapOffset, stream, off, len(data))
	}

	n, size, err := encoding.DecodeCompressedUint(data[off:])
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s entry at %#x: %w", errs.ErrInvalidHeapOffset, stream, off, err)
	}

	start := int64(off) + int64(size)
	end := start + int64(n)
	if end > int64(len(data)) {
		return nil, 0, fmt.Errorf("%w: %s entry at %#x needs %d bytes, heap size %#x",
			errs.ErrInvalidHeapOffset, stream, off, n, len(data))
	}

	return data[start:end], size + int(n), nil
}
