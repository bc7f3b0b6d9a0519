package heap

import (
	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/profile"
)

// Heaps groups the four heaps of one metadata instance.
type Heaps struct {
	Strings     *Strings
	UserStrings *UserStrings
	GUIDs       *GUIDs
	Blobs       *Blobs
}

// New creates four empty heaps.
func New() *Heaps {
	return &Heaps{
		Strings:     NewStrings(),
		UserStrings: NewUserStrings(),
		GUIDs:       NewGUIDs(),
		Blobs:       NewBlobs(),
	}
}

// Load creates heaps from raw stream bytes indexed by format.HeapKind.
// A missing stream yields an empty heap.
func Load(streams [format.HeapCount][]byte) *Heaps {
	return &Heaps{
		Strings:     LoadStrings(streams[format.HeapStrings]),
		UserStrings: LoadUserStrings(streams[format.HeapUserStrings]),
		GUIDs:       LoadGUIDs(streams[format.HeapGUID]),
		Blobs:       LoadBlobs(streams[format.HeapBlob]),
	}
}

// Bytes returns the raw contents of heap kind h.
func (h *Heaps) Bytes(kind format.HeapKind) []byte {
	switch kind {
	case format.HeapStrings:
		return h.Strings.Bytes()
	case format.HeapUserStrings:
		return h.UserStrings.Bytes()
	case format.HeapGUID:
		return h.GUIDs.Bytes()
	case format.HeapBlob:
		return h.Blobs.Bytes()
	default:
		return nil
	}
}

// Pad zero-fills every heap to a multiple of align bytes. Zero bytes read
// back as empty entries in all four heap encodings, so existing offsets and
// indexes stay valid.
func (h *Heaps) Pad(align int) {
	h.Strings.pad(align)
	h.UserStrings.pad(align)
	h.GUIDs.pad(align)
	h.Blobs.pad(align)
}

// Sizes returns the byte length of every heap, the input the compression
// profile derives heap column widths from.
func (h *Heaps) Sizes() profile.HeapSizes {
	var sizes profile.HeapSizes
	for kind := range sizes {
		sizes[kind] = uint32(len(h.Bytes(format.HeapKind(kind)))) //nolint:gosec
	}

	return sizes
}
