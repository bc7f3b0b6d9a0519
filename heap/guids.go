package heap

import (
	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/internal/hash"
	"github.com/google/uuid"
)

// GUIDs is the #GUID heap.
//
// Records are stored in the Windows GUID layout: the first three fields are
// little-endian. Get and Add convert to and from the RFC 4122 byte order used
// by uuid.UUID.
type GUIDs struct {
	store
}

// NewGUIDs creates an empty heap.
func NewGUIDs() *GUIDs {
	return &GUIDs{store: newStore(nil)}
}

// LoadGUIDs creates a heap from existing #GUID stream bytes. The data is
// copied; a trailing partial record is dropped.
func LoadGUIDs(data []byte) *GUIDs {
	return &GUIDs{store: newStore(data[:len(data)-len(data)%format.GUIDSize])}
}

// Count returns the number of records.
func (g *GUIDs) Count() int {
	return g.Len() / format.GUIDSize
}

// Get returns the GUID at the 1-based index idx. Index 0 is uuid.Nil.
func (g *GUIDs) Get(idx uint32) (uuid.UUID, error) {
	return GUIDAt(g.buf.Bytes(), idx)
}

// Add appends u and returns its 1-based index. uuid.Nil is always index 0.
func (g *GUIDs) Add(u uuid.UUID) uint32 {
	if u == uuid.Nil {
		return 0
	}

	g.ensureIndex(g.index)
	rec := toRecord(u)
	h := hash.Bytes(rec[:])

	// the tracker holds 1-based indexes for this heap, not byte offsets
	idx, ok := g.tracker.Lookup(h, func(idx uint32) bool {
		got, err := g.Get(idx)
		return err == nil && got == u
	})
	if ok {
		return idx
	}

	g.buf.MustWrite(rec[:])
	idx = uint32(g.Count()) //nolint:gosec
	g.tracker.Track(h, idx)

	return idx
}

func (g *GUIDs) index() {
	for i := range g.Count() {
		rec := g.buf.B[i*format.GUIDSize : (i+1)*format.GUIDSize]
		g.tracker.Track(hash.Bytes(rec), uint32(i+1)) //nolint:gosec
	}
}

func toRecord(u uuid.UUID) [format.GUIDSize]byte {
	var rec [format.GUIDSize]byte
	rec[0], rec[1], rec[2], rec[3] = u[3], u[2], u[1], u[0]
	rec[4], rec[5] = u[5], u[4]
	rec[6], rec[7] = u[7], u[6]
	copy(rec[8:], u[8:])

	return rec
}

func fromRecord(rec []byte) uuid.UUID {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = rec[3], rec[2], rec[1], rec[0]
	u[4], u[5] = rec[5], rec[4]
	u[6], u[7] = rec[7], rec[6]
	copy(u[8:], rec[8:])

	return u
}
