package heap

import (
	"github.com/arloliu/mdtable/internal/collision"
	"github.com/arloliu/mdtable/internal/pool"
)

// store is the byte buffer and intern index shared by the heap types.
type store struct {
	buf     *pool.ByteBuffer
	tracker *collision.Tracker
	indexed bool
}

func newStore(initial []byte) store {
	buf := pool.NewByteBuffer(max(pool.HeapBufferDefaultSize, len(initial)))
	buf.MustWrite(initial)

	return store{buf: buf, tracker: collision.NewTracker()}
}

// Bytes returns the heap contents. The slice aliases the heap and is
// invalidated by the next Add.
func (s *store) Bytes() []byte {
	return s.buf.Bytes()
}

// Len returns the heap size in bytes.
func (s *store) Len() int {
	return s.buf.Len()
}

// pad appends zero bytes until the heap length is a multiple of align.
func (s *store) pad(align int) {
	if n := s.buf.Len() % align; n != 0 {
		s.buf.MustWrite(make([]byte, align-n))
	}
}

// ensureIndex runs walk once over the loaded entries before the first Add.
func (s *store) ensureIndex(walk func()) {
	if s.indexed {
		return
	}
	s.indexed = true
	walk()
}

// intern returns the offset of an existing entry equal to value, or appends
// the entry produced by encode and records it.
func (s *store) intern(h uint64, equal func(off uint32) bool, encode func(buf *pool.ByteBuffer)) uint32 {
	if off, ok := s.tracker.Lookup(h, equal); ok {
		return off
	}

	off := uint32(s.buf.Len()) //nolint:gosec
	encode(s.buf)
	s.tracker.Track(h, off)

	return off
}
