package heap

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/internal/hash"
	"github.com/arloliu/mdtable/internal/pool"
)

// Strings is the #Strings heap.
type Strings struct {
	store
}

// NewStrings creates a heap holding only the empty string at offset 0.
func NewStrings() *Strings {
	return &Strings{store: newStore([]byte{0})}
}

// LoadStrings creates a heap from existing #Strings stream bytes. The data is copied.
func LoadStrings(data []byte) *Strings {
	if len(data) == 0 {
		return NewStrings()
	}

	return &Strings{store: newStore(data)}
}

// Get returns the string starting at off.
//
// Offsets may point into the middle of another entry; the format allows a
// string to share the tail of a longer one.
func (s *Strings) Get(off uint32) (string, error) {
	return StringAt(s.buf.Bytes(), off)
}

// Add appends str and returns its offset. The empty string is always offset 0.
func (s *Strings) Add(str string) (uint32, error) {
	if str == "" {
		return 0, nil
	}
	if strings.IndexByte(str, 0) >= 0 {
		return 0, fmt.Errorf("%w: #Strings entry %q contains NUL", errs.ErrInvalidHeapValue, str)
	}

	s.ensureIndex(s.index)

	return s.intern(hash.ID(str),
		func(off uint32) bool {
			got, err := s.Get(off)
			return err == nil && got == str
		},
		func(buf *pool.ByteBuffer) {
			buf.MustWrite([]byte(str))
			buf.MustWrite([]byte{0})
		}), nil
}

func (s *Strings) index() {
	data := s.buf.Bytes()
	for off := 1; off < len(data); {
		end := bytes.IndexByte(data[off:], 0)
		if end < 0 {
			return
		}
		if end > 0 {
			s.tracker.Track(hash.Bytes(data[off:off+end]), uint32(off)) //nolint:gosec
		}
		off += end + 1
	}
}
