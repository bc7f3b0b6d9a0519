package heap

import (
	"bytes"
	"fmt"
	"unicode/utf16"

	"github.com/arloliu/mdtable/encoding"
	"github.com/arloliu/mdtable/endian"
	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/internal/hash"
	"github.com/arloliu/mdtable/internal/pool"
)

// MaxUserStringOffset is the largest #US offset a user string token can carry.
const MaxUserStringOffset = 0x00FFFFFF

// UserStrings is the #US heap.
type UserStrings struct {
	store
}

// NewUserStrings creates a heap holding only the empty string at offset 0.
func NewUserStrings() *UserStrings {
	return &UserStrings{store: newStore([]byte{0})}
}

// LoadUserStrings creates a heap from existing #US stream bytes. The data is copied.
func LoadUserStrings(data []byte) *UserStrings {
	if len(data) == 0 {
		return NewUserStrings()
	}

	return &UserStrings{store: newStore(data)}
}

// Get returns the string at off.
func (u *UserStrings) Get(off uint32) (string, error) {
	return UserStringAt(u.buf.Bytes(), off)
}

// Add appends str and returns its offset. The empty string is always offset 0.
//
// Returns ErrInvalidHeapValue once the heap grows past MaxUserStringOffset.
func (u *UserStrings) Add(str string) (uint32, error) {
	if str == "" {
		return 0, nil
	}

	payload := encodeUTF16(str)
	if len(payload) > encoding.MaxCompressedUint {
		return 0, fmt.Errorf("%w: user string of %d bytes", errs.ErrInvalidLength, len(payload))
	}

	u.ensureIndex(u.index)

	h := hash.Bytes(payload)
	if off, ok := u.tracker.Lookup(h, u.equalTo(payload)); ok {
		return off, nil
	}
	if u.Len() > MaxUserStringOffset {
		return 0, fmt.Errorf("%w: #US heap exceeds offset %#x", errs.ErrInvalidHeapValue, MaxUserStringOffset)
	}

	return u.intern(h, u.equalTo(payload), func(buf *pool.ByteBuffer) {
		buf.B = encoding.AppendCompressedUint(buf.B, uint32(len(payload))) //nolint:gosec
		buf.MustWrite(payload)
	}), nil
}

func (u *UserStrings) equalTo(payload []byte) func(uint32) bool {
	return func(off uint32) bool {
		got, _, err := entry(u.buf.Bytes(), off, "#US")
		return err == nil && bytes.Equal(got, payload)
	}
}

func (u *UserStrings) index() {
	data := u.buf.Bytes()
	for off := uint32(1); int(off) < len(data); {
		payload, size, err := entry(data, off, "#US")
		if err != nil {
			return
		}
		if len(payload) > 0 {
			u.tracker.Track(hash.Bytes(payload), off)
		}
		off += uint32(size) //nolint:gosec
	}
}

// encodeUTF16 returns the UTF-16LE code units of s followed by the flag byte.
func encodeUTF16(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, len(units)*2+1)
	engine := endian.GetLittleEndianEngine()

	var flag byte
	for _, c := range units {
		out = engine.AppendUint16(out, c)
		if needsFlag(c) {
			flag = 1
		}
	}

	return append(out, flag)
}

// decodeUTF16 decodes a payload of UTF-16LE code units with an optional
// trailing flag byte.
func decodeUTF16(payload []byte) string {
	n := len(payload) / 2
	if n == 0 {
		return ""
	}

	engine := endian.GetLittleEndianEngine()
	units := make([]uint16, n)
	for i := range units {
		units[i] = engine.Uint16(payload[i*2:])
	}

	return string(utf16.Decode(units))
}

// needsFlag reports whether a code unit sets the trailing flag byte: any
// non-zero high byte, or a low byte in 0x01-0x08, 0x0E-0x1F, 0x27, 0x2D, 0x7F.
func needsFlag(c uint16) bool {
	if c > 0xFF {
		return true
	}

	switch {
	case c >= 0x01 && c <= 0x08, c >= 0x0E && c <= 0x1F, c == 0x27, c == 0x2D, c == 0x7F:
		return true
	default:
		return false
	}
}
