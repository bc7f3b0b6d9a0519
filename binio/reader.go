package binio

import (
	"bytes"
	"fmt"

	"github.com/arloliu/mdtable/endian"
	"github.com/arloliu/mdtable/errs"
)

// Reader reads little-endian values from a byte slice.
type Reader struct {
	data   []byte
	pos    int
	engine endian.EndianEngine
}

// NewReader creates a reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data, engine: endian.GetLittleEndianEngine()}
}

// Len returns the length of the underlying data.
func (r *Reader) Len() int {
	return len(r.data)
}

// Position returns the absolute read position.
func (r *Reader) Position() int {
	return r.pos
}

// Remaining returns the number of bytes after the read position.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// SetPosition moves the read position. Moving to Len() is allowed.
func (r *Reader) SetPosition(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return fmt.Errorf("%w: position %d outside %d bytes", errs.ErrTruncated, pos, len(r.data))
	}
	r.pos = pos

	return nil
}

// Skip advances the read position by n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", errs.ErrTruncated, n, r.pos, len(r.data)-r.pos)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n

	return b, nil
}

// ReadUint8 reads one byte.
func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

// ReadUint16 reads a little-endian uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}

	return r.engine.Uint16(b), nil
}

// ReadUint32 reads a little-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}

	return r.engine.Uint32(b), nil
}

// ReadUint64 reads a little-endian uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}

	return r.engine.Uint64(b), nil
}

// ReadUint reads a little-endian integer of width 1, 2 or 4 bytes.
func (r *Reader) ReadUint(width int) (uint32, error) {
	b, err := r.take(width)
	if err != nil {
		return 0, err
	}

	return endian.Uint(b, width), nil
}

// ReadBytes returns the next n bytes. The result aliases the underlying data.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	return r.take(n)
}

// ReadCString reads a NUL-terminated string and consumes the terminator.
func (r *Reader) ReadCString() (string, error) {
	end := bytes.IndexByte(r.data[r.pos:], 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated string at offset %d", errs.ErrTruncated, r.pos)
	}
	s := string(r.data[r.pos : r.pos+end])
	r.pos += end + 1

	return s, nil
}

// ReadPaddedString reads a field of n bytes holding a NUL-padded string.
func (r *Reader) ReadPaddedString(n int) (string, error) {
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	return string(b), nil
}

// Align advances the read position to the next multiple of n.
func (r *Reader) Align(n int) error {
	return r.Skip(Padding(r.pos, n))
}

// Padding returns the number of bytes needed to move pos to a multiple of n.
func Padding(pos, n int) int {
	if rem := pos % n; rem != 0 {
		return n - rem
	}

	return 0
}

// AlignUp rounds pos up to a multiple of n.
func AlignUp(pos, n int) int {
	return pos + Padding(pos, n)
}
