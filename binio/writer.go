package binio

import (
	"fmt"

	"github.com/arloliu/mdtable/endian"
	"github.com/arloliu/mdtable/internal/pool"
)

// Writer writes little-endian values into a ByteBuffer at a movable position.
//
// Writing before the end of the buffer overwrites; writing at or past the end
// extends the buffer, zero-filling any gap.
type Writer struct {
	buf    *pool.ByteBuffer
	pos    int
	engine endian.EndianEngine
}

// NewWriter creates a writer positioned at the end of buf.
func NewWriter(buf *pool.ByteBuffer) *Writer {
	return &Writer{buf: buf, pos: buf.Len(), engine: endian.GetLittleEndianEngine()}
}

// Position returns the absolute write position.
func (w *Writer) Position() int {
	return w.pos
}

// SetPosition moves the write position. Positions past the end are allowed;
// the gap is zero-filled by the next write.
//
// Panics if pos is negative.
func (w *Writer) SetPosition(pos int) {
	if pos < 0 {
		panic(fmt.Sprintf("binio: negative position %d", pos))
	}
	w.pos = pos
}

// Len returns the length of the written data.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Bytes returns the written data. It aliases the buffer.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// reserve returns the n bytes at the write position and advances past them.
func (w *Writer) reserve(n int) []byte {
	if end := w.pos + n; end > w.buf.Len() {
		w.buf.ExtendOrGrow(end - w.buf.Len())
	}
	b := w.buf.B[w.pos : w.pos+n]
	w.pos += n

	return b
}

// WriteUint8 writes one byte.
func (w *Writer) WriteUint8(v uint8) {
	w.reserve(1)[0] = v
}

// WriteUint16 writes a little-endian uint16.
func (w *Writer) WriteUint16(v uint16) {
	w.engine.PutUint16(w.reserve(2), v)
}

// WriteUint32 writes a little-endian uint32.
func (w *Writer) WriteUint32(v uint32) {
	w.engine.PutUint32(w.reserve(4), v)
}

// WriteUint64 writes a little-endian uint64.
func (w *Writer) WriteUint64(v uint64) {
	w.engine.PutUint64(w.reserve(8), v)
}

// WriteUint writes v as a little-endian integer of width 1, 2 or 4 bytes,
// truncating it to the width.
func (w *Writer) WriteUint(width int, v uint32) {
	endian.PutUint(w.reserve(width), width, v)
}

// WriteBytes writes b verbatim.
func (w *Writer) WriteBytes(b []byte) {
	copy(w.reserve(len(b)), b)
}

// WriteCString writes s followed by a NUL terminator.
func (w *Writer) WriteCString(s string) {
	b := w.reserve(len(s) + 1)
	copy(b, s)
	b[len(s)] = 0
}

// WriteZeros writes n zero bytes.
func (w *Writer) WriteZeros(n int) {
	clear(w.reserve(n))
}

// Align writes zero bytes up to the next multiple of n.
func (w *Writer) Align(n int) {
	w.WriteZeros(Padding(w.pos, n))
}

// PutUint32At overwrites 4 bytes at pos without moving the write position.
//
// Panics if pos+4 exceeds the written length.
func (w *Writer) PutUint32At(pos int, v uint32) {
	w.engine.PutUint32(w.buf.B[pos:pos+4], v)
}
