package section

import (
	"fmt"
	"math/bits"

	"github.com/arloliu/mdtable/binio"
	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/internal/pool"
)

// TableStreamFixedSize is the size of the table stream header before the row counts.
const TableStreamFixedSize = 24

// validMask covers the bits of the tables the schema defines.
const validMask = uint64(1)<<format.TableCount - 1

// TableStreamHeader is the header of a "#~" or "#-" stream.
type TableStreamHeader struct {
	Reserved     uint32
	MajorVersion uint8
	MinorVersion uint8
	HeapFlags    uint8
	// Reserved2 is written as 1 by the common producers.
	Reserved2 uint8
	Valid     uint64
	Sorted    uint64
	// RowCounts holds one count per table; only tables with a Valid bit are encoded.
	RowCounts [format.TableCount]uint32
	// ExtraData follows the row counts when HeapFlags has HeapFlagExtraData.
	ExtraData uint32
}

// NewTableStreamHeader creates a header for the given row counts. The Valid
// mask marks every table with at least one row.
func NewTableStreamHeader(rows [format.TableCount]uint32) *TableStreamHeader {
	h := &TableStreamHeader{
		MajorVersion: format.DefaultSchemaMajor,
		MinorVersion: format.DefaultSchemaMinor,
		Reserved2:    1,
		RowCounts:    rows,
	}
	for t, n := range rows {
		if n > 0 {
			h.Valid |= format.TableType(t).Bit() //nolint:gosec
		}
	}

	return h
}

// HasExtraData reports whether the extra data field is present.
func (h *TableStreamHeader) HasExtraData() bool {
	return h.HeapFlags&format.HeapFlagExtraData != 0
}

// Size returns the encoded size of the header.
func (h *TableStreamHeader) Size() int {
	size := TableStreamFixedSize + 4*bits.OnesCount64(h.Valid)
	if h.HasExtraData() {
		size += 4
	}

	return size
}

// Write serializes the header at the writer's position.
func (h *TableStreamHeader) Write(w *binio.Writer) {
	w.WriteUint32(h.Reserved)
	w.WriteUint8(h.MajorVersion)
	w.WriteUint8(h.MinorVersion)
	w.WriteUint8(h.HeapFlags)
	w.WriteUint8(h.Reserved2)
	w.WriteUint64(h.Valid)
	w.WriteUint64(h.Sorted)
	for _, t := range format.AllTables() {
		if h.Valid&t.Bit() != 0 {
			w.WriteUint32(h.RowCounts[t])
		}
	}
	if h.HasExtraData() {
		w.WriteUint32(h.ExtraData)
	}
}

// Bytes serializes the header into a new byte slice.
func (h *TableStreamHeader) Bytes() []byte {
	buf := pool.NewByteBuffer(h.Size())
	h.Write(binio.NewWriter(buf))

	return buf.Bytes()
}

// ParseTableStreamHeader parses a table stream header at the start of data.
//
// Parameters:
//   - data: The table stream contents
//
// Returns:
//   - *TableStreamHeader: Parsed header; RowCounts is zero for absent tables
//   - int: Number of bytes the header occupies, the offset of the first row
//   - error: ErrTruncated, or ErrUnknownTable when Valid has a bit beyond the
//     defined tables
func ParseTableStreamHeader(data []byte) (*TableStreamHeader, int, error) {
	r := binio.NewReader(data)
	if r.Len() < TableStreamFixedSize {
		return nil, 0, fmt.Errorf("%w: table stream header needs %d bytes, have %d",
			errs.ErrTruncated, TableStreamFixedSize, r.Len())
	}

	h := &TableStreamHeader{}
	h.Reserved, _ = r.ReadUint32()
	h.MajorVersion, _ = r.ReadUint8()
	h.MinorVersion, _ = r.ReadUint8()
	h.HeapFlags, _ = r.ReadUint8()
	h.Reserved2, _ = r.ReadUint8()
	h.Valid, _ = r.ReadUint64()
	h.Sorted, _ = r.ReadUint64()

	if extra := h.Valid &^ validMask; extra != 0 {
		return nil, 0, fmt.Errorf("%w: valid mask %#016x has bit %d set",
			errs.ErrUnknownTable, h.Valid, bits.TrailingZeros64(extra))
	}

	var err error
	for _, t := range format.AllTables() {
		if h.Valid&t.Bit() == 0 {
			continue
		}
		if h.RowCounts[t], err = r.ReadUint32(); err != nil {
			return nil, 0, fmt.Errorf("row count of %s: %w", t, err)
		}
	}

	if h.HasExtraData() {
		if h.ExtraData, err = r.ReadUint32(); err != nil {
			return nil, 0, fmt.Errorf("table stream extra data: %w", err)
		}
	}

	return h, r.Position(), nil
}
