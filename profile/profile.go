// Package profile computes the compression profile of a table stream.
//
// The byte width of every table-index, coded-token and heap-offset column is
// not fixed by the format: it is derived from the row counts of all tables and
// the sizes of the heaps. A Profile captures those decisions together with the
// resulting row sizes, column offsets and table offsets.
//
// A Profile is immutable. It is computed once for a read or a write pass and
// passed explicitly to every call of that pass; mixing profiles within a pass
// corrupts offsets without any runtime error, so the codec never keeps one as
// ambient state.
//
// Width rules:
//
//   - index column: 4 bytes iff the target table has >= 2^16 rows
//   - heap column: 4 bytes iff the heap is >= 2^16 bytes (or its flag is set on read)
//   - coded column of kind k: 4 bytes iff max(rows over k's candidates) >= 2^(16 - tagBits(k))
package profile

import (
	"fmt"

	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/schema"
	"github.com/arloliu/mdtable/token"
)

// HeapSizes holds the byte length of each heap, indexed by format.HeapKind.
type HeapSizes [format.HeapCount]uint32

// Profile is the immutable set of width decisions for one read or write pass.
type Profile struct {
	rows       [format.TableCount]uint32
	wideHeap   [format.HeapCount]bool
	wideIndex  [format.TableCount]bool
	wideCoded  [token.CodedKindCount]bool
	colSizes   [format.TableCount][]int
	colOffsets [format.TableCount][]int
	rowSizes   [format.TableCount]int
	tableOffs  [format.TableCount]int64
	total      int64
}

// Compute derives a profile from row counts and heap byte lengths.
//
// Use it on the write side with the final row counts and heap sizes.
func Compute(rows [format.TableCount]uint32, heaps HeapSizes) *Profile {
	p := &Profile{rows: rows}
	for h, size := range heaps {
		p.wideHeap[h] = size >= format.WideThreshold
	}
	p.finish()

	return p
}

// FromHeapFlags derives a profile from row counts and the heap-size flags byte
// of a table stream header.
//
// Use it on the read side: the flags written by the producer are authoritative
// for heap widths, whatever the heap lengths are.
func FromHeapFlags(rows [format.TableCount]uint32, flags uint8) *Profile {
	p := &Profile{rows: rows}
	p.wideHeap[format.HeapStrings] = flags&format.HeapFlagWideStrings != 0
	p.wideHeap[format.HeapGUID] = flags&format.HeapFlagWideGUID != 0
	p.wideHeap[format.HeapBlob] = flags&format.HeapFlagWideBlob != 0
	p.finish()

	return p
}

func (p *Profile) finish() {
	for t := range p.rows {
		p.wideIndex[t] = p.rows[t] >= format.WideThreshold
	}

	for _, k := range token.AllCodedKinds() {
		var maxRows uint32
		for _, t := range k.Tables() {
			if t.Valid() && p.rows[t] > maxRows {
				maxRows = p.rows[t]
			}
		}
		p.wideCoded[k] = uint64(maxRows) >= uint64(1)<<(16-k.TagBits())
	}

	var offset int64
	for _, t := range format.AllTables() {
		cols := schema.Of(t).Columns
		sizes := make([]int, len(cols))
		offs := make([]int, len(cols))
		rowSize := 0
		for i, c := range cols {
			sizes[i] = p.columnSize(c)
			offs[i] = rowSize
			rowSize += sizes[i]
		}
		p.colSizes[t] = sizes
		p.colOffsets[t] = offs
		p.rowSizes[t] = rowSize
		p.tableOffs[t] = offset
		offset += int64(rowSize) * int64(p.rows[t])
	}
	p.total = offset
}

func (p *Profile) columnSize(c schema.Column) int {
	if n := c.FixedSize(); n > 0 {
		return n
	}

	var wide bool
	switch c.Kind {
	case schema.KindIndex:
		wide = p.wideIndex[c.Target]
	case schema.KindCoded:
		wide = p.wideCoded[c.Coded]
	default:
		h, _ := c.Heap()
		wide = p.wideHeap[h]
	}

	if wide {
		return 4
	}

	return 2
}

// RowCount returns the row count the profile was computed from.
func (p *Profile) RowCount(t format.TableType) uint32 {
	return p.rows[t]
}

// RowCounts returns all row counts the profile was computed from.
func (p *Profile) RowCounts() [format.TableCount]uint32 {
	return p.rows
}

// IndexIsWide reports whether plain index columns into t are 4 bytes.
func (p *Profile) IndexIsWide(t format.TableType) bool {
	return p.wideIndex[t]
}

// CodedIsWide reports whether coded token columns of kind k are 4 bytes.
func (p *Profile) CodedIsWide(k token.CodedKind) bool {
	return p.wideCoded[k]
}

// HeapIsWide reports whether offsets into heap h are 4 bytes.
func (p *Profile) HeapIsWide(h format.HeapKind) bool {
	return p.wideHeap[h]
}

// HeapFlags returns the heap-size flags byte for a table stream header.
func (p *Profile) HeapFlags() uint8 {
	var flags uint8
	if p.wideHeap[format.HeapStrings] {
		flags |= format.HeapFlagWideStrings
	}
	if p.wideHeap[format.HeapGUID] {
		flags |= format.HeapFlagWideGUID
	}
	if p.wideHeap[format.HeapBlob] {
		flags |= format.HeapFlagWideBlob
	}

	return flags
}

// ColumnSize returns the byte width of column col of table t.
//
// Panics if col is out of range; use CheckColumn for caller-supplied indexes.
func (p *Profile) ColumnSize(t format.TableType, col int) int {
	return p.colSizes[t][col]
}

// ColumnSizes returns the widths of all columns of t. The slice must not be modified.
func (p *Profile) ColumnSizes(t format.TableType) []int {
	return p.colSizes[t]
}

// ColumnOffset returns the byte offset of column col within a row of t.
func (p *Profile) ColumnOffset(t format.TableType, col int) int {
	return p.colOffsets[t][col]
}

// RowSize returns the byte size of one row of t.
func (p *Profile) RowSize(t format.TableType) int {
	return p.rowSizes[t]
}

// TableSize returns the byte size of all rows of t.
func (p *Profile) TableSize(t format.TableType) int64 {
	return int64(p.rowSizes[t]) * int64(p.rows[t])
}

// TableOffset returns the offset of t's first row relative to the start of
// the table data: the running sum of the sizes of all preceding tables.
func (p *Profile) TableOffset(t format.TableType) int64 {
	return p.tableOffs[t]
}

// TotalSize returns the byte size of all table data.
func (p *Profile) TotalSize() int64 {
	return p.total
}

// CheckColumn validates a caller-supplied table/column pair.
func (p *Profile) CheckColumn(t format.TableType, col int) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %s", errs.ErrInvalidTable, t)
	}
	if col < 0 || col >= len(p.colSizes[t]) {
		return fmt.Errorf("%w: %s has %d columns, got %d", errs.ErrColumnOutOfRange, t, len(p.colSizes[t]), col)
	}

	return nil
}

// RowOffset returns the offset of (t, rid, col) relative to the start of the
// table data, computed without touching any row.
//
// Returns:
//   - int64: TableOffset(t) + RowSize(t)*(rid-1) + ColumnOffset(t, col)
//   - error: ErrRIDOutOfRange if rid is not in [1, RowCount(t)], ErrColumnOutOfRange
//     if col is not a column of t
func (p *Profile) RowOffset(t format.TableType, rid uint32, col int) (int64, error) {
	if err := p.CheckColumn(t, col); err != nil {
		return 0, err
	}
	if rid == 0 || rid > p.rows[t] {
		return 0, fmt.Errorf("%w: %s rid %d, table has %d rows", errs.ErrRIDOutOfRange, t, rid, p.rows[t])
	}

	return p.tableOffs[t] + int64(p.rowSizes[t])*int64(rid-1) + int64(p.colOffsets[t][col]), nil
}
