package table

import (
	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/profile"
)

// Tables is the collection of all metadata tables of one metadata instance.
//
// A Tables value is owned by a single goroutine: reading, mutating, sorting
// and encoding all assume exclusive access.
type Tables struct {
	// MajorVersion and MinorVersion are the table stream schema version.
	MajorVersion uint8
	MinorVersion uint8
	// ExtraData is the 4-byte value following the row counts when HasExtraData is set.
	ExtraData    uint32
	HasExtraData bool

	sorted uint64
	tables [format.TableCount]*Table
}

// New creates an empty collection with the default schema version.
func New() *Tables {
	ts := &Tables{
		MajorVersion: format.DefaultSchemaMajor,
		MinorVersion: format.DefaultSchemaMinor,
	}
	for _, t := range format.AllTables() {
		ts.tables[t] = newTable(t, ts)
	}

	return ts
}

// Table returns table t.
//
// Panics if t is not a defined table.
func (ts *Tables) Table(t format.TableType) *Table {
	if !t.Valid() {
		panic("table: invalid table " + t.String())
	}

	return ts.tables[t]
}

// RowCounts returns the row count of every table.
func (ts *Tables) RowCounts() [format.TableCount]uint32 {
	var rows [format.TableCount]uint32
	for i, t := range ts.tables {
		rows[i] = uint32(t.Len()) //nolint:gosec
	}

	return rows
}

// PresentMask returns the bitmask of tables holding at least one row.
func (ts *Tables) PresentMask() uint64 {
	var mask uint64
	for _, t := range ts.tables {
		if t.Len() > 0 {
			mask |= t.Type().Bit()
		}
	}

	return mask
}

// SortedMask returns the bitmask of tables whose rows are known to be in key order.
func (ts *Tables) SortedMask() uint64 {
	return ts.sorted
}

// SetSortedMask replaces the sorted bitmask, as read from a table stream header.
func (ts *Tables) SetSortedMask(mask uint64) {
	ts.sorted = mask
}

// IsSorted reports whether table t is marked sorted.
func (ts *Tables) IsSorted(t format.TableType) bool {
	return ts.sorted&t.Bit() != 0
}

// Profile computes the compression profile of the current row counts and the
// given heap sizes. Call it again after any mutation; a profile is never updated.
func (ts *Tables) Profile(heaps profile.HeapSizes) *profile.Profile {
	return profile.Compute(ts.RowCounts(), heaps)
}
