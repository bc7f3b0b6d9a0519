package table

import (
	"fmt"

	"github.com/arloliu/mdtable/binio"
	"github.com/arloliu/mdtable/endian"
	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/profile"
)

// Decode reads the rows of every table from r under profile p.
//
// Tables are read in canonical order, each present table's rows back to back
// with no padding. Row counts come from p, which the caller computes from the
// table stream header. A table with 0 rows occupies no bytes.
//
// Parameters:
//   - r: Reader positioned at the first row of the first present table
//   - p: Profile computed from the header's row counts and heap flags
//
// Returns:
//   - *Tables: The decoded tables; schema version, sorted mask and extra data
//     are left for the caller to fill from the header
//   - error: ErrTruncated naming the table and row when the data ends early
func Decode(r *binio.Reader, p *profile.Profile) (*Tables, error) {
	ts := New()

	for _, t := range format.AllTables() {
		count := p.RowCount(t)
		if count == 0 {
			continue
		}

		rowSize := p.RowSize(t)
		size := p.TableSize(t)
		if int64(r.Remaining()) < size {
			return nil, fmt.Errorf("%w: table %s row %d of %d at offset %#x: need %d bytes, have %d",
				errs.ErrTruncated, t, int64(r.Remaining())/int64(rowSize)+1, count, r.Position(), size, r.Remaining())
		}

		data, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", t, err)
		}

		tbl := ts.tables[t]
		sizes := p.ColumnSizes(t)
		tbl.rows = make([]uint32, 0, int(count)*tbl.stride)
		for off := 0; off < len(data); {
			for _, w := range sizes {
				tbl.rows = append(tbl.rows, endian.Uint(data[off:], w))
				off += w
			}
		}
	}

	return ts, nil
}

// Encode writes the rows of every table to w under profile p.
//
// The same profile must cover every table: it is computed once from the final
// row counts and heap sizes. A profile whose row counts differ from the tables'
// is rejected with ErrProfileMismatch, and a value that does not fit its
// column width fails with ErrValueOverflow naming the table, row and column.
func (ts *Tables) Encode(w *binio.Writer, p *profile.Profile) error {
	if rows := ts.RowCounts(); rows != p.RowCounts() {
		return fmt.Errorf("%w: profile computed for different row counts", errs.ErrProfileMismatch)
	}

	for _, tbl := range ts.tables {
		n := tbl.Len()
		if n == 0 {
			continue
		}

		t := tbl.Type()
		sizes := p.ColumnSizes(t)
		for i := range n {
			row := tbl.rows[i*tbl.stride : (i+1)*tbl.stride]
			for col, v := range row {
				if !endian.Fits(v, sizes[col]) {
					return fmt.Errorf("%w: %s row %d column %s: %#x in %d bytes",
						errs.ErrValueOverflow, t, i+1, tbl.schema.Columns[col].Name, v, sizes[col])
				}
				w.WriteUint(sizes[col], v)
			}
		}
	}

	return nil
}
