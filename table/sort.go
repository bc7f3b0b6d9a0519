package table

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/internal/pool"
	"github.com/arloliu/mdtable/schema"
	"github.com/arloliu/mdtable/token"
)

// Sort orders the rows of a sortable table by its key columns and rewrites
// every reference to the moved rows.
//
// Rows are compared by their raw key column values in schema order, then by
// their original position, so rows with equal keys keep their relative order
// whatever the underlying sort routine does.
//
// The returned map is indexed by old rid - 1 and holds the new rid. It is nil
// when the table is empty or already in order; the table is marked sorted in
// every case.
//
// References are rewritten in every index column targeting t and in every
// coded column whose kind includes t. A rewritten value in the key column of
// another sortable table clears that table's sorted bit; SortAll orders its
// passes so that never happens.
func (ts *Tables) Sort(t format.TableType) ([]uint32, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidTable, t)
	}
	sch := schema.Of(t)
	if !sch.Sortable() {
		return nil, fmt.Errorf("%w: %s", errs.ErrNotSortable, t)
	}

	tbl := ts.tables[t]
	n := tbl.Len()
	if n == 0 {
		ts.sorted |= t.Bit()
		return nil, nil
	}

	order, release := pool.GetIntSlice(n)
	defer release()
	for i := range order {
		order[i] = i
	}

	stride := tbl.stride
	slices.SortFunc(order, func(a, b int) int {
		ra := tbl.rows[a*stride : (a+1)*stride]
		rb := tbl.rows[b*stride : (b+1)*stride]
		for _, k := range sch.SortKeys {
			if c := cmp.Compare(ra[k], rb[k]); c != 0 {
				return c
			}
		}

		return cmp.Compare(a, b)
	})

	if isIdentity(order) {
		ts.sorted |= t.Bit()
		return nil, nil
	}

	remap := ts.permute(tbl, order)
	ts.propagate(t, remap, false)
	ts.sorted |= t.Bit()

	return remap, nil
}

// SortAll sorts every sortable table in dependency order: a table is sorted
// after every sortable table its key columns can reference, so CustomAttribute
// comes last.
//
// Returns the remap of each table whose rows moved.
func (ts *Tables) SortAll() (map[format.TableType][]uint32, error) {
	remaps := make(map[format.TableType][]uint32)
	for _, t := range schema.SortOrder() {
		remap, err := ts.Sort(t)
		if err != nil {
			return nil, err
		}
		if remap != nil {
			remaps[t] = remap
		}
	}

	return remaps, nil
}

// permute moves row order[i] of tbl to position i and returns the
// old rid - 1 -> new rid map.
func (ts *Tables) permute(tbl *Table, order []int) []uint32 {
	stride := tbl.stride
	scratch, release := pool.GetUint32Slice(len(tbl.rows))
	defer release()

	remap := make([]uint32, len(order))
	for newIdx, oldIdx := range order {
		copy(scratch[newIdx*stride:(newIdx+1)*stride], tbl.rows[oldIdx*stride:(oldIdx+1)*stride])
		remap[oldIdx] = uint32(newIdx + 1) //nolint:gosec
	}
	copy(tbl.rows, scratch)

	return remap
}

// propagate rewrites every reference to target through remap. List columns
// are skipped when skipLists is set.
func (ts *Tables) propagate(target format.TableType, remap []uint32, skipLists bool) {
	for _, ref := range schema.Referrers(target) {
		tbl := ts.tables[ref.Table]
		col := tbl.schema.Columns[ref.Column]
		if skipLists && col.List {
			continue
		}

		changed := false
		for i := range tbl.Len() {
			idx := i*tbl.stride + ref.Column
			v := tbl.rows[idx]
			nv, ok := remapValue(col, target, v, remap)
			if ok && nv != v {
				tbl.rows[idx] = nv
				changed = true
			}
		}

		if changed && slices.Contains(tbl.schema.SortKeys, ref.Column) {
			ts.sorted &^= ref.Table.Bit()
		}
	}
}

// remapValue maps one column value. Null and dangling references are left alone.
func remapValue(col schema.Column, target format.TableType, v uint32, remap []uint32) (uint32, bool) {
	switch col.Kind {
	case schema.KindIndex:
		if v == 0 || int64(v) > int64(len(remap)) {
			return v, false
		}

		return remap[v-1], true
	case schema.KindCoded:
		tok := col.Coded.Decode(v)
		if tok.IsNull() || tok.Table() != target || int64(tok.RID()) > int64(len(remap)) {
			return v, false
		}
		nv, err := col.Coded.Encode(token.New(target, remap[tok.RID()-1]))
		if err != nil {
			return v, false
		}

		return nv, true
	default:
		return v, false
	}
}

func isIdentity(order []int) bool {
	for i, v := range order {
		if i != v {
			return false
		}
	}

	return true
}
