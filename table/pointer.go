package table

import (
	"fmt"

	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/schema"
)

// Optimize removes the pointer table of t by moving t's physical rows into
// pointer order.
//
// Row i of the result is the row the pointer table listed at position i; rows
// no pointer references follow in their original relative order. List columns
// (TypeDef.FieldList and friends) already address logical positions and keep
// their values. Every other reference to t is rewritten through the returned
// old rid - 1 -> new rid map.
//
// Returns nil when the pointer table is empty or already the identity, after
// emptying it. A pointer value outside [1, Len(t)] fails with ErrRIDOutOfRange
// and a repeated one with ErrInvalidFormat; the tables are unchanged on error.
func (ts *Tables) Optimize(t format.TableType) ([]uint32, error) {
	ptrType, err := pointerOf(t)
	if err != nil {
		return nil, err
	}

	tbl := ts.tables[t]
	ptr := ts.tables[ptrType]
	if ptr.Len() == 0 {
		return nil, nil
	}

	n := tbl.Len()
	order := make([]int, 0, n)
	seen := make([]bool, n)
	for i := range ptr.Len() {
		v := ptr.rows[i]
		if v == 0 || int64(v) > int64(n) {
			return nil, fmt.Errorf("%w: %s row %d points at %s rid %d, table has %d rows",
				errs.ErrRIDOutOfRange, ptrType, i+1, t, v, n)
		}
		if seen[v-1] {
			return nil, fmt.Errorf("%w: %s row %d repeats %s rid %d", errs.ErrInvalidFormat, ptrType, i+1, t, v)
		}
		seen[v-1] = true
		order = append(order, int(v-1))
	}
	for i, used := range seen {
		if !used {
			order = append(order, i)
		}
	}

	ptr.Reset()
	if isIdentity(order) {
		return nil, nil
	}

	remap := ts.permute(tbl, order)
	ts.propagate(t, remap, true)

	return remap, nil
}

// Deoptimize rebuilds the pointer table of t as the identity [1..Len(t)].
func (ts *Tables) Deoptimize(t format.TableType) error {
	ptrType, err := pointerOf(t)
	if err != nil {
		return err
	}

	ts.deoptimize(t, ptrType)

	return nil
}

func (ts *Tables) deoptimize(t, ptrType format.TableType) {
	ptr := ts.tables[ptrType]
	ptr.Reset()
	for rid := range ts.tables[t].Len() {
		ptr.rows = append(ptr.rows, uint32(rid+1)) //nolint:gosec
	}
}

// OptimizeAll optimizes every table that has a pointer table and returns the
// remaps of the tables whose rows moved.
func (ts *Tables) OptimizeAll() (map[format.TableType][]uint32, error) {
	remaps := make(map[format.TableType][]uint32)
	for _, t := range schema.PointerTables() {
		remap, err := ts.Optimize(t)
		if err != nil {
			return nil, err
		}
		if remap != nil {
			remaps[t] = remap
		}
	}

	return remaps, nil
}

// DeoptimizeAll rebuilds every pointer table as the identity.
func (ts *Tables) DeoptimizeAll() {
	for _, t := range schema.PointerTables() {
		ts.deoptimize(t, schema.Of(t).Pointer)
	}
}

// HasPointerTables reports whether any pointer table holds rows, which makes
// the tables an unoptimized ("#-") stream.
func (ts *Tables) HasPointerTables() bool {
	for _, t := range schema.PointerTables() {
		if ts.tables[schema.Of(t).Pointer].Len() > 0 {
			return true
		}
	}

	return false
}

func pointerOf(t format.TableType) (format.TableType, error) {
	if !t.Valid() {
		return format.TableNone, fmt.Errorf("%w: %s", errs.ErrInvalidTable, t)
	}
	sch := schema.Of(t)
	if !sch.HasPointer() {
		return format.TableNone, fmt.Errorf("%w: %s", errs.ErrNoPointerTable, t)
	}

	return sch.Pointer, nil
}
