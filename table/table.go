package table

import (
	"fmt"

	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/schema"
	"github.com/arloliu/mdtable/token"
)

// Table is the row array of one metadata table.
//
// Rows are stored as one flat slice with a stride of the column count. Every
// column value is held as uint32 whatever its encoded width; the width is only
// chosen when the table is encoded under a profile.
type Table struct {
	schema *schema.Table
	stride int
	rows   []uint32
	owner  *Tables
}

func newTable(t format.TableType, owner *Tables) *Table {
	s := schema.Of(t)

	return &Table{schema: s, stride: len(s.Columns), owner: owner}
}

// Type returns the table type.
func (t *Table) Type() format.TableType {
	return t.schema.Type
}

// Schema returns the column layout of the table.
func (t *Table) Schema() *schema.Table {
	return t.schema
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t.stride == 0 {
		return 0
	}

	return len(t.rows) / t.stride
}

// Token returns the metadata token of row rid.
func (t *Table) Token(rid uint32) token.Token {
	return token.New(t.schema.Type, rid)
}

func (t *Table) checkRID(rid uint32) error {
	if rid == 0 || int64(rid) > int64(t.Len()) {
		return fmt.Errorf("%w: %s rid %d, table has %d rows", errs.ErrRIDOutOfRange, t.schema.Type, rid, t.Len())
	}

	return nil
}

func (t *Table) checkColumn(col int) error {
	if col < 0 || col >= t.stride {
		return fmt.Errorf("%w: %s has %d columns, got %d", errs.ErrColumnOutOfRange, t.schema.Type, t.stride, col)
	}

	return nil
}

func (t *Table) checkValue(col int, v uint32) error {
	c := t.schema.Columns[col]
	if n := c.FixedSize(); n == 2 && v > 0xFFFF {
		return fmt.Errorf("%w: %s.%s is 2 bytes, got %#x", errs.ErrValueOverflow, t.schema.Type, c.Name, v)
	}

	return nil
}

// Value returns column col of row rid.
func (t *Table) Value(rid uint32, col int) (uint32, error) {
	if err := t.checkRID(rid); err != nil {
		return 0, err
	}
	if err := t.checkColumn(col); err != nil {
		return 0, err
	}

	return t.value(rid, col), nil
}

// SetValue sets column col of row rid.
//
// Values of fixed 2-byte columns must fit in 16 bits. Index, coded and heap
// columns accept any value; the profile decides at encode time whether it fits.
func (t *Table) SetValue(rid uint32, col int, v uint32) error {
	if err := t.checkRID(rid); err != nil {
		return err
	}
	if err := t.checkColumn(col); err != nil {
		return err
	}
	if err := t.checkValue(col, v); err != nil {
		return err
	}

	t.setValue(rid, col, v)
	t.touch()

	return nil
}

// Row returns a copy of row rid.
func (t *Table) Row(rid uint32) ([]uint32, error) {
	if err := t.checkRID(rid); err != nil {
		return nil, err
	}

	return append([]uint32(nil), t.row(rid)...), nil
}

// SetRow replaces every column of row rid.
func (t *Table) SetRow(rid uint32, values []uint32) error {
	if err := t.checkRID(rid); err != nil {
		return err
	}
	if err := t.checkRow(values); err != nil {
		return err
	}

	copy(t.row(rid), values)
	t.touch()

	return nil
}

// Append adds a row and returns its rid.
func (t *Table) Append(values ...uint32) (uint32, error) {
	if err := t.checkRow(values); err != nil {
		return 0, err
	}
	if t.Len() >= token.MaxRID {
		return 0, fmt.Errorf("%w: %s is full", errs.ErrRIDOutOfRange, t.schema.Type)
	}

	t.rows = append(t.rows, values...)
	t.touch()

	return uint32(t.Len()), nil //nolint:gosec
}

// Remove deletes row rid and shifts the following rows down by one.
//
// References to the shifted rows held by other tables are not adjusted.
func (t *Table) Remove(rid uint32) error {
	if err := t.checkRID(rid); err != nil {
		return err
	}

	start := int(rid-1) * t.stride
	t.rows = append(t.rows[:start], t.rows[start+t.stride:]...)
	t.touch()

	return nil
}

// Reset removes all rows.
func (t *Table) Reset() {
	t.rows = t.rows[:0]
	t.touch()
}

func (t *Table) checkRow(values []uint32) error {
	if len(values) != t.stride {
		return fmt.Errorf("%w: %s has %d columns, got %d values", errs.ErrInvalidLength, t.schema.Type, t.stride, len(values))
	}
	for col, v := range values {
		if err := t.checkValue(col, v); err != nil {
			return err
		}
	}

	return nil
}

// touch clears the sorted bit of a sortable table after a mutation.
func (t *Table) touch() {
	if t.owner != nil && t.schema.Sortable() {
		t.owner.sorted &^= t.schema.Type.Bit()
	}
}

func (t *Table) row(rid uint32) []uint32 {
	start := int(rid-1) * t.stride
	return t.rows[start : start+t.stride]
}

func (t *Table) value(rid uint32, col int) uint32 {
	return t.rows[int(rid-1)*t.stride+col]
}

func (t *Table) setValue(rid uint32, col int, v uint32) {
	t.rows[int(rid-1)*t.stride+col] = v
}
