package stream

import (
	"fmt"

	"github.com/arloliu/mdtable/endian"
	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/schema"
)

// Fixup is a deferred 4-byte column recorded by Builder.Build.
type Fixup struct {
	Table  format.TableType
	RID    uint32
	Column int
	// Key is the caller's identifier passed to Builder.Defer.
	Key uint64
	// Offset is the absolute position of the field in the image.
	Offset int
}

func (f Fixup) String() string {
	col := fmt.Sprint(f.Column)
	if f.Table.Valid() && f.Column >= 0 && f.Column < len(schema.Of(f.Table).Columns) {
		col = schema.Of(f.Table).Columns[f.Column].Name
	}

	return fmt.Sprintf("%s row %d column %s (key %#x at %#x)", f.Table, f.RID, col, f.Key, f.Offset)
}

// Image is a serialized metadata image awaiting its fixups.
//
// Bytes fails with errs.ErrFixupsPending until Apply or ApplyMap succeeded.
// An image without fixups is complete as soon as it is built.
type Image struct {
	data    []byte
	fixups  []Fixup
	applied bool
}

// Len returns the image size in bytes.
func (img *Image) Len() int {
	return len(img.data)
}

// Fixups returns a copy of the recorded fixups in registration order.
func (img *Image) Fixups() []Fixup {
	return append([]Fixup(nil), img.fixups...)
}

// Pending reports whether the image still has unapplied fixups.
func (img *Image) Pending() bool {
	return len(img.fixups) > 0 && !img.applied
}

// Apply resolves every fixup through resolve and patches the image.
//
// All values are resolved before the first byte is written, so a resolve
// error leaves the image untouched and still pending.
func (img *Image) Apply(resolve func(Fixup) (uint32, error)) error {
	values := make(map[uint64]uint32, len(img.fixups))
	for _, f := range img.fixups {
		v, err := resolve(f)
		if err != nil {
			return fmt.Errorf("fixup %s: %w", f, err)
		}
		values[f.Key] = v
	}

	return img.ApplyMap(values)
}

// ApplyMap patches the image with values looked up by fixup key.
func (img *Image) ApplyMap(resolved map[uint64]uint32) error {
	if err := ApplyFixups(img.data, img.fixups, resolved); err != nil {
		return err
	}
	img.applied = true

	return nil
}

// Bytes returns the finished image.
//
// Returns:
//   - []byte: The image, owned by the Image
//   - error: errs.ErrFixupsPending if fixups were recorded and not yet applied
func (img *Image) Bytes() ([]byte, error) {
	if img.Pending() {
		return nil, fmt.Errorf("%w: %d fixups", errs.ErrFixupsPending, len(img.fixups))
	}

	return img.data, nil
}

// RawBytes returns the image whether or not its fixups were applied.
//
// Before fixups are applied every deferred column reads as zero. Writing the
// raw image out produces structurally valid metadata whose deferred addresses
// all point at 0.
func (img *Image) RawBytes() []byte {
	return img.data
}

// ApplyFixups writes the resolved value of every fixup into data, the image
// the fixups were recorded for.
//
// Every key is checked before data is modified.
//
// Returns:
//   - error: errs.ErrUnresolvedFixup if a key has no value, errs.ErrInvalidLength
//     if a fixup lies outside data
func ApplyFixups(data []byte, fixups []Fixup, resolved map[uint64]uint32) error {
	for _, f := range fixups {
		if _, ok := resolved[f.Key]; !ok {
			return fmt.Errorf("%w: %s", errs.ErrUnresolvedFixup, f)
		}
		if f.Offset < 0 || f.Offset+4 > len(data) {
			return fmt.Errorf("%w: %s outside image of %d bytes", errs.ErrInvalidLength, f, len(data))
		}
	}

	for _, f := range fixups {
		endian.PutUint(data[f.Offset:], 4, resolved[f.Key])
	}

	return nil
}
