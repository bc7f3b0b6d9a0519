// Package access reads individual table cells straight from a metadata image
// without decoding whole tables.
//
// Only the metadata root and the table stream header are parsed. The offset
// of any cell is then pure arithmetic over the compression profile:
//
//	table data start + TableOffset(t) + RowSize(t)*(rid-1) + ColumnOffset(t, col)
//
// A Reader never writes to its data. Any number of goroutines may read
// through the same Reader as long as the underlying bytes are not modified;
// a read-only memory mapping from OpenFile satisfies that.
package access

import (
	"fmt"
	"os"

	"github.com/arloliu/mdtable/endian"
	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/heap"
	"github.com/arloliu/mdtable/profile"
	"github.com/arloliu/mdtable/schema"
	"github.com/arloliu/mdtable/section"
	"github.com/arloliu/mdtable/token"
	"github.com/edsrzf/mmap-go"
	"github.com/google/uuid"
)

// Reader gives random access to the cells of a metadata image.
type Reader struct {
	data      []byte
	mapped    mmap.MMap
	file      *os.File
	tableName string
	header    *section.TableStreamHeader
	profile   *profile.Profile
	dataStart int64
	heaps     [format.HeapCount][]byte
}

// New creates a reader over data, a complete metadata image. data is
// referenced, not copied.
//
// Returns:
//   - *Reader: The reader
//   - error: An error wrapping errs.ErrInvalidFormat if the root, the table
//     stream header or the extent of the table data is malformed
func New(data []byte) (*Reader, error) {
	root, _, err := section.ParseRootHeader(data)
	if err != nil {
		return nil, err
	}

	r := &Reader{data: data}
	var tableStream section.StreamHeader
	for _, sh := range root.Streams {
		if _, err := sh.Slice(data); err != nil {
			return nil, err
		}

		switch sh.Name {
		case format.StreamTablesOptimized, format.StreamTablesUnoptimized:
			if r.tableName == "" {
				r.tableName, tableStream = sh.Name, sh
			}
		case format.StreamStrings:
			r.setHeap(format.HeapStrings, sh)
		case format.StreamUserStrings:
			r.setHeap(format.HeapUserStrings, sh)
		case format.StreamGUID:
			r.setHeap(format.HeapGUID, sh)
		case format.StreamBlob:
			r.setHeap(format.HeapBlob, sh)
		}
	}
	if r.tableName == "" {
		return nil, fmt.Errorf("%w: no %s or %s stream", errs.ErrMissingTableStream,
			format.StreamTablesOptimized, format.StreamTablesUnoptimized)
	}

	content, _ := tableStream.Slice(data)
	th, n, err := section.ParseTableStreamHeader(content)
	if err != nil {
		return nil, fmt.Errorf("stream %s: %w", r.tableName, err)
	}

	r.header = th
	r.profile = profile.FromHeapFlags(th.RowCounts, th.HeapFlags)
	r.dataStart = int64(tableStream.Offset) + int64(n)

	if need, have := int64(n)+r.profile.TotalSize(), int64(len(content)); need > have {
		return nil, fmt.Errorf("%w: stream %s: table data needs %d bytes, stream has %d",
			errs.ErrTruncated, r.tableName, need, have)
	}

	return r, nil
}

// OpenFile memory maps the metadata image in path read-only and creates a
// reader over it. Close releases the mapping.
func OpenFile(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if fi.Size() == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s is empty", errs.ErrTruncated, path)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}

	r, err := New(m)
	if err != nil {
		_ = m.Unmap()
		_ = f.Close()

		return nil, err
	}
	r.mapped = m
	r.file = f

	return r, nil
}

// Close releases the memory mapping of a reader created by OpenFile. It is a
// no-op for readers created by New. The reader must not be used afterwards.
func (r *Reader) Close() error {
	if r.mapped == nil {
		return nil
	}

	err := r.mapped.Unmap()
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	r.mapped, r.file, r.data = nil, nil, nil

	return err
}

func (r *Reader) setHeap(kind format.HeapKind, sh section.StreamHeader) {
	if r.heaps[kind] == nil {
		r.heaps[kind], _ = sh.Slice(r.data)
	}
}

// Len returns the size of the image.
func (r *Reader) Len() int {
	return len(r.data)
}

// Unoptimized reports whether the table stream is "#-".
func (r *Reader) Unoptimized() bool {
	return r.tableName == format.StreamTablesUnoptimized
}

// Header returns a copy of the table stream header.
func (r *Reader) Header() section.TableStreamHeader {
	return *r.header
}

// Profile returns the compression profile of the table stream.
func (r *Reader) Profile() *profile.Profile {
	return r.profile
}

// TableDataOffset returns the absolute offset of the first row of the first table.
func (r *Reader) TableDataOffset() int64 {
	return r.dataStart
}

// RowCount returns the number of rows of t, 0 for an undefined table.
func (r *Reader) RowCount(t format.TableType) uint32 {
	if !t.Valid() {
		return 0
	}

	return r.profile.RowCount(t)
}

// RowOffset returns the absolute offset of column col of row rid of table t.
//
// Returns:
//   - int64: Offset of the cell within the image
//   - error: ErrInvalidTable, ErrRIDOutOfRange or ErrColumnOutOfRange
func (r *Reader) RowOffset(t format.TableType, rid uint32, col int) (int64, error) {
	off, err := r.profile.RowOffset(t, rid, col)
	if err != nil {
		return 0, err
	}

	return r.dataStart + off, nil
}

// Value returns column col of row rid of table t.
func (r *Reader) Value(t format.TableType, rid uint32, col int) (uint32, error) {
	off, err := r.RowOffset(t, rid, col)
	if err != nil {
		return 0, err
	}

	return endian.Uint(r.data[off:], r.profile.ColumnSize(t, col)), nil
}

// Row returns every column of row rid of table t.
func (r *Reader) Row(t format.TableType, rid uint32) ([]uint32, error) {
	off, err := r.RowOffset(t, rid, 0)
	if err != nil {
		return nil, err
	}

	sizes := r.profile.ColumnSizes(t)
	row := make([]uint32, len(sizes))
	for i, w := range sizes {
		row[i] = endian.Uint(r.data[off:], w)
		off += int64(w)
	}

	return row, nil
}

// Ref returns the token an index or coded column refers to. A zero value or
// an unexpected coded selector yields token.Null.
func (r *Reader) Ref(t format.TableType, rid uint32, col int) (token.Token, error) {
	v, err := r.Value(t, rid, col)
	if err != nil {
		return token.Null, err
	}

	c := schema.Of(t).Columns[col]
	switch c.Kind {
	case schema.KindIndex:
		if v == 0 {
			return token.Null, nil
		}

		return token.New(c.Target, v), nil
	case schema.KindCoded:
		return c.Coded.Decode(v), nil
	default:
		return token.Null, fmt.Errorf("%w: %s.%s is a %s column", errs.ErrColumnOutOfRange, t, c.Name, c.Kind)
	}
}

// String returns the #Strings entry at off.
func (r *Reader) String(off uint32) (string, error) {
	return heap.StringAt(r.heaps[format.HeapStrings], off)
}

// UserString returns the #US entry at off.
func (r *Reader) UserString(off uint32) (string, error) {
	return heap.UserStringAt(r.heaps[format.HeapUserStrings], off)
}

// Blob returns the #Blob entry at off. The result aliases the image.
func (r *Reader) Blob(off uint32) ([]byte, error) {
	return heap.BlobAt(r.heaps[format.HeapBlob], off)
}

// GUID returns the #GUID record at the 1-based index idx.
func (r *Reader) GUID(idx uint32) (uuid.UUID, error) {
	return heap.GUIDAt(r.heaps[format.HeapGUID], idx)
}
