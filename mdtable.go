// Package mdtable reads and writes ECMA-335 metadata: the BSJB metadata root,
// the "#~"/"#-" table stream and the #Strings, #US, #GUID and #Blob heaps.
//
// # Core Features
//
//   - Table read/write with the width of every index, coded token and heap
//     column inferred from row counts and heap sizes
//   - Coded token compression for all thirteen coded index kinds
//   - Key sorting of the fourteen sorted tables with every reference remapped
//   - Pointer table removal ("#-" to "#~") and reconstruction
//   - Zero-copy cell access over a byte slice or a memory-mapped file
//   - Two-pass building: columns holding container addresses are patched after
//     the container is laid out
//
// # Basic Usage
//
// Reading, editing and writing back:
//
//	md, _ := mdtable.Read(data)
//	typeDefs := md.Tables.Table(format.TableTypeDef)
//	name, _ := md.Heaps.Strings.Add("Generated")
//	_, _ = typeDefs.Append(0x00100001, name, 0, 0, 1, 1)
//
//	b, _ := md.NewBuilder(stream.WithSortTables(true))
//	img, _ := b.Build()
//	out, _ := img.Bytes()
//
// Deferring a method body address until the container layout is known:
//
//	b, _ := mdtable.NewBuilder(tables, heaps)
//	_ = b.Defer(format.TableMethodDef, rid, 0, bodyID)
//	img, _ := b.Build()
//	// ... place img.Len() bytes and the method bodies in the container
//	_ = img.ApplyMap(bodyRVAs)
//	out, _ := img.Bytes()
//
// Reading one cell without decoding the tables:
//
//	r, _ := mdtable.Open("app.meta")
//	defer r.Close()
//	rva, _ := r.Value(format.TableMethodDef, 1, 0)
//
// # Package Structure
//
// This package provides convenience wrappers. The stream, table, heap, access
// and snapshot packages expose the full API.
package mdtable

import (
	"github.com/arloliu/mdtable/access"
	"github.com/arloliu/mdtable/heap"
	"github.com/arloliu/mdtable/stream"
	"github.com/arloliu/mdtable/table"
)

// Read parses a metadata image.
//
// Parameters:
//   - data: The metadata image, starting with the metadata root
//   - opts: stream.WithHeapValidation, stream.WithReadLogger
//
// Returns:
//   - *stream.Metadata: Tables, heaps and unknown streams
//   - error: An error wrapping errs.ErrInvalidFormat for malformed input
func Read(data []byte, opts ...stream.ReadOption) (*stream.Metadata, error) {
	return stream.Read(data, opts...)
}

// NewMetadata creates empty tables and heaps holding only the null entries.
func NewMetadata() (*table.Tables, *heap.Heaps) {
	return table.New(), heap.New()
}

// NewBuilder creates a builder for tables and heaps.
func NewBuilder(tables *table.Tables, heaps *heap.Heaps, opts ...stream.BuilderOption) (*stream.Builder, error) {
	return stream.NewBuilder(tables, heaps, opts...)
}

// Write builds an image that has no deferred columns.
//
// Returns:
//   - []byte: The image
//   - error: Any error of stream.NewBuilder or Build
func Write(tables *table.Tables, heaps *heap.Heaps, opts ...stream.BuilderOption) ([]byte, error) {
	b, err := stream.NewBuilder(tables, heaps, opts...)
	if err != nil {
		return nil, err
	}

	img, err := b.Build()
	if err != nil {
		return nil, err
	}

	return img.Bytes()
}

// Open memory maps a metadata image file for random cell access.
func Open(path string) (*access.Reader, error) {
	return access.OpenFile(path)
}

// NewReader creates a random-access reader over an image in memory.
func NewReader(data []byte) (*access.Reader, error) {
	return access.New(data)
}
