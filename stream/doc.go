// Package stream reads and writes a complete metadata image: the metadata
// root, its stream directory, the table stream and the four heaps.
//
// Read parses an image into a Metadata value whose tables and heaps can be
// mutated freely. A Builder turns tables and heaps back into bytes:
//
//	b, err := stream.NewBuilder(md.Tables, md.Heaps, stream.WithSortTables(true))
//	_ = b.Defer(format.TableMethodDef, rid, 0, bodyKey)
//	img, err := b.Build()
//	// lay out the container, then
//	err = img.Apply(resolveBodyAddress)
//	data, err := img.Bytes()
//
// Some column values, such as method body and field data addresses, are only
// known after the surrounding container is laid out, and the container layout
// needs the size of the metadata. Build therefore writes zero into every
// deferred column and records its position. The returned Image refuses to
// hand out its bytes until every recorded fixup has been applied; RawBytes
// is available to layout code that only needs the size or wants to copy the
// image before patching it.
package stream
