package stream

import (
	"bytes"
	"fmt"
	"math"

	"github.com/arloliu/mdtable/binio"
	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/heap"
	"github.com/arloliu/mdtable/internal/options"
	"github.com/arloliu/mdtable/internal/pool"
	"github.com/arloliu/mdtable/schema"
	"github.com/arloliu/mdtable/section"
	"github.com/arloliu/mdtable/table"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

type cell struct {
	table format.TableType
	rid   uint32
	col   int
}

type deferred struct {
	cell
	key uint64
}

// Builder lays out and serializes a metadata image.
//
// A Builder works on the caller's tables and heaps: sorting and the pointer
// table transform performed by Build mutate them in place, and Build
// zero-pads each heap to a 4-byte multiple before sizing its columns. Like the tables
// themselves, a Builder is not safe for concurrent use.
type Builder struct {
	tables *table.Tables
	heaps  *heap.Heaps
	cfg    *BuilderConfig

	fixups []deferred
	cells  map[cell]struct{}
}

// NewBuilder creates a builder for the given tables and heaps.
func NewBuilder(tables *table.Tables, heaps *heap.Heaps, opts ...BuilderOption) (*Builder, error) {
	if tables == nil || heaps == nil {
		return nil, fmt.Errorf("%w: nil tables or heaps", errs.ErrInvalidOption)
	}

	cfg := defaultBuilderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Builder{
		tables: tables,
		heaps:  heaps,
		cfg:    cfg,
		cells:  make(map[cell]struct{}),
	}, nil
}

// Config returns the effective configuration.
func (b *Builder) Config() BuilderConfig {
	return *b.cfg
}

// Defer registers column col of row rid in table t as a fixup.
//
// Build writes zero into the column and records its absolute position; the
// value is supplied later through Image.Apply or ApplyFixups under key. Only
// 4-byte scalar columns (MethodDef.RVA, FieldRVA.RVA and the like) can be
// deferred. If Build sorts or optimizes t, the fixup follows its row.
//
// Returns:
//   - error: ErrInvalidTable, ErrRIDOutOfRange or ErrColumnOutOfRange for a
//     cell that does not exist or is not a 4-byte column, ErrDuplicateFixup if
//     the cell is already deferred
func (b *Builder) Defer(t format.TableType, rid uint32, col int, key uint64) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %s", errs.ErrInvalidTable, t)
	}
	if _, err := b.tables.Table(t).Value(rid, col); err != nil {
		return err
	}
	if c := schema.Of(t).Columns[col]; c.Kind != schema.KindU32 {
		return fmt.Errorf("%w: %s.%s is %s, only u32 columns can be deferred",
			errs.ErrColumnOutOfRange, t, c.Name, c.Kind)
	}

	c := cell{table: t, rid: rid, col: col}
	if _, ok := b.cells[c]; ok {
		return fmt.Errorf("%w: %s row %d column %d", errs.ErrDuplicateFixup, t, rid, col)
	}
	b.cells[c] = struct{}{}
	b.fixups = append(b.fixups, deferred{cell: c, key: key})

	return nil
}

// Build lays out and serializes the image.
//
// In order, Build:
//   - removes pointer tables (or, with WithUnoptimized, rebuilds missing ones
//     as the identity),
//   - sorts every sortable table when WithSortTables is set,
//   - computes one compression profile from the final row counts and heap sizes,
//   - writes the root header, the table stream, the heaps and the
//     pass-through streams, each padded to 4 bytes,
//   - writes zero into every deferred column and records its position.
//
// The Image refuses Bytes until its fixups are applied.
func (b *Builder) Build() (*Image, error) {
	log := b.cfg.Logger

	if b.cfg.Unoptimized {
		for _, t := range schema.PointerTables() {
			if b.tables.Table(schema.Of(t).Pointer).Len() == 0 {
				if err := b.tables.Deoptimize(t); err != nil {
					return nil, err
				}
			}
		}
	} else {
		remaps, err := b.tables.OptimizeAll()
		if err != nil {
			return nil, fmt.Errorf("optimize pointer tables: %w", err)
		}
		b.remapFixups(remaps)
		logRemaps(log, "pointer tables removed", remaps)
	}

	if b.cfg.SortTables {
		remaps, err := b.tables.SortAll()
		if err != nil {
			return nil, fmt.Errorf("sort tables: %w", err)
		}
		b.remapFixups(remaps)
		logRemaps(log, "tables sorted", remaps)
	}

	b.heaps.Pad(4)
	p := b.tables.Profile(b.heaps.Sizes())

	th := section.NewTableStreamHeader(p.RowCounts())
	th.MajorVersion, th.MinorVersion = b.tables.MajorVersion, b.tables.MinorVersion
	if b.cfg.schemaOverride {
		th.MajorVersion, th.MinorVersion = b.cfg.SchemaMajor, b.cfg.SchemaMinor
	}
	th.HeapFlags = p.HeapFlags()
	if b.tables.HasExtraData {
		th.HeapFlags |= format.HeapFlagExtraData
		th.ExtraData = b.tables.ExtraData
	}
	th.Sorted = b.tables.SortedMask()

	tableName := format.StreamTablesOptimized
	if b.cfg.Unoptimized {
		tableName = format.StreamTablesUnoptimized
	}

	contents := make([][]byte, 0, 1+format.HeapCount+len(b.cfg.PassThrough))
	root := section.NewRootHeader(b.cfg.Version)
	root.MajorVersion, root.MinorVersion = b.cfg.MajorVersion, b.cfg.MinorVersion

	tableSize := int64(th.Size()) + p.TotalSize()
	root.Streams = append(root.Streams, section.StreamHeader{Name: tableName})
	contents = append(contents, nil)
	for _, kind := range heapOrder {
		root.Streams = append(root.Streams, section.StreamHeader{Name: kind.String()})
		contents = append(contents, b.heaps.Bytes(kind))
	}
	for _, pt := range b.cfg.PassThrough {
		root.Streams = append(root.Streams, section.StreamHeader{Name: pt.Name})
		contents = append(contents, pt.Data)
	}
	if err := root.Validate(); err != nil {
		return nil, err
	}

	offset := int64(root.Size())
	for i := range root.Streams {
		size := int64(len(contents[i]))
		if i == 0 {
			size = tableSize
		}
		size = int64(binio.AlignUp(int(size), 4))
		if offset+size > math.MaxUint32 {
			return nil, fmt.Errorf("%w: stream %s ends past 4 GiB", errs.ErrInvalidLength, root.Streams[i].Name)
		}
		root.Streams[i].Offset = uint32(offset) //nolint:gosec
		root.Streams[i].Size = uint32(size)     //nolint:gosec
		offset += size
	}

	buf := pool.GetImageBuffer()
	defer pool.PutImageBuffer(buf)
	buf.Grow(int(offset))

	w := binio.NewWriter(buf)
	root.Write(w)
	th.Write(w)
	dataStart := w.Position()
	if err := b.tables.Encode(w, p); err != nil {
		return nil, fmt.Errorf("stream %s: %w", tableName, err)
	}
	w.Align(4)

	fixups := make([]Fixup, 0, len(b.fixups))
	for _, f := range b.fixups {
		off, err := p.RowOffset(f.table, f.rid, f.col)
		if err != nil {
			return nil, fmt.Errorf("fixup key %#x: %w", f.key, err)
		}
		pos := dataStart + int(off)
		w.PutUint32At(pos, 0)
		fixups = append(fixups, Fixup{Table: f.table, RID: f.rid, Column: f.col, Key: f.key, Offset: pos})
	}

	for _, data := range contents[1:] {
		w.WriteBytes(data)
		w.Align(4)
	}

	if int64(w.Len()) != offset {
		return nil, fmt.Errorf("%w: laid out %d bytes, wrote %d", errs.ErrInvalidLength, offset, w.Len())
	}

	log.WithFields(logrus.Fields{
		"tableStream": tableName,
		"size":        humanize.IBytes(uint64(offset)), //nolint:gosec
		"heapFlags":   fmt.Sprintf("%#02x", th.HeapFlags),
		"fixups":      len(fixups),
		"streams":     len(root.Streams),
	}).Debug("metadata image built")

	return &Image{data: bytes.Clone(w.Bytes()), fixups: fixups}, nil
}

func (b *Builder) remapFixups(remaps map[format.TableType][]uint32) {
	if len(remaps) == 0 || len(b.fixups) == 0 {
		return
	}

	clear(b.cells)
	for i := range b.fixups {
		f := &b.fixups[i]
		if remap, ok := remaps[f.table]; ok && int(f.rid) <= len(remap) {
			f.rid = remap[f.rid-1]
		}
		b.cells[f.cell] = struct{}{}
	}
}

var heapOrder = []format.HeapKind{
	format.HeapStrings, format.HeapUserStrings, format.HeapGUID, format.HeapBlob,
}

func logRemaps(log logrus.FieldLogger, msg string, remaps map[format.TableType][]uint32) {
	if len(remaps) == 0 {
		return
	}

	fields := make(logrus.Fields, len(remaps))
	for t, remap := range remaps {
		fields[t.String()] = len(remap)
	}
	log.WithFields(fields).Debug(msg)
}
