package stream

import (
	"bytes"
	"fmt"

	"github.com/arloliu/mdtable/binio"
	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/heap"
	"github.com/arloliu/mdtable/internal/options"
	"github.com/arloliu/mdtable/profile"
	"github.com/arloliu/mdtable/schema"
	"github.com/arloliu/mdtable/section"
	"github.com/arloliu/mdtable/table"
	"github.com/sirupsen/logrus"
)

// PassThrough is a stream the codec does not interpret.
type PassThrough struct {
	Name string
	Data []byte
}

// Metadata is a parsed metadata image.
type Metadata struct {
	// Version is the runtime version string of the metadata root.
	Version      string
	MajorVersion uint16
	MinorVersion uint16
	Flags        uint16
	// HeapFlags is the raw heap flags byte of the table stream header.
	HeapFlags uint8

	Tables *table.Tables
	Heaps  *heap.Heaps
	// Unoptimized is set when the table stream was "#-".
	Unoptimized bool
	// PassThrough holds unknown streams in directory order.
	PassThrough []PassThrough
}

// Read parses a metadata image.
//
// The returned tables hold copies of the row values; heaps and pass-through
// streams are copied as well, so data may be reused after Read returns.
//
// Parameters:
//   - data: The metadata image, starting with the metadata root
//   - opts: Read options
//
// Returns:
//   - *Metadata: The parsed metadata
//   - error: An error wrapping errs.ErrInvalidFormat for malformed input,
//     naming the stream, table and row involved
func Read(data []byte, opts ...ReadOption) (*Metadata, error) {
	cfg := &ReadConfig{Logger: discardLogger()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	root, _, err := section.ParseRootHeader(data)
	if err != nil {
		return nil, err
	}

	md := &Metadata{
		Version:      root.Version,
		MajorVersion: root.MajorVersion,
		MinorVersion: root.MinorVersion,
		Flags:        root.Flags,
	}

	var (
		tableStream []byte
		tableName   string
		heapStreams [format.HeapCount][]byte
		seenHeap    [format.HeapCount]bool
	)
	for _, sh := range root.Streams {
		content, err := sh.Slice(data)
		if err != nil {
			return nil, err
		}

		switch sh.Name {
		case format.StreamTablesOptimized, format.StreamTablesUnoptimized:
			if tableStream != nil {
				return nil, fmt.Errorf("%w: second table stream %q after %q",
					errs.ErrInvalidStreamHeader, sh.Name, tableName)
			}
			tableStream, tableName = content, sh.Name
		default:
			if kind, ok := heapKind(sh.Name); ok && !seenHeap[kind] {
				heapStreams[kind] = content
				seenHeap[kind] = true

				continue
			}
			md.PassThrough = append(md.PassThrough, PassThrough{Name: sh.Name, Data: bytes.Clone(content)})
		}
	}

	if tableStream == nil {
		return nil, fmt.Errorf("%w: streams %v", errs.ErrMissingTableStream, streamNames(root))
	}
	md.Unoptimized = tableName == format.StreamTablesUnoptimized

	th, n, err := section.ParseTableStreamHeader(tableStream)
	if err != nil {
		return nil, fmt.Errorf("stream %s: %w", tableName, err)
	}

	p := profile.FromHeapFlags(th.RowCounts, th.HeapFlags)
	r := binio.NewReader(tableStream)
	if err := r.SetPosition(n); err != nil {
		return nil, fmt.Errorf("stream %s: %w", tableName, err)
	}

	ts, err := table.Decode(r, p)
	if err != nil {
		return nil, fmt.Errorf("stream %s: %w", tableName, err)
	}
	ts.MajorVersion = th.MajorVersion
	ts.MinorVersion = th.MinorVersion
	ts.HasExtraData = th.HasExtraData()
	ts.ExtraData = th.ExtraData
	ts.SetSortedMask(th.Sorted)

	md.Tables = ts
	md.HeapFlags = th.HeapFlags
	md.Heaps = heap.Load(heapStreams)

	if cfg.ValidateHeaps {
		if err := ValidateHeapColumns(ts, md.Heaps); err != nil {
			return nil, fmt.Errorf("stream %s: %w", tableName, err)
		}
	}

	cfg.Logger.WithFields(logrus.Fields{
		"version":     md.Version,
		"tableStream": tableName,
		"tables":      presentCount(ts),
		"rowBytes":    p.TotalSize(),
		"passThrough": len(md.PassThrough),
	}).Debug("metadata read")

	return md, nil
}

// NewBuilder returns a builder that writes md back with its version string,
// layout and pass-through streams. opts are applied after those defaults.
func (md *Metadata) NewBuilder(opts ...BuilderOption) (*Builder, error) {
	base := []BuilderOption{
		WithVersionString(md.Version),
		WithRootVersion(md.MajorVersion, md.MinorVersion),
		WithUnoptimized(md.Unoptimized),
	}
	for _, pt := range md.PassThrough {
		base = append(base, WithPassThrough(pt.Name, pt.Data))
	}

	return NewBuilder(md.Tables, md.Heaps, append(base, opts...)...)
}

// ValidateHeapColumns checks that every heap column of ts addresses a
// position inside its heap. A zero value is always valid.
//
// Returns an error wrapping errs.ErrInvalidHeapOffset naming the first
// offending table, row and column.
func ValidateHeapColumns(ts *table.Tables, heaps *heap.Heaps) error {
	sizes := heaps.Sizes()
	guids := uint32(heaps.GUIDs.Count()) //nolint:gosec

	for _, t := range format.AllTables() {
		tbl := ts.Table(t)
		for col, c := range schema.Of(t).Columns {
			kind, ok := c.Heap()
			if !ok {
				continue
			}

			for rid := uint32(1); rid <= uint32(tbl.Len()); rid++ { //nolint:gosec
				v, _ := tbl.Value(rid, col)
				if v == 0 {
					continue
				}

				var bad bool
				if kind == format.HeapGUID {
					bad = v > guids
				} else {
					bad = v >= sizes[kind]
				}
				if bad {
					return fmt.Errorf("%w: %s row %d column %s: %#x outside %s",
						errs.ErrInvalidHeapOffset, t, rid, c.Name, v, kind)
				}
			}
		}
	}

	return nil
}

func heapKind(name string) (format.HeapKind, bool) {
	switch name {
	case format.StreamStrings:
		return format.HeapStrings, true
	case format.StreamUserStrings:
		return format.HeapUserStrings, true
	case format.StreamGUID:
		return format.HeapGUID, true
	case format.StreamBlob:
		return format.HeapBlob, true
	default:
		return 0, false
	}
}

func streamNames(root *section.RootHeader) []string {
	names := make([]string, 0, len(root.Streams))
	for _, s := range root.Streams {
		names = append(names, s.Name)
	}

	return names
}

func presentCount(ts *table.Tables) int {
	n := 0
	for _, t := range format.AllTables() {
		if ts.Table(t).Len() > 0 {
			n++
		}
	}

	return n
}
