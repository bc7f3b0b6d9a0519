package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/arloliu/mdtable/access"
	"github.com/arloliu/mdtable/compress"
	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/profile"
	"github.com/arloliu/mdtable/schema"
	"github.com/arloliu/mdtable/snapshot"
	"github.com/arloliu/mdtable/stream"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

// infoParallelism bounds how many files info reads at once.
const infoParallelism = 4

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Print the streams, heaps and row counts of metadata images",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "snapshot", Usage: "Inputs are snapshot frames written by pack"},
			&cli.BoolFlag{Name: "validate-heaps", Usage: "Check every heap column against its heap"},
		},
		Action: func(c *cli.Context) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				return errors.New("at least one FILE is required")
			}

			var opts []stream.ReadOption
			if c.Bool("validate-heaps") {
				opts = append(opts, stream.WithHeapValidation())
			}
			opts = append(opts, stream.WithReadLogger(logrus.StandardLogger()))

			mds := make([]*stream.Metadata, len(paths))
			sizes := make([]int, len(paths))
			var g errgroup.Group
			g.SetLimit(infoParallelism)
			for i, path := range paths {
				g.Go(func() error {
					data, err := loadImage(path, c.Bool("snapshot"))
					if err != nil {
						return err
					}
					md, err := stream.Read(data, opts...)
					if err != nil {
						return errors.Wrapf(err, "read %s", path)
					}
					mds[i], sizes[i] = md, len(data)

					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			for i, md := range mds {
				printInfo(c, paths[i], sizes[i], md)
			}

			return nil
		},
	}
}

func printInfo(c *cli.Context, path string, size int, md *stream.Metadata) {
	w := c.App.Writer
	tableStream := format.StreamTablesOptimized
	if md.Unoptimized {
		tableStream = format.StreamTablesUnoptimized
	}

	fmt.Fprintf(w, "%s: %s, version %q, table stream %s, schema %d.%d\n",
		path, humanize.IBytes(uint64(size)), md.Version, tableStream, md.Tables.MajorVersion, md.Tables.MinorVersion) //nolint:gosec
	sizes := md.Heaps.Sizes()
	for _, kind := range []format.HeapKind{format.HeapStrings, format.HeapUserStrings, format.HeapGUID, format.HeapBlob} {
		fmt.Fprintf(w, "  %-9s %s\n", kind, humanize.IBytes(uint64(sizes[kind])))
	}
	for _, pt := range md.PassThrough {
		fmt.Fprintf(w, "  %-9s %s (pass-through)\n", pt.Name, humanize.IBytes(uint64(len(pt.Data))))
	}

	p := profile.FromHeapFlags(md.Tables.RowCounts(), md.HeapFlags)
	for _, t := range format.AllTables() {
		n := md.Tables.Table(t).Len()
		if n == 0 {
			continue
		}
		sorted := ""
		if schema.Of(t).Sortable() && md.Tables.IsSorted(t) {
			sorted = " sorted"
		}
		fmt.Fprintf(w, "  %-24s %8s rows x %2d bytes%s\n", t, humanize.Comma(int64(n)), p.RowSize(t), sorted)
	}
}

func rebuildCommand() *cli.Command {
	return &cli.Command{
		Name:      "rebuild",
		Usage:     "Read a metadata image and write it back out",
		ArgsUsage: "IN OUT",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "sort", Usage: "Sort every sortable table"},
			&cli.BoolFlag{Name: "unoptimized", Usage: "Write a #- stream with pointer tables"},
			&cli.StringFlag{Name: "runtime-version", Usage: "Replace the runtime version string"},
		},
		Action: func(c *cli.Context) error {
			in, out, err := twoArgs(c)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(in)
			if err != nil {
				return errors.Wrap(err, "read input")
			}
			md, err := stream.Read(data)
			if err != nil {
				return errors.Wrapf(err, "read %s", in)
			}

			opts := []stream.BuilderOption{
				stream.WithSortTables(c.Bool("sort")),
				stream.WithLogger(logrus.StandardLogger()),
			}
			if c.IsSet("unoptimized") {
				opts = append(opts, stream.WithUnoptimized(c.Bool("unoptimized")))
			}
			if v := c.String("runtime-version"); v != "" {
				opts = append(opts, stream.WithVersionString(v))
			}

			b, err := md.NewBuilder(opts...)
			if err != nil {
				return err
			}
			img, err := b.Build()
			if err != nil {
				return errors.Wrap(err, "build image")
			}
			result, err := img.Bytes()
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, result, 0o644); err != nil { //nolint:gosec
				return errors.Wrap(err, "write output")
			}

			logrus.WithFields(logrus.Fields{
				"in":  humanize.IBytes(uint64(len(data))),
				"out": humanize.IBytes(uint64(len(result))),
			}).Infof("rebuilt %s", out)

			return nil
		},
	}
}

func fieldCommand() *cli.Command {
	return &cli.Command{
		Name:      "field",
		Usage:     "Print one table cell without decoding the tables",
		ArgsUsage: "FILE TABLE RID COLUMN",
		Action: func(c *cli.Context) error {
			if c.NArg() != 4 {
				return errors.New("FILE, TABLE, RID and COLUMN are required")
			}
			args := c.Args().Slice()

			t, ok := format.ParseTableType(args[1])
			if !ok {
				return errors.Errorf("unknown table %q", args[1])
			}
			rid, err := strconv.ParseUint(args[2], 0, 32)
			if err != nil {
				return errors.Wrap(err, "parse RID")
			}
			col, err := parseColumn(t, args[3])
			if err != nil {
				return err
			}

			r, err := access.OpenFile(args[0])
			if err != nil {
				return errors.Wrapf(err, "open %s", args[0])
			}
			defer r.Close()

			off, err := r.RowOffset(t, uint32(rid), col)
			if err != nil {
				return err
			}
			v, err := r.Value(t, uint32(rid), col)
			if err != nil {
				return err
			}

			column := schema.Of(t).Columns[col]
			fmt.Fprintf(c.App.Writer, "%s[%d].%s = %#x (offset %#x, %d bytes)\n",
				t, rid, column.Name, v, off, r.Profile().ColumnSize(t, col))

			switch column.Kind {
			case schema.KindIndex, schema.KindCoded:
				tok, err := r.Ref(t, uint32(rid), col)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "  -> %s\n", tok)
			case schema.KindStrings:
				s, err := r.String(v)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "  -> %q\n", s)
			case schema.KindGUID:
				g, err := r.GUID(v)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "  -> %s\n", g)
			case schema.KindBlob:
				b, err := r.Blob(v)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "  -> % x\n", b)
			}

			return nil
		},
	}
}

func packCommand() *cli.Command {
	return &cli.Command{
		Name:      "pack",
		Usage:     "Compress a metadata image into a snapshot frame",
		ArgsUsage: "IN OUT",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "compression", Value: "zstd", Usage: "Payload codec (none, zstd, s2, lz4)"},
		},
		Action: func(c *cli.Context) error {
			in, out, err := twoArgs(c)
			if err != nil {
				return err
			}
			ct, ok := format.ParseCompressionType(c.String("compression"))
			if !ok {
				return errors.Errorf("unknown compression %q", c.String("compression"))
			}

			data, err := os.ReadFile(in)
			if err != nil {
				return errors.Wrap(err, "read input")
			}
			if _, err := stream.Read(data); err != nil {
				return errors.Wrapf(err, "read %s", in)
			}

			start := time.Now()
			frame, err := snapshot.Encode(data, snapshot.WithCompression(ct))
			if err != nil {
				return err
			}
			stats := compress.CompressionStats{
				Algorithm:         ct,
				OriginalSize:      int64(len(data)),
				CompressedSize:    int64(len(frame) - snapshot.HeaderSize),
				CompressionTimeNs: time.Since(start).Nanoseconds(),
			}
			if err := os.WriteFile(out, frame, 0o644); err != nil { //nolint:gosec
				return errors.Wrap(err, "write output")
			}

			logrus.WithFields(logrus.Fields{
				"codec":   stats.Algorithm,
				"in":      humanize.IBytes(uint64(stats.OriginalSize)),
				"out":     humanize.IBytes(uint64(stats.CompressedSize)),
				"savings": fmt.Sprintf("%.1f%%", stats.SpaceSavings()),
				"elapsed": time.Duration(stats.CompressionTimeNs),
			}).Infof("packed %s", out)

			return nil
		},
	}
}

func unpackCommand() *cli.Command {
	return &cli.Command{
		Name:      "unpack",
		Usage:     "Verify a snapshot frame and write the metadata image it holds",
		ArgsUsage: "IN OUT",
		Action: func(c *cli.Context) error {
			in, out, err := twoArgs(c)
			if err != nil {
				return err
			}

			data, err := loadImage(in, true)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil { //nolint:gosec
				return errors.Wrap(err, "write output")
			}
			logrus.Infof("unpacked %s (%s)", out, humanize.IBytes(uint64(len(data))))

			return nil
		},
	}
}

func loadImage(path string, isSnapshot bool) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if !isSnapshot {
		return data, nil
	}

	image, err := snapshot.Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode snapshot %s", path)
	}

	return image, nil
}

func twoArgs(c *cli.Context) (string, string, error) {
	if c.NArg() != 2 {
		return "", "", errors.New("IN and OUT are required")
	}

	return c.Args().Get(0), c.Args().Get(1), nil
}

// parseColumn accepts a column name or a zero-based column number.
func parseColumn(t format.TableType, arg string) (int, error) {
	sch := schema.Of(t)
	if i := sch.ColumnIndex(arg); i >= 0 {
		return i, nil
	}

	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 || n >= len(sch.Columns) {
		return 0, errors.Errorf("%s has no column %q", t, arg)
	}

	return n, nil
}
