package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/arloliu/mdtable/binio"
	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/heap"
	"github.com/arloliu/mdtable/internal/pool"
	"github.com/arloliu/mdtable/profile"
	"github.com/arloliu/mdtable/section"
	"github.com/arloliu/mdtable/snapshot"
	"github.com/arloliu/mdtable/stream"
	"github.com/arloliu/mdtable/table"
	"github.com/arloliu/mdtable/token"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T) string {
	t.Helper()
	ts := table.New()
	hs := heap.New()

	name, err := hs.Strings.Add("Widget")
	require.NoError(t, err)
	_, err = ts.Table(format.TableTypeDef).Append(0, 0, 0, 0, 1, 1)
	require.NoError(t, err)
	_, err = ts.Table(format.TableTypeDef).Append(0x00100001, name, 0, 0, 1, 1)
	require.NoError(t, err)
	_, err = ts.Table(format.TableField).Append(0x0006, name, 0)
	require.NoError(t, err)
	for _, nested := range []uint32{2, 1} {
		_, err = ts.Table(format.TableNestedClass).Append(nested, 1)
		require.NoError(t, err)
	}

	b, err := stream.NewBuilder(ts, hs)
	require.NoError(t, err)
	img, err := b.Build()
	require.NoError(t, err)
	data, err := img.Bytes()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "meta.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"mdtables", "--log-level", "error"}, args...))

	return out.String(), err
}

func TestInfo(t *testing.T) {
	path := writeImage(t)
	out, err := run(t, "info", "--validate-heaps", path, path)
	require.NoError(t, err)
	require.Contains(t, out, "table stream #~")
	require.Contains(t, out, "TypeDef")
	require.Contains(t, out, "NestedClass")
	require.Equal(t, 2, bytes.Count([]byte(out), []byte(path+":")))

	_, err = run(t, "info")
	require.Error(t, err)

	_, err = run(t, "info", filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// writeWideStringsImage writes an image whose heap flags declare 4-byte
// #Strings offsets although the heap itself is only a few bytes long.
func writeWideStringsImage(t *testing.T) string {
	t.Helper()
	ts := table.New()
	_, err := ts.Table(format.TableField).Append(0x0001, 1, 0)
	require.NoError(t, err)

	th := section.NewTableStreamHeader(ts.RowCounts())
	th.HeapFlags = format.HeapFlagWideStrings
	p := profile.FromHeapFlags(ts.RowCounts(), th.HeapFlags)

	tw := binio.NewWriter(pool.NewByteBuffer(64))
	th.Write(tw)
	require.NoError(t, ts.Encode(tw, p))
	tw.Align(4)

	contents := [][]byte{tw.Bytes(), {0, 'x', 0, 0}, {0, 0, 0, 0}, {}, {0, 0, 0, 0}}
	root := section.NewRootHeader(format.DefaultVersionString)
	for i, name := range []string{
		format.StreamTablesOptimized, format.StreamStrings, format.StreamUserStrings, format.StreamGUID, format.StreamBlob,
	} {
		root.Streams = append(root.Streams, section.StreamHeader{Name: name, Size: uint32(len(contents[i]))}) //nolint:gosec
	}
	off := uint32(root.Size()) //nolint:gosec
	for i := range root.Streams {
		root.Streams[i].Offset = off
		off += root.Streams[i].Size
	}

	w := binio.NewWriter(pool.NewByteBuffer(int(off)))
	root.Write(w)
	for _, c := range contents {
		w.WriteBytes(c)
	}

	path := filepath.Join(t.TempDir(), "wide.bin")
	require.NoError(t, os.WriteFile(path, w.Bytes(), 0o600))

	return path
}

func TestInfoUsesHeapFlags(t *testing.T) {
	out, err := run(t, "info", writeWideStringsImage(t))
	require.NoError(t, err)
	// Flags u16, Name as a 4-byte offset, Signature u16.
	require.Regexp(t, `Field\s+1 rows x\s+8 bytes`, out)
}

func TestRebuildSorts(t *testing.T) {
	path := writeImage(t)
	out := filepath.Join(t.TempDir(), "sorted.bin")
	_, err := run(t, "rebuild", "--sort", "--runtime-version", "v9", path, out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	md, err := stream.Read(data)
	require.NoError(t, err)
	require.Equal(t, "v9", md.Version)
	require.True(t, md.Tables.IsSorted(format.TableNestedClass))

	first, err := md.Tables.Table(format.TableNestedClass).Value(1, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(1), first)

	info, err := run(t, "info", out)
	require.NoError(t, err)
	require.Contains(t, info, "sorted")
}

func TestField(t *testing.T) {
	path := writeImage(t)

	out, err := run(t, "field", path, "TypeDef", "2", "TypeName")
	require.NoError(t, err)
	require.Contains(t, out, "TypeDef[2].TypeName")
	require.Contains(t, out, `"Widget"`)

	out, err = run(t, "field", path, "TypeDef", "2", "4")
	require.NoError(t, err)
	require.Contains(t, out, token.New(format.TableField, 1).String())

	_, err = run(t, "field", path, "Nope", "1", "0")
	require.ErrorContains(t, err, "unknown table")
	_, err = run(t, "field", path, "TypeDef", "1", "Missing")
	require.ErrorContains(t, err, "has no column")
	_, err = run(t, "field", path, "TypeDef", "3", "0")
	require.Error(t, err)
}

func TestPackUnpack(t *testing.T) {
	path := writeImage(t)
	dir := t.TempDir()
	packed := filepath.Join(dir, "meta.snap")
	unpacked := filepath.Join(dir, "meta.out")

	for _, codec := range []string{"zstd", "s2", "lz4", "none"} {
		t.Run(codec, func(t *testing.T) {
			_, err := run(t, "pack", "--compression", codec, path, packed)
			require.NoError(t, err)

			frame, err := os.ReadFile(packed)
			require.NoError(t, err)
			h, err := snapshot.ParseHeader(frame)
			require.NoError(t, err)
			ct, _ := format.ParseCompressionType(codec)
			require.Equal(t, ct, h.Compression)

			_, err = run(t, "unpack", packed, unpacked)
			require.NoError(t, err)

			want, err := os.ReadFile(path)
			require.NoError(t, err)
			got, err := os.ReadFile(unpacked)
			require.NoError(t, err)
			require.Equal(t, want, got)

			out, err := run(t, "info", "--snapshot", packed)
			require.NoError(t, err)
			require.Contains(t, out, "TypeDef")
		})
	}

	_, err := run(t, "pack", "--compression", "brotli", path, packed)
	require.ErrorContains(t, err, "unknown compression")
	_, err = run(t, "pack", path)
	require.Error(t, err)
	_, err = run(t, "unpack", path, unpacked)
	require.Error(t, err)
}
