package access

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/heap"
	"github.com/arloliu/mdtable/stream"
	"github.com/arloliu/mdtable/table"
	"github.com/arloliu/mdtable/token"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var testMvid = uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")

func buildImage(tb testing.TB, fields int) (*table.Tables, []byte) {
	tb.Helper()
	ts := table.New()
	hs := heap.New()

	name, err := hs.Strings.Add("lib.dll")
	require.NoError(tb, err)
	typeName, err := hs.Strings.Add("Point")
	require.NoError(tb, err)
	sig, err := hs.Blobs.Add([]byte{0x06, 0x08})
	require.NoError(tb, err)
	mvid := hs.GUIDs.Add(testMvid)
	_, err = hs.UserStrings.Add("greeting")
	require.NoError(tb, err)

	appendRow := func(t format.TableType, values ...uint32) {
		_, err := ts.Table(t).Append(values...)
		require.NoError(tb, err)
	}
	extends, err := token.TypeDefOrRef.Encode(token.New(format.TableTypeRef, 1))
	require.NoError(tb, err)

	appendRow(format.TableModule, 0, name, mvid, 0, 0)
	appendRow(format.TableTypeRef, 0, typeName, 0)
	appendRow(format.TableTypeDef, 0, 0, 0, 0, 1, 1)
	appendRow(format.TableTypeDef, 0x00100001, typeName, 0, extends, 1, 1)
	for i := range fields {
		appendRow(format.TableField, uint32(i&0xFFFF), name, sig) //nolint:gosec
	}

	b, err := stream.NewBuilder(ts, hs)
	require.NoError(tb, err)
	img, err := b.Build()
	require.NoError(tb, err)
	data, err := img.Bytes()
	require.NoError(tb, err)

	return ts, data
}

func TestValuesMatchDecodedTables(t *testing.T) {
	ts, data := buildImage(t, 5)
	r, err := New(data)
	require.NoError(t, err)
	require.False(t, r.Unoptimized())
	require.Equal(t, len(data), r.Len())

	for _, tt := range format.AllTables() {
		require.Equal(t, uint32(ts.Table(tt).Len()), r.RowCount(tt)) //nolint:gosec
		for rid := uint32(1); rid <= r.RowCount(tt); rid++ {
			want, err := ts.Table(tt).Row(rid)
			require.NoError(t, err)
			got, err := r.Row(tt, rid)
			require.NoError(t, err)
			require.Equal(t, want, got, "%s row %d", tt, rid)

			for col := range want {
				v, err := r.Value(tt, rid, col)
				require.NoError(t, err)
				require.Equal(t, want[col], v)
			}
		}
	}
}

func TestRowOffsetArithmetic(t *testing.T) {
	_, data := buildImage(t, 3)
	r, err := New(data)
	require.NoError(t, err)
	p := r.Profile()

	first, err := r.RowOffset(format.TableTypeDef, 1, 3)
	require.NoError(t, err)
	second, err := r.RowOffset(format.TableTypeDef, 2, 3)
	require.NoError(t, err)
	require.Equal(t, int64(p.RowSize(format.TableTypeDef)), second-first)
	require.Equal(t, r.TableDataOffset()+p.TableOffset(format.TableTypeDef)+int64(p.ColumnOffset(format.TableTypeDef, 3)), first)

	_, err = r.RowOffset(format.TableTypeDef, 0, 0)
	require.ErrorIs(t, err, errs.ErrRIDOutOfRange)
	_, err = r.RowOffset(format.TableTypeDef, 3, 0)
	require.ErrorIs(t, err, errs.ErrRIDOutOfRange)
	_, err = r.RowOffset(format.TableTypeDef, 1, 6)
	require.ErrorIs(t, err, errs.ErrColumnOutOfRange)
	_, err = r.Value(format.TableNone, 1, 0)
	require.ErrorIs(t, err, errs.ErrInvalidTable)
	_, err = r.Row(format.TableMethodDef, 1)
	require.ErrorIs(t, err, errs.ErrRIDOutOfRange)
	require.Zero(t, r.RowCount(format.TableNone))
}

func TestWideFieldIndex(t *testing.T) {
	_, data := buildImage(t, 65536)
	r, err := New(data)
	require.NoError(t, err)

	require.True(t, r.Profile().IndexIsWide(format.TableField))
	require.Equal(t, 4, r.Profile().ColumnSize(format.TableTypeDef, 4))

	v, err := r.Value(format.TableField, 65536, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(65535), v)
}

func TestRefsAndHeaps(t *testing.T) {
	_, data := buildImage(t, 1)
	r, err := New(data)
	require.NoError(t, err)

	tok, err := r.Ref(format.TableTypeDef, 2, 3)
	require.NoError(t, err)
	require.Equal(t, token.New(format.TableTypeRef, 1), tok)

	tok, err = r.Ref(format.TableTypeDef, 2, 4)
	require.NoError(t, err)
	require.Equal(t, token.New(format.TableField, 1), tok)

	tok, err = r.Ref(format.TableTypeDef, 1, 3)
	require.NoError(t, err)
	require.True(t, tok.IsNull())

	_, err = r.Ref(format.TableTypeDef, 2, 0)
	require.ErrorIs(t, err, errs.ErrColumnOutOfRange)

	nameOff, err := r.Value(format.TableTypeDef, 2, 1)
	require.NoError(t, err)
	name, err := r.String(nameOff)
	require.NoError(t, err)
	require.Equal(t, "Point", name)

	sigOff, err := r.Value(format.TableField, 1, 2)
	require.NoError(t, err)
	sig, err := r.Blob(sigOff)
	require.NoError(t, err)
	require.Equal(t, []byte{0x06, 0x08}, sig)

	mvid, err := r.Value(format.TableModule, 1, 2)
	require.NoError(t, err)
	g, err := r.GUID(mvid)
	require.NoError(t, err)
	require.Equal(t, testMvid, g)

	us, err := r.UserString(1)
	require.NoError(t, err)
	require.Equal(t, "greeting", us)
}

func TestNewErrors(t *testing.T) {
	_, err := New([]byte{1, 2, 3, 4})
	require.ErrorIs(t, err, errs.ErrInvalidSignature)

	_, data := buildImage(t, 2)
	_, err = New(data[:len(data)/2])
	require.ErrorIs(t, err, errs.ErrInvalidFormat)
}

func TestOpenFile(t *testing.T) {
	_, data := buildImage(t, 4)
	path := filepath.Join(t.TempDir(), "meta.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	r, err := OpenFile(path)
	require.NoError(t, err)

	v, err := r.Value(format.TableField, 4, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(3), v)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	empty := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = OpenFile(empty)
	require.ErrorIs(t, err, errs.ErrTruncated)

	_, err = OpenFile(filepath.Join(t.TempDir(), "missing.bin"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestConcurrentReaders(t *testing.T) {
	_, data := buildImage(t, 1000)
	r, err := New(data)
	require.NoError(t, err)

	var g errgroup.Group
	for range 8 {
		g.Go(func() error {
			for rid := uint32(1); rid <= 1000; rid++ {
				v, err := r.Value(format.TableField, rid, 0)
				if err != nil {
					return err
				}
				if v != rid-1 {
					return errs.ErrInvalidFormat
				}
			}

			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func BenchmarkValue(b *testing.B) {
	_, data := buildImage(b, 4096)
	r, err := New(data)
	require.NoError(b, err)

	b.ResetTimer()
	for i := range b.N {
		rid := uint32(i%4096) + 1 //nolint:gosec
		if _, err := r.Value(format.TableField, rid, 1); err != nil {
			b.Fatal(err)
		}
	}
}
