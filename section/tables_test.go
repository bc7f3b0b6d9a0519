package section

import (
	"testing"

	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/format"
	"github.com/stretchr/testify/require"
)

func TestTableStreamHeaderRoundTrip(t *testing.T) {
	var rows [format.TableCount]uint32
	rows[format.TableModule] = 1
	rows[format.TableTypeDef] = 70000
	rows[format.TableGenericParamConstraint] = 3

	h := NewTableStreamHeader(rows)
	h.HeapFlags = format.HeapFlagWideStrings
	h.Sorted = 0x000016003301FA00
	require.Equal(t, format.TableModule.Bit()|format.TableTypeDef.Bit()|format.TableGenericParamConstraint.Bit(), h.Valid)

	data := h.Bytes()
	require.Equal(t, TableStreamFixedSize+3*4, len(data))
	require.Equal(t, byte(1), data[7], "reserved byte")

	got, n, err := ParseTableStreamHeader(append(data, 0xAA))
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, h, got)
}

func TestTableStreamHeaderExtraData(t *testing.T) {
	var rows [format.TableCount]uint32
	rows[format.TableModule] = 1

	h := NewTableStreamHeader(rows)
	h.HeapFlags = format.HeapFlagExtraData
	h.ExtraData = 0xCAFEBABE
	require.True(t, h.HasExtraData())

	data := h.Bytes()
	require.Equal(t, TableStreamFixedSize+4+4, len(data))

	got, n, err := ParseTableStreamHeader(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, uint32(0xCAFEBABE), got.ExtraData)
}

func TestParseTableStreamHeaderErrors(t *testing.T) {
	var rows [format.TableCount]uint32
	rows[format.TableModule] = 1
	rows[format.TableField] = 2
	data := NewTableStreamHeader(rows).Bytes()

	t.Run("short fixed part", func(t *testing.T) {
		_, _, err := ParseTableStreamHeader(data[:10])
		require.ErrorIs(t, err, errs.ErrTruncated)
	})

	t.Run("missing row count", func(t *testing.T) {
		_, _, err := ParseTableStreamHeader(data[:len(data)-2])
		require.ErrorIs(t, err, errs.ErrTruncated)
		require.Contains(t, err.Error(), "row count of Field")
	})

	t.Run("unknown table bit", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[8+5] |= 0x40 // bit 46
		_, _, err := ParseTableStreamHeader(bad)
		require.ErrorIs(t, err, errs.ErrUnknownTable)
		require.ErrorIs(t, err, errs.ErrInvalidFormat)
	})
}
