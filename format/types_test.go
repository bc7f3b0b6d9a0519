package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableTypeString(t *testing.T) {
	require.Equal(t, "Module", TableModule.String())
	require.Equal(t, "CustomAttribute", TableCustomAttribute.String())
	require.Equal(t, "GenericParamConstraint", TableGenericParamConstraint.String())
	require.Equal(t, "None", TableNone.String())
	require.Equal(t, "Table(0x2d)", TableType(0x2D).String())
}

func TestTableTypeBit(t *testing.T) {
	require.Equal(t, uint64(1), TableModule.Bit())
	require.Equal(t, uint64(1)<<0x2C, TableGenericParamConstraint.Bit())
	require.True(t, TableGenericParamConstraint.Valid())
	require.False(t, TableType(TableCount).Valid())
}

func TestParseTableType(t *testing.T) {
	tt, ok := ParseTableType("FieldRVA")
	require.True(t, ok)
	require.Equal(t, TableFieldRVA, tt)

	tt, ok = ParseTableType("0x0C")
	require.True(t, ok)
	require.Equal(t, TableCustomAttribute, tt)

	_, ok = ParseTableType("Nope")
	require.False(t, ok)

	_, ok = ParseTableType("45")
	require.False(t, ok)
}

func TestAllTables(t *testing.T) {
	all := AllTables()
	require.Len(t, all, TableCount)
	for i, tt := range all {
		require.Equal(t, TableType(i), tt)
	}
}

func TestCompressionType(t *testing.T) {
	for _, name := range []string{"none", "zstd", "s2", "lz4"} {
		c, ok := ParseCompressionType(name)
		require.True(t, ok)
		require.NotEqual(t, "Unknown", c.String())
	}

	_, ok := ParseCompressionType("gzip")
	require.False(t, ok)
	require.Equal(t, "Unknown", CompressionType(0).String())
}

func TestHeapKindString(t *testing.T) {
	require.Equal(t, "#Strings", HeapStrings.String())
	require.Equal(t, "#GUID", HeapGUID.String())
	require.Equal(t, "#Blob", HeapBlob.String())
	require.Equal(t, "#US", HeapUserStrings.String())
}
