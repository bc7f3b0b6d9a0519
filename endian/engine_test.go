package endian

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetLittleEndianEngine(t *testing.T) {
	engine := GetLittleEndianEngine()
	require.Equal(t, binary.LittleEndian, engine)

	buf := engine.AppendUint32(nil, 0x01020304)
	require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, buf)
}

func TestUintWidths(t *testing.T) {
	data := []byte{0x78, 0x56, 0x34, 0x12}

	require.Equal(t, uint32(0x78), Uint(data, 1))
	require.Equal(t, uint32(0x5678), Uint(data, 2))
	require.Equal(t, uint32(0x12345678), Uint(data, 4))

	require.Panics(t, func() { Uint(data, 3) })
}

func TestPutUintAndAppendUint(t *testing.T) {
	for _, width := range []int{1, 2, 4} {
		buf := make([]byte, width)
		PutUint(buf, width, 0xAB)
		require.Equal(t, uint32(0xAB), Uint(buf, width))

		appended := AppendUint([]byte{0xFF}, width, 0xAB)
		require.Len(t, appended, 1+width)
		require.Equal(t, buf, appended[1:])
	}

	require.Panics(t, func() { PutUint(make([]byte, 8), 8, 1) })
	require.Panics(t, func() { AppendUint(nil, 0, 1) })
}

func TestFits(t *testing.T) {
	require.True(t, Fits(0xFF, 1))
	require.False(t, Fits(0x100, 1))
	require.True(t, Fits(0xFFFF, 2))
	require.False(t, Fits(0x10000, 2))
	require.True(t, Fits(0xFFFFFFFF, 4))
}
