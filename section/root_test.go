package section

import (
	"testing"

	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/format"
	"github.com/stretchr/testify/require"
)

func sampleRoot() *RootHeader {
	h := NewRootHeader(format.DefaultVersionString)
	h.Streams = []StreamHeader{
		{Offset: 0x6C, Size: 0x100, Name: format.StreamTablesOptimized},
		{Offset: 0x16C, Size: 0x24, Name: format.StreamStrings},
		{Offset: 0x190, Size: 0x4, Name: format.StreamUserStrings},
		{Offset: 0x194, Size: 0x10, Name: format.StreamGUID},
		{Offset: 0x1A4, Size: 0x8, Name: format.StreamBlob},
	}

	return h
}

func TestRootHeaderBytes(t *testing.T) {
	h := sampleRoot()
	data := h.Bytes()

	require.Equal(t, h.Size(), len(data))
	// 20 fixed + 12 version + 12 "#~" + 20 "#Strings" + 12 "#US" + 16 "#GUID" + 16 "#Blob"
	require.Equal(t, 20+12+12+20+12+16+16, len(data))
	require.Equal(t, []byte("BSJB"), data[:4])
	require.Equal(t, []byte{12, 0, 0, 0}, data[12:16])
	require.Equal(t, []byte("v4.0.30319\x00\x00"), data[16:28])
}

func TestParseRootHeader(t *testing.T) {
	h := sampleRoot()
	h.Flags = 0x0001
	data := append(h.Bytes(), 0xEE, 0xEE)

	got, n, err := ParseRootHeader(data)
	require.NoError(t, err)
	require.Equal(t, h.Size(), n)
	require.Equal(t, h, got)

	s, ok := got.Find(format.StreamGUID)
	require.True(t, ok)
	require.Equal(t, uint32(0x10), s.Size)

	_, ok = got.Find("#Pdb")
	require.False(t, ok)
}

func TestParseRootHeaderErrors(t *testing.T) {
	data := sampleRoot().Bytes()

	t.Run("bad signature", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[0] = 'X'
		_, _, err := ParseRootHeader(bad)
		require.ErrorIs(t, err, errs.ErrInvalidSignature)
		require.ErrorIs(t, err, errs.ErrInvalidFormat)
	})

	t.Run("truncated directory", func(t *testing.T) {
		_, _, err := ParseRootHeader(data[:len(data)-6])
		require.ErrorIs(t, err, errs.ErrTruncated)
		require.Contains(t, err.Error(), "stream header 4")
	})

	t.Run("empty", func(t *testing.T) {
		_, _, err := ParseRootHeader(nil)
		require.ErrorIs(t, err, errs.ErrTruncated)
	})

	t.Run("oversized version", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[13] = 0x10 // length 0x100C
		_, _, err := ParseRootHeader(bad)
		require.ErrorIs(t, err, errs.ErrInvalidStreamHeader)
	})
}

func TestStreamHeaderSlice(t *testing.T) {
	data := make([]byte, 32)
	s := StreamHeader{Offset: 8, Size: 16, Name: "#Blob"}

	b, err := s.Slice(data)
	require.NoError(t, err)
	require.Len(t, b, 16)

	s.Size = 25
	_, err = s.Slice(data)
	require.ErrorIs(t, err, errs.ErrInvalidStreamHeader)

	s = StreamHeader{Offset: 0xFFFFFFFF, Size: 0xFFFFFFFF}
	_, err = s.Slice(data)
	require.ErrorIs(t, err, errs.ErrInvalidStreamHeader)
}

func TestRootHeaderValidate(t *testing.T) {
	h := sampleRoot()
	require.NoError(t, h.Validate())

	h.Streams = append(h.Streams, StreamHeader{Name: "#a-stream-name-that-is-far-too-long"})
	require.ErrorIs(t, h.Validate(), errs.ErrInvalidLength)

	h = sampleRoot()
	h.Version = string(make([]byte, 255))
	require.ErrorIs(t, h.Validate(), errs.ErrInvalidLength)
}

func TestStreamHeaderEncodedSize(t *testing.T) {
	require.Equal(t, 8+4, StreamHeader{Name: "#~"}.EncodedSize())
	require.Equal(t, 8+12, StreamHeader{Name: "#Strings", Size: 0x10000}.EncodedSize())
	require.Equal(t, 8+4, StreamHeader{Name: "#US"}.EncodedSize())

	h := NewRootHeader("v4.0.30319")
	h.Streams = []StreamHeader{{Name: "#~"}, {Name: "#Strings"}}
	require.Equal(t, 20+12+12+20, h.Size())
	require.Len(t, h.Bytes(), h.Size())
}
