package heap

import (
	"bytes"
	"testing"

	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/profile"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestStrings(t *testing.T) {
	s := NewStrings()

	off, err := s.Add("Object")
	require.NoError(t, err)
	require.Equal(t, uint32(1), off)
	require.Equal(t, []byte("\x00Object\x00"), s.Bytes())

	t.Run("interning", func(t *testing.T) {
		again, err := s.Add("Object")
		require.NoError(t, err)
		require.Equal(t, off, again)
		require.Equal(t, 8, s.Len())
	})

	t.Run("empty string is offset 0", func(t *testing.T) {
		zero, err := s.Add("")
		require.NoError(t, err)
		require.Zero(t, zero)

		got, err := s.Get(0)
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("tail sharing offsets", func(t *testing.T) {
		got, err := s.Get(3)
		require.NoError(t, err)
		require.Equal(t, "ject", got)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := s.Add("a\x00b")
		require.ErrorIs(t, err, errs.ErrInvalidHeapValue)

		_, err = s.Get(100)
		require.ErrorIs(t, err, errs.ErrInvalidHeapOffset)
		require.ErrorIs(t, err, errs.ErrInvalidFormat)

		_, err = LoadStrings([]byte("\x00abc")).Get(1)
		require.ErrorIs(t, err, errs.ErrInvalidHeapOffset)
	})
}

func TestLoadedStringsAreIndexed(t *testing.T) {
	raw := []byte("\x00System\x00Bar\x00")
	s := LoadStrings(raw)

	off, err := s.Add("Bar")
	require.NoError(t, err)
	require.Equal(t, uint32(8), off)
	require.Equal(t, raw, s.Bytes())

	off, err = s.Add("Baz")
	require.NoError(t, err)
	require.Equal(t, uint32(len(raw)), off)

	// the load copies its input
	raw[1] = 'X'
	got, err := s.Get(1)
	require.NoError(t, err)
	require.Equal(t, "System", got)
}

func TestBlobs(t *testing.T) {
	b := NewBlobs()

	off, err := b.Add([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, uint32(1), off)
	require.Equal(t, []byte{0, 3, 1, 2, 3}, b.Bytes())

	again, err := b.Add([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, off, again)

	large := bytes.Repeat([]byte{0xAB}, 200)
	off, err = b.Add(large)
	require.NoError(t, err)
	require.Equal(t, uint32(5), off)
	require.Equal(t, []byte{0x80, 0xC8}, b.Bytes()[5:7])

	got, err := b.Get(off)
	require.NoError(t, err)
	require.Equal(t, large, got)

	zero, err := b.Add(nil)
	require.NoError(t, err)
	require.Zero(t, zero)

	got, err = b.Get(0)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestBlobErrors(t *testing.T) {
	b := LoadBlobs([]byte{0, 5, 1})

	_, err := b.Get(1)
	require.ErrorIs(t, err, errs.ErrInvalidHeapOffset)

	_, err = b.Get(3)
	require.ErrorIs(t, err, errs.ErrInvalidHeapOffset)

	_, err = LoadBlobs([]byte{0, 0xE0}).Get(1)
	require.ErrorIs(t, err, errs.ErrInvalidHeapOffset)
	require.ErrorIs(t, err, errs.ErrInvalidCompressedInt)

	// malformed entries stop indexing without failing Add
	off, err := b.Add([]byte{7})
	require.NoError(t, err)
	require.Equal(t, uint32(3), off)
}

func TestUserStrings(t *testing.T) {
	u := NewUserStrings()

	off, err := u.Add("Hi")
	require.NoError(t, err)
	require.Equal(t, uint32(1), off)
	require.Equal(t, []byte{0, 5, 'H', 0, 'i', 0, 0}, u.Bytes())

	tests := []struct {
		name string
		str  string
		flag byte
	}{
		{"plain ascii", "Hello, World", 0},
		{"apostrophe", "it's", 1},
		{"hyphen", "a-b", 1},
		{"control", "bell\a", 1},
		{"non latin", "日本語", 1},
		{"surrogate pair", "smile 😀", 1},
		{"latin1", "café", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off, err := u.Add(tt.str)
			require.NoError(t, err)

			got, err := u.Get(off)
			require.NoError(t, err)
			require.Equal(t, tt.str, got)

			payload, _, err := entry(u.Bytes(), off, "#US")
			require.NoError(t, err)
			require.Equal(t, tt.flag, payload[len(payload)-1])
			require.Equal(t, 1, len(payload)%2)
		})
	}

	again, err := u.Add("Hi")
	require.NoError(t, err)
	require.Equal(t, uint32(1), again)

	zero, err := u.Add("")
	require.NoError(t, err)
	require.Zero(t, zero)
}

func TestGUIDs(t *testing.T) {
	g := NewGUIDs()
	require.Zero(t, g.Len())

	u := uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff")
	require.Equal(t, uint32(1), g.Add(u))
	require.Equal(t, []byte{
		0x33, 0x22, 0x11, 0x00, 0x55, 0x44, 0x77, 0x66,
		0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff,
	}, g.Bytes())

	require.Equal(t, uint32(1), g.Add(u))
	other := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	require.Equal(t, uint32(2), g.Add(other))
	require.Zero(t, g.Add(uuid.Nil))
	require.Equal(t, 2, g.Count())

	got, err := g.Get(1)
	require.NoError(t, err)
	require.Equal(t, u, got)

	got, err = g.Get(0)
	require.NoError(t, err)
	require.Equal(t, uuid.Nil, got)

	_, err = g.Get(3)
	require.ErrorIs(t, err, errs.ErrInvalidHeapOffset)

	loaded := LoadGUIDs(append(append([]byte(nil), g.Bytes()...), 0xFF))
	require.Equal(t, 2, loaded.Count())
	require.Equal(t, uint32(2), loaded.Add(other))
}

func TestHeapsSizes(t *testing.T) {
	h := New()
	require.Equal(t, profile.HeapSizes{
		format.HeapStrings:     1,
		format.HeapGUID:        0,
		format.HeapBlob:        1,
		format.HeapUserStrings: 1,
	}, h.Sizes())

	_, err := h.Strings.Add("Module")
	require.NoError(t, err)
	h.GUIDs.Add(uuid.New())

	sizes := h.Sizes()
	require.Equal(t, uint32(8), sizes[format.HeapStrings])
	require.Equal(t, uint32(16), sizes[format.HeapGUID])
	require.Nil(t, h.Bytes(format.HeapKind(9)))

	var streams [format.HeapCount][]byte
	streams[format.HeapStrings] = h.Strings.Bytes()
	loaded := Load(streams)
	name, err := loaded.Strings.Get(1)
	require.NoError(t, err)
	require.Equal(t, "Module", name)
	require.Zero(t, loaded.GUIDs.Count())
	require.Equal(t, 1, loaded.Blobs.Len())
}

func TestRawViews(t *testing.T) {
	s := NewStrings()
	off, err := s.Add("Widget")
	require.NoError(t, err)
	got, err := StringAt(s.Bytes(), off+2)
	require.NoError(t, err)
	require.Equal(t, "dget", got)
	_, err = StringAt([]byte("abc"), 1)
	require.ErrorIs(t, err, errs.ErrInvalidHeapOffset)

	b := NewBlobs()
	off, err = b.Add([]byte{1, 2, 3})
	require.NoError(t, err)
	blob, err := BlobAt(b.Bytes(), off)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, blob)

	u := NewUserStrings()
	off, err = u.Add("héllo")
	require.NoError(t, err)
	us, err := UserStringAt(u.Bytes(), off)
	require.NoError(t, err)
	require.Equal(t, "héllo", us)

	g := NewGUIDs()
	id := uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff")
	idx := g.Add(id)
	gotID, err := GUIDAt(g.Bytes(), idx)
	require.NoError(t, err)
	require.Equal(t, id, gotID)
	_, err = GUIDAt(g.Bytes(), idx+1)
	require.ErrorIs(t, err, errs.ErrInvalidHeapOffset)
}
