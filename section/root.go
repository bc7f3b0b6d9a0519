package section

import (
	"fmt"
	"math"

	"github.com/arloliu/mdtable/binio"
	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/internal/pool"
)

const (
	// MaxVersionLength is the largest version string length, terminator included.
	MaxVersionLength = 255
	// MaxStreamNameLength is the largest padded stream name length, terminator included.
	MaxStreamNameLength = 32

	rootFixedSize = 20 // signature..version length, plus flags and stream count
)

// StreamHeader locates one stream relative to the start of the metadata root.
type StreamHeader struct {
	Offset uint32
	Size   uint32
	Name   string
}

// EncodedSize returns the encoded size of the stream header.
func (s StreamHeader) EncodedSize() int {
	return 8 + binio.AlignUp(len(s.Name)+1, 4)
}

// Slice returns the stream bytes within data, the whole metadata image.
//
// Returns:
//   - []byte: The stream contents, aliasing data
//   - error: ErrInvalidStreamHeader if the stream lies outside data
func (s StreamHeader) Slice(data []byte) ([]byte, error) {
	end := uint64(s.Offset) + uint64(s.Size)
	if end > uint64(len(data)) {
		return nil, fmt.Errorf("%w: stream %q at %#x size %#x, metadata size %#x",
			errs.ErrInvalidStreamHeader, s.Name, s.Offset, s.Size, len(data))
	}

	return data[s.Offset:end], nil
}

// RootHeader is the metadata root and its stream directory.
type RootHeader struct {
	MajorVersion uint16
	MinorVersion uint16
	Reserved     uint32
	// Version is the runtime version string without padding.
	Version string
	Flags   uint16
	Streams []StreamHeader
}

// NewRootHeader creates a root header with the default versions.
func NewRootHeader(version string) *RootHeader {
	return &RootHeader{
		MajorVersion: format.DefaultMajorVersion,
		MinorVersion: format.DefaultMinorVersion,
		Version:      version,
	}
}

// VersionLength returns the padded length of the version string field.
func (h *RootHeader) VersionLength() int {
	return binio.AlignUp(len(h.Version)+1, 4)
}

// Size returns the encoded size of the root header including every stream header.
func (h *RootHeader) Size() int {
	size := rootFixedSize + h.VersionLength()
	for _, s := range h.Streams {
		size += s.EncodedSize()
	}

	return size
}

// Find returns the first stream header with the given name.
func (h *RootHeader) Find(name string) (StreamHeader, bool) {
	for _, s := range h.Streams {
		if s.Name == name {
			return s, true
		}
	}

	return StreamHeader{}, false
}

// Validate checks the limits the encoding imposes on the header fields.
func (h *RootHeader) Validate() error {
	if len(h.Version)+1 > MaxVersionLength {
		return fmt.Errorf("%w: version string of %d bytes", errs.ErrInvalidLength, len(h.Version))
	}
	if len(h.Streams) > math.MaxUint16 {
		return fmt.Errorf("%w: %d streams", errs.ErrInvalidLength, len(h.Streams))
	}
	for _, s := range h.Streams {
		if s.Name == "" || len(s.Name)+1 > MaxStreamNameLength {
			return fmt.Errorf("%w: stream name %q", errs.ErrInvalidLength, s.Name)
		}
	}

	return nil
}

// Write serializes the header at the writer's position.
func (h *RootHeader) Write(w *binio.Writer) {
	w.WriteUint32(format.Signature)
	w.WriteUint16(h.MajorVersion)
	w.WriteUint16(h.MinorVersion)
	w.WriteUint32(h.Reserved)

	verLen := h.VersionLength()
	w.WriteUint32(uint32(verLen)) //nolint:gosec
	start := w.Position()
	w.WriteBytes([]byte(h.Version))
	w.WriteZeros(verLen - (w.Position() - start))

	w.WriteUint16(h.Flags)
	w.WriteUint16(uint16(len(h.Streams))) //nolint:gosec
	for _, s := range h.Streams {
		w.WriteUint32(s.Offset)
		w.WriteUint32(s.Size)
		w.WriteCString(s.Name)
		w.Align(4)
	}
}

// Bytes serializes the header into a new byte slice.
func (h *RootHeader) Bytes() []byte {
	buf := pool.NewByteBuffer(h.Size())
	h.Write(binio.NewWriter(buf))

	return buf.Bytes()
}

// ParseRootHeader parses the metadata root at the start of data.
//
// Parameters:
//   - data: The metadata image, starting with the "BSJB" signature
//
// Returns:
//   - *RootHeader: Parsed header, stream headers in directory order
//   - int: Number of bytes the header occupies
//   - error: ErrInvalidSignature, ErrTruncated or ErrInvalidStreamHeader
func ParseRootHeader(data []byte) (*RootHeader, int, error) {
	r := binio.NewReader(data)

	sig, err := r.ReadUint32()
	if err != nil {
		return nil, 0, fmt.Errorf("metadata root: %w", err)
	}
	if sig != format.Signature {
		return nil, 0, fmt.Errorf("%w: got %#08x, want %#08x", errs.ErrInvalidSignature, sig, format.Signature)
	}

	h := &RootHeader{}
	if h.MajorVersion, err = r.ReadUint16(); err != nil {
		return nil, 0, fmt.Errorf("metadata root: %w", err)
	}
	if h.MinorVersion, err = r.ReadUint16(); err != nil {
		return nil, 0, fmt.Errorf("metadata root: %w", err)
	}
	if h.Reserved, err = r.ReadUint32(); err != nil {
		return nil, 0, fmt.Errorf("metadata root: %w", err)
	}

	verLen, err := r.ReadUint32()
	if err != nil {
		return nil, 0, fmt.Errorf("metadata root: %w", err)
	}
	if verLen > MaxVersionLength+1 {
		return nil, 0, fmt.Errorf("%w: version length %d", errs.ErrInvalidStreamHeader, verLen)
	}
	if h.Version, err = r.ReadPaddedString(int(verLen)); err != nil {
		return nil, 0, fmt.Errorf("metadata root version: %w", err)
	}
	// some producers write an unaligned length; the directory still starts aligned
	if err = r.Align(4); err != nil {
		return nil, 0, fmt.Errorf("metadata root version: %w", err)
	}

	if h.Flags, err = r.ReadUint16(); err != nil {
		return nil, 0, fmt.Errorf("metadata root: %w", err)
	}
	count, err := r.ReadUint16()
	if err != nil {
		return nil, 0, fmt.Errorf("metadata root: %w", err)
	}

	h.Streams = make([]StreamHeader, 0, count)
	for i := range int(count) {
		s, err := parseStreamHeader(r)
		if err != nil {
			return nil, 0, fmt.Errorf("stream header %d: %w", i, err)
		}
		h.Streams = append(h.Streams, s)
	}

	return h, r.Position(), nil
}

func parseStreamHeader(r *binio.Reader) (StreamHeader, error) {
	var (
		s   StreamHeader
		err error
	)
	if s.Offset, err = r.ReadUint32(); err != nil {
		return s, err
	}
	if s.Size, err = r.ReadUint32(); err != nil {
		return s, err
	}

	start := r.Position()
	if s.Name, err = r.ReadCString(); err != nil {
		return s, err
	}
	if r.Position()-start > MaxStreamNameLength {
		return s, fmt.Errorf("%w: stream name of %d bytes", errs.ErrInvalidStreamHeader, r.Position()-start)
	}
	if err = r.Align(4); err != nil {
		return s, err
	}

	return s, nil
}
