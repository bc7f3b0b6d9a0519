// Package snapshot wraps a metadata image in a small checksummed, compressed
// envelope for caching and transport.
//
// Frame layout, little-endian:
//
//	+--------+---------+-------+----------+------------+----------+---------+
//	| magic  | version | codec | reserved | raw length | checksum | payload |
//	| 4      | 1       | 1     | 2        | 8          | 8        | ...     |
//	+--------+---------+-------+----------+------------+----------+---------+
//
// The checksum is the xxHash64 of the uncompressed image, keyed by the frame
// version. Decode verifies both the length and the checksum.
package snapshot

import (
	"fmt"

	"github.com/arloliu/mdtable/binio"
	"github.com/arloliu/mdtable/compress"
	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/internal/hash"
	"github.com/arloliu/mdtable/internal/options"
	"github.com/arloliu/mdtable/internal/pool"
)

const (
	// Magic is "MDSN" read as a little-endian uint32.
	Magic uint32 = 0x4E53444D
	// Version is the frame version written by Encode.
	Version uint8 = 1
	// HeaderSize is the size of the frame header.
	HeaderSize = 24
)

// Header is the decoded frame header.
type Header struct {
	Version     uint8
	Compression format.CompressionType
	RawLength   uint64
	Checksum    uint64
}

// Config holds the settings of Encode.
type Config struct {
	Compression format.CompressionType
}

// Option configures Encode.
type Option = options.Option[*Config]

// WithCompression selects the payload codec. The default is Zstd.
func WithCompression(ct format.CompressionType) Option {
	return options.New(func(c *Config) error {
		if _, err := compress.GetCodec(ct); err != nil {
			return err
		}
		c.Compression = ct

		return nil
	})
}

// Encode compresses data into a snapshot frame.
func Encode(data []byte, opts ...Option) ([]byte, error) {
	cfg := &Config{Compression: format.CompressionZstd}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}
	payload, err := codec.Compress(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s compression: %w", cfg.Compression, err)
	}

	h := Header{
		Version:     Version,
		Compression: cfg.Compression,
		RawLength:   uint64(len(data)),
		Checksum:    hash.Tagged(Version, data),
	}

	buf := pool.GetHeapBuffer()
	defer pool.PutHeapBuffer(buf)

	w := binio.NewWriter(buf)
	h.write(w)
	w.WriteBytes(payload)

	out := make([]byte, w.Len())
	copy(out, w.Bytes())

	return out, nil
}

// ParseHeader decodes the frame header without touching the payload.
//
// Returns an error wrapping errs.ErrInvalidFormat for a short frame, a wrong
// magic or an unknown version or codec.
func ParseHeader(frame []byte) (*Header, error) {
	r := binio.NewReader(frame)
	if r.Len() < HeaderSize {
		return nil, fmt.Errorf("%w: snapshot header needs %d bytes, have %d", errs.ErrTruncated, HeaderSize, r.Len())
	}

	magic, _ := r.ReadUint32()
	if magic != Magic {
		return nil, fmt.Errorf("%w: snapshot magic %#08x", errs.ErrInvalidSignature, magic)
	}

	h := &Header{}
	h.Version, _ = r.ReadUint8()
	codec, _ := r.ReadUint8()
	_ = r.Skip(2)
	h.RawLength, _ = r.ReadUint64()
	h.Checksum, _ = r.ReadUint64()
	h.Compression = format.CompressionType(codec)

	if h.Version != Version {
		return nil, fmt.Errorf("%w: snapshot version %d", errs.ErrInvalidFormat, h.Version)
	}
	if _, err := compress.GetCodec(h.Compression); err != nil {
		return nil, fmt.Errorf("%w: snapshot codec %#x", errs.ErrInvalidFormat, codec)
	}

	return h, nil
}

// Decode verifies a snapshot frame and returns the image it holds.
//
// Returns:
//   - []byte: The uncompressed image
//   - error: errs.ErrChecksumMismatch if the payload does not match its
//     checksum, another error wrapping errs.ErrInvalidFormat for a bad header
//     or payload
func Decode(frame []byte) ([]byte, error) {
	h, err := ParseHeader(frame)
	if err != nil {
		return nil, err
	}

	codec, _ := compress.GetCodec(h.Compression)
	data, err := codec.Decompress(frame[HeaderSize:])
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot payload: %w", errs.ErrInvalidFormat, err)
	}
	if uint64(len(data)) != h.RawLength {
		return nil, fmt.Errorf("%w: snapshot holds %d bytes, header says %d", errs.ErrChecksumMismatch, len(data), h.RawLength)
	}
	if sum := hash.Tagged(h.Version, data); sum != h.Checksum {
		return nil, fmt.Errorf("%w: snapshot checksum %#016x, header says %#016x", errs.ErrChecksumMismatch, sum, h.Checksum)
	}

	return data, nil
}

func (h Header) write(w *binio.Writer) {
	w.WriteUint32(Magic)
	w.WriteUint8(h.Version)
	w.WriteUint8(uint8(h.Compression))
	w.WriteUint16(0)
	w.WriteUint64(h.RawLength)
	w.WriteUint64(h.Checksum)
}
