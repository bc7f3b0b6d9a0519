// Package compress provides the codecs used to store metadata images and
// snapshots compactly.
//
// Four algorithms are available through CreateCodec and GetCodec:
//
//   - None: returns its input, for already compact or tiny images
//   - Zstd: best ratio; heaps full of repeated names compress well
//   - S2: fast, moderate ratio
//   - LZ4: fastest decompression
//
// Zstd uses github.com/valyala/gozstd when cgo is enabled and the pure Go
// github.com/klauspost/compress/zstd otherwise. Both produce standard zstd
// frames, so data written by one build decodes with the other.
//
// All codecs are stateless values backed by pooled encoders and are safe for
// concurrent use:
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	packed, err := codec.Compress(image)
//	image, err = codec.Decompress(packed)
package compress
