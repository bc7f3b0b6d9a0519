package encoding

import (
	"fmt"

	"github.com/arloliu/mdtable/errs"
)

// MaxCompressedUint is the largest value a compressed unsigned integer can hold.
const MaxCompressedUint = 0x1FFFFFFF

// CompressedUintSize returns the number of bytes needed to encode v, or 0 if v
// exceeds MaxCompressedUint.
func CompressedUintSize(v uint32) int {
	switch {
	case v < 0x80:
		return 1
	case v < 0x4000:
		return 2
	case v <= MaxCompressedUint:
		return 4
	default:
		return 0
	}
}

// AppendCompressedUint appends v as a compressed unsigned integer.
//
// Panics if v exceeds MaxCompressedUint; callers validate lengths first.
func AppendCompressedUint(buf []byte, v uint32) []byte {
	switch CompressedUintSize(v) {
	case 1:
		return append(buf, byte(v))
	case 2:
		return append(buf, byte(v>>8)|0x80, byte(v))
	case 4:
		return append(buf, byte(v>>24)|0xC0, byte(v>>16), byte(v>>8), byte(v))
	default:
		panic(fmt.Sprintf("encoding: compressed uint %#x exceeds %#x", v, MaxCompressedUint))
	}
}

// DecodeCompressedUint decodes a compressed unsigned integer at the start of data.
//
// Returns:
//   - uint32: The decoded value
//   - int: Number of bytes consumed (1, 2 or 4)
//   - error: ErrTruncated if data ends inside the integer, ErrInvalidCompressedInt
//     if the first byte announces no valid width
func DecodeCompressedUint(data []byte) (uint32, int, error) {
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("%w: compressed uint needs 1 byte, have 0", errs.ErrTruncated)
	}

	b := data[0]
	switch {
	case b&0x80 == 0:
		return uint32(b), 1, nil
	case b&0xC0 == 0x80:
		if len(data) < 2 {
			return 0, 0, fmt.Errorf("%w: compressed uint needs 2 bytes, have %d", errs.ErrTruncated, len(data))
		}

		return uint32(b&0x3F)<<8 | uint32(data[1]), 2, nil
	case b&0xE0 == 0xC0:
		if len(data) < 4 {
			return 0, 0, fmt.Errorf("%w: compressed uint needs 4 bytes, have %d", errs.ErrTruncated, len(data))
		}

		return uint32(b&0x1F)<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3]), 4, nil
	default:
		return 0, 0, fmt.Errorf("%w: lead byte %#02x", errs.ErrInvalidCompressedInt, b)
	}
}
