// Package endian provides byte order utilities for metadata encoding and decoding.
//
// ECMA-335 metadata is little-endian throughout, so the package exposes a single
// engine plus width-parameterised helpers. Table columns are 1, 2 or 4 bytes wide
// depending on the active compression profile, and the helpers let the table
// codec read and write a column without branching at every call site.
//
// # Basic Usage
//
//	engine := endian.GetLittleEndianEngine()
//	buf = engine.AppendUint32(buf, rowCount)
//
//	v := endian.Uint(data[off:], 2) // 2-byte column
//	endian.PutUint(data[off:], 4, v)
//
// # Thread Safety
//
// All functions in this package are safe for concurrent use.
// The returned EndianEngine is immutable and stateless.
package endian

import (
	"encoding/binary"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine used by the metadata format.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// Uint reads an unsigned little-endian integer of the given width (1, 2 or 4 bytes).
//
// Panics if width is not 1, 2 or 4 or data is shorter than width.
func Uint(data []byte, width int) uint32 {
	switch width {
	case 1:
		return uint32(data[0])
	case 2:
		return uint32(binary.LittleEndian.Uint16(data))
	case 4:
		return binary.LittleEndian.Uint32(data)
	default:
		panic("endian: invalid width")
	}
}

// PutUint writes v as an unsigned little-endian integer of the given width.
// The value is truncated to the width; callers check range beforehand.
//
// Panics if width is not 1, 2 or 4 or data is shorter than width.
func PutUint(data []byte, width int, v uint32) {
	switch width {
	case 1:
		data[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(data, uint16(v)) //nolint:gosec
	case 4:
		binary.LittleEndian.PutUint32(data, v)
	default:
		panic("endian: invalid width")
	}
}

// AppendUint appends v as an unsigned little-endian integer of the given width.
func AppendUint(buf []byte, width int, v uint32) []byte {
	switch width {
	case 1:
		return append(buf, byte(v))
	case 2:
		return binary.LittleEndian.AppendUint16(buf, uint16(v)) //nolint:gosec
	case 4:
		return binary.LittleEndian.AppendUint32(buf, v)
	default:
		panic("endian: invalid width")
	}
}

// Fits reports whether v can be stored in width bytes.
func Fits(v uint32, width int) bool {
	switch width {
	case 1:
		return v <= 0xFF
	case 2:
		return v <= 0xFFFF
	default:
		return true
	}
}
