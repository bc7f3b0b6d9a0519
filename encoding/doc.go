// Package encoding implements the variable-width length integer used by the
// #Blob and #US heaps.
//
// A compressed unsigned integer occupies 1, 2 or 4 bytes, big-endian, with the
// width announced by the top bits of the first byte:
//
//	0xxxxxxx                            values 0x00 .. 0x7F
//	10xxxxxx xxxxxxxx                   values 0x80 .. 0x3FFF
//	110xxxxx xxxxxxxx xxxxxxxx xxxxxxxx values 0x4000 .. 0x1FFFFFFF
//
// # Usage
//
//	buf = encoding.AppendCompressedUint(buf, uint32(len(payload)))
//	buf = append(buf, payload...)
//
//	n, size, err := encoding.DecodeCompressedUint(heap[offset:])
//	payload := heap[offset+size : offset+size+int(n)]
package encoding
