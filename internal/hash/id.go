// Package hash provides the content hash used for heap interning and snapshot checksums.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of a string heap entry.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Bytes computes the xxHash64 of a blob, GUID or user string entry.
func Bytes(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Tagged computes the xxHash64 of data prefixed by a one-byte tag, so equal
// bytes stored under different encodings hash apart.
func Tagged(tag byte, data []byte) uint64 {
	d := xxhash.New()
	_, _ = d.Write([]byte{tag})
	_, _ = d.Write(data)

	return d.Sum64()
}
