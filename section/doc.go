// Package section defines the header structures of a metadata image.
//
// It handles binary parsing and serialization of the two fixed-layout parts
// that frame the table rows and heaps: the metadata root with its stream
// directory, and the table stream header.
//
// # Metadata Root
//
//	┌─────────────────────────────────────────────────────────┐
//	│ Signature "BSJB" (4 bytes)                              │
//	│ MajorVersion, MinorVersion (2 + 2 bytes)                │
//	│ Reserved (4 bytes)                                      │
//	│ Version length (4 bytes, multiple of 4)                 │
//	│ Version string (NUL padded to the length)               │
//	│ Flags (2 bytes), stream count (2 bytes)                 │
//	├─────────────────────────────────────────────────────────┤
//	│ Stream header × count                                   │
//	│  - Offset, Size (4 + 4 bytes, relative to the root)     │
//	│  - Name (NUL terminated, padded to 4, max 32 bytes)     │
//	└─────────────────────────────────────────────────────────┘
//
// # Table Stream Header
//
//	┌─────────────────────────────────────────────────────────┐
//	│ Reserved (4 bytes)                                      │
//	│ Schema MajorVersion, MinorVersion (1 + 1 byte)          │
//	│ HeapFlags (1 byte), Reserved (1 byte)                   │
//	│ Valid mask (8 bytes), Sorted mask (8 bytes)             │
//	│ Row count × popcount(Valid) (4 bytes each)              │
//	│ Extra data (4 bytes, only with HeapFlagExtraData)       │
//	└─────────────────────────────────────────────────────────┘
//
// All fields are little-endian.
package section
