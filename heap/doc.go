// Package heap implements the four metadata heaps as append-only byte stores.
//
// Table columns reference heap entries by offset (#Strings, #Blob, #US) or by
// 1-based index (#GUID). Every heap keeps the entry at offset 0 (index 0 for
// GUIDs) as the empty value, so a zero column reads back as "", nil or uuid.Nil.
//
// Entry encodings:
//
//	#Strings  UTF-8 bytes, NUL terminated
//	#US       compressed length, UTF-16LE code units, one trailing flag byte
//	#GUID     16-byte records
//	#Blob     compressed length, raw bytes
//
// Add interns entries: appending a value equal to one already stored returns
// the existing offset. Entries loaded from an existing heap are indexed lazily
// on the first Add, so a read-only heap never pays for the index.
//
// A heap is not safe for concurrent mutation.
package heap
