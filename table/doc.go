// Package table implements the metadata table collection and its transforms.
//
// A Tables value holds the 45 tables of one metadata instance as flat uint32
// row arrays laid out by package schema. On top of get/set by 1-based row id it
// provides:
//
//   - Decode and Encode of the table rows under one compression profile,
//   - Sort and SortAll, which put the key-sorted tables in order and rewrite
//     every index and coded token column that referenced a moved row,
//   - Optimize and Deoptimize, which remove or rebuild the pointer tables of
//     the unoptimized stream layout.
//
// The stream header around the rows is handled by package section, and the
// whole metadata image by package stream.
//
// EncLog and EncMap store raw metadata tokens in plain 4-byte columns; those
// are edit-and-continue records and are never rewritten by Sort or Optimize.
package table
