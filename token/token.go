// Package token implements metadata tokens and the coded token codec.
//
// A metadata Token packs a table type in its high byte and a 1-based row id
// (RID) in the low 24 bits. A coded token packs the same pair into a smaller
// integer: the row id shifted left by a kind-specific number of tag bits, OR'ed
// with the table's position in the kind's fixed candidate list.
//
// The 13 coded token kinds and their candidate lists are part of the format.
// Each CodedKind carries its list and tag width as data, resolved once at
// package initialisation.
//
//	v, err := token.TypeDefOrRef.Encode(token.New(format.TableTypeRef, 5)) // (5 << 2) | 1
//	tok := token.TypeDefOrRef.Decode(v)                                    // TypeRef:5
package token

import (
	"fmt"

	"github.com/arloliu/mdtable/format"
)

// MaxRID is the largest row id a metadata token can address.
const MaxRID = 0x00FFFFFF

// Token is a metadata token: table type in bits 24-31, row id in bits 0-23.
type Token uint32

// Null is the null token. Any token with row id 0 is null regardless of its table.
const Null Token = 0

// New creates a token for the given table and row id.
// The row id is truncated to 24 bits.
func New(table format.TableType, rid uint32) Token {
	return Token(uint32(table)<<24 | rid&MaxRID)
}

// Table returns the table type of the token.
func (t Token) Table() format.TableType {
	return format.TableType(t >> 24)
}

// RID returns the 1-based row id of the token, 0 for null.
func (t Token) RID() uint32 {
	return uint32(t) & MaxRID
}

// IsNull reports whether the token refers to no row.
func (t Token) IsNull() bool {
	return t.RID() == 0
}

// WithRID returns a token for the same table and a different row id.
func (t Token) WithRID(rid uint32) Token {
	return New(t.Table(), rid)
}

func (t Token) String() string {
	return fmt.Sprintf("%s:%d", t.Table(), t.RID())
}
