package schema

import (
	"fmt"

	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/token"
)

// ColumnKind is the storage class of a column.
type ColumnKind uint8

const (
	KindU16     ColumnKind = iota // KindU16 is a fixed 2-byte scalar.
	KindU32                       // KindU32 is a fixed 4-byte scalar.
	KindU8Pair                    // KindU8Pair is two packed bytes, low byte first.
	KindIndex                     // KindIndex is a row id into Column.Target.
	KindCoded                     // KindCoded is a coded token of Column.Coded.
	KindStrings                   // KindStrings is a #Strings heap offset.
	KindGUID                      // KindGUID is a 1-based #GUID heap index.
	KindBlob                      // KindBlob is a #Blob heap offset.
)

func (k ColumnKind) String() string {
	switch k {
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindU8Pair:
		return "u8x2"
	case KindIndex:
		return "index"
	case KindCoded:
		return "coded"
	case KindStrings:
		return "string"
	case KindGUID:
		return "guid"
	case KindBlob:
		return "blob"
	default:
		return fmt.Sprintf("ColumnKind(%d)", uint8(k))
	}
}

// Column describes one column of a table.
type Column struct {
	Name string
	Kind ColumnKind
	// Target is the referenced table of a KindIndex column.
	Target format.TableType
	// Coded is the coded token kind of a KindCoded column.
	Coded token.CodedKind
	// List marks an index column that starts a run of rows in Target
	// (TypeDef.FieldList and friends). In the unoptimized stream it addresses
	// the pointer table of Target.
	List bool
}

// FixedSize returns the byte width of a column whose width does not depend on
// the compression profile, or 0 for profile-dependent columns.
func (c Column) FixedSize() int {
	switch c.Kind {
	case KindU16, KindU8Pair:
		return 2
	case KindU32:
		return 4
	default:
		return 0
	}
}

// Heap returns the heap a heap column references.
func (c Column) Heap() (format.HeapKind, bool) {
	switch c.Kind {
	case KindStrings:
		return format.HeapStrings, true
	case KindGUID:
		return format.HeapGUID, true
	case KindBlob:
		return format.HeapBlob, true
	default:
		return 0, false
	}
}

// References reports whether a value of this column can point at a row of table.
func (c Column) References(table format.TableType) bool {
	switch c.Kind {
	case KindIndex:
		return c.Target == table
	case KindCoded:
		return c.Coded.Contains(table)
	default:
		return false
	}
}

func (c Column) String() string {
	switch c.Kind {
	case KindIndex:
		return fmt.Sprintf("%s(%s:%s)", c.Name, c.Kind, c.Target)
	case KindCoded:
		return fmt.Sprintf("%s(%s:%s)", c.Name, c.Kind, c.Coded)
	default:
		return fmt.Sprintf("%s(%s)", c.Name, c.Kind)
	}
}

func u16(name string) Column { return Column{Name: name, Kind: KindU16} }
func u32(name string) Column { return Column{Name: name, Kind: KindU32} }
func u8pair(name string) Column { return Column{Name: name, Kind: KindU8Pair} }
func str(name string) Column { return Column{Name: name, Kind: KindStrings} }
func guid(name string) Column { return Column{Name: name, Kind: KindGUID} }
func blob(name string) Column { return Column{Name: name, Kind: KindBlob} }
func index(name string, target format.TableType) Column {
	return Column{Name: name, Kind: KindIndex, Target: target}
}

func list(name string, target format.TableType) Column {
	return Column{Name: name, Kind: KindIndex, Target: target, List: true}
}

func coded(name string, kind token.CodedKind) Column {
	return Column{Name: name, Kind: KindCoded, Coded: kind}
}
