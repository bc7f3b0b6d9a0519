package token

import (
	"fmt"
	"math/bits"

	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/format"
)

// CodedKind identifies one of the 13 coded token kinds.
type CodedKind uint8

const (
	TypeDefOrRef CodedKind = iota
	HasConstant
	HasCustomAttribute
	HasFieldMarshal
	HasDeclSecurity
	MemberRefParent
	HasSemantics
	MethodDefOrRef
	MemberForwarded
	Implementation
	CustomAttributeType
	ResolutionScope
	TypeOrMethodDef

	// CodedKindCount is the number of coded token kinds.
	CodedKindCount = 13
)

// codedInfo is the resolved data of one kind.
type codedInfo struct {
	name    string
	tables  []format.TableType
	tagBits uint
	tagMask uint32
	// selector by table, -1 when the table is not a candidate
	selector [format.TableCount]int8
}

var codedKinds [CodedKindCount]codedInfo

func init() {
	lists := [CodedKindCount]struct {
		name   string
		tables []format.TableType
	}{
		TypeDefOrRef: {"TypeDefOrRef", []format.TableType{
			format.TableTypeDef, format.TableTypeRef, format.TableTypeSpec,
		}},
		HasConstant: {"HasConstant", []format.TableType{
			format.TableField, format.TableParam, format.TableProperty,
		}},
		HasCustomAttribute: {"HasCustomAttribute", []format.TableType{
			format.TableMethodDef, format.TableField, format.TableTypeRef, format.TableTypeDef,
			format.TableParam, format.TableInterfaceImpl, format.TableMemberRef, format.TableModule,
			format.TableDeclSecurity, format.TableProperty, format.TableEvent, format.TableStandAloneSig,
			format.TableModuleRef, format.TableTypeSpec, format.TableAssembly, format.TableAssemblyRef,
			format.TableFile, format.TableExportedType, format.TableManifestResource, format.TableGenericParam,
			format.TableGenericParamConstraint, format.TableMethodSpec,
		}},
		HasFieldMarshal: {"HasFieldMarshal", []format.TableType{
			format.TableField, format.TableParam,
		}},
		HasDeclSecurity: {"HasDeclSecurity", []format.TableType{
			format.TableTypeDef, format.TableMethodDef, format.TableAssembly,
		}},
		MemberRefParent: {"MemberRefParent", []format.TableType{
			format.TableTypeDef, format.TableTypeRef, format.TableModuleRef, format.TableMethodDef,
			format.TableTypeSpec,
		}},
		HasSemantics: {"HasSemantics", []format.TableType{
			format.TableEvent, format.TableProperty,
		}},
		MethodDefOrRef: {"MethodDefOrRef", []format.TableType{
			format.TableMethodDef, format.TableMemberRef,
		}},
		MemberForwarded: {"MemberForwarded", []format.TableType{
			format.TableField, format.TableMethodDef,
		}},
		Implementation: {"Implementation", []format.TableType{
			format.TableFile, format.TableAssemblyRef, format.TableExportedType,
		}},
		CustomAttributeType: {"CustomAttributeType", []format.TableType{
			format.TableNone, format.TableNone, format.TableMethodDef, format.TableMemberRef,
			format.TableNone,
		}},
		ResolutionScope: {"ResolutionScope", []format.TableType{
			format.TableModule, format.TableModuleRef, format.TableAssemblyRef, format.TableTypeRef,
		}},
		TypeOrMethodDef: {"TypeOrMethodDef", []format.TableType{
			format.TableTypeDef, format.TableMethodDef,
		}},
	}

	for k, l := range lists {
		info := codedInfo{
			name:    l.name,
			tables:  l.tables,
			tagBits: tagBitsFor(len(l.tables)),
		}
		info.tagMask = uint32(1)<<info.tagBits - 1
		for i := range info.selector {
			info.selector[i] = -1
		}
		for i, t := range l.tables {
			if t.Valid() {
				info.selector[t] = int8(i) //nolint:gosec
			}
		}
		codedKinds[k] = info
	}
}

// tagBitsFor returns ceil(log2(n)).
func tagBitsFor(n int) uint {
	if n <= 1 {
		return 0
	}

	return uint(bits.Len(uint(n - 1)))
}

// AllCodedKinds returns every coded token kind.
func AllCodedKinds() []CodedKind {
	out := make([]CodedKind, CodedKindCount)
	for i := range out {
		out[i] = CodedKind(i) //nolint:gosec
	}

	return out
}

// Valid reports whether k is a defined coded token kind.
func (k CodedKind) Valid() bool {
	return k < CodedKindCount
}

func (k CodedKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("CodedKind(%d)", uint8(k))
	}

	return codedKinds[k].name
}

// Tables returns the ordered candidate list of the kind. Unused selector slots
// hold format.TableNone. The returned slice must not be modified.
func (k CodedKind) Tables() []format.TableType {
	return codedKinds[k].tables
}

// TagBits returns the number of low bits holding the table selector.
func (k CodedKind) TagBits() uint {
	return codedKinds[k].tagBits
}

// Contains reports whether table is a candidate of the kind.
func (k CodedKind) Contains(table format.TableType) bool {
	return table.Valid() && codedKinds[k].selector[table] >= 0
}

// Encode packs a token into a coded token value.
//
// A null token (row id 0) encodes to 0 regardless of its table.
//
// Returns:
//   - uint32: (rid << TagBits) | selector
//   - error: ErrTableNotInCodedKind if the table is not a candidate
func (k CodedKind) Encode(t Token) (uint32, error) {
	rid := t.RID()
	if rid == 0 {
		return 0, nil
	}

	// rid is at most 24 bits and tagBits at most 5, so the shift cannot overflow.
	info := &codedKinds[k]
	table := t.Table()
	if !table.Valid() || info.selector[table] < 0 {
		return 0, fmt.Errorf("%w: %s in %s", errs.ErrTableNotInCodedKind, table, info.name)
	}

	return rid<<info.tagBits | uint32(info.selector[table]), nil //nolint:gosec
}

// Decode unpacks a coded token value.
//
// A selector outside the candidate list, an unused selector slot, a zero row
// id or a row id a metadata token cannot hold yields Null. Decode never fails:
// an unexpected selector is data, not a caller bug.
func (k CodedKind) Decode(v uint32) Token {
	info := &codedKinds[k]
	sel := v & info.tagMask
	rid := v >> info.tagBits
	if rid == 0 || rid > MaxRID || int(sel) >= len(info.tables) {
		return Null
	}

	table := info.tables[sel]
	if !table.Valid() {
		return Null
	}

	return New(table, rid)
}
