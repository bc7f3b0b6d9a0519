// Package schema holds the static, compiled-in layout of every metadata table.
//
// Each table is described by an ordered list of Column descriptors. The table
// codec, the compression profile, the sorter and the random-access reader are
// all driven by this data; none of them carries per-table code.
//
// Beyond columns, the schema records:
//
//   - sort keys of the tables the format requires to be ordered,
//   - the pointer table of the five tables that have one,
//   - a sort order computed from which sortable tables a key column can reference,
//   - for every table, the columns elsewhere that can reference its rows.
package schema

import (
	"fmt"

	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/token"
)

// Table describes one metadata table.
type Table struct {
	Type    format.TableType
	Columns []Column
	// SortKeys are column indexes compared in order; empty when the table is not sorted.
	SortKeys []int
	// Pointer is the pointer table of this table, format.TableNone if it has none.
	Pointer format.TableType
	// PointerOf is the table a pointer table indirects, format.TableNone otherwise.
	PointerOf format.TableType
}

// ColumnRef addresses one column of one table.
type ColumnRef struct {
	Table  format.TableType
	Column int
}

func (r ColumnRef) String() string {
	return fmt.Sprintf("%s.%s", r.Table, Of(r.Table).Columns[r.Column].Name)
}

var (
	tables     [format.TableCount]*Table
	referrers  [format.TableCount][]ColumnRef
	sortOrder  []format.TableType
	sortedMask uint64
)

func init() {
	for i, cols := range definitions {
		tables[i] = &Table{
			Type:      format.TableType(i), //nolint:gosec
			Columns:   cols,
			Pointer:   format.TableNone,
			PointerOf: format.TableNone,
		}
	}

	for t, keys := range sortKeys {
		tables[t].SortKeys = keys
		sortedMask |= t.Bit()
	}

	for ptr, target := range pointerTables {
		tables[target].Pointer = ptr
		tables[ptr].PointerOf = target
	}

	for _, tbl := range tables {
		for ci, col := range tbl.Columns {
			for target := range referrers {
				if col.References(format.TableType(target)) { //nolint:gosec
					referrers[target] = append(referrers[target], ColumnRef{Table: tbl.Type, Column: ci})
				}
			}
		}
	}

	sortOrder = computeSortOrder()
}

// Of returns the schema of table t.
//
// Panics if t is not a defined table.
func Of(t format.TableType) *Table {
	if !t.Valid() {
		panic(fmt.Sprintf("schema: invalid table %s", t))
	}

	return tables[t]
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.Type.String()
}

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}

	return -1
}

// Sortable reports whether the format requires the table to be key-sorted.
func (t *Table) Sortable() bool {
	return len(t.SortKeys) > 0
}

// HasPointer reports whether the table has a pointer table.
func (t *Table) HasPointer() bool {
	return t.Pointer != format.TableNone
}

// IsPointer reports whether the table is a pointer table.
func (t *Table) IsPointer() bool {
	return t.PointerOf != format.TableNone
}

// Referrers returns every column, in canonical table order, whose values can
// reference rows of table target. The returned slice must not be modified.
func Referrers(target format.TableType) []ColumnRef {
	return referrers[target]
}

// SortOrder returns the sortable tables in the order they must be sorted:
// a table is sorted after every sortable table its key columns can reference.
func SortOrder() []format.TableType {
	return append([]format.TableType(nil), sortOrder...)
}

// SortedMask returns the sorted-table bitmask of a fully sorted table stream.
func SortedMask() uint64 {
	return sortedMask
}

// PointerTables returns the tables that have a pointer table, in canonical order.
func PointerTables() []format.TableType {
	out := make([]format.TableType, 0, len(pointerTables))
	for _, t := range tables {
		if t.HasPointer() {
			out = append(out, t.Type)
		}
	}

	return out
}

// computeSortOrder topologically orders the sortable tables by key-column
// dependencies. Ties keep canonical table order.
func computeSortOrder() []format.TableType {
	deps := make(map[format.TableType]map[format.TableType]bool)
	var pending []format.TableType
	for _, t := range tables {
		if !t.Sortable() {
			continue
		}
		pending = append(pending, t.Type)
		deps[t.Type] = make(map[format.TableType]bool)
		for _, k := range t.SortKeys {
			col := t.Columns[k]
			for _, other := range tables {
				if other.Type != t.Type && other.Sortable() && col.References(other.Type) {
					deps[t.Type][other.Type] = true
				}
			}
		}
	}

	order := make([]format.TableType, 0, len(pending))
	done := make(map[format.TableType]bool)
	for len(pending) > 0 {
		progressed := false
		for i, t := range pending {
			ready := true
			for d := range deps[t] {
				if !done[d] {
					ready = false
					break
				}
			}
			if ready {
				order = append(order, t)
				done[t] = true
				pending = append(pending[:i], pending[i+1:]...)
				progressed = true

				break
			}
		}
		if !progressed {
			panic("schema: cyclic sort key dependencies")
		}
	}

	return order
}

var pointerTables = map[format.TableType]format.TableType{
	format.TableFieldPtr:    format.TableField,
	format.TableMethodPtr:   format.TableMethodDef,
	format.TableParamPtr:    format.TableParam,
	format.TableEventPtr:    format.TableEvent,
	format.TablePropertyPtr: format.TableProperty,
}

var sortKeys = map[format.TableType][]int{
	format.TableInterfaceImpl:          {0},
	format.TableConstant:               {1},
	format.TableCustomAttribute:        {0},
	format.TableFieldMarshal:           {0},
	format.TableDeclSecurity:           {1},
	format.TableClassLayout:            {2},
	format.TableFieldLayout:            {1},
	format.TableMethodSemantics:        {2},
	format.TableMethodImpl:             {0},
	format.TableImplMap:                {1},
	format.TableFieldRVA:               {1},
	format.TableNestedClass:            {0},
	format.TableGenericParam:           {2, 0},
	format.TableGenericParamConstraint: {0},
}

var definitions = [format.TableCount][]Column{
	format.TableModule: {
		u16("Generation"), str("Name"), guid("Mvid"), guid("EncId"), guid("EncBaseId"),
	},
	format.TableTypeRef: {
		coded("ResolutionScope", token.ResolutionScope), str("TypeName"), str("TypeNamespace"),
	},
	format.TableTypeDef: {
		u32("Flags"), str("TypeName"), str("TypeNamespace"), coded("Extends", token.TypeDefOrRef),
		list("FieldList", format.TableField), list("MethodList", format.TableMethodDef),
	},
	format.TableFieldPtr: {
		index("Field", format.TableField),
	},
	format.TableField: {
		u16("Flags"), str("Name"), blob("Signature"),
	},
	format.TableMethodPtr: {
		index("Method", format.TableMethodDef),
	},
	format.TableMethodDef: {
		u32("RVA"), u16("ImplFlags"), u16("Flags"), str("Name"), blob("Signature"),
		list("ParamList", format.TableParam),
	},
	format.TableParamPtr: {
		index("Param", format.TableParam),
	},
	format.TableParam: {
		u16("Flags"), u16("Sequence"), str("Name"),
	},
	format.TableInterfaceImpl: {
		index("Class", format.TableTypeDef), coded("Interface", token.TypeDefOrRef),
	},
	format.TableMemberRef: {
		coded("Class", token.MemberRefParent), str("Name"), blob("Signature"),
	},
	format.TableConstant: {
		u8pair("Type"), coded("Parent", token.HasConstant), blob("Value"),
	},
	format.TableCustomAttribute: {
		coded("Parent", token.HasCustomAttribute), coded("Type", token.CustomAttributeType), blob("Value"),
	},
	format.TableFieldMarshal: {
		coded("Parent", token.HasFieldMarshal), blob("NativeType"),
	},
	format.TableDeclSecurity: {
		u16("Action"), coded("Parent", token.HasDeclSecurity), blob("PermissionSet"),
	},
	format.TableClassLayout: {
		u16("PackingSize"), u32("ClassSize"), index("Parent", format.TableTypeDef),
	},
	format.TableFieldLayout: {
		u32("Offset"), index("Field", format.TableField),
	},
	format.TableStandAloneSig: {
		blob("Signature"),
	},
	format.TableEventMap: {
		index("Parent", format.TableTypeDef), list("EventList", format.TableEvent),
	},
	format.TableEventPtr: {
		index("Event", format.TableEvent),
	},
	format.TableEvent: {
		u16("EventFlags"), str("Name"), coded("EventType", token.TypeDefOrRef),
	},
	format.TablePropertyMap: {
		index("Parent", format.TableTypeDef), list("PropertyList", format.TableProperty),
	},
	format.TablePropertyPtr: {
		index("Property", format.TableProperty),
	},
	format.TableProperty: {
		u16("PropFlags"), str("Name"), blob("Type"),
	},
	format.TableMethodSemantics: {
		u16("Semantic"), index("Method", format.TableMethodDef), coded("Association", token.HasSemantics),
	},
	format.TableMethodImpl: {
		index("Class", format.TableTypeDef), coded("MethodBody", token.MethodDefOrRef),
		coded("MethodDeclaration", token.MethodDefOrRef),
	},
	format.TableModuleRef: {
		str("Name"),
	},
	format.TableTypeSpec: {
		blob("Signature"),
	},
	format.TableImplMap: {
		u16("MappingFlags"), coded("MemberForwarded", token.MemberForwarded), str("ImportName"),
		index("ImportScope", format.TableModuleRef),
	},
	format.TableFieldRVA: {
		u32("RVA"), index("Field", format.TableField),
	},
	format.TableEncLog: {
		u32("Token"), u32("FuncCode"),
	},
	format.TableEncMap: {
		u32("Token"),
	},
	format.TableAssembly: {
		u32("HashAlgId"), u16("MajorVersion"), u16("MinorVersion"), u16("BuildNumber"),
		u16("RevisionNumber"), u32("Flags"), blob("PublicKey"), str("Name"), str("Culture"),
	},
	format.TableAssemblyProcessor: {
		u32("Processor"),
	},
	format.TableAssemblyOS: {
		u32("OSPlatformId"), u32("OSMajorVersion"), u32("OSMinorVersion"),
	},
	format.TableAssemblyRef: {
		u16("MajorVersion"), u16("MinorVersion"), u16("BuildNumber"), u16("RevisionNumber"),
		u32("Flags"), blob("PublicKeyOrToken"), str("Name"), str("Culture"), blob("HashValue"),
	},
	format.TableAssemblyRefProcessor: {
		u32("Processor"), index("AssemblyRef", format.TableAssemblyRef),
	},
	format.TableAssemblyRefOS: {
		u32("OSPlatformId"), u32("OSMajorVersion"), u32("OSMinorVersion"),
		index("AssemblyRef", format.TableAssemblyRef),
	},
	format.TableFile: {
		u32("Flags"), str("Name"), blob("HashValue"),
	},
	format.TableExportedType: {
		u32("Flags"), u32("TypeDefId"), str("TypeName"), str("TypeNamespace"),
		coded("Implementation", token.Implementation),
	},
	format.TableManifestResource: {
		u32("Offset"), u32("Flags"), str("Name"), coded("Implementation", token.Implementation),
	},
	format.TableNestedClass: {
		index("NestedClass", format.TableTypeDef), index("EnclosingClass", format.TableTypeDef),
	},
	format.TableGenericParam: {
		u16("Number"), u16("Flags"), coded("Owner", token.TypeOrMethodDef), str("Name"),
	},
	format.TableMethodSpec: {
		coded("Method", token.MethodDefOrRef), blob("Instantiation"),
	},
	format.TableGenericParamConstraint: {
		index("Owner", format.TableGenericParam), coded("Constraint", token.TypeDefOrRef),
	},
}
