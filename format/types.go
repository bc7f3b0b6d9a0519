package format

import "strconv"

type (
	// TableType identifies one of the metadata tables. The numeric value is the
	// table's bit position in the presence/sorted masks and the high byte of a
	// metadata token.
	TableType uint8
	// HeapKind identifies one of the four metadata heaps.
	HeapKind uint8
	// CompressionType identifies the codec used for a persisted snapshot.
	CompressionType uint8
)

const (
	TableModule                 TableType = 0x00
	TableTypeRef                TableType = 0x01
	TableTypeDef                TableType = 0x02
	TableFieldPtr               TableType = 0x03
	TableField                  TableType = 0x04
	TableMethodPtr              TableType = 0x05
	TableMethodDef              TableType = 0x06
	TableParamPtr               TableType = 0x07
	TableParam                  TableType = 0x08
	TableInterfaceImpl          TableType = 0x09
	TableMemberRef              TableType = 0x0A
	TableConstant               TableType = 0x0B
	TableCustomAttribute        TableType = 0x0C
	TableFieldMarshal           TableType = 0x0D
	TableDeclSecurity           TableType = 0x0E
	TableClassLayout            TableType = 0x0F
	TableFieldLayout            TableType = 0x10
	TableStandAloneSig          TableType = 0x11
	TableEventMap               TableType = 0x12
	TableEventPtr               TableType = 0x13
	TableEvent                  TableType = 0x14
	TablePropertyMap            TableType = 0x15
	TablePropertyPtr            TableType = 0x16
	TableProperty               TableType = 0x17
	TableMethodSemantics        TableType = 0x18
	TableMethodImpl             TableType = 0x19
	TableModuleRef              TableType = 0x1A
	TableTypeSpec               TableType = 0x1B
	TableImplMap                TableType = 0x1C
	TableFieldRVA               TableType = 0x1D
	TableEncLog                 TableType = 0x1E
	TableEncMap                 TableType = 0x1F
	TableAssembly               TableType = 0x20
	TableAssemblyProcessor      TableType = 0x21
	TableAssemblyOS             TableType = 0x22
	TableAssemblyRef            TableType = 0x23
	TableAssemblyRefProcessor   TableType = 0x24
	TableAssemblyRefOS          TableType = 0x25
	TableFile                   TableType = 0x26
	TableExportedType           TableType = 0x27
	TableManifestResource       TableType = 0x28
	TableNestedClass            TableType = 0x29
	TableGenericParam           TableType = 0x2A
	TableMethodSpec             TableType = 0x2B
	TableGenericParamConstraint TableType = 0x2C

	// TableCount is the number of tables defined by the format.
	TableCount = 45

	// TableNone marks an unused selector slot in a coded token candidate list.
	TableNone TableType = 0xFF
)

var tableNames = [TableCount]string{
	"Module", "TypeRef", "TypeDef", "FieldPtr", "Field", "MethodPtr", "MethodDef",
	"ParamPtr", "Param", "InterfaceImpl", "MemberRef", "Constant", "CustomAttribute",
	"FieldMarshal", "DeclSecurity", "ClassLayout", "FieldLayout", "StandAloneSig",
	"EventMap", "EventPtr", "Event", "PropertyMap", "PropertyPtr", "Property",
	"MethodSemantics", "MethodImpl", "ModuleRef", "TypeSpec", "ImplMap", "FieldRVA",
	"EncLog", "EncMap", "Assembly", "AssemblyProcessor", "AssemblyOS", "AssemblyRef",
	"AssemblyRefProcessor", "AssemblyRefOS", "File", "ExportedType", "ManifestResource",
	"NestedClass", "GenericParam", "MethodSpec", "GenericParamConstraint",
}

// Valid reports whether t is one of the defined tables.
func (t TableType) Valid() bool {
	return t < TableCount
}

// Bit returns the table's bit in the presence and sorted masks.
func (t TableType) Bit() uint64 {
	return uint64(1) << t
}

func (t TableType) String() string {
	if t.Valid() {
		return tableNames[t]
	}
	if t == TableNone {
		return "None"
	}

	return "Table(0x" + strconv.FormatUint(uint64(t), 16) + ")"
}

// ParseTableType resolves a table name (case-sensitive) or a numeric table id.
func ParseTableType(name string) (TableType, bool) {
	for i, n := range tableNames {
		if n == name {
			return TableType(i), true //nolint:gosec
		}
	}

	v, err := strconv.ParseUint(name, 0, 8)
	if err != nil || v >= TableCount {
		return 0, false
	}

	return TableType(v), true
}

// AllTables returns every table in canonical (stream) order.
func AllTables() []TableType {
	out := make([]TableType, TableCount)
	for i := range out {
		out[i] = TableType(i) //nolint:gosec
	}

	return out
}

const (
	HeapStrings     HeapKind = 0x0 // HeapStrings is the "#Strings" heap of null-terminated UTF-8.
	HeapGUID        HeapKind = 0x1 // HeapGUID is the "#GUID" heap of 16-byte records.
	HeapBlob        HeapKind = 0x2 // HeapBlob is the "#Blob" heap of length-prefixed bytes.
	HeapUserStrings HeapKind = 0x3 // HeapUserStrings is the "#US" heap of length-prefixed UTF-16.

	// HeapCount is the number of heaps.
	HeapCount = 4
)

func (h HeapKind) String() string {
	switch h {
	case HeapStrings:
		return StreamStrings
	case HeapGUID:
		return StreamGUID
	case HeapBlob:
		return StreamBlob
	case HeapUserStrings:
		return StreamUserStrings
	default:
		return "Unknown"
	}
}

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompressionType resolves a codec name as accepted on the command line.
func ParseCompressionType(name string) (CompressionType, bool) {
	switch name {
	case "none", "None":
		return CompressionNone, true
	case "zstd", "Zstd":
		return CompressionZstd, true
	case "s2", "S2":
		return CompressionS2, true
	case "lz4", "LZ4":
		return CompressionLZ4, true
	default:
		return 0, false
	}
}
