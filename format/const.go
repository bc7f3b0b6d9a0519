package format

// Metadata root and stream constants.
const (
	// Signature is the metadata root magic "BSJB" read as a little-endian uint32.
	Signature uint32 = 0x424A5342

	DefaultMajorVersion  uint16 = 1
	DefaultMinorVersion  uint16 = 1
	DefaultVersionString        = "v4.0.30319"

	// Table stream schema version written by default.
	DefaultSchemaMajor uint8 = 2
	DefaultSchemaMinor uint8 = 0

	StreamTablesOptimized   = "#~"
	StreamTablesUnoptimized = "#-"
	StreamStrings           = "#Strings"
	StreamUserStrings       = "#US"
	StreamGUID              = "#GUID"
	StreamBlob              = "#Blob"

	// GUIDSize is the size of one #GUID heap record.
	GUIDSize = 16

	// WideThreshold is the row count or heap size from which a reference needs 4 bytes.
	WideThreshold = 1 << 16
)

// Heap size flag bits of the table stream header.
const (
	HeapFlagWideStrings uint8 = 0x01
	HeapFlagWideGUID    uint8 = 0x02
	HeapFlagWideBlob    uint8 = 0x04
	HeapFlagPadding     uint8 = 0x20
	HeapFlagExtraData   uint8 = 0x40
	HeapFlagHasDelete   uint8 = 0x80
)
