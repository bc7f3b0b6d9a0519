// Package errs defines the sentinel errors shared by all mdtable packages.
//
// Errors fall into three groups:
//
//   - Malformed input: ErrInvalidFormat and its more specific relatives (ErrTruncated,
//     ErrInvalidSignature, ...). They are returned by readers, always wrapped with the
//     stream, table, row or column involved so the corrupt region can be located.
//   - Caller misuse: ErrRIDOutOfRange, ErrColumnOutOfRange, ErrInvalidLength and friends.
//     They are returned immediately and never clamped.
//   - Protocol misuse: ErrFixupsPending when an image is consumed before its second pass.
//
// Callers should test with errors.Is; messages carry the context.
package errs

import "errors"

// Malformed input.
var (
	// ErrInvalidFormat is the umbrella error for malformed metadata.
	ErrInvalidFormat = errors.New("bad metadata format")
	// ErrTruncated reports a read past the end of the available bytes.
	ErrTruncated = formatErr("truncated data")
	// ErrInvalidSignature reports a metadata root that does not start with "BSJB".
	ErrInvalidSignature = formatErr("invalid metadata signature")
	// ErrInvalidStreamHeader reports a stream header that points outside the metadata.
	ErrInvalidStreamHeader = formatErr("invalid stream header")
	// ErrMissingTableStream reports metadata without a "#~" or "#-" stream.
	ErrMissingTableStream = formatErr("missing table stream")
	// ErrUnknownTable reports a presence bit for a table the schema does not define.
	ErrUnknownTable = formatErr("unknown table")
	// ErrInvalidHeapOffset reports a heap reference outside the heap or a malformed entry.
	ErrInvalidHeapOffset = formatErr("invalid heap offset")
	// ErrInvalidCompressedInt reports a malformed variable-width length integer.
	ErrInvalidCompressedInt = formatErr("invalid compressed integer")
	// ErrChecksumMismatch reports a snapshot whose payload does not match its checksum.
	ErrChecksumMismatch = formatErr("checksum mismatch")
)

// Caller misuse.
var (
	ErrInvalidTable        = errors.New("invalid table type")
	ErrRIDOutOfRange       = errors.New("row id out of range")
	ErrColumnOutOfRange    = errors.New("column index out of range")
	ErrInvalidLength       = errors.New("invalid length")
	ErrValueOverflow       = errors.New("value does not fit column width")
	ErrTableNotInCodedKind = errors.New("table is not a candidate of coded token kind")
	ErrNotSortable         = errors.New("table is not sortable")
	ErrNoPointerTable      = errors.New("table has no pointer table")
	ErrInvalidHeapValue    = errors.New("invalid heap value")
	ErrInvalidOption       = errors.New("invalid option")
	// ErrProfileMismatch reports a profile computed from row counts other than the tables'.
	ErrProfileMismatch = errors.New("profile does not match table row counts")
)

// Two-pass protocol.
var (
	// ErrFixupsPending is returned when a built image is consumed before its fixups are applied.
	ErrFixupsPending = errors.New("image has unapplied fixups")
	// ErrUnresolvedFixup is returned when a fixup key has no resolved value.
	ErrUnresolvedFixup = errors.New("unresolved fixup")
	// ErrDuplicateFixup is returned when the same cell is deferred twice.
	ErrDuplicateFixup = errors.New("duplicate fixup")
)

// formatError is a malformed-input error that also matches ErrInvalidFormat.
type formatError struct {
	msg string
}

func (e *formatError) Error() string { return e.msg }

func (e *formatError) Is(target error) bool { return target == ErrInvalidFormat }

func formatErr(msg string) error {
	return &formatError{msg: "bad metadata format: " + msg}
}
