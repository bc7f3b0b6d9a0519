package heap

import (
	"bytes"
	"fmt"

	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/format"
	"github.com/google/uuid"
)

// The functions below read one entry straight from raw heap stream bytes.
// They back the Get methods and serve readers that never copy the heaps.

// StringAt returns the NUL-terminated string starting at off in a #Strings stream.
func StringAt(data []byte, off uint32) (string, error) {
	if off == 0 && len(data) == 0 {
		return "", nil
	}
	if int64(off) >= int64(len(data)) {
		return "", fmt.Errorf("%w: #Strings offset %#x, heap size %#x", errs.ErrInvalidHeapOffset, off, len(data))
	}

	end := bytes.IndexByte(data[off:], 0)
	if end < 0 {
		return "", fmt.Errorf("%w: #Strings entry at %#x is not terminated", errs.ErrInvalidHeapOffset, off)
	}

	return string(data[off : int(off)+end]), nil
}

// BlobAt returns the blob at off in a #Blob stream. The result aliases data.
func BlobAt(data []byte, off uint32) ([]byte, error) {
	payload, _, err := entry(data, off, "#Blob")
	return payload, err
}

// UserStringAt returns the string at off in a #US stream.
func UserStringAt(data []byte, off uint32) (string, error) {
	payload, _, err := entry(data, off, "#US")
	if err != nil {
		return "", err
	}

	return decodeUTF16(payload), nil
}

// GUIDAt returns the GUID at the 1-based index idx in a #GUID stream.
// Index 0 is uuid.Nil.
func GUIDAt(data []byte, idx uint32) (uuid.UUID, error) {
	if idx == 0 {
		return uuid.Nil, nil
	}
	count := len(data) / format.GUIDSize
	if int64(idx) > int64(count) {
		return uuid.Nil, fmt.Errorf("%w: #GUID index %d, heap has %d records", errs.ErrInvalidHeapOffset, idx, count)
	}

	start := (int(idx) - 1) * format.GUIDSize

	return fromRecord(data[start : start+format.GUIDSize]), nil
}
