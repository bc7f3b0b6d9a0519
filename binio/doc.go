// Package binio provides seekable little-endian byte accessors.
//
// Reader walks an immutable byte slice and reports every out-of-bounds access
// as errs.ErrTruncated with the offending position. Writer writes into a
// pool.ByteBuffer at an arbitrary position, growing the buffer when a write
// passes its end; this lets a caller reserve a header, lay out what follows and
// come back to patch sizes or offsets.
//
// Both types track a single absolute position and are not safe for concurrent use.
package binio
