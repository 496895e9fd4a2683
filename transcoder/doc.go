// Package transcoder encodes Go values to legacy fixed-layout binary
// records and decodes them back, driven by a schema.Type.
//
// # Wire Format
//
// Every value is written in field order with no headers, tags or
// alignment. Multi-byte numbers are little-endian:
//
//	Type            Size
//	─────────────────────────────────────────
//	bool            1 (decodes non-zero as true)
//	u8/s8           1
//	u16/s16         2
//	u32/s32/f32     4
//	u64/s64/f64     8
//	char            1 (one byte in the charset)
//	string*N        N (charset bytes, right-padded)
//	string          2 + n (little-endian count, then bytes)
//	[M]T            M * E
//	[M][C]T         M * C * E (stored column by column)
//	record          sum of fields
//
// A fixed string holds its bytes followed by StringPad; an empty one is N
// bytes of EmptyStringPad. Decoding cuts at the first zero byte and trims
// trailing StringPad.
//
// # Capacities
//
// Strings and collections take their capacity from, in order: the
// Config.SizeResolver, the field's Size, the type's own Size. A string
// without one is variable; a collection without one fails with
// errors.ErrMissingCapacity. Each element occupies E bytes: the field's
// ElemSize, the list type's ElemSize, the element's intrinsic width, or the
// width measured from the elements themselves. Unused slots are
// zero-filled.
//
// # Key Types
//
//	Codec     - Encoder and Decoder sharing one Config
//	Encoder   - Writes Go values to an io.Writer or stream.Writer
//	Decoder   - Reads Go values from an io.Reader or stream.Reader
//	Compiler  - Binds schema types to Go types, cached
//
// # Truncated Input
//
// Input that ends exactly between two fields ends the record and leaves
// the remaining fields zero. With Config.StrictTruncation it is an error.
// Input that ends inside a field is always errors.ErrTruncated, and the
// decode target is left unchanged.
package transcoder
