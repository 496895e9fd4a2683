// Package layout computes wire widths and field offsets for schema types.
//
// Widths follow the legacy fixed record rules:
//   - Scalars: an explicit width table (bool, u8, s8 and char are 1 byte,
//     16/32/64-bit integers and floats are 2/4/8 bytes)
//   - Fixed strings: their capacity in bytes
//   - Fixed collections: capacity times element width
//   - Records: the sum of their fields, with no alignment padding
//
// Variable strings and collections without a resolved capacity have no
// fixed width; every record containing one is variable too.
//
// # Usage
//
//	calc := layout.NewCalculator(resolver)
//	info := calc.Record(recordType)
//	// info.Size, info.Fixed, info.Fields[i].Offset available
//
// This package is internal to the transcoder.
package layout
