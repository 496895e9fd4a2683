// Package transpose converts two-dimensional fixed arrays between the
// row-major order values are encoded in and the column-major order the
// legacy wire format stores them in.
//
// The transform works in place by cycle following, keeping one bit per
// element to mark positions already placed.
//
// This package is internal to the transcoder.
package transpose
