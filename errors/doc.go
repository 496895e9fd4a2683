// Package errors provides structured error types for the vb6-binary codec.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go/schema type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindValueTooLong).
//		Path("customer", "name").
//		SchemaType("string*10").
//		Detail("value needs 12 bytes, capacity is 10").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.ValueTooLong(errors.PhaseEncode, path, 12, 10)
//	err := errors.Truncated(errors.PhaseDecode, path, cause)
//
// Every Kind has a sentinel usable with the standard library:
//
//	if errors.Is(err, vb6errors.ErrValueTooLong) { ... }
package errors
