// Package types defines the compiled bindings used by the transcoder.
//
// CompiledType pairs a schema type with the Go type that holds its values,
// with struct fields resolved once at compile time. The encoder and decoder
// walk compiled bindings instead of re-matching names on every call.
//
// # Key Types
//
//   - CompiledType: schema type, Go type, element and field bindings
//   - Kind: wire shape discriminator (scalar, string, list, record)
//
// This package is internal to the transcoder.
package types
