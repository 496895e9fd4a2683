// Package schema describes fixed-layout records as ordered field lists.
//
// A Type is a scalar, a string, a collection (List) or a Record. Records
// carry their fields in wire order; a field may declare a capacity (Size)
// and an element byte width (ElemSize). Types may also carry a type-level
// capacity, which is how element types such as string*2 or the inner
// dimension of [3][5]int16 are sized.
//
// Schemas come from three producers:
//
//   - constructors: RecordOf, ListOf, String and the scalar singletons
//   - Go structs: FromGoType reads `vb6:"..."` tags
//   - YAML documents: ParseYAML / LoadFile, with type expressions
//     parsed by ParseType
//
// GoType goes the other way and builds a Go type for a schema, so YAML
// schemas can be decoded without hand-written structs.
package schema
