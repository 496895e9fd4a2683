package schema

import (
	"strconv"
	"strings"

	"github.com/wippyai/vb6-binary/errors"
)

// Type describes the wire shape of a value.
//
// Size is a type-level capacity: the byte width of a fixed string or the
// element count of a fixed collection. ElemSize overrides the byte width of
// each list element. Both are zero when undeclared; a Field may declare
// them instead.
type Type struct {
	Elem     *Type
	Name     string
	Fields   []Field
	Size     int
	ElemSize int
	Kind     Kind
}

// Field is one named slot of a record. Field order is the wire order.
type Field struct {
	Type     *Type
	Name     string
	Size     int
	ElemSize int
}

// Scalar singletons. Treat them as read-only.
var (
	Bool = &Type{Kind: KindBool}
	U8   = &Type{Kind: KindU8}
	S8   = &Type{Kind: KindS8}
	U16  = &Type{Kind: KindU16}
	S16  = &Type{Kind: KindS16}
	U32  = &Type{Kind: KindU32}
	S32  = &Type{Kind: KindS32}
	U64  = &Type{Kind: KindU64}
	S64  = &Type{Kind: KindS64}
	F32  = &Type{Kind: KindF32}
	F64  = &Type{Kind: KindF64}
	Char = &Type{Kind: KindChar}
)

var scalarSingletons = [...]*Type{
	KindBool: Bool,
	KindU8:   U8,
	KindS8:   S8,
	KindU16:  U16,
	KindS16:  S16,
	KindU32:  U32,
	KindS32:  S32,
	KindU64:  U64,
	KindS64:  S64,
	KindF32:  F32,
	KindF64:  F64,
	KindChar: Char,
}

// Scalar returns the singleton for a scalar kind, or nil.
func Scalar(k Kind) *Type {
	if !k.IsScalar() {
		return nil
	}
	return scalarSingletons[k]
}

// String returns a string type. size 0 means variable length.
func String(size int) *Type {
	return &Type{Kind: KindString, Size: size}
}

// ListOf returns a collection of elem with the given capacity (0 if the
// capacity is declared on the field or by a resolver).
func ListOf(elem *Type, size int) *Type {
	return &Type{Kind: KindList, Elem: elem, Size: size}
}

// RecordOf returns a record type. name identifies the record to size resolvers.
func RecordOf(name string, fields ...Field) *Type {
	return &Type{Kind: KindRecord, Name: name, Fields: fields}
}

// NewField returns a field without declared sizes.
func NewField(name string, t *Type) Field {
	return Field{Name: name, Type: t}
}

// WithSize returns a copy of f with a declared capacity.
func (f Field) WithSize(n int) Field {
	f.Size = n
	return f
}

// WithElemSize returns a copy of f with a declared element byte width.
func (f Field) WithElemSize(n int) Field {
	f.ElemSize = n
	return f
}

// FieldIndex returns the position of the named field, or -1.
func (t *Type) FieldIndex(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Depth returns the number of nested list levels starting at t.
func (t *Type) Depth() int {
	d := 0
	for cur := t; cur != nil && cur.Kind == KindList; cur = cur.Elem {
		d++
	}
	return d
}

// String renders t as a type expression, the same syntax ParseType accepts.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	var b strings.Builder
	t.write(&b)
	return b.String()
}

var exprNames = [...]string{
	KindBool: "bool",
	KindU8:   "uint8",
	KindS8:   "int8",
	KindU16:  "uint16",
	KindS16:  "int16",
	KindU32:  "uint32",
	KindS32:  "int32",
	KindU64:  "uint64",
	KindS64:  "int64",
	KindF32:  "float32",
	KindF64:  "float64",
	KindChar: "char",
}

func (t *Type) write(b *strings.Builder) {
	switch {
	case t.Kind.IsScalar():
		b.WriteString(exprNames[t.Kind])
	case t.Kind == KindString:
		b.WriteString("string")
		if t.Size > 0 {
			b.WriteByte('*')
			b.WriteString(strconv.Itoa(t.Size))
		}
	case t.Kind == KindList:
		b.WriteByte('[')
		if t.Size > 0 {
			b.WriteString(strconv.Itoa(t.Size))
		}
		b.WriteByte(']')
		if t.Elem == nil {
			b.WriteString("<nil>")
			return
		}
		t.Elem.write(b)
	case t.Kind == KindRecord:
		if t.Name != "" {
			b.WriteString(t.Name)
		} else {
			b.WriteString("record")
		}
	default:
		b.WriteString(t.Kind.String())
	}
}

// Validate checks the structure of t: known kinds, list elements, field
// types, non-negative sizes, unique field names and the absence of cycles.
func (t *Type) Validate() error {
	return validate(t, nil, map[*Type]bool{})
}

func validate(t *Type, path []string, active map[*Type]bool) error {
	if t == nil {
		return errors.InvalidData(errors.PhaseSchema, path, "nil type")
	}
	if t.Size < 0 || t.ElemSize < 0 {
		return errors.InvalidData(errors.PhaseSchema, path, "negative size on "+t.String())
	}
	switch {
	case t.Kind.IsScalar(), t.Kind == KindString:
		return nil
	case t.Kind == KindList:
		return validate(t.Elem, appendPath(path, "[elem]"), active)
	case t.Kind == KindRecord:
		if active[t] {
			return errors.InvalidData(errors.PhaseSchema, path, "recursive record "+t.String())
		}
		active[t] = true
		defer delete(active, t)

		seen := make(map[string]bool, len(t.Fields))
		for i, f := range t.Fields {
			name := f.Name
			if name == "" {
				name = "[" + strconv.Itoa(i) + "]"
			} else if seen[name] {
				return errors.InvalidData(errors.PhaseSchema, path, "duplicate field "+name)
			}
			seen[name] = true
			if f.Size < 0 || f.ElemSize < 0 {
				return errors.InvalidData(errors.PhaseSchema, appendPath(path, name), "negative size")
			}
			if err := validate(f.Type, appendPath(path, name), active); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.InvalidData(errors.PhaseSchema, path, "unknown kind "+t.Kind.String())
	}
}

func appendPath(path []string, elem string) []string {
	return append(append(make([]string, 0, len(path)+1), path...), elem)
}
