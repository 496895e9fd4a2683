package types

import (
	"reflect"

	"github.com/wippyai/vb6-binary/schema"
)

// CompiledType binds a schema type to the Go type that holds its values.
type CompiledType struct {
	GoType   reflect.Type
	Schema   *schema.Type
	ElemType *CompiledType
	Fields   []Field
	Kind     Kind
}

// Field binds one schema field to a Go struct field.
type Field struct {
	Type     *CompiledType
	Name     string
	GoName   string
	GoIndex  int
	Index    int
	Size     int
	ElemSize int
}

func (ct *CompiledType) IsPrimitive() bool {
	return ct.Kind.IsPrimitive()
}

// IsArray reports whether a list is held in a Go array rather than a slice.
func (ct *CompiledType) IsArray() bool {
	return ct.Kind == KindList && ct.GoType.Kind() == reflect.Array
}

// IsMatrix reports whether ct is a list whose elements are lists.
func (ct *CompiledType) IsMatrix() bool {
	return ct.Kind == KindList && ct.ElemType != nil && ct.ElemType.Kind == KindList
}
