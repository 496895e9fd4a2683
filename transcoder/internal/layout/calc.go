package layout

import (
	"math"
	"sync"

	"github.com/wippyai/vb6-binary/schema"
)

const (
	MaxCapacity = 1 << 27 // 128M elements or bytes in one field
	MaxWidth    = 1 << 30 // 1 GB in one fixed block
)

var scalarWidths = [...]int{
	schema.KindBool: 1,
	schema.KindU8:   1,
	schema.KindS8:   1,
	schema.KindU16:  2,
	schema.KindS16:  2,
	schema.KindU32:  4,
	schema.KindS32:  4,
	schema.KindU64:  8,
	schema.KindS64:  8,
	schema.KindF32:  4,
	schema.KindF64:  8,
	schema.KindChar: 1,
}

// ScalarWidth returns the wire width of a scalar kind, or 0.
func ScalarWidth(k schema.Kind) int {
	if !k.IsScalar() {
		return 0
	}
	return scalarWidths[k]
}

// Resolver overrides the capacity of a record field. Non-positive results
// are ignored.
type Resolver func(record string, field int) (int, bool)

// Info describes the wire footprint of a type.
type Info struct {
	Fields []FieldInfo
	Size   int
	Fixed  bool
}

// FieldInfo describes one record field. Offset is -1 once a preceding
// field has no fixed width; Size is 0 when the field itself has none.
type FieldInfo struct {
	Name     string
	Type     string
	Offset   int
	Size     int
	Capacity int
	ElemSize int
	Fixed    bool
}

// Calculator computes wire widths for schema types under one size resolver.
// It is safe for concurrent use.
type Calculator struct {
	resolve Resolver
	cache   sync.Map // *schema.Type -> Info
}

func NewCalculator(resolve Resolver) *Calculator {
	return &Calculator{resolve: resolve}
}

// FieldCapacity resolves the capacity of field i of rec: the resolver, then
// the field declaration, then the field type's own size. Zero means none.
func (c *Calculator) FieldCapacity(rec *schema.Type, i int) int {
	if c.resolve != nil {
		if n, ok := c.resolve(rec.Name, i); ok && n > 0 {
			return n
		}
	}
	f := rec.Fields[i]
	if f.Size > 0 {
		return f.Size
	}
	return f.Type.Size
}

// ElemWidth resolves the byte width of each element of list: the override,
// then the list type's ElemSize, then the element type's intrinsic width.
func (c *Calculator) ElemWidth(list *schema.Type, override int) (int, bool) {
	if override > 0 {
		return override, true
	}
	if list.ElemSize > 0 {
		return list.ElemSize, true
	}
	return c.Width(list.Elem, list.Elem.Size, 0)
}

// MatrixElemWidth resolves the byte width of the innermost elements of a
// two-dimensional list: the override, then the inner list's ElemSize, then
// the intrinsic width. Deeper nesting has no width.
func (c *Calculator) MatrixElemWidth(list *schema.Type, override int) (int, bool) {
	inner := list.Elem
	if inner.Elem.Kind == schema.KindList {
		return 0, false
	}
	if override > 0 {
		return override, true
	}
	return c.ElemWidth(inner, 0)
}

// Width returns the fixed wire width of t with the given resolved capacity
// and element width override. ok is false when the width depends on the value.
func (c *Calculator) Width(t *schema.Type, capacity, elemSize int) (int, bool) {
	switch {
	case t.Kind.IsScalar():
		return scalarWidths[t.Kind], true
	case t.Kind == schema.KindString:
		if capacity <= 0 {
			return 0, false
		}
		return capacity, true
	case t.Kind == schema.KindList:
		if capacity <= 0 {
			return 0, false
		}
		if t.Elem.Kind == schema.KindList {
			cols := t.Elem.Size
			e, ok := c.MatrixElemWidth(t, elemSize)
			if !ok || cols <= 0 {
				return 0, false
			}
			row, ok := SafeMul(cols, e)
			if !ok {
				return 0, false
			}
			return SafeMul(capacity, row)
		}
		e, ok := c.ElemWidth(t, elemSize)
		if !ok {
			return 0, false
		}
		return SafeMul(capacity, e)
	case t.Kind == schema.KindRecord:
		info := c.Record(t)
		return info.Size, info.Fixed
	default:
		return 0, false
	}
}

// Record lays out the fields of rec in wire order.
func (c *Calculator) Record(rec *schema.Type) Info {
	if cached, ok := c.cache.Load(rec); ok {
		return cached.(Info)
	}

	info := Info{Fixed: true, Fields: make([]FieldInfo, len(rec.Fields))}
	offset := 0
	for i, f := range rec.Fields {
		capacity := c.FieldCapacity(rec, i)
		w, fixed := c.Width(f.Type, capacity, f.ElemSize)
		fi := FieldInfo{
			Name:     f.Name,
			Type:     f.Type.String(),
			Offset:   -1,
			Capacity: capacity,
			ElemSize: f.ElemSize,
			Fixed:    fixed,
		}
		if info.Fixed {
			fi.Offset = offset
		}
		if fixed {
			fi.Size = w
			if next, ok := SafeAdd(offset, w); ok {
				offset = next
			} else {
				info.Fixed = false
			}
		} else {
			info.Fixed = false
		}
		info.Fields[i] = fi
	}
	if info.Fixed {
		info.Size = offset
	}

	actual, _ := c.cache.LoadOrStore(rec, info)
	return actual.(Info)
}

// SafeMul multiplies widths, failing past MaxWidth.
func SafeMul(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if b != 0 && a > math.MaxInt/b {
		return 0, false
	}
	p := a * b
	return p, p <= MaxWidth
}

// SafeAdd adds widths, failing past MaxWidth.
func SafeAdd(a, b int) (int, bool) {
	if a < 0 || b < 0 || a > math.MaxInt-b {
		return 0, false
	}
	s := a + b
	return s, s <= MaxWidth
}
