package schema

import (
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/wippyai/vb6-binary/errors"
)

var goTypeCache sync.Map // *Type -> reflect.Type

var scalarGoTypes = [...]reflect.Type{
	KindBool: reflect.TypeOf(false),
	KindU8:   reflect.TypeOf(uint8(0)),
	KindS8:   reflect.TypeOf(int8(0)),
	KindU16:  reflect.TypeOf(uint16(0)),
	KindS16:  reflect.TypeOf(int16(0)),
	KindU32:  reflect.TypeOf(uint32(0)),
	KindS32:  reflect.TypeOf(int32(0)),
	KindU64:  reflect.TypeOf(uint64(0)),
	KindS64:  reflect.TypeOf(int64(0)),
	KindF32:  reflect.TypeOf(float32(0)),
	KindF64:  reflect.TypeOf(float64(0)),
	KindChar: reflect.TypeOf(rune(0)),
}

// GoType builds a Go type able to hold values of t, for schemas that have
// no hand-written struct (YAML documents). Records become structs with
// exported field names and json tags carrying the schema field names;
// collections become slices.
func GoType(t *Type) (reflect.Type, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return goType(t)
}

func goType(t *Type) (reflect.Type, error) {
	if cached, ok := goTypeCache.Load(t); ok {
		return cached.(reflect.Type), nil
	}

	var rt reflect.Type
	switch {
	case t.Kind.IsScalar():
		rt = scalarGoTypes[t.Kind]
	case t.Kind == KindString:
		rt = reflect.TypeOf("")
	case t.Kind == KindList:
		elem, err := goType(t.Elem)
		if err != nil {
			return nil, err
		}
		rt = reflect.SliceOf(elem)
	case t.Kind == KindRecord:
		fields := make([]reflect.StructField, 0, len(t.Fields))
		used := make(map[string]bool, len(t.Fields))
		for i, f := range t.Fields {
			ft, err := goType(f.Type)
			if err != nil {
				return nil, err
			}
			name := exportedName(f.Name, i, used)
			tag := `json:"` + jsonName(f.Name, i) + `" ` + TagName + `:"` + jsonName(f.Name, i) + `"`
			fields = append(fields, reflect.StructField{
				Name: name,
				Type: ft,
				Tag:  reflect.StructTag(tag),
			})
		}
		rt = reflect.StructOf(fields)
	default:
		return nil, errors.UnsupportedShape(errors.PhaseSchema, nil, "no Go type for kind "+t.Kind.String())
	}

	actual, _ := goTypeCache.LoadOrStore(t, rt)
	return actual.(reflect.Type), nil
}

// IsGenerated reports whether goType is the type GoType built for t. Its
// fields line up with t.Fields by position.
func IsGenerated(t *Type, goType reflect.Type) bool {
	cached, ok := goTypeCache.Load(t)
	return ok && cached.(reflect.Type) == goType
}

func jsonName(name string, i int) string {
	if name == "" || name == "-" {
		return "field" + strconv.Itoa(i)
	}
	return strings.Map(func(r rune) rune {
		if r == '"' || r == ',' || r == '`' {
			return '_'
		}
		return r
	}, name)
}

// exportedName turns a schema field name into a unique exported Go identifier.
func exportedName(name string, i int, used map[string]bool) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	id := b.String()
	if id == "" || !unicode.IsUpper([]rune(id)[0]) {
		id = "F" + id
	}
	if used[id] {
		id += "_" + strconv.Itoa(i)
	}
	used[id] = true
	return id
}
