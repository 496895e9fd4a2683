package schema

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/wippyai/vb6-binary/errors"
)

// TagName is the struct tag read by FromGoType.
//
//	type Customer struct {
//		ID     int32
//		Name   string    `vb6:"name,size=20"`
//		Scores []int16   `vb6:",size=6"`
//		Codes  []string  `vb6:",size=4,elem=2"`
//		Grid   [3][5]int16
//		Rows   [][]int16 `vb6:",size=3,inner=5"`
//		Grade  rune      `vb6:",char"`
//		Cache  string    `vb6:"-"`
//	}
//
// size is the field capacity, elem the element byte width, inner the
// capacity of each element (fixed string width or inner collection size)
// and char marks an int32 as a single charset character.
const TagName = "vb6"

var structCache sync.Map // reflect.Type -> *Type

// FromGoType derives a record schema from a Go struct type. Results are
// cached per type, so the same *Type is returned for the same struct.
func FromGoType(goType reflect.Type) (*Type, error) {
	if goType == nil {
		return nil, errors.New(errors.PhaseSchema, errors.KindNilPointer).
			Detail("Go type cannot be nil").
			Build()
	}
	for goType.Kind() == reflect.Ptr {
		goType = goType.Elem()
	}
	if goType.Kind() != reflect.Struct {
		return nil, errors.TypeMismatch(errors.PhaseSchema, nil, goType.String(), "struct")
	}
	if cached, ok := structCache.Load(goType); ok {
		return cached.(*Type), nil
	}

	t, err := fromStruct(goType, nil, map[reflect.Type]bool{})
	if err != nil {
		return nil, err
	}
	actual, _ := structCache.LoadOrStore(goType, t)
	return actual.(*Type), nil
}

type tagOptions struct {
	name  string
	size  int
	elem  int
	inner int
	char  bool
	skip  bool
}

func parseTag(tag string, path []string) (tagOptions, error) {
	var opts tagOptions
	if tag == "-" {
		opts.skip = true
		return opts, nil
	}
	parts := strings.Split(tag, ",")
	opts.name = strings.TrimSpace(parts[0])
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == "char" {
			opts.char = true
			continue
		}
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return opts, errors.InvalidData(errors.PhaseSchema, path, "unknown tag option "+strconv.Quote(part))
		}
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			return opts, errors.InvalidData(errors.PhaseSchema, path, "tag option "+key+" needs a positive integer")
		}
		switch key {
		case "size":
			opts.size = n
		case "elem":
			opts.elem = n
		case "inner":
			opts.inner = n
		default:
			return opts, errors.InvalidData(errors.PhaseSchema, path, "unknown tag option "+strconv.Quote(key))
		}
	}
	return opts, nil
}

func fromStruct(goType reflect.Type, path []string, active map[reflect.Type]bool) (*Type, error) {
	if cached, ok := structCache.Load(goType); ok {
		return cached.(*Type), nil
	}
	if active[goType] {
		return nil, errors.UnsupportedShape(errors.PhaseSchema, path, "recursive struct "+goType.String())
	}
	active[goType] = true
	defer delete(active, goType)

	rec := &Type{Kind: KindRecord, Name: goType.Name()}
	for i := 0; i < goType.NumField(); i++ {
		sf := goType.Field(i)
		if !sf.IsExported() {
			continue
		}
		fieldPath := appendPath(path, sf.Name)
		opts, err := parseTag(sf.Tag.Get(TagName), fieldPath)
		if err != nil {
			return nil, err
		}
		if opts.skip {
			continue
		}

		ft, err := fromGo(sf.Type, opts.char, fieldPath, active)
		if err != nil {
			return nil, err
		}
		if opts.inner > 0 {
			if ft.Kind != KindList {
				return nil, errors.InvalidData(errors.PhaseSchema, fieldPath, "inner applies to collections only")
			}
			if ft.Elem.Kind != KindString && ft.Elem.Kind != KindList {
				return nil, errors.InvalidData(errors.PhaseSchema, fieldPath, "inner needs string or collection elements")
			}
			elem := *ft.Elem
			elem.Size = opts.inner
			list := *ft
			list.Elem = &elem
			ft = &list
		}

		name := opts.name
		if name == "" {
			name = sf.Name
		}
		rec.Fields = append(rec.Fields, Field{
			Name:     name,
			Type:     ft,
			Size:     opts.size,
			ElemSize: opts.elem,
		})
	}
	return rec, nil
}

func fromGo(goType reflect.Type, char bool, path []string, active map[reflect.Type]bool) (*Type, error) {
	if char && goType.Kind() != reflect.Int32 && goType.Kind() != reflect.Uint32 {
		return nil, errors.TypeMismatch(errors.PhaseSchema, path, goType.String(), "int32 (rune)")
	}

	switch goType.Kind() {
	case reflect.Bool:
		return Bool, nil
	case reflect.Uint8:
		return U8, nil
	case reflect.Int8:
		return S8, nil
	case reflect.Uint16:
		return U16, nil
	case reflect.Int16:
		return S16, nil
	case reflect.Uint32:
		if char {
			return Char, nil
		}
		return U32, nil
	case reflect.Int32:
		if char {
			return Char, nil
		}
		return S32, nil
	case reflect.Uint64:
		return U64, nil
	case reflect.Int64:
		return S64, nil
	case reflect.Float32:
		return F32, nil
	case reflect.Float64:
		return F64, nil
	case reflect.String:
		return String(0), nil
	case reflect.Slice:
		elem, err := fromGo(goType.Elem(), false, appendPath(path, "[elem]"), active)
		if err != nil {
			return nil, err
		}
		return ListOf(elem, 0), nil
	case reflect.Array:
		elem, err := fromGo(goType.Elem(), false, appendPath(path, "[elem]"), active)
		if err != nil {
			return nil, err
		}
		return ListOf(elem, goType.Len()), nil
	case reflect.Struct:
		return fromStruct(goType, path, active)
	default:
		return nil, errors.UnsupportedShape(errors.PhaseSchema, path, "no fixed layout for Go type "+goType.String())
	}
}
