package transcoder

import (
	"reflect"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/vb6-binary/errors"
	"github.com/wippyai/vb6-binary/schema"
)

// Compiler binds schema types to Go types. It is safe for concurrent use
// and caches every binding it produces.
type Compiler struct {
	log   *zap.Logger // nil means the package logger
	cache sync.Map    // cacheKey -> *CompiledType
}

type cacheKey struct {
	goType reflect.Type
	schema *schema.Type
}

func NewCompiler() *Compiler {
	return &Compiler{}
}

// NewCompilerWithLogger returns a Compiler that logs to log.
func NewCompilerWithLogger(log *zap.Logger) *Compiler {
	return &Compiler{log: log}
}

func (c *Compiler) logger() *zap.Logger {
	if c.log != nil {
		return c.log
	}
	return Logger()
}

var kindOf = [...]TypeKind{
	schema.KindBool:   KindBool,
	schema.KindU8:     KindU8,
	schema.KindS8:     KindS8,
	schema.KindU16:    KindU16,
	schema.KindS16:    KindS16,
	schema.KindU32:    KindU32,
	schema.KindS32:    KindS32,
	schema.KindU64:    KindU64,
	schema.KindS64:    KindS64,
	schema.KindF32:    KindF32,
	schema.KindF64:    KindF64,
	schema.KindChar:   KindChar,
	schema.KindString: KindString,
	schema.KindList:   KindList,
	schema.KindRecord: KindRecord,
}

func (c *Compiler) Compile(t *schema.Type, goType reflect.Type) (*CompiledType, error) {
	if t == nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindNilPointer).
			Detail("schema type cannot be nil").
			Build()
	}
	if goType == nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindNilPointer).
			Detail("Go type cannot be nil").
			Build()
	}

	key := cacheKey{schema: t, goType: goType}
	if cached, ok := c.cache.Load(key); ok {
		return cached.(*CompiledType), nil
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	ct, err := c.compile(t, goType, nil)
	if err != nil {
		return nil, err
	}

	actual, loaded := c.cache.LoadOrStore(key, ct)
	if !loaded {
		c.logger().Debug("compiled binding",
			zap.Stringer("schema", t),
			zap.Stringer("go_type", goType))
	}
	return actual.(*CompiledType), nil
}

func (c *Compiler) compile(t *schema.Type, goType reflect.Type, path []string) (*CompiledType, error) {
	switch {
	case t.Kind.IsScalar():
		return c.compilePrimitive(t, goType, path)
	case t.Kind == schema.KindString:
		return c.compileString(t, goType, path)
	case t.Kind == schema.KindList:
		return c.compileList(t, goType, path)
	case t.Kind == schema.KindRecord:
		return c.compileRecord(t, goType, path)
	default:
		return nil, errors.New(errors.PhaseCompile, errors.KindUnsupportedShape).
			Path(path...).
			Detail("unsupported schema kind: %s", t.Kind).
			Build()
	}
}

func (c *Compiler) compilePrimitive(t *schema.Type, goType reflect.Type, path []string) (*CompiledType, error) {
	kind := kindOf[t.Kind]
	if err := c.validatePrimitive(kind, goType, path); err != nil {
		return nil, err
	}

	return &CompiledType{
		GoType: goType,
		Schema: t,
		Kind:   kind,
	}, nil
}

func (c *Compiler) validatePrimitive(kind TypeKind, goType reflect.Type, path []string) error {
	var valid bool
	var expected string

	switch kind {
	case KindBool:
		valid = goType.Kind() == reflect.Bool
		expected = "bool"
	case KindU8:
		valid = goType.Kind() == reflect.Uint8
		expected = "uint8"
	case KindS8:
		valid = goType.Kind() == reflect.Int8
		expected = "int8"
	case KindU16:
		valid = goType.Kind() == reflect.Uint16
		expected = "uint16"
	case KindS16:
		valid = goType.Kind() == reflect.Int16
		expected = "int16"
	case KindU32:
		valid = goType.Kind() == reflect.Uint32
		expected = "uint32"
	case KindS32:
		valid = goType.Kind() == reflect.Int32
		expected = "int32"
	case KindU64:
		valid = goType.Kind() == reflect.Uint64
		expected = "uint64"
	case KindS64:
		valid = goType.Kind() == reflect.Int64
		expected = "int64"
	case KindF32:
		valid = goType.Kind() == reflect.Float32
		expected = "float32"
	case KindF64:
		valid = goType.Kind() == reflect.Float64
		expected = "float64"
	case KindChar:
		valid = goType.Kind() == reflect.Int32 || goType.Kind() == reflect.Uint32
		expected = "int32 (rune)"
	}

	if !valid {
		return errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), expected)
	}
	return nil
}

func (c *Compiler) compileString(t *schema.Type, goType reflect.Type, path []string) (*CompiledType, error) {
	if goType.Kind() != reflect.String {
		return nil, errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), t.String())
	}

	return &CompiledType{
		GoType: goType,
		Schema: t,
		Kind:   KindString,
	}, nil
}

func (c *Compiler) compileList(t *schema.Type, goType reflect.Type, path []string) (*CompiledType, error) {
	if goType.Kind() != reflect.Slice && goType.Kind() != reflect.Array {
		return nil, errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "slice or array")
	}

	elemPath := append(append([]string{}, path...), "[elem]")
	elemType, err := c.compile(t.Elem, goType.Elem(), elemPath)
	if err != nil {
		return nil, err
	}

	return &CompiledType{
		GoType:   goType,
		Schema:   t,
		ElemType: elemType,
		Kind:     KindList,
	}, nil
}

func (c *Compiler) compileRecord(t *schema.Type, goType reflect.Type, path []string) (*CompiledType, error) {
	if goType.Kind() != reflect.Struct {
		return nil, errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "struct")
	}

	// Types built by schema.GoType hold the fields in schema order.
	generated := schema.IsGenerated(t, goType)

	fields := make([]CompiledField, 0, len(t.Fields))
	for i, sf := range t.Fields {
		var (
			goField reflect.StructField
			found   bool
		)
		if generated {
			goField, found = goType.Field(i), true
		} else {
			goField, found = c.findGoField(goType, sf.Name)
		}
		if !found {
			return nil, errors.New(errors.PhaseCompile, errors.KindTypeMismatch).
				Path(path...).
				GoType(goType.String()).
				SchemaType(t.String()).
				Detail("no Go field for schema field %q", sf.Name).
				Build()
		}

		fieldPath := append(append([]string{}, path...), sf.Name)
		fieldType, err := c.compile(sf.Type, goField.Type, fieldPath)
		if err != nil {
			return nil, err
		}

		fields = append(fields, CompiledField{
			Name:     sf.Name,
			GoName:   goField.Name,
			GoIndex:  goField.Index[0],
			Index:    i,
			Size:     sf.Size,
			ElemSize: sf.ElemSize,
			Type:     fieldType,
		})
	}

	return &CompiledType{
		GoType: goType,
		Schema: t,
		Fields: fields,
		Kind:   KindRecord,
	}, nil
}

// findGoField matches by: 1) vb6:"name" tag, 2) case-insensitive, 3) ignoring '_', '-' and spaces.
func (c *Compiler) findGoField(goType reflect.Type, name string) (reflect.StructField, bool) {
	for i := 0; i < goType.NumField(); i++ {
		field := goType.Field(i)
		if !field.IsExported() {
			continue
		}

		if tag := field.Tag.Get(schema.TagName); tag != "" {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				if tagName == name {
					return field, true
				}
				continue
			}
		}

		if strings.EqualFold(field.Name, name) {
			return field, true
		}

		if strings.EqualFold(field.Name, squash(name)) {
			return field, true
		}
	}
	return reflect.StructField{}, false
}

func squash(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ':
			return -1
		}
		return r
	}, s)
}
