package schema

import "strings"

// Kind identifies the wire shape of a Type.
type Kind uint8

const (
	KindBool Kind = iota
	KindU8
	KindS8
	KindU16
	KindS16
	KindU32
	KindS32
	KindU64
	KindS64
	KindF32
	KindF64
	KindChar
	KindString
	KindList
	KindRecord
)

var kindNames = [...]string{
	KindBool:   "bool",
	KindU8:     "u8",
	KindS8:     "s8",
	KindU16:    "u16",
	KindS16:    "s16",
	KindU32:    "u32",
	KindS32:    "s32",
	KindU64:    "u64",
	KindS64:    "s64",
	KindF32:    "f32",
	KindF64:    "f64",
	KindChar:   "char",
	KindString: "string",
	KindList:   "list",
	KindRecord: "record",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsScalar reports whether k has a fixed intrinsic width.
func (k Kind) IsScalar() bool {
	return k <= KindChar
}

// scalarNames maps type-expression names to scalar kinds. VB6 names are
// accepted alongside the Go and short forms. VB6 Boolean is deliberately
// absent: it is two bytes wide in the runtime, one byte here.
var scalarNames = map[string]Kind{
	"bool":    KindBool,
	"u8":      KindU8,
	"uint8":   KindU8,
	"byte":    KindU8,
	"s8":      KindS8,
	"int8":    KindS8,
	"u16":     KindU16,
	"uint16":  KindU16,
	"s16":     KindS16,
	"int16":   KindS16,
	"integer": KindS16,
	"u32":     KindU32,
	"uint32":  KindU32,
	"s32":     KindS32,
	"int32":   KindS32,
	"long":    KindS32,
	"u64":     KindU64,
	"uint64":  KindU64,
	"s64":     KindS64,
	"int64":   KindS64,
	"f32":     KindF32,
	"float32": KindF32,
	"single":  KindF32,
	"f64":     KindF64,
	"float64": KindF64,
	"double":  KindF64,
	"char":    KindChar,
}

// LookupScalar returns the scalar kind for a type-expression name.
func LookupScalar(name string) (Kind, bool) {
	k, ok := scalarNames[strings.ToLower(name)]
	return k, ok
}
