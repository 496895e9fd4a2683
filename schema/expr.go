package schema

import (
	"strconv"
	"strings"

	"github.com/wippyai/vb6-binary/errors"
)

// Lookup resolves a record name used in a type expression.
type Lookup func(name string) (*Type, bool)

// ParseType parses a type expression:
//
//	int16            scalar (Go, short or VB6 name)
//	string           variable-length string
//	string*10        fixed string of 10 bytes
//	[5]int16         collection of 5 elements
//	[]int16          collection sized by the field or a resolver
//	[3][5]int16      collection of collections
//	Address          record, resolved through lookup
//
// lookup may be nil when no record names are expected.
func ParseType(expr string, lookup Lookup) (*Type, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return nil, errors.InvalidData(errors.PhaseSchema, nil, "empty type expression")
	}

	if s[0] == '[' {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return nil, invalidExpr(expr, "unterminated '['")
		}
		size := 0
		if n := strings.TrimSpace(s[1:end]); n != "" {
			v, err := strconv.Atoi(n)
			if err != nil || v <= 0 {
				return nil, invalidExpr(expr, "bad collection capacity "+strconv.Quote(n))
			}
			size = v
		}
		elem, err := ParseType(s[end+1:], lookup)
		if err != nil {
			return nil, err
		}
		return ListOf(elem, size), nil
	}

	if base, size, ok := strings.Cut(s, "*"); ok {
		if !strings.EqualFold(strings.TrimSpace(base), "string") {
			return nil, invalidExpr(expr, "only strings take a '*' width")
		}
		v, err := strconv.Atoi(strings.TrimSpace(size))
		if err != nil || v <= 0 {
			return nil, invalidExpr(expr, "bad string width "+strconv.Quote(size))
		}
		return String(v), nil
	}

	if strings.EqualFold(s, "string") {
		return String(0), nil
	}
	if k, ok := LookupScalar(s); ok {
		return Scalar(k), nil
	}
	if lookup != nil {
		if t, ok := lookup(s); ok {
			return t, nil
		}
	}
	return nil, invalidExpr(expr, "unknown type "+strconv.Quote(s))
}

func invalidExpr(expr, detail string) error {
	return errors.New(errors.PhaseSchema, errors.KindInvalidData).
		SchemaType(expr).
		Detail("%s", detail).
		Build()
}
