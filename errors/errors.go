package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseCompile Phase = "compile" // schema to Go type binding
	PhaseEncode  Phase = "encode"  // Go to bytes
	PhaseDecode  Phase = "decode"  // bytes to Go
	PhaseSchema  Phase = "schema"  // schema construction and parsing
)

// Kind categorizes the error
type Kind string

const (
	KindValueTooLong     Kind = "value_too_long"
	KindMissingCapacity  Kind = "missing_capacity"
	KindUnsupportedShape Kind = "unsupported_shape"
	KindTruncated        Kind = "truncated"
	KindTypeMismatch     Kind = "type_mismatch"
	KindInvalidData      Kind = "invalid_data"
	KindNilPointer       Kind = "nil_pointer"
	KindIO               Kind = "io"
)

// Sentinels match any Error of the same Kind regardless of phase.
var (
	ErrValueTooLong     = &Error{Kind: KindValueTooLong}
	ErrMissingCapacity  = &Error{Kind: KindMissingCapacity}
	ErrUnsupportedShape = &Error{Kind: KindUnsupportedShape}
	ErrTruncated        = &Error{Kind: KindTruncated}
	ErrTypeMismatch     = &Error{Kind: KindTypeMismatch}
	ErrInvalidData      = &Error{Kind: KindInvalidData}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value      any
	Cause      error
	Phase      Phase
	Kind       Kind
	GoType     string
	SchemaType string
	Detail     string
	Path       []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.SchemaType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.SchemaType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", schema type ")
			b.WriteString(e.SchemaType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("schema type ")
			b.WriteString(e.SchemaType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.SchemaType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a phase
// matches on kind alone, which is how the sentinels work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// SchemaType sets the schema type name
func (b *Builder) SchemaType(t string) *Builder {
	b.err.SchemaType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// ValueTooLong reports a string or collection larger than its capacity
func ValueTooLong(phase Phase, path []string, actual, capacity int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindValueTooLong,
		Path:   path,
		Detail: fmt.Sprintf("size %d exceeds capacity %d", actual, capacity),
		Value:  actual,
	}
}

// MissingCapacity reports a field that needs a fixed size and has none
func MissingCapacity(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMissingCapacity,
		Path:   path,
		Detail: detail,
	}
}

// UnsupportedShape reports a kind or structure without a codec path
func UnsupportedShape(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupportedShape,
		Path:   path,
		Detail: detail,
	}
}

// Truncated reports an input that ended before a field was complete
func Truncated(phase Phase, path []string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTruncated,
		Path:   path,
		Detail: "unexpected end of input",
		Cause:  cause,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, schemaType string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindTypeMismatch,
		Path:       path,
		GoType:     goType,
		SchemaType: schemaType,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "nil pointer",
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, path []string, cause error) *Error {
	return &Error{
		Phase: phase,
		Kind:  kind,
		Path:  path,
		Cause: cause,
	}
}
