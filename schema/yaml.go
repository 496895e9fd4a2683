package schema

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/vb6-binary/errors"
)

// File is a parsed YAML schema document:
//
//	charset: windows-1255
//	string_pad: " "
//	empty_string_pad: 0
//	strict: false
//	root: Customer
//	records:
//	  Customer:
//	    - {name: id, type: int32}
//	    - {name: name, type: "string*20"}
//	    - {name: codes, type: "[]string", size: 4, elem_size: 2}
//	    - {name: grid, type: "[3][5]int16"}
//	    - {name: home, type: Address}
//	  Address:
//	    - {name: street, type: "string*30"}
//	sizes:
//	  - {record: Address, field: street, size: 40}
//
// sizes entries become a size resolver; field is a name or an index.
type File struct {
	Records map[string]*Type
	Root    *Type
	Sizes   map[SizeKey]int
	Options Options
}

// Options holds codec settings carried by a schema document. Nil pad
// pointers and an empty charset mean "use the codec default".
type Options struct {
	StringPad      *byte
	EmptyStringPad *byte
	Charset        string
	Strict         bool
}

// SizeKey identifies a field for size resolution.
type SizeKey struct {
	Record string
	Field  int
}

// Resolve implements the size resolver signature over File.Sizes.
func (f *File) Resolve(record string, field int) (int, bool) {
	n, ok := f.Sizes[SizeKey{Record: record, Field: field}]
	return n, ok
}

// RecordNames returns the record names in sorted order.
func (f *File) RecordNames() []string {
	names := make([]string, 0, len(f.Records))
	for name := range f.Records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type fileDoc struct {
	StringPad      *padByte              `yaml:"string_pad"`
	EmptyStringPad *padByte              `yaml:"empty_string_pad"`
	Records        map[string][]fieldDoc `yaml:"records"`
	Charset        string                `yaml:"charset"`
	Root           string                `yaml:"root"`
	Sizes          []sizeDoc             `yaml:"sizes"`
	Strict         bool                  `yaml:"strict"`
}

type fieldDoc struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Size     int    `yaml:"size"`
	ElemSize int    `yaml:"elem_size"`
}

type sizeDoc struct {
	Record string   `yaml:"record"`
	Field  fieldRef `yaml:"field"`
	Size   int      `yaml:"size"`
}

// padByte accepts a one-byte string (" ") or an integer (0, 0x20).
type padByte byte

func (p *padByte) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: pad byte must be a scalar", value.Line)
	}
	if value.Tag == "!!int" {
		n, err := strconv.ParseUint(value.Value, 0, 8)
		if err != nil {
			return fmt.Errorf("line %d: pad byte %q: %w", value.Line, value.Value, err)
		}
		*p = padByte(n)
		return nil
	}
	if len(value.Value) != 1 {
		return fmt.Errorf("line %d: pad byte %q must be a single byte", value.Line, value.Value)
	}
	*p = padByte(value.Value[0])
	return nil
}

// fieldRef is a field name or a field index.
type fieldRef struct {
	name  string
	index int
}

func (r *fieldRef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: field must be a name or an index", value.Line)
	}
	if value.Tag == "!!int" {
		n, err := strconv.Atoi(value.Value)
		if err != nil || n < 0 {
			return fmt.Errorf("line %d: bad field index %q", value.Line, value.Value)
		}
		r.index = n
		return nil
	}
	r.name = value.Value
	r.index = -1
	return nil
}

// LoadFile reads and parses a YAML schema file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is chosen by the caller
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML parses a YAML schema document. Unknown keys are rejected.
func ParseYAML(data []byte) (*File, error) {
	var doc fileDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.InvalidData(errors.PhaseSchema, nil, "empty schema document")
		}
		return nil, errors.Wrap(errors.PhaseSchema, errors.KindInvalidData, nil, err)
	}
	if len(doc.Records) == 0 {
		return nil, errors.InvalidData(errors.PhaseSchema, nil, "schema declares no records")
	}

	f := &File{
		Records: make(map[string]*Type, len(doc.Records)),
		Sizes:   make(map[SizeKey]int, len(doc.Sizes)),
		Options: Options{
			Charset: doc.Charset,
			Strict:  doc.Strict,
		},
	}
	if doc.StringPad != nil {
		b := byte(*doc.StringPad)
		f.Options.StringPad = &b
	}
	if doc.EmptyStringPad != nil {
		b := byte(*doc.EmptyStringPad)
		f.Options.EmptyStringPad = &b
	}

	// Shells first so records may reference each other in any order.
	for name := range doc.Records {
		if _, isScalar := LookupScalar(name); isScalar || name == "string" {
			return nil, errors.InvalidData(errors.PhaseSchema, []string{name}, "record name shadows a builtin type")
		}
		f.Records[name] = &Type{Kind: KindRecord, Name: name}
	}
	lookup := func(name string) (*Type, bool) {
		t, ok := f.Records[name]
		return t, ok
	}
	for _, name := range f.RecordNames() {
		rec := f.Records[name]
		for i, fd := range doc.Records[name] {
			ft, err := ParseType(fd.Type, lookup)
			if err != nil {
				return nil, withPath(err, name, fieldLabel(fd.Name, i))
			}
			rec.Fields = append(rec.Fields, Field{
				Name:     fd.Name,
				Type:     ft,
				Size:     fd.Size,
				ElemSize: fd.ElemSize,
			})
		}
	}
	for _, name := range f.RecordNames() {
		if err := f.Records[name].Validate(); err != nil {
			return nil, withPath(err, name)
		}
	}

	for i, sd := range doc.Sizes {
		rec, ok := f.Records[sd.Record]
		if !ok {
			return nil, errors.InvalidData(errors.PhaseSchema, []string{"sizes", strconv.Itoa(i)}, "unknown record "+strconv.Quote(sd.Record))
		}
		idx := sd.Field.index
		if sd.Field.name != "" {
			idx = rec.FieldIndex(sd.Field.name)
		}
		if idx < 0 || idx >= len(rec.Fields) {
			return nil, errors.InvalidData(errors.PhaseSchema, []string{"sizes", strconv.Itoa(i)}, "unknown field in record "+sd.Record)
		}
		if sd.Size <= 0 {
			return nil, errors.InvalidData(errors.PhaseSchema, []string{"sizes", strconv.Itoa(i)}, "size must be positive")
		}
		f.Sizes[SizeKey{Record: sd.Record, Field: idx}] = sd.Size
	}

	switch {
	case doc.Root != "":
		root, ok := f.Records[doc.Root]
		if !ok {
			return nil, errors.InvalidData(errors.PhaseSchema, nil, "unknown root record "+strconv.Quote(doc.Root))
		}
		f.Root = root
	case len(f.Records) == 1:
		for _, rec := range f.Records {
			f.Root = rec
		}
	default:
		return nil, errors.InvalidData(errors.PhaseSchema, nil, "several records and no root")
	}
	return f, nil
}

func fieldLabel(name string, i int) string {
	if name == "" {
		return "[" + strconv.Itoa(i) + "]"
	}
	return name
}

func withPath(err error, prefix ...string) error {
	var e *errors.Error
	if stderrors.As(err, &e) {
		e.Path = append(append([]string{}, prefix...), e.Path...)
		return e
	}
	return err
}
