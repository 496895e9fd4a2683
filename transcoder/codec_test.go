package transcoder

import (
	"bytes"
	stderrors "errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/vb6-binary/errors"
	"github.com/wippyai/vb6-binary/schema"
	"github.com/wippyai/vb6-binary/stream"
)

func le16(vals ...int) []byte {
	out := make([]byte, 0, 2*len(vals))
	for _, v := range vals {
		out = append(out, byte(v), byte(v>>8))
	}
	return out
}

type named struct {
	Name string
}

func TestFixedString(t *testing.T) {
	rec := schema.RecordOf("R", schema.NewField("name", schema.String(10)))
	c := New(DefaultConfig())

	tests := []struct {
		in   string
		out  string
		want []byte
		name string
	}{
		{"Ala", "Ala", []byte("Ala       "), "padded"},
		{"", "", make([]byte, 10), "empty"},
		{"abcdefghij", "abcdefghij", []byte("abcdefghij"), "exact"},
		{"   ", "", []byte("          "), "all pad"},
		{"Ala ", "Ala", []byte("Ala       "), "trailing pad dropped"},
		{"שלום", "שלום", append([]byte{0xF9, 0xEC, 0xE5, 0xED}, []byte("      ")...), "hebrew"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := c.Marshal(rec, named{Name: tt.in})
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if !bytes.Equal(data, tt.want) {
				t.Errorf("Marshal = % x, want % x", data, tt.want)
			}

			var got named
			if err := c.Unmarshal(data, rec, &got); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if got.Name != tt.out {
				t.Errorf("Unmarshal = %q, want %q", got.Name, tt.out)
			}
		})
	}
}

func TestFixedString_CustomPad(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StringPad = '.'
	cfg.EmptyStringPad = '#'
	c := New(cfg)
	rec := schema.RecordOf("R", schema.NewField("name", schema.String(6)))

	data, err := c.Marshal(rec, named{Name: "Ala"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Ala..." {
		t.Errorf("Marshal = %q, want %q", data, "Ala...")
	}

	data, err = c.Marshal(rec, named{})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "######" {
		t.Errorf("Marshal empty = %q, want %q", data, "######")
	}

	var got named
	if err := c.Unmarshal([]byte("Ala..."), rec, &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "Ala" {
		t.Errorf("Unmarshal = %q, want Ala", got.Name)
	}
}

type pair struct {
	Name string
	ID   int16
}

func TestFixedString_TooLong(t *testing.T) {
	rec := schema.RecordOf("R",
		schema.NewField("id", schema.S16),
		schema.NewField("name", schema.String(3)),
	)
	c := New(DefaultConfig())

	var buf bytes.Buffer
	n, err := c.Encode(&buf, rec, pair{ID: 1, Name: "abcd"})
	if !stderrors.Is(err, errors.ErrValueTooLong) {
		t.Fatalf("expected value too long, got %v", err)
	}
	if n != 2 || !bytes.Equal(buf.Bytes(), []byte{1, 0}) {
		t.Errorf("wrote %d bytes % x, want only the id", n, buf.Bytes())
	}

	var e *errors.Error
	if !stderrors.As(err, &e) || len(e.Path) != 1 || e.Path[0] != "name" {
		t.Errorf("error path = %v, want [name]", err)
	}
}

func TestVarString(t *testing.T) {
	rec := schema.RecordOf("R", schema.NewField("name", schema.String(0)))
	c := New(DefaultConfig())

	tests := []struct {
		in   string
		want []byte
	}{
		{"abc", []byte{0x03, 0x00, 'a', 'b', 'c'}},
		{"", []byte{0x00, 0x00}},
	}
	for _, tt := range tests {
		data, err := c.Marshal(rec, named{Name: tt.in})
		if err != nil {
			t.Fatalf("Marshal(%q): %v", tt.in, err)
		}
		if !bytes.Equal(data, tt.want) {
			t.Errorf("Marshal(%q) = % x, want % x", tt.in, data, tt.want)
		}
		var got named
		if err := c.Unmarshal(data, rec, &got); err != nil {
			t.Fatal(err)
		}
		if got.Name != tt.in {
			t.Errorf("round trip = %q, want %q", got.Name, tt.in)
		}
	}

	long := string(bytes.Repeat([]byte{'x'}, MaxVarString+1))
	if _, err := c.Marshal(rec, named{Name: long}); !stderrors.Is(err, errors.ErrValueTooLong) {
		t.Errorf("expected value too long for %d bytes, got %v", len(long), err)
	}
}

type scalars struct {
	Flag  bool
	U8    uint8
	S8    int8
	U16   uint16
	S16   int16
	U32   uint32
	S32   int32
	U64   uint64
	S64   int64
	F32   float32
	F64   float64
	Grade rune
}

func TestScalars_RoundTrip(t *testing.T) {
	rec := schema.RecordOf("Scalars",
		schema.NewField("flag", schema.Bool),
		schema.NewField("u8", schema.U8),
		schema.NewField("s8", schema.S8),
		schema.NewField("u16", schema.U16),
		schema.NewField("s16", schema.S16),
		schema.NewField("u32", schema.U32),
		schema.NewField("s32", schema.S32),
		schema.NewField("u64", schema.U64),
		schema.NewField("s64", schema.S64),
		schema.NewField("f32", schema.F32),
		schema.NewField("f64", schema.F64),
		schema.NewField("grade", schema.Char),
	)
	in := scalars{
		Flag: true, U8: 200, S8: -5, U16: 65000, S16: -2, U32: 4000000000,
		S32: -70000, U64: 1 << 60, S64: -1 << 40, F32: 1.5, F64: -2.25, Grade: 'א',
	}

	c := New(DefaultConfig())
	data, err := c.Marshal(rec, &in)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 44 {
		t.Fatalf("encoded %d bytes, want 44", len(data))
	}
	if data[0] != 1 || !bytes.Equal(data[5:7], []byte{0xFE, 0xFF}) || data[43] != 0xE0 {
		t.Errorf("unexpected bytes % x", data)
	}

	var out scalars
	if err := c.Unmarshal(data, rec, &out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestBool_NonZeroIsTrue(t *testing.T) {
	rec := schema.RecordOf("R", schema.NewField("flag", schema.Bool))
	var got struct{ Flag bool }
	if err := New(DefaultConfig()).Unmarshal([]byte{0x7F}, rec, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Flag {
		t.Error("non-zero byte should decode as true")
	}
}

func TestChar_Unrepresentable(t *testing.T) {
	rec := schema.RecordOf("R", schema.NewField("grade", schema.Char))
	_, err := New(DefaultConfig()).Marshal(rec, struct{ Grade rune }{'日'})
	if !stderrors.Is(err, errors.ErrInvalidData) {
		t.Errorf("expected invalid data, got %v", err)
	}
}

type values struct {
	Vals []int16
}

func TestList_ZeroFill(t *testing.T) {
	rec := schema.RecordOf("R", schema.NewField("vals", schema.ListOf(schema.S16, 0)).WithSize(6))
	c := New(DefaultConfig())

	data, err := c.Marshal(rec, values{Vals: []int16{1, 2, 3, 4}})
	if err != nil {
		t.Fatal(err)
	}
	if want := le16(1, 2, 3, 4, 0, 0); !bytes.Equal(data, want) {
		t.Errorf("Marshal = % x, want % x", data, want)
	}

	var got values
	if err := c.Unmarshal(data, rec, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int16{1, 2, 3, 4, 0, 0}, got.Vals); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestList_TooMany(t *testing.T) {
	rec := schema.RecordOf("R", schema.NewField("vals", schema.ListOf(schema.S16, 0)).WithSize(3))
	var buf bytes.Buffer
	n, err := New(DefaultConfig()).Encode(&buf, rec, values{Vals: []int16{1, 2, 3, 4}})
	if !stderrors.Is(err, errors.ErrValueTooLong) {
		t.Fatalf("expected value too long, got %v", err)
	}
	if n != 0 {
		t.Errorf("wrote %d bytes, want 0", n)
	}
}

func TestList_MissingCapacity(t *testing.T) {
	rec := schema.RecordOf("R", schema.NewField("vals", schema.ListOf(schema.S16, 0)))
	c := New(DefaultConfig())

	if _, err := c.Marshal(rec, values{Vals: []int16{1}}); !stderrors.Is(err, errors.ErrMissingCapacity) {
		t.Errorf("Marshal: expected missing capacity, got %v", err)
	}
	var got values
	if err := c.Unmarshal(le16(1), rec, &got); !stderrors.Is(err, errors.ErrMissingCapacity) {
		t.Errorf("Unmarshal: expected missing capacity, got %v", err)
	}
}

type span struct {
	A int16
	B int16
}

type spans struct {
	L []span
}

func TestList_ElemSizeNarrowerThanElement(t *testing.T) {
	spanType := schema.RecordOf("Span",
		schema.NewField("a", schema.S16),
		schema.NewField("b", schema.S16),
	)
	rec := schema.RecordOf("R", schema.NewField("l", schema.ListOf(spanType, 2)).WithElemSize(2))
	c := New(DefaultConfig())

	_, err := c.Marshal(rec, spans{L: []span{{1, 2}, {3, 4}}})
	if !stderrors.Is(err, errors.ErrUnsupportedShape) {
		t.Errorf("Marshal: expected unsupported shape, got %v", err)
	}

	var got spans
	if err := c.Unmarshal(le16(1, 3), rec, &got); !stderrors.Is(err, errors.ErrUnsupportedShape) {
		t.Errorf("Unmarshal: expected unsupported shape, got %v (value %+v)", err, got)
	}
	if got.L != nil {
		t.Errorf("Unmarshal modified the target: %+v", got)
	}

	narrowInts := schema.RecordOf("R", schema.NewField("l", schema.ListOf(schema.S32, 2)).WithElemSize(2))
	var ints struct{ L []int32 }
	if err := c.Unmarshal(le16(1, 2), narrowInts, &ints); !stderrors.Is(err, errors.ErrUnsupportedShape) {
		t.Errorf("scalar elements: expected unsupported shape, got %v", err)
	}

	matrix := schema.RecordOf("R", schema.NewField("l", schema.ListOf(schema.ListOf(schema.S16, 2), 2)).WithElemSize(1))
	if _, err := c.Marshal(matrix, struct{ L [][]int16 }{}); !stderrors.Is(err, errors.ErrUnsupportedShape) {
		t.Errorf("matrix elements: expected unsupported shape, got %v", err)
	}

	wider := schema.RecordOf("R", schema.NewField("l", schema.ListOf(spanType, 2)).WithElemSize(6))
	data, err := c.Marshal(wider, spans{L: []span{{1, 2}}})
	if err != nil {
		t.Fatal(err)
	}
	if want := append(le16(1, 2, 0), make([]byte, 6)...); !bytes.Equal(data, want) {
		t.Errorf("Marshal = % x, want % x", data, want)
	}
}

type codes struct {
	Codes []string
}

func TestList_StringElements(t *testing.T) {
	rec := schema.RecordOf("R",
		schema.NewField("codes", schema.ListOf(schema.String(0), 0)).WithSize(6).WithElemSize(2),
	)
	c := New(DefaultConfig())

	data, err := c.Marshal(rec, codes{Codes: []string{"A", "B", "C"}})
	if err != nil {
		t.Fatal(err)
	}
	want := append([]byte("A B C "), make([]byte, 6)...)
	if !bytes.Equal(data, want) {
		t.Errorf("Marshal = % x, want % x", data, want)
	}

	var got codes
	if err := c.Unmarshal(data, rec, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"A", "B", "C", "", "", ""}, got.Codes); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if _, err := c.Marshal(rec, codes{Codes: []string{"ABC"}}); !stderrors.Is(err, errors.ErrValueTooLong) {
		t.Errorf("expected value too long for a wide element, got %v", err)
	}
}

type item struct {
	Code string
}

type basket struct {
	Items []item
}

func TestList_MeasuredWidth(t *testing.T) {
	itemType := schema.RecordOf("Item", schema.NewField("code", schema.String(0)))
	rec := schema.RecordOf("Basket", schema.NewField("items", schema.ListOf(itemType, 3)))
	c := New(DefaultConfig())

	data, err := c.Marshal(rec, basket{Items: []item{{"ab"}, {"cd"}}})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{2, 0, 'a', 'b', 2, 0, 'c', 'd', 0, 0, 0, 0}
	if !bytes.Equal(data, want) {
		t.Errorf("Marshal = % x, want % x", data, want)
	}

	var got basket
	if err := c.Unmarshal(data, rec, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]item{{"ab"}, {"cd"}, {""}}, got.Items); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if _, err := c.Marshal(rec, basket{Items: []item{{"a"}, {"bcd"}}}); !stderrors.Is(err, errors.ErrUnsupportedShape) {
		t.Errorf("expected unsupported shape for uneven elements, got %v", err)
	}
	if _, err := c.Marshal(rec, basket{}); !stderrors.Is(err, errors.ErrMissingCapacity) {
		t.Errorf("expected missing capacity for an empty measured collection, got %v", err)
	}
}

type grid struct {
	Grid [][]int16
}

type gridArray struct {
	Grid [3][5]int16
}

// columnMajor returns the wire bytes of rows r = 0..2, cols c = 0..4 holding
// base[r] + c, stored column by column.
func columnMajor() []byte {
	base := []int{1, 11, 101}
	var vals []int
	for c := 0; c < 5; c++ {
		for r := 0; r < 3; r++ {
			vals = append(vals, base[r]+c)
		}
	}
	return le16(vals...)
}

func TestMatrix_Transpose(t *testing.T) {
	rec := schema.RecordOf("R", schema.NewField("grid", schema.ListOf(schema.ListOf(schema.S16, 5), 3)))
	c := New(DefaultConfig())

	in := grid{Grid: [][]int16{
		{1, 2, 3, 4, 5},
		{11, 12, 13, 14, 15},
		{101, 102, 103, 104, 105},
	}}
	data, err := c.Marshal(rec, in)
	if err != nil {
		t.Fatal(err)
	}
	prefix := []byte{0x01, 0x00, 0x0B, 0x00, 0x65, 0x00, 0x02, 0x00, 0x0C, 0x00, 0x66, 0x00}
	if !bytes.HasPrefix(data, prefix) {
		t.Errorf("Marshal starts % x, want % x", data[:len(prefix)], prefix)
	}
	if want := columnMajor(); !bytes.Equal(data, want) {
		t.Errorf("Marshal = % x, want % x", data, want)
	}

	var got grid
	if err := c.Unmarshal(data, rec, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	var arr gridArray
	if err := c.Unmarshal(data, rec, &arr); err != nil {
		t.Fatal(err)
	}
	if arr.Grid[2][4] != 105 || arr.Grid[1][0] != 11 {
		t.Errorf("array decode = %v", arr.Grid)
	}
}

func TestMatrix_Empty(t *testing.T) {
	rec := schema.RecordOf("R", schema.NewField("grid", schema.ListOf(schema.ListOf(schema.S16, 5), 3)))
	c := New(DefaultConfig())

	data, err := c.Marshal(rec, grid{})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, make([]byte, 30)) {
		t.Errorf("Marshal = % x, want 30 zero bytes", data)
	}

	var got grid
	if err := c.Unmarshal(data, rec, &got); err != nil {
		t.Fatal(err)
	}
	want := [][]int16{make([]int16, 5), make([]int16, 5), make([]int16, 5)}
	if diff := cmp.Diff(want, got.Grid); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestMatrix_PartialRows(t *testing.T) {
	rec := schema.RecordOf("R", schema.NewField("grid", schema.ListOf(schema.ListOf(schema.S16, 3), 2)))
	c := New(DefaultConfig())

	data, err := c.Marshal(rec, grid{Grid: [][]int16{{1, 2}}})
	if err != nil {
		t.Fatal(err)
	}
	// rows [1 2 0] and [0 0 0], column by column
	if want := le16(1, 0, 2, 0, 0, 0); !bytes.Equal(data, want) {
		t.Errorf("Marshal = % x, want % x", data, want)
	}

	if _, err := c.Marshal(rec, grid{Grid: [][]int16{{1, 2, 3, 4}}}); !stderrors.Is(err, errors.ErrValueTooLong) {
		t.Errorf("expected value too long for a wide row, got %v", err)
	}
}

func TestMatrix_Shapes(t *testing.T) {
	c := New(DefaultConfig())

	cube := schema.RecordOf("R", schema.NewField("cube",
		schema.ListOf(schema.ListOf(schema.ListOf(schema.S16, 2), 2), 2)))
	_, err := c.Marshal(cube, struct{ Cube [][][]int16 }{})
	if !stderrors.Is(err, errors.ErrUnsupportedShape) {
		t.Errorf("three dimensions: expected unsupported shape, got %v", err)
	}

	noInner := schema.RecordOf("R", schema.NewField("grid", schema.ListOf(schema.ListOf(schema.S16, 0), 3)))
	if _, err := c.Marshal(noInner, grid{}); !stderrors.Is(err, errors.ErrMissingCapacity) {
		t.Errorf("inner without capacity: expected missing capacity, got %v", err)
	}
}

func TestMatrix_ElemSizeOverride(t *testing.T) {
	rec := schema.RecordOf("R",
		schema.NewField("grid", schema.ListOf(schema.ListOf(schema.String(0), 2), 2)).WithElemSize(1),
	)
	c := New(DefaultConfig())

	in := struct{ Grid [][]string }{Grid: [][]string{{"a", "b"}, {"c", "d"}}}
	data, err := c.Marshal(rec, in)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "acbd" {
		t.Errorf("Marshal = %q, want %q", data, "acbd")
	}

	var got struct{ Grid [][]string }
	if err := c.Unmarshal(data, rec, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSizeResolver_Precedence(t *testing.T) {
	tests := []struct {
		resolver SizeResolver
		field    schema.Field
		name     string
		want     int
	}{
		{nil, schema.NewField("name", schema.String(3)).WithSize(2), "field over type", 2},
		{nil, schema.NewField("name", schema.String(3)), "type size", 3},
		{func(string, int) (int, bool) { return 4, true }, schema.NewField("name", schema.String(3)).WithSize(2), "resolver first", 4},
		{func(string, int) (int, bool) { return 0, true }, schema.NewField("name", schema.String(3)).WithSize(2), "zero ignored", 2},
		{func(string, int) (int, bool) { return 9, false }, schema.NewField("name", schema.String(3)).WithSize(2), "not ok ignored", 2},
		{func(r string, f int) (int, bool) { return 5, r == "Other" }, schema.NewField("name", schema.String(3)), "other record", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.SizeResolver = tt.resolver
			rec := schema.RecordOf("R", tt.field)

			data, err := New(cfg).Marshal(rec, named{Name: "a"})
			if err != nil {
				t.Fatal(err)
			}
			if len(data) != tt.want {
				t.Errorf("encoded %d bytes, want %d", len(data), tt.want)
			}
		})
	}
}

func TestSizeResolver_Collection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SizeResolver = func(record string, field int) (int, bool) {
		if record == "R" && field == 0 {
			return 4, true
		}
		return 0, false
	}
	rec := schema.RecordOf("R", schema.NewField("vals", schema.ListOf(schema.S16, 0)))
	c := New(cfg)

	data, err := c.Marshal(rec, values{Vals: []int16{7}})
	if err != nil {
		t.Fatal(err)
	}
	if want := le16(7, 0, 0, 0); !bytes.Equal(data, want) {
		t.Errorf("Marshal = % x, want % x", data, want)
	}

	var short struct{ Vals [2]int16 }
	if err := c.Unmarshal(data, rec, &short); !stderrors.Is(err, errors.ErrValueTooLong) {
		t.Errorf("array shorter than capacity: expected value too long, got %v", err)
	}
}

func TestArray_Encode(t *testing.T) {
	rec := schema.RecordOf("R", schema.NewField("vals", schema.ListOf(schema.S16, 4)))
	c := New(DefaultConfig())

	data, err := c.Marshal(rec, struct{ Vals [3]int16 }{[3]int16{1, 2, 3}})
	if err != nil {
		t.Fatal(err)
	}
	if want := le16(1, 2, 3, 0); !bytes.Equal(data, want) {
		t.Errorf("Marshal = % x, want % x", data, want)
	}
}

type twoShorts struct {
	A int16
	B int16
}

func TestTruncation(t *testing.T) {
	rec := schema.RecordOf("R", schema.NewField("a", schema.S16), schema.NewField("b", schema.S16))

	t.Run("permissive boundary", func(t *testing.T) {
		got := twoShorts{A: 9, B: 9}
		n, err := New(DefaultConfig()).Decode(bytes.NewReader([]byte{1, 0}), rec, &got)
		if err != nil {
			t.Fatal(err)
		}
		if n != 2 || got != (twoShorts{A: 1}) {
			t.Errorf("got %+v after %d bytes, want {A:1 B:0} after 2", got, n)
		}
	})

	t.Run("strict boundary", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.StrictTruncation = true
		got := twoShorts{A: 9, B: 9}
		err := New(cfg).Unmarshal([]byte{1, 0}, rec, &got)
		if !stderrors.Is(err, errors.ErrTruncated) {
			t.Fatalf("expected truncated, got %v", err)
		}
		if got != (twoShorts{A: 9, B: 9}) {
			t.Errorf("target modified on error: %+v", got)
		}
	})

	t.Run("inside a field", func(t *testing.T) {
		got := twoShorts{A: 9, B: 9}
		err := New(DefaultConfig()).Unmarshal([]byte{1, 0, 2}, rec, &got)
		if !stderrors.Is(err, errors.ErrTruncated) {
			t.Fatalf("expected truncated, got %v", err)
		}
		var e *errors.Error
		if !stderrors.As(err, &e) || len(e.Path) != 1 || e.Path[0] != "b" {
			t.Errorf("error path = %v, want [b]", err)
		}
		if !stderrors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("cause should be io.ErrUnexpectedEOF: %v", err)
		}
		if got != (twoShorts{A: 9, B: 9}) {
			t.Errorf("target modified on error: %+v", got)
		}
	})

	t.Run("inside a collection", func(t *testing.T) {
		listRec := schema.RecordOf("R", schema.NewField("vals", schema.ListOf(schema.S16, 3)))
		var got values
		err := New(DefaultConfig()).Unmarshal(le16(1, 2), listRec, &got)
		if !stderrors.Is(err, errors.ErrTruncated) {
			t.Errorf("expected truncated, got %v", err)
		}
	})
}

type address struct {
	Street string
	Zip    string
}

type customer struct {
	Name  string
	Homes []address
	ID    int32
}

func TestNested_RoundTrip(t *testing.T) {
	addr := schema.RecordOf("Address",
		schema.NewField("street", schema.String(8)),
		schema.NewField("zip", schema.String(5)),
	)
	rec := schema.RecordOf("Customer",
		schema.NewField("id", schema.S32),
		schema.NewField("name", schema.String(0)),
		schema.NewField("homes", schema.ListOf(addr, 2)),
	)
	c := New(DefaultConfig())

	in := customer{ID: 42, Name: "Ala", Homes: []address{{"Main St", "12345"}, {"", ""}}}
	data, err := c.Marshal(rec, &in)
	if err != nil {
		t.Fatal(err)
	}
	if want := 4 + 2 + 3 + 2*13; len(data) != want {
		t.Fatalf("encoded %d bytes, want %d", len(data), want)
	}

	var out customer
	n, err := c.Decode(bytes.NewReader(data), rec, &out)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len(data)) {
		t.Errorf("consumed %d bytes, want %d", n, len(data))
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	bad := customer{Homes: []address{{"Main St", "12345"}, {"Broadway", "123456"}}}
	_, err = c.Marshal(rec, bad)
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("expected *errors.Error, got %v", err)
	}
	if diff := cmp.Diff([]string{"homes", "[1]", "zip"}, e.Path); diff != "" {
		t.Errorf("error path mismatch (-want +got):\n%s", diff)
	}
}

func TestNilPointer(t *testing.T) {
	rec := schema.RecordOf("R", schema.NewField("name", schema.String(4)))
	c := New(DefaultConfig())

	isNil := func(err error) bool {
		var e *errors.Error
		return stderrors.As(err, &e) && e.Kind == errors.KindNilPointer
	}

	var p *named
	if _, err := c.Marshal(rec, p); !isNil(err) {
		t.Errorf("Marshal(nil pointer) = %v, want nil_pointer", err)
	}
	if _, err := c.Marshal(rec, nil); !isNil(err) {
		t.Errorf("Marshal(nil) = %v, want nil_pointer", err)
	}
	if err := c.Unmarshal([]byte("abcd"), rec, named{}); !isNil(err) {
		t.Errorf("Unmarshal(non-pointer) = %v, want nil_pointer", err)
	}
	if err := c.Unmarshal([]byte("abcd"), rec, p); !isNil(err) {
		t.Errorf("Unmarshal(nil pointer) = %v, want nil_pointer", err)
	}
}

func TestTopLevelList(t *testing.T) {
	c := New(DefaultConfig())
	list := schema.ListOf(schema.U8, 4)

	data, err := c.Marshal(list, []uint8{9, 8})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, []byte{9, 8, 0, 0}) {
		t.Errorf("Marshal = % x", data)
	}

	var got []uint8
	if err := c.Unmarshal(data, list, &got); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{9, 8, 0, 0}) {
		t.Errorf("Unmarshal = % x", got)
	}
}

func TestStreamedRecords(t *testing.T) {
	rec := schema.RecordOf("R", schema.NewField("a", schema.S16), schema.NewField("b", schema.S16))
	c := New(DefaultConfig())

	var buf bytes.Buffer
	sw := stream.NewWriter(&buf)
	for i := int16(0); i < 3; i++ {
		if err := c.EncodeTo(sw, rec, twoShorts{A: i, B: -i}); err != nil {
			t.Fatal(err)
		}
	}

	sr := stream.NewReader(&buf)
	var got []twoShorts
	for !sr.Exhausted() {
		var v twoShorts
		if err := c.DecodeFrom(sr, rec, &v); err != nil {
			t.Fatal(err)
		}
		got = append(got, v)
	}
	want := []twoShorts{{0, 0}, {1, -1}, {2, -2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLayout(t *testing.T) {
	rec := schema.RecordOf("Customer",
		schema.NewField("id", schema.S32),
		schema.NewField("name", schema.String(20)),
		schema.NewField("codes", schema.ListOf(schema.String(0), 0)).WithSize(4).WithElemSize(2),
		schema.NewField("grid", schema.ListOf(schema.ListOf(schema.S16, 5), 3)),
	)
	info, err := New(DefaultConfig()).Layout(rec)
	if err != nil {
		t.Fatal(err)
	}
	if !info.Fixed || info.Size != 62 {
		t.Errorf("Layout = %d fixed=%v, want 62 fixed", info.Size, info.Fixed)
	}
	offsets := []int{0, 4, 24, 32}
	for i, want := range offsets {
		if info.Fields[i].Offset != want {
			t.Errorf("field %s offset = %d, want %d", info.Fields[i].Name, info.Fields[i].Offset, want)
		}
	}

	list, err := New(DefaultConfig()).Layout(schema.ListOf(schema.S32, 3))
	if err != nil {
		t.Fatal(err)
	}
	if !list.Fixed || list.Size != 12 {
		t.Errorf("list Layout = %+v, want 12 fixed", list)
	}

	if _, err := New(DefaultConfig()).Layout(nil); err == nil {
		t.Error("Layout(nil) should fail")
	}
}

func TestConfig_Charset(t *testing.T) {
	rec := schema.RecordOf("R", schema.NewField("name", schema.String(4)))

	cfg := DefaultConfig()
	cfg.Charset = nil
	data, err := New(cfg).Marshal(rec, named{Name: "é"})
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0xC3, 0xA9, ' ', ' '}; !bytes.Equal(data, want) {
		t.Errorf("pass-through Marshal = % x, want % x", data, want)
	}

	enc, err := LookupCharset("windows-1255")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Charset = enc
	data, err = New(cfg).Marshal(rec, named{Name: "א"})
	if err != nil {
		t.Fatal(err)
	}
	if data[0] != 0xE0 {
		t.Errorf("windows-1255 Marshal = % x, want e0 first", data)
	}

	if _, err := LookupCharset("no-such-charset"); err == nil {
		t.Error("LookupCharset should fail for an unknown name")
	}
}

func TestConfigFromSchema(t *testing.T) {
	f, err := schema.ParseYAML([]byte(`
charset: windows-1255
string_pad: "."
strict: true
records:
  R:
    - {name: name, type: string}
sizes:
  - {record: R, field: name, size: 3}
`))
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := ConfigFromSchema(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StringPad != '.' || cfg.EmptyStringPad != 0 || !cfg.StrictTruncation || cfg.SizeResolver == nil {
		t.Errorf("unexpected config %+v", cfg)
	}

	data, err := New(cfg).Marshal(f.Root, named{Name: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a.." {
		t.Errorf("Marshal = %q, want %q", data, "a..")
	}
}
