package transcoder

import (
	"fmt"
	"io"
	"reflect"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/vb6-binary/errors"
	"github.com/wippyai/vb6-binary/schema"
	"github.com/wippyai/vb6-binary/stream"
	"github.com/wippyai/vb6-binary/transcoder/internal/layout"
	"github.com/wippyai/vb6-binary/transcoder/internal/transpose"
)

type Encoder struct {
	compiler *Compiler
	calc     *layout.Calculator
	log      *zap.Logger
	cfg      Config
}

func NewEncoder(cfg Config) *Encoder {
	return NewEncoderWithCompiler(cfg, NewCompiler())
}

func NewEncoderWithCompiler(cfg Config, c *Compiler) *Encoder {
	return newEncoder(cfg, c, newCalculator(cfg), Logger())
}

func newEncoder(cfg Config, c *Compiler, calc *layout.Calculator, log *zap.Logger) *Encoder {
	return &Encoder{compiler: c, calc: calc, log: log, cfg: cfg}
}

// Encode writes v as t to w and returns the number of bytes written, which
// is also reported on error.
func (e *Encoder) Encode(w io.Writer, t *schema.Type, v any) (int64, error) {
	sw := stream.NewWriter(w)
	err := e.EncodeTo(sw, t, v)
	return sw.BytesWritten(), err
}

// EncodeTo writes v as t to sw. Pointers are followed; the top-level
// capacity is t.Size.
func (e *Encoder) EncodeTo(sw *stream.Writer, t *schema.Type, v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return errors.NilPointer(errors.PhaseEncode, nil, rv.Type().String())
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return errors.NilPointer(errors.PhaseEncode, nil, "nil")
	}

	ct, err := e.compiler.Compile(t, rv.Type())
	if err != nil {
		return err
	}

	s := encodeState{Encoder: e, text: newTextCodec(e.cfg)}
	return s.value(sw, ct, rv, t.Size, 0)
}

// encodeState is the per-call state of one Encode.
type encodeState struct {
	*Encoder
	text *textCodec
}

func (s *encodeState) value(sw *stream.Writer, ct *CompiledType, v reflect.Value, capacity, elemSize int) error {
	switch ct.Kind {
	case KindString:
		if capacity > 0 {
			if err := checkCapacity(errors.PhaseEncode, capacity); err != nil {
				return err
			}
			return s.text.writeFixed(sw, v.String(), capacity)
		}
		return s.text.writeVar(sw, v.String())
	case KindRecord:
		return s.record(sw, ct, v)
	case KindList:
		return s.list(sw, ct, v, capacity, elemSize)
	default:
		return writeScalar(sw, s.text, ct.Kind, v)
	}
}

func (s *encodeState) record(sw *stream.Writer, ct *CompiledType, v reflect.Value) error {
	for i := range ct.Fields {
		f := &ct.Fields[i]
		capacity := s.calc.FieldCapacity(ct.Schema, f.Index)
		if err := s.value(sw, f.Type, v.Field(f.GoIndex), capacity, f.ElemSize); err != nil {
			return prependPath(err, f.Name)
		}
	}
	return nil
}

func (s *encodeState) list(sw *stream.Writer, ct *CompiledType, v reflect.Value, capacity, elemSize int) error {
	shape, err := resolveList(s.calc, errors.PhaseEncode, ct, capacity, elemSize)
	if err != nil {
		return err
	}
	n := v.Len()
	if n > shape.capacity {
		return errors.ValueTooLong(errors.PhaseEncode, nil, n, shape.capacity)
	}

	switch {
	case shape.matrix:
		return s.matrix(sw, ct, v, shape)
	case shape.measured:
		return s.measured(sw, ct, v, shape)
	}

	elemCap := elementCapacity(ct.ElemType.Schema, shape.width)
	for i := 0; i < n; i++ {
		if err := s.element(sw, ct.ElemType, v.Index(i), elemCap, shape.width); err != nil {
			return prependPath(err, index(i))
		}
	}
	return writeErr(sw.Pad(int64(shape.capacity-n)*int64(shape.width), 0))
}

// element writes one element into its own width-sized slot.
func (s *encodeState) element(sw *stream.Writer, ct *CompiledType, v reflect.Value, capacity, width int) error {
	win := sw.Window(int64(width))
	if err := s.value(win, ct, v, capacity, 0); err != nil {
		win.Release()
		return err
	}
	return writeErr(win.Close())
}

// measured encodes a collection whose element width is only known from the
// encoded elements. All elements must encode to the same width.
func (s *encodeState) measured(sw *stream.Writer, ct *CompiledType, v reflect.Value, shape listShape) error {
	n := v.Len()
	if n == 0 {
		return errors.MissingCapacity(errors.PhaseEncode, nil, "element width cannot be measured on an empty collection")
	}

	buf := getBuffer()
	defer putBuffer(buf)
	bw := stream.NewWriter(buf)

	elemCap := elementCapacity(ct.ElemType.Schema, 0)
	width := -1
	for i := 0; i < n; i++ {
		before := bw.BytesWritten()
		if err := s.value(bw, ct.ElemType, v.Index(i), elemCap, 0); err != nil {
			return prependPath(err, index(i))
		}
		w := int(bw.BytesWritten() - before)
		if width < 0 {
			width = w
		} else if w != width {
			return prependPath(errors.UnsupportedShape(errors.PhaseEncode, nil,
				fmt.Sprintf("element width %d differs from %d", w, width)), index(i))
		}
	}

	total, ok := layout.SafeMul(shape.capacity, width)
	if !ok {
		return errors.UnsupportedShape(errors.PhaseEncode, nil, "collection exceeds size limit")
	}
	s.log.Debug("measured element width",
		zap.Stringer("type", ct.Schema),
		zap.Int("width", width),
		zap.Int("count", n))

	if _, err := sw.Write(buf.Bytes()); err != nil {
		return writeErr(err)
	}
	return writeErr(sw.Pad(int64(total-buf.Len()), 0))
}

// matrix lays out the rows in a block, zero-fills it to full capacity and
// writes it transposed.
func (s *encodeState) matrix(sw *stream.Writer, ct *CompiledType, v reflect.Value, shape listShape) error {
	total := shape.capacity * shape.cols * shape.width

	buf := getBuffer()
	defer putBuffer(buf)
	buf.Grow(total)
	bw := stream.NewWriter(buf)

	n := v.Len()
	for i := 0; i < n; i++ {
		if err := s.list(bw, ct.ElemType, v.Index(i), shape.cols, shape.width); err != nil {
			return prependPath(err, index(i))
		}
	}
	if err := bw.Pad(int64(total-buf.Len()), 0); err != nil {
		return writeErr(err)
	}

	block := buf.Bytes()
	if err := transpose.InPlace(block, shape.capacity, shape.cols, shape.width); err != nil {
		return errors.Wrap(errors.PhaseEncode, errors.KindUnsupportedShape, nil, err)
	}
	s.log.Debug("transposed matrix",
		zap.Int("rows", shape.capacity),
		zap.Int("cols", shape.cols),
		zap.Int("elem_size", shape.width))

	if _, err := sw.Write(block); err != nil {
		return writeErr(err)
	}
	return nil
}

func index(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}
