package transcoder

import (
	"bytes"
	"fmt"
	"io"
	"reflect"

	"go.uber.org/zap"

	"github.com/wippyai/vb6-binary/errors"
	"github.com/wippyai/vb6-binary/schema"
	"github.com/wippyai/vb6-binary/stream"
	"github.com/wippyai/vb6-binary/transcoder/internal/layout"
	"github.com/wippyai/vb6-binary/transcoder/internal/transpose"
)

type Decoder struct {
	compiler *Compiler
	calc     *layout.Calculator
	log      *zap.Logger
	cfg      Config
}

func NewDecoder(cfg Config) *Decoder {
	return NewDecoderWithCompiler(cfg, NewCompiler())
}

func NewDecoderWithCompiler(cfg Config, c *Compiler) *Decoder {
	return newDecoder(cfg, c, newCalculator(cfg), Logger())
}

func newDecoder(cfg Config, c *Compiler, calc *layout.Calculator, log *zap.Logger) *Decoder {
	return &Decoder{compiler: c, calc: calc, log: log, cfg: cfg}
}

// Decode reads one t from r into v and returns the number of bytes consumed.
func (d *Decoder) Decode(r io.Reader, t *schema.Type, v any) (int64, error) {
	sr := stream.NewReader(r)
	err := d.DecodeFrom(sr, t, v)
	return sr.BytesRead(), err
}

// DecodeFrom reads one t from sr into v, which must be a non-nil pointer.
// v is only assigned when decoding succeeds.
func (d *Decoder) DecodeFrom(sr *stream.Reader, t *schema.Type, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.NilPointer(errors.PhaseDecode, nil, typeName(v))
	}

	ct, err := d.compiler.Compile(t, rv.Type().Elem())
	if err != nil {
		return err
	}

	fresh := reflect.New(ct.GoType).Elem()
	s := decodeState{Decoder: d, text: newTextCodec(d.cfg)}
	if err := s.value(sr, ct, fresh, t.Size, 0); err != nil {
		return err
	}
	rv.Elem().Set(fresh)
	return nil
}

// decodeState is the per-call state of one Decode.
type decodeState struct {
	*Decoder
	text *textCodec
}

func (s *decodeState) value(sr *stream.Reader, ct *CompiledType, v reflect.Value, capacity, elemSize int) error {
	switch ct.Kind {
	case KindString:
		var (
			str string
			err error
		)
		if capacity > 0 {
			if err := checkCapacity(errors.PhaseDecode, capacity); err != nil {
				return err
			}
			str, err = s.text.readFixed(sr, capacity)
		} else {
			str, err = s.text.readVar(sr)
		}
		if err != nil {
			return err
		}
		v.SetString(str)
		return nil
	case KindRecord:
		return s.record(sr, ct, v)
	case KindList:
		return s.list(sr, ct, v, capacity, elemSize)
	default:
		return readScalar(sr, s.text, ct.Kind, v)
	}
}

// record reads fields in order. Input that ends exactly before a field ends
// the record, unless truncation is strict.
func (s *decodeState) record(sr *stream.Reader, ct *CompiledType, v reflect.Value) error {
	for i := range ct.Fields {
		f := &ct.Fields[i]
		if sr.Exhausted() {
			if s.cfg.StrictTruncation {
				return prependPath(errors.Truncated(errors.PhaseDecode, nil, io.EOF), f.Name)
			}
			s.log.Debug("input ended at field boundary",
				zap.String("record", ct.Schema.Name),
				zap.String("field", f.Name),
				zap.Int("index", f.Index))
			return nil
		}

		capacity := s.calc.FieldCapacity(ct.Schema, f.Index)
		if err := s.value(sr, f.Type, v.Field(f.GoIndex), capacity, f.ElemSize); err != nil {
			return prependPath(err, f.Name)
		}
	}
	return nil
}

func (s *decodeState) list(sr *stream.Reader, ct *CompiledType, v reflect.Value, capacity, elemSize int) error {
	shape, err := resolveList(s.calc, errors.PhaseDecode, ct, capacity, elemSize)
	if err != nil {
		return err
	}
	if err := prepareList(ct, v, shape.capacity); err != nil {
		return err
	}

	switch {
	case shape.matrix:
		return s.matrix(sr, ct, v, shape)
	case shape.measured:
		return s.measured(sr, ct, v, shape)
	}

	elemCap := elementCapacity(ct.ElemType.Schema, shape.width)
	for i := 0; i < shape.capacity; i++ {
		if err := s.element(sr, ct.ElemType, v.Index(i), elemCap, shape.width); err != nil {
			return prependPath(err, index(i))
		}
	}
	return nil
}

// prepareList sizes v to hold n elements. Slices get exactly n; arrays
// must already be long enough.
func prepareList(ct *CompiledType, v reflect.Value, n int) error {
	if ct.IsArray() {
		if v.Len() < n {
			return errors.New(errors.PhaseDecode, errors.KindValueTooLong).
				GoType(ct.GoType.String()).
				Value(n).
				Detail("array of %d cannot hold %d elements", v.Len(), n).
				Build()
		}
		return nil
	}
	v.Set(reflect.MakeSlice(ct.GoType, n, n))
	return nil
}

// element reads one element from its width-sized slot, skipping the unread
// rest of the slot.
func (s *decodeState) element(sr *stream.Reader, ct *CompiledType, v reflect.Value, capacity, width int) error {
	win := sr.Window(int64(width))
	if err := s.value(win, ct, v, capacity, 0); err != nil {
		win.Release()
		return err
	}
	if err := win.Close(); err != nil {
		return readErr(err)
	}
	return nil
}

// measured takes the element width from the first element, which is read
// unbounded; the others are read in slots of that width.
func (s *decodeState) measured(sr *stream.Reader, ct *CompiledType, v reflect.Value, shape listShape) error {
	elemCap := elementCapacity(ct.ElemType.Schema, 0)

	before := sr.BytesRead()
	if err := s.value(sr, ct.ElemType, v.Index(0), elemCap, 0); err != nil {
		return prependPath(err, index(0))
	}
	width := int(sr.BytesRead() - before)
	s.log.Debug("measured element width",
		zap.Stringer("type", ct.Schema),
		zap.Int("width", width))

	for i := 1; i < shape.capacity; i++ {
		if err := s.element(sr, ct.ElemType, v.Index(i), elemCap, width); err != nil {
			return prependPath(err, index(i))
		}
	}
	return nil
}

// matrix reads the transposed block, restores row order and decodes the
// rows from memory.
func (s *decodeState) matrix(sr *stream.Reader, ct *CompiledType, v reflect.Value, shape listShape) error {
	total := shape.capacity * shape.cols * shape.width

	buf := getBuffer()
	defer putBuffer(buf)
	buf.Grow(total)
	block := buf.AvailableBuffer()[:total]

	if err := sr.ReadFull(block); err != nil {
		return readErr(err)
	}
	if err := transpose.InPlace(block, shape.cols, shape.capacity, shape.width); err != nil {
		return errors.Wrap(errors.PhaseDecode, errors.KindUnsupportedShape, nil, err)
	}
	s.log.Debug("transposed matrix",
		zap.Int("rows", shape.capacity),
		zap.Int("cols", shape.cols),
		zap.Int("elem_size", shape.width))

	br := stream.NewReader(bytes.NewReader(block))
	for i := 0; i < shape.capacity; i++ {
		if err := s.list(br, ct.ElemType, v.Index(i), shape.cols, shape.width); err != nil {
			return prependPath(err, index(i))
		}
	}
	return nil
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
