package transcoder

import (
	"bytes"
	stderrors "errors"
	"io"

	"go.uber.org/zap"

	"github.com/wippyai/vb6-binary/errors"
	"github.com/wippyai/vb6-binary/schema"
	"github.com/wippyai/vb6-binary/stream"
	"github.com/wippyai/vb6-binary/transcoder/internal/layout"
)

// Codec pairs an Encoder and a Decoder that share one configuration, one
// compiler and one layout calculator. It is safe for concurrent use.
type Codec struct {
	enc  *Encoder
	dec  *Decoder
	calc *layout.Calculator
	cfg  Config
}

type Option func(*options)

type options struct {
	compiler *Compiler
	logger   *zap.Logger
}

// WithCompiler shares a compiler, and its binding cache, between codecs.
// The compiler keeps its own logger.
func WithCompiler(c *Compiler) Option {
	return func(o *options) { o.compiler = c }
}

// WithLogger sets the logger for codec events. Defaults to Logger().
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func New(cfg Config, opts ...Option) *Codec {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	if o.compiler == nil {
		o.compiler = NewCompilerWithLogger(o.logger)
	}

	calc := newCalculator(cfg)
	return &Codec{
		enc:  newEncoder(cfg, o.compiler, calc, o.logger),
		dec:  newDecoder(cfg, o.compiler, calc, o.logger),
		calc: calc,
		cfg:  cfg,
	}
}

func (c *Codec) Config() Config {
	return c.cfg
}

// Marshal encodes v as t into a new byte slice.
func (c *Codec) Marshal(t *schema.Type, v any) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := c.enc.Encode(&buf, t, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes one t from data into v. Bytes past the value are ignored.
func (c *Codec) Unmarshal(data []byte, t *schema.Type, v any) error {
	_, err := c.dec.Decode(bytes.NewReader(data), t, v)
	return err
}

func (c *Codec) Encode(w io.Writer, t *schema.Type, v any) (int64, error) {
	return c.enc.Encode(w, t, v)
}

func (c *Codec) Decode(r io.Reader, t *schema.Type, v any) (int64, error) {
	return c.dec.Decode(r, t, v)
}

func (c *Codec) EncodeTo(sw *stream.Writer, t *schema.Type, v any) error {
	return c.enc.EncodeTo(sw, t, v)
}

func (c *Codec) DecodeFrom(sr *stream.Reader, t *schema.Type, v any) error {
	return c.dec.DecodeFrom(sr, t, v)
}

// Layout reports the wire footprint of t under this codec's size resolver.
// Records list their fields; other types only carry Size and Fixed.
func (c *Codec) Layout(t *schema.Type) (LayoutInfo, error) {
	if t == nil {
		return LayoutInfo{}, errors.New(errors.PhaseSchema, errors.KindNilPointer).
			Detail("schema type cannot be nil").
			Build()
	}
	if err := t.Validate(); err != nil {
		return LayoutInfo{}, err
	}
	if t.Kind == schema.KindRecord {
		return c.calc.Record(t), nil
	}
	size, fixed := c.calc.Width(t, t.Size, 0)
	return LayoutInfo{Size: size, Fixed: fixed}, nil
}

// prependPath adds a leading path segment to a structured error.
func prependPath(err error, seg string) error {
	var e *errors.Error
	if stderrors.As(err, &e) {
		e.Path = append([]string{seg}, e.Path...)
	}
	return err
}

func readErr(err error) error {
	if err == nil {
		return nil
	}
	var e *errors.Error
	if stderrors.As(err, &e) {
		return err
	}
	if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Truncated(errors.PhaseDecode, nil, err)
	}
	return errors.Wrap(errors.PhaseDecode, errors.KindIO, nil, err)
}

func writeErr(err error) error {
	if err == nil {
		return nil
	}
	var e *errors.Error
	if stderrors.As(err, &e) {
		return err
	}
	if stderrors.Is(err, stream.ErrWindowOverflow) {
		return errors.New(errors.PhaseEncode, errors.KindValueTooLong).
			Cause(err).
			Detail("value wider than its slot").
			Build()
	}
	return errors.Wrap(errors.PhaseEncode, errors.KindIO, nil, err)
}
