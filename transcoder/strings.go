package transcoder

import (
	"bytes"
	"fmt"
	"math"
	"unicode/utf8"

	"golang.org/x/text/encoding"

	"github.com/wippyai/vb6-binary/errors"
	"github.com/wippyai/vb6-binary/stream"
)

// MaxVarString is the longest variable string the 2-byte count can carry.
const MaxVarString = math.MaxUint16

// textCodec converts strings and chars through the configured charset.
// Transformers are stateful, so one is created per call.
type textCodec struct {
	charset  encoding.Encoding
	enc      *encoding.Encoder
	dec      *encoding.Decoder
	pad      byte
	emptyPad byte
}

func newTextCodec(cfg Config) *textCodec {
	return &textCodec{
		charset:  cfg.charset(),
		pad:      cfg.StringPad,
		emptyPad: cfg.EmptyStringPad,
	}
}

func (t *textCodec) encode(s string) ([]byte, error) {
	if t.enc == nil {
		t.enc = t.charset.NewEncoder()
	}
	b, err := t.enc.Bytes([]byte(s))
	if err != nil {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Value(s).
			Cause(err).
			Detail("charset cannot represent %q", s).
			Build()
	}
	return b, nil
}

func (t *textCodec) decode(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	if t.dec == nil {
		t.dec = t.charset.NewDecoder()
	}
	out, err := t.dec.Bytes(b)
	if err != nil {
		return "", errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Cause(err).
			Detail("charset cannot decode % x", b).
			Build()
	}
	return string(out), nil
}

// writeFixed writes s into exactly n bytes. Nothing is written when s does
// not fit.
func (t *textCodec) writeFixed(sw *stream.Writer, s string, n int) error {
	if rem := sw.Remaining(); rem >= 0 && int64(n) > rem {
		return errors.ValueTooLong(errors.PhaseEncode, nil, n, int(rem))
	}
	b, err := t.encode(s)
	if err != nil {
		return err
	}
	if len(b) > n {
		return errors.ValueTooLong(errors.PhaseEncode, nil, len(b), n)
	}
	if len(b) == 0 {
		return writeErr(sw.Pad(int64(n), t.emptyPad))
	}
	if _, err := sw.Write(b); err != nil {
		return writeErr(err)
	}
	return writeErr(sw.Pad(int64(n-len(b)), t.pad))
}

func (t *textCodec) writeVar(sw *stream.Writer, s string) error {
	b, err := t.encode(s)
	if err != nil {
		return err
	}
	if len(b) > MaxVarString {
		return errors.ValueTooLong(errors.PhaseEncode, nil, len(b), MaxVarString)
	}
	if err := sw.WriteU16(uint16(len(b))); err != nil {
		return writeErr(err)
	}
	if _, err := sw.Write(b); err != nil {
		return writeErr(err)
	}
	return nil
}

// readFixed reads n bytes, cuts at the first zero byte and trims trailing pad.
func (t *textCodec) readFixed(sr *stream.Reader, n int) (string, error) {
	b, err := sr.ReadBytes(n)
	if err != nil {
		return "", readErr(err)
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	if t.pad != 0 {
		end := len(b)
		for end > 0 && b[end-1] == t.pad {
			end--
		}
		b = b[:end]
	}
	return t.decode(b)
}

func (t *textCodec) readVar(sr *stream.Reader) (string, error) {
	n, err := sr.ReadU16()
	if err != nil {
		return "", readErr(err)
	}
	b, err := sr.ReadBytes(int(n))
	if err != nil {
		return "", readErr(err)
	}
	return t.decode(b)
}

func (t *textCodec) writeChar(sw *stream.Writer, r rune) error {
	b, err := t.encode(string(r))
	if err != nil {
		return err
	}
	if len(b) != 1 {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Value(r).
			Detail("char %q encodes to %d bytes", r, len(b)).
			Build()
	}
	return writeErr(sw.WriteU8(b[0]))
}

func (t *textCodec) readChar(sr *stream.Reader) (rune, error) {
	b, err := sr.ReadU8()
	if err != nil {
		return 0, readErr(err)
	}
	if b == 0 {
		return 0, nil
	}
	s, err := t.decode([]byte{b})
	if err != nil {
		return 0, err
	}
	r, size := utf8.DecodeRuneInString(s)
	if (r == utf8.RuneError && size <= 1) || size != len(s) {
		return 0, errors.InvalidData(errors.PhaseDecode, nil, fmt.Sprintf("byte 0x%02x is not a single char", b))
	}
	return r, nil
}
