package transcoder

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/wippyai/vb6-binary/schema"
)

// DefaultCharsetName is the IANA name of the default charset.
const DefaultCharsetName = "ISO-8859-8"

// SizeResolver overrides the capacity of field number field of the record
// named record. It must be pure; it may be called concurrently. Results
// that are not positive are ignored.
type SizeResolver func(record string, field int) (capacity int, ok bool)

// Config holds the codec settings. It is a value: build it once and share it.
type Config struct {
	// Charset converts between Go strings and wire bytes. Nil passes the
	// UTF-8 bytes of Go strings through unchanged; a char is then read as
	// ASCII and a char byte of 0x80 or above is invalid data.
	Charset encoding.Encoding

	// SizeResolver is consulted before any declared capacity.
	SizeResolver SizeResolver

	// StringPad right-pads non-empty fixed strings and is trimmed from
	// decoded ones when non-zero.
	StringPad byte

	// EmptyStringPad fills fixed strings that are empty.
	EmptyStringPad byte

	// StrictTruncation makes end of input at a field boundary an error
	// instead of the end of the record.
	StrictTruncation bool
}

// DefaultConfig returns the legacy defaults: ISO-8859-8, space padding,
// zero-filled empty strings, permissive truncation.
func DefaultConfig() Config {
	return Config{
		Charset:        charmap.ISO8859_8,
		StringPad:      ' ',
		EmptyStringPad: 0,
	}
}

// LookupCharset resolves an IANA charset name such as "windows-1255".
func LookupCharset(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("charset %q is not supported", name)
	}
	return enc, nil
}

// ConfigFromSchema applies the options and size overrides of a schema
// document on top of DefaultConfig.
func ConfigFromSchema(f *schema.File) (Config, error) {
	cfg := DefaultConfig()
	if f.Options.Charset != "" {
		enc, err := LookupCharset(f.Options.Charset)
		if err != nil {
			return Config{}, err
		}
		cfg.Charset = enc
	}
	if f.Options.StringPad != nil {
		cfg.StringPad = *f.Options.StringPad
	}
	if f.Options.EmptyStringPad != nil {
		cfg.EmptyStringPad = *f.Options.EmptyStringPad
	}
	cfg.StrictTruncation = f.Options.Strict
	if len(f.Sizes) > 0 {
		cfg.SizeResolver = f.Resolve
	}
	return cfg, nil
}

func (c Config) charset() encoding.Encoding {
	if c.Charset == nil {
		return encoding.Nop
	}
	return c.Charset
}
