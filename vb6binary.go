package vb6binary

import (
	"io"
	"reflect"
	"sync"

	"github.com/wippyai/vb6-binary/schema"
	"github.com/wippyai/vb6-binary/transcoder"
)

var defaultCodec = sync.OnceValue(func() *transcoder.Codec {
	return transcoder.New(transcoder.DefaultConfig())
})

// SchemaOf returns the record schema of v's struct type, read from its
// vb6 struct tags.
func SchemaOf(v any) (*schema.Type, error) {
	return schema.FromGoType(reflect.TypeOf(v))
}

// Marshal encodes a struct (or pointer to one) with the default
// configuration.
func Marshal(v any) ([]byte, error) {
	t, err := SchemaOf(v)
	if err != nil {
		return nil, err
	}
	return defaultCodec().Marshal(t, v)
}

// Unmarshal decodes one record from data into the struct v points to.
func Unmarshal(data []byte, v any) error {
	t, err := SchemaOf(v)
	if err != nil {
		return err
	}
	return defaultCodec().Unmarshal(data, t, v)
}

// Write encodes v to w and returns the number of bytes written.
func Write(w io.Writer, v any) (int64, error) {
	t, err := SchemaOf(v)
	if err != nil {
		return 0, err
	}
	return defaultCodec().Encode(w, t, v)
}

// Read decodes one record from r into the struct v points to.
func Read(r io.Reader, v any) (int64, error) {
	t, err := SchemaOf(v)
	if err != nil {
		return 0, err
	}
	return defaultCodec().Decode(r, t, v)
}
