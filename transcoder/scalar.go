package transcoder

import (
	"math"
	"reflect"

	"github.com/wippyai/vb6-binary/stream"
)

func writeScalar(sw *stream.Writer, text *textCodec, kind TypeKind, v reflect.Value) error {
	var err error
	switch kind {
	case KindBool:
		var b uint8
		if v.Bool() {
			b = 1
		}
		err = sw.WriteU8(b)
	case KindU8:
		err = sw.WriteU8(uint8(v.Uint()))
	case KindS8:
		err = sw.WriteU8(uint8(v.Int()))
	case KindU16:
		err = sw.WriteU16(uint16(v.Uint()))
	case KindS16:
		err = sw.WriteU16(uint16(v.Int()))
	case KindU32:
		err = sw.WriteU32(uint32(v.Uint()))
	case KindS32:
		err = sw.WriteU32(uint32(v.Int()))
	case KindU64:
		err = sw.WriteU64(v.Uint())
	case KindS64:
		err = sw.WriteU64(uint64(v.Int()))
	case KindF32:
		err = sw.WriteU32(math.Float32bits(float32(v.Float())))
	case KindF64:
		err = sw.WriteU64(math.Float64bits(v.Float()))
	case KindChar:
		return text.writeChar(sw, charOf(v))
	}
	if err != nil {
		return writeErr(err)
	}
	return nil
}

func readScalar(sr *stream.Reader, text *textCodec, kind TypeKind, v reflect.Value) error {
	switch kind {
	case KindBool:
		b, err := sr.ReadU8()
		if err != nil {
			return readErr(err)
		}
		v.SetBool(b != 0)
	case KindU8:
		b, err := sr.ReadU8()
		if err != nil {
			return readErr(err)
		}
		v.SetUint(uint64(b))
	case KindS8:
		b, err := sr.ReadU8()
		if err != nil {
			return readErr(err)
		}
		v.SetInt(int64(int8(b)))
	case KindU16:
		n, err := sr.ReadU16()
		if err != nil {
			return readErr(err)
		}
		v.SetUint(uint64(n))
	case KindS16:
		n, err := sr.ReadU16()
		if err != nil {
			return readErr(err)
		}
		v.SetInt(int64(int16(n)))
	case KindU32:
		n, err := sr.ReadU32()
		if err != nil {
			return readErr(err)
		}
		v.SetUint(uint64(n))
	case KindS32:
		n, err := sr.ReadU32()
		if err != nil {
			return readErr(err)
		}
		v.SetInt(int64(int32(n)))
	case KindU64:
		n, err := sr.ReadU64()
		if err != nil {
			return readErr(err)
		}
		v.SetUint(n)
	case KindS64:
		n, err := sr.ReadU64()
		if err != nil {
			return readErr(err)
		}
		v.SetInt(int64(n))
	case KindF32:
		n, err := sr.ReadU32()
		if err != nil {
			return readErr(err)
		}
		v.SetFloat(float64(math.Float32frombits(n)))
	case KindF64:
		n, err := sr.ReadU64()
		if err != nil {
			return readErr(err)
		}
		v.SetFloat(math.Float64frombits(n))
	case KindChar:
		r, err := text.readChar(sr)
		if err != nil {
			return err
		}
		if v.Kind() == reflect.Uint32 {
			v.SetUint(uint64(r))
		} else {
			v.SetInt(int64(r))
		}
	}
	return nil
}

// charOf reads a rune held in an int32 or uint32.
func charOf(v reflect.Value) rune {
	if v.Kind() == reflect.Uint32 {
		return rune(v.Uint())
	}
	return rune(v.Int())
}
