package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrWindowOverflow is returned when a write would cross a window's limit.
var ErrWindowOverflow = errors.New("stream: write exceeds window")

var zeros [64]byte

// Writer wraps an io.Writer with byte accounting and little-endian writes.
type Writer struct {
	dst     io.Writer
	parent  *Writer
	n       int64
	limit   int64
	scratch [8]byte
	closed  bool
}

// NewWriter creates a Writer over dst.
func NewWriter(dst io.Writer) *Writer {
	return &Writer{dst: dst, limit: -1}
}

// BytesWritten returns the number of bytes written through this writer.
func (w *Writer) BytesWritten() int64 {
	return w.n
}

// Remaining returns the unwritten bytes of a window, or -1 for an unbounded writer.
func (w *Writer) Remaining() int64 {
	if w.limit < 0 {
		return -1
	}
	return w.limit - w.n
}

// Write implements io.Writer. A write crossing the window limit writes
// nothing and returns ErrWindowOverflow.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	if w.limit >= 0 && w.n+int64(len(p)) > w.limit {
		return 0, fmt.Errorf("%w: %d bytes into %d remaining", ErrWindowOverflow, len(p), w.limit-w.n)
	}
	var (
		n   int
		err error
	)
	if w.parent != nil {
		n, err = w.parent.Write(p)
	} else {
		n, err = w.dst.Write(p)
	}
	w.n += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

// WriteU8 writes a single byte.
func (w *Writer) WriteU8(v uint8) error {
	w.scratch[0] = v
	_, err := w.Write(w.scratch[:1])
	return err
}

// WriteU16 writes a little-endian uint16.
func (w *Writer) WriteU16(v uint16) error {
	binary.LittleEndian.PutUint16(w.scratch[:2], v)
	_, err := w.Write(w.scratch[:2])
	return err
}

// WriteU32 writes a little-endian uint32.
func (w *Writer) WriteU32(v uint32) error {
	binary.LittleEndian.PutUint32(w.scratch[:4], v)
	_, err := w.Write(w.scratch[:4])
	return err
}

// WriteU64 writes a little-endian uint64.
func (w *Writer) WriteU64(v uint64) error {
	binary.LittleEndian.PutUint64(w.scratch[:8], v)
	_, err := w.Write(w.scratch[:8])
	return err
}

// Pad writes n copies of b.
func (w *Writer) Pad(n int64, b byte) error {
	if n <= 0 {
		return nil
	}
	var buf []byte
	if b == 0 {
		buf = zeros[:]
	} else {
		var fill [64]byte
		for i := range fill {
			fill[i] = b
		}
		buf = fill[:]
	}
	for n > 0 {
		chunk := int64(len(buf))
		if n < chunk {
			chunk = n
		}
		if _, err := w.Write(buf[:chunk]); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

// Window returns a sub-writer that owns exactly the next n bytes of w.
func (w *Writer) Window(n int64) *Writer {
	if n < 0 {
		n = 0
	}
	return &Writer{parent: w, limit: n}
}

// Close ends a window, zero-filling its unwritten bytes. Closing an
// unbounded writer only marks it closed.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	if w.parent != nil {
		if err := w.Pad(w.Remaining(), 0); err != nil {
			w.closed = true
			return err
		}
	}
	w.closed = true
	return nil
}

// Release detaches a window without padding it.
func (w *Writer) Release() {
	w.closed = true
}
