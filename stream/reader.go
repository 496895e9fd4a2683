package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrClosed is returned by operations on a closed or released window.
var ErrClosed = errors.New("stream: window closed")

// Reader wraps an io.Reader with byte accounting and little-endian reads.
type Reader struct {
	src     io.Reader
	err     error
	parent  *Reader
	n       int64
	limit   int64
	scratch [8]byte
	peek    byte
	peeked  bool
	closed  bool
}

// NewReader creates a Reader over src.
func NewReader(src io.Reader) *Reader {
	return &Reader{src: src, limit: -1}
}

// BytesRead returns the number of bytes consumed through this reader.
func (r *Reader) BytesRead() int64 {
	return r.n
}

// Remaining returns the unread bytes of a window, or -1 for an unbounded reader.
func (r *Reader) Remaining() int64 {
	if r.limit < 0 {
		return -1
	}
	return r.limit - r.n
}

// Read implements io.Reader. A window returns io.EOF once its limit is reached.
func (r *Reader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if r.limit >= 0 {
		rem := r.limit - r.n
		if rem <= 0 {
			return 0, io.EOF
		}
		if int64(len(p)) > rem {
			p = p[:rem]
		}
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, err := r.fill(p)
	r.n += int64(n)
	return n, err
}

func (r *Reader) fill(p []byte) (int, error) {
	if r.parent != nil {
		return r.parent.Read(p)
	}
	if r.err != nil {
		return 0, r.err
	}
	off := 0
	if r.peeked {
		p[0] = r.peek
		r.peeked = false
		off = 1
		if len(p) == 1 {
			return 1, nil
		}
	}
	n, err := r.src.Read(p[off:])
	n += off
	if err != nil && !errors.Is(err, io.EOF) {
		r.err = err
	}
	if off > 0 && errors.Is(err, io.EOF) {
		// The lookahead byte satisfied part of the read; report EOF on the next call.
		err = nil
	}
	return n, err
}

// Exhausted reports whether no further byte can be read. It reads one byte
// of lookahead from the source when needed. A source error other than
// io.EOF is not reported here; it surfaces on the next read.
func (r *Reader) Exhausted() bool {
	if r.closed {
		return true
	}
	if r.limit >= 0 && r.n >= r.limit {
		return true
	}
	if r.parent != nil {
		return r.parent.Exhausted()
	}
	if r.peeked {
		return false
	}
	if r.err != nil {
		return false
	}
	var b [1]byte
	n, err := io.ReadFull(r.src, b[:])
	if n == 1 {
		r.peek = b[0]
		r.peeked = true
		return false
	}
	if err != nil && !errors.Is(err, io.EOF) {
		r.err = err
		return false
	}
	return true
}

// ReadFull reads exactly len(p) bytes. It returns io.EOF if nothing was
// read and io.ErrUnexpectedEOF on a short read.
func (r *Reader) ReadFull(p []byte) error {
	_, err := io.ReadFull(r, p)
	return err
}

// ReadBytes reads exactly n bytes into a new slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := r.ReadFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadU8 reads a single byte.
func (r *Reader) ReadU8() (uint8, error) {
	if err := r.ReadFull(r.scratch[:1]); err != nil {
		return 0, err
	}
	return r.scratch[0], nil
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	if err := r.ReadFull(r.scratch[:2]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r.scratch[:2]), nil
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	if err := r.ReadFull(r.scratch[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.scratch[:4]), nil
}

// ReadU64 reads a little-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	if err := r.ReadFull(r.scratch[:8]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(r.scratch[:8]), nil
}

// Skip discards exactly n bytes.
func (r *Reader) Skip(n int64) error {
	if n <= 0 {
		return nil
	}
	skipped, err := io.CopyN(io.Discard, r, n)
	if skipped < n {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("skip %d bytes, got %d: %w", n, skipped, err)
	}
	return nil
}

// Window returns a sub-reader limited to the next n bytes of r.
func (r *Reader) Window(n int64) *Reader {
	if n < 0 {
		n = 0
	}
	return &Reader{parent: r, limit: n}
}

// Close ends a window, skipping its unread bytes on the parent. Closing an
// unbounded reader only marks it closed.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	rem := r.Remaining()
	if r.parent != nil && rem > 0 {
		if err := r.Skip(rem); err != nil {
			r.closed = true
			return err
		}
	}
	r.closed = true
	return nil
}

// Release detaches a window without consuming its remainder.
func (r *Reader) Release() {
	r.closed = true
}
