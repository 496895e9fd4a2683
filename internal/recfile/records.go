package recfile

import (
	"io"

	"github.com/wippyai/vb6-binary/schema"
	"github.com/wippyai/vb6-binary/stream"
	"github.com/wippyai/vb6-binary/transcoder"
)

// Scanner reads consecutive records of one schema type from a stream.
//
//	sc := recfile.NewScanner(r, codec, t)
//	for sc.Scan(&v) {
//		...
//	}
//	if err := sc.Err(); err != nil {
//		...
//	}
type Scanner struct {
	sr    *stream.Reader
	codec *transcoder.Codec
	typ   *schema.Type
	err   error
	start int64
	count int
}

func NewScanner(r io.Reader, codec *transcoder.Codec, t *schema.Type) *Scanner {
	return &Scanner{sr: stream.NewReader(r), codec: codec, typ: t}
}

// Scan decodes the next record into v. It returns false at the end of the
// input or on the first error.
func (s *Scanner) Scan(v any) bool {
	if s.err != nil || s.sr.Exhausted() {
		return false
	}
	s.start = s.sr.BytesRead()
	if err := s.codec.DecodeFrom(s.sr, s.typ, v); err != nil {
		s.err = err
		return false
	}
	s.count++
	return true
}

// Err returns the first decode error, if any.
func (s *Scanner) Err() error {
	return s.err
}

// Count returns the number of records decoded.
func (s *Scanner) Count() int {
	return s.count
}

// Offset returns the byte offset of the last record scanned.
func (s *Scanner) Offset() int64 {
	return s.start
}

// RecordWriter writes consecutive records of one schema type.
type RecordWriter struct {
	sw    *stream.Writer
	codec *transcoder.Codec
	typ   *schema.Type
	count int
}

func NewRecordWriter(w io.Writer, codec *transcoder.Codec, t *schema.Type) *RecordWriter {
	return &RecordWriter{sw: stream.NewWriter(w), codec: codec, typ: t}
}

func (w *RecordWriter) Write(v any) error {
	if err := w.codec.EncodeTo(w.sw, w.typ, v); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count returns the number of records written.
func (w *RecordWriter) Count() int {
	return w.count
}

// BytesWritten returns the number of bytes written before compression.
func (w *RecordWriter) BytesWritten() int64 {
	return w.sw.BytesWritten()
}
