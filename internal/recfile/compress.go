package recfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the container a record file is wrapped in.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
	LZ4
	S2
)

var compressionNames = [...]string{
	None: "none",
	Gzip: "gzip",
	Zstd: "zstd",
	LZ4:  "lz4",
	S2:   "s2",
}

func (c Compression) String() string {
	if c >= 0 && int(c) < len(compressionNames) {
		return compressionNames[c]
	}
	return fmt.Sprintf("compression(%d)", int(c))
}

// CompressionFor picks the compression from a file extension.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	case ".s2", ".sz":
		return S2
	default:
		return None
	}
}

// ParseCompression parses a compression name as printed by String.
func ParseCompression(name string) (Compression, error) {
	for i, n := range compressionNames {
		if strings.EqualFold(n, name) {
			return Compression(i), nil
		}
	}
	return None, fmt.Errorf("unknown compression %q", name)
}

// Decompress wraps r so that reads return decompressed bytes. Closing the
// result does not close r.
func Decompress(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, nil
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return zr.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case S2:
		return io.NopCloser(s2.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}

// Compress wraps w so that writes are compressed. Close flushes the
// compressor but does not close w.
func Compress(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return zw, nil
	case LZ4:
		return lz4.NewWriter(w), nil
	case S2:
		return s2.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}

// Open opens a record file for reading, decompressing it by extension.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) //nolint:gosec // path is chosen by the caller
	if err != nil {
		return nil, fmt.Errorf("open records: %w", err)
	}
	r, err := Decompress(f, CompressionFor(path))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open records %s: %w", path, err)
	}
	return &fileReader{ReadCloser: r, file: f}, nil
}

// Create creates a record file, compressing it by extension.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path) //nolint:gosec // path is chosen by the caller
	if err != nil {
		return nil, fmt.Errorf("create records: %w", err)
	}
	w, err := Compress(f, CompressionFor(path))
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("create records %s: %w", path, err)
	}
	return &fileWriter{WriteCloser: w, file: f}, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

type fileReader struct {
	io.ReadCloser
	file *os.File
}

func (r *fileReader) Close() error {
	err := r.ReadCloser.Close()
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	return err
}

type fileWriter struct {
	io.WriteCloser
	file *os.File
}

func (w *fileWriter) Close() error {
	err := w.WriteCloser.Close()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	return err
}
