package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/vb6-binary/internal/recfile"
	"github.com/wippyai/vb6-binary/schema"
	"github.com/wippyai/vb6-binary/transcoder"
)

// maxLine bounds one JSON line read by encode.
const maxLine = 16 << 20

type options struct {
	schemaPath  string
	record      string
	logLevel    string
	charset     string
	compression string
	strict      bool
}

// session is everything a command needs to read or write one record type.
type session struct {
	codec  *transcoder.Codec
	typ    *schema.Type
	goType reflect.Type
	log    *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "vb6rec",
		Short: "Read and write legacy VB6 fixed-layout record files",
		Long: `vb6rec converts files of fixed-layout binary records, as written by VB6
Put statements, to and from JSON lines. The record layout comes from a YAML
schema file. Files ending in .gz, .zst, .lz4 or .s2 are (de)compressed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.schemaPath, "schema", "s", "", "YAML schema file (required)")
	flags.StringVarP(&opts.record, "record", "r", "", "record type to use (default: the schema root)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flags.StringVar(&opts.charset, "charset", "", "charset override, e.g. windows-1255")
	flags.StringVar(&opts.compression, "compression", "", "compression override: none, gzip, zstd, lz4, s2")
	flags.BoolVar(&opts.strict, "strict", false, "fail on records that end between fields")
	_ = root.MarkPersistentFlagRequired("schema")

	root.AddCommand(
		newDecodeCmd(opts),
		newEncodeCmd(opts),
		newLayoutCmd(opts),
		newBrowseCmd(opts),
	)
	return root
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func (o *options) open() (*session, error) {
	log, err := newLogger(o.logLevel)
	if err != nil {
		return nil, err
	}
	transcoder.SetLogger(log)

	f, err := schema.LoadFile(o.schemaPath)
	if err != nil {
		return nil, err
	}
	cfg, err := transcoder.ConfigFromSchema(f)
	if err != nil {
		return nil, err
	}
	if o.charset != "" {
		enc, err := transcoder.LookupCharset(o.charset)
		if err != nil {
			return nil, err
		}
		cfg.Charset = enc
	}
	if o.strict {
		cfg.StrictTruncation = true
	}

	typ := f.Root
	if o.record != "" {
		rec, ok := f.Records[o.record]
		if !ok {
			return nil, fmt.Errorf("schema has no record %q (have %v)", o.record, f.RecordNames())
		}
		typ = rec
	}
	goType, err := schema.GoType(typ)
	if err != nil {
		return nil, err
	}

	log.Debug("schema loaded",
		zap.String("path", o.schemaPath),
		zap.String("record", typ.Name),
		zap.Int("fields", len(typ.Fields)))

	return &session{
		codec:  transcoder.New(cfg, transcoder.WithLogger(log)),
		typ:    typ,
		goType: goType,
		log:    log,
	}, nil
}

func (o *options) compressionFor(path string) (recfile.Compression, error) {
	if o.compression != "" {
		return recfile.ParseCompression(o.compression)
	}
	return recfile.CompressionFor(path), nil
}

// openInput opens path, or stdin for "-", decompressing as configured.
func (o *options) openInput(path string) (io.ReadCloser, error) {
	c, err := o.compressionFor(path)
	if err != nil {
		return nil, err
	}
	if path == "-" {
		return recfile.Decompress(os.Stdin, c)
	}
	if o.compression == "" {
		return recfile.Open(path)
	}
	f, err := os.Open(path) //nolint:gosec // path is chosen by the user
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	r, err := recfile.Decompress(f, c)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return struct {
		io.Reader
		io.Closer
	}{r, closers{r, f}}, nil
}

// openOutput creates path, or uses out for "-", compressing as configured.
func (o *options) openOutput(path string, out io.Writer) (io.WriteCloser, error) {
	c, err := o.compressionFor(path)
	if err != nil {
		return nil, err
	}
	if path == "-" {
		return recfile.Compress(out, c)
	}
	if o.compression == "" {
		return recfile.Create(path)
	}
	f, err := os.Create(path) //nolint:gosec // path is chosen by the user
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	w, err := recfile.Compress(f, c)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return struct {
		io.Writer
		io.Closer
	}{w, closers{w, f}}, nil
}

type closers []io.Closer

func (cs closers) Close() error {
	var first error
	for _, c := range cs {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func newDecodeCmd(opts *options) *cobra.Command {
	var (
		output string
		skip   int
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "decode <records-file|->",
		Short: "Decode binary records to JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer func() { _ = s.log.Sync() }()

			in, err := opts.openInput(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			out, err := opts.openOutput(output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			bw := bufio.NewWriter(out)
			n, err := decodeRecords(s, in, bw, skip, limit)
			if ferr := bw.Flush(); err == nil {
				err = ferr
			}
			if cerr := out.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			s.log.Info("decoded records", zap.Int("count", n))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "JSON lines output file")
	cmd.Flags().IntVar(&skip, "skip", 0, "records to skip")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum records to write (0 = all)")
	return cmd
}

func decodeRecords(s *session, in io.Reader, out io.Writer, skip, limit int) (int, error) {
	sc := recfile.NewScanner(in, s.codec, s.typ)
	enc := gojson.NewEncoder(out)
	enc.SetEscapeHTML(false)

	written := 0
	ptr := reflect.New(s.goType)
	for sc.Scan(ptr.Interface()) {
		if sc.Count() <= skip {
			continue
		}
		if err := enc.Encode(ptr.Interface()); err != nil {
			return written, fmt.Errorf("record %d: %w", sc.Count()-1, err)
		}
		written++
		if limit > 0 && written >= limit {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return written, fmt.Errorf("record %d at offset %d: %w", sc.Count(), sc.Offset(), err)
	}
	return written, nil
}

func newEncodeCmd(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "encode <jsonl-file|->",
		Short: "Encode JSON lines to binary records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer func() { _ = s.log.Sync() }()

			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				in = f
			}

			out, err := opts.openOutput(output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			n, err := encodeRecords(s, in, out)
			if cerr := out.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			s.log.Info("encoded records", zap.Int("count", n))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "records output file")
	return cmd
}

func encodeRecords(s *session, in io.Reader, out io.Writer) (int, error) {
	bw := bufio.NewWriter(out)
	rw := recfile.NewRecordWriter(bw, s.codec, s.typ)

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)
	line := 0
	for sc.Scan() {
		line++
		data := sc.Bytes()
		if len(data) == 0 {
			continue
		}
		ptr := reflect.New(s.goType)
		if err := gojson.Unmarshal(data, ptr.Interface()); err != nil {
			return rw.Count(), fmt.Errorf("line %d: %w", line, err)
		}
		if err := rw.Write(ptr.Interface()); err != nil {
			return rw.Count(), fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return rw.Count(), fmt.Errorf("read input: %w", err)
	}
	return rw.Count(), bw.Flush()
}

func newLayoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Print field offsets and widths of the record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			info, err := s.codec.Layout(s.typ)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderLayout(s.typ, info))
			return nil
		},
	}
}

func renderLayout(t *schema.Type, info transcoder.LayoutInfo) string {
	rows := make([][]string, 0, len(info.Fields))
	for _, f := range info.Fields {
		rows = append(rows, []string{
			f.Name,
			f.Type,
			dash(f.Offset, f.Offset >= 0),
			dash(f.Size, f.Fixed),
			dash(f.Capacity, f.Capacity > 0),
			dash(f.ElemSize, f.ElemSize > 0),
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(helpStyle).
		Headers("FIELD", "TYPE", "OFFSET", "SIZE", "CAPACITY", "ELEM").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return nameStyle
			case col == 1:
				return typeStyle
			default:
				return lipgloss.NewStyle().Padding(0, 1)
			}
		})

	total := "variable"
	if info.Fixed {
		total = strconv.Itoa(info.Size) + " bytes"
	}
	return titleStyle.Render(t.Name) + " " + total + "\n" + tbl.String()
}

func dash(n int, ok bool) string {
	if !ok {
		return "-"
	}
	return strconv.Itoa(n)
}

func newBrowseCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "browse <records-file>",
		Short: "Browse records interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("browse needs a terminal; use decode instead")
			}
			s, err := opts.open()
			if err != nil {
				return err
			}
			return runBrowser(s, args[0], func() (io.ReadCloser, error) {
				return opts.openInput(args[0])
			}, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100000, "maximum records to load")
	return cmd
}
