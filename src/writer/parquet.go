package writer

import (
	"fmt"
	"io"
	"strings"

	"tapInfinity/src/spec"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/schema"
	"github.com/docker/go-units"
	"github.com/pingcap/errors"
)

const (
	defaultRowGroupRows = 10000
	defaultPageSize     = units.MiB
)

// ParquetOptions tune the parquet chunk layout.
type ParquetOptions struct {
	RowGroupRows int
	PageSize     int64
}

func (o ParquetOptions) withDefaults() ParquetOptions {
	if o.RowGroupRows <= 0 {
		o.RowGroupRows = defaultRowGroupRows
	}
	if o.PageSize <= 0 {
		o.PageSize = defaultPageSize
	}
	return o
}

func getParquetCompressionCodec(name string) (compress.Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "snappy":
		return compress.Codecs.Snappy, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	case "lz4_raw", "lz4":
		return compress.Codecs.Lz4Raw, nil
	case "uncompressed", "none", "":
		return compress.Codecs.Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed, fmt.Errorf("unsupported parquet compression: %q", name)
	}
}

func parquetNode(c spec.Column) (schema.Node, error) {
	var (
		typ       parquet.Type
		converted = schema.ConvertedTypes.None
	)
	switch c.Kind {
	case spec.KindInteger:
		typ = parquet.Types.Int64
	case spec.KindNumber:
		typ = parquet.Types.Double
	case spec.KindString:
		typ, converted = parquet.Types.ByteArray, schema.ConvertedTypes.UTF8
	case spec.KindTimestamp:
		typ, converted = parquet.Types.Int64, schema.ConvertedTypes.TimestampMicros
	default:
		return nil, errors.Errorf("unsupported column kind %s for %s", c.Kind, c.Name)
	}
	return schema.NewPrimitiveNodeConverted(
		c.Name, parquet.Repetitions.Required, typ, converted, 0, 0, 0, -1)
}

// chooseParquetEncoding picks a column encoding suited to the generated data.
func chooseParquetEncoding(c spec.Column) parquet.Encoding {
	switch c.Kind {
	case spec.KindInteger:
		if c.Index < spec.MinColumnCount {
			// id and rep_key are sorted
			return parquet.Encodings.DeltaBinaryPacked
		}
		return parquet.Encodings.Plain
	case spec.KindTimestamp:
		return parquet.Encodings.DeltaBinaryPacked
	case spec.KindNumber:
		return parquet.Encodings.ByteStreamSplit
	default:
		return parquet.Encodings.Plain
	}
}

// parquetEncoder buffers rows column-wise and writes one row group every
// RowGroupRows rows.
type parquetEncoder struct {
	w       *file.Writer
	columns []spec.Column
	opts    ParquetOptions

	buffered int
	ints     [][]int64
	floats   [][]float64
	strs     [][]parquet.ByteArray

	// err is the first flush failure. Once set, the file is never completed.
	err    error
	closed bool
}

func newParquetEncoder(
	w io.Writer,
	columns []spec.Column,
	compression string,
	opts ParquetOptions,
) (*parquetEncoder, error) {
	codec, err := getParquetCompressionCodec(compression)
	if err != nil {
		return nil, errors.Trace(err)
	}
	opts = opts.withDefaults()

	fields := make([]schema.Node, len(columns))
	props := []parquet.WriterProperty{
		parquet.WithDataPageSize(opts.PageSize),
		parquet.WithDataPageVersion(parquet.DataPageV2),
		parquet.WithVersion(parquet.V2_LATEST),
	}
	for i, c := range columns {
		if fields[i], err = parquetNode(c); err != nil {
			return nil, errors.Trace(err)
		}
		props = append(props,
			parquet.WithDictionaryFor(c.Name, false),
			parquet.WithEncodingFor(c.Name, chooseParquetEncoding(c)),
			parquet.WithCompressionFor(c.Name, codec),
		)
	}

	node, err := schema.NewGroupNode("schema", parquet.Repetitions.Required, fields, -1)
	if err != nil {
		return nil, errors.Trace(err)
	}

	pw, err := newParquetFileWriter(w, node, parquet.NewWriterProperties(props...))
	if err != nil {
		return nil, err
	}

	e := &parquetEncoder{
		w:       pw,
		columns: columns,
		opts:    opts,
		ints:    make([][]int64, len(columns)),
		floats:  make([][]float64, len(columns)),
		strs:    make([][]parquet.ByteArray, len(columns)),
	}
	return e, nil
}

// newParquetFileWriter writes the leading magic number, which panics in arrow
// when the sink fails.
func newParquetFileWriter(w io.Writer, node *schema.GroupNode, props *parquet.WriterProperties) (pw *file.Writer, err error) {
	defer recoverParquetPanic(&err)
	return file.NewParquetWriter(w, node, file.WithWriterProps(props)), nil
}

func recoverParquetPanic(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(error); ok {
		*err = errors.Annotate(e, "parquet writer")
		return
	}
	*err = errors.Errorf("parquet writer: %v", r)
}

func (e *parquetEncoder) Encode(row spec.Row) error {
	if e.err != nil {
		return e.err
	}
	if len(row) != len(e.columns) {
		return errors.Errorf("row has %d fields, schema has %d columns", len(row), len(e.columns))
	}
	for i, f := range row {
		v := f.Value
		if v.Kind() != e.columns[i].Kind {
			return errors.Errorf("column %s expects %s, got %s", e.columns[i].Name, e.columns[i].Kind, v.Kind())
		}
		switch v.Kind() {
		case spec.KindInteger:
			e.ints[i] = append(e.ints[i], v.Int())
		case spec.KindTimestamp:
			e.ints[i] = append(e.ints[i], v.Timestamp().UnixMicro())
		case spec.KindNumber:
			e.floats[i] = append(e.floats[i], v.Float())
		case spec.KindString:
			e.strs[i] = append(e.strs[i], parquet.ByteArray(v.Str()))
		}
	}
	e.buffered++

	if e.buffered >= e.opts.RowGroupRows {
		return e.flushRowGroup()
	}
	return nil
}

func (e *parquetEncoder) writeNextColumn(rgw file.SerialRowGroupWriter, col int) error {
	cw, err := rgw.NextColumn()
	if err != nil {
		return errors.Trace(err)
	}

	switch w := cw.(type) {
	case *file.Int64ColumnChunkWriter:
		_, err = w.WriteBatch(e.ints[col], nil, nil)
		e.ints[col] = e.ints[col][:0]
	case *file.Float64ColumnChunkWriter:
		_, err = w.WriteBatch(e.floats[col], nil, nil)
		e.floats[col] = e.floats[col][:0]
	case *file.ByteArrayColumnChunkWriter:
		_, err = w.WriteBatch(e.strs[col], nil, nil)
		clear(e.strs[col])
		e.strs[col] = e.strs[col][:0]
	default:
		err = errors.Errorf("unsupported parquet column writer: %T", cw)
	}

	if closeErr := cw.Close(); err == nil {
		err = closeErr
	}
	return errors.Trace(err)
}

func (e *parquetEncoder) flushRowGroup() (err error) {
	defer func() {
		if err != nil {
			e.err = err
		}
	}()
	defer recoverParquetPanic(&err)

	rgw := e.w.AppendRowGroup()
	for col := range e.columns {
		if err := e.writeNextColumn(rgw, col); err != nil {
			return err
		}
	}
	e.buffered = 0
	return errors.Trace(rgw.Close())
}

// Close writes the pending row group and the file footer. After a failed
// Encode it writes nothing and reports that failure.
func (e *parquetEncoder) Close() (err error) {
	if e.closed {
		return e.err
	}
	e.closed = true
	if e.err != nil {
		return e.err
	}
	if e.buffered > 0 {
		if err := e.flushRowGroup(); err != nil {
			return err
		}
	}

	defer recoverParquetPanic(&err)
	if err := e.w.Close(); err != nil {
		e.err = errors.Trace(err)
		return e.err
	}
	return nil
}
