package writer

import (
	"strings"

	"github.com/pingcap/errors"
)

const (
	FormatJSONL   = "jsonl"
	FormatParquet = "parquet"

	CompressionGzip   = "gzip"
	CompressionZstd   = "zstd"
	CompressionSnappy = "snappy"
	CompressionNone   = "none"
)

// Encoding identifies how a chunk is serialized. It is reported unchanged in
// every Batch.
type Encoding struct {
	Format      string `toml:"format" json:"format"`
	Compression string `toml:"compression" json:"compression"`
}

// Normalized lowercases and trims both identifiers.
func (e Encoding) Normalized() Encoding {
	return Encoding{
		Format:      strings.ToLower(strings.TrimSpace(e.Format)),
		Compression: strings.ToLower(strings.TrimSpace(e.Compression)),
	}
}

// Validate reports whether the format and compression pair is supported.
func (e Encoding) Validate() error {
	e = e.Normalized()
	switch e.Format {
	case FormatJSONL:
		switch e.Compression {
		case CompressionGzip, CompressionZstd, CompressionSnappy, CompressionNone:
			return nil
		}
		return errors.Errorf("unsupported jsonl compression: %q", e.Compression)
	case FormatParquet:
		_, err := getParquetCompressionCodec(e.Compression)
		return err
	default:
		return errors.Errorf("unsupported batch format: %q", e.Format)
	}
}

// FileSuffix returns the chunk file extension, without the leading dot.
func (e Encoding) FileSuffix() string {
	e = e.Normalized()
	if e.Format == FormatParquet {
		return "parquet"
	}
	switch e.Compression {
	case CompressionGzip:
		return "json.gz"
	case CompressionZstd:
		return "json.zst"
	case CompressionSnappy:
		return "json.sz"
	default:
		return "json"
	}
}
