package writer

import (
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pingcap/errors"
)

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// newCompressor wraps w in the named compression layer. Closing the returned
// writer flushes the layer without closing w.
func newCompressor(compression string, w io.Writer) (io.WriteCloser, error) {
	switch compression {
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, errors.Trace(err)
		}
		return enc, nil
	case CompressionSnappy:
		return snappy.NewBufferedWriter(w), nil
	case CompressionNone, "":
		return nopWriteCloser{w}, nil
	default:
		return nil, errors.Errorf("unsupported compression: %q", compression)
	}
}

// NewDecompressor is the reading counterpart of the compression layer, used
// to inspect finished chunks.
func NewDecompressor(compression string, r io.Reader) (io.ReadCloser, error) {
	switch compression {
	case CompressionGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return gr, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return dec.IOReadCloser(), nil
	case CompressionSnappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	case CompressionNone, "":
		return io.NopCloser(r), nil
	default:
		return nil, errors.Errorf("unsupported compression: %q", compression)
	}
}
