package writer

import (
	"io"

	"tapInfinity/src/spec"

	"github.com/docker/go-units"
	"github.com/pingcap/errors"
)

// jsonlEncoder writes one JSON object per line through a compression layer.
type jsonlEncoder struct {
	out    io.WriteCloser
	buffer []byte
}

func newJSONLEncoder(compression string, w io.Writer) (*jsonlEncoder, error) {
	out, err := newCompressor(compression, w)
	if err != nil {
		return nil, err
	}
	return &jsonlEncoder{
		out:    out,
		buffer: make([]byte, 0, 4*units.KiB),
	}, nil
}

func (e *jsonlEncoder) Encode(row spec.Row) error {
	e.buffer = row.AppendJSON(e.buffer[:0])
	e.buffer = append(e.buffer, '\n')
	if _, err := e.out.Write(e.buffer); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (e *jsonlEncoder) Close() error {
	return errors.Trace(e.out.Close())
}
