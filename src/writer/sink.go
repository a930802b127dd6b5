package writer

import (
	"context"

	"github.com/pingcap/tidb/br/pkg/storage"
)

// sinkWriter adapts an ExternalFileWriter to io.Writer and counts the bytes
// that reached storage.
type sinkWriter struct {
	ctx     context.Context
	writer  storage.ExternalFileWriter
	written int64
}

func (sw *sinkWriter) Write(p []byte) (int, error) {
	n, err := sw.writer.Write(sw.ctx, p)
	sw.written += int64(n)
	return n, err
}
