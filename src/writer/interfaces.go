package writer

import (
	"context"

	"tapInfinity/src/spec"

	"github.com/pingcap/tidb/br/pkg/storage"
)

// Storage opens chunk sinks and resolves their locations. Any
// storage.ExternalStorage satisfies it.
type Storage interface {
	Create(ctx context.Context, name string, option *storage.WriterOption) (storage.ExternalFileWriter, error)
	DeleteFile(ctx context.Context, name string) error
	URI() string
}

// RecordSource yields rows in order. Next reports false once exhausted.
type RecordSource interface {
	Next() (spec.Row, bool)
}

// recordEncoder serializes rows into a chunk. Close flushes everything the
// encoder buffered but leaves the underlying sink open.
type recordEncoder interface {
	Encode(row spec.Row) error
	Close() error
}
