package generator

import (
	"context"

	"tapInfinity/src/util"
	"tapInfinity/src/writer"

	"github.com/pingcap/tidb/br/pkg/storage"
)

// storeWithStats wraps a storage so every chunk sink reports its bytes.
type storeWithStats struct {
	writer.Storage
	logger *util.ProgressLogger
}

func (s *storeWithStats) Create(ctx context.Context, name string, option *storage.WriterOption) (storage.ExternalFileWriter, error) {
	w, err := s.Storage.Create(ctx, name, option)
	if err != nil {
		return nil, err
	}
	return &writerWithStats{writer: w, logger: s.logger}, nil
}

// writerWithStats wraps a writer and updates progress for bytes written.
type writerWithStats struct {
	writer storage.ExternalFileWriter
	logger *util.ProgressLogger
}

func (cw *writerWithStats) Write(ctx context.Context, p []byte) (int, error) {
	n, err := cw.writer.Write(ctx, p)
	cw.logger.UpdateBytes(int64(n))
	return n, err
}

func (cw *writerWithStats) Close(ctx context.Context) error {
	return cw.writer.Close(ctx)
}
