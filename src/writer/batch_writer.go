package writer

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strings"

	"tapInfinity/src/spec"

	"github.com/google/uuid"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/pingcap/tidb/br/pkg/storage"
	"go.uber.org/zap"
)

// ErrBatchesConsumed is returned when a BatchWriter is iterated twice.
var ErrBatchesConsumed = errors.New("batch writer already consumed")

// Batch describes one finished chunk.
type Batch struct {
	Encoding Encoding
	// Manifest lists where the chunk can be retrieved, in order.
	Manifest []string

	Name     string
	Sequence int
	Records  int
	Bytes    int64
}

// Options configure a BatchWriter.
type Options struct {
	Encoding Encoding
	Columns  []spec.Column
	// Prefix is prepended to every chunk name.
	Prefix string
	// RunID makes chunk names unique per run. A random one is used when empty.
	RunID   string
	Parquet ParquetOptions
}

// NewRunID builds the identifier of one generation run.
func NewRunID(tapName, stream string) string {
	return fmt.Sprintf("%s--%s-%s", tapName, stream, uuid.New().String())
}

// BatchWriter streams records into compressed chunks on storage and rotates
// chunks according to a RotationPolicy. At most one chunk is open at a time.
type BatchWriter struct {
	store    Storage
	opts     Options
	policy   *RotationPolicy
	encoding Encoding

	sequence int
	consumed bool
}

// NewBatchWriter validates opts and creates a writer.
func NewBatchWriter(store Storage, opts Options, policy *RotationPolicy) (*BatchWriter, error) {
	if store == nil {
		return nil, errors.New("batch writer requires a storage")
	}
	if policy == nil {
		return nil, errors.New("batch writer requires a rotation policy")
	}
	if err := opts.Encoding.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if len(opts.Columns) < spec.MinColumnCount {
		return nil, errors.Errorf("batch writer requires at least %d columns, got %d",
			spec.MinColumnCount, len(opts.Columns))
	}
	if opts.RunID == "" {
		opts.RunID = uuid.New().String()
	}

	return &BatchWriter{
		store:    store,
		opts:     opts,
		policy:   policy,
		encoding: opts.Encoding.Normalized(),
	}, nil
}

// Policy returns the rotation policy the writer consults.
func (w *BatchWriter) Policy() *RotationPolicy {
	return w.policy
}

// chunk is the open sink plus its encoder.
type chunk struct {
	name     string
	sequence int
	sink     storage.ExternalFileWriter
	out      *sinkWriter
	enc      recordEncoder
	records  int
}

func (w *BatchWriter) chunkName(sequence int) string {
	return fmt.Sprintf("%s%s-%d.%s", w.opts.Prefix, w.opts.RunID, sequence, w.encoding.FileSuffix())
}

func (w *BatchWriter) openChunk(ctx context.Context) (*chunk, error) {
	w.sequence++
	name := w.chunkName(w.sequence)

	sink, err := w.store.Create(ctx, name, &storage.WriterOption{
		Concurrency: 8,
	})
	if err != nil {
		return nil, errors.Annotatef(err, "open chunk %s", name)
	}

	out := &sinkWriter{ctx: ctx, writer: sink}
	var enc recordEncoder
	switch w.encoding.Format {
	case FormatParquet:
		enc, err = newParquetEncoder(out, w.opts.Columns, w.encoding.Compression, w.opts.Parquet)
	default:
		enc, err = newJSONLEncoder(w.encoding.Compression, out)
	}
	if err != nil {
		_ = sink.Close(context.Background())
		if delErr := w.store.DeleteFile(context.Background(), name); delErr != nil {
			log.Warn("delete unopened chunk failed", zap.String("name", name), zap.Error(delErr))
		}
		return nil, errors.Annotatef(err, "open chunk %s", name)
	}

	w.policy.chunkOpened()
	log.Debug("chunk opened", zap.String("name", name), zap.Int("sequence", w.sequence))
	return &chunk{
		name:     name,
		sequence: w.sequence,
		sink:     sink,
		out:      out,
		enc:      enc,
	}, nil
}

func (c *chunk) append(row spec.Row) error {
	if err := c.enc.Encode(row); err != nil {
		return errors.Annotatef(err, "write chunk %s", c.name)
	}
	c.records++
	return nil
}

// finish flushes the encoder and closes the sink. Both are released even
// when the first step fails.
func (c *chunk) finish(ctx context.Context) error {
	encErr := c.enc.Close()
	sinkErr := c.sink.Close(ctx)
	if encErr != nil {
		return errors.Annotatef(encErr, "flush chunk %s", c.name)
	}
	if sinkErr != nil {
		return errors.Annotatef(sinkErr, "close chunk %s", c.name)
	}
	return nil
}

// abandon force-closes an unfinished chunk and removes what reached storage.
func (w *BatchWriter) abandon(c *chunk) {
	// the caller's context may be what failed
	ctx := context.Background()
	defer w.discard(ctx, c)
	defer func() {
		if err := c.sink.Close(ctx); err != nil {
			log.Warn("close abandoned chunk failed", zap.String("name", c.name), zap.Error(err))
		}
	}()
	_ = c.enc.Close()
}

// discard removes the remains of a chunk that will never be reported.
func (w *BatchWriter) discard(ctx context.Context, c *chunk) {
	if err := w.store.DeleteFile(ctx, c.name); err != nil {
		log.Warn("delete abandoned chunk failed", zap.String("name", c.name), zap.Error(err))
	}
	log.Warn("chunk abandoned", zap.String("name", c.name), zap.Int("records", c.records))
}

// ResolveLocation joins name onto the storage URI.
func (w *BatchWriter) ResolveLocation(name string) (string, error) {
	return resolveLocation(w.store.URI(), name)
}

func resolveLocation(root, name string) (string, error) {
	if name == "" {
		return "", errors.New("cannot resolve location of an empty chunk name")
	}
	if root == "" {
		return name, nil
	}
	if strings.Contains(root, "://") {
		loc, err := url.JoinPath(root, name)
		if err != nil {
			return "", errors.Annotatef(err, "resolve location of %s", name)
		}
		return loc, nil
	}
	return strings.TrimRight(root, "/") + "/" + name, nil
}

func (w *BatchWriter) rotate(ctx context.Context, c *chunk) (Batch, error) {
	if err := c.finish(ctx); err != nil {
		w.discard(context.Background(), c)
		return Batch{}, err
	}
	location, err := w.ResolveLocation(c.name)
	if err != nil {
		w.discard(context.Background(), c)
		return Batch{}, errors.Trace(err)
	}

	log.Info("chunk rotated",
		zap.String("name", c.name),
		zap.Int("records", c.records),
		zap.Int64("bytes", c.out.written),
		zap.String("location", location))
	return Batch{
		Encoding: w.opts.Encoding,
		Manifest: []string{location},
		Name:     c.name,
		Sequence: c.sequence,
		Records:  c.records,
		Bytes:    c.out.written,
	}, nil
}

// Batches drains src into chunks and yields one Batch per finished chunk, in
// chunk order. The sequence is single-pass: a second call yields
// ErrBatchesConsumed. Any failure ends the sequence with an error; the open
// chunk, if any, is closed and never reported. Batches yielded earlier stay
// valid. Stopping the range early leaves no sink open.
func (w *BatchWriter) Batches(ctx context.Context, src RecordSource) iter.Seq2[Batch, error] {
	return func(yield func(Batch, error) bool) {
		if w.consumed {
			yield(Batch{}, ErrBatchesConsumed)
			return
		}
		w.consumed = true

		var open *chunk
		defer func() {
			if open != nil {
				w.abandon(open)
			}
		}()

		for {
			row, ok := src.Next()
			if !ok {
				break
			}
			if err := ctx.Err(); err != nil {
				yield(Batch{}, errors.Trace(err))
				return
			}

			// The threshold is read here, after the source produced the row,
			// so a change made while producing it already applies.
			if open != nil && w.policy.shouldRotate(open.records) {
				finished := open
				open = nil
				batch, err := w.rotate(ctx, finished)
				if err != nil {
					yield(Batch{}, err)
					return
				}
				if !yield(batch, nil) {
					return
				}
			}

			if open == nil {
				c, err := w.openChunk(ctx)
				if err != nil {
					yield(Batch{}, err)
					return
				}
				open = c
			}

			if err := open.append(row); err != nil {
				yield(Batch{}, err)
				return
			}
		}

		if open != nil && open.records > 0 {
			finished := open
			open = nil
			batch, err := w.rotate(ctx, finished)
			if err != nil {
				yield(Batch{}, err)
				return
			}
			yield(batch, nil)
		}
	}
}

// WriteAll drains Batches, handing each Batch to emit. It stops at the first
// error from either side.
func (w *BatchWriter) WriteAll(ctx context.Context, src RecordSource, emit func(Batch) error) error {
	for batch, err := range w.Batches(ctx, src) {
		if err != nil {
			return err
		}
		if err := emit(batch); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
