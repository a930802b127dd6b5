package generator

import (
	"context"
	"fmt"
	"io"
	"time"

	"tapInfinity/src/config"
	"tapInfinity/src/manifest"
	"tapInfinity/src/util"
	"tapInfinity/src/writer"

	"github.com/docker/go-units"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Summary describes one generation run. Only chunks that were announced
// downstream are counted.
type Summary struct {
	RunID     string
	Stream    StreamInfo
	Encoding  writer.Encoding
	Chunks    int
	Rows      int64
	Bytes     int64
	Elapsed   time.Duration
	Locations []string
}

// Orchestrator runs one generation pass: rows from a RecordIterator go
// through a BatchWriter and every finished chunk is handed to an emitter.
type Orchestrator struct {
	cfg     *config.Config
	store   writer.Storage
	emitter BatchEmitter
	stream  StreamInfo

	progress   bool
	interval   time.Duration
	forceEvery int
}

// NewOrchestrator creates an orchestrator that writes chunks to store and
// BATCH messages to out.
func NewOrchestrator(cfg *config.Config, store writer.Storage, out io.Writer) (*Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New("orchestrator requires a config")
	}
	if store == nil {
		return nil, errors.New("orchestrator requires a storage")
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return &Orchestrator{
		cfg:      cfg,
		store:    store,
		emitter:  manifest.NewEmitter(out, cfg.Stream),
		stream:   NewStreamInfo(cfg.Stream),
		interval: time.Second,
	}, nil
}

// EnableProgress renders a progress bar on stderr while running.
func (o *Orchestrator) EnableProgress(interval time.Duration) {
	o.progress = true
	if interval > 0 {
		o.interval = interval
	}
}

// ForceRotateEvery forces a new chunk every n rows regardless of batch size.
// Zero disables it.
func (o *Orchestrator) ForceRotateEvery(n int) {
	o.forceEvery = max(n, 0)
}

// Stream returns what the generated stream declares to consumers.
func (o *Orchestrator) Stream() StreamInfo {
	return o.stream
}

// Run generates every configured row. On failure the returned Summary still
// lists the chunks that were announced before the failure.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	start := time.Now()

	records := NewRecordIterator(o.cfg.RowCount, o.cfg.ColumnCount)
	policy := writer.NewRotationPolicy(o.cfg.BatchSize)

	var logger *util.ProgressLogger
	if o.progress {
		logger = util.NewProgressLogger(int64(records.Remaining()), "writing", o.interval)
		logger.Start()
		defer logger.Stop()
	}

	opts := o.cfg.WriterOptions()
	opts.Columns = records.Schema()
	opts.RunID = writer.NewRunID(o.cfg.TapName, o.cfg.Stream)

	summary := Summary{
		RunID:    opts.RunID,
		Stream:   o.stream,
		Encoding: opts.Encoding,
	}

	bw, err := writer.NewBatchWriter(&storeWithStats{Storage: o.store, logger: logger}, opts, policy)
	if err != nil {
		return summary, errors.Trace(err)
	}

	src := &rowSource{
		src:        records,
		policy:     policy,
		logger:     logger,
		forceEvery: o.forceEvery,
	}

	log.Info("generation started",
		zap.String("run", opts.RunID),
		zap.String("stream", o.cfg.Stream),
		zap.Int("rows", o.cfg.RowCount),
		zap.Int("columns", len(opts.Columns)),
		zap.Int("batchSize", o.cfg.BatchSize),
		zap.String("format", opts.Encoding.Format),
		zap.String("compression", opts.Encoding.Compression))

	err = bw.WriteAll(ctx, src, func(b writer.Batch) error {
		if err := o.emitter.Emit(b); err != nil {
			return err
		}
		summary.Chunks++
		summary.Rows += int64(b.Records)
		summary.Bytes += b.Bytes
		summary.Locations = append(summary.Locations, b.Manifest...)
		logger.UpdateChunks(1)
		return nil
	})
	summary.Elapsed = time.Since(start)
	if err != nil {
		log.Error("generation failed",
			zap.String("run", opts.RunID),
			zap.Int("chunks", summary.Chunks),
			zap.Duration("elapsed", summary.Elapsed),
			zap.Error(err))
		return summary, errors.Trace(err)
	}

	log.Info("generation finished",
		zap.String("run", opts.RunID),
		zap.Int("chunks", summary.Chunks),
		zap.Int64("rows", summary.Rows),
		zap.Int64("bytes", summary.Bytes),
		zap.Duration("elapsed", summary.Elapsed))
	return summary, nil
}

// Print writes a human readable summary.
func (s Summary) Print(w io.Writer) {
	throughput := 0.0
	if s.Elapsed.Seconds() > 0 {
		throughput = float64(s.Bytes) / s.Elapsed.Seconds()
	}

	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Run: %s\n", s.RunID)
	fmt.Fprintf(w, "  Stream: %s\n", s.Stream.Name)
	fmt.Fprintf(w, "  Encoding: %s/%s\n", s.Encoding.Format, s.Encoding.Compression)
	fmt.Fprintf(w, "  Chunks: %d\n", s.Chunks)
	fmt.Fprintf(w, "  Rows: %d\n", s.Rows)
	fmt.Fprintf(w, "  Bytes: %s\n", units.BytesSize(float64(s.Bytes)))
	fmt.Fprintf(w, "  Throughput: %s/s\n", units.BytesSize(throughput))
	fmt.Fprintf(w, "  Took: %s\n", s.Elapsed)
}
