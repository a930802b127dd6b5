package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"tapInfinity/src/config"
	"tapInfinity/src/generator"
	"tapInfinity/src/spec"

	"github.com/docker/go-units"
	"github.com/goccy/go-json"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/pingcap/tidb/br/pkg/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sync generates every configured row, writes BATCH messages to stdout and
// a summary to stderr.
func Sync(cfg *config.Config, progress bool, forceEvery int) error {
	ctx := context.Background()
	store, err := config.GetStore(ctx, cfg)
	if err != nil {
		return errors.Trace(err)
	}
	defer store.Close()

	o, err := generator.NewOrchestrator(cfg, store, os.Stdout)
	if err != nil {
		return errors.Trace(err)
	}
	if progress {
		o.EnableProgress(time.Second)
	}
	o.ForceRotateEvery(forceEvery)

	summary, err := o.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generate failed after %s, %d chunks were announced\n",
			summary.Elapsed, summary.Chunks)
		return errors.Trace(err)
	}
	summary.Print(os.Stderr)
	return nil
}

// ShowSchema prints the stream declaration, its JSON schema and a table of
// the columns.
func ShowSchema(cfg *config.Config, w io.Writer) error {
	columns := spec.Schema(cfg.ColumnCount)
	doc := struct {
		generator.StreamInfo
		Schema spec.ObjectSchema `json:"schema"`
	}{
		StreamInfo: generator.NewStreamInfo(cfg.Stream),
		Schema:     spec.JSONSchema(columns),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Trace(err)
	}
	if _, err := fmt.Fprintf(w, "%s\n\n%s", data, spec.FormatSchemaTable(columns)); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func listChunks(ctx context.Context, store storage.ExternalStorage, prefix string) ([]string, []int64, error) {
	var (
		names []string
		sizes []int64
	)
	err := store.WalkDir(ctx, &storage.WalkOption{}, func(path string, size int64) error {
		if strings.HasPrefix(path, prefix) {
			names = append(names, path)
			sizes = append(sizes, size)
		}
		return nil
	})
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return names, sizes, nil
}

// ShowFiles lists the chunk files under the storage root.
func ShowFiles(cfg *config.Config) error {
	ctx := context.Background()
	store, err := config.GetStore(ctx, cfg)
	if err != nil {
		return errors.Trace(err)
	}
	//nolint: errcheck
	defer store.Close()

	names, sizes, err := listChunks(ctx, store, cfg.BatchConfig.Storage.Prefix)
	if err != nil {
		return err
	}

	var total int64
	for i, name := range names {
		fmt.Printf("Name: %s, Size: %d (%s)\n", name, sizes[i], units.BytesSize(float64(sizes[i])))
		total += sizes[i]
	}
	fmt.Printf("Files: %d, Total: %s\n", len(names), units.BytesSize(float64(total)))
	return nil
}

// DeleteAllFiles removes every chunk file under the storage root and prefix.
func DeleteAllFiles(cfg *config.Config) error {
	ctx := context.Background()
	store, err := config.GetStore(ctx, cfg)
	if err != nil {
		return errors.Trace(err)
	}
	//nolint: errcheck
	defer store.Close()

	names, _, err := listChunks(ctx, store, cfg.BatchConfig.Storage.Prefix)
	if err != nil {
		return err
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for _, name := range names {
		eg.Go(func() error {
			return errors.Annotatef(store.DeleteFile(egCtx, name), "delete %s", name)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	log.Info("deleted chunk files", zap.Int("files", len(names)))
	return nil
}
