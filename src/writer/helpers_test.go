package writer

import (
	"bufio"
	"bytes"
	"context"
	"testing"

	"tapInfinity/src/spec"

	"github.com/goccy/go-json"
	"github.com/pingcap/errors"
	"github.com/pingcap/tidb/br/pkg/storage"
	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected write failure")

// testSource produces rowCount rows over columns. beforeRow runs just before
// row i is handed out, which is where a producer may retune the policy.
type testSource struct {
	columns   []spec.Column
	rowCount  int
	next      int
	beforeRow func(i int)
}

func newTestSource(rowCount, columnCount int) *testSource {
	return &testSource{columns: spec.Schema(columnCount), rowCount: rowCount}
}

func (s *testSource) Next() (spec.Row, bool) {
	if s.next >= s.rowCount {
		return nil, false
	}
	i := s.next
	s.next++
	if s.beforeRow != nil {
		s.beforeRow(i)
	}
	rng := spec.NewRand()
	row := make(spec.Row, len(s.columns))
	for c, col := range s.columns {
		row[c] = spec.Field{Name: col.Name, Value: spec.ColumnValue(i, c, rng)}
	}
	return row, true
}

// faultyStore counts sink lifecycles and can fail the n-th Write overall.
type faultyStore struct {
	*storage.LocalStorage

	failOnWrite int
	failCreate  bool
	// uri replaces the storage URI when set.
	uri string

	writes int
	opened int
	closed int
}

func newFaultyStore(t *testing.T) *faultyStore {
	t.Helper()
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return &faultyStore{LocalStorage: local}
}

func (s *faultyStore) URI() string {
	if s.uri != "" {
		return s.uri
	}
	return s.LocalStorage.URI()
}

// files lists every object left on the store.
func (s *faultyStore) files(t *testing.T) []string {
	t.Helper()
	var names []string
	err := s.WalkDir(context.Background(), &storage.WalkOption{}, func(path string, _ int64) error {
		names = append(names, path)
		return nil
	})
	require.NoError(t, err)
	return names
}

func (s *faultyStore) Create(ctx context.Context, name string, opt *storage.WriterOption) (storage.ExternalFileWriter, error) {
	if s.failCreate {
		return nil, errInjected
	}
	w, err := s.LocalStorage.Create(ctx, name, opt)
	if err != nil {
		return nil, err
	}
	s.opened++
	return &faultyWriter{inner: w, store: s}, nil
}

type faultyWriter struct {
	inner storage.ExternalFileWriter
	store *faultyStore
}

func (w *faultyWriter) Write(ctx context.Context, p []byte) (int, error) {
	w.store.writes++
	if w.store.failOnWrite > 0 && w.store.writes == w.store.failOnWrite {
		return 0, errInjected
	}
	return w.inner.Write(ctx, p)
}

func (w *faultyWriter) Close(ctx context.Context) error {
	w.store.closed++
	return w.inner.Close(ctx)
}

func newTestWriter(t *testing.T, store Storage, enc Encoding, columnCount, batchSize int) *BatchWriter {
	t.Helper()
	w, err := NewBatchWriter(store, Options{
		Encoding: enc,
		Columns:  spec.Schema(columnCount),
		Prefix:   "out/",
		RunID:    "tap-infinity--infinity_one-test",
	}, NewRotationPolicy(batchSize))
	require.NoError(t, err)
	return w
}

func collect(t *testing.T, w *BatchWriter, src RecordSource) ([]Batch, error) {
	t.Helper()
	var batches []Batch
	for b, err := range w.Batches(context.Background(), src) {
		if err != nil {
			return batches, err
		}
		batches = append(batches, b)
	}
	return batches, nil
}

func recordCounts(batches []Batch) []int {
	counts := make([]int, 0, len(batches))
	for _, b := range batches {
		counts = append(counts, b.Records)
	}
	return counts
}

type keyColumns struct {
	ID     int64 `json:"id"`
	RepKey int64 `json:"rep_key"`
}

// readJSONLChunk decompresses a finished chunk and decodes every line.
func readJSONLChunk(t *testing.T, store storage.ExternalStorage, b Batch) ([]keyColumns, []map[string]any) {
	t.Helper()
	data, err := store.ReadFile(context.Background(), b.Name)
	require.NoError(t, err)

	r, err := NewDecompressor(b.Encoding.Normalized().Compression, bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Close()

	var (
		keys []keyColumns
		rows []map[string]any
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		var k keyColumns
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &k))
		keys = append(keys, k)

		var m map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		rows = append(rows, m)
	}
	require.NoError(t, scanner.Err())
	return keys, rows
}
