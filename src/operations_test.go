package main

import (
	"bytes"
	"context"
	"testing"

	"tapInfinity/src/config"

	"github.com/goccy/go-json"
	"github.com/pingcap/tidb/br/pkg/storage"
	"github.com/stretchr/testify/require"
)

func TestShowSchema(t *testing.T) {
	cfg := config.Default()
	cfg.ColumnCount = 5

	var buf bytes.Buffer
	require.NoError(t, ShowSchema(&cfg, &buf))

	parts := bytes.SplitN(buf.Bytes(), []byte("\n\n"), 2)
	require.Len(t, parts, 2)

	var doc struct {
		Stream         string   `json:"stream"`
		KeyProperties  []string `json:"key_properties"`
		ReplicationKey string   `json:"replication_key"`
		Schema         struct {
			Properties map[string]any `json:"properties"`
		} `json:"schema"`
	}
	require.NoError(t, json.Unmarshal(parts[0], &doc))
	require.Equal(t, "infinity_one", doc.Stream)
	require.Equal(t, []string{"id"}, doc.KeyProperties)
	require.Equal(t, "rep_key", doc.ReplicationKey)
	require.Len(t, doc.Schema.Properties, 5)
	require.Contains(t, string(parts[1]), "Col_4_int")
}

func TestListChunksFiltersPrefix(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.WriteFile(ctx, "runs-a-1.json.gz", []byte("abc")))
	require.NoError(t, store.WriteFile(ctx, "runs-a-2.json.gz", []byte("de")))
	require.NoError(t, store.WriteFile(ctx, "other.txt", []byte("x")))

	names, sizes, err := listChunks(ctx, store, "runs-")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"runs-a-1.json.gz", "runs-a-2.json.gz"}, names)
	var total int64
	for _, s := range sizes {
		total += s
	}
	require.Equal(t, int64(5), total)
}

func TestDeleteAllFilesLocal(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.BatchConfig.Storage.Root = dir
	cfg.BatchConfig.Storage.Prefix = "runs-"

	ctx := context.Background()
	store, err := config.GetStore(ctx, &cfg)
	require.NoError(t, err)
	require.NoError(t, store.WriteFile(ctx, "runs-a-1.json", []byte("{}")))
	require.NoError(t, store.WriteFile(ctx, "keep.json", []byte("{}")))

	require.NoError(t, DeleteAllFiles(&cfg))

	exists, err := store.FileExists(ctx, "runs-a-1.json")
	require.NoError(t, err)
	require.False(t, exists)
	exists, err = store.FileExists(ctx, "keep.json")
	require.NoError(t, err)
	require.True(t, exists)
}
