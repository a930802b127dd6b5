package generator

import (
	"testing"

	"tapInfinity/src/spec"

	"github.com/stretchr/testify/require"
)

func TestRecordIteratorOrder(t *testing.T) {
	it := NewRecordIterator(5, 6)
	require.Len(t, it.Schema(), 6)
	require.Equal(t, 5, it.Remaining())

	var ids, repKeys []int64
	for {
		row, ok := it.Next()
		if !ok {
			break
		}
		require.Len(t, row, 6)
		for i, f := range row {
			require.Equal(t, spec.ColumnName(i), f.Name)
			require.Equal(t, it.Schema()[i].Kind, f.Value.Kind())
		}
		id, _ := row.Get(spec.IDColumn)
		rep, _ := row.Get(spec.ReplicationKeyColumn)
		ids = append(ids, id.Int())
		repKeys = append(repKeys, rep.Int())
	}
	require.Equal(t, []int64{0, 1, 2, 3, 4}, ids)
	require.Equal(t, ids, repKeys)
	require.Zero(t, it.Remaining())
}

func TestRecordIteratorIsNotRestartable(t *testing.T) {
	it := NewRecordIterator(2, 2)
	_, ok := it.Next()
	require.True(t, ok)
	_, ok = it.Next()
	require.True(t, ok)
	_, ok = it.Next()
	require.False(t, ok)
	_, ok = it.Next()
	require.False(t, ok)

	fresh := NewRecordIterator(2, 2)
	row, ok := fresh.Next()
	require.True(t, ok)
	id, _ := row.Get(spec.IDColumn)
	require.Equal(t, int64(0), id.Int())
}

func TestRecordIteratorBounds(t *testing.T) {
	it := NewRecordIterator(-3, 0)
	require.Len(t, it.Schema(), spec.MinColumnCount)
	_, ok := it.Next()
	require.False(t, ok)

	it = NewRecordIterator(1, 1)
	row, ok := it.Next()
	require.True(t, ok)
	require.Len(t, row, 2)
}

func TestStreamInfo(t *testing.T) {
	s := NewStreamInfo("infinity_one")
	require.Equal(t, []string{"id"}, s.KeyProperties)
	require.Equal(t, "rep_key", s.ReplicationKey)
	require.True(t, s.IsSorted)
	require.False(t, s.IsTimestampReplicationKey)
}
