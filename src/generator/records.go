package generator

import (
	"math/rand"

	"tapInfinity/src/spec"
)

// RecordIterator lazily produces rowCount rows with row indices 0, 1, ...
// in order. It is single-pass: once exhausted it stays exhausted, and a new
// pass needs a new iterator.
type RecordIterator struct {
	columns  []spec.Column
	rowCount int
	next     int
	rng      *rand.Rand
}

// NewRecordIterator creates an iterator over rowCount rows of columnCount
// columns. columnCount is clamped to spec.MinColumnCount and a negative
// rowCount yields no rows.
func NewRecordIterator(rowCount, columnCount int) *RecordIterator {
	return &RecordIterator{
		columns:  spec.Schema(columnCount),
		rowCount: max(rowCount, 0),
		rng:      spec.NewRand(),
	}
}

// Schema returns the columns every produced row carries.
func (it *RecordIterator) Schema() []spec.Column {
	return it.columns
}

// Remaining returns how many rows are still to be produced.
func (it *RecordIterator) Remaining() int {
	return it.rowCount - it.next
}

// Next returns the next row, or false once rowCount rows were produced.
func (it *RecordIterator) Next() (spec.Row, bool) {
	if it.next >= it.rowCount {
		return nil, false
	}
	rowIndex := it.next
	it.next++

	row := make(spec.Row, len(it.columns))
	for i, c := range it.columns {
		row[i] = spec.Field{
			Name:  c.Name,
			Value: spec.ColumnValue(rowIndex, c.Index, it.rng),
		}
	}
	return row, true
}
