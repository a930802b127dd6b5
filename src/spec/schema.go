package spec

import (
	"strconv"
)

// Kind is the logical type of a generated column.
type Kind uint8

const (
	KindInteger Kind = iota
	KindNumber
	KindString
	KindTimestamp
)

// String returns the JSON Schema name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindTimestamp:
		return "date-time"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

const (
	// IDColumn is the primary key column, always at index 0.
	IDColumn = "id"
	// ReplicationKeyColumn is the replication cursor column, always at index 1.
	ReplicationKeyColumn = "rep_key"

	// MinColumnCount guarantees IDColumn and ReplicationKeyColumn exist.
	MinColumnCount = 2
)

// Column describes one generated column. It is derived from Index alone and is
// never persisted.
type Column struct {
	Index int
	Name  string
	Kind  Kind
}

// kindOf maps a column index to its logical type.
func kindOf(index int) Kind {
	if index < MinColumnCount {
		return KindInteger
	}
	switch index % 4 {
	case 0:
		return KindInteger
	case 1:
		return KindNumber
	case 2:
		return KindString
	default:
		return KindTimestamp
	}
}

var kindSuffix = [...]string{
	KindInteger:   "int",
	KindNumber:    "float",
	KindString:    "string",
	KindTimestamp: "datetime",
}

// ColumnName returns the stable name of the column at index.
func ColumnName(index int) string {
	switch index {
	case 0:
		return IDColumn
	case 1:
		return ReplicationKeyColumn
	}
	return "Col_" + strconv.Itoa(index) + "_" + kindSuffix[kindOf(index)]
}

// ColumnSchema returns the descriptor of the column at index.
func ColumnSchema(index int) Column {
	return Column{
		Index: index,
		Name:  ColumnName(index),
		Kind:  kindOf(index),
	}
}

// ClampColumnCount raises columnCount to MinColumnCount when it is smaller.
func ClampColumnCount(columnCount int) int {
	return max(columnCount, MinColumnCount)
}

// Schema returns the ordered descriptors for indices 0..columnCount-1, with
// columnCount clamped to MinColumnCount.
func Schema(columnCount int) []Column {
	columnCount = ClampColumnCount(columnCount)
	columns := make([]Column, columnCount)
	for i := range columnCount {
		columns[i] = ColumnSchema(i)
	}
	return columns
}
