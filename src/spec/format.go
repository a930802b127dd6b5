package spec

import (
	"bytes"
	"fmt"
	"text/tabwriter"
)

// DisplayType returns the JSON Schema type shown in previews.
func (c Column) DisplayType() string {
	if c.Kind == KindTimestamp {
		return "string (date-time)"
	}
	return c.Kind.String()
}

// Property is the JSON Schema property of a column.
type Property struct {
	Type   []string `json:"type"`
	Format string   `json:"format,omitempty"`
}

// ObjectSchema is the JSON Schema document advertised for a stream.
type ObjectSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// JSONSchema renders columns as a JSON Schema object. Every column except the
// key columns is nullable.
func JSONSchema(columns []Column) ObjectSchema {
	props := make(map[string]Property, len(columns))
	for _, c := range columns {
		var p Property
		switch c.Kind {
		case KindTimestamp:
			p = Property{Type: []string{"string"}, Format: "date-time"}
		default:
			p = Property{Type: []string{c.Kind.String()}}
		}
		if c.Index >= MinColumnCount {
			p.Type = append(p.Type, "null")
		}
		props[c.Name] = p
	}
	return ObjectSchema{
		Type:       "object",
		Properties: props,
		Required:   []string{IDColumn, ReplicationKeyColumn},
	}
}

// FormatSchemaTable renders a human-readable table for columns.
func FormatSchemaTable(columns []Column) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "Index\tName\tType\tKey")
	for _, c := range columns {
		key := "-"
		switch c.Name {
		case IDColumn:
			key = "primary"
		case ReplicationKeyColumn:
			key = "replication"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.Index, c.Name, c.DisplayType(), key)
	}

	_ = w.Flush()
	return buf.String()
}
