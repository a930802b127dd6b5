package spec

// Field is one named value of a row.
type Field struct {
	Name  string
	Value Value
}

// Row is a generated record. Fields are ordered by column index.
type Row []Field

// Get returns the value stored under name.
func (r Row) Get(name string) (Value, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// AppendJSON appends r to b as a flat JSON object, keeping column order.
func (r Row) AppendJSON(b []byte) []byte {
	b = append(b, '{')
	for i, f := range r {
		if i > 0 {
			b = append(b, ',')
		}
		b = appendJSONString(b, f.Name)
		b = append(b, ':')
		b = f.Value.AppendJSON(b)
	}
	return append(b, '}')
}

// MarshalJSON implements json.Marshaler.
func (r Row) MarshalJSON() ([]byte, error) {
	return r.AppendJSON(make([]byte, 0, 32*len(r))), nil
}
