package spec

import (
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// MaxRandomInt is the inclusive upper bound of generated integer values.
const MaxRandomInt = 2_000_000_000

// TimestampLayout is how timestamp values are rendered in text formats.
const TimestampLayout = time.RFC3339Nano

// Value is a generated column value. Exactly one payload is meaningful,
// selected by Kind.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	t    time.Time
}

// IntegerValue builds a KindInteger value.
func IntegerValue(v int64) Value { return Value{kind: KindInteger, i: v} }

// NumberValue builds a KindNumber value.
func NumberValue(v float64) Value { return Value{kind: KindNumber, f: v} }

// StringValue builds a KindString value.
func StringValue(v string) Value { return Value{kind: KindString, s: v} }

// TimestampValue builds a KindTimestamp value.
func TimestampValue(v time.Time) Value { return Value{kind: KindTimestamp, t: v} }

func (v Value) Kind() Kind           { return v.kind }
func (v Value) Int() int64           { return v.i }
func (v Value) Float() float64       { return v.f }
func (v Value) Str() string          { return v.s }
func (v Value) Timestamp() time.Time { return v.t }

// AppendJSON appends the JSON literal of v to b.
func (v Value) AppendJSON(b []byte) []byte {
	switch v.kind {
	case KindInteger:
		return strconv.AppendInt(b, v.i, 10)
	case KindNumber:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return append(b, "null"...)
		}
		return strconv.AppendFloat(b, v.f, 'g', -1, 64)
	case KindString:
		return appendJSONString(b, v.s)
	case KindTimestamp:
		b = append(b, '"')
		b = v.t.AppendFormat(b, TimestampLayout)
		return append(b, '"')
	default:
		return append(b, "null"...)
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return v.AppendJSON(nil), nil
}

// String renders v the way text formats print it.
func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindNumber:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindTimestamp:
		return v.t.Format(TimestampLayout)
	default:
		return ""
	}
}

func appendJSONString(b []byte, s string) []byte {
	quoted, err := json.Marshal(s)
	if err != nil {
		return strconv.AppendQuote(b, s)
	}
	return append(b, quoted...)
}

// ColumnValue synthesizes the value of column columnIndex in row rowIndex.
// Columns 0 and 1 echo the row index; the others are random.
func ColumnValue(rowIndex, columnIndex int, rng *rand.Rand) Value {
	if columnIndex < MinColumnCount {
		return IntegerValue(int64(rowIndex))
	}

	switch kindOf(columnIndex) {
	case KindInteger:
		return IntegerValue(rng.Int63n(MaxRandomInt + 1))
	case KindNumber:
		return NumberValue(rng.Float64())
	case KindString:
		return StringValue(uuid.New().String())
	default:
		return TimestampValue(time.Now())
	}
}

// NewRand returns a generator seeded the same way for every synthesizer.
func NewRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano() + int64(rand.Intn(65536))))
}
