package manifest

import (
	"io"

	"tapInfinity/src/writer"

	"github.com/goccy/go-json"
	"github.com/pingcap/errors"
)

// MessageTypeBatch is the type of every message the Emitter writes.
const MessageTypeBatch = "BATCH"

// Message is one BATCH line: a finished chunk announced to downstream.
type Message struct {
	Type     string          `json:"type"`
	Stream   string          `json:"stream"`
	Encoding writer.Encoding `json:"encoding"`
	Manifest []string        `json:"manifest"`
}

// Emitter writes one JSON line per finished chunk. It is not safe for
// concurrent use.
type Emitter struct {
	out    io.Writer
	stream string
	count  int
}

// NewEmitter creates an emitter announcing chunks of stream on w.
func NewEmitter(w io.Writer, stream string) *Emitter {
	return &Emitter{out: w, stream: stream}
}

// Emit announces b. Chunks without a location are rejected, since a
// consumer could never retrieve them.
func (e *Emitter) Emit(b writer.Batch) error {
	if len(b.Manifest) == 0 {
		return errors.Errorf("batch %s has no location", b.Name)
	}
	line, err := json.Marshal(Message{
		Type:     MessageTypeBatch,
		Stream:   e.stream,
		Encoding: b.Encoding,
		Manifest: b.Manifest,
	})
	if err != nil {
		return errors.Trace(err)
	}
	line = append(line, '\n')

	if _, err := e.out.Write(line); err != nil {
		return errors.Annotatef(err, "emit batch %s", b.Name)
	}
	e.count++
	return nil
}

// Count returns how many messages were written.
func (e *Emitter) Count() int {
	return e.count
}
