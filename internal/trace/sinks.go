package trace

import (
	"encoding/json"
	"fmt"
	"io"
)

// Writer is the plain-text channel sink: two lines per record, coordinates
// first, verbatim fragment text second.
type Writer struct {
	out io.Writer
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) Emit(r Record) error {
	if _, err := fmt.Fprintf(w.out, "%s\n%s\n", r.Coords(), r.Text); err != nil {
		return fmt.Errorf("trace write: %w", err)
	}
	return nil
}

// JSONWriter emits one JSON object per line.
type JSONWriter struct {
	enc *json.Encoder
}

func NewJSONWriter(out io.Writer) *JSONWriter {
	enc := json.NewEncoder(out)
	// The channel carries verbatim source text; `n < 10` must not come out
	// as `n < 10`.
	enc.SetEscapeHTML(false)
	return &JSONWriter{enc: enc}
}

func (w *JSONWriter) Emit(r Record) error {
	if err := w.enc.Encode(r); err != nil {
		return fmt.Errorf("trace write: %w", err)
	}
	return nil
}

// Collector keeps records in memory, in emission order. Used by tests and
// by the driver when records also feed the result cache.
type Collector struct {
	records []Record
}

func (c *Collector) Emit(r Record) error {
	c.records = append(c.records, r)
	return nil
}

// Records returns the collected records. The slice is owned by the
// collector; callers must not mutate it.
func (c *Collector) Records() []Record {
	return c.records
}

// Tee forwards every record to each sink in order, stopping at the first
// failure.
type Tee struct {
	sinks []Sink
}

func NewTee(sinks ...Sink) *Tee {
	return &Tee{sinks: sinks}
}

func (t *Tee) Emit(r Record) error {
	for _, s := range t.sinks {
		if err := s.Emit(r); err != nil {
			return err
		}
	}
	return nil
}
