// Package trace carries the observation channel: the ordered stream of
// records describing every instrumented fragment. Downstream repair tooling
// correlates this stream positionally with the rewritten source, so sinks
// must preserve emission order and records are immutable once emitted.
package trace

import (
	"fmt"

	"stitch/internal/source"
)

// Record describes one instrumented fragment: the spelling coordinates of
// its span (1-based, end names the last byte) and the verbatim original
// text.
type Record struct {
	BeginLine uint32 `json:"begin_line" msgpack:"bl"`
	BeginCol  uint32 `json:"begin_col" msgpack:"bc"`
	EndLine   uint32 `json:"end_line" msgpack:"el"`
	EndCol    uint32 `json:"end_col" msgpack:"ec"`
	Text      string `json:"text" msgpack:"t"`
}

// NewRecord builds a record from resolved bounds and the fragment text.
func NewRecord(begin, end source.LineCol, text string) Record {
	return Record{
		BeginLine: begin.Line,
		BeginCol:  begin.Col,
		EndLine:   end.Line,
		EndCol:    end.Col,
		Text:      text,
	}
}

// Coords renders the four span coordinates the way both the channel format
// and the instrumented hook call spell them.
func (r Record) Coords() string {
	return fmt.Sprintf("%d %d %d %d", r.BeginLine, r.BeginCol, r.EndLine, r.EndCol)
}

// Sink consumes records in emission order.
type Sink interface {
	Emit(Record) error
}
