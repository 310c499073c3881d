package diag

import (
	"stitch/internal/source"
)

// Code identifies the condition a diagnostic reports.
type Code string

const (
	// CodeNoLocation: a candidate's span could not be resolved to a
	// spelling location; the candidate was skipped.
	CodeNoLocation Code = "no-location"
	// CodeOverlap: a candidate overlaps an already-instrumented span;
	// first match wins and the later candidate was skipped.
	CodeOverlap Code = "overlap"
	// CodeTraceFailed: the observation channel rejected a record.
	CodeTraceFailed Code = "trace-failed"
	// CodeASTMissing: a source file has no AST dump next to it.
	CodeASTMissing Code = "ast-missing"
)

// Diagnostic is one reportable condition tied to a source span.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
}
