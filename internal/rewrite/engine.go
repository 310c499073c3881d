// Package rewrite owns the edit buffer for one file: it turns selected
// candidates into trace records plus in-place text substitutions that wrap
// each fragment with a call to the runtime trace hook.
package rewrite

import (
	"fmt"
	"sort"

	"stitch/internal/ast"
	"stitch/internal/diag"
	"stitch/internal/match"
	"stitch/internal/source"
	"stitch/internal/trace"
)

// DefaultHook is the runtime function instrumented code calls with the span
// coordinates of the fragment about to execute.
const DefaultHook = "stitch_trace"

// Options configures one engine.
type Options struct {
	// Hook is the trace hook function name; empty means DefaultHook.
	Hook string
	// MaxDiagnostics caps the per-file bag.
	MaxDiagnostics int
}

// Result is the outcome of instrumenting one file.
type Result struct {
	// Output is the edit buffer after all substitutions. Byte-identical to
	// the input when nothing was instrumented.
	Output []byte
	// Records mirrors what was emitted to the observation channel, in order.
	Records []trace.Record
	// Instrumented counts applied rewrites; Skipped counts candidates
	// dropped for missing locations or overlaps.
	Instrumented int
	Skipped      int
	Bag          *diag.Bag
}

// Engine instruments one file. It is single-use: the candidate list of one
// Run must come from the tree the engine was built with.
type Engine struct {
	fset *source.FileSet
	file *source.File
	tree *ast.Tree
	sink trace.Sink
	hook string
	bag  *diag.Bag
}

type edit struct {
	span source.Span
	text string
}

func NewEngine(fset *source.FileSet, tree *ast.Tree, sink trace.Sink, opts Options) *Engine {
	hook := opts.Hook
	if hook == "" {
		hook = DefaultHook
	}
	maxDiags := opts.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = 100
	}
	return &Engine{
		fset: fset,
		file: fset.Get(tree.FileID()),
		tree: tree,
		sink: sink,
		hook: hook,
		bag:  diag.NewBag(maxDiags),
	}
}

// Run processes candidates in selection order. For each one it resolves the
// spelling span, emits the trace record, and queues the wrapping
// substitution. Candidates without a resolvable location are skipped with a
// diagnostic; a candidate overlapping an earlier one loses (first match
// wins) and is skipped with a diagnostic. Channel write failures are fatal:
// downstream tooling correlates records with rewrites positionally, so a
// torn stream is worse than no stream.
func (e *Engine) Run(cands []match.Candidate) (*Result, error) {
	claimed := make([]source.Span, 0, len(cands))
	edits := make([]edit, 0, len(cands))
	records := make([]trace.Record, 0, len(cands))
	skipped := 0

	for _, cand := range cands {
		span, ok := e.tree.SpellingSpan(cand.Node)
		if !ok {
			skipped++
			e.bag.Add(diag.Diagnostic{
				Severity: diag.SevInfo,
				Code:     diag.CodeNoLocation,
				Message:  "candidate has no resolvable location, skipped",
			})
			continue
		}
		if overlapsAny(claimed, span) {
			skipped++
			e.bag.Add(diag.Diagnostic{
				Severity: diag.SevWarning,
				Code:     diag.CodeOverlap,
				Message:  "candidate overlaps an already instrumented span, skipped",
				Primary:  span,
			})
			continue
		}

		begin, end := e.fset.ResolveBounds(span)
		text := e.fset.Text(span)
		rec := trace.NewRecord(begin, end, text)
		if err := e.sink.Emit(rec); err != nil {
			return nil, fmt.Errorf("emit trace record: %w", err)
		}
		records = append(records, rec)

		claimed = append(claimed, span)
		edits = append(edits, edit{span: span, text: e.replacement(cand.Kind, rec)})
	}

	return &Result{
		Output:       applyEdits(e.file.Content, edits),
		Records:      records,
		Instrumented: len(edits),
		Skipped:      skipped,
		Bag:          e.bag,
	}, nil
}

// replacement builds the wrapper for a fragment. Expressions become a
// statement expression so the wrapped form stays usable in any expression
// position and yields the original value; statements become a scoped block
// with the trace call first. The hook runs purely for its side effect and
// must not transfer control.
func (e *Engine) replacement(kind ast.Kind, r trace.Record) string {
	args := fmt.Sprintf("%d, %d, %d, %d", r.BeginLine, r.BeginCol, r.EndLine, r.EndCol)
	if kind == ast.KindExpr {
		return fmt.Sprintf("({ %s(%s); %s; })", e.hook, args, r.Text)
	}
	return fmt.Sprintf("{ %s(%s); %s; }", e.hook, args, r.Text)
}

func overlapsAny(claimed []source.Span, span source.Span) bool {
	for _, c := range claimed {
		if c.Overlaps(span) {
			return true
		}
	}
	return false
}

// applyEdits substitutes every edit into a copy of content. Spans are
// disjoint, so applying from the end backwards keeps earlier offsets valid
// and the result does not depend on selection order.
func applyEdits(content []byte, edits []edit) []byte {
	out := append([]byte(nil), content...)
	if len(edits) == 0 {
		return out
	}

	sorted := append([]edit(nil), edits...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].span.Start > sorted[j].span.Start
	})

	for _, ed := range sorted {
		suffix := append([]byte(nil), out[ed.span.End:]...)
		out = append(append(out[:ed.span.Start], []byte(ed.text)...), suffix...)
	}
	return out
}
