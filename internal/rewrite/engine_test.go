package rewrite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stitch/internal/ast"
	"stitch/internal/diag"
	"stitch/internal/match"
	"stitch/internal/source"
	"stitch/internal/trace"
)

type env struct {
	fset *source.FileSet
	file *source.File
	tree *ast.Tree
}

func newEnv(content string) *env {
	fset := source.NewFileSet()
	id := fset.AddVirtual("test.c", []byte(content))
	file := fset.Get(id)
	return &env{
		fset: fset,
		file: file,
		tree: ast.NewTree(id, 16),
	}
}

func (e *env) span(start, end uint32) source.Span {
	return source.Span{File: e.file.ID, Start: start, End: end}
}

func (e *env) run(t *testing.T, cands []match.Candidate) *Result {
	t.Helper()
	var col trace.Collector
	res, err := NewEngine(e.fset, e.tree, &col, Options{}).Run(cands)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func TestRun_IfConditionScenario(t *testing.T) {
	e := newEnv("if (x > 0) { y = 1; }\n")

	cond := e.tree.NewNode(ast.Node{Kind: ast.KindExpr, Op: ast.OpBinary, Type: ast.TypeBool, Cond: -1, Span: e.span(4, 9)})
	lhs := e.tree.NewNode(ast.Node{Kind: ast.KindExpr, Op: ast.OpIdent, Cond: -1, Span: e.span(13, 14)})
	rhs := e.tree.NewNode(ast.Node{Kind: ast.KindExpr, Op: ast.OpIntLit, Type: ast.TypeInt, Cond: -1, Span: e.span(17, 18)})
	assign := e.tree.NewNode(ast.Node{Kind: ast.KindExpr, Op: ast.OpAssign, Cond: -1, Span: e.span(13, 18), Children: []ast.NodeID{lhs, rhs}})
	block := e.tree.NewNode(ast.Node{Kind: ast.KindStmt, Op: ast.OpBlock, Cond: -1, Span: e.span(11, 21), Children: []ast.NodeID{assign}})
	ifStmt := e.tree.NewNode(ast.Node{Kind: ast.KindStmt, Op: ast.OpIf, Cond: 0, Span: e.span(0, 21), Children: []ast.NodeID{cond, block}})
	e.tree.SetRoot(ifStmt)

	cands := match.NewSelector(match.Config{IfConditions: true}).Select(e.tree)
	if len(cands) != 1 {
		t.Fatalf("selected %d candidates", len(cands))
	}

	res := e.run(t, cands)

	if res.Instrumented != 1 || res.Skipped != 0 {
		t.Fatalf("instrumented=%d skipped=%d", res.Instrumented, res.Skipped)
	}
	wantRec := trace.Record{BeginLine: 1, BeginCol: 5, EndLine: 1, EndCol: 9, Text: "x > 0"}
	if len(res.Records) != 1 || res.Records[0] != wantRec {
		t.Errorf("records = %+v, want %+v", res.Records, wantRec)
	}

	want := "if (({ stitch_trace(1, 5, 1, 9); x > 0; })) { y = 1; }\n"
	if string(res.Output) != want {
		t.Errorf("output:\n%s\nwant:\n%s", res.Output, want)
	}
	// The assignment stayed untouched.
	if !strings.Contains(string(res.Output), "{ y = 1; }") {
		t.Error("uninstrumented text must be preserved verbatim")
	}
}

func TestRun_StatementWrapper(t *testing.T) {
	e := newEnv("while (1) { if (err) break; }\n")

	// Guard site: the whole `if (err) break` statement (span excludes the
	// trailing semicolon, the wrapper supplies its own).
	errCond := e.tree.NewNode(ast.Node{Kind: ast.KindExpr, Op: ast.OpIdent, Cond: -1, Span: e.span(16, 19)})
	brk := e.tree.NewNode(ast.Node{Kind: ast.KindStmt, Op: ast.OpBreak, Cond: -1, Span: e.span(21, 26)})
	guard := e.tree.NewNode(ast.Node{Kind: ast.KindStmt, Op: ast.OpIf, Cond: 0, Span: e.span(12, 26), Children: []ast.NodeID{errCond, brk}})
	e.tree.SetRoot(guard)

	res := e.run(t, []match.Candidate{{Node: guard, Kind: ast.KindStmt}})

	want := "while (1) { { stitch_trace(1, 13, 1, 26); if (err) break; }; }\n"
	if string(res.Output) != want {
		t.Errorf("output:\n%s\nwant:\n%s", res.Output, want)
	}
}

func TestRun_MacroResolvesToSpelling(t *testing.T) {
	e := newEnv("x = MAX(a, b);\n")

	// The RHS comes out of the MAX expansion; its own span points into the
	// replacement text and must not leak into the rewrite.
	exp := e.tree.NewExpansion(e.span(4, 13), ast.NoExpansionID)
	rhs := e.tree.NewNode(ast.Node{Kind: ast.KindExpr, Op: ast.OpOther, Type: ast.TypeInt, Cond: -1, Span: e.span(200, 230), Expansion: exp})
	e.tree.SetRoot(rhs)

	res := e.run(t, []match.Candidate{{Node: rhs, Kind: ast.KindExpr}})

	wantRec := trace.Record{BeginLine: 1, BeginCol: 5, EndLine: 1, EndCol: 13, Text: "MAX(a, b)"}
	if len(res.Records) != 1 || res.Records[0] != wantRec {
		t.Fatalf("records = %+v, want %+v", res.Records, wantRec)
	}
	want := "x = ({ stitch_trace(1, 5, 1, 13); MAX(a, b); });\n"
	if string(res.Output) != want {
		t.Errorf("output:\n%s\nwant:\n%s", res.Output, want)
	}
}

func TestRun_OrderIndependentOutput(t *testing.T) {
	e := newEnv("if (a) { b = c + 1; }\n")

	cond := e.tree.NewNode(ast.Node{Kind: ast.KindExpr, Op: ast.OpIdent, Cond: -1, Span: e.span(4, 5)})
	rhs := e.tree.NewNode(ast.Node{Kind: ast.KindExpr, Op: ast.OpBinary, Type: ast.TypeInt, Cond: -1, Span: e.span(13, 18)})
	e.tree.SetRoot(cond)

	forward := []match.Candidate{{Node: cond, Kind: ast.KindExpr}, {Node: rhs, Kind: ast.KindExpr}}
	backward := []match.Candidate{{Node: rhs, Kind: ast.KindExpr}, {Node: cond, Kind: ast.KindExpr}}

	a := e.run(t, forward)
	b := e.run(t, backward)
	if string(a.Output) != string(b.Output) {
		t.Errorf("processing order changed the rewritten output:\n%s\nvs\n%s", a.Output, b.Output)
	}
}

func TestRun_SkipsUnresolvableCandidate(t *testing.T) {
	e := newEnv("a = b;\n")

	ghost := e.tree.NewNode(ast.Node{Kind: ast.KindExpr, Op: ast.OpOther, Cond: -1, Span: e.span(0, 0)})
	e.tree.SetRoot(ghost)

	res := e.run(t, []match.Candidate{{Node: ghost, Kind: ast.KindExpr}})

	if res.Instrumented != 0 || res.Skipped != 1 {
		t.Fatalf("instrumented=%d skipped=%d", res.Instrumented, res.Skipped)
	}
	if string(res.Output) != "a = b;\n" {
		t.Error("skipping must not disturb the buffer")
	}
	if res.Bag.Len() != 1 || res.Bag.Items()[0].Code != diag.CodeNoLocation {
		t.Errorf("bag = %+v", res.Bag.Items())
	}
}

func TestRun_OverlapFirstMatchWins(t *testing.T) {
	e := newEnv("if (err) break;\n")

	// Same region selected twice: as a statement guard and, inside it, as an
	// if-condition. The statement comes first in traversal order and wins.
	errCond := e.tree.NewNode(ast.Node{Kind: ast.KindExpr, Op: ast.OpIdent, Cond: -1, Span: e.span(4, 7)})
	brk := e.tree.NewNode(ast.Node{Kind: ast.KindStmt, Op: ast.OpBreak, Cond: -1, Span: e.span(9, 14)})
	guard := e.tree.NewNode(ast.Node{Kind: ast.KindStmt, Op: ast.OpIf, Cond: 0, Span: e.span(0, 14), Children: []ast.NodeID{errCond, brk}})
	e.tree.SetRoot(guard)

	res := e.run(t, []match.Candidate{
		{Node: guard, Kind: ast.KindStmt},
		{Node: errCond, Kind: ast.KindExpr},
	})

	if res.Instrumented != 1 || res.Skipped != 1 {
		t.Fatalf("instrumented=%d skipped=%d", res.Instrumented, res.Skipped)
	}
	if res.Bag.Items()[0].Code != diag.CodeOverlap {
		t.Errorf("expected overlap diagnostic, got %+v", res.Bag.Items())
	}
	want := "{ stitch_trace(1, 1, 1, 14); if (err) break; };\n"
	if string(res.Output) != want {
		t.Errorf("output:\n%s\nwant:\n%s", res.Output, want)
	}
}

func TestRun_NoCandidatesByteIdentical(t *testing.T) {
	content := "int main() { return 0; }\n"
	e := newEnv(content)
	root := e.tree.NewNode(ast.Node{Kind: ast.KindStmt, Op: ast.OpBlock, Cond: -1, Span: e.span(0, 24)})
	e.tree.SetRoot(root)

	res := e.run(t, nil)
	if string(res.Output) != content {
		t.Errorf("output diverged with zero candidates:\n%q", res.Output)
	}
}

func TestRun_CustomHook(t *testing.T) {
	e := newEnv("if (x) y();\n")
	cond := e.tree.NewNode(ast.Node{Kind: ast.KindExpr, Op: ast.OpIdent, Cond: -1, Span: e.span(4, 5)})
	e.tree.SetRoot(cond)

	var col trace.Collector
	eng := NewEngine(e.fset, e.tree, &col, Options{Hook: "angelix_trace"})
	res, err := eng.Run([]match.Candidate{{Node: cond, Kind: ast.KindExpr}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(string(res.Output), "angelix_trace(1, 5, 1, 5)") {
		t.Errorf("custom hook missing: %s", res.Output)
	}
}

func TestFlushInPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.c")
	if err := os.WriteFile(path, []byte("original"), 0o640); err != nil {
		t.Fatal(err)
	}

	if err := FlushInPlace(path, []byte("rewritten")); err != nil {
		t.Fatalf("FlushInPlace: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "rewritten" {
		t.Errorf("content = %q", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Errorf("permissions not preserved: %v", info.Mode().Perm())
	}

	// No temp droppings left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1", len(entries))
	}
}

func TestFlushStream(t *testing.T) {
	var buf strings.Builder
	if err := FlushStream(&buf, []byte("out")); err != nil {
		t.Fatalf("FlushStream: %v", err)
	}
	if buf.String() != "out" {
		t.Errorf("stream = %q", buf.String())
	}
}
