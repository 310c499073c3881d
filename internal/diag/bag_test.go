package diag

import (
	"strings"
	"testing"

	"stitch/internal/source"
)

func TestBag_CapAndErrors(t *testing.T) {
	b := NewBag(2)

	if !b.Add(Diagnostic{Severity: SevWarning, Code: CodeOverlap, Message: "first"}) {
		t.Fatal("first add should succeed")
	}
	if !b.Add(Diagnostic{Severity: SevInfo, Code: CodeNoLocation, Message: "second"}) {
		t.Fatal("second add should succeed")
	}
	if b.Add(Diagnostic{Severity: SevError, Message: "third"}) {
		t.Error("cap must reject the third diagnostic")
	}
	if b.Len() != 2 {
		t.Errorf("Len = %d", b.Len())
	}
	if b.HasErrors() {
		t.Error("no error-severity diagnostics were kept")
	}
}

func TestBag_MergeGrowsCap(t *testing.T) {
	a := NewBag(1)
	a.Add(Diagnostic{Severity: SevWarning, Message: "a"})

	other := NewBag(1)
	other.Add(Diagnostic{Severity: SevError, Message: "b"})

	a.Merge(other)
	if a.Len() != 2 {
		t.Fatalf("merged Len = %d", a.Len())
	}
	if !a.HasErrors() {
		t.Error("merged bag should carry the error")
	}
}

func TestBag_SortDeterministic(t *testing.T) {
	b := NewBag(4)
	b.Add(Diagnostic{Severity: SevInfo, Code: CodeNoLocation, Primary: source.Span{File: 0, Start: 20, End: 25}})
	b.Add(Diagnostic{Severity: SevWarning, Code: CodeOverlap, Primary: source.Span{File: 0, Start: 5, End: 9}})
	b.Add(Diagnostic{Severity: SevError, Code: CodeTraceFailed, Primary: source.Span{File: 0, Start: 5, End: 9}})
	b.Sort()

	items := b.Items()
	if items[0].Severity != SevError {
		t.Error("equal spans order by severity, errors first")
	}
	if items[2].Primary.Start != 20 {
		t.Error("later spans sort last")
	}
}

func TestReport(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.c", []byte("if (x)\n  y = 1;\n"))

	b := NewBag(4)
	b.Add(Diagnostic{
		Severity: SevWarning,
		Code:     CodeOverlap,
		Message:  "span already instrumented",
		Primary:  source.Span{File: id, Start: 4, End: 5},
	})

	var buf strings.Builder
	if err := Report(&buf, fs, b); err != nil {
		t.Fatalf("Report: %v", err)
	}
	want := "main.c:1:5: warning: span already instrumented [overlap]\n"
	if buf.String() != want {
		t.Errorf("report = %q, want %q", buf.String(), want)
	}
}
