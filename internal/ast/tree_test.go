package ast

import (
	"testing"

	"stitch/internal/source"
)

func span(start, end uint32) source.Span {
	return source.Span{File: 0, Start: start, End: end}
}

func TestSpellingSpan_PlainNode(t *testing.T) {
	tree := NewTree(0, 4)
	id := tree.NewNode(Node{Kind: KindExpr, Op: OpBinary, Cond: -1, Span: span(4, 9)})

	got, ok := tree.SpellingSpan(id)
	if !ok {
		t.Fatal("expected valid span")
	}
	if got != span(4, 9) {
		t.Errorf("span = %v", got)
	}

	// Stable across resolutions.
	again, _ := tree.SpellingSpan(id)
	if again != got {
		t.Errorf("resolution not stable: %v vs %v", again, got)
	}
}

func TestSpellingSpan_ResolvesThroughExpansions(t *testing.T) {
	tree := NewTree(0, 4)
	// MAX(a, b) invocation spelled at bytes 10..19; inside its replacement
	// text a nested invocation of ABS.
	outer := tree.NewExpansion(span(10, 19), NoExpansionID)
	inner := tree.NewExpansion(span(3, 6), outer)

	direct := tree.NewNode(Node{Kind: KindExpr, Op: OpBinary, Cond: -1, Span: span(100, 110), Expansion: outer})
	nested := tree.NewNode(Node{Kind: KindExpr, Op: OpUnary, Cond: -1, Span: span(200, 203), Expansion: inner})

	got, ok := tree.SpellingSpan(direct)
	if !ok || got != span(10, 19) {
		t.Errorf("direct expansion: got %v ok=%v", got, ok)
	}

	// A node from a nested expansion resolves to the outermost invocation.
	got, ok = tree.SpellingSpan(nested)
	if !ok || got != span(10, 19) {
		t.Errorf("nested expansion: got %v ok=%v", got, ok)
	}
}

func TestSpellingSpan_InvalidLocation(t *testing.T) {
	tree := NewTree(0, 2)
	id := tree.NewNode(Node{Kind: KindExpr, Op: OpOther, Cond: -1, Span: span(7, 7)})

	if _, ok := tree.SpellingSpan(id); ok {
		t.Error("empty span outside an expansion must be reported invalid")
	}
	if _, ok := tree.SpellingSpan(NoNodeID); ok {
		t.Error("NoNodeID must resolve to invalid")
	}
}

func TestAccessors(t *testing.T) {
	tree := NewTree(0, 8)
	cond := tree.NewNode(Node{Kind: KindExpr, Op: OpBinary, Cond: -1, Span: span(4, 9)})
	ret := tree.NewNode(Node{Kind: KindStmt, Op: OpReturn, Cond: -1, Span: span(12, 21)})
	elseStmt := tree.NewNode(Node{Kind: KindStmt, Op: OpExprStmt, Cond: -1, Span: span(30, 35)})
	ifStmt := tree.NewNode(Node{
		Kind: KindStmt, Op: OpIf, Cond: 0,
		Span:     span(0, 35),
		Children: []NodeID{cond, ret, elseStmt},
	})

	if got := tree.Cond(ifStmt); got != cond {
		t.Errorf("Cond = %d, want %d", got, cond)
	}
	if got := tree.ThenBranch(ifStmt); got != ret {
		t.Errorf("ThenBranch = %d, want %d", got, ret)
	}
	if got := tree.ElseBranch(ifStmt); got != elseStmt {
		t.Errorf("ElseBranch = %d, want %d", got, elseStmt)
	}

	lhs := tree.NewNode(Node{Kind: KindExpr, Op: OpIdent, Cond: -1, Span: span(40, 41)})
	rhs := tree.NewNode(Node{Kind: KindExpr, Op: OpBinary, Type: TypeInt, Cond: -1, Span: span(44, 49)})
	assign := tree.NewNode(Node{
		Kind: KindExpr, Op: OpAssign, Cond: -1,
		Span:     span(40, 49),
		Children: []NodeID{lhs, rhs},
	})

	if got := tree.AssignRHS(assign); got != rhs {
		t.Errorf("AssignRHS = %d, want %d", got, rhs)
	}
	if got := tree.AssignRHS(lhs); got != NoNodeID {
		t.Errorf("AssignRHS of non-assign = %d", got)
	}

	// for(;;) has no condition.
	forStmt := tree.NewNode(Node{Kind: KindStmt, Op: OpFor, Cond: -1, Span: span(50, 60)})
	if got := tree.Cond(forStmt); got != NoNodeID {
		t.Errorf("Cond of condition-less for = %d", got)
	}
}

func TestPreOrder(t *testing.T) {
	tree := NewTree(0, 8)
	a := tree.NewNode(Node{Kind: KindExpr, Op: OpIdent, Cond: -1, Span: span(0, 1)})
	b := tree.NewNode(Node{Kind: KindExpr, Op: OpIdent, Cond: -1, Span: span(2, 3)})
	parent := tree.NewNode(Node{Kind: KindExpr, Op: OpBinary, Cond: -1, Span: span(0, 3), Children: []NodeID{a, b}})
	root := tree.NewNode(Node{Kind: KindStmt, Op: OpBlock, Cond: -1, Span: span(0, 4), Children: []NodeID{parent}})
	tree.SetRoot(root)

	var order []NodeID
	tree.PreOrder(func(id NodeID) {
		order = append(order, id)
	})

	want := []NodeID{root, parent, a, b}
	if len(order) != len(want) {
		t.Fatalf("visited %d nodes, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %d, want %d", i, order[i], want[i])
		}
	}
}
