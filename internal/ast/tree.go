package ast

import (
	"stitch/internal/source"
)

// Tree is the AST for one source file. It is read-only after construction;
// the selector and rewrite engine never mutate it.
type Tree struct {
	fileID     source.FileID
	nodes      *Arena[Node]
	expansions *Arena[Expansion]
	root       NodeID
}

func NewTree(fileID source.FileID, capHint uint) *Tree {
	return &Tree{
		fileID:     fileID,
		nodes:      NewArena[Node](capHint),
		expansions: NewArena[Expansion](4),
	}
}

func (t *Tree) FileID() source.FileID {
	return t.fileID
}

func (t *Tree) Root() NodeID {
	return t.root
}

func (t *Tree) SetRoot(id NodeID) {
	t.root = id
}

func (t *Tree) Len() uint32 {
	return t.nodes.Len()
}

// NewNode allocates a node. Children must already be allocated.
func (t *Tree) NewNode(n Node) NodeID {
	return NodeID(t.nodes.Allocate(n))
}

// NewExpansion records a macro expansion step and returns its ID.
func (t *Tree) NewExpansion(spelling source.Span, parent ExpansionID) ExpansionID {
	return ExpansionID(t.expansions.Allocate(Expansion{
		Spelling: spelling,
		Parent:   parent,
	}))
}

func (t *Tree) Node(id NodeID) *Node {
	return t.nodes.Get(uint32(id))
}

func (t *Tree) Expansion(id ExpansionID) *Expansion {
	return t.expansions.Get(uint32(id))
}

// PreOrder visits every node reachable from the root, parents before
// children, children in source order. This is the traversal whose order
// candidate selection, trace emission, and rewriting all share.
func (t *Tree) PreOrder(visit func(NodeID)) {
	if !t.root.IsValid() {
		return
	}
	var walk func(NodeID)
	walk = func(id NodeID) {
		visit(id)
		for _, child := range t.Node(id).Children {
			if child.IsValid() {
				walk(child)
			}
		}
	}
	walk(t.root)
}

// SpellingSpan resolves a node's location through any macro expansion to the
// outermost spelling location in the original file. A node written directly
// in the file resolves to its own span. A node inside an expansion resolves
// to the span of the outermost macro invocation; begin and end collapsing to
// one expansion yields that invocation's full span, which is valid.
//
// The second result is false when the node carries no usable location
// (empty span outside any expansion); such nodes cannot be instrumented.
func (t *Tree) SpellingSpan(id NodeID) (source.Span, bool) {
	n := t.Node(id)
	if n == nil {
		return source.Span{}, false
	}
	if n.Expansion.IsValid() {
		exp := t.Expansion(n.Expansion)
		for exp.Parent.IsValid() {
			exp = t.Expansion(exp.Parent)
		}
		return exp.Spelling, !exp.Spelling.Empty()
	}
	if n.Span.Empty() {
		return source.Span{}, false
	}
	return n.Span, true
}

// Cond returns the condition child of a conditional or loop node,
// or NoNodeID when the construct has none.
func (t *Tree) Cond(id NodeID) NodeID {
	n := t.Node(id)
	if n == nil || n.Cond < 0 || int(n.Cond) >= len(n.Children) {
		return NoNodeID
	}
	return n.Children[n.Cond]
}

// AssignRHS returns the right-hand side of an assignment node.
func (t *Tree) AssignRHS(id NodeID) NodeID {
	n := t.Node(id)
	if n == nil || n.Op != OpAssign || len(n.Children) == 0 {
		return NoNodeID
	}
	return n.Children[len(n.Children)-1]
}

// ThenBranch returns the taken branch of an if node: the first non-condition
// child. NoNodeID when absent.
func (t *Tree) ThenBranch(id NodeID) NodeID {
	n := t.Node(id)
	if n == nil || n.Op != OpIf {
		return NoNodeID
	}
	for i, child := range n.Children {
		if int8(i) != n.Cond {
			return child
		}
	}
	return NoNodeID
}

// ElseBranch returns the else branch of an if node, or NoNodeID.
func (t *Tree) ElseBranch(id NodeID) NodeID {
	n := t.Node(id)
	if n == nil || n.Op != OpIf {
		return NoNodeID
	}
	seen := 0
	for i, child := range n.Children {
		if int8(i) == n.Cond {
			continue
		}
		seen++
		if seen == 2 {
			return child
		}
	}
	return NoNodeID
}
