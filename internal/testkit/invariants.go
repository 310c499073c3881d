package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"stitch/internal/ast"
	"stitch/internal/match"
	"stitch/internal/source"
)

// CheckTreeInvariants runs a minimal set of span invariants on a decoded tree:
// 1) every node's span is within file content bounds (unless the node lives
// inside a macro expansion, where offsets are expansion-local)
// 2) every child span is contained in its parent's span
// 3) condition indices point at real children
func CheckTreeInvariants(tree *ast.Tree, sf *source.File) error {
	if tree == nil || sf == nil {
		return fmt.Errorf("nil tree or file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	var walkErr error
	tree.PreOrder(func(id ast.NodeID) {
		if walkErr != nil {
			return
		}
		n := tree.Node(id)
		if n.Span.End < n.Span.Start {
			walkErr = fmt.Errorf("node %d: inverted span %v", id, n.Span)
			return
		}
		if !n.Expansion.IsValid() && n.Span.End > lenContent {
			walkErr = fmt.Errorf("node %d: span %v beyond content end %d", id, n.Span, lenContent)
			return
		}
		if n.Cond >= 0 && int(n.Cond) >= len(n.Children) {
			walkErr = fmt.Errorf("node %d: cond index %d with %d children", id, n.Cond, len(n.Children))
			return
		}
		for _, childID := range n.Children {
			child := tree.Node(childID)
			if child == nil {
				walkErr = fmt.Errorf("node %d: dangling child %d", id, childID)
				return
			}
			// Containment only holds when parent and child live in the
			// same coordinate space.
			if child.Expansion == n.Expansion &&
				(child.Span.Start < n.Span.Start || child.Span.End > n.Span.End) {
				walkErr = fmt.Errorf("node %d: child span %v outside parent span %v", id, child.Span, n.Span)
				return
			}
		}
	})
	return walkErr
}

// CheckCandidateInvariants verifies that every selected candidate resolves to
// a usable spelling location inside the file it was selected from.
func CheckCandidateInvariants(tree *ast.Tree, sf *source.File, cands []match.Candidate) error {
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	for i, c := range cands {
		sp, ok := tree.SpellingSpan(c.Node)
		if !ok {
			return fmt.Errorf("candidate %d (%s): no spelling location", i, c.Kind)
		}
		if sp.File != sf.ID {
			return fmt.Errorf("candidate %d (%s): span file %d, selected from %d", i, c.Kind, sp.File, sf.ID)
		}
		if sp.Empty() {
			return fmt.Errorf("candidate %d (%s): empty spelling span", i, c.Kind)
		}
		if sp.End > lenContent {
			return fmt.Errorf("candidate %d (%s): span %v beyond content end %d", i, c.Kind, sp, lenContent)
		}
	}
	return nil
}

// Must is the single-value form used by tests: it panics on error so fixture
// setup stays on one line.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
