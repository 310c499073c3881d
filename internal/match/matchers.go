package match

import (
	"stitch/internal/ast"
)

// Candidate is a node selected for instrumentation, tagged with the kind
// that decides the wrapper form.
type Candidate struct {
	Node ast.NodeID
	Kind ast.Kind
}

// Matcher recognizes one structural shape. Matchers are pure: they read the
// tree and never record state, so running one twice yields the same answer.
type Matcher interface {
	Name() string
	Match(t *ast.Tree, id ast.NodeID) (Candidate, bool)
}

// trivial reports whether an expression is too simple to be a useful repair
// target: a bare literal constant.
func trivial(t *ast.Tree, id ast.NodeID) bool {
	n := t.Node(id)
	return n == nil || n.Op.IsLiteral()
}

// ifCondMatcher selects the test expression of every if statement.
type ifCondMatcher struct {
	nonTrivial bool
}

func (m ifCondMatcher) Name() string { return "if-condition" }

func (m ifCondMatcher) Match(t *ast.Tree, id ast.NodeID) (Candidate, bool) {
	if t.Node(id).Op != ast.OpIf {
		return Candidate{}, false
	}
	cond := t.Cond(id)
	if !cond.IsValid() {
		return Candidate{}, false
	}
	if m.nonTrivial && trivial(t, cond) {
		return Candidate{}, false
	}
	return Candidate{Node: cond, Kind: ast.KindExpr}, true
}

// loopCondMatcher selects the guard expression of while, do-while, and for
// loops. Condition-less for loops have no guard to select.
type loopCondMatcher struct {
	nonTrivial bool
}

func (m loopCondMatcher) Name() string { return "loop-condition" }

func (m loopCondMatcher) Match(t *ast.Tree, id ast.NodeID) (Candidate, bool) {
	switch t.Node(id).Op {
	case ast.OpWhile, ast.OpDoWhile, ast.OpFor:
	default:
		return Candidate{}, false
	}
	cond := t.Cond(id)
	if !cond.IsValid() {
		return Candidate{}, false
	}
	if m.nonTrivial && trivial(t, cond) {
		return Candidate{}, false
	}
	return Candidate{Node: cond, Kind: ast.KindExpr}, true
}

// assignMatcher selects the right-hand side of assignments.
type assignMatcher struct {
	nonTrivial bool
}

func (m assignMatcher) Name() string { return "assignment" }

func (m assignMatcher) Match(t *ast.Tree, id ast.NodeID) (Candidate, bool) {
	if t.Node(id).Op != ast.OpAssign {
		return Candidate{}, false
	}
	rhs := t.AssignRHS(id)
	if !rhs.IsValid() {
		return Candidate{}, false
	}
	if m.nonTrivial && trivial(t, rhs) {
		return Candidate{}, false
	}
	return Candidate{Node: rhs, Kind: ast.KindExpr}, true
}

// guardMatcher selects isolated conditional-exit statements: an if with no
// else whose taken branch is a single break, continue, return, or goto,
// possibly wrapped in a block. The candidate is the whole statement.
type guardMatcher struct{}

func (m guardMatcher) Name() string { return "guard" }

func (m guardMatcher) Match(t *ast.Tree, id ast.NodeID) (Candidate, bool) {
	n := t.Node(id)
	if n.Op != ast.OpIf || n.Kind != ast.KindStmt {
		return Candidate{}, false
	}
	if t.ElseBranch(id).IsValid() {
		return Candidate{}, false
	}
	then := t.ThenBranch(id)
	if !then.IsValid() || !isLoneEarlyExit(t, then) {
		return Candidate{}, false
	}
	return Candidate{Node: id, Kind: ast.KindStmt}, true
}

func isLoneEarlyExit(t *ast.Tree, id ast.NodeID) bool {
	n := t.Node(id)
	if n.Op.IsEarlyExit() {
		return true
	}
	if n.Op == ast.OpBlock && len(n.Children) == 1 {
		return t.Node(n.Children[0]).Op.IsEarlyExit()
	}
	return false
}

// condMatcher is the observation-mode expression matcher: every conditional
// test, of ifs and loops alike, with no trivial filtering.
type condMatcher struct{}

func (m condMatcher) Name() string { return "condition" }

func (m condMatcher) Match(t *ast.Tree, id ast.NodeID) (Candidate, bool) {
	switch t.Node(id).Op {
	case ast.OpIf, ast.OpWhile, ast.OpDoWhile, ast.OpFor:
	default:
		return Candidate{}, false
	}
	cond := t.Cond(id)
	if !cond.IsValid() {
		return Candidate{}, false
	}
	return Candidate{Node: cond, Kind: ast.KindExpr}, true
}

// intAssignMatcher is the observation-mode assignment matcher: right-hand
// sides the front-end typed as integers.
type intAssignMatcher struct{}

func (m intAssignMatcher) Name() string { return "int-assignment" }

func (m intAssignMatcher) Match(t *ast.Tree, id ast.NodeID) (Candidate, bool) {
	if t.Node(id).Op != ast.OpAssign {
		return Candidate{}, false
	}
	rhs := t.AssignRHS(id)
	if !rhs.IsValid() || t.Node(rhs).Type != ast.TypeInt {
		return Candidate{}, false
	}
	return Candidate{Node: rhs, Kind: ast.KindExpr}, true
}
