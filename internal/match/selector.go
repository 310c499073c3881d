// Package match selects repairable fragments from an instrumentation AST.
// A Selector owns a fixed list of structural matchers assembled once from a
// Config; selection is a pure pre-order walk, and the resulting candidate
// order is the order the rewrite engine processes and the observation
// channel reports.
package match

import (
	"stitch/internal/ast"
)

// Selector runs its matchers over every node of a tree.
type Selector struct {
	matchers []Matcher
}

// NewSelector assembles the matcher list for cfg. An empty configuration
// yields a selector that selects nothing.
func NewSelector(cfg Config) *Selector {
	matchers := make([]Matcher, 0, 5)

	if cfg.Observation {
		matchers = append(matchers, condMatcher{}, intAssignMatcher{})
		return &Selector{matchers: matchers}
	}

	if cfg.IfConditions {
		matchers = append(matchers, ifCondMatcher{nonTrivial: cfg.IgnoreTrivial})
	}
	if cfg.LoopConditions {
		matchers = append(matchers, loopCondMatcher{nonTrivial: cfg.IgnoreTrivial})
	}
	if cfg.Assignments {
		matchers = append(matchers, assignMatcher{nonTrivial: cfg.IgnoreTrivial})
	}
	if cfg.Guards {
		matchers = append(matchers, guardMatcher{})
	}
	return &Selector{matchers: matchers}
}

// Matchers returns the names of the assembled matchers, in firing order.
func (s *Selector) Matchers() []string {
	names := make([]string, len(s.matchers))
	for i, m := range s.matchers {
		names[i] = m.Name()
	}
	return names
}

// Select walks the tree in pre-order and collects every candidate any
// matcher fires on. Overlapping predicates may select the same node more
// than once; the selector does not deduplicate, that is the rewrite
// engine's call to make.
func (s *Selector) Select(tree *ast.Tree) []Candidate {
	if len(s.matchers) == 0 {
		return nil
	}
	var out []Candidate
	tree.PreOrder(func(id ast.NodeID) {
		for _, m := range s.matchers {
			if c, ok := m.Match(tree, id); ok {
				out = append(out, c)
			}
		}
	})
	return out
}
