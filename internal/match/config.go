package match

import (
	"errors"
)

// ErrModeConflict is returned when observation mode is combined with
// defect-class selection.
var ErrModeConflict = errors.New("observation mode and defect classes are mutually exclusive")

// Config selects which matchers a Selector assembles. It replaces the
// ambient environment flags of older instrumentation tools: construct one
// explicitly and pass it to NewSelector.
type Config struct {
	// Defect classes, independently enabled.
	IfConditions   bool
	LoopConditions bool
	Assignments    bool
	Guards         bool

	// IgnoreTrivial swaps the expression matchers for their non-trivial
	// variants, which reject bare literal fragments.
	IgnoreTrivial bool

	// Observation selects full-expression tracing for semantics-based
	// repair: conditional tests and integer-typed assignment right-hand
	// sides, regardless of the per-class flags above.
	Observation bool
}

// Enable turns on the defect class with the given name. Unknown names are
// ignored and reported as false: an unsupported class selects nothing.
func (c *Config) Enable(class string) bool {
	switch class {
	case "if-condition", "if-conditions":
		c.IfConditions = true
	case "loop-condition", "loop-conditions":
		c.LoopConditions = true
	case "assignment", "assignments":
		c.Assignments = true
	case "guard", "guards":
		c.Guards = true
	default:
		return false
	}
	return true
}

// Validate rejects contradictory mode combinations.
func (c Config) Validate() error {
	if c.Observation && (c.IfConditions || c.LoopConditions || c.Assignments || c.Guards) {
		return ErrModeConflict
	}
	return nil
}
