package ast

type (
	// NodeID addresses a node in a Tree's arena.
	NodeID uint32
	// ExpansionID addresses an entry in a Tree's expansion table.
	ExpansionID uint32
)

const (
	NoNodeID      NodeID      = 0
	NoExpansionID ExpansionID = 0
)

func (id NodeID) IsValid() bool      { return id != NoNodeID }
func (id ExpansionID) IsValid() bool { return id != NoExpansionID }
