package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"fortio.org/safecast"

	"stitch/internal/source"
)

// The JSON dump format front-ends emit, one document per source file:
//
//	{
//	  "macros": [{"start": 10, "end": 25, "parent": 0}, ...],
//	  "root":   {"kind": "stmt", "op": "block", "start": 0, "end": 120,
//	             "children": [...]}
//	}
//
// Node offsets are byte offsets into the normalized source file. "macro" on
// a node is a 1-based index into "macros"; a macro's "parent" likewise, with
// 0 meaning the invocation is spelled directly in the file. "cond" is the
// index of the condition child for if/while/do_while/for nodes; it defaults
// to 0 for those ops and may be omitted.

type jsonMacro struct {
	Start  uint32 `json:"start"`
	End    uint32 `json:"end"`
	Parent uint32 `json:"parent,omitempty"`
}

type jsonNode struct {
	Kind     string     `json:"kind"`
	Op       string     `json:"op"`
	Type     string     `json:"type,omitempty"`
	Start    uint32     `json:"start"`
	End      uint32     `json:"end"`
	Macro    uint32     `json:"macro,omitempty"`
	Cond     *int       `json:"cond,omitempty"`
	Children []jsonNode `json:"children,omitempty"`
}

type jsonDump struct {
	Macros []jsonMacro `json:"macros,omitempty"`
	Root   *jsonNode   `json:"root"`
}

var opByName = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		m[name] = Op(op)
	}
	return m
}()

var typeByName = map[string]TypeClass{
	"int":     TypeInt,
	"bool":    TypeBool,
	"float":   TypeFloat,
	"pointer": TypePointer,
	"other":   TypeOther,
}

// Decode reads a front-end AST dump and builds the Tree for file.
// Offsets are validated against the file's content; a malformed dump is a
// fatal error for the whole file, matching parse-failure semantics.
func Decode(r io.Reader, file *source.File) (*Tree, error) {
	var dump jsonDump
	dec := json.NewDecoder(r)
	if err := dec.Decode(&dump); err != nil {
		return nil, fmt.Errorf("ast dump: %w", err)
	}
	if dump.Root == nil {
		return nil, fmt.Errorf("ast dump: missing root node")
	}

	fileLen, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		return nil, fmt.Errorf("ast dump: file too large: %w", err)
	}

	tree := NewTree(file.ID, uint(countNodes(dump.Root)))

	lenMacros, err := safecast.Conv[uint32](len(dump.Macros))
	if err != nil {
		return nil, fmt.Errorf("ast dump: macro table too large: %w", err)
	}
	for i, m := range dump.Macros {
		if m.End < m.Start {
			return nil, fmt.Errorf("ast dump: macro %d: inverted span %d-%d", i+1, m.Start, m.End)
		}
		if m.Parent == 0 && m.End > fileLen {
			return nil, fmt.Errorf("ast dump: macro %d: span %d-%d beyond file end %d", i+1, m.Start, m.End, fileLen)
		}
		// Parents must precede children so expansion chains cannot cycle.
		if m.Parent > uint32(i) {
			return nil, fmt.Errorf("ast dump: macro %d: parent %d not yet defined", i+1, m.Parent)
		}
		tree.NewExpansion(source.Span{File: file.ID, Start: m.Start, End: m.End}, ExpansionID(m.Parent))
	}

	root, err := decodeNode(tree, dump.Root, file.ID, fileLen, lenMacros)
	if err != nil {
		return nil, err
	}
	tree.SetRoot(root)
	return tree, nil
}

// DecodeBytes is Decode over an in-memory dump.
func DecodeBytes(dump []byte, file *source.File) (*Tree, error) {
	return Decode(bytes.NewReader(dump), file)
}

func decodeNode(tree *Tree, jn *jsonNode, fileID source.FileID, fileLen, macros uint32) (NodeID, error) {
	var kind Kind
	switch jn.Kind {
	case "expr":
		kind = KindExpr
	case "stmt":
		kind = KindStmt
	default:
		return NoNodeID, fmt.Errorf("ast dump: unknown node kind %q", jn.Kind)
	}

	// Unknown ops degrade to "other": front-ends may report shapes no
	// matcher cares about.
	op, ok := opByName[jn.Op]
	if !ok {
		op = OpOther
	}

	if jn.End < jn.Start {
		return NoNodeID, fmt.Errorf("ast dump: node %s: inverted span %d-%d", jn.Op, jn.Start, jn.End)
	}
	if jn.Macro == 0 && jn.End > fileLen {
		return NoNodeID, fmt.Errorf("ast dump: node %s: span %d-%d beyond file end %d", jn.Op, jn.Start, jn.End, fileLen)
	}
	if jn.Macro > macros {
		return NoNodeID, fmt.Errorf("ast dump: node %s: macro %d out of range", jn.Op, jn.Macro)
	}

	cond := int8(-1)
	switch op {
	case OpIf, OpWhile, OpDoWhile, OpFor:
		if jn.Cond != nil {
			// Cond is stored as int8, so the index must also fit there.
			if *jn.Cond < -1 || *jn.Cond >= len(jn.Children) || *jn.Cond > 127 {
				return NoNodeID, fmt.Errorf("ast dump: node %s: cond index %d out of range", jn.Op, *jn.Cond)
			}
			cond = int8(*jn.Cond)
		} else if op != OpFor && len(jn.Children) > 0 {
			cond = 0
		}
	}

	children := make([]NodeID, 0, len(jn.Children))
	for i := range jn.Children {
		child, err := decodeNode(tree, &jn.Children[i], fileID, fileLen, macros)
		if err != nil {
			return NoNodeID, err
		}
		children = append(children, child)
	}

	return tree.NewNode(Node{
		Kind:      kind,
		Op:        op,
		Type:      typeByName[jn.Type], // absent or unknown -> TypeUnknown
		Cond:      cond,
		Span:      source.Span{File: fileID, Start: jn.Start, End: jn.End},
		Expansion: ExpansionID(jn.Macro),
		Children:  children,
	}), nil
}

func countNodes(jn *jsonNode) int {
	n := 1
	for i := range jn.Children {
		n += countNodes(&jn.Children[i])
	}
	return n
}
