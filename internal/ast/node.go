package ast

import (
	"stitch/internal/source"
)

// Kind separates value-producing expressions from statements. The rewrite
// engine branches on it to pick the wrapper form.
type Kind uint8

const (
	KindExpr Kind = iota
	KindStmt
)

func (k Kind) String() string {
	switch k {
	case KindExpr:
		return "expr"
	case KindStmt:
		return "stmt"
	}
	return "unknown"
}

// Op is the structural sub-kind of a node as reported by the front-end.
type Op uint8

const (
	OpOther Op = iota
	OpIdent
	OpIntLit
	OpBoolLit
	OpCharLit
	OpStrLit
	OpUnary
	OpBinary
	OpCall
	OpMember
	OpIndex
	OpAssign
	OpIf
	OpWhile
	OpDoWhile
	OpFor
	OpReturn
	OpBreak
	OpContinue
	OpGoto
	OpBlock
	OpExprStmt
	OpDecl
)

var opNames = [...]string{
	OpOther:    "other",
	OpIdent:    "ident",
	OpIntLit:   "int_lit",
	OpBoolLit:  "bool_lit",
	OpCharLit:  "char_lit",
	OpStrLit:   "str_lit",
	OpUnary:    "unary",
	OpBinary:   "binary",
	OpCall:     "call",
	OpMember:   "member",
	OpIndex:    "index",
	OpAssign:   "assign",
	OpIf:       "if",
	OpWhile:    "while",
	OpDoWhile:  "do_while",
	OpFor:      "for",
	OpReturn:   "return",
	OpBreak:    "break",
	OpContinue: "continue",
	OpGoto:     "goto",
	OpBlock:    "block",
	OpExprStmt: "expr_stmt",
	OpDecl:     "decl",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "other"
}

// IsLiteral reports whether the node is a bare literal constant. Literal
// conditions and right-hand sides are what the trivial filter rejects.
func (op Op) IsLiteral() bool {
	switch op {
	case OpIntLit, OpBoolLit, OpCharLit, OpStrLit:
		return true
	}
	return false
}

// IsEarlyExit reports whether the statement transfers control out of the
// enclosing construct.
func (op Op) IsEarlyExit() bool {
	switch op {
	case OpReturn, OpBreak, OpContinue, OpGoto:
		return true
	}
	return false
}

// TypeClass is the front-end's coarse type verdict for an expression.
type TypeClass uint8

const (
	TypeUnknown TypeClass = iota
	TypeInt
	TypeBool
	TypeFloat
	TypePointer
	TypeOther
)

func (tc TypeClass) String() string {
	switch tc {
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	case TypeFloat:
		return "float"
	case TypePointer:
		return "pointer"
	case TypeOther:
		return "other"
	}
	return "unknown"
}

// Expansion records one macro expansion step. Spelling is where the macro
// invocation is written: in the real file for an outermost expansion, inside
// the parent's replacement text for a nested one.
type Expansion struct {
	Spelling source.Span
	Parent   ExpansionID
}

// Node is one AST node. Children are ordered as written in the source.
//
// Cond is the index into Children of the construct's condition (if, while,
// do-while, for), or -1 when the construct has none. For assignments the
// right-hand side is always the last child.
type Node struct {
	Kind      Kind
	Op        Op
	Type      TypeClass
	Cond      int8
	Span      source.Span
	Expansion ExpansionID
	Children  []NodeID
}
