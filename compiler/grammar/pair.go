package grammar

import (
	"fmt"

	"tlog.app/go/tlog/tlwire"
)

type (
	Rule int

	// Pair is a matched rule spanning b[Pos:End].
	Pair struct {
		Rule Rule
		Pos  int
		End  int

		Inner []Pair
	}
)

const (
	File Rule = iota
	Comment
	Assignment
	AssSet
	AssAdd
	AssSub
	AssMul
	AssDiv
	AssPow
	FunctionDefinition
	Lambda
	Param
	TypeHint
	IfBlock
	ElifStatement
	ElseStatement
	WhileStatement
	ForStatement
	ImportStatement
	ReturnStatement
	Block
	Expr
	Neg
	Index
	Add
	Sub
	Mul
	Div
	Mod
	Pow
	Range
	Lt
	Gt
	Lte
	Gte
	Eq
	NotEq
	Array
	FunctionCall
	Float
	Bool
	Char
	None
	Identifier
	Integer
	Path

	numRules
)

var ruleNames = [...]string{
	File:               "File",
	Comment:            "Comment",
	Assignment:         "Assignment",
	AssSet:             "AssSet",
	AssAdd:             "AssAdd",
	AssSub:             "AssSub",
	AssMul:             "AssMul",
	AssDiv:             "AssDiv",
	AssPow:             "AssPow",
	FunctionDefinition: "FunctionDefinition",
	Lambda:             "Lambda",
	Param:              "Param",
	TypeHint:           "TypeHint",
	IfBlock:            "IfBlock",
	ElifStatement:      "ElifStatement",
	ElseStatement:      "ElseStatement",
	WhileStatement:     "WhileStatement",
	ForStatement:       "ForStatement",
	ImportStatement:    "ImportStatement",
	ReturnStatement:    "ReturnStatement",
	Block:              "Block",
	Expr:               "Expr",
	Neg:                "Neg",
	Index:              "Index",
	Add:                "Add",
	Sub:                "Sub",
	Mul:                "Mul",
	Div:                "Div",
	Mod:                "Mod",
	Pow:                "Pow",
	Range:              "Range",
	Lt:                 "Lt",
	Gt:                 "Gt",
	Lte:                "Lte",
	Gte:                "Gte",
	Eq:                 "Eq",
	NotEq:              "NotEq",
	Array:              "Array",
	FunctionCall:       "FunctionCall",
	Float:              "Float",
	Bool:               "Bool",
	Char:               "Char",
	None:               "None",
	Identifier:         "Identifier",
	Integer:            "Integer",
	Path:               "Path",
}

func (r Rule) String() string {
	if r < 0 || r >= numRules {
		return fmt.Sprintf("Rule(%d)", int(r))
	}

	return ruleNames[r]
}

func (p Pair) Text(b []byte) string {
	return string(b[p.Pos:p.End])
}

// Find returns the first direct child matching r.
func (p Pair) Find(r Rule) (Pair, bool) {
	for _, x := range p.Inner {
		if x.Rule == r {
			return x, true
		}
	}

	return Pair{}, false
}

func (p Pair) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 4)
	b = e.AppendString(b, "rule")
	b = e.AppendString(b, p.Rule.String())
	b = e.AppendKeyInt64(b, "pos", int64(p.Pos))
	b = e.AppendKeyInt64(b, "end", int64(p.End))
	b = e.AppendKeyInt64(b, "inner", int64(len(p.Inner)))

	return b
}
