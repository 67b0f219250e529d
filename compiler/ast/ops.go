package ast

import "fmt"

type (
	AssignmentKind int

	BinaryOperator int

	HintKind int

	TypeHint struct {
		Kind HintKind

		Len  int       // HintArray
		Elem *TypeHint // HintArray
		Name string    // HintCustom
	}
)

const (
	Set AssignmentKind = iota
	AddSet
	SubSet
	MulSet
	DivSet
	PowSet
)

const (
	Add BinaryOperator = iota
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
)

const (
	HintVoid HintKind = iota
	HintNumber
	HintChar
	HintBool
	HintArray
	HintCustom
)

var (
	assignmentTokens = [...]string{
		Set:    "=",
		AddSet: "+=",
		SubSet: "-=",
		MulSet: "*=",
		DivSet: "/=",
		PowSet: "^=",
	}

	operatorTokens = [...]string{
		Add:   "+",
		Sub:   "-",
		Mul:   "*",
		Div:   "/",
		Mod:   "%",
		Pow:   "^",
		Range: "..",
		Lt:    "<",
		Gt:    ">",
		Lte:   "<=",
		Gte:   ">=",
		Eq:    "==",
		NotEq: "!=",
	}
)

func (k AssignmentKind) String() string {
	if k < 0 || int(k) >= len(assignmentTokens) {
		return fmt.Sprintf("AssignmentKind(%d)", int(k))
	}

	return assignmentTokens[k]
}

func (op BinaryOperator) String() string {
	if op < 0 || int(op) >= len(operatorTokens) {
		return fmt.Sprintf("BinaryOperator(%d)", int(op))
	}

	return operatorTokens[op]
}

// Comparison reports whether op yields a boolean.
func (op BinaryOperator) Comparison() bool {
	return op >= Lt && op <= NotEq
}

func (t TypeHint) String() string {
	switch t.Kind {
	case HintVoid:
		return "void"
	case HintNumber:
		return "number"
	case HintChar:
		return "char"
	case HintBool:
		return "bool"
	case HintArray:
		return fmt.Sprintf("[%v; %d]", t.Elem, t.Len)
	case HintCustom:
		return t.Name
	default:
		return fmt.Sprintf("HintKind(%d)", int(t.Kind))
	}
}

// HintNamed maps a plain type name to its hint.
func HintNamed(name string) TypeHint {
	switch name {
	case "void":
		return TypeHint{Kind: HintVoid}
	case "number":
		return TypeHint{Kind: HintNumber}
	case "char":
		return TypeHint{Kind: HintChar}
	case "bool":
		return TypeHint{Kind: HintBool}
	default:
		return TypeHint{Kind: HintCustom, Name: name}
	}
}
