package ast

type (
	Node interface {
		Span() Base
	}

	Stmt interface {
		Node
		stmtNode()
	}

	Expr interface {
		Node
		exprNode()
	}

	Base struct {
		Pos int
		End int
	}

	// Program is one parsed source file.
	// Imported files are embedded as ForeignModule statements.
	Program struct {
		Name   string
		Source []byte `tlog:"-"`

		Stmts []Stmt
	}

	Assignment struct {
		Base `tlog:",embed"`

		Ident string
		Index Expr // nil if not indexed
		Kind  AssignmentKind
		Value Expr
	}

	Param struct {
		Name string
		Type TypeHint
	}

	FunctionDefinition struct {
		Base `tlog:",embed"`

		Lambda bool
		Ident  string
		Params []Param
		Return TypeHint
		Body   []Stmt
	}

	Return struct {
		Base `tlog:",embed"`

		Value Expr
	}

	WhileLoop struct {
		Base `tlog:",embed"`

		Cond Expr
		Body []Stmt
	}

	ForLoop struct {
		Base `tlog:",embed"`

		Ident    string
		Hint     *TypeHint
		Iterable Expr
		Body     []Stmt
	}

	ElseIf struct {
		Cond Expr
		Body []Stmt
	}

	IfStatement struct {
		Base `tlog:",embed"`

		Cond    Expr
		Body    []Stmt
		ElseIfs []ElseIf
		Else    []Stmt
	}

	ForeignModule struct {
		Base `tlog:",embed"`

		Path    string
		Program *Program
	}

	ExprStmt struct {
		Base `tlog:",embed"`

		Expr Expr
	}

	Comment struct {
		Base `tlog:",embed"`

		Text string
	}

	Number struct {
		Base `tlog:",embed"`

		Value float32
	}

	Bool struct {
		Base `tlog:",embed"`

		Value bool
	}

	Char struct {
		Base `tlog:",embed"`

		Value byte
	}

	None struct {
		Base `tlog:",embed"`
	}

	Ident struct {
		Base `tlog:",embed"`

		Name string
	}

	Call struct {
		Base `tlog:",embed"`

		Ident  string
		Args   []Expr
		Lambda []Stmt // trailing block, nil if absent
	}

	UnaryMinus struct {
		Base `tlog:",embed"`

		X Expr
	}

	Array struct {
		Base `tlog:",embed"`

		Elems []Expr
	}

	Index struct {
		Base `tlog:",embed"`

		Array Expr
		Index Expr
	}

	BinOp struct {
		Base `tlog:",embed"`

		L  Expr
		Op BinaryOperator
		R  Expr
	}
)

func (b Base) Span() Base { return b }

func (*Assignment) stmtNode()         {}
func (*FunctionDefinition) stmtNode() {}
func (*Return) stmtNode()             {}
func (*WhileLoop) stmtNode()          {}
func (*ForLoop) stmtNode()            {}
func (*IfStatement) stmtNode()        {}
func (*ForeignModule) stmtNode()      {}
func (*ExprStmt) stmtNode()           {}
func (*Comment) stmtNode()            {}

func (*Number) exprNode()     {}
func (*Bool) exprNode()       {}
func (*Char) exprNode()       {}
func (*None) exprNode()       {}
func (*Ident) exprNode()      {}
func (*Call) exprNode()       {}
func (*UnaryMinus) exprNode() {}
func (*Array) exprNode()      {}
func (*Index) exprNode()      {}
func (*BinOp) exprNode()      {}

// Position converts a byte offset into 1-based line and column.
func (p *Program) Position(pos int) (line, col int) {
	line, col = 1, 1

	if pos > len(p.Source) {
		pos = len(p.Source)
	}

	for _, c := range p.Source[:pos] {
		if c == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}

	return
}
