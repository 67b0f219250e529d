package grammar

func init() {
	statement := AllOf{
		AnyOf{
			Comment,
			FunctionDefinition,
			IfBlock,
			WhileStatement,
			ForStatement,
			ImportStatement,
			ReturnStatement,
			Assignment,
			Expr,
		},
		Optional{sym(";")},
	}

	hint := Optional{AllOf{sym(":"), TypeHint}}

	rules[File] = Repeat{Of: statement}
	rules[Block] = AllOf{sym("{"), Repeat{Of: statement}, sym("}")}
	rules[Comment] = AllOf{Const("//"), Until('\n')}

	rules[Assignment] = AllOf{
		Identifier,
		Optional{Index},
		AnyOf{AssAdd, AssSub, AssMul, AssDiv, AssPow, AssSet},
		Expr,
	}

	rules[AssSet] = AllOf{Const("="), Not{Const("=")}}
	rules[AssAdd] = Const("+=")
	rules[AssSub] = Const("-=")
	rules[AssMul] = Const("*=")
	rules[AssDiv] = Const("/=")
	rules[AssPow] = Const("^=")

	rules[FunctionDefinition] = AllOf{
		Optional{Lambda},
		kw("fn"),
		Identifier,
		sym("("),
		list(Param),
		sym(")"),
		hint,
		Block,
	}

	rules[Lambda] = Keyword("lambda")
	rules[Param] = AllOf{Identifier, sym(":"), TypeHint}

	rules[TypeHint] = AnyOf{
		AllOf{sym("["), TypeHint, sym(";"), Integer, sym("]")},
		Identifier,
	}

	rules[IfBlock] = AllOf{kw("if"), Expr, Block, Repeat{Of: ElifStatement}, Optional{ElseStatement}}
	rules[ElifStatement] = AllOf{kw("elif"), Expr, Block}
	rules[ElseStatement] = AllOf{kw("else"), Block}

	rules[WhileStatement] = AllOf{kw("while"), Expr, Block}
	rules[ForStatement] = AllOf{kw("for"), Identifier, hint, kw("in"), Expr, Block}

	rules[ImportStatement] = AllOf{kw("import"), Path}
	rules[ReturnStatement] = AllOf{kw("return"), Expr}

	operand := AllOf{
		Repeat{Of: Neg},
		AnyOf{
			AllOf{sym("("), Expr, sym(")")},
			Array,
			FunctionCall,
			Float,
			Bool,
			Char,
			None,
			Identifier,
		},
		Repeat{Of: Index},
	}

	infix := AnyOf{Add, Sub, Lte, Gte, Eq, NotEq, Lt, Gt, Mul, Div, Mod, Pow, Range}

	rules[Expr] = AllOf{operand, Repeat{Of: AllOf{infix, operand}}}

	rules[Neg] = Const("-")
	rules[Index] = AllOf{sym("["), Expr, sym("]")}

	rules[Add] = Const("+")
	rules[Sub] = Const("-")
	rules[Mul] = Const("*")
	rules[Div] = AllOf{Const("/"), Not{Const("/")}}
	rules[Mod] = Const("%")
	rules[Pow] = Const("^")
	rules[Range] = Const("..")
	rules[Lt] = Const("<")
	rules[Gt] = Const(">")
	rules[Lte] = Const("<=")
	rules[Gte] = Const(">=")
	rules[Eq] = Const("==")
	rules[NotEq] = Const("!=")

	rules[Array] = AllOf{sym("["), list(Expr), sym("]")}

	// the paren must follow the name immediately,
	// otherwise "a\n(b)" would read as a call
	rules[FunctionCall] = AllOf{
		Identifier,
		Const("("),
		list(Expr),
		sym(")"),
		Optional{AllOf{kw("lambda"), Block}},
	}

	rules[Float] = Number{}
	rules[Bool] = AnyOf{Keyword("true"), Keyword("false")}
	rules[Char] = CharLit{}
	rules[None] = Keyword("none")
	rules[Identifier] = Ident{}
	rules[Integer] = Int{}
	rules[Path] = Quoted{}
}

func sym(s string) Parser {
	return Spaced(Const(s), SpaceAll)
}

func kw(s string) Parser {
	return Spaced(Keyword(s), SpaceAll)
}

// list matches zero or more comma separated p.
func list(p Parser) Parser {
	return Optional{AllOf{p, Repeat{Of: AllOf{sym(","), p}}}}
}
