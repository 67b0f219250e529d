package front

import (
	"context"
	"strconv"

	"tlog.app/go/errors"

	"github.com/Jamalam360/jamalang/compiler/ast"
	"github.com/Jamalam360/jamalang/compiler/grammar"
)

type (
	// exprParser climbs operator precedence over the flat
	// operand/operator sequence of one Expr pair.
	exprParser struct {
		ctx context.Context

		f  *file
		ps []grammar.Pair
		i  int
	}

	infixOp struct {
		Op   ast.BinaryOperator
		Prec int
	}
)

var infix = map[grammar.Rule]infixOp{
	grammar.Add: {ast.Add, 1},
	grammar.Sub: {ast.Sub, 1},

	grammar.Lt:    {ast.Lt, 2},
	grammar.Gt:    {ast.Gt, 2},
	grammar.Lte:   {ast.Lte, 2},
	grammar.Gte:   {ast.Gte, 2},
	grammar.Eq:    {ast.Eq, 2},
	grammar.NotEq: {ast.NotEq, 2},

	grammar.Mul:   {ast.Mul, 3},
	grammar.Div:   {ast.Div, 3},
	grammar.Mod:   {ast.Mod, 3},
	grammar.Pow:   {ast.Pow, 3},
	grammar.Range: {ast.Range, 3},
}

func (f *file) expr(ctx context.Context, p grammar.Pair) (ast.Expr, error) {
	if p.Rule != grammar.Expr {
		panic(p.Rule)
	}

	ep := exprParser{
		ctx: ctx,
		f:   f,
		ps:  p.Inner,
	}

	x, err := ep.parse(1)
	if err != nil {
		return nil, err
	}

	if ep.i != len(ep.ps) {
		panic(ep.ps[ep.i].Rule)
	}

	return x, nil
}

func (p *exprParser) parse(prec int) (lhs ast.Expr, err error) {
	lhs, err = p.unary()
	if err != nil {
		return nil, err
	}

	for p.i < len(p.ps) {
		op, ok := infix[p.ps[p.i].Rule]
		if !ok {
			panic(p.ps[p.i].Rule)
		}

		if op.Prec < prec {
			break
		}

		p.i++

		rhs, err := p.parse(op.Prec + 1)
		if err != nil {
			return nil, err
		}

		lhs = &ast.BinOp{
			Base: ast.Base{
				Pos: lhs.Span().Pos,
				End: rhs.Span().End,
			},
			L:  lhs,
			Op: op.Op,
			R:  rhs,
		}
	}

	return lhs, nil
}

func (p *exprParser) unary() (x ast.Expr, err error) {
	var negs []grammar.Pair

	for p.i < len(p.ps) && p.ps[p.i].Rule == grammar.Neg {
		negs = append(negs, p.ps[p.i])
		p.i++
	}

	x, err = p.f.primary(p.ctx, p.ps[p.i])
	if err != nil {
		return nil, err
	}

	p.i++

	for p.i < len(p.ps) && p.ps[p.i].Rule == grammar.Index {
		idx := p.ps[p.i]
		p.i++

		y, err := p.f.expr(p.ctx, idx.Inner[0])
		if err != nil {
			return nil, errors.Wrap(err, "index")
		}

		x = &ast.Index{
			Base: ast.Base{
				Pos: x.Span().Pos,
				End: idx.End,
			},
			Array: x,
			Index: y,
		}
	}

	for j := len(negs) - 1; j >= 0; j-- {
		x = &ast.UnaryMinus{
			Base: ast.Base{
				Pos: negs[j].Pos,
				End: x.Span().End,
			},
			X: x,
		}
	}

	return x, nil
}

func (f *file) primary(ctx context.Context, p grammar.Pair) (x ast.Expr, err error) {
	switch p.Rule {
	case grammar.Expr:
		return f.expr(ctx, p)
	case grammar.Float:
		v, err := strconv.ParseFloat(p.Text(f.b), 32)
		if err != nil {
			return nil, errors.Wrap(err, "number")
		}

		return &ast.Number{Base: base(p), Value: float32(v)}, nil
	case grammar.Bool:
		return &ast.Bool{Base: base(p), Value: p.Text(f.b) == "true"}, nil
	case grammar.Char:
		return &ast.Char{Base: base(p), Value: unquoteChar(p.Text(f.b))}, nil
	case grammar.None:
		return &ast.None{Base: base(p)}, nil
	case grammar.Identifier:
		return &ast.Ident{Base: base(p), Name: p.Text(f.b)}, nil
	case grammar.Array:
		a := &ast.Array{Base: base(p)}

		for _, e := range p.Inner {
			y, err := f.expr(ctx, e)
			if err != nil {
				return nil, errors.Wrap(err, "array element")
			}

			a.Elems = append(a.Elems, y)
		}

		return a, nil
	case grammar.FunctionCall:
		return f.call(ctx, p)
	default:
		panic(p.Rule)
	}
}

func (f *file) call(ctx context.Context, p grammar.Pair) (_ ast.Expr, err error) {
	c := &ast.Call{
		Base:  base(p),
		Ident: p.Inner[0].Text(f.b),
	}

	for _, x := range p.Inner[1:] {
		switch x.Rule {
		case grammar.Expr:
			y, err := f.expr(ctx, x)
			if err != nil {
				return nil, errors.Wrap(err, "call %v arg", c.Ident)
			}

			c.Args = append(c.Args, y)
		case grammar.Block:
			c.Lambda, err = f.stmts(ctx, x)
			if err != nil {
				return nil, errors.Wrap(err, "call %v lambda", c.Ident)
			}
		default:
			panic(x.Rule)
		}
	}

	return c, nil
}

// unquoteChar decodes a char literal already checked by the grammar.
func unquoteChar(s string) byte {
	s = s[1 : len(s)-1]

	if s[0] != '\\' {
		return s[0]
	}

	switch s[1] {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		return s[1]
	}
}
