package front

import (
	"context"
	"strconv"
	"strings"

	"tlog.app/go/errors"

	"github.com/Jamalam360/jamalang/compiler/ast"
	"github.com/Jamalam360/jamalang/compiler/grammar"
)

var assignmentKinds = map[grammar.Rule]ast.AssignmentKind{
	grammar.AssSet: ast.Set,
	grammar.AssAdd: ast.AddSet,
	grammar.AssSub: ast.SubSet,
	grammar.AssMul: ast.MulSet,
	grammar.AssDiv: ast.DivSet,
	grammar.AssPow: ast.PowSet,
}

func (f *file) stmts(ctx context.Context, p grammar.Pair) (l []ast.Stmt, err error) {
	l = make([]ast.Stmt, 0, len(p.Inner))

	for _, x := range p.Inner {
		s, err := f.stmt(ctx, x)
		if err != nil {
			line, col := f.prog.Position(x.Pos)
			return nil, errors.Wrap(err, "%v:%d:%d", f.prog.Name, line, col)
		}

		l = append(l, s)
	}

	return l, nil
}

func (f *file) stmt(ctx context.Context, p grammar.Pair) (_ ast.Stmt, err error) {
	switch p.Rule {
	case grammar.Comment:
		text := p.Text(f.b)

		return &ast.Comment{
			Base: base(p),
			Text: strings.TrimSpace(strings.TrimPrefix(text, "//")),
		}, nil
	case grammar.Assignment:
		return f.assignment(ctx, p)
	case grammar.FunctionDefinition:
		return f.function(ctx, p)
	case grammar.ReturnStatement:
		x, err := f.expr(ctx, p.Inner[0])
		if err != nil {
			return nil, errors.Wrap(err, "return")
		}

		return &ast.Return{
			Base:  base(p),
			Value: x,
		}, nil
	case grammar.IfBlock:
		return f.ifBlock(ctx, p)
	case grammar.WhileStatement:
		cond, err := f.expr(ctx, p.Inner[0])
		if err != nil {
			return nil, errors.Wrap(err, "while cond")
		}

		body, err := f.stmts(ctx, p.Inner[1])
		if err != nil {
			return nil, errors.Wrap(err, "while body")
		}

		return &ast.WhileLoop{
			Base: base(p),
			Cond: cond,
			Body: body,
		}, nil
	case grammar.ForStatement:
		return f.forLoop(ctx, p)
	case grammar.ImportStatement:
		return f.importFile(ctx, p)
	case grammar.Expr:
		x, err := f.expr(ctx, p)
		if err != nil {
			return nil, err
		}

		return &ast.ExprStmt{
			Base: base(p),
			Expr: x,
		}, nil
	default:
		panic(p.Rule)
	}
}

func (f *file) assignment(ctx context.Context, p grammar.Pair) (_ ast.Stmt, err error) {
	s := &ast.Assignment{
		Base:  base(p),
		Ident: p.Inner[0].Text(f.b),
	}

	for _, x := range p.Inner[1:] {
		if k, ok := assignmentKinds[x.Rule]; ok {
			s.Kind = k
			continue
		}

		switch x.Rule {
		case grammar.Index:
			s.Index, err = f.expr(ctx, x.Inner[0])
			if err != nil {
				return nil, errors.Wrap(err, "index")
			}
		case grammar.Expr:
			s.Value, err = f.expr(ctx, x)
			if err != nil {
				return nil, errors.Wrap(err, "value")
			}
		default:
			panic(x.Rule)
		}
	}

	return s, nil
}

func (f *file) function(ctx context.Context, p grammar.Pair) (_ ast.Stmt, err error) {
	d := &ast.FunctionDefinition{
		Base:   base(p),
		Return: ast.TypeHint{Kind: ast.HintVoid},
	}

	for _, x := range p.Inner {
		switch x.Rule {
		case grammar.Lambda:
			d.Lambda = true
		case grammar.Identifier:
			d.Ident = x.Text(f.b)
		case grammar.Param:
			h, err := f.hint(x.Inner[1])
			if err != nil {
				return nil, errors.Wrap(err, "param")
			}

			d.Params = append(d.Params, ast.Param{
				Name: x.Inner[0].Text(f.b),
				Type: h,
			})
		case grammar.TypeHint:
			d.Return, err = f.hint(x)
			if err != nil {
				return nil, errors.Wrap(err, "return type")
			}
		case grammar.Block:
			d.Body, err = f.stmts(ctx, x)
			if err != nil {
				return nil, errors.Wrap(err, "function %v", d.Ident)
			}
		default:
			panic(x.Rule)
		}
	}

	return d, nil
}

func (f *file) hint(p grammar.Pair) (h ast.TypeHint, err error) {
	if p.Inner[0].Rule == grammar.Identifier {
		return ast.HintNamed(p.Inner[0].Text(f.b)), nil
	}

	elem, err := f.hint(p.Inner[0])
	if err != nil {
		return h, err
	}

	n, err := strconv.Atoi(p.Inner[1].Text(f.b))
	if err != nil {
		return h, errors.Wrap(err, "array length")
	}

	return ast.TypeHint{
		Kind: ast.HintArray,
		Len:  n,
		Elem: &elem,
	}, nil
}

func (f *file) ifBlock(ctx context.Context, p grammar.Pair) (_ ast.Stmt, err error) {
	s := &ast.IfStatement{
		Base: base(p),
	}

	s.Cond, err = f.expr(ctx, p.Inner[0])
	if err != nil {
		return nil, errors.Wrap(err, "if cond")
	}

	s.Body, err = f.stmts(ctx, p.Inner[1])
	if err != nil {
		return nil, errors.Wrap(err, "if body")
	}

	for _, x := range p.Inner[2:] {
		switch x.Rule {
		case grammar.ElifStatement:
			var ei ast.ElseIf

			ei.Cond, err = f.expr(ctx, x.Inner[0])
			if err != nil {
				return nil, errors.Wrap(err, "elif cond")
			}

			ei.Body, err = f.stmts(ctx, x.Inner[1])
			if err != nil {
				return nil, errors.Wrap(err, "elif body")
			}

			s.ElseIfs = append(s.ElseIfs, ei)
		case grammar.ElseStatement:
			s.Else, err = f.stmts(ctx, x.Inner[0])
			if err != nil {
				return nil, errors.Wrap(err, "else body")
			}
		default:
			panic(x.Rule)
		}
	}

	return s, nil
}

func (f *file) forLoop(ctx context.Context, p grammar.Pair) (_ ast.Stmt, err error) {
	s := &ast.ForLoop{
		Base:  base(p),
		Ident: p.Inner[0].Text(f.b),
	}

	for _, x := range p.Inner[1:] {
		switch x.Rule {
		case grammar.TypeHint:
			h, err := f.hint(x)
			if err != nil {
				return nil, errors.Wrap(err, "for hint")
			}

			s.Hint = &h
		case grammar.Expr:
			s.Iterable, err = f.expr(ctx, x)
			if err != nil {
				return nil, errors.Wrap(err, "for iterable")
			}
		case grammar.Block:
			s.Body, err = f.stmts(ctx, x)
			if err != nil {
				return nil, errors.Wrap(err, "for body")
			}
		default:
			panic(x.Rule)
		}
	}

	return s, nil
}
