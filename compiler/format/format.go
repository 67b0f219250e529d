package format

import (
	"context"
	"strconv"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/Jamalam360/jamalang/compiler/ast"
)

// Format appends canonical source text of x to b.
// x is *ast.Program, []ast.Stmt, ast.Stmt or ast.Expr.
func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	return format(ctx, b, x, 0)
}

func format(ctx context.Context, b []byte, x any, d int) ([]byte, error) {
	switch x := x.(type) {
	case *ast.Program:
		return formatBlock(ctx, b, x.Stmts, d)
	case []ast.Stmt:
		return formatBlock(ctx, b, x, d)
	case ast.Stmt:
		return formatStmt(ctx, b, x, d)
	case ast.Expr:
		return formatExpr(ctx, b, x, d)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatBlock(ctx context.Context, b []byte, l []ast.Stmt, d int) (_ []byte, err error) {
	for _, s := range l {
		b, err = formatStmt(ctx, b, s, d)
		if err != nil {
			return nil, err
		}
	}

	return b, nil
}

func formatBody(ctx context.Context, b []byte, l []ast.Stmt, d int) (_ []byte, err error) {
	b = append(b, " {\n"...)

	b, err = formatBlock(ctx, b, l, d+1)
	if err != nil {
		return nil, errors.Wrap(err, "body")
	}

	b = app(b, d, "}")

	return b, nil
}

func formatStmt(ctx context.Context, b []byte, s ast.Stmt, d int) (_ []byte, err error) {
	switch s := s.(type) {
	case *ast.Comment:
		b = app(b, d, "// %s", s.Text)
	case *ast.Assignment:
		b = app(b, d, "%s", s.Ident)

		if s.Index != nil {
			b = append(b, '[')

			b, err = formatExpr(ctx, b, s.Index, d)
			if err != nil {
				return nil, errors.Wrap(err, "index")
			}

			b = append(b, ']')
		}

		b = hfmt.Appendf(b, " %v ", s.Kind)

		b, err = formatExpr(ctx, b, s.Value, d)
		if err != nil {
			return nil, errors.Wrap(err, "value")
		}
	case *ast.FunctionDefinition:
		b = app(b, d, "")

		if s.Lambda {
			b = append(b, "lambda "...)
		}

		b = hfmt.Appendf(b, "fn %s(", s.Ident)

		for i, p := range s.Params {
			if i != 0 {
				b = append(b, ", "...)
			}

			b = hfmt.Appendf(b, "%s: %v", p.Name, p.Type)
		}

		b = append(b, ')')

		if s.Return.Kind != ast.HintVoid {
			b = hfmt.Appendf(b, ": %v", s.Return)
		}

		b, err = formatBody(ctx, b, s.Body, d)
		if err != nil {
			return nil, errors.Wrap(err, "function %v", s.Ident)
		}
	case *ast.Return:
		b = app(b, d, "return ")

		b, err = formatExpr(ctx, b, s.Value, d)
		if err != nil {
			return nil, errors.Wrap(err, "return")
		}
	case *ast.IfStatement:
		b = app(b, d, "if ")

		b, err = formatCondBody(ctx, b, s.Cond, s.Body, d)
		if err != nil {
			return nil, errors.Wrap(err, "if")
		}

		for _, ei := range s.ElseIfs {
			b = append(b, " elif "...)

			b, err = formatCondBody(ctx, b, ei.Cond, ei.Body, d)
			if err != nil {
				return nil, errors.Wrap(err, "elif")
			}
		}

		if s.Else != nil {
			b = append(b, " else"...)

			b, err = formatBody(ctx, b, s.Else, d)
			if err != nil {
				return nil, errors.Wrap(err, "else")
			}
		}
	case *ast.WhileLoop:
		b = app(b, d, "while ")

		b, err = formatCondBody(ctx, b, s.Cond, s.Body, d)
		if err != nil {
			return nil, errors.Wrap(err, "while")
		}
	case *ast.ForLoop:
		b = app(b, d, "for %s", s.Ident)

		if s.Hint != nil {
			b = hfmt.Appendf(b, ": %v", *s.Hint)
		}

		b = append(b, " in "...)

		b, err = formatCondBody(ctx, b, s.Iterable, s.Body, d)
		if err != nil {
			return nil, errors.Wrap(err, "for")
		}
	case *ast.ForeignModule:
		b = app(b, d, "import %q", s.Path)
	case *ast.ExprStmt:
		b = app(b, d, "")

		b, err = formatExpr(ctx, b, s.Expr, d)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unsupported stmt: %T", s)
	}

	b = append(b, '\n')

	return b, nil
}

func formatCondBody(ctx context.Context, b []byte, cond ast.Expr, body []ast.Stmt, d int) (_ []byte, err error) {
	b, err = formatExpr(ctx, b, cond, d)
	if err != nil {
		return nil, errors.Wrap(err, "cond")
	}

	return formatBody(ctx, b, body, d)
}

func formatExpr(ctx context.Context, b []byte, x ast.Expr, d int) (_ []byte, err error) {
	switch x := x.(type) {
	case *ast.Ident:
		b = append(b, x.Name...)
	case *ast.Number:
		b = strconv.AppendFloat(b, float64(x.Value), 'f', -1, 32)
	case *ast.Bool:
		b = strconv.AppendBool(b, x.Value)
	case *ast.Char:
		b = appendChar(b, x.Value)
	case *ast.None:
		b = append(b, "none"...)
	case *ast.Call:
		b = hfmt.Appendf(b, "%s(", x.Ident)

		for i, a := range x.Args {
			if i != 0 {
				b = append(b, ", "...)
			}

			b, err = formatExpr(ctx, b, a, d)
			if err != nil {
				return nil, errors.Wrap(err, "arg %d", i)
			}
		}

		b = append(b, ')')

		if x.Lambda != nil {
			b = append(b, " lambda"...)

			b, err = formatBody(ctx, b, x.Lambda, d)
			if err != nil {
				return nil, errors.Wrap(err, "lambda")
			}
		}
	case *ast.UnaryMinus:
		b = append(b, '-')

		b, err = formatOperand(ctx, b, x.X, d, 4)
		if err != nil {
			return nil, err
		}
	case *ast.Array:
		b = append(b, '[')

		for i, e := range x.Elems {
			if i != 0 {
				b = append(b, ", "...)
			}

			b, err = formatExpr(ctx, b, e, d)
			if err != nil {
				return nil, errors.Wrap(err, "elem %d", i)
			}
		}

		b = append(b, ']')
	case *ast.Index:
		b, err = formatOperand(ctx, b, x.Array, d, 5)
		if err != nil {
			return nil, err
		}

		b = append(b, '[')

		b, err = formatExpr(ctx, b, x.Index, d)
		if err != nil {
			return nil, errors.Wrap(err, "index")
		}

		b = append(b, ']')
	case *ast.BinOp:
		p := precedence(x)

		b, err = formatOperand(ctx, b, x.L, d, p)
		if err != nil {
			return nil, errors.Wrap(err, "left")
		}

		b = hfmt.Appendf(b, " %v ", x.Op)

		b, err = formatOperand(ctx, b, x.R, d, p+1)
		if err != nil {
			return nil, errors.Wrap(err, "right")
		}
	default:
		return nil, errors.New("unsupported expr: %T", x)
	}

	return b, nil
}

// formatOperand wraps x in parens if it binds weaker than min.
func formatOperand(ctx context.Context, b []byte, x ast.Expr, d, min int) (_ []byte, err error) {
	paren := precedence(x) < min

	if paren {
		b = append(b, '(')
	}

	b, err = formatExpr(ctx, b, x, d)
	if err != nil {
		return nil, err
	}

	if paren {
		b = append(b, ')')
	}

	return b, nil
}

func precedence(x ast.Expr) int {
	switch x := x.(type) {
	case *ast.BinOp:
		switch x.Op {
		case ast.Add, ast.Sub:
			return 1
		case ast.Mul, ast.Div, ast.Mod, ast.Pow, ast.Range:
			return 3
		default:
			return 2
		}
	case *ast.UnaryMinus:
		return 4
	default:
		return 5
	}
}

func appendChar(b []byte, c byte) []byte {
	b = append(b, '\'')

	switch c {
	case '\n':
		b = append(b, `\n`...)
	case '\t':
		b = append(b, `\t`...)
	case '\r':
		b = append(b, `\r`...)
	case 0:
		b = append(b, `\0`...)
	case '\\', '\'':
		b = append(b, '\\', c)
	default:
		b = append(b, c)
	}

	return append(b, '\'')
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
