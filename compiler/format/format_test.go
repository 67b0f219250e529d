package format

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jamalam360/jamalang/compiler/ast"
	"github.com/Jamalam360/jamalang/compiler/front"
)

func TestFormat(t *testing.T) {
	text := `// sum things
fn sum(xs: [number; 3]): number {
	total = 0
	for x in xs {
		total += x
	}
	return total
}
a = [1, 2.5, -(3 - 1)]
a[0] = sum(a) * (2 + 1)
if a[0] >= 10 {
	println('\n')
} elif true {
} else {
	println(none)
}
while -a[1] < 0 {
	a[1] = 1 - 2 - 3
}
each(a) lambda {
	c = 'x'
}
`

	ctx := context.Background()

	p, err := front.Parse(ctx, "sum.jm", []byte(text))
	require.NoError(t, err)

	b, err := Format(ctx, nil, p)
	require.NoError(t, err)
	assert.Equal(t, text, string(b))
}

func TestParens(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		X   ast.Expr
		Exp string
	}{
		{&ast.BinOp{L: &ast.Ident{Name: "a"}, Op: ast.Sub, R: &ast.BinOp{L: &ast.Ident{Name: "b"}, Op: ast.Sub, R: &ast.Ident{Name: "c"}}}, "a - (b - c)"},
		{&ast.BinOp{L: &ast.BinOp{L: &ast.Ident{Name: "a"}, Op: ast.Add, R: &ast.Ident{Name: "b"}}, Op: ast.Lt, R: &ast.Ident{Name: "c"}}, "(a + b) < c"},
		{&ast.UnaryMinus{X: &ast.BinOp{L: &ast.Number{Value: 1}, Op: ast.Range, R: &ast.Number{Value: 3}}}, "-(1 .. 3)"},
		{&ast.Index{Array: &ast.UnaryMinus{X: &ast.Ident{Name: "a"}}, Index: &ast.Number{Value: 0}}, "(-a)[0]"},
		{&ast.Char{Value: '\''}, `'\''`},
		{&ast.Number{Value: 1000000}, "1000000"},
	} {
		b, err := Format(ctx, nil, tc.X)
		require.NoError(t, err)
		assert.Equal(t, tc.Exp, string(b))
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()

	for _, text := range []string{
		"x = (a + b) < c * -d[1]",
		"f(1, [true, false], 'q') lambda { return g() }",
		"lambda fn id(c: char): char { return c }",
		"for i: number in 0 .. 10 { i2 = i % 3 }",
	} {
		p, err := front.Parse(ctx, "rt.jm", []byte(text))
		require.NoError(t, err, "%q", text)

		b, err := Format(ctx, nil, p)
		require.NoError(t, err)

		q, err := front.Parse(ctx, "rt.jm", b)
		require.NoError(t, err, "%s", b)

		if diff := cmp.Diff(p.Stmts, q.Stmts, cmpopts.IgnoreTypes(ast.Base{})); diff != "" {
			t.Errorf("%q -> %q: (-want +got)\n%s", text, b, diff)
		}
	}
}
