package front

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jamalam360/jamalang/compiler/ast"
)

var ignoreSpans = cmpopts.IgnoreTypes(ast.Base{})

func num(v float32) *ast.Number { return &ast.Number{Value: v} }
func id(n string) *ast.Ident    { return &ast.Ident{Name: n} }

func bin(l ast.Expr, op ast.BinaryOperator, r ast.Expr) *ast.BinOp {
	return &ast.BinOp{L: l, Op: op, R: r}
}

func parseExpr(t *testing.T, text string) ast.Expr {
	t.Helper()

	p, err := Parse(context.Background(), "expr.jm", []byte(text))
	require.NoError(t, err)
	require.Len(t, p.Stmts, 1)

	s, ok := p.Stmts[0].(*ast.ExprStmt)
	require.True(t, ok, "%T", p.Stmts[0])

	return s.Expr
}

func TestPrecedence(t *testing.T) {
	for _, tc := range []struct {
		Text string
		Exp  ast.Expr
	}{
		{"1 - 2 - 3", bin(bin(num(1), ast.Sub, num(2)), ast.Sub, num(3))},
		{"a + b * c", bin(id("a"), ast.Add, bin(id("b"), ast.Mul, id("c")))},
		{"a + b < c", bin(id("a"), ast.Add, bin(id("b"), ast.Lt, id("c")))},
		{"a < b * c", bin(id("a"), ast.Lt, bin(id("b"), ast.Mul, id("c")))},
		{"a == b != c", bin(bin(id("a"), ast.Eq, id("b")), ast.NotEq, id("c"))},
		{"0..3 * 2", bin(bin(num(0), ast.Range, num(3)), ast.Mul, num(2))},
		{"(a + b) * c", bin(bin(id("a"), ast.Add, id("b")), ast.Mul, id("c"))},
		{"-x[1]", &ast.UnaryMinus{X: &ast.Index{Array: id("x"), Index: num(1)}}},
		{"--2", &ast.UnaryMinus{X: &ast.UnaryMinus{X: num(2)}}},
		{"-a * b", bin(&ast.UnaryMinus{X: id("a")}, ast.Mul, id("b"))},
		{"m[0][1]", &ast.Index{Array: &ast.Index{Array: id("m"), Index: num(0)}, Index: num(1)}},
		{"[1, 2][0]", &ast.Index{Array: &ast.Array{Elems: []ast.Expr{num(1), num(2)}}, Index: num(0)}},
		{"'\\n'", &ast.Char{Value: '\n'}},
		{"false", &ast.Bool{Value: false}},
		{"none", &ast.None{}},
		{"2.5", num(2.5)},
		{"f(1, g())", &ast.Call{Ident: "f", Args: []ast.Expr{num(1), &ast.Call{Ident: "g"}}}},
	} {
		x := parseExpr(t, tc.Text)

		if diff := cmp.Diff(tc.Exp, x, ignoreSpans); diff != "" {
			t.Errorf("%q: (-want +got)\n%s", tc.Text, diff)
		}
	}
}

func TestStatements(t *testing.T) {
	text := `// counter
fn add(a: number, b: number): number {
	return a + b
}

xs = [1, 2]
xs[0] = 5
total += 1

for x: number in xs {
	println(x)
}

if total > 1 {
	big = true
} elif total < 0 {
} else {
	big = false
}

while total < 10 { total *= 2 }

lambda fn noop() {}
`

	p, err := Parse(context.Background(), "main.jm", []byte(text))
	require.NoError(t, err)

	numberHint := ast.TypeHint{Kind: ast.HintNumber}

	exp := []ast.Stmt{
		&ast.Comment{Text: "counter"},
		&ast.FunctionDefinition{
			Ident:  "add",
			Params: []ast.Param{{Name: "a", Type: numberHint}, {Name: "b", Type: numberHint}},
			Return: numberHint,
			Body: []ast.Stmt{
				&ast.Return{Value: bin(id("a"), ast.Add, id("b"))},
			},
		},
		&ast.Assignment{Ident: "xs", Kind: ast.Set, Value: &ast.Array{Elems: []ast.Expr{num(1), num(2)}}},
		&ast.Assignment{Ident: "xs", Index: num(0), Kind: ast.Set, Value: num(5)},
		&ast.Assignment{Ident: "total", Kind: ast.AddSet, Value: num(1)},
		&ast.ForLoop{
			Ident:    "x",
			Hint:     &numberHint,
			Iterable: id("xs"),
			Body: []ast.Stmt{
				&ast.ExprStmt{Expr: &ast.Call{Ident: "println", Args: []ast.Expr{id("x")}}},
			},
		},
		&ast.IfStatement{
			Cond: bin(id("total"), ast.Gt, num(1)),
			Body: []ast.Stmt{&ast.Assignment{Ident: "big", Value: &ast.Bool{Value: true}}},
			ElseIfs: []ast.ElseIf{
				{Cond: bin(id("total"), ast.Lt, num(0))},
			},
			Else: []ast.Stmt{&ast.Assignment{Ident: "big", Value: &ast.Bool{Value: false}}},
		},
		&ast.WhileLoop{
			Cond: bin(id("total"), ast.Lt, num(10)),
			Body: []ast.Stmt{&ast.Assignment{Ident: "total", Kind: ast.MulSet, Value: num(2)}},
		},
		&ast.FunctionDefinition{
			Lambda: true,
			Ident:  "noop",
			Return: ast.TypeHint{Kind: ast.HintVoid},
		},
	}

	if diff := cmp.Diff(exp, p.Stmts, ignoreSpans, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}
}

func TestArrayHint(t *testing.T) {
	p, err := Parse(context.Background(), "main.jm", []byte("fn f(a: [[char; 2]; 3]) {}"))
	require.NoError(t, err)

	d := p.Stmts[0].(*ast.FunctionDefinition)
	assert.Equal(t, "[[char; 2]; 3]", d.Params[0].Type.String())
	assert.Equal(t, ast.HintVoid, d.Return.Kind)
}

func TestCallLambda(t *testing.T) {
	x := parseExpr(t, "each(xs) lambda { }")
	c := x.(*ast.Call)
	assert.NotNil(t, c.Lambda)
	assert.Len(t, c.Lambda, 0)

	x = parseExpr(t, "each(xs)")
	assert.Nil(t, x.(*ast.Call).Lambda)
}

func TestSpans(t *testing.T) {
	text := []byte("x = 1\ny = ab + 2")

	p, err := Parse(context.Background(), "main.jm", text)
	require.NoError(t, err)

	a := p.Stmts[1].(*ast.Assignment)
	assert.Equal(t, "y = ab + 2", string(text[a.Pos:a.End]))

	v := a.Value.Span()
	assert.Equal(t, "ab + 2", string(text[v.Pos:v.End]))

	line, col := p.Position(v.Pos)
	assert.Equal(t, 2, line)
	assert.Equal(t, 5, col)
}

func TestSyntaxError(t *testing.T) {
	_, err := Parse(context.Background(), "bad.jm", []byte("x = 1\ny = ("))
	require.Error(t, err)

	var serr *SyntaxError
	require.ErrorAs(t, err, &serr)

	assert.Equal(t, "bad.jm", serr.File)
	assert.Equal(t, 2, serr.Line)
	assert.Equal(t, 6, serr.Col)
	assert.Equal(t, 11, serr.Pos)
	assert.Contains(t, serr.Expected, "number")
	assert.Contains(t, err.Error(), "bad.jm:2:6: expected")
}

func TestImport(t *testing.T) {
	fsys := fstest.MapFS{
		"main.jm": {Data: []byte("import \"lib.jm\"\nprintln(answer)\n")},
		"lib.jm":  {Data: []byte("answer = 42\n")},
	}

	b := New()
	b.ReadFile = fsys.ReadFile

	p, err := b.ParseFile(context.Background(), "main.jm")
	require.NoError(t, err)
	require.Len(t, p.Stmts, 2)

	fm, ok := p.Stmts[0].(*ast.ForeignModule)
	require.True(t, ok)
	assert.Equal(t, "lib.jm", fm.Path)
	require.NotNil(t, fm.Program)
	assert.Equal(t, "lib.jm", fm.Program.Name)

	exp := []ast.Stmt{&ast.Assignment{Ident: "answer", Value: num(42)}}
	if diff := cmp.Diff(exp, fm.Program.Stmts, ignoreSpans); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}
}

func TestImportErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"a.jm":       {Data: []byte(`import "b.jm"`)},
		"b.jm":       {Data: []byte(`import "a.jm"`)},
		"missing.jm": {Data: []byte(`import "nope.jm"`)},
	}

	b := New()
	b.ReadFile = fsys.ReadFile

	_, err := b.ParseFile(context.Background(), "a.jm")
	require.Error(t, err)

	var cerr *ImportCycleError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "a.jm", cerr.Path)
	assert.Equal(t, []string{"a.jm", "b.jm"}, cerr.Chain)

	_, err = b.ParseFile(context.Background(), "missing.jm")
	assert.ErrorContains(t, err, "nope.jm")
}
