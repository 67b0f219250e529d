package vm

import (
	"bytes"
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jamalam360/jamalang/compiler/front"
	"github.com/Jamalam360/jamalang/compiler/linkage"
	"github.com/Jamalam360/jamalang/compiler/lower"
)

func run(t *testing.T, text string, opts ...Option) (*Machine, string, error) {
	t.Helper()

	return runCtx(context.Background(), t, text, opts...)
}

func runCtx(ctx context.Context, t *testing.T, text string, opts ...Option) (*Machine, string, error) {
	t.Helper()

	p, err := front.Parse(ctx, "test.jm", []byte(text))
	require.NoError(t, err)

	var out bytes.Buffer
	reg := linkage.NewRegistry(&out)

	m, err := lower.Program(ctx, p, reg)
	require.NoError(t, err)

	vm := New(m, reg, opts...)

	_, err = vm.Call(ctx, lower.EntryName("test.jm"))

	return vm, out.String(), err
}

func output(t *testing.T, text string) string {
	t.Helper()

	_, out, err := run(t, text)
	require.NoError(t, err)

	return out
}

func TestPrintLiterals(t *testing.T) {
	assert.Equal(t, "1\n", output(t, `println(1)`))
	assert.Equal(t, "a\ntrue\nfalse\n", output(t, "println('a')\nprintln(1 < 2)\nprintln(2 <= 1)"))
	assert.Equal(t, "0.25\n1\n-3\n", output(t, "println(1 / 4)\nprintln(7 % 3)\nprintln(-3)"))
}

func TestSupportLibrary(t *testing.T) {
	assert.Equal(t, "2.8\n5.5\n", output(t, `println(stdlibTest())`))
}

func TestScopeLeakage(t *testing.T) {
	assert.Equal(t, "5\n", output(t, `
if true {
	x = 5
}
println(x)
`))

	assert.Equal(t, "3\n", output(t, `
i = 0
while i < 3 {
	i += 1
	z = i
}
println(z)
`))

	assert.Equal(t, "2\n", output(t, `
fn f(): number {
	for i in 0..3 {
		y = i
	}
	return y
}
println(f())
`))
}

func TestGlobalVsLocal(t *testing.T) {
	vm, out, err := run(t, `
x = 1
fn f() {
	x = 2
	y = 3
	println(x)
}
fn get(): number {
	return x
}
f()
println(x)
`)
	require.NoError(t, err)
	assert.Equal(t, "2\n1\n", out)

	x, ok := vm.Global("x")
	require.True(t, ok)
	assert.Equal(t, float32(1), x)

	_, ok = vm.Global("y")
	assert.False(t, ok, "function locals are not globals")

	err = vm.SetGlobal("x", float32(7))
	require.NoError(t, err)

	res, err := vm.Call(context.Background(), "get")
	require.NoError(t, err)
	assert.Equal(t, float32(7), res)

	assert.Error(t, vm.SetGlobal("x", true))
	assert.Error(t, vm.SetGlobal("nope", float32(1)))
}

func TestArrays(t *testing.T) {
	vm, out, err := run(t, `
a = [1, 2, 3]
println(a[0])
println(a[1])
println(a[2])
a[1] = 9
i = 2
x = 4
b = [x, a[i]]
println(a[1])
println(b[0] + b[1])
`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n9\n7\n", out)

	a, ok := vm.Global("a")
	require.True(t, ok)
	assert.Equal(t, []any{float32(1), float32(9), float32(3)}, a)

	err = vm.SetGlobal("a", []any{float32(1)})
	assert.Error(t, err, "length differs")
}

func TestRangeAndFor(t *testing.T) {
	assert.Equal(t, "2\n3\n4\n", output(t, `
for i in 2..5 {
	println(i)
}
`))

	assert.Equal(t, "10\n", output(t, `
n = 0
for i in 0..10 {
	n += 1
}
println(n)
`))

	assert.Equal(t, "", output(t, `
for i in 3..1 {
	println(i)
}
`))

	assert.Equal(t, "a\nb\n", output(t, `
for c: char in ['a', 'b'] {
	println(c)
}
`))
}

func TestCompoundAssignment(t *testing.T) {
	vm, out, err := run(t, `
x = 10
x -= 4
x *= 2
x /= 3
println(x)
x += 0.5
`)
	require.NoError(t, err)
	assert.Equal(t, "4\n", out)

	x, _ := vm.Global("x")
	assert.Equal(t, float32(4.5), x)
}

func TestFunctions(t *testing.T) {
	assert.Equal(t, "120\n", output(t, `
fn fact(n: number): number {
	if n < 2 {
		return 1
	}
	return n * fact(n - 1)
}
println(fact(5))
`))

	assert.Equal(t, "-1\n0\n1\n", output(t, `
fn sign(n: number): number {
	if n < 0 {
		return -1
	} elif n == 0 {
		return 0
	} else {
		return 1
	}
}
println(sign(-3))
println(sign(0))
println(sign(7))
`))

	assert.Equal(t, "1\n", output(t, `
fn one(): number {
	return 1
}
x = one() lambda {
	println(2)
}
println(x)
`))
}

func TestSetRebinds(t *testing.T) {
	vm, out, err := run(t, `
x = 1
fn f(): number {
	return x
}
x = 2
println(f())
println(x)
`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", out, "f keeps the cell it was compiled against")

	x, ok := vm.Global("x")
	require.True(t, ok)
	assert.Equal(t, float32(1), x)

	x, ok = vm.Global("x.1")
	require.True(t, ok)
	assert.Equal(t, float32(2), x)

	// the loop body reads the i bound before the loop
	_, _, err = run(t, `
i = 0
while i < 3 {
	i = i + 1
}
`, WithMaxSteps(10000))
	assert.ErrorIs(t, err, ErrStepLimit)
}

func TestNestedBlocksUseStackSlots(t *testing.T) {
	vm, out, err := run(t, `
if true {
	y = 5
}
for i in 0..2 {
	z = i
	c = 0
	c += 1
	println(c)
}
println(y)
println(z)
`)
	require.NoError(t, err)
	assert.Equal(t, "1\n1\n5\n1\n", out)

	_, ok := vm.Global("y")
	assert.False(t, ok)

	_, ok = vm.Global("z")
	assert.False(t, ok)
}

func TestWhileChecksFirst(t *testing.T) {
	assert.Equal(t, "", output(t, `
i = 5
while i < 3 {
	println(i)
}
`))
}

func TestWhileConditionCount(t *testing.T) {
	assert.Equal(t, "3\n", output(t, `
n = 0
fn c(): bool {
	n += 1
	return n < 3
}
while c() {
}
println(n)
`))
}

func TestNegativeRange(t *testing.T) {
	assert.Equal(t, "0\n1\n", output(t, `
for i in -2..2 {
	println(i)
}
`))
}

func TestImport(t *testing.T) {
	ctx := context.Background()

	fs := fstest.MapFS{
		"lib.jm": {Data: []byte("fn twice(x: number): number {\n\treturn x * 2\n}\nk = 21\n")},
	}

	b := front.New()
	b.ReadFile = fs.ReadFile

	p, err := b.Parse(ctx, "main.jm", []byte("import \"lib.jm\"\nprintln(twice(k))\n"))
	require.NoError(t, err)

	var out bytes.Buffer
	reg := linkage.NewRegistry(&out)

	m, err := lower.Program(ctx, p, reg)
	require.NoError(t, err)

	_, err = New(m, reg).Call(ctx, lower.EntryName("main.jm"))
	require.NoError(t, err)

	assert.Equal(t, "42\n", out.String())
}

func TestLimits(t *testing.T) {
	_, _, err := run(t, "while true { }", WithMaxSteps(1000))
	assert.ErrorIs(t, err, ErrStepLimit)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = runCtx(ctx, t, "while true { }")
	assert.ErrorIs(t, err, context.Canceled)

	_, _, err = run(t, "fn f(): number {\n\treturn f()\n}\nf()")
	assert.Error(t, err)
}

func TestUnknownFunction(t *testing.T) {
	vm, _, err := run(t, "x = 1")
	require.NoError(t, err)

	_, err = vm.Call(context.Background(), "nope")
	assert.Error(t, err)
}
