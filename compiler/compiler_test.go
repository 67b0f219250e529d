package compiler

import (
	"bytes"
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jamalam360/jamalang/compiler/front"
	"github.com/Jamalam360/jamalang/compiler/lower"
	"github.com/Jamalam360/jamalang/compiler/vm"
)

func TestRun(t *testing.T) {
	var out bytes.Buffer

	err := Run(context.Background(), "hello.jm", []byte("println(1)\n"), &Options{Output: &out})
	require.NoError(t, err)

	assert.Equal(t, "1\n", out.String())
}

func TestRunFile(t *testing.T) {
	fs := fstest.MapFS{
		"main.jm": {Data: []byte("import \"util.jm\"\nfor i in 0..3 {\n\tprintln(sq(i))\n}\n")},
		"util.jm": {Data: []byte("fn sq(x: number): number {\n\treturn x * x\n}\n")},
	}

	var out bytes.Buffer

	err := RunFile(context.Background(), "main.jm", &Options{Output: &out, ReadFile: fs.ReadFile})
	require.NoError(t, err)

	assert.Equal(t, "0\n1\n4\n", out.String())
}

func TestCompileFile(t *testing.T) {
	fs := fstest.MapFS{
		"a.jm": {Data: []byte("x = 2\n")},
	}

	o := &Options{ReadFile: fs.ReadFile}

	m, err := CompileFile(context.Background(), "a.jm", o)
	require.NoError(t, err)
	require.NotNil(t, o.Registry, "registry is created once and kept")

	var entry bool
	for _, f := range m.Funcs {
		entry = entry || f.Name() == lower.EntryName("a.jm")
	}

	assert.True(t, entry)

	_, err = CompileFile(context.Background(), "b.jm", o)
	assert.Error(t, err)
}

func TestErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Compile(ctx, "bad.jm", []byte("x = = 1"), nil)
	var se *front.SyntaxError
	assert.ErrorAs(t, err, &se)

	_, err = Compile(ctx, "bad.jm", []byte("x = y"), nil)
	var le *lower.Error
	assert.ErrorAs(t, err, &le)

	err = Run(ctx, "loop.jm", []byte("while true { }"), &Options{MaxSteps: 100, Output: &bytes.Buffer{}})
	assert.ErrorIs(t, err, vm.ErrStepLimit)
}
