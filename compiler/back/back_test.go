package back

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jamalam360/jamalang/compiler/front"
	"github.com/Jamalam360/jamalang/compiler/linkage"
	"github.com/Jamalam360/jamalang/compiler/lower"
)

func module(t *testing.T) *ir.Module {
	t.Helper()

	ctx := context.Background()

	p, err := front.Parse(ctx, "prog.jm", []byte("x = [1, 2]\nfor i in x {\n\tprintln(i)\n}\n"))
	require.NoError(t, err)

	m, err := lower.Program(ctx, p, linkage.NewRegistry(io.Discard))
	require.NoError(t, err)

	return m
}

func TestParseTarget(t *testing.T) {
	for in, exp := range map[string]Target{
		"ir":      TargetIR,
		"IR":      TargetIR,
		"ll":      TargetIR,
		"bitcode": TargetBitcode,
		"binary":  TargetBitcode,
	} {
		x, err := ParseTarget(in)
		require.NoError(t, err, in)
		assert.Equal(t, exp, x, in)
	}

	_, err := ParseTarget("wasm")
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "a/prog.ll", OutputPath("a/prog.jm", TargetIR))
	assert.Equal(t, "prog.bc", OutputPath("prog", TargetBitcode))
	assert.Equal(t, "x.y.bc", OutputPath("x.y.z", TargetBitcode))
}

func TestWriteTextParsesBack(t *testing.T) {
	m := module(t)

	var buf bytes.Buffer

	err := WriteText(&buf, m)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "prog.jm_entry")
	assert.Contains(t, buf.String(), "stdlibTest")

	m2, err := asm.ParseBytes("prog.ll", buf.Bytes())
	require.NoError(t, err)
	assert.Len(t, m2.Funcs, len(m.Funcs))
}

func TestWriteTextFile(t *testing.T) {
	m := module(t)
	dir := t.TempDir()

	path, err := Emit(context.Background(), TargetIR, filepath.Join(dir, "prog.jm"), m)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "prog.ll"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, m.String(), string(b))
}

func TestWriteBitcodeFile(t *testing.T) {
	if _, err := exec.LookPath(LLVMAs); err != nil {
		t.Skipf("no %v in PATH", LLVMAs)
	}

	m := module(t)
	dir := t.TempDir()

	path, err := WriteBitcodeFile(context.Background(), filepath.Join(dir, "prog.jm"), m)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("BC")), "bitcode magic")
}
