package linkage

import (
	"bytes"
	"context"
	"io"
	"math"
	"sync"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jamalam360/jamalang/compiler/tp"
)

func TestBuiltins(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(&buf)

	assert.Equal(t, []string{"println_b", "println_c", "println_n"}, r.Names())

	_, err := r.Call("println_n", []any{float32(1)})
	require.NoError(t, err)

	_, err = r.Call("println_n", []any{float32(2.8)})
	require.NoError(t, err)

	_, err = r.Call("println_c", []any{byte('x')})
	require.NoError(t, err)

	_, err = r.Call("println_b", []any{true})
	require.NoError(t, err)

	assert.Equal(t, "1\n2.8\nx\ntrue\n", buf.String())

	_, err = r.Call("println_s", nil)
	assert.Error(t, err)

	_, err = r.Call("println_n", nil)
	assert.Error(t, err)
}

func TestFormatNumber(t *testing.T) {
	for _, tc := range []struct {
		x   float32
		exp string
	}{
		{0, "0"},
		{-3, "-3"},
		{0.5, "0.5"},
		{1e10, "10000000000"},
		{float32(math.Inf(1)), "inf"},
		{float32(math.Inf(-1)), "-inf"},
		{float32(math.NaN()), "NaN"},
	} {
		assert.Equal(t, tc.exp, FormatNumber(tc.x), "%v", tc.x)
	}
}

func TestRegisterIdempotent(t *testing.T) {
	r := NewRegistry(io.Discard)

	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			assert.NoError(t, r.Register(Builtins[0]))
		}()
	}

	wg.Wait()

	b := Builtins[0]
	b.Symbol = "other"

	assert.Error(t, r.Register(b))
	assert.Len(t, r.Names(), 3)
}

func TestDeclare(t *testing.T) {
	r := NewRegistry(io.Discard)

	m := ir.NewModule()
	m.NewFunc("println_c", types.Void, ir.NewParam("c", types.I8))

	r.Declare(m)
	require.Len(t, m.Funcs, 3)

	f := m.Funcs[1]
	assert.Equal(t, "println_b", f.Name())
	assert.Len(t, f.Blocks, 0)
	assert.True(t, f.Sig.Params[0].Equal(tp.Bool{}.IR()))
}

func TestLink(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(io.Discard)

	m := ir.NewModule()
	r.Declare(m)

	err := Link(ctx, m)
	require.NoError(t, err)

	var pn, st *ir.Func

	for _, f := range m.Funcs {
		switch f.Name() {
		case "println_n":
			assert.Nil(t, pn, "println_n declared twice")
			pn = f
		case "stdlibTest":
			st = f
		}
	}

	require.NotNil(t, pn)
	require.NotNil(t, st)

	call := st.Blocks[0].Insts[0].(*ir.InstCall)
	assert.True(t, call.Callee == pn, "call is redirected to the module declaration")

	err = Link(ctx, m)
	assert.Error(t, err, "stdlibTest defined twice")
}

func TestSupportVersion(t *testing.T) {
	v, err := supportVersion(supportIR)
	require.NoError(t, err)
	assert.Equal(t, SupportVersion, v)

	_, err = supportVersion([]byte("; jamalang-support v2.0.1\n"))
	assert.Error(t, err)

	_, err = supportVersion([]byte("; jamalang-support 1.0\n"))
	assert.Error(t, err)

	_, err = parseSupport([]byte("source_filename = \"x\"\n"))
	assert.Error(t, err)
}
