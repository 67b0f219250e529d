package tp

import (
	"testing"

	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jamalam360/jamalang/compiler/ast"
)

func TestSize(t *testing.T) {
	assert.Equal(t, 4, Number{}.Size())
	assert.Equal(t, 12, Array{X: Number{}, Len: 3}.Size())
	assert.Equal(t, 6, Array{X: Array{X: Char{}, Len: 2}, Len: 3}.Size())
}

func TestIRRoundTrip(t *testing.T) {
	for _, x := range []Type{
		Void{}, Number{}, Bool{}, Char{},
		Array{X: Number{}, Len: 4},
		Array{X: Array{X: Bool{}, Len: 2}, Len: 1},
	} {
		y, err := FromIR(x.IR())
		require.NoError(t, err, "%v", x)
		assert.True(t, x == y, "%v != %v", x, y)
	}

	_, err := FromIR(types.I64)
	assert.Error(t, err)
}

func TestHints(t *testing.T) {
	x, err := FromHint(ast.HintNamed("number"))
	require.NoError(t, err)
	assert.Equal(t, Number{}, x)

	_, err = FromHint(ast.TypeHint{Kind: ast.HintArray, Len: 2, Elem: &ast.TypeHint{Kind: ast.HintNumber}})
	assert.Error(t, err)

	_, err = FromHint(ast.HintNamed("Point"))
	assert.Error(t, err)
}

func TestTag(t *testing.T) {
	for x, exp := range map[Type]byte{Number{}: 'n', Bool{}: 'b', Char{}: 'c'} {
		tag, ok := Tag(x)
		assert.True(t, ok)
		assert.Equal(t, exp, tag)
	}

	_, ok := Tag(Array{X: Number{}, Len: 1})
	assert.False(t, ok)
}
