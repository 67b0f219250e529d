package tp

import (
	"fmt"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"tlog.app/go/errors"

	"github.com/Jamalam360/jamalang/compiler/ast"
)

type (
	// Type is a value type of the language. Types are comparable with ==.
	Type interface {
		Size() int
		IR() types.Type
		String() string
	}

	Void struct{}

	Number struct{}

	Bool struct{}

	Char struct{}

	Array struct {
		X   Type
		Len int
	}
)

func (Void) Size() int   { return 0 }
func (Number) Size() int { return 4 }
func (Bool) Size() int   { return 1 }
func (Char) Size() int   { return 1 }

func (x Array) Size() int {
	return x.X.Size() * x.Len
}

func (Void) IR() types.Type   { return types.Void }
func (Number) IR() types.Type { return types.Float }
func (Bool) IR() types.Type   { return types.I1 }
func (Char) IR() types.Type   { return types.I8 }

func (x Array) IR() types.Type {
	return types.NewArray(uint64(x.Len), x.X.IR())
}

func (Void) String() string   { return "void" }
func (Number) String() string { return "number" }
func (Bool) String() string   { return "bool" }
func (Char) String() string   { return "char" }

func (x Array) String() string {
	return fmt.Sprintf("[%v; %d]", x.X, x.Len)
}

// Tag is the mangling suffix of a scalar argument type.
func Tag(t Type) (byte, bool) {
	switch t.(type) {
	case Number:
		return 'n', true
	case Bool:
		return 'b', true
	case Char:
		return 'c', true
	default:
		return 0, false
	}
}

// FromHint resolves a surface type hint.
// Array and custom hints have no machine type yet.
func FromHint(h ast.TypeHint) (Type, error) {
	switch h.Kind {
	case ast.HintVoid:
		return Void{}, nil
	case ast.HintNumber:
		return Number{}, nil
	case ast.HintBool:
		return Bool{}, nil
	case ast.HintChar:
		return Char{}, nil
	default:
		return nil, errors.New("type hint %v is not supported", h)
	}
}

func FromIR(t types.Type) (Type, error) {
	switch {
	case t.Equal(types.Void):
		return Void{}, nil
	case t.Equal(types.Float):
		return Number{}, nil
	case t.Equal(types.I1):
		return Bool{}, nil
	case t.Equal(types.I8):
		return Char{}, nil
	}

	if a, ok := t.(*types.ArrayType); ok {
		x, err := FromIR(a.ElemType)
		if err != nil {
			return nil, errors.Wrap(err, "array elem")
		}

		return Array{X: x, Len: int(a.Len)}, nil
	}

	return nil, errors.New("unsupported ir type: %v", t)
}

// Zero is the zero value constant of t.
func Zero(t Type) constant.Constant {
	switch t := t.(type) {
	case Number:
		return constant.NewFloat(types.Float, 0)
	case Bool:
		return constant.False
	case Char:
		return constant.NewInt(types.I8, 0)
	case Array:
		return constant.NewZeroInitializer(t.IR())
	default:
		panic(t)
	}
}
