package vm

import (
	"math"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"tlog.app/go/errors"
)

// Values are represented by Go types:
//
//	float  float32
//	i1     bool
//	i8     byte
//	iN     int64
//	array  []any
//	ptr    Pointer
type (
	cell struct {
		v any
	}

	// Pointer addresses a cell or an element of an array stored in it.
	Pointer struct {
		c    *cell
		path []int
	}
)

func (p Pointer) load() (any, error) {
	if p.c == nil {
		return nil, errors.New("load from nil pointer")
	}

	v := p.c.v

	for _, i := range p.path {
		a, ok := v.([]any)
		if !ok {
			return nil, errors.New("index into %T", v)
		}

		if i < 0 || i >= len(a) {
			return nil, errors.New("index %d out of range [0:%d]", i, len(a))
		}

		v = a[i]
	}

	return copyValue(v), nil
}

func (p Pointer) store(x any) error {
	if p.c == nil {
		return errors.New("store to nil pointer")
	}

	if len(p.path) == 0 {
		p.c.v = copyValue(x)
		return nil
	}

	v := p.c.v

	for j, i := range p.path {
		a, ok := v.([]any)
		if !ok {
			return errors.New("index into %T", v)
		}

		if i < 0 || i >= len(a) {
			return errors.New("index %d out of range [0:%d]", i, len(a))
		}

		if j == len(p.path)-1 {
			a[i] = copyValue(x)
			return nil
		}

		v = a[i]
	}

	panic("unreachable")
}

func (p Pointer) elem(idx ...int) Pointer {
	path := make([]int, len(p.path), len(p.path)+len(idx))
	copy(path, p.path)

	return Pointer{c: p.c, path: append(path, idx...)}
}

func copyValue(v any) any {
	a, ok := v.([]any)
	if !ok {
		return v
	}

	r := make([]any, len(a))
	for i, x := range a {
		r[i] = copyValue(x)
	}

	return r
}

func zero(t types.Type) (any, error) {
	switch t := t.(type) {
	case *types.FloatType:
		if t.Kind != types.FloatKindFloat {
			return nil, errors.New("unsupported float type %v", t)
		}

		return float32(0), nil
	case *types.IntType:
		return fromInt(t, 0), nil
	case *types.ArrayType:
		a := make([]any, t.Len)

		for i := range a {
			x, err := zero(t.ElemType)
			if err != nil {
				return nil, err
			}

			a[i] = x
		}

		return a, nil
	case *types.PointerType:
		return Pointer{}, nil
	default:
		return nil, errors.New("unsupported type %v", t)
	}
}

func fromInt(t *types.IntType, x int64) any {
	switch t.BitSize {
	case 1:
		return x&1 != 0
	case 8:
		return byte(x)
	case 16:
		return int64(int16(x))
	case 32:
		return int64(int32(x))
	default:
		return x
	}
}

func toInt(v any) (int64, error) {
	switch v := v.(type) {
	case bool:
		if v {
			return 1, nil
		}

		return 0, nil
	case byte:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, errors.New("not an integer: %T", v)
	}
}

func constValue(c constant.Constant) (any, error) {
	switch c := c.(type) {
	case *constant.Float:
		if !c.Typ.Equal(types.Float) {
			return nil, errors.New("unsupported float constant %v", c.Typ)
		}

		if c.NaN {
			return float32(math.NaN()), nil
		}

		f, _ := c.X.Float32()

		return f, nil
	case *constant.Int:
		return fromInt(c.Typ, c.X.Int64()), nil
	case *constant.Array:
		a := make([]any, len(c.Elems))

		for i, e := range c.Elems {
			x, err := constValue(e)
			if err != nil {
				return nil, err
			}

			a[i] = x
		}

		return a, nil
	case *constant.CharArray:
		a := make([]any, len(c.X))
		for i, x := range c.X {
			a[i] = x
		}

		return a, nil
	case *constant.ZeroInitializer:
		return zero(c.Typ)
	case *constant.Undef:
		return zero(c.Typ)
	case *constant.Null:
		return Pointer{}, nil
	default:
		return nil, errors.New("unsupported constant %T", c)
	}
}
