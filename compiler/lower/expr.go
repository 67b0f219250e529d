package lower

import (
	"fmt"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/Jamalam360/jamalang/compiler/ast"
	"github.com/Jamalam360/jamalang/compiler/tp"
)

const maxRange = 1 << 20

var fpreds = map[ast.BinaryOperator]enum.FPred{
	ast.Lt:    enum.FPredULT,
	ast.Gt:    enum.FPredUGT,
	ast.Lte:   enum.FPredULE,
	ast.Gte:   enum.FPredUGE,
	ast.Eq:    enum.FPredUEQ,
	ast.NotEq: enum.FPredUNE,
}

func (s *state) expr(x ast.Expr) val {
	switch x := x.(type) {
	case *ast.Number:
		return val{v: constant.NewFloat(types.Float, float64(x.Value)), t: tp.Number{}}
	case *ast.Bool:
		return val{v: constant.NewBool(x.Value), t: tp.Bool{}}
	case *ast.Char:
		return val{v: constant.NewInt(types.I8, int64(x.Value)), t: tp.Char{}}
	case *ast.None:
		return val{t: tp.Void{}}
	case *ast.Ident:
		b, ok := s.scope.Resolve(x.Name)
		if !ok {
			s.fail(x, "unknown variable %v", x.Name)
		}

		s.owned(x, x.Name, b)

		return val{v: s.fn.cur.NewLoad(b.Type.IR(), b.Cell), t: b.Type}
	case *ast.Array:
		return s.array(x)
	case *ast.Index:
		return s.indexExpr(x)
	case *ast.UnaryMinus:
		v := s.expr(x.X)
		if v.t != (tp.Number{}) {
			s.fail(x, "cannot negate %v", v.t)
		}

		if f, ok := constFloat(v.v); ok {
			return val{v: constant.NewFloat(types.Float, float64(-f)), t: v.t}
		}

		return val{v: s.fn.cur.NewFNeg(v.v), t: v.t}
	case *ast.BinOp:
		return s.binOp(x)
	case *ast.Call:
		return s.call(x)
	default:
		panic(fmt.Sprintf("unsupported expression: %T", x))
	}
}

func (s *state) array(x *ast.Array) val {
	if len(x.Elems) == 0 {
		s.fail(x, "empty array literal")
	}

	vals := make([]val, len(x.Elems))
	for i, e := range x.Elems {
		vals[i] = s.expr(e)
	}

	et := vals[0].t

	switch et.(type) {
	case tp.Number, tp.Bool, tp.Char:
	default:
		s.fail(x, "arrays of %v are not supported", et)
	}

	allConst := true

	for i, v := range vals {
		if v.t != et {
			s.fail(x.Elems[i], "array elements have mixed types: %v and %v", et, v.t)
		}

		allConst = allConst && isConst(v.v)
	}

	t := tp.Array{X: et, Len: len(vals)}
	at := t.IR().(*types.ArrayType)

	if allConst {
		cs := make([]constant.Constant, len(vals))
		for i, v := range vals {
			cs[i] = v.v.(constant.Constant)
		}

		return val{v: constant.NewArray(at, cs...), t: t}
	}

	var acc value.Value = constant.NewZeroInitializer(at)

	for i, v := range vals {
		acc = s.fn.cur.NewInsertValue(acc, v.v, uint64(i))
	}

	return val{v: acc, t: t}
}

// index lowers an index expression to i32.
func (s *state) index(x ast.Expr) value.Value {
	v := s.expr(x)
	if v.t != (tp.Number{}) {
		s.fail(x, "index must be a number, got %v", v.t)
	}

	if f, ok := constFloat(v.v); ok {
		return constant.NewInt(types.I32, int64(toU32(f)))
	}

	return s.fn.cur.NewFPToUI(v.v, types.I32)
}

func (s *state) indexExpr(x *ast.Index) val {
	var cell value.Value
	var t tp.Type

	if id, ok := x.Array.(*ast.Ident); ok {
		b, ok := s.scope.Resolve(id.Name)
		if !ok {
			s.fail(id, "unknown variable %v", id.Name)
		}

		s.owned(id, id.Name, b)

		cell, t = b.Cell, b.Type
	} else {
		v := s.expr(x.Array)

		if _, ok := v.t.(tp.Array); ok {
			tmp := s.fn.alloca("index.tmp", v.t.IR())
			s.fn.cur.NewStore(v.v, tmp)

			cell = tmp
		}

		t = v.t
	}

	arr, ok := t.(tp.Array)
	if !ok {
		s.fail(x, "cannot index %v", t)
	}

	idx := s.index(x.Index)

	ptr := s.fn.cur.NewGetElementPtr(arr.IR(), cell, constant.NewInt(types.I32, 0), idx)

	return val{v: s.fn.cur.NewLoad(arr.X.IR(), ptr), t: arr.X}
}

func (s *state) binOp(x *ast.BinOp) val {
	l := s.expr(x.L)
	r := s.expr(x.R)

	if x.Op == ast.Range {
		return s.rangeExpr(x, l, r)
	}

	if x.Op == ast.Pow {
		s.fail(x, "exponentiation is not implemented")
	}

	if l.t != (tp.Number{}) || r.t != (tp.Number{}) {
		s.fail(x, "cannot apply %v to %v and %v", x.Op, l.t, r.t)
	}

	cur := s.fn.cur

	if p, ok := fpreds[x.Op]; ok {
		return val{v: cur.NewFCmp(p, l.v, r.v), t: tp.Bool{}}
	}

	var v value.Value

	switch x.Op {
	case ast.Add:
		v = cur.NewFAdd(l.v, r.v)
	case ast.Sub:
		v = cur.NewFSub(l.v, r.v)
	case ast.Mul:
		v = cur.NewFMul(l.v, r.v)
	case ast.Div:
		v = cur.NewFDiv(l.v, r.v)
	case ast.Mod:
		v = cur.NewFRem(l.v, r.v)
	default:
		panic(x.Op)
	}

	return val{v: v, t: tp.Number{}}
}

// rangeExpr builds the constant array start, start+1, ..., end-1.
func (s *state) rangeExpr(x *ast.BinOp, l, r val) val {
	lf, lok := constFloat(l.v)
	rf, rok := constFloat(r.v)

	if !lok || !rok {
		s.fail(x, "range bounds must be constant numbers")
	}

	// bounds are cast to u32 with saturation, so -2..2 is [0, 1]
	from, to := toU32(lf), toU32(rf)

	if to > from && to-from > maxRange {
		s.fail(x, "range %v..%v is too long", from, to)
	}

	var cs []constant.Constant

	for i := from; i < to; i++ {
		cs = append(cs, constant.NewFloat(types.Float, float64(i)))
	}

	t := tp.Array{X: tp.Number{}, Len: len(cs)}
	at := t.IR().(*types.ArrayType)

	if len(cs) == 0 {
		return val{v: constant.NewZeroInitializer(at), t: t}
	}

	return val{v: constant.NewArray(at, cs...), t: t}
}

func (s *state) call(x *ast.Call) val {
	args := make([]val, len(x.Args))
	for i, a := range x.Args {
		args[i] = s.expr(a)
	}

	f, ok := s.funcs[x.Ident]
	if !ok {
		tags := make([]byte, 0, len(args))

		for i, a := range args {
			tag, ok := tp.Tag(a.t)
			if !ok {
				s.fail(x.Args[i], "cannot pass %v to %v", a.t, x.Ident)
			}

			tags = append(tags, tag)
		}

		f, ok = s.funcs[x.Ident+"_"+string(tags)]
	}

	if !ok {
		s.fail(x, "unknown function %v", x.Ident)
	}

	if len(args) != len(f.Sig.Params) {
		s.fail(x, "function %v takes %d arguments, got %d", f.Name(), len(f.Sig.Params), len(args))
	}

	vs := make([]value.Value, len(args))

	for i, a := range args {
		if a.v == nil || !a.t.IR().Equal(f.Sig.Params[i]) {
			s.fail(x.Args[i], "argument %d of %v: want %v, got %v", i, f.Name(), f.Sig.Params[i], a.t)
		}

		vs[i] = a.v
	}

	if x.Lambda != nil {
		s.tr.Printw("call lambda ignored", "func", x.Ident, "stmts", len(x.Lambda))
	}

	rt, err := tp.FromIR(f.Sig.RetType)
	if err != nil {
		s.fail(x, "function %v: %v", f.Name(), err)
	}

	c := s.fn.cur.NewCall(f, vs...)

	if rt == (tp.Void{}) {
		return val{t: rt}
	}

	return val{v: c, t: rt}
}

// toU32 saturates: NaN and negatives give 0.
func toU32(f float32) uint32 {
	switch {
	case f != f || f <= 0:
		return 0
	case f >= 4294967295:
		return 4294967295
	default:
		return uint32(f)
	}
}
