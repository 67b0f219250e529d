package vm

import (
	"context"
	"math"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type frame struct {
	vm *Machine
	f  *ir.Func

	vals map[value.Value]any
}

func (vm *Machine) call(ctx context.Context, f *ir.Func, args []any) (res any, err error) {
	if len(args) != len(f.Params) && len(f.Blocks) != 0 {
		return nil, errors.New("%v: %d args, want %d", f.Name(), len(args), len(f.Params))
	}

	if len(f.Blocks) == 0 {
		if vm.reg == nil {
			return nil, errors.New("%v: external function", f.Name())
		}

		return vm.reg.Call(f.Name(), args)
	}

	if vm.depth >= vm.MaxDepth {
		return nil, errors.New("%v: call depth limit %d exceeded", f.Name(), vm.MaxDepth)
	}

	vm.depth++
	defer func() {
		vm.depth--
	}()

	fr := &frame{
		vm:   vm,
		f:    f,
		vals: make(map[value.Value]any),
	}

	for i, p := range f.Params {
		fr.vals[p] = args[i]
	}

	b := f.Blocks[0]

	for {
		for _, inst := range b.Insts {
			err = vm.step(ctx)
			if err != nil {
				return nil, err
			}

			err = fr.exec(ctx, inst)
			if err != nil {
				return nil, errors.Wrap(err, "%v: %v", f.Name(), b.Name())
			}
		}

		err = vm.step(ctx)
		if err != nil {
			return nil, err
		}

		next, res, done, err := fr.term(b.Term)
		if err != nil {
			return nil, errors.Wrap(err, "%v: %v", f.Name(), b.Name())
		}

		if done {
			return res, nil
		}

		if tlog.If("vm,branch") {
			tlog.Printw("branch", "func", f.Name(), "from", b.Name(), "to", next.Name())
		}

		b = next
	}
}

func (vm *Machine) step(ctx context.Context) error {
	vm.steps++

	if vm.MaxSteps != 0 && vm.steps > vm.MaxSteps {
		return ErrStepLimit
	}

	if vm.steps&1023 == 0 {
		return ctx.Err()
	}

	return nil
}

func (fr *frame) get(v value.Value) (any, error) {
	switch v := v.(type) {
	case *ir.Global:
		c, err := fr.vm.global(v)
		if err != nil {
			return nil, err
		}

		return Pointer{c: c}, nil
	case *ir.Func:
		return v, nil
	case constant.Constant:
		return constValue(v)
	}

	x, ok := fr.vals[v]
	if !ok {
		return nil, errors.New("value %v is not defined", v.Ident())
	}

	return x, nil
}

func (fr *frame) float(v value.Value) (float32, error) {
	x, err := fr.get(v)
	if err != nil {
		return 0, err
	}

	f, ok := x.(float32)
	if !ok {
		return 0, errors.New("%v: want float, got %T", v.Ident(), x)
	}

	return f, nil
}

func (fr *frame) int(v value.Value) (int64, error) {
	x, err := fr.get(v)
	if err != nil {
		return 0, err
	}

	return toInt(x)
}

func (fr *frame) pointer(v value.Value) (Pointer, error) {
	x, err := fr.get(v)
	if err != nil {
		return Pointer{}, err
	}

	p, ok := x.(Pointer)
	if !ok {
		return Pointer{}, errors.New("%v: want pointer, got %T", v.Ident(), x)
	}

	return p, nil
}

func (fr *frame) floats(x, y value.Value) (a, b float32, err error) {
	a, err = fr.float(x)
	if err != nil {
		return
	}

	b, err = fr.float(y)

	return
}

func (fr *frame) ints(x, y value.Value) (a, b int64, err error) {
	a, err = fr.int(x)
	if err != nil {
		return
	}

	b, err = fr.int(y)

	return
}

func (fr *frame) exec(ctx context.Context, inst ir.Instruction) (err error) {
	var res any

	switch inst := inst.(type) {
	case *ir.InstAlloca:
		v, err := zero(inst.ElemType)
		if err != nil {
			return err
		}

		res = Pointer{c: &cell{v: v}}
	case *ir.InstLoad:
		p, err := fr.pointer(inst.Src)
		if err != nil {
			return err
		}

		res, err = p.load()
		if err != nil {
			return err
		}
	case *ir.InstStore:
		p, err := fr.pointer(inst.Dst)
		if err != nil {
			return err
		}

		x, err := fr.get(inst.Src)
		if err != nil {
			return err
		}

		return p.store(x)
	case *ir.InstGetElementPtr:
		p, err := fr.pointer(inst.Src)
		if err != nil {
			return err
		}

		idx := make([]int, len(inst.Indices))

		for i, x := range inst.Indices {
			n, err := fr.int(x)
			if err != nil {
				return err
			}

			idx[i] = int(n)
		}

		if len(idx) == 0 || idx[0] != 0 {
			return errors.New("pointer arithmetic is not supported")
		}

		res = p.elem(idx[1:]...)
	case *ir.InstFAdd, *ir.InstFSub, *ir.InstFMul, *ir.InstFDiv, *ir.InstFRem:
		res, err = fr.farith(inst)
	case *ir.InstFNeg:
		x, err := fr.float(inst.X)
		if err != nil {
			return err
		}

		res = -x
	case *ir.InstFCmp:
		x, y, err := fr.floats(inst.X, inst.Y)
		if err != nil {
			return err
		}

		res, err = fcmp(inst.Pred, x, y)
		if err != nil {
			return err
		}
	case *ir.InstICmp:
		x, y, err := fr.ints(inst.X, inst.Y)
		if err != nil {
			return err
		}

		res, err = icmp(inst.Pred, x, y)
		if err != nil {
			return err
		}
	case *ir.InstAdd, *ir.InstSub, *ir.InstMul:
		res, err = fr.iarith(inst)
	case *ir.InstFPToUI:
		x, err := fr.float(inst.From)
		if err != nil {
			return err
		}

		if x != x || x < 0 {
			x = 0
		}

		res = fromInt(inst.To.(*types.IntType), int64(x))
	case *ir.InstFPToSI:
		x, err := fr.float(inst.From)
		if err != nil {
			return err
		}

		res = fromInt(inst.To.(*types.IntType), int64(x))
	case *ir.InstSIToFP:
		x, err := fr.int(inst.From)
		if err != nil {
			return err
		}

		res = float32(x)
	case *ir.InstUIToFP:
		x, err := fr.int(inst.From)
		if err != nil {
			return err
		}

		res = float32(uint64(x))
	case *ir.InstInsertValue:
		agg, err := fr.get(inst.X)
		if err != nil {
			return err
		}

		el, err := fr.get(inst.Elem)
		if err != nil {
			return err
		}

		c := &cell{v: copyValue(agg)}

		err = Pointer{c: c, path: toPath(inst.Indices)}.store(el)
		if err != nil {
			return err
		}

		res = c.v
	case *ir.InstExtractValue:
		agg, err := fr.get(inst.X)
		if err != nil {
			return err
		}

		res, err = Pointer{c: &cell{v: agg}, path: toPath(inst.Indices)}.load()
		if err != nil {
			return err
		}
	case *ir.InstCall:
		res, err = fr.call(ctx, inst)
	default:
		return errors.New("unsupported instruction: %v", inst.LLString())
	}

	if err != nil {
		return err
	}

	if v, ok := inst.(value.Value); ok && res != nil {
		fr.vals[v] = res
	}

	return nil
}

func (fr *frame) call(ctx context.Context, inst *ir.InstCall) (any, error) {
	x, err := fr.get(inst.Callee)
	if err != nil {
		return nil, err
	}

	f, ok := x.(*ir.Func)
	if !ok {
		return nil, errors.New("indirect calls are not supported")
	}

	// callees from another module are resolved by name
	if g, ok := fr.vm.funcs[f.Name()]; ok {
		f = g
	}

	args := make([]any, len(inst.Args))

	for i, a := range inst.Args {
		args[i], err = fr.get(a)
		if err != nil {
			return nil, err
		}
	}

	return fr.vm.call(ctx, f, args)
}

func (fr *frame) farith(inst ir.Instruction) (any, error) {
	var x, y value.Value

	switch inst := inst.(type) {
	case *ir.InstFAdd:
		x, y = inst.X, inst.Y
	case *ir.InstFSub:
		x, y = inst.X, inst.Y
	case *ir.InstFMul:
		x, y = inst.X, inst.Y
	case *ir.InstFDiv:
		x, y = inst.X, inst.Y
	case *ir.InstFRem:
		x, y = inst.X, inst.Y
	}

	a, b, err := fr.floats(x, y)
	if err != nil {
		return nil, err
	}

	switch inst.(type) {
	case *ir.InstFAdd:
		return a + b, nil
	case *ir.InstFSub:
		return a - b, nil
	case *ir.InstFMul:
		return a * b, nil
	case *ir.InstFDiv:
		return a / b, nil
	default:
		return float32(math.Mod(float64(a), float64(b))), nil
	}
}

func (fr *frame) iarith(inst ir.Instruction) (any, error) {
	var x, y value.Value

	switch inst := inst.(type) {
	case *ir.InstAdd:
		x, y = inst.X, inst.Y
	case *ir.InstSub:
		x, y = inst.X, inst.Y
	case *ir.InstMul:
		x, y = inst.X, inst.Y
	}

	a, b, err := fr.ints(x, y)
	if err != nil {
		return nil, err
	}

	t, ok := x.Type().(*types.IntType)
	if !ok {
		return nil, errors.New("integer op on %v", x.Type())
	}

	switch inst.(type) {
	case *ir.InstAdd:
		return fromInt(t, a+b), nil
	case *ir.InstSub:
		return fromInt(t, a-b), nil
	default:
		return fromInt(t, a*b), nil
	}
}

// term returns the next block or the function result.
func (fr *frame) term(t ir.Terminator) (next *ir.Block, res any, done bool, err error) {
	switch t := t.(type) {
	case *ir.TermRet:
		if t.X == nil {
			return nil, nil, true, nil
		}

		res, err = fr.get(t.X)

		return nil, res, true, err
	case *ir.TermBr:
		return blockOf(t.Target)
	case *ir.TermCondBr:
		x, err := fr.get(t.Cond)
		if err != nil {
			return nil, nil, false, err
		}

		c, ok := x.(bool)
		if !ok {
			return nil, nil, false, errors.New("branch on %T", x)
		}

		if c {
			return blockOf(t.TargetTrue)
		}

		return blockOf(t.TargetFalse)
	case *ir.TermUnreachable:
		return nil, nil, false, errors.New("unreachable executed")
	case nil:
		return nil, nil, false, errors.New("block without terminator")
	default:
		return nil, nil, false, errors.New("unsupported terminator: %v", t.LLString())
	}
}

func blockOf(v value.Value) (*ir.Block, any, bool, error) {
	b, ok := v.(*ir.Block)
	if !ok {
		return nil, nil, false, errors.New("branch to %v", v)
	}

	return b, nil, false, nil
}

func toPath(idx []uint64) []int {
	p := make([]int, len(idx))
	for i, x := range idx {
		p[i] = int(x)
	}

	return p
}

func fcmp(p enum.FPred, x, y float32) (bool, error) {
	uno := x != x || y != y

	switch p {
	case enum.FPredFalse:
		return false, nil
	case enum.FPredTrue:
		return true, nil
	case enum.FPredORD:
		return !uno, nil
	case enum.FPredUNO:
		return uno, nil
	case enum.FPredOEQ:
		return !uno && x == y, nil
	case enum.FPredOGT:
		return !uno && x > y, nil
	case enum.FPredOGE:
		return !uno && x >= y, nil
	case enum.FPredOLT:
		return !uno && x < y, nil
	case enum.FPredOLE:
		return !uno && x <= y, nil
	case enum.FPredONE:
		return !uno && x != y, nil
	case enum.FPredUEQ:
		return uno || x == y, nil
	case enum.FPredUGT:
		return uno || x > y, nil
	case enum.FPredUGE:
		return uno || x >= y, nil
	case enum.FPredULT:
		return uno || x < y, nil
	case enum.FPredULE:
		return uno || x <= y, nil
	case enum.FPredUNE:
		return uno || x != y, nil
	default:
		return false, errors.New("unsupported fcmp predicate %v", p)
	}
}

func icmp(p enum.IPred, x, y int64) (bool, error) {
	switch p {
	case enum.IPredEQ:
		return x == y, nil
	case enum.IPredNE:
		return x != y, nil
	case enum.IPredSGT:
		return x > y, nil
	case enum.IPredSGE:
		return x >= y, nil
	case enum.IPredSLT:
		return x < y, nil
	case enum.IPredSLE:
		return x <= y, nil
	case enum.IPredUGT:
		return uint64(x) > uint64(y), nil
	case enum.IPredUGE:
		return uint64(x) >= uint64(y), nil
	case enum.IPredULT:
		return uint64(x) < uint64(y), nil
	case enum.IPredULE:
		return uint64(x) <= uint64(y), nil
	default:
		return false, errors.New("unsupported icmp predicate %v", p)
	}
}
