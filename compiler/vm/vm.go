package vm

import (
	"context"

	"github.com/llir/llvm/ir"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/Jamalam360/jamalang/compiler/linkage"
)

type (
	// Machine executes a lowered module.
	// Functions without a body are resolved in the builtin registry.
	Machine struct {
		MaxSteps int
		MaxDepth int

		m   *ir.Module
		reg *linkage.Registry

		funcs   map[string]*ir.Func
		globals map[*ir.Global]*cell
		byName  map[string]*ir.Global

		steps int
		depth int
	}

	Option func(*Machine)
)

var ErrStepLimit = errors.New("step limit exceeded")

func WithMaxSteps(n int) Option {
	return func(vm *Machine) { vm.MaxSteps = n }
}

func New(m *ir.Module, reg *linkage.Registry, opts ...Option) *Machine {
	vm := &Machine{
		MaxDepth: 10000,

		m:   m,
		reg: reg,

		funcs:   make(map[string]*ir.Func, len(m.Funcs)),
		globals: make(map[*ir.Global]*cell, len(m.Globals)),
		byName:  make(map[string]*ir.Global, len(m.Globals)),
	}

	for _, f := range m.Funcs {
		vm.funcs[f.Name()] = f
	}

	for _, g := range m.Globals {
		vm.byName[g.Name()] = g
	}

	for _, o := range opts {
		o(vm)
	}

	return vm
}

// Call runs the named function to completion.
func (vm *Machine) Call(ctx context.Context, name string, args ...any) (res any, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "vm: call", "name", name, "args", len(args))
	defer func() {
		tr.Finish("steps", vm.steps, "err", &err)
	}()

	f, ok := vm.funcs[name]
	if !ok {
		return nil, errors.New("no function %v", name)
	}

	vm.steps = 0

	return vm.call(ctx, f, args)
}

// Global returns a copy of the current value of a module global.
func (vm *Machine) Global(name string) (any, bool) {
	g, ok := vm.byName[name]
	if !ok {
		return nil, false
	}

	c, err := vm.global(g)
	if err != nil {
		return nil, false
	}

	return copyValue(c.v), true
}

// SetGlobal replaces the value of a module global.
// The new value must have the same shape as the old one.
func (vm *Machine) SetGlobal(name string, v any) error {
	g, ok := vm.byName[name]
	if !ok {
		return errors.New("no global %v", name)
	}

	c, err := vm.global(g)
	if err != nil {
		return err
	}

	if !sameShape(c.v, v) {
		return errors.New("global %v: cannot set %T to %T", name, c.v, v)
	}

	c.v = copyValue(v)

	return nil
}

func (vm *Machine) global(g *ir.Global) (*cell, error) {
	if c, ok := vm.globals[g]; ok {
		return c, nil
	}

	if g.Init == nil {
		return nil, errors.New("global %v has no initializer", g.Name())
	}

	v, err := constValue(g.Init)
	if err != nil {
		return nil, errors.Wrap(err, "global %v", g.Name())
	}

	c := &cell{v: v}
	vm.globals[g] = c

	return c, nil
}

func sameShape(x, y any) bool {
	xa, ok := x.([]any)
	if !ok {
		switch x.(type) {
		case float32:
			_, ok = y.(float32)
		case bool:
			_, ok = y.(bool)
		case byte:
			_, ok = y.(byte)
		case int64:
			_, ok = y.(int64)
		}

		return ok
	}

	ya, ok := y.([]any)
	if !ok || len(xa) != len(ya) {
		return false
	}

	for i := range xa {
		if !sameShape(xa[i], ya[i]) {
			return false
		}
	}

	return true
}
