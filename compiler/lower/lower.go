package lower

import (
	"context"
	"fmt"
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/Jamalam360/jamalang/compiler/ast"
	"github.com/Jamalam360/jamalang/compiler/linkage"
	"github.com/Jamalam360/jamalang/compiler/scope"
	"github.com/Jamalam360/jamalang/compiler/tp"
)

type (
	// Error is a fatal lowering fault. Lowering stops at the first one.
	Error struct {
		File string
		Line int
		Col  int
		Msg  string
	}

	state struct {
		tr tlog.Span

		m     *ir.Module
		scope *scope.Stack

		// funcs is the module namespace. Redefinition replaces the entry.
		funcs map[string]*ir.Func
		names map[string]int

		prog *ast.Program
		fn   *fnState
	}

	fnState struct {
		f   *ir.Func
		ret tp.Type

		entry *ir.Block // stack slots only
		body  *ir.Block
		cur   *ir.Block

		names map[string]int
	}

	val struct {
		v value.Value // nil for void
		t tp.Type
	}
)

const EntrySuffix = "_entry"

// EntryName is the name of the entry function of a program read from source.
func EntryName(source string) string {
	return source + EntrySuffix
}

// Program lowers p into a new module with builtins declared
// and the support library linked in.
func Program(ctx context.Context, p *ast.Program, reg *linkage.Registry) (m *ir.Module, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "lower: program", "name", p.Name, "stmts", len(p.Stmts))
	defer tr.Finish("err", &err)

	m = ir.NewModule()
	m.SourceFilename = p.Name

	reg.Declare(m)

	err = linkage.Link(ctx, m)
	if err != nil {
		return nil, errors.Wrap(err, "link support library")
	}

	s := &state{
		tr:    tr,
		m:     m,
		scope: scope.New(),
		funcs: make(map[string]*ir.Func),
		names: make(map[string]int),
		prog:  p,
	}

	for _, f := range m.Funcs {
		s.funcs[f.Name()] = f
		s.names[f.Name()] = 1
	}

	for _, g := range m.Globals {
		s.names[g.Name()] = 1
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}

		e, ok := r.(*Error)
		if !ok {
			panic(r)
		}

		m, err = nil, e
	}()

	s.program(p)

	return m, nil
}

func (s *state) program(p *ast.Program) {
	entry := s.m.NewFunc(s.unique(EntryName(p.Name)), types.Void)

	s.fn = newFn(entry, tp.Void{})
	depth := s.scope.Depth()

	s.stmts(p.Stmts, true)

	s.finish()

	if s.scope.Depth() != depth {
		panic(fmt.Sprintf("scope depth changed: %d -> %d", depth, s.scope.Depth()))
	}
}

func newFn(f *ir.Func, ret tp.Type) *fnState {
	fn := &fnState{
		f:     f,
		ret:   ret,
		names: make(map[string]int),
	}

	for _, p := range f.Params {
		fn.names[p.Name()] = 1
	}

	fn.entry = fn.block("entry")
	fn.body = fn.block("body")
	fn.cur = fn.body

	return fn
}

// finish terminates the current function and drops unreachable blocks.
func (s *state) finish() {
	fn := s.fn

	if fn.cur.Term == nil {
		if _, ok := fn.ret.(tp.Void); ok {
			fn.cur.NewRet(nil)
		} else {
			fn.cur.NewRet(tp.Zero(fn.ret))
		}
	}

	fn.entry.NewBr(fn.body)

	n := len(fn.f.Blocks)
	prune(fn.f)

	tlog.V("lower,func").Printw("function lowered", "name", fn.f.Name(), "blocks", len(fn.f.Blocks), "pruned", n-len(fn.f.Blocks))
}

func (fn *fnState) unique(name string) string {
	return uniqueName(fn.names, name)
}

func (s *state) unique(name string) string {
	return uniqueName(s.names, name)
}

func uniqueName(names map[string]int, name string) string {
	n := names[name]
	names[name] = n + 1

	if n == 0 {
		return name
	}

	for {
		x := name + "." + strconv.Itoa(n)
		if names[x] == 0 {
			names[x] = 1
			return x
		}

		n++
	}
}

func (fn *fnState) block(name string) *ir.Block {
	return fn.f.NewBlock(fn.unique(name))
}

// open makes sure the current block accepts instructions.
func (fn *fnState) open() {
	if fn.cur.Term != nil {
		fn.cur = fn.block("dead")
	}
}

func (fn *fnState) alloca(name string, t types.Type) *ir.InstAlloca {
	a := fn.entry.NewAlloca(t)
	a.SetName(fn.unique(name))

	return a
}

func (s *state) fail(n ast.Node, format string, args ...any) {
	e := &Error{
		File: s.prog.Name,
		Msg:  fmt.Sprintf(format, args...),
	}

	if n != nil {
		e.Line, e.Col = s.prog.Position(n.Span().Pos)
	}

	panic(e)
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v:%d:%d: %v", e.File, e.Line, e.Col, e.Msg)
}

func isConst(v value.Value) bool {
	switch v.(type) {
	case *constant.Float, *constant.Int, *constant.Array, *constant.ZeroInitializer:
		return true
	default:
		return false
	}
}

func constFloat(v value.Value) (float32, bool) {
	c, ok := v.(*constant.Float)
	if !ok {
		return 0, false
	}

	f, _ := c.X.Float32()

	return f, true
}
