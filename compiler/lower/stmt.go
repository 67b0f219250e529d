package lower

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"tlog.app/go/tlog"

	"github.com/Jamalam360/jamalang/compiler/ast"
	"github.com/Jamalam360/jamalang/compiler/scope"
	"github.com/Jamalam360/jamalang/compiler/tp"
)

// stmts lowers a statement sequence. top is set only directly in the
// program's entry sequence and the programs it imports, not in nested
// blocks or function bodies. Variables set at the top level are module globals.
func (s *state) stmts(list []ast.Stmt, top bool) {
	for _, x := range list {
		s.fn.open()
		s.stmt(x, top)
	}
}

func (s *state) stmt(x ast.Stmt, top bool) {
	switch x := x.(type) {
	case *ast.Comment:
	case *ast.ExprStmt:
		s.expr(x.Expr)
	case *ast.Assignment:
		s.assignment(x, top)
	case *ast.FunctionDefinition:
		s.function(x)
	case *ast.Return:
		s.ret(x)
	case *ast.IfStatement:
		s.ifStmt(x)
	case *ast.WhileLoop:
		s.whileLoop(x)
	case *ast.ForLoop:
		s.forLoop(x)
	case *ast.ForeignModule:
		s.foreign(x, top)
	default:
		panic(fmt.Sprintf("unsupported statement: %T", x))
	}
}

func (s *state) assignment(x *ast.Assignment, top bool) {
	if x.Index != nil {
		s.assignIndex(x)
		return
	}

	v := s.expr(x.Value)

	if x.Kind == ast.Set {
		s.set(x, x.Ident, v, top)
		return
	}

	b, ok := s.scope.Resolve(x.Ident)
	if !ok {
		s.fail(x, "assignment to undefined variable %v", x.Ident)
	}

	s.owned(x, x.Ident, b)

	if b.Type != (tp.Number{}) || v.t != (tp.Number{}) {
		s.fail(x, "compound assignment %v needs numbers, got %v and %v", x.Kind, b.Type, v.t)
	}

	cur := s.fn.cur
	old := cur.NewLoad(types.Float, b.Cell)

	var res value.Value

	switch x.Kind {
	case ast.AddSet:
		res = cur.NewFAdd(old, v.v)
	case ast.SubSet:
		res = cur.NewFSub(old, v.v)
	case ast.MulSet:
		res = cur.NewFMul(old, v.v)
	case ast.DivSet:
		res = cur.NewFDiv(old, v.v)
	case ast.PowSet:
		s.fail(x, "exponentiation is not implemented")
	default:
		panic(x.Kind)
	}

	cur.NewStore(res, b.Cell)
}

// set binds name to a fresh cell holding v. At the top level that is
// a module global, elsewhere a stack slot of the current function.
// Earlier cells of the name are left as they are.
func (s *state) set(n ast.Node, name string, v val, top bool) {
	if v.v == nil {
		s.fail(n, "cannot assign void to %v", name)
	}

	b := scope.Binding{
		Type: v.t,
	}

	if !top {
		b.Func = s.fn.f
	}

	switch {
	case top && isConst(v.v):
		b.Cell = s.m.NewGlobalDef(s.unique(name), v.v.(constant.Constant))
	case top:
		b.Cell = s.m.NewGlobalDef(s.unique(name), tp.Zero(v.t))
		s.fn.cur.NewStore(v.v, b.Cell)
	default:
		b.Cell = s.fn.alloca(name, v.t.IR())
		s.fn.cur.NewStore(v.v, b.Cell)
	}

	s.scope.Bind(name, b)
}

func (s *state) assignIndex(x *ast.Assignment) {
	if x.Kind != ast.Set {
		s.fail(x, "indexed assignment supports only =, got %v", x.Kind)
	}

	b, ok := s.scope.Resolve(x.Ident)
	if !ok {
		s.fail(x, "assignment to undefined variable %v", x.Ident)
	}

	s.owned(x, x.Ident, b)

	arr, ok := b.Type.(tp.Array)
	if !ok {
		s.fail(x, "cannot index %v of type %v", x.Ident, b.Type)
	}

	idx := s.index(x.Index)
	v := s.expr(x.Value)

	if v.t != arr.X {
		s.fail(x, "cannot store %v into %v", v.t, arr)
	}

	ptr := s.fn.cur.NewGetElementPtr(arr.IR(), b.Cell, constant.NewInt(types.I32, 0), idx)
	s.fn.cur.NewStore(v.v, ptr)
}

// owned checks a binding is usable from the current function.
func (s *state) owned(n ast.Node, name string, b scope.Binding) {
	if b.Func != nil && b.Func != s.fn.f {
		s.fail(n, "variable %v belongs to function %v", name, b.Func.Name())
	}
}

func (s *state) function(x *ast.FunctionDefinition) {
	ret, err := tp.FromHint(x.Return)
	if err != nil {
		s.fail(x, "function %v: %v", x.Ident, err)
	}

	ps := make([]*ir.Param, len(x.Params))
	pts := make([]tp.Type, len(x.Params))

	for i, p := range x.Params {
		pts[i], err = tp.FromHint(p.Type)
		if err != nil {
			s.fail(x, "function %v: param %v: %v", x.Ident, p.Name, err)
		}

		if pts[i] == (tp.Void{}) {
			s.fail(x, "function %v: param %v is void", x.Ident, p.Name)
		}

		ps[i] = ir.NewParam(p.Name, pts[i].IR())
	}

	if x.Lambda {
		s.tr.Printw("lambda function lowered as plain function", "name", x.Ident)
	}

	f := s.m.NewFunc(s.unique(x.Ident), ret.IR(), ps...)
	s.funcs[x.Ident] = f

	outer := s.fn
	defer func() {
		s.fn = outer
	}()

	s.fn = newFn(f, ret)

	s.scope.Push()
	depth := s.scope.Depth()

	for i, p := range x.Params {
		cell := s.fn.alloca(p.Name, pts[i].IR())
		s.fn.cur.NewStore(ps[i], cell)

		s.scope.Bind(p.Name, scope.Binding{
			Type: pts[i],
			Cell: cell,
			Func: f,
		})
	}

	s.stmts(x.Body, false)

	s.finish()

	if s.scope.Depth() != depth {
		panic(fmt.Sprintf("scope depth changed: %d -> %d", depth, s.scope.Depth()))
	}

	s.scope.Pop()
}

func (s *state) ret(x *ast.Return) {
	v := s.expr(x.Value)

	if v.t != s.fn.ret {
		s.fail(x, "function %v returns %v, got %v", s.fn.f.Name(), s.fn.ret, v.t)
	}

	if v.v == nil {
		s.fn.cur.NewRet(nil)
		return
	}

	s.fn.cur.NewRet(v.v)
}

func (s *state) cond(x ast.Expr) value.Value {
	v := s.expr(x)
	if v.t != (tp.Bool{}) {
		s.fail(x, "condition must be bool, got %v", v.t)
	}

	return v.v
}

func (s *state) ifStmt(x *ast.IfStatement) {
	fn := s.fn
	merge := fn.block("if.end")

	branch := func(c ast.Expr, body []ast.Stmt) {
		cv := s.cond(c)

		then := fn.block("if.then")
		els := fn.block("if.else")

		fn.cur.NewCondBr(cv, then, els)

		fn.cur = then
		s.stmts(body, false)

		if fn.cur.Term == nil {
			fn.cur.NewBr(merge)
		}

		fn.cur = els
	}

	branch(x.Cond, x.Body)

	for _, e := range x.ElseIfs {
		branch(e.Cond, e.Body)
	}

	s.stmts(x.Else, false)

	if fn.cur.Term == nil {
		fn.cur.NewBr(merge)
	}

	fn.cur = merge
}

// whileLoop evaluates the condition before entering and again
// at the end of every iteration.
func (s *state) whileLoop(x *ast.WhileLoop) {
	fn := s.fn

	cv := s.cond(x.Cond)

	loop := fn.block("while.body")
	done := fn.block("while.end")

	fn.cur.NewCondBr(cv, loop, done)

	fn.cur = loop
	s.stmts(x.Body, false)

	if fn.cur.Term == nil {
		cv = s.cond(x.Cond)
		fn.cur.NewCondBr(cv, loop, done)
	}

	fn.cur = done
}

func (s *state) forLoop(x *ast.ForLoop) {
	fn := s.fn

	v := s.expr(x.Iterable)

	arr, ok := v.t.(tp.Array)
	if !ok {
		s.fail(x, "cannot iterate over %v", v.t)
	}

	if x.Hint != nil {
		h, err := tp.FromHint(*x.Hint)
		if err != nil {
			s.fail(x, "loop variable %v: %v", x.Ident, err)
		}

		if h != arr.X {
			s.fail(x, "loop variable %v is %v, elements are %v", x.Ident, h, arr.X)
		}
	}

	arrCell := fn.alloca("for.array", arr.IR())
	fn.cur.NewStore(v.v, arrCell)

	idxCell := fn.alloca("for.index", types.I32)
	fn.cur.NewStore(constant.NewInt(types.I32, 0), idxCell)

	elem := scope.Binding{
		Type: arr.X,
		Cell: fn.alloca(x.Ident, arr.X.IR()),
		Func: fn.f,
	}

	cond := fn.block("for.cond")
	body := fn.block("for.body")
	done := fn.block("for.end")

	fn.cur.NewBr(cond)

	fn.cur = cond
	i := cond.NewLoad(types.I32, idxCell)
	c := cond.NewICmp(enum.IPredNE, i, constant.NewInt(types.I32, int64(arr.Len)))
	cond.NewCondBr(c, body, done)

	fn.cur = body
	ptr := body.NewGetElementPtr(arr.IR(), arrCell, constant.NewInt(types.I32, 0), i)
	e := body.NewLoad(arr.X.IR(), ptr)
	body.NewStore(e, elem.Cell)

	s.scope.Top().Bind(x.Ident, elem)

	s.stmts(x.Body, false)

	if fn.cur.Term == nil {
		j := fn.cur.NewLoad(types.I32, idxCell)
		j1 := fn.cur.NewAdd(j, constant.NewInt(types.I32, 1))
		fn.cur.NewStore(j1, idxCell)
		fn.cur.NewBr(cond)
	}

	fn.cur = done
}

// foreign lowers an imported program in place, in the importer's context.
func (s *state) foreign(x *ast.ForeignModule, top bool) {
	if x.Program == nil {
		s.fail(x, "import %v was not resolved", x.Path)
	}

	tlog.V("lower,import").Printw("lower import", "path", x.Path, "stmts", len(x.Program.Stmts))

	outer := s.prog
	defer func() {
		s.prog = outer
	}()

	s.prog = x.Program

	s.stmts(x.Program.Stmts, top)
}
