package scope

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/Jamalam360/jamalang/compiler/tp"
)

type (
	// Binding is what a name currently refers to.
	Binding struct {
		Type tp.Type

		// Cell is the storage, *ir.Global or a stack slot.
		Cell value.Value

		// Func owns the stack slot. Nil for globals.
		Func *ir.Func
	}

	Frame struct {
		vars map[string]Binding

		from loc.PC
	}

	// Stack is the frame stack of one compilation.
	// Frames are pushed per function body, never per block.
	Stack struct {
		frames []*Frame
	}
)

func New() *Stack {
	s := &Stack{}

	s.frames = append(s.frames, newFrame(loc.Caller(1)))

	return s
}

func newFrame(from loc.PC) *Frame {
	return &Frame{
		vars: make(map[string]Binding),
		from: from,
	}
}

func (s *Stack) Push() {
	f := newFrame(loc.Caller(1))
	s.frames = append(s.frames, f)

	tlog.V("scope").Printw("push frame", "depth", len(s.frames), "from", loc.Callers(1, 3))
}

func (s *Stack) Pop() {
	if len(s.frames) == 1 {
		panic("pop of the root frame")
	}

	tlog.V("scope").Printw("pop frame", "depth", len(s.frames), "pushed_at", s.Top().from, "from", loc.Callers(1, 3))

	s.frames = s.frames[:len(s.frames)-1]
}

func (s *Stack) Depth() int { return len(s.frames) }

func (s *Stack) Top() *Frame { return s.frames[len(s.frames)-1] }

// Bind sets name in the innermost frame.
func (s *Stack) Bind(name string, b Binding) {
	tlog.V("scope,bind").Printw("bind", "name", name, "type", b.Type, "global", b.Func == nil, "depth", len(s.frames), "from", loc.Callers(1, 3))

	s.Top().Bind(name, b)
}

// Resolve looks name up from the innermost frame outwards.
func (s *Stack) Resolve(name string) (b Binding, ok bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		b, ok = s.frames[i].vars[name]
		if ok {
			return b, true
		}
	}

	if tlog.If("scope,resolve") {
		tlog.Printw("unresolved", "name", name, "depth", len(s.frames), "from", loc.Callers(1, 3))
	}

	return Binding{}, false
}

func (f *Frame) Bind(name string, b Binding) {
	f.vars[name] = b
}

func (f *Frame) Lookup(name string) (Binding, bool) {
	b, ok := f.vars[name]
	return b, ok
}
