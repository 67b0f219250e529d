package linkage

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"

	"github.com/llir/llvm/ir"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/Jamalam360/jamalang/compiler/tp"
)

type (
	// Builtin is a native function callable from programs.
	// Name is how programs see it, Symbol is the native symbol it maps to.
	Builtin struct {
		Name   string
		Symbol string

		Params []tp.Type
		Ret    tp.Type

		Impl func(w io.Writer, args []any) (any, error) `tlog:"-"`
	}

	// Registry holds builtins. It's safe for concurrent use.
	Registry struct {
		mu sync.RWMutex

		out      io.Writer
		builtins map[string]*Builtin
	}
)

// Builtins are registered into every new Registry.
var Builtins = []Builtin{{
	Name:   "println_n",
	Symbol: "builtin_println_number",
	Params: []tp.Type{tp.Number{}},
	Ret:    tp.Void{},
	Impl: func(w io.Writer, args []any) (any, error) {
		_, err := fmt.Fprintf(w, "%s\n", FormatNumber(args[0].(float32)))
		return nil, err
	},
}, {
	Name:   "println_c",
	Symbol: "builtin_println_char",
	Params: []tp.Type{tp.Char{}},
	Ret:    tp.Void{},
	Impl: func(w io.Writer, args []any) (any, error) {
		_, err := w.Write([]byte{args[0].(byte), '\n'})
		return nil, err
	},
}, {
	Name:   "println_b",
	Symbol: "builtin_println_bool",
	Params: []tp.Type{tp.Bool{}},
	Ret:    tp.Void{},
	Impl: func(w io.Writer, args []any) (any, error) {
		_, err := fmt.Fprintf(w, "%v\n", args[0].(bool))
		return nil, err
	},
}}

func NewRegistry(w io.Writer) *Registry {
	r := &Registry{
		out:      w,
		builtins: make(map[string]*Builtin),
	}

	for _, b := range Builtins {
		err := r.Register(b)
		if err != nil {
			panic(err)
		}
	}

	return r
}

// Register adds b. Registering the same builtin twice is a no-op.
func (r *Registry) Register(b Builtin) error {
	if b.Name == "" || b.Impl == nil {
		return errors.New("builtin %q: name and impl required", b.Name)
	}

	if b.Ret == nil {
		b.Ret = tp.Void{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.builtins[b.Name]; ok {
		if old.Symbol != b.Symbol || old.Ret != b.Ret || !slices.Equal(old.Params, b.Params) {
			return errors.New("builtin %v: conflicts with registered %v", b.Name, old.Symbol)
		}

		return nil
	}

	tlog.V("linkage,register").Printw("register builtin", "name", b.Name, "symbol", b.Symbol, "from", loc.Callers(1, 2))

	r.builtins[b.Name] = &b

	return nil
}

func (r *Registry) Lookup(name string) (*Builtin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.builtins[name]

	return b, ok
}

// Names returns registered names sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l := maps.Keys(r.builtins)
	slices.Sort(l)

	return l
}

// Writer is where builtins print.
func (r *Registry) Writer() io.Writer {
	return r.out
}

// Declare adds external declarations of all builtins to m.
// Functions m already has are left alone.
func (r *Registry) Declare(m *ir.Module) {
	have := make(map[string]bool, len(m.Funcs))
	for _, f := range m.Funcs {
		have[f.Name()] = true
	}

	for _, name := range r.Names() {
		if have[name] {
			continue
		}

		b, _ := r.Lookup(name)

		ps := make([]*ir.Param, len(b.Params))
		for i, p := range b.Params {
			ps[i] = ir.NewParam("", p.IR())
		}

		m.NewFunc(name, b.Ret.IR(), ps...)
	}
}

// Call runs the builtin with the registry writer.
func (r *Registry) Call(name string, args []any) (any, error) {
	b, ok := r.Lookup(name)
	if !ok {
		return nil, errors.New("no builtin %v", name)
	}

	if len(args) != len(b.Params) {
		return nil, errors.New("builtin %v: %d args, want %d", name, len(args), len(b.Params))
	}

	res, err := b.Impl(r.out, args)
	if err != nil {
		return nil, errors.Wrap(err, "builtin %v", name)
	}

	return res, nil
}

// FormatNumber formats f the way println_n does.
func FormatNumber(f float32) string {
	switch {
	case math.IsNaN(float64(f)):
		return "NaN"
	case math.IsInf(float64(f), 1):
		return "inf"
	case math.IsInf(float64(f), -1):
		return "-inf"
	}

	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}
