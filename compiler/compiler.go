package compiler

import (
	"context"
	"io"
	"os"

	"github.com/llir/llvm/ir"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/Jamalam360/jamalang/compiler/ast"
	"github.com/Jamalam360/jamalang/compiler/front"
	"github.com/Jamalam360/jamalang/compiler/linkage"
	"github.com/Jamalam360/jamalang/compiler/lower"
	"github.com/Jamalam360/jamalang/compiler/vm"
)

type (
	Options struct {
		// Registry holds builtins. Defaults to a new one printing to Output.
		Registry *linkage.Registry

		// Output is where builtins print. Defaults to os.Stdout.
		Output io.Writer

		// ReadFile reads sources and imports. Defaults to os.ReadFile.
		ReadFile func(name string) ([]byte, error)

		// MaxSteps limits Run. Zero means no limit.
		MaxSteps int
	}
)

func (o *Options) registry() *linkage.Registry {
	if o != nil && o.Registry != nil {
		return o.Registry
	}

	var w io.Writer = os.Stdout

	if o != nil && o.Output != nil {
		w = o.Output
	}

	r := linkage.NewRegistry(w)

	if o != nil {
		o.Registry = r
	}

	return r
}

func (o *Options) builder() *front.Builder {
	b := front.New()

	if o != nil && o.ReadFile != nil {
		b.ReadFile = o.ReadFile
	}

	return b
}

func ParseFile(ctx context.Context, name string, o *Options) (*ast.Program, error) {
	return o.builder().ParseFile(ctx, name)
}

func Parse(ctx context.Context, name string, text []byte, o *Options) (*ast.Program, error) {
	return o.builder().Parse(ctx, name, text)
}

func CompileFile(ctx context.Context, name string, o *Options) (*ir.Module, error) {
	b := o.builder()

	text, err := b.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text, o)
}

func Compile(ctx context.Context, name string, text []byte, o *Options) (m *ir.Module, err error) {
	p, err := o.builder().Parse(ctx, name, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	m, err = lower.Program(ctx, p, o.registry())
	if err != nil {
		return nil, errors.Wrap(err, "lower")
	}

	return m, nil
}

func RunFile(ctx context.Context, name string, o *Options) error {
	text, err := o.builder().ReadFile(name)
	if err != nil {
		return errors.Wrap(err, "read file")
	}

	return Run(ctx, name, text, o)
}

// Run compiles the program and executes its entry function.
func Run(ctx context.Context, name string, text []byte, o *Options) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compiler: run", "name", name)
	defer tr.Finish("err", &err)

	reg := o.registry()

	m, err := Compile(ctx, name, text, o)
	if err != nil {
		return err
	}

	var opts []vm.Option

	if o != nil && o.MaxSteps != 0 {
		opts = append(opts, vm.WithMaxSteps(o.MaxSteps))
	}

	_, err = vm.New(m, reg, opts...).Call(ctx, lower.EntryName(name))
	if err != nil {
		return errors.Wrap(err, "run")
	}

	return nil
}
