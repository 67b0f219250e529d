package front

import (
	"context"
	"fmt"
	"os"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/Jamalam360/jamalang/compiler/ast"
	"github.com/Jamalam360/jamalang/compiler/grammar"
)

type (
	// Builder turns source text into an ast.Program.
	// Imports are read and parsed eagerly.
	Builder struct {
		// ReadFile loads imported files. Paths are relative to the working directory.
		ReadFile func(name string) ([]byte, error)

		importing []string
	}

	SyntaxError struct {
		File     string
		Line     int
		Col      int
		Pos      int
		Expected []string
	}

	ImportCycleError struct {
		Path  string
		Chain []string
	}

	file struct {
		*Builder

		prog *ast.Program
		b    []byte
	}
)

func New() *Builder {
	return &Builder{
		ReadFile: os.ReadFile,
	}
}

func Parse(ctx context.Context, name string, text []byte) (*ast.Program, error) {
	return New().Parse(ctx, name, text)
}

func ParseFile(ctx context.Context, name string) (*ast.Program, error) {
	return New().ParseFile(ctx, name)
}

func (b *Builder) ParseFile(ctx context.Context, name string) (*ast.Program, error) {
	text, err := b.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	return b.Parse(ctx, name, text)
}

func (b *Builder) Parse(ctx context.Context, name string, text []byte) (p *ast.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "front: parse", "name", name, "size", len(text))
	defer tr.Finish("err", &err)

	for _, x := range b.importing {
		if x == name {
			return nil, &ImportCycleError{
				Path:  name,
				Chain: append([]string{}, b.importing...),
			}
		}
	}

	b.importing = append(b.importing, name)
	defer func() {
		b.importing = b.importing[:len(b.importing)-1]
	}()

	p = &ast.Program{
		Name:   name,
		Source: text,
	}

	root, err := grammar.Parse(ctx, text)
	if gerr, ok := err.(*grammar.Error); ok {
		line, col := p.Position(gerr.Pos)

		return nil, &SyntaxError{
			File:     name,
			Line:     line,
			Col:      col,
			Pos:      gerr.Pos,
			Expected: gerr.Expected,
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, "grammar")
	}

	f := &file{
		Builder: b,
		prog:    p,
		b:       text,
	}

	p.Stmts, err = f.stmts(ctx, root)
	if err != nil {
		return nil, err
	}

	tr.Printw("parsed", "stmts", len(p.Stmts))

	return p, nil
}

func (f *file) importFile(ctx context.Context, pair grammar.Pair) (*ast.ForeignModule, error) {
	path := strings.Trim(pair.Inner[0].Text(f.b), `"`)

	tlog.SpanFromContext(ctx).Printw("import", "path", path, "from", f.prog.Name)

	text, err := f.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "import %v", path)
	}

	p, err := f.Builder.Parse(ctx, path, text)
	if err != nil {
		return nil, errors.Wrap(err, "import %v", path)
	}

	return &ast.ForeignModule{
		Base:    base(pair),
		Path:    path,
		Program: p,
	}, nil
}

func (e *SyntaxError) Error() string {
	g := grammar.Error{Expected: e.Expected}

	return fmt.Sprintf("%v:%d:%d: %v", e.File, e.Line, e.Col, g.Error())
}

func (e *ImportCycleError) Error() string {
	return fmt.Sprintf("import cycle: %v -> %v", strings.Join(e.Chain, " -> "), e.Path)
}

func base(p grammar.Pair) ast.Base {
	return ast.Base{
		Pos: p.Pos,
		End: p.End,
	}
}
