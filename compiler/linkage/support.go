package linkage

import (
	"bytes"
	"context"
	_ "embed"
	"strings"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
	"golang.org/x/mod/semver"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

//go:generate sh -c "{ echo '; jamalang-support v1.0.0'; clang -S -emit-llvm -O1 -o - support/support.c; } > support/support.ll"

//go:embed support/support.ll
var supportIR []byte

// SupportVersion is the support library version the compiler was built for.
// Libraries of another major version are rejected.
const SupportVersion = "v1.0.0"

const versionPrefix = "; jamalang-support "

// Support parses a fresh copy of the support library.
func Support() (*ir.Module, error) {
	return parseSupport(supportIR)
}

func parseSupport(b []byte) (*ir.Module, error) {
	v, err := supportVersion(b)
	if err != nil {
		return nil, err
	}

	m, err := asm.ParseBytes("support.ll", b)
	if err != nil {
		return nil, errors.Wrap(err, "parse support library %v", v)
	}

	return m, nil
}

func supportVersion(b []byte) (string, error) {
	line, _, _ := bytes.Cut(b, []byte("\n"))

	v, ok := strings.CutPrefix(strings.TrimSpace(string(line)), versionPrefix)
	if !ok {
		return "", errors.New("support library: no version header")
	}

	if !semver.IsValid(v) {
		return "", errors.New("support library: bad version %q", v)
	}

	if semver.Major(v) != semver.Major(SupportVersion) {
		return "", errors.New("support library: version %v, want %v", v, semver.Major(SupportVersion))
	}

	return v, nil
}

// Link merges the support library into m.
func Link(ctx context.Context, m *ir.Module) error {
	lib, err := Support()
	if err != nil {
		return err
	}

	return merge(ctx, m, lib)
}

// merge moves definitions of lib into m.
// Declarations m already has are shared, calls in lib are redirected to them.
func merge(ctx context.Context, m, lib *ir.Module) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "linkage: merge", "funcs", len(lib.Funcs), "globals", len(lib.Globals))
	defer tr.Finish("err", &err)

	have := make(map[string]*ir.Func, len(m.Funcs))
	for _, f := range m.Funcs {
		have[f.Name()] = f
	}

	remap := make(map[*ir.Func]*ir.Func)

	for _, f := range lib.Funcs {
		old, ok := have[f.Name()]

		switch {
		case !ok:
			m.Funcs = append(m.Funcs, f)
			have[f.Name()] = f
		case !old.Sig.Equal(f.Sig):
			return errors.New("func %v: signature %v conflicts with %v", f.Name(), f.Sig, old.Sig)
		case len(f.Blocks) == 0:
			remap[f] = old
		default:
			return errors.New("func %v: already defined", f.Name())
		}
	}

	for _, g := range m.Globals {
		for _, lg := range lib.Globals {
			if g.Name() == lg.Name() {
				return errors.New("global %v: already defined", g.Name())
			}
		}
	}

	m.Globals = append(m.Globals, lib.Globals...)

	for _, f := range lib.Funcs {
		for _, b := range f.Blocks {
			for _, inst := range b.Insts {
				c, ok := inst.(*ir.InstCall)
				if !ok {
					continue
				}

				callee, ok := c.Callee.(*ir.Func)
				if !ok {
					continue
				}

				if to, ok := remap[callee]; ok {
					c.Callee = to
				}
			}
		}
	}

	if tlog.If("linkage,merge") {
		tr.Printw("merged", "shared", len(remap), "funcs", len(m.Funcs))
	}

	return nil
}
