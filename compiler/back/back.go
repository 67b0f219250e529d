package back

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/llir/llvm/ir"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type Target string

const (
	TargetIR      Target = "ir"
	TargetBitcode Target = "bitcode"
)

// LLVMAs is the assembler used for bitcode output. Looked up in PATH.
var LLVMAs = "llvm-as"

func ParseTarget(s string) (Target, error) {
	switch t := Target(strings.ToLower(s)); t {
	case TargetIR, TargetBitcode:
		return t, nil
	case "ll", "text":
		return TargetIR, nil
	case "bc", "binary":
		return TargetBitcode, nil
	default:
		return "", errors.New("unknown target %q (ir or bitcode)", s)
	}
}

func (t Target) Ext() string {
	if t == TargetBitcode {
		return ".bc"
	}

	return ".ll"
}

// OutputPath replaces the extension of input with the target one.
func OutputPath(input string, t Target) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + t.Ext()
}

// Emit writes m next to input and returns the output path.
func Emit(ctx context.Context, t Target, input string, m *ir.Module) (string, error) {
	path := OutputPath(input, t)

	err := WriteFile(ctx, t, path, m)
	if err != nil {
		return "", err
	}

	return path, nil
}

func WriteFile(ctx context.Context, t Target, path string, m *ir.Module) error {
	switch t {
	case TargetIR:
		return writeTextFile(ctx, path, m)
	case TargetBitcode:
		return writeBitcodeFile(ctx, path, m)
	default:
		return errors.New("unknown target %q", t)
	}
}

func WriteText(w io.Writer, m *ir.Module) error {
	_, err := io.WriteString(w, m.String())
	if err != nil {
		return errors.Wrap(err, "write ir")
	}

	return nil
}

// WriteTextFile writes m to <input>.ll.
func WriteTextFile(ctx context.Context, input string, m *ir.Module) (string, error) {
	return Emit(ctx, TargetIR, input, m)
}

// WriteBitcodeFile assembles m into <input>.bc with llvm-as.
func WriteBitcodeFile(ctx context.Context, input string, m *ir.Module) (string, error) {
	return Emit(ctx, TargetBitcode, input, m)
}

func writeTextFile(ctx context.Context, path string, m *ir.Module) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "back: write ir", "path", path)
	defer tr.Finish("err", &err)

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create")
	}

	defer func() {
		e := f.Close()
		if err == nil && e != nil {
			err = errors.Wrap(e, "close")
		}
	}()

	return WriteText(f, m)
}

func writeBitcodeFile(ctx context.Context, path string, m *ir.Module) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: write bitcode", "path", path)
	defer tr.Finish("err", &err)

	as, err := exec.LookPath(LLVMAs)
	if err != nil {
		return errors.Wrap(err, "bitcode output needs %v", LLVMAs)
	}

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, as, "-o", path, "-")
	cmd.Stdin = strings.NewReader(m.String())
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err != nil {
		return errors.Wrap(err, "%v: %s", LLVMAs, bytes.TrimSpace(stderr.Bytes()))
	}

	return nil
}
