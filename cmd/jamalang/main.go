package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/Jamalam360/jamalang/compiler"
	"github.com/Jamalam360/jamalang/compiler/back"
	"github.com/Jamalam360/jamalang/compiler/format"
)

func main() {
	astCmd := &cli.Command{
		Name:        "ast",
		Description: "print the syntax tree of source files",
		Action:      astAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("raw", false, "print go structures instead of formatted source"),
		},
	}

	runCmd := &cli.Command{
		Name:        "run",
		Description: "compile and execute source files",
		Action:      runAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("max-steps", 0, "stop execution after that many steps (0 for unlimited)"),
		},
	}

	compileCmd := &cli.Command{
		Name:        "compile",
		Description: "compile source files to llvm ir or bitcode",
		Action:      compileAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("target,t", "ir", "output format: ir or bitcode"),
			cli.NewFlag("output,o", "", "output file, - for stdout (ir only), next to the source by default"),
		},
	}

	replCmd := &cli.Command{
		Name:        "repl",
		Description: "interactive session",
		Action:      replAct,
	}

	app := &cli.Command{
		Name:        "jamalang",
		Description: "jamalang compiles jamalang source code",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("verbosity,v", "", "logger verbosity topics"),
			cli.NewFlag("time", false, "print time spent per file"),
			cli.HelpFlag,
			cli.FlagfileFlag,
		},
		Commands: []*cli.Command{
			astCmd,
			runCmd,
			compileCmd,
			replCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

// each runs f for every argument and collects failures.
func each(c *cli.Command, f func(ctx context.Context, name string) error) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	if len(c.Args) == 0 {
		return errors.New("no files")
	}

	for _, a := range c.Args {
		start := time.Now()

		e := f(ctx, a)
		if e != nil {
			err = multierr.Append(err, errors.Wrap(e, "%v", a))
		}

		if c.Bool("time") {
			fmt.Fprintf(os.Stderr, "%v: %v\n", a, time.Since(start))
		}
	}

	return err
}

func astAct(c *cli.Command) error {
	return each(c, func(ctx context.Context, name string) error {
		p, err := compiler.ParseFile(ctx, name, nil)
		if err != nil {
			return err
		}

		if c.Bool("raw") {
			fmt.Printf("%+v\n", p.Stmts)
			return nil
		}

		b, err := format.Format(ctx, nil, p)
		if err != nil {
			return errors.Wrap(err, "format")
		}

		_, err = os.Stdout.Write(b)

		return err
	})
}

func runAct(c *cli.Command) error {
	o := &compiler.Options{
		Output:   os.Stdout,
		MaxSteps: c.Int("max-steps"),
	}

	return each(c, func(ctx context.Context, name string) error {
		return compiler.RunFile(ctx, name, o)
	})
}

func compileAct(c *cli.Command) error {
	t, err := back.ParseTarget(c.String("target"))
	if err != nil {
		return err
	}

	out := c.String("output")

	if out != "" && len(c.Args) > 1 {
		return errors.New("--output needs exactly one source file")
	}

	if out == "-" && t != back.TargetIR {
		return errors.New("only ir can be written to stdout")
	}

	o := &compiler.Options{Output: os.Stdout}

	return each(c, func(ctx context.Context, name string) error {
		m, err := compiler.CompileFile(ctx, name, o)
		if err != nil {
			return err
		}

		switch out {
		case "-":
			return back.WriteText(os.Stdout, m)
		case "":
			path, err := back.Emit(ctx, t, name, m)
			if err != nil {
				return err
			}

			tlog.Printw("written", "path", path)

			return nil
		default:
			return back.WriteFile(ctx, t, out, m)
		}
	})
}
