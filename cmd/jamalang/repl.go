package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/Jamalam360/jamalang/compiler"
	"github.com/Jamalam360/jamalang/compiler/back"
	"github.com/Jamalam360/jamalang/compiler/front"
)

const (
	replName    = "repl.jm"
	historyFile = ".jamalang_history"

	promptMain = "> "
	promptCont = ". "
)

// session accumulates accepted statements.
// Every input reruns the whole program and prints only the new output.
type session struct {
	src    []byte
	outLen int
}

func replAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	ln := liner.NewLiner()
	defer ln.Close()

	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	hist := filepath.Join(home, historyFile)

	if f, err := os.Open(hist); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	defer func() {
		if f, err := os.Create(hist); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	var s session

	for {
		code, ok := readInput(ctx, ln, s.src)
		if !ok {
			fmt.Println()
			return nil
		}

		switch strings.TrimSpace(code) {
		case "":
			continue
		case ":quit", ":q":
			return nil
		case ":src":
			fmt.Printf("%s", s.src)
			continue
		case ":ir":
			s.printIR(ctx)
			continue
		case ":reset":
			s = session{}
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		err := s.eval(ctx, code, os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

// readInput reads lines until they parse or fail before the end of input.
func readInput(ctx context.Context, ln *liner.State, prev []byte) (string, bool) {
	var b strings.Builder

	for {
		prompt := promptMain
		if b.Len() != 0 {
			prompt = promptCont
		}

		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() != 0 {
			b.WriteByte('\n')
		}

		b.WriteString(line)

		code := b.String()

		if strings.HasPrefix(strings.TrimSpace(code), ":") {
			return code, true
		}

		text := append(append([]byte{}, prev...), code...)

		_, err = front.Parse(ctx, replName, text)

		var se *front.SyntaxError
		if errors.As(err, &se) && se.Pos >= len(text) {
			continue
		}

		return code, true
	}
}

func (s *session) eval(ctx context.Context, code string, w io.Writer) error {
	src := append(append([]byte{}, s.src...), code...)
	src = append(src, '\n')

	var out bytes.Buffer

	err := compiler.Run(ctx, replName, src, &compiler.Options{Output: &out, MaxSteps: 10_000_000})

	if out.Len() > s.outLen {
		_, _ = w.Write(out.Bytes()[s.outLen:])
	}

	if err != nil {
		return err
	}

	s.src = src
	s.outLen = out.Len()

	return nil
}

func (s *session) printIR(ctx context.Context) {
	m, err := compiler.Compile(ctx, replName, s.src, &compiler.Options{Output: io.Discard})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}

	_ = back.WriteText(os.Stdout, m)
}
