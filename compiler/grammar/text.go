package grammar

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"
)

type (
	Const []byte

	// Keyword is a Const not followed by an identifier character.
	Keyword []byte

	Ident struct{}

	Number struct{}

	Int struct{}

	CharLit struct{}

	Quoted struct{}

	// Until consumes everything up to the byte or the end of input.
	Until byte
)

var keywords = map[string]struct{}{
	"fn":     {},
	"lambda": {},
	"return": {},
	"while":  {},
	"for":    {},
	"in":     {},
	"if":     {},
	"elif":   {},
	"else":   {},
	"import": {},
	"true":   {},
	"false":  {},
	"none":   {},
}

func (p Const) Parse(ctx context.Context, b []byte, st int) (ps []Pair, i int, err error) {
	if bytes.HasPrefix(b[st:], p) {
		return nil, st + len(p), nil
	}

	return nil, st, fail(ctx, st, fmt.Sprintf("%q", []byte(p)))
}

func (p Keyword) Parse(ctx context.Context, b []byte, st int) (ps []Pair, i int, err error) {
	i = st + len(p)

	if !bytes.HasPrefix(b[st:], p) || i < len(b) && isIdentChar(b[i]) {
		return nil, st, fail(ctx, st, fmt.Sprintf("%q", []byte(p)))
	}

	return nil, i, nil
}

func (p Ident) Parse(ctx context.Context, b []byte, st int) (ps []Pair, i int, err error) {
	i = st

	if i == len(b) || !isIdentStart(b[i]) {
		return nil, st, fail(ctx, st, "identifier")
	}

	i++

loop:
	for i < len(b) {
		c := b[i]

		switch {
		case isIdentChar(c):
			i++
		case c >= utf8.RuneSelf:
			r, w := utf8.DecodeRune(b[i:])
			if r == utf8.RuneError {
				return nil, st, fail(ctx, i, "utf-8 character")
			}

			i += w
		default:
			break loop
		}
	}

	if _, ok := keywords[string(b[st:i])]; ok {
		return nil, st, fail(ctx, st, "identifier")
	}

	return nil, i, nil
}

func (p Number) Parse(ctx context.Context, b []byte, st int) (ps []Pair, i int, err error) {
	i = digits(b, st)
	if i == st {
		return nil, st, fail(ctx, st, "number")
	}

	if i+1 < len(b) && b[i] == '.' {
		if j := digits(b, i+1); j != i+1 {
			i = j
		}
	}

	return nil, i, nil
}

func (p Int) Parse(ctx context.Context, b []byte, st int) (ps []Pair, i int, err error) {
	i = digits(b, st)
	if i == st {
		return nil, st, fail(ctx, st, "integer")
	}

	return nil, i, nil
}

func (p CharLit) Parse(ctx context.Context, b []byte, st int) (ps []Pair, i int, err error) {
	i = st

	if i == len(b) || b[i] != '\'' {
		return nil, st, fail(ctx, st, "char")
	}

	i++

	switch {
	case i+1 < len(b) && b[i] == '\\':
		switch b[i+1] {
		case 'n', 't', 'r', '0', '\\', '\'':
		default:
			return nil, st, fail(ctx, i, "escape sequence")
		}

		i += 2
	case i < len(b) && b[i] != '\'' && b[i] != '\n':
		i++
	default:
		return nil, st, fail(ctx, i, "char")
	}

	if i == len(b) || b[i] != '\'' {
		return nil, st, fail(ctx, i, `"'"`)
	}

	return nil, i + 1, nil
}

func (p Quoted) Parse(ctx context.Context, b []byte, st int) (ps []Pair, i int, err error) {
	if st == len(b) || b[st] != '"' {
		return nil, st, fail(ctx, st, "string")
	}

	for i = st + 1; i < len(b) && b[i] != '"'; i++ {
		if b[i] == '\n' {
			return nil, st, fail(ctx, i, `"\""`)
		}
	}

	if i == len(b) {
		return nil, st, fail(ctx, i, `"\""`)
	}

	return nil, i + 1, nil
}

func (p Until) Parse(ctx context.Context, b []byte, st int) (ps []Pair, i int, err error) {
	i = bytes.IndexByte(b[st:], byte(p))
	if i < 0 {
		return nil, len(b), nil
	}

	return nil, st + i, nil
}

func digits(b []byte, st int) (i int) {
	i = st

	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}

	return
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}
