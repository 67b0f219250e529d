package grammar

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"tlog.app/go/tlog"
)

type (
	Parser interface {
		Parse(ctx context.Context, b []byte, st int) (ps []Pair, i int, err error)
	}

	// State tracks the furthest failed position and what was expected there.
	State struct {
		far      int
		expected map[string]struct{}
	}

	// Error is a parse failure at byte offset Pos.
	Error struct {
		Pos      int
		Expected []string
	}

	stateCtxKey struct{}
)

// Parse matches the whole of text as a File.
func Parse(ctx context.Context, text []byte) (p Pair, err error) {
	s := &State{
		far:      -1,
		expected: make(map[string]struct{}),
	}

	ctx = context.WithValue(ctx, stateCtxKey{}, s)

	ps, i, err := File.Parse(ctx, text, 0)
	if err == nil {
		i = SpaceAll.Skip(text, i)

		if i == len(text) {
			if tlog.If("grammar") {
				tlog.SpanFromContext(ctx).Printw("parsed", "file", ps[0], "size", len(text))
			}

			return ps[0], nil
		}

		s.fail(i, "end of input")
	}

	return Pair{}, s.Err()
}

func StateFromContext(ctx context.Context) *State {
	s, _ := ctx.Value(stateCtxKey{}).(*State)

	return s
}

func (s *State) Err() *Error {
	l := maps.Keys(s.expected)
	slices.Sort(l)

	return &Error{
		Pos:      s.far,
		Expected: l,
	}
}

func (s *State) fail(pos int, what string) {
	if s == nil || pos < s.far {
		return
	}

	if pos > s.far {
		s.far = pos

		for k := range s.expected {
			delete(s.expected, k)
		}
	}

	s.expected[what] = struct{}{}
}

func fail(ctx context.Context, pos int, what string) error {
	StateFromContext(ctx).fail(pos, what)

	return &Error{
		Pos:      pos,
		Expected: []string{what},
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("expected %v", joinHuman(e.Expected))
}

func joinHuman(l []string) string {
	switch len(l) {
	case 0:
		return "<none>"
	case 1:
		return l[0]
	}

	var b strings.Builder

	for i, r := range l {
		if i+1 == len(l) {
			b.WriteString(" or ")
		} else if i != 0 {
			b.WriteString(", ")
		}

		b.WriteString(r)
	}

	return b.String()
}
