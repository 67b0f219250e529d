package grammar

import (
	"context"
)

type (
	Optional struct {
		Parser
	}

	// Repeat matches Of greedily, at least Min times.
	Repeat struct {
		Of  Parser
		Min int
	}

	// Not is a negative lookahead. It never consumes input.
	Not struct {
		Parser
	}

	AllOf []Parser

	AnyOf []Parser
)

var rules [numRules]Parser

// Parse matches the rule definition and wraps the result into a single Pair.
func (r Rule) Parse(ctx context.Context, b []byte, st int) (ps []Pair, i int, err error) {
	def := rules[r]
	if def == nil {
		panic(r)
	}

	vst := SpaceAll.Skip(b, st)

	inner, i, err := def.Parse(ctx, b, vst)
	if err != nil {
		return nil, st, err
	}

	return []Pair{{
		Rule:  r,
		Pos:   vst,
		End:   i,
		Inner: inner,
	}}, i, nil
}

func (p Optional) Parse(ctx context.Context, b []byte, st int) (ps []Pair, i int, err error) {
	ps, i, err = p.Parser.Parse(ctx, b, st)
	if err != nil {
		return nil, st, nil
	}

	return
}

func (p Repeat) Parse(ctx context.Context, b []byte, st int) (ps []Pair, i int, err error) {
	i = st

	for n := 0; ; n++ {
		x, j, err := p.Of.Parse(ctx, b, i)
		if err != nil {
			if n < p.Min {
				return nil, st, err
			}

			break
		}

		ps = append(ps, x...)

		if j == i {
			break
		}

		i = j
	}

	return ps, i, nil
}

func (p Not) Parse(ctx context.Context, b []byte, st int) (_ []Pair, i int, err error) {
	probe := context.WithValue(ctx, stateCtxKey{}, (*State)(nil))

	_, _, err = p.Parser.Parse(probe, b, st)
	if err == nil {
		return nil, st, &Error{Pos: st}
	}

	return nil, st, nil
}

func (p AllOf) Parse(ctx context.Context, b []byte, st int) (ps []Pair, i int, err error) {
	i = st

	for _, r := range p {
		var x []Pair

		x, i, err = r.Parse(ctx, b, i)
		if err != nil {
			return nil, st, err
		}

		ps = append(ps, x...)
	}

	return ps, i, nil
}

func (p AnyOf) Parse(ctx context.Context, b []byte, st int) (ps []Pair, i int, err error) {
	for _, r := range p {
		ps, i, err = r.Parse(ctx, b, st)
		if err == nil {
			return ps, i, nil
		}
	}

	if err == nil {
		err = &Error{Pos: st}
	}

	return nil, st, err
}
