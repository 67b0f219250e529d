package lower

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
	"nikand.dev/go/heap"
	"tlog.app/go/tlog"

	"github.com/Jamalam360/jamalang/compiler/set"
)

// prune removes blocks unreachable from the entry block.
// Blocks are visited in layout order.
func prune(f *ir.Func) {
	if len(f.Blocks) == 0 {
		return
	}

	index := make(map[*ir.Block]int, len(f.Blocks))
	for i, b := range f.Blocks {
		index[b] = i
	}

	var seen set.Bits[int]
	q := heap.Heap[int]{Less: func(d []int, i, j int) bool { return d[i] < d[j] }}

	q.Push(0)
	seen.Set(0)

	for q.Len() != 0 {
		i := q.Pop()

		for _, next := range successors(f.Blocks[i]) {
			j, ok := index[next]
			if !ok || seen.IsSet(j) {
				continue
			}

			seen.Set(j)
			q.Push(j)
		}
	}

	if seen.Size() == len(f.Blocks) {
		return
	}

	if tlog.If("lower,prune") {
		var dead set.Bits[int]

		for j := range f.Blocks {
			if !seen.IsSet(j) {
				dead.Set(j)
			}
		}

		tlog.Printw("prune blocks", "func", f.Name(), "dead", dead, "blocks", len(f.Blocks))
	}

	i := 0

	for j, b := range f.Blocks {
		if !seen.IsSet(j) {
			continue
		}

		f.Blocks[i] = b
		i++
	}

	for j := i; j < len(f.Blocks); j++ {
		f.Blocks[j] = nil
	}

	f.Blocks = f.Blocks[:i]
}

func successors(b *ir.Block) []*ir.Block {
	switch t := b.Term.(type) {
	case *ir.TermBr:
		return []*ir.Block{blockOf(t.Target)}
	case *ir.TermCondBr:
		return []*ir.Block{blockOf(t.TargetTrue), blockOf(t.TargetFalse)}
	default:
		return nil
	}
}

func blockOf(v value.Value) *ir.Block {
	b, _ := v.(*ir.Block)
	return b
}
