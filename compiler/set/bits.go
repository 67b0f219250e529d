package set

import (
	"math/bits"

	"tlog.app/go/tlog/tlwire"
)

type (
	Key interface {
		~int | ~int64
	}

	// Bits is a set of small non-negative integers.
	Bits[K Key] struct {
		w []uint64
	}
)

func (s *Bits[K]) Set(k K) {
	i, j := ij(k)

	for i >= len(s.w) {
		s.w = append(s.w, 0)
	}

	s.w[i] |= 1 << j
}

func (s Bits[K]) IsSet(k K) bool {
	i, j := ij(k)

	if i >= len(s.w) {
		return false
	}

	return s.w[i]&(1<<j) != 0
}

func (s Bits[K]) Size() (r int) {
	for _, w := range s.w {
		r += bits.OnesCount64(w)
	}

	return r
}

// Range calls f for keys in increasing order until it returns false.
func (s Bits[K]) Range(f func(k K) bool) {
	for i, w := range s.w {
		for w != 0 {
			j := bits.TrailingZeros64(w)
			w &^= 1 << j

			if !f(K(i*64 + j)) {
				return
			}
		}
	}
}

func (s Bits[K]) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	if s.w == nil {
		return e.AppendNil(b)
	}

	b = e.AppendTag(b, tlwire.Array, -1)

	s.Range(func(k K) bool {
		b = e.AppendInt(b, int(k))
		return true
	})

	return e.AppendBreak(b)
}

func ij[K Key](k K) (i, j int) {
	if k < 0 {
		panic(k)
	}

	return int(k) / 64, int(k) % 64
}
