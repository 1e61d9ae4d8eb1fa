package cfg

import "math/bits"

// bitSet is a dense set of small non-negative integers. Dominator sets
// index blocks by their position in a root's traversal order.
type bitSet struct {
	words []uint64
}

func newBitSet(n int) *bitSet {
	return &bitSet{words: make([]uint64, (n+63)/64)}
}

// fullBitSet returns the set {0, ..., n-1}.
func fullBitSet(n int) *bitSet {
	s := newBitSet(n)
	for i := 0; i < n; i++ {
		s.set(i)
	}
	return s
}

func (s *bitSet) set(i int) {
	w := i / 64
	if w >= len(s.words) {
		s.grow(w + 1)
	}
	s.words[w] |= 1 << (uint(i) % 64)
}

// intersect keeps only elements also in other.
func (s *bitSet) intersect(other *bitSet) {
	for i := range s.words {
		if i < len(other.words) {
			s.words[i] &= other.words[i]
		} else {
			s.words[i] = 0
		}
	}
}

func (s *bitSet) equal(other *bitSet) bool {
	n := max(len(s.words), len(other.words))
	for i := 0; i < n; i++ {
		var a, b uint64
		if i < len(s.words) {
			a = s.words[i]
		}
		if i < len(other.words) {
			b = other.words[i]
		}
		if a != b {
			return false
		}
	}
	return true
}

func (s *bitSet) clone() *bitSet {
	c := &bitSet{words: make([]uint64, len(s.words))}
	copy(c.words, s.words)
	return c
}

// count returns the number of elements.
func (s *bitSet) count() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// slice returns the elements in ascending order.
func (s *bitSet) slice() []int {
	var out []int
	for i, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, i*64+b)
			w &= w - 1
		}
	}
	return out
}

func (s *bitSet) grow(n int) {
	words := make([]uint64, n)
	copy(words, s.words)
	s.words = words
}
