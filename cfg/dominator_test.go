package cfg

import (
	"testing"
)

func ids(list []*Block) []int {
	out := make([]int, len(list))
	for n, b := range list {
		out[n] = b.ID
	}
	return out
}

func sameIDs(a []int, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for n := range a {
		if a[n] != b[n] {
			return false
		}
	}
	return true
}

func parentID(b *Block) int {
	if b == nil {
		return -1
	}
	return b.ID
}

func TestDeriveIf(t *testing.T) {
	// b0 -> b1 (then), b0 -> b2 (join), b1 -> b2
	g := construct(t, "if (a) { b(); } c();")
	blocks := g.Blocks()

	tests := []struct {
		block     int
		parent    int
		frontier  []int
		cparent   int
		cfrontier []int
	}{
		{0, -1, []int{}, 2, []int{}},
		{1, 0, []int{2}, 2, []int{0}},
		{2, 0, []int{}, -1, []int{}},
	}
	for _, tt := range tests {
		b := blocks[tt.block]
		if got := parentID(b.Parent); got != tt.parent {
			t.Errorf("block %d Parent = %d, want %d", tt.block, got, tt.parent)
		}
		if got := ids(b.Frontier); !sameIDs(got, tt.frontier) {
			t.Errorf("block %d Frontier = %v, want %v", tt.block, got, tt.frontier)
		}
		if got := parentID(b.CParent); got != tt.cparent {
			t.Errorf("block %d CParent = %d, want %d", tt.block, got, tt.cparent)
		}
		if got := ids(b.CFrontier); !sameIDs(got, tt.cfrontier) {
			t.Errorf("block %d CFrontier = %v, want %v", tt.block, got, tt.cfrontier)
		}
	}
	if exits := ids(g.Root.Exits); !sameIDs(exits, []int{2}) {
		t.Errorf("Exits = %v, want [2]", exits)
	}
}

func TestDeriveIfElse(t *testing.T) {
	// b0 -> b1 (then), b0 -> b3 (else), b1 -> b2, b3 -> b2
	g := construct(t, "if (a) b(); else c(); d();")
	blocks := g.Blocks()
	if got := parentID(blocks[2].Parent); got != 0 {
		t.Errorf("join Parent = %d, want 0", got)
	}
	for _, n := range []int{1, 3} {
		if got := ids(blocks[n].Frontier); !sameIDs(got, []int{2}) {
			t.Errorf("block %d Frontier = %v, want [2]", n, got)
		}
		if got := parentID(blocks[n].CParent); got != 2 {
			t.Errorf("block %d CParent = %d, want 2", n, got)
		}
	}
	if got := parentID(blocks[0].CParent); got != 2 {
		t.Errorf("entry CParent = %d, want 2", got)
	}
}

func TestDeriveWhile(t *testing.T) {
	// b0 -> b1 pre -> b2 start -> {b3 body, b4 end}; b3 -> b5 latch -> b1; b4 -> b6 follow
	g := construct(t, "while (a) { b(); } c();")
	blocks := g.Blocks()

	parents := map[int]int{0: -1, 1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 6: 4}
	for id, want := range parents {
		if got := parentID(blocks[id].Parent); got != want {
			t.Errorf("block %d Parent = %d, want %d", id, got, want)
		}
	}
	for _, id := range []int{1, 2, 3, 5} {
		if got := ids(blocks[id].Frontier); !sameIDs(got, []int{1}) {
			t.Errorf("block %d Frontier = %v, want [1]", id, got)
		}
	}
	if !blocks[1].Loop || blocks[1].Latch != blocks[5] || blocks[1].Follow != blocks[6] {
		t.Errorf("loop metadata = loop %v latch %v follow %v", blocks[1].Loop, blocks[1].Latch, blocks[1].Follow)
	}
	// The body is control dependent on the loop test.
	if got := ids(blocks[3].CFrontier); !sameIDs(got, []int{2}) {
		t.Errorf("body CFrontier = %v, want [2]", got)
	}
	if got := parentID(blocks[2].CParent); got != 4 {
		t.Errorf("start CParent = %d, want 4", got)
	}
}

func TestDeriveReturnIsNeutral(t *testing.T) {
	// b1 (return) leaves the function; the fall-through exit anchors the
	// control tree, so the return arm does not become the join.
	g := construct(t, "function f(a) { if (a) { return 1; } g(); }")
	r := g.Roots[1]
	term := r.Terminator()
	if term == nil || term.Kind != KindIf {
		t.Fatalf("root terminator = %v, want if", term)
	}
	ret, join := term.Target(0), term.Target(1)
	if len(r.Exits) != 2 {
		t.Fatalf("Exits = %v, want two", ids(r.Exits))
	}
	if r.CParent != join {
		t.Errorf("entry CParent = %d, want join %d", parentID(r.CParent), join.ID)
	}
	if ret.CParent != nil {
		t.Errorf("return block CParent = %d, want none", ret.CParent.ID)
	}
}

func TestDeriveAllReturns(t *testing.T) {
	g := construct(t, "function f(a) { if (a) { return 1; } else { return 2; } }")
	r := g.Roots[1]
	for _, b := range Reachable(r) {
		if b.Root != r {
			t.Errorf("block %d Root = %d, want %d", b.ID, b.Root.ID, r.ID)
		}
	}
	if len(r.Exits) < 2 {
		t.Errorf("Exits = %v, want both return arms", ids(r.Exits))
	}
}

func TestDerivePrunesDeadPredecessors(t *testing.T) {
	g := construct(t, "function f() { while (true) { return; } }")
	live := make(map[*Block]bool)
	for _, b := range Reachable(g.Roots[1]) {
		live[b] = true
	}
	for b := range live {
		for _, p := range b.Predecessors {
			if !live[p] {
				t.Errorf("block %d keeps unreachable predecessor %d", b.ID, p.ID)
			}
		}
	}
}

func TestDeriveIdempotent(t *testing.T) {
	g := construct(t, "var s = 0; for (var i = 0; i < 10; i++) { if (i % 2) continue; s += i; }")
	before := g.String()
	if err := g.Derive(); err != nil {
		t.Fatal(err)
	}
	if after := g.String(); after != before {
		t.Errorf("Derive is not idempotent:\n%s\nvs\n%s", before, after)
	}
}

func TestBitSet(t *testing.T) {
	s := newBitSet(70)
	s.set(3)
	s.set(65)
	if got := s.slice(); !sameIDs(got, []int{3, 65}) {
		t.Errorf("slice = %v, want [3 65]", got)
	}
	if s.count() != 2 {
		t.Errorf("count = %d, want 2", s.count())
	}
	full := fullBitSet(70)
	if full.count() != 70 {
		t.Errorf("fullBitSet count = %d, want 70", full.count())
	}
	full.intersect(s)
	if !full.equal(s) {
		t.Errorf("intersect = %v, want %v", full.slice(), s.slice())
	}
	c := s.clone()
	c.set(10)
	if s.count() != 2 {
		t.Error("clone shares storage")
	}
	if got := c.slice(); !sameIDs(got, []int{3, 10, 65}) {
		t.Errorf("slice = %v, want [3 10 65]", got)
	}
}

// reachesWithout reports whether target is reachable from root when the
// walk may not enter cut.
func reachesWithout(root *Block, cut *Block, target *Block) bool {
	if root == cut {
		return false
	}
	seen := map[*Block]bool{root: true}
	queue := []*Block{root}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		if b == target {
			return true
		}
		for _, s := range b.Successors {
			if s != cut && !seen[s] {
				seen[s] = true
				queue = append(queue, s)
			}
		}
	}
	return false
}

func TestDominatorProperties(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"loop with continue and break", "for (var i = 0; i < 10; i++) { if (i % 2) continue; if (i > 7) break; g(i); } h();"},
		{"do while", "var i = 0; do { i++; } while (i < 3); g(i);"},
		{"nested loops", "while (a) { while (b) { if (c) break; d(); } e(); }"},
		{"try in loop", "function f(x) { while (x) { try { if (g(x)) return 1; } catch (e) { x = 0; } } return 2; }"},
		{"logical and ternary", "var r = (a && b || (c ? d : e)) ?? f; g(r);"},
		{"for in", "var o = {a: 1}; for (var k in o) { if (k) continue; g(k); } h();"},
		{"early return", "function f(x) { if (x) return 1; if (x > 2) { g(); } else { return 3; } return 4; }"},
		{"switch like chain", "if (a) { b(); } else if (c) { d(); } else { e(); } f();"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := construct(t, tt.src)
			for _, r := range g.Roots {
				for _, b := range Reachable(r) {
					if b == r {
						if b.Parent != nil {
							t.Errorf("root %d has parent %d", b.ID, b.Parent.ID)
						}
						continue
					}
					if b.Parent == nil {
						t.Errorf("block %d has no immediate dominator", b.ID)
						continue
					}
					if reachesWithout(r, b.Parent, b) {
						t.Errorf("block %d reachable from root %d without its idom %d", b.ID, r.ID, b.Parent.ID)
					}
					listed := false
					for _, c := range b.Parent.Children {
						listed = listed || c == b
					}
					if !listed {
						t.Errorf("block %d missing from children of %d", b.ID, b.Parent.ID)
					}
				}
				for _, b := range Reachable(r) {
					for _, f := range b.Frontier {
						if f != b && b.Dominates(f) {
							t.Errorf("frontier of %d holds %d, which it strictly dominates", b.ID, f.ID)
						}
						found := false
						for _, p := range f.Predecessors {
							if b.Dominates(p) {
								found = true
							}
						}
						if !found {
							t.Errorf("frontier of %d holds %d, but %d dominates none of its predecessors", b.ID, f.ID, b.ID)
						}
					}
				}
			}
		})
	}
}
