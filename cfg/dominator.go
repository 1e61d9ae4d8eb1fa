package cfg

import (
	"sort"

	"go.uber.org/zap"

	"github.com/wippyai/spoon/errors"
)

// Derive recomputes, for every root, its exits and both dominator trees
// with their frontiers. Edges from unreachable code are pruned first. It
// must be re-run after any graph mutation.
func (c *Cfg) Derive() (err error) {
	defer errors.Recover(&err)

	owner := make(map[*Block]*Block)
	for _, r := range c.Roots {
		for _, b := range Reachable(r) {
			if prev, ok := owner[b]; ok && prev != r {
				panic(errors.GraphInvariant(errors.PhaseDerive,
					"block %d reachable from roots %d and %d", b.ID, prev.ID, r.ID))
			}
			owner[b] = r
		}
	}
	for _, b := range c.blocks {
		if owner[b] == nil {
			continue
		}
		live := b.Predecessors[:0]
		for _, p := range b.Predecessors {
			if owner[p] != nil {
				live = append(live, p)
			}
		}
		b.Predecessors = live
	}

	for _, r := range c.Roots {
		c.deriveRoot(r)
	}
	return nil
}

// view indexes one root's reachable blocks for the set computations.
type view struct {
	nodes []*Block
	index map[*Block]int
}

func newView(root *Block) *view {
	v := &view{nodes: Reachable(root), index: make(map[*Block]int)}
	for i, b := range v.nodes {
		v.index[b] = i
	}
	return v
}

func (v *view) preds(i int) []int {
	return v.indices(v.nodes[i].Predecessors)
}

func (v *view) succs(i int) []int {
	return v.indices(v.nodes[i].Successors)
}

func (v *view) indices(list []*Block) []int {
	out := make([]int, 0, len(list))
	for _, b := range list {
		if j, ok := v.index[b]; ok {
			out = append(out, j)
		}
	}
	return out
}

func (c *Cfg) deriveRoot(r *Block) {
	v := newView(r)
	n := len(v.nodes)

	r.Exits = nil
	for _, b := range v.nodes {
		b.Root = r
		if len(b.Successors) == 0 {
			r.Exits = append(r.Exits, b)
		}
	}

	dom, fwdIters := dominance(n, []int{0}, v.preds)
	parent := immediate(v, dom, distances(n, []int{0}, v.succs))
	children := childLists(parent)
	frontier := frontiers(parent, children, v.succs)

	// Blocks that leave the function are neutral for control dominance
	// unless nothing else terminates the body.
	var anchors []int
	for _, e := range r.Exits {
		if t := e.Terminator(); t == nil || !t.Kind.LeavesFunction() {
			anchors = append(anchors, v.index[e])
		}
	}
	if len(anchors) == 0 {
		for _, e := range r.Exits {
			anchors = append(anchors, v.index[e])
		}
	}
	pdist := distances(n, anchors, v.preds)
	pdom, revIters := dominance(n, anchors, v.succs)
	cparent := immediate(v, pdom, pdist)
	cchildren := childLists(cparent)
	cfrontier := frontiers(cparent, cchildren, func(i int) []int {
		if pdist[i] < 0 {
			return nil
		}
		return v.preds(i)
	})

	for i, b := range v.nodes {
		b.Parent = v.block(parent[i])
		b.Children = v.blocks(children[i])
		b.Frontier = v.blocks(frontier[i])
		b.CParent = v.block(cparent[i])
		b.CChildren = v.blocks(cchildren[i])
		b.CFrontier = v.blocks(cfrontier[i])
	}

	Logger().Debug("derive",
		zap.Int("root", r.ID),
		zap.Int("blocks", n),
		zap.Int("exits", len(r.Exits)),
		zap.Int("dom_iterations", fwdIters),
		zap.Int("cdom_iterations", revIters))
}

func (v *view) block(i int) *Block {
	if i < 0 {
		return nil
	}
	return v.nodes[i]
}

func (v *view) blocks(idx []int) []*Block {
	if len(idx) == 0 {
		return nil
	}
	out := make([]*Block, len(idx))
	for n, i := range idx {
		out[n] = v.nodes[i]
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// dominance runs the iterative set-intersection fixed point. Seeds start
// as {self}; every other node starts as the full set and is refined to
// {self} plus the intersection over its incoming edges. Nodes without
// incoming edges keep the full set. Returns the sets and the number of
// sweeps taken.
func dominance(n int, seeds []int, in func(int) []int) ([]*bitSet, int) {
	isSeed := make([]bool, n)
	sets := make([]*bitSet, n)
	for i := range sets {
		sets[i] = fullBitSet(n)
	}
	for _, s := range seeds {
		isSeed[s] = true
		sets[s] = newBitSet(n)
		sets[s].set(s)
	}

	sweeps := 0
	for changed := true; changed; {
		changed = false
		sweeps++
		for i := 0; i < n; i++ {
			if isSeed[i] {
				continue
			}
			edges := in(i)
			if len(edges) == 0 {
				continue
			}
			next := sets[edges[0]].clone()
			for _, e := range edges[1:] {
				next.intersect(sets[e])
			}
			next.set(i)
			if !next.equal(sets[i]) {
				sets[i] = next
				changed = true
			}
		}
	}
	pairs := 0
	for _, s := range sets {
		pairs += s.count()
	}
	debugf("dominance: %d nodes, %d sweeps, %d pairs", n, sweeps, pairs)
	return sets, sweeps
}

// distances returns the breadth-first edge count from the nearest source,
// or -1 for nodes no source reaches.
func distances(n int, sources []int, next func(int) []int) []int {
	dist := make([]int, n)
	for i := range dist {
		dist[i] = -1
	}
	queue := make([]int, 0, n)
	for _, s := range sources {
		if dist[s] < 0 {
			dist[s] = 0
			queue = append(queue, s)
		}
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		for _, j := range next(i) {
			if dist[j] < 0 {
				dist[j] = dist[i] + 1
				queue = append(queue, j)
			}
		}
	}
	return dist
}

// immediate picks, for every node, the strict dominator closest to it:
// the candidate farthest from the sources. Ties go to the lower block id.
// Nodes the sources never reach get no parent.
func immediate(v *view, sets []*bitSet, dist []int) []int {
	parent := make([]int, len(sets))
	for i, s := range sets {
		parent[i] = -1
		if dist[i] < 0 {
			continue
		}
		for _, d := range s.slice() {
			if d == i || dist[d] < 0 {
				continue
			}
			best := parent[i]
			if best < 0 || dist[d] > dist[best] ||
				(dist[d] == dist[best] && v.nodes[d].ID < v.nodes[best].ID) {
				parent[i] = d
			}
		}
	}
	return parent
}

func childLists(parent []int) [][]int {
	children := make([][]int, len(parent))
	for i, p := range parent {
		if p >= 0 {
			children[p] = append(children[p], i)
		}
	}
	return children
}

// frontiers computes dominance frontiers bottom-up: a node is processed
// once all of its tree children are done. local yields the edges leaving
// a node in the direction the tree was built over.
func frontiers(parent []int, children [][]int, local func(int) []int) [][]int {
	n := len(parent)
	pending := make([]int, n)
	queue := make([]int, 0, n)
	for i := range parent {
		pending[i] = len(children[i])
		if pending[i] == 0 {
			queue = append(queue, i)
		}
	}

	df := make([]*bitSet, n)
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]

		set := newBitSet(n)
		for _, s := range local(i) {
			if parent[s] != i {
				set.set(s)
			}
		}
		for _, c := range children[i] {
			for _, f := range df[c].slice() {
				if parent[f] != i {
					set.set(f)
				}
			}
		}
		df[i] = set

		if p := parent[i]; p >= 0 {
			pending[p]--
			if pending[p] == 0 {
				queue = append(queue, p)
			}
		}
	}

	out := make([][]int, n)
	for i, s := range df {
		if s != nil {
			out[i] = s.slice()
		}
	}
	return out
}
