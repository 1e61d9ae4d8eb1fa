package cfg

import (
	"github.com/wippyai/spoon/errors"
)

// maxEdges bounds both successor and predecessor lists.
const maxEdges = 2

// Block is an ordered list of instructions with at most two successors
// and two predecessors.
type Block struct {
	cfg *Cfg

	Instructions []*Instruction
	Successors   []*Block
	Predecessors []*Block

	// Root is the entry block of the function body (or continuation) this
	// block belongs to.
	Root *Block
	// Exits lists, for a root, the reachable blocks without successors.
	Exits []*Block

	// Fn is the fn instruction that creates the function a root block
	// starts. Nil for the program root.
	Fn *Instruction
	// Owner is, for a root, the entry block of the enclosing real function.
	// Continuation roots point at the function they were split from;
	// other roots point at themselves.
	Owner *Block

	// Latch and Follow describe the loop a pre-header starts: Latch is
	// the first block of the continue path, Follow the single block
	// control reaches after the loop.
	Latch  *Block
	Follow *Block

	// Forward dominator tree.
	Parent   *Block
	Children []*Block
	Frontier []*Block

	// Control (post) dominator tree over the reverse graph.
	CParent   *Block
	CChildren []*Block
	CFrontier []*Block

	ID int

	// Loop marks a loop pre-header.
	Loop bool
	// InTry marks blocks lowered inside a try body.
	InTry bool

	ended bool
}

// Add appends a new instruction. On an ended block the instruction is
// allocated but inert: it is neither appended nor recorded as a use.
func (b *Block) Add(kind Kind, args ...Operand) *Instruction {
	if b.ended {
		return &Instruction{ID: b.cfg.nextID(), Kind: kind, Args: args, Block: b, inert: true}
	}
	in := b.cfg.Instr(kind, args...)
	b.Append(in)
	return in
}

// Append adds an existing instruction to the end of the block.
func (b *Block) Append(in *Instruction) {
	in.Block = b
	b.Instructions = append(b.Instructions, in)
}

// Insert places an instruction at index n.
func (b *Block) Insert(n int, in *Instruction) {
	in.Block = b
	b.Instructions = append(b.Instructions, nil)
	copy(b.Instructions[n+1:], b.Instructions[n:])
	b.Instructions[n] = in
}

// Remove drops an instruction from the block and releases its operands.
func (b *Block) Remove(in *Instruction) {
	for n, x := range b.Instructions {
		if x == in {
			b.Instructions = append(b.Instructions[:n], b.Instructions[n+1:]...)
			in.detach()
			return
		}
	}
}

// Index returns the position of in within the block, or -1.
func (b *Block) Index(in *Instruction) int {
	for n, x := range b.Instructions {
		if x == in {
			return n
		}
	}
	return -1
}

// End marks the block terminated; later Adds are inert.
func (b *Block) End() {
	b.ended = true
}

// Ended reports whether End has been called.
func (b *Block) Ended() bool {
	return b.ended
}

// Reopen clears the ended flag so graph rewrites can append a new
// terminator after removing the old one.
func (b *Block) Reopen() {
	b.ended = false
}

// Terminator returns the last instruction if it ends the block.
func (b *Block) Terminator() *Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	last := b.Instructions[len(b.Instructions)-1]
	if last.Kind.IsTerminator() {
		return last
	}
	return nil
}

// AddSuccessor links b -> to, updating both edge lists.
func (b *Block) AddSuccessor(to *Block) {
	if len(b.Successors) >= maxEdges {
		panic(errors.GraphInvariant(errors.PhaseConstruct,
			"block %d: cannot add successor %d, already has %d", b.ID, to.ID, len(b.Successors)))
	}
	if len(to.Predecessors) >= maxEdges {
		panic(errors.GraphInvariant(errors.PhaseConstruct,
			"block %d: cannot add predecessor %d, already has %d", to.ID, b.ID, len(to.Predecessors)))
	}
	b.Successors = append(b.Successors, to)
	to.addPredecessor(b)
}

func (b *Block) addPredecessor(from *Block) {
	b.Predecessors = append(b.Predecessors, from)
}

// RemoveSuccessor unlinks b -> to on both sides.
func (b *Block) RemoveSuccessor(to *Block) {
	b.Successors = removeBlock(b.Successors, to)
	to.Predecessors = removeBlock(to.Predecessors, b)
}

// ReplaceSuccessor redirects the edge b -> from to b -> to, keeping the
// successor's position.
func (b *Block) ReplaceSuccessor(from, to *Block) {
	for n, s := range b.Successors {
		if s == from {
			b.Successors[n] = to
			from.Predecessors = removeBlock(from.Predecessors, b)
			if len(to.Predecessors) >= maxEdges {
				panic(errors.GraphInvariant(errors.PhaseAsyncify,
					"block %d: cannot add predecessor %d, already has %d", to.ID, b.ID, len(to.Predecessors)))
			}
			to.addPredecessor(b)
			return
		}
	}
}

// Goto ends the block with an unconditional jump to target. On an ended
// block it does nothing, so break and continue chains can be folded
// without checking for dead ends.
func (b *Block) Goto(target *Block) *Block {
	if b.ended {
		return target
	}
	b.Add(KindGoto, target)
	b.AddSuccessor(target)
	b.End()
	return target
}

// Branch ends the block with a two-way branch instruction whose block
// operands are t and f, in that order.
func (b *Block) Branch(kind Kind, t, f *Block, args ...Operand) *Instruction {
	in := b.Add(kind, append(args, t, f)...)
	b.AddSuccessor(t)
	b.AddSuccessor(f)
	b.End()
	return in
}

// Dominates reports whether b dominates other in the forward tree.
func (b *Block) Dominates(other *Block) bool {
	for n := other; n != nil; n = n.Parent {
		if n == b {
			return true
		}
	}
	return false
}

// PostDominates reports whether b dominates other in the control tree.
func (b *Block) PostDominates(other *Block) bool {
	for n := other; n != nil; n = n.CParent {
		if n == b {
			return true
		}
	}
	return false
}

// IsRoot reports whether b starts a function body or continuation.
func (b *Block) IsRoot() bool {
	return b.Root == b
}

// IsContinuation reports whether b is a root synthesized by asyncify.
func (b *Block) IsContinuation() bool {
	return b.IsRoot() && b.Fn != nil && b.Fn.Func != nil && b.Fn.Func.Cont
}

func removeBlock(list []*Block, b *Block) []*Block {
	for n, x := range list {
		if x == b {
			return append(list[:n], list[n+1:]...)
		}
	}
	return list
}
