package cfg

import (
	"github.com/wippyai/spoon/ast"
	"github.com/wippyai/spoon/errors"
)

// Cfg owns every block and instruction of one compilation. A Cfg is not
// safe for concurrent use; concurrent compilations use separate Cfgs.
type Cfg struct {
	// Root is the program entry block.
	Root *Block
	// Roots holds one entry block per function body, program first, in
	// discovery order. Asyncify appends continuation roots.
	Roots []*Block

	blocks     []*Block
	nextBlock  int
	nextInstr  int
	translated bool
}

// New returns an empty graph.
func New() *Cfg {
	return &Cfg{}
}

// Construct translates a program into a fully derived graph.
func Construct(prog *ast.Program) (*Cfg, error) {
	c := New()
	if err := c.Translate(prog); err != nil {
		return nil, err
	}
	if err := c.Derive(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewBlock allocates a block owned by c.
func (c *Cfg) NewBlock() *Block {
	b := &Block{cfg: c, ID: c.nextBlock}
	c.nextBlock++
	c.blocks = append(c.blocks, b)
	return b
}

// NewRoot allocates a block that starts a function body.
func (c *Cfg) NewRoot(fn *Instruction) *Block {
	b := c.NewBlock()
	b.Root = b
	b.Owner = b
	b.Fn = fn
	c.Roots = append(c.Roots, b)
	return b
}

// AddRoot registers an existing block as a continuation root.
func (c *Cfg) AddRoot(b *Block, fn *Instruction, owner *Block) {
	b.Root = b
	b.Fn = fn
	b.Owner = owner
	c.Roots = append(c.Roots, b)
}

// Blocks returns every allocated block, reachable or not, in id order.
func (c *Cfg) Blocks() []*Block {
	return c.blocks
}

// Instr creates an unattached instruction and records its value uses.
func (c *Cfg) Instr(kind Kind, args ...Operand) *Instruction {
	in := &Instruction{ID: c.nextID(), Kind: kind, Args: args}
	for _, a := range args {
		if v, ok := a.(*Instruction); ok {
			v.addUse(in)
		}
	}
	return in
}

func (c *Cfg) nextID() int {
	id := c.nextInstr
	c.nextInstr++
	return id
}

// Reachable returns the blocks reachable from root through successor
// edges, in breadth-first order.
func Reachable(root *Block) []*Block {
	seen := map[*Block]bool{root: true}
	order := []*Block{root}
	for n := 0; n < len(order); n++ {
		for _, s := range order[n].Successors {
			if !seen[s] {
				seen[s] = true
				order = append(order, s)
			}
		}
	}
	return order
}

// FunctionName returns the declared name of the function a root starts,
// "" for the program root and anonymous functions.
func FunctionName(root *Block) string {
	if root.Fn == nil || root.Fn.Func == nil {
		return ""
	}
	return root.Fn.Func.Name
}

func (c *Cfg) checkTranslated() {
	if c.translated {
		panic(errors.InvalidInput(errors.PhaseConstruct, "graph already translated"))
	}
	c.translated = true
}
