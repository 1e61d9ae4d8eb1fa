package render

import (
	"github.com/wippyai/spoon/cfg"
)

// isValue reports whether instructions of kind k produce a value that an
// enclosing expression can consume.
func isValue(k cfg.Kind) bool {
	switch k {
	case cfg.KindLiteral, cfg.KindGet, cfg.KindGetProp, cfg.KindBinOp, cfg.KindUnOp,
		cfg.KindCall, cfg.KindMethod, cfg.KindNew, cfg.KindObject, cfg.KindArray,
		cfg.KindFn, cfg.KindPhi:
		return true
	}
	return false
}

// movable instructions can be evaluated later than their position
// without changing what the program observes.
func movable(in *cfg.Instruction) bool {
	switch in.Kind {
	case cfg.KindLiteral, cfg.KindVar, cfg.KindNop:
		return true
	case cfg.KindFn:
		return in.Func != nil && !in.Func.Decl
	}
	return false
}

// analysis decides, per value instruction, whether it is inlined into
// its single consumer or materialized as a temporary.
type analysis struct {
	inline map[*cfg.Instruction]bool
	temp   map[*cfg.Instruction]bool
}

func newAnalysis() *analysis {
	return &analysis{
		inline: make(map[*cfg.Instruction]bool),
		temp:   make(map[*cfg.Instruction]bool),
	}
}

// candidate reports whether in may be inlined into its user at all: a
// non-phi value with exactly one use in its own block.
func candidate(in *cfg.Instruction) bool {
	if !isValue(in.Kind) || in.Kind == cfg.KindPhi || in.Kind == cfg.KindLiteral {
		return false
	}
	if in.Kind == cfg.KindFn && in.Func != nil && in.Func.Decl {
		return false
	}
	return len(in.Uses) == 1 && in.Uses[0].Block == in.Block
}

// block classifies the instructions of b. Walking backwards, each
// statement claims the operands that immediately precede it; an operand
// separated from its user by anything the user does not consume must be
// evaluated in place and becomes a temporary.
func (a *analysis) block(b *cfg.Block) {
	for _, in := range b.Instructions {
		switch {
		case in.Kind == cfg.KindPhi:
			a.temp[in] = true
		case isValue(in.Kind) && in.Kind != cfg.KindLiteral && len(in.Uses) > 0 && !candidate(in):
			a.temp[in] = true
		}
	}
	p := len(b.Instructions) - 1
	for p >= 0 {
		p = a.claim(b, b.Instructions[p], p-1)
	}
}

func (a *analysis) claim(b *cfg.Block, user *cfg.Instruction, p int) int {
	ops := user.Values()
	blocked := false
	for n := len(ops) - 1; n >= 0; n-- {
		op := ops[n]
		for p >= 0 && movable(b.Instructions[p]) && b.Instructions[p] != op {
			p--
		}
		if !candidate(op) {
			if p >= 0 && b.Instructions[p] == op && op.Kind == cfg.KindLiteral {
				p--
			}
			continue
		}
		if blocked || p < 0 || b.Instructions[p] != op {
			a.temp[op] = true
			blocked = true
			continue
		}
		a.inline[op] = true
		p = a.claim(b, op, p-1)
	}
	return p
}
