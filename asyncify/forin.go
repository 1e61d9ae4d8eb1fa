package asyncify

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/spoon/cfg"
)

// desugarForIn rewrites every for-in loop of r whose body contains one
// of calls into an index loop over Object.keys, which a continuation
// chain can resume. It reports whether anything changed. Edges are left
// untouched.
func (t *transformer) desugarForIn(r *cfg.Block, calls []*cfg.Instruction) bool {
	changed := false
	for _, pre := range cfg.Reachable(r) {
		if !pre.Loop || len(pre.Successors) == 0 {
			continue
		}
		start := pre.Successors[0]
		term := start.Terminator()
		if term == nil || term.Kind != cfg.KindForIn {
			continue
		}
		body := term.Target(2)
		for _, c := range calls {
			if body.Dominates(c.Block) {
				t.lowerForIn(pre, start, term)
				changed = true
				break
			}
		}
	}
	return changed
}

// inserter places new instructions at consecutive positions of a block.
type inserter struct {
	g  *cfg.Cfg
	b  *cfg.Block
	at int
}

func (s *inserter) add(kind cfg.Kind, args ...cfg.Operand) *cfg.Instruction {
	in := s.g.Instr(kind, args...)
	s.b.Insert(s.at, in)
	s.at++
	return in
}

func (s *inserter) literal(v any) *cfg.Instruction {
	return s.add(cfg.KindLiteral, cfg.Literal{Value: v})
}

func (t *transformer) lowerForIn(pre, start *cfg.Block, term *cfg.Instruction) {
	id := strconv.Itoa(pre.ID)
	keys := cfg.Name("__$keys" + id)
	idx := cfg.Name("__$idx" + id)
	key := cfg.Name(term.NameArg(0))
	obj := term.Value(1)
	body, end := term.Target(2), term.Target(3)

	var entry *cfg.Block
	for _, p := range pre.Predecessors {
		if p != pre.Latch {
			entry = p
		}
	}

	// var keys, idx; keys = Object.keys(obj); idx = 0
	ins := &inserter{g: t.g, b: entry, at: len(entry.Instructions)}
	if entry.Terminator() != nil {
		ins.at--
	}
	ins.add(cfg.KindVar, keys)
	ins.add(cfg.KindVar, idx)
	object := ins.add(cfg.KindGet, cfg.Name("Object"))
	method := ins.literal("keys")
	list := ins.add(cfg.KindMethod, object, method, obj)
	ins.add(cfg.KindSet, keys, list)
	ins.add(cfg.KindSet, idx, ins.literal(int64(0)))

	// while (idx < keys.length)
	start.Remove(term)
	start.Reopen()
	i := start.Add(cfg.KindGet, idx)
	k := start.Add(cfg.KindGet, keys)
	n := start.Add(cfg.KindGetProp, k, start.Add(cfg.KindLiteral, cfg.Literal{Value: "length"}))
	cond := start.Add(cfg.KindBinOp, cfg.Name("<"), i, n)
	start.Add(cfg.KindWhile, cond, body, end)
	start.End()

	// key = keys[idx]; idx = idx + 1
	ins = &inserter{g: t.g, b: body}
	k = ins.add(cfg.KindGet, keys)
	i = ins.add(cfg.KindGet, idx)
	ins.add(cfg.KindSet, key, ins.add(cfg.KindGetProp, k, i))
	i = ins.add(cfg.KindGet, idx)
	ins.add(cfg.KindSet, idx, ins.add(cfg.KindBinOp, cfg.Name("+"), i, ins.literal(int64(1))))

	Logger().Debug("desugar for-in",
		zap.Int("loop", pre.ID),
		zap.String("key", string(key)))
}
