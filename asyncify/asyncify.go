package asyncify

import (
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/spoon/cfg"
	"github.com/wippyai/spoon/errors"
)

// Default names of the identifiers the transform introduces.
const (
	DefaultCallbackName = "__$callback"
	DefaultErrorName    = "__$e"
	DefaultResultName   = "__$r"
)

// Config configures the asyncify transformation.
type Config struct {
	// Matcher selects the asynchronous call sites.
	Matcher Matcher
	// Targets are wildcard patterns added to Matcher.
	Targets []string
	// OnlyList restricts the rewrite to matching named functions. A
	// matching function is converted even if it makes no target call.
	// The program body is never converted when OnlyList is set.
	OnlyList FunctionMatcher
	// RemoveList excludes matching functions.
	RemoveList FunctionMatcher

	// CallbackName is the trailing parameter asyncified functions report
	// their result through.
	CallbackName string
	// ErrorName and ResultName are the continuation parameters.
	ErrorName  string
	ResultName string
}

func (c Config) withDefaults() Config {
	if c.CallbackName == "" {
		c.CallbackName = DefaultCallbackName
	}
	if c.ErrorName == "" {
		c.ErrorName = DefaultErrorName
	}
	if c.ResultName == "" {
		c.ResultName = DefaultResultName
	}
	return c
}

func (c Config) matcher() Matcher {
	switch {
	case len(c.Targets) == 0:
		return c.Matcher
	case c.Matcher == nil:
		return NewWildcardMatcher(c.Targets)
	default:
		return NewCompositeMatcher(c.Matcher, NewWildcardMatcher(c.Targets))
	}
}

// For returns a callback for spoon.Preprocess that asyncifies calls to
// the given targets.
func For(targets ...string) func(*cfg.Cfg) error {
	return func(g *cfg.Cfg) error {
		return Transform(g, Config{Targets: targets})
	}
}

// Transform rewrites g so that every matching call takes a trailing
// continuation and never returns synchronously.
//
// For each converted function the call blocks are split after the call,
// the blocks that start a continuation are the split points plus their
// iterated dominance frontier, and every edge into such a block becomes
// a call of the continuation function. Loops whose header is split
// dissolve into continuation chains. Functions (but not the program
// body) report their result through a trailing callback parameter.
//
// The graph is derived again before Transform returns. Running Transform
// twice with the same configuration leaves the graph unchanged.
func Transform(g *cfg.Cfg, conf Config) (err error) {
	defer errors.Recover(&err)

	conf = conf.withDefaults()
	t := &transformer{g: g, conf: conf, match: conf.matcher()}
	if t.match == nil && conf.OnlyList == nil {
		return errors.InvalidInput(errors.PhaseAsyncify, "no call matcher configured")
	}
	t.derive()

	roots := append([]*cfg.Block(nil), g.Roots...)
	for _, r := range roots {
		if r.IsContinuation() || !t.selected(r) {
			continue
		}
		t.function(r)
	}
	t.derive()
	return nil
}

type transformer struct {
	g     *cfg.Cfg
	conf  Config
	match Matcher
}

func (t *transformer) derive() {
	if err := t.g.Derive(); err != nil {
		panic(err)
	}
}

func (t *transformer) selected(r *cfg.Block) bool {
	if r == t.g.Root {
		return t.conf.OnlyList == nil
	}
	name := cfg.FunctionName(r)
	if t.conf.RemoveList != nil && t.conf.RemoveList.MatchFunction(name) {
		return false
	}
	if t.conf.OnlyList != nil {
		return t.conf.OnlyList.MatchFunction(name)
	}
	return true
}

func (t *transformer) function(r *cfg.Block) {
	isFn := r != t.g.Root
	name := cfg.FunctionName(r)
	calls := t.targets(r, name)
	if len(calls) == 0 && t.conf.OnlyList == nil {
		return
	}
	Logger().Debug("asyncify function",
		zap.Int("root", r.ID),
		zap.String("name", name),
		zap.Int("calls", len(calls)))

	var conts []*cfg.Block
	if len(calls) > 0 {
		if t.desugarForIn(r, calls) {
			t.derive()
		}
		for _, c := range calls {
			conts = append(conts, t.split(c))
		}
		t.derive()
		for n, c := range calls {
			for _, u := range c.Uses {
				if !conts[n].Dominates(u.Block) {
					panic(errors.Unsplittable([]string{functionLabel(name)},
						fmt.Sprintf("result of call i%d is read in block %d before its continuation runs", c.ID, u.Block.ID)))
				}
			}
		}
	}

	if isFn {
		t.rewriteExits(r)
	}

	members := t.continuationRoots(r, conts)
	names := make(map[*cfg.Block]string, len(members))
	for _, m := range members {
		names[m] = "__$fn" + strconv.Itoa(m.ID)
	}

	splitOf := make(map[*cfg.Block]*cfg.Block, len(calls))
	isCont := make(map[*cfg.Block]bool, len(conts))
	for n, c := range calls {
		cont := conts[n]
		splitOf[c.Block] = cont
		isCont[cont] = true
		t.enterContinuation(r, c, cont, isFn)
	}

	for n, c := range calls {
		t.endWithCall(r, c, conts[n], names[conts[n]])
	}
	for _, m := range members {
		for _, p := range append([]*cfg.Block(nil), m.Predecessors...) {
			if splitOf[p] == m {
				continue
			}
			t.redirect(r, p, m, names[m])
		}
	}

	for n, m := range members {
		info := &cfg.FuncInfo{Name: names[m], Decl: true, Cont: true}
		if isCont[m] {
			info.Params = []string{t.conf.ErrorName, t.conf.ResultName}
		}
		fn := t.g.Instr(cfg.KindFn)
		fn.Func = info
		fn.Fn = r
		r.Insert(n, fn)
		fn.AppendArg(m)
		m.Loop = false
		t.g.AddRoot(m, fn, r)
		Logger().Debug("continuation root",
			zap.Int("block", m.ID),
			zap.String("name", info.Name),
			zap.Bool("call", isCont[m]))
	}

	if isFn && !r.Fn.Func.HasParam(t.conf.CallbackName) {
		r.Fn.Func.Params = append(r.Fn.Func.Params, t.conf.CallbackName)
	}
}

func functionLabel(name string) string {
	if name == "" {
		return "<anonymous>"
	}
	return name
}

// targets collects the matching calls of one function body that have not
// been split yet.
func (t *transformer) targets(r *cfg.Block, fnName string) []*cfg.Instruction {
	if t.match == nil {
		return nil
	}
	var calls []*cfg.Instruction
	for _, b := range cfg.Reachable(r) {
		for _, in := range b.Instructions {
			object, name, ok := callName(in)
			if !ok || !t.match.Match(object, name) || isSplit(in) {
				continue
			}
			if b.InTry {
				panic(errors.New(errors.PhaseAsyncify, errors.KindUnsplittable).
					Path(functionLabel(fnName)).
					Node(in.Kind.String()).
					Detail("call to %s inside a try block", name).
					Build())
			}
			debugf("target %s.%s at i%d in block %d", object, name, in.ID, b.ID)
			calls = append(calls, in)
		}
	}
	return calls
}

// isSplit reports whether a call already ends its block with async-end.
func isSplit(call *cfg.Instruction) bool {
	term := call.Block.Terminator()
	return term != nil && term.Kind == cfg.KindAsyncEnd && term.Value(0) == call
}

// callName resolves the receiver path and function name of a call.
func callName(in *cfg.Instruction) (object, name string, ok bool) {
	switch in.Kind {
	case cfg.KindCall:
		callee := in.Value(0)
		if callee == nil || callee.Kind != cfg.KindGet {
			return "", "", false
		}
		return "", callee.NameArg(0), true
	case cfg.KindMethod:
		name, ok := literalString(in.Value(1))
		if !ok {
			return "", "", false
		}
		return objectPath(in.Value(0)), name, true
	}
	return "", "", false
}

func objectPath(in *cfg.Instruction) string {
	if in == nil {
		return ""
	}
	switch in.Kind {
	case cfg.KindGet:
		return in.NameArg(0)
	case cfg.KindGetProp:
		base := objectPath(in.Value(0))
		key, ok := literalString(in.Value(1))
		if base == "" || !ok {
			return ""
		}
		return base + "." + key
	}
	return ""
}

func literalString(in *cfg.Instruction) (string, bool) {
	if in == nil || in.Kind != cfg.KindLiteral || len(in.Args) == 0 {
		return "", false
	}
	lit, ok := in.Args[0].(cfg.Literal)
	if !ok {
		return "", false
	}
	s, ok := lit.Value.(string)
	return s, ok
}

// split moves everything after call into a new block that the call's
// block jumps to, and returns the new block.
func (t *transformer) split(call *cfg.Instruction) *cfg.Block {
	b := call.Block
	n := b.Index(call)
	cont := t.g.NewBlock()
	cont.InTry = b.InTry

	rest := append([]*cfg.Instruction(nil), b.Instructions[n+1:]...)
	b.Instructions = b.Instructions[:n+1]
	for _, in := range rest {
		cont.Append(in)
	}
	for _, s := range append([]*cfg.Block(nil), b.Successors...) {
		b.RemoveSuccessor(s)
		cont.AddSuccessor(s)
	}
	if b.Ended() {
		cont.End()
	}
	b.Reopen()
	b.Goto(cont)

	Logger().Debug("split",
		zap.Int("block", b.ID),
		zap.Int("continuation", cont.ID),
		zap.Int("call", call.ID))
	return cont
}

// continuationRoots returns the split points plus their iterated
// dominance frontier, in block order.
func (t *transformer) continuationRoots(r *cfg.Block, conts []*cfg.Block) []*cfg.Block {
	in := make(map[*cfg.Block]bool)
	work := append([]*cfg.Block(nil), conts...)
	for _, c := range conts {
		in[c] = true
	}
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		for _, f := range b.Frontier {
			if f != r && !in[f] {
				in[f] = true
				work = append(work, f)
			}
		}
	}
	out := make([]*cfg.Block, 0, len(in))
	for b := range in {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// rewriteExits makes every way out of a function report through the
// callback: returns become async-return and falling off the end calls
// the callback without a value.
func (t *transformer) rewriteExits(r *cfg.Block) {
	cb := cfg.Name(t.conf.CallbackName)
	for _, b := range cfg.Reachable(r) {
		term := b.Terminator()
		switch {
		case term != nil && term.Kind == cfg.KindReturn:
			args := []cfg.Operand{cb}
			if v := term.Value(0); v != nil {
				args = append(args, v)
			}
			ret := t.g.Instr(cfg.KindAsyncReturn, args...)
			ret.Fn = r
			b.Remove(term)
			b.Append(ret)
		case term == nil && len(b.Successors) == 0:
			b.Reopen()
			ret := b.Add(cfg.KindAsyncReturn, cb)
			ret.Fn = r
			b.End()
		}
	}
}

// enterContinuation starts a call continuation with the error check and
// rewires every use of the call result to the result parameter.
func (t *transformer) enterContinuation(r *cfg.Block, call *cfg.Instruction, cont *cfg.Block, isFn bool) {
	args := []cfg.Operand{cfg.Name(t.conf.ErrorName)}
	if isFn {
		args = append(args, cfg.Name(t.conf.CallbackName))
	}
	prelude := t.g.Instr(cfg.KindAsyncPrelude, args...)
	prelude.Fn = r
	cont.Insert(0, prelude)
	if len(call.Uses) > 0 {
		res := t.g.Instr(cfg.KindGet, cfg.Name(t.conf.ResultName))
		cont.Insert(1, res)
		call.ReplaceUses(res)
	}
}

// endWithCall passes the continuation to the call and makes the call the
// last thing its block does.
func (t *transformer) endWithCall(r *cfg.Block, call *cfg.Instruction, cont *cfg.Block, name string) {
	b := call.Block
	ref := t.g.Instr(cfg.KindGet, cfg.Name(name))
	b.Insert(b.Index(call), ref)
	call.AppendArg(ref)

	if term := b.Terminator(); term != nil {
		b.Remove(term)
	}
	b.RemoveSuccessor(cont)
	b.Reopen()
	end := b.Add(cfg.KindAsyncEnd, call)
	end.Fn = r
	b.End()
}

// redirect replaces the edge p -> m with a call of m's continuation
// function. Branch edges go through a fresh trampoline block.
func (t *transformer) redirect(r, p, m *cfg.Block, name string) {
	term := p.Terminator()
	if term == nil {
		panic(errors.GraphInvariant(errors.PhaseAsyncify,
			"block %d has successor %d but no terminator", p.ID, m.ID))
	}
	if term.Kind == cfg.KindGoto {
		p.Remove(term)
		p.RemoveSuccessor(m)
		p.Reopen()
		jump := p.Add(cfg.KindAsyncGoto, cfg.Name(name))
		jump.Fn = r
		p.End()
		return
	}
	tramp := t.g.NewBlock()
	tramp.InTry = p.InTry
	jump := tramp.Add(cfg.KindAsyncGoto, cfg.Name(name))
	jump.Fn = r
	tramp.End()
	term.ReplaceTarget(m, tramp)
	p.ReplaceSuccessor(m, tramp)
}
