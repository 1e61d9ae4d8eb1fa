package render

import (
	"go.uber.org/zap"

	"github.com/wippyai/spoon/ast"
	"github.com/wippyai/spoon/cfg"
	"github.com/wippyai/spoon/errors"
)

// Render derives g again and reconstructs a structured program from it.
// Continuations become function declarations of their owner; variables
// and temporaries of an owner are declared in one var statement at its
// top.
func Render(g *cfg.Cfg) (prog *ast.Program, err error) {
	defer errors.Recover(&err)
	if g.Root == nil {
		return nil, errors.InvalidInput(errors.PhaseRender, "graph has no program root")
	}
	if err := g.Derive(); err != nil {
		return nil, err
	}

	r := newRenderer(g)
	body := r.function(g.Root)
	Logger().Debug("render",
		zap.Int("roots", len(g.Roots)),
		zap.Int("temps", len(r.a.temp)),
		zap.Int("steps", r.steps))
	return &ast.Program{Body: body}, nil
}

type renderer struct {
	g *cfg.Cfg
	a *analysis

	sc    *scope
	root  *cfg.Block
	reach map[*cfg.Block]bool

	steps int
	limit int
}

// scope collects the declarations hoisted to the top of one real function
// or the program.
type scope struct {
	owner    *cfg.Block
	names    []string
	seen     map[string]bool
	decls    []ast.Statement
	declared map[*cfg.Instruction]bool
}

func (s *scope) declare(name string) {
	if name == "" || s.seen[name] {
		return
	}
	s.seen[name] = true
	s.names = append(s.names, name)
}

// ctx is the structural context a block sequence is emitted in.
type ctx struct {
	stop *cfg.Block
	loop *loop
}

type loop struct {
	header *cfg.Block
	latch  *cfg.Block
	follow *cfg.Block
	region map[*cfg.Block]bool
	// inlineLatch renders the latch at every arrival instead of a
	// continue statement.
	inlineLatch bool
}

func newRenderer(g *cfg.Cfg) *renderer {
	r := &renderer{g: g, a: newAnalysis()}
	for _, root := range g.Roots {
		for _, b := range cfg.Reachable(root) {
			r.a.block(b)
		}
	}
	r.limit = 64*len(g.Blocks()) + 64
	return r
}

// function renders the body of a real function (or the program) together
// with all of its continuations.
func (r *renderer) function(root *cfg.Block) []ast.Statement {
	saved := r.sc
	sc := &scope{
		owner:    root,
		seen:     make(map[string]bool),
		declared: make(map[*cfg.Instruction]bool),
	}
	r.sc = sc
	for _, b := range r.g.Blocks() {
		if b.Root == nil || b.Root.Owner != root {
			continue
		}
		for _, in := range b.Instructions {
			if in.Kind == cfg.KindVar {
				sc.declare(in.NameArg(0))
			}
		}
	}
	body := r.region(root)
	r.sc = saved

	n := ast.Prologue(body)
	out := append([]ast.Statement(nil), body[:n]...)
	body = body[n:]
	if len(sc.names) > 0 {
		decl := &ast.VariableDeclaration{Kind: ast.Var}
		for _, n := range sc.names {
			decl.Declarations = append(decl.Declarations, &ast.VariableDeclarator{ID: ast.Ident(n)})
		}
		out = append(out, decl)
	}
	out = append(out, sc.decls...)
	return append(out, body...)
}

// region renders the blocks of one root in the current scope.
func (r *renderer) region(root *cfg.Block) []ast.Statement {
	savedRoot, savedReach := r.root, r.reach
	r.root = root
	r.reach = make(map[*cfg.Block]bool)
	for _, b := range cfg.Reachable(root) {
		r.reach[b] = true
	}
	out := r.seq(root, ctx{})
	r.root, r.reach = savedRoot, savedReach
	return out
}

func (r *renderer) step(b *cfg.Block) {
	r.steps++
	if r.steps > r.limit {
		panic(errors.GraphInvariant(errors.PhaseRender,
			"rendering root %d does not terminate at block %d", r.root.ID, b.ID))
	}
}

// seq emits the blocks from b onward until the sequence reaches the stop
// block, leaves the function, or jumps out of the enclosing loop.
func (r *renderer) seq(b *cfg.Block, c ctx) []ast.Statement {
	var out []ast.Statement
	for b != nil {
		r.step(b)
		if b == c.stop {
			return out
		}
		if l := c.loop; l != nil {
			switch {
			case b == l.header:
				return append(out, &ast.ContinueStatement{})
			case b == l.latch && !l.inlineLatch:
				return append(out, &ast.ContinueStatement{})
			case b == l.follow:
				return append(out, &ast.BreakStatement{})
			}
		}
		if !r.reach[b] {
			panic(errors.GraphInvariant(errors.PhaseRender,
				"block %d is not part of root %d", b.ID, r.root.ID))
		}
		if b.Loop {
			out = append(out, r.loop(b)...)
			b = b.Follow
			if b == nil || !r.reach[b] {
				return out
			}
			continue
		}

		out = append(out, r.statements(b)...)
		term := b.Terminator()
		switch {
		case term == nil:
			return out
		case term.Kind == cfg.KindGoto:
			b = term.Target(0)
		case term.Kind.IsBranch():
			var stmts []ast.Statement
			stmts, b = r.branch(b, term, c)
			out = append(out, stmts...)
		default:
			return append(out, r.exit(term))
		}
	}
	return out
}

// statements renders the non-terminator instructions of b.
func (r *renderer) statements(b *cfg.Block) []ast.Statement {
	var out []ast.Statement
	for _, in := range b.Instructions {
		if in.Kind.IsTerminator() {
			continue
		}
		if s := r.statement(in); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (r *renderer) branch(b *cfg.Block, term *cfg.Instruction, c ctx) ([]ast.Statement, *cfg.Block) {
	targets := term.Targets()
	if len(targets) != 2 {
		panic(errors.GraphInvariant(errors.PhaseRender,
			"branch i%d in block %d has %d targets", term.ID, b.ID, len(targets)))
	}
	t, f := targets[0], targets[1]

	join := b.CParent
	if join != nil && (!r.reach[join] || c.loop != nil && !c.loop.region[join]) {
		join = nil
	}
	// At program level continuation calls do not leave, so an arm that
	// never reaches the join must not be followed by the join's code.
	if join != nil && r.sc.owner.Fn == nil && (!join.PostDominates(t) || !join.PostDominates(f)) {
		join = nil
	}
	arm := ctx{stop: join, loop: c.loop}
	if join == nil {
		arm.stop = c.stop
	}

	switch term.Kind {
	case cfg.KindTry:
		try := &ast.TryStatement{
			Block:   ast.Block(r.seq(t, arm)...),
			Handler: &ast.CatchClause{Body: ast.Block(r.seq(f, arm)...)},
		}
		if term.CatchParam != "" {
			try.Handler.Param = ast.Ident(term.CatchParam)
		}
		return []ast.Statement{try}, join
	case cfg.KindForIn:
		panic(errors.GraphInvariant(errors.PhaseRender,
			"for-in branch in block %d outside a loop header", b.ID))
	}

	test := r.test(term)
	cons := r.seq(t, arm)
	alt := r.seq(f, arm)
	if term.Kind == cfg.KindTernary || term.Kind == cfg.KindLogical {
		if s := r.fold(term, test, cons, alt); s != nil {
			return []ast.Statement{s}, join
		}
	}
	return ifStatement(test, cons, alt), join
}

func (r *renderer) test(term *cfg.Instruction) ast.Expression {
	cond := term.Values()[0]
	if term.Kind == cfg.KindLogical && term.NameArg(0) == "??" {
		return &ast.BinaryExpression{Operator: "!=", Left: r.expr(cond), Right: ast.Lit(nil)}
	}
	return r.expr(cond)
}

// fold turns the two phi moves of a ternary or logical expression back
// into a single assignment.
func (r *renderer) fold(term *cfg.Instruction, test ast.Expression, cons, alt []ast.Statement) ast.Statement {
	name, a, ok := phiAssign(cons)
	if !ok {
		return nil
	}
	other, b, ok := phiAssign(alt)
	if !ok || other != name {
		return nil
	}
	var v ast.Expression
	switch op := term.NameArg(0); {
	case term.Kind == cfg.KindTernary:
		v = &ast.ConditionalExpression{Test: test, Consequent: a, Alternate: b}
	case op == "&&":
		v = &ast.LogicalExpression{Operator: op, Left: r.expr(term.Values()[0]), Right: a}
	default:
		v = &ast.LogicalExpression{Operator: op, Left: r.expr(term.Values()[0]), Right: b}
	}
	return ast.Stmt(assign(ast.Ident(name), v))
}

func phiAssign(list []ast.Statement) (string, ast.Expression, bool) {
	if len(list) != 1 {
		return "", nil, false
	}
	es, ok := list[0].(*ast.ExpressionStatement)
	if !ok {
		return "", nil, false
	}
	as, ok := es.Expression.(*ast.AssignmentExpression)
	if !ok || as.Operator != "=" {
		return "", nil, false
	}
	id, ok := as.Left.(*ast.Identifier)
	if !ok || !isTemp(id.Name) {
		return "", nil, false
	}
	return id.Name, as.Right, true
}

// loop renders the loop headed by p.
func (r *renderer) loop(p *cfg.Block) []ast.Statement {
	out := r.statements(p)
	start := p.Successors[0]
	l := &loop{header: p, latch: p.Latch, follow: p.Follow}
	if l.latch != nil && !r.reach[l.latch] {
		l.latch = nil
	}
	l.region = r.loopRegion(p, l.latch)
	inner := ctx{loop: l}

	if term := start.Terminator(); term != nil && term.Kind == cfg.KindForIn && len(start.Instructions) == 1 {
		body := trimContinue(r.seq(term.Target(2), inner))
		return append(out, &ast.ForInStatement{
			Left:  ast.Ident(term.NameArg(0)),
			Right: r.expr(term.Value(1)),
			Body:  ast.Block(body...),
		})
	}
	if l.latch == nil {
		return append(out, whileLoop(nil, trimContinue(r.seq(start, inner))))
	}

	lterm := l.latch.Terminator()
	latch := r.statements(l.latch)
	switch {
	case lterm == nil:
	case lterm.Kind == cfg.KindGoto && lterm.Target(0) == p:
		if update, ok := sequence(latch); ok {
			return append(out, whileLoop(update, trimContinue(r.seq(start, inner))))
		}
	case lterm.Kind == cfg.KindWhile && lterm.Targets()[0] == p:
		if exprs, ok := sequence(latch); ok {
			test := r.expr(lterm.Values()[0])
			if exprs != nil {
				test = &ast.SequenceExpression{Expressions: []ast.Expression{exprs, test}}
			}
			body := trimContinue(r.seq(start, inner))
			return append(out, &ast.DoWhileStatement{Body: ast.Block(body...), Test: test})
		}
	}

	debugf("loop %d: latch %d rendered inline", p.ID, l.latch.ID)
	l.inlineLatch = true
	return append(out, whileLoop(nil, trimContinue(r.seq(start, inner))))
}

// loopRegion returns the blocks that reach the latch without passing
// the header.
func (r *renderer) loopRegion(p, latch *cfg.Block) map[*cfg.Block]bool {
	region := make(map[*cfg.Block]bool)
	if latch == nil {
		return region
	}
	region[latch] = true
	work := []*cfg.Block{latch}
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		for _, q := range b.Predecessors {
			if q != p && !region[q] && r.reach[q] {
				region[q] = true
				work = append(work, q)
			}
		}
	}
	return region
}

func (r *renderer) exit(term *cfg.Instruction) ast.Statement {
	switch term.Kind {
	case cfg.KindReturn:
		ret := &ast.ReturnStatement{}
		if v := term.Value(0); v != nil {
			ret.Argument = r.expr(v)
		}
		return ret
	case cfg.KindThrow:
		return &ast.ThrowStatement{Argument: r.expr(term.Value(0))}
	case cfg.KindAsyncGoto:
		return r.tail(&ast.CallExpression{Callee: ast.Ident(term.NameArg(0))})
	case cfg.KindAsyncEnd:
		return r.tail(r.expr(term.Value(0)))
	case cfg.KindAsyncReturn:
		args := []ast.Expression{ast.Lit(nil)}
		for _, v := range term.Values() {
			args = append(args, r.expr(v))
		}
		return &ast.ReturnStatement{Argument: &ast.CallExpression{
			Callee:    ast.Ident(term.NameArg(0)),
			Arguments: args,
		}}
	}
	panic(errors.GraphInvariant(errors.PhaseRender,
		"unexpected terminator %s in block %d", term.Kind, term.Block.ID))
}

// tail leaves the current function through e. At program level there
// is nothing to return from.
func (r *renderer) tail(e ast.Expression) ast.Statement {
	if r.sc.owner.Fn == nil {
		return ast.Stmt(e)
	}
	return &ast.ReturnStatement{Argument: e}
}
