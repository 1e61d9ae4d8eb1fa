package cfg

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/spoon/ast"
	"github.com/wippyai/spoon/errors"
)

// builder carries the construction cursor for one Translate call.
type builder struct {
	c       *Cfg
	root    *Block
	current *Block
	brk     *breakInfo
	queue   []pending
	inTry   int
	decls   int
}

// breakInfo collects the blocks ending in break or continue inside the
// innermost loop.
type breakInfo struct {
	breaks    []*Block
	continues []*Block
}

// pending is a function literal whose body has not been lowered yet.
type pending struct {
	fn   *Instruction
	body *ast.BlockStatement
}

// Translate lowers prog into the graph. Nested function bodies are queued
// as they are discovered and lowered into their own roots afterwards. It
// may be called once per Cfg.
func (c *Cfg) Translate(prog *ast.Program) (err error) {
	defer errors.Recover(&err)
	c.checkTranslated()

	b := &builder{c: c}
	c.Root = c.NewRoot(nil)
	b.enter(c.Root)
	b.statements(prog.Body)

	for len(b.queue) > 0 {
		p := b.queue[0]
		b.queue = b.queue[1:]
		r := c.NewRoot(p.fn)
		p.fn.AppendArg(r)
		Logger().Debug("translate function",
			zap.String("name", p.fn.Func.Name),
			zap.Int("root", r.ID))
		b.enter(r)
		b.statements(p.body.Body)
	}
	debugf("translated %d roots, %d blocks", len(c.Roots), len(c.blocks))
	return nil
}

func (b *builder) enter(root *Block) {
	b.root = root
	b.current = root
	b.brk = nil
	b.inTry = 0
	b.decls = 0
}

func (b *builder) newBlock() *Block {
	n := b.c.NewBlock()
	n.Root = b.root
	n.InTry = b.inTry > 0
	return n
}

// dead returns a fresh ended block that absorbs code after a terminator.
func (b *builder) dead() *Block {
	n := b.newBlock()
	n.End()
	return n
}

func (b *builder) add(kind Kind, args ...Operand) *Instruction {
	return b.current.Add(kind, args...)
}

func (b *builder) literal(v any) *Instruction {
	return b.add(KindLiteral, Literal{Value: v})
}

func unsupported(n ast.Node) *errors.Error {
	return errors.Unsupported(errors.PhaseConstruct, ast.KindOf(n))
}

func (b *builder) statements(list []ast.Statement) {
	for _, s := range list {
		b.statement(s)
	}
}

func (b *builder) statement(s ast.Statement) {
	switch s := s.(type) {
	case *ast.BlockStatement:
		b.statements(s.Body)
	case *ast.EmptyStatement:
	case *ast.ExpressionStatement:
		if u, ok := s.Expression.(*ast.UpdateExpression); ok {
			b.updateStatement(u)
			return
		}
		b.expression(s.Expression)
	case *ast.VariableDeclaration:
		b.declaration(s)
	case *ast.FunctionDeclaration:
		b.function(s.Function, true)
	case *ast.ReturnStatement:
		var args []Operand
		if s.Argument != nil {
			args = append(args, b.expression(s.Argument))
		}
		b.add(KindReturn, args...)
		b.current.End()
		b.current = b.dead()
	case *ast.ThrowStatement:
		v := b.expression(s.Argument)
		b.add(KindThrow, v)
		b.current.End()
		b.current = b.dead()
	case *ast.IfStatement:
		b.ifStatement(s)
	case *ast.WhileStatement:
		b.loop(s.Test, nil, s.Body)
	case *ast.ForStatement:
		switch init := s.Init.(type) {
		case nil:
		case *ast.VariableDeclaration:
			b.declaration(init)
		case ast.Expression:
			b.expression(init)
		default:
			panic(unsupported(init))
		}
		b.loop(s.Test, s.Update, s.Body)
	case *ast.DoWhileStatement:
		b.doWhile(s)
	case *ast.ForInStatement:
		b.forIn(s)
	case *ast.BreakStatement:
		b.jump(s, s.Label, KindBreak)
	case *ast.ContinueStatement:
		b.jump(s, s.Label, KindContinue)
	case *ast.TryStatement:
		b.try(s)
	case *ast.SwitchStatement:
		panic(errors.New(errors.PhaseConstruct, errors.KindUnsupported).
			Node("SwitchStatement").
			Detail("switch statements are not lowered").
			Build())
	default:
		panic(unsupported(s))
	}
}

func (b *builder) declaration(d *ast.VariableDeclaration) {
	if d.Kind != ast.Var {
		panic(errors.Unsupported(errors.PhaseConstruct, d.Kind+" declaration"))
	}
	for _, decl := range d.Declarations {
		id, ok := decl.ID.(*ast.Identifier)
		if !ok {
			panic(unsupported(decl.ID))
		}
		b.add(KindVar, Name(id.Name))
		if decl.Init != nil {
			v := b.expression(decl.Init)
			b.add(KindSet, Name(id.Name), v)
		}
	}
}

func (b *builder) ifStatement(s *ast.IfStatement) {
	cond := b.expression(s.Test)
	t := b.newBlock()
	join := b.newBlock()
	f := join
	if s.Alternate != nil {
		f = b.newBlock()
	}
	b.current.Branch(KindIf, t, f, cond)

	b.current = t
	b.statement(s.Consequent)
	b.current.Goto(join)

	if s.Alternate != nil {
		b.current = f
		b.statement(s.Alternate)
		b.current.Goto(join)
	}
	b.current = join
}

// chain links from and every block in srcs into a ladder of fresh join
// blocks, keeping each join at two predecessors, and returns the last.
func (b *builder) chain(from *Block, srcs []*Block) *Block {
	cur := from
	for _, src := range srcs {
		k := b.newBlock()
		cur.Goto(k)
		src.Goto(k)
		cur = k
	}
	return cur
}

// loop lowers while and for loops into the pre-header, start, body, end
// and follow skeleton.
func (b *builder) loop(test, update ast.Expression, body ast.Statement) {
	pre := b.newBlock()
	pre.Loop = true
	b.current.Goto(pre)

	start := b.newBlock()
	pre.Goto(start)
	b.current = start

	var cond *Instruction
	if test != nil {
		cond = b.expression(test)
	} else {
		cond = b.literal(true)
	}
	bodyBlock := b.newBlock()
	end := b.newBlock()
	b.current.Branch(KindWhile, bodyBlock, end, cond)

	info := b.body(bodyBlock, body)

	latch := b.newBlock()
	b.chain(b.current, info.continues).Goto(latch)
	b.current = latch
	if update != nil {
		if u, ok := update.(*ast.UpdateExpression); ok {
			b.update(u, true)
		} else {
			b.expression(update)
		}
	}
	b.current.Goto(pre)

	b.finishLoop(pre, latch, end, info)
}

func (b *builder) doWhile(s *ast.DoWhileStatement) {
	pre := b.newBlock()
	pre.Loop = true
	b.current.Goto(pre)

	bodyBlock := b.newBlock()
	pre.Goto(bodyBlock)
	info := b.body(bodyBlock, s.Body)

	latch := b.newBlock()
	b.chain(b.current, info.continues).Goto(latch)
	b.current = latch
	cond := b.expression(s.Test)
	end := b.newBlock()
	b.current.Branch(KindWhile, pre, end, cond)

	b.finishLoop(pre, latch, end, info)
}

func (b *builder) forIn(s *ast.ForInStatement) {
	var key string
	switch left := s.Left.(type) {
	case *ast.VariableDeclaration:
		if left.Kind != ast.Var {
			panic(errors.Unsupported(errors.PhaseConstruct, left.Kind+" declaration"))
		}
		if len(left.Declarations) != 1 || left.Declarations[0].Init != nil {
			panic(errors.Unsupported(errors.PhaseConstruct, "for-in declaration list"))
		}
		id, ok := left.Declarations[0].ID.(*ast.Identifier)
		if !ok {
			panic(unsupported(left.Declarations[0].ID))
		}
		b.add(KindVar, Name(id.Name))
		key = id.Name
	case *ast.Identifier:
		key = left.Name
	default:
		panic(errors.New(errors.PhaseConstruct, errors.KindUnsupported).
			Node(ast.KindOf(left)).
			Detail("for-in target must be an identifier").
			Build())
	}

	obj := b.expression(s.Right)
	pre := b.newBlock()
	pre.Loop = true
	b.current.Goto(pre)

	start := b.newBlock()
	pre.Goto(start)
	bodyBlock := b.newBlock()
	end := b.newBlock()
	start.Branch(KindForIn, bodyBlock, end, Name(key), obj)

	info := b.body(bodyBlock, s.Body)

	latch := b.newBlock()
	b.chain(b.current, info.continues).Goto(latch)
	latch.Goto(pre)

	b.finishLoop(pre, latch, end, info)
}

// body lowers a loop body with a fresh break frame and returns the frame.
func (b *builder) body(entry *Block, body ast.Statement) *breakInfo {
	saved := b.brk
	info := &breakInfo{}
	b.brk = info
	b.current = entry
	b.statement(body)
	b.brk = saved
	return info
}

func (b *builder) finishLoop(pre, latch, end *Block, info *breakInfo) {
	follow := b.newBlock()
	b.chain(end, info.breaks).Goto(follow)
	pre.Latch = latch
	pre.Follow = follow
	b.current = follow
}

func (b *builder) jump(s ast.Statement, label *ast.Identifier, kind Kind) {
	if label != nil {
		panic(errors.Unsupported(errors.PhaseConstruct, "labeled "+kind.String()))
	}
	if b.brk == nil {
		panic(errors.New(errors.PhaseConstruct, errors.KindInvalidInput).
			Node(ast.KindOf(s)).
			Detail("%s outside of a loop", kind).
			Build())
	}
	b.add(kind)
	if kind == KindBreak {
		b.brk.breaks = append(b.brk.breaks, b.current)
	} else {
		b.brk.continues = append(b.brk.continues, b.current)
	}
	b.current = b.dead()
}

func (b *builder) try(s *ast.TryStatement) {
	if s.Finalizer != nil {
		panic(errors.Unsupported(errors.PhaseConstruct, "finally"))
	}
	if s.Handler == nil {
		panic(errors.Unsupported(errors.PhaseConstruct, "try without catch"))
	}
	join := b.newBlock()
	b.inTry++
	body := b.newBlock()
	b.inTry--
	catch := b.newBlock()

	in := b.current.Branch(KindTry, body, catch)
	if s.Handler.Param != nil {
		in.CatchParam = s.Handler.Param.Name
	}

	b.inTry++
	b.current = body
	b.statements(s.Block.Body)
	b.current.Goto(join)
	b.inTry--

	b.current = catch
	b.statements(s.Handler.Body.Body)
	b.current.Goto(join)
	b.current = join
}

func (b *builder) function(fn *ast.FunctionExpression, decl bool) *Instruction {
	if fn.Generator {
		panic(errors.Unsupported(errors.PhaseConstruct, "generator function"))
	}
	if fn.Async {
		panic(errors.Unsupported(errors.PhaseConstruct, "async function"))
	}
	info := &FuncInfo{Decl: decl}
	if fn.ID != nil {
		info.Name = fn.ID.Name
	}
	for _, p := range fn.Params {
		info.Params = append(info.Params, p.Name)
	}
	var in *Instruction
	if decl {
		// Declarations are hoisted, so they are lowered at the top of
		// the enclosing body even when they follow a return.
		in = b.c.Instr(KindFn)
		b.root.Insert(b.decls, in)
		b.decls++
	} else {
		in = b.add(KindFn)
	}
	in.Func = info
	if !in.Inert() {
		b.queue = append(b.queue, pending{fn: in, body: fn.Body})
	}
	return in
}

// expression lowers e and returns the instruction holding its value.
func (b *builder) expression(e ast.Expression) *Instruction {
	switch e := e.(type) {
	case *ast.Identifier:
		return b.add(KindGet, Name(e.Name))
	case *ast.ThisExpression:
		return b.add(KindGet, Name("this"))
	case *ast.Literal:
		return b.literal(e.Value)
	case *ast.ArrayExpression:
		args := make([]Operand, 0, len(e.Elements))
		for _, el := range e.Elements {
			if el == nil {
				panic(errors.Unsupported(errors.PhaseConstruct, "array hole"))
			}
			args = append(args, b.expression(el))
		}
		return b.add(KindArray, args...)
	case *ast.ObjectExpression:
		args := make([]Operand, 0, 2*len(e.Properties))
		for _, p := range e.Properties {
			args = append(args, Name(propertyKey(p)), b.expression(p.Value))
		}
		return b.add(KindObject, args...)
	case *ast.FunctionExpression:
		return b.function(e, false)
	case *ast.UnaryExpression:
		return b.unary(e)
	case *ast.UpdateExpression:
		return b.update(e, false)
	case *ast.BinaryExpression:
		l := b.expression(e.Left)
		r := b.expression(e.Right)
		return b.add(KindBinOp, Name(e.Operator), l, r)
	case *ast.LogicalExpression:
		return b.logical(e)
	case *ast.ConditionalExpression:
		return b.conditional(e)
	case *ast.AssignmentExpression:
		return b.assignment(e)
	case *ast.CallExpression:
		return b.call(e)
	case *ast.NewExpression:
		callee := b.expression(e.Callee)
		args := []Operand{callee}
		for _, a := range e.Arguments {
			args = append(args, b.expression(a))
		}
		return b.add(KindNew, args...)
	case *ast.MemberExpression:
		obj := b.expression(e.Object)
		key := b.memberKey(e)
		return b.add(KindGetProp, obj, key)
	case *ast.SequenceExpression:
		var last *Instruction
		for _, x := range e.Expressions {
			last = b.expression(x)
		}
		return last
	default:
		panic(unsupported(e))
	}
}

func propertyKey(p *ast.Property) string {
	if p.Computed {
		panic(errors.Unsupported(errors.PhaseConstruct, "computed property key"))
	}
	switch k := p.Key.(type) {
	case *ast.Identifier:
		return k.Name
	case *ast.Literal:
		switch v := k.Value.(type) {
		case string:
			return v
		case int64:
			return strconv.FormatInt(v, 10)
		case float64:
			return strconv.FormatFloat(v, 'g', -1, 64)
		}
	}
	panic(unsupported(p.Key))
}

func (b *builder) memberKey(m *ast.MemberExpression) *Instruction {
	if !m.Computed {
		id, ok := m.Property.(*ast.Identifier)
		if !ok {
			panic(unsupported(m.Property))
		}
		return b.literal(id.Name)
	}
	return b.expression(m.Property)
}

func (b *builder) unary(e *ast.UnaryExpression) *Instruction {
	if e.Operator == "delete" {
		if m, ok := e.Argument.(*ast.MemberExpression); ok {
			obj := b.expression(m.Object)
			key := b.memberKey(m)
			return b.add(KindUnOp, Name("delete"), obj, key)
		}
	}
	v := b.expression(e.Argument)
	return b.add(KindUnOp, Name(e.Operator), v)
}

// reference is a resolved assignment target.
type reference struct {
	name     string
	obj, key *Instruction
}

func (b *builder) reference(target ast.Expression) reference {
	switch t := target.(type) {
	case *ast.Identifier:
		return reference{name: t.Name}
	case *ast.MemberExpression:
		obj := b.expression(t.Object)
		return reference{obj: obj, key: b.memberKey(t)}
	case *ast.Unsupported:
		panic(unsupported(t))
	default:
		panic(errors.MalformedLValue(ast.KindOf(target)))
	}
}

func (b *builder) load(ref reference) *Instruction {
	if ref.obj != nil {
		return b.add(KindGetProp, ref.obj, ref.key)
	}
	return b.add(KindGet, Name(ref.name))
}

func (b *builder) store(ref reference, v *Instruction) {
	if ref.obj != nil {
		b.add(KindSetProp, ref.obj, ref.key, v)
		return
	}
	b.add(KindSet, Name(ref.name), v)
}

func (b *builder) assignment(e *ast.AssignmentExpression) *Instruction {
	ref := b.reference(e.Left)
	if e.Operator == "=" {
		v := b.expression(e.Right)
		b.store(ref, v)
		return v
	}
	op, ok := compoundOperator(e.Operator)
	if !ok {
		panic(errors.Unsupported(errors.PhaseConstruct, "assignment operator "+e.Operator))
	}
	old := b.load(ref)
	r := b.expression(e.Right)
	v := b.add(KindBinOp, Name(op), old, r)
	b.store(ref, v)
	return v
}

func compoundOperator(op string) (string, bool) {
	switch op {
	case "+=", "-=", "*=", "/=", "%=", "**=", "<<=", ">>=", ">>>=", "&=", "|=", "^=":
		return op[:len(op)-1], true
	}
	return "", false
}

// update lowers ++ and --. In statement position, or for prefix forms,
// the stored value is the result; postfix forms yield the old value
// converted to a number.
func (b *builder) update(e *ast.UpdateExpression, statement bool) *Instruction {
	ref := b.reference(e.Argument)
	op := "+"
	if e.Operator == "--" {
		op = "-"
	}
	old := b.load(ref)
	if e.Prefix || statement {
		v := b.add(KindBinOp, Name(op), old, b.literal(int64(1)))
		b.store(ref, v)
		return v
	}
	num := b.add(KindUnOp, Name("+"), old)
	v := b.add(KindBinOp, Name(op), num, b.literal(int64(1)))
	b.store(ref, v)
	return num
}

// updateStatement lowers an update used as a statement. Function bodies
// have no completion value, so only the store matters there. At program
// level a postfix update re-reads the old value after the store so that
// it stays the statement's completion value.
func (b *builder) updateStatement(e *ast.UpdateExpression) {
	if e.Prefix || b.root != b.c.Root {
		b.update(e, true)
		return
	}
	num := b.update(e, false)
	b.add(KindUnOp, Name("+"), num)
}

// logical lowers &&, || and ??. The right operand is evaluated in its own
// block; the other arm moves the left value into the join's phi.
func (b *builder) logical(e *ast.LogicalExpression) *Instruction {
	switch e.Operator {
	case "&&", "||", "??":
	default:
		panic(errors.Unsupported(errors.PhaseConstruct, "logical operator "+e.Operator))
	}
	left := b.expression(e.Left)
	join := b.newBlock()
	phi := join.Add(KindPhi)
	rhs := b.newBlock()
	skip := b.newBlock()

	t, f := rhs, skip
	if e.Operator != "&&" {
		t, f = skip, rhs
	}
	b.current.Branch(KindLogical, t, f, Name(e.Operator), left)

	b.current = rhs
	r := b.expression(e.Right)
	b.add(KindPhiMove, r, phi)
	b.current.Goto(join)

	b.current = skip
	b.add(KindPhiMove, left, phi)
	b.current.Goto(join)

	b.current = join
	return phi
}

func (b *builder) conditional(e *ast.ConditionalExpression) *Instruction {
	cond := b.expression(e.Test)
	join := b.newBlock()
	phi := join.Add(KindPhi)
	t := b.newBlock()
	f := b.newBlock()
	b.current.Branch(KindTernary, t, f, cond)

	b.current = t
	v := b.expression(e.Consequent)
	b.add(KindPhiMove, v, phi)
	b.current.Goto(join)

	b.current = f
	v = b.expression(e.Alternate)
	b.add(KindPhiMove, v, phi)
	b.current.Goto(join)

	b.current = join
	return phi
}

func (b *builder) call(e *ast.CallExpression) *Instruction {
	if m, ok := e.Callee.(*ast.MemberExpression); ok {
		obj := b.expression(m.Object)
		key := b.memberKey(m)
		args := []Operand{obj, key}
		for _, a := range e.Arguments {
			args = append(args, b.expression(a))
		}
		return b.add(KindMethod, args...)
	}
	callee := b.expression(e.Callee)
	args := []Operand{callee}
	for _, a := range e.Arguments {
		args = append(args, b.expression(a))
	}
	return b.add(KindCall, args...)
}
