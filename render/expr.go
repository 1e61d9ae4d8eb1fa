package render

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wippyai/spoon/ast"
	"github.com/wippyai/spoon/cfg"
	"github.com/wippyai/spoon/errors"
)

const tempPrefix = "__$t"

var identifierRE = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func isTemp(name string) bool {
	return strings.HasPrefix(name, tempPrefix)
}

// temp returns the temporary holding in, declaring it in the current
// scope on first use.
func (r *renderer) temp(in *cfg.Instruction) string {
	name := tempPrefix + strconv.Itoa(in.ID)
	if !r.sc.seen[name] {
		debugf("temp %s for %s in block %d", name, in.Kind, in.Block.ID)
	}
	r.sc.declare(name)
	return name
}

// statement renders a non-terminator instruction, or returns nil when it
// produces no code at its position.
func (r *renderer) statement(in *cfg.Instruction) ast.Statement {
	switch in.Kind {
	case cfg.KindVar, cfg.KindNop, cfg.KindBreak, cfg.KindContinue, cfg.KindSBreak, cfg.KindPhi:
		return nil
	case cfg.KindSet:
		return ast.Stmt(assign(ast.Ident(in.NameArg(0)), r.expr(in.Value(1))))
	case cfg.KindSetProp:
		v := in.Values()
		return ast.Stmt(assign(r.member(v[0], v[1]), r.expr(v[2])))
	case cfg.KindPhiMove:
		return ast.Stmt(assign(ast.Ident(r.temp(in.Value(1))), r.expr(in.Value(0))))
	case cfg.KindAsyncPrelude:
		e := ast.Ident(in.NameArg(0))
		var then ast.Statement = &ast.ThrowStatement{Argument: e}
		if cb := in.NameArg(1); cb != "" {
			then = &ast.ReturnStatement{Argument: &ast.CallExpression{
				Callee:    ast.Ident(cb),
				Arguments: []ast.Expression{e},
			}}
		}
		return &ast.IfStatement{Test: e, Consequent: then}
	case cfg.KindFn:
		if in.Func != nil && in.Func.Decl {
			r.declareFunction(in)
			return nil
		}
	}
	if !isValue(in.Kind) {
		panic(errors.GraphInvariant(errors.PhaseRender,
			"unexpected %s instruction i%d in block %d", in.Kind, in.ID, in.Block.ID))
	}
	switch {
	case r.a.inline[in], in.Kind == cfg.KindLiteral && len(in.Uses) > 0:
		return nil
	case r.a.temp[in]:
		return ast.Stmt(assign(ast.Ident(r.temp(in)), r.define(in)))
	}
	return ast.Stmt(r.define(in))
}

func (r *renderer) declareFunction(in *cfg.Instruction) {
	if r.sc.declared[in] {
		return
	}
	r.sc.declared[in] = true
	r.sc.decls = append(r.sc.decls, &ast.FunctionDeclaration{Function: r.functionExpression(in)})
}

// expr renders a reference to the value of in.
func (r *renderer) expr(in *cfg.Instruction) ast.Expression {
	if in == nil {
		panic(errors.GraphInvariant(errors.PhaseRender, "missing operand"))
	}
	if in.Kind == cfg.KindPhi || r.a.temp[in] {
		return ast.Ident(r.temp(in))
	}
	return r.define(in)
}

func (r *renderer) exprs(list []*cfg.Instruction) []ast.Expression {
	out := make([]ast.Expression, len(list))
	for n, in := range list {
		out[n] = r.expr(in)
	}
	return out
}

// define renders the computation of in itself.
func (r *renderer) define(in *cfg.Instruction) ast.Expression {
	v := in.Values()
	switch in.Kind {
	case cfg.KindLiteral:
		lit, _ := in.Args[0].(cfg.Literal)
		return ast.Lit(lit.Value)
	case cfg.KindGet:
		if name := in.NameArg(0); name != "this" {
			return ast.Ident(name)
		}
		return &ast.ThisExpression{}
	case cfg.KindGetProp:
		return r.member(v[0], v[1])
	case cfg.KindBinOp:
		return &ast.BinaryExpression{Operator: in.NameArg(0), Left: r.expr(v[0]), Right: r.expr(v[1])}
	case cfg.KindUnOp:
		if in.NameArg(0) == "delete" && len(v) == 2 {
			return &ast.UnaryExpression{Operator: "delete", Argument: r.member(v[0], v[1])}
		}
		return &ast.UnaryExpression{Operator: in.NameArg(0), Argument: r.expr(v[0])}
	case cfg.KindCall:
		return &ast.CallExpression{Callee: r.expr(v[0]), Arguments: r.exprs(v[1:])}
	case cfg.KindMethod:
		return &ast.CallExpression{Callee: r.member(v[0], v[1]), Arguments: r.exprs(v[2:])}
	case cfg.KindNew:
		return &ast.NewExpression{Callee: r.expr(v[0]), Arguments: r.exprs(v[1:])}
	case cfg.KindArray:
		return &ast.ArrayExpression{Elements: r.exprs(v)}
	case cfg.KindObject:
		obj := &ast.ObjectExpression{}
		for n := 0; n+1 < len(in.Args); n += 2 {
			obj.Properties = append(obj.Properties, &ast.Property{
				Key:   propertyKey(in.NameArg(n)),
				Value: r.expr(in.Value(n + 1)),
			})
		}
		return obj
	case cfg.KindFn:
		return r.functionExpression(in)
	case cfg.KindPhi:
		return ast.Ident(r.temp(in))
	}
	panic(errors.GraphInvariant(errors.PhaseRender,
		"%s instruction i%d has no value", in.Kind, in.ID))
}

func (r *renderer) functionExpression(in *cfg.Instruction) *ast.FunctionExpression {
	fe := &ast.FunctionExpression{Body: ast.Block()}
	if in.Func == nil {
		return fe
	}
	if in.Func.Name != "" {
		fe.ID = ast.Ident(in.Func.Name)
	}
	for _, p := range in.Func.Params {
		fe.Params = append(fe.Params, ast.Ident(p))
	}
	root := in.Target(0)
	switch {
	case root == nil:
	case in.Func.Cont:
		fe.Body.Body = r.region(root)
	default:
		fe.Body.Body = r.function(root)
	}
	return fe
}

// member renders obj[key], using dot syntax for identifier-like string
// keys.
func (r *renderer) member(obj, key *cfg.Instruction) *ast.MemberExpression {
	o := r.expr(obj)
	if key.Kind == cfg.KindLiteral && !r.a.temp[key] {
		if lit, ok := key.Args[0].(cfg.Literal); ok {
			if s, ok := lit.Value.(string); ok && identifierRE.MatchString(s) {
				return &ast.MemberExpression{Object: o, Property: ast.Ident(s)}
			}
		}
	}
	return &ast.MemberExpression{Object: o, Property: r.expr(key), Computed: true}
}

func propertyKey(name string) ast.Expression {
	if identifierRE.MatchString(name) {
		return ast.Ident(name)
	}
	return ast.Lit(name)
}

func assign(target, value ast.Expression) *ast.AssignmentExpression {
	return &ast.AssignmentExpression{Operator: "=", Left: target, Right: value}
}

// negate returns the logical negation of e, unwrapping a leading ! and
// flipping equality operators.
func negate(e ast.Expression) ast.Expression {
	switch e := e.(type) {
	case *ast.UnaryExpression:
		if e.Operator == "!" {
			return e.Argument
		}
	case *ast.BinaryExpression:
		flip := map[string]string{"==": "!=", "!=": "==", "===": "!==", "!==": "==="}
		if op, ok := flip[e.Operator]; ok {
			return &ast.BinaryExpression{Operator: op, Left: e.Left, Right: e.Right}
		}
	}
	return &ast.UnaryExpression{Operator: "!", Argument: e}
}

func isJump(s ast.Statement) bool {
	switch s.(type) {
	case *ast.BreakStatement, *ast.ContinueStatement, *ast.ReturnStatement, *ast.ThrowStatement:
		return true
	}
	return false
}

// ifStatement builds the conditional for a two-way branch. An arm that
// ends in a jump lets the other arm follow the if instead of nesting in
// an else.
func ifStatement(test ast.Expression, cons, alt []ast.Statement) []ast.Statement {
	switch {
	case len(cons) == 0 && len(alt) == 0:
		if _, ok := test.(*ast.Identifier); ok {
			return nil
		}
		return []ast.Statement{ast.Stmt(test)}
	case len(cons) == 0:
		return []ast.Statement{&ast.IfStatement{Test: negate(test), Consequent: ast.Block(alt...)}}
	case len(alt) == 0:
		return []ast.Statement{&ast.IfStatement{Test: test, Consequent: ast.Block(cons...)}}
	case len(alt) == 1 && isJump(alt[0]):
		out := []ast.Statement{&ast.IfStatement{Test: negate(test), Consequent: ast.Block(alt...)}}
		return append(out, cons...)
	case isJump(cons[len(cons)-1]):
		out := []ast.Statement{&ast.IfStatement{Test: test, Consequent: ast.Block(cons...)}}
		return append(out, alt...)
	}
	return []ast.Statement{&ast.IfStatement{
		Test:       test,
		Consequent: ast.Block(cons...),
		Alternate:  ast.Block(alt...),
	}}
}

// whileLoop builds while (or for, with an update) from a body, lifting a
// leading "if (!c) break" into the loop test.
func whileLoop(update ast.Expression, body []ast.Statement) ast.Statement {
	var test ast.Expression
	if len(body) > 0 {
		if cond, ok := breakUnless(body[0]); ok {
			test = cond
			body = body[1:]
		}
	}
	if update != nil {
		return &ast.ForStatement{Test: test, Update: update, Body: ast.Block(body...)}
	}
	if test == nil {
		test = ast.Lit(true)
	}
	return &ast.WhileStatement{Test: test, Body: ast.Block(body...)}
}

func breakUnless(s ast.Statement) (ast.Expression, bool) {
	is, ok := s.(*ast.IfStatement)
	if !ok || is.Alternate != nil {
		return nil, false
	}
	then := is.Consequent
	if b, ok := then.(*ast.BlockStatement); ok {
		if len(b.Body) != 1 {
			return nil, false
		}
		then = b.Body[0]
	}
	if br, ok := then.(*ast.BreakStatement); !ok || br.Label != nil {
		return nil, false
	}
	return negate(is.Test), true
}

// sequence joins expression statements into one expression. It reports
// false if any statement is not an expression statement.
func sequence(list []ast.Statement) (ast.Expression, bool) {
	var exprs []ast.Expression
	for _, s := range list {
		es, ok := s.(*ast.ExpressionStatement)
		if !ok {
			return nil, false
		}
		exprs = append(exprs, es.Expression)
	}
	switch len(exprs) {
	case 0:
		return nil, true
	case 1:
		return exprs[0], true
	}
	return &ast.SequenceExpression{Expressions: exprs}, true
}

// trimContinue drops continue statements that end a loop body, looking
// into trailing conditionals and try statements.
func trimContinue(list []ast.Statement) []ast.Statement {
	if len(list) == 0 {
		return list
	}
	switch s := list[len(list)-1].(type) {
	case *ast.ContinueStatement:
		if s.Label == nil {
			return trimContinue(list[:len(list)-1])
		}
	case *ast.IfStatement:
		trimBranch(s.Consequent)
		trimBranch(s.Alternate)
	case *ast.TryStatement:
		s.Block.Body = trimContinue(s.Block.Body)
		if s.Handler != nil {
			s.Handler.Body.Body = trimContinue(s.Handler.Body.Body)
		}
	}
	return list
}

func trimBranch(s ast.Statement) {
	switch s := s.(type) {
	case *ast.BlockStatement:
		s.Body = trimContinue(s.Body)
	case *ast.IfStatement:
		trimBranch(s.Consequent)
		trimBranch(s.Alternate)
	}
}
