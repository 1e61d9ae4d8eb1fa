package parser

import (
	"fmt"
	"math/big"

	js "github.com/dop251/goja/ast"
	goparser "github.com/dop251/goja/parser"
	"github.com/dop251/goja/token"

	"github.com/wippyai/spoon/ast"
	"github.com/wippyai/spoon/errors"
)

// Parse parses a script.
func Parse(src string) (*ast.Program, error) {
	prog, err := goparser.ParseFile(nil, "", src, 0)
	if err != nil {
		return nil, errors.ParseFailed("script", err)
	}
	return Convert(prog), nil
}

// Convert maps a goja program onto the ast vocabulary.
func Convert(prog *js.Program) *ast.Program {
	return &ast.Program{Body: statements(prog.Body)}
}

// Range is a half-open byte range of the source.
type Range struct {
	Start, End int
}

// Declaration finds the first function declaration, at any depth of the
// top-level statement list, whose body starts with the pragma directive.
// It returns the converted declaration and its byte range in src.
func Declaration(src, pragma string) (*ast.FunctionDeclaration, Range, error) {
	prog, err := goparser.ParseFile(nil, "", src, 0)
	if err != nil {
		return nil, Range{}, errors.ParseFailed("script", err)
	}
	fn := findDeclaration(prog.Body, pragma)
	if fn == nil {
		return nil, Range{}, errors.NotFound(errors.PhaseParse, "function with directive", pragma)
	}
	return &ast.FunctionDeclaration{Function: function(fn.Function)}, span(fn), nil
}

func span(n js.Node) Range {
	// goja positions are 1-based.
	return Range{Start: int(n.Idx0()) - 1, End: int(n.Idx1()) - 1}
}

func findDeclaration(list []js.Statement, pragma string) *js.FunctionDeclaration {
	for _, s := range list {
		switch s := s.(type) {
		case *js.FunctionDeclaration:
			if hasDirective(s.Function.Body, pragma) {
				return s
			}
		case *js.BlockStatement:
			if fn := findDeclaration(s.List, pragma); fn != nil {
				return fn
			}
		}
	}
	return nil
}

func hasDirective(body *js.BlockStatement, pragma string) bool {
	for _, s := range body.List {
		es, ok := s.(*js.ExpressionStatement)
		if !ok {
			return false
		}
		lit, ok := es.Expression.(*js.StringLiteral)
		if !ok {
			return false
		}
		if lit.Value.String() == pragma {
			return true
		}
	}
	return false
}

func unsupported(n js.Node) *ast.Unsupported {
	name := fmt.Sprintf("%T", n)
	if len(name) > 5 && name[:5] == "*ast." {
		name = name[5:]
	}
	return &ast.Unsupported{What: name}
}

func statements(list []js.Statement) []ast.Statement {
	out := make([]ast.Statement, 0, len(list))
	for _, s := range list {
		out = append(out, statement(s))
	}
	return out
}

func block(b *js.BlockStatement) *ast.BlockStatement {
	if b == nil {
		return nil
	}
	return &ast.BlockStatement{Body: statements(b.List)}
}

func statement(s js.Statement) ast.Statement {
	switch s := s.(type) {
	case *js.BlockStatement:
		return block(s)
	case *js.EmptyStatement:
		return &ast.EmptyStatement{}
	case *js.ExpressionStatement:
		return &ast.ExpressionStatement{Expression: expression(s.Expression)}
	case *js.VariableStatement:
		return declaration(ast.Var, s.List)
	case *js.LexicalDeclaration:
		kind := ast.Let
		if s.Token == token.CONST {
			kind = ast.Const
		}
		return declaration(kind, s.List)
	case *js.FunctionDeclaration:
		return &ast.FunctionDeclaration{Function: function(s.Function)}
	case *js.ReturnStatement:
		return &ast.ReturnStatement{Argument: optional(s.Argument)}
	case *js.ThrowStatement:
		return &ast.ThrowStatement{Argument: expression(s.Argument)}
	case *js.IfStatement:
		out := &ast.IfStatement{Test: expression(s.Test), Consequent: statement(s.Consequent)}
		if s.Alternate != nil {
			out.Alternate = statement(s.Alternate)
		}
		return out
	case *js.WhileStatement:
		return &ast.WhileStatement{Test: expression(s.Test), Body: statement(s.Body)}
	case *js.DoWhileStatement:
		return &ast.DoWhileStatement{Body: statement(s.Body), Test: expression(s.Test)}
	case *js.ForStatement:
		return forStatement(s)
	case *js.ForInStatement:
		out := &ast.ForInStatement{Right: expression(s.Source), Body: statement(s.Body)}
		switch into := s.Into.(type) {
		case *js.ForIntoVar:
			out.Left = declaration(ast.Var, []*js.Binding{into.Binding})
		case *js.ForIntoExpression:
			out.Left = expression(into.Expression)
		default:
			out.Left = unsupported(into)
		}
		return out
	case *js.BranchStatement:
		var label *ast.Identifier
		if s.Label != nil {
			label = ast.Ident(s.Label.Name.String())
		}
		if s.Token == token.CONTINUE {
			return &ast.ContinueStatement{Label: label}
		}
		return &ast.BreakStatement{Label: label}
	case *js.TryStatement:
		out := &ast.TryStatement{Block: block(s.Body), Finalizer: block(s.Finally)}
		if s.Catch != nil {
			out.Handler = &ast.CatchClause{Body: block(s.Catch.Body)}
			switch p := s.Catch.Parameter.(type) {
			case nil:
			case *js.Identifier:
				out.Handler.Param = ast.Ident(p.Name.String())
			default:
				return unsupported(p)
			}
		}
		return out
	case *js.SwitchStatement:
		out := &ast.SwitchStatement{Discriminant: expression(s.Discriminant)}
		for _, c := range s.Body {
			out.Cases = append(out.Cases, &ast.SwitchCase{
				Test:       optional(c.Test),
				Consequent: statements(c.Consequent),
			})
		}
		return out
	}
	return unsupported(s)
}

func declaration(kind string, list []*js.Binding) *ast.VariableDeclaration {
	out := &ast.VariableDeclaration{Kind: kind}
	for _, b := range list {
		out.Declarations = append(out.Declarations, &ast.VariableDeclarator{
			ID:   target(b.Target),
			Init: optional(b.Initializer),
		})
	}
	return out
}

func target(t js.BindingTarget) ast.Expression {
	if id, ok := t.(*js.Identifier); ok {
		return ast.Ident(id.Name.String())
	}
	return unsupported(t)
}

func forStatement(s *js.ForStatement) ast.Statement {
	out := &ast.ForStatement{
		Test:   optional(s.Test),
		Update: optional(s.Update),
		Body:   statement(s.Body),
	}
	switch init := s.Initializer.(type) {
	case nil:
	case *js.ForLoopInitializerExpression:
		out.Init = expression(init.Expression)
	case *js.ForLoopInitializerVarDeclList:
		out.Init = declaration(ast.Var, init.List)
	case *js.ForLoopInitializerLexicalDecl:
		kind := ast.Let
		if init.LexicalDeclaration.Token == token.CONST {
			kind = ast.Const
		}
		out.Init = declaration(kind, init.LexicalDeclaration.List)
	default:
		out.Init = unsupported(init)
	}
	return out
}

func optional(e js.Expression) ast.Expression {
	if e == nil {
		return nil
	}
	return expression(e)
}

func expressions(list []js.Expression) []ast.Expression {
	out := make([]ast.Expression, 0, len(list))
	for _, e := range list {
		out = append(out, expression(e))
	}
	return out
}

func function(fn *js.FunctionLiteral) *ast.FunctionExpression {
	out := &ast.FunctionExpression{
		Body:      block(fn.Body),
		Generator: fn.Generator,
		Async:     fn.Async,
	}
	if fn.Name != nil {
		out.ID = ast.Ident(fn.Name.Name.String())
	}
	if fn.ParameterList == nil {
		return out
	}
	for _, p := range fn.ParameterList.List {
		id, ok := p.Target.(*js.Identifier)
		if !ok || p.Initializer != nil {
			out.Body = ast.Block(&ast.Unsupported{What: "destructuring or default parameter"})
			return out
		}
		out.Params = append(out.Params, ast.Ident(id.Name.String()))
	}
	if fn.ParameterList.Rest != nil {
		out.Body = ast.Block(&ast.Unsupported{What: "rest parameter"})
	}
	return out
}

func expression(e js.Expression) ast.Expression {
	switch e := e.(type) {
	case *js.Identifier:
		return ast.Ident(e.Name.String())
	case *js.ThisExpression:
		return &ast.ThisExpression{}
	case *js.NullLiteral:
		return ast.Lit(nil)
	case *js.BooleanLiteral:
		return ast.Lit(e.Value)
	case *js.StringLiteral:
		return ast.Lit(e.Value.String())
	case *js.NumberLiteral:
		return number(e)
	case *js.ArrayLiteral:
		out := &ast.ArrayExpression{}
		for _, el := range e.Value {
			if el == nil {
				out.Elements = append(out.Elements, nil)
				continue
			}
			out.Elements = append(out.Elements, expression(el))
		}
		return out
	case *js.ObjectLiteral:
		return object(e)
	case *js.FunctionLiteral:
		return function(e)
	case *js.UnaryExpression:
		switch e.Operator {
		case token.INCREMENT, token.DECREMENT:
			return &ast.UpdateExpression{
				Operator: e.Operator.String(),
				Prefix:   !e.Postfix,
				Argument: expression(e.Operand),
			}
		}
		return &ast.UnaryExpression{Operator: e.Operator.String(), Argument: expression(e.Operand)}
	case *js.BinaryExpression:
		switch e.Operator {
		case token.LOGICAL_AND, token.LOGICAL_OR, token.COALESCE:
			return &ast.LogicalExpression{
				Operator: e.Operator.String(),
				Left:     expression(e.Left),
				Right:    expression(e.Right),
			}
		}
		return &ast.BinaryExpression{
			Operator: e.Operator.String(),
			Left:     expression(e.Left),
			Right:    expression(e.Right),
		}
	case *js.AssignExpression:
		op := "="
		if e.Operator != token.ASSIGN {
			op = e.Operator.String() + "="
		}
		return &ast.AssignmentExpression{Operator: op, Left: expression(e.Left), Right: expression(e.Right)}
	case *js.ConditionalExpression:
		return &ast.ConditionalExpression{
			Test:       expression(e.Test),
			Consequent: expression(e.Consequent),
			Alternate:  expression(e.Alternate),
		}
	case *js.CallExpression:
		return &ast.CallExpression{Callee: expression(e.Callee), Arguments: expressions(e.ArgumentList)}
	case *js.NewExpression:
		return &ast.NewExpression{Callee: expression(e.Callee), Arguments: expressions(e.ArgumentList)}
	case *js.DotExpression:
		return &ast.MemberExpression{
			Object:   expression(e.Left),
			Property: ast.Ident(e.Identifier.Name.String()),
		}
	case *js.BracketExpression:
		return &ast.MemberExpression{
			Object:   expression(e.Left),
			Property: expression(e.Member),
			Computed: true,
		}
	case *js.SequenceExpression:
		return &ast.SequenceExpression{Expressions: expressions(e.Sequence)}
	}
	return unsupported(e)
}

func number(e *js.NumberLiteral) ast.Expression {
	switch v := e.Value.(type) {
	case int64:
		return ast.Lit(v)
	case float64:
		return ast.Lit(v)
	case *big.Int:
		return &ast.Unsupported{What: "BigInt literal"}
	}
	return unsupported(e)
}

func object(e *js.ObjectLiteral) ast.Expression {
	out := &ast.ObjectExpression{}
	for _, p := range e.Value {
		switch p := p.(type) {
		case *js.PropertyKeyed:
			if p.Kind != js.PropertyKindValue {
				return &ast.Unsupported{What: string(p.Kind) + " property"}
			}
			prop := &ast.Property{Value: expression(p.Value), Computed: p.Computed}
			switch k := p.Key.(type) {
			case *js.StringLiteral:
				prop.Key = ast.Lit(k.Value.String())
			case *js.NumberLiteral:
				prop.Key = number(k)
			default:
				prop.Key = expression(k)
			}
			out.Properties = append(out.Properties, prop)
		default:
			return unsupported(p)
		}
	}
	return out
}
