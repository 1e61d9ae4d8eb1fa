package printer

import (
	"github.com/wippyai/spoon/ast"
	"github.com/wippyai/spoon/errors"
)

// DefaultIndent is used when Config.Indent is empty.
const DefaultIndent = "  "

// Config controls output layout.
type Config struct {
	Indent  string
	Compact bool
}

// Print renders prog with the default layout.
func Print(prog *ast.Program) (string, error) {
	return Config{}.Print(prog)
}

// Print renders prog.
func (c Config) Print(prog *ast.Program) (src string, err error) {
	defer errors.Recover(&err)
	if prog == nil {
		return "", errors.InvalidInput(errors.PhasePrint, "nil program")
	}
	p := &printer{buf: buffer{indent: c.Indent, compact: c.Compact}}
	if p.buf.indent == "" {
		p.buf.indent = DefaultIndent
	}
	for i, s := range prog.Body {
		if i > 0 {
			p.buf.newline()
		}
		p.statement(s)
	}
	if !c.Compact && len(prog.Body) > 0 {
		p.buf.writeByte('\n')
	}
	return p.buf.String(), nil
}

// Expression renders a single expression.
func Expression(e ast.Expression) (src string, err error) {
	defer errors.Recover(&err)
	p := &printer{buf: buffer{indent: DefaultIndent}}
	p.expression(e, precSequence)
	return p.buf.String(), nil
}

type printer struct {
	buf buffer
	// noIn parenthesizes "in" expressions inside for-statement heads.
	noIn bool
}

func unsupported(n ast.Node) *errors.Error {
	return errors.Unsupported(errors.PhasePrint, ast.KindOf(n))
}

func (p *printer) statement(s ast.Statement) {
	switch s := s.(type) {
	case *ast.BlockStatement:
		p.block(s.Body)
	case *ast.EmptyStatement:
		p.buf.writeByte(';')
	case *ast.ExpressionStatement:
		if ambiguousStart(s.Expression) {
			p.buf.writeByte('(')
			p.expression(s.Expression, precSequence)
			p.buf.writeByte(')')
		} else {
			p.expression(s.Expression, precSequence)
		}
		p.buf.writeByte(';')
	case *ast.VariableDeclaration:
		p.declaration(s)
		p.buf.writeByte(';')
	case *ast.FunctionDeclaration:
		p.function(s.Function)
	case *ast.ReturnStatement:
		p.buf.write("return")
		if s.Argument != nil {
			p.buf.writeByte(' ')
			p.expression(s.Argument, precSequence)
		}
		p.buf.writeByte(';')
	case *ast.ThrowStatement:
		p.buf.write("throw ")
		p.expression(s.Argument, precSequence)
		p.buf.writeByte(';')
	case *ast.IfStatement:
		p.ifStatement(s)
	case *ast.WhileStatement:
		p.buf.write("while (")
		p.expression(s.Test, precSequence)
		p.buf.write(") ")
		p.body(s.Body)
	case *ast.DoWhileStatement:
		p.buf.write("do ")
		p.body(s.Body)
		p.buf.write(" while (")
		p.expression(s.Test, precSequence)
		p.buf.write(");")
	case *ast.ForStatement:
		p.forStatement(s)
	case *ast.ForInStatement:
		p.buf.write("for (")
		p.forHead(s.Left)
		p.buf.write(" in ")
		p.expression(s.Right, precSequence)
		p.buf.write(") ")
		p.body(s.Body)
	case *ast.BreakStatement:
		p.jump("break", s.Label)
	case *ast.ContinueStatement:
		p.jump("continue", s.Label)
	case *ast.TryStatement:
		p.buf.write("try ")
		p.block(s.Block.Body)
		if s.Handler != nil {
			p.buf.write(" catch ")
			if s.Handler.Param != nil {
				p.buf.write("(", s.Handler.Param.Name, ") ")
			}
			p.block(s.Handler.Body.Body)
		}
		if s.Finalizer != nil {
			p.buf.write(" finally ")
			p.block(s.Finalizer.Body)
		}
	case *ast.SwitchStatement:
		p.switchStatement(s)
	default:
		panic(unsupported(s))
	}
}

func (p *printer) block(body []ast.Statement) {
	if len(body) == 0 {
		p.buf.write("{}")
		return
	}
	p.buf.writeByte('{')
	p.buf.depth++
	for _, s := range body {
		p.buf.newline()
		p.statement(s)
	}
	p.buf.depth--
	p.buf.newline()
	p.buf.writeByte('}')
}

// body prints a statement body, bracing it if needed.
func (p *printer) body(s ast.Statement) {
	if b, ok := s.(*ast.BlockStatement); ok {
		p.block(b.Body)
		return
	}
	if _, ok := s.(*ast.EmptyStatement); ok {
		p.block(nil)
		return
	}
	p.block([]ast.Statement{s})
}

func (p *printer) ifStatement(s *ast.IfStatement) {
	for {
		p.buf.write("if (")
		p.expression(s.Test, precSequence)
		p.buf.write(") ")
		p.body(s.Consequent)
		if s.Alternate == nil {
			return
		}
		p.buf.write(" else ")
		next, ok := s.Alternate.(*ast.IfStatement)
		if !ok {
			p.body(s.Alternate)
			return
		}
		s = next
	}
}

func (p *printer) jump(keyword string, label *ast.Identifier) {
	p.buf.write(keyword)
	if label != nil {
		p.buf.write(" ", label.Name)
	}
	p.buf.writeByte(';')
}

func (p *printer) declaration(d *ast.VariableDeclaration) {
	p.buf.write(d.Kind, " ")
	for i, v := range d.Declarations {
		if i > 0 {
			p.buf.write(", ")
		}
		p.expression(v.ID, precAssign)
		if v.Init != nil {
			p.buf.write(" = ")
			p.expression(v.Init, precAssign)
		}
	}
}

func (p *printer) forHead(n ast.Node) {
	saved := p.noIn
	p.noIn = true
	defer func() { p.noIn = saved }()
	switch n := n.(type) {
	case nil:
	case *ast.VariableDeclaration:
		p.declaration(n)
	case ast.Expression:
		p.expression(n, precSequence)
	default:
		panic(unsupported(n))
	}
}

func (p *printer) forStatement(s *ast.ForStatement) {
	p.buf.write("for (")
	p.forHead(s.Init)
	p.buf.writeByte(';')
	if s.Test != nil {
		p.buf.writeByte(' ')
		p.expression(s.Test, precSequence)
	}
	p.buf.writeByte(';')
	if s.Update != nil {
		p.buf.writeByte(' ')
		p.expression(s.Update, precSequence)
	}
	p.buf.write(") ")
	p.body(s.Body)
}

func (p *printer) switchStatement(s *ast.SwitchStatement) {
	p.buf.write("switch (")
	p.expression(s.Discriminant, precSequence)
	p.buf.write(") {")
	p.buf.depth++
	for _, c := range s.Cases {
		p.buf.newline()
		if c.Test == nil {
			p.buf.write("default:")
		} else {
			p.buf.write("case ")
			p.expression(c.Test, precSequence)
			p.buf.writeByte(':')
		}
		p.buf.depth++
		for _, st := range c.Consequent {
			p.buf.newline()
			p.statement(st)
		}
		p.buf.depth--
	}
	p.buf.depth--
	p.buf.newline()
	p.buf.writeByte('}')
}

func (p *printer) function(fn *ast.FunctionExpression) {
	if fn.Async {
		p.buf.write("async ")
	}
	p.buf.write("function")
	if fn.Generator {
		p.buf.writeByte('*')
	}
	if fn.ID != nil {
		p.buf.write(" ", fn.ID.Name)
	}
	p.buf.writeByte('(')
	for i, param := range fn.Params {
		if i > 0 {
			p.buf.write(", ")
		}
		p.buf.write(param.Name)
	}
	p.buf.write(") ")
	var body []ast.Statement
	if fn.Body != nil {
		body = fn.Body.Body
	}
	p.block(body)
}

// ambiguousStart reports whether an expression statement would begin
// with a token that the parser reads as a declaration or block.
func ambiguousStart(e ast.Expression) bool {
	for {
		switch x := e.(type) {
		case *ast.FunctionExpression, *ast.ObjectExpression:
			return true
		case *ast.CallExpression:
			e = x.Callee
		case *ast.MemberExpression:
			e = x.Object
		case *ast.BinaryExpression:
			e = x.Left
		case *ast.LogicalExpression:
			e = x.Left
		case *ast.AssignmentExpression:
			e = x.Left
		case *ast.ConditionalExpression:
			e = x.Test
		case *ast.SequenceExpression:
			if len(x.Expressions) == 0 {
				return false
			}
			e = x.Expressions[0]
		case *ast.UpdateExpression:
			if x.Prefix {
				return false
			}
			e = x.Argument
		default:
			return false
		}
	}
}
