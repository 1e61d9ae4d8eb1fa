package printer

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wippyai/spoon/ast"
)

// Binding strength, loosest first.
const (
	precSequence = iota
	precYield
	precAssign
	precConditional
	precCoalesce
	precOr
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precExponent
	precUnary
	precPostfix
	precCall
	precMember
	precPrimary
)

var binaryPrec = map[string]int{
	"|":          precBitOr,
	"^":          precBitXor,
	"&":          precBitAnd,
	"==":         precEquality,
	"!=":         precEquality,
	"===":        precEquality,
	"!==":        precEquality,
	"<":          precRelational,
	">":          precRelational,
	"<=":         precRelational,
	">=":         precRelational,
	"in":         precRelational,
	"instanceof": precRelational,
	"<<":         precShift,
	">>":         precShift,
	">>>":        precShift,
	"+":          precAdditive,
	"-":          precAdditive,
	"*":          precMultiplicative,
	"/":          precMultiplicative,
	"%":          precMultiplicative,
	"**":         precExponent,
}

var logicalPrec = map[string]int{
	"??": precCoalesce,
	"||": precOr,
	"&&": precAnd,
}

func precedence(e ast.Expression) int {
	switch e := e.(type) {
	case *ast.SequenceExpression:
		return precSequence
	case *ast.AssignmentExpression:
		return precAssign
	case *ast.ConditionalExpression:
		return precConditional
	case *ast.LogicalExpression:
		return logicalPrec[e.Operator]
	case *ast.BinaryExpression:
		if p, ok := binaryPrec[e.Operator]; ok {
			return p
		}
		panic(unsupported(e))
	case *ast.UnaryExpression:
		return precUnary
	case *ast.UpdateExpression:
		if e.Prefix {
			return precUnary
		}
		return precPostfix
	case *ast.CallExpression:
		return precCall
	case *ast.NewExpression, *ast.MemberExpression:
		return precMember
	case *ast.Literal:
		if negative(e.Value) {
			return precUnary
		}
	}
	return precPrimary
}

func negative(v any) bool {
	switch v := v.(type) {
	case int64:
		return v < 0
	case float64:
		return v < 0 || (v == 0 && math.Signbit(v))
	}
	return false
}

// expression prints e, parenthesized if it binds looser than min.
func (p *printer) expression(e ast.Expression, min int) {
	wrap := precedence(e) < min
	if b, ok := e.(*ast.BinaryExpression); ok && b.Operator == "in" && p.noIn {
		wrap = true
	}
	if wrap {
		p.buf.writeByte('(')
		saved := p.noIn
		p.noIn = false
		p.bare(e)
		p.noIn = saved
		p.buf.writeByte(')')
		return
	}
	p.bare(e)
}

func (p *printer) bare(e ast.Expression) {
	switch e := e.(type) {
	case *ast.Identifier:
		p.buf.write(e.Name)
	case *ast.ThisExpression:
		p.buf.write("this")
	case *ast.Literal:
		p.buf.write(literal(e.Value))
	case *ast.ArrayExpression:
		p.array(e)
	case *ast.ObjectExpression:
		p.object(e)
	case *ast.FunctionExpression:
		p.function(e)
	case *ast.SequenceExpression:
		for i, x := range e.Expressions {
			if i > 0 {
				p.buf.write(", ")
			}
			p.expression(x, precAssign)
		}
	case *ast.AssignmentExpression:
		p.expression(e.Left, precPostfix)
		p.buf.write(" ", e.Operator, " ")
		p.expression(e.Right, precAssign)
	case *ast.ConditionalExpression:
		p.expression(e.Test, precCoalesce)
		p.buf.write(" ? ")
		p.expression(e.Consequent, precAssign)
		p.buf.write(" : ")
		p.expression(e.Alternate, precAssign)
	case *ast.LogicalExpression:
		p.logical(e)
	case *ast.BinaryExpression:
		p.binary(e)
	case *ast.UnaryExpression:
		p.unary(e.Operator, e.Argument)
	case *ast.UpdateExpression:
		if e.Prefix {
			p.unary(e.Operator, e.Argument)
			return
		}
		p.expression(e.Argument, precPostfix)
		p.buf.write(e.Operator)
	case *ast.CallExpression:
		p.expression(e.Callee, precCall)
		p.arguments(e.Arguments)
	case *ast.NewExpression:
		p.buf.write("new ")
		if containsCall(e.Callee) {
			p.buf.writeByte('(')
			p.bare(e.Callee)
			p.buf.writeByte(')')
		} else {
			p.expression(e.Callee, precMember)
		}
		p.arguments(e.Arguments)
	case *ast.MemberExpression:
		p.member(e)
	default:
		panic(unsupported(e))
	}
}

func (p *printer) binary(e *ast.BinaryExpression) {
	prec := binaryPrec[e.Operator]
	left, right := prec, prec+1
	if e.Operator == "**" {
		// Right associative, and a unary operand on the left is a syntax error.
		left, right = precPostfix, prec
	}
	p.expression(e.Left, left)
	p.buf.write(" ", e.Operator, " ")
	p.expression(e.Right, right)
}

func (p *printer) logical(e *ast.LogicalExpression) {
	prec := logicalPrec[e.Operator]
	p.logicalOperand(e.Operator, e.Left, prec)
	p.buf.write(" ", e.Operator, " ")
	p.logicalOperand(e.Operator, e.Right, prec+1)
}

// logicalOperand keeps ?? from mixing with && and || unparenthesized.
func (p *printer) logicalOperand(op string, e ast.Expression, min int) {
	if l, ok := e.(*ast.LogicalExpression); ok && (op == "??") != (l.Operator == "??") {
		min = precPrimary
	}
	p.expression(e, min)
}

func (p *printer) unary(op string, arg ast.Expression) {
	p.buf.write(op)
	switch op {
	case "typeof", "void", "delete":
		p.buf.writeByte(' ')
	case "+", "-":
		if startsWith(arg, op[0]) {
			p.buf.writeByte(' ')
		}
	}
	p.expression(arg, precUnary)
}

// startsWith reports whether arg, printed at unary precedence, begins
// with the sign character c.
func startsWith(arg ast.Expression, c byte) bool {
	switch a := arg.(type) {
	case *ast.UnaryExpression:
		return a.Operator[0] == c
	case *ast.UpdateExpression:
		return a.Prefix && a.Operator[0] == c
	case *ast.Literal:
		return c == '-' && negative(a.Value)
	}
	return false
}

func (p *printer) arguments(args []ast.Expression) {
	p.buf.writeByte('(')
	for i, a := range args {
		if i > 0 {
			p.buf.write(", ")
		}
		p.expression(a, precAssign)
	}
	p.buf.writeByte(')')
}

func containsCall(e ast.Expression) bool {
	for {
		switch x := e.(type) {
		case *ast.CallExpression:
			return true
		case *ast.MemberExpression:
			e = x.Object
		default:
			return false
		}
	}
}

func (p *printer) member(e *ast.MemberExpression) {
	if lit, ok := e.Object.(*ast.Literal); ok && !e.Computed && bareNumber(lit.Value) {
		p.buf.writeByte('(')
		p.bare(lit)
		p.buf.writeByte(')')
	} else {
		p.expression(e.Object, precMember)
	}
	if !e.Computed {
		if id, ok := e.Property.(*ast.Identifier); ok {
			p.buf.write(".", id.Name)
			return
		}
	}
	p.buf.writeByte('[')
	p.expression(e.Property, precSequence)
	p.buf.writeByte(']')
}

// bareNumber reports whether v prints as a number with no '.' or
// exponent, where a following dot would be read as a decimal point.
func bareNumber(v any) bool {
	switch v.(type) {
	case int64, float64:
		s := literal(v)
		return !strings.ContainsAny(s, ".eIN")
	}
	return false
}

func (p *printer) array(e *ast.ArrayExpression) {
	p.buf.writeByte('[')
	for i, el := range e.Elements {
		if i > 0 {
			p.buf.write(", ")
		}
		if el != nil {
			p.expression(el, precAssign)
		}
	}
	if n := len(e.Elements); n > 0 && e.Elements[n-1] == nil {
		p.buf.writeByte(',')
	}
	p.buf.writeByte(']')
}

func (p *printer) object(e *ast.ObjectExpression) {
	if len(e.Properties) == 0 {
		p.buf.write("{}")
		return
	}
	p.buf.writeByte('{')
	for i, prop := range e.Properties {
		if i > 0 {
			p.buf.writeByte(',')
		}
		p.buf.writeByte(' ')
		p.propertyKey(prop)
		p.buf.write(": ")
		p.expression(prop.Value, precAssign)
	}
	p.buf.write(" }")
}

func (p *printer) propertyKey(prop *ast.Property) {
	if prop.Computed {
		p.buf.writeByte('[')
		p.expression(prop.Key, precAssign)
		p.buf.writeByte(']')
		return
	}
	switch k := prop.Key.(type) {
	case *ast.Identifier:
		p.buf.write(k.Name)
	case *ast.Literal:
		if s, ok := k.Value.(string); ok && IsIdentifierName(s) {
			p.buf.write(s)
			return
		}
		p.buf.write(literal(k.Value))
	default:
		panic(unsupported(k))
	}
}

// IsIdentifierName reports whether s can be written as a bare property
// name. Only ASCII names are recognized.
func IsIdentifierName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || c == '$':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func literal(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case string:
		return Quote(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return number(v)
	}
	panic(unsupported(&ast.Literal{Value: v}))
}

func number(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0 && math.Signbit(v):
		return "-0"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Quote returns s as a double-quoted JavaScript string literal.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\v':
			b.WriteString(`\v`)
		case '\u2028':
			b.WriteString(`\u2028`)
		case '\u2029':
			b.WriteString(`\u2029`)
		default:
			if r < 0x20 || r == 0x7f || r == utf8.RuneError && size == 1 {
				b.WriteString(`\x`)
				const hex = "0123456789abcdef"
				c := s[i-size]
				b.WriteByte(hex[c>>4])
				b.WriteByte(hex[c&0xf])
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
