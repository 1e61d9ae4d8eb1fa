package ast

import "fmt"

// Ident returns an identifier node.
func Ident(name string) *Identifier {
	return &Identifier{Name: name}
}

// Lit returns a literal node.
func Lit(v any) *Literal {
	return &Literal{Value: v}
}

// Stmt wraps an expression as a statement.
func Stmt(e Expression) *ExpressionStatement {
	return &ExpressionStatement{Expression: e}
}

// Block wraps statements in a block.
func Block(body ...Statement) *BlockStatement {
	return &BlockStatement{Body: body}
}

// KindOf returns the node type name used in diagnostics, e.g.
// "SwitchStatement". Unsupported nodes report what they stand for.
func KindOf(n Node) string {
	switch n := n.(type) {
	case nil:
		return "<nil>"
	case *Unsupported:
		return n.What
	default:
		s := fmt.Sprintf("%T", n)
		if len(s) > 5 && s[:5] == "*ast." {
			return s[5:]
		}
		return s
	}
}

// IsDirective reports whether stmt is a string-literal expression
// statement with the given value, as used for "use strict" style pragmas.
func IsDirective(stmt Statement, value string) bool {
	es, ok := stmt.(*ExpressionStatement)
	if !ok {
		return false
	}
	lit, ok := es.Expression.(*Literal)
	if !ok {
		return false
	}
	s, ok := lit.Value.(string)
	return ok && s == value
}

// Prologue returns the number of leading string-literal expression
// statements in body.
func Prologue(body []Statement) int {
	n := 0
	for _, s := range body {
		es, ok := s.(*ExpressionStatement)
		if !ok {
			break
		}
		if lit, ok := es.Expression.(*Literal); !ok {
			break
		} else if _, ok := lit.Value.(string); !ok {
			break
		}
		n++
	}
	return n
}
