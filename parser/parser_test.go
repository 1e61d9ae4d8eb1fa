package parser

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/spoon/ast"
	"github.com/wippyai/spoon/errors"
)

func TestParseStatements(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"var", "var a = 1;", "VariableDeclaration"},
		{"let", "let a = 1;", "VariableDeclaration"},
		{"function", "function f() {}", "FunctionDeclaration"},
		{"if", "if (a) b();", "IfStatement"},
		{"while", "while (a) {}", "WhileStatement"},
		{"do", "do {} while (a);", "DoWhileStatement"},
		{"for", "for (var i = 0; i < 3; i++) {}", "ForStatement"},
		{"for-in", "for (var k in o) {}", "ForInStatement"},
		{"try", "try {} catch (e) {}", "TryStatement"},
		{"throw", "throw 1;", "ThrowStatement"},
		{"switch", "switch (a) { case 1: break; }", "SwitchStatement"},
		{"empty", ";", "EmptyStatement"},
		{"for-of", "for (var x of y) {}", "ForOfStatement"},
		{"class", "class A {}", "ClassDeclaration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.src, err)
			}
			if len(prog.Body) != 1 {
				t.Fatalf("len(Body) = %d, want 1", len(prog.Body))
			}
			if got := ast.KindOf(prog.Body[0]); got != tt.want {
				t.Errorf("KindOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func expr(t *testing.T, src string) ast.Expression {
	t.Helper()
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	es, ok := prog.Body[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("Parse(%q) = %T, want expression statement", src, prog.Body[0])
	}
	return es.Expression
}

func TestParseAssignmentOperators(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"a = 1", "="},
		{"a += 1", "+="},
		{"a -= 1", "-="},
		{"a **= 2", "**="},
		{"a >>>= 1", ">>>="},
		{"a &&= b", "&&="},
		{"a ??= b", "??="},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			a, ok := expr(t, tt.src).(*ast.AssignmentExpression)
			if !ok {
				t.Fatalf("not an assignment")
			}
			if a.Operator != tt.want {
				t.Errorf("Operator = %q, want %q", a.Operator, tt.want)
			}
		})
	}
}

func TestParseUpdateAndLogical(t *testing.T) {
	u, ok := expr(t, "i++").(*ast.UpdateExpression)
	if !ok {
		t.Fatal("i++ is not an update expression")
	}
	if u.Operator != "++" || u.Prefix {
		t.Errorf("i++ = {%q, prefix %v}, want {\"++\", prefix false}", u.Operator, u.Prefix)
	}
	u, ok = expr(t, "--i").(*ast.UpdateExpression)
	if !ok || u.Operator != "--" || !u.Prefix {
		t.Errorf("--i = %#v, want prefix decrement", u)
	}

	for _, op := range []string{"&&", "||", "??"} {
		l, ok := expr(t, "a "+op+" b").(*ast.LogicalExpression)
		if !ok {
			t.Errorf("a %s b is not a logical expression", op)
			continue
		}
		if l.Operator != op {
			t.Errorf("Operator = %q, want %q", l.Operator, op)
		}
	}
	if _, ok := expr(t, "a & b").(*ast.BinaryExpression); !ok {
		t.Error("a & b is not a binary expression")
	}
}

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want any
	}{
		{"1", int64(1)},
		{"1.5", 1.5},
		{"'x'", "x"},
		{"true", true},
		{"null", nil},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			lit, ok := expr(t, "("+tt.src+")").(*ast.Literal)
			if !ok {
				t.Fatalf("not a literal")
			}
			if lit.Value != tt.want {
				t.Errorf("Value = %#v, want %#v", lit.Value, tt.want)
			}
		})
	}
}

func TestParseMembers(t *testing.T) {
	m, ok := expr(t, "a.b").(*ast.MemberExpression)
	if !ok || m.Computed {
		t.Fatalf("a.b = %#v, want dotted member", m)
	}
	if id, ok := m.Property.(*ast.Identifier); !ok || id.Name != "b" {
		t.Errorf("Property = %#v, want identifier b", m.Property)
	}
	m, ok = expr(t, "a[0]").(*ast.MemberExpression)
	if !ok || !m.Computed {
		t.Fatalf("a[0] = %#v, want computed member", m)
	}
}

func TestParseObjectAndArray(t *testing.T) {
	o, ok := expr(t, "({a: 1, 'b': 2})").(*ast.ObjectExpression)
	if !ok {
		t.Fatal("not an object")
	}
	if len(o.Properties) != 2 {
		t.Fatalf("len(Properties) = %d, want 2", len(o.Properties))
	}
	if k, ok := o.Properties[1].Key.(*ast.Literal); !ok || k.Value != "b" {
		t.Errorf("Key = %#v, want literal b", o.Properties[1].Key)
	}
	if _, ok := expr(t, "({get a() { return 1; }})").(*ast.Unsupported); !ok {
		t.Error("getter property not reported unsupported")
	}

	a, ok := expr(t, "[1, , 3]").(*ast.ArrayExpression)
	if !ok {
		t.Fatal("not an array")
	}
	if len(a.Elements) != 3 || a.Elements[1] != nil {
		t.Errorf("Elements = %#v, want hole at 1", a.Elements)
	}
}

func TestParseFunctionParams(t *testing.T) {
	prog, err := Parse("function f(a, b) { return a; }")
	if err != nil {
		t.Fatal(err)
	}
	fn := prog.Body[0].(*ast.FunctionDeclaration).Function
	if fn.ID == nil || fn.ID.Name != "f" {
		t.Errorf("ID = %#v, want f", fn.ID)
	}
	if len(fn.Params) != 2 || fn.Params[1].Name != "b" {
		t.Errorf("Params = %#v, want [a b]", fn.Params)
	}

	prog, err = Parse("function g({x}) {}")
	if err != nil {
		t.Fatal(err)
	}
	body := prog.Body[0].(*ast.FunctionDeclaration).Function.Body.Body
	if len(body) != 1 {
		t.Fatalf("len(body) = %d, want 1", len(body))
	}
	if _, ok := body[0].(*ast.Unsupported); !ok {
		t.Errorf("body[0] = %T, want *ast.Unsupported", body[0])
	}
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse("var = ;")
	if err == nil {
		t.Fatal("expected error")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("error %T is not *errors.Error", err)
	}
	if e.Phase != errors.PhaseParse || e.Kind != errors.KindSyntax {
		t.Errorf("error = %s/%s, want parse/syntax", e.Phase, e.Kind)
	}
}

func TestDeclaration(t *testing.T) {
	src := "var x = 1;\nfunction plain() {}\nfunction job(a) {\n  'use spoon';\n  return a;\n}\nx++;\n"
	fn, rng, err := Declaration(src, "use spoon")
	if err != nil {
		t.Fatal(err)
	}
	if fn.Function.ID == nil || fn.Function.ID.Name != "job" {
		t.Errorf("ID = %#v, want job", fn.Function.ID)
	}
	got := src[rng.Start:rng.End]
	want := "function job(a) {\n  'use spoon';\n  return a;\n}"
	if got != want {
		t.Errorf("range text = %q, want %q", got, want)
	}

	_, _, err = Declaration("function f() {}", "use spoon")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseParse, Kind: errors.KindNotFound}) {
		t.Errorf("missing directive error = %v, want not-found", err)
	}
}
