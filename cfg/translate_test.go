package cfg

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/spoon/ast"
	"github.com/wippyai/spoon/errors"
	"github.com/wippyai/spoon/parser"
)

func construct(t *testing.T, src string) *Cfg {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	g, err := Construct(prog)
	if err != nil {
		t.Fatalf("Construct(%q) error: %v", src, err)
	}
	return g
}

func constructErr(t *testing.T, src string) error {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	_, err = Construct(prog)
	return err
}

func isKind(err error, kind errors.Kind) bool {
	var e *errors.Error
	return stderrors.As(err, &e) && e.Kind == kind
}

func TestTranslateUnsupported(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"switch", "switch (a) { case 1: b(); }"},
		{"let", "let a = 1;"},
		{"const", "const a = 1;"},
		{"labeled break", "outer: while (a) { break outer; }"},
		{"finally", "try { a(); } catch (e) {} finally { b(); }"},
		{"generator", "function* g() {}"},
		{"logical assignment", "a &&= b;"},
		{"class", "class A {}"},
		{"array hole", "x = [1, , 2];"},
		{"computed key", "x = {[k]: 1};"},
		{"regexp", "x = /a/;"},
		{"arrow", "x = () => 1;"},
		{"for-of", "for (var x of y) {}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := constructErr(t, tt.src)
			if !isKind(err, errors.KindUnsupported) {
				t.Errorf("Construct(%q) error = %v, want unsupported", tt.src, err)
			}
		})
	}
}

func TestTranslateMalformedLValue(t *testing.T) {
	prog := &ast.Program{Body: []ast.Statement{
		ast.Stmt(&ast.AssignmentExpression{Operator: "=", Left: ast.Lit(int64(1)), Right: ast.Lit(int64(2))}),
	}}
	_, err := Construct(prog)
	if !isKind(err, errors.KindMalformedLValue) {
		t.Errorf("error = %v, want malformed lvalue", err)
	}
}

func TestTranslateJumpOutsideLoop(t *testing.T) {
	prog := &ast.Program{Body: []ast.Statement{&ast.BreakStatement{}}}
	_, err := Construct(prog)
	if !isKind(err, errors.KindInvalidInput) {
		t.Errorf("error = %v, want invalid input", err)
	}
}

func TestTranslateTwice(t *testing.T) {
	g := New()
	if err := g.Translate(&ast.Program{}); err != nil {
		t.Fatal(err)
	}
	if err := g.Translate(&ast.Program{}); !isKind(err, errors.KindInvalidInput) {
		t.Errorf("second Translate error = %v, want invalid input", err)
	}
}

func TestTranslateFunctions(t *testing.T) {
	g := construct(t, "x = f(1);\nfunction f(a, b) { return g(a); }\nvar g = function() {};")
	if len(g.Roots) != 3 {
		t.Fatalf("len(Roots) = %d, want 3", len(g.Roots))
	}
	first := g.Root.Instructions[0]
	if first.Kind != KindFn || first.Func.Name != "f" || !first.Func.Decl {
		t.Errorf("first instruction = %v, want hoisted fn f", first)
	}
	if first.Target(0) != g.Roots[1] {
		t.Errorf("fn target = %v, want root %d", first.Target(0), g.Roots[1].ID)
	}
	if got := FunctionName(g.Roots[1]); got != "f" {
		t.Errorf("FunctionName = %q, want f", got)
	}
	if got := FunctionName(g.Roots[2]); got != "" {
		t.Errorf("FunctionName(anonymous) = %q, want empty", got)
	}
	if !g.Roots[1].Fn.Func.HasParam("b") {
		t.Error("params of f missing b")
	}
	if g.Roots[1].Owner != g.Roots[1] {
		t.Error("function root does not own itself")
	}
}

func TestTranslateLoopShape(t *testing.T) {
	g := construct(t, "var i = 0; while (i < 3) { i++; } done();")
	var pre *Block
	for _, b := range Reachable(g.Root) {
		if b.Loop {
			pre = b
		}
	}
	if pre == nil {
		t.Fatal("no loop pre-header")
	}
	if len(pre.Successors) != 1 {
		t.Fatalf("pre-header successors = %d, want 1", len(pre.Successors))
	}
	start := pre.Successors[0]
	if term := start.Terminator(); term == nil || term.Kind != KindWhile {
		t.Fatalf("start terminator = %v, want while", term)
	}
	if pre.Latch == nil || pre.Follow == nil {
		t.Fatal("loop latch or follow missing")
	}
	if len(pre.Latch.Successors) != 1 || pre.Latch.Successors[0] != pre {
		t.Errorf("latch successors = %v, want pre-header", pre.Latch.Successors)
	}
	if !pre.Dominates(pre.Latch) {
		t.Error("pre-header does not dominate latch")
	}
	if !pre.Follow.PostDominates(pre) {
		t.Error("follow does not post-dominate pre-header")
	}
}

func TestTranslateEdgeBounds(t *testing.T) {
	src := `
while (a) {
  if (b) break;
  if (c) break;
  if (d) continue;
  if (e) continue;
  x = f ? g : h;
  y = p && q || r;
}
try { z(); } catch (err) { w(err); }
for (var k in o) { if (k) break; }
do { n--; } while (n > 0);
`
	g := construct(t, src)
	var live []*Block
	for _, r := range g.Roots {
		live = append(live, Reachable(r)...)
	}
	for _, b := range live {
		if len(b.Successors) > maxEdges {
			t.Errorf("block %d has %d successors", b.ID, len(b.Successors))
		}
		if len(b.Predecessors) > maxEdges {
			t.Errorf("block %d has %d predecessors", b.ID, len(b.Predecessors))
		}
		for _, s := range b.Successors {
			found := false
			for _, p := range s.Predecessors {
				found = found || p == b
			}
			if !found {
				t.Errorf("edge %d->%d missing from predecessors", b.ID, s.ID)
			}
		}
	}
}

func TestTranslateTryMarksBody(t *testing.T) {
	g := construct(t, "try { a(); } catch (e) { b(e); }")
	term := g.Root.Terminator()
	if term == nil || term.Kind != KindTry {
		t.Fatalf("root terminator = %v, want try", term)
	}
	if term.CatchParam != "e" {
		t.Errorf("CatchParam = %q, want e", term.CatchParam)
	}
	body, catch := term.Target(0), term.Target(1)
	if !body.InTry {
		t.Error("try body not marked InTry")
	}
	if catch.InTry {
		t.Error("catch block marked InTry")
	}
}

func TestTranslateDeadCode(t *testing.T) {
	g := construct(t, "function f() { return 1; g(); }")
	for _, b := range Reachable(g.Roots[1]) {
		for _, in := range b.Instructions {
			if in.Kind == KindCall {
				t.Errorf("unreachable call lowered into block %d", b.ID)
			}
		}
	}
}

func TestTranslateUses(t *testing.T) {
	g := construct(t, "var x = a + b;")
	var add *Instruction
	for _, in := range g.Root.Instructions {
		if in.Kind == KindBinOp {
			add = in
		}
	}
	if add == nil {
		t.Fatal("no binop")
	}
	if add.NameArg(0) != "+" {
		t.Errorf("operator = %q, want +", add.NameArg(0))
	}
	if len(add.Uses) != 1 || add.Uses[0].Kind != KindSet {
		t.Errorf("uses = %v, want one set", add.Uses)
	}
	for _, v := range add.Values() {
		if len(v.Uses) != 1 || v.Uses[0] != add {
			t.Errorf("operand %v uses = %v, want [%v]", v, v.Uses, add)
		}
	}
}

func TestTranslatePostfixStatement(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		root       int
		completion bool
	}{
		{"program postfix", "var i = 1; i++;", 0, true},
		{"program prefix", "var i = 1; ++i;", 0, false},
		{"function postfix", "function f() { var i = 1; i++; }", 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := construct(t, tt.src)
			ins := g.Roots[tt.root].Instructions
			last := ins[len(ins)-1]
			got := last.Kind == KindUnOp && len(last.Uses) == 0
			if got != tt.completion {
				t.Errorf("trailing unused unop = %v, want %v (last = %v)", got, tt.completion, last)
			}
		})
	}
}
