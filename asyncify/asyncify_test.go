package asyncify

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/spoon/cfg"
	"github.com/wippyai/spoon/errors"
	"github.com/wippyai/spoon/parser"
)

func build(t *testing.T, src string) *cfg.Cfg {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	g, err := cfg.Construct(prog)
	if err != nil {
		t.Fatalf("Construct(%q) error: %v", src, err)
	}
	return g
}

func function(t *testing.T, g *cfg.Cfg, name string) *cfg.Block {
	t.Helper()
	for _, r := range g.Roots {
		if r != g.Root && !r.IsContinuation() && cfg.FunctionName(r) == name {
			return r
		}
	}
	t.Fatalf("function %q not found", name)
	return nil
}

func continuations(g *cfg.Cfg) []*cfg.Block {
	var out []*cfg.Block
	for _, r := range g.Roots {
		if r.IsContinuation() {
			out = append(out, r)
		}
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTransformNoMatcher(t *testing.T) {
	g := build(t, "op(1);")
	err := Transform(g, Config{})
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseAsyncify, Kind: errors.KindInvalidInput}) {
		t.Errorf("Transform() error = %v, want asyncify/invalid_input", err)
	}
}

func TestTransformProgramLevel(t *testing.T) {
	g := build(t, "var x = op(1); f(x);")
	if err := Transform(g, Config{Targets: []string{"op"}}); err != nil {
		t.Fatal(err)
	}
	conts := continuations(g)
	if len(conts) != 1 {
		t.Fatalf("continuations = %d, want 1", len(conts))
	}
	info := conts[0].Fn.Func
	if want := []string{DefaultErrorName, DefaultResultName}; !equal(info.Params, want) {
		t.Errorf("continuation params = %v, want %v", info.Params, want)
	}
	if !info.Decl {
		t.Error("continuation is not a declaration")
	}
	if term := g.Root.Terminator(); term == nil || term.Kind != cfg.KindAsyncEnd {
		t.Errorf("program body does not end with the asynchronous call")
	}
}

func TestTransformFunctions(t *testing.T) {
	g := build(t, `function a(x) { return op(x); }
function b(x) { return x; }`)
	if err := Transform(g, Config{Targets: []string{"op"}}); err != nil {
		t.Fatal(err)
	}
	if got, want := function(t, g, "a").Fn.Func.Params, []string{"x", DefaultCallbackName}; !equal(got, want) {
		t.Errorf("a params = %v, want %v", got, want)
	}
	if got, want := function(t, g, "b").Fn.Func.Params, []string{"x"}; !equal(got, want) {
		t.Errorf("b params = %v, want %v", got, want)
	}
	for _, bl := range cfg.Reachable(function(t, g, "a")) {
		if term := bl.Terminator(); term != nil && term.Kind == cfg.KindReturn {
			t.Errorf("block %d of a still returns synchronously", bl.ID)
		}
	}
}

func TestTransformCustomNames(t *testing.T) {
	g := build(t, "function f() { var v = op(); return v; }")
	conf := Config{Targets: []string{"op"}, CallbackName: "done", ErrorName: "err", ResultName: "res"}
	if err := Transform(g, conf); err != nil {
		t.Fatal(err)
	}
	if got, want := function(t, g, "f").Fn.Func.Params, []string{"done"}; !equal(got, want) {
		t.Errorf("f params = %v, want %v", got, want)
	}
	conts := continuations(g)
	if len(conts) != 1 {
		t.Fatalf("continuations = %d, want 1", len(conts))
	}
	if got, want := conts[0].Fn.Func.Params, []string{"err", "res"}; !equal(got, want) {
		t.Errorf("continuation params = %v, want %v", got, want)
	}
}

func TestTransformExistingCallback(t *testing.T) {
	g := build(t, "function f(a, __$callback) { op(a); }")
	if err := Transform(g, Config{Targets: []string{"op"}}); err != nil {
		t.Fatal(err)
	}
	if got := function(t, g, "f").Fn.Func.Params; len(got) != 2 {
		t.Errorf("f params = %v, want the callback once", got)
	}
}

func TestTransformLoop(t *testing.T) {
	g := build(t, "var i = 0; while (i < 3) { op(i); i++; }")
	if err := Transform(g, Config{Targets: []string{"op"}}); err != nil {
		t.Fatal(err)
	}
	if n := len(continuations(g)); n < 2 {
		t.Errorf("continuations = %d, want the split point and the loop header", n)
	}
	for _, c := range continuations(g) {
		if c.Loop {
			t.Errorf("continuation %d still marked as a loop header", c.ID)
		}
	}
}

func TestTransformTry(t *testing.T) {
	g := build(t, "function f() { try { op(); } catch (e) {} }")
	err := Transform(g, Config{Targets: []string{"op"}})
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("Transform() error = %v, want *errors.Error", err)
	}
	if e.Kind != errors.KindUnsplittable || e.Phase != errors.PhaseAsyncify {
		t.Errorf("error = %s/%s, want asyncify/unsplittable", e.Phase, e.Kind)
	}
	if !equal(e.Path, []string{"f"}) {
		t.Errorf("error path = %v, want [f]", e.Path)
	}
}

func TestTransformOnlyList(t *testing.T) {
	g := build(t, "op(1); function f() { return 1; } function h() { op(2); }")
	conf := Config{Targets: []string{"op"}, OnlyList: NewFunctionNameMatcher([]string{"f"})}
	if err := Transform(g, conf); err != nil {
		t.Fatal(err)
	}
	if got := function(t, g, "f").Fn.Func.Params; !equal(got, []string{DefaultCallbackName}) {
		t.Errorf("f params = %v, want only the callback", got)
	}
	if got := function(t, g, "h").Fn.Func.Params; len(got) != 0 {
		t.Errorf("h params = %v, want none", got)
	}
	if n := len(continuations(g)); n != 0 {
		t.Errorf("continuations = %d, want 0", n)
	}
}

func TestTransformRemoveList(t *testing.T) {
	g := build(t, "function f() { op(1); } function h() { op(2); }")
	conf := Config{Targets: []string{"op"}, RemoveList: NewFunctionPrefixMatcher([]string{"h"})}
	if err := Transform(g, conf); err != nil {
		t.Fatal(err)
	}
	if got := function(t, g, "f").Fn.Func.Params; len(got) != 1 {
		t.Errorf("f params = %v, want the callback", got)
	}
	if got := function(t, g, "h").Fn.Func.Params; len(got) != 0 {
		t.Errorf("h params = %v, want none", got)
	}
}

func TestTransformIdempotent(t *testing.T) {
	g := build(t, "function f(n) { var s = 0; for (var i = 0; i < n; i++) { s = s + op(i); } return s; }")
	conf := Config{Targets: []string{"op"}}
	if err := Transform(g, conf); err != nil {
		t.Fatal(err)
	}
	first := g.String()
	if err := Transform(g, conf); err != nil {
		t.Fatal(err)
	}
	if second := g.String(); second != first {
		t.Errorf("second Transform changed the graph:\n%s\nvs\n%s", first, second)
	}
}

func TestForTargets(t *testing.T) {
	g := build(t, "fs.read(1);")
	if err := For("fs.*")(g); err != nil {
		t.Fatal(err)
	}
	if n := len(continuations(g)); n != 1 {
		t.Errorf("continuations = %d, want 1", n)
	}
}
