package printer

import (
	"testing"

	"github.com/wippyai/spoon/ast"
	"github.com/wippyai/spoon/parser"
)

func roundTrip(t *testing.T, src string) string {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	out, err := Config{Compact: true}.Print(prog)
	if err != nil {
		t.Fatalf("Print(%q) error: %v", src, err)
	}
	return out
}

func TestPrintExpressions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"a + b * c;", "a + b * c;"},
		{"(a + b) * c;", "(a + b) * c;"},
		{"a - (b - c);", "a - (b - c);"},
		{"a - b - c;", "a - b - c;"},
		{"2 ** 3 ** 2;", "2 ** 3 ** 2;"},
		{"(2 ** 3) ** 2;", "(2 ** 3) ** 2;"},
		{"(-a) ** 2;", "(-a) ** 2;"},
		{"a = b = c;", "a = b = c;"},
		{"(a, b);", "a, b;"},
		{"f((a, b));", "f((a, b));"},
		{"a ? b : c ? d : e;", "a ? b : c ? d : e;"},
		{"(a ? b : c) ? d : e;", "(a ? b : c) ? d : e;"},
		{"(a || b) ?? c;", "(a || b) ?? c;"},
		{"a && (b || c);", "a && (b || c);"},
		{"- -a;", "- -a;"},
		{"-(-1);", "- -1;"},
		{"typeof a;", "typeof a;"},
		{"!(a && b);", "!(a && b);"},
		{"i++;", "i++;"},
		{"--i;", "--i;"},
		{"a.b.c(d)[e];", "a.b.c(d)[e];"},
		{"new A(1);", "new A(1);"},
		{"new (f())();", "new (f())();"},
		{"new (a.b().c)();", "new (a.b().c)();"},
		{"(1).toString();", "(1).toString();"},
		{"1.5.toFixed();", "1.5.toFixed();"},
		{"(function () {})();", "(function() {}());"},
		{"({a: 1}).a;", "({ a: 1 }.a);"},
		{"x = {'a-b': 1, c: 2, 3: 4};", `x = { "a-b": 1, c: 2, 3: 4 };`},
		{"x = [1, , 3, ];", "x = [1, , 3];"},
		{"x = [, ];", "x = [,];"},
		{"x = 'it\\'s\\n';", `x = "it's\n";`},
		{"x = null;", "x = null;"},
		{"delete a.b;", "delete a.b;"},
		{"a += 1;", "a += 1;"},
		{"'k' in o;", `"k" in o;`},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := roundTrip(t, tt.src); got != tt.want {
				t.Errorf("Print = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintStatements(t *testing.T) {
	src := `var a = 1, b;
function f(x, y) {
  if (x) return y;
  else if (y) { return x; }
  else return 0;
}
while (a < 3) a++;
do { a--; } while (a);
for (var i = 0; i < 3; i++) {}
for (;;) break;
for (var k in o) continue;
try { f(); } catch (e) { throw e; }
`
	want := `var a = 1, b;
function f(x, y) {
  if (x) {
    return y;
  } else if (y) {
    return x;
  } else {
    return 0;
  }
}
while (a < 3) {
  a++;
}
do {
  a--;
} while (a);
for (var i = 0; i < 3; i++) {}
for (;;) {
  break;
}
for (var k in o) {
  continue;
}
try {
  f();
} catch (e) {
  throw e;
}
`
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Print(prog)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Print =\n%s\nwant\n%s", got, want)
	}
}

func TestPrintIndent(t *testing.T) {
	prog := &ast.Program{Body: []ast.Statement{
		&ast.WhileStatement{Test: ast.Ident("a"), Body: ast.Stmt(ast.Ident("b"))},
	}}
	got, err := Config{Indent: "\t"}.Print(prog)
	if err != nil {
		t.Fatal(err)
	}
	if want := "while (a) {\n\tb;\n}\n"; got != want {
		t.Errorf("Print = %q, want %q", got, want)
	}
}

func TestPrintForInHead(t *testing.T) {
	prog := &ast.Program{Body: []ast.Statement{
		&ast.ForStatement{
			Init: &ast.AssignmentExpression{
				Operator: "=",
				Left:     ast.Ident("x"),
				Right:    &ast.BinaryExpression{Operator: "in", Left: ast.Lit("a"), Right: ast.Ident("o")},
			},
			Body: ast.Block(),
		},
	}}
	got, err := Config{Compact: true}.Print(prog)
	if err != nil {
		t.Fatal(err)
	}
	if want := `for (x = ("a" in o);;) {}`; got != want {
		t.Errorf("Print = %q, want %q", got, want)
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", `""`},
		{"plain", `"plain"`},
		{`a"b`, `"a\"b"`},
		{`a\b`, `"a\\b"`},
		{"tab\there", `"tab\there"`},
		{"\x00", `"\x00"`},
		{"\u2028", `"\u2028"`},
		{"héllo", `"héllo"`},
	}
	for _, tt := range tests {
		if got := Quote(tt.in); got != tt.want {
			t.Errorf("Quote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestLiteralNumbers(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{int64(42), "42"},
		{int64(-3), "-3"},
		{0.5, "0.5"},
		{1e21, "1e+21"},
		{float64(100), "100"},
	}
	for _, tt := range tests {
		if got := literal(tt.in); got != tt.want {
			t.Errorf("literal(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrintUnsupported(t *testing.T) {
	prog := &ast.Program{Body: []ast.Statement{&ast.Unsupported{What: "ClassDeclaration"}}}
	if _, err := Print(prog); err == nil {
		t.Error("Print of unsupported node succeeded")
	}
}
