package cfg

import (
	"strings"
	"testing"
)

func TestDump(t *testing.T) {
	g := construct(t, "while (a) { b(); }\nfunction f() {}")
	out := g.String()
	for _, want := range []string{
		"--- root 0 <program>",
		"[block 0 root]",
		"loop]",
		"# successors:",
		"# ctrl parent:",
		"= get b",
		"<f() decl>",
		"--- root",
		" f\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestInstructionString(t *testing.T) {
	g := New()
	b := g.NewBlock()
	lit := b.Add(KindLiteral, Literal{Value: "x"})
	set := b.Add(KindSet, Name("v"), lit)
	if got, want := lit.String(), `i0 = literal "x"`; got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
	if got, want := set.String(), "i1 = set v, i0"; got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
}

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		kind       Kind
		branch     bool
		terminator bool
		leaves     bool
	}{
		{KindIf, true, true, false},
		{KindWhile, true, true, false},
		{KindGoto, false, true, false},
		{KindReturn, false, true, true},
		{KindAsyncEnd, false, true, true},
		{KindCall, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.IsBranch(); got != tt.branch {
				t.Errorf("IsBranch = %v, want %v", got, tt.branch)
			}
			if got := tt.kind.IsTerminator(); got != tt.terminator {
				t.Errorf("IsTerminator = %v, want %v", got, tt.terminator)
			}
			if got := tt.kind.LeavesFunction(); got != tt.leaves {
				t.Errorf("LeavesFunction = %v, want %v", got, tt.leaves)
			}
		})
	}
}
