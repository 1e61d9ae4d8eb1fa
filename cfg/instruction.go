package cfg

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies an instruction's operation. Operand order is fixed per
// kind; see the table in doc.go.
type Kind uint8

const (
	KindLiteral Kind = iota
	KindGet
	KindSet
	KindGetProp
	KindSetProp
	KindVar
	KindBinOp
	KindUnOp
	KindCall
	KindMethod
	KindNew
	KindObject
	KindArray
	KindFn
	KindIf
	KindLogical
	KindTernary
	KindWhile
	KindForIn
	KindTry
	KindThrow
	KindReturn
	KindBreak
	KindSBreak
	KindContinue
	KindPhi
	KindPhiMove
	KindGoto
	KindAsyncGoto
	KindAsyncReturn
	KindAsyncEnd
	KindAsyncPrelude
	KindNop
)

var kindNames = [...]string{
	KindLiteral:      "literal",
	KindGet:          "get",
	KindSet:          "set",
	KindGetProp:      "getprop",
	KindSetProp:      "setprop",
	KindVar:          "var",
	KindBinOp:        "binop",
	KindUnOp:         "unop",
	KindCall:         "call",
	KindMethod:       "method",
	KindNew:          "new",
	KindObject:       "object",
	KindArray:        "array",
	KindFn:           "fn",
	KindIf:           "if",
	KindLogical:      "logical",
	KindTernary:      "ternary",
	KindWhile:        "while",
	KindForIn:        "forin",
	KindTry:          "try",
	KindThrow:        "throw",
	KindReturn:       "return",
	KindBreak:        "break",
	KindSBreak:       "sbreak",
	KindContinue:     "continue",
	KindPhi:          "phi",
	KindPhiMove:      "phimove",
	KindGoto:         "goto",
	KindAsyncGoto:    "async-goto",
	KindAsyncReturn:  "async-return",
	KindAsyncEnd:     "async-end",
	KindAsyncPrelude: "async-prelude",
	KindNop:          "nop",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// IsBranch reports whether the kind ends a block with two successors.
func (k Kind) IsBranch() bool {
	switch k {
	case KindIf, KindLogical, KindTernary, KindWhile, KindForIn, KindTry:
		return true
	}
	return false
}

// IsTerminator reports whether the kind ends its block.
func (k Kind) IsTerminator() bool {
	if k.IsBranch() {
		return true
	}
	switch k {
	case KindGoto, KindReturn, KindThrow, KindAsyncGoto, KindAsyncReturn, KindAsyncEnd:
		return true
	}
	return false
}

// LeavesFunction reports whether the kind transfers control out of the
// enclosing function rather than to a successor block.
func (k Kind) LeavesFunction() bool {
	switch k {
	case KindReturn, KindThrow, KindAsyncGoto, KindAsyncReturn, KindAsyncEnd:
		return true
	}
	return false
}

// IsStatement reports whether the kind only makes sense in statement
// position: it never produces a value another instruction can consume.
func (k Kind) IsStatement() bool {
	switch k {
	case KindSet, KindSetProp, KindVar, KindThrow, KindReturn, KindBreak,
		KindSBreak, KindContinue, KindPhiMove, KindGoto, KindAsyncGoto,
		KindAsyncReturn, KindAsyncEnd, KindAsyncPrelude, KindNop:
		return true
	}
	return k.IsBranch()
}

// Operand is an instruction argument: an *Instruction (value dependency),
// a *Block (branch or function target), a Literal or a Name.
type Operand interface {
	operand()
}

// Literal is an immediate value: nil (null), bool, string, int64 or float64.
type Literal struct {
	Value any
}

// Name is an identifier, operator or property name immediate.
type Name string

func (*Instruction) operand() {}
func (*Block) operand()       {}
func (Literal) operand()      {}
func (Name) operand()         {}

// FuncInfo describes the function an fn instruction creates.
type FuncInfo struct {
	Name   string
	Params []string
	// Decl is set for function declarations, which are hoisted.
	Decl bool
	// Cont marks a continuation synthesized by asyncify.
	Cont bool
}

// HasParam reports whether name is one of the declared parameters.
func (f *FuncInfo) HasParam(name string) bool {
	for _, p := range f.Params {
		if p == name {
			return true
		}
	}
	return false
}

// Instruction is a single operation owned by exactly one Block.
type Instruction struct {
	Args  []Operand
	Uses  []*Instruction
	Block *Block

	// Func is set for KindFn.
	Func *FuncInfo
	// CatchParam is set for KindTry.
	CatchParam string
	// Fn is the entry block of the function whose code an asyncify
	// generated instruction belongs to.
	Fn *Block

	ID   int
	Kind Kind

	inert bool
}

// Inert reports whether the instruction was added to an ended block and
// therefore never executes.
func (i *Instruction) Inert() bool {
	return i.inert
}

// Value returns argument n as an instruction, or nil.
func (i *Instruction) Value(n int) *Instruction {
	if n >= len(i.Args) {
		return nil
	}
	v, _ := i.Args[n].(*Instruction)
	return v
}

// Target returns argument n as a block, or nil.
func (i *Instruction) Target(n int) *Block {
	if n >= len(i.Args) {
		return nil
	}
	b, _ := i.Args[n].(*Block)
	return b
}

// NameArg returns argument n as a name, or "".
func (i *Instruction) NameArg(n int) string {
	if n >= len(i.Args) {
		return ""
	}
	s, _ := i.Args[n].(Name)
	return string(s)
}

// Targets returns the block operands in argument order.
func (i *Instruction) Targets() []*Block {
	var out []*Block
	for _, a := range i.Args {
		if b, ok := a.(*Block); ok {
			out = append(out, b)
		}
	}
	return out
}

// Values returns the instruction operands in argument order.
func (i *Instruction) Values() []*Instruction {
	var out []*Instruction
	for _, a := range i.Args {
		if v, ok := a.(*Instruction); ok {
			out = append(out, v)
		}
	}
	return out
}

// AppendArg adds an operand, recording the use.
func (i *Instruction) AppendArg(op Operand) {
	i.Args = append(i.Args, op)
	if v, ok := op.(*Instruction); ok {
		v.addUse(i)
	}
}

// SetArg replaces operand n, keeping use lists consistent.
func (i *Instruction) SetArg(n int, op Operand) {
	if old, ok := i.Args[n].(*Instruction); ok {
		old.removeUse(i)
	}
	i.Args[n] = op
	if v, ok := op.(*Instruction); ok {
		v.addUse(i)
	}
}

// ReplaceTarget swaps every block operand equal to from with to.
func (i *Instruction) ReplaceTarget(from, to *Block) {
	for n, a := range i.Args {
		if a == Operand(from) {
			i.Args[n] = to
		}
	}
}

// ReplaceUses redirects every consumer of i to read with instead.
func (i *Instruction) ReplaceUses(with *Instruction) {
	users := i.Uses
	i.Uses = nil
	for _, u := range users {
		for n, a := range u.Args {
			if a == Operand(i) {
				u.Args[n] = with
				with.addUse(u)
			}
		}
	}
}

func (i *Instruction) addUse(u *Instruction) {
	for _, x := range i.Uses {
		if x == u {
			return
		}
	}
	i.Uses = append(i.Uses, u)
}

func (i *Instruction) removeUse(u *Instruction) {
	for n, x := range i.Uses {
		if x == u {
			i.Uses = append(i.Uses[:n], i.Uses[n+1:]...)
			return
		}
	}
}

// detach drops the uses this instruction holds on its operands.
func (i *Instruction) detach() {
	for _, v := range i.Values() {
		v.removeUse(i)
	}
}

// String renders the instruction as "i<id> = kind args".
func (i *Instruction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "i%d = %s", i.ID, i.Kind)
	for n, a := range i.Args {
		if n == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}
		b.WriteString(operandString(a))
	}
	if i.Func != nil {
		fmt.Fprintf(&b, " <%s(%s)", i.Func.Name, strings.Join(i.Func.Params, ", "))
		if i.Func.Decl {
			b.WriteString(" decl")
		}
		if i.Func.Cont {
			b.WriteString(" cont")
		}
		b.WriteByte('>')
	}
	if i.Kind == KindTry && i.CatchParam != "" {
		fmt.Fprintf(&b, " catch(%s)", i.CatchParam)
	}
	return b.String()
}

func operandString(op Operand) string {
	switch v := op.(type) {
	case *Instruction:
		return "i" + strconv.Itoa(v.ID)
	case *Block:
		return "b" + strconv.Itoa(v.ID)
	case Literal:
		if s, ok := v.Value.(string); ok {
			return strconv.Quote(s)
		}
		if v.Value == nil {
			return "null"
		}
		return fmt.Sprint(v.Value)
	case Name:
		return string(v)
	}
	return "?"
}
