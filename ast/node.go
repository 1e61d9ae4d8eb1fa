package ast

// Node is implemented by every syntax tree node.
type Node interface {
	node()
}

// Statement is a node that can appear in a statement list.
type Statement interface {
	Node
	statement()
}

// Expression is a node that produces a value.
type Expression interface {
	Node
	expression()
}

// Program is the root of a syntax tree.
type Program struct {
	Body []Statement
}

// Variable declaration kinds.
const (
	Var   = "var"
	Let   = "let"
	Const = "const"
)

type (
	BlockStatement struct {
		Body []Statement
	}

	ExpressionStatement struct {
		Expression Expression
	}

	EmptyStatement struct{}

	// VariableDeclaration is a var/let/const statement. Only var is lowered.
	VariableDeclaration struct {
		Kind         string
		Declarations []*VariableDeclarator
	}

	// VariableDeclarator binds ID to an optional initializer. ID is an
	// *Identifier for every supported form.
	VariableDeclarator struct {
		ID   Expression
		Init Expression
	}

	FunctionDeclaration struct {
		Function *FunctionExpression
	}

	ReturnStatement struct {
		Argument Expression
	}

	IfStatement struct {
		Test       Expression
		Consequent Statement
		Alternate  Statement
	}

	WhileStatement struct {
		Test Expression
		Body Statement
	}

	DoWhileStatement struct {
		Body Statement
		Test Expression
	}

	// ForStatement's Init is nil, an Expression or a *VariableDeclaration.
	ForStatement struct {
		Init   Node
		Test   Expression
		Update Expression
		Body   Statement
	}

	// ForInStatement's Left is an Expression or a *VariableDeclaration
	// with a single declarator.
	ForInStatement struct {
		Left  Node
		Right Expression
		Body  Statement
	}

	BreakStatement struct {
		Label *Identifier
	}

	ContinueStatement struct {
		Label *Identifier
	}

	TryStatement struct {
		Block     *BlockStatement
		Handler   *CatchClause
		Finalizer *BlockStatement
	}

	CatchClause struct {
		Param *Identifier
		Body  *BlockStatement
	}

	ThrowStatement struct {
		Argument Expression
	}

	SwitchStatement struct {
		Discriminant Expression
		Cases        []*SwitchCase
	}

	// SwitchCase with a nil Test is the default clause.
	SwitchCase struct {
		Test       Expression
		Consequent []Statement
	}
)

type (
	Identifier struct {
		Name string
	}

	// Literal holds nil (null), bool, string, int64 or float64.
	Literal struct {
		Value any
	}

	ThisExpression struct{}

	ArrayExpression struct {
		Elements []Expression
	}

	ObjectExpression struct {
		Properties []*Property
	}

	// Property is a plain key: value entry. Key is an *Identifier, a
	// *Literal, or any expression when Computed is set.
	Property struct {
		Key      Expression
		Value    Expression
		Computed bool
	}

	FunctionExpression struct {
		ID        *Identifier
		Params    []*Identifier
		Body      *BlockStatement
		Generator bool
		Async     bool
	}

	UnaryExpression struct {
		Operator string
		Argument Expression
	}

	UpdateExpression struct {
		Operator string
		Prefix   bool
		Argument Expression
	}

	BinaryExpression struct {
		Operator string
		Left     Expression
		Right    Expression
	}

	// LogicalExpression covers &&, || and ??.
	LogicalExpression struct {
		Operator string
		Left     Expression
		Right    Expression
	}

	AssignmentExpression struct {
		Operator string
		Left     Expression
		Right    Expression
	}

	ConditionalExpression struct {
		Test       Expression
		Consequent Expression
		Alternate  Expression
	}

	CallExpression struct {
		Callee    Expression
		Arguments []Expression
	}

	NewExpression struct {
		Callee    Expression
		Arguments []Expression
	}

	// MemberExpression is o.p when Computed is false (Property is then an
	// *Identifier) and o[p] otherwise.
	MemberExpression struct {
		Object   Expression
		Property Expression
		Computed bool
	}

	SequenceExpression struct {
		Expressions []Expression
	}
)

// Unsupported stands in for a construct outside the vocabulary. The parser
// emits it instead of failing so the CFG builder reports the construct by
// name.
type Unsupported struct {
	What string
}

func (*Program) node() {}

func (*BlockStatement) node()      {}
func (*ExpressionStatement) node() {}
func (*EmptyStatement) node()      {}
func (*VariableDeclaration) node() {}
func (*VariableDeclarator) node()  {}
func (*FunctionDeclaration) node() {}
func (*ReturnStatement) node()     {}
func (*IfStatement) node()         {}
func (*WhileStatement) node()      {}
func (*DoWhileStatement) node()    {}
func (*ForStatement) node()        {}
func (*ForInStatement) node()      {}
func (*BreakStatement) node()      {}
func (*ContinueStatement) node()   {}
func (*TryStatement) node()        {}
func (*CatchClause) node()         {}
func (*ThrowStatement) node()      {}
func (*SwitchStatement) node()     {}
func (*SwitchCase) node()          {}

func (*Identifier) node()            {}
func (*Literal) node()               {}
func (*ThisExpression) node()        {}
func (*ArrayExpression) node()       {}
func (*ObjectExpression) node()      {}
func (*Property) node()              {}
func (*FunctionExpression) node()    {}
func (*UnaryExpression) node()       {}
func (*UpdateExpression) node()      {}
func (*BinaryExpression) node()      {}
func (*LogicalExpression) node()     {}
func (*AssignmentExpression) node()  {}
func (*ConditionalExpression) node() {}
func (*CallExpression) node()        {}
func (*NewExpression) node()         {}
func (*MemberExpression) node()      {}
func (*SequenceExpression) node()    {}
func (*Unsupported) node()           {}

func (*BlockStatement) statement()      {}
func (*ExpressionStatement) statement() {}
func (*EmptyStatement) statement()      {}
func (*VariableDeclaration) statement() {}
func (*FunctionDeclaration) statement() {}
func (*ReturnStatement) statement()     {}
func (*IfStatement) statement()         {}
func (*WhileStatement) statement()      {}
func (*DoWhileStatement) statement()    {}
func (*ForStatement) statement()        {}
func (*ForInStatement) statement()      {}
func (*BreakStatement) statement()      {}
func (*ContinueStatement) statement()   {}
func (*TryStatement) statement()        {}
func (*ThrowStatement) statement()      {}
func (*SwitchStatement) statement()     {}
func (*Unsupported) statement()         {}

func (*Identifier) expression()            {}
func (*Literal) expression()               {}
func (*ThisExpression) expression()        {}
func (*ArrayExpression) expression()       {}
func (*ObjectExpression) expression()      {}
func (*FunctionExpression) expression()    {}
func (*UnaryExpression) expression()       {}
func (*UpdateExpression) expression()      {}
func (*BinaryExpression) expression()      {}
func (*LogicalExpression) expression()     {}
func (*AssignmentExpression) expression()  {}
func (*ConditionalExpression) expression() {}
func (*CallExpression) expression()        {}
func (*NewExpression) expression()         {}
func (*MemberExpression) expression()      {}
func (*SequenceExpression) expression()    {}
func (*Unsupported) expression()           {}
