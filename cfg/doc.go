// Package cfg lowers a syntax tree into a control-flow graph of basic
// blocks and computes dominator and control-dominator trees over it.
//
// # Model
//
// A Cfg owns every Block and Instruction. Each function body is lowered
// into its own subgraph starting at a root block; Cfg.Roots lists them,
// program first. Blocks have at most two successors and two
// predecessors. Loops use a fixed skeleton:
//
//	pre-header (Loop) -> start -> body ... -> latch -> pre-header
//	                       \-> end -> follow
//
// break sources are chained between end and follow, continue sources
// between the body and the latch, so no block ever needs a third edge.
//
// # Operands
//
// Operand order per kind:
//
//	literal  [Literal]
//	get      [Name]
//	set      [Name, value]
//	getprop  [object, key]
//	setprop  [object, key, value]
//	var      [Name]
//	binop    [Name op, left, right]
//	unop     [Name op, value]            (delete: [Name, object, key])
//	call     [callee, args...]
//	method   [object, key, args...]
//	new      [callee, args...]
//	object   [Name key, value, ...]
//	array    [values...]
//	fn       [root]                      (root appended once lowered)
//	if       [cond, then, else]
//	ternary  [cond, then, else]
//	logical  [Name op, left, then, else]
//	while    [cond, body, end]
//	forin    [Name key, object, body, end]
//	try      [body, catch]
//	return   [value?]
//	throw    [value]
//	phimove  [value, phi]
//	goto     [target]
//
// The async-* kinds are produced by the asyncify package.
//
// # Analysis
//
// Derive computes, per root, forward dominators (Parent, Children,
// Frontier) and control dominators over the reverse graph (CParent,
// CChildren, CFrontier). Both use an iterative set-intersection fixed
// point and a bottom-up frontier pass. Blocks ending in return, throw or
// an async transfer are neutral for control dominance, so an if whose
// arm returns still joins where the other arm continues.
//
// Construction failures are reported as *errors.Error values with kinds
// unsupported, malformed_lvalue, graph_invariant or invalid_input.
package cfg
