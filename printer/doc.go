// Package printer writes an ast.Program back out as JavaScript source.
//
// Output is precedence aware: parentheses are emitted only where the
// tree shape requires them. Statement bodies of if and loop statements
// are always braced, and else-if chains stay flat.
//
//	src, err := printer.Print(prog)
//
// Config controls indentation; Compact drops newlines and indentation.
package printer
