// Package parser turns JavaScript source into the ast vocabulary the
// compiler understands.
//
// Parsing is delegated to goja's ECMAScript parser. Constructs outside the
// vocabulary (let/const aside, which keep their kind) are returned as
// *ast.Unsupported nodes instead of failing here, so the graph builder
// can report them by name.
//
// Syntax errors are reported as errors with the parse phase and the
// syntax kind; the goja error list is kept as the cause.
package parser
