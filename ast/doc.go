// Package ast defines the syntax tree consumed by the CFG builder and the
// surface tree produced by the renderer.
//
// Both directions share one closed vocabulary: every node type implements
// Node plus exactly one of Statement or Expression (Unsupported implements
// both). Nodes are plain structs so parsers, tests and the renderer can
// build trees directly.
package ast
