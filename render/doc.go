// Package render reconstructs structured JavaScript from a derived
// control-flow graph.
//
// Each root is emitted as a sequence starting at its entry block. Two-way
// branches become if statements that stop at the branch's immediate
// post-dominator, loop headers become while, for, do-while or for-in
// statements, and edges to a loop's follow or latch become break and
// continue. Ternary and logical branches whose arms only move a value
// into the join fold back into a single expression.
//
// Placement follows the post-dominator tree rather than a readiness queue
// that holds each block back until every predecessor in its control
// dominance frontier has been emitted. A join is therefore emitted once,
// after the if statement whose arms both reach it, and never duplicated
// into an arm.
//
// Values used by exactly one instruction right after them in the same
// block are inlined; everything else is assigned to a temporary named
// __$tN. Variables and temporaries of a function, together with those of
// its continuations, are declared in one var statement at its top, after
// any directive prologue. Continuations become function declarations of
// the function they were split from.
package render
