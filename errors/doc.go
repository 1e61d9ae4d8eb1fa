// Package errors provides structured error types for the spoon compiler.
//
// Errors are categorized by Phase (which pipeline stage failed) and Kind
// (error category). The Error type carries the offending node kind, a
// location path and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseConstruct, errors.KindUnsupported).
//		Path("main", "block 4").
//		Node("SwitchStatement").
//		Detail("switch statements are not lowered").
//		Build()
//
// Or use convenience constructors for the common cases:
//
//	err := errors.Unsupported(errors.PhaseConstruct, "finally")
//	err := errors.GraphInvariant(errors.PhaseConstruct, "block %d: third successor", id)
//
// Deep recursive passes raise *Error with panic and convert it back at
// their public entry point with a deferred Recover. All errors implement
// the standard error interface and support errors.Is/As.
package errors
