package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the pipeline the error occurred
type Phase string

const (
	PhaseParse     Phase = "parse"     // source text to syntax tree
	PhaseConstruct Phase = "construct" // syntax tree to CFG
	PhaseDerive    Phase = "derive"    // dominator and frontier analysis
	PhaseAsyncify  Phase = "asyncify"  // continuation-passing rewrite
	PhaseRender    Phase = "render"    // CFG to surface tree
	PhasePrint     Phase = "print"     // surface tree to source text
	PhaseConfig    Phase = "config"    // option loading
)

// Kind categorizes the error
type Kind string

const (
	KindUnsupported     Kind = "unsupported"
	KindMalformedLValue Kind = "malformed_lvalue"
	KindGraphInvariant  Kind = "graph_invariant"
	KindUnsplittable    Kind = "unsplittable"
	KindInvalidInput    Kind = "invalid_input"
	KindSyntax          Kind = "syntax"
	KindNotFound        Kind = "not_found"
)

// Error is the structured error type used throughout the compiler
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Node   string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Node != "" {
		b.WriteString(": node ")
		b.WriteString(e.Node)
	}

	if e.Detail != "" {
		if e.Node != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the location path (function name, block, instruction)
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Node sets the offending syntax node or instruction kind
func (b *Builder) Node(kind string) *Builder {
	b.err.Node = kind
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the compiler's error taxonomy

// Unsupported creates an unsupported construct error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Node:   what,
		Detail: "construct is not supported",
	}
}

// MalformedLValue creates an error for an assignment target that is
// neither an identifier nor a member access
func MalformedLValue(node string) *Error {
	return &Error{
		Phase:  PhaseConstruct,
		Kind:   KindMalformedLValue,
		Node:   node,
		Detail: "assignment target must be an identifier or member access",
	}
}

// GraphInvariant creates a graph invariant violation error
func GraphInvariant(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindGraphInvariant,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// Unsplittable creates an error for a target call the asyncify rewrite
// cannot express as a continuation
func Unsplittable(path []string, detail string) *Error {
	return &Error{
		Phase:  PhaseAsyncify,
		Kind:   KindUnsplittable,
		Path:   path,
		Detail: detail,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindSyntax,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// Recover converts a panic carrying *Error into a returned error. It is
// deferred at package entry points whose internals bail out by panicking;
// any other panic value is re-raised.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(*Error); ok {
		*errp = e
		return
	}
	panic(r)
}
