// Package spoon compiles a subset of JavaScript through a control-flow
// graph and back, and can rewrite calls to designated operations into
// continuation-passing style on the way.
//
// # Architecture Overview
//
// The library is organized into packages with distinct responsibilities:
//
//	spoon/          Pipeline facade: Construct, Render, Preprocess, Spoon
//	├── ast/        Syntax tree shared by input and output
//	├── parser/     JavaScript source to ast, built on goja's parser
//	├── printer/    ast back to JavaScript source
//	├── cfg/        Instructions, blocks, lowering, dominator analysis
//	├── asyncify/   Continuation-passing transform over the graph
//	├── render/     Structured code reconstruction from the graph
//	├── errors/     Structured error types for debugging
//	└── cmd/spoon/  Command line compiler and interactive explorer
//
// # Quick Start
//
// Rewrite every call to sleep so that it takes a callback:
//
//	out, err := spoon.Spoon(src, []string{"sleep"}, spoon.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(out)
//
// Run a custom transform between lowering and rendering:
//
//	out, err := spoon.Preprocess(src, opts, func(g *cfg.Cfg) error {
//	    return asyncify.Transform(g, asyncify.Config{
//	        Matcher: asyncify.NewExactMatcher([]string{"fs.read"}),
//	    })
//	})
//
// # Declaration Mode
//
// With Options.Declaration set, only the function declaration whose body
// contains that directive string is compiled; the rest of the source is
// copied through byte for byte.
//
//	function job(a) {
//	  "enable spoon";
//	  return fetch(a);
//	}
//
// # Error Handling
//
// Every failure is an *errors.Error carrying the pipeline phase and an
// error kind:
//
//	var e *errors.Error
//	if stderrors.As(err, &e) && e.Kind == errors.KindUnsupported {
//	    // the input uses a construct outside the compiled subset
//	}
//
// # Thread Safety
//
// A Cfg belongs to one compilation. Separate compilations share nothing
// and may run concurrently. SetLogger must be called before compiling.
package spoon
