// Package asyncify converts direct-style calls to designated operations
// into continuation-passing style by rewriting the control-flow graph.
//
// # Overview
//
// A call is asynchronous when the Matcher accepts its callee. Such a call
// can not return a value to the code after it, so the code after it is
// moved into a continuation function the call receives as its last
// argument:
//
//	x = op(1);          function __$fn7(__$e, __$r) {
//	log(x + 1);           if (__$e) throw __$e;
//	                      x = __$r;
//	                      log(x + 1);
//	                    }
//	                    op(1, __$fn7);
//
// # How It Works
//
// The transform runs per function body:
//
//  1. Collect matching calls. A call inside a try body is rejected.
//  2. Desugar for-in loops that contain a call into index loops over
//     Object.keys, so the iteration state lives in variables.
//  3. Split each call block after the call.
//  4. The continuation roots are the split points plus their iterated
//     dominance frontier. Every block belongs to the region of its
//     nearest root ancestor in the dominator tree.
//  5. Every edge into a continuation root becomes a call of that root's
//     function (async-goto); the call edge becomes async-end, which
//     hands the continuation to the call and returns.
//  6. The call continuation starts with async-prelude, which forwards a
//     truthy error, and reads the call result from its second parameter.
//
// Loop headers that become roots turn the loop into a chain of
// continuations; loops without target calls stay loops.
//
// # Callback Convention
//
// Continuations follow the error-first convention: they receive
// (__$e, __$r). A converted function gains a trailing __$callback
// parameter; return v becomes return __$callback(null, v) and falling off
// the end calls __$callback(null). At program level an error is thrown.
//
// # Usage
//
//	g, err := spoon.Construct(prog)
//	if err != nil {
//	    return err
//	}
//	err = asyncify.Transform(g, asyncify.Config{
//	    Matcher: asyncify.NewExactMatcher([]string{"op", "fs.read"}),
//	})
//
// Wildcard patterns:
//
//	asyncify.Transform(g, asyncify.Config{Targets: []string{"fs.*"}})
//
// # Limitations
//
// Every use of a call result must run after its continuation starts.
// Uses the continuation entry does not dominate fail with an
// unsplittable error, as do calls inside try. Values computed before a
// call and read after it survive as function-level temporaries.
package asyncify
