package spoon

import (
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/spoon/asyncify"
	"github.com/wippyai/spoon/ast"
	"github.com/wippyai/spoon/cfg"
	"github.com/wippyai/spoon/parser"
	"github.com/wippyai/spoon/render"
)

// Construct lowers a syntax tree into a derived control-flow graph.
func Construct(prog *ast.Program) (*cfg.Cfg, error) {
	return cfg.Construct(prog)
}

// Render reconstructs a structured program from g.
func Render(g *cfg.Cfg) (*ast.Program, error) {
	return render.Render(g)
}

// SetLogger routes the debug output of every compiler stage to l.
func SetLogger(l *zap.Logger) {
	cfg.SetLogger(l)
	asyncify.SetLogger(l)
	render.SetLogger(l)
}

// Preprocess parses src, lowers it, hands the graph to cb (which may be
// nil), renders the result and prints it.
func Preprocess(src string, opts Options, cb func(*cfg.Cfg) error) (string, error) {
	if opts.Declaration != "" {
		return declaration(src, opts, cb)
	}
	prog, err := parser.Parse(src)
	if err != nil {
		return "", err
	}
	return compile(prog, opts, cb)
}

// Spoon asyncifies every call matching targets, or opts.Targets when
// targets is empty. opts.Only and opts.Remove pick the functions that
// are converted.
func Spoon(code string, targets []string, opts Options) (string, error) {
	conf := opts.Asyncify(targets...)
	return Preprocess(code, opts, func(g *cfg.Cfg) error {
		return asyncify.Transform(g, conf)
	})
}

func compile(prog *ast.Program, opts Options, cb func(*cfg.Cfg) error) (string, error) {
	g, err := Construct(prog)
	if err != nil {
		return "", err
	}
	if cb != nil {
		if err := cb(g); err != nil {
			return "", err
		}
	}
	out, err := Render(g)
	if err != nil {
		return "", err
	}
	return opts.printer().Print(out)
}

// declaration compiles only the marked function and splices the result
// back into the untouched source.
func declaration(src string, opts Options, cb func(*cfg.Cfg) error) (string, error) {
	fn, rng, err := parser.Declaration(src, opts.Declaration)
	if err != nil {
		return "", err
	}
	out, err := compile(&ast.Program{Body: []ast.Statement{fn}}, opts, cb)
	if err != nil {
		return "", err
	}
	return src[:rng.Start] + strings.TrimRight(out, "\n") + src[rng.End:], nil
}
