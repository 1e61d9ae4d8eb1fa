package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/wippyai/spoon"
	"github.com/wippyai/spoon/asyncify"
	"github.com/wippyai/spoon/cfg"
)

type settings struct {
	opts    spoon.Options
	outDir  string
	dump    bool
	color   bool
	verbose bool
}

func main() {
	var (
		configFile  = flag.String("config", "", "Path to a spoon.toml file (default: ./spoon.toml if present)")
		targets     = flag.String("targets", "", "Asynchronous call patterns (name,obj.name,obj.*)")
		only        = flag.String("only", "", "Only convert these functions (name or prefix*)")
		remove      = flag.String("remove", "", "Never convert these functions (name or prefix*)")
		declaration = flag.String("declaration", "", "Only compile the function carrying this directive")
		compact     = flag.Bool("compact", false, "Print without newlines or indentation")
		indent      = flag.String("indent", "", "Indentation unit")
		outDir      = flag.String("o", "", "Write results into this directory instead of stdout")
		dump        = flag.Bool("dump", false, "Print the control-flow graph instead of code")
		watch       = flag.Bool("watch", false, "Recompile inputs when they change (requires -o)")
		verbose     = flag.Bool("v", false, "Log compiler stages to stderr")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	opts, err := loadOptions(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *targets != "" {
		opts.Targets = splitList(*targets)
	}
	if *only != "" {
		opts.Only = splitList(*only)
	}
	if *remove != "" {
		opts.Remove = splitList(*remove)
	}
	if *declaration != "" {
		opts.Declaration = *declaration
	}
	if *compact {
		opts.Beautify = false
	}
	if *indent != "" {
		opts.Indent = *indent
	}
	s := settings{
		opts:    opts,
		outDir:  *outDir,
		dump:    *dump,
		color:   term.IsTerminal(int(os.Stdout.Fd())),
		verbose: *verbose,
	}

	logger := zap.NewNop()
	if s.verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		spoon.SetLogger(logger)
	}
	defer logger.Sync() //nolint:errcheck

	files := flag.Args()
	if *interactive {
		if len(files) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: spoon -i <file.js>")
			os.Exit(1)
		}
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: -i requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(files[0], s.opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if len(files) == 0 {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			usage()
			os.Exit(1)
		}
		if err := runStdin(s); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runBatch(ctx, s, files); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if !*watch {
			os.Exit(1)
		}
	}
	if *watch {
		if s.outDir == "" {
			fmt.Fprintln(os.Stderr, "Error: -watch requires -o")
			os.Exit(1)
		}
		if err := runWatch(ctx, s, files, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: spoon [-targets a,b.c,d.*] [-only f,g*] [-remove h] [-declaration pragma] [-o dir] <file.js>...")
	fmt.Fprintln(os.Stderr, "       spoon [flags] < input.js")
	fmt.Fprintln(os.Stderr, "       spoon -i <file.js>  (interactive mode)")
	flag.PrintDefaults()
}

// loadOptions reads the explicit config file, or spoon.toml from the
// working directory when it exists.
func loadOptions(path string) (spoon.Options, error) {
	if path != "" {
		return spoon.LoadOptions(path)
	}
	if _, err := os.Stat(spoon.ConfigFileName); err == nil {
		return spoon.LoadOptions(spoon.ConfigFileName)
	}
	return spoon.DefaultOptions(), nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// compile runs the pipeline on one source text.
func compile(src string, s settings) (string, error) {
	if !s.dump {
		if !s.opts.Converts() {
			return spoon.Preprocess(src, s.opts, nil)
		}
		return spoon.Spoon(src, nil, s.opts)
	}
	var dump string
	_, err := spoon.Preprocess(src, s.opts, func(g *cfg.Cfg) error {
		if s.opts.Converts() {
			if err := asyncify.Transform(g, s.opts.Asyncify()); err != nil {
				return err
			}
		}
		dump = g.String()
		return nil
	})
	if err == nil && s.color && s.outDir == "" {
		dump = highlight(dump)
	}
	return dump, err
}

// highlight colours the root and block headers of a graph dump.
func highlight(dump string) string {
	lines := strings.Split(dump, "\n")
	for i, l := range lines {
		switch {
		case strings.HasPrefix(l, "--- root"):
			lines[i] = titleStyle.Render(l)
		case strings.HasPrefix(l, "[block"):
			lines[i] = funcStyle.Render(l)
		case strings.HasPrefix(l, "#"):
			lines[i] = helpStyle.Render(l)
		}
	}
	return strings.Join(lines, "\n")
}

func runStdin(s settings) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	out, err := compile(string(data), s)
	if err != nil {
		return err
	}
	_, err = io.WriteString(os.Stdout, out)
	return err
}

func compileFile(path string, s settings) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	out, err := compile(string(data), s)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	if s.outDir == "" {
		return out, nil
	}
	dst := filepath.Join(s.outDir, filepath.Base(path))
	if err := os.WriteFile(dst, []byte(out), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", dst, err)
	}
	return "", nil
}

// runBatch compiles files concurrently. Without an output directory the
// results go to stdout in argument order.
func runBatch(ctx context.Context, s settings, files []string) error {
	if s.outDir != "" {
		if err := os.MkdirAll(s.outDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	results := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := compileFile(path, s)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if s.outDir != "" {
		return nil
	}
	for i, out := range results {
		if len(files) > 1 {
			fmt.Printf("// %s\n", files[i])
		}
		fmt.Print(out)
	}
	return nil
}

// runWatch recompiles an input whenever its file is written or replaced.
// Directories are watched so that editors saving through a rename are
// still seen.
func runWatch(ctx context.Context, s settings, files []string, logger *zap.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	inputs := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		inputs[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for d := range dirs {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}
	logger.Info("watching", zap.Int("files", len(inputs)), zap.Int("dirs", len(dirs)))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil || !inputs[name] {
				continue
			}
			if _, err := compileFile(name, s); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			logger.Info("compiled", zap.String("file", name))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		}
	}
}
