package spoon

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/wippyai/spoon/asyncify"
	"github.com/wippyai/spoon/errors"
	"github.com/wippyai/spoon/printer"
)

// ConfigFileName is the file LoadOptions looks for in a directory.
const ConfigFileName = "spoon.toml"

// DefaultPragma marks the function compiled in declaration mode.
const DefaultPragma = "enable spoon"

// Options controls a pipeline run.
type Options struct {
	// Declaration, when set, restricts compilation to the function whose
	// body carries this directive.
	Declaration string `toml:"declaration"`
	// Targets are the call patterns Spoon asyncifies.
	Targets []string `toml:"targets"`
	// Only restricts Spoon to these named functions; Remove excludes
	// them. An entry ending in "*" is a name prefix.
	Only   []string `toml:"only"`
	Remove []string `toml:"remove"`
	// Beautify prints one statement per line with indentation.
	Beautify bool `toml:"beautify"`
	// Indent is the indentation unit when beautifying.
	Indent string `toml:"indent"`
}

// DefaultOptions returns beautified output with the default indent.
func DefaultOptions() Options {
	return Options{Beautify: true, Indent: printer.DefaultIndent}
}

// LoadOptions reads options from a TOML file. Keys missing from the file
// keep their DefaultOptions values.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read "+path)
	}
	if err := toml.Unmarshal(data, &opts); err != nil {
		return opts, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse "+path)
	}
	return opts, nil
}

func (o Options) printer() printer.Config {
	return printer.Config{Indent: o.Indent, Compact: !o.Beautify}
}

// Asyncify returns the transform configuration for targets, or for
// o.Targets when targets is empty.
func (o Options) Asyncify(targets ...string) asyncify.Config {
	if len(targets) == 0 {
		targets = o.Targets
	}
	return asyncify.Config{
		Targets:    targets,
		OnlyList:   asyncify.FunctionPatterns(o.Only),
		RemoveList: asyncify.FunctionPatterns(o.Remove),
	}
}

// Converts reports whether a Spoon run with these options rewrites
// anything.
func (o Options) Converts() bool {
	return len(o.Targets) > 0 || len(o.Only) > 0
}
