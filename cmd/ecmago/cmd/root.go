// Package cmd implements the ecmago CLI's cobra command tree. Grounded on
// CWBudde-go-dws/cmd/dwscript/cmd: a persistent --verbose flag, RunE-style
// handlers, an Execute() entry point, and one file per subcommand.
package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ecmago/engine/engine"
)

var (
	// Version is overridden by build flags (-ldflags "-X ...Version=...").
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	verbose    bool
	configPath string
	cachePath  string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "ecmago",
	Short: "ecmago — a lexer/parser/compiler/VM for a JavaScript subset",
	Long: `ecmago tokenizes, parses, compiles, and executes ECMAScript source
through a hand-written lexer, a Pratt-precedence recursive-descent parser,
a scope-resolving semantic analyzer, a stack-machine bytecode compiler, and
a stack-based virtual machine.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose diagnostic output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "load engine.Config from a YAML file")
	rootCmd.PersistentFlags().StringVar(&cachePath, "cache", "", "path to a persistent bytecode cache (SQLite)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colorized diagnostic output")
}

// newEngine builds an *engine.Engine from the persistent --config/--cache
// flags and the ENGINE_* environment variables, shared by every subcommand
// that needs a live engine rather than just the front-end stages.
func newEngine() (*engine.Engine, error) {
	cfg := engine.DefaultConfig()
	if configPath != "" {
		loaded, err := engine.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if cachePath != "" {
		cfg.CachePath = cachePath
	}

	opts := []engine.Option{engine.WithConfig(cfg)}
	if cfg.CachePath != "" {
		opts = append(opts, engine.WithCache(cfg.CachePath))
	}
	return engine.New(opts...), nil
}

// compileError marks an error as belonging to a pre-execution stage (lex,
// parse, semantic, compile) so main.go can map it to spec.md §6's exit
// code 2 instead of the generic runtime exit code 1.
type compileError struct{ err error }

func (c *compileError) Error() string { return c.err.Error() }
func (c *compileError) Unwrap() error { return c.err }

// IsCompileError reports whether err (or anything it wraps) was tagged by
// a subcommand as a front-end diagnostic rather than a runtime failure.
func IsCompileError(err error) bool {
	var ce *compileError
	return errors.As(err, &ce)
}
