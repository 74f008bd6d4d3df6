// Command ecmago is the optional CLI surface described in spec.md §6:
// run/tokens/ast/bytecode/cache/version subcommands over the embedder API
// in package engine. Grounded on CWBudde-go-dws/cmd/dwscript's cobra entry
// point.
package main

import (
	"fmt"
	"os"

	"github.com/ecmago/engine/cmd/ecmago/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an error to spec.md §6's CLI exit codes: 1 for a
// runtime error, 2 for a compile-time (lex/parse/semantic) error.
func exitCodeFor(err error) int {
	if cmd.IsCompileError(err) {
		return 2
	}
	return 1
}
