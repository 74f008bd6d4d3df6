package engine

import (
	"github.com/ecmago/engine/internal/errors"
	"github.com/ecmago/engine/internal/lexer"
	"github.com/ecmago/engine/internal/parser"
	"github.com/ecmago/engine/internal/semantic"
)

// The functions below normalize each pipeline stage's own error type into
// errors.CompilerError, so Engine.Compile can hand the embedder (or the
// CLI) one uniform, source-pointing diagnostic list regardless of which
// stage produced it. Per spec.md §7, lex/parse errors and blocking semantic
// errors all gate compilation; semantic warnings never do.

func lexErrorsToDiagnostics(errs []lexer.Error, source, file string) errors.CompilerErrorList {
	out := make(errors.CompilerErrorList, 0, len(errs))
	for _, e := range errs {
		out = append(out, errors.NewCompilerError(errors.StageLex, e.Pos, e.Kind+": "+e.Message, source, file))
	}
	return out
}

func parseErrorsToDiagnostics(errs []parser.Error, source, file string) errors.CompilerErrorList {
	out := make(errors.CompilerErrorList, 0, len(errs))
	for _, e := range errs {
		out = append(out, errors.NewCompilerError(errors.StageParse, e.Pos, e.Message, source, file))
	}
	return out
}

// semanticToDiagnostics normalizes the analyzer's blocking diagnostics.
// ErrUndeclaredIdentifier is downgraded to a non-blocking warning here: the
// analyzer has no visibility into names the global environment resolves
// dynamically (natives, Engine.DefineNative bindings), so an unresolved
// free identifier is only a genuine ReferenceError once the VM's own
// LoadGlobal lookup fails at runtime — see spec.md §8's negative case list,
// which reports `y;` as a ReferenceError, not a SemanticError.
func semanticToDiagnostics(diags []*semantic.Diagnostic, source, file string) errors.CompilerErrorList {
	out := make(errors.CompilerErrorList, 0, len(diags))
	for _, d := range diags {
		ce := errors.NewCompilerError(errors.StageSemantic, d.Pos, string(d.Kind)+": "+d.Message, source, file)
		ce.Warning = d.Kind == semantic.ErrUndeclaredIdentifier
		out = append(out, ce)
	}
	return out
}

func semanticWarningsToDiagnostics(warnings []*semantic.Warning, source, file string) errors.CompilerErrorList {
	out := make(errors.CompilerErrorList, 0, len(warnings))
	for _, w := range warnings {
		ce := errors.NewCompilerError(errors.StageSemantic, w.Pos, w.Message, source, file)
		ce.Warning = true
		out = append(out, ce)
	}
	return out
}
