package semantic

import (
	"fmt"

	"github.com/ecmago/engine/internal/token"
)

// DiagnosticKind classifies a blocking semantic error, mirroring the check
// list the analyzer runs.
type DiagnosticKind string

const (
	ErrDuplicateDeclaration     DiagnosticKind = "duplicate-declaration"
	ErrUndeclaredIdentifier     DiagnosticKind = "undeclared-identifier"
	ErrConstAssignment          DiagnosticKind = "const-assignment"
	ErrUninitializedBinding     DiagnosticKind = "uninitialized-binding"
	ErrThisOutsideFunction      DiagnosticKind = "this-outside-function"
	ErrNewTargetOutsideFunction DiagnosticKind = "new-target-outside-function"
	ErrSuperOutsideMethod       DiagnosticKind = "super-outside-method"
)

// Diagnostic is one blocking semantic error. Errors accumulate rather than
// aborting analysis, so the compiler can still skip just the offending node.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
	Pos     token.Position
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s at %s", d.Message, d.Pos)
}

// Warning is a non-blocking observation. No analyzer pass emits one (warnf
// has no caller), so Result.Warnings is always empty.
type Warning struct {
	Message string
	Pos     token.Position
}

func (a *Analyzer) errorf(kind DiagnosticKind, pos token.Position, format string, args ...interface{}) {
	a.errors = append(a.errors, &Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...), Pos: pos})
}

func (a *Analyzer) warnf(pos token.Position, format string, args ...interface{}) {
	a.warnings = append(a.warnings, &Warning{Message: fmt.Sprintf(format, args...), Pos: pos})
}
