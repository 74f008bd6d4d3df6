// Package errors formats compiler-stage diagnostics (lex, parse, semantic)
// with source context, line/column information, and a caret pointing at the
// offending position. Runtime errors thrown by a running program are JS
// values, not this package's concern — see internal/vm's RuntimeError.
package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/ecmago/engine/internal/token"
)

var (
	boldErr = color.New(color.Bold)
	redErr  = color.New(color.Bold, color.FgRed)
	dimErr  = color.New(color.Faint)
)

// Stage identifies which compilation phase raised a CompilerError.
type Stage string

const (
	StageLex      Stage = "lex"
	StageParse    Stage = "parse"
	StageSemantic Stage = "semantic"
	StageCompile  Stage = "compile"
)

// CompilerError is a single diagnostic with enough context to render a
// source-pointing message without re-reading the file.
type CompilerError struct {
	Stage   Stage
	Message string
	Source  string
	File    string
	Pos     token.Position
	Warning bool // semantic warnings don't block compilation
}

func NewCompilerError(stage Stage, pos token.Position, message, source, file string) *CompilerError {
	return &CompilerError{Stage: stage, Pos: pos, Message: message, Source: source, File: file}
}

func (e *CompilerError) Error() string { return e.Format(false) }

// Format renders the error with its source line and a caret; colorized
// output is used when color is true (gated by the CLI's --no-color flag and,
// ultimately, github.com/fatih/color's own isatty detection).
func (e *CompilerError) Format(useColor bool) string {
	var sb strings.Builder

	header := fmt.Sprintf("%s error", e.Stage)
	if e.Warning {
		header = fmt.Sprintf("%s warning", e.Stage)
	}
	if e.File != "" {
		fmt.Fprintf(&sb, "%s in %s:%d:%d\n", header, e.File, e.Pos.Line, e.Pos.Column)
	} else {
		fmt.Fprintf(&sb, "%s at line %d:%d\n", header, e.Pos.Line, e.Pos.Column)
	}

	if line := e.sourceLine(e.Pos.Line); line != "" {
		gutter := fmt.Sprintf("%4d | ", e.Pos.Line)
		sb.WriteString(gutter)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(gutter)+e.Pos.Column-1))
		if useColor {
			sb.WriteString(redErr.Sprint("^"))
		} else {
			sb.WriteString("^")
		}
		sb.WriteString("\n")
	}

	if useColor {
		sb.WriteString(boldErr.Sprint(e.Message))
	} else {
		sb.WriteString(e.Message)
	}
	return sb.String()
}

func (e *CompilerError) sourceLine(lineNum int) string {
	if e.Source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(e.Source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// CompilerErrorList accumulates every diagnostic from one compilation run;
// per spec.md §7, compilation fails only if a non-warning error is present.
type CompilerErrorList []*CompilerError

func (l CompilerErrorList) Error() string { return l.Format(false) }

func (l CompilerErrorList) HasBlocking() bool {
	for _, e := range l {
		if !e.Warning {
			return true
		}
	}
	return false
}

func (l CompilerErrorList) Format(useColor bool) string {
	if len(l) == 0 {
		return ""
	}
	if len(l) == 1 {
		return l[0].Format(useColor)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d diagnostic(s):\n\n", len(l))
	for i, e := range l {
		fmt.Fprintf(&sb, "[%d/%d] ", i+1, len(l))
		sb.WriteString(e.Format(useColor))
		if i < len(l)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

// Dim renders diagnostic-adjacent text (e.g. a stack trace frame) at low
// emphasis when color output is requested.
func Dim(useColor bool, s string) string {
	if !useColor {
		return s
	}
	return dimErr.Sprint(s)
}
