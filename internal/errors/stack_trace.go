package errors

import (
	"fmt"
	"strings"

	"github.com/ecmago/engine/internal/token"
)

// StackFrame is one call-stack entry captured when a RuntimeError is raised.
type StackFrame struct {
	Position     *token.Position
	FunctionName string
	FileName     string
}

// String renders as "FunctionName [line: N, column: M]".
func (sf StackFrame) String() string {
	if sf.Position == nil {
		return sf.FunctionName
	}
	return fmt.Sprintf("%s [line: %d, column: %d]", sf.FunctionName, sf.Position.Line, sf.Position.Column)
}

// StackTrace is a call stack, ordered oldest (bottom) to newest (top).
type StackTrace []StackFrame

func (st StackTrace) String() string {
	if len(st) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := len(st) - 1; i >= 0; i-- {
		sb.WriteString(st[i].String())
		if i > 0 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (st StackTrace) Top() *StackFrame {
	if len(st) == 0 {
		return nil
	}
	return &st[len(st)-1]
}

func (st StackTrace) Depth() int { return len(st) }

func NewStackFrame(functionName, fileName string, position *token.Position) StackFrame {
	return StackFrame{FunctionName: functionName, FileName: fileName, Position: position}
}

func NewStackTrace() StackTrace { return make(StackTrace, 0) }
