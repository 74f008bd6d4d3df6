package vm

import (
	"github.com/ecmago/engine/internal/bytecode"
	"github.com/ecmago/engine/internal/value"
)

// upvalue is a closure's view onto one captured variable: open while the
// owning frame is still on the call stack (location points directly into
// that frame's locals slice), closed (location points at closed) once the
// frame returns and the variable must keep living on the heap of Go memory
// instead.
type upvalue struct {
	location *value.Value
	closed   value.Value
}

func (u *upvalue) close() {
	u.closed = *u.location
	u.location = &u.closed
}

// closure pairs a compiled function with the upvalues it captured at the
// point its NewFunction/NewClass instruction ran. Arrow-function closures
// additionally freeze the `this`/new.target of the frame that created them,
// since an arrow never gets its own binding for either no matter how it is
// later invoked.
type closure struct {
	fn       *bytecode.FunctionInfo
	upvalues []*upvalue

	hasLexicalThis bool
	lexicalThis    value.Value
	lexicalTarget  value.Value
}

// frame is one call's activation record: its code, instruction pointer,
// local-variable slots (including its parameters), the closure it was
// created from (for upvalue resolution), and the `this`/new.target it was
// invoked with.
type frame struct {
	cl        *closure
	ip        int
	locals    []value.Value
	this      value.Value
	newTarget value.Value
	fnVal     value.Value // the function object being executed; Undefined for the script body
	handlers  []handlerState

	// openUpvals tracks, by local slot index, the upvalue object any closure
	// created while this frame was running captured from that slot — so a
	// later closure over the same slot shares the first one's upvalue (they
	// observe each other's writes), and so the frame can close them all when
	// it returns.
	openUpvals map[int]*upvalue
}

// handlerState tracks one active try block's handler metadata plus the
// operand-stack depth to restore when unwinding into it.
type handlerState struct {
	info       bytecode.TryInfo
	stackDepth int
}

func (f *frame) chunk() *bytecode.Chunk { return f.cl.fn.Chunk }

func (f *frame) readInstr() bytecode.Instruction {
	instr := f.chunk().Code[f.ip]
	f.ip++
	return instr
}
