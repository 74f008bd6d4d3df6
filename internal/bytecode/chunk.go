package bytecode

import "github.com/ecmago/engine/internal/value"

// TryInfo is the catch/finally target pair a PushHandler instruction refers
// to by index; kept out-of-line rather than packed into the instruction's
// operand bits since a try statement needs two PC targets plus two flags.
type TryInfo struct {
	CatchTarget   int
	FinallyTarget int
	HasCatch      bool
	HasFinally    bool
}

// lineRun is one run-length-encoded span of the line table: `Count`
// consecutive instructions all originating from source `Line`.
type lineRun struct {
	Line  int
	Count int
}

// Chunk is one function body's compiled code: the instruction stream, its
// deduplicated constant pool, a run-length line table for error reporting,
// and the try/catch/finally metadata PushHandler instructions index into.
type Chunk struct {
	Code       []Instruction
	Constants  []value.Value
	LocalCount int
	MaxStack   int

	lines    []lineRun
	tryInfos map[int]TryInfo

	stackDepth int // running total while compiling, tracks MaxStack
}

func newChunk() *Chunk {
	return &Chunk{tryInfos: make(map[int]TryInfo)}
}

// Write appends a full [op][a][b] instruction at the current line and
// returns its index.
func (c *Chunk) Write(op OpCode, a byte, b uint16, line int) int {
	idx := len(c.Code)
	c.Code = append(c.Code, MakeInstruction(op, a, b))
	c.addLine(line)
	return idx
}

// WriteSimple appends a zero-operand instruction.
func (c *Chunk) WriteSimple(op OpCode, line int) int {
	idx := len(c.Code)
	c.Code = append(c.Code, MakeSimple(op))
	c.addLine(line)
	return idx
}

func (c *Chunk) addLine(line int) {
	if n := len(c.lines); n > 0 && c.lines[n-1].Line == line {
		c.lines[n-1].Count++
		return
	}
	c.lines = append(c.lines, lineRun{Line: line, Count: 1})
}

// GetLine maps an instruction index back to its source line via the
// run-length table, used when the VM reports a runtime error.
func (c *Chunk) GetLine(pc int) int {
	remaining := pc
	for _, run := range c.lines {
		if remaining < run.Count {
			return run.Line
		}
		remaining -= run.Count
	}
	if len(c.lines) > 0 {
		return c.lines[len(c.lines)-1].Line
	}
	return 0
}

// AddConstant interns v into the constant pool, returning its index. Number
// and String constants are deduplicated by value; Symbol, BigInt, and heap
// references are never deduplicated since each mint carries distinct
// identity or mutable state.
func (c *Chunk) AddConstant(v value.Value) uint16 {
	if v.IsNumber() || v.IsString() || v.IsBoolean() {
		for i, existing := range c.Constants {
			if sameConstant(existing, v) {
				return uint16(i)
			}
		}
	}
	c.Constants = append(c.Constants, v)
	return uint16(len(c.Constants) - 1)
}

func sameConstant(a, b value.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case value.Number:
		return a.AsFloat() == b.AsFloat()
	case value.String:
		return a.AsString() == b.AsString()
	case value.Boolean:
		return a.AsBool() == b.AsBool()
	}
	return false
}

// EmitJump writes a forward jump with a placeholder target, returning the
// instruction's index so PatchJump can fill in the real target once known.
func (c *Chunk) EmitJump(op OpCode, line int) int {
	return c.Write(op, 0, 0, line)
}

// PatchJump sets the jump instruction at idx to target the chunk's current
// end (the next instruction to be emitted).
func (c *Chunk) PatchJump(idx int) {
	c.PatchJumpTo(idx, len(c.Code))
}

// PatchJumpTo sets the jump instruction at idx to target an explicit
// absolute instruction index (used for backward loop jumps and jumps that
// must land on a previously recorded position, e.g. a loop's continue target).
func (c *Chunk) PatchJumpTo(idx int, target int) {
	c.Code[idx] = c.Code[idx].withB(uint16(target))
}

func (c *Chunk) SetTryInfo(handlerIdx int, info TryInfo) { c.tryInfos[handlerIdx] = info }

func (c *Chunk) TryInfoAt(handlerIdx int) (TryInfo, bool) {
	info, ok := c.tryInfos[handlerIdx]
	return info, ok
}

func (c *Chunk) here() int { return len(c.Code) }

// trackStack updates the running stack depth by delta and widens MaxStack
// if this is the highest point seen so far; the compiler calls this after
// every emitted instruction, including the variadic ones whose effect isn't
// in the static stackEffect table.
func (c *Chunk) trackStack(delta int) {
	c.stackDepth += delta
	if c.stackDepth > c.MaxStack {
		c.MaxStack = c.stackDepth
	}
	if c.stackDepth < 0 {
		c.stackDepth = 0
	}
}
