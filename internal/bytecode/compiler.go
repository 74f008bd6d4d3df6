package bytecode

import (
	"fmt"

	"github.com/ecmago/engine/internal/ast"
	"github.com/ecmago/engine/internal/value"
)

// CompileError reports a problem discovered while generating bytecode for
// an already-analyzed program (a construct the compiler doesn't know how to
// lower, not a syntax or binding error — those are the parser's and
// semantic analyzer's job).
type CompileError struct {
	Line    int
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

type local struct {
	name  string
	depth int
}

type loopKind byte

const (
	loopWhile loopKind = iota
	loopFor
	loopDoWhile
	loopSwitch // switch bodies only ever host `break`, never `continue`
)

type loopContext struct {
	kind       loopKind
	label      string // the nearest enclosing label, "" if unlabeled
	continuePC int    // unused, always -1: continue jumps are recorded in continues
	breaks     []int  // indices of emitted Jump instructions still needing a patch
	continues  []int  // same, for continue, patched once the loop's continue target is known
}

// Compiler lowers one function body (or the top-level program) into a
// Chunk. Nested function literals get their own child Compiler chained via
// enclosing, which is how resolveUpvalue walks outward to find a capture.
type Compiler struct {
	enclosing *Compiler
	program   *Program

	chunk      *Chunk
	locals     []local
	upvalues   []UpvalueDef
	scopeDepth int
	loops      []*loopContext

	// currentLabel is consumed by the next loop statement compiled (see
	// compileLabeledStatement), attaching a source label to that loop's
	// loopContext so labeled break/continue can find it by name.
	currentLabel string

	isArrow bool

	// completionSlot holds the top-level program's running completion value
	// (the last top-level expression statement's result), or -1 for every
	// compiler that isn't the root program compiler. Only CompileProgram
	// declares it; compileExpressionStatement stores into it instead of
	// discarding the value with Pop whenever c.enclosing == nil.
	completionSlot int
}

// NewProgramCompiler creates the root compiler for a script or module body.
func NewProgramCompiler() *Compiler {
	c := &Compiler{program: &Program{}, chunk: newChunk()}
	return c
}

func (c *Compiler) newChildCompiler(isArrow bool) *Compiler {
	return &Compiler{enclosing: c, program: c.program, chunk: newChunk(), isArrow: isArrow}
}

// CompileProgram compiles a top-level program into a Program whose
// Functions[0] is the script body (ParamCount 0, no upvalues). Slot 0 is
// reserved before any statement compiles: nested function literals append
// their own entries as they are reached, and every NewFunction instruction
// bakes in the index its function held at append time, so the script body
// cannot be moved into place after the fact.
func CompileProgram(prog *ast.Program) (*Program, error) {
	c := NewProgramCompiler()
	c.program.Functions = append(c.program.Functions, FunctionInfo{})
	c.beginScope()
	c.completionSlot = c.declareLocal("$completion")
	if err := c.hoistAndCompileBody(prog.Statements); err != nil {
		return nil, err
	}
	c.emitAB(LoadLocal, 0, uint16(c.completionSlot), 0)
	c.chunk.WriteSimple(Halt, 0)
	c.program.Functions[0] = FunctionInfo{Name: "", ParamCount: 0, Chunk: c.chunk}
	return c.program, nil
}

func (c *Compiler) emit(op OpCode, line int) int {
	idx := c.chunk.WriteSimple(op, line)
	c.chunk.trackStack(stackEffect[op])
	return idx
}

func (c *Compiler) emitAB(op OpCode, a byte, b uint16, line int) int {
	idx := c.chunk.Write(op, a, b, line)
	switch op {
	case Call: // [callee, ...args, this] -> [result]
		c.chunk.trackStack(-int(a) - 1)
	case New: // [callee, ...args] -> [instance]
		c.chunk.trackStack(-int(a))
	case NewObject: // A key/value pairs -> [object]
		c.chunk.trackStack(1 - 2*int(a))
	case NewArray: // B elements -> [array]
		c.chunk.trackStack(1 - int(b))
	default:
		c.chunk.trackStack(stackEffect[op])
	}
	return idx
}

func (c *Compiler) emitJump(op OpCode, line int) int {
	idx := c.chunk.EmitJump(op, line)
	c.chunk.trackStack(stackEffect[op])
	return idx
}

func (c *Compiler) emitConst(v value.Value, line int) {
	idx := c.chunk.AddConstant(v)
	c.chunk.Write(LoadConst, 0, idx, line)
	c.chunk.trackStack(1)
}

func (c *Compiler) errorf(line int, format string, args ...any) error {
	return &CompileError{Line: line, Message: fmt.Sprintf(format, args...)}
}

// beginScope/endScope delimit a block's local-variable lifetime. Locals
// live in the frame's register file (LoadLocal/StoreLocal slots), not on
// the operand stack, so ending a scope emits nothing: the compiler just
// forgets the names, abandoning their slots for reuse by later siblings.
// A slot captured as an upvalue stays physically alive in the frame's
// local array until the frame returns, at which point the VM closes it.
func (c *Compiler) beginScope() { c.scopeDepth++ }

func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.locals = c.locals[:len(c.locals)-1]
	}
}

// declareLocal reserves the next slot for name at the current scope depth.
func (c *Compiler) declareLocal(name string) int {
	c.locals = append(c.locals, local{name: name, depth: c.scopeDepth})
	slot := len(c.locals) - 1
	if slot+1 > c.chunk.LocalCount {
		c.chunk.LocalCount = slot + 1
	}
	return slot
}

// resolveLocal finds name among this compiler's own locals, innermost scope
// first (so shadowing in a nested block resolves correctly).
func (c *Compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return i, true
		}
	}
	return 0, false
}

// resolveUpvalue finds name in an enclosing function, capturing it (and
// every intermediate function's forwarding upvalue) along the way. Returns
// false if name isn't bound in any enclosing function, meaning it must be a
// global.
func (c *Compiler) resolveUpvalue(name string) (int, bool) {
	if c.enclosing == nil {
		return 0, false
	}
	if slot, ok := c.enclosing.resolveLocal(name); ok {
		return c.addUpvalue(slot, true, name), true
	}
	if idx, ok := c.enclosing.resolveUpvalue(name); ok {
		return c.addUpvalue(idx, false, name), true
	}
	return 0, false
}

func (c *Compiler) addUpvalue(index int, isLocal bool, name string) int {
	for i, uv := range c.upvalues {
		if uv.Index == index && uv.IsLocal == isLocal {
			return i
		}
	}
	c.upvalues = append(c.upvalues, UpvalueDef{Index: index, IsLocal: isLocal, Name: name})
	return len(c.upvalues) - 1
}

func (c *Compiler) pushLoop(kind loopKind, label string) *loopContext {
	ctx := &loopContext{kind: kind, label: label, continuePC: -1}
	c.loops = append(c.loops, ctx)
	return ctx
}

func (c *Compiler) popLoop() { c.loops = c.loops[:len(c.loops)-1] }

// findLoop finds the innermost loop (or, if label is set, the
// loop/labeled-statement carrying that label) a break/continue refers to.
func (c *Compiler) findLoop(label string) *loopContext {
	if label == "" {
		if len(c.loops) == 0 {
			return nil
		}
		return c.loops[len(c.loops)-1]
	}
	for i := len(c.loops) - 1; i >= 0; i-- {
		if c.loops[i].label == label {
			return c.loops[i]
		}
	}
	return nil
}

func (c *Compiler) patchLoopBreaks(ctx *loopContext) {
	target := c.chunk.here()
	for _, idx := range ctx.breaks {
		c.chunk.PatchJumpTo(idx, target)
	}
}

func (c *Compiler) patchLoopContinues(ctx *loopContext, target int) {
	for _, idx := range ctx.continues {
		c.chunk.PatchJumpTo(idx, target)
	}
}

func lineOf(n ast.Node) int {
	if n == nil {
		return 0
	}
	return n.Pos().Line
}
