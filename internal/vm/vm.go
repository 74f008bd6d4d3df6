// Package vm executes a compiled bytecode.Program: a fetch-decode-execute
// loop over a call-frame stack and a shared operand stack, backed by
// internal/object's managed heap and internal/environment's global scope.
package vm

import (
	"github.com/ecmago/engine/internal/bytecode"
	"github.com/ecmago/engine/internal/environment"
	"github.com/ecmago/engine/internal/errors"
	"github.com/ecmago/engine/internal/object"
	"github.com/ecmago/engine/internal/token"
	"github.com/ecmago/engine/internal/value"
)

// Default resource bounds (spec: stack overflows fast with a RangeError
// rather than crash); an embedder overrides these through Config before
// calling NewVM — see engine.Config's MaxStack/MaxFrames fields.
const (
	DefaultMaxStack  = 10_000
	DefaultMaxFrames = 1_000
)

// VM is one engine instance's execution state: its heap, global scope, and
// the currently running (or idle, between top-level calls) frame stack.
type VM struct {
	heap   *object.Heap
	global *environment.Environment

	program *bytecode.Program

	stack  []value.Value
	frames []frame

	spreadMarks  map[int]bool           // absolute stack indices holding spread-expanded argument arrays
	iters        []*iterState           // live for-in/for-of cursor states, indexed by cursor value
	fnIntrinsics map[string]value.Value // lazily built call/apply/bind natives

	// functionProto is the shared prototype installed on every function
	// object the VM allocates (see allocFunctionObject). Left nil: no
	// Function.prototype object graph is wired up, matching how
	// engine/prelude.go allocates its own natives directly with a nil proto.
	functionProto *int

	MaxStack  int
	MaxFrames int

	interrupted bool

	globalHandle int
}

// New creates a VM with a fresh heap and global object, ready to Load a
// compiled Program and Run it. The global object is exposed at
// globalThis and backs unresolved LoadGlobal/StoreGlobal lookups.
func New() *VM {
	heap := object.NewHeap()
	globalHandle := heap.AllocObject(nil)
	global := environment.NewGlobal(globalHandle, heap)

	vm := &VM{
		heap:         heap,
		global:       global,
		MaxStack:     DefaultMaxStack,
		MaxFrames:    DefaultMaxFrames,
		globalHandle: globalHandle,
	}
	heap.SetCaller(vm)
	return vm
}

// Heap exposes the managed heap so an embedder (engine.Engine) can install
// native functions and inspect returned objects.
func (vm *VM) Heap() *object.Heap { return vm.heap }

// Global exposes the global environment so native bindings and the CLI's
// REPL can declare/assign top-level names.
func (vm *VM) Global() *environment.Environment { return vm.global }

// GlobalObject returns the heap handle backing globalThis.
func (vm *VM) GlobalObject() int { return vm.globalHandle }

// Interrupt requests that the running program abort at its next backward
// jump or call, per spec.md §5's cooperative-cancellation model.
func (vm *VM) Interrupt() { vm.interrupted = true }

func (vm *VM) checkInterrupt() error {
	if !vm.interrupted {
		return nil
	}
	vm.interrupted = false
	return vm.throw(vm.makeError("Interrupted", "execution interrupted"))
}

// Run loads prog and executes its top-level function (Functions[0]),
// returning the script's completion value: the value of the last top-level
// expression statement executed, per spec.md §8 (the compiler threads this
// through the implicit script function's $completion local; see
// bytecode.CompileProgram).
func (vm *VM) Run(prog *bytecode.Program) (value.Value, error) {
	vm.program = prog
	fn := &prog.Functions[0]
	cl := &closure{fn: fn}
	floor := len(vm.frames)
	vm.frames = append(vm.frames, frame{
		cl:        cl,
		locals:    make([]value.Value, fn.Chunk.LocalCount),
		this:      value.Ref(value.ObjectRef, vm.globalHandle),
		newTarget: value.Undef(),
	})
	result, _, err := vm.run(floor)
	return result, err
}

// CallFunction implements object.Caller so the heap can invoke accessor
// getters/setters, and so native code (engine.NativeFn) can call back into
// script functions, without either depending on this package's internals.
func (vm *VM) CallFunction(fn value.Value, this value.Value, args []value.Value) (value.Value, error) {
	if !fn.IsFunctionRef() {
		return value.Value{}, vm.typeError("value is not callable")
	}
	return vm.invoke(fn, this, args, value.Undef())
}

// buildStackTrace snapshots the current frame stack, innermost last (index
// 0 is the oldest activation), for attachment to a RuntimeError.
func (vm *VM) buildStackTrace() errors.StackTrace {
	st := errors.NewStackTrace()
	for i := range vm.frames {
		f := &vm.frames[i]
		name := f.cl.fn.Name
		if name == "" {
			name = "<anonymous>"
		}
		line := f.chunk().GetLine(max0(f.ip-1))
		pos := &tokenPositionLine{line}
		st = append(st, errors.NewStackFrame(name, "", pos.toPosition()))
	}
	return st
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// tokenPositionLine is a tiny adapter for building a Position when only the
// line is known (the chunk line table doesn't retain columns).
type tokenPositionLine struct{ line int }

func (p *tokenPositionLine) toPosition() *token.Position {
	return &token.Position{Line: p.line}
}
