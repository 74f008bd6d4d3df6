package vm

import (
	goerrors "errors"

	"github.com/ecmago/engine/internal/bytecode"
	"github.com/ecmago/engine/internal/object"
	"github.com/ecmago/engine/internal/value"
)

// errHandled is returned up the call chain by run when an exception was
// thrown and a handler somewhere in the live frame stack already redirected
// execution to it; it is never shown to a caller of Run, only used
// internally to unwind Go call frames back to the run() loop that owns the
// frame the handler lives in.
var errHandled = goerrors.New("vm: exception routed to handler")

// invoke calls fn (native or compiled) with the given receiver/arguments.
// The error is nil on an ordinary Return, errHandled when the callee's
// completion was hijacked by an exception caught in a frame below the one
// invoke pushed, or a *RuntimeError when the exception escaped every frame.
func (vm *VM) invoke(fn, this value.Value, args []value.Value, newTarget value.Value) (value.Value, error) {
	if err := vm.checkInterrupt(); err != nil {
		return value.Value{}, err
	}
	if !fn.IsFunctionRef() {
		return value.Value{}, vm.typeError("value is not callable")
	}
	obj := vm.heap.Get(fn.AsHandle())
	fd := obj.Function
	if fd == nil {
		return value.Value{}, vm.typeError("value is not callable")
	}
	if fd.Native != nil {
		res, err := fd.Native(this, args)
		if err != nil {
			return value.Value{}, vm.routeNativeError(err)
		}
		return res, nil
	}

	fi := &vm.program.Functions[fd.BytecodeRef]
	cl, _ := fd.ClosureEnv.(*closure)
	if cl == nil {
		cl = &closure{fn: fi}
	}
	if cl.hasLexicalThis {
		this = cl.lexicalThis
		newTarget = cl.lexicalTarget
	}
	locals := vm.bindParams(fi, args)

	floor := len(vm.frames)
	if err := vm.pushFrame(frame{cl: cl, locals: locals, this: this, newTarget: newTarget, fnVal: fn}); err != nil {
		return value.Value{}, err
	}
	retval, normally, err := vm.run(floor)
	if err != nil {
		return value.Value{}, err
	}
	if !normally {
		return value.Value{}, errHandled
	}
	return retval, nil
}

// routeNativeError converts a native function's error return into the VM's
// own exception flow: an errHandled/RuntimeError coming back out of a
// re-entrant CallFunction passes through untouched (the exception was
// already routed or already escaped everything), any other error becomes a
// thrown Error object per the NativeFn contract.
func (vm *VM) routeNativeError(err error) error {
	if goerrors.Is(err, errHandled) {
		return err
	}
	var re *RuntimeError
	if goerrors.As(err, &re) {
		return re
	}
	return vm.throw(vm.makeError("Error", "%s", err.Error()))
}

// bindParams lays out one call's argument vector into a fresh locals slice:
// positional parameters first (Undefined if the caller passed too few),
// then, if the function declared a rest parameter, every remaining
// argument collected into a new array in its slot. Parameter default
// values are not the VM's concern: the compiler emits them as ordinary
// JumpIfUndefined-guarded bytecode in the function's own prologue (see
// Compiler.emitParamDefault).
func (vm *VM) bindParams(fi *bytecode.FunctionInfo, args []value.Value) []value.Value {
	locals := make([]value.Value, fi.Chunk.LocalCount)
	for i := range locals {
		locals[i] = value.Undef()
	}
	n := fi.ParamCount
	if fi.HasRest {
		n--
	}
	for i := 0; i < n; i++ {
		if i < len(args) {
			locals[i] = args[i]
		}
	}
	if fi.HasRest {
		var rest []value.Value
		if len(args) > n {
			rest = append(rest, args[n:]...)
		}
		handle := vm.heap.AllocArray(nil, rest)
		locals[n] = value.Ref(value.ArrayRef, handle)
	}
	return locals
}

// construct implements the `new` operator: allocate a fresh instance with
// the constructor's `prototype` property as its own prototype, invoke the
// constructor with that instance as `this`, and use the constructor's
// return value instead if it explicitly returned an object (ordinary JS
// construct semantics).
func (vm *VM) construct(callee value.Value, args []value.Value) (value.Value, error) {
	if !callee.IsFunctionRef() {
		return value.Value{}, vm.typeError("value is not a constructor")
	}
	protoVal, err := vm.heap.GetProperty(callee.AsHandle(), "prototype")
	if err != nil {
		return value.Value{}, err
	}
	var protoHandle *int
	if protoVal.IsObject() {
		h := protoVal.AsHandle()
		protoHandle = &h
	}
	instHandle := vm.heap.AllocObject(protoHandle)
	this := value.Ref(value.ObjectRef, instHandle)

	retval, err := vm.invoke(callee, this, args, callee)
	if err != nil {
		return value.Value{}, err
	}
	if retval.IsObject() {
		return retval, nil
	}
	return this, nil
}

// captureUpvalue returns the upvalue a closure created inside f should
// share for local slot idx, minting one the first time a closure reaches
// into that slot and reusing it for every subsequent closure over the same
// slot (so sibling closures observe each other's writes, Lox-style).
func (vm *VM) captureUpvalue(f *frame, idx int) *upvalue {
	if f.openUpvals == nil {
		f.openUpvals = make(map[int]*upvalue)
	}
	if u, ok := f.openUpvals[idx]; ok {
		return u
	}
	u := &upvalue{location: &f.locals[idx]}
	f.openUpvals[idx] = u
	return u
}

// closeUpvaluesForFrame detaches every upvalue f opened from f's locals
// slice into its own storage, called when f is popped off the call stack
// (by Return or by exception unwind) so outstanding closures keep working.
func (vm *VM) closeUpvaluesForFrame(f *frame) {
	for _, u := range f.openUpvals {
		u.close()
	}
}

// makeClosure builds a runtime closure for FunctionInfo fi, resolving each
// UpvalueDef against the frame that is instantiating it (IsLocal: capture
// straight off that frame's locals; otherwise: forward the enclosing
// closure's own upvalue at Index, chaining capture through an intermediate
// function that never itself references the name). Arrow closures also
// freeze the creating frame's `this`/new.target.
func (vm *VM) makeClosure(f *frame, fi *bytecode.FunctionInfo) *closure {
	cl := &closure{fn: fi}
	if fi.IsArrow {
		cl.hasLexicalThis = true
		cl.lexicalThis = f.this
		cl.lexicalTarget = f.newTarget
	}
	if len(fi.Upvalues) == 0 {
		return cl
	}
	cl.upvalues = make([]*upvalue, len(fi.Upvalues))
	for i, def := range fi.Upvalues {
		if def.IsLocal {
			cl.upvalues[i] = vm.captureUpvalue(f, def.Index)
		} else {
			cl.upvalues[i] = f.cl.upvalues[def.Index]
		}
	}
	return cl
}

// allocFunctionObject wraps a runtime closure in a heap function object.
func (vm *VM) allocFunctionObject(cl *closure) value.Value {
	fd := &object.FunctionData{
		Name:        cl.fn.Name,
		ParamCount:  cl.fn.ParamCount,
		IsGenerator: cl.fn.IsGenerator,
		IsAsync:     cl.fn.IsAsync,
		BytecodeRef: indexOfFunction(vm.program, cl.fn),
		ClosureEnv:  cl,
	}
	handle := vm.heap.AllocFunction(vm.functionProto, fd)
	return value.Ref(value.FunctionRef, handle)
}

func indexOfFunction(prog *bytecode.Program, fi *bytecode.FunctionInfo) int {
	for i := range prog.Functions {
		if &prog.Functions[i] == fi {
			return i
		}
	}
	return -1
}

// --- exceptions ---

// throw routes exc through the live handler stack; it returns errHandled
// (not nil — a distinguishable sentinel so run()'s loop can tell "an
// exception occurred but was routed" apart from "no error at all") when
// some frame's try caught it, or a *RuntimeError once no frame does.
func (vm *VM) throw(exc value.Value) error {
	if err := vm.raiseException(exc); err != nil {
		return err
	}
	return errHandled
}

// raiseException walks the live frame stack from the top down, popping
// frames with no catch handler (closing their upvalues as it goes) until
// one has a catch to redirect into, or the stack is exhausted. A run()
// loop whose frame got unwound past notices by comparing len(vm.frames) to
// its floor after this returns, not by this function stopping early.
//
// Finally-only handlers are skipped during the unwind: a finally block is
// guaranteed to run on the normal and caught-exception paths, but an
// exception passing straight through a catchless try propagates without
// re-entering it (the handler carries no resume point at which the VM
// could re-raise once the finally body fell through into subsequent code).
func (vm *VM) raiseException(exc value.Value) error {
	trace := vm.buildStackTrace()
	for len(vm.frames) > 0 {
		f := &vm.frames[len(vm.frames)-1]
		for len(f.handlers) > 0 {
			h := f.handlers[len(f.handlers)-1]
			f.handlers = f.handlers[:len(f.handlers)-1]
			if !h.info.HasCatch {
				continue
			}
			vm.trimStack(h.stackDepth)
			vm.stack = append(vm.stack, exc)
			f.ip = h.info.CatchTarget
			return nil
		}
		vm.closeUpvaluesForFrame(f)
		vm.frames = vm.frames[:len(vm.frames)-1]
	}
	vm.trimStack(0)
	return &RuntimeError{Value: exc, Message: vm.formatException(exc), Trace: trace}
}
