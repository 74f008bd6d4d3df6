package vm

import (
	goerrors "errors"
	"fmt"

	"github.com/ecmago/engine/internal/bytecode"
	"github.com/ecmago/engine/internal/value"
)

// run drives the fetch-decode-execute loop for the frame at index floor
// (always the top of the frame stack: nested Call/New instructions recurse
// through invoke, which pushes the callee's frame and runs its own loop).
// It returns the frame's completion value and true when the frame finished
// by Return/Halt/Yield; (zero, false, nil) when an exception thrown inside
// it was caught by a frame further down the stack, unwinding this one; and
// a non-nil error when the exception escaped every frame (or an internal
// invariant broke).
func (vm *VM) run(floor int) (value.Value, bool, error) {
	for {
		if len(vm.frames) <= floor {
			return value.Value{}, false, nil
		}
		f := &vm.frames[floor]
		instr := f.readInstr()

		done, result, err := vm.exec(f, instr)
		if err != nil {
			if goerrors.Is(err, errHandled) {
				if len(vm.frames) <= floor {
					return value.Value{}, false, nil
				}
				continue
			}
			return value.Value{}, false, err
		}
		if done {
			topFrame := &vm.frames[floor]
			vm.closeUpvaluesForFrame(topFrame)
			vm.frames = vm.frames[:floor]
			return result, true, nil
		}
	}
}

// exec executes one instruction in frame f. done reports that the frame
// completed with result (Return, Halt, or a one-shot Yield).
func (vm *VM) exec(f *frame, instr bytecode.Instruction) (done bool, result value.Value, err error) {
	switch op := instr.OpCode(); op {

	// --- stack manipulation ---

	case bytecode.Pop:
		vm.pop()
	case bytecode.Dup:
		return false, value.Value{}, vm.push(vm.peek(0))
	case bytecode.Swap:
		n := len(vm.stack)
		vm.stack[n-1], vm.stack[n-2] = vm.stack[n-2], vm.stack[n-1]

	// --- constants and literals ---

	case bytecode.LoadConst:
		return false, value.Value{}, vm.push(f.chunk().Constants[instr.B()])
	case bytecode.LoadNull:
		return false, value.Value{}, vm.push(value.Nul())
	case bytecode.LoadUndefined:
		return false, value.Value{}, vm.push(value.Undef())
	case bytecode.LoadTrue:
		return false, value.Value{}, vm.push(value.Bool(true))
	case bytecode.LoadFalse:
		return false, value.Value{}, vm.push(value.Bool(false))
	case bytecode.LoadThis:
		return false, value.Value{}, vm.push(f.this)
	case bytecode.LoadThisFunction:
		return false, value.Value{}, vm.push(f.fnVal)
	case bytecode.LoadNewTarget:
		return false, value.Value{}, vm.push(f.newTarget)

	// --- variables ---

	case bytecode.LoadLocal:
		return false, value.Value{}, vm.push(f.locals[instr.B()])
	case bytecode.StoreLocal:
		f.locals[instr.B()] = vm.pop()
	case bytecode.LoadClosureVar:
		return false, value.Value{}, vm.push(*f.cl.upvalues[instr.B()].location)
	case bytecode.StoreClosureVar:
		*f.cl.upvalues[instr.B()].location = vm.pop()
	case bytecode.LoadGlobal:
		name := f.chunk().Constants[instr.B()].AsString()
		v, gerr := vm.loadGlobalBinding(name)
		if gerr != nil {
			return false, value.Value{}, gerr
		}
		return false, value.Value{}, vm.push(v)
	case bytecode.StoreGlobal:
		name := f.chunk().Constants[instr.B()].AsString()
		return false, value.Value{}, vm.storeGlobalBinding(name, vm.pop())
	case bytecode.LoadProperty:
		key := vm.pop()
		obj := vm.pop()
		v, gerr := vm.getMember(obj, key)
		if gerr != nil {
			return false, value.Value{}, gerr
		}
		return false, value.Value{}, vm.push(v)
	case bytecode.StoreProperty:
		v := vm.pop()
		key := vm.pop()
		obj := vm.pop()
		return false, value.Value{}, vm.setMember(obj, key, v)
	case bytecode.DeleteProperty:
		key := vm.pop()
		obj := vm.pop()
		ok, gerr := vm.deleteMember(obj, key)
		if gerr != nil {
			return false, value.Value{}, gerr
		}
		return false, value.Value{}, vm.push(value.Bool(ok))

	// --- arithmetic / bitwise ---
	// Reference operands go through the heap's valueOf/toString dispatch
	// first (object.Heap.ToPrimitive): `+` with the default hint so a
	// String result selects concatenation, everything numeric with the
	// number hint.

	case bytecode.Add:
		b, a := vm.pop(), vm.pop()
		a, b, gerr := vm.primitivePair(a, b, value.HintDefault)
		if gerr != nil {
			return false, value.Value{}, gerr
		}
		return false, value.Value{}, vm.push(value.Add(a, b))
	case bytecode.Sub, bytecode.Mul, bytecode.Div, bytecode.Mod, bytecode.Pow,
		bytecode.BitAnd, bytecode.BitOr, bytecode.BitXor,
		bytecode.Shl, bytecode.Shr, bytecode.UShr:
		b, a := vm.pop(), vm.pop()
		a, b, gerr := vm.primitivePair(a, b, value.HintNumber)
		if gerr != nil {
			return false, value.Value{}, gerr
		}
		return false, value.Value{}, vm.push(numericBinary(op, a, b))
	case bytecode.Neg:
		v, gerr := vm.toPrimitive(vm.pop(), value.HintNumber)
		if gerr != nil {
			return false, value.Value{}, gerr
		}
		return false, value.Value{}, vm.push(value.Neg(v))
	case bytecode.Pos:
		v, gerr := vm.toPrimitive(vm.pop(), value.HintNumber)
		if gerr != nil {
			return false, value.Value{}, gerr
		}
		return false, value.Value{}, vm.push(value.Pos(v))
	case bytecode.BitNot:
		v, gerr := vm.toPrimitive(vm.pop(), value.HintNumber)
		if gerr != nil {
			return false, value.Value{}, gerr
		}
		return false, value.Value{}, vm.push(value.BitNot(v))

	// --- comparison ---

	case bytecode.Eq:
		b, a := vm.pop(), vm.pop()
		eq, gerr := vm.looseEquals(a, b)
		if gerr != nil {
			return false, value.Value{}, gerr
		}
		return false, value.Value{}, vm.push(value.Bool(eq))
	case bytecode.Ne:
		b, a := vm.pop(), vm.pop()
		eq, gerr := vm.looseEquals(a, b)
		if gerr != nil {
			return false, value.Value{}, gerr
		}
		return false, value.Value{}, vm.push(value.Bool(!eq))
	case bytecode.StrictEq:
		b, a := vm.pop(), vm.pop()
		return false, value.Value{}, vm.push(value.Bool(value.StrictEquals(a, b)))
	case bytecode.StrictNe:
		b, a := vm.pop(), vm.pop()
		return false, value.Value{}, vm.push(value.Bool(!value.StrictEquals(a, b)))
	case bytecode.Lt, bytecode.Le, bytecode.Gt, bytecode.Ge:
		b, a := vm.pop(), vm.pop()
		a, b, gerr := vm.primitivePair(a, b, value.HintNumber)
		if gerr != nil {
			return false, value.Value{}, gerr
		}
		return false, value.Value{}, vm.push(relational(op, a, b))

	// --- logical ---

	case bytecode.Not:
		vm.replaceTop(value.Bool(!value.ToBoolean(vm.peek(0))))

	// --- increment/decrement ---

	case bytecode.Inc:
		vm.replaceTop(value.Num(value.ToNumber(vm.peek(0)) + 1))
	case bytecode.Dec:
		vm.replaceTop(value.Num(value.ToNumber(vm.peek(0)) - 1))
	case bytecode.PostInc, bytecode.PostDec:
		// The compiler desugars postfix update into Dup/Add/StoreX sequences;
		// kept executable for hand-assembled chunks: the pre-update numeric
		// value is what stays on the stack.
		vm.replaceTop(value.Num(value.ToNumber(vm.peek(0))))

	// --- type operators ---

	case bytecode.TypeOf:
		vm.replaceTop(value.Str(vm.peek(0).TypeOf()))
	case bytecode.InstanceOf:
		ctor, v := vm.pop(), vm.pop()
		ok, gerr := vm.instanceOf(v, ctor)
		if gerr != nil {
			return false, value.Value{}, gerr
		}
		return false, value.Value{}, vm.push(value.Bool(ok))
	case bytecode.In:
		obj, key := vm.pop(), vm.pop()
		ok, gerr := vm.hasMember(obj, key)
		if gerr != nil {
			return false, value.Value{}, gerr
		}
		return false, value.Value{}, vm.push(value.Bool(ok))
	case bytecode.Void:
		vm.replaceTop(value.Undef())

	// --- control flow ---

	case bytecode.Jump:
		target := int(instr.B())
		if target < f.ip-1 {
			if ierr := vm.checkInterrupt(); ierr != nil {
				return false, value.Value{}, ierr
			}
		}
		f.ip = target
	case bytecode.JumpIfTrue:
		if value.ToBoolean(vm.pop()) {
			f.ip = int(instr.B())
		}
	case bytecode.JumpIfFalse:
		if !value.ToBoolean(vm.pop()) {
			f.ip = int(instr.B())
		}
	case bytecode.JumpIfNull:
		if vm.pop().IsNull() {
			f.ip = int(instr.B())
		}
	case bytecode.JumpIfUndefined:
		if vm.pop().IsUndefined() {
			f.ip = int(instr.B())
		}

	// --- functions ---

	case bytecode.Call:
		this := vm.pop()
		args := vm.popArgs(int(instr.A()))
		callee := vm.pop()
		res, cerr := vm.invoke(callee, this, args, value.Undef())
		if cerr != nil {
			return false, value.Value{}, cerr
		}
		return false, value.Value{}, vm.push(res)
	case bytecode.New:
		args := vm.popArgs(int(instr.A()))
		callee := vm.pop()
		res, cerr := vm.construct(callee, args)
		if cerr != nil {
			return false, value.Value{}, cerr
		}
		return false, value.Value{}, vm.push(res)
	case bytecode.Return:
		ret := value.Undef()
		if instr.A() == 1 {
			ret = vm.pop()
		}
		return true, ret, nil
	case bytecode.Yield, bytecode.YieldDelegate:
		// One-shot continuation encoding: the frame completes immediately
		// with an iterator-result object carrying the yielded value.
		v := vm.pop()
		h := vm.heap.AllocObject(nil)
		_ = vm.heap.Set(h, "value", v)
		_ = vm.heap.Set(h, "done", value.Bool(false))
		return true, value.Ref(value.ObjectRef, h), nil
	case bytecode.Await:
		// Without a microtask queue an awaited value resolves to itself; the
		// async frame keeps executing synchronously.

	// --- construction ---

	case bytecode.NewObject:
		propc := int(instr.A())
		pairs := vm.popN(2 * propc)
		h := vm.heap.AllocObject(nil)
		for i := 0; i < propc; i++ {
			if serr := vm.heap.Set(h, propertyKeyString(pairs[2*i]), pairs[2*i+1]); serr != nil {
				return false, value.Value{}, vm.typeError("%s", serr.Error())
			}
		}
		return false, value.Value{}, vm.push(value.Ref(value.ObjectRef, h))
	case bytecode.NewArray:
		elems := vm.popN(int(instr.B()))
		h := vm.heap.AllocArray(nil, elems)
		return false, value.Value{}, vm.push(value.Ref(value.ArrayRef, h))
	case bytecode.NewFunction:
		fi := &vm.program.Functions[instr.B()]
		cl := vm.makeClosure(f, fi)
		return false, value.Value{}, vm.push(vm.allocFunctionObject(cl))
	case bytecode.NewClass:
		super := vm.pop()
		ctor, cerr := vm.buildClass(f, int(instr.B()), super)
		if cerr != nil {
			return false, value.Value{}, cerr
		}
		return false, value.Value{}, vm.push(ctor)

	// --- exceptions ---

	case bytecode.PushHandler:
		info, ok := f.chunk().TryInfoAt(f.ip - 1)
		if !ok {
			return false, value.Value{}, fmt.Errorf("vm: PushHandler at pc %d has no try metadata", f.ip-1)
		}
		f.handlers = append(f.handlers, handlerState{info: info, stackDepth: len(vm.stack)})
	case bytecode.PopHandler:
		// Normal exit from a protected region; the finally body, if any, is
		// laid out to follow by fall-through, so deactivating the handler is
		// all there is to do.
		if n := len(f.handlers); n > 0 {
			f.handlers = f.handlers[:n-1]
		}
	case bytecode.Throw:
		return false, value.Value{}, vm.throw(vm.pop())

	// --- special ---

	case bytecode.Spread:
		v := vm.pop()
		elems, serr := vm.iterableElements(v)
		if serr != nil {
			return false, value.Value{}, serr
		}
		h := vm.heap.AllocArray(nil, elems)
		if perr := vm.push(value.Ref(value.ArrayRef, h)); perr != nil {
			return false, value.Value{}, perr
		}
		vm.markSpread(len(vm.stack) - 1)

	// --- iteration ---

	case bytecode.ForInStart:
		v := vm.pop()
		return false, value.Value{}, vm.push(vm.newForInCursor(v))
	case bytecode.ForInNext:
		cursor := vm.pop()
		key, exhausted := vm.forInNext(cursor)
		if perr := vm.push(key); perr != nil {
			return false, value.Value{}, perr
		}
		return false, value.Value{}, vm.push(value.Bool(exhausted))
	case bytecode.GetIterator:
		v := vm.pop()
		cursor, gerr := vm.newIterator(v)
		if gerr != nil {
			return false, value.Value{}, gerr
		}
		return false, value.Value{}, vm.push(cursor)
	case bytecode.IteratorNext:
		cursor := vm.pop()
		v, exhausted, gerr := vm.iteratorNext(cursor)
		if gerr != nil {
			return false, value.Value{}, gerr
		}
		if perr := vm.push(v); perr != nil {
			return false, value.Value{}, perr
		}
		return false, value.Value{}, vm.push(value.Bool(exhausted))

	case bytecode.Halt:
		ret := value.Undef()
		if len(vm.stack) > 0 {
			ret = vm.pop()
		}
		return true, ret, nil

	default:
		return false, value.Value{}, fmt.Errorf("vm: unknown opcode %s at pc %d", op, f.ip-1)
	}
	return false, value.Value{}, nil
}

// toPrimitive routes a reference operand through the heap's valueOf/
// toString dispatch (object.Heap.ToPrimitive); primitives pass through.
// Errors surfacing from a conversion method call are already routed
// through the exception flow by CallFunction.
func (vm *VM) toPrimitive(v value.Value, hint value.Hint) (value.Value, error) {
	if !v.IsObject() {
		return v, nil
	}
	return vm.heap.ToPrimitive(v, hint)
}

func (vm *VM) primitivePair(a, b value.Value, hint value.Hint) (value.Value, value.Value, error) {
	pa, err := vm.toPrimitive(a, hint)
	if err != nil {
		return value.Value{}, value.Value{}, err
	}
	pb, err := vm.toPrimitive(b, hint)
	if err != nil {
		return value.Value{}, value.Value{}, err
	}
	return pa, pb, nil
}

// looseEquals implements `==`'s object leg: when exactly one side is a
// reference and the other a non-nullish primitive, the reference converts
// to a primitive first (obj == null stays false without any conversion,
// since null only loosely equals undefined). Everything else defers to
// value.LooseEquals' coercion ladder.
func (vm *VM) looseEquals(a, b value.Value) (bool, error) {
	var err error
	if a.IsObject() && !b.IsObject() && !b.IsNullish() {
		if a, err = vm.toPrimitive(a, value.HintDefault); err != nil {
			return false, err
		}
	}
	if b.IsObject() && !a.IsObject() && !a.IsNullish() {
		if b, err = vm.toPrimitive(b, value.HintDefault); err != nil {
			return false, err
		}
	}
	return value.LooseEquals(a, b), nil
}

// numericBinary dispatches the grouped arithmetic/bitwise case's opcode to
// internal/value, operands already reduced to primitives.
func numericBinary(op bytecode.OpCode, a, b value.Value) value.Value {
	switch op {
	case bytecode.Sub:
		return value.Sub(a, b)
	case bytecode.Mul:
		return value.Mul(a, b)
	case bytecode.Div:
		return value.Div(a, b)
	case bytecode.Mod:
		return value.Mod(a, b)
	case bytecode.Pow:
		return value.Pow(a, b)
	case bytecode.BitAnd:
		return value.BitAnd(a, b)
	case bytecode.BitOr:
		return value.BitOr(a, b)
	case bytecode.BitXor:
		return value.BitXor(a, b)
	case bytecode.Shl:
		return value.Shl(a, b)
	case bytecode.Shr:
		return value.Shr(a, b)
	default:
		return value.Ushr(a, b)
	}
}

// relational dispatches Lt/Le/Gt/Ge; an undefined comparison (NaN on
// either side) is already Bool(false) from the value-layer operators.
func relational(op bytecode.OpCode, a, b value.Value) value.Value {
	var r value.Value
	switch op {
	case bytecode.Lt:
		r, _ = value.Lt(a, b)
	case bytecode.Le:
		r, _ = value.Le(a, b)
	case bytecode.Gt:
		r, _ = value.Gt(a, b)
	default:
		r, _ = value.Ge(a, b)
	}
	return r
}

// loadGlobalBinding resolves an unscoped name against the global
// environment chain, mapping the environment package's error kinds onto the
// runtime's thrown exceptions.
func (vm *VM) loadGlobalBinding(name string) (value.Value, error) {
	v, err := vm.global.GetBindingValue(name)
	if err != nil {
		return value.Value{}, vm.referenceError("%s", err.Error())
	}
	return v, nil
}

func (vm *VM) storeGlobalBinding(name string, v value.Value) error {
	if err := vm.global.SetMutableBinding(name, v); err != nil {
		return vm.typeError("%s", err.Error())
	}
	return nil
}
