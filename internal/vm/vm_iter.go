package vm

import (
	"strconv"

	"github.com/ecmago/engine/internal/value"
)

// iterKind selects an iterState's backing source.
type iterKind byte

const (
	iterKeys  iterKind = iota // for-in: a fixed key list snapshot
	iterArray                 // for-of over a live array handle
	iterRunes                 // for-of over a string's code points
	iterJS                    // for-of over a user object implementing next()
)

// iterState is one live enumeration's progress. Cursors cross the operand
// stack as plain Number values indexing this table (the compiler threads
// them through synthetic locals, so they need to be representable as an
// ordinary Value); states are retained until the VM is dropped, which
// bounds a single Run's footprint by the number of loops it starts.
type iterState struct {
	kind   iterKind
	keys   []string
	handle int
	runes  []rune
	nextFn value.Value
	obj    value.Value
	pos    int
}

func (vm *VM) registerIter(st *iterState) value.Value {
	vm.iters = append(vm.iters, st)
	return value.Num(float64(len(vm.iters) - 1))
}

func (vm *VM) iterAt(cursor value.Value) *iterState {
	idx := int(cursor.AsFloat())
	if idx < 0 || idx >= len(vm.iters) {
		return nil
	}
	return vm.iters[idx]
}

// newForInCursor snapshots the enumerable keys of v for a for-in loop:
// array indices first, then own enumerable named properties. Non-object
// operands enumerate nothing, matching for-in over primitives.
func (vm *VM) newForInCursor(v value.Value) value.Value {
	var keys []string
	switch v.Kind() {
	case value.ObjectRef, value.FunctionRef, value.RegExpRef:
		keys = vm.heap.Get(v.AsHandle()).OwnKeys()
	case value.ArrayRef:
		o := vm.heap.Get(v.AsHandle())
		for i := range o.Elements {
			keys = append(keys, strconv.Itoa(i))
		}
		keys = append(keys, o.OwnKeys()...)
	case value.String:
		for i := range []rune(v.AsString()) {
			keys = append(keys, strconv.Itoa(i))
		}
	}
	return vm.registerIter(&iterState{kind: iterKeys, keys: keys})
}

// forInNext pops the next key off a for-in cursor: (key, false) while keys
// remain, (placeholder, true) once exhausted.
func (vm *VM) forInNext(cursor value.Value) (value.Value, bool) {
	st := vm.iterAt(cursor)
	if st == nil || st.pos >= len(st.keys) {
		return value.Undef(), true
	}
	key := st.keys[st.pos]
	st.pos++
	return value.Str(key), false
}

// newIterator implements GetIterator for the for-of/spread protocol:
// arrays iterate their elements, strings their code points, and any object
// carrying a callable `next` property is driven as a user iterator.
func (vm *VM) newIterator(v value.Value) (value.Value, error) {
	switch v.Kind() {
	case value.ArrayRef:
		return vm.registerIter(&iterState{kind: iterArray, handle: v.AsHandle()}), nil
	case value.String:
		return vm.registerIter(&iterState{kind: iterRunes, runes: []rune(v.AsString())}), nil
	case value.ObjectRef:
		next, err := vm.heap.GetProperty(v.AsHandle(), "next")
		if err != nil {
			return value.Value{}, err
		}
		if next.IsFunctionRef() {
			return vm.registerIter(&iterState{kind: iterJS, nextFn: next, obj: v}), nil
		}
	}
	return value.Value{}, vm.typeError("%s is not iterable", v.TypeOf())
}

// iteratorNext advances a for-of cursor: (element, false, nil) while values
// remain, (placeholder, true, nil) once exhausted.
func (vm *VM) iteratorNext(cursor value.Value) (value.Value, bool, error) {
	st := vm.iterAt(cursor)
	if st == nil {
		return value.Undef(), true, nil
	}
	switch st.kind {
	case iterArray:
		elems := vm.heap.Get(st.handle).Elements
		if st.pos >= len(elems) {
			return value.Undef(), true, nil
		}
		v := elems[st.pos]
		st.pos++
		return v, false, nil
	case iterRunes:
		if st.pos >= len(st.runes) {
			return value.Undef(), true, nil
		}
		v := value.Str(string(st.runes[st.pos]))
		st.pos++
		return v, false, nil
	case iterJS:
		res, err := vm.invoke(st.nextFn, st.obj, nil, value.Undef())
		if err != nil {
			return value.Value{}, true, err
		}
		if !res.IsObject() {
			return value.Value{}, true, vm.typeError("iterator result is not an object")
		}
		doneVal, err := vm.heap.GetProperty(res.AsHandle(), "done")
		if err != nil {
			return value.Value{}, true, err
		}
		if value.ToBoolean(doneVal) {
			return value.Undef(), true, nil
		}
		v, err := vm.heap.GetProperty(res.AsHandle(), "value")
		if err != nil {
			return value.Value{}, true, err
		}
		return v, false, nil
	default:
		return value.Undef(), true, nil
	}
}

// iterableElements drains an iterable into a slice, the eager form Spread
// and apply-style call sites use.
func (vm *VM) iterableElements(v value.Value) ([]value.Value, error) {
	switch v.Kind() {
	case value.ArrayRef:
		return append([]value.Value(nil), vm.heap.Get(v.AsHandle()).Elements...), nil
	case value.String:
		runes := []rune(v.AsString())
		out := make([]value.Value, len(runes))
		for i, r := range runes {
			out[i] = value.Str(string(r))
		}
		return out, nil
	case value.ObjectRef:
		cursor, err := vm.newIterator(v)
		if err != nil {
			return nil, err
		}
		var out []value.Value
		for {
			el, exhausted, err := vm.iteratorNext(cursor)
			if err != nil {
				return nil, err
			}
			if exhausted {
				return out, nil
			}
			out = append(out, el)
		}
	default:
		return nil, vm.typeError("%s is not iterable", v.TypeOf())
	}
}
