package vm

import (
	"strconv"

	"github.com/ecmago/engine/internal/object"
	"github.com/ecmago/engine/internal/value"
)

// propertyKeyString canonicalizes a property-key value the way ordinary
// [[Get]]/[[Set]] do: symbols keep their display form, everything else goes
// through ToString (so obj[1] and obj["1"] address the same property).
func propertyKeyString(key value.Value) string {
	return value.ToString(key)
}

// getMember implements the LoadProperty instruction over every value kind:
// reads on null/undefined throw, primitives expose the narrow surface the
// engine supports (string length/indexing, function call/apply/bind), and
// reference kinds delegate to the heap's prototype-chain walk.
func (vm *VM) getMember(obj, key value.Value) (value.Value, error) {
	if obj.IsNullish() {
		return value.Value{}, vm.typeError("cannot read properties of %s (reading '%s')", obj.String(), propertyKeyString(key))
	}
	name := propertyKeyString(key)

	switch obj.Kind() {
	case value.String:
		return stringMember(obj.AsString(), name), nil
	case value.FunctionRef:
		v, err := vm.heap.GetProperty(obj.AsHandle(), name)
		if err != nil {
			return value.Value{}, err
		}
		if v.IsUndefined() {
			if intrinsic, ok := vm.functionIntrinsic(name); ok {
				return intrinsic, nil
			}
		}
		return v, nil
	case value.ObjectRef, value.ArrayRef, value.RegExpRef:
		return vm.heap.GetProperty(obj.AsHandle(), name)
	default:
		// Number/Boolean/Symbol/BigInt primitives carry no own properties and
		// no wrapper prototypes are wired in.
		return value.Undef(), nil
	}
}

func stringMember(s, name string) value.Value {
	runes := []rune(s)
	if name == "length" {
		return value.Num(float64(len(runes)))
	}
	if idx, err := strconv.Atoi(name); err == nil && idx >= 0 && idx < len(runes) {
		return value.Str(string(runes[idx]))
	}
	return value.Undef()
}

// setMember implements StoreProperty: writes on null/undefined throw,
// writes on other primitives are silently dropped (non-strict semantics),
// reference kinds delegate to the heap (which honors setters, writability,
// extensibility, and array length bookkeeping).
func (vm *VM) setMember(obj, key, v value.Value) error {
	if obj.IsNullish() {
		return vm.typeError("cannot set properties of %s (setting '%s')", obj.String(), propertyKeyString(key))
	}
	if !obj.IsObject() {
		return nil
	}
	if err := vm.heap.Set(obj.AsHandle(), propertyKeyString(key), v); err != nil {
		return vm.typeError("%s", err.Error())
	}
	return nil
}

func (vm *VM) deleteMember(obj, key value.Value) (bool, error) {
	if obj.IsNullish() {
		return false, vm.typeError("cannot convert %s to object", obj.String())
	}
	if !obj.IsObject() {
		return true, nil
	}
	return vm.heap.DeleteProperty(obj.AsHandle(), propertyKeyString(key)), nil
}

// hasMember implements the `in` operator: own properties, array indices,
// and the prototype chain all count; a non-object right-hand side throws.
func (vm *VM) hasMember(obj, key value.Value) (bool, error) {
	if !obj.IsObject() {
		return false, vm.typeError("cannot use 'in' operator to search for '%s' in %s", propertyKeyString(key), obj.String())
	}
	name := propertyKeyString(key)
	handle := obj.AsHandle()
	for {
		o := vm.heap.Get(handle)
		if o.Kind == object.KindArray {
			if name == "length" {
				return true, nil
			}
			if idx, err := strconv.Atoi(name); err == nil && idx >= 0 && idx < len(o.Elements) {
				return true, nil
			}
		}
		if o.HasOwn(name) {
			return true, nil
		}
		if o.Proto == nil {
			return false, nil
		}
		handle = *o.Proto
	}
}

// instanceOf walks v's prototype chain looking for ctor's `prototype`
// object, per the default OrdinaryHasInstance behavior.
func (vm *VM) instanceOf(v, ctor value.Value) (bool, error) {
	if !ctor.IsFunctionRef() {
		return false, vm.typeError("right-hand side of 'instanceof' is not callable")
	}
	protoVal, err := vm.heap.GetProperty(ctor.AsHandle(), "prototype")
	if err != nil {
		return false, err
	}
	if !protoVal.IsObject() || !v.IsObject() {
		return false, nil
	}
	target := protoVal.AsHandle()
	p := vm.heap.Get(v.AsHandle()).Proto
	for p != nil {
		if *p == target {
			return true, nil
		}
		p = vm.heap.Get(*p).Proto
	}
	return false, nil
}

// functionIntrinsic lazily materializes the shared Function.prototype-style
// methods. With no Function.prototype object graph wired up (functions are
// allocated with a nil proto), call/apply/bind are resolved here instead of
// by a chain walk; the receiver the method call protocol binds as `this` IS
// the target function, so the shared natives need no per-function capture.
func (vm *VM) functionIntrinsic(name string) (value.Value, bool) {
	if vm.fnIntrinsics == nil {
		vm.fnIntrinsics = make(map[string]value.Value, 3)
	}
	if v, ok := vm.fnIntrinsics[name]; ok {
		return v, true
	}

	var fn object.NativeFn
	switch name {
	case "call":
		fn = func(this value.Value, args []value.Value) (value.Value, error) {
			recv := value.Undef()
			var rest []value.Value
			if len(args) > 0 {
				recv, rest = args[0], args[1:]
			}
			return vm.invoke(this, recv, rest, value.Undef())
		}
	case "apply":
		fn = func(this value.Value, args []value.Value) (value.Value, error) {
			recv := value.Undef()
			var rest []value.Value
			if len(args) > 0 {
				recv = args[0]
			}
			if len(args) > 1 {
				if !args[1].IsArrayRef() {
					return value.Value{}, vm.typeError("second argument to apply must be an array")
				}
				rest = append(rest, vm.heap.Get(args[1].AsHandle()).Elements...)
			}
			return vm.invoke(this, recv, rest, value.Undef())
		}
	case "bind":
		fn = func(this value.Value, args []value.Value) (value.Value, error) {
			target := this
			boundThis := value.Undef()
			var boundArgs []value.Value
			if len(args) > 0 {
				boundThis = args[0]
				boundArgs = append(boundArgs, args[1:]...)
			}
			bound := func(_ value.Value, callArgs []value.Value) (value.Value, error) {
				full := append(append([]value.Value(nil), boundArgs...), callArgs...)
				return vm.invoke(target, boundThis, full, value.Undef())
			}
			handle := vm.heap.AllocFunction(nil, &object.FunctionData{
				Name: "bound", BytecodeRef: -1, Native: bound,
			})
			return value.Ref(value.FunctionRef, handle), nil
		}
	default:
		return value.Value{}, false
	}

	handle := vm.heap.AllocFunction(nil, &object.FunctionData{
		Name: name, BytecodeRef: -1, Native: fn,
	})
	v := value.Ref(value.FunctionRef, handle)
	vm.fnIntrinsics[name] = v
	return v, true
}
