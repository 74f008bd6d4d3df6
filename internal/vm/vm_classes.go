package vm

import (
	"github.com/ecmago/engine/internal/object"
	"github.com/ecmago/engine/internal/value"
)

// buildClass materializes one compiled ClassInfo into its runtime
// constructor/prototype pair: the prototype object (inheriting from the
// superclass's prototype when there is one) is populated with the instance
// method table first, then the constructor function object is allocated
// around it, static members are installed on the constructor, and static
// field initializers/blocks run immediately with `this` bound to the
// constructor.
func (vm *VM) buildClass(f *frame, clsIdx int, super value.Value) (value.Value, error) {
	ci := &vm.program.Classes[clsIdx]

	var protoParent *int
	var ctorParent *int
	if ci.HasSuper {
		if !super.IsFunctionRef() {
			return value.Value{}, vm.typeError("class extends value is not a constructor")
		}
		superProto, err := vm.heap.GetProperty(super.AsHandle(), "prototype")
		if err != nil {
			return value.Value{}, err
		}
		if superProto.IsObject() {
			h := superProto.AsHandle()
			protoParent = &h
		}
		sh := super.AsHandle()
		ctorParent = &sh // static members inherit through the constructor chain
	}

	protoHandle := vm.heap.AllocObject(protoParent)

	ctorInfo := &vm.program.Functions[ci.CtorIndex]
	fd := &object.FunctionData{
		Name:        ci.Name,
		ParamCount:  ctorInfo.ParamCount,
		BytecodeRef: ci.CtorIndex,
		ClosureEnv:  vm.makeClosure(f, ctorInfo),
	}
	ctorHandle := vm.heap.AllocClassConstructor(ctorParent, fd, protoHandle)
	ctorVal := value.Ref(value.FunctionRef, ctorHandle)

	if err := vm.heap.DefineProperty(protoHandle, "constructor", &object.PropertyDescriptor{
		Value: ctorVal, Writable: true, Configurable: true,
	}); err != nil {
		return value.Value{}, vm.typeError("%s", err.Error())
	}

	for i := range ci.Methods {
		m := &ci.Methods[i]
		target := protoHandle
		if m.Static {
			target = ctorHandle
		}
		fnVal := vm.allocFunctionObject(vm.makeClosure(f, &vm.program.Functions[m.FuncIndex]))
		if err := vm.installClassMember(target, m.Name, m.Kind, fnVal); err != nil {
			return value.Value{}, err
		}
	}

	for i := range ci.Fields {
		fld := &ci.Fields[i]
		init := vm.allocFunctionObject(vm.makeClosure(f, &vm.program.Functions[fld.FuncIndex]))
		result, err := vm.invoke(init, ctorVal, nil, value.Undef())
		if err != nil {
			return value.Value{}, err
		}
		if fld.Name == "" {
			continue // a static block runs for effect only
		}
		if err := vm.heap.Set(ctorHandle, fld.Name, result); err != nil {
			return value.Value{}, vm.typeError("%s", err.Error())
		}
	}

	return ctorVal, nil
}

// installClassMember writes one method-table entry: plain methods become
// non-enumerable data properties, get/set members merge into a shared
// accessor descriptor so a getter and setter for the same name coexist.
func (vm *VM) installClassMember(target int, name, kind string, fnVal value.Value) error {
	o := vm.heap.Get(target)
	switch kind {
	case "get", "set":
		d, ok := o.OwnDescriptor(name)
		if !ok || !d.IsAccessor {
			d = &object.PropertyDescriptor{
				Get: value.Undef(), Set: value.Undef(),
				IsAccessor: true, Configurable: true,
			}
		}
		if kind == "get" {
			d.Get = fnVal
		} else {
			d.Set = fnVal
		}
		if err := vm.heap.DefineProperty(target, name, d); err != nil {
			return vm.typeError("%s", err.Error())
		}
	default:
		if err := vm.heap.DefineProperty(target, name, &object.PropertyDescriptor{
			Value: fnVal, Writable: true, Configurable: true,
		}); err != nil {
			return vm.typeError("%s", err.Error())
		}
	}
	return nil
}
