package engine

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ecmago/engine/internal/object"
	"github.com/ecmago/engine/internal/value"
)

// installPrelude wires the small set of natives the spec's own end-to-end
// scenarios assume exist (spec.md §8 scenario 4: "assumes Object.keys
// native") and the minimum host-output surface a script can observe its
// own behavior through. A full standard library (Math/JSON/Promise/...) is
// explicitly out of scope (spec.md §1); this is the narrow exception the
// spec itself calls out by name.
func (e *Engine) installPrelude() {
	e.installObject()
	e.installConsole()
}

func (e *Engine) nativeHandle(name string, arity int, fn object.NativeFn) int {
	return e.vm.Heap().AllocFunction(nil, &object.FunctionData{
		Name: name, ParamCount: arity, BytecodeRef: -1, Native: fn,
	})
}

func (e *Engine) installObject() {
	heap := e.vm.Heap()
	objHandle := heap.AllocObject(nil)

	keys := e.nativeHandle("keys", 1, func(_ value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 || !args[0].IsObjectRef() {
			return value.Ref(value.ArrayRef, heap.AllocArray(nil, nil)), nil
		}
		o := heap.Get(args[0].AsHandle())
		names := o.OwnKeys()
		elems := make([]value.Value, len(names))
		for i, n := range names {
			elems[i] = value.Str(n)
		}
		return value.Ref(value.ArrayRef, heap.AllocArray(nil, elems)), nil
	})
	values := e.nativeHandle("values", 1, func(_ value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 || !args[0].IsObjectRef() {
			return value.Ref(value.ArrayRef, heap.AllocArray(nil, nil)), nil
		}
		handle := args[0].AsHandle()
		o := heap.Get(handle)
		names := o.OwnKeys()
		elems := make([]value.Value, 0, len(names))
		for _, n := range names {
			v, err := heap.GetProperty(handle, n)
			if err != nil {
				return value.Value{}, err
			}
			elems = append(elems, v)
		}
		return value.Ref(value.ArrayRef, heap.AllocArray(nil, elems)), nil
	})
	freeze := e.nativeHandle("freeze", 1, func(_ value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 || !args[0].IsObjectRef() {
			return value.Undef(), nil
		}
		heap.Get(args[0].AsHandle()).Freeze()
		return args[0], nil
	})

	_ = heap.Set(objHandle, "keys", value.Ref(value.FunctionRef, keys))
	_ = heap.Set(objHandle, "values", value.Ref(value.FunctionRef, values))
	_ = heap.Set(objHandle, "freeze", value.Ref(value.FunctionRef, freeze))
	_ = heap.Set(e.vm.GlobalObject(), "Object", value.Ref(value.ObjectRef, objHandle))
}

func (e *Engine) installConsole() {
	heap := e.vm.Heap()
	consoleHandle := heap.AllocObject(nil)

	log := e.nativeHandle("log", 0, func(_ value.Value, args []value.Value) (value.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}
		fmt.Fprintln(e.stdout, strings.Join(parts, " "))
		return value.Undef(), nil
	})

	_ = heap.Set(consoleHandle, "log", value.Ref(value.FunctionRef, log))
	_ = heap.Set(consoleHandle, "error", value.Ref(value.FunctionRef, log))
	_ = heap.Set(e.vm.GlobalObject(), "console", value.Ref(value.ObjectRef, consoleHandle))
}

// WithStdout redirects console.log/console.error output; the default is
// os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(e *Engine) { e.stdout = w }
}

func defaultStdout() io.Writer { return os.Stdout }
