package vm

import (
	"fmt"

	"github.com/ecmago/engine/internal/errors"
	"github.com/ecmago/engine/internal/value"
)

// RuntimeError wraps a thrown JS value (a real Error object, or any other
// value a script threw) with a rendered message and the call stack captured
// at the point it escaped the top frame, so the host gets a readable trace
// without needing to walk heap objects itself.
type RuntimeError struct {
	Value   value.Value
	Message string
	Trace   errors.StackTrace
}

func (r *RuntimeError) Error() string {
	if r == nil {
		return "<nil>"
	}
	msg := r.Message
	if msg == "" {
		msg = r.Value.String()
	}
	if len(r.Trace) == 0 {
		return msg
	}
	return fmt.Sprintf("%s\nStack trace:\n%s", msg, r.Trace.String())
}

// formatException renders a thrown value for host-facing error text: an
// object exception prefers its `name` and `message` properties (own data
// properties only — a getter must not run during error formatting), any
// other value renders as itself.
func (vm *VM) formatException(exc value.Value) string {
	if exc.IsObjectRef() {
		o := vm.heap.Get(exc.AsHandle())
		name, message := "", ""
		if d, ok := o.OwnDescriptor("name"); ok && !d.IsAccessor {
			name = value.ToString(d.Value)
		}
		if d, ok := o.OwnDescriptor("message"); ok && !d.IsAccessor {
			message = value.ToString(d.Value)
		}
		switch {
		case name != "" && message != "":
			return name + ": " + message
		case message != "":
			return message
		case name != "":
			return name
		}
	}
	return exc.String()
}

func (vm *VM) makeError(class, format string, args ...any) value.Value {
	message := fmt.Sprintf(format, args...)
	handle := vm.heap.AllocObject(nil)
	_ = vm.heap.Set(handle, "name", value.Str(class))
	_ = vm.heap.Set(handle, "message", value.Str(message))
	_ = vm.heap.Set(handle, "stack", value.Str(class+": "+message))
	return value.Ref(value.ObjectRef, handle)
}

func (vm *VM) typeError(format string, args ...any) error {
	return vm.throw(vm.makeError("TypeError", format, args...))
}

func (vm *VM) rangeError(format string, args ...any) error {
	return vm.throw(vm.makeError("RangeError", format, args...))
}

func (vm *VM) referenceError(format string, args ...any) error {
	return vm.throw(vm.makeError("ReferenceError", format, args...))
}
