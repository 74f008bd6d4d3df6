package object

import (
	"fmt"

	"github.com/ecmago/engine/internal/value"
)

// Caller lets the heap invoke accessor getters/setters without depending on
// internal/vm: the VM implements this and is wired in via Heap.SetCaller.
type Caller interface {
	CallFunction(fn value.Value, this value.Value, args []value.Value) (value.Value, error)
}

// Heap is the managed object store: objects, arrays, and functions are
// allocated behind stable integer handles (slice index + free list) so
// references stay valid across any future compaction.
type Heap struct {
	slots  []*Object
	free   []int
	caller Caller
}

func NewHeap() *Heap {
	return &Heap{}
}

// SetCaller wires the VM in so accessor properties can invoke getter/setter
// functions; until set, Get/Set on an accessor descriptor returns Undefined
// rather than panicking, which matters for any heap use before a VM exists
// (e.g. building the initial global object).
func (h *Heap) SetCaller(c Caller) { h.caller = c }

func (h *Heap) alloc(o *Object) int {
	if len(h.free) > 0 {
		idx := h.free[len(h.free)-1]
		h.free = h.free[:len(h.free)-1]
		h.slots[idx] = o
		return idx
	}
	h.slots = append(h.slots, o)
	return len(h.slots) - 1
}

// Get dereferences a handle; panics on a stale/invalid handle since that
// indicates a compiler or VM bug, not a recoverable runtime condition.
func (h *Heap) Get(handle int) *Object {
	o := h.slots[handle]
	if o == nil {
		panic(fmt.Sprintf("object: dereferenced freed handle %d", handle))
	}
	return o
}

// Free releases a handle back to the allocator. Unused by the current VM
// (there is no generational GC), but keeps the handle table able to admit
// a future mark-sweep collector without an interface change.
func (h *Heap) Free(handle int) {
	h.slots[handle] = nil
	h.free = append(h.free, handle)
}

// AllocObject creates a plain object with the given prototype handle (nil
// for a null-prototype object).
func (h *Heap) AllocObject(proto *int) int {
	o := newObject(KindObject)
	o.Proto = proto
	return h.alloc(o)
}

// AllocArray creates an array object seeded with elems; its `length`
// property is synthesized on read rather than stored as a descriptor, see
// Get/Set below.
func (h *Heap) AllocArray(proto *int, elems []value.Value) int {
	o := newObject(KindArray)
	o.Proto = proto
	o.Elements = append([]value.Value(nil), elems...)
	return h.alloc(o)
}

// AllocFunction creates a function object wrapping fn's callable payload
// and its own `prototype` object (shared with `new`-instances of it).
func (h *Heap) AllocFunction(proto *int, fn *FunctionData) int {
	o := newObject(KindFunction)
	o.Proto = proto
	o.Function = fn
	protoHandle := h.AllocObject(proto)
	o.defineOwn("prototype", &PropertyDescriptor{Value: value.Ref(value.ObjectRef, protoHandle), Writable: true})
	return h.alloc(o)
}

// AllocClassConstructor creates a function object like AllocFunction, but
// installs protoHandle (already built by the caller, typically inheriting
// from a superclass's own `prototype`) as its `prototype` property instead
// of minting a fresh empty one — a class's prototype object needs its own
// method table populated before the constructor exists, so the two-step
// AllocFunction sequence doesn't fit.
func (h *Heap) AllocClassConstructor(proto *int, fn *FunctionData, protoHandle int) int {
	o := newObject(KindFunction)
	o.Proto = proto
	o.Function = fn
	o.defineOwn("prototype", &PropertyDescriptor{Value: value.Ref(value.ObjectRef, protoHandle), Writable: false})
	return h.alloc(o)
}

// SetPrototype assigns a new prototype handle to obj, rejecting the
// assignment if it would introduce a prototype cycle.
func (h *Heap) SetPrototype(handle int, proto *int) error {
	if proto != nil {
		for p := proto; p != nil; {
			if *p == handle {
				return fmt.Errorf("cyclic prototype chain")
			}
			p = h.Get(*p).Proto
		}
	}
	h.Get(handle).Proto = proto
	return nil
}

// GetProperty implements [[Get]]: own properties first, then the prototype
// chain; missing properties resolve to Undefined. Accessor descriptors
// invoke their getter with `this` bound to the originating receiver handle.
func (h *Heap) GetProperty(handle int, name string) (value.Value, error) {
	return h.getWithReceiver(handle, name, handle)
}

func (h *Heap) getWithReceiver(handle int, name string, receiver int) (value.Value, error) {
	o := h.Get(handle)

	if o.Kind == KindArray {
		if name == "length" {
			return value.Num(float64(len(o.Elements))), nil
		}
		if idx, ok := arrayIndex(name); ok && idx < len(o.Elements) {
			return o.Elements[idx], nil
		}
	}

	if d, ok := o.OwnDescriptor(name); ok {
		if d.IsAccessor {
			return h.invokeAccessor(d.Get, receiver)
		}
		return d.Value, nil
	}
	if o.Proto != nil {
		return h.getWithReceiver(*o.Proto, name, receiver)
	}
	return value.Undef(), nil
}

func (h *Heap) invokeAccessor(fn value.Value, receiver int) (value.Value, error) {
	if fn.IsUndefined() || h.caller == nil {
		return value.Undef(), nil
	}
	return h.caller.CallFunction(fn, value.Ref(value.ObjectRef, receiver), nil)
}

// Set implements [[Set]]: walk the prototype chain for a setter; if one
// exists anywhere on the chain, invoke it, else define/overwrite an own
// data property on handle (honoring Writable/Extensible).
func (h *Heap) Set(handle int, name string, v value.Value) error {
	o := h.Get(handle)

	if o.Kind == KindArray {
		if name == "length" {
			return h.resizeArray(o, v)
		}
		if idx, ok := arrayIndex(name); ok {
			h.growArray(o, idx)
			o.Elements[idx] = v
			return nil
		}
	}

	if setter, ok := h.findSetter(handle, name); ok {
		if h.caller == nil {
			return nil
		}
		_, err := h.caller.CallFunction(setter, value.Ref(value.ObjectRef, handle), []value.Value{v})
		return err
	}

	if d, ok := o.OwnDescriptor(name); ok {
		if d.IsAccessor {
			return nil // accessor with no setter: silently ignored (non-strict semantics)
		}
		if !d.Writable {
			return nil
		}
		d.Value = v
		return nil
	}
	if !o.Extensible {
		return nil
	}
	o.defineOwn(name, DataProperty(v))
	return nil
}

func (h *Heap) findSetter(handle int, name string) (value.Value, bool) {
	o := h.Get(handle)
	if d, ok := o.OwnDescriptor(name); ok {
		if d.IsAccessor && !d.Set.IsUndefined() {
			return d.Set, true
		}
		return value.Value{}, false // shadowed by a data property or accessor-without-setter
	}
	if o.Proto != nil {
		return h.findSetter(*o.Proto, name)
	}
	return value.Value{}, false
}

// DefineProperty installs an explicit property descriptor, refusing the
// change if the existing descriptor is non-configurable.
func (h *Heap) DefineProperty(handle int, name string, d *PropertyDescriptor) error {
	o := h.Get(handle)
	if existing, ok := o.OwnDescriptor(name); ok && !existing.Configurable {
		return fmt.Errorf("cannot redefine non-configurable property %q", name)
	}
	o.defineOwn(name, d)
	return nil
}

// DeleteProperty removes an own property, reporting whether it was allowed.
func (h *Heap) DeleteProperty(handle int, name string) bool {
	o := h.Get(handle)
	if o.Kind == KindArray {
		if idx, ok := arrayIndex(name); ok && idx < len(o.Elements) {
			o.Elements[idx] = value.Undef()
			return true
		}
	}
	return o.deleteOwn(name)
}

func (h *Heap) resizeArray(o *Object, v value.Value) error {
	n := int(value.ToNumber(v))
	if n < 0 {
		return fmt.Errorf("invalid array length")
	}
	if n < len(o.Elements) {
		o.Elements = o.Elements[:n]
		return nil
	}
	for len(o.Elements) < n {
		o.Elements = append(o.Elements, value.Undef())
	}
	return nil
}

func (h *Heap) growArray(o *Object, idx int) {
	for len(o.Elements) <= idx {
		o.Elements = append(o.Elements, value.Undef())
	}
}

func arrayIndex(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	n := 0
	for _, c := range name {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	if name[0] == '0' && len(name) > 1 {
		return 0, false // "01" is not a canonical array index
	}
	return n, true
}
