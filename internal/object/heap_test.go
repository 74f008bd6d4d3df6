package object

import (
	"testing"

	"github.com/ecmago/engine/internal/value"
)

func TestObjectPropertyLookupAndPrototypeChain(t *testing.T) {
	h := NewHeap()
	protoHandle := h.AllocObject(nil)
	if err := h.Set(protoHandle, "greeting", value.Str("hi")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	childHandle := h.AllocObject(&protoHandle)

	got, err := h.GetProperty(childHandle, "greeting")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AsString() != "hi" {
		t.Errorf("expected inherited property 'hi', got %v", got)
	}

	missing, _ := h.GetProperty(childHandle, "nope")
	if !missing.IsUndefined() {
		t.Errorf("expected Undefined for missing property, got %v", missing)
	}
}

func TestObjectOwnPropertyShadowsPrototype(t *testing.T) {
	h := NewHeap()
	protoHandle := h.AllocObject(nil)
	h.Set(protoHandle, "x", value.Num(1))
	childHandle := h.AllocObject(&protoHandle)
	h.Set(childHandle, "x", value.Num(2))

	got, _ := h.GetProperty(childHandle, "x")
	if got.AsFloat() != 2 {
		t.Errorf("expected own property to shadow prototype, got %v", got)
	}
}

func TestArrayLengthTracksIndexWrites(t *testing.T) {
	h := NewHeap()
	arr := h.AllocArray(nil, nil)
	h.Set(arr, "0", value.Num(10))
	h.Set(arr, "2", value.Num(30))

	length, _ := h.GetProperty(arr, "length")
	if length.AsFloat() != 3 {
		t.Errorf("expected length 3, got %v", length)
	}
	middle, _ := h.GetProperty(arr, "1")
	if !middle.IsUndefined() {
		t.Errorf("expected hole at index 1 to read as undefined, got %v", middle)
	}
}

func TestFreezePreventsWrites(t *testing.T) {
	h := NewHeap()
	handle := h.AllocObject(nil)
	h.Set(handle, "x", value.Num(1))
	h.GetProperty(handle, "x") // warm path, no-op
	obj := h.Get(handle)
	obj.Freeze()

	h.Set(handle, "x", value.Num(999))
	got, _ := h.GetProperty(handle, "x")
	if got.AsFloat() != 1 {
		t.Errorf("expected frozen property to reject write, got %v", got)
	}
	if !obj.IsFrozen() {
		t.Errorf("expected object to report itself frozen")
	}
}

func TestPrototypeCycleRejected(t *testing.T) {
	h := NewHeap()
	a := h.AllocObject(nil)
	b := h.AllocObject(&a)
	if err := h.SetPrototype(a, &b); err == nil {
		t.Errorf("expected cyclic prototype assignment to fail")
	}
}

func TestToPrimitiveDefaults(t *testing.T) {
	h := NewHeap()

	arr := h.AllocArray(nil, []value.Value{value.Num(1), value.Num(2), value.Num(3)})
	got, err := h.ToPrimitive(value.Ref(value.ArrayRef, arr), value.HintString)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AsString() != "1,2,3" {
		t.Errorf("expected array to join as \"1,2,3\", got %v", got)
	}

	holes := h.AllocArray(nil, []value.Value{value.Num(1), value.Undef(), value.Nul(), value.Num(4)})
	got, _ = h.ToPrimitive(value.Ref(value.ArrayRef, holes), value.HintString)
	if got.AsString() != "1,,,4" {
		t.Errorf("expected nullish elements to join empty, got %v", got)
	}

	obj := h.AllocObject(nil)
	got, _ = h.ToPrimitive(value.Ref(value.ObjectRef, obj), value.HintNumber)
	if got.AsString() != "[object Object]" {
		t.Errorf("expected default object conversion, got %v", got)
	}

	prim, _ := h.ToPrimitive(value.Num(7), value.HintString)
	if prim.AsFloat() != 7 {
		t.Errorf("expected primitive to pass through unchanged, got %v", prim)
	}
}

// stubCaller invokes only native function payloads, enough to drive
// valueOf/toString dispatch in tests without a full VM.
type stubCaller struct{ h *Heap }

func (s *stubCaller) CallFunction(fn value.Value, this value.Value, args []value.Value) (value.Value, error) {
	return s.h.Get(fn.AsHandle()).Function.Native(this, args)
}

func TestToPrimitiveHintOrdersMethodDispatch(t *testing.T) {
	h := NewHeap()
	h.SetCaller(&stubCaller{h: h})

	native := func(result value.Value) int {
		return h.AllocFunction(nil, &FunctionData{
			BytecodeRef: -1,
			Native: func(value.Value, []value.Value) (value.Value, error) {
				return result, nil
			},
		})
	}
	handle := h.AllocObject(nil)
	h.Set(handle, "valueOf", value.Ref(value.FunctionRef, native(value.Num(42))))
	h.Set(handle, "toString", value.Ref(value.FunctionRef, native(value.Str("str"))))
	v := value.Ref(value.ObjectRef, handle)

	got, err := h.ToPrimitive(v, value.HintNumber)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AsFloat() != 42 {
		t.Errorf("number hint should prefer valueOf, got %v", got)
	}

	got, _ = h.ToPrimitive(v, value.HintString)
	if got.AsString() != "str" {
		t.Errorf("string hint should prefer toString, got %v", got)
	}

	got, _ = h.ToPrimitive(v, value.HintDefault)
	if got.AsFloat() != 42 {
		t.Errorf("default hint should prefer valueOf, got %v", got)
	}
}

func TestToPrimitiveSkipsNonPrimitiveMethodResults(t *testing.T) {
	h := NewHeap()
	h.SetCaller(&stubCaller{h: h})

	selfReturning := h.AllocObject(nil)
	fn := h.AllocFunction(nil, &FunctionData{
		BytecodeRef: -1,
		Native: func(this value.Value, _ []value.Value) (value.Value, error) {
			return this, nil // an object result must not satisfy the conversion
		},
	})
	h.Set(selfReturning, "valueOf", value.Ref(value.FunctionRef, fn))

	got, err := h.ToPrimitive(value.Ref(value.ObjectRef, selfReturning), value.HintNumber)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AsString() != "[object Object]" {
		t.Errorf("expected fallback to the default conversion, got %v", got)
	}
}

func TestDeleteNonConfigurableFails(t *testing.T) {
	h := NewHeap()
	handle := h.AllocObject(nil)
	h.DefineProperty(handle, "locked", &PropertyDescriptor{Value: value.Num(1), Configurable: false, Enumerable: true})
	if h.DeleteProperty(handle, "locked") {
		t.Errorf("expected delete of non-configurable property to fail")
	}
}
