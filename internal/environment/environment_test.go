package environment

import (
	"testing"

	"github.com/ecmago/engine/internal/object"
	"github.com/ecmago/engine/internal/value"
)

func newTestGlobal() *Environment {
	h := object.NewHeap()
	backing := h.AllocObject(nil)
	return NewGlobal(backing, h)
}

func TestVarResolvableAcrossBlocks(t *testing.T) {
	fn := NewFunctionScope(newTestGlobal(), nil, nil, nil)
	if err := fn.CreateMutableBinding("x", VariableBinding, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fn.InitializeBinding("x", value.Num(1))

	block := NewBlockScope(fn)
	got, err := block.GetBindingValue("x")
	if err != nil {
		t.Fatalf("expected var to resolve through block scope: %v", err)
	}
	if got.AsFloat() != 1 {
		t.Errorf("expected 1, got %v", got)
	}
}

func TestLetUnresolvableOutsideBlock(t *testing.T) {
	fn := NewFunctionScope(newTestGlobal(), nil, nil, nil)
	block := NewBlockScope(fn)
	block.CreateMutableBinding("y", LexicalBinding, true)
	block.InitializeBinding("y", value.Num(2))

	if _, err := fn.GetBindingValue("y"); err == nil {
		t.Errorf("expected let binding to be invisible to the enclosing function scope")
	}
}

func TestTDZBlocksRead(t *testing.T) {
	env := NewBlockScope(newTestGlobal())
	env.CreateImmutableBinding("z")

	_, err := env.GetBindingValue("z")
	if _, ok := err.(*ErrTDZ); !ok {
		t.Fatalf("expected TDZ error, got %v", err)
	}

	env.InitializeBinding("z", value.Num(3))
	got, err := env.GetBindingValue("z")
	if err != nil {
		t.Fatalf("unexpected error after initialization: %v", err)
	}
	if got.AsFloat() != 3 {
		t.Errorf("expected 3, got %v", got)
	}
}

func TestConstReassignmentFails(t *testing.T) {
	env := NewBlockScope(newTestGlobal())
	env.CreateImmutableBinding("k")
	env.InitializeBinding("k", value.Num(1))

	err := env.SetMutableBinding("k", value.Num(2))
	if _, ok := err.(*ErrConstReassignment); !ok {
		t.Fatalf("expected const reassignment error, got %v", err)
	}
}

func TestDuplicateDeclarationRejected(t *testing.T) {
	env := NewBlockScope(newTestGlobal())
	if err := env.CreateMutableBinding("a", LexicalBinding, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := env.CreateMutableBinding("a", LexicalBinding, true)
	if _, ok := err.(*ErrAlreadyDeclared); !ok {
		t.Fatalf("expected already-declared error, got %v", err)
	}
}

func TestUndeclaredIdentifierFails(t *testing.T) {
	env := newTestGlobal()
	if _, err := env.GetBindingValue("nope"); err == nil {
		t.Errorf("expected not-defined error for undeclared identifier")
	}
}

func TestGlobalThisIsGlobalObject(t *testing.T) {
	env := newTestGlobal()
	this, ok := env.ThisValue()
	if !ok {
		t.Fatalf("expected global environment to provide this")
	}
	if !this.IsObjectRef() {
		t.Errorf("expected global this to be an object reference, got %v", this.Kind())
	}
}

func TestBlockDoesNotProvideThis(t *testing.T) {
	global := newTestGlobal()
	fnThis := value.Ref(value.ObjectRef, 42)
	fn := NewFunctionScope(global, &fnThis, nil, nil)
	block := NewBlockScope(fn)

	this, ok := block.ThisValue()
	if !ok {
		t.Fatalf("expected this to resolve through the function environment")
	}
	if this.AsHandle() != 42 {
		t.Errorf("expected block's this to come from enclosing function, got handle %d", this.AsHandle())
	}
}
