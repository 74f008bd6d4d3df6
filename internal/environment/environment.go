// Package environment implements the lexical/variable/global environment
// chain: nested scopes of name-to-Binding records consulted by the semantic
// analyzer (for resolution), the compiler (for slot assignment), and the VM
// (for binding lookup at runtime).
package environment

import (
	"fmt"

	"github.com/ecmago/engine/internal/object"
	"github.com/ecmago/engine/internal/value"
)

// Kind distinguishes the environment records named in the data model.
type Kind byte

const (
	Global Kind = iota
	Function
	Block
	Catch
	With
	Module
)

// BindingKind records why a name was bound, driving the checks the
// semantic analyzer performs (const reassignment, TDZ reads, parameter
// redeclaration, etc).
type BindingKind byte

const (
	LexicalBinding BindingKind = iota
	VariableBinding
	FunctionBinding
	ParameterBinding
	CatchBinding
	ModuleBinding
)

// Binding is one name's slot in an Environment.
type Binding struct {
	Value       value.Value
	Kind        BindingKind
	Mutable     bool
	Deletable   bool
	Initialized bool // false between scope entry and the declaration's execution: the TDZ
}

// ErrNotDefined is returned (wrapped with the name) when resolution walks
// off the end of the chain without finding a binding.
type ErrNotDefined struct{ Name string }

func (e *ErrNotDefined) Error() string { return fmt.Sprintf("%s is not defined", e.Name) }

// ErrTDZ is returned when a lexical binding is read before its declaration
// has executed.
type ErrTDZ struct{ Name string }

func (e *ErrTDZ) Error() string {
	return fmt.Sprintf("cannot access %q before initialization", e.Name)
}

// ErrConstReassignment is returned on a write attempt to an immutable
// binding.
type ErrConstReassignment struct{ Name string }

func (e *ErrConstReassignment) Error() string {
	return fmt.Sprintf("assignment to constant variable %q", e.Name)
}

// ErrAlreadyDeclared is returned when a mutable/immutable binding creation
// would redeclare an existing name in the same environment.
type ErrAlreadyDeclared struct{ Name string }

func (e *ErrAlreadyDeclared) Error() string {
	return fmt.Sprintf("identifier %q has already been declared", e.Name)
}

// Environment is one scope's binding table, chained to an outer scope.
type Environment struct {
	kind     Kind
	outer    *Environment
	bindings map[string]*Binding

	// BackingObject is the heap handle property lookups fall back to for
	// Global and With environments; nil for every other Kind.
	BackingObject *int
	heap          *object.Heap

	thisValue  *value.Value // nil when this environment provides no `this`
	homeObject *int         // nil unless a method environment (for `super`)
	newTarget  *value.Value
	Strict     bool
}

// NewGlobal creates the root environment. backing is the global object's
// heap handle (property reads/writes on undeclared globals fall back to
// it, per With/Global environment semantics); heap resolves it.
func NewGlobal(backing int, heap *object.Heap) *Environment {
	thisVal := value.Ref(value.ObjectRef, backing)
	return &Environment{
		kind:          Global,
		bindings:      make(map[string]*Binding),
		BackingObject: &backing,
		heap:          heap,
		thisValue:     &thisVal,
	}
}

// NewFunctionScope creates a function-body environment. thisVal and
// newTarget are nil for arrow functions, which inherit both from the
// enclosing scope via normal chain lookup instead of defining their own.
func NewFunctionScope(outer *Environment, thisVal *value.Value, newTarget *value.Value, homeObject *int) *Environment {
	return &Environment{
		kind:       Function,
		outer:      outer,
		bindings:   make(map[string]*Binding),
		thisValue:  thisVal,
		newTarget:  newTarget,
		homeObject: homeObject,
	}
}

// NewBlockScope creates a block-level environment (for, while, if, {}),
// which never introduces its own `this` binding.
func NewBlockScope(outer *Environment) *Environment {
	return &Environment{kind: Block, outer: outer, bindings: make(map[string]*Binding)}
}

// NewCatchScope creates the single-binding environment introduced by a
// catch clause's parameter.
func NewCatchScope(outer *Environment) *Environment {
	return &Environment{kind: Catch, outer: outer, bindings: make(map[string]*Binding)}
}

// NewModuleScope creates a module's top-level environment: `this` is
// undefined and the environment is always strict.
func NewModuleScope(outer *Environment) *Environment {
	undef := value.Undef()
	return &Environment{kind: Module, outer: outer, bindings: make(map[string]*Binding), thisValue: &undef, Strict: true}
}

func (e *Environment) Kind() Kind    { return e.kind }
func (e *Environment) Outer() *Environment { return e.outer }

// CreateMutableBinding declares a `var`/`let`/function-scoped name.
// Initialized controls whether the binding starts live (var, function
// declarations) or in the TDZ (let before its initializer runs).
func (e *Environment) CreateMutableBinding(name string, kind BindingKind, initialized bool) error {
	if _, exists := e.bindings[name]; exists {
		return &ErrAlreadyDeclared{Name: name}
	}
	e.bindings[name] = &Binding{Kind: kind, Mutable: true, Deletable: kind == VariableBinding, Initialized: initialized}
	return nil
}

// CreateImmutableBinding declares a `const` name, always starting in the
// TDZ until InitializeBinding runs.
func (e *Environment) CreateImmutableBinding(name string) error {
	if _, exists := e.bindings[name]; exists {
		return &ErrAlreadyDeclared{Name: name}
	}
	e.bindings[name] = &Binding{Kind: LexicalBinding, Mutable: false, Initialized: false}
	return nil
}

// InitializeBinding supplies a lexical binding's value the first time its
// declaration executes, exiting the TDZ.
func (e *Environment) InitializeBinding(name string, v value.Value) {
	if b, ok := e.bindings[name]; ok {
		b.Value = v
		b.Initialized = true
	}
}

// GetBindingValue resolves name by walking the chain from this environment
// outward; the first match wins. Object-kind (Global/With) environments
// additionally check their backing object.
func (e *Environment) GetBindingValue(name string) (value.Value, error) {
	for env := e; env != nil; env = env.outer {
		if b, ok := env.bindings[name]; ok {
			if !b.Initialized {
				return value.Value{}, &ErrTDZ{Name: name}
			}
			return b.Value, nil
		}
		if env.BackingObject != nil && env.heap != nil {
			if env.heap.Get(*env.BackingObject).HasOwn(name) {
				return env.heap.GetProperty(*env.BackingObject, name)
			}
		}
	}
	return value.Value{}, &ErrNotDefined{Name: name}
}

// SetMutableBinding assigns name's value, honoring immutability, and
// falling back to the nearest backing object when no lexical binding
// matches (implicit global creation in non-strict Global environments).
func (e *Environment) SetMutableBinding(name string, v value.Value) error {
	for env := e; env != nil; env = env.outer {
		if b, ok := env.bindings[name]; ok {
			if !b.Initialized {
				return &ErrTDZ{Name: name}
			}
			if !b.Mutable {
				return &ErrConstReassignment{Name: name}
			}
			b.Value = v
			return nil
		}
		if env.BackingObject != nil && env.heap != nil {
			return env.heap.Set(*env.BackingObject, name, v)
		}
	}
	return &ErrNotDefined{Name: name}
}

// HasBinding reports whether name resolves anywhere in the chain.
func (e *Environment) HasBinding(name string) bool {
	_, err := e.GetBindingValue(name)
	if err == nil {
		return true
	}
	_, isTDZ := err.(*ErrTDZ)
	return isTDZ
}

// HasOwnBinding reports whether name is declared directly in this
// environment (not an outer one), used by duplicate-declaration checks.
func (e *Environment) HasOwnBinding(name string) bool {
	_, ok := e.bindings[name]
	return ok
}

// DeleteBinding removes a deletable own binding (only bindings created by
// CreateMutableBinding with kind VariableBinding are deletable).
func (e *Environment) DeleteBinding(name string) bool {
	b, ok := e.bindings[name]
	if !ok {
		return true
	}
	if !b.Deletable {
		return false
	}
	delete(e.bindings, name)
	return true
}

// ThisValue resolves `this` by walking outward to the nearest environment
// that provides one (function, global, or module environments; block and
// catch environments always defer to their outer scope).
func (e *Environment) ThisValue() (value.Value, bool) {
	for env := e; env != nil; env = env.outer {
		if env.thisValue != nil {
			return *env.thisValue, true
		}
	}
	return value.Value{}, false
}

// HomeObject resolves the nearest enclosing method's home object, used to
// evaluate `super.prop`.
func (e *Environment) HomeObject() (int, bool) {
	for env := e; env != nil; env = env.outer {
		if env.homeObject != nil {
			return *env.homeObject, true
		}
	}
	return 0, false
}

// NewTarget resolves the nearest enclosing function's new.target binding.
func (e *Environment) NewTarget() (value.Value, bool) {
	for env := e; env != nil; env = env.outer {
		if env.kind == Function && env.newTarget != nil {
			return *env.newTarget, true
		}
	}
	return value.Value{}, false
}

// NearestFunctionEnvironment walks outward to find the innermost enclosing
// Function (or Global/Module) environment, the target for `var` hoisting.
func (e *Environment) NearestFunctionEnvironment() *Environment {
	for env := e; env != nil; env = env.outer {
		if env.kind == Function || env.kind == Global || env.kind == Module {
			return env
		}
	}
	return e
}
