// Package object implements the managed heap: objects, arrays, and
// functions are allocated behind stable integer handles so references
// survive any future compaction, and property lookup walks the prototype
// chain the way ECMAScript's [[Get]]/[[Set]] internal methods do.
package object

import "github.com/ecmago/engine/internal/value"

// Kind tags what an Object represents, mirroring the ObjectKind enumeration
// of the data model.
type Kind byte

const (
	KindObject Kind = iota
	KindArray
	KindFunction
	KindString
	KindNumber
	KindBoolean
	KindSymbol
	KindBigInt
	KindRegExp
	KindDate
	KindError
	KindMap
	KindSet
	KindWeakMap
	KindWeakSet
	KindPromise
	KindProxy
)

// PropertyDescriptor is a disjoint union: a data descriptor (Value +
// Writable) or an accessor descriptor (Get/Set), both carrying Enumerable
// and Configurable. IsAccessor distinguishes the two.
type PropertyDescriptor struct {
	Value        value.Value
	Get          value.Value // FunctionRef, or Undefined if no getter
	Set          value.Value // FunctionRef, or Undefined if no setter
	Writable     bool
	Enumerable   bool
	Configurable bool
	IsAccessor   bool
}

// DataProperty builds a writable, enumerable, configurable data descriptor,
// the default shape for properties created by ordinary assignment.
func DataProperty(v value.Value) *PropertyDescriptor {
	return &PropertyDescriptor{Value: v, Writable: true, Enumerable: true, Configurable: true}
}

// Object is a property record: an insertion-ordered map from property name
// to descriptor, an optional prototype handle, an extensibility flag, and a
// Kind tag. Arrays and Functions embed an Object for their shared property
// behavior (prototype chain, defineProperty, etc).
type Object struct {
	Kind       Kind
	properties map[string]*PropertyDescriptor
	order      []string // insertion order, for Object.keys/for-in enumeration
	Proto      *int     // handle of the prototype object, nil for null prototype
	Extensible bool

	// Array only: kept in sync with numeric-index property writes.
	Elements []value.Value

	// Function only.
	Function *FunctionData
}

// FunctionData is the non-property payload of a function object: its
// callable body (native or compiled) plus the metadata needed by the call
// protocol.
type FunctionData struct {
	Name        string
	ParamCount  int
	Strict      bool
	IsGenerator bool
	IsAsync     bool
	// BytecodeRef indexes into the owning bytecode.Program's function table;
	// -1 for native functions.
	BytecodeRef int
	// ClosureEnv is an opaque payload typed any here to avoid a dependency
	// cycle: internal/vm stores its runtime closure (the compiled function
	// plus its captured upvalues) in it.
	ClosureEnv any
	Native     NativeFn
}

// NativeFn is the host-function contract: receives `this`, the argument
// vector, and returns a value or a thrown JS value.
type NativeFn func(this value.Value, args []value.Value) (value.Value, error)

func newObject(kind Kind) *Object {
	return &Object{
		Kind:       kind,
		properties: make(map[string]*PropertyDescriptor),
		Extensible: true,
	}
}

func (o *Object) HasOwn(name string) bool {
	_, ok := o.properties[name]
	return ok
}

func (o *Object) OwnDescriptor(name string) (*PropertyDescriptor, bool) {
	d, ok := o.properties[name]
	return d, ok
}

// OwnKeys returns own enumerable property names in insertion order.
func (o *Object) OwnKeys() []string {
	keys := make([]string, 0, len(o.order))
	for _, k := range o.order {
		if d := o.properties[k]; d != nil && d.Enumerable {
			keys = append(keys, k)
		}
	}
	return keys
}

// defineOwn installs (or overwrites) an own property descriptor, tracking
// insertion order for newly seen names.
func (o *Object) defineOwn(name string, d *PropertyDescriptor) {
	if _, exists := o.properties[name]; !exists {
		o.order = append(o.order, name)
	}
	o.properties[name] = d
}

// deleteOwn removes an own property if configurable; returns whether the
// delete succeeded.
func (o *Object) deleteOwn(name string) bool {
	d, ok := o.properties[name]
	if !ok {
		return true
	}
	if !d.Configurable {
		return false
	}
	delete(o.properties, name)
	for i, k := range o.order {
		if k == name {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	return true
}

// Seal clears Configurable on every own descriptor and clears Extensible.
func (o *Object) Seal() {
	o.Extensible = false
	for _, d := range o.properties {
		d.Configurable = false
	}
}

// Freeze does everything Seal does, plus clears Writable on data
// descriptors. Idempotent: freezing an already-frozen object is a no-op
// observably.
func (o *Object) Freeze() {
	o.Seal()
	for _, d := range o.properties {
		if !d.IsAccessor {
			d.Writable = false
		}
	}
}

func (o *Object) IsFrozen() bool {
	if o.Extensible {
		return false
	}
	for _, d := range o.properties {
		if d.Configurable {
			return false
		}
		if !d.IsAccessor && d.Writable {
			return false
		}
	}
	return true
}
