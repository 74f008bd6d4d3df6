// Package semantic performs a scope-aware walk over a parsed program: it
// records every declaration, checks the name-resolution and mutability
// rules the VM itself assumes hold (so the compiler never has to), and
// propagates a light, best-effort type estimate across expressions.
package semantic

import "strings"

// Kind is the coarse type lattice the inference pass works over.
type Kind byte

const (
	Any Kind = iota
	TyUndefined
	TyNull
	TyBoolean
	TyNumber
	TyBigInt
	TyString
	TySymbol
	TyObject
	TyArray
	TyFunction
	TyUnion
)

// Type is a single inferred type estimate. Elem is set for TyArray, Params
// and Ret for TyFunction, Members for TyUnion; every other Kind carries no
// payload.
type Type struct {
	Kind    Kind
	Elem    *Type
	Params  []*Type
	Ret     *Type
	Members []*Type
}

var (
	anyType       = &Type{Kind: Any}
	undefinedType = &Type{Kind: TyUndefined}
	nullType      = &Type{Kind: TyNull}
	booleanType   = &Type{Kind: TyBoolean}
	numberType    = &Type{Kind: TyNumber}
	bigIntType    = &Type{Kind: TyBigInt}
	stringType    = &Type{Kind: TyString}
	symbolType    = &Type{Kind: TySymbol}
	objectType    = &Type{Kind: TyObject}
)

func arrayType(elem *Type) *Type { return &Type{Kind: TyArray, Elem: elem} }

func functionType(params []*Type, ret *Type) *Type {
	return &Type{Kind: TyFunction, Params: params, Ret: ret}
}

// union merges a and b, flattening nested unions and collapsing equal or
// Any members; a nil operand is treated as Any (the "no estimate" state).
func union(a, b *Type) *Type {
	if a == nil {
		a = anyType
	}
	if b == nil {
		b = anyType
	}
	if a.Kind == Any || b.Kind == Any {
		return anyType
	}
	if typeEquals(a, b) {
		return a
	}
	members := make([]*Type, 0, 2)
	members = appendUnionMember(members, a)
	members = appendUnionMember(members, b)
	if len(members) == 1 {
		return members[0]
	}
	return &Type{Kind: TyUnion, Members: members}
}

func appendUnionMember(members []*Type, t *Type) []*Type {
	if t.Kind == TyUnion {
		for _, m := range t.Members {
			members = appendUnionMember(members, m)
		}
		return members
	}
	for _, m := range members {
		if typeEquals(m, t) {
			return members
		}
	}
	return append(members, t)
}

func typeEquals(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case TyArray:
		return typeEquals(a.Elem, b.Elem)
	case TyFunction:
		if len(a.Params) != len(b.Params) || !typeEquals(a.Ret, b.Ret) {
			return false
		}
		for i := range a.Params {
			if !typeEquals(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t *Type) String() string {
	if t == nil {
		return "any"
	}
	switch t.Kind {
	case Any:
		return "any"
	case TyUndefined:
		return "undefined"
	case TyNull:
		return "null"
	case TyBoolean:
		return "boolean"
	case TyNumber:
		return "number"
	case TyBigInt:
		return "bigint"
	case TyString:
		return "string"
	case TySymbol:
		return "symbol"
	case TyObject:
		return "object"
	case TyArray:
		return t.Elem.String() + "[]"
	case TyFunction:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return "(" + strings.Join(parts, ", ") + ") => " + t.Ret.String()
	case TyUnion:
		parts := make([]string, len(t.Members))
		for i, m := range t.Members {
			parts[i] = m.String()
		}
		return strings.Join(parts, " | ")
	default:
		return "any"
	}
}
