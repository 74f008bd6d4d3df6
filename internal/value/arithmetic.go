package value

import (
	"math"
	"math/big"
)

// Add implements `+`: string concatenation if either operand is a String
// (after ToPrimitive), otherwise numeric addition.
func Add(a, b Value) Value {
	a, b = ToPrimitive(a, HintDefault), ToPrimitive(b, HintDefault)
	if a.kind == String || b.kind == String {
		return Str(ToString(a) + ToString(b))
	}
	if a.kind == BigInt && b.kind == BigInt {
		return Value{kind: BigInt, big: new(big.Int).Add(a.big, b.big)}
	}
	return Num(ToNumber(a) + ToNumber(b))
}

func Sub(a, b Value) Value {
	if a.kind == BigInt && b.kind == BigInt {
		return Value{kind: BigInt, big: new(big.Int).Sub(a.big, b.big)}
	}
	return numericBinOp(a, b, func(x, y float64) float64 { return x - y })
}

func Mul(a, b Value) Value {
	if a.kind == BigInt && b.kind == BigInt {
		return Value{kind: BigInt, big: new(big.Int).Mul(a.big, b.big)}
	}
	return numericBinOp(a, b, func(x, y float64) float64 { return x * y })
}

// Div implements `/`; division by zero yields ±Infinity and 0/0 yields NaN,
// which is exactly what IEEE-754 float division already produces.
func Div(a, b Value) Value { return numericBinOp(a, b, func(x, y float64) float64 { return x / y }) }

// Mod implements `%`; JS remainder keeps the sign of the dividend, matching
// math.Mod, and a zero divisor yields NaN (also math.Mod's behavior).
func Mod(a, b Value) Value { return numericBinOp(a, b, math.Mod) }

func Pow(a, b Value) Value { return numericBinOp(a, b, math.Pow) }

func Neg(a Value) Value { return Num(-ToNumber(a)) }
func Pos(a Value) Value { return Num(ToNumber(a)) }

func numericBinOp(a, b Value, op func(x, y float64) float64) Value {
	return Num(op(ToNumber(a), ToNumber(b)))
}

// --- bitwise (operands coerced to 32-bit integers per spec) ---

func toInt32(v Value) int32 {
	n := ToNumber(v)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return int32(uint32(int64(n)))
}

func toUint32(v Value) uint32 {
	n := ToNumber(v)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return uint32(int64(n))
}

func BitAnd(a, b Value) Value { return Num(float64(toInt32(a) & toInt32(b))) }
func BitOr(a, b Value) Value  { return Num(float64(toInt32(a) | toInt32(b))) }
func BitXor(a, b Value) Value { return Num(float64(toInt32(a) ^ toInt32(b))) }
func BitNot(a Value) Value    { return Num(float64(^toInt32(a))) }

func Shl(a, b Value) Value { return Num(float64(toInt32(a) << (toUint32(b) & 31))) }
func Shr(a, b Value) Value { return Num(float64(toInt32(a) >> (toUint32(b) & 31))) }
func Ushr(a, b Value) Value {
	return Num(float64(toUint32(a) >> (toUint32(b) & 31)))
}

// --- comparisons ---

// Lt, Le, Gt, Ge implement the relational operators over the numeric or
// lexicographic ordering of the (ToPrimitive'd) operands.
func Lt(a, b Value) (result Value, valid bool) { return relate(a, b, -1) }
func Gt(a, b Value) (result Value, valid bool) { return relate(a, b, 1) }
func Le(a, b Value) (result Value, valid bool) {
	r, ok := relate(a, b, 1)
	if !ok {
		return Bool(false), false
	}
	return Bool(!ToBoolean(r)), true
}
func Ge(a, b Value) (result Value, valid bool) {
	r, ok := relate(a, b, -1)
	if !ok {
		return Bool(false), false
	}
	return Bool(!ToBoolean(r)), true
}

// relate compares a and b and reports whether the comparison is defined
// (false, false when either side is NaN, matching JS's relational-NaN rule).
func relate(a, b Value, wantSign int) (Value, bool) {
	a, b = ToPrimitive(a, HintNumber), ToPrimitive(b, HintNumber)
	if a.kind == String && b.kind == String {
		cmp := 0
		switch {
		case a.str < b.str:
			cmp = -1
		case a.str > b.str:
			cmp = 1
		}
		return Bool(cmp == wantSign), true
	}
	an, bn := ToNumber(a), ToNumber(b)
	if math.IsNaN(an) || math.IsNaN(bn) {
		return Bool(false), false
	}
	cmp := 0
	switch {
	case an < bn:
		cmp = -1
	case an > bn:
		cmp = 1
	}
	return Bool(cmp == wantSign), true
}

// StrictEquals implements `===`: no coercion, NaN !== NaN, references compare
// by identity (handle equality).
func StrictEquals(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Undefined, Null:
		return true
	case Boolean, Number:
		if math.IsNaN(a.num) || math.IsNaN(b.num) {
			return false
		}
		return a.num == b.num
	case String:
		return a.str == b.str
	case Symbol:
		return a.sym == b.sym
	case BigInt:
		return a.big.Cmp(b.big) == 0
	case ObjectRef, FunctionRef, ArrayRef, RegExpRef:
		return a.ref == b.ref
	default:
		return false
	}
}

// LooseEquals implements `==`, including the coercion ladder between
// differing kinds (null==undefined, number<->string, boolean<->number).
func LooseEquals(a, b Value) bool {
	if a.kind == b.kind {
		return StrictEquals(a, b)
	}
	if a.IsNullish() && b.IsNullish() {
		return true
	}
	if a.IsNullish() || b.IsNullish() {
		return false
	}
	if a.kind == Boolean {
		return LooseEquals(Num(a.num), b)
	}
	if b.kind == Boolean {
		return LooseEquals(a, Num(b.num))
	}
	if a.kind == Number && b.kind == String {
		return a.num == ToNumber(b)
	}
	if a.kind == String && b.kind == Number {
		return ToNumber(a) == b.num
	}
	if a.IsObject() && !b.IsObject() {
		return LooseEquals(ToPrimitive(a, HintDefault), b)
	}
	if b.IsObject() && !a.IsObject() {
		return LooseEquals(a, ToPrimitive(b, HintDefault))
	}
	return false
}
