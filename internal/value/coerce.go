package value

import (
	"math"
	"math/big"
	"strings"

	"github.com/spf13/cast"
)

// ToBoolean implements the ECMAScript ToBoolean abstract operation.
func ToBoolean(v Value) bool {
	switch v.kind {
	case Undefined, Null:
		return false
	case Boolean:
		return v.AsBool()
	case Number:
		return v.num != 0 && !math.IsNaN(v.num)
	case String:
		return v.str != ""
	case BigInt:
		return v.big.Sign() != 0
	default:
		return true // Symbol and every reference kind are truthy
	}
}

// ToNumber implements the ECMAScript ToNumber abstract operation. Strings
// use github.com/spf13/cast for the numeric parse, with the ECMAScript
// special cases (empty/whitespace-only -> 0, unparsable -> NaN) layered on
// top since cast's own zero-value-on-error behavior does not distinguish
// "genuinely zero" from "not a number".
func ToNumber(v Value) float64 {
	switch v.kind {
	case Undefined:
		return math.NaN()
	case Null:
		return 0
	case Boolean:
		return v.num
	case Number:
		return v.num
	case String:
		return stringToNumber(v.str)
	case BigInt:
		f, _ := new(big.Float).SetInt(v.big).Float64()
		return f
	default:
		return math.NaN()
	}
}

func stringToNumber(s string) float64 {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0
	}
	n, err := cast.ToFloat64E(trimmed)
	if err != nil {
		return math.NaN()
	}
	return n
}

// ToString implements the ECMAScript ToString abstract operation for
// primitive values (object-kind ToString goes through internal/object's
// toPrimitive first).
func ToString(v Value) string {
	switch v.kind {
	case String:
		return v.str
	default:
		return v.String()
	}
}

// Hint selects which conversion method order ToPrimitive prefers —
// valueOf-first for `+` and the relational operators (HintDefault/
// HintNumber), toString-first for string contexts (HintString) — mirroring
// the original engine's toPrimitive hint distinction.
type Hint int

const (
	HintDefault Hint = iota
	HintNumber
	HintString
)

// ToPrimitive implements the primitive half of the ToPrimitive abstract
// operation: a primitive is already its own primitive form, whatever the
// hint asked for. Reference kinds cannot be converted here — the hint's
// valueOf/toString method-order dispatch needs the heap that owns them,
// which is object.Heap.ToPrimitive; the VM routes every reference operand
// through that before arithmetic or comparison reaches this package. A
// reference that arrives anyway (a heap-less context such as constant
// folding) falls back to its canonical string form, the same outcome an
// object with no overridden conversion methods produces under either hint.
func ToPrimitive(v Value, hint Hint) Value {
	if !v.IsObject() {
		return v
	}
	return Str(v.String())
}
