package object

import (
	"strings"

	"github.com/ecmago/engine/internal/value"
)

// ToPrimitive implements the object side of the ToPrimitive abstract
// operation (OrdinaryToPrimitive): probe the object's own valueOf/toString
// methods — in the order the hint selects — accept the first primitive
// result, and fall back to the built-in default conversions when neither
// method exists or neither yields a primitive. Primitive inputs pass
// through unchanged. The VM routes every reference operand through this
// before arithmetic, concatenation, or comparison ever reaches
// internal/value's coercions.
func (h *Heap) ToPrimitive(v value.Value, hint value.Hint) (value.Value, error) {
	return h.toPrimitive(v, hint, 0)
}

// maxJoinDepth bounds recursion through self-referencing arrays during the
// default join conversion.
const maxJoinDepth = 8

func (h *Heap) toPrimitive(v value.Value, hint value.Hint, depth int) (value.Value, error) {
	if !v.IsObject() {
		return v, nil
	}

	methods := [2]string{"valueOf", "toString"}
	if hint == value.HintString {
		methods = [2]string{"toString", "valueOf"}
	}
	if h.caller != nil {
		for _, name := range methods {
			fn, err := h.GetProperty(v.AsHandle(), name)
			if err != nil {
				return value.Value{}, err
			}
			if !fn.IsFunctionRef() {
				continue
			}
			res, err := h.caller.CallFunction(fn, v, nil)
			if err != nil {
				return value.Value{}, err
			}
			if !res.IsObject() {
				return res, nil
			}
		}
	}
	return h.defaultPrimitive(v, depth)
}

// defaultPrimitive is the conversion an object with no overriding
// valueOf/toString gets: arrays join their elements with "," (nullish
// elements join as the empty string), functions render their source-ish
// form, everything else is the classic "[object Object]".
func (h *Heap) defaultPrimitive(v value.Value, depth int) (value.Value, error) {
	o := h.Get(v.AsHandle())
	switch o.Kind {
	case KindArray:
		if depth >= maxJoinDepth {
			return value.Str(""), nil
		}
		parts := make([]string, len(o.Elements))
		for i, el := range o.Elements {
			if el.IsNullish() {
				continue
			}
			p, err := h.toPrimitive(el, value.HintString, depth+1)
			if err != nil {
				return value.Value{}, err
			}
			parts[i] = value.ToString(p)
		}
		return value.Str(strings.Join(parts, ",")), nil
	case KindFunction:
		return value.Str(v.String()), nil
	default:
		return value.Str("[object Object]"), nil
	}
}
