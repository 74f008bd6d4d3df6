// Package value implements the tagged Value representation shared by the
// semantic analyzer, bytecode compiler, and virtual machine: the ECMAScript
// primitive and reference kinds, their coercions, and their arithmetic.
package value

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/google/uuid"
)

// Kind tags the variant a Value currently holds.
type Kind byte

const (
	Undefined Kind = iota
	Null
	Boolean
	Number
	String
	Symbol
	BigInt
	ObjectRef
	FunctionRef
	ArrayRef
	RegExpRef
)

var kindNames = [...]string{
	Undefined:   "undefined",
	Null:        "object", // historical quirk: typeof null === "object"
	Boolean:     "boolean",
	Number:      "number",
	String:      "string",
	Symbol:      "symbol",
	BigInt:      "bigint",
	ObjectRef:   "object",
	FunctionRef: "function",
	ArrayRef:    "object",
	RegExpRef:   "object",
}

// Value is a tagged sum over every ECMAScript value kind. Exactly one of
// the typed fields is meaningful for a given Kind; Ref holds any heap
// handle (object, array, function, regexp) so the struct stays small and
// comparable for the primitive cases.
type Value struct {
	kind Kind
	num  float64
	str  string
	ref  int // heap handle, interpreted by internal/object for *Ref kinds
	big  *big.Int
	sym  *SymbolData
}

// SymbolData is the unique identity backing a Symbol value; two Symbols are
// never equal even if their Description matches.
type SymbolData struct {
	ID          uuid.UUID
	Description string
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUndefined() bool   { return v.kind == Undefined }
func (v Value) IsNull() bool        { return v.kind == Null }
func (v Value) IsNullish() bool     { return v.kind == Undefined || v.kind == Null }
func (v Value) IsBoolean() bool     { return v.kind == Boolean }
func (v Value) IsNumber() bool      { return v.kind == Number }
func (v Value) IsString() bool      { return v.kind == String }
func (v Value) IsSymbol() bool      { return v.kind == Symbol }
func (v Value) IsBigInt() bool      { return v.kind == BigInt }
func (v Value) IsObjectRef() bool   { return v.kind == ObjectRef }
func (v Value) IsFunctionRef() bool { return v.kind == FunctionRef }
func (v Value) IsArrayRef() bool    { return v.kind == ArrayRef }
func (v Value) IsRegExpRef() bool   { return v.kind == RegExpRef }

// IsObject reports whether v is any reference kind (object, array,
// function, regexp) as opposed to a primitive.
func (v Value) IsObject() bool {
	switch v.kind {
	case ObjectRef, FunctionRef, ArrayRef, RegExpRef:
		return true
	default:
		return false
	}
}

func Undef() Value { return Value{kind: Undefined} }
func Nul() Value   { return Value{kind: Null} }

func Bool(b bool) Value {
	n := 0.0
	if b {
		n = 1
	}
	return Value{kind: Boolean, num: n}
}

func Num(n float64) Value { return Value{kind: Number, num: n} }
func Str(s string) Value  { return Value{kind: String, str: s} }

// NewSymbol mints a unique symbol; description need not be unique.
func NewSymbol(description string) Value {
	return Value{kind: Symbol, sym: &SymbolData{ID: uuid.New(), Description: description}}
}

// BigIntFromString parses decimal digits (sign optional) into a BigInt value.
func BigIntFromString(digits string) (Value, error) {
	b, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Value{}, fmt.Errorf("invalid BigInt literal %q", digits)
	}
	return Value{kind: BigInt, big: b}, nil
}

func BigIntFromInt(i int64) Value {
	return Value{kind: BigInt, big: big.NewInt(i)}
}

// Ref constructs a reference-kind value (ObjectRef/FunctionRef/ArrayRef/
// RegExpRef) pointing at handle h in the heap owned by internal/object.
func Ref(kind Kind, h int) Value {
	return Value{kind: kind, ref: h}
}

func (v Value) AsBool() bool          { return v.num != 0 }
func (v Value) AsFloat() float64      { return v.num }
func (v Value) AsString() string      { return v.str }
func (v Value) AsHandle() int         { return v.ref }
func (v Value) AsBigInt() *big.Int    { return v.big }
func (v Value) AsSymbol() *SymbolData { return v.sym }

// TypeOf implements the ECMAScript `typeof` operator.
func (v Value) TypeOf() string {
	if int(v.kind) < len(kindNames) {
		return kindNames[v.kind]
	}
	return "object"
}

func (v Value) String() string {
	switch v.kind {
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case Boolean:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case Number:
		return formatNumber(v.num)
	case String:
		return v.str
	case Symbol:
		return "Symbol(" + v.sym.Description + ")"
	case BigInt:
		return v.big.String()
	case ObjectRef:
		return "[object Object]"
	case ArrayRef:
		return "[object Array]"
	case FunctionRef:
		return "function () { [native code] }"
	case RegExpRef:
		return "/" + v.str + "/"
	default:
		return "<unknown>"
	}
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		if math.Signbit(n) {
			return "0" // JS prints -0 as "0" via toString
		}
		return "0"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
