package value

import (
	"math"
	"testing"
)

func TestToBoolean(t *testing.T) {
	falsy := []Value{Undef(), Nul(), Bool(false), Num(0), Num(math.NaN()), Str("")}
	for _, v := range falsy {
		if ToBoolean(v) {
			t.Errorf("expected %v to be falsy", v)
		}
	}
	truthy := []Value{Bool(true), Num(1), Num(-1), Str("0"), Str("false")}
	for _, v := range truthy {
		if !ToBoolean(v) {
			t.Errorf("expected %v to be truthy", v)
		}
	}
}

func TestToNumber(t *testing.T) {
	cases := []struct {
		in   Value
		want float64
	}{
		{Str(""), 0},
		{Str("   "), 0},
		{Str("42"), 42},
		{Str("abc"), math.NaN()},
		{Bool(true), 1},
		{Bool(false), 0},
		{Nul(), 0},
	}
	for _, c := range cases {
		got := ToNumber(c.in)
		if math.IsNaN(c.want) {
			if !math.IsNaN(got) {
				t.Errorf("ToNumber(%v) = %v, want NaN", c.in, got)
			}
			continue
		}
		if got != c.want {
			t.Errorf("ToNumber(%v) = %v, want %v", c.in, got, c.want)
		}
	}
	if !math.IsNaN(ToNumber(Undef())) {
		t.Errorf("ToNumber(undefined) should be NaN")
	}
}

func TestTypeOf(t *testing.T) {
	if Nul().TypeOf() != "object" {
		t.Errorf("typeof null should be object")
	}
	if Undef().TypeOf() != "undefined" {
		t.Errorf("typeof undefined should be undefined")
	}
	if Num(1).TypeOf() != "number" {
		t.Errorf("typeof number should be number")
	}
}

func TestStrictEquals(t *testing.T) {
	nan := Num(math.NaN())
	if StrictEquals(nan, nan) {
		t.Errorf("NaN should not strictly equal itself")
	}
	if !StrictEquals(Num(1), Num(1)) {
		t.Errorf("1 === 1 should be true")
	}
	if StrictEquals(Num(1), Str("1")) {
		t.Errorf("1 === \"1\" should be false (no coercion)")
	}
}

func TestLooseEquals(t *testing.T) {
	if !LooseEquals(Num(1), Str("1")) {
		t.Errorf("1 == \"1\" should be true")
	}
	if !LooseEquals(Nul(), Undef()) {
		t.Errorf("null == undefined should be true")
	}
	if !LooseEquals(Bool(true), Num(1)) {
		t.Errorf("true == 1 should be true")
	}
	nan := Num(math.NaN())
	if LooseEquals(nan, nan) {
		t.Errorf("NaN == NaN should be false")
	}
}

func TestArithmetic(t *testing.T) {
	if got := Add(Num(1), Num(2)); got.AsFloat() != 3 {
		t.Errorf("1+2 = %v, want 3", got)
	}
	if got := Add(Str("a"), Num(1)); got.AsString() != "a1" {
		t.Errorf("'a'+1 = %v, want a1", got)
	}
	if got := Div(Num(1), Num(0)); !math.IsInf(got.AsFloat(), 1) {
		t.Errorf("1/0 = %v, want +Infinity", got)
	}
	if got := Div(Num(0), Num(0)); !math.IsNaN(got.AsFloat()) {
		t.Errorf("0/0 = %v, want NaN", got)
	}
	if got := Mod(Num(5), Num(0)); !math.IsNaN(got.AsFloat()) {
		t.Errorf("5%%0 = %v, want NaN", got)
	}
}

func TestBigIntArithmetic(t *testing.T) {
	a, err := BigIntFromString("9007199254740993")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := BigIntFromInt(1)
	sum := Add(a, b)
	if sum.Kind() != BigInt {
		t.Fatalf("expected BigInt result, got %v", sum.Kind())
	}
	if sum.AsBigInt().String() != "9007199254740994" {
		t.Errorf("unexpected BigInt sum: %s", sum.AsBigInt().String())
	}
}

func TestSymbolIdentity(t *testing.T) {
	a := NewSymbol("x")
	b := NewSymbol("x")
	if StrictEquals(a, b) {
		t.Errorf("two symbols with the same description must not be equal")
	}
	if !StrictEquals(a, a) {
		t.Errorf("a symbol must equal itself")
	}
}

func TestBitwiseOperators(t *testing.T) {
	if got := BitAnd(Num(6), Num(3)).AsFloat(); got != 2 {
		t.Errorf("6 & 3 = %v, want 2", got)
	}
	if got := Shl(Num(1), Num(4)).AsFloat(); got != 16 {
		t.Errorf("1 << 4 = %v, want 16", got)
	}
	if got := Ushr(Num(-1), Num(0)).AsFloat(); got != 4294967295 {
		t.Errorf("-1 >>> 0 = %v, want 4294967295", got)
	}
}
