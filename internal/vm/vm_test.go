package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecmago/engine/internal/bytecode"
	"github.com/ecmago/engine/internal/lexer"
	"github.com/ecmago/engine/internal/object"
	"github.com/ecmago/engine/internal/parser"
	"github.com/ecmago/engine/internal/value"
	"github.com/ecmago/engine/internal/vm"
)

// compile runs the front half of the pipeline (lex, parse, compile) so
// each test drives a fresh VM against real bytecode rather than
// hand-assembled chunks.
func compile(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	p := parser.New(lexer.New(src))
	astProg := p.ParseProgram()
	require.Empty(t, p.Errors(), "parse errors in test source")
	prog, err := bytecode.CompileProgram(astProg)
	require.NoError(t, err)
	return prog
}

func run(t *testing.T, src string) (value.Value, error) {
	t.Helper()
	return vm.New().Run(compile(t, src))
}

// eval asserts the script completes without error and returns its
// completion value rendered as a string.
func eval(t *testing.T, src string) string {
	t.Helper()
	result, err := run(t, src)
	require.NoError(t, err)
	return result.String()
}

func TestCompletionValues(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"precedence", `let x = 1 + 2 * 3; x`, "7"},
		{"exponent right-assoc", `2 ** 3 ** 2`, "512"},
		{"string concat", `"a" + 1 + 2`, "a12"},
		{"numeric addition first", `1 + 2 + "a"`, "3a"},
		{"ternary", `let x = 5; x > 3 ? "big" : "small"`, "big"},
		{"template literal", "let who = \"world\"; `hello ${who}!`", "hello world!"},
		{"logical and", `0 && fail`, "0"},
		{"logical or", `"" || "fallback"`, "fallback"},
		{"nullish keeps falsy", `0 ?? 42`, "0"},
		{"nullish replaces null", `null ?? 42`, "42"},
		{"division by zero", `1/0`, "Infinity"},
		{"zero over zero", `0/0`, "NaN"},
		{"modulo zero divisor", `5 % 0`, "NaN"},
		{"unsigned shift", `-1 >>> 0`, "4294967295"},
		{"typeof null quirk", `typeof null`, "object"},
		{"typeof function", `typeof function(){}`, "function"},
		{"void", `void 123`, "undefined"},
		{"loose equality coerces", `"7" == 7`, "true"},
		{"strict equality does not", `"7" === 7`, "false"},
		{"nan never equal", `let n = 0/0; n === n`, "false"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, eval(t, tc.src))
		})
	}
}

func TestObjectToPrimitiveCoercion(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"array joins for concatenation", `[1,2,3] + ""`, "1,2,3"},
		{"array joins inside template", "let a = [1,2]; `got ${a}`", "got 1,2"},
		{"plain object stringifies", `let o = {}; "" + o`, "[object Object]"},
		{"number plus object concatenates", `let o = {}; 1 + o`, "1[object Object]"},
		{"single-element array to number", `[5] * 2`, "10"},
		{"unary minus converts", `-[5]`, "-5"},
		{"valueOf drives arithmetic", `let o = { valueOf: function() { return 6; } }; o * 7`, "42"},
		{"toString drives concatenation", `let o = { toString: function() { return "x"; } }; o + "!"`, "x!"},
		{"loose equality converts the object side", `let a = [1,2]; a == "1,2"`, "true"},
		{"relational converts", `[10] > 9`, "true"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, eval(t, tc.src))
		})
	}
}

func TestFunctionsAndClosures(t *testing.T) {
	t.Run("recursion", func(t *testing.T) {
		src := `function f(n){ if (n<2) return n; return f(n-1)+f(n-2); } f(10)`
		assert.Equal(t, "55", eval(t, src))
	})

	t.Run("closure counter", func(t *testing.T) {
		src := `let c = (function(){ let n=0; return function(){ return ++n; }; })(); c(); c(); c()`
		assert.Equal(t, "3", eval(t, src))
	})

	t.Run("sibling closures share a slot", func(t *testing.T) {
		src := `
			function pair() {
				let n = 0;
				return [function(){ n = n + 10; return n; }, function(){ return n; }];
			}
			let fns = pair();
			fns[0]();
			fns[1]()`
		assert.Equal(t, "10", eval(t, src))
	})

	t.Run("default parameters", func(t *testing.T) {
		assert.Equal(t, "5", eval(t, `function add(a, b = 3) { return a + b; } add(2)`))
		assert.Equal(t, "9", eval(t, `function add(a, b = 3) { return a + b; } add(2, 7)`))
	})

	t.Run("rest parameters", func(t *testing.T) {
		src := `
			function sum(first, ...rest) {
				let s = first;
				for (let i = 0; i < rest.length; i++) s += rest[i];
				return s;
			}
			sum(1, 2, 3, 4)`
		assert.Equal(t, "10", eval(t, src))
	})

	t.Run("spread call arguments", func(t *testing.T) {
		src := `function add3(a, b, c) { return a + b + c; } let args = [1, 2, 3]; add3(...args)`
		assert.Equal(t, "6", eval(t, src))
	})

	t.Run("arrow inherits this", func(t *testing.T) {
		src := `
			let o = {
				n: 7,
				grab: function() {
					let get = () => this.n;
					return get();
				}
			};
			o.grab()`
		assert.Equal(t, "7", eval(t, src))
	})

	t.Run("call and apply rebind this", func(t *testing.T) {
		src := `function who() { return this.name; } who.call({name: "called"})`
		assert.Equal(t, "called", eval(t, src))
		src = `function who() { return this.name; } who.apply({name: "applied"}, [])`
		assert.Equal(t, "applied", eval(t, src))
	})

	t.Run("bind freezes receiver and leading args", func(t *testing.T) {
		src := `
			function greet(greeting, mark) { return greeting + " " + this.name + mark; }
			let bound = greet.bind({name: "ada"}, "hi");
			bound("!")`
		assert.Equal(t, "hi ada!", eval(t, src))
	})
}

func TestObjectsAndArrays(t *testing.T) {
	t.Run("array loop", func(t *testing.T) {
		src := `let a=[1,2,3]; let s=0; for (let i=0;i<a.length;i++) s+=a[i]; s`
		assert.Equal(t, "6", eval(t, src))
	})

	t.Run("array length tracks index writes", func(t *testing.T) {
		assert.Equal(t, "6", eval(t, `let a=[]; a[5]=1; a.length`))
	})

	t.Run("object literal and mutation", func(t *testing.T) {
		assert.Equal(t, "3", eval(t, `let o={x:1}; o.y=2; o.x + o.y`))
	})

	t.Run("computed member access", func(t *testing.T) {
		assert.Equal(t, "1", eval(t, `let o={x:1}; let k="x"; o[k]`))
	})

	t.Run("delete removes own property", func(t *testing.T) {
		assert.Equal(t, "undefined", eval(t, `let o={x:1}; delete o.x; o.x`))
	})

	t.Run("in walks the chain", func(t *testing.T) {
		assert.Equal(t, "true", eval(t, `let o={x:1}; "x" in o`))
		assert.Equal(t, "false", eval(t, `let o={x:1}; "y" in o`))
	})

	t.Run("for-in over keys", func(t *testing.T) {
		src := `let o={a:1,b:2,c:3}; let keys=""; for (let k in o) keys += k; keys`
		assert.Equal(t, "abc", eval(t, src))
	})

	t.Run("for-of over elements", func(t *testing.T) {
		src := `let s = 0; for (let v of [10, 20, 30]) s += v; s`
		assert.Equal(t, "60", eval(t, src))
	})

	t.Run("array spread literal", func(t *testing.T) {
		src := `let a = [2, 3]; let b = [1, ...a, 4]; b[0] + b[1] + b[2] + b[3]`
		assert.Equal(t, "10", eval(t, src))
	})

	t.Run("object spread literal", func(t *testing.T) {
		src := `let base = {a: 1, b: 2}; let o = {...base, b: 9}; o.a + o.b`
		assert.Equal(t, "10", eval(t, src))
	})

	t.Run("destructuring declarations", func(t *testing.T) {
		assert.Equal(t, "3", eval(t, `let {a, b} = {a: 1, b: 2}; a + b`))
		assert.Equal(t, "3", eval(t, `let [x, y] = [1, 2]; x + y`))
		assert.Equal(t, "6", eval(t, `let [x, ...rest] = [1, 2, 3]; x + rest[0] + rest[1]`))
	})

	t.Run("string members", func(t *testing.T) {
		assert.Equal(t, "3", eval(t, `"abc".length`))
		assert.Equal(t, "b", eval(t, `let s = "abc"; s[1]`))
	})
}

func TestControlFlow(t *testing.T) {
	t.Run("while", func(t *testing.T) {
		assert.Equal(t, "10", eval(t, `let n = 0; while (n < 10) n = n + 2; n`))
	})

	t.Run("do-while runs once", func(t *testing.T) {
		assert.Equal(t, "1", eval(t, `let n = 0; do { n++; } while (false); n`))
	})

	t.Run("break and continue", func(t *testing.T) {
		src := `let s = 0; for (let i = 0; i < 10; i++) { if (i == 3) continue; if (i == 6) break; s += i; } s`
		assert.Equal(t, "12", eval(t, src)) // 0+1+2+4+5
	})

	t.Run("labeled break exits the outer loop", func(t *testing.T) {
		src := `
			let hits = 0;
			outer: for (let i = 0; i < 3; i++) {
				for (let j = 0; j < 3; j++) {
					if (i == 1 && j == 1) break outer;
					hits++;
				}
			}
			hits`
		assert.Equal(t, "4", eval(t, src))
	})

	t.Run("switch with fallthrough and default", func(t *testing.T) {
		src := `
			function classify(n) {
				let out = "";
				switch (n) {
				case 1:
				case 2:
					out = "small";
					break;
				case 3:
					out = "medium";
					break;
				default:
					out = "large";
				}
				return out;
			}
			classify(1) + "," + classify(2) + "," + classify(3) + "," + classify(9)`
		assert.Equal(t, "small,small,medium,large", eval(t, src))
	})

	t.Run("logical assignment short-circuits", func(t *testing.T) {
		assert.Equal(t, "1", eval(t, `let a = 1; a ||= 2; a`))
		assert.Equal(t, "2", eval(t, `let a = 0; a ||= 2; a`))
		assert.Equal(t, "3", eval(t, `let a = 1; a &&= 3; a`))
		assert.Equal(t, "4", eval(t, `let a = null; a ??= 4; a`))
	})
}

func TestExceptions(t *testing.T) {
	t.Run("catch binds the thrown value", func(t *testing.T) {
		src := `try { throw {message:"oops"}; } catch(e) { e.message } finally { }`
		assert.Equal(t, "oops", eval(t, src))
	})

	t.Run("finally runs on the normal path", func(t *testing.T) {
		src := `let log = ""; try { log += "t"; } catch (e) { log += "c"; } finally { log += "f"; } log`
		assert.Equal(t, "tf", eval(t, src))
	})

	t.Run("finally runs after catch", func(t *testing.T) {
		src := `let log = ""; try { throw 1; } catch (e) { log += "c"; } finally { log += "f"; } log`
		assert.Equal(t, "cf", eval(t, src))
	})

	t.Run("exception unwinds nested calls to the matching try", func(t *testing.T) {
		src := `
			function boom() { throw "deep"; }
			function middle() { boom(); return "unreached"; }
			let got = "";
			try { middle(); } catch (e) { got = e; }
			got`
		assert.Equal(t, "deep", eval(t, src))
	})

	t.Run("rethrow reaches the outer handler", func(t *testing.T) {
		src := `
			let got = "";
			try {
				try { throw "inner"; } catch (e) { throw e + "+again"; }
			} catch (e) { got = e; }
			got`
		assert.Equal(t, "inner+again", eval(t, src))
	})

	t.Run("uncaught exception surfaces as a RuntimeError", func(t *testing.T) {
		_, err := run(t, `throw "boom"`)
		require.Error(t, err)
		var re *vm.RuntimeError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, "boom", re.Value.String())
	})
}

func TestClasses(t *testing.T) {
	t.Run("constructor and method", func(t *testing.T) {
		src := `
			class Point {
				constructor(x, y) { this.x = x; this.y = y; }
				sum() { return this.x + this.y; }
			}
			new Point(3, 4).sum()`
		assert.Equal(t, "7", eval(t, src))
	})

	t.Run("inheritance with super call", func(t *testing.T) {
		src := `
			class Animal {
				constructor(name) { this.name = name; }
				speak() { return this.name + " makes a sound"; }
			}
			class Dog extends Animal {
				constructor(name) { super(name); }
				speak() { return super.speak() + ": woof"; }
			}
			new Dog("rex").speak()`
		assert.Equal(t, "rex makes a sound: woof", eval(t, src))
	})

	t.Run("implicit derived constructor forwards arguments", func(t *testing.T) {
		src := `
			class Base { constructor(v) { this.v = v; } }
			class Child extends Base {}
			new Child(42).v`
		assert.Equal(t, "42", eval(t, src))
	})

	t.Run("getter", func(t *testing.T) {
		src := `
			class Box {
				constructor(w) { this.w = w; }
				get double() { return this.w * 2; }
			}
			new Box(21).double`
		assert.Equal(t, "42", eval(t, src))
	})

	t.Run("static method and field", func(t *testing.T) {
		src := `
			class Counter {
				static start = 100;
				static bump(n) { return Counter.start + n; }
			}
			Counter.bump(1)`
		assert.Equal(t, "101", eval(t, src))
	})

	t.Run("instance fields initialize per construction", func(t *testing.T) {
		src := `
			class Tally { count = 5; }
			new Tally().count + new Tally().count`
		assert.Equal(t, "10", eval(t, src))
	})

	t.Run("instanceof follows the chain", func(t *testing.T) {
		src := `
			class A {}
			class B extends A {}
			let b = new B();
			(b instanceof B) + "," + (b instanceof A)`
		assert.Equal(t, "true,true", eval(t, src))
	})
}

func TestRuntimeErrors(t *testing.T) {
	t.Run("null member read is a TypeError", func(t *testing.T) {
		_, err := run(t, `null.x`)
		require.Error(t, err)
		var re *vm.RuntimeError
		require.ErrorAs(t, err, &re)
		require.True(t, re.Value.IsObjectRef(), "thrown value should be an error object")
		assert.Contains(t, err.Error(), "TypeError")
		assert.Contains(t, err.Error(), "cannot read properties of null")
	})

	t.Run("undeclared identifier is a ReferenceError", func(t *testing.T) {
		_, err := run(t, `y;`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "y is not defined")
	})

	t.Run("unbounded recursion overflows the frame stack", func(t *testing.T) {
		machine := vm.New()
		machine.MaxFrames = 64
		_, err := machine.Run(compile(t, `function r(){ return r(); } r();`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "maximum call stack size exceeded")
	})

	t.Run("frame-stack overflow is catchable", func(t *testing.T) {
		machine := vm.New()
		machine.MaxFrames = 64
		src := `
			function r() { return r(); }
			let got = "none";
			try { r(); } catch (e) { got = e.name; }
			got`
		result, err := machine.Run(compile(t, src))
		require.NoError(t, err)
		assert.Equal(t, "RangeError", result.String())
	})

	t.Run("calling a non-function is a TypeError", func(t *testing.T) {
		_, err := run(t, `let x = 3; x();`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not callable")
	})
}

func TestInterrupt(t *testing.T) {
	machine := vm.New()
	machine.Interrupt()
	_, err := machine.Run(compile(t, `let n = 0; while (true) n++; n`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interrupted")
}

func TestStackTraceNamesFrames(t *testing.T) {
	src := `
		function inner() { null.x; }
		function outer() { inner(); }
		outer();`
	_, err := run(t, src)
	require.Error(t, err)
	var re *vm.RuntimeError
	require.ErrorAs(t, err, &re)
	assert.GreaterOrEqual(t, re.Trace.Depth(), 3)
	assert.Contains(t, err.Error(), "inner")
}

func TestNativeCallbacks(t *testing.T) {
	t.Run("native can call back into script", func(t *testing.T) {
		machine := vm.New()
		prog := compile(t, `
			function twice(f) { return f(0) + f(0); }
			twice`)
		fnVal, err := machine.Run(prog)
		require.NoError(t, err)
		require.True(t, fnVal.IsFunctionRef())

		callCount := 0
		nativeHandle := machine.Heap().AllocFunction(nil, &object.FunctionData{
			Name: "probe", BytecodeRef: -1,
			Native: func(_ value.Value, _ []value.Value) (value.Value, error) {
				callCount++
				return value.Num(21), nil
			},
		})
		result, err := machine.CallFunction(fnVal, value.Undef(), []value.Value{value.Ref(value.FunctionRef, nativeHandle)})
		require.NoError(t, err)
		assert.Equal(t, "42", result.String())
		assert.Equal(t, 2, callCount)
	})
}
