package bytecode

import (
	"os"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecmago/engine/internal/lexer"
	"github.com/ecmago/engine/internal/parser"
	"github.com/ecmago/engine/internal/value"
)

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

func compileSource(t *testing.T, src string) *Program {
	t.Helper()
	p := parser.New(lexer.New(src))
	astProg := p.ParseProgram()
	require.Empty(t, p.Errors(), "parse errors in test source")
	prog, err := CompileProgram(astProg)
	require.NoError(t, err)
	return prog
}

// TestJumpTargetsInBounds checks the compiled-output invariant that every
// control-transfer instruction lands inside its owning chunk: no placeholder
// survives patching and no loop patch escapes the code it belongs to.
func TestJumpTargetsInBounds(t *testing.T) {
	sources := []string{
		`let x = 1 + 2 * 3; x`,
		`function f(n){ if (n<2) return n; return f(n-1)+f(n-2); } f(10)`,
		`let a=[1,2,3]; let s=0; for (let i=0;i<a.length;i++) s+=a[i]; s`,
		`let s = 0; outer: for (let i=0;i<3;i++) { for (let j=0;j<3;j++) { if (j==1) continue outer; if (i==2) break outer; s++; } } s`,
		`try { throw 1; } catch (e) { e } finally { 0 }`,
		`let o = {a:1}; for (let k in o) k; for (let v of [1,2]) v;`,
		`switch (3) { case 1: break; case 2: break; default: 0 }`,
		`let x = null ?? (1 && 2 || 3); x`,
		`class A { constructor(){ this.v = 1; } m(){ return this.v; } } new A().m()`,
	}
	for _, src := range sources {
		prog := compileSource(t, src)
		for fi := range prog.Functions {
			chunk := prog.Functions[fi].Chunk
			for pc, instr := range chunk.Code {
				switch instr.OpCode() {
				case Jump, JumpIfTrue, JumpIfFalse, JumpIfNull, JumpIfUndefined:
					target := int(instr.B())
					assert.LessOrEqual(t, target, len(chunk.Code),
						"function %d pc %d jumps out of bounds in %q", fi, pc, src)
				}
			}
		}
	}
}

func TestConstantPoolDeduplication(t *testing.T) {
	prog := compileSource(t, `let a = 1 + 1 + 1; let b = "x" + "x"; a`)
	chunk := prog.Functions[0].Chunk

	ones, xs := 0, 0
	for _, c := range chunk.Constants {
		if c.IsNumber() && c.AsFloat() == 1 {
			ones++
		}
		if c.IsString() && c.AsString() == "x" {
			xs++
		}
	}
	assert.Equal(t, 1, ones, "equal Number constants should share one pool slot")
	assert.Equal(t, 1, xs, "equal String constants should share one pool slot")
}

func TestScriptBodyIsFunctionZero(t *testing.T) {
	prog := compileSource(t, `function named() { return 1; } named()`)
	require.NotEmpty(t, prog.Functions)
	script := prog.Functions[0]
	assert.Equal(t, "", script.Name)
	assert.Equal(t, 0, script.ParamCount)
	assert.Empty(t, script.Upvalues)
	assert.Equal(t, Halt, script.Chunk.Code[len(script.Chunk.Code)-1].OpCode())

	found := false
	for _, fn := range prog.Functions[1:] {
		if fn.Name == "named" {
			found = true
		}
	}
	assert.True(t, found, "nested function should have its own table entry")
}

func TestClosureCaptureRecordsUpvalues(t *testing.T) {
	prog := compileSource(t, `
		function outer() {
			let n = 0;
			return function inner() { return ++n; };
		}
		outer()()`)

	var inner *FunctionInfo
	for i := range prog.Functions {
		if prog.Functions[i].Name == "inner" {
			inner = &prog.Functions[i]
		}
	}
	require.NotNil(t, inner)
	require.Len(t, inner.Upvalues, 1)
	assert.True(t, inner.Upvalues[0].IsLocal)
	assert.Equal(t, "n", inner.Upvalues[0].Name)
}

func TestTryMetadata(t *testing.T) {
	prog := compileSource(t, `try { throw 1; } catch (e) { e } finally { 0 }`)
	chunk := prog.Functions[0].Chunk

	handlers := 0
	for pc, instr := range chunk.Code {
		if instr.OpCode() != PushHandler {
			continue
		}
		handlers++
		info, ok := chunk.TryInfoAt(pc)
		require.True(t, ok, "PushHandler at pc %d has no TryInfo", pc)
		assert.True(t, info.HasCatch)
		assert.True(t, info.HasFinally)
		assert.Greater(t, info.CatchTarget, pc)
		assert.GreaterOrEqual(t, info.FinallyTarget, info.CatchTarget)
		assert.LessOrEqual(t, info.FinallyTarget, len(chunk.Code))
	}
	assert.Equal(t, 1, handlers)
}

func TestVarHoistingReservesSlots(t *testing.T) {
	// Assignment before the var statement must compile to a StoreLocal, not
	// a StoreGlobal, because hoisting pre-declared the slot.
	prog := compileSource(t, `x = 5; var x; x`)
	chunk := prog.Functions[0].Chunk
	for _, instr := range chunk.Code {
		assert.NotEqual(t, StoreGlobal, instr.OpCode(), "hoisted var should be a local store")
	}
}

func TestFunctionDeclarationsHoistAboveUse(t *testing.T) {
	prog := compileSource(t, `early(); function early() { return 1; }`)
	chunk := prog.Functions[0].Chunk

	newFnAt, callAt := -1, -1
	for pc, instr := range chunk.Code {
		switch instr.OpCode() {
		case NewFunction:
			if newFnAt == -1 {
				newFnAt = pc
			}
		case Call:
			if callAt == -1 {
				callAt = pc
			}
		}
	}
	require.GreaterOrEqual(t, newFnAt, 0)
	require.GreaterOrEqual(t, callAt, 0)
	assert.Less(t, newFnAt, callAt, "the function object must exist before the call site runs")
}

func TestMaxStackIsTracked(t *testing.T) {
	prog := compileSource(t, `let a = 1 + (2 + (3 + (4 + 5))); a`)
	chunk := prog.Functions[0].Chunk
	assert.GreaterOrEqual(t, chunk.MaxStack, 5, "nested additions need at least one slot per pending operand")
}

func TestLineTableRoundTrip(t *testing.T) {
	prog := compileSource(t, "let a = 1;\nlet b = 2;\nlet c = a + b;\nc")
	chunk := prog.Functions[0].Chunk
	require.NotEmpty(t, chunk.Code)
	assert.Equal(t, 1, chunk.GetLine(0))
	last := chunk.GetLine(len(chunk.Code) - 1)
	assert.GreaterOrEqual(t, last, 1)
}

func TestClassCompilation(t *testing.T) {
	prog := compileSource(t, `
		class Base { constructor(v) { this.v = v; } get val() { return this.v; } }
		class Child extends Base { static origin = 0; m() { return super.val; } }
		new Child(1)`)

	require.Len(t, prog.Classes, 2)
	base, child := prog.Classes[0], prog.Classes[1]

	assert.False(t, base.HasSuper)
	require.Len(t, base.Methods, 1)
	assert.Equal(t, "get", base.Methods[0].Kind)

	assert.True(t, child.HasSuper)
	assert.GreaterOrEqual(t, child.CtorIndex, 0, "derived class without a constructor gets a synthesized one")
	require.Len(t, child.Fields, 1)
	assert.True(t, child.Fields[0].Static)
	assert.Equal(t, "origin", child.Fields[0].Name)
}

func TestSerializeRoundTrip(t *testing.T) {
	prog := compileSource(t, `
		function fib(n) { if (n < 2) return n; return fib(n-1) + fib(n-2); }
		try { fib(10); } catch (e) { e } finally { 0 }`)

	data, err := prog.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, prog.Disassemble(), decoded.Disassemble())
	require.Len(t, decoded.Functions, len(prog.Functions))
	for i := range prog.Functions {
		assert.Equal(t, prog.Functions[i].Chunk.LocalCount, decoded.Functions[i].Chunk.LocalCount)
		assert.Equal(t, prog.Functions[i].Chunk.MaxStack, decoded.Functions[i].Chunk.MaxStack)
	}
}

func TestRejectsNonConstantInPool(t *testing.T) {
	_, err := encodeValue(value.Ref(value.ObjectRef, 3))
	require.Error(t, err)
}

func TestDisassemblySnapshot(t *testing.T) {
	prog := compileSource(t, `
		function clamp(n, lo, hi) {
			if (n < lo) return lo;
			if (n > hi) return hi;
			return n;
		}
		clamp(5, 0, 10)`)
	snaps.MatchSnapshot(t, prog.Disassemble())
}
