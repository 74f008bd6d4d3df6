package semantic

import (
	"testing"

	"github.com/ecmago/engine/internal/ast"
	"github.com/ecmago/engine/internal/lexer"
	"github.com/ecmago/engine/internal/parser"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	if len(p.Errors()) > 0 {
		t.Fatalf("parser errors: %v", p.Errors())
	}
	return prog
}

func hasDiagnostic(diags []*Diagnostic, kind DiagnosticKind) bool {
	for _, d := range diags {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

func TestVarHoistedAcrossBlocks(t *testing.T) {
	prog := parseProgram(t, `
		function f() {
			if (true) {
				var x = 1;
			}
			return x;
		}
	`)
	res := Analyze(prog)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
}

func TestLetNotHoistedOutsideBlock(t *testing.T) {
	prog := parseProgram(t, `
		function f() {
			if (true) {
				let x = 1;
			}
			return x;
		}
	`)
	res := Analyze(prog)
	if !hasDiagnostic(res.Errors, ErrUndeclaredIdentifier) {
		t.Fatalf("expected undeclared-identifier error, got %v", res.Errors)
	}
}

func TestDuplicateLexicalDeclaration(t *testing.T) {
	prog := parseProgram(t, `let a = 1; let a = 2;`)
	res := Analyze(prog)
	if !hasDiagnostic(res.Errors, ErrDuplicateDeclaration) {
		t.Fatalf("expected duplicate-declaration error, got %v", res.Errors)
	}
}

func TestConstReassignmentIsError(t *testing.T) {
	prog := parseProgram(t, `const a = 1; a = 2;`)
	res := Analyze(prog)
	if !hasDiagnostic(res.Errors, ErrConstAssignment) {
		t.Fatalf("expected const-assignment error, got %v", res.Errors)
	}
}

func TestTDZReadIsError(t *testing.T) {
	prog := parseProgram(t, `
		function f() {
			return x;
			let x = 1;
		}
	`)
	res := Analyze(prog)
	if !hasDiagnostic(res.Errors, ErrUninitializedBinding) {
		t.Fatalf("expected uninitialized-binding error, got %v", res.Errors)
	}
}

func TestSuperOutsideMethodIsError(t *testing.T) {
	prog := parseProgram(t, `
		function f() {
			super.greet();
		}
	`)
	res := Analyze(prog)
	if !hasDiagnostic(res.Errors, ErrSuperOutsideMethod) {
		t.Fatalf("expected super-outside-method error, got %v", res.Errors)
	}
}

func TestSuperAllowedInsideMethod(t *testing.T) {
	prog := parseProgram(t, `
		class C extends Base {
			greet() {
				super.greet();
			}
		}
	`)
	res := Analyze(prog)
	if hasDiagnostic(res.Errors, ErrSuperOutsideMethod) {
		t.Fatalf("did not expect super-outside-method error, got %v", res.Errors)
	}
}

func TestNewTargetOutsideFunctionIsError(t *testing.T) {
	prog := parseProgram(t, `let t = new.target;`)
	res := Analyze(prog)
	if !hasDiagnostic(res.Errors, ErrNewTargetOutsideFunction) {
		t.Fatalf("expected new-target-outside-function error, got %v", res.Errors)
	}
}

func TestNewTargetAllowedInsideFunction(t *testing.T) {
	prog := parseProgram(t, `
		function f() {
			return new.target;
		}
	`)
	res := Analyze(prog)
	if hasDiagnostic(res.Errors, ErrNewTargetOutsideFunction) {
		t.Fatalf("did not expect new-target-outside-function error, got %v", res.Errors)
	}
}

func TestUndeclaredIdentifierIsError(t *testing.T) {
	prog := parseProgram(t, `foo();`)
	res := Analyze(prog)
	if !hasDiagnostic(res.Errors, ErrUndeclaredIdentifier) {
		t.Fatalf("expected undeclared-identifier error, got %v", res.Errors)
	}
}

func TestArithmeticPlusInfersStringOrNumber(t *testing.T) {
	prog := parseProgram(t, `let a = 1 + 2; let b = "x" + 1;`)
	res := Analyze(prog)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	decl1 := prog.Statements[0].(*ast.VariableDeclaration)
	add1 := decl1.Declarations[0].Init
	if ty := res.Types[add1]; ty == nil || ty.Kind != TyNumber {
		t.Errorf("expected number inference for 1 + 2, got %v", ty)
	}
	decl2 := prog.Statements[1].(*ast.VariableDeclaration)
	add2 := decl2.Declarations[0].Init
	if ty := res.Types[add2]; ty == nil || ty.Kind != TyString {
		t.Errorf("expected string inference for \"x\" + 1, got %v", ty)
	}
}

func TestFunctionParametersAreDeclared(t *testing.T) {
	prog := parseProgram(t, `function f(a, b) { return a + b; }`)
	res := Analyze(prog)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
}
