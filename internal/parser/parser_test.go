package parser

import (
	"testing"

	"github.com/ecmago/engine/internal/ast"
	"github.com/ecmago/engine/internal/lexer"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := New(lexer.New(src))
	prog := p.ParseProgram()
	if len(p.Errors()) > 0 {
		t.Fatalf("parser errors: %v", p.Errors())
	}
	return prog
}

func TestParseVariableDeclaration(t *testing.T) {
	prog := parseProgram(t, "let x = 1 + 2 * 3;")
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Statements))
	}
	decl, ok := prog.Statements[0].(*ast.VariableDeclaration)
	if !ok {
		t.Fatalf("expected *ast.VariableDeclaration, got %T", prog.Statements[0])
	}
	if decl.Kind != ast.VarKindLet {
		t.Fatalf("expected let, got %s", decl.Kind)
	}
	bin, ok := decl.Declarations[0].Init.(*ast.BinaryExpression)
	if !ok {
		t.Fatalf("expected binary expression init, got %T", decl.Declarations[0].Init)
	}
	if bin.Operator != "+" {
		t.Fatalf("expected top-level '+' due to precedence, got %q", bin.Operator)
	}
}

func TestParseExponentRightAssociative(t *testing.T) {
	prog := parseProgram(t, "let x = 2 ** 3 ** 2;")
	decl := prog.Statements[0].(*ast.VariableDeclaration)
	outer, ok := decl.Declarations[0].Init.(*ast.BinaryExpression)
	if !ok || outer.Operator != "**" {
		t.Fatalf("expected top-level '**', got %T", decl.Declarations[0].Init)
	}
	if _, ok := outer.Left.(*ast.NumberLiteral); !ok {
		t.Fatalf("expected literal left operand, got %T", outer.Left)
	}
	inner, ok := outer.Right.(*ast.BinaryExpression)
	if !ok || inner.Operator != "**" {
		t.Fatalf("expected right operand to be the nested '**' (right-associative), got %T", outer.Right)
	}
}

func TestParseFunctionDeclaration(t *testing.T) {
	prog := parseProgram(t, "function add(a, b) { return a + b; }")
	fn, ok := prog.Statements[0].(*ast.FunctionDeclaration)
	if !ok {
		t.Fatalf("expected *ast.FunctionDeclaration, got %T", prog.Statements[0])
	}
	if fn.Function.Name.Name != "add" {
		t.Fatalf("expected name 'add', got %q", fn.Function.Name.Name)
	}
	if len(fn.Function.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Function.Params))
	}
}

func TestParseArrowFunctionVsGrouped(t *testing.T) {
	prog := parseProgram(t, "const f = (a, b) => a + b; const g = (1 + 2);")
	decl1 := prog.Statements[0].(*ast.VariableDeclaration)
	fn, ok := decl1.Declarations[0].Init.(*ast.FunctionLiteral)
	if !ok || !fn.Arrow {
		t.Fatalf("expected arrow function, got %T", decl1.Declarations[0].Init)
	}
	decl2 := prog.Statements[1].(*ast.VariableDeclaration)
	if _, ok := decl2.Declarations[0].Init.(*ast.BinaryExpression); !ok {
		t.Fatalf("expected grouped binary expression, got %T", decl2.Declarations[0].Init)
	}
}

func TestParseSingleParamArrowWithoutParens(t *testing.T) {
	prog := parseProgram(t, "const double = x => x * 2;")
	decl := prog.Statements[0].(*ast.VariableDeclaration)
	fn, ok := decl.Declarations[0].Init.(*ast.FunctionLiteral)
	if !ok || !fn.Arrow {
		t.Fatalf("expected arrow function, got %T", decl.Declarations[0].Init)
	}
	if len(fn.Params) != 1 || fn.Params[0].Pattern.(*ast.Identifier).Name != "x" {
		t.Fatalf("unexpected params: %+v", fn.Params)
	}
}

func TestParseIfElse(t *testing.T) {
	prog := parseProgram(t, "if (a) { b(); } else { c(); }")
	ifStmt, ok := prog.Statements[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected *ast.IfStatement, got %T", prog.Statements[0])
	}
	if ifStmt.Alternate == nil {
		t.Fatalf("expected else branch")
	}
}

func TestParseForLoop(t *testing.T) {
	prog := parseProgram(t, "for (let i = 0; i < 10; i++) { sum = sum + i; }")
	forStmt, ok := prog.Statements[0].(*ast.ForStatement)
	if !ok {
		t.Fatalf("expected *ast.ForStatement, got %T", prog.Statements[0])
	}
	if forStmt.Test == nil || forStmt.Update == nil {
		t.Fatalf("expected test and update clauses to be parsed")
	}
}

func TestParseForOf(t *testing.T) {
	prog := parseProgram(t, "for (const x of items) { use(x); }")
	forOf, ok := prog.Statements[0].(*ast.ForOfStatement)
	if !ok {
		t.Fatalf("expected *ast.ForOfStatement, got %T", prog.Statements[0])
	}
	if forOf.Right.(*ast.Identifier).Name != "items" {
		t.Fatalf("unexpected iterable: %+v", forOf.Right)
	}
}

func TestParseClassDeclaration(t *testing.T) {
	prog := parseProgram(t, `
		class Point {
			constructor(x, y) {
				this.x = x;
				this.y = y;
			}
			distance() {
				return this.x;
			}
		}
	`)
	cls, ok := prog.Statements[0].(*ast.ClassDeclaration)
	if !ok {
		t.Fatalf("expected *ast.ClassDeclaration, got %T", prog.Statements[0])
	}
	if cls.Class.Name.Name != "Point" {
		t.Fatalf("expected class name 'Point', got %q", cls.Class.Name.Name)
	}
	if len(cls.Class.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(cls.Class.Members))
	}
	if cls.Class.Members[0].Kind != "constructor" {
		t.Fatalf("expected first member to be constructor, got %q", cls.Class.Members[0].Kind)
	}
}

func TestParseTryCatchFinally(t *testing.T) {
	prog := parseProgram(t, `
		try {
			risky();
		} catch (e) {
			handle(e);
		} finally {
			cleanup();
		}
	`)
	tryStmt, ok := prog.Statements[0].(*ast.TryStatement)
	if !ok {
		t.Fatalf("expected *ast.TryStatement, got %T", prog.Statements[0])
	}
	if tryStmt.Catch == nil || tryStmt.Finally == nil {
		t.Fatalf("expected both catch and finally clauses")
	}
}

func TestParseTemplateLiteral(t *testing.T) {
	prog := parseProgram(t, "let msg = `hello ${name}!`;")
	decl := prog.Statements[0].(*ast.VariableDeclaration)
	tmpl, ok := decl.Declarations[0].Init.(*ast.TemplateLiteral)
	if !ok {
		t.Fatalf("expected *ast.TemplateLiteral, got %T", decl.Declarations[0].Init)
	}
	if len(tmpl.Expressions) != 1 {
		t.Fatalf("expected 1 substitution, got %d", len(tmpl.Expressions))
	}
	if tmpl.Expressions[0].(*ast.Identifier).Name != "name" {
		t.Fatalf("unexpected substitution expression: %+v", tmpl.Expressions[0])
	}
}

func TestParseObjectAndArrayLiterals(t *testing.T) {
	prog := parseProgram(t, "let o = { a: 1, b, ...rest }; let arr = [1, , 3, ...more];")
	decl := prog.Statements[0].(*ast.VariableDeclaration)
	obj := decl.Declarations[0].Init.(*ast.ObjectLiteral)
	if len(obj.Properties) != 3 {
		t.Fatalf("expected 3 properties, got %d", len(obj.Properties))
	}
	if !obj.Properties[1].Shorthand {
		t.Fatalf("expected shorthand property for 'b'")
	}
	if !obj.Properties[2].IsSpread {
		t.Fatalf("expected spread property for '...rest'")
	}

	decl2 := prog.Statements[1].(*ast.VariableDeclaration)
	arr := decl2.Declarations[0].Init.(*ast.ArrayLiteral)
	if len(arr.Elements) != 4 {
		t.Fatalf("expected 4 elements (including elision), got %d", len(arr.Elements))
	}
	if arr.Elements[1] != nil {
		t.Fatalf("expected elision (nil) at index 1")
	}
}

func TestParseDestructuringDeclaration(t *testing.T) {
	prog := parseProgram(t, "const { a, b: renamed, ...rest } = obj;")
	decl := prog.Statements[0].(*ast.VariableDeclaration)
	pat, ok := decl.Declarations[0].Target.(*ast.ObjectPattern)
	if !ok {
		t.Fatalf("expected *ast.ObjectPattern target, got %T", decl.Declarations[0].Target)
	}
	if len(pat.Properties) != 3 {
		t.Fatalf("expected 3 pattern properties, got %d", len(pat.Properties))
	}
}

func TestSynchronizeRecoversAfterError(t *testing.T) {
	p := New(lexer.New("let = ; let y = 2;"))
	prog := p.ParseProgram()
	if len(p.Errors()) == 0 {
		t.Fatalf("expected at least one parse error")
	}
	// Recovery should still find the second, valid declaration.
	found := false
	for _, s := range prog.Statements {
		if decl, ok := s.(*ast.VariableDeclaration); ok {
			for _, d := range decl.Declarations {
				if id, ok := d.Target.(*ast.Identifier); ok && id.Name == "y" {
					found = true
				}
			}
		}
	}
	if !found {
		t.Fatalf("expected parser to recover and still parse 'let y = 2;'")
	}
}
