package semantic

import "github.com/ecmago/engine/internal/ast"

// analyzeFunctionLiteral opens the function's own scope (the var/parameter
// hoisting target), binds its parameters, and analyzes its body. isMethod
// marks a class method/getter/setter/constructor, which is what makes
// `super` valid inside it. Arrow functions still get their own Scope (their
// own `var`s and parameters live there) but inherit inFunction/inMethod
// from the enclosing context, since they resolve this/super/new.target
// lexically rather than binding their own.
func (a *Analyzer) analyzeFunctionLiteral(fn *ast.FunctionLiteral, ctx context, isMethod bool) *Type {
	scope := newScope(FunctionScope, ctx.scope)

	paramTypes := make([]*Type, len(fn.Params))
	for i, p := range fn.Params {
		for _, id := range patternIdentifiers(p.Pattern) {
			if _, ok := scope.declare(id.Name, ParameterDecl, id.Pos().Line, true); !ok {
				a.errorf(ErrDuplicateDeclaration, id.Pos(), "identifier %q has already been declared", id.Name)
			}
		}
		paramTypes[i] = anyType
	}

	inner := context{scope: scope, inFunction: true, inMethod: isMethod}
	if fn.Arrow {
		inner = context{scope: scope, inFunction: ctx.inFunction, inMethod: ctx.inMethod}
	}

	for _, p := range fn.Params {
		if p.Default != nil {
			a.analyzeExpression(p.Default, inner)
		}
	}

	if fn.Body != nil {
		a.hoistVars(fn.Body.Statements, scope)
		a.declareBlockLevel(fn.Body.Statements, scope)
		for _, stmt := range fn.Body.Statements {
			a.analyzeStatement(stmt, inner)
		}
	}
	if fn.ExprBody != nil {
		a.analyzeExpression(fn.ExprBody, inner)
	}

	a.scopes[fn] = scope
	return functionType(paramTypes, anyType)
}
