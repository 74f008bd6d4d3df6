package semantic

import "github.com/ecmago/engine/internal/ast"

// analyzeClassLiteral opens a scope binding the class's own name (so
// methods can refer to it recursively) and analyzes every member: methods
// run with inMethod set (enabling `super`), field initializers and static
// blocks run in a constructor-like context for the same reason.
func (a *Analyzer) analyzeClassLiteral(cls *ast.ClassLiteral, ctx context) *Type {
	if cls.SuperClass != nil {
		a.analyzeExpression(cls.SuperClass, ctx)
	}

	classScope := newScope(BlockScope, ctx.scope)
	if cls.Name != nil {
		classScope.declare(cls.Name.Name, ConstDecl, cls.Name.Pos().Line, true)
	}
	memberCtx := context{scope: classScope, inFunction: ctx.inFunction, inMethod: ctx.inMethod}

	for _, m := range cls.Members {
		if m.Computed {
			a.analyzeExpression(m.Key, memberCtx)
		}
		switch m.Kind {
		case "method", "get", "set", "constructor":
			if fn, ok := m.Value.(*ast.FunctionLiteral); ok {
				a.analyzeFunctionLiteral(fn, memberCtx, true)
			}
		case "field":
			if expr, ok := m.Value.(ast.Expression); ok && expr != nil {
				a.analyzeExpression(expr, context{scope: classScope, inFunction: true, inMethod: true})
			}
		case "static-block":
			if block, ok := m.Value.(*ast.BlockStatement); ok {
				a.analyzeBlock(block, context{scope: classScope, inFunction: true, inMethod: true})
			}
		}
	}

	a.scopes[cls] = classScope
	return functionType(nil, objectType)
}
