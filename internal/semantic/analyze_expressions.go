package semantic

import "github.com/ecmago/engine/internal/ast"

// analyzeExpression resolves every identifier reference reachable from
// expr, runs the this/super/new.target checks, and returns a best-effort
// type estimate. The estimate is recorded in a.types for every expression
// so the compiler (and diagnostics) can consult it without re-inferring.
func (a *Analyzer) analyzeExpression(expr ast.Expression, ctx context) *Type {
	t := a.inferExpression(expr, ctx)
	a.types[expr] = t
	return t
}

func (a *Analyzer) inferExpression(expr ast.Expression, ctx context) *Type {
	switch e := expr.(type) {
	case *ast.Identifier:
		decl, _, found := ctx.scope.resolve(e.Name)
		if !found {
			a.errorf(ErrUndeclaredIdentifier, e.Pos(), "%s is not defined", e.Name)
			return anyType
		}
		if !decl.Initialized {
			a.errorf(ErrUninitializedBinding, e.Pos(), "cannot access %q before initialization", e.Name)
			return anyType
		}
		if decl.Type != nil {
			return decl.Type
		}
		return anyType

	case *ast.NumberLiteral:
		return numberType
	case *ast.BigIntLiteral:
		return bigIntType
	case *ast.StringLiteral:
		return stringType
	case *ast.BooleanLiteral:
		return booleanType
	case *ast.NullLiteral:
		return nullType
	case *ast.UndefinedLiteral:
		return undefinedType
	case *ast.RegExpLiteral:
		return objectType

	case *ast.TemplateLiteral:
		for _, sub := range e.Expressions {
			a.analyzeExpression(sub, ctx)
		}
		return stringType

	case *ast.ArrayLiteral:
		var elem *Type
		for _, el := range e.Elements {
			if el == nil {
				continue
			}
			elem = union(elem, a.analyzeExpression(el, ctx))
		}
		return arrayType(elem)

	case *ast.ObjectLiteral:
		for _, p := range e.Properties {
			if p.IsSpread {
				a.analyzeExpression(p.Value, ctx)
				continue
			}
			if p.Computed || !p.Shorthand {
				a.analyzeExpression(p.Key, ctx)
			}
			if p.Value != nil {
				a.analyzeExpression(p.Value, ctx)
			}
		}
		return objectType

	case *ast.SpreadElement:
		return a.analyzeExpression(e.Expression, ctx)

	case *ast.ThisExpression:
		if !ctx.inFunction && ctx.scope.Strict {
			a.errorf(ErrThisOutsideFunction, e.Pos(), "'this' is not allowed outside of a function in strict mode")
		}
		return anyType

	case *ast.SuperExpression:
		if !ctx.inMethod {
			a.errorf(ErrSuperOutsideMethod, e.Pos(), "'super' keyword is only valid inside a method")
		}
		return anyType

	case *ast.NewTargetExpression:
		if !ctx.inFunction {
			a.errorf(ErrNewTargetOutsideFunction, e.Pos(), "'new.target' expression is not allowed outside a function")
		}
		return anyType

	case *ast.BinaryExpression:
		left := a.analyzeExpression(e.Left, ctx)
		right := a.analyzeExpression(e.Right, ctx)
		return inferBinary(e.Operator, left, right)

	case *ast.LogicalExpression:
		left := a.analyzeExpression(e.Left, ctx)
		right := a.analyzeExpression(e.Right, ctx)
		return union(left, right)

	case *ast.UnaryExpression:
		operand := a.analyzeExpression(e.Operand, ctx)
		return inferUnary(e.Operator, operand)

	case *ast.UpdateExpression:
		a.analyzeAssignmentTarget(e.Operand, ctx)
		return numberType

	case *ast.AssignmentExpression:
		valueType := a.analyzeExpression(e.Value, ctx)
		a.analyzeAssignmentTarget(e.Target, ctx)
		if id, ok := e.Target.(*ast.Identifier); ok {
			if decl, _, found := ctx.scope.resolve(id.Name); found {
				decl.Type = union(decl.Type, valueType)
			}
		}
		return valueType

	case *ast.ConditionalExpression:
		a.analyzeExpression(e.Test, ctx)
		cons := a.analyzeExpression(e.Consequent, ctx)
		alt := a.analyzeExpression(e.Alternate, ctx)
		return union(cons, alt)

	case *ast.SequenceExpression:
		var last *Type
		for _, sub := range e.Expressions {
			last = a.analyzeExpression(sub, ctx)
		}
		return last

	case *ast.MemberExpression:
		a.analyzeExpression(e.Object, ctx)
		if e.Computed {
			a.analyzeExpression(e.Property, ctx)
		}
		return anyType

	case *ast.CallExpression:
		calleeType := a.analyzeExpression(e.Callee, ctx)
		for _, arg := range e.Arguments {
			a.analyzeExpression(arg, ctx)
		}
		if calleeType != nil && calleeType.Kind == TyFunction {
			return calleeType.Ret
		}
		return anyType

	case *ast.NewExpression:
		a.analyzeExpression(e.Callee, ctx)
		for _, arg := range e.Arguments {
			a.analyzeExpression(arg, ctx)
		}
		return objectType

	case *ast.FunctionLiteral:
		return a.analyzeFunctionLiteral(e, ctx, false)

	case *ast.ClassLiteral:
		return a.analyzeClassLiteral(e, ctx)

	case *ast.ObjectPattern, *ast.ArrayPattern, *ast.AssignmentPattern:
		a.analyzeAssignmentTarget(e, ctx)
		return anyType

	default:
		return anyType
	}
}

func inferBinary(op string, left, right *Type) *Type {
	switch op {
	case "+":
		if isStringType(left) || isStringType(right) {
			return stringType
		}
		return numberType
	case "==", "!=", "===", "!==", "<", "<=", ">", ">=", "in", "instanceof":
		return booleanType
	default:
		// remaining arithmetic and bitwise operators all force Number
		return numberType
	}
}

func isStringType(t *Type) bool {
	if t == nil {
		return false
	}
	if t.Kind == TyString {
		return true
	}
	if t.Kind == TyUnion {
		for _, m := range t.Members {
			if isStringType(m) {
				return true
			}
		}
	}
	return false
}

func inferUnary(op string, operand *Type) *Type {
	switch op {
	case "!", "delete":
		return booleanType
	case "typeof":
		return stringType
	case "void":
		return undefinedType
	default: // "-", "+", "~"
		return numberType
	}
}

// analyzeAssignmentTarget validates an assignment/update target: plain
// identifiers must already be declared, not in the TDZ, and mutable;
// destructuring targets recurse into their leaves; member expressions are
// just evaluated (assigning through a property carries no binding checks).
func (a *Analyzer) analyzeAssignmentTarget(target ast.Expression, ctx context) {
	switch t := target.(type) {
	case *ast.Identifier:
		decl, _, found := ctx.scope.resolve(t.Name)
		if !found {
			a.errorf(ErrUndeclaredIdentifier, t.Pos(), "%s is not defined", t.Name)
			return
		}
		if !decl.Initialized {
			a.errorf(ErrUninitializedBinding, t.Pos(), "cannot access %q before initialization", t.Name)
			return
		}
		if !decl.Mutable {
			a.errorf(ErrConstAssignment, t.Pos(), "assignment to constant variable %q", t.Name)
		}

	case *ast.MemberExpression:
		a.analyzeExpression(t, ctx)

	case *ast.ObjectPattern:
		for _, p := range t.Properties {
			if p.Computed {
				a.analyzeExpression(p.Key, ctx)
			}
			if p.Value != nil {
				a.analyzeAssignmentTarget(p.Value, ctx)
			}
			if p.Default != nil {
				a.analyzeExpression(p.Default, ctx)
			}
		}

	case *ast.ArrayPattern:
		for _, el := range t.Elements {
			if el != nil {
				a.analyzeAssignmentTarget(el, ctx)
			}
		}
		if t.Rest != nil {
			a.analyzeAssignmentTarget(t.Rest, ctx)
		}

	case *ast.AssignmentPattern:
		a.analyzeAssignmentTarget(t.Target, ctx)
		a.analyzeExpression(t.Default, ctx)
	}
}
