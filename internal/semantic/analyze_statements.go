package semantic

import "github.com/ecmago/engine/internal/ast"

func (a *Analyzer) analyzeStatement(stmt ast.Statement, ctx context) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		if s.Expression != nil {
			a.analyzeExpression(s.Expression, ctx)
		}

	case *ast.BlockStatement:
		a.analyzeBlock(s, ctx)

	case *ast.VariableDeclaration:
		a.analyzeVariableDeclaration(s, ctx)

	case *ast.FunctionDeclaration:
		a.analyzeFunctionLiteral(s.Function, ctx, false)

	case *ast.ClassDeclaration:
		a.analyzeClassLiteral(s.Class, ctx)

	case *ast.ReturnStatement:
		if s.Value != nil {
			a.analyzeExpression(s.Value, ctx)
		}

	case *ast.IfStatement:
		a.analyzeExpression(s.Test, ctx)
		a.analyzeStatement(s.Consequent, ctx)
		if s.Alternate != nil {
			a.analyzeStatement(s.Alternate, ctx)
		}

	case *ast.ForStatement:
		scope := newScope(BlockScope, ctx.scope)
		if decl, ok := s.Init.(*ast.VariableDeclaration); ok && decl.Kind != ast.VarKindVar {
			a.declareBlockLevel([]ast.Statement{decl}, scope)
		}
		inner := context{scope: scope, inFunction: ctx.inFunction, inMethod: ctx.inMethod}
		if s.Init != nil {
			a.analyzeForInit(s.Init, inner)
		}
		if s.Test != nil {
			a.analyzeExpression(s.Test, inner)
		}
		if s.Update != nil {
			a.analyzeExpression(s.Update, inner)
		}
		a.analyzeStatement(s.Body, inner)

	case *ast.ForInStatement:
		scope := newScope(BlockScope, ctx.scope)
		if decl, ok := s.Left.(*ast.VariableDeclaration); ok && decl.Kind != ast.VarKindVar {
			a.declareBlockLevel([]ast.Statement{decl}, scope)
		}
		inner := context{scope: scope, inFunction: ctx.inFunction, inMethod: ctx.inMethod}
		a.analyzeForHead(s.Left, inner)
		a.analyzeExpression(s.Right, inner)
		a.analyzeStatement(s.Body, inner)

	case *ast.ForOfStatement:
		scope := newScope(BlockScope, ctx.scope)
		if decl, ok := s.Left.(*ast.VariableDeclaration); ok && decl.Kind != ast.VarKindVar {
			a.declareBlockLevel([]ast.Statement{decl}, scope)
		}
		inner := context{scope: scope, inFunction: ctx.inFunction, inMethod: ctx.inMethod}
		a.analyzeForHead(s.Left, inner)
		a.analyzeExpression(s.Right, inner)
		a.analyzeStatement(s.Body, inner)

	case *ast.WhileStatement:
		a.analyzeExpression(s.Test, ctx)
		a.analyzeStatement(s.Body, ctx)

	case *ast.DoWhileStatement:
		a.analyzeStatement(s.Body, ctx)
		a.analyzeExpression(s.Test, ctx)

	case *ast.BreakStatement, *ast.ContinueStatement, *ast.EmptyStatement, *ast.DebuggerStatement:
		// no declarations or references to check

	case *ast.LabeledStatement:
		a.analyzeStatement(s.Body, ctx)

	case *ast.SwitchStatement:
		a.analyzeExpression(s.Discriminant, ctx)
		scope := newScope(BlockScope, ctx.scope)
		for _, c := range s.Cases {
			a.declareBlockLevel(c.Consequent, scope)
		}
		a.scopes[s] = scope
		inner := context{scope: scope, inFunction: ctx.inFunction, inMethod: ctx.inMethod}
		for _, c := range s.Cases {
			if c.Test != nil {
				a.analyzeExpression(c.Test, inner)
			}
			for _, cs := range c.Consequent {
				a.analyzeStatement(cs, inner)
			}
		}

	case *ast.ThrowStatement:
		a.analyzeExpression(s.Value, ctx)

	case *ast.TryStatement:
		a.analyzeBlock(s.Block, ctx)
		if s.Catch != nil {
			scope := newScope(CatchScope, ctx.scope)
			if s.Catch.Param != nil {
				for _, id := range patternIdentifiers(s.Catch.Param) {
					if _, ok := scope.declare(id.Name, CatchDecl, id.Pos().Line, true); !ok {
						a.errorf(ErrDuplicateDeclaration, id.Pos(), "identifier %q has already been declared", id.Name)
					}
				}
			}
			a.declareBlockLevel(s.Catch.Body.Statements, scope)
			a.scopes[s.Catch] = scope
			inner := context{scope: scope, inFunction: ctx.inFunction, inMethod: ctx.inMethod}
			for _, cs := range s.Catch.Body.Statements {
				a.analyzeStatement(cs, inner)
			}
		}
		if s.Finally != nil {
			a.analyzeBlock(s.Finally, ctx)
		}

	case *ast.ImportDeclaration:
		for _, spec := range s.Specifiers {
			if spec.Local != nil {
				ctx.scope.declareHoisted(spec.Local.Name, ModuleDecl, spec.Local.Pos().Line)
			}
		}

	case *ast.ExportDeclaration:
		if s.Declaration != nil {
			a.analyzeStatement(s.Declaration, ctx)
		}
		if s.Expression != nil {
			a.analyzeExpression(s.Expression, ctx)
		}

	default:
		// unrecognized statement kind: nothing to resolve
	}
}

// analyzeBlock opens a fresh Block scope for s, recording it into the scope
// table, and analyzes its statements within it.
func (a *Analyzer) analyzeBlock(s *ast.BlockStatement, ctx context) *Scope {
	scope := newScope(BlockScope, ctx.scope)
	a.declareBlockLevel(s.Statements, scope)
	a.scopes[s] = scope
	inner := context{scope: scope, inFunction: ctx.inFunction, inMethod: ctx.inMethod}
	for _, stmt := range s.Statements {
		a.analyzeStatement(stmt, inner)
	}
	return scope
}

func (a *Analyzer) analyzeVariableDeclaration(decl *ast.VariableDeclaration, ctx context) {
	for _, d := range decl.Declarations {
		if d.Init != nil {
			valueType := a.analyzeExpression(d.Init, ctx)
			if id, ok := d.Target.(*ast.Identifier); ok {
				if declObj, ok := ctx.scope.own(id.Name); ok {
					declObj.Type = valueType
				}
			}
		}
		for _, id := range patternIdentifiers(d.Target) {
			if declObj, ok := ctx.scope.own(id.Name); ok {
				declObj.Initialized = true
			}
		}
	}
}

func (a *Analyzer) analyzeForInit(init ast.Node, ctx context) {
	switch n := init.(type) {
	case *ast.VariableDeclaration:
		a.analyzeVariableDeclaration(n, ctx)
	case ast.Expression:
		a.analyzeExpression(n, ctx)
	}
}

func (a *Analyzer) analyzeForHead(left ast.Node, ctx context) {
	switch n := left.(type) {
	case *ast.VariableDeclaration:
		for _, d := range n.Declarations {
			for _, id := range patternIdentifiers(d.Target) {
				if declObj, ok := ctx.scope.own(id.Name); ok {
					declObj.Initialized = true
				}
			}
		}
	case ast.Expression:
		a.analyzeAssignmentTarget(n, ctx)
	}
}
