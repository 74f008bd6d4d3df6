package semantic

import (
	"github.com/ecmago/engine/internal/ast"
)

// Result is the outcome of analysis: the accumulated diagnostics, a scope
// table per scope-introducing node (Program, FunctionLiteral,
// BlockStatement, CatchClause, SwitchStatement, ClassLiteral), and the
// inferred type of each analyzed expression. AST nodes carry no side-table
// of their own, so the mapping lives here rather than as annotations on
// the tree. The bytecode compiler reads neither table; it resolves names
// through its own local/upvalue chain.
type Result struct {
	Errors   []*Diagnostic
	Warnings []*Warning
	Scopes   map[ast.Node]*Scope
	Types    map[ast.Expression]*Type
}

// Analyzer performs one scope-aware pass over a parsed program.
type Analyzer struct {
	errors   []*Diagnostic
	warnings []*Warning
	scopes   map[ast.Node]*Scope
	types    map[ast.Expression]*Type
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		scopes: make(map[ast.Node]*Scope),
		types:  make(map[ast.Expression]*Type),
	}
}

// context threads the information that depends on lexical position rather
// than on scope membership: whether this/super/new.target currently
// resolve to a function/method at all. inFunction and inMethod are false
// inside an arrow function lexically nested in no function, even though
// the arrow still opens its own Scope for var/parameter hoisting.
type context struct {
	scope      *Scope
	inFunction bool
	inMethod   bool
}

// Analyze runs every check named in the declaration-walk: duplicate
// lexical declarations, undeclared identifiers, const reassignment,
// uninitialized (TDZ) reads, this/new.target/super misuse — plus a
// best-effort bottom-up type inference pass.
func Analyze(prog *ast.Program) *Result {
	a := NewAnalyzer()
	kind := ProgramScope
	if prog.IsModule {
		kind = ModuleScope
	}
	root := newScope(kind, nil)
	a.scopes[prog] = root
	a.hoistVars(prog.Statements, root)
	a.declareBlockLevel(prog.Statements, root)

	ctx := context{scope: root}
	for _, stmt := range prog.Statements {
		a.analyzeStatement(stmt, ctx)
	}

	return &Result{Errors: a.errors, Warnings: a.warnings, Scopes: a.scopes, Types: a.types}
}

// --- hoisting -------------------------------------------------------------

// hoistVars registers every var and function declaration reachable from
// stmts without crossing into a nested function body, installing each in
// target (the nearest enclosing function/program/module scope). Per the
// hoisting-and-scoping model, this runs regardless of how deeply the
// declaration is nested inside blocks, loops, or conditionals.
func (a *Analyzer) hoistVars(stmts []ast.Statement, target *Scope) {
	for _, stmt := range stmts {
		a.hoistVarsStmt(stmt, target)
	}
}

func (a *Analyzer) hoistVarsStmt(stmt ast.Statement, target *Scope) {
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		if s.Kind != ast.VarKindVar {
			return
		}
		for _, d := range s.Declarations {
			for _, id := range patternIdentifiers(d.Target) {
				target.declareHoisted(id.Name, VarDecl, id.Pos().Line)
			}
		}
	case *ast.FunctionDeclaration:
		if s.Function.Name != nil {
			target.declareHoisted(s.Function.Name.Name, FunctionDecl, s.Function.Name.Pos().Line)
		}
	case *ast.IfStatement:
		a.hoistVarsStmt(s.Consequent, target)
		if s.Alternate != nil {
			a.hoistVarsStmt(s.Alternate, target)
		}
	case *ast.ForStatement:
		if decl, ok := s.Init.(*ast.VariableDeclaration); ok {
			a.hoistVarsStmt(decl, target)
		}
		a.hoistVarsStmt(s.Body, target)
	case *ast.ForInStatement:
		if decl, ok := s.Left.(*ast.VariableDeclaration); ok {
			a.hoistVarsStmt(decl, target)
		}
		a.hoistVarsStmt(s.Body, target)
	case *ast.ForOfStatement:
		if decl, ok := s.Left.(*ast.VariableDeclaration); ok {
			a.hoistVarsStmt(decl, target)
		}
		a.hoistVarsStmt(s.Body, target)
	case *ast.WhileStatement:
		a.hoistVarsStmt(s.Body, target)
	case *ast.DoWhileStatement:
		a.hoistVarsStmt(s.Body, target)
	case *ast.BlockStatement:
		a.hoistVars(s.Statements, target)
	case *ast.TryStatement:
		a.hoistVars(s.Block.Statements, target)
		if s.Catch != nil {
			a.hoistVars(s.Catch.Body.Statements, target)
		}
		if s.Finally != nil {
			a.hoistVars(s.Finally.Statements, target)
		}
	case *ast.SwitchStatement:
		for _, c := range s.Cases {
			a.hoistVars(c.Consequent, target)
		}
	case *ast.LabeledStatement:
		a.hoistVarsStmt(s.Body, target)
	}
}

// declareBlockLevel records the let/const/class declarations that belong
// directly to this scope (not hoisted), starting in the TDZ; var and
// function names were already installed by hoistVars.
func (a *Analyzer) declareBlockLevel(stmts []ast.Statement, scope *Scope) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.VariableDeclaration:
			if s.Kind == ast.VarKindVar {
				continue
			}
			kind := LetDecl
			if s.Kind == ast.VarKindConst {
				kind = ConstDecl
			}
			for _, d := range s.Declarations {
				for _, id := range patternIdentifiers(d.Target) {
					if _, ok := scope.declare(id.Name, kind, id.Pos().Line, false); !ok {
						a.errorf(ErrDuplicateDeclaration, id.Pos(), "identifier %q has already been declared", id.Name)
					}
				}
			}
		case *ast.ClassDeclaration:
			if s.Class.Name != nil {
				if _, ok := scope.declare(s.Class.Name.Name, LetDecl, s.Class.Name.Pos().Line, false); !ok {
					a.errorf(ErrDuplicateDeclaration, s.Class.Name.Pos(), "identifier %q has already been declared", s.Class.Name.Name)
				}
			}
		}
	}
}

// patternIdentifiers flattens a binding target (Identifier, ObjectPattern,
// ArrayPattern, AssignmentPattern, or nested combinations) into the leaf
// identifiers it binds.
func patternIdentifiers(target ast.Expression) []*ast.Identifier {
	switch t := target.(type) {
	case nil:
		return nil
	case *ast.Identifier:
		return []*ast.Identifier{t}
	case *ast.AssignmentPattern:
		return patternIdentifiers(t.Target)
	case *ast.ObjectPattern:
		var ids []*ast.Identifier
		for _, p := range t.Properties {
			ids = append(ids, patternIdentifiers(p.Value)...)
		}
		return ids
	case *ast.ArrayPattern:
		var ids []*ast.Identifier
		for _, e := range t.Elements {
			ids = append(ids, patternIdentifiers(e)...)
		}
		ids = append(ids, patternIdentifiers(t.Rest)...)
		return ids
	default:
		return nil
	}
}
