package bytecode

import (
	"github.com/ecmago/engine/internal/ast"
)

// hoistVarNames collects every `var`-declared name reachable from stmts
// without crossing into a nested function/arrow body, mirroring
// internal/semantic's hoistVars traversal so the compiler pre-declares the
// same slots the analyzer already validated.
func hoistVarNames(stmts []ast.Statement) []string {
	var names []string
	for _, stmt := range stmts {
		hoistVarNamesStmt(stmt, &names)
	}
	return names
}

func hoistVarNamesStmt(stmt ast.Statement, names *[]string) {
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		if s.Kind != ast.VarKindVar {
			return
		}
		for _, d := range s.Declarations {
			for _, n := range identifierNames(d.Target) {
				*names = append(*names, n)
			}
		}
	case *ast.IfStatement:
		hoistVarNamesStmt(s.Consequent, names)
		if s.Alternate != nil {
			hoistVarNamesStmt(s.Alternate, names)
		}
	case *ast.ForStatement:
		if decl, ok := s.Init.(*ast.VariableDeclaration); ok {
			hoistVarNamesStmt(decl, names)
		}
		hoistVarNamesStmt(s.Body, names)
	case *ast.ForInStatement:
		if decl, ok := s.Left.(*ast.VariableDeclaration); ok {
			hoistVarNamesStmt(decl, names)
		}
		hoistVarNamesStmt(s.Body, names)
	case *ast.ForOfStatement:
		if decl, ok := s.Left.(*ast.VariableDeclaration); ok {
			hoistVarNamesStmt(decl, names)
		}
		hoistVarNamesStmt(s.Body, names)
	case *ast.WhileStatement:
		hoistVarNamesStmt(s.Body, names)
	case *ast.DoWhileStatement:
		hoistVarNamesStmt(s.Body, names)
	case *ast.BlockStatement:
		for _, inner := range s.Statements {
			hoistVarNamesStmt(inner, names)
		}
	case *ast.TryStatement:
		for _, inner := range s.Block.Statements {
			hoistVarNamesStmt(inner, names)
		}
		if s.Catch != nil {
			for _, inner := range s.Catch.Body.Statements {
				hoistVarNamesStmt(inner, names)
			}
		}
		if s.Finally != nil {
			for _, inner := range s.Finally.Statements {
				hoistVarNamesStmt(inner, names)
			}
		}
	case *ast.SwitchStatement:
		for _, cs := range s.Cases {
			for _, inner := range cs.Consequent {
				hoistVarNamesStmt(inner, names)
			}
		}
	case *ast.LabeledStatement:
		hoistVarNamesStmt(s.Body, names)
	}
}

// hoistFunctionDecls collects the function declarations that appear directly
// in stmts (unlike hoistVarNames, it does not descend into nested blocks), so
// their bindings exist (and are already callable) before the first statement
// in program order runs.
func hoistFunctionDecls(stmts []ast.Statement) []*ast.FunctionDeclaration {
	var decls []*ast.FunctionDeclaration
	for _, stmt := range stmts {
		if fd, ok := stmt.(*ast.FunctionDeclaration); ok {
			decls = append(decls, fd)
		}
	}
	return decls
}

func identifierNames(pattern ast.Expression) []string {
	names, err := patternNames(pattern)
	if err != nil {
		return nil
	}
	return names
}

// hoistAndCompileBody runs the var/function hoisting pre-pass for one
// function (or program) body, then compiles every statement in source
// order, skipping top-level function declarations a second time since
// hoisting already materialized and bound them.
func (c *Compiler) hoistAndCompileBody(stmts []ast.Statement) error {
	line := 0
	if len(stmts) > 0 {
		line = lineOf(stmts[0])
	}
	for _, name := range hoistVarNames(stmts) {
		if _, ok := c.resolveLocal(name); ok {
			continue
		}
		slot := c.declareLocal(name)
		c.emit(LoadUndefined, line)
		c.emitAB(StoreLocal, 0, uint16(slot), line)
	}
	// Every hoisted function's name binds before any body compiles, so
	// sibling declarations can call each other (mutual recursion) no matter
	// their source order.
	hoisted := hoistFunctionDecls(stmts)
	slots := make(map[*ast.FunctionDeclaration]int, len(hoisted))
	for _, fd := range hoisted {
		name := fd.Function.Name.Name
		if slot, ok := c.resolveLocal(name); ok {
			slots[fd] = slot
			continue
		}
		slots[fd] = c.declareLocal(name)
	}
	for _, fd := range hoisted {
		if err := c.emitNewFunction(fd.Function, lineOf(fd)); err != nil {
			return err
		}
		c.emitAB(StoreLocal, 0, uint16(slots[fd]), lineOf(fd))
	}
	hoistedSet := make(map[*ast.FunctionDeclaration]bool, len(hoisted))
	for _, fd := range hoisted {
		hoistedSet[fd] = true
	}
	for _, stmt := range stmts {
		if fd, ok := stmt.(*ast.FunctionDeclaration); ok && hoistedSet[fd] {
			continue
		}
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// declareParam binds one formal parameter's slot(s). A plain identifier
// with no default occupies exactly the positional slot the VM's call
// protocol already fills; a defaulted or destructured parameter reads that
// same raw slot, resolves its default, then (for patterns) destructures it
// into further locals declared immediately after.
func (c *Compiler) declareParam(p *ast.Param, line int) error {
	if p.Rest {
		id, ok := p.Pattern.(*ast.Identifier)
		if !ok {
			return c.errorf(line, "rest parameter must be a simple identifier")
		}
		c.declareLocal(id.Name)
		return nil
	}
	switch pat := p.Pattern.(type) {
	case *ast.Identifier:
		slot := c.declareLocal(pat.Name)
		if p.Default != nil {
			return c.emitParamDefault(slot, p.Default, line)
		}
		return nil
	case *ast.ObjectPattern, *ast.ArrayPattern:
		slot := c.declareLocal("$param")
		if p.Default != nil {
			if err := c.emitParamDefault(slot, p.Default, line); err != nil {
				return err
			}
		}
		return c.compileLexicalPatternDeclare(pat, slot, line)
	default:
		return c.errorf(line, "unsupported parameter pattern %T", p.Pattern)
	}
}

// emitParamDefault substitutes def for slot's value only when the caller
// left the argument undefined (a missing trailing argument or an explicit
// `undefined`), per default-parameter semantics.
func (c *Compiler) emitParamDefault(slot int, def ast.Expression, line int) error {
	c.emitAB(LoadLocal, 0, uint16(slot), line)
	useDefault := c.emitJump(JumpIfUndefined, line)
	skip := c.emitJump(Jump, line)
	c.chunk.PatchJump(useDefault)
	if err := c.compileExpression(def); err != nil {
		return err
	}
	c.emitAB(StoreLocal, 0, uint16(slot), line)
	c.chunk.PatchJump(skip)
	return nil
}

// compileFunctionLiteral compiles fn's body into its own Chunk, recorded in
// c.program.Functions, and returns its index. The enclosing NewFunction
// instruction materializes the closure at the point the literal is reached,
// capturing whatever upvalues the body resolved during this compile.
func (c *Compiler) compileFunctionLiteral(fn *ast.FunctionLiteral) (int, error) {
	child := c.newChildCompiler(fn.Arrow)
	child.beginScope()

	hasRest := false
	for _, p := range fn.Params {
		if p.Rest {
			hasRest = true
		}
		if err := child.declareParam(p, lineOf(fn)); err != nil {
			return 0, err
		}
	}

	if fn.ExprBody != nil {
		line := lineOf(fn.ExprBody)
		if err := child.compileExpression(fn.ExprBody); err != nil {
			return 0, err
		}
		child.emitAB(Return, 1, 0, line)
	} else {
		if err := child.hoistAndCompileBody(fn.Body.Statements); err != nil {
			return 0, err
		}
		line := lineOf(fn.Body)
		child.emit(LoadUndefined, line)
		child.emitAB(Return, 1, 0, line)
	}

	name := ""
	if fn.Name != nil {
		name = fn.Name.Name
	}
	idx := len(c.program.Functions)
	c.program.Functions = append(c.program.Functions, FunctionInfo{
		Name: name, ParamCount: len(fn.Params), HasRest: hasRest,
		IsArrow: fn.Arrow, IsGenerator: fn.IsGenerator, IsAsync: fn.IsAsync,
		Upvalues: child.upvalues, Chunk: child.chunk,
	})
	return idx, nil
}

func (c *Compiler) emitNewFunction(fn *ast.FunctionLiteral, line int) error {
	idx, err := c.compileFunctionLiteral(fn)
	if err != nil {
		return err
	}
	c.emitAB(NewFunction, 0, uint16(idx), line)
	return nil
}

// compileFunctionDeclaration handles a declaration in block (non-hoisted)
// position. The name binds before the body compiles so the function can
// call itself through the ordinary upvalue chain.
func (c *Compiler) compileFunctionDeclaration(stmt *ast.FunctionDeclaration) error {
	line := lineOf(stmt)
	slot := c.declareLocal(stmt.Function.Name.Name)
	if err := c.emitNewFunction(stmt.Function, line); err != nil {
		return err
	}
	c.emitAB(StoreLocal, 0, uint16(slot), line)
	return nil
}

func (c *Compiler) compileFunctionExpression(fn *ast.FunctionLiteral) error {
	return c.emitNewFunction(fn, lineOf(fn))
}
