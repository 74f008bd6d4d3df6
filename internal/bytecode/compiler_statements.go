package bytecode

import (
	"github.com/ecmago/engine/internal/ast"
)

func (c *Compiler) compileStatement(stmt ast.Statement) error {
	if stmt == nil {
		return nil
	}
	line := lineOf(stmt)

	switch node := stmt.(type) {
	case *ast.BlockStatement:
		return c.compileBlock(node)
	case *ast.VariableDeclaration:
		return c.compileVariableDeclaration(node)
	case *ast.ExpressionStatement:
		return c.compileExpressionStatement(node)
	case *ast.FunctionDeclaration:
		return c.compileFunctionDeclaration(node)
	case *ast.ClassDeclaration:
		return c.compileClassDeclaration(node)
	case *ast.ReturnStatement:
		return c.compileReturnStatement(node)
	case *ast.IfStatement:
		return c.compileIfStatement(node)
	case *ast.ForStatement:
		return c.compileForStatement(node)
	case *ast.ForInStatement:
		return c.compileForInStatement(node)
	case *ast.ForOfStatement:
		return c.compileForOfStatement(node)
	case *ast.WhileStatement:
		return c.compileWhileStatement(node)
	case *ast.DoWhileStatement:
		return c.compileDoWhileStatement(node)
	case *ast.BreakStatement:
		return c.compileBreakStatement(node)
	case *ast.ContinueStatement:
		return c.compileContinueStatement(node)
	case *ast.LabeledStatement:
		return c.compileLabeledStatement(node)
	case *ast.SwitchStatement:
		return c.compileSwitchStatement(node)
	case *ast.ThrowStatement:
		return c.compileThrowStatement(node)
	case *ast.TryStatement:
		return c.compileTryStatement(node)
	case *ast.EmptyStatement:
		return nil
	case *ast.DebuggerStatement:
		return nil
	case *ast.ImportDeclaration:
		// The compiler does no module linking: an import declaration emits
		// nothing and binds no names, so an imported identifier resolves like
		// any other name with no local or upvalue binding (as a global).
		return nil
	case *ast.ExportDeclaration:
		return c.compileExportDeclaration(node)
	default:
		return c.errorf(line, "unsupported statement type %T", stmt)
	}
}

func (c *Compiler) compileBlock(block *ast.BlockStatement) error {
	c.beginScope()
	for _, stmt := range block.Statements {
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
	}
	c.endScope()
	return nil
}

// compileBlockStatements compiles a block's statements without opening a new
// scope, used where the caller already manages scope lifetime (catch/finally
// bodies sharing the enclosing try's synthetic locals).
func (c *Compiler) compileBlockStatements(block *ast.BlockStatement) error {
	if block == nil {
		return nil
	}
	for _, stmt := range block.Statements {
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// compileExpressionStatement discards the expression's value by default.
// The root program compiler is the one exception: its top-level expression
// statements feed the script's completion value (spec.md §8), so it stores
// into $completion instead of popping.
func (c *Compiler) compileExpressionStatement(stmt *ast.ExpressionStatement) error {
	if stmt.Expression == nil {
		return nil
	}
	if err := c.compileExpression(stmt.Expression); err != nil {
		return err
	}
	if c.enclosing == nil {
		c.emitAB(StoreLocal, 0, uint16(c.completionSlot), lineOf(stmt))
		return nil
	}
	c.emit(Pop, lineOf(stmt))
	return nil
}

// compileVariableDeclaration declares each target as a local of the
// enclosing function (top-level declarations become locals of the implicit
// script function, per the compiler's name-resolution design — see
// compileIdentifierLoad). `var` targets were already pre-declared and
// zero-initialized by the enclosing function's hoisting pass, so here they
// are only (re-)assigned; `let`/`const` declare their slot fresh at the
// point reached, matching their block-scoped, TDZ'd semantics.
func (c *Compiler) compileVariableDeclaration(decl *ast.VariableDeclaration) error {
	for _, d := range decl.Declarations {
		line := lineOf(d.Target)
		if decl.Kind == ast.VarKindVar {
			if err := c.compileVarAssignOnly(d); err != nil {
				return err
			}
			continue
		}
		if err := c.compileLexicalDeclarator(d, line); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileVarAssignOnly(d *ast.VariableDeclarator) error {
	if d.Init == nil {
		return nil
	}
	line := lineOf(d.Target)
	switch t := d.Target.(type) {
	case *ast.Identifier:
		if err := c.compileExpression(d.Init); err != nil {
			return err
		}
		c.compileIdentifierStore(t.Name, line)
		return nil
	case *ast.ObjectPattern, *ast.ArrayPattern:
		if err := c.compileExpression(d.Init); err != nil {
			return err
		}
		srcSlot := c.declareLocal("$destr")
		c.emitAB(StoreLocal, 0, uint16(srcSlot), line)
		return c.compileDestructureAssign(d.Target, srcSlot, line)
	default:
		return c.errorf(line, "unsupported var declaration target %T", d.Target)
	}
}

func (c *Compiler) compileLexicalDeclarator(d *ast.VariableDeclarator, line int) error {
	switch t := d.Target.(type) {
	case *ast.Identifier:
		if d.Init != nil {
			if err := c.compileExpression(d.Init); err != nil {
				return err
			}
		} else {
			c.emit(LoadUndefined, line)
		}
		slot := c.declareLocal(t.Name)
		c.emitAB(StoreLocal, 0, uint16(slot), line)
		return nil
	case *ast.ObjectPattern, *ast.ArrayPattern:
		if d.Init == nil {
			return c.errorf(line, "destructuring declaration requires an initializer")
		}
		if err := c.compileExpression(d.Init); err != nil {
			return err
		}
		srcSlot := c.declareLocal("$destr")
		c.emitAB(StoreLocal, 0, uint16(srcSlot), line)
		return c.compileLexicalPatternDeclare(d.Target, srcSlot, line)
	default:
		return c.errorf(line, "unsupported declaration target %T", d.Target)
	}
}

// compileLexicalPatternDeclare is compileDestructureAssign's counterpart for
// `let`/`const`: every name bound by the pattern must become a fresh local
// rather than an assignment to one that already exists, so patterns are
// walked with declareLocal substituted for compileIdentifierStore.
func (c *Compiler) compileLexicalPatternDeclare(pattern ast.Expression, srcSlot int, line int) error {
	names, err := patternNames(pattern)
	if err != nil {
		return err
	}
	for _, name := range names {
		c.declareLocal(name)
	}
	return c.compileDestructureAssign(pattern, srcSlot, line)
}

// patternNames collects every binding name introduced by a destructuring
// pattern, in declaration order, descending into nested patterns and
// defaults but not evaluating any expression.
func patternNames(pattern ast.Expression) ([]string, error) {
	var names []string
	var walk func(ast.Expression) error
	walk = func(e ast.Expression) error {
		switch p := e.(type) {
		case nil:
			return nil
		case *ast.Identifier:
			names = append(names, p.Name)
		case *ast.AssignmentPattern:
			return walk(p.Target)
		case *ast.ObjectPattern:
			for _, prop := range p.Properties {
				if prop.Rest {
					if err := walk(prop.Value); err != nil {
						return err
					}
					continue
				}
				target := prop.Value
				if target == nil {
					target = prop.Key
				}
				if err := walk(target); err != nil {
					return err
				}
			}
		case *ast.ArrayPattern:
			for _, el := range p.Elements {
				if err := walk(el); err != nil {
					return err
				}
			}
			if p.Rest != nil {
				return walk(p.Rest)
			}
		default:
			return &CompileError{Line: lineOf(e), Message: "unsupported pattern element"}
		}
		return nil
	}
	if err := walk(pattern); err != nil {
		return nil, err
	}
	return names, nil
}

func (c *Compiler) compileReturnStatement(stmt *ast.ReturnStatement) error {
	line := lineOf(stmt)
	if stmt.Value != nil {
		if err := c.compileExpression(stmt.Value); err != nil {
			return err
		}
		c.emitAB(Return, 1, 0, line)
		return nil
	}
	c.emitAB(Return, 0, 0, line)
	return nil
}

func (c *Compiler) compileThrowStatement(stmt *ast.ThrowStatement) error {
	if err := c.compileExpression(stmt.Value); err != nil {
		return err
	}
	c.emit(Throw, lineOf(stmt))
	return nil
}

func (c *Compiler) compileIfStatement(stmt *ast.IfStatement) error {
	line := lineOf(stmt)
	if err := c.compileExpression(stmt.Test); err != nil {
		return err
	}
	elseJump := c.emitJump(JumpIfFalse, line)
	if err := c.compileStatement(stmt.Consequent); err != nil {
		return err
	}
	if stmt.Alternate == nil {
		c.chunk.PatchJump(elseJump)
		return nil
	}
	endJump := c.emitJump(Jump, line)
	c.chunk.PatchJump(elseJump)
	if err := c.compileStatement(stmt.Alternate); err != nil {
		return err
	}
	c.chunk.PatchJump(endJump)
	return nil
}

func (c *Compiler) compileWhileStatement(stmt *ast.WhileStatement) error {
	line := lineOf(stmt)
	loopStart := c.chunk.here()
	ctx := c.pushLoop(loopWhile, c.currentLabel)
	c.currentLabel = ""
	defer c.popLoop()

	if err := c.compileExpression(stmt.Test); err != nil {
		return err
	}
	exitJump := c.emitJump(JumpIfFalse, line)

	if err := c.compileStatement(stmt.Body); err != nil {
		return err
	}
	c.patchLoopContinues(ctx, loopStart)
	c.emitAB(Jump, 0, uint16(loopStart), line)

	c.chunk.PatchJump(exitJump)
	c.patchLoopBreaks(ctx)
	return nil
}

func (c *Compiler) compileDoWhileStatement(stmt *ast.DoWhileStatement) error {
	line := lineOf(stmt)
	loopStart := c.chunk.here()
	ctx := c.pushLoop(loopDoWhile, c.currentLabel)
	c.currentLabel = ""
	defer c.popLoop()

	if err := c.compileStatement(stmt.Body); err != nil {
		return err
	}

	testStart := c.chunk.here()
	c.patchLoopContinues(ctx, testStart)
	if err := c.compileExpression(stmt.Test); err != nil {
		return err
	}
	loopJump := c.emitJump(JumpIfTrue, line)
	c.chunk.PatchJumpTo(loopJump, loopStart)

	c.patchLoopBreaks(ctx)
	return nil
}

func (c *Compiler) compileForStatement(stmt *ast.ForStatement) error {
	line := lineOf(stmt)
	c.beginScope()
	defer c.endScope()

	switch init := stmt.Init.(type) {
	case nil:
	case *ast.VariableDeclaration:
		if err := c.compileVariableDeclaration(init); err != nil {
			return err
		}
	case ast.Expression:
		if err := c.compileExpression(init); err != nil {
			return err
		}
		c.emit(Pop, line)
	case *ast.ExpressionStatement:
		if err := c.compileExpressionStatement(init); err != nil {
			return err
		}
	default:
		return c.errorf(line, "unsupported for-init %T", stmt.Init)
	}

	loopStart := c.chunk.here()
	ctx := c.pushLoop(loopFor, c.currentLabel)
	c.currentLabel = ""
	defer c.popLoop()

	var exitJump int
	hasTest := stmt.Test != nil
	if hasTest {
		if err := c.compileExpression(stmt.Test); err != nil {
			return err
		}
		exitJump = c.emitJump(JumpIfFalse, line)
	}

	if err := c.compileStatement(stmt.Body); err != nil {
		return err
	}

	updateStart := c.chunk.here()
	c.patchLoopContinues(ctx, updateStart)
	if stmt.Update != nil {
		if err := c.compileExpression(stmt.Update); err != nil {
			return err
		}
		c.emit(Pop, line)
	}
	c.emitAB(Jump, 0, uint16(loopStart), line)

	if hasTest {
		c.chunk.PatchJump(exitJump)
	}
	c.patchLoopBreaks(ctx)
	return nil
}

// forTarget resolves a for-in/for-of loop's left-hand side to either an
// existing assignment target or a freshly declared local, depending on
// whether Left introduces a new binding (`for (const k in obj)`) or reuses
// one (`for (k in obj)`).
func (c *Compiler) forTarget(left ast.Node) (ast.Expression, bool, error) {
	switch l := left.(type) {
	case *ast.VariableDeclaration:
		if len(l.Declarations) != 1 {
			return nil, false, &CompileError{Message: "for-in/for-of declaration must bind exactly one name"}
		}
		return l.Declarations[0].Target, true, nil
	case ast.Expression:
		return l, false, nil
	default:
		return nil, false, &CompileError{Message: "unsupported for-in/for-of left-hand side"}
	}
}

func (c *Compiler) assignForTarget(target ast.Expression, fresh bool, line int) error {
	if fresh {
		names, err := patternNames(target)
		if err != nil {
			return err
		}
		for _, name := range names {
			c.declareLocal(name)
		}
	}
	return c.assignTopOfStack(target, line)
}

func (c *Compiler) compileForInStatement(stmt *ast.ForInStatement) error {
	line := lineOf(stmt)
	c.beginScope()
	defer c.endScope()

	target, fresh, err := c.forTarget(stmt.Left)
	if err != nil {
		return err
	}

	if err := c.compileExpression(stmt.Right); err != nil {
		return err
	}
	c.emit(ForInStart, line)
	cursorSlot := c.declareLocal("$forInCursor")
	c.emitAB(StoreLocal, 0, uint16(cursorSlot), line)

	loopStart := c.chunk.here()
	ctx := c.pushLoop(loopFor, c.currentLabel)
	c.currentLabel = ""
	defer c.popLoop()

	c.emitAB(LoadLocal, 0, uint16(cursorSlot), line)
	c.emit(ForInNext, line)
	doneJump := c.emitJump(JumpIfTrue, line)

	if err := c.assignForTarget(target, fresh, line); err != nil {
		return err
	}
	if err := c.compileStatement(stmt.Body); err != nil {
		return err
	}
	c.patchLoopContinues(ctx, loopStart)
	c.emitAB(Jump, 0, uint16(loopStart), line)

	c.chunk.PatchJump(doneJump)
	c.emit(Pop, line) // exhausted cursor's leftover placeholder key
	c.patchLoopBreaks(ctx)
	return nil
}

func (c *Compiler) compileForOfStatement(stmt *ast.ForOfStatement) error {
	line := lineOf(stmt)
	c.beginScope()
	defer c.endScope()

	target, fresh, err := c.forTarget(stmt.Left)
	if err != nil {
		return err
	}

	if err := c.compileExpression(stmt.Right); err != nil {
		return err
	}
	c.emit(GetIterator, line)
	iterSlot := c.declareLocal("$forOfIter")
	c.emitAB(StoreLocal, 0, uint16(iterSlot), line)

	loopStart := c.chunk.here()
	ctx := c.pushLoop(loopFor, c.currentLabel)
	c.currentLabel = ""
	defer c.popLoop()

	c.emitAB(LoadLocal, 0, uint16(iterSlot), line)
	if stmt.IsAwait {
		c.emit(Await, line)
	}
	c.emit(IteratorNext, line)
	doneJump := c.emitJump(JumpIfTrue, line)

	if err := c.assignForTarget(target, fresh, line); err != nil {
		return err
	}
	if err := c.compileStatement(stmt.Body); err != nil {
		return err
	}
	c.patchLoopContinues(ctx, loopStart)
	c.emitAB(Jump, 0, uint16(loopStart), line)

	c.chunk.PatchJump(doneJump)
	c.emit(Pop, line) // exhausted iterator's leftover placeholder value
	c.patchLoopBreaks(ctx)
	return nil
}

func (c *Compiler) compileBreakStatement(stmt *ast.BreakStatement) error {
	line := lineOf(stmt)
	label := ""
	if stmt.Label != nil {
		label = stmt.Label.Name
	}
	ctx := c.findLoop(label)
	if ctx == nil {
		return c.errorf(line, "break outside of a loop or switch")
	}
	ctx.breaks = append(ctx.breaks, c.emitJump(Jump, line))
	return nil
}

func (c *Compiler) compileContinueStatement(stmt *ast.ContinueStatement) error {
	line := lineOf(stmt)
	label := ""
	if stmt.Label != nil {
		label = stmt.Label.Name
	}
	ctx := c.findLoop(label)
	if ctx == nil {
		return c.errorf(line, "continue outside of a loop")
	}
	if ctx.kind == loopSwitch {
		return c.errorf(line, "continue cannot target a switch statement")
	}
	ctx.continues = append(ctx.continues, c.emitJump(Jump, line))
	return nil
}

// compileLabeledStatement attaches the label to the loop the labeled
// statement directly wraps, so `break`/`continue label` resolve it via
// findLoop; a label on a non-loop statement only matters for `break label`,
// handled by pushing a break-only loopContext around it.
func (c *Compiler) compileLabeledStatement(stmt *ast.LabeledStatement) error {
	switch stmt.Body.(type) {
	case *ast.ForStatement, *ast.ForInStatement, *ast.ForOfStatement,
		*ast.WhileStatement, *ast.DoWhileStatement:
		prevLabel := c.currentLabel
		c.currentLabel = stmt.Label.Name
		err := c.compileStatement(stmt.Body)
		c.currentLabel = prevLabel
		return err
	default:
		ctx := c.pushLoop(loopSwitch, stmt.Label.Name)
		defer c.popLoop()
		if err := c.compileStatement(stmt.Body); err != nil {
			return err
		}
		c.patchLoopBreaks(ctx)
		return nil
	}
}

// compileSwitchStatement lowers to a chain of strict-equality tests against
// the discriminant (stashed in a synthetic local so it's evaluated once),
// falling through consequents exactly like the source's native fallthrough;
// `default` compiles last regardless of its source position and is jumped to
// directly only when no case matched.
func (c *Compiler) compileSwitchStatement(stmt *ast.SwitchStatement) error {
	line := lineOf(stmt)
	c.beginScope()
	defer c.endScope()

	if err := c.compileExpression(stmt.Discriminant); err != nil {
		return err
	}
	discSlot := c.declareLocal("$switch")
	c.emitAB(StoreLocal, 0, uint16(discSlot), line)

	ctx := c.pushLoop(loopSwitch, c.currentLabel)
	c.currentLabel = ""
	defer c.popLoop()

	bodyStarts := make([]int, len(stmt.Cases))
	testJumps := make([]int, len(stmt.Cases))
	defaultIdx := -1

	for i, cs := range stmt.Cases {
		if cs.Test == nil {
			defaultIdx = i
			testJumps[i] = -1
			continue
		}
		caseLine := lineOf(cs.Test)
		c.emitAB(LoadLocal, 0, uint16(discSlot), caseLine)
		if err := c.compileExpression(cs.Test); err != nil {
			return err
		}
		c.emit(StrictEq, caseLine)
		testJumps[i] = c.emitJump(JumpIfTrue, caseLine)
	}

	endOfTestsJump := c.emitJump(Jump, line)

	for i, cs := range stmt.Cases {
		bodyStarts[i] = c.chunk.here()
		if testJumps[i] >= 0 {
			c.chunk.PatchJumpTo(testJumps[i], bodyStarts[i])
		}
		for _, s := range cs.Consequent {
			if err := c.compileStatement(s); err != nil {
				return err
			}
		}
	}

	if defaultIdx >= 0 {
		c.chunk.PatchJumpTo(endOfTestsJump, bodyStarts[defaultIdx])
	} else {
		// No default: every test failed, so skip straight past every body.
		c.chunk.PatchJumpTo(endOfTestsJump, c.chunk.here())
	}

	c.patchLoopBreaks(ctx)
	return nil
}

// compileTryStatement wires PushHandler/PopHandler around the protected
// block per the [catchTarget, finallyTarget] pair the VM's handler stack
// dispatches on. Known simplification: a finally block only reliably runs on
// the normal and caught-exception paths; an exception that passes through a
// finally-only try (no catch), or one thrown from inside the catch body
// itself, currently propagates without re-entering finally first. Fully
// correct finally semantics need the VM to track a completion type (normal/
// return/throw) through the unwind, which internal/vm does not do yet.
func (c *Compiler) compileTryStatement(stmt *ast.TryStatement) error {
	line := lineOf(stmt)
	hasCatch := stmt.Catch != nil
	hasFinally := stmt.Finally != nil

	tryInst := c.emitAB(PushHandler, 0, 0, line)

	if err := c.compileBlockStatements(stmt.Block); err != nil {
		return err
	}
	c.emit(PopHandler, line)
	jumpAfterTry := c.emitJump(Jump, line)

	catchStart := -1
	if hasCatch {
		catchStart = c.chunk.here()
		if err := c.compileCatchClause(stmt.Catch); err != nil {
			return err
		}
	}

	// The catch body (if any) falls straight through into this point, so no
	// extra jump is needed to reach finally from the end of catch.
	finallyStart := c.chunk.here()
	c.chunk.PatchJump(jumpAfterTry)
	if hasFinally {
		if err := c.compileBlockStatements(stmt.Finally); err != nil {
			return err
		}
	}

	target := finallyStart
	if hasCatch {
		target = catchStart
	}
	c.chunk.PatchJumpTo(tryInst, target)
	c.chunk.SetTryInfo(tryInst, TryInfo{
		CatchTarget:   catchStart,
		FinallyTarget: finallyStart,
		HasCatch:      hasCatch,
		HasFinally:    hasFinally,
	})
	return nil
}

// compileCatchClause binds the thrown value (left on the stack by the VM's
// handler dispatch) to the catch parameter, if any, then compiles the body.
// The dispatch that transferred control here already deactivated the
// handler, so no PopHandler is emitted on this path — only the normal exit
// from the try block carries one.
func (c *Compiler) compileCatchClause(clause *ast.CatchClause) error {
	line := lineOf(clause.Body)
	c.beginScope()
	defer c.endScope()

	switch param := clause.Param.(type) {
	case *ast.Identifier:
		slot := c.declareLocal(param.Name)
		c.emitAB(StoreLocal, 0, uint16(slot), line)
	case *ast.ObjectPattern, *ast.ArrayPattern:
		names, err := patternNames(param)
		if err != nil {
			return err
		}
		for _, name := range names {
			c.declareLocal(name)
		}
		srcSlot := c.declareLocal("$caught")
		c.emitAB(StoreLocal, 0, uint16(srcSlot), line)
		if err := c.compileDestructureAssign(param, srcSlot, line); err != nil {
			return err
		}
	case nil:
		c.emit(Pop, line) // catch (no binding) still needs to discard the thrown value
	default:
		return c.errorf(line, "unsupported catch parameter %T", clause.Param)
	}
	return c.compileBlockStatements(clause.Body)
}

func (c *Compiler) compileExportDeclaration(exp *ast.ExportDeclaration) error {
	if exp.Declaration != nil {
		return c.compileStatement(exp.Declaration)
	}
	if exp.Expression != nil {
		return c.compileExpression(exp.Expression)
	}
	return nil
}
