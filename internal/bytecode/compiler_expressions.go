package bytecode

import (
	"strings"

	"github.com/ecmago/engine/internal/ast"
	"github.com/ecmago/engine/internal/value"
)

func (c *Compiler) compileExpression(expr ast.Expression) error {
	if expr == nil {
		return nil
	}
	line := lineOf(expr)

	switch e := expr.(type) {
	case *ast.Identifier:
		return c.compileIdentifierLoad(e.Name, line)
	case *ast.NumberLiteral:
		c.emitConst(value.Num(e.Value), line)
		return nil
	case *ast.StringLiteral:
		c.emitConst(value.Str(e.Value), line)
		return nil
	case *ast.BooleanLiteral:
		if e.Value {
			c.emit(LoadTrue, line)
		} else {
			c.emit(LoadFalse, line)
		}
		return nil
	case *ast.NullLiteral:
		c.emit(LoadNull, line)
		return nil
	case *ast.UndefinedLiteral:
		c.emit(LoadUndefined, line)
		return nil
	case *ast.BigIntLiteral:
		v, err := value.BigIntFromString(e.Value)
		if err != nil {
			return c.errorf(line, "invalid BigInt literal %q: %v", e.Value, err)
		}
		c.emitConst(v, line)
		return nil
	case *ast.RegExpLiteral:
		// Produces the literal source text rather than a RegExp object: the
		// VM has no regular-expression engine wired in yet. Revisit once
		// internal/vm gains a RegExp runtime type.
		c.emitConst(value.Str("/"+e.Pattern+"/"+e.Flags), line)
		return nil
	case *ast.TemplateLiteral:
		return c.compileTemplateLiteral(e)
	case *ast.ArrayLiteral:
		return c.compileArrayLiteral(e)
	case *ast.ObjectLiteral:
		return c.compileObjectLiteral(e)
	case *ast.ThisExpression:
		c.emit(LoadThis, line)
		return nil
	case *ast.SuperExpression:
		return c.errorf(line, "`super` may only appear as a member-access or call target")
	case *ast.NewTargetExpression:
		c.emit(LoadNewTarget, line)
		return nil
	case *ast.BinaryExpression:
		return c.compileBinaryExpression(e)
	case *ast.LogicalExpression:
		return c.compileLogicalExpression(e)
	case *ast.UnaryExpression:
		return c.compileUnaryExpression(e)
	case *ast.UpdateExpression:
		return c.compileUpdateExpression(e)
	case *ast.AssignmentExpression:
		return c.compileAssignmentExpression(e)
	case *ast.ConditionalExpression:
		return c.compileConditionalExpression(e)
	case *ast.SequenceExpression:
		for i, sub := range e.Expressions {
			if i > 0 {
				c.emit(Pop, line)
			}
			if err := c.compileExpression(sub); err != nil {
				return err
			}
		}
		return nil
	case *ast.MemberExpression:
		return c.compileMemberLoad(e)
	case *ast.CallExpression:
		return c.compileCallExpression(e)
	case *ast.NewExpression:
		return c.compileNewExpression(e)
	case *ast.FunctionLiteral:
		return c.compileFunctionExpression(e)
	case *ast.ClassLiteral:
		return c.compileClassExpression(e)
	default:
		return c.errorf(line, "unsupported expression type %T", expr)
	}
}

func (c *Compiler) compileIdentifierLoad(name string, line int) error {
	if slot, ok := c.resolveLocal(name); ok {
		c.emitAB(LoadLocal, 0, uint16(slot), line)
		return nil
	}
	if idx, ok := c.resolveUpvalue(name); ok {
		c.emitAB(LoadClosureVar, 0, uint16(idx), line)
		return nil
	}
	nameIdx := c.chunk.AddConstant(value.Str(name))
	c.emitAB(LoadGlobal, 0, nameIdx, line)
	return nil
}

func (c *Compiler) compileIdentifierStore(name string, line int) {
	if slot, ok := c.resolveLocal(name); ok {
		c.emitAB(StoreLocal, 0, uint16(slot), line)
		return
	}
	if idx, ok := c.resolveUpvalue(name); ok {
		c.emitAB(StoreClosureVar, 0, uint16(idx), line)
		return
	}
	nameIdx := c.chunk.AddConstant(value.Str(name))
	c.emitAB(StoreGlobal, 0, nameIdx, line)
}

// compileTemplateLiteral lowers `a${b}c` into a chain of Add instructions;
// Add performs string concatenation whenever either operand is a string
// (the VM's value coercion handles the ToString conversion of substitution
// expressions), so no separate string-building opcode is needed.
func (c *Compiler) compileTemplateLiteral(t *ast.TemplateLiteral) error {
	line := lineOf(t)
	c.emitConst(value.Str(t.Quasis[0]), line)
	for i, expr := range t.Expressions {
		if err := c.compileExpression(expr); err != nil {
			return err
		}
		c.emit(Add, line)
		c.emitConst(value.Str(t.Quasis[i+1]), line)
		c.emit(Add, line)
	}
	return nil
}

func (c *Compiler) compileArrayLiteral(a *ast.ArrayLiteral) error {
	line := lineOf(a)
	spread := false
	for _, el := range a.Elements {
		if _, ok := el.(*ast.SpreadElement); ok {
			spread = true
			break
		}
	}
	if !spread {
		for _, el := range a.Elements {
			if el == nil {
				c.emit(LoadUndefined, line)
				continue
			}
			if err := c.compileExpression(el); err != nil {
				return err
			}
		}
		c.emitAB(NewArray, 0, uint16(len(a.Elements)), line)
		return nil
	}

	arrSlot := c.declareLocal("$arr")
	idxSlot := c.declareLocal("$idx")
	c.emitAB(NewArray, 0, 0, line)
	c.emitAB(StoreLocal, 0, uint16(arrSlot), line)
	c.emitConst(value.Num(0), line)
	c.emitAB(StoreLocal, 0, uint16(idxSlot), line)

	for _, el := range a.Elements {
		if el == nil {
			if err := c.appendArrayElement(arrSlot, idxSlot, func() error { c.emit(LoadUndefined, line); return nil }, line); err != nil {
				return err
			}
			continue
		}
		if sp, ok := el.(*ast.SpreadElement); ok {
			if err := c.compileSpreadIntoArray(arrSlot, idxSlot, sp); err != nil {
				return err
			}
			continue
		}
		if err := c.appendArrayElement(arrSlot, idxSlot, func() error { return c.compileExpression(el) }, line); err != nil {
			return err
		}
	}
	c.emitAB(LoadLocal, 0, uint16(arrSlot), line)
	return nil
}

func (c *Compiler) appendArrayElement(arrSlot, idxSlot int, pushValue func() error, line int) error {
	c.emitAB(LoadLocal, 0, uint16(arrSlot), line)
	c.emitAB(LoadLocal, 0, uint16(idxSlot), line)
	if err := pushValue(); err != nil {
		return err
	}
	c.emit(StoreProperty, line)
	c.emitAB(LoadLocal, 0, uint16(idxSlot), line)
	c.emitConst(value.Num(1), line)
	c.emit(Add, line)
	c.emitAB(StoreLocal, 0, uint16(idxSlot), line)
	return nil
}

func (c *Compiler) compileSpreadIntoArray(arrSlot, idxSlot int, sp *ast.SpreadElement) error {
	line := lineOf(sp)
	iterSlot := c.declareLocal("$iter")
	tmpSlot := c.declareLocal("$tmp")

	if err := c.compileExpression(sp.Expression); err != nil {
		return err
	}
	c.emit(GetIterator, line)
	c.emitAB(StoreLocal, 0, uint16(iterSlot), line)

	loopStart := c.chunk.here()
	c.emitAB(LoadLocal, 0, uint16(iterSlot), line)
	c.emit(IteratorNext, line)
	doneJump := c.emitJump(JumpIfTrue, line)

	c.emitAB(StoreLocal, 0, uint16(tmpSlot), line)
	if err := c.appendArrayElement(arrSlot, idxSlot, func() error {
		c.emitAB(LoadLocal, 0, uint16(tmpSlot), line)
		return nil
	}, line); err != nil {
		return err
	}
	c.emitAB(Jump, 0, uint16(loopStart), line)

	c.chunk.PatchJump(doneJump)
	c.emit(Pop, line)
	return nil
}

func (c *Compiler) compileObjectLiteral(o *ast.ObjectLiteral) error {
	line := lineOf(o)
	spread := false
	for _, p := range o.Properties {
		if p.IsSpread {
			spread = true
			break
		}
	}
	if !spread {
		for _, p := range o.Properties {
			if err := c.compileObjectKey(p); err != nil {
				return err
			}
			if err := c.compileObjectPropertyValue(p); err != nil {
				return err
			}
		}
		c.emitAB(NewObject, byte(len(o.Properties)), 0, line)
		return nil
	}

	objSlot := c.declareLocal("$obj")
	c.emitAB(NewObject, 0, 0, line)
	c.emitAB(StoreLocal, 0, uint16(objSlot), line)
	for _, p := range o.Properties {
		if p.IsSpread {
			if err := c.compileSpreadIntoObject(objSlot, p.Value); err != nil {
				return err
			}
			continue
		}
		c.emitAB(LoadLocal, 0, uint16(objSlot), line)
		if err := c.compileObjectKey(p); err != nil {
			return err
		}
		if err := c.compileObjectPropertyValue(p); err != nil {
			return err
		}
		c.emit(StoreProperty, line)
	}
	c.emitAB(LoadLocal, 0, uint16(objSlot), line)
	return nil
}

func (c *Compiler) compileObjectKey(p *ast.ObjectProperty) error {
	line := lineOf(p.Key)
	if p.Computed {
		return c.compileExpression(p.Key)
	}
	switch k := p.Key.(type) {
	case *ast.Identifier:
		c.emitConst(value.Str(k.Name), line)
	case *ast.StringLiteral:
		c.emitConst(value.Str(k.Value), line)
	case *ast.NumberLiteral:
		c.emitConst(value.Str(value.Num(k.Value).String()), line)
	default:
		return c.errorf(line, "unsupported object key type %T", p.Key)
	}
	return nil
}

// compileObjectPropertyValue emits the property's value. Getter/setter
// members compile their function body but are installed as plain data
// properties holding the function: full accessor-descriptor support for
// object literals (as opposed to class members, which do get real
// getter/setter descriptors — see compileClassLiteral) is not implemented.
func (c *Compiler) compileObjectPropertyValue(p *ast.ObjectProperty) error {
	if p.Shorthand {
		id, ok := p.Key.(*ast.Identifier)
		if !ok {
			return c.errorf(lineOf(p.Key), "invalid shorthand property")
		}
		return c.compileIdentifierLoad(id.Name, lineOf(p.Key))
	}
	return c.compileExpression(p.Value)
}

func (c *Compiler) compileSpreadIntoObject(objSlot int, source ast.Expression) error {
	line := lineOf(source)
	srcSlot := c.declareLocal("$src")
	cursorSlot := c.declareLocal("$cursor")
	keySlot := c.declareLocal("$key")

	if err := c.compileExpression(source); err != nil {
		return err
	}
	c.emitAB(StoreLocal, 0, uint16(srcSlot), line)
	c.emitAB(LoadLocal, 0, uint16(srcSlot), line)
	c.emit(ForInStart, line)
	c.emitAB(StoreLocal, 0, uint16(cursorSlot), line)

	loopStart := c.chunk.here()
	c.emitAB(LoadLocal, 0, uint16(cursorSlot), line)
	c.emit(ForInNext, line)
	doneJump := c.emitJump(JumpIfTrue, line)

	c.emitAB(StoreLocal, 0, uint16(keySlot), line)
	c.emitAB(LoadLocal, 0, uint16(objSlot), line)
	c.emitAB(LoadLocal, 0, uint16(keySlot), line)
	c.emitAB(LoadLocal, 0, uint16(srcSlot), line)
	c.emitAB(LoadLocal, 0, uint16(keySlot), line)
	c.emit(LoadProperty, line)
	c.emit(StoreProperty, line)
	c.emitAB(Jump, 0, uint16(loopStart), line)

	c.chunk.PatchJump(doneJump)
	c.emit(Pop, line)
	return nil
}

var binaryOps = map[string]OpCode{
	"+": Add, "-": Sub, "*": Mul, "/": Div, "%": Mod, "**": Pow,
	"==": Eq, "!=": Ne, "===": StrictEq, "!==": StrictNe,
	"<": Lt, "<=": Le, ">": Gt, ">=": Ge,
	"&": BitAnd, "|": BitOr, "^": BitXor, "<<": Shl, ">>": Shr, ">>>": UShr,
	"instanceof": InstanceOf, "in": In,
}

func (c *Compiler) compileBinaryExpression(b *ast.BinaryExpression) error {
	if err := c.compileExpression(b.Left); err != nil {
		return err
	}
	if err := c.compileExpression(b.Right); err != nil {
		return err
	}
	op, ok := binaryOps[b.Operator]
	if !ok {
		return c.errorf(lineOf(b), "unsupported binary operator %q", b.Operator)
	}
	c.emit(op, lineOf(b))
	return nil
}

// compileLogicalExpression preserves short-circuit evaluation: the deciding
// operand (the left side when it settles the result) is Dup'd before the
// conditional jump so it survives as the expression's value without
// re-evaluating it, and is only Popped on the path that falls through to
// evaluate the right side.
func (c *Compiler) compileLogicalExpression(l *ast.LogicalExpression) error {
	line := lineOf(l)
	if l.Operator == "??" {
		return c.compileNullishCoalesce(l)
	}
	if err := c.compileExpression(l.Left); err != nil {
		return err
	}
	c.emit(Dup, line)
	var jump int
	switch l.Operator {
	case "&&":
		jump = c.emitJump(JumpIfFalse, line)
	case "||":
		jump = c.emitJump(JumpIfTrue, line)
	default:
		return c.errorf(line, "unsupported logical operator %q", l.Operator)
	}
	c.emit(Pop, line)
	if err := c.compileExpression(l.Right); err != nil {
		return err
	}
	c.chunk.PatchJump(jump)
	return nil
}

// compileNullishCoalesce implements `??`'s short-circuit test (nullish, not
// truthy) using JumpIfUndefined/JumpIfNull rather than the JumpIfTrue/
// JumpIfFalse the other two logical operators use.
func (c *Compiler) compileNullishCoalesce(l *ast.LogicalExpression) error {
	line := lineOf(l)
	if err := c.compileExpression(l.Left); err != nil {
		return err
	}
	tmpSlot := c.declareLocal("$nullish")
	c.emitAB(StoreLocal, 0, uint16(tmpSlot), line)

	c.emitAB(LoadLocal, 0, uint16(tmpSlot), line)
	jumpUndef := c.emitJump(JumpIfUndefined, line)
	c.emitAB(LoadLocal, 0, uint16(tmpSlot), line)
	jumpNull := c.emitJump(JumpIfNull, line)

	// Neither undefined nor null: the left value is the result.
	c.emitAB(LoadLocal, 0, uint16(tmpSlot), line)
	end := c.emitJump(Jump, line)

	c.chunk.PatchJump(jumpUndef)
	c.chunk.PatchJump(jumpNull)
	if err := c.compileExpression(l.Right); err != nil {
		return err
	}
	c.chunk.PatchJump(end)
	return nil
}

func (c *Compiler) compileUnaryExpression(u *ast.UnaryExpression) error {
	line := lineOf(u)
	if u.Operator == "delete" {
		return c.compileDelete(u.Operand)
	}
	if err := c.compileExpression(u.Operand); err != nil {
		return err
	}
	switch u.Operator {
	case "-":
		c.emit(Neg, line)
	case "+":
		c.emit(Pos, line)
	case "!":
		c.emit(Not, line)
	case "~":
		c.emit(BitNot, line)
	case "typeof":
		c.emit(TypeOf, line)
	case "void":
		c.emit(Void, line)
	default:
		return c.errorf(line, "unsupported unary operator %q", u.Operator)
	}
	return nil
}

func (c *Compiler) compileDelete(target ast.Expression) error {
	m, ok := target.(*ast.MemberExpression)
	if !ok {
		return c.errorf(lineOf(target), "invalid delete target %T", target)
	}
	if err := c.compileExpression(m.Object); err != nil {
		return err
	}
	if err := c.compileMemberKey(m); err != nil {
		return err
	}
	c.emit(DeleteProperty, lineOf(m))
	return nil
}

// compileUpdateExpression desugars ++/-- into explicit load/add/store so
// the VM never needs a dedicated in-place-mutate-a-binding instruction; the
// only special handling is which value (pre- or post-update) survives on
// the stack as the expression's result.
func (c *Compiler) compileUpdateExpression(u *ast.UpdateExpression) error {
	line := lineOf(u)
	delta := 1.0
	if u.Operator == "--" {
		delta = -1.0
	}
	switch target := u.Operand.(type) {
	case *ast.Identifier:
		if err := c.compileIdentifierLoad(target.Name, line); err != nil {
			return err
		}
		if !u.Prefix {
			c.emit(Dup, line)
		}
		c.emitConst(value.Num(delta), line)
		c.emit(Add, line)
		if u.Prefix {
			c.emit(Dup, line)
		}
		c.compileIdentifierStore(target.Name, line) // consumes the updated value; the Dup'd pre- or post-value is left
		return nil
	case *ast.MemberExpression:
		return c.compileMemberUpdate(target, delta, u.Prefix, line)
	default:
		return c.errorf(line, "invalid update target %T", u.Operand)
	}
}

// compileMemberUpdate implements obj.prop++/-- by stashing the object and
// key in synthetic locals once, so the object/key pair can be reloaded for
// both the LoadProperty read and the final StoreProperty write without any
// stack reordering.
func (c *Compiler) compileMemberUpdate(target *ast.MemberExpression, delta float64, prefix bool, line int) error {
	objSlot := c.declareLocal("$obj")
	keySlot := c.declareLocal("$key")
	if err := c.compileExpression(target.Object); err != nil {
		return err
	}
	c.emitAB(StoreLocal, 0, uint16(objSlot), line)
	if err := c.compileMemberKey(target); err != nil {
		return err
	}
	c.emitAB(StoreLocal, 0, uint16(keySlot), line)

	c.emitAB(LoadLocal, 0, uint16(objSlot), line)
	c.emitAB(LoadLocal, 0, uint16(keySlot), line)
	c.emit(LoadProperty, line)

	valSlot := c.declareLocal("$val")
	c.emitAB(StoreLocal, 0, uint16(valSlot), line)
	c.emitAB(LoadLocal, 0, uint16(valSlot), line)
	c.emitConst(value.Num(delta), line)
	c.emit(Add, line)
	updatedSlot := c.declareLocal("$updated")
	c.emitAB(StoreLocal, 0, uint16(updatedSlot), line)

	c.emitAB(LoadLocal, 0, uint16(objSlot), line)
	c.emitAB(LoadLocal, 0, uint16(keySlot), line)
	c.emitAB(LoadLocal, 0, uint16(updatedSlot), line)
	c.emit(StoreProperty, line)

	if prefix {
		c.emitAB(LoadLocal, 0, uint16(updatedSlot), line)
	} else {
		c.emitAB(LoadLocal, 0, uint16(valSlot), line)
	}
	return nil
}

func (c *Compiler) compileMemberKey(m *ast.MemberExpression) error {
	line := lineOf(m)
	if m.Computed {
		return c.compileExpression(m.Property)
	}
	id, ok := m.Property.(*ast.Identifier)
	if !ok {
		return c.errorf(line, "non-computed member property must be an identifier")
	}
	c.emitConst(value.Str(id.Name), line)
	return nil
}

func (c *Compiler) compileMemberLoad(m *ast.MemberExpression) error {
	if _, ok := m.Object.(*ast.SuperExpression); ok {
		return c.compileSuperMemberLoad(m)
	}
	if err := c.compileExpression(m.Object); err != nil {
		return err
	}
	if err := c.compileMemberKey(m); err != nil {
		return err
	}
	c.emit(LoadProperty, lineOf(m))
	return nil
}

// compileSuperMemberLoad reads a property off the enclosing method's home
// object's prototype rather than off `this`, which is how `super.prop`
// reaches the base class's implementation even when `this` is overridden
// by a derived class.
func (c *Compiler) compileSuperMemberLoad(m *ast.MemberExpression) error {
	line := lineOf(m)
	if err := c.compileIdentifierLoad("$superProto", line); err != nil {
		return err
	}
	if err := c.compileMemberKey(m); err != nil {
		return err
	}
	c.emit(LoadProperty, line)
	return nil
}

func (c *Compiler) compileConditionalExpression(e *ast.ConditionalExpression) error {
	line := lineOf(e)
	if err := c.compileExpression(e.Test); err != nil {
		return err
	}
	elseJump := c.emitJump(JumpIfFalse, line)
	if err := c.compileExpression(e.Consequent); err != nil {
		return err
	}
	endJump := c.emitJump(Jump, line)
	c.chunk.PatchJump(elseJump)
	if err := c.compileExpression(e.Alternate); err != nil {
		return err
	}
	c.chunk.PatchJump(endJump)
	return nil
}

func (c *Compiler) compileCallExpression(call *ast.CallExpression) error {
	line := lineOf(call)
	if sup, ok := call.Callee.(*ast.SuperExpression); ok {
		return c.compileSuperCall(sup, call.Arguments)
	}
	if m, ok := call.Callee.(*ast.MemberExpression); ok {
		return c.compileMethodCall(m, call.Arguments, line)
	}
	if err := c.compileExpression(call.Callee); err != nil {
		return err
	}
	argc, err := c.compileArguments(call.Arguments)
	if err != nil {
		return err
	}
	c.emit(LoadUndefined, line) // `this` for a non-method call
	c.emitAB(Call, byte(argc), 0, line)
	return nil
}

// compileMethodCall evaluates the receiver once into a synthetic local, then
// reloads it twice: once to resolve the method off it, once to push as
// `this` after the arguments, matching Call's [callee, ...args, this] layout.
func (c *Compiler) compileMethodCall(m *ast.MemberExpression, args []ast.Expression, line int) error {
	if _, ok := m.Object.(*ast.SuperExpression); ok {
		return c.compileSuperMethodCall(m, args, line)
	}
	recvSlot := c.declareLocal("$recv")
	if err := c.compileExpression(m.Object); err != nil {
		return err
	}
	c.emitAB(StoreLocal, 0, uint16(recvSlot), line)

	c.emitAB(LoadLocal, 0, uint16(recvSlot), line)
	if err := c.compileMemberKey(m); err != nil {
		return err
	}
	c.emit(LoadProperty, line)

	argc, err := c.compileArguments(args)
	if err != nil {
		return err
	}
	c.emitAB(LoadLocal, 0, uint16(recvSlot), line)
	c.emitAB(Call, byte(argc), 0, line)
	return nil
}

// compileSuperMethodCall resolves the method off the home object's
// prototype (like compileSuperMemberLoad) but still passes the current
// `this` as the receiver, since super.method() runs with the derived
// instance bound to `this`.
func (c *Compiler) compileSuperMethodCall(m *ast.MemberExpression, args []ast.Expression, line int) error {
	if err := c.compileIdentifierLoad("$superProto", line); err != nil {
		return err
	}
	if err := c.compileMemberKey(m); err != nil {
		return err
	}
	c.emit(LoadProperty, line)

	argc, err := c.compileArguments(args)
	if err != nil {
		return err
	}
	c.emit(LoadThis, line)
	c.emitAB(Call, byte(argc), 0, line)
	return nil
}

func (c *Compiler) compileArguments(args []ast.Expression) (int, error) {
	for _, a := range args {
		if sp, ok := a.(*ast.SpreadElement); ok {
			if err := c.compileExpression(sp.Expression); err != nil {
				return 0, err
			}
			c.emit(Spread, lineOf(sp))
			continue
		}
		if err := c.compileExpression(a); err != nil {
			return 0, err
		}
	}
	return len(args), nil
}

func (c *Compiler) compileSuperCall(sup *ast.SuperExpression, args []ast.Expression) error {
	line := lineOf(sup)
	if err := c.compileIdentifierLoad("$superCtor", line); err != nil {
		return err
	}
	argc, err := c.compileArguments(args)
	if err != nil {
		return err
	}
	c.emit(LoadThis, line)
	c.emitAB(Call, byte(argc), 0, line)
	return nil
}

func (c *Compiler) compileNewExpression(n *ast.NewExpression) error {
	line := lineOf(n)
	if err := c.compileExpression(n.Callee); err != nil {
		return err
	}
	argc, err := c.compileArguments(n.Arguments)
	if err != nil {
		return err
	}
	c.emitAB(New, byte(argc), 0, line)
	return nil
}

// compileAssignmentExpression handles `=`, the arithmetic/bitwise compound
// operators (desugared to a load, operate, store sequence), and the logical
// compound operators (which short-circuit the right-hand side the same way
// `&&`/`||`/`??` do, per compileLogicalExpression).
func (c *Compiler) compileAssignmentExpression(a *ast.AssignmentExpression) error {
	line := lineOf(a)
	if a.Operator == "=" {
		return c.compileSimpleAssignment(a.Target, a.Value, line)
	}
	if op, ok := logicalAssignOps[a.Operator]; ok {
		return c.compileLogicalAssignment(a, op, line)
	}
	op, ok := binaryOps[strings.TrimSuffix(a.Operator, "=")]
	if !ok {
		return c.errorf(line, "unsupported assignment operator %q", a.Operator)
	}
	return c.compileCompoundAssignment(a, op, line)
}

var logicalAssignOps = map[string]string{
	"&&=": "&&",
	"||=": "||",
	"??=": "??",
}

func (c *Compiler) compileSimpleAssignment(target ast.Expression, valueExpr ast.Expression, line int) error {
	switch t := target.(type) {
	case *ast.Identifier:
		if err := c.compileExpression(valueExpr); err != nil {
			return err
		}
		c.emit(Dup, line)
		c.compileIdentifierStore(t.Name, line)
		return nil
	case *ast.MemberExpression:
		objSlot := c.declareLocal("$obj")
		keySlot := c.declareLocal("$key")
		if err := c.compileExpression(t.Object); err != nil {
			return err
		}
		c.emitAB(StoreLocal, 0, uint16(objSlot), line)
		if err := c.compileMemberKey(t); err != nil {
			return err
		}
		c.emitAB(StoreLocal, 0, uint16(keySlot), line)

		if err := c.compileExpression(valueExpr); err != nil {
			return err
		}
		valSlot := c.declareLocal("$val")
		c.emitAB(StoreLocal, 0, uint16(valSlot), line)

		c.emitAB(LoadLocal, 0, uint16(objSlot), line)
		c.emitAB(LoadLocal, 0, uint16(keySlot), line)
		c.emitAB(LoadLocal, 0, uint16(valSlot), line)
		c.emit(StoreProperty, line)
		c.emitAB(LoadLocal, 0, uint16(valSlot), line)
		return nil
	case *ast.ObjectPattern, *ast.ArrayPattern:
		if err := c.compileExpression(valueExpr); err != nil {
			return err
		}
		srcSlot := c.declareLocal("$destr")
		c.emitAB(StoreLocal, 0, uint16(srcSlot), line)
		if err := c.compileDestructureAssign(target, srcSlot, line); err != nil {
			return err
		}
		c.emitAB(LoadLocal, 0, uint16(srcSlot), line)
		return nil
	default:
		return c.errorf(line, "invalid assignment target %T", target)
	}
}

// compileCompoundAssignment desugars `target op= value` into a load of
// target, compile of value, the binary op, and a store, reusing the same
// object/key-stashing approach as compileSimpleAssignment for member targets
// so the target is only evaluated once.
func (c *Compiler) compileCompoundAssignment(a *ast.AssignmentExpression, op OpCode, line int) error {
	switch t := a.Target.(type) {
	case *ast.Identifier:
		if err := c.compileIdentifierLoad(t.Name, line); err != nil {
			return err
		}
		if err := c.compileExpression(a.Value); err != nil {
			return err
		}
		c.emit(op, line)
		c.emit(Dup, line)
		c.compileIdentifierStore(t.Name, line)
		return nil
	case *ast.MemberExpression:
		objSlot := c.declareLocal("$obj")
		keySlot := c.declareLocal("$key")
		if err := c.compileExpression(t.Object); err != nil {
			return err
		}
		c.emitAB(StoreLocal, 0, uint16(objSlot), line)
		if err := c.compileMemberKey(t); err != nil {
			return err
		}
		c.emitAB(StoreLocal, 0, uint16(keySlot), line)

		c.emitAB(LoadLocal, 0, uint16(objSlot), line)
		c.emitAB(LoadLocal, 0, uint16(keySlot), line)
		c.emit(LoadProperty, line)
		if err := c.compileExpression(a.Value); err != nil {
			return err
		}
		c.emit(op, line)

		valSlot := c.declareLocal("$val")
		c.emitAB(StoreLocal, 0, uint16(valSlot), line)
		c.emitAB(LoadLocal, 0, uint16(objSlot), line)
		c.emitAB(LoadLocal, 0, uint16(keySlot), line)
		c.emitAB(LoadLocal, 0, uint16(valSlot), line)
		c.emit(StoreProperty, line)
		c.emitAB(LoadLocal, 0, uint16(valSlot), line)
		return nil
	default:
		return c.errorf(line, "invalid compound assignment target %T", a.Target)
	}
}

// compileLogicalAssignment implements &&=/||=/??=, which must not evaluate
// (or store) the right-hand side at all when the left short-circuits.
func (c *Compiler) compileLogicalAssignment(a *ast.AssignmentExpression, logicalOp string, line int) error {
	switch t := a.Target.(type) {
	case *ast.Identifier:
		if err := c.compileIdentifierLoad(t.Name, line); err != nil {
			return err
		}
	case *ast.MemberExpression:
		objSlot := c.declareLocal("$obj")
		keySlot := c.declareLocal("$key")
		if err := c.compileExpression(t.Object); err != nil {
			return err
		}
		c.emitAB(StoreLocal, 0, uint16(objSlot), line)
		if err := c.compileMemberKey(t); err != nil {
			return err
		}
		c.emitAB(StoreLocal, 0, uint16(keySlot), line)
		c.emitAB(LoadLocal, 0, uint16(objSlot), line)
		c.emitAB(LoadLocal, 0, uint16(keySlot), line)
		c.emit(LoadProperty, line)
		valSlot := c.declareLocal("$lval")
		return c.finishLogicalAssignment(logicalOp, func(line int) {
			c.emitAB(StoreLocal, 0, uint16(valSlot), line)
			c.emitAB(LoadLocal, 0, uint16(objSlot), line)
			c.emitAB(LoadLocal, 0, uint16(keySlot), line)
			c.emitAB(LoadLocal, 0, uint16(valSlot), line)
			c.emit(StoreProperty, line)
			c.emitAB(LoadLocal, 0, uint16(valSlot), line)
		}, a.Value, line)
	default:
		return c.errorf(line, "invalid compound assignment target %T", a.Target)
	}

	return c.finishLogicalAssignment(logicalOp, func(line int) {
		c.emit(Dup, line)
		c.compileIdentifierStore(identifierName(a.Target), line)
	}, a.Value, line)
}

func identifierName(e ast.Expression) string {
	id, _ := e.(*ast.Identifier)
	if id == nil {
		return ""
	}
	return id.Name
}

// finishLogicalAssignment expects the current target value on the stack. It
// tests it the way the matching logical operator would, and on the
// short-circuit path leaves that value as the result; otherwise it computes
// the right-hand side and runs store (passed target-specific) on it, also
// leaving the stored value as the result.
func (c *Compiler) finishLogicalAssignment(logicalOp string, store func(line int), valueExpr ast.Expression, line int) error {
	tmpSlot := c.declareLocal("$lhs")
	c.emitAB(StoreLocal, 0, uint16(tmpSlot), line)

	var skipJump int
	switch logicalOp {
	case "&&":
		c.emitAB(LoadLocal, 0, uint16(tmpSlot), line)
		skipJump = c.emitJump(JumpIfFalse, line)
	case "||":
		c.emitAB(LoadLocal, 0, uint16(tmpSlot), line)
		skipJump = c.emitJump(JumpIfTrue, line)
	case "??":
		c.emitAB(LoadLocal, 0, uint16(tmpSlot), line)
		undefJump := c.emitJump(JumpIfUndefined, line)
		c.emitAB(LoadLocal, 0, uint16(tmpSlot), line)
		nullJump := c.emitJump(JumpIfNull, line)
		skip := c.emitJump(Jump, line)
		c.chunk.PatchJump(undefJump)
		c.chunk.PatchJump(nullJump)
		if err := c.compileExpression(valueExpr); err != nil {
			return err
		}
		store(line)
		end := c.emitJump(Jump, line)
		c.chunk.PatchJump(skip)
		c.emitAB(LoadLocal, 0, uint16(tmpSlot), line)
		c.chunk.PatchJump(end)
		return nil
	default:
		return c.errorf(line, "unsupported logical assignment operator %q", logicalOp)
	}

	if err := c.compileExpression(valueExpr); err != nil {
		return err
	}
	store(line)
	end := c.emitJump(Jump, line)
	c.chunk.PatchJump(skipJump)
	c.emitAB(LoadLocal, 0, uint16(tmpSlot), line)
	c.chunk.PatchJump(end)
	return nil
}

// compileDestructureAssign expects srcSlot to already hold the value being
// destructured. It assigns each target named by pattern, consuming nothing
// further off the operand stack (every read comes from srcSlot).
func (c *Compiler) compileDestructureAssign(pattern ast.Expression, srcSlot int, line int) error {
	switch p := pattern.(type) {
	case *ast.ObjectPattern:
		return c.compileObjectPatternAssign(p, srcSlot, line)
	case *ast.ArrayPattern:
		return c.compileArrayPatternAssign(p, srcSlot, line)
	default:
		return c.errorf(line, "unsupported destructuring target %T", pattern)
	}
}

func (c *Compiler) compileObjectPatternAssign(p *ast.ObjectPattern, srcSlot int, line int) error {
	seen := make([]string, 0, len(p.Properties))
	for _, prop := range p.Properties {
		propLine := lineOf(prop.Key)
		if prop.Rest {
			restSlot := c.declareLocal("$rest")
			c.emitAB(NewObject, 0, 0, propLine)
			c.emitAB(StoreLocal, 0, uint16(restSlot), propLine)

			cursorSlot := c.declareLocal("$cursor")
			keySlot := c.declareLocal("$key")
			c.emitAB(LoadLocal, 0, uint16(srcSlot), propLine)
			c.emit(ForInStart, propLine)
			c.emitAB(StoreLocal, 0, uint16(cursorSlot), propLine)

			loopStart := c.chunk.here()
			c.emitAB(LoadLocal, 0, uint16(cursorSlot), propLine)
			c.emit(ForInNext, propLine)
			doneJump := c.emitJump(JumpIfTrue, propLine)
			c.emitAB(StoreLocal, 0, uint16(keySlot), propLine)

			skipJumps := make([]int, 0, len(seen))
			for _, already := range seen {
				c.emitAB(LoadLocal, 0, uint16(keySlot), propLine)
				c.emitConst(value.Str(already), propLine)
				c.emit(StrictEq, propLine)
				skipJumps = append(skipJumps, c.emitJump(JumpIfTrue, propLine))
			}
			c.emitAB(LoadLocal, 0, uint16(restSlot), propLine)
			c.emitAB(LoadLocal, 0, uint16(keySlot), propLine)
			c.emitAB(LoadLocal, 0, uint16(srcSlot), propLine)
			c.emitAB(LoadLocal, 0, uint16(keySlot), propLine)
			c.emit(LoadProperty, propLine)
			c.emit(StoreProperty, propLine)
			for _, sj := range skipJumps {
				c.chunk.PatchJumpTo(sj, c.chunk.here())
			}
			c.emitAB(Jump, 0, uint16(loopStart), propLine)

			c.chunk.PatchJump(doneJump)
			c.emit(Pop, propLine)

			c.emitAB(LoadLocal, 0, uint16(restSlot), propLine)
			if err := c.assignTopOfStack(prop.Value, propLine); err != nil {
				return err
			}
			continue
		}

		var keyName string
		switch k := prop.Key.(type) {
		case *ast.Identifier:
			keyName = k.Name
			c.emitConst(value.Str(keyName), propLine)
		case *ast.StringLiteral:
			keyName = k.Value
			c.emitConst(value.Str(keyName), propLine)
		default:
			if err := c.compileExpression(prop.Key); err != nil {
				return err
			}
		}
		if keyName != "" {
			seen = append(seen, keyName)
		}
		keySlot := c.declareLocal("$pkey")
		c.emitAB(StoreLocal, 0, uint16(keySlot), propLine)

		c.emitAB(LoadLocal, 0, uint16(srcSlot), propLine)
		c.emitAB(LoadLocal, 0, uint16(keySlot), propLine)
		c.emit(LoadProperty, propLine)

		if prop.Default != nil {
			valSlot := c.declareLocal("$pval")
			c.emitAB(StoreLocal, 0, uint16(valSlot), propLine)
			c.emitAB(LoadLocal, 0, uint16(valSlot), propLine)
			jump := c.emitJump(JumpIfUndefined, propLine)
			c.emitAB(LoadLocal, 0, uint16(valSlot), propLine)
			end := c.emitJump(Jump, propLine)
			c.chunk.PatchJump(jump)
			if err := c.compileExpression(prop.Default); err != nil {
				return err
			}
			c.chunk.PatchJump(end)
		}

		target := prop.Value
		if target == nil {
			target = prop.Key
		}
		if err := c.assignTopOfStack(target, propLine); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileArrayPatternAssign(p *ast.ArrayPattern, srcSlot int, line int) error {
	iterSlot := c.declareLocal("$piter")
	c.emitAB(LoadLocal, 0, uint16(srcSlot), line)
	c.emit(GetIterator, line)
	c.emitAB(StoreLocal, 0, uint16(iterSlot), line)

	for _, el := range p.Elements {
		elLine := lineOf(el)
		if elLine == 0 {
			elLine = line
		}
		c.emitAB(LoadLocal, 0, uint16(iterSlot), elLine)
		c.emit(IteratorNext, elLine)
		doneJump := c.emitJump(JumpIfTrue, elLine)
		notDone := c.emitJump(Jump, elLine)
		c.chunk.PatchJump(doneJump)
		c.emit(Pop, elLine) // discard the exhausted iterator's leftover placeholder value
		c.emit(LoadUndefined, elLine)
		c.chunk.PatchJump(notDone)

		if el == nil {
			c.emit(Pop, elLine)
			continue
		}

		target := el
		var defaultExpr ast.Expression
		if ap, ok := el.(*ast.AssignmentPattern); ok {
			target = ap.Target
			defaultExpr = ap.Default
		}
		if defaultExpr != nil {
			valSlot := c.declareLocal("$aval")
			c.emitAB(StoreLocal, 0, uint16(valSlot), elLine)
			c.emitAB(LoadLocal, 0, uint16(valSlot), elLine)
			jump := c.emitJump(JumpIfUndefined, elLine)
			c.emitAB(LoadLocal, 0, uint16(valSlot), elLine)
			end := c.emitJump(Jump, elLine)
			c.chunk.PatchJump(jump)
			if err := c.compileExpression(defaultExpr); err != nil {
				return err
			}
			c.chunk.PatchJump(end)
		}
		if err := c.assignTopOfStack(target, elLine); err != nil {
			return err
		}
	}

	if p.Rest != nil {
		restSlot := c.declareLocal("$arest")
		restIdx := c.declareLocal("$aridx")
		c.emitAB(NewArray, 0, 0, line)
		c.emitAB(StoreLocal, 0, uint16(restSlot), line)
		c.emitConst(value.Num(0), line)
		c.emitAB(StoreLocal, 0, uint16(restIdx), line)

		loopStart := c.chunk.here()
		c.emitAB(LoadLocal, 0, uint16(iterSlot), line)
		c.emit(IteratorNext, line)
		doneJump := c.emitJump(JumpIfTrue, line)
		tmpSlot := c.declareLocal("$artmp")
		c.emitAB(StoreLocal, 0, uint16(tmpSlot), line)
		if err := c.appendArrayElement(restSlot, restIdx, func() error {
			c.emitAB(LoadLocal, 0, uint16(tmpSlot), line)
			return nil
		}, line); err != nil {
			return err
		}
		c.emitAB(Jump, 0, uint16(loopStart), line)
		c.chunk.PatchJump(doneJump)
		c.emit(Pop, line)

		c.emitAB(LoadLocal, 0, uint16(restSlot), line)
		if err := c.assignTopOfStack(p.Rest, line); err != nil {
			return err
		}
	}
	return nil
}

// assignTopOfStack stores the value on top of the stack into target, which
// may itself be a nested destructuring pattern.
func (c *Compiler) assignTopOfStack(target ast.Expression, line int) error {
	switch t := target.(type) {
	case *ast.Identifier:
		c.compileIdentifierStore(t.Name, line)
		return nil
	case *ast.MemberExpression:
		objSlot := c.declareLocal("$obj")
		keySlot := c.declareLocal("$key")
		valSlot := c.declareLocal("$val")
		c.emitAB(StoreLocal, 0, uint16(valSlot), line)
		if err := c.compileExpression(t.Object); err != nil {
			return err
		}
		c.emitAB(StoreLocal, 0, uint16(objSlot), line)
		if err := c.compileMemberKey(t); err != nil {
			return err
		}
		c.emitAB(StoreLocal, 0, uint16(keySlot), line)
		c.emitAB(LoadLocal, 0, uint16(objSlot), line)
		c.emitAB(LoadLocal, 0, uint16(keySlot), line)
		c.emitAB(LoadLocal, 0, uint16(valSlot), line)
		c.emit(StoreProperty, line)
		return nil
	case *ast.ObjectPattern, *ast.ArrayPattern:
		srcSlot := c.declareLocal("$nested")
		c.emitAB(StoreLocal, 0, uint16(srcSlot), line)
		return c.compileDestructureAssign(target, srcSlot, line)
	default:
		return c.errorf(line, "unsupported assignment target %T", target)
	}
}
