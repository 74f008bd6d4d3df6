package bytecode

import (
	"github.com/ecmago/engine/internal/ast"
	"github.com/ecmago/engine/internal/value"
)

// compileClassLiteral lowers a class body to a ClassInfo plus the
// constructor/method/field FunctionInfos it references, and emits the
// NewClass instruction that materializes the runtime constructor. When the
// class extends a superclass, `$superCtor`/`$superProto` are declared as
// locals of the enclosing scope right before any member compiles, so every
// method captures them as upvalues the same way compileSuperCall and
// compileSuperMemberLoad already assume.
func (c *Compiler) compileClassLiteral(cls *ast.ClassLiteral) error {
	line := lineOf(cls)
	hasSuper := cls.SuperClass != nil

	if hasSuper {
		if err := c.compileExpression(cls.SuperClass); err != nil {
			return err
		}
		superCtorSlot := c.declareLocal("$superCtor")
		c.emitAB(StoreLocal, 0, uint16(superCtorSlot), line)
		c.emitAB(LoadLocal, 0, uint16(superCtorSlot), line)
		c.emitConst(value.Str("prototype"), line)
		c.emit(LoadProperty, line)
		superProtoSlot := c.declareLocal("$superProto")
		c.emitAB(StoreLocal, 0, uint16(superProtoSlot), line)
	}

	var instanceFields []*ast.ClassMember
	var methods []MethodInfo
	var fields []FieldInfo

	for _, m := range cls.Members {
		switch m.Kind {
		case "field":
			if m.Static {
				idx, err := c.compileFieldInitializerFunction(m)
				if err != nil {
					return err
				}
				fields = append(fields, FieldInfo{Name: classMemberName(m), Static: true, FuncIndex: idx})
			} else {
				instanceFields = append(instanceFields, m)
			}
		case "static-block":
			block, _ := m.Value.(*ast.BlockStatement)
			idx, err := c.compileStaticBlockFunction(block)
			if err != nil {
				return err
			}
			fields = append(fields, FieldInfo{Name: "", Static: true, FuncIndex: idx})
		case "method", "get", "set":
			fn, ok := m.Value.(*ast.FunctionLiteral)
			if !ok {
				return c.errorf(line, "class method member must carry a function body")
			}
			idx, err := c.compileFunctionLiteral(fn)
			if err != nil {
				return err
			}
			methods = append(methods, MethodInfo{Name: classMemberName(m), FuncIndex: idx, Kind: m.Kind, Static: m.Static})
		case "constructor":
			// handled below via compileConstructor, which looks Members back up.
		default:
			return c.errorf(line, "unsupported class member kind %q", m.Kind)
		}
	}

	ctorIndex, err := c.compileConstructor(cls, hasSuper, instanceFields)
	if err != nil {
		return err
	}

	name := ""
	if cls.Name != nil {
		name = cls.Name.Name
	}
	classIdx := len(c.program.Classes)
	c.program.Classes = append(c.program.Classes, ClassInfo{
		Name: name, CtorIndex: ctorIndex, Methods: methods, Fields: fields, HasSuper: hasSuper,
	})

	if hasSuper {
		c.emitAB(LoadLocal, 0, uint16(mustResolveLocal(c, "$superCtor")), line)
	} else {
		c.emit(LoadUndefined, line)
	}
	c.emitAB(NewClass, 0, uint16(classIdx), line)
	return nil
}

func mustResolveLocal(c *Compiler, name string) int {
	slot, _ := c.resolveLocal(name)
	return slot
}

// classMemberName resolves a (non-computed, non-private) member key to its
// property name; computed keys are not supported for methods/fields since
// the name must be known at compile time to populate MethodInfo/FieldInfo.
func classMemberName(m *ast.ClassMember) string {
	prefix := ""
	if m.Private {
		prefix = "#"
	}
	switch k := m.Key.(type) {
	case *ast.Identifier:
		return prefix + k.Name
	case *ast.StringLiteral:
		return prefix + k.Value
	default:
		return ""
	}
}

// compileFieldInitializerFunction compiles a static field's initializer as
// a zero-argument function the VM invokes once, immediately after NewClass
// builds the constructor, with `this` bound to the constructor itself.
func (c *Compiler) compileFieldInitializerFunction(m *ast.ClassMember) (int, error) {
	child := c.newChildCompiler(false)
	child.beginScope()
	line := lineOf(m.Key)
	if expr, ok := m.Value.(ast.Expression); ok && expr != nil {
		if err := child.compileExpression(expr); err != nil {
			return 0, err
		}
	} else {
		child.emit(LoadUndefined, line)
	}
	child.emitAB(Return, 1, 0, line)
	idx := len(c.program.Functions)
	c.program.Functions = append(c.program.Functions, FunctionInfo{
		Name: "static field initializer", Upvalues: child.upvalues, Chunk: child.chunk,
	})
	return idx, nil
}

func (c *Compiler) compileStaticBlockFunction(block *ast.BlockStatement) (int, error) {
	child := c.newChildCompiler(false)
	child.beginScope()
	if err := child.hoistAndCompileBody(block.Statements); err != nil {
		return 0, err
	}
	line := lineOf(block)
	child.emit(LoadUndefined, line)
	child.emitAB(Return, 1, 0, line)
	idx := len(c.program.Functions)
	c.program.Functions = append(c.program.Functions, FunctionInfo{
		Name: "static block", Upvalues: child.upvalues, Chunk: child.chunk,
	})
	return idx, nil
}

// compileFieldInit emits `this.<name> = <initializer>` for one instance
// field, run at the start of every constructor invocation (see
// compileConstructor) rather than once at class-definition time.
func (c *Compiler) compileFieldInit(f *ast.ClassMember) error {
	line := lineOf(f.Key)
	c.emit(LoadThis, line)
	c.emitConst(value.Str(classMemberName(f)), line)
	if expr, ok := f.Value.(ast.Expression); ok && expr != nil {
		if err := c.compileExpression(expr); err != nil {
			return err
		}
	} else {
		c.emit(LoadUndefined, line)
	}
	c.emit(StoreProperty, line)
	return nil
}

// compileConstructor compiles the class's constructor body: an explicit
// `constructor(...)` member if present, otherwise a synthesized default
// that forwards every argument to `super` for a derived class or does
// nothing for a base one. Instance field initializers run before an
// explicit constructor body (and so before any super() call inside it);
// in a synthesized derived constructor they run after the forwarded super
// call.
func (c *Compiler) compileConstructor(cls *ast.ClassLiteral, hasSuper bool, instanceFields []*ast.ClassMember) (int, error) {
	var ctorLit *ast.FunctionLiteral
	for _, m := range cls.Members {
		if m.Kind == "constructor" {
			if fn, ok := m.Value.(*ast.FunctionLiteral); ok {
				ctorLit = fn
			}
		}
	}

	child := c.newChildCompiler(false)
	child.beginScope()
	line := lineOf(cls)

	var params []*ast.Param
	if ctorLit != nil {
		params = ctorLit.Params
	} else if hasSuper {
		params = []*ast.Param{{Pattern: &ast.Identifier{Name: "$args"}, Rest: true}}
	}
	for _, p := range params {
		if err := child.declareParam(p, line); err != nil {
			return 0, err
		}
	}

	if ctorLit == nil && hasSuper {
		if err := child.compileIdentifierLoad("$superCtor", line); err != nil {
			return 0, err
		}
		if err := child.compileIdentifierLoad("$args", line); err != nil {
			return 0, err
		}
		child.emit(Spread, line)
		child.emit(LoadThis, line)
		child.emitAB(Call, 1, 0, line)
		child.emit(Pop, line)
	}

	for _, f := range instanceFields {
		if err := child.compileFieldInit(f); err != nil {
			return 0, err
		}
	}

	if ctorLit != nil {
		if err := child.hoistAndCompileBody(ctorLit.Body.Statements); err != nil {
			return 0, err
		}
	}
	child.emit(LoadUndefined, line)
	child.emitAB(Return, 1, 0, line)

	hasRest := len(params) > 0 && params[len(params)-1].Rest
	idx := len(c.program.Functions)
	c.program.Functions = append(c.program.Functions, FunctionInfo{
		Name: "constructor", ParamCount: len(params), HasRest: hasRest,
		Upvalues: child.upvalues, Chunk: child.chunk,
	})
	return idx, nil
}

// compileClassDeclaration binds the class name before the body compiles so
// methods can refer to the class by name (the common static-access idiom).
func (c *Compiler) compileClassDeclaration(stmt *ast.ClassDeclaration) error {
	line := lineOf(stmt)
	slot := c.declareLocal(stmt.Class.Name.Name)
	if err := c.compileClassLiteral(stmt.Class); err != nil {
		return err
	}
	c.emitAB(StoreLocal, 0, uint16(slot), line)
	return nil
}

func (c *Compiler) compileClassExpression(cls *ast.ClassLiteral) error {
	return c.compileClassLiteral(cls)
}
