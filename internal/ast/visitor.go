package ast

// Visitor is implemented by callers of Walk. If Visit returns a non-nil
// Visitor, Walk continues into the node's children using that returned
// visitor; returning nil halts descent into the current node's children.
// This mirrors go/ast.Visitor rather than the original engine's one-method-
// per-node-kind double dispatch, since a single type switch is the
// idiomatic Go shape for this job.
type Visitor interface {
	Visit(node Node) Visitor
}

// Walk traverses the AST rooted at node in source order, calling v.Visit
// for node and recursively for each of its children.
func Walk(v Visitor, node Node) {
	if node == nil {
		return
	}
	v = v.Visit(node)
	if v == nil {
		return
	}

	switch n := node.(type) {
	case *Program:
		for _, s := range n.Statements {
			Walk(v, s)
		}

	case *Identifier, *NumberLiteral, *BigIntLiteral, *StringLiteral,
		*BooleanLiteral, *NullLiteral, *UndefinedLiteral, *RegExpLiteral,
		*ThisExpression, *SuperExpression, *NewTargetExpression,
		*EmptyStatement, *DebuggerStatement:
		// leaf nodes, no children

	case *TemplateLiteral:
		for _, e := range n.Expressions {
			Walk(v, e)
		}

	case *ArrayLiteral:
		for _, e := range n.Elements {
			if e != nil {
				Walk(v, e)
			}
		}

	case *ObjectLiteral:
		for _, p := range n.Properties {
			if p.Computed || !p.Shorthand {
				Walk(v, p.Key)
			}
			if p.Value != nil {
				Walk(v, p.Value)
			}
		}

	case *SpreadElement:
		Walk(v, n.Expression)

	case *BinaryExpression:
		Walk(v, n.Left)
		Walk(v, n.Right)

	case *LogicalExpression:
		Walk(v, n.Left)
		Walk(v, n.Right)

	case *UnaryExpression:
		Walk(v, n.Operand)

	case *UpdateExpression:
		Walk(v, n.Operand)

	case *AssignmentExpression:
		Walk(v, n.Target)
		Walk(v, n.Value)

	case *ConditionalExpression:
		Walk(v, n.Test)
		Walk(v, n.Consequent)
		Walk(v, n.Alternate)

	case *SequenceExpression:
		for _, e := range n.Expressions {
			Walk(v, e)
		}

	case *MemberExpression:
		Walk(v, n.Object)
		Walk(v, n.Property)

	case *CallExpression:
		Walk(v, n.Callee)
		for _, a := range n.Arguments {
			Walk(v, a)
		}

	case *NewExpression:
		Walk(v, n.Callee)
		for _, a := range n.Arguments {
			Walk(v, a)
		}

	case *FunctionLiteral:
		if n.Name != nil {
			Walk(v, n.Name)
		}
		for _, p := range n.Params {
			Walk(v, p.Pattern)
			if p.Default != nil {
				Walk(v, p.Default)
			}
		}
		if n.Body != nil {
			Walk(v, n.Body)
		}
		if n.ExprBody != nil {
			Walk(v, n.ExprBody)
		}

	case *ClassLiteral:
		if n.Name != nil {
			Walk(v, n.Name)
		}
		if n.SuperClass != nil {
			Walk(v, n.SuperClass)
		}
		for _, m := range n.Members {
			if m.Computed {
				Walk(v, m.Key)
			}
			if m.Value != nil {
				Walk(v, m.Value)
			}
		}

	case *ObjectPattern:
		for _, p := range n.Properties {
			if p.Computed {
				Walk(v, p.Key)
			}
			if p.Value != nil {
				Walk(v, p.Value)
			}
			if p.Default != nil {
				Walk(v, p.Default)
			}
		}

	case *ArrayPattern:
		for _, e := range n.Elements {
			if e != nil {
				Walk(v, e)
			}
		}
		if n.Rest != nil {
			Walk(v, n.Rest)
		}

	case *AssignmentPattern:
		Walk(v, n.Target)
		Walk(v, n.Default)

	case *ExpressionStatement:
		Walk(v, n.Expression)

	case *BlockStatement:
		for _, s := range n.Statements {
			Walk(v, s)
		}

	case *VariableDeclaration:
		for _, d := range n.Declarations {
			Walk(v, d.Target)
			if d.Init != nil {
				Walk(v, d.Init)
			}
		}

	case *FunctionDeclaration:
		Walk(v, n.Function)

	case *ClassDeclaration:
		Walk(v, n.Class)

	case *ReturnStatement:
		if n.Value != nil {
			Walk(v, n.Value)
		}

	case *IfStatement:
		Walk(v, n.Test)
		Walk(v, n.Consequent)
		if n.Alternate != nil {
			Walk(v, n.Alternate)
		}

	case *ForStatement:
		if n.Init != nil {
			Walk(v, n.Init)
		}
		if n.Test != nil {
			Walk(v, n.Test)
		}
		if n.Update != nil {
			Walk(v, n.Update)
		}
		Walk(v, n.Body)

	case *ForInStatement:
		Walk(v, n.Left)
		Walk(v, n.Right)
		Walk(v, n.Body)

	case *ForOfStatement:
		Walk(v, n.Left)
		Walk(v, n.Right)
		Walk(v, n.Body)

	case *WhileStatement:
		Walk(v, n.Test)
		Walk(v, n.Body)

	case *DoWhileStatement:
		Walk(v, n.Body)
		Walk(v, n.Test)

	case *BreakStatement:
		if n.Label != nil {
			Walk(v, n.Label)
		}

	case *ContinueStatement:
		if n.Label != nil {
			Walk(v, n.Label)
		}

	case *LabeledStatement:
		Walk(v, n.Label)
		Walk(v, n.Body)

	case *SwitchStatement:
		Walk(v, n.Discriminant)
		for _, c := range n.Cases {
			if c.Test != nil {
				Walk(v, c.Test)
			}
			for _, s := range c.Consequent {
				Walk(v, s)
			}
		}

	case *ThrowStatement:
		Walk(v, n.Value)

	case *TryStatement:
		Walk(v, n.Block)
		if n.Catch != nil {
			if n.Catch.Param != nil {
				Walk(v, n.Catch.Param)
			}
			Walk(v, n.Catch.Body)
		}
		if n.Finally != nil {
			Walk(v, n.Finally)
		}

	case *ImportDeclaration:
		for _, s := range n.Specifiers {
			if s.Imported != nil {
				Walk(v, s.Imported)
			}
			Walk(v, s.Local)
		}

	case *ExportDeclaration:
		if n.Declaration != nil {
			Walk(v, n.Declaration)
		}
		if n.Expression != nil {
			Walk(v, n.Expression)
		}

	default:
		panic("ast.Walk: unexpected node type")
	}
}

// inspector adapts a plain function into a Visitor, the same convenience
// go/ast.Inspect provides.
type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses the tree rooted at node, calling f for each node.
// Descent into a node's children stops wherever f returns false.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}
