package ast

import (
	"bytes"
	"strings"

	"github.com/ecmago/engine/internal/token"
)

// ExpressionStatement wraps an expression used in statement position.
type ExpressionStatement struct {
	Token      token.Token
	Expression Expression
}

func (e *ExpressionStatement) statementNode()       {}
func (e *ExpressionStatement) TokenLiteral() string { return e.Token.Literal }
func (e *ExpressionStatement) Pos() token.Position  { return e.Token.Span.Start }
func (e *ExpressionStatement) String() string {
	if e.Expression != nil {
		return e.Expression.String() + ";"
	}
	return ";"
}

// BlockStatement is `{ stmt; stmt; ... }`, introducing a new lexical scope.
type BlockStatement struct {
	Token      token.Token
	Statements []Statement
}

func (b *BlockStatement) statementNode()       {}
func (b *BlockStatement) TokenLiteral() string { return b.Token.Literal }
func (b *BlockStatement) Pos() token.Position  { return b.Token.Span.Start }
func (b *BlockStatement) String() string {
	var out bytes.Buffer
	out.WriteString("{\n")
	for _, s := range b.Statements {
		out.WriteString("  ")
		out.WriteString(strings.ReplaceAll(s.String(), "\n", "\n  "))
		out.WriteString("\n")
	}
	out.WriteString("}")
	return out.String()
}

// VarKind distinguishes var/let/const for hoisting and TDZ purposes.
type VarKind string

const (
	VarKindVar   VarKind = "var"
	VarKindLet   VarKind = "let"
	VarKindConst VarKind = "const"
)

// VariableDeclarator is one `name = init` (or destructuring pattern) entry
// in a declaration list.
type VariableDeclarator struct {
	Target Expression // Identifier, ObjectPattern, or ArrayPattern
	Init   Expression // nil if uninitialized
}

// VariableDeclaration is `var|let|const decl, decl, ...;`.
type VariableDeclaration struct {
	Token        token.Token
	Kind         VarKind
	Declarations []*VariableDeclarator
}

func (v *VariableDeclaration) statementNode()       {}
func (v *VariableDeclaration) TokenLiteral() string { return v.Token.Literal }
func (v *VariableDeclaration) Pos() token.Position  { return v.Token.Span.Start }
func (v *VariableDeclaration) String() string {
	parts := make([]string, len(v.Declarations))
	for i, d := range v.Declarations {
		if d.Init != nil {
			parts[i] = d.Target.String() + " = " + d.Init.String()
		} else {
			parts[i] = d.Target.String()
		}
	}
	return string(v.Kind) + " " + strings.Join(parts, ", ") + ";"
}

// FunctionDeclaration is a named top-level/block-level function statement.
// Its Function field carries the shared FunctionLiteral shape so the
// compiler has one code path for declarations and expressions.
type FunctionDeclaration struct {
	Token    token.Token
	Function *FunctionLiteral
}

func (f *FunctionDeclaration) statementNode()       {}
func (f *FunctionDeclaration) TokenLiteral() string { return f.Token.Literal }
func (f *FunctionDeclaration) Pos() token.Position  { return f.Token.Span.Start }
func (f *FunctionDeclaration) String() string       { return f.Function.String() }

// ClassDeclaration is a named class statement, wrapping ClassLiteral.
type ClassDeclaration struct {
	Token token.Token
	Class *ClassLiteral
}

func (c *ClassDeclaration) statementNode()       {}
func (c *ClassDeclaration) TokenLiteral() string { return c.Token.Literal }
func (c *ClassDeclaration) Pos() token.Position  { return c.Token.Span.Start }
func (c *ClassDeclaration) String() string       { return c.Class.String() }

// ReturnStatement exits the enclosing function, optionally with a value.
type ReturnStatement struct {
	Token token.Token
	Value Expression // nil for bare `return;`
}

func (r *ReturnStatement) statementNode()       {}
func (r *ReturnStatement) TokenLiteral() string { return r.Token.Literal }
func (r *ReturnStatement) Pos() token.Position  { return r.Token.Span.Start }
func (r *ReturnStatement) String() string {
	if r.Value != nil {
		return "return " + r.Value.String() + ";"
	}
	return "return;"
}

// IfStatement is `if (test) consequent [else alternate]`.
type IfStatement struct {
	Token       token.Token
	Test        Expression
	Consequent  Statement
	Alternate   Statement // nil if no else branch
}

func (i *IfStatement) statementNode()       {}
func (i *IfStatement) TokenLiteral() string { return i.Token.Literal }
func (i *IfStatement) Pos() token.Position  { return i.Token.Span.Start }
func (i *IfStatement) String() string {
	out := "if (" + i.Test.String() + ") " + i.Consequent.String()
	if i.Alternate != nil {
		out += " else " + i.Alternate.String()
	}
	return out
}

// ForStatement is the classic C-style `for (init; test; update) body`.
// Any of Init/Test/Update may be nil.
type ForStatement struct {
	Token  token.Token
	Init   Node // VariableDeclaration or Expression (wrapped as ExpressionStatement), or nil
	Test   Expression
	Update Expression
	Body   Statement
}

func (f *ForStatement) statementNode()       {}
func (f *ForStatement) TokenLiteral() string { return f.Token.Literal }
func (f *ForStatement) Pos() token.Position  { return f.Token.Span.Start }
func (f *ForStatement) String() string {
	return "for (...) " + f.Body.String()
}

// ForInStatement is `for (left in right) body`.
type ForInStatement struct {
	Token token.Token
	Left  Node // VariableDeclaration (single declarator) or assignment target
	Right Expression
	Body  Statement
}

func (f *ForInStatement) statementNode()       {}
func (f *ForInStatement) TokenLiteral() string { return f.Token.Literal }
func (f *ForInStatement) Pos() token.Position  { return f.Token.Span.Start }
func (f *ForInStatement) String() string       { return "for (... in " + f.Right.String() + ") " + f.Body.String() }

// ForOfStatement is `for [await] (left of right) body`.
type ForOfStatement struct {
	Token   token.Token
	Left    Node
	Right   Expression
	Body    Statement
	IsAwait bool
}

func (f *ForOfStatement) statementNode()       {}
func (f *ForOfStatement) TokenLiteral() string { return f.Token.Literal }
func (f *ForOfStatement) Pos() token.Position  { return f.Token.Span.Start }
func (f *ForOfStatement) String() string       { return "for (... of " + f.Right.String() + ") " + f.Body.String() }

// WhileStatement is `while (test) body`.
type WhileStatement struct {
	Token token.Token
	Test  Expression
	Body  Statement
}

func (w *WhileStatement) statementNode()       {}
func (w *WhileStatement) TokenLiteral() string { return w.Token.Literal }
func (w *WhileStatement) Pos() token.Position  { return w.Token.Span.Start }
func (w *WhileStatement) String() string       { return "while (" + w.Test.String() + ") " + w.Body.String() }

// DoWhileStatement is `do body while (test);`.
type DoWhileStatement struct {
	Token token.Token
	Body  Statement
	Test  Expression
}

func (d *DoWhileStatement) statementNode()       {}
func (d *DoWhileStatement) TokenLiteral() string { return d.Token.Literal }
func (d *DoWhileStatement) Pos() token.Position  { return d.Token.Span.Start }
func (d *DoWhileStatement) String() string {
	return "do " + d.Body.String() + " while (" + d.Test.String() + ");"
}

// BreakStatement optionally targets an enclosing labeled statement.
type BreakStatement struct {
	Token token.Token
	Label *Identifier // nil for unlabeled break
}

func (b *BreakStatement) statementNode()       {}
func (b *BreakStatement) TokenLiteral() string { return b.Token.Literal }
func (b *BreakStatement) Pos() token.Position  { return b.Token.Span.Start }
func (b *BreakStatement) String() string {
	if b.Label != nil {
		return "break " + b.Label.Name + ";"
	}
	return "break;"
}

// ContinueStatement optionally targets an enclosing labeled loop.
type ContinueStatement struct {
	Token token.Token
	Label *Identifier
}

func (c *ContinueStatement) statementNode()       {}
func (c *ContinueStatement) TokenLiteral() string { return c.Token.Literal }
func (c *ContinueStatement) Pos() token.Position  { return c.Token.Span.Start }
func (c *ContinueStatement) String() string {
	if c.Label != nil {
		return "continue " + c.Label.Name + ";"
	}
	return "continue;"
}

// LabeledStatement is `label: statement`, a target for break/continue.
type LabeledStatement struct {
	Token token.Token
	Label *Identifier
	Body  Statement
}

func (l *LabeledStatement) statementNode()       {}
func (l *LabeledStatement) TokenLiteral() string { return l.Token.Literal }
func (l *LabeledStatement) Pos() token.Position  { return l.Token.Span.Start }
func (l *LabeledStatement) String() string       { return l.Label.Name + ": " + l.Body.String() }

// SwitchCase is one `case test:` or `default:` clause.
type SwitchCase struct {
	Test       Expression // nil for the default clause
	Consequent []Statement
}

// SwitchStatement is `switch (discriminant) { case ...: ... }`.
type SwitchStatement struct {
	Token         token.Token
	Discriminant  Expression
	Cases         []*SwitchCase
}

func (s *SwitchStatement) statementNode()       {}
func (s *SwitchStatement) TokenLiteral() string { return s.Token.Literal }
func (s *SwitchStatement) Pos() token.Position  { return s.Token.Span.Start }
func (s *SwitchStatement) String() string {
	return "switch (" + s.Discriminant.String() + ") {...}"
}

// ThrowStatement raises Value as an exception.
type ThrowStatement struct {
	Token token.Token
	Value Expression
}

func (t *ThrowStatement) statementNode()       {}
func (t *ThrowStatement) TokenLiteral() string { return t.Token.Literal }
func (t *ThrowStatement) Pos() token.Position  { return t.Token.Span.Start }
func (t *ThrowStatement) String() string       { return "throw " + t.Value.String() + ";" }

// CatchClause is the `catch (param) body` part of a TryStatement.
type CatchClause struct {
	Param Expression // Identifier or destructuring pattern, nil for parameterless catch
	Body  *BlockStatement
}

func (c *CatchClause) TokenLiteral() string { return c.Body.TokenLiteral() }
func (c *CatchClause) Pos() token.Position  { return c.Body.Pos() }
func (c *CatchClause) String() string       { return c.Body.String() }

// TryStatement is `try block [catch (e) block] [finally block]`.
type TryStatement struct {
	Token   token.Token
	Block   *BlockStatement
	Catch   *CatchClause // nil if no catch clause
	Finally *BlockStatement // nil if no finally clause
}

func (t *TryStatement) statementNode()       {}
func (t *TryStatement) TokenLiteral() string { return t.Token.Literal }
func (t *TryStatement) Pos() token.Position  { return t.Token.Span.Start }
func (t *TryStatement) String() string {
	out := "try " + t.Block.String()
	if t.Catch != nil {
		out += " catch " + t.Catch.Body.String()
	}
	if t.Finally != nil {
		out += " finally " + t.Finally.String()
	}
	return out
}

// EmptyStatement is a bare `;`.
type EmptyStatement struct{ Token token.Token }

func (e *EmptyStatement) statementNode()       {}
func (e *EmptyStatement) TokenLiteral() string { return e.Token.Literal }
func (e *EmptyStatement) Pos() token.Position  { return e.Token.Span.Start }
func (e *EmptyStatement) String() string       { return ";" }

// DebuggerStatement is the `debugger;` statement; the VM treats it as a
// breakpoint hook when a debugger callback is registered, else a no-op.
type DebuggerStatement struct{ Token token.Token }

func (d *DebuggerStatement) statementNode()       {}
func (d *DebuggerStatement) TokenLiteral() string { return d.Token.Literal }
func (d *DebuggerStatement) Pos() token.Position  { return d.Token.Span.Start }
func (d *DebuggerStatement) String() string       { return "debugger;" }

// ImportSpecifier binds one imported name into the module's scope.
type ImportSpecifier struct {
	Imported *Identifier // nil for the default/namespace import
	Local    *Identifier
	Default  bool
	Namespace bool
}

// ImportDeclaration is `import ... from "source";`.
type ImportDeclaration struct {
	Token      token.Token
	Specifiers []*ImportSpecifier
	Source     string
}

func (i *ImportDeclaration) statementNode()       {}
func (i *ImportDeclaration) TokenLiteral() string { return i.Token.Literal }
func (i *ImportDeclaration) Pos() token.Position  { return i.Token.Span.Start }
func (i *ImportDeclaration) String() string       { return "import ... from \"" + i.Source + "\";" }

// ExportDeclaration wraps a declaration (or re-exports by name) as a module
// export; Default marks `export default`.
type ExportDeclaration struct {
	Token       token.Token
	Declaration Statement // nil when exporting a bare expression (export default expr)
	Expression  Expression
	Default     bool
}

func (e *ExportDeclaration) statementNode()       {}
func (e *ExportDeclaration) TokenLiteral() string { return e.Token.Literal }
func (e *ExportDeclaration) Pos() token.Position  { return e.Token.Span.Start }
func (e *ExportDeclaration) String() string {
	if e.Default {
		return "export default ...;"
	}
	return "export ...;"
}
