package parser

import (
	"github.com/ecmago/engine/internal/ast"
	"github.com/ecmago/engine/internal/token"
)

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Kind {
	case token.VAR, token.LET, token.CONST:
		return p.parseVariableDeclaration()
	case token.FUNCTION:
		return p.parseFunctionDeclaration()
	case token.CLASS:
		return p.parseClassDeclaration()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.DO:
		return p.parseDoWhileStatement()
	case token.BREAK:
		return p.parseBreakStatement()
	case token.CONTINUE:
		return p.parseContinueStatement()
	case token.THROW:
		return p.parseThrowStatement()
	case token.TRY:
		return p.parseTryStatement()
	case token.SWITCH:
		return p.parseSwitchStatement()
	case token.LBRACE:
		return p.parseBlockStatement()
	case token.SEMICOLON:
		stmt := &ast.EmptyStatement{Token: p.curToken}
		p.nextToken()
		return stmt
	case token.DEBUGGER:
		stmt := &ast.DebuggerStatement{Token: p.curToken}
		p.nextToken()
		p.consumeSemicolon()
		return stmt
	case token.IMPORT:
		return p.parseImportDeclaration()
	case token.EXPORT:
		return p.parseExportDeclaration()
	case token.ASYNC:
		if p.peekIs(token.FUNCTION) {
			return p.parseFunctionDeclaration()
		}
		return p.parseExpressionStatement()
	case token.IDENT:
		if p.peekIs(token.COLON) {
			return p.parseLabeledStatement()
		}
		return p.parseExpressionStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	startTok := p.curToken
	expr := p.parseExpression(LOWEST)
	stmt := &ast.ExpressionStatement{Token: startTok, Expression: expr}
	p.consumeSemicolon()
	return stmt
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken}
	p.nextToken() // consume '{'
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		} else {
			p.synchronize()
		}
	}
	if !p.curIs(token.RBRACE) {
		p.addError("expected '}' to close block, got %s", p.curToken.Kind)
	} else {
		p.nextToken()
	}
	return block
}

func (p *Parser) parseVariableDeclaration() *ast.VariableDeclaration {
	decl := &ast.VariableDeclaration{Token: p.curToken, Kind: ast.VarKind(p.curToken.Literal)}
	p.nextToken()

	for {
		target := p.parseBindingTarget()
		var init ast.Expression
		if p.curIs(token.ASSIGN) {
			p.nextToken()
			init = p.parseExpression(LOWEST)
		} else if decl.Kind == ast.VarKindConst {
			p.addError("missing initializer in const declaration")
		}
		decl.Declarations = append(decl.Declarations, &ast.VariableDeclarator{Target: target, Init: init})
		if !p.curIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	p.consumeSemicolon()
	return decl
}

// parseBindingTarget parses an identifier or destructuring pattern used as a
// binding target (in var/let/const, parameters, and catch clauses).
func (p *Parser) parseBindingTarget() ast.Expression {
	switch p.curToken.Kind {
	case token.LBRACE:
		return p.parseObjectPattern()
	case token.LBRACKET:
		return p.parseArrayPattern()
	default:
		if !p.curIs(token.IDENT) && !p.curToken.Kind.IsKeyword() {
			p.addError("expected binding identifier, got %s", p.curToken.Kind)
		}
		name := p.parseIdentifier()
		return name
	}
}

func (p *Parser) parseObjectPattern() ast.Expression {
	pat := &ast.ObjectPattern{Token: p.curToken}
	p.nextToken() // consume '{'
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		prop := &ast.ObjectPatternProperty{}
		if p.curIs(token.ELLIPSIS) {
			p.nextToken()
			prop.Rest = true
			prop.Value = p.parseIdentifier()
		} else {
			key := p.parseIdentifier()
			prop.Key = key
			if p.curIs(token.COLON) {
				p.nextToken()
				prop.Value = p.parseBindingTarget()
			} else {
				prop.Value = key
			}
			if p.curIs(token.ASSIGN) {
				p.nextToken()
				prop.Default = p.parseExpression(LOWEST)
			}
		}
		pat.Properties = append(pat.Properties, prop)
		if p.curIs(token.COMMA) {
			p.nextToken()
		}
	}
	if p.curIs(token.RBRACE) {
		p.nextToken()
	}
	return pat
}

func (p *Parser) parseArrayPattern() ast.Expression {
	pat := &ast.ArrayPattern{Token: p.curToken}
	p.nextToken() // consume '['
	for !p.curIs(token.RBRACKET) && !p.curIs(token.EOF) {
		if p.curIs(token.COMMA) {
			pat.Elements = append(pat.Elements, nil)
			p.nextToken()
			continue
		}
		if p.curIs(token.ELLIPSIS) {
			p.nextToken()
			pat.Rest = p.parseBindingTarget()
			break
		}
		elem := p.parseBindingTarget()
		if p.curIs(token.ASSIGN) {
			p.nextToken()
			elem = &ast.AssignmentPattern{Target: elem, Default: p.parseExpression(LOWEST)}
		}
		pat.Elements = append(pat.Elements, elem)
		if p.curIs(token.COMMA) {
			p.nextToken()
		}
	}
	if p.curIs(token.RBRACKET) {
		p.nextToken()
	}
	return pat
}

func (p *Parser) parseReturnStatement() *ast.ReturnStatement {
	stmt := &ast.ReturnStatement{Token: p.curToken}
	p.nextToken()
	if !p.curIs(token.SEMICOLON) && !p.curIs(token.RBRACE) && !p.curIs(token.EOF) && !p.l.SawNewlineBeforeLastToken() {
		stmt.Value = p.parseExpression(LOWEST)
	}
	p.consumeSemicolon()
	return stmt
}

func (p *Parser) parseIfStatement() *ast.IfStatement {
	stmt := &ast.IfStatement{Token: p.curToken}
	p.nextToken()
	if !p.expectConsume(token.LPAREN, "if condition") {
		return stmt
	}
	stmt.Test = p.parseExpression(LOWEST)
	if !p.expectConsume(token.RPAREN, "if condition") {
		return stmt
	}
	stmt.Consequent = p.parseStatement()
	if p.curIs(token.ELSE) {
		p.nextToken()
		stmt.Alternate = p.parseStatement()
	}
	return stmt
}

// expectConsume requires curToken to be k, reporting and advancing past it
// if so; otherwise records an error naming the surrounding construct.
func (p *Parser) expectConsume(k token.Kind, context string) bool {
	if p.curIs(k) {
		p.nextToken()
		return true
	}
	p.addError("expected %s in %s, got %s", k, context, p.curToken.Kind)
	return false
}

func (p *Parser) parseForStatement() ast.Statement {
	startTok := p.curToken
	p.nextToken()
	if !p.expectConsume(token.LPAREN, "for statement") {
		return &ast.ForStatement{Token: startTok}
	}

	var init ast.Node
	if p.curIs(token.VAR) || p.curIs(token.LET) || p.curIs(token.CONST) {
		kind := ast.VarKind(p.curToken.Literal)
		declTok := p.curToken
		p.nextToken()
		target := p.parseBindingTarget()

		if p.curIs(token.IN) || p.curIs(token.OF) {
			isOf := p.curIs(token.OF)
			p.nextToken()
			right := p.parseExpression(LOWEST)
			if !p.expectConsume(token.RPAREN, "for-in/of header") {
				return &ast.ForStatement{Token: startTok}
			}
			p.inLoop++
			body := p.parseStatement()
			p.inLoop--
			left := &ast.VariableDeclaration{Token: declTok, Kind: kind,
				Declarations: []*ast.VariableDeclarator{{Target: target}}}
			if isOf {
				return &ast.ForOfStatement{Token: startTok, Left: left, Right: right, Body: body}
			}
			return &ast.ForInStatement{Token: startTok, Left: left, Right: right, Body: body}
		}

		decl := &ast.VariableDeclaration{Token: declTok, Kind: kind}
		var firstInit ast.Expression
		if p.curIs(token.ASSIGN) {
			p.nextToken()
			firstInit = p.parseExpression(LOWEST)
		}
		decl.Declarations = append(decl.Declarations, &ast.VariableDeclarator{Target: target, Init: firstInit})
		for p.curIs(token.COMMA) {
			p.nextToken()
			t := p.parseBindingTarget()
			var v ast.Expression
			if p.curIs(token.ASSIGN) {
				p.nextToken()
				v = p.parseExpression(LOWEST)
			}
			decl.Declarations = append(decl.Declarations, &ast.VariableDeclarator{Target: t, Init: v})
		}
		init = decl
	} else if !p.curIs(token.SEMICOLON) {
		expr := p.parseExpression(LOWEST)
		if p.curIs(token.IN) || p.curIs(token.OF) {
			isOf := p.curIs(token.OF)
			p.nextToken()
			right := p.parseExpression(LOWEST)
			if !p.expectConsume(token.RPAREN, "for-in/of header") {
				return &ast.ForStatement{Token: startTok}
			}
			p.inLoop++
			body := p.parseStatement()
			p.inLoop--
			if isOf {
				return &ast.ForOfStatement{Token: startTok, Left: expr, Right: right, Body: body}
			}
			return &ast.ForInStatement{Token: startTok, Left: expr, Right: right, Body: body}
		}
		init = &ast.ExpressionStatement{Expression: expr}
	}

	if !p.expectConsume(token.SEMICOLON, "for statement") {
		return &ast.ForStatement{Token: startTok, Init: init}
	}

	var test ast.Expression
	if !p.curIs(token.SEMICOLON) {
		test = p.parseExpression(LOWEST)
	}
	if !p.expectConsume(token.SEMICOLON, "for statement") {
		return &ast.ForStatement{Token: startTok, Init: init, Test: test}
	}

	var update ast.Expression
	if !p.curIs(token.RPAREN) {
		update = p.parseExpression(LOWEST)
	}
	if !p.expectConsume(token.RPAREN, "for statement") {
		return &ast.ForStatement{Token: startTok, Init: init, Test: test, Update: update}
	}

	p.inLoop++
	body := p.parseStatement()
	p.inLoop--
	return &ast.ForStatement{Token: startTok, Init: init, Test: test, Update: update, Body: body}
}

func (p *Parser) parseWhileStatement() *ast.WhileStatement {
	stmt := &ast.WhileStatement{Token: p.curToken}
	p.nextToken()
	if !p.expectConsume(token.LPAREN, "while statement") {
		return stmt
	}
	stmt.Test = p.parseExpression(LOWEST)
	if !p.expectConsume(token.RPAREN, "while statement") {
		return stmt
	}
	p.inLoop++
	stmt.Body = p.parseStatement()
	p.inLoop--
	return stmt
}

func (p *Parser) parseDoWhileStatement() *ast.DoWhileStatement {
	stmt := &ast.DoWhileStatement{Token: p.curToken}
	p.nextToken()
	p.inLoop++
	stmt.Body = p.parseStatement()
	p.inLoop--
	if !p.expectConsume(token.WHILE, "do-while statement") {
		return stmt
	}
	if !p.expectConsume(token.LPAREN, "do-while statement") {
		return stmt
	}
	stmt.Test = p.parseExpression(LOWEST)
	if !p.expectConsume(token.RPAREN, "do-while statement") {
		return stmt
	}
	p.consumeSemicolon()
	return stmt
}

func (p *Parser) parseBreakStatement() *ast.BreakStatement {
	stmt := &ast.BreakStatement{Token: p.curToken}
	p.nextToken()
	if p.inLoop == 0 && p.inSwitch == 0 {
		p.addError("'break' outside of a loop or switch")
	}
	if p.curIs(token.IDENT) && !p.l.SawNewlineBeforeLastToken() {
		stmt.Label = p.parseIdentifier()
	}
	p.consumeSemicolon()
	return stmt
}

func (p *Parser) parseContinueStatement() *ast.ContinueStatement {
	stmt := &ast.ContinueStatement{Token: p.curToken}
	p.nextToken()
	if p.inLoop == 0 {
		p.addError("'continue' outside of a loop")
	}
	if p.curIs(token.IDENT) && !p.l.SawNewlineBeforeLastToken() {
		stmt.Label = p.parseIdentifier()
	}
	p.consumeSemicolon()
	return stmt
}

func (p *Parser) parseLabeledStatement() ast.Statement {
	label := p.parseIdentifier()
	p.nextToken() // consume ':'
	body := p.parseStatement()
	return &ast.LabeledStatement{Token: label.Token, Label: label, Body: body}
}

func (p *Parser) parseThrowStatement() *ast.ThrowStatement {
	stmt := &ast.ThrowStatement{Token: p.curToken}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	p.consumeSemicolon()
	return stmt
}

func (p *Parser) parseTryStatement() *ast.TryStatement {
	stmt := &ast.TryStatement{Token: p.curToken}
	p.nextToken()
	if !p.curIs(token.LBRACE) {
		p.addError("expected '{' after try")
		return stmt
	}
	stmt.Block = p.parseBlockStatement()

	if p.curIs(token.CATCH) {
		p.nextToken()
		clause := &ast.CatchClause{}
		if p.curIs(token.LPAREN) {
			p.nextToken()
			clause.Param = p.parseBindingTarget()
			p.expectConsume(token.RPAREN, "catch clause")
		}
		clause.Body = p.parseBlockStatement()
		stmt.Catch = clause
	}
	if p.curIs(token.FINALLY) {
		p.nextToken()
		stmt.Finally = p.parseBlockStatement()
	}
	if stmt.Catch == nil && stmt.Finally == nil {
		p.addError("try statement requires a catch or finally clause")
	}
	return stmt
}

func (p *Parser) parseSwitchStatement() *ast.SwitchStatement {
	stmt := &ast.SwitchStatement{Token: p.curToken}
	p.nextToken()
	if !p.expectConsume(token.LPAREN, "switch statement") {
		return stmt
	}
	stmt.Discriminant = p.parseExpression(LOWEST)
	if !p.expectConsume(token.RPAREN, "switch statement") {
		return stmt
	}
	if !p.expectConsume(token.LBRACE, "switch statement") {
		return stmt
	}

	p.inSwitch++
	defer func() { p.inSwitch-- }()

	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		c := &ast.SwitchCase{}
		if p.curIs(token.CASE) {
			p.nextToken()
			c.Test = p.parseExpression(LOWEST)
		} else if p.curIs(token.DEFAULT) {
			p.nextToken()
		} else {
			p.addError("expected 'case' or 'default' in switch body, got %s", p.curToken.Kind)
			p.synchronize()
			continue
		}
		p.expectConsume(token.COLON, "switch case")
		for !p.curIs(token.CASE) && !p.curIs(token.DEFAULT) && !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
			s := p.parseStatement()
			if s != nil {
				c.Consequent = append(c.Consequent, s)
			}
		}
		stmt.Cases = append(stmt.Cases, c)
	}
	p.expectConsume(token.RBRACE, "switch statement")
	return stmt
}

func (p *Parser) parseImportDeclaration() *ast.ImportDeclaration {
	decl := &ast.ImportDeclaration{Token: p.curToken}
	p.nextToken()

	if p.curIs(token.STRING) {
		decl.Source = p.curToken.Literal
		p.nextToken()
		p.consumeSemicolon()
		return decl
	}

	if p.curIs(token.IDENT) {
		name := p.parseIdentifier()
		decl.Specifiers = append(decl.Specifiers, &ast.ImportSpecifier{Local: name, Default: true})
		if p.curIs(token.COMMA) {
			p.nextToken()
		}
	}
	if p.curIs(token.STAR) {
		p.nextToken()
		p.expectConsume(token.AS, "namespace import")
		local := p.parseIdentifier()
		decl.Specifiers = append(decl.Specifiers, &ast.ImportSpecifier{Local: local, Namespace: true})
	} else if p.curIs(token.LBRACE) {
		p.nextToken()
		for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
			imported := p.parseIdentifier()
			local := imported
			if p.curIs(token.AS) {
				p.nextToken()
				local = p.parseIdentifier()
			}
			decl.Specifiers = append(decl.Specifiers, &ast.ImportSpecifier{Imported: imported, Local: local})
			if p.curIs(token.COMMA) {
				p.nextToken()
			}
		}
		p.expectConsume(token.RBRACE, "named import list")
	}

	p.expectConsume(token.FROM, "import declaration")
	if p.curIs(token.STRING) {
		decl.Source = p.curToken.Literal
		p.nextToken()
	}
	p.consumeSemicolon()
	return decl
}

func (p *Parser) parseExportDeclaration() ast.Statement {
	decl := &ast.ExportDeclaration{Token: p.curToken}
	p.nextToken()
	if p.curIs(token.DEFAULT) {
		p.nextToken()
		decl.Default = true
		switch p.curToken.Kind {
		case token.FUNCTION:
			decl.Declaration = p.parseFunctionDeclaration()
		case token.CLASS:
			decl.Declaration = p.parseClassDeclaration()
		default:
			decl.Expression = p.parseExpression(LOWEST)
			p.consumeSemicolon()
		}
		return decl
	}
	decl.Declaration = p.parseStatement()
	return decl
}
