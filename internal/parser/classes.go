package parser

import (
	"github.com/ecmago/engine/internal/ast"
	"github.com/ecmago/engine/internal/token"
)

func (p *Parser) parseClassDeclaration() ast.Statement {
	tok := p.curToken
	cls := p.parseClassTail()
	return &ast.ClassDeclaration{Token: tok, Class: cls}
}

func (p *Parser) parseClassExpression() ast.Expression {
	return p.parseClassTail()
}

// parseClassTail parses `class [Name] [extends Super] { members }`.
func (p *Parser) parseClassTail() *ast.ClassLiteral {
	tok := p.curToken
	p.nextToken() // consume 'class'

	cls := &ast.ClassLiteral{Token: tok}
	if p.curIs(token.IDENT) {
		cls.Name = p.parseIdentifier()
	}
	if p.curIs(token.EXTENDS) {
		p.nextToken()
		cls.SuperClass = p.parseExpression(CALL)
	}

	if !p.expectConsume(token.LBRACE, "class body") {
		return cls
	}
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if p.curIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		cls.Members = append(cls.Members, p.parseClassMember())
	}
	p.expectConsume(token.RBRACE, "class body")
	return cls
}

func (p *Parser) parseClassMember() *ast.ClassMember {
	member := &ast.ClassMember{Kind: "method"}

	if p.curIs(token.STATIC) && !p.peekIs(token.LPAREN) && !p.peekIs(token.ASSIGN) {
		member.Static = true
		p.nextToken()
		if p.curIs(token.LBRACE) {
			member.Kind = "static-block"
			member.Value = p.parseBlockStatement()
			return member
		}
	}

	isAsync := false
	isGenerator := false
	if p.curIs(token.ASYNC) && !p.peekIs(token.LPAREN) && !p.peekIs(token.ASSIGN) {
		isAsync = true
		p.nextToken()
	}
	if p.curIs(token.STAR) {
		isGenerator = true
		p.nextToken()
	}
	if (p.curIs(token.GET) || p.curIs(token.SET)) && !p.peekIs(token.LPAREN) && !p.peekIs(token.ASSIGN) {
		member.Kind = p.curToken.Literal
		p.nextToken()
	}

	if p.curIs(token.HASH) {
		member.Private = true
		p.nextToken()
	}

	keyHolder := &ast.ObjectProperty{}
	member.Key = p.parsePropertyKey(keyHolder)
	member.Computed = keyHolder.Computed
	if fakeKey, ok := member.Key.(*ast.Identifier); ok && fakeKey.Name == "constructor" && member.Kind == "method" {
		member.Kind = "constructor"
	}

	if p.curIs(token.LPAREN) {
		fn := p.parseFunctionTail(nil, isAsync, isGenerator)
		member.Value = fn
		return member
	}

	// field declaration, optionally with initializer
	member.Kind = "field"
	if p.curIs(token.ASSIGN) {
		p.nextToken()
		member.Value = p.parseExpression(LOWEST)
	}
	p.consumeSemicolon()
	return member
}
