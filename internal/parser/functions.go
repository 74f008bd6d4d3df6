package parser

import (
	"github.com/ecmago/engine/internal/ast"
	"github.com/ecmago/engine/internal/token"
)

func (p *Parser) parseFunctionDeclaration() ast.Statement {
	tok := p.curToken
	isAsync := p.curIs(token.ASYNC)
	if isAsync {
		p.nextToken()
	}
	p.nextToken() // consume 'function'
	isGenerator := false
	if p.curIs(token.STAR) {
		isGenerator = true
		p.nextToken()
	}
	name := p.parseIdentifier()
	fn := p.parseFunctionTail(name, isAsync, isGenerator)
	return &ast.FunctionDeclaration{Token: tok, Function: fn.(*ast.FunctionLiteral)}
}

func (p *Parser) parseFunctionExpression() ast.Expression {
	tok := p.curToken
	p.nextToken() // consume 'function'
	isGenerator := false
	if p.curIs(token.STAR) {
		isGenerator = true
		p.nextToken()
	}
	var name *ast.Identifier
	if p.curIs(token.IDENT) {
		name = p.parseIdentifier()
	}
	fn := p.parseFunctionTail(name, false, isGenerator)
	fn.(*ast.FunctionLiteral).Token = tok
	return fn
}

// parseFunctionTail parses `(params) { body }` and is shared by function
// declarations, function expressions, and object/class methods. The caller
// has already consumed the `function` keyword (if any) and any name.
func (p *Parser) parseFunctionTail(name *ast.Identifier, isAsync, isGenerator bool) ast.Expression {
	tok := p.curToken
	params := p.parseParamList()
	p.inFunctionBody++
	body := p.parseBlockStatement()
	p.inFunctionBody--
	return &ast.FunctionLiteral{
		Token: tok, Name: name, Params: params, Body: body,
		IsAsync: isAsync, IsGenerator: isGenerator,
	}
}

func (p *Parser) parseParamList() []*ast.Param {
	var params []*ast.Param
	p.expectConsume(token.LPAREN, "parameter list")
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		param := &ast.Param{}
		if p.curIs(token.ELLIPSIS) {
			p.nextToken()
			param.Rest = true
		}
		param.Pattern = p.parseBindingTarget()
		if p.curIs(token.ASSIGN) {
			p.nextToken()
			param.Default = p.parseExpression(LOWEST)
		}
		params = append(params, param)
		if p.curIs(token.COMMA) {
			p.nextToken()
		}
	}
	p.expectConsume(token.RPAREN, "parameter list")
	return params
}

// tryParseArrowFunction attempts to parse curToken onward as an arrow
// function (either `ident => body` or `(params) => body`). It returns nil
// and leaves the parser state untouched if the tokens don't form one,
// letting the caller fall back to a grouped-expression or plain-identifier
// parse.
func (p *Parser) tryParseArrowFunction() *ast.FunctionLiteral {
	snapshot := p.save()

	if p.curIs(token.IDENT) && p.peekIs(token.ARROW) {
		tok := p.curToken
		param := &ast.Param{Pattern: p.parseIdentifier()}
		p.nextToken() // consume '=>'
		return p.finishArrowFunction(tok, []*ast.Param{param})
	}

	if p.curIs(token.LPAREN) {
		tok := p.curToken
		params, ok := p.tryParseParamListForArrow()
		if ok && p.curIs(token.ARROW) {
			p.nextToken() // consume '=>'
			return p.finishArrowFunction(tok, params)
		}
	}

	p.restore(snapshot)
	return nil
}

// tryParseParamListForArrow parses a parenthesized list the same way
// parseParamList does, but never records errors: malformed input simply
// means "this wasn't an arrow function's parameter list" to the caller.
func (p *Parser) tryParseParamListForArrow() ([]*ast.Param, bool) {
	errCountBefore := len(p.errors)
	params := p.parseParamList()
	ok := len(p.errors) == errCountBefore
	if !ok {
		p.errors = p.errors[:errCountBefore]
	}
	return params, ok
}

func (p *Parser) finishArrowFunction(tok token.Token, params []*ast.Param) *ast.FunctionLiteral {
	fn := &ast.FunctionLiteral{Token: tok, Params: params, Arrow: true}
	if p.curIs(token.LBRACE) {
		p.inFunctionBody++
		fn.Body = p.parseBlockStatement()
		p.inFunctionBody--
	} else {
		fn.ExprBody = p.parseExpression(LOWEST)
	}
	return fn
}
