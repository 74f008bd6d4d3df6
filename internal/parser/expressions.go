package parser

import (
	"strconv"
	"strings"

	"github.com/ecmago/engine/internal/ast"
	"github.com/ecmago/engine/internal/lexer"
	"github.com/ecmago/engine/internal/token"
)

// parseExpression is the Pratt-parser entry point: it parses a prefix
// expression then repeatedly folds in infix/postfix operators whose
// precedence exceeds minPrecedence.
func (p *Parser) parseExpression(minPrecedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Kind]
	if prefix == nil {
		p.addError("unexpected token %s (%q) in expression", p.curToken.Kind, p.curToken.Literal)
		return nil
	}
	left := prefix()

	for !p.curIs(token.SEMICOLON) && minPrecedence < p.curPrecedence() {
		infix := p.infixParseFns[p.curToken.Kind]
		if infix == nil {
			return left
		}
		left = infix(left)
	}
	return left
}

func (p *Parser) parseIdentifier() *ast.Identifier {
	id := &ast.Identifier{Token: p.curToken, Name: p.curToken.Literal}
	p.nextToken()
	return id
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	lit := &ast.NumberLiteral{Token: p.curToken}
	text := strings.ReplaceAll(p.curToken.Literal, "_", "")
	var v float64
	var err error
	switch {
	case strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X"):
		iv, e := strconv.ParseInt(text[2:], 16, 64)
		v, err = float64(iv), e
	case strings.HasPrefix(text, "0b") || strings.HasPrefix(text, "0B"):
		iv, e := strconv.ParseInt(text[2:], 2, 64)
		v, err = float64(iv), e
	case strings.HasPrefix(text, "0o") || strings.HasPrefix(text, "0O"):
		iv, e := strconv.ParseInt(text[2:], 8, 64)
		v, err = float64(iv), e
	default:
		v, err = strconv.ParseFloat(text, 64)
	}
	if err != nil {
		p.addError("invalid number literal %q", p.curToken.Literal)
	}
	lit.Value = v
	p.nextToken()
	return lit
}

func (p *Parser) parseBigIntLiteral() ast.Expression {
	lit := &ast.BigIntLiteral{Token: p.curToken, Value: strings.TrimSuffix(p.curToken.Literal, "n")}
	p.nextToken()
	return lit
}

func (p *Parser) parseStringLiteral() ast.Expression {
	lit := &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
	p.nextToken()
	return lit
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	lit := &ast.BooleanLiteral{Token: p.curToken, Value: p.curIs(token.TRUE)}
	p.nextToken()
	return lit
}

func (p *Parser) parseNullLiteral() ast.Expression {
	lit := &ast.NullLiteral{Token: p.curToken}
	p.nextToken()
	return lit
}

func (p *Parser) parseUndefinedLiteral() ast.Expression {
	lit := &ast.UndefinedLiteral{Token: p.curToken}
	p.nextToken()
	return lit
}

func (p *Parser) parseThisExpression() ast.Expression {
	lit := &ast.ThisExpression{Token: p.curToken}
	p.nextToken()
	return lit
}

func (p *Parser) parseSuperExpression() ast.Expression {
	lit := &ast.SuperExpression{Token: p.curToken}
	p.nextToken()
	return lit
}

func (p *Parser) parseRegExpLiteral() ast.Expression {
	raw := p.curToken.Literal // "/pattern/flags"
	lastSlash := strings.LastIndex(raw, "/")
	lit := &ast.RegExpLiteral{Token: p.curToken, Pattern: raw[1:lastSlash], Flags: raw[lastSlash+1:]}
	p.nextToken()
	return lit
}

// parseTemplateLiteral splits the raw `...${...}...` token text into quasis
// and expressions, recursively invoking a fresh lexer/parser pair over each
// substitution's source text.
func (p *Parser) parseTemplateLiteral() ast.Expression {
	raw := p.curToken.Literal
	lit := &ast.TemplateLiteral{Token: p.curToken}
	inner := raw[1 : len(raw)-1] // strip backticks

	var quasi strings.Builder
	i := 0
	for i < len(inner) {
		if inner[i] == '\\' && i+1 < len(inner) {
			quasi.WriteByte(inner[i])
			quasi.WriteByte(inner[i+1])
			i += 2
			continue
		}
		if inner[i] == '$' && i+1 < len(inner) && inner[i+1] == '{' {
			depth := 1
			j := i + 2
			start := j
			for j < len(inner) && depth > 0 {
				switch inner[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
				if depth > 0 {
					j++
				}
			}
			lit.Quasis = append(lit.Quasis, decodeSimpleEscapes(quasi.String()))
			quasi.Reset()
			exprSrc := inner[start:j]
			subLexer := lexer.New(exprSrc)
			subParser := New(subLexer)
			expr := subParser.parseExpression(LOWEST)
			for _, e := range subParser.Errors() {
				p.errors = append(p.errors, e)
			}
			lit.Expressions = append(lit.Expressions, expr)
			i = j + 1
			continue
		}
		quasi.WriteByte(inner[i])
		i++
	}
	lit.Quasis = append(lit.Quasis, decodeSimpleEscapes(quasi.String()))
	p.nextToken()
	return lit
}

func decodeSimpleEscapes(s string) string {
	replacer := strings.NewReplacer(`\n`, "\n", `\t`, "\t", "\\`", "`", `\\`, `\`, `\$`, "$")
	return replacer.Replace(s)
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	lit := &ast.ArrayLiteral{Token: p.curToken}
	p.nextToken() // consume '['
	for !p.curIs(token.RBRACKET) && !p.curIs(token.EOF) {
		if p.curIs(token.COMMA) {
			lit.Elements = append(lit.Elements, nil)
			p.nextToken()
			continue
		}
		if p.curIs(token.ELLIPSIS) {
			tok := p.curToken
			p.nextToken()
			lit.Elements = append(lit.Elements, &ast.SpreadElement{Token: tok, Expression: p.parseExpression(LOWEST)})
		} else {
			lit.Elements = append(lit.Elements, p.parseExpression(LOWEST))
		}
		if p.curIs(token.COMMA) {
			p.nextToken()
		}
	}
	p.expectConsume(token.RBRACKET, "array literal")
	return lit
}

func (p *Parser) parseObjectLiteral() ast.Expression {
	lit := &ast.ObjectLiteral{Token: p.curToken}
	p.nextToken() // consume '{'
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		prop := &ast.ObjectProperty{Kind: "init"}
		if p.curIs(token.ELLIPSIS) {
			p.nextToken()
			prop.IsSpread = true
			prop.Value = p.parseExpression(LOWEST)
			lit.Properties = append(lit.Properties, prop)
			if p.curIs(token.COMMA) {
				p.nextToken()
			}
			continue
		}

		if (p.curIs(token.GET) || p.curIs(token.SET)) && !p.peekIs(token.COLON) && !p.peekIs(token.COMMA) && !p.peekIs(token.RBRACE) {
			prop.Kind = p.curToken.Literal
			p.nextToken()
			prop.Key = p.parsePropertyKey(prop)
			prop.Value = p.parseFunctionTail(nil, false, false)
			lit.Properties = append(lit.Properties, prop)
			if p.curIs(token.COMMA) {
				p.nextToken()
			}
			continue
		}

		key := p.parsePropertyKey(prop)
		prop.Key = key

		if p.curIs(token.LPAREN) {
			prop.Kind = "method"
			prop.Value = p.parseFunctionTail(nil, false, false)
		} else if p.curIs(token.COLON) {
			p.nextToken()
			prop.Value = p.parseExpression(LOWEST)
		} else {
			prop.Shorthand = true
			prop.Value = key
			if p.curIs(token.ASSIGN) { // shorthand with default, valid only in patterns but tolerated here
				p.nextToken()
				p.parseExpression(LOWEST)
			}
		}
		lit.Properties = append(lit.Properties, prop)
		if p.curIs(token.COMMA) {
			p.nextToken()
		}
	}
	p.expectConsume(token.RBRACE, "object literal")
	return lit
}

// parsePropertyKey parses a property name, including the `[expr]` computed
// form, and marks prop.Computed accordingly.
func (p *Parser) parsePropertyKey(prop *ast.ObjectProperty) ast.Expression {
	if p.curIs(token.LBRACKET) {
		prop.Computed = true
		p.nextToken()
		key := p.parseExpression(LOWEST)
		p.expectConsume(token.RBRACKET, "computed property key")
		return key
	}
	if p.curIs(token.STRING) {
		key := &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
		p.nextToken()
		return key
	}
	if p.curIs(token.NUMBER) {
		n := p.parseNumberLiteral()
		return n
	}
	name := &ast.Identifier{Token: p.curToken, Name: p.curToken.Literal}
	p.nextToken()
	return name
}

func (p *Parser) parseUnaryExpression() ast.Expression {
	tok := p.curToken
	op := p.curToken.Literal
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	return &ast.UnaryExpression{Token: tok, Operator: op, Operand: operand}
}

func (p *Parser) parseUpdatePrefix() ast.Expression {
	tok := p.curToken
	op := p.curToken.Literal
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	return &ast.UpdateExpression{Token: tok, Operator: op, Operand: operand, Prefix: true}
}

func (p *Parser) parseUpdatePostfix(left ast.Expression) ast.Expression {
	tok := p.curToken
	op := p.curToken.Literal
	p.nextToken()
	return &ast.UpdateExpression{Token: tok, Operator: op, Operand: left, Prefix: false}
}

func (p *Parser) parseBinaryExpression(left ast.Expression) ast.Expression {
	tok := p.curToken
	op := p.curToken.Literal
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	return &ast.BinaryExpression{Token: tok, Left: left, Operator: op, Right: right}
}

// parseExponentExpression handles `**`, the one arithmetic operator that
// right-associates: parsing the right side one level below the operator's
// own precedence lets a following `**` bind it first, so `2 ** 3 ** 2`
// parses as `2 ** (3 ** 2)` — the same trick parseAssignmentExpression
// uses for the (also right-associative) assignment operators.
func (p *Parser) parseExponentExpression(left ast.Expression) ast.Expression {
	tok := p.curToken
	op := p.curToken.Literal
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence - 1)
	return &ast.BinaryExpression{Token: tok, Left: left, Operator: op, Right: right}
}

func (p *Parser) parseLogicalExpression(left ast.Expression) ast.Expression {
	tok := p.curToken
	op := p.curToken.Literal
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	return &ast.LogicalExpression{Token: tok, Left: left, Operator: op, Right: right}
}

func (p *Parser) parseConditionalExpression(test ast.Expression) ast.Expression {
	tok := p.curToken
	p.nextToken() // consume '?'
	consequent := p.parseExpression(LOWEST)
	if !p.expectConsume(token.COLON, "conditional expression") {
		return &ast.ConditionalExpression{Token: tok, Test: test, Consequent: consequent}
	}
	alternate := p.parseExpression(LOWEST)
	return &ast.ConditionalExpression{Token: tok, Test: test, Consequent: consequent, Alternate: alternate}
}

func (p *Parser) parseAssignmentExpression(left ast.Expression) ast.Expression {
	tok := p.curToken
	op := p.curToken.Literal
	p.nextToken()
	value := p.parseExpression(ASSIGN - 1) // right-associative
	return &ast.AssignmentExpression{Token: tok, Target: left, Operator: op, Value: value}
}

func (p *Parser) parseMemberExpression(object ast.Expression) ast.Expression {
	tok := p.curToken
	optional := p.curIs(token.QUESTION_DOT)
	p.nextToken()
	prop := p.parseIdentifierAsPropertyName()
	return &ast.MemberExpression{Token: tok, Object: object, Property: prop, Optional: optional}
}

// parseIdentifierAsPropertyName accepts any identifier-like token
// (including reserved words used as property names, e.g. obj.class).
func (p *Parser) parseIdentifierAsPropertyName() *ast.Identifier {
	id := &ast.Identifier{Token: p.curToken, Name: p.curToken.Literal}
	p.nextToken()
	return id
}

func (p *Parser) parseComputedMemberExpression(object ast.Expression) ast.Expression {
	tok := p.curToken
	p.nextToken() // consume '['
	prop := p.parseExpression(LOWEST)
	p.expectConsume(token.RBRACKET, "computed member access")
	return &ast.MemberExpression{Token: tok, Object: object, Property: prop, Computed: true}
}

func (p *Parser) parseCallExpression(callee ast.Expression) ast.Expression {
	tok := p.curToken
	args := p.parseArgumentList()
	return &ast.CallExpression{Token: tok, Callee: callee, Arguments: args}
}

func (p *Parser) parseArgumentList() []ast.Expression {
	var args []ast.Expression
	p.nextToken() // consume '('
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		if p.curIs(token.ELLIPSIS) {
			tok := p.curToken
			p.nextToken()
			args = append(args, &ast.SpreadElement{Token: tok, Expression: p.parseExpression(LOWEST)})
		} else {
			args = append(args, p.parseExpression(LOWEST))
		}
		if p.curIs(token.COMMA) {
			p.nextToken()
		}
	}
	p.expectConsume(token.RPAREN, "argument list")
	return args
}

func (p *Parser) parseNewExpression() ast.Expression {
	tok := p.curToken
	p.nextToken()
	if p.curIs(token.DOT) {
		p.nextToken() // consume '.'
		prop := p.parseIdentifierAsPropertyName()
		if prop.Name != "target" {
			p.addError("expected 'target' after 'new.', got %q", prop.Name)
		}
		return &ast.NewTargetExpression{Token: tok}
	}
	callee := p.parseExpression(CALL)
	// if the callee parse already consumed a call (new Foo()), unwrap it so
	// the arguments belong to NewExpression instead of a nested CallExpression.
	if call, ok := callee.(*ast.CallExpression); ok {
		return &ast.NewExpression{Token: tok, Callee: call.Callee, Arguments: call.Arguments}
	}
	var args []ast.Expression
	if p.curIs(token.LPAREN) {
		args = p.parseArgumentList()
	}
	return &ast.NewExpression{Token: tok, Callee: callee, Arguments: args}
}

// parseGroupedOrArrow disambiguates `(expr)` from an arrow function's
// parameter list by attempting the arrow-function parse first and falling
// back to a grouped expression when the tokens that follow the ')' aren't
// '=>'.
func (p *Parser) parseGroupedOrArrow() ast.Expression {
	if fn := p.tryParseArrowFunction(); fn != nil {
		return fn
	}
	tok := p.curToken
	p.nextToken() // consume '('
	expr := p.parseExpression(LOWEST)
	if p.curIs(token.COMMA) {
		seq := &ast.SequenceExpression{Token: tok, Expressions: []ast.Expression{expr}}
		for p.curIs(token.COMMA) {
			p.nextToken()
			seq.Expressions = append(seq.Expressions, p.parseExpression(LOWEST))
		}
		expr = seq
	}
	p.expectConsume(token.RPAREN, "grouped expression")
	return expr
}

func (p *Parser) parseAsyncExpression() ast.Expression {
	// async function expression
	if p.peekIs(token.FUNCTION) {
		p.nextToken() // consume 'async', leaving curToken on 'function'
		fn := p.parseFunctionExpression().(*ast.FunctionLiteral)
		fn.IsAsync = true
		return fn
	}

	snapshot := p.save()
	asyncTok := p.curToken
	p.nextToken() // tentatively consume 'async'
	if fn := p.tryParseArrowFunction(); fn != nil {
		fn.IsAsync = true
		return fn
	}
	// not actually an arrow function; "async" was a plain identifier reference
	p.restore(snapshot)
	id := &ast.Identifier{Token: asyncTok, Name: asyncTok.Literal}
	p.nextToken()
	return id
}
