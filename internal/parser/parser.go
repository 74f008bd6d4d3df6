// Package parser implements a recursive-descent parser with Pratt
// (precedence-climbing) expression parsing, producing an internal/ast tree
// from an internal/lexer token stream.
package parser

import (
	"fmt"

	"github.com/ecmago/engine/internal/ast"
	"github.com/ecmago/engine/internal/lexer"
	"github.com/ecmago/engine/internal/token"
)

// Precedence levels, lowest to highest.
const (
	_ int = iota
	LOWEST
	ASSIGN     // = += -= ...
	CONDITIONAL // ?:
	NULLISH    // ??
	LOGICAL_OR  // ||
	LOGICAL_AND // &&
	BITOR      // |
	BITXOR     // ^
	BITAND     // &
	EQUALS     // == != === !==
	RELATIONAL // < > <= >= instanceof in
	SHIFT      // << >> >>>
	SUM        // + -
	PRODUCT    // * / %
	EXPONENT   // **
	PREFIX     // -x !x ~x typeof x void x delete x ++x --x
	POSTFIX    // x++ x--
	CALL       // f(args)
	MEMBER     // obj.prop obj[expr]
)

var precedences = map[token.Kind]int{
	token.ASSIGN: ASSIGN, token.PLUS_ASSIGN: ASSIGN, token.MINUS_ASSIGN: ASSIGN,
	token.STAR_ASSIGN: ASSIGN, token.SLASH_ASSIGN: ASSIGN, token.PERCENT_ASSIGN: ASSIGN,
	token.POW_ASSIGN: ASSIGN, token.SHL_ASSIGN: ASSIGN, token.SHR_ASSIGN: ASSIGN,
	token.USHR_ASSIGN: ASSIGN, token.AND_ASSIGN: ASSIGN, token.OR_ASSIGN: ASSIGN,
	token.XOR_ASSIGN: ASSIGN, token.LOGICAL_AND_ASSIGN: ASSIGN,
	token.LOGICAL_OR_ASSIGN: ASSIGN, token.NULLISH_ASSIGN: ASSIGN,

	token.QUESTION: CONDITIONAL,
	token.QUESTION_QUESTION: NULLISH,
	token.LOGICAL_OR:        LOGICAL_OR,
	token.LOGICAL_AND:       LOGICAL_AND,
	token.PIPE:              BITOR,
	token.CARET:             BITXOR,
	token.AMP:               BITAND,
	token.EQ: EQUALS, token.NEQ: EQUALS, token.STRICT_EQ: EQUALS, token.STRICT_NEQ: EQUALS,
	token.LT: RELATIONAL, token.GT: RELATIONAL, token.LE: RELATIONAL, token.GE: RELATIONAL,
	token.INSTANCEOF: RELATIONAL, token.IN: RELATIONAL,
	token.SHL: SHIFT, token.SHR: SHIFT, token.USHR: SHIFT,
	token.PLUS: SUM, token.MINUS: SUM,
	token.STAR: PRODUCT, token.SLASH: PRODUCT, token.PERCENT: PRODUCT,
	token.POW: EXPONENT,
	token.INC: POSTFIX, token.DEC: POSTFIX,
	token.LPAREN: CALL,
	token.DOT: MEMBER, token.QUESTION_DOT: MEMBER, token.LBRACKET: MEMBER,
}

// assignmentOps is the set of tokens recognized by parseAssignmentExpression.
var assignmentOps = map[token.Kind]bool{
	token.ASSIGN: true, token.PLUS_ASSIGN: true, token.MINUS_ASSIGN: true,
	token.STAR_ASSIGN: true, token.SLASH_ASSIGN: true, token.PERCENT_ASSIGN: true,
	token.POW_ASSIGN: true, token.SHL_ASSIGN: true, token.SHR_ASSIGN: true,
	token.USHR_ASSIGN: true, token.AND_ASSIGN: true, token.OR_ASSIGN: true,
	token.XOR_ASSIGN: true, token.LOGICAL_AND_ASSIGN: true,
	token.LOGICAL_OR_ASSIGN: true, token.NULLISH_ASSIGN: true,
}

// statementStarters synchronizes panic-mode recovery on tokens that can
// legally begin a new statement.
var statementStarters = map[token.Kind]bool{
	token.VAR: true, token.LET: true, token.CONST: true, token.FUNCTION: true,
	token.CLASS: true, token.IF: true, token.FOR: true, token.WHILE: true,
	token.DO: true, token.RETURN: true, token.BREAK: true, token.CONTINUE: true,
	token.THROW: true, token.TRY: true, token.SWITCH: true, token.LBRACE: true,
	token.SEMICOLON: true, token.IMPORT: true, token.EXPORT: true,
}

// Error describes a single parse failure.
type Error struct {
	Message string
	Pos     token.Position
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

type prefixParseFn func() ast.Expression
type infixParseFn func(ast.Expression) ast.Expression

// Parser turns a token stream into an *ast.Program.
type Parser struct {
	l      *lexer.Lexer
	errors []Error

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.Kind]prefixParseFn
	infixParseFns  map[token.Kind]infixParseFn

	inFunctionBody int // depth counter; >0 means "return" is legal
	inLoop         int // depth counter; >0 means break/continue target a loop
	inSwitch       int // depth counter; >0 means break targets the switch
}

// New constructs a Parser reading tokens from l, primed with two tokens of
// lookahead (curToken/peekToken).
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	p.prefixParseFns = map[token.Kind]prefixParseFn{
		token.IDENT: func() ast.Expression {
			if p.peekIs(token.ARROW) {
				return p.tryParseArrowFunction()
			}
			return p.parseIdentifier()
		},
		token.NUMBER:    p.parseNumberLiteral,
		token.BIGINT:    p.parseBigIntLiteral,
		token.STRING:    p.parseStringLiteral,
		token.TEMPLATE:  p.parseTemplateLiteral,
		token.REGEXP:    p.parseRegExpLiteral,
		token.TRUE:      p.parseBooleanLiteral,
		token.FALSE:     p.parseBooleanLiteral,
		token.NULL:      p.parseNullLiteral,
		token.UNDEFINED: p.parseUndefinedLiteral,
		token.THIS:      p.parseThisExpression,
		token.SUPER:     p.parseSuperExpression,
		token.LPAREN:    p.parseGroupedOrArrow,
		token.LBRACKET:  p.parseArrayLiteral,
		token.LBRACE:    p.parseObjectLiteral,
		token.FUNCTION:  p.parseFunctionExpression,
		token.CLASS:     p.parseClassExpression,
		token.NEW:       p.parseNewExpression,
		token.MINUS:     p.parseUnaryExpression,
		token.PLUS:      p.parseUnaryExpression,
		token.LOGICAL_NOT: p.parseUnaryExpression,
		token.TILDE:     p.parseUnaryExpression,
		token.TYPEOF:    p.parseUnaryExpression,
		token.VOID:      p.parseUnaryExpression,
		token.DELETE:    p.parseUnaryExpression,
		token.INC:       p.parseUpdatePrefix,
		token.DEC:       p.parseUpdatePrefix,
		token.ASYNC:     p.parseAsyncExpression,
	}

	p.infixParseFns = map[token.Kind]infixParseFn{
		token.PLUS: p.parseBinaryExpression, token.MINUS: p.parseBinaryExpression,
		token.STAR: p.parseBinaryExpression, token.SLASH: p.parseBinaryExpression,
		token.PERCENT: p.parseBinaryExpression, token.POW: p.parseExponentExpression,
		token.EQ: p.parseBinaryExpression, token.NEQ: p.parseBinaryExpression,
		token.STRICT_EQ: p.parseBinaryExpression, token.STRICT_NEQ: p.parseBinaryExpression,
		token.LT: p.parseBinaryExpression, token.GT: p.parseBinaryExpression,
		token.LE: p.parseBinaryExpression, token.GE: p.parseBinaryExpression,
		token.INSTANCEOF: p.parseBinaryExpression, token.IN: p.parseBinaryExpression,
		token.SHL: p.parseBinaryExpression, token.SHR: p.parseBinaryExpression,
		token.USHR: p.parseBinaryExpression,
		token.AMP:  p.parseBinaryExpression, token.PIPE: p.parseBinaryExpression,
		token.CARET: p.parseBinaryExpression,
		token.LOGICAL_AND: p.parseLogicalExpression, token.LOGICAL_OR: p.parseLogicalExpression,
		token.QUESTION_QUESTION: p.parseLogicalExpression,
		token.QUESTION:          p.parseConditionalExpression,
		token.LPAREN:            p.parseCallExpression,
		token.DOT:               p.parseMemberExpression,
		token.QUESTION_DOT:      p.parseMemberExpression,
		token.LBRACKET:          p.parseComputedMemberExpression,
		token.INC:               p.parseUpdatePostfix,
		token.DEC:               p.parseUpdatePostfix,
	}
	for op := range assignmentOps {
		p.infixParseFns[op] = p.parseAssignmentExpression
	}

	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns accumulated parse errors.
func (p *Parser) Errors() []Error { return p.errors }

// LexerErrors returns lexical errors accumulated by the underlying lexer.
func (p *Parser) LexerErrors() []lexer.Error { return p.l.Errors() }

func (p *Parser) addError(format string, args ...any) {
	p.errors = append(p.errors, Error{Message: fmt.Sprintf(format, args...), Pos: p.curToken.Span.Start})
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// parserState is a snapshot used to backtrack out of a speculative parse,
// e.g. when probing whether a parenthesized expression is actually an arrow
// function's parameter list.
type parserState struct {
	lexState  lexer.State
	curToken  token.Token
	peekToken token.Token
	errCount  int
}

func (p *Parser) save() parserState {
	return parserState{
		lexState: p.l.Save(), curToken: p.curToken, peekToken: p.peekToken,
		errCount: len(p.errors),
	}
}

func (p *Parser) restore(s parserState) {
	p.l.Restore(s.lexState)
	p.curToken = s.curToken
	p.peekToken = s.peekToken
	p.errors = p.errors[:s.errCount]
}

func (p *Parser) curIs(k token.Kind) bool  { return p.curToken.Kind == k }
func (p *Parser) peekIs(k token.Kind) bool { return p.peekToken.Kind == k }

func (p *Parser) expectPeek(k token.Kind) bool {
	if p.peekIs(k) {
		p.nextToken()
		return true
	}
	p.addError("expected %s, got %s (%q)", k, p.peekToken.Kind, p.peekToken.Literal)
	return false
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Kind]; ok {
		return pr
	}
	return LOWEST
}

// synchronize implements panic-mode error recovery: it skips tokens until
// reaching EOF, a semicolon (consumed), or a token that can start a new
// statement.
func (p *Parser) synchronize() {
	for !p.curIs(token.EOF) {
		if p.curIs(token.SEMICOLON) {
			p.nextToken()
			return
		}
		if statementStarters[p.curToken.Kind] {
			return
		}
		p.nextToken()
	}
}

// consumeSemicolon implements Automatic Semicolon Insertion: a semicolon is
// consumed if present, otherwise one is inserted when the next token is a
// closing brace, EOF, or a line terminator was seen before it.
func (p *Parser) consumeSemicolon() {
	if p.curIs(token.SEMICOLON) {
		p.nextToken()
		return
	}
	if p.curIs(token.RBRACE) || p.curIs(token.EOF) {
		return
	}
	if p.l.SawNewlineBeforeLastToken() {
		return
	}
	p.addError("expected ';', got %s (%q)", p.curToken.Kind, p.curToken.Literal)
}

// ParseProgram parses the entire token stream into a Program, recovering
// from statement-level errors so a single mistake does not abort the whole
// parse.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.curIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
			if _, ok := stmt.(*ast.ImportDeclaration); ok {
				prog.IsModule = true
			}
			if _, ok := stmt.(*ast.ExportDeclaration); ok {
				prog.IsModule = true
			}
		} else {
			p.synchronize()
		}
	}
	return prog
}
