// Package token defines the lexical token kinds and source positions shared
// by the lexer, parser, and semantic analyzer.
package token

import "fmt"

// Position identifies a single point in source text.
type Position struct {
	Line   int // 1-based
	Column int // 1-based, counted in runes
	Offset int // 0-based byte offset
}

// String renders the position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span covers a contiguous range of source text, start inclusive, end exclusive.
type Span struct {
	Start Position
	End   Position
}

// Kind identifies the lexical category of a Token.
type Kind int

// Token kinds, grouped by category.
const (
	ILLEGAL Kind = iota // unrecognized character, lexer fallback token
	EOF                 // end of input, always the final token

	COMMENT // line or block comment (only emitted when preserving comments)

	literalBegin
	IDENT     // identifiers: x, myVar, $el, _private
	NUMBER    // 123, 1.5e10, 0x1F, 0b101, 0o17
	BIGINT    // 123n
	STRING    // 'hello', "world"
	TEMPLATE  // `hello ${name}`
	REGEXP    // /ab+c/gi
	literalEnd

	keywordBegin
	TRUE
	FALSE
	NULL
	UNDEFINED
	VAR
	LET
	CONST
	FUNCTION
	RETURN
	IF
	ELSE
	FOR
	WHILE
	DO
	BREAK
	CONTINUE
	SWITCH
	CASE
	DEFAULT
	TRY
	CATCH
	FINALLY
	THROW
	NEW
	DELETE
	TYPEOF
	VOID
	INSTANCEOF
	IN
	THIS
	SUPER
	CLASS
	EXTENDS
	STATIC
	GET
	SET
	YIELD
	ASYNC
	AWAIT
	IMPORT
	EXPORT
	FROM
	AS
	OF
	WITH
	DEBUGGER
	keywordEnd

	punctBegin
	LBRACE    // {
	RBRACE    // }
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]
	SEMICOLON // ;
	COMMA     // ,
	DOT       // .
	ELLIPSIS  // ...
	QUESTION  // ?
	QUESTION_DOT   // ?.
	QUESTION_QUESTION // ??
	COLON     // :
	ARROW     // =>
	HASH      // # (private field marker)

	ASSIGN          // =
	PLUS_ASSIGN     // +=
	MINUS_ASSIGN    // -=
	STAR_ASSIGN     // *=
	SLASH_ASSIGN    // /=
	PERCENT_ASSIGN  // %=
	POW_ASSIGN      // **=
	SHL_ASSIGN      // <<=
	SHR_ASSIGN      // >>=
	USHR_ASSIGN     // >>>=
	AND_ASSIGN      // &=
	OR_ASSIGN       // |=
	XOR_ASSIGN      // ^=
	LOGICAL_AND_ASSIGN // &&=
	LOGICAL_OR_ASSIGN  // ||=
	NULLISH_ASSIGN     // ??=

	PLUS     // +
	MINUS    // -
	STAR     // *
	SLASH    // /
	PERCENT  // %
	POW      // **
	INC      // ++
	DEC      // --

	EQ        // ==
	NEQ       // !=
	STRICT_EQ // ===
	STRICT_NEQ // !==
	LT        // <
	GT        // >
	LE        // <=
	GE        // >=

	LOGICAL_AND // &&
	LOGICAL_OR  // ||
	LOGICAL_NOT // !

	AMP     // &
	PIPE    // |
	CARET   // ^
	TILDE   // ~
	SHL     // <<
	SHR     // >>
	USHR    // >>>
	punctEnd
)

var names = map[Kind]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF", COMMENT: "COMMENT",
	IDENT: "IDENT", NUMBER: "NUMBER", BIGINT: "BIGINT", STRING: "STRING",
	TEMPLATE: "TEMPLATE", REGEXP: "REGEXP",
	TRUE: "true", FALSE: "false", NULL: "null", UNDEFINED: "undefined",
	VAR: "var", LET: "let", CONST: "const", FUNCTION: "function", RETURN: "return",
	IF: "if", ELSE: "else", FOR: "for", WHILE: "while", DO: "do",
	BREAK: "break", CONTINUE: "continue", SWITCH: "switch", CASE: "case",
	DEFAULT: "default", TRY: "try", CATCH: "catch", FINALLY: "finally",
	THROW: "throw", NEW: "new", DELETE: "delete", TYPEOF: "typeof", VOID: "void",
	INSTANCEOF: "instanceof", IN: "in", THIS: "this", SUPER: "super",
	CLASS: "class", EXTENDS: "extends", STATIC: "static", GET: "get", SET: "set",
	YIELD: "yield", ASYNC: "async", AWAIT: "await", IMPORT: "import",
	EXPORT: "export", FROM: "from", AS: "as", OF: "of", WITH: "with",
	DEBUGGER: "debugger",
	LBRACE: "{", RBRACE: "}", LPAREN: "(", RPAREN: ")", LBRACKET: "[", RBRACKET: "]",
	SEMICOLON: ";", COMMA: ",", DOT: ".", ELLIPSIS: "...", QUESTION: "?",
	QUESTION_DOT: "?.", QUESTION_QUESTION: "??", COLON: ":", ARROW: "=>", HASH: "#",
	ASSIGN: "=", PLUS_ASSIGN: "+=", MINUS_ASSIGN: "-=", STAR_ASSIGN: "*=",
	SLASH_ASSIGN: "/=", PERCENT_ASSIGN: "%=", POW_ASSIGN: "**=",
	SHL_ASSIGN: "<<=", SHR_ASSIGN: ">>=", USHR_ASSIGN: ">>>=",
	AND_ASSIGN: "&=", OR_ASSIGN: "|=", XOR_ASSIGN: "^=",
	LOGICAL_AND_ASSIGN: "&&=", LOGICAL_OR_ASSIGN: "||=", NULLISH_ASSIGN: "??=",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%", POW: "**",
	INC: "++", DEC: "--",
	EQ: "==", NEQ: "!=", STRICT_EQ: "===", STRICT_NEQ: "!==",
	LT: "<", GT: ">", LE: "<=", GE: ">=",
	LOGICAL_AND: "&&", LOGICAL_OR: "||", LOGICAL_NOT: "!",
	AMP: "&", PIPE: "|", CARET: "^", TILDE: "~", SHL: "<<", SHR: ">>", USHR: ">>>",
}

// String returns the canonical spelling or symbolic name of the kind.
func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsLiteral reports whether the kind is one of the literal token kinds.
func (k Kind) IsLiteral() bool { return k > literalBegin && k < literalEnd }

// IsKeyword reports whether the kind is a reserved word.
func (k Kind) IsKeyword() bool { return k > keywordBegin && k < keywordEnd }

// keywords maps the reserved-word spelling to its Kind, used by the lexer to
// decide whether a scanned identifier is actually a keyword.
var keywords map[string]Kind

func init() {
	keywords = make(map[string]Kind, int(keywordEnd-keywordBegin))
	for k := keywordBegin + 1; k < keywordEnd; k++ {
		keywords[names[k]] = k
	}
	// literal keywords live outside the keyword range but still resolve by spelling
	keywords["true"] = TRUE
	keywords["false"] = FALSE
	keywords["null"] = NULL
	keywords["undefined"] = UNDEFINED
}

// Lookup returns the keyword Kind for ident, or IDENT if it is not reserved.
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return IDENT
}

// Token is a single lexical unit: its kind, literal text, and source span.
type Token struct {
	Kind    Kind
	Literal string
	Span    Span
}

// String renders a short debug form, e.g. "IDENT(foo)@3:5".
func (t Token) String() string {
	return fmt.Sprintf("%s(%s)@%s", t.Kind, t.Literal, t.Span.Start)
}
