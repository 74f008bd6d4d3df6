package lexer

import (
	"testing"

	"github.com/ecmago/engine/internal/token"
)

func TestNextTokenBasic(t *testing.T) {
	input := `let x = 5;
	x = x + 10;
	`

	tests := []struct {
		kind    token.Kind
		literal string
	}{
		{token.LET, "let"},
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.NUMBER, "5"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.IDENT, "x"},
		{token.PLUS, "+"},
		{token.NUMBER, "10"},
		{token.SEMICOLON, ";"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Kind != tt.kind {
			t.Fatalf("tests[%d] - kind wrong. expected=%s, got=%s (literal=%q)", i, tt.kind, tok.Kind, tok.Literal)
		}
		if tok.Literal != tt.literal {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.literal, tok.Literal)
		}
	}
}

func TestKeywords(t *testing.T) {
	input := "var let const function return if else for while do break continue " +
		"switch case default try catch finally throw new delete typeof void " +
		"instanceof in this super class extends static get set yield async await " +
		"import export from as of with debugger true false null undefined"

	expected := []token.Kind{
		token.VAR, token.LET, token.CONST, token.FUNCTION, token.RETURN, token.IF,
		token.ELSE, token.FOR, token.WHILE, token.DO, token.BREAK, token.CONTINUE,
		token.SWITCH, token.CASE, token.DEFAULT, token.TRY, token.CATCH, token.FINALLY,
		token.THROW, token.NEW, token.DELETE, token.TYPEOF, token.VOID, token.INSTANCEOF,
		token.IN, token.THIS, token.SUPER, token.CLASS, token.EXTENDS, token.STATIC,
		token.GET, token.SET, token.YIELD, token.ASYNC, token.AWAIT, token.IMPORT,
		token.EXPORT, token.FROM, token.AS, token.OF, token.WITH, token.DEBUGGER,
		token.TRUE, token.FALSE, token.NULL, token.UNDEFINED,
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Kind != want {
			t.Fatalf("word[%d] - expected=%s, got=%s (literal=%q)", i, want, tok.Kind, tok.Literal)
		}
	}
	if eof := l.NextToken(); eof.Kind != token.EOF {
		t.Fatalf("expected EOF, got %s", eof.Kind)
	}
}

func TestOperatorMaximalMunch(t *testing.T) {
	input := ">>>= >>> >>= << <<= ** **= === !== == != <= >= && &&= || ||= ?? ??= ?. ... => ++ --"

	expected := []token.Kind{
		token.USHR_ASSIGN, token.USHR, token.SHR_ASSIGN, token.SHL, token.SHL_ASSIGN,
		token.POW, token.POW_ASSIGN, token.STRICT_EQ, token.STRICT_NEQ, token.EQ,
		token.NEQ, token.LE, token.GE, token.LOGICAL_AND, token.LOGICAL_AND_ASSIGN,
		token.LOGICAL_OR, token.LOGICAL_OR_ASSIGN, token.QUESTION_QUESTION,
		token.NULLISH_ASSIGN, token.QUESTION_DOT, token.ELLIPSIS, token.ARROW,
		token.INC, token.DEC,
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Kind != want {
			t.Fatalf("op[%d] - expected=%s, got=%s (literal=%q)", i, want, tok.Kind, tok.Literal)
		}
	}
}

func TestRegexVsDivisionDisambiguation(t *testing.T) {
	// After an identifier, '/' is division.
	l := New("a / b")
	tok := l.NextToken()
	if tok.Kind != token.IDENT {
		t.Fatalf("expected IDENT, got %s", tok.Kind)
	}
	tok = l.NextToken()
	if tok.Kind != token.SLASH {
		t.Fatalf("expected SLASH after identifier, got %s (%q)", tok.Kind, tok.Literal)
	}

	// After '=', '/' opens a regex literal.
	l2 := New("x = /ab+c/gi")
	l2.NextToken() // x
	l2.NextToken() // =
	tok2 := l2.NextToken()
	if tok2.Kind != token.REGEXP {
		t.Fatalf("expected REGEXP, got %s (%q)", tok2.Kind, tok2.Literal)
	}
	if tok2.Literal != "/ab+c/gi" {
		t.Fatalf("unexpected regex literal: %q", tok2.Literal)
	}
}

func TestStringEscapes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"hi\n"`, "hi\n"},
		{`'it\'s'`, "it's"},
		{`"\x41"`, "A"},
		{`"A"`, "A"},
		{`"\u{1F600}"`, "\U0001F600"},
	}
	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Kind != token.STRING {
			t.Fatalf("input %q: expected STRING, got %s", tt.input, tok.Kind)
		}
		if tok.Literal != tt.want {
			t.Fatalf("input %q: expected %q, got %q", tt.input, tt.want, tok.Literal)
		}
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
	}{
		{"123", token.NUMBER},
		{"1.5e10", token.NUMBER},
		{"0x1F", token.NUMBER},
		{"0b101", token.NUMBER},
		{"0o17", token.NUMBER},
		{"123n", token.BIGINT},
	}
	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Kind != tt.kind {
			t.Fatalf("input %q: expected %s, got %s", tt.input, tt.kind, tok.Kind)
		}
	}
}

func TestTemplateLiteralCapturesSubstitutions(t *testing.T) {
	l := New("`hello ${name}!`")
	tok := l.NextToken()
	if tok.Kind != token.TEMPLATE {
		t.Fatalf("expected TEMPLATE, got %s", tok.Kind)
	}
	if tok.Literal != "`hello ${name}!`" {
		t.Fatalf("unexpected template literal: %q", tok.Literal)
	}
}

func TestUnterminatedStringRecordsError(t *testing.T) {
	l := New(`"unterminated`)
	l.NextToken()
	errs := l.Errors()
	if len(errs) != 1 || errs[0].Kind != "UnterminatedString" {
		t.Fatalf("expected one UnterminatedString error, got %+v", errs)
	}
}

func TestASINewlineTracking(t *testing.T) {
	l := New("a\nb")
	l.NextToken() // a
	if l.SawNewlineBeforeLastToken() {
		t.Fatalf("should not report newline before first token")
	}
	l.NextToken() // b
	if !l.SawNewlineBeforeLastToken() {
		t.Fatalf("expected newline to be reported before second token")
	}
}
