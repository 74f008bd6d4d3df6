package ast

import (
	"testing"

	"github.com/ecmago/engine/internal/token"
)

func ident(name string) *Identifier {
	return &Identifier{Token: token.Token{Kind: token.IDENT, Literal: name}, Name: name}
}

func TestProgramString(t *testing.T) {
	prog := &Program{
		Statements: []Statement{
			&VariableDeclaration{
				Token: token.Token{Kind: token.LET, Literal: "let"},
				Kind:  VarKindLet,
				Declarations: []*VariableDeclarator{
					{Target: ident("x"), Init: &NumberLiteral{Token: token.Token{Literal: "5"}, Value: 5}},
				},
			},
		},
	}
	want := "let x = 5;\n"
	if got := prog.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestWalkVisitsEveryNode(t *testing.T) {
	prog := &Program{
		Statements: []Statement{
			&ExpressionStatement{
				Expression: &BinaryExpression{
					Left:     ident("a"),
					Operator: "+",
					Right:    ident("b"),
				},
			},
		},
	}

	var count int
	Inspect(prog, func(n Node) bool {
		count++
		return true
	})

	// Program, ExpressionStatement, BinaryExpression, Identifier(a), Identifier(b)
	if count != 5 {
		t.Fatalf("expected 5 visited nodes, got %d", count)
	}
}

func TestInspectCanPrune(t *testing.T) {
	prog := &Program{
		Statements: []Statement{
			&BlockStatement{
				Statements: []Statement{
					&ExpressionStatement{Expression: ident("x")},
				},
			},
		},
	}

	var sawIdentifier bool
	Inspect(prog, func(n Node) bool {
		if _, ok := n.(*BlockStatement); ok {
			return false // prune: don't descend into the block
		}
		if _, ok := n.(*Identifier); ok {
			sawIdentifier = true
		}
		return true
	})

	if sawIdentifier {
		t.Fatalf("expected pruning to prevent visiting the identifier inside the block")
	}
}
