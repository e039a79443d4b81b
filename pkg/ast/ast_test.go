package ast

import (
	"testing"

	"github.com/thymelang/thyme/pkg/lexer"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{
			name: "call with mixed args",
			node: &CallExpr{
				Name: "find",
				Args: nil,
				Named: []NamedArg{
					{Name: "path", Value: &StringLiteral{Value: "inbox"}},
				},
			},
			want: `find(path: "inbox")`,
		},
		{
			name: "bare identifier renders without parens",
			node: &CallExpr{Name: "date"},
			want: "date",
		},
		{
			name: "current note property",
			node: &PropertyAccess{
				Target: &CurrentNoteRef{},
				Name:   "name",
			},
			want: ".name",
		},
		{
			name: "method call on current note",
			node: &MethodCall{
				Target: &CurrentNoteRef{},
				Name:   "up",
				Args:   []Expression{&NumberLiteral{Value: 2}},
			},
			want: ".up(2)",
		},
		{
			name: "assignment",
			node: &Assignment{
				Target: &PropertyAccess{Target: &CurrentNoteRef{}, Name: "path"},
				Value:  &StringLiteral{Value: "archive/x"},
			},
			want: `.path: "archive/x"`,
		},
		{
			name: "statement list",
			node: &StatementList{
				Statements: []Expression{
					&Assignment{Target: &VariableRef{Name: "x"}, Value: &NumberLiteral{Value: 5}},
					&CallExpr{Name: "x"},
				},
			},
			want: "x: 5; x",
		},
		{
			name: "block lambda",
			node: &LambdaExpr{
				Body: &CallExpr{
					Name:  "new",
					Named: []NamedArg{{Name: "path", Value: &StringLiteral{Value: "x"}}},
				},
			},
			want: `[new(path: "x")]`,
		},
		{
			name: "one parameter lambda",
			node: &LambdaExpr{
				Params: []string{"n"},
				Body: &PropertyAccess{
					Target: &CallExpr{Name: "n"},
					Name:   "modified",
				},
			},
			want: "n: n.modified",
		},
		{
			name: "pattern",
			node: &PatternExpr{
				Elements: []PatternElement{
					{Class: ClassDigit, Quant: Quantifier{Kind: QuantExact, N: 4}},
					{Literal: "-"},
					{Class: ClassLetter, Quant: Quantifier{Kind: QuantRange, N: 2, Max: -1}},
					{Class: ClassAny, Quant: Quantifier{Kind: QuantAny}},
				},
			},
			want: `pattern(digit*4, "-", letter*(2..), any*any)`,
		},
		{
			name: "number formatting drops trailing zeros",
			node: &NumberLiteral{Value: 12},
			want: "12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOffsets(t *testing.T) {
	// Nodes report the offset of their first token; composite nodes report
	// their target's offset so errors point at the start of the chain.
	target := &CallExpr{Token: lexer.Token{Type: lexer.IDENT, Literal: "n", Offset: 7}, Name: "n"}
	prop := &PropertyAccess{
		Token:      lexer.Token{Type: lexer.DOT, Offset: 8},
		Target:     target,
		Name:       "modified",
		NameOffset: 9,
	}

	if got := prop.Offset(); got != 7 {
		t.Errorf("PropertyAccess.Offset() = %d, want 7", got)
	}

	directive := &Directive{Expression: prop, SourceText: "[n.modified]", StartOffset: 42}
	if got := directive.Offset(); got != 42 {
		t.Errorf("Directive.Offset() = %d, want 42", got)
	}
	if got := directive.String(); got != "[n.modified]" {
		t.Errorf("Directive.String() = %q, want source text", got)
	}
}
