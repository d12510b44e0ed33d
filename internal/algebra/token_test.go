package algebra

import (
	"errors"
	"testing"

	"github.com/markb/raql/internal/syntax"
)

func TestLexerDefaultSyntax(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{
			name:  "selection with condition",
			input: `\select_{a = 1} R`,
			want: []Token{
				{Type: TokenOperator, Value: `\select`, Op: syntax.OpSelect},
				{Type: TokenParamStart, Value: "_{"},
				{Type: TokenIdent, Value: "a"},
				{Type: TokenComparator, Value: "="},
				{Type: TokenNumber, Value: "1"},
				{Type: TokenParamEnd, Value: "}"},
				{Type: TokenIdent, Value: "R"},
				{Type: TokenEOF},
			},
		},
		{
			name:  "projection with qualified attribute",
			input: `\project_{R.a, b} R`,
			want: []Token{
				{Type: TokenOperator, Value: `\project`, Op: syntax.OpProject},
				{Type: TokenParamStart, Value: "_{"},
				{Type: TokenIdent, Value: "R"},
				{Type: TokenDot, Value: "."},
				{Type: TokenIdent, Value: "a"},
				{Type: TokenComma, Value: ","},
				{Type: TokenIdent, Value: "b"},
				{Type: TokenParamEnd, Value: "}"},
				{Type: TokenIdent, Value: "R"},
				{Type: TokenEOF},
			},
		},
		{
			name:  "string literal and non-canonical comparator",
			input: `name <> 'O brien'`,
			want: []Token{
				{Type: TokenIdent, Value: "name"},
				{Type: TokenComparator, Value: "!="},
				{Type: TokenString, Value: "O brien"},
				{Type: TokenEOF},
			},
		},
		{
			name:  "connective keywords are case-insensitive",
			input: `a = 1 AND not b = 2`,
			want: []Token{
				{Type: TokenIdent, Value: "a"},
				{Type: TokenComparator, Value: "="},
				{Type: TokenNumber, Value: "1"},
				{Type: TokenAnd, Value: "AND"},
				{Type: TokenNot, Value: "not"},
				{Type: TokenIdent, Value: "b"},
				{Type: TokenComparator, Value: "="},
				{Type: TokenNumber, Value: "2"},
				{Type: TokenEOF},
			},
		},
		{
			name:  "operator prefix does not swallow identifiers",
			input: `\natural_join`,
			want: []Token{
				{Type: TokenOperator, Value: `\natural_join`, Op: syntax.OpNaturalJoin},
				{Type: TokenEOF},
			},
		},
		{
			name:  "line comment",
			input: "R -- trailing words\n\\union S",
			want: []Token{
				{Type: TokenIdent, Value: "R"},
				{Type: TokenOperator, Value: `\union`, Op: syntax.OpUnion},
				{Type: TokenIdent, Value: "S"},
				{Type: TokenEOF},
			},
		},
		{
			name:  "decimal number",
			input: `price >= 4.5`,
			want: []Token{
				{Type: TokenIdent, Value: "price"},
				{Type: TokenComparator, Value: ">="},
				{Type: TokenNumber, Value: "4.5"},
				{Type: TokenEOF},
			},
		},
	}

	st := syntax.Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLexer(tt.input, st).Tokenize()
			if err != nil {
				t.Fatalf("Tokenize() error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d tokens, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, tok := range got {
				w := tt.want[i]
				if tok.Type != w.Type || tok.Value != w.Value || tok.Op != w.Op {
					t.Errorf("token %d = {%s %q %v}, want {%s %q %v}",
						i, TokenTypeName(tok.Type), tok.Value, tok.Op,
						TokenTypeName(w.Type), w.Value, w.Op)
				}
			}
		})
	}
}

func TestLexerGlyphSyntax(t *testing.T) {
	st := syntax.Glyphs()
	got, err := NewLexer(`σ_{a = 1} R ÷ S`, st).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() error: %v", err)
	}
	types := []TokenType{
		TokenOperator, TokenParamStart, TokenIdent, TokenComparator,
		TokenNumber, TokenParamEnd, TokenIdent, TokenOperator, TokenIdent,
		TokenEOF,
	}
	if len(got) != len(types) {
		t.Fatalf("got %d tokens, want %d: %+v", len(got), len(types), got)
	}
	for i, tok := range got {
		if tok.Type != types[i] {
			t.Errorf("token %d type = %s, want %s", i, TokenTypeName(tok.Type), TokenTypeName(types[i]))
		}
	}
	if got[0].Op != syntax.OpSelect {
		t.Errorf("token 0 op = %v, want OpSelect", got[0].Op)
	}
	if got[7].Op != syntax.OpDivide {
		t.Errorf("token 7 op = %v, want OpDivide", got[7].Op)
	}
}

func TestLexerPositions(t *testing.T) {
	st := syntax.Default()
	got, err := NewLexer("R\n  \\union S", st).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() error: %v", err)
	}
	if got[0].Pos.Line != 1 || got[0].Pos.Column != 1 {
		t.Errorf("R at %s, want 1:1", got[0].Pos)
	}
	if got[1].Pos.Line != 2 || got[1].Pos.Column != 3 {
		t.Errorf("\\union at %s, want 2:3", got[1].Pos)
	}
	if got[2].Pos.Line != 2 || got[2].Pos.Column != 10 {
		t.Errorf("S at %s, want 2:10", got[2].Pos)
	}
}

func TestLexerErrors(t *testing.T) {
	st := syntax.Default()

	_, err := NewLexer(`R ? S`, st).Tokenize()
	var lexErr *LexError
	if !errors.As(err, &lexErr) {
		t.Fatalf("Tokenize() error = %v, want *LexError", err)
	}
	if lexErr.Char != '?' {
		t.Errorf("LexError.Char = %q, want '?'", lexErr.Char)
	}

	_, err = NewLexer(`name = 'unclosed`, st).Tokenize()
	if !errors.As(err, &lexErr) {
		t.Fatalf("Tokenize() error = %v, want *LexError", err)
	}
	if !lexErr.Unterminated {
		t.Errorf("LexError.Unterminated = false, want true")
	}
}
