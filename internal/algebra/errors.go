package algebra

import "fmt"

// LexError reports a character the lexer could not tokenize.
type LexError struct {
	Pos  Position
	Char rune
	// Unterminated is set when a string literal is missing its closing
	// quote; Char then holds the quote character.
	Unterminated bool
}

func (e *LexError) Error() string {
	if e.Unterminated {
		return fmt.Sprintf("unterminated string literal at %s", e.Pos)
	}
	return fmt.Sprintf("unexpected character %q at %s", e.Char, e.Pos)
}

// ParseError reports a token that does not fit the grammar.
type ParseError struct {
	Pos      Position
	Expected string
	Got      string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("expected %s, got %s at %s", e.Expected, e.Got, e.Pos)
}

func newParseError(expected string, tok Token) *ParseError {
	got := TokenTypeName(tok.Type)
	if tok.Value != "" && tok.Type != TokenEOF {
		got = fmt.Sprintf("%s %q", got, tok.Value)
	}
	return &ParseError{Pos: tok.Pos, Expected: expected, Got: got}
}
