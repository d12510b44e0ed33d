// Package algebra lexes and parses relational algebra statements into an
// unresolved abstract syntax tree. The surface syntax is supplied by a
// syntax.SymbolTable; nothing in this package assumes a particular notation.
package algebra

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/markb/raql/internal/syntax"
)

// TokenType classifies a lexical token.
type TokenType int

const (
	// TokenEOF marks the end of input.
	TokenEOF TokenType = iota
	// TokenOperator is a relational algebra operator symbol.
	TokenOperator
	// TokenIdent is a relation or attribute name.
	TokenIdent
	// TokenNumber is a numeric literal like 1 or 4.5.
	TokenNumber
	// TokenString is a quoted text literal like 'foo'.
	TokenString
	// TokenComparator is a comparison operator, stored in canonical form.
	TokenComparator
	// TokenAnd, TokenOr, and TokenNot are the logical connectives.
	TokenAnd
	TokenOr
	TokenNot
	// TokenParamStart and TokenParamEnd delimit operator parameters.
	TokenParamStart
	TokenParamEnd
	TokenLParen
	TokenRParen
	TokenComma
	TokenDot
	TokenSemicolon
)

// Token is a lexical token with its source position.
type Token struct {
	Type  TokenType
	Value string
	// Op is set for TokenOperator.
	Op  syntax.Operator
	Pos Position
}

// Position is a location in the source statement.
type Position struct {
	Offset int `json:"offset"` // byte offset
	Line   int `json:"line"`   // 1-based
	Column int `json:"column"` // 1-based, in runes
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// TokenTypeName returns a human-readable name for a token type, used in
// parse error messages.
func TokenTypeName(t TokenType) string {
	switch t {
	case TokenEOF:
		return "end of input"
	case TokenOperator:
		return "operator"
	case TokenIdent:
		return "identifier"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenComparator:
		return "comparison operator"
	case TokenAnd:
		return "and"
	case TokenOr:
		return "or"
	case TokenNot:
		return "not"
	case TokenParamStart:
		return "parameter start"
	case TokenParamEnd:
		return "}"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenComma:
		return ","
	case TokenDot:
		return "."
	case TokenSemicolon:
		return ";"
	}
	return fmt.Sprintf("token(%d)", t)
}

// Lexer tokenizes a relational algebra statement.
type Lexer struct {
	input string
	st    *syntax.SymbolTable
	match []string // symbols to prefix-match, longest first

	pos  int // byte offset of current rune
	ch   rune
	w    int // width of current rune
	line int
	col  int
}

// NewLexer creates a lexer for the given input and symbol table.
func NewLexer(input string, st *syntax.SymbolTable) *Lexer {
	l := &Lexer{
		input: input,
		st:    st,
		match: st.MatchTokens(),
		line:  1,
		col:   0,
	}
	l.readRune()
	return l
}

func (l *Lexer) readRune() {
	l.pos += l.w
	if l.pos >= len(l.input) {
		l.ch = 0
		l.w = 0
		l.col++
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	if l.ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.ch = r
	l.w = w
}

func (l *Lexer) position() Position {
	return Position{Offset: l.pos, Line: l.line, Column: l.col}
}

// advance consumes n bytes starting at the current rune.
func (l *Lexer) advance(n int) {
	end := l.pos + n
	for l.pos < end && l.ch != 0 {
		l.readRune()
	}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() (Token, error) {
	l.skipSpace()

	pos := l.position()

	if l.ch == 0 {
		return Token{Type: TokenEOF, Pos: pos}, nil
	}

	// Configured symbols take priority over every fixed rule so that a
	// table may define glyph operators (σ, ÷) or multi-character symbols.
	if sym, ok := l.matchSymbol(); ok {
		l.advance(len(sym))
		return l.symbolToken(sym, pos), nil
	}

	switch l.ch {
	case '(':
		l.readRune()
		return Token{Type: TokenLParen, Value: "(", Pos: pos}, nil
	case ')':
		l.readRune()
		return Token{Type: TokenRParen, Value: ")", Pos: pos}, nil
	case ',':
		l.readRune()
		return Token{Type: TokenComma, Value: ",", Pos: pos}, nil
	case '.':
		l.readRune()
		return Token{Type: TokenDot, Value: ".", Pos: pos}, nil
	case ';':
		l.readRune()
		return Token{Type: TokenSemicolon, Value: ";", Pos: pos}, nil
	case '\'':
		return l.readString(pos)
	}

	if l.ch == l.paramEndRune() {
		l.readRune()
		return Token{Type: TokenParamEnd, Value: l.st.ParamEnd, Pos: pos}, nil
	}

	if unicode.IsDigit(l.ch) {
		return l.readNumber(pos), nil
	}
	if isIdentStart(l.ch) {
		return l.readWord(pos), nil
	}

	ch := l.ch
	return Token{}, &LexError{Pos: pos, Char: ch}
}

// matchSymbol attempts to prefix-match a configured symbol at the current
// position. Symbols that look like identifiers must end at a word boundary
// so that a prefix never swallows part of a longer name.
func (l *Lexer) matchSymbol() (string, bool) {
	rest := l.input[l.pos:]
	for _, sym := range l.match {
		if !strings.HasPrefix(rest, sym) {
			continue
		}
		// Symbols ending in a word character must stop at a word boundary
		// so a symbol never matches a prefix of a longer name. A parameter
		// delimiter counts as a boundary, as in \select_{...}.
		tail := rest[len(sym):]
		if last, _ := utf8.DecodeLastRuneInString(sym); isIdentPart(last) {
			if !strings.HasPrefix(tail, l.st.ParamStart) {
				if r, _ := utf8.DecodeRuneInString(tail); isIdentPart(r) {
					continue
				}
			}
		}
		return sym, true
	}
	return "", false
}

func (l *Lexer) symbolToken(sym string, pos Position) Token {
	if sym == l.st.ParamStart {
		return Token{Type: TokenParamStart, Value: sym, Pos: pos}
	}
	if canon, ok := l.st.Comparators[sym]; ok {
		return Token{Type: TokenComparator, Value: canon, Pos: pos}
	}
	switch sym {
	case l.st.And:
		return Token{Type: TokenAnd, Value: sym, Pos: pos}
	case l.st.Or:
		return Token{Type: TokenOr, Value: sym, Pos: pos}
	case l.st.Not:
		return Token{Type: TokenNot, Value: sym, Pos: pos}
	}
	op, _ := l.st.OperatorFor(sym)
	return Token{Type: TokenOperator, Value: sym, Op: op, Pos: pos}
}

func (l *Lexer) paramEndRune() rune {
	r, _ := utf8.DecodeRuneInString(l.st.ParamEnd)
	return r
}

func (l *Lexer) skipSpace() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readRune()
		}
		// -- line comment
		if l.ch == '-' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '-' {
			for l.ch != '\n' && l.ch != 0 {
				l.readRune()
			}
			continue
		}
		return
	}
}

func (l *Lexer) readString(pos Position) (Token, error) {
	l.readRune() // opening quote
	var sb strings.Builder
	for {
		if l.ch == 0 {
			return Token{}, &LexError{Pos: pos, Char: '\'', Unterminated: true}
		}
		if l.ch == '\'' {
			// A doubled quote is an escaped quote.
			if l.pos+1 < len(l.input) && l.input[l.pos+1] == '\'' {
				sb.WriteRune('\'')
				l.readRune()
				l.readRune()
				continue
			}
			break
		}
		sb.WriteRune(l.ch)
		l.readRune()
	}
	l.readRune() // closing quote
	return Token{Type: TokenString, Value: sb.String(), Pos: pos}, nil
}

func (l *Lexer) readNumber(pos Position) Token {
	var sb strings.Builder
	for unicode.IsDigit(l.ch) {
		sb.WriteRune(l.ch)
		l.readRune()
	}
	if l.ch == '.' && l.pos+1 < len(l.input) && isDigitByte(l.input[l.pos+1]) {
		sb.WriteRune(l.ch)
		l.readRune()
		for unicode.IsDigit(l.ch) {
			sb.WriteRune(l.ch)
			l.readRune()
		}
	}
	return Token{Type: TokenNumber, Value: sb.String(), Pos: pos}
}

func (l *Lexer) readWord(pos Position) Token {
	var sb strings.Builder
	for isIdentPart(l.ch) {
		sb.WriteRune(l.ch)
		l.readRune()
	}
	word := sb.String()
	switch {
	case strings.EqualFold(word, l.st.And):
		return Token{Type: TokenAnd, Value: word, Pos: pos}
	case strings.EqualFold(word, l.st.Or):
		return Token{Type: TokenOr, Value: word, Pos: pos}
	case strings.EqualFold(word, l.st.Not):
		return Token{Type: TokenNot, Value: word, Pos: pos}
	}
	return Token{Type: TokenIdent, Value: word, Pos: pos}
}

// Tokenize returns all tokens from the input, or the first lexical error.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigitByte(b byte) bool {
	return b >= '0' && b <= '9'
}
