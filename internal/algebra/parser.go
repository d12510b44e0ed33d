package algebra

import (
	"fmt"

	"github.com/markb/raql/internal/syntax"
)

// Parser builds an AST from a token stream. Binary operators associate
// left-to-right within a precedence tier; unary operators bind tighter
// than any binary operator and apply to the expression on their right.
type Parser struct {
	st     *syntax.SymbolTable
	tokens []Token
	pos    int
}

// NewParser creates a parser over the given input.
func NewParser(input string, st *syntax.SymbolTable) (*Parser, error) {
	tokens, err := NewLexer(input, st).Tokenize()
	if err != nil {
		return nil, err
	}
	return &Parser{st: st, tokens: tokens}, nil
}

// Parse parses a single statement, with an optional trailing semicolon.
// Anything after it is an error; use ParseAll for statement sequences.
func Parse(input string, st *syntax.SymbolTable) (Node, error) {
	p, err := NewParser(input, st)
	if err != nil {
		return nil, err
	}
	node, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if tok := p.current(); tok.Type != TokenEOF {
		return nil, newParseError("end of statement", tok)
	}
	return node, nil
}

// ParseAll parses a sequence of semicolon-separated statements.
func ParseAll(input string, st *syntax.SymbolTable) ([]Node, error) {
	p, err := NewParser(input, st)
	if err != nil {
		return nil, err
	}
	var nodes []Node
	for {
		for p.current().Type == TokenSemicolon {
			p.next()
		}
		if p.current().Type == TokenEOF {
			return nodes, nil
		}
		node, err := p.parseExpr(p.st.MaxTier())
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
		switch tok := p.current(); tok.Type {
		case TokenSemicolon:
			p.next()
		case TokenEOF:
			return nodes, nil
		default:
			return nil, newParseError("';' or end of input", tok)
		}
	}
}

func (p *Parser) parseStatement() (Node, error) {
	node, err := p.parseExpr(p.st.MaxTier())
	if err != nil {
		return nil, err
	}
	if p.current().Type == TokenSemicolon {
		p.next()
	}
	return node, nil
}

func (p *Parser) current() Token {
	return p.tokens[p.pos]
}

func (p *Parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(t TokenType, what string) (Token, error) {
	tok := p.current()
	if tok.Type != t {
		return Token{}, newParseError(what, tok)
	}
	return p.next(), nil
}

// parseExpr parses binary operators at the given tier and below. Tier 0
// delegates to the unary and primary grammar.
func (p *Parser) parseExpr(tier int) (Node, error) {
	if tier <= 0 {
		return p.parsePrimary()
	}
	left, err := p.parseExpr(tier - 1)
	if err != nil {
		return nil, err
	}
	for {
		tok := p.current()
		if tok.Type != TokenOperator || !tok.Op.IsBinary() || p.st.Tier(tok.Op) != tier {
			return left, nil
		}
		p.next()
		node, err := p.parseBinaryTail(tok, left, tier)
		if err != nil {
			return nil, err
		}
		left = node
	}
}

// parseBinaryTail parses the optional parameter and right operand of a
// binary operator whose token has already been consumed.
func (p *Parser) parseBinaryTail(tok Token, left Node, tier int) (Node, error) {
	var cond Condition
	if p.current().Type == TokenParamStart {
		if tok.Op != syntax.OpJoin {
			return nil, newParseError(
				fmt.Sprintf("no parameter after %s", tok.Op), p.current())
		}
		p.next()
		var err error
		cond, err = p.parseCondition()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenParamEnd, p.st.ParamEnd); err != nil {
			return nil, err
		}
	}

	right, err := p.parseExpr(tier - 1)
	if err != nil {
		return nil, err
	}

	switch tok.Op {
	case syntax.OpUnion, syntax.OpIntersect, syntax.OpDifference:
		return &SetOp{Op: tok.Op, Left: left, Right: right, Pos: tok.Pos}, nil
	case syntax.OpProduct:
		return &Product{Left: left, Right: right, Pos: tok.Pos}, nil
	case syntax.OpDivide:
		return &Division{Left: left, Right: right, Pos: tok.Pos}, nil
	case syntax.OpJoin:
		// A join without a condition parameter is a natural join. The
		// two joins may share a surface symbol, so the parameter is the
		// only thing that distinguishes them.
		return &Join{Natural: cond == nil, Condition: cond, Left: left, Right: right, Pos: tok.Pos}, nil
	case syntax.OpNaturalJoin:
		return &Join{Natural: true, Left: left, Right: right, Pos: tok.Pos}, nil
	}
	return nil, newParseError("binary operator", tok)
}

// parsePrimary parses a relation name, a parenthesized expression, or a
// unary operator application.
func (p *Parser) parsePrimary() (Node, error) {
	tok := p.current()
	switch tok.Type {
	case TokenIdent:
		p.next()
		return &Relation{Name: tok.Value, Pos: tok.Pos}, nil
	case TokenLParen:
		p.next()
		node, err := p.parseExpr(p.st.MaxTier())
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen, ")"); err != nil {
			return nil, err
		}
		return node, nil
	case TokenOperator:
		if tok.Op.IsUnary() {
			p.next()
			return p.parseUnary(tok)
		}
	}
	return nil, newParseError("relation name, '(' or unary operator", tok)
}

func (p *Parser) parseUnary(tok Token) (Node, error) {
	if _, err := p.expect(TokenParamStart, fmt.Sprintf("parameter start %q", p.st.ParamStart)); err != nil {
		return nil, err
	}

	var (
		cond  Condition
		attrs []AttrRef
		alias string
		names []string
		err   error
	)
	switch tok.Op {
	case syntax.OpSelect:
		cond, err = p.parseCondition()
	case syntax.OpProject:
		attrs, err = p.parseAttrList()
	case syntax.OpRename:
		alias, names, err = p.parseRenameParam()
	}
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenParamEnd, p.st.ParamEnd); err != nil {
		return nil, err
	}

	operand, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	switch tok.Op {
	case syntax.OpSelect:
		return &Selection{Condition: cond, Operand: operand, Pos: tok.Pos}, nil
	case syntax.OpProject:
		return &Projection{Attrs: attrs, Operand: operand, Pos: tok.Pos}, nil
	default:
		return &Rename{Alias: alias, Attrs: names, Operand: operand, Pos: tok.Pos}, nil
	}
}

// parseAttrList parses a comma-separated list of attribute references.
func (p *Parser) parseAttrList() ([]AttrRef, error) {
	var attrs []AttrRef
	for {
		ref, err := p.parseAttrRef()
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, ref)
		if p.current().Type != TokenComma {
			return attrs, nil
		}
		p.next()
	}
}

func (p *Parser) parseAttrRef() (AttrRef, error) {
	tok, err := p.expect(TokenIdent, "attribute name")
	if err != nil {
		return AttrRef{}, err
	}
	ref := AttrRef{Name: tok.Value, Pos: tok.Pos}
	if p.current().Type == TokenDot {
		p.next()
		name, err := p.expect(TokenIdent, "attribute name after '.'")
		if err != nil {
			return AttrRef{}, err
		}
		ref.Qualifier = ref.Name
		ref.Name = name.Value
	}
	return ref, nil
}

// parseRenameParam parses `alias` or `alias(a, b, c)`.
func (p *Parser) parseRenameParam() (string, []string, error) {
	tok, err := p.expect(TokenIdent, "relation alias")
	if err != nil {
		return "", nil, err
	}
	if p.current().Type != TokenLParen {
		return tok.Value, nil, nil
	}
	p.next()
	var names []string
	for {
		name, err := p.expect(TokenIdent, "attribute name")
		if err != nil {
			return "", nil, err
		}
		names = append(names, name.Value)
		if p.current().Type == TokenComma {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(TokenRParen, ")"); err != nil {
		return "", nil, err
	}
	return tok.Value, names, nil
}

// parseCondition parses a predicate: or-expressions over and-expressions
// over optionally negated comparisons.
func (p *Parser) parseCondition() (Condition, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (Condition, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.current().Type == TokenOr {
		tok := p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Or{Left: left, Right: right, Pos: tok.Pos}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Condition, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.current().Type == TokenAnd {
		tok := p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &And{Left: left, Right: right, Pos: tok.Pos}
	}
	return left, nil
}

func (p *Parser) parseNot() (Condition, error) {
	if tok := p.current(); tok.Type == TokenNot {
		p.next()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Not{Inner: inner, Pos: tok.Pos}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Condition, error) {
	if tok := p.current(); tok.Type == TokenLParen {
		p.next()
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen, ")"); err != nil {
			return nil, err
		}
		return cond, nil
	}

	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	op, err := p.expect(TokenComparator, "comparison operator")
	if err != nil {
		return nil, err
	}
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return &Comparison{Op: op.Value, Left: left, Right: right, Pos: left.Position()}, nil
}

func (p *Parser) parseOperand() (Operand, error) {
	tok := p.current()
	switch tok.Type {
	case TokenIdent:
		ref, err := p.parseAttrRef()
		if err != nil {
			return nil, err
		}
		return &Attribute{Ref: ref, Pos: ref.Pos}, nil
	case TokenNumber:
		p.next()
		return &Number{Value: tok.Value, Pos: tok.Pos}, nil
	case TokenString:
		p.next()
		return &String{Value: tok.Value, Pos: tok.Pos}, nil
	}
	return nil, newParseError("attribute or literal", tok)
}
