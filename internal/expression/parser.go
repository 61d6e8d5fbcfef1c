package expression

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyExpression is returned when the expression has no content
var ErrEmptyExpression = errors.New("empty expression")

// SyntaxError describes a malformed expression
type SyntaxError struct {
	Source  string
	Pos     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error in %q at offset %d: %s", e.Source, e.Pos, e.Message)
}

// Parser is a recursive-descent parser over lexed tokens.
//
//	expr  := or EOF
//	or    := and (OR and)*
//	and   := unary (AND unary)*
//	unary := NOT unary | '(' or ')' | WORD+
type Parser struct {
	source  string
	tokens  []Token
	current int
}

// Parse lexes and parses a permission expression
func Parse(source string) (Node, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptyExpression
	}

	tokens, lexErrors := NewLexer(source).ScanTokens()
	if len(lexErrors) > 0 {
		first := lexErrors[0]
		return nil, &SyntaxError{Source: source, Pos: first.Pos, Message: first.Error()}
	}

	p := &Parser{source: source, tokens: tokens}
	node, err := p.or()
	if err != nil {
		return nil, err
	}
	if !p.check(TOKEN_EOF) {
		return nil, p.errorAt(p.peek(), fmt.Sprintf("unexpected %s", p.peek()))
	}
	return node, nil
}

// MustParse is like Parse but panics on error
func MustParse(source string) Node {
	node, err := Parse(source)
	if err != nil {
		panic(err)
	}
	return node
}

func (p *Parser) or() (Node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.match(TOKEN_OR) {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = &Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) and() (Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.match(TOKEN_AND) {
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &And{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) unary() (Node, error) {
	if p.match(TOKEN_NOT) {
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Not{Operand: operand}, nil
	}

	if p.match(TOKEN_LPAREN) {
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if !p.match(TOKEN_RPAREN) {
			return nil, p.errorAt(p.peek(), "expected )")
		}
		return &Paren{Inner: inner}, nil
	}

	if !p.check(TOKEN_WORD) {
		return nil, p.errorAt(p.peek(), fmt.Sprintf("expected check name, got %s", p.peek()))
	}

	// Adjacent words form a single check name: "user is admin"
	words := []string{p.advance().Lexeme}
	for p.check(TOKEN_WORD) {
		words = append(words, p.advance().Lexeme)
	}
	return &Check{Identifier: strings.Join(words, " ")}, nil
}

func (p *Parser) match(tokenType TokenType) bool {
	if !p.check(tokenType) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) check(tokenType TokenType) bool {
	return p.peek().Type == tokenType
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.current]
	if tok.Type != TOKEN_EOF {
		p.current++
	}
	return tok
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) errorAt(tok Token, msg string) error {
	return &SyntaxError{Source: p.source, Pos: tok.Pos, Message: msg}
}
