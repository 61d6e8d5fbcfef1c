// Package expression parses permission expressions: boolean formulas of
// AND, OR and NOT over named checks, such as
// "user is admin OR (Prefab.Role.All AND NOT is locked)".
package expression

import "fmt"

// TokenType represents the type of a lexed token
type TokenType int

const (
	TOKEN_EOF TokenType = iota
	TOKEN_WORD
	TOKEN_AND
	TOKEN_OR
	TOKEN_NOT
	TOKEN_LPAREN
	TOKEN_RPAREN
)

var keywords = map[string]TokenType{
	"and": TOKEN_AND,
	"or":  TOKEN_OR,
	"not": TOKEN_NOT,
}

// String returns the string representation of the token type
func (t TokenType) String() string {
	switch t {
	case TOKEN_EOF:
		return "EOF"
	case TOKEN_WORD:
		return "WORD"
	case TOKEN_AND:
		return "AND"
	case TOKEN_OR:
		return "OR"
	case TOKEN_NOT:
		return "NOT"
	case TOKEN_LPAREN:
		return "("
	case TOKEN_RPAREN:
		return ")"
	default:
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
}

// Token is a single lexeme with its offset in the source
type Token struct {
	Type   TokenType
	Lexeme string
	Pos    int
}

func (t Token) String() string {
	if t.Type == TOKEN_WORD {
		return fmt.Sprintf("%s(%q)", t.Type, t.Lexeme)
	}
	return t.Type.String()
}

// LexError describes an unexpected character in the source
type LexError struct {
	Pos  int
	Char rune
}

func (e LexError) Error() string {
	return fmt.Sprintf("unexpected character %q at offset %d", e.Char, e.Pos)
}
