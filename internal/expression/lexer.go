package expression

import (
	"strings"
	"unicode"
)

// Lexer tokenizes permission expressions
type Lexer struct {
	source  []rune
	start   int
	current int
	tokens  []Token
	errors  []LexError
}

// NewLexer creates a new Lexer for the given expression
func NewLexer(source string) *Lexer {
	return &Lexer{
		source: []rune(source),
		tokens: make([]Token, 0, len(source)/4+1),
	}
}

// ScanTokens scans all tokens from the source and returns them with any errors
func (l *Lexer) ScanTokens() ([]Token, []LexError) {
	for !l.isAtEnd() {
		l.start = l.current
		l.scanToken()
	}

	l.tokens = append(l.tokens, Token{Type: TOKEN_EOF, Pos: l.current})
	return l.tokens, l.errors
}

func (l *Lexer) scanToken() {
	r := l.advance()

	switch {
	case r == '(':
		l.addToken(TOKEN_LPAREN)
	case r == ')':
		l.addToken(TOKEN_RPAREN)
	case unicode.IsSpace(r):
		// Ignore whitespace
	case isWordChar(r):
		l.word()
	default:
		l.errors = append(l.errors, LexError{Pos: l.start, Char: r})
	}
}

// word scans an identifier or keyword
func (l *Lexer) word() {
	for !l.isAtEnd() && isWordChar(l.peek()) {
		l.advance()
	}

	text := string(l.source[l.start:l.current])
	if tokenType, ok := keywords[strings.ToLower(text)]; ok {
		l.addToken(tokenType)
		return
	}
	l.addToken(TOKEN_WORD)
}

func (l *Lexer) addToken(tokenType TokenType) {
	l.tokens = append(l.tokens, Token{
		Type:   tokenType,
		Lexeme: string(l.source[l.start:l.current]),
		Pos:    l.start,
	})
}

func (l *Lexer) advance() rune {
	r := l.source[l.current]
	l.current++
	return r
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-' || r == ':'
}
