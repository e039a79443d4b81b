// Package lexer tokenizes directive source text.
//
// The tokenizer is total: malformed input never fails the lexer. An
// unterminated string or an unknown character becomes an ILLEGAL token
// carrying a human-readable message, which the parser converts into a
// positioned syntax error. Token positions are byte offsets into the
// directive source, brackets included, so offset 0 is always '['.
package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// TokenType represents different types of tokens
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF

	// Identifiers and literals
	IDENT  // add, find, x, ...
	NUMBER // 12, 3.14
	STRING // "inbox"

	// Delimiters and operators
	LBRACKET  // [
	RBRACKET  // ]
	LPAREN    // (
	RPAREN    // )
	COMMA     // ,
	COLON     // :
	SEMICOLON // ;
	DOT       // .
	STAR      // *
	RANGE     // ..
)

// Token represents a single token
type Token struct {
	Type    TokenType
	Literal string
	Offset  int // byte offset of the token's first byte
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %q, Offset: %d}", t.Type, t.Literal, t.Offset)
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	switch tt {
	case ILLEGAL:
		return "ILLEGAL"
	case EOF:
		return "EOF"
	case IDENT:
		return "IDENT"
	case NUMBER:
		return "NUMBER"
	case STRING:
		return "STRING"
	case LBRACKET:
		return "LBRACKET"
	case RBRACKET:
		return "RBRACKET"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case COMMA:
		return "COMMA"
	case COLON:
		return "COLON"
	case SEMICOLON:
		return "SEMICOLON"
	case DOT:
		return "DOT"
	case STAR:
		return "STAR"
	case RANGE:
		return "RANGE"
	default:
		return "UNKNOWN"
	}
}

// Lexer represents the lexical analyzer
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination (first byte)
	chRune       rune // current character as a rune (for Unicode identifiers)
	chSize       int  // byte size of current character
}

// New creates a new lexer instance
func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// Tokenize scans the whole input and returns every token, ending with EOF.
func Tokenize(input string) []Token {
	l := New(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}

// readChar reads the next character and advances position.
// ASCII is the fast path; multi-byte UTF-8 is decoded so identifiers can
// carry non-ASCII letters.
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0 // NUL represents EOF
		l.chRune = 0
		l.chSize = 0
		l.position = l.readPosition
		return
	}

	b := l.input[l.readPosition]
	if b < utf8.RuneSelf {
		l.ch = b
		l.chRune = rune(b)
		l.chSize = 1
		l.position = l.readPosition
		l.readPosition++
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = b
	l.chRune = r
	l.chSize = size
	l.position = l.readPosition
	l.readPosition += size
}

// peekChar returns the next character without advancing position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// NextToken scans the input and returns the next token
func (l *Lexer) NextToken() Token {
	var tok Token

	l.skipWhitespace()

	switch l.ch {
	case '[':
		tok = newToken(LBRACKET, l.ch, l.position)
	case ']':
		tok = newToken(RBRACKET, l.ch, l.position)
	case '(':
		tok = newToken(LPAREN, l.ch, l.position)
	case ')':
		tok = newToken(RPAREN, l.ch, l.position)
	case ',':
		tok = newToken(COMMA, l.ch, l.position)
	case ':':
		tok = newToken(COLON, l.ch, l.position)
	case ';':
		tok = newToken(SEMICOLON, l.ch, l.position)
	case '*':
		tok = newToken(STAR, l.ch, l.position)
	case '.':
		if l.peekChar() == '.' {
			offset := l.position
			l.readChar()
			tok = Token{Type: RANGE, Literal: "..", Offset: offset}
		} else {
			tok = newToken(DOT, l.ch, l.position)
		}
	case '"':
		return l.readString()
	case 0:
		tok = Token{Type: EOF, Literal: "", Offset: l.position}
	default:
		if isDigit(l.ch) {
			return l.readNumber()
		}
		if isIdentStart(l.chRune) {
			return l.readIdentifier()
		}
		tok = Token{
			Type:    ILLEGAL,
			Literal: fmt.Sprintf("unexpected character %q", l.chRune),
			Offset:  l.position,
		}
		l.readChar()
		return tok
	}

	l.readChar()
	return tok
}

// skipWhitespace advances past spaces, tabs, and newlines
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// readString reads a double-quoted string literal. The grammar has no
// escape sequences, so the literal is everything up to the next quote.
// A missing closing quote yields an ILLEGAL token.
func (l *Lexer) readString() Token {
	offset := l.position
	l.readChar() // consume opening quote

	start := l.position
	for l.ch != '"' && l.ch != 0 {
		l.readChar()
	}

	if l.ch == 0 {
		return Token{Type: ILLEGAL, Literal: "unterminated string", Offset: offset}
	}

	literal := l.input[start:l.position]
	l.readChar() // consume closing quote
	return Token{Type: STRING, Literal: literal, Offset: offset}
}

// readNumber reads a base-10 number with at most one fraction part.
// A '.' only joins the number when a digit follows, so "2..4" lexes as
// NUMBER RANGE NUMBER.
func (l *Lexer) readNumber() Token {
	offset := l.position
	start := l.position

	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // consume '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	return Token{Type: NUMBER, Literal: l.input[start:l.position], Offset: offset}
}

// readIdentifier reads an identifier. The language has no reserved words;
// names like pattern, digit, and descending are ordinary identifiers the
// parser and registry give meaning to.
func (l *Lexer) readIdentifier() Token {
	offset := l.position
	start := l.position

	for isIdentStart(l.chRune) || isDigit(l.ch) {
		l.readChar()
	}

	return Token{Type: IDENT, Literal: l.input[start:l.position], Offset: offset}
}

func newToken(tokenType TokenType, ch byte, offset int) Token {
	return Token{Type: tokenType, Literal: string(ch), Offset: offset}
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}
