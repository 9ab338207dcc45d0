package compiler

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for remix source
// ---------------------------------------------------------------------------

// Lexer tokenizes remix source code. Source is treated as bytes; names and
// symbols are ASCII, while strings and comments may hold any UTF-8 text.
type Lexer struct {
	input     string
	pos       int // offset of the next unread byte
	line      int // current line (1-based)
	lineStart int // offset of current line start
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1}
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.pos - l.lineStart + 1,
	}
}

// advance consumes n bytes, tracking line starts.
func (l *Lexer) advance(n int) {
	for i := 0; i < n && l.pos < len(l.input); i++ {
		if l.input[l.pos] == '\n' {
			l.line++
			l.lineStart = l.pos + 1
		}
		l.pos++
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

// NextToken returns the next token. At the end of input it returns
// TokenEOF indefinitely.
func (l *Lexer) NextToken() Token {
	tok := l.scan()
	tok.End = l.position()
	return tok
}

func (l *Lexer) scan() Token {
	if tok, ok := l.skipWhitespaceAndComments(); !ok {
		return tok
	}

	pos := l.position()
	ch := l.peek()

	switch {
	case l.pos >= len(l.input):
		return Token{Type: TokenEOF, Pos: pos}

	case isLetter(ch) || ch == '_':
		return l.readName(pos)

	case isDigit(ch):
		return l.readNumber(pos)

	case ch == '"':
		return l.readString(pos)
	}

	rest := l.input[l.pos:]
	for _, sym := range symbols {
		if strings.HasPrefix(rest, sym) {
			l.advance(len(sym))
			return Token{Type: TokenSymbol, Literal: sym, Pos: pos}
		}
	}

	l.advance(1)
	return Token{Type: TokenError, Literal: fmt.Sprintf("unexpected character %q", ch), Pos: pos}
}

// Tokenize returns every token of the input, ending with TokenEOF or the
// first TokenError.
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			return tokens
		}
	}
}

// skipWhitespaceAndComments skips whitespace and $...$ comments. It reports
// an error token for an unterminated comment.
func (l *Lexer) skipWhitespaceAndComments() (Token, bool) {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v':
			l.advance(1)
		case ch == '$':
			pos := l.position()
			end := strings.IndexByte(l.input[l.pos+1:], '$')
			if end < 0 {
				l.advance(len(l.input) - l.pos)
				return Token{Type: TokenError, Literal: "unterminated comment", Pos: pos}, false
			}
			l.advance(end + 2)
		default:
			return Token{}, true
		}
	}
	return Token{}, true
}

// readName reads [A-Za-z_][A-Za-z_0-9.]* and classifies reserved words.
func (l *Lexer) readName(pos Position) Token {
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if !isLetter(ch) && !isDigit(ch) && ch != '_' && ch != '.' {
			break
		}
		l.advance(1)
	}
	lit := l.input[start:l.pos]
	if IsKeyword(lit) {
		return Token{Type: TokenKeyword, Literal: lit, Pos: pos}
	}
	return Token{Type: TokenName, Literal: lit, Pos: pos}
}

// readNumber reads \d+(/\d+)?. A slash not followed by a digit is left for
// the division operator.
func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos
	l.skipDigits()
	if l.peek() == '/' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1]) {
		l.advance(1)
		l.skipDigits()
	}
	return Token{Type: TokenNumber, Literal: l.input[start:l.pos], Pos: pos}
}

func (l *Lexer) skipDigits() {
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.advance(1)
	}
}

// readString reads a double-quoted string. Backslash escapes \" \\ \n \t
// are recognized.
func (l *Lexer) readString(pos Position) Token {
	l.advance(1) // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			return Token{Type: TokenError, Literal: "unterminated string", Pos: pos}
		}
		ch := l.input[l.pos]
		switch ch {
		case '"':
			l.advance(1)
			return Token{Type: TokenString, Literal: sb.String(), Pos: pos}
		case '\\':
			if l.pos+1 >= len(l.input) {
				l.advance(1)
				continue
			}
			switch esc := l.input[l.pos+1]; esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(esc)
			}
			l.advance(2)
		default:
			sb.WriteByte(ch)
			l.advance(1)
		}
	}
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
