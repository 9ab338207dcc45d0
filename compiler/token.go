package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the remix lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenName   // x, xs.len, _tmp
	TokenNumber // 42, 3/4
	TokenString // "hello"

	// Reserved words and punctuation
	TokenKeyword // let, unlet, ref, func, ...
	TokenSymbol  // + += == ( [ ; ...
)

var tokenNames = map[TokenType]string{
	TokenEOF:     "EOF",
	TokenError:   "ERROR",
	TokenName:    "NAME",
	TokenNumber:  "NUMBER",
	TokenString:  "STRING",
	TokenKeyword: "KEYWORD",
	TokenSymbol:  "SYMBOL",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string   // the raw text; the contents for strings
	Pos     Position // start position
	End     Position // position just past the token
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return fmt.Sprintf("ERROR(%s)", t.Literal)
	case TokenKeyword, TokenSymbol:
		return fmt.Sprintf("%q", t.Literal)
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

// Is reports whether the token is the keyword or symbol lit.
func (t Token) Is(lit string) bool {
	return (t.Type == TokenKeyword || t.Type == TokenSymbol) && t.Literal == lit
}

// Keywords lists the reserved words of the language.
var Keywords = []string{
	"let", "unlet", "ref", "unref",
	"func", "return",
	"if", "else", "fi", "catch",
	"loop", "pool", "for", "in", "rof",
	"call", "uncall",
	"print", "println",
	"tensor",
}

var reservedWords = func() map[string]bool {
	m := make(map[string]bool, len(Keywords))
	for _, k := range Keywords {
		m[k] = true
	}
	return m
}()

// IsKeyword reports whether name is reserved.
func IsKeyword(name string) bool {
	return reservedWords[name]
}

// symbols is ordered longest first so that the lexer matches greedily.
var symbols = []string{
	"+=", "-=", "*=", "/=",
	"<=", ">=", "!=", "==",
	":=", "=:", "=>",
	"+", "-", "*", "/",
	"=", "<", ">",
	"[", "]", "(", ")", "{", "}",
	";", "~", "#", ",", "&",
}
