package compiler

import (
	"testing"
)

func TestLexerSymbols(t *testing.T) {
	input := `+= -= *= /= <= >= != == => + - * / = < > [ ] ( ) ; ,`
	expected := []string{
		"+=", "-=", "*=", "/=", "<=", ">=", "!=", "==", "=>",
		"+", "-", "*", "/", "=", "<", ">",
		"[", "]", "(", ")", ";", ",",
	}

	l := NewLexer(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != TokenSymbol {
			t.Errorf("token[%d] type = %v, want SYMBOL", i, tok.Type)
		}
		if tok.Literal != exp {
			t.Errorf("token[%d] literal = %q, want %q", i, tok.Literal, exp)
		}
	}
	if tok := l.NextToken(); tok.Type != TokenEOF {
		t.Errorf("expected EOF, got %s", tok)
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"42", []string{"42"}},
		{"0", []string{"0"}},
		{"3/4", []string{"3/4"}},
		{"10/20", []string{"10/20"}},
		{"3 / 4", []string{"3", "/", "4"}},
		{"3/x", []string{"3", "/", "x"}},
		{"3/", []string{"3", "/"}},
	}

	for _, tc := range tests {
		toks := NewLexer(tc.input).Tokenize()
		toks = toks[:len(toks)-1] // EOF
		if len(toks) != len(tc.want) {
			t.Errorf("Lexer(%q): got %d tokens %v, want %v", tc.input, len(toks), toks, tc.want)
			continue
		}
		for i, tok := range toks {
			if tok.Literal != tc.want[i] {
				t.Errorf("Lexer(%q)[%d] = %q, want %q", tc.input, i, tok.Literal, tc.want[i])
			}
		}
		if toks[0].Type != TokenNumber {
			t.Errorf("Lexer(%q): first token type = %v, want NUMBER", tc.input, toks[0].Type)
		}
	}
}

func TestLexerNamesAndKeywords(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
	}{
		{"x", TokenName},
		{"_tmp", TokenName},
		{"xs.len", TokenName},
		{"count2", TokenName},
		{"letter", TokenName},
		{"let", TokenKeyword},
		{"unlet", TokenKeyword},
		{"ref", TokenKeyword},
		{"unref", TokenKeyword},
		{"fi", TokenKeyword},
		{"tensor", TokenKeyword},
	}

	for _, tc := range tests {
		tok := NewLexer(tc.input).NextToken()
		if tok.Type != tc.typ {
			t.Errorf("Lexer(%q): type = %v, want %v", tc.input, tok.Type, tc.typ)
		}
		if tok.Literal != tc.input {
			t.Errorf("Lexer(%q): literal = %q", tc.input, tok.Literal)
		}
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"hello"`, "hello"},
		{`""`, ""},
		{`"a \"quoted\" word"`, `a "quoted" word`},
		{`"tab\there"`, "tab\there"},
		{`"line\n"`, "line\n"},
		{`"back\\slash"`, `back\slash`},
		{`"héllo"`, "héllo"},
	}

	for _, tc := range tests {
		tok := NewLexer(tc.input).NextToken()
		if tok.Type != TokenString {
			t.Errorf("Lexer(%s): type = %v, want STRING", tc.input, tok.Type)
		}
		if tok.Literal != tc.want {
			t.Errorf("Lexer(%s): literal = %q, want %q", tc.input, tok.Literal, tc.want)
		}
	}
}

func TestLexerComments(t *testing.T) {
	toks := NewLexer("let $ a comment\nspanning lines $ x = 1 $$").Tokenize()
	want := []string{"let", "x", "=", "1", ""}
	if len(toks) != len(want) {
		t.Fatalf("got %v", toks)
	}
	for i, tok := range toks {
		if tok.Literal != want[i] {
			t.Errorf("token[%d] = %q, want %q", i, tok.Literal, want[i])
		}
	}
	if toks[1].Pos.Line != 2 {
		t.Errorf("x on line %d, want 2", toks[1].Pos.Line)
	}
}

func TestLexerPositions(t *testing.T) {
	toks := NewLexer("let x = 3\n  x += 10").Tokenize()
	tests := []struct {
		lit       string
		line, col int
		endCol    int
	}{
		{"let", 1, 1, 4},
		{"x", 1, 5, 6},
		{"=", 1, 7, 8},
		{"3", 1, 9, 10},
		{"x", 2, 3, 4},
		{"+=", 2, 5, 7},
		{"10", 2, 8, 10},
	}
	for i, tc := range tests {
		tok := toks[i]
		if tok.Literal != tc.lit {
			t.Fatalf("token[%d] = %q, want %q", i, tok.Literal, tc.lit)
		}
		if tok.Pos.Line != tc.line || tok.Pos.Column != tc.col {
			t.Errorf("%q at %s, want %d:%d", tc.lit, tok.Pos, tc.line, tc.col)
		}
		if tok.End.Line != tc.line || tok.End.Column != tc.endCol {
			t.Errorf("%q ends at %s, want %d:%d", tc.lit, tok.End, tc.line, tc.endCol)
		}
	}
	if toks[4].Pos.Offset != 12 {
		t.Errorf("second x offset = %d, want 12", toks[4].Pos.Offset)
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{`"open`, "unterminated string"},
		{"x $ never closed", "unterminated comment"},
		{"x @ y", `unexpected character '@'`},
	}

	for _, tc := range tests {
		toks := NewLexer(tc.input).Tokenize()
		last := toks[len(toks)-1]
		if last.Type != TokenError {
			t.Errorf("Lexer(%q): last token = %s, want ERROR", tc.input, last)
			continue
		}
		if last.Literal != tc.msg {
			t.Errorf("Lexer(%q): error = %q, want %q", tc.input, last.Literal, tc.msg)
		}
	}
}

func TestLexerEOFRepeats(t *testing.T) {
	l := NewLexer("x")
	l.NextToken()
	for i := 0; i < 3; i++ {
		if tok := l.NextToken(); tok.Type != TokenEOF {
			t.Fatalf("call %d: %s", i, tok)
		}
	}
}

func TestTokenIs(t *testing.T) {
	if !(Token{Type: TokenKeyword, Literal: "let"}).Is("let") {
		t.Error("keyword let")
	}
	if !(Token{Type: TokenSymbol, Literal: "+="}).Is("+=") {
		t.Error("symbol +=")
	}
	if (Token{Type: TokenName, Literal: "let"}).Is("let") {
		t.Error("name matched as keyword")
	}
	if (Token{Type: TokenString, Literal: "("}).Is("(") {
		t.Error("string matched as symbol")
	}
}
