package compiler

import (
	"testing"

	"github.com/chazu/remix/vm"
)

// ---------------------------------------------------------------------------
// FuzzLexer: ensure the lexer never panics on arbitrary input.
// ---------------------------------------------------------------------------

func FuzzLexer(f *testing.F) {
	seeds := []string{
		// Symbols
		`+= -= *= /= <= >= != == => + - * / = < > [ ] ( ) ; ,`,
		// Numbers
		`42`, `0`, `3/4`, `3 / 4`, `3/`, `3/x`, `99999999999999999999`,
		// Strings
		`"hello"`, `""`, `"a \"b\""`, `"tab\t"`, `"open`, `"\`,
		// Names and keywords
		`x`, `_tmp`, `xs.len`, `let`, `unlet`, `tensor`, `letter`,
		// Comments
		`$ comment $`, `x $ comment $ y`, `$ unterminated`, `$$`,
		// Statements
		`let x = 3`, `ref y = x[0]`, `x += 1`,
		// Garbage
		`@`, `x @ y`, "\x00", "\xff\xfe",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data string) {
		l := NewLexer(data)
		for i := 0; i <= len(data)+1; i++ {
			tok := l.NextToken()
			if tok.Type == TokenEOF || tok.Type == TokenError {
				return
			}
			if tok.End.Offset <= tok.Pos.Offset {
				t.Fatalf("token %s did not advance: %s..%s", tok, tok.Pos, tok.End)
			}
		}
		t.Fatalf("lexer did not terminate on %q", data)
	})
}

// ---------------------------------------------------------------------------
// FuzzParser: ensure the parser never panics on arbitrary input.
// Parse errors are acceptable; panics are not.
// ---------------------------------------------------------------------------

func FuzzParser(f *testing.F) {
	seeds := []string{
		// Statements
		`let x = 3`, `unlet x = 3`, `ref y = x`, `unref y = x[1][2]`,
		`x += 1`, `xs[i] -= 2 * y`,
		`if (x == 0) x += 1 else x -= 1 fi (x == 1)`,
		`catch (x > 3)`, `println("a", x)`,
		`loop (i < 3) i += 1 pool (i > 0)`,
		`for (x in xs) rof`,
		`call f(a, b)(c) => (d)`, `uncall f()`,
		// Expressions
		`let x = -3/4 * (a + b) < c`, `let e = []`, `let z = [0 tensor [2, 3]]`,
		// Functions
		"func f(a)(b)\n  let s = a + b\nreturn (s)",
		"func main()\nreturn ()",
		// Edge cases that might trip up the parser
		``, `(`, `)`, `[`, `]`, `;`, `=`, `let`, `let x`, `let x =`,
		`ref y =`, `if (`, `if (x) fi`, `loop (x)`, `func`, `func f(`,
		`func f()`, `call`, `call f(`, `[1,`, `[1 tensor`, `x[`, `--`,
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data string) {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("ParseExpression panicked on input %q: %v", data, r)
				}
			}()
			p := NewParser(data)
			_ = p.ParseExpression()
			_ = p.Errors()
		}()

		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("ParseModule panicked on input %q: %v", data, r)
				}
			}()
			p := NewParser(data)
			_ = p.ParseModule()
			_ = p.Errors()
		}()
	})
}

// ---------------------------------------------------------------------------
// FuzzCompileAndRun: feed arbitrary source through the full pipeline
// (parse -> lower -> codegen -> run). Errors are fine, panics are not.
// ---------------------------------------------------------------------------

func FuzzCompileAndRun(f *testing.F) {
	seeds := []string{
		`let x = 3`,
		"let x = 3\nx += 2\nref y = x\ny *= 2\nunref y = x",
		"let x = 3\nunlet x = 4",
		"let x = 1/0",
		"let xs = [1, 2]\nlet y = xs[5]",
		"let xs = [1, 2]\nlet y = xs[1/2]",
		`let s = "a" + 1`,
		"let x = 3; ref y = x; unlet x = 3",
		"func f(a)\n  let b = a\nreturn (b)\nfunc main()\nreturn ()",
		"let a = [[1], [2, [3]]]\nlet b = a[1][1][0] == 3",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("pipeline panicked on input %q: %v", data, r)
			}
		}()
		unit, err := Compile(data)
		if err != nil {
			return
		}
		interp := vm.NewInterpreter()
		_, _ = interp.RunProgram(unit.Program)
	})
}

// ---------------------------------------------------------------------------
// FuzzCheck: diagnostics never panic and always carry a kind.
// ---------------------------------------------------------------------------

func FuzzCheck(f *testing.F) {
	f.Add("let x = 3")
	f.Add("let x = y")
	f.Add("let = ")
	f.Add("func f()\n  let t = 1\nreturn ()")

	f.Fuzz(func(t *testing.T, data string) {
		for _, d := range Check(data) {
			if d == nil || d.Kind == 0 {
				t.Fatalf("bad diagnostic for %q: %#v", data, d)
			}
		}
	})
}
