package compiler

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/chazu/remix/vm"
)

// ---------------------------------------------------------------------------
// Parser: Recursive descent parser for remix source
// ---------------------------------------------------------------------------

// Parser parses remix source code into a parse tree.
type Parser struct {
	lexer     *Lexer
	prevToken Token
	curToken  Token
	peekToken Token
	errors    []*Error
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	// Read two tokens to fill curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// nextToken advances to the next token. Lexer errors are recorded as they
// become current.
func (p *Parser) nextToken() {
	p.prevToken = p.curToken
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
	if p.curToken.Type == TokenError {
		p.errors = append(p.errors, &Error{
			Kind:     SyntaxError,
			Pos:      p.curToken.Pos,
			Register: -1,
			Msg:      p.curToken.Literal,
		})
	}
}

// curTokenIs checks if the current token is of the given type.
func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

// expect advances if the current token is the keyword or symbol lit,
// otherwise records an error.
func (p *Parser) expect(lit string) bool {
	if p.curToken.Is(lit) {
		p.nextToken()
		return true
	}
	p.errorf("expected %q, got %s", lit, p.curToken)
	return false
}

// expectName consumes a name token and returns its text, or records an
// error and returns "".
func (p *Parser) expectName() string {
	if p.curTokenIs(TokenName) {
		name := p.curToken.Literal
		p.nextToken()
		return name
	}
	p.errorf("expected name, got %s", p.curToken)
	return ""
}

// errorf records a parse error at the current token. Errors at a lexer
// error token were already recorded by nextToken.
func (p *Parser) errorf(format string, args ...interface{}) {
	if p.curTokenIs(TokenError) {
		return
	}
	p.errors = append(p.errors, &Error{
		Kind:     SyntaxError,
		Pos:      p.curToken.Pos,
		Register: -1,
		Msg:      fmt.Sprintf(format, args...),
	})
}

// Errors returns accumulated parse errors.
func (p *Parser) Errors() []*Error {
	return p.errors
}

// spanFrom returns the span from start to the end of the last consumed token.
func (p *Parser) spanFrom(start Position) Span {
	return Span{Start: start, End: p.prevToken.End}
}

// statementStarts are keywords at which error recovery resumes.
var statementStarts = map[string]bool{
	"let": true, "unlet": true, "ref": true, "unref": true,
	"if": true, "else": true, "fi": true, "catch": true,
	"print": true, "println": true, "call": true, "uncall": true,
	"loop": true, "pool": true, "for": true, "rof": true,
	"func": true, "return": true,
}

// synchronize skips at least one token, then stops at the next keyword
// that can start or end a statement.
func (p *Parser) synchronize() {
	p.nextToken()
	for !p.curTokenIs(TokenEOF) {
		if p.curTokenIs(TokenKeyword) && statementStarts[p.curToken.Literal] {
			return
		}
		p.nextToken()
	}
}

// ---------------------------------------------------------------------------
// Top-level parsing
// ---------------------------------------------------------------------------

// Parse parses source into a module. It returns the first syntax error, if
// any; use NewParser and Errors to see them all.
func Parse(source string) (*Module, error) {
	p := NewParser(source)
	mod := p.ParseModule()
	if errs := p.Errors(); len(errs) > 0 {
		return mod, errs[0]
	}
	return mod, nil
}

// ParseModule parses function declarations and top-level statements until
// the end of input.
func (p *Parser) ParseModule() *Module {
	start := p.curToken.Pos
	mod := &Module{}

	for !p.curTokenIs(TokenEOF) {
		switch {
		case p.curToken.Is(";"):
			p.nextToken()
		case p.curToken.Is("func"):
			if fn := p.parseFunction(); fn != nil {
				mod.Functions = append(mod.Functions, fn)
			} else {
				p.synchronize()
			}
		default:
			if stmt := p.ParseStatement(); stmt != nil {
				mod.Global = append(mod.Global, stmt)
			} else {
				p.synchronize()
			}
		}
	}

	mod.SpanVal = Span{Start: start, End: p.curToken.End}
	return mod
}

// parseFunction parses
//
//	func name(borrows)(steals) stmts return (returns)
//
// The steal list may be omitted.
func (p *Parser) parseFunction() *FunctionDecl {
	start := p.curToken.Pos
	p.nextToken() // func

	fn := &FunctionDecl{Name: p.expectName()}
	if fn.Name == "" {
		return nil
	}

	var ok bool
	if fn.BorrowParams, ok = p.parseNameList(); !ok {
		return nil
	}
	if p.curToken.Is("(") {
		if fn.StealParams, ok = p.parseNameList(); !ok {
			return nil
		}
	}

	fn.Stmts = p.parseStatements("return")
	if !p.expect("return") {
		return nil
	}
	if fn.ReturnParams, ok = p.parseNameList(); !ok {
		return nil
	}

	fn.SpanVal = p.spanFrom(start)
	return fn
}

// parseNameList parses ( [name {, name}] ).
func (p *Parser) parseNameList() ([]string, bool) {
	if !p.expect("(") {
		return nil, false
	}
	var names []string
	for !p.curToken.Is(")") {
		if len(names) > 0 && !p.expect(",") {
			return nil, false
		}
		name := p.expectName()
		if name == "" {
			return nil, false
		}
		names = append(names, name)
	}
	p.nextToken() // )
	return names, true
}

// parseStatements parses statements until one of the terminator keywords or
// the end of input. The terminator is not consumed.
func (p *Parser) parseStatements(terminators ...string) []Stmt {
	var stmts []Stmt
	for !p.curTokenIs(TokenEOF) {
		if p.curTokenIs(TokenKeyword) && contains(terminators, p.curToken.Literal) {
			break
		}
		if p.curToken.Is(";") {
			p.nextToken()
			continue
		}
		stmt := p.ParseStatement()
		if stmt == nil {
			p.synchronize()
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// ParseStatement parses a single statement. It returns nil after recording
// an error.
func (p *Parser) ParseStatement() Stmt {
	tok := p.curToken
	if tok.Type == TokenName {
		return p.parseModop()
	}
	if tok.Type != TokenKeyword {
		p.errorf("unexpected %s", tok)
		return nil
	}

	switch tok.Literal {
	case "let", "unlet":
		return p.parseLetUnlet()
	case "ref", "unref":
		return p.parseRefUnref()
	case "if":
		return p.parseIf()
	case "catch":
		return p.parseCatch()
	case "print", "println":
		return p.parsePrint()
	case "call", "uncall":
		return p.parseCall()
	case "loop":
		return p.parseWhile()
	case "for":
		return p.parseFor()
	}
	p.errorf("unexpected %s", tok)
	return nil
}

func (p *Parser) parseLetUnlet() Stmt {
	start := p.curToken.Pos
	isUnlet := p.curToken.Literal == "unlet"
	p.nextToken()

	name := p.expectName()
	if name == "" || !p.expect("=") {
		return nil
	}
	rhs := p.ParseExpression()
	if rhs == nil {
		return nil
	}
	return &LetUnlet{SpanVal: p.spanFrom(start), IsUnlet: isUnlet, Name: name, Rhs: rhs}
}

func (p *Parser) parseRefUnref() Stmt {
	start := p.curToken.Pos
	isUnref := p.curToken.Literal == "unref"
	p.nextToken()

	name := p.expectName()
	if name == "" || !p.expect("=") {
		return nil
	}
	target := p.parseLookup()
	if target == nil {
		return nil
	}
	return &RefUnref{SpanVal: p.spanFrom(start), IsUnref: isUnref, Name: name, Rhs: target}
}

var modops = map[string]bool{"+=": true, "-=": true, "*=": true, "/=": true}

func (p *Parser) parseModop() Stmt {
	start := p.curToken.Pos
	target := p.parseLookup()
	if target == nil {
		return nil
	}
	if !p.curTokenIs(TokenSymbol) || !modops[p.curToken.Literal] {
		p.errorf("expected compound assignment after %s, got %s", target.Name, p.curToken)
		return nil
	}
	op := strings.TrimSuffix(p.curToken.Literal, "=")
	p.nextToken()

	rhs := p.ParseExpression()
	if rhs == nil {
		return nil
	}
	return &Modop{SpanVal: p.spanFrom(start), Lookup: target, Op: op, Rhs: rhs}
}

func (p *Parser) parseIf() Stmt {
	start := p.curToken.Pos
	p.nextToken() // if

	fwd := p.parseGuard()
	if fwd == nil {
		return nil
	}
	n := &If{FwdExpr: fwd}
	n.IfStmts = p.parseStatements("else", "fi")
	if p.curToken.Is("else") {
		p.nextToken()
		n.ElseStmts = p.parseStatements("fi")
	}
	if !p.expect("fi") {
		return nil
	}
	if n.BkwdExpr = p.parseGuard(); n.BkwdExpr == nil {
		return nil
	}
	n.SpanVal = p.spanFrom(start)
	return n
}

// parseGuard parses ( expr ).
func (p *Parser) parseGuard() Expr {
	if !p.expect("(") {
		return nil
	}
	e := p.ParseExpression()
	if e == nil || !p.expect(")") {
		return nil
	}
	return e
}

func (p *Parser) parseCatch() Stmt {
	start := p.curToken.Pos
	p.nextToken() // catch
	e := p.parseGuard()
	if e == nil {
		return nil
	}
	return &Catch{SpanVal: p.spanFrom(start), Expr: e}
}

func (p *Parser) parsePrint() Stmt {
	start := p.curToken.Pos
	newline := p.curToken.Literal == "println"
	p.nextToken()

	if !p.expect("(") {
		return nil
	}
	var items []Expr
	for !p.curToken.Is(")") {
		if len(items) > 0 && !p.expect(",") {
			return nil
		}
		e := p.ParseExpression()
		if e == nil {
			return nil
		}
		items = append(items, e)
	}
	p.nextToken() // )
	return &Print{SpanVal: p.spanFrom(start), Items: items, Newline: newline}
}

// parseCall parses call name(borrows)(steals) => (returns). The steal list
// and the return clause are optional.
func (p *Parser) parseCall() Stmt {
	start := p.curToken.Pos
	n := &Call{IsUncall: p.curToken.Literal == "uncall"}
	p.nextToken()

	if n.Name = p.expectName(); n.Name == "" {
		return nil
	}
	if !p.expect("(") {
		return nil
	}
	for !p.curToken.Is(")") {
		if len(n.BorrowArgs) > 0 && !p.expect(",") {
			return nil
		}
		arg := p.parseLookup()
		if arg == nil {
			return nil
		}
		n.BorrowArgs = append(n.BorrowArgs, arg)
	}
	p.nextToken() // )

	var ok bool
	if p.curToken.Is("(") {
		if n.StealArgs, ok = p.parseNameList(); !ok {
			return nil
		}
	}
	if p.curToken.Is("=>") {
		p.nextToken()
		if n.ReturnArgs, ok = p.parseNameList(); !ok {
			return nil
		}
	}
	n.SpanVal = p.spanFrom(start)
	return n
}

// parseWhile parses loop (fwd) stmts pool [(bkwd)].
func (p *Parser) parseWhile() Stmt {
	start := p.curToken.Pos
	p.nextToken() // loop

	fwd := p.parseGuard()
	if fwd == nil {
		return nil
	}
	n := &While{FwdExpr: fwd}
	n.Stmts = p.parseStatements("pool")
	if !p.expect("pool") {
		return nil
	}
	if p.curToken.Is("(") {
		if n.BkwdExpr = p.parseGuard(); n.BkwdExpr == nil {
			return nil
		}
	}
	n.SpanVal = p.spanFrom(start)
	return n
}

// parseFor parses for (name in lookup) stmts rof.
func (p *Parser) parseFor() Stmt {
	start := p.curToken.Pos
	p.nextToken() // for

	if !p.expect("(") {
		return nil
	}
	n := &For{Name: p.expectName()}
	if n.Name == "" || !p.expect("in") {
		return nil
	}
	if n.Iterator = p.parseLookup(); n.Iterator == nil {
		return nil
	}
	if !p.expect(")") {
		return nil
	}
	n.Stmts = p.parseStatements("rof")
	if !p.expect("rof") {
		return nil
	}
	n.SpanVal = p.spanFrom(start)
	return n
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

var (
	comparisonOps     = map[string]bool{"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true}
	additiveOps       = map[string]bool{"+": true, "-": true}
	multiplicativeOps = map[string]bool{"*": true, "/": true}
)

// ParseExpression parses a single expression. It returns nil after
// recording an error.
func (p *Parser) ParseExpression() Expr {
	return p.parseBinary(comparisonOps, func() Expr {
		return p.parseBinary(additiveOps, func() Expr {
			return p.parseBinary(multiplicativeOps, p.parseUnary)
		})
	})
}

// parseBinary parses a left-associative chain of operand (op operand)*.
func (p *Parser) parseBinary(ops map[string]bool, operand func() Expr) Expr {
	start := p.curToken.Pos
	lhs := operand()
	if lhs == nil {
		return nil
	}
	for p.curTokenIs(TokenSymbol) && ops[p.curToken.Literal] {
		op := p.curToken.Literal
		p.nextToken()
		rhs := operand()
		if rhs == nil {
			return nil
		}
		lhs = &Binop{SpanVal: p.spanFrom(start), Lhs: lhs, Op: op, Rhs: rhs}
	}
	return lhs
}

// parseUnary parses a prefix minus. A negated number literal is folded.
func (p *Parser) parseUnary() Expr {
	if !p.curToken.Is("-") {
		return p.parsePrimary()
	}
	start := p.curToken.Pos
	p.nextToken()
	operand := p.parseUnary()
	if operand == nil {
		return nil
	}
	if lit, ok := operand.(*FractionLiteral); ok {
		neg := new(big.Rat).Neg(lit.Value.Rat())
		return &FractionLiteral{SpanVal: p.spanFrom(start), Value: vm.FractionFromRat(neg)}
	}
	return &Uniop{SpanVal: p.spanFrom(start), Op: "-", Expr: operand}
}

func (p *Parser) parsePrimary() Expr {
	tok := p.curToken
	switch {
	case tok.Type == TokenNumber:
		p.nextToken()
		f, err := vm.ParseFraction(tok.Literal)
		if err != nil {
			p.errors = append(p.errors, &Error{Kind: SyntaxError, Pos: tok.Pos, Register: -1, Msg: err.Error()})
			return nil
		}
		return &FractionLiteral{SpanVal: Span{Start: tok.Pos, End: tok.End}, Value: f}

	case tok.Type == TokenString:
		p.nextToken()
		return &StringLiteral{SpanVal: Span{Start: tok.Pos, End: tok.End}, Value: tok.Literal}

	case tok.Type == TokenName:
		return p.parseLookup()

	case tok.Is("("):
		p.nextToken()
		e := p.ParseExpression()
		if e == nil || !p.expect(")") {
			return nil
		}
		return e

	case tok.Is("["):
		return p.parseArray()
	}

	p.errorf("unexpected %s in expression", tok)
	return nil
}

// parseArray parses [], [a, b, ...] or [item tensor dims].
func (p *Parser) parseArray() Expr {
	start := p.curToken.Pos
	p.nextToken() // [

	if p.curToken.Is("]") {
		p.nextToken()
		return &ArrayLiteral{SpanVal: p.spanFrom(start)}
	}

	first := p.ParseExpression()
	if first == nil {
		return nil
	}
	if p.curToken.Is("tensor") {
		p.nextToken()
		dims := p.ParseExpression()
		if dims == nil || !p.expect("]") {
			return nil
		}
		return &ArrayRepeat{SpanVal: p.spanFrom(start), Item: first, Dimensions: dims}
	}

	items := []Expr{first}
	for p.curToken.Is(",") {
		p.nextToken()
		e := p.ParseExpression()
		if e == nil {
			return nil
		}
		items = append(items, e)
	}
	if !p.expect("]") {
		return nil
	}
	return &ArrayLiteral{SpanVal: p.spanFrom(start), Items: items}
}

// parseLookup parses name {[ expr ]}.
func (p *Parser) parseLookup() *Lookup {
	start := p.curToken.Pos
	name := p.expectName()
	if name == "" {
		return nil
	}
	n := &Lookup{Name: name}
	for p.curToken.Is("[") {
		p.nextToken()
		idx := p.ParseExpression()
		if idx == nil || !p.expect("]") {
			return nil
		}
		n.Indices = append(n.Indices, idx)
	}
	n.SpanVal = p.spanFrom(start)
	return n
}
