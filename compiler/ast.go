package compiler

import (
	"fmt"

	"github.com/chazu/remix/vm"
)

// ---------------------------------------------------------------------------
// Parse tree: name-based AST produced by the parser
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// IsValid reports whether the position refers to a source location.
func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span represents a range in source code.
type Span struct {
	Start Position
	End   Position
}

// Node is the interface implemented by all parse tree nodes.
type Node interface {
	Span() Span
	node() // marker method
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// FractionLiteral represents a numeric literal such as 3 or 3/4.
type FractionLiteral struct {
	SpanVal Span
	Value   vm.Fraction
}

func (n *FractionLiteral) Span() Span { return n.SpanVal }
func (n *FractionLiteral) node()      {}
func (n *FractionLiteral) expr()      {}

// StringLiteral represents a string literal.
type StringLiteral struct {
	SpanVal Span
	Value   string
}

func (n *StringLiteral) Span() Span { return n.SpanVal }
func (n *StringLiteral) node()      {}
func (n *StringLiteral) expr()      {}

// ArrayLiteral represents [a, b, c].
type ArrayLiteral struct {
	SpanVal Span
	Items   []Expr
}

func (n *ArrayLiteral) Span() Span { return n.SpanVal }
func (n *ArrayLiteral) node()      {}
func (n *ArrayLiteral) expr()      {}

// ArrayRepeat represents [item tensor dims].
type ArrayRepeat struct {
	SpanVal    Span
	Item       Expr
	Dimensions Expr
}

func (n *ArrayRepeat) Span() Span { return n.SpanVal }
func (n *ArrayRepeat) node()      {}
func (n *ArrayRepeat) expr()      {}

// Lookup represents a variable reference with an optional index path,
// such as xs or xs[i][0].
type Lookup struct {
	SpanVal Span
	Name    string
	Indices []Expr
}

func (n *Lookup) Span() Span { return n.SpanVal }
func (n *Lookup) node()      {}
func (n *Lookup) expr()      {}

// Binop represents lhs op rhs.
type Binop struct {
	SpanVal Span
	Lhs     Expr
	Op      string
	Rhs     Expr
}

func (n *Binop) Span() Span { return n.SpanVal }
func (n *Binop) node()      {}
func (n *Binop) expr()      {}

// Uniop represents a prefix operator applied to an expression.
type Uniop struct {
	SpanVal Span
	Op      string
	Expr    Expr
}

func (n *Uniop) Span() Span { return n.SpanVal }
func (n *Uniop) node()      {}
func (n *Uniop) expr()      {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// LetUnlet represents let name = rhs, or unlet name = rhs.
type LetUnlet struct {
	SpanVal Span
	IsUnlet bool
	Name    string
	Rhs     Expr
}

func (n *LetUnlet) Span() Span { return n.SpanVal }
func (n *LetUnlet) node()      {}
func (n *LetUnlet) stmt()      {}

// RefUnref represents ref name = lookup, or unref name = lookup.
type RefUnref struct {
	SpanVal Span
	IsUnref bool
	Name    string
	Rhs     *Lookup
}

func (n *RefUnref) Span() Span { return n.SpanVal }
func (n *RefUnref) node()      {}
func (n *RefUnref) stmt()      {}

// Modop represents a compound assignment such as x += e. Op is the
// operator without its trailing '='.
type Modop struct {
	SpanVal Span
	Lookup  *Lookup
	Op      string
	Rhs     Expr
}

func (n *Modop) Span() Span { return n.SpanVal }
func (n *Modop) node()      {}
func (n *Modop) stmt()      {}

// If represents if (fwd) ... else ... fi (bkwd).
type If struct {
	SpanVal   Span
	FwdExpr   Expr
	IfStmts   []Stmt
	ElseStmts []Stmt
	BkwdExpr  Expr
}

func (n *If) Span() Span { return n.SpanVal }
func (n *If) node()      {}
func (n *If) stmt()      {}

// Catch represents catch (expr).
type Catch struct {
	SpanVal Span
	Expr    Expr
}

func (n *Catch) Span() Span { return n.SpanVal }
func (n *Catch) node()      {}
func (n *Catch) stmt()      {}

// Print represents print(...) or println(...).
type Print struct {
	SpanVal Span
	Items   []Expr
	Newline bool
}

func (n *Print) Span() Span { return n.SpanVal }
func (n *Print) node()      {}
func (n *Print) stmt()      {}

// While represents loop (fwd) ... pool (bkwd). BkwdExpr may be nil.
type While struct {
	SpanVal  Span
	FwdExpr  Expr
	Stmts    []Stmt
	BkwdExpr Expr
}

func (n *While) Span() Span { return n.SpanVal }
func (n *While) node()      {}
func (n *While) stmt()      {}

// For represents for (name in iterator) ... rof.
type For struct {
	SpanVal  Span
	Name     string
	Iterator *Lookup
	Stmts    []Stmt
}

func (n *For) Span() Span { return n.SpanVal }
func (n *For) node()      {}
func (n *For) stmt()      {}

// Call represents call f(borrows)(steals) => (returns), or uncall.
type Call struct {
	SpanVal    Span
	IsUncall   bool
	Name       string
	BorrowArgs []*Lookup
	StealArgs  []string
	ReturnArgs []string
}

func (n *Call) Span() Span { return n.SpanVal }
func (n *Call) node()      {}
func (n *Call) stmt()      {}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

// FunctionDecl represents
//
//	func name(borrows)(steals)
//	    stmts
//	return (returns)
type FunctionDecl struct {
	SpanVal      Span
	Name         string
	BorrowParams []string
	StealParams  []string
	ReturnParams []string
	Stmts        []Stmt
}

func (n *FunctionDecl) Span() Span { return n.SpanVal }
func (n *FunctionDecl) node()      {}

// Module is a parsed source file: its function declarations in source order
// and the top-level statements that form the global function.
type Module struct {
	SpanVal   Span
	Functions []*FunctionDecl
	Global    []Stmt
}

func (n *Module) Span() Span { return n.SpanVal }
func (n *Module) node()      {}
