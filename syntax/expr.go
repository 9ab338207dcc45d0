package syntax

import "github.com/chazu/remix/vm"

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface for lowered expression nodes.
type Expr interface {
	IsMono() bool
	UsedVars() VarSet
	expr() // marker method
}

// Fraction is a numeric literal held in the function's constant pool.
type Fraction struct {
	ConstIdx int
}

func (n *Fraction) IsMono() bool     { return true }
func (n *Fraction) UsedVars() VarSet { return nil }
func (n *Fraction) expr()            {}

// String is a string literal held in the function's constant pool.
type String struct {
	ConstIdx int
}

func (n *String) IsMono() bool     { return true }
func (n *String) UsedVars() VarSet { return nil }
func (n *String) expr()            {}

// ArrayLiteral is a bracketed list of items. When every item is a constant
// the whole array is folded into the constant pool and ConstIdx is its index;
// otherwise ConstIdx is -1 and the items are built at run time.
type ArrayLiteral struct {
	Items    []Expr
	ConstIdx int
}

func (n *ArrayLiteral) IsMono() bool     { return allMono(n.Items) }
func (n *ArrayLiteral) UsedVars() VarSet { return exprsUsedVars(n.Items) }
func (n *ArrayLiteral) expr()            {}

// IsConst reports whether the literal was folded into the constant pool.
func (n *ArrayLiteral) IsConst() bool { return n.ConstIdx >= 0 }

// ArrayRepeat is an array of Item repeated over Dimensions.
type ArrayRepeat struct {
	Item       Expr
	Dimensions Expr
}

func (n *ArrayRepeat) IsMono() bool { return n.Item.IsMono() && n.Dimensions.IsMono() }
func (n *ArrayRepeat) UsedVars() VarSet {
	return n.Item.UsedVars().Union(n.Dimensions.UsedVars())
}
func (n *ArrayRepeat) expr() {}

// Lookup reads a register, optionally indexing into it.
type Lookup struct {
	Register  int
	Var       VarID
	Indices   []Expr
	VarIsMono bool // the variable had a single live alias when lowered
}

func (n *Lookup) IsMono() bool { return n.VarIsMono && allMono(n.Indices) }
func (n *Lookup) UsedVars() VarSet {
	return NewVarSet(n.Var).Union(n.IndexUsedVars())
}
func (n *Lookup) expr() {}

// IndexUsedVars returns the variables read by the index expressions only.
func (n *Lookup) IndexUsedVars() VarSet {
	return exprsUsedVars(n.Indices)
}

// Binop applies an arithmetic or comparison opcode to two operands.
type Binop struct {
	Lhs Expr
	Rhs Expr
	Op  vm.Opcode
}

func (n *Binop) IsMono() bool     { return n.Lhs.IsMono() && n.Rhs.IsMono() }
func (n *Binop) UsedVars() VarSet { return n.Lhs.UsedVars().Union(n.Rhs.UsedVars()) }
func (n *Binop) expr()            {}

// Uniop applies a unary operator. Negation is represented as Op = OpSub with
// an implicit zero left operand.
type Uniop struct {
	Expr Expr
	Op   vm.Opcode
}

func (n *Uniop) IsMono() bool     { return n.Expr.IsMono() }
func (n *Uniop) UsedVars() VarSet { return n.Expr.UsedVars() }
func (n *Uniop) expr()            {}

func allMono(exprs []Expr) bool {
	for _, e := range exprs {
		if !e.IsMono() {
			return false
		}
	}
	return true
}

func exprsUsedVars(exprs []Expr) VarSet {
	out := VarSet{}
	for _, e := range exprs {
		for id := range e.UsedVars() {
			out[id] = struct{}{}
		}
	}
	return out
}
