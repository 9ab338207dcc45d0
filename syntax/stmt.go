package syntax

import "github.com/chazu/remix/vm"

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// Stmt is the interface for lowered statement nodes.
type Stmt interface {
	IsMono() bool
	UsedVars() VarSet
	stmt() // marker method
}

// LetUnlet creates (let) or destroys (unlet) the variable in Register,
// initializing it from or checking it against Rhs.
type LetUnlet struct {
	IsUnlet  bool
	Register int
	Var      VarID
	Rhs      Expr
}

func (n *LetUnlet) IsMono() bool     { return n.Rhs.IsMono() }
func (n *LetUnlet) UsedVars() VarSet { return NewVarSet(n.Var).Union(n.Rhs.UsedVars()) }
func (n *LetUnlet) stmt()            {}

// RefUnref introduces or retires an alias held in Register. An exterior alias
// shares the register of its target; an interior alias has its own.
type RefUnref struct {
	IsUnref  bool
	Register int
	Interior bool
	Rhs      *Lookup
}

// IsMono is always false: the statement changes aliasing.
func (n *RefUnref) IsMono() bool     { return false }
func (n *RefUnref) UsedVars() VarSet { return n.Rhs.UsedVars() }
func (n *RefUnref) stmt()            {}

// Modop is a compound assignment: Lookup op= Rhs.
type Modop struct {
	Lookup *Lookup
	Op     vm.Opcode
	Rhs    Expr
}

// IsMono is false when the right-hand side reads the variable being
// modified, since the update would then not be invertible.
func (n *Modop) IsMono() bool {
	return n.Lookup.IsMono() && n.Rhs.IsMono() && !n.Rhs.UsedVars().Has(n.Lookup.Var)
}
func (n *Modop) UsedVars() VarSet { return n.Lookup.UsedVars().Union(n.Rhs.UsedVars()) }
func (n *Modop) stmt()            {}

// If is a reversible conditional. FwdExpr selects the branch going forward;
// BkwdExpr must select the same branch when running backward.
type If struct {
	FwdExpr   Expr
	IfStmts   []Stmt
	ElseStmts []Stmt
	BkwdExpr  Expr
}

func (n *If) IsMono() bool {
	return n.FwdExpr.IsMono() && n.BkwdExpr.IsMono() && allStmtsMono(n.IfStmts) && allStmtsMono(n.ElseStmts)
}
func (n *If) UsedVars() VarSet {
	return n.FwdExpr.UsedVars().Union(n.BkwdExpr.UsedVars(), StmtsUsedVars(n.IfStmts), StmtsUsedVars(n.ElseStmts))
}
func (n *If) stmt() {}

// Catch aborts execution when Expr holds.
type Catch struct {
	Expr Expr
}

func (n *Catch) IsMono() bool     { return n.Expr.IsMono() }
func (n *Catch) UsedVars() VarSet { return n.Expr.UsedVars() }
func (n *Catch) stmt()            {}

// ---------------------------------------------------------------------------
// Declared statement kinds without a lowering
// ---------------------------------------------------------------------------

// Print writes Items, followed by a newline when Newline is set.
type Print struct {
	Items   []Expr
	Newline bool
}

func (n *Print) IsMono() bool     { return allMono(n.Items) }
func (n *Print) UsedVars() VarSet { return exprsUsedVars(n.Items) }
func (n *Print) stmt()            {}

// While loops while FwdExpr holds. BkwdExpr, when present, is the loop
// condition checked when running backward.
type While struct {
	FwdExpr  Expr
	Stmts    []Stmt
	BkwdExpr Expr
}

func (n *While) IsMono() bool {
	mono := n.FwdExpr.IsMono() && allStmtsMono(n.Stmts)
	if n.BkwdExpr != nil {
		mono = mono && n.BkwdExpr.IsMono()
	}
	return mono
}
func (n *While) UsedVars() VarSet {
	out := n.FwdExpr.UsedVars().Union(StmtsUsedVars(n.Stmts))
	if n.BkwdExpr != nil {
		out = out.Union(n.BkwdExpr.UsedVars())
	}
	return out
}
func (n *While) stmt() {}

// For binds Register to each element of Iterator in turn.
type For struct {
	Register int
	Iterator *Lookup
	Stmts    []Stmt
}

func (n *For) IsMono() bool     { return false }
func (n *For) UsedVars() VarSet { return n.Iterator.UsedVars().Union(StmtsUsedVars(n.Stmts)) }
func (n *For) stmt()            {}

// Call invokes (or uncalls) the function at FuncIdx.
type Call struct {
	IsUncall   bool
	FuncIdx    int
	BorrowArgs []*Lookup
	StolenArgs []int
	ReturnArgs []int
}

func (n *Call) IsMono() bool { return false }
func (n *Call) UsedVars() VarSet {
	out := VarSet{}
	for _, l := range n.BorrowArgs {
		out = out.Union(l.UsedVars())
	}
	return out
}
func (n *Call) stmt() {}

// PushPull moves the value in Register onto (push) or off (pull) the array
// addressed by Lookup.
type PushPull struct {
	IsPush   bool
	Register int
	Lookup   *Lookup
}

func (n *PushPull) IsMono() bool     { return false }
func (n *PushPull) UsedVars() VarSet { return n.Lookup.UsedVars() }
func (n *PushPull) stmt()            {}

// DoYield runs DoStmts, then YieldStmts, then DoStmts in reverse.
type DoYield struct {
	DoStmts    []Stmt
	YieldStmts []Stmt
}

func (n *DoYield) IsMono() bool { return allStmtsMono(n.DoStmts) && allStmtsMono(n.YieldStmts) }
func (n *DoYield) UsedVars() VarSet {
	return StmtsUsedVars(n.DoStmts).Union(StmtsUsedVars(n.YieldStmts))
}
func (n *DoYield) stmt() {}

func allStmtsMono(stmts []Stmt) bool {
	for _, s := range stmts {
		if !s.IsMono() {
			return false
		}
	}
	return true
}

// StmtsUsedVars returns the union of UsedVars over stmts.
func StmtsUsedVars(stmts []Stmt) VarSet {
	out := VarSet{}
	for _, s := range stmts {
		for id := range s.UsedVars() {
			out[id] = struct{}{}
		}
	}
	return out
}
