package syntax

import "github.com/chazu/remix/vm"

// ---------------------------------------------------------------------------
// Cross-function contract
// ---------------------------------------------------------------------------

// ParamLink describes how one parameter register is linked across a call.
// A nil *ParamLink in a prototype means the parameter is unbound.
type ParamLink struct {
	Interior     bool
	Link         *string // name of the linked parameter, nil if unlinked
	LinkedBorrow *int    // index into the caller's borrow registers
	LinkedIO     *int    // index into the caller's steal/return registers
}

// FunctionPrototype is the ownership contract of a function's parameters.
// OwnedLinkGroups lists groups of borrow, steal and return parameter
// indices that vary together.
type FunctionPrototype struct {
	ID              int
	OwnedLinkGroups [][3][]int
	BorrowParams    []*ParamLink
	StealParams     []*ParamLink
	ReturnParams    []*ParamLink
}

// NewPrototype returns a prototype with every parameter unbound.
func NewPrototype(id, borrows, steals, returns int) *FunctionPrototype {
	return &FunctionPrototype{
		ID:           id,
		BorrowParams: make([]*ParamLink, borrows),
		StealParams:  make([]*ParamLink, steals),
		ReturnParams: make([]*ParamLink, returns),
	}
}

// Arity returns the number of borrow, steal and return parameters.
func (p *FunctionPrototype) Arity() (borrows, steals, returns int) {
	return len(p.BorrowParams), len(p.StealParams), len(p.ReturnParams)
}

// ---------------------------------------------------------------------------
// Function and Module
// ---------------------------------------------------------------------------

// Function is a lowered function. Registers are numbered from zero and never
// shared with other functions; neither is the constant pool.
type Function struct {
	Name            string
	Stmts           []Stmt
	Consts          []vm.Value
	NumRegisters    int
	BorrowRegisters []int
	StealRegisters  []int
	ReturnRegisters []int
	Prototype       *FunctionPrototype
	Bindings        map[string]int // names live at the end of the body
}

// IsMono reports whether every statement of the body is mono.
func (f *Function) IsMono() bool {
	return allStmtsMono(f.Stmts)
}

// UsedVars returns the variables touched by the body.
func (f *Function) UsedVars() VarSet {
	return StmtsUsedVars(f.Stmts)
}

// Module is a lowered compilation unit.
type Module struct {
	Functions  []*Function
	MainIdx    int // index of the entry point, -1 if none
	Global     *Function
	Prototypes []*FunctionPrototype
}

// Lookup returns the index of the named function, or -1.
func (m *Module) Lookup(name string) int {
	for i, fn := range m.Functions {
		if fn.Name == name {
			return i
		}
	}
	return -1
}

// Main returns the entry-point function, or nil.
func (m *Module) Main() *Function {
	if m.MainIdx < 0 || m.MainIdx >= len(m.Functions) {
		return nil
	}
	return m.Functions[m.MainIdx]
}
