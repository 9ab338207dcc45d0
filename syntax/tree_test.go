package syntax

import (
	"reflect"
	"testing"

	"github.com/chazu/remix/vm"
)

func lookup(reg int, v VarID, mono bool, indices ...Expr) *Lookup {
	return &Lookup{Register: reg, Var: v, Indices: indices, VarIsMono: mono}
}

func TestVarSet(t *testing.T) {
	var empty VarSet
	if empty.Has(1) || empty.Len() != 0 {
		t.Error("nil set should be empty")
	}
	s := NewVarSet(3, 1).Union(nil, NewVarSet(2, 3))
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	if got := s.Sorted(); !reflect.DeepEqual(got, []VarID{1, 2, 3}) {
		t.Errorf("Sorted = %v", got)
	}
	a := NewVarSet(1)
	_ = a.Union(NewVarSet(2))
	if a.Has(2) {
		t.Error("Union mutated its receiver")
	}
}

func TestExprIsMono(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want bool
	}{
		{"fraction", &Fraction{ConstIdx: 0}, true},
		{"string", &String{ConstIdx: 1}, true},
		{"mono lookup", lookup(0, 0, true), true},
		{"aliased lookup", lookup(0, 0, false), false},
		{"lookup with aliased index", lookup(0, 0, true, lookup(1, 1, false)), false},
		{"binop", &Binop{Lhs: lookup(0, 0, true), Rhs: &Fraction{}, Op: vm.OpAdd}, true},
		{"binop with aliased side", &Binop{Lhs: lookup(0, 0, false), Rhs: &Fraction{}, Op: vm.OpAdd}, false},
		{"array", &ArrayLiteral{Items: []Expr{&Fraction{}, lookup(0, 0, true)}, ConstIdx: -1}, true},
		{"array with aliased item", &ArrayLiteral{Items: []Expr{lookup(0, 0, false)}, ConstIdx: -1}, false},
		{"uniop", &Uniop{Expr: lookup(0, 0, false), Op: vm.OpSub}, false},
		{"repeat", &ArrayRepeat{Item: &Fraction{}, Dimensions: &Fraction{}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.IsMono(); got != tt.want {
				t.Errorf("IsMono = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExprUsedVars(t *testing.T) {
	e := &Binop{
		Lhs: lookup(0, 7, true, lookup(2, 9, true)),
		Rhs: &ArrayLiteral{Items: []Expr{lookup(4, 7, true), &Fraction{}}, ConstIdx: -1},
		Op:  vm.OpAdd,
	}
	if got := e.UsedVars().Sorted(); !reflect.DeepEqual(got, []VarID{7, 9}) {
		t.Errorf("UsedVars = %v, want [7 9]", got)
	}
	l := lookup(0, 1, true, lookup(1, 2, true))
	if got := l.IndexUsedVars().Sorted(); !reflect.DeepEqual(got, []VarID{2}) {
		t.Errorf("IndexUsedVars = %v, want [2]", got)
	}
	if (&Fraction{}).UsedVars().Len() != 0 {
		t.Error("literal should use no variables")
	}
}

func TestStmtIsMono(t *testing.T) {
	tests := []struct {
		name string
		stmt Stmt
		want bool
	}{
		{"let", &LetUnlet{Register: 0, Var: 0, Rhs: &Fraction{}}, true},
		{"let aliased rhs", &LetUnlet{Register: 0, Var: 0, Rhs: lookup(1, 1, false)}, false},
		{"ref", &RefUnref{Register: 0, Rhs: lookup(0, 0, true)}, false},
		{"modop", &Modop{Lookup: lookup(0, 0, true), Op: vm.OpAdd, Rhs: lookup(1, 1, true)}, true},
		{"modop reads target", &Modop{Lookup: lookup(0, 0, true), Op: vm.OpAdd, Rhs: lookup(0, 0, true)}, false},
		{"modop reads target through alias", &Modop{Lookup: lookup(0, 0, true), Op: vm.OpAdd, Rhs: lookup(3, 0, true)}, false},
		{"catch", &Catch{Expr: lookup(0, 0, true)}, true},
		{"if", &If{
			FwdExpr:   lookup(0, 0, true),
			IfStmts:   []Stmt{&LetUnlet{Rhs: &Fraction{}}},
			ElseStmts: nil,
			BkwdExpr:  lookup(0, 0, true),
		}, true},
		{"if with ref branch", &If{
			FwdExpr:  &Fraction{},
			IfStmts:  []Stmt{&RefUnref{Rhs: lookup(0, 0, true)}},
			BkwdExpr: &Fraction{},
		}, false},
		{"while without backward guard", &While{FwdExpr: &Fraction{}}, true},
		{"call", &Call{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stmt.IsMono(); got != tt.want {
				t.Errorf("IsMono = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStmtUsedVars(t *testing.T) {
	let := &LetUnlet{Register: 2, Var: 5, Rhs: lookup(0, 1, true)}
	if got := let.UsedVars().Sorted(); !reflect.DeepEqual(got, []VarID{1, 5}) {
		t.Errorf("let UsedVars = %v", got)
	}

	stmts := []Stmt{
		let,
		&If{
			FwdExpr:   lookup(0, 1, true),
			IfStmts:   []Stmt{&Catch{Expr: lookup(3, 8, true)}},
			ElseStmts: []Stmt{&Modop{Lookup: lookup(4, 6, true), Op: vm.OpSub, Rhs: &Fraction{}}},
			BkwdExpr:  lookup(0, 1, true),
		},
	}
	if got := StmtsUsedVars(stmts).Sorted(); !reflect.DeepEqual(got, []VarID{1, 5, 6, 8}) {
		t.Errorf("StmtsUsedVars = %v", got)
	}
}

func TestPrototype(t *testing.T) {
	p := NewPrototype(2, 1, 0, 3)
	b, s, r := p.Arity()
	if b != 1 || s != 0 || r != 3 {
		t.Errorf("Arity = %d,%d,%d", b, s, r)
	}
	for _, link := range p.ReturnParams {
		if link != nil {
			t.Error("new prototype links should be unbound")
		}
	}
}

func TestModule(t *testing.T) {
	m := &Module{
		Functions: []*Function{{Name: "helper"}, {Name: "main"}},
		MainIdx:   1,
	}
	if m.Lookup("main") != 1 || m.Lookup("nope") != -1 {
		t.Error("Lookup returned wrong index")
	}
	if m.Main() == nil || m.Main().Name != "main" {
		t.Error("Main returned wrong function")
	}
	m.MainIdx = -1
	if m.Main() != nil {
		t.Error("Main should be nil without an entry point")
	}
}
