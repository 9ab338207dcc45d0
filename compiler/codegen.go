package compiler

import (
	"github.com/chazu/remix/syntax"
	"github.com/chazu/remix/vm"
)

// ---------------------------------------------------------------------------
// Codegen: syntax tree to VM instructions
// ---------------------------------------------------------------------------

// Codegen compiles a lowered function into a flat instruction sequence.
// Exterior ref and unref emit nothing since the alias shares its target's
// register. Control flow, interior aliases and indexed updates are not
// generated.
func Codegen(fn *syntax.Function) (*vm.Function, error) {
	g := &codegen{b: vm.NewCodeBuilder(), fn: fn}
	for _, s := range fn.Stmts {
		if err := g.stmt(s); err != nil {
			return nil, err
		}
	}
	return &vm.Function{
		Name:      fn.Name,
		Code:      g.b.Code(),
		Consts:    fn.Consts,
		NumLocals: fn.NumRegisters,
	}, nil
}

// CodegenModule compiles every function of a module and its global
// function.
func CodegenModule(m *syntax.Module) (*vm.Program, error) {
	p := &vm.Program{Main: m.MainIdx}
	for _, fn := range m.Functions {
		vfn, err := Codegen(fn)
		if err != nil {
			return nil, err
		}
		p.Functions = append(p.Functions, vfn)
	}
	if m.Global != nil {
		g, err := Codegen(m.Global)
		if err != nil {
			return nil, err
		}
		p.Global = g
	}
	return p, nil
}

type codegen struct {
	b  *vm.CodeBuilder
	fn *syntax.Function
}

func (g *codegen) unsupported(format string, args ...interface{}) error {
	e := newError(Unsupported, "", format, args...)
	e.Msg = g.fn.Name + ": " + e.Msg
	return e
}

func (g *codegen) stmt(s syntax.Stmt) error {
	switch n := s.(type) {
	case *syntax.LetUnlet:
		if err := g.expr(n.Rhs); err != nil {
			return err
		}
		if n.IsUnlet {
			g.b.EmitArg(vm.OpUnstoreLocal, n.Register)
		} else {
			g.b.EmitArg(vm.OpStoreLocal, n.Register)
		}
		return nil

	case *syntax.RefUnref:
		if n.Interior {
			return g.unsupported("code generation for interior aliases")
		}
		return nil

	case *syntax.Modop:
		if len(n.Lookup.Indices) > 0 {
			return g.unsupported("code generation for indexed compound assignment")
		}
		g.b.EmitArg(vm.OpLoadLocal, n.Lookup.Register)
		if err := g.expr(n.Rhs); err != nil {
			return err
		}
		g.b.Emit(n.Op)
		g.b.EmitArg(vm.OpStoreLocal, n.Lookup.Register)
		return nil

	case *syntax.If:
		return g.unsupported("code generation for if")
	case *syntax.Catch:
		return g.unsupported("code generation for catch")
	}
	return g.unsupported("code generation for %T", s)
}

func (g *codegen) expr(e syntax.Expr) error {
	switch n := e.(type) {
	case *syntax.Fraction:
		g.b.EmitArg(vm.OpLoadConst, n.ConstIdx)
		return nil

	case *syntax.String:
		g.b.EmitArg(vm.OpLoadConst, n.ConstIdx)
		return nil

	case *syntax.ArrayLiteral:
		if n.IsConst() {
			g.b.EmitArg(vm.OpLoadConst, n.ConstIdx)
			return nil
		}
		for _, item := range n.Items {
			if err := g.expr(item); err != nil {
				return err
			}
		}
		g.b.EmitArg(vm.OpMakeArray, len(n.Items))
		return nil

	case *syntax.Lookup:
		g.b.EmitArg(vm.OpLoadLocal, n.Register)
		for _, idx := range n.Indices {
			if err := g.expr(idx); err != nil {
				return err
			}
			g.b.Emit(vm.OpIndex)
		}
		return nil

	case *syntax.Binop:
		if err := g.expr(n.Lhs); err != nil {
			return err
		}
		if err := g.expr(n.Rhs); err != nil {
			return err
		}
		g.b.Emit(n.Op)
		return nil
	}
	return g.unsupported("code generation for %T", e)
}
