package compiler

import (
	"github.com/chazu/remix/syntax"
	"github.com/chazu/remix/vm"
)

// ---------------------------------------------------------------------------
// Lowering: parse tree to register-based syntax tree
// ---------------------------------------------------------------------------

// GlobalName is the name given to the function formed by top-level
// statements.
const GlobalName = "<global>"

// binaryOps maps source operators to VM opcodes.
var binaryOps = map[string]vm.Opcode{
	"+":  vm.OpAdd,
	"-":  vm.OpSub,
	"*":  vm.OpMul,
	"/":  vm.OpDiv,
	"==": vm.OpEq,
	"!=": vm.OpNe,
	"<":  vm.OpLt,
	">":  vm.OpGt,
	"<=": vm.OpLe,
	">=": vm.OpGe,
}

// Lower lowers a parsed module. The function table is built before any body
// is lowered, so functions may refer to each other in any order.
func Lower(m *Module) (*syntax.Module, error) {
	funcs, err := NewFuncTable(m.Functions)
	if err != nil {
		return nil, err
	}

	out := &syntax.Module{MainIdx: -1}
	for i, decl := range m.Functions {
		fn, err := LowerFunction(decl, funcs)
		if err != nil {
			return nil, err
		}
		fn.Prototype = funcs.Prototype(i)
		out.Functions = append(out.Functions, fn)
		out.Prototypes = append(out.Prototypes, fn.Prototype)
	}

	global, _, err := LowerGlobal(m.Global, funcs)
	if err != nil {
		return nil, err
	}
	out.Global = global

	if i, ok := funcs.Lookup("main"); ok {
		out.MainIdx = i
	}
	log.Debugf("lowered %d function(s), main=%d", len(out.Functions), out.MainIdx)
	return out, nil
}

// LowerFunction lowers one declaration in a fresh context. Borrow and steal
// parameters are bound on entry. On exit the return parameters are resolved
// and then borrow and return parameters are released; any other name still
// bound is reported as leaked.
func LowerFunction(decl *FunctionDecl, funcs *FuncTable) (*syntax.Function, error) {
	ctx := NewContext(funcs)
	fn := &syntax.Function{Name: decl.Name}

	for _, name := range decl.BorrowParams {
		r, err := ctx.CreateVariable(name)
		if err != nil {
			return nil, atNode(decl, err)
		}
		fn.BorrowRegisters = append(fn.BorrowRegisters, r)
	}
	for _, name := range decl.StealParams {
		r, err := ctx.CreateVariable(name)
		if err != nil {
			return nil, atNode(decl, err)
		}
		fn.StealRegisters = append(fn.StealRegisters, r)
	}

	stmts, err := lowerStmts(ctx, decl.Stmts)
	if err != nil {
		return nil, err
	}
	fn.Stmts = stmts

	for _, name := range decl.ReturnParams {
		r, err := ctx.LookupLocal(name)
		if err != nil {
			return nil, atNode(decl, err)
		}
		fn.ReturnRegisters = append(fn.ReturnRegisters, r)
	}
	fn.Bindings = ctx.Bindings()

	release := append(append([]string(nil), decl.ReturnParams...), decl.BorrowParams...)
	for _, name := range release {
		if _, err := ctx.RemoveVariable(name); err != nil {
			return nil, atNode(decl, err)
		}
	}
	if live := ctx.LiveNames(); len(live) > 0 {
		ref, _ := ctx.Reference(live[0])
		e := newError(LeakedVariable, live[0], "%s is still live at the end of %s", live[0], decl.Name)
		e.Register = ref.Register
		return nil, atNode(decl, e)
	}

	fn.Consts = ctx.Consts()
	fn.NumRegisters = ctx.NumRegisters()
	return fn, nil
}

// LowerGlobal lowers top-level statements into the global function. Names
// may stay bound; the returned context holds them.
func LowerGlobal(stmts []Stmt, funcs *FuncTable) (*syntax.Function, *Context, error) {
	ctx := NewContext(funcs)
	lowered, err := lowerStmts(ctx, stmts)
	if err != nil {
		return nil, nil, err
	}
	return &syntax.Function{
		Name:         GlobalName,
		Stmts:        lowered,
		Consts:       ctx.Consts(),
		NumRegisters: ctx.NumRegisters(),
		Bindings:     ctx.Bindings(),
	}, ctx, nil
}

func lowerStmts(ctx *Context, stmts []Stmt) ([]syntax.Stmt, error) {
	out := make([]syntax.Stmt, 0, len(stmts))
	for _, s := range stmts {
		ls, err := LowerStmt(ctx, s)
		if err != nil {
			return nil, err
		}
		out = append(out, ls)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// LowerStmt lowers one statement against ctx.
func LowerStmt(ctx *Context, s Stmt) (syntax.Stmt, error) {
	var (
		out syntax.Stmt
		err error
	)
	switch n := s.(type) {
	case *LetUnlet:
		out, err = lowerLetUnlet(ctx, n)
	case *RefUnref:
		out, err = lowerRefUnref(ctx, n)
	case *Modop:
		out, err = lowerModop(ctx, n)
	case *If:
		out, err = lowerIf(ctx, n)
	case *Catch:
		var e syntax.Expr
		if e, err = LowerExpr(ctx, n.Expr); err == nil {
			out = &syntax.Catch{Expr: e}
		}
	case *Print:
		err = newError(Unsupported, "", "print statements cannot be lowered")
	case *While:
		err = newError(Unsupported, "", "loop statements cannot be lowered")
	case *For:
		err = newError(Unsupported, n.Name, "for statements cannot be lowered")
	case *Call:
		verb := "call"
		if n.IsUncall {
			verb = "uncall"
		}
		if _, ok := ctx.Funcs().Lookup(n.Name); !ok {
			err = newError(UndefinedVariable, n.Name, "%s of undefined function %s", verb, n.Name)
			break
		}
		err = newError(Unsupported, n.Name, "%s statements cannot be lowered", verb)
	default:
		err = newError(Unsupported, "", "statement %T cannot be lowered", s)
	}
	if err != nil {
		return nil, atNode(s, err)
	}
	return out, nil
}

// lowerLetUnlet lowers let and unlet. A let binds its name after the
// initializer is lowered; an unlet unbinds its name before the finalizer is
// lowered. Neither expression can see the name.
func lowerLetUnlet(ctx *Context, n *LetUnlet) (syntax.Stmt, error) {
	if !n.IsUnlet {
		rhs, err := LowerExpr(ctx, n.Rhs)
		if err != nil {
			return nil, err
		}
		r, err := ctx.CreateVariable(n.Name)
		if err != nil {
			return nil, err
		}
		ref, _ := ctx.Reference(n.Name)
		return &syntax.LetUnlet{Register: r, Var: ref.Var, Rhs: rhs}, nil
	}

	ref, _ := ctx.Reference(n.Name)
	r, err := ctx.RemoveVariable(n.Name)
	if err != nil {
		return nil, err
	}
	rhs, err := LowerExpr(ctx, n.Rhs)
	if err != nil {
		return nil, err
	}
	return &syntax.LetUnlet{IsUnlet: true, Register: r, Var: ref.Var, Rhs: rhs}, nil
}

// lowerRefUnref lowers ref and unref. The alias is created or retired before
// the target lookup is lowered. Retiring an interior alias frees the
// register it was given.
func lowerRefUnref(ctx *Context, n *RefUnref) (syntax.Stmt, error) {
	if !n.IsUnref {
		r, err := ctx.CreateRef(n.Name, n.Rhs)
		if err != nil {
			return nil, err
		}
		ref, _ := ctx.Reference(n.Name)
		target, err := lowerLookup(ctx, n.Rhs)
		if err != nil {
			return nil, err
		}
		return &syntax.RefUnref{Register: r, Interior: ref.Interior, Rhs: target}, nil
	}

	ref, _ := ctx.Reference(n.Name)
	r, err := ctx.RemoveRef(n.Name, n.Rhs)
	if err != nil {
		return nil, err
	}
	target, err := lowerLookup(ctx, n.Rhs)
	if err != nil {
		return nil, err
	}
	if ref.Interior {
		ctx.FreeRegister(r)
	}
	return &syntax.RefUnref{IsUnref: true, Register: r, Interior: ref.Interior, Rhs: target}, nil
}

var modopCodes = map[string]vm.Opcode{
	"+": vm.OpAdd,
	"-": vm.OpSub,
	"*": vm.OpMul,
	"/": vm.OpDiv,
}

func lowerModop(ctx *Context, n *Modop) (syntax.Stmt, error) {
	op, ok := modopCodes[n.Op]
	if !ok {
		return nil, newError(Unsupported, "", "compound operator %s=", n.Op)
	}
	target, err := lowerLookup(ctx, n.Lookup)
	if err != nil {
		return nil, err
	}
	rhs, err := LowerExpr(ctx, n.Rhs)
	if err != nil {
		return nil, err
	}
	return &syntax.Modop{Lookup: target, Op: op, Rhs: rhs}, nil
}

// lowerIf lowers the forward guard, both branches and the backward guard,
// in that order, against the same context.
func lowerIf(ctx *Context, n *If) (syntax.Stmt, error) {
	fwd, err := LowerExpr(ctx, n.FwdExpr)
	if err != nil {
		return nil, err
	}
	ifStmts, err := lowerStmts(ctx, n.IfStmts)
	if err != nil {
		return nil, err
	}
	elseStmts, err := lowerStmts(ctx, n.ElseStmts)
	if err != nil {
		return nil, err
	}
	bkwd, err := LowerExpr(ctx, n.BkwdExpr)
	if err != nil {
		return nil, err
	}
	return &syntax.If{FwdExpr: fwd, IfStmts: ifStmts, ElseStmts: elseStmts, BkwdExpr: bkwd}, nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// LowerExpr lowers one expression against ctx.
func LowerExpr(ctx *Context, e Expr) (syntax.Expr, error) {
	var (
		out syntax.Expr
		err error
	)
	switch n := e.(type) {
	case *FractionLiteral:
		out = &syntax.Fraction{ConstIdx: ctx.AddConst(n.Value)}
	case *StringLiteral:
		out = &syntax.String{ConstIdx: ctx.AddConst(vm.String(n.Value))}
	case *ArrayLiteral:
		out, err = lowerArray(ctx, n)
	case *Lookup:
		out, err = lowerLookup(ctx, n)
	case *Binop:
		out, err = lowerBinop(ctx, n)
	case *Uniop:
		err = newError(Unsupported, "", "unary %s cannot be lowered", n.Op)
	case *ArrayRepeat:
		err = newError(Unsupported, "", "array repeat cannot be lowered")
	default:
		err = newError(Unsupported, "", "expression %T cannot be lowered", e)
	}
	if err != nil {
		return nil, atNode(e, err)
	}
	return out, nil
}

// lowerArray folds an array of constants into a single pool entry. Other
// arrays keep their lowered items and ConstIdx -1.
func lowerArray(ctx *Context, n *ArrayLiteral) (syntax.Expr, error) {
	if v, ok := constValue(n); ok {
		return &syntax.ArrayLiteral{ConstIdx: ctx.AddConst(v)}, nil
	}
	items := make([]syntax.Expr, len(n.Items))
	for i, item := range n.Items {
		lowered, err := LowerExpr(ctx, item)
		if err != nil {
			return nil, err
		}
		items[i] = lowered
	}
	return &syntax.ArrayLiteral{Items: items, ConstIdx: -1}, nil
}

// constValue evaluates literal expressions, including arrays of literals.
func constValue(e Expr) (vm.Value, bool) {
	switch n := e.(type) {
	case *FractionLiteral:
		return n.Value, true
	case *StringLiteral:
		return vm.String(n.Value), true
	case *ArrayLiteral:
		items := make([]vm.Value, len(n.Items))
		for i, item := range n.Items {
			v, ok := constValue(item)
			if !ok {
				return nil, false
			}
			items[i] = v
		}
		return vm.NewArray(items...), true
	}
	return nil, false
}

func lowerLookup(ctx *Context, n *Lookup) (*syntax.Lookup, error) {
	r, err := ctx.LookupLocal(n.Name)
	if err != nil {
		return nil, atNode(n, err)
	}
	ref, _ := ctx.Reference(n.Name)
	out := &syntax.Lookup{
		Register:  r,
		Var:       ref.Var,
		VarIsMono: ctx.IsMonoVar(ref.Var),
	}
	for _, idx := range n.Indices {
		lowered, err := LowerExpr(ctx, idx)
		if err != nil {
			return nil, err
		}
		out.Indices = append(out.Indices, lowered)
	}
	return out, nil
}

func lowerBinop(ctx *Context, n *Binop) (syntax.Expr, error) {
	op, ok := binaryOps[n.Op]
	if !ok {
		return nil, newError(Unsupported, "", "operator %s", n.Op)
	}
	lhs, err := LowerExpr(ctx, n.Lhs)
	if err != nil {
		return nil, err
	}
	rhs, err := LowerExpr(ctx, n.Rhs)
	if err != nil {
		return nil, err
	}
	return &syntax.Binop{Lhs: lhs, Op: op, Rhs: rhs}, nil
}
