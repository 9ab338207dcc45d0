package compiler

import (
	"sort"
	"strings"

	"github.com/chazu/remix/syntax"
	"github.com/chazu/remix/vm"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("remix.compiler")

// ---------------------------------------------------------------------------
// FuncTable: module-wide function names
// ---------------------------------------------------------------------------

// FuncTable maps function names to their declaration index. It is built once
// per module, before any body is lowered, and is read-only afterwards.
type FuncTable struct {
	names      []string
	index      map[string]int
	prototypes []*syntax.FunctionPrototype
}

// NewFuncTable builds the table from declarations in source order, along
// with one prototype per function.
func NewFuncTable(decls []*FunctionDecl) (*FuncTable, error) {
	t := &FuncTable{index: make(map[string]int, len(decls))}
	for i, d := range decls {
		if _, dup := t.index[d.Name]; dup {
			err := newError(DuplicateDeclaration, d.Name, "function %s declared twice", d.Name)
			err.Pos = d.Span().Start
			return nil, err
		}
		t.index[d.Name] = i
		t.names = append(t.names, d.Name)
		t.prototypes = append(t.prototypes,
			syntax.NewPrototype(i, len(d.BorrowParams), len(d.StealParams), len(d.ReturnParams)))
	}
	return t, nil
}

// Lookup returns the index of the named function.
func (t *FuncTable) Lookup(name string) (int, bool) {
	if t == nil {
		return 0, false
	}
	i, ok := t.index[name]
	return i, ok
}

// Len returns the number of functions.
func (t *FuncTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Names returns the function names in declaration order.
func (t *FuncTable) Names() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.names...)
}

// Prototype returns the prototype of function i.
func (t *FuncTable) Prototype(i int) *syntax.FunctionPrototype {
	return t.prototypes[i]
}

// ---------------------------------------------------------------------------
// Context: per-function alias and register state
// ---------------------------------------------------------------------------

// variable is the logical identity behind one or more aliases.
type variable struct {
	exteriors map[string]struct{}
	interiors map[string]struct{}
}

func (v *variable) aliases() int {
	return len(v.exteriors) + len(v.interiors)
}

// Reference is a live name binding. Aliases of the same variable share Var;
// exterior aliases also share Register.
type Reference struct {
	Interior bool
	Register int
	Var      syntax.VarID
}

// Context tracks live names, register allocation and the constant pool while
// one function is lowered. A Context is not safe for concurrent use.
type Context struct {
	funcs        *FuncTable
	vars         []variable // indexed by syntax.VarID
	locals       map[string]Reference
	free         []int // released registers; the last one is reused first
	numRegisters int
	consts       []vm.Value
}

// NewContext starts an empty context. funcs may be nil when no functions are
// declared.
func NewContext(funcs *FuncTable) *Context {
	return &Context{
		funcs:  funcs,
		locals: make(map[string]Reference),
	}
}

// Funcs returns the function table the context resolves calls against.
func (c *Context) Funcs() *FuncTable {
	return c.funcs
}

// resolve returns the live binding for name.
func (c *Context) resolve(name string) (Reference, error) {
	ref, ok := c.locals[name]
	if !ok {
		return Reference{}, newError(UndefinedVariable, name, "%s is not defined", name)
	}
	return ref, nil
}

// LookupLocal returns the register bound to name.
func (c *Context) LookupLocal(name string) (int, error) {
	ref, err := c.resolve(name)
	if err != nil {
		return 0, err
	}
	return ref.Register, nil
}

// Reference returns the full binding for name.
func (c *Context) Reference(name string) (Reference, bool) {
	ref, ok := c.locals[name]
	return ref, ok
}

// IsMonoVar reports whether the variable currently has exactly one alias.
func (c *Context) IsMonoVar(id syntax.VarID) bool {
	return c.vars[id].aliases() == 1
}

func (c *Context) allocRegister() int {
	if n := len(c.free); n > 0 {
		r := c.free[n-1]
		c.free = c.free[:n-1]
		log.Debugf("reuse register r%d", r)
		return r
	}
	r := c.numRegisters
	c.numRegisters++
	log.Debugf("new register r%d", r)
	return r
}

// FreeRegister returns r to the free pool.
func (c *Context) FreeRegister(r int) {
	log.Debugf("free register r%d", r)
	c.free = append(c.free, r)
}

// CreateVariable binds name to a fresh variable in a newly allocated
// register.
func (c *Context) CreateVariable(name string) (int, error) {
	if _, bound := c.locals[name]; bound {
		return 0, newError(DuplicateDeclaration, name, "%s is already defined", name)
	}
	r := c.allocRegister()
	id := syntax.VarID(len(c.vars))
	c.vars = append(c.vars, variable{
		exteriors: map[string]struct{}{name: {}},
		interiors: map[string]struct{}{},
	})
	c.locals[name] = Reference{Register: r, Var: id}
	log.Debugf("let %s -> r%d (var %d)", name, r, id)
	return r, nil
}

// RemoveVariable unbinds name and frees its register. It fails, leaving the
// binding in place, while the variable has any other alias.
func (c *Context) RemoveVariable(name string) (int, error) {
	ref, err := c.resolve(name)
	if err != nil {
		return 0, err
	}
	v := &c.vars[ref.Var]
	if len(v.interiors) > 0 || len(v.exteriors) > 1 {
		e := newError(AliasedDestroy, name, "%s still has %d other alias(es): %s",
			name, v.aliases()-1, joinAliases(v, name))
		e.Register = ref.Register
		return 0, e
	}
	delete(v.exteriors, name)
	delete(c.locals, name)
	c.FreeRegister(ref.Register)
	log.Debugf("unlet %s (r%d)", name, ref.Register)
	return ref.Register, nil
}

// CreateRef binds name as an alias of the variable addressed by target. The
// alias is interior if the target binding is interior or the target has an
// index path; interior aliases get their own register.
func (c *Context) CreateRef(name string, target *Lookup) (int, error) {
	if _, bound := c.locals[name]; bound {
		return 0, newError(DuplicateDeclaration, name, "%s is already defined", name)
	}
	src, err := c.resolve(target.Name)
	if err != nil {
		return 0, err
	}

	interior := src.Interior || len(target.Indices) > 0
	v := &c.vars[src.Var]
	r := src.Register
	if interior {
		r = c.allocRegister()
		v.interiors[name] = struct{}{}
	} else {
		v.exteriors[name] = struct{}{}
	}
	c.locals[name] = Reference{Interior: interior, Register: r, Var: src.Var}
	log.Debugf("ref %s = %s -> r%d (interior=%t)", name, target.Name, r, interior)
	return r, nil
}

// RemoveRef retires the alias name, proving it through target. The target
// must address the same variable, and an interior target cannot retire an
// exterior alias. The alias register is returned, not freed.
func (c *Context) RemoveRef(name string, target *Lookup) (int, error) {
	ref, err := c.resolve(name)
	if err != nil {
		return 0, err
	}
	// The alias is gone by the time its target is resolved, so it can never
	// prove itself.
	if target.Name == name {
		return 0, newError(UndefinedVariable, name, "%s cannot be retired through itself", name)
	}
	other, err := c.resolve(target.Name)
	if err != nil {
		return 0, err
	}

	interior := ref.Interior || len(target.Indices) > 0
	if other.Var != ref.Var {
		e := newError(InvalidUnref, name, "%s does not alias %s", name, target.Name)
		e.Register = ref.Register
		return 0, e
	}
	if other.Interior && !interior {
		e := newError(InvalidUnref, name, "exterior alias %s cannot be retired through interior %s", name, target.Name)
		e.Register = ref.Register
		return 0, e
	}

	v := &c.vars[ref.Var]
	delete(v.interiors, name)
	delete(v.exteriors, name)
	delete(c.locals, name)
	log.Debugf("unref %s = %s (r%d)", name, target.Name, ref.Register)
	return ref.Register, nil
}

// AddConst interns v in the constant pool and returns its index. Equal
// values share one entry.
func (c *Context) AddConst(v vm.Value) int {
	for i, existing := range c.consts {
		if vm.Equal(existing, v) {
			return i
		}
	}
	c.consts = append(c.consts, v)
	log.Debugf("const %d = %s", len(c.consts)-1, v)
	return len(c.consts) - 1
}

// NumRegisters returns the register high-water mark.
func (c *Context) NumRegisters() int {
	return c.numRegisters
}

// FreeRegisters returns a copy of the free pool. The last entry is reused
// next.
func (c *Context) FreeRegisters() []int {
	return append([]int(nil), c.free...)
}

// Bindings returns a copy of the live name to register table.
func (c *Context) Bindings() map[string]int {
	out := make(map[string]int, len(c.locals))
	for name, ref := range c.locals {
		out[name] = ref.Register
	}
	return out
}

// LiveNames returns the bound names in sorted order.
func (c *Context) LiveNames() []string {
	names := make([]string, 0, len(c.locals))
	for name := range c.locals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Consts returns the constant pool.
func (c *Context) Consts() []vm.Value {
	return c.consts
}

// joinAliases lists the aliases of v other than name, sorted.
func joinAliases(v *variable, name string) string {
	var names []string
	for n := range v.exteriors {
		if n != name {
			names = append(names, n)
		}
	}
	for n := range v.interiors {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
