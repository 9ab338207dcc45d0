package compiler

import (
	"errors"

	"github.com/chazu/remix/syntax"
	"github.com/chazu/remix/vm"
)

// Unit holds every stage of one compilation.
type Unit struct {
	AST     *Module
	Syntax  *syntax.Module
	Program *vm.Program
}

// Compile parses, lowers and generates code for source. The first error of
// any stage aborts compilation.
func Compile(source string) (*Unit, error) {
	mod, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return CompileModule(mod)
}

// CompileModule lowers and generates code for an already parsed module.
func CompileModule(mod *Module) (*Unit, error) {
	lowered, err := Lower(mod)
	if err != nil {
		return nil, err
	}
	prog, err := CodegenModule(lowered)
	if err != nil {
		return nil, err
	}
	return &Unit{AST: mod, Syntax: lowered, Program: prog}, nil
}

// Check reports diagnostics for source without producing a program: every
// syntax error, or else the first lowering or codegen error.
func Check(source string) []*Error {
	p := NewParser(source)
	mod := p.ParseModule()
	if errs := p.Errors(); len(errs) > 0 {
		return errs
	}
	if _, err := CompileModule(mod); err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			return []*Error{ce}
		}
		return []*Error{{Kind: SyntaxError, Register: -1, Msg: err.Error()}}
	}
	return nil
}
