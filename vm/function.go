package vm

// ---------------------------------------------------------------------------
// Function and Program: compiled units
// ---------------------------------------------------------------------------

// Function is the VM's view of a lowered function: a flat instruction
// sequence, its constant pool and the number of local registers it uses.
type Function struct {
	Name      string
	Code      []Instruction
	Consts    []Value
	NumLocals int
}

// Program is a compiled module: its functions, the global initialization
// function and the index of the entry point (-1 if none).
type Program struct {
	Functions []*Function
	Global    *Function
	Main      int
}

// Lookup returns the function with the given name, or nil.
func (p *Program) Lookup(name string) *Function {
	for _, fn := range p.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// Entry returns the entry-point function, or nil if the program has none.
func (p *Program) Entry() *Function {
	if p.Main < 0 || p.Main >= len(p.Functions) {
		return nil
	}
	return p.Functions[p.Main]
}
