package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode identifies a single VM instruction.
type Opcode byte

// Constants
const (
	OpLoadConst Opcode = 0x10 // push a copy of consts[arg]
)

// Local registers
const (
	OpLoadLocal    Opcode = 0x20 // push locals[arg]
	OpStoreLocal   Opcode = 0x21 // pop into locals[arg]
	OpUnstoreLocal Opcode = 0x22 // pop, check equal to locals[arg], reset locals[arg]
)

// Arithmetic
const (
	OpAdd Opcode = 0x40
	OpSub Opcode = 0x41
	OpMul Opcode = 0x42
	OpDiv Opcode = 0x43
)

// Comparisons (push 1 or 0)
const (
	OpEq Opcode = 0x48
	OpNe Opcode = 0x49
	OpLt Opcode = 0x4A
	OpGt Opcode = 0x4B
	OpLe Opcode = 0x4C
	OpGe Opcode = 0x4D
)

// Arrays
const (
	OpMakeArray Opcode = 0x90 // pop arg items, push an array of them
	OpIndex     Opcode = 0x91 // pop index and array, push element
)

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name       string // human-readable name
	HasOperand bool   // instruction carries an integer argument
	Pops       int    // values popped; -1 means the operand gives the count
	Pushes     int    // values pushed
}

var opcodeTable = map[Opcode]OpcodeInfo{
	OpLoadConst: {"LOAD_CONST", true, 0, 1},

	OpLoadLocal:    {"LOAD_LOCAL", true, 0, 1},
	OpStoreLocal:   {"STORE_LOCAL", true, 1, 0},
	OpUnstoreLocal: {"UNSTORE_LOCAL", true, 1, 0},

	OpAdd: {"ADD", false, 2, 1},
	OpSub: {"SUB", false, 2, 1},
	OpMul: {"MUL", false, 2, 1},
	OpDiv: {"DIV", false, 2, 1},

	OpEq: {"EQ", false, 2, 1},
	OpNe: {"NE", false, 2, 1},
	OpLt: {"LT", false, 2, 1},
	OpGt: {"GT", false, 2, 1},
	OpLe: {"LE", false, 2, 1},
	OpGe: {"GE", false, 2, 1},

	OpMakeArray: {"MAKE_ARRAY", true, -1, 1},
	OpIndex:     {"INDEX", false, 2, 1},
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op))}
}

// Known reports whether op is a defined opcode.
func (op Opcode) Known() bool {
	_, ok := opcodeTable[op]
	return ok
}

// Name returns the human-readable name for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// IsArithmetic reports whether op is one of ADD, SUB, MUL, DIV.
func (op Opcode) IsArithmetic() bool {
	return op >= OpAdd && op <= OpDiv
}

// IsComparison reports whether op is one of the comparison opcodes.
func (op Opcode) IsComparison() bool {
	return op >= OpEq && op <= OpGe
}

// ---------------------------------------------------------------------------
// Instruction
// ---------------------------------------------------------------------------

// Instruction is one decoded VM instruction. Arg is ignored for opcodes
// without an operand.
type Instruction struct {
	Op  Opcode
	Arg int
}

// Pops returns how many operands the instruction consumes.
func (ins Instruction) Pops() int {
	n := ins.Op.Info().Pops
	if n < 0 {
		return ins.Arg
	}
	return n
}

func (ins Instruction) String() string {
	if ins.Op.Info().HasOperand {
		return fmt.Sprintf("%s %d", ins.Op.Name(), ins.Arg)
	}
	return ins.Op.Name()
}

// LoadConst returns LOAD_CONST idx.
func LoadConst(idx int) Instruction { return Instruction{Op: OpLoadConst, Arg: idx} }

// LoadLocal returns LOAD_LOCAL idx.
func LoadLocal(idx int) Instruction { return Instruction{Op: OpLoadLocal, Arg: idx} }

// StoreLocal returns STORE_LOCAL idx.
func StoreLocal(idx int) Instruction { return Instruction{Op: OpStoreLocal, Arg: idx} }

// UnstoreLocal returns UNSTORE_LOCAL idx.
func UnstoreLocal(idx int) Instruction { return Instruction{Op: OpUnstoreLocal, Arg: idx} }

// MakeArray returns MAKE_ARRAY n.
func MakeArray(n int) Instruction { return Instruction{Op: OpMakeArray, Arg: n} }

// Op returns an operandless instruction.
func Op(op Opcode) Instruction { return Instruction{Op: op} }

// ---------------------------------------------------------------------------
// CodeBuilder: Helper for constructing instruction sequences
// ---------------------------------------------------------------------------

// CodeBuilder accumulates an instruction sequence.
type CodeBuilder struct {
	code []Instruction
}

// NewCodeBuilder creates an empty builder.
func NewCodeBuilder() *CodeBuilder {
	return &CodeBuilder{code: make([]Instruction, 0, 32)}
}

// Emit appends an opcode with no operand.
func (b *CodeBuilder) Emit(op Opcode) {
	b.code = append(b.code, Instruction{Op: op})
}

// EmitArg appends an opcode with an operand.
func (b *CodeBuilder) EmitArg(op Opcode, arg int) {
	b.code = append(b.code, Instruction{Op: op, Arg: arg})
}

// Len returns the number of instructions emitted so far.
func (b *CodeBuilder) Len() int {
	return len(b.code)
}

// Code returns the constructed sequence.
func (b *CodeBuilder) Code() []Instruction {
	return b.code
}

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

// Disassemble returns one line per instruction, prefixed by its index.
func Disassemble(code []Instruction) string {
	var b strings.Builder
	for i, ins := range code {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%04d  %s", i, ins)
	}
	return b.String()
}

// DisassembleFunction renders a function header, its constants and its code.
func DisassembleFunction(fn *Function) string {
	var b strings.Builder
	fmt.Fprintf(&b, "func %s (locals=%d, consts=%d)\n", fn.Name, fn.NumLocals, len(fn.Consts))
	for i, c := range fn.Consts {
		fmt.Fprintf(&b, "  const %d = %s\n", i, c)
	}
	if len(fn.Code) > 0 {
		b.WriteString(Disassemble(fn.Code))
		b.WriteByte('\n')
	}
	return b.String()
}
