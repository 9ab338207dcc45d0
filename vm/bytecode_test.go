package vm

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Opcode metadata tests
// ---------------------------------------------------------------------------

func TestOpcodeInfo(t *testing.T) {
	tests := []struct {
		op         Opcode
		name       string
		hasOperand bool
		pops       int
	}{
		{OpLoadConst, "LOAD_CONST", true, 0},
		{OpLoadLocal, "LOAD_LOCAL", true, 0},
		{OpStoreLocal, "STORE_LOCAL", true, 1},
		{OpUnstoreLocal, "UNSTORE_LOCAL", true, 1},
		{OpAdd, "ADD", false, 2},
		{OpSub, "SUB", false, 2},
		{OpMul, "MUL", false, 2},
		{OpDiv, "DIV", false, 2},
		{OpEq, "EQ", false, 2},
		{OpGe, "GE", false, 2},
		{OpMakeArray, "MAKE_ARRAY", true, -1},
		{OpIndex, "INDEX", false, 2},
	}

	for _, tt := range tests {
		info := tt.op.Info()
		if info.Name != tt.name {
			t.Errorf("%s: Name = %q, want %q", tt.op, info.Name, tt.name)
		}
		if info.HasOperand != tt.hasOperand {
			t.Errorf("%s: HasOperand = %v, want %v", tt.op, info.HasOperand, tt.hasOperand)
		}
		if info.Pops != tt.pops {
			t.Errorf("%s: Pops = %d, want %d", tt.op, info.Pops, tt.pops)
		}
	}
}

func TestOpcodeUnknown(t *testing.T) {
	op := Opcode(0xFF)
	if op.Known() {
		t.Error("0xFF should not be known")
	}
	if op.String() != "UNKNOWN_FF" {
		t.Errorf("String() = %q", op.String())
	}
}

func TestOpcodeClasses(t *testing.T) {
	for _, op := range []Opcode{OpAdd, OpSub, OpMul, OpDiv} {
		if !op.IsArithmetic() || op.IsComparison() {
			t.Errorf("%s misclassified", op)
		}
	}
	for _, op := range []Opcode{OpEq, OpNe, OpLt, OpGt, OpLe, OpGe} {
		if !op.IsComparison() || op.IsArithmetic() {
			t.Errorf("%s misclassified", op)
		}
	}
}

func TestInstructionPops(t *testing.T) {
	if MakeArray(3).Pops() != 3 {
		t.Errorf("MAKE_ARRAY 3 pops %d", MakeArray(3).Pops())
	}
	if Op(OpAdd).Pops() != 2 {
		t.Errorf("ADD pops %d", Op(OpAdd).Pops())
	}
}

// ---------------------------------------------------------------------------
// Builder and disassembly tests
// ---------------------------------------------------------------------------

func TestCodeBuilder(t *testing.T) {
	b := NewCodeBuilder()
	b.EmitArg(OpLoadConst, 0)
	b.EmitArg(OpLoadConst, 1)
	b.Emit(OpAdd)
	b.EmitArg(OpStoreLocal, 2)

	if b.Len() != 4 {
		t.Fatalf("Len = %d, want 4", b.Len())
	}
	want := []Instruction{LoadConst(0), LoadConst(1), Op(OpAdd), StoreLocal(2)}
	for i, ins := range b.Code() {
		if ins != want[i] {
			t.Errorf("code[%d] = %s, want %s", i, ins, want[i])
		}
	}
}

func TestDisassemble(t *testing.T) {
	code := []Instruction{LoadConst(0), StoreLocal(0), LoadLocal(0), Op(OpAdd)}
	out := Disassemble(code)
	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if lines[0] != "0000  LOAD_CONST 0" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[3] != "0003  ADD" {
		t.Errorf("line 3 = %q", lines[3])
	}
}

func TestDisassembleFunction(t *testing.T) {
	fn := &Function{
		Name:      "f",
		Consts:    []Value{NewFraction(1, 2)},
		Code:      []Instruction{LoadConst(0), StoreLocal(0)},
		NumLocals: 1,
	}
	out := DisassembleFunction(fn)
	for _, want := range []string{"func f (locals=1, consts=1)", "const 0 = 1/2", "0001  STORE_LOCAL 0"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}
