package vm

import (
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("remix.vm")

// ---------------------------------------------------------------------------
// Frame: Execution state for one function invocation
// ---------------------------------------------------------------------------

// Frame is the execution state of a single function invocation. Frames never
// share their operand stack, locals or instruction pointer.
type Frame struct {
	Function *Function
	IP       int     // index of the next instruction
	Stack    []Value // operand stack
	Locals   []Value // registers, indexed by register number
}

// push appends v to the operand stack.
func (f *Frame) push(v Value) {
	f.Stack = append(f.Stack, v)
}

// pop removes the top of the operand stack. Callers check the depth first.
func (f *Frame) pop() Value {
	v := f.Stack[len(f.Stack)-1]
	f.Stack[len(f.Stack)-1] = nil
	f.Stack = f.Stack[:len(f.Stack)-1]
	return v
}

// ---------------------------------------------------------------------------
// Interpreter: Instruction execution engine
// ---------------------------------------------------------------------------

// Interpreter executes compiled functions one frame at a time.
type Interpreter struct {
	frames []*Frame // call stack; the last entry is the running frame
	steps  int      // instructions executed since creation
}

// NewInterpreter creates an interpreter with an empty call stack.
func NewInterpreter() *Interpreter {
	return &Interpreter{frames: make([]*Frame, 0, 8)}
}

// Depth returns the number of active frames.
func (i *Interpreter) Depth() int {
	return len(i.frames)
}

// Steps returns the number of instructions executed so far.
func (i *Interpreter) Steps() int {
	return i.steps
}

// Run executes fn with freshly zeroed locals and returns the final locals.
func (i *Interpreter) Run(fn *Function) ([]Value, error) {
	if err := checkNumLocals(fn); err != nil {
		return nil, err
	}
	locals := make([]Value, fn.NumLocals)
	for j := range locals {
		locals[j] = Zero()
	}
	return i.RunWithLocals(fn, locals)
}

// RunWithLocals executes fn against caller-supplied locals. When locals is at
// least fn.NumLocals long it is used in place; otherwise a zero-padded copy is
// used. The final locals are returned in both cases.
func (i *Interpreter) RunWithLocals(fn *Function, locals []Value) ([]Value, error) {
	if err := checkNumLocals(fn); err != nil {
		return locals, err
	}
	if len(locals) < fn.NumLocals {
		padded := make([]Value, fn.NumLocals)
		copy(padded, locals)
		for j := len(locals); j < len(padded); j++ {
			padded[j] = Zero()
		}
		locals = padded
	}
	for j, v := range locals {
		if v == nil {
			locals[j] = Zero()
		}
	}

	frame := &Frame{Function: fn, Locals: locals}
	i.pushFrame(frame)
	defer i.popFrame()

	if err := i.execute(frame); err != nil {
		return locals, err
	}
	return locals, nil
}

func checkNumLocals(fn *Function) error {
	if fn.NumLocals < 0 {
		e := errorf(LocalOutOfRange, "negative local count %d", fn.NumLocals)
		e.Function = fn.Name
		return e
	}
	return nil
}

func (i *Interpreter) pushFrame(f *Frame) {
	i.frames = append(i.frames, f)
}

func (i *Interpreter) popFrame() {
	i.frames[len(i.frames)-1] = nil
	i.frames = i.frames[:len(i.frames)-1]
}

// execute runs the frame until its instruction pointer reaches the end of
// the code. The first failing instruction aborts the run.
func (i *Interpreter) execute(f *Frame) error {
	code := f.Function.Code
	for f.IP < len(code) {
		ins := code[f.IP]
		if log.AllowLevel(commonlog.Debug) {
			log.Debugf("%s %04d %-16s stack=%d", f.Function.Name, f.IP, ins, len(f.Stack))
		}
		if err := i.step(f, ins); err != nil {
			err.Function = f.Function.Name
			err.IP = f.IP
			err.Op = ins.Op
			return err
		}
		f.IP++
		i.steps++
	}
	return nil
}

// step executes one instruction. Operand depth is checked before anything is
// popped, so a failing instruction leaves the stack as it found it.
func (i *Interpreter) step(f *Frame, ins Instruction) *RuntimeError {
	if !ins.Op.Known() {
		return errorf(UnknownOpcode, "opcode 0x%02X", byte(ins.Op))
	}
	if need := ins.Pops(); need < 0 {
		return errorf(StackUnderflow, "negative operand count %d", need)
	} else if len(f.Stack) < need {
		return errorf(StackUnderflow, "need %d operands, have %d", need, len(f.Stack))
	}

	switch ins.Op {
	case OpLoadConst:
		consts := f.Function.Consts
		if ins.Arg < 0 || ins.Arg >= len(consts) {
			return errorf(ConstOutOfRange, "index %d, pool size %d", ins.Arg, len(consts))
		}
		f.push(Copy(consts[ins.Arg]))

	case OpLoadLocal:
		if err := checkLocal(f, ins.Arg); err != nil {
			return err
		}
		f.push(f.Locals[ins.Arg])

	case OpStoreLocal:
		if err := checkLocal(f, ins.Arg); err != nil {
			return err
		}
		f.Locals[ins.Arg] = f.pop()

	case OpUnstoreLocal:
		if err := checkLocal(f, ins.Arg); err != nil {
			return err
		}
		want := f.Stack[len(f.Stack)-1]
		if !Equal(f.Locals[ins.Arg], want) {
			return errorf(UnletMismatch, "local %d holds %s, expected %s", ins.Arg, f.Locals[ins.Arg], want)
		}
		f.pop()
		f.Locals[ins.Arg] = Zero()

	case OpAdd, OpSub, OpMul, OpDiv, OpEq, OpNe, OpLt, OpGt, OpLe, OpGe:
		n := len(f.Stack)
		result, err := binaryOp(ins.Op, f.Stack[n-2], f.Stack[n-1])
		if err != nil {
			return err
		}
		f.pop()
		f.pop()
		f.push(result)

	case OpMakeArray:
		n := len(f.Stack)
		items := make([]Value, ins.Arg)
		copy(items, f.Stack[n-ins.Arg:])
		for j := 0; j < ins.Arg; j++ {
			f.pop()
		}
		f.push(&Array{Items: items})

	case OpIndex:
		n := len(f.Stack)
		elem, err := index(f.Stack[n-2], f.Stack[n-1])
		if err != nil {
			return err
		}
		f.pop()
		f.pop()
		f.push(Copy(elem))
	}
	return nil
}

func checkLocal(f *Frame, idx int) *RuntimeError {
	if idx < 0 || idx >= len(f.Locals) {
		return errorf(LocalOutOfRange, "index %d, %d locals", idx, len(f.Locals))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Program execution
// ---------------------------------------------------------------------------

// Result holds the final registers of a program run.
type Result struct {
	Globals []Value // locals of the global function
	Main    []Value // locals of the entry point, nil if the program has none
}

// RunProgram runs the global initialization function and then the entry
// point, each in its own frame.
func (i *Interpreter) RunProgram(p *Program) (*Result, error) {
	res := &Result{}
	if p.Global != nil {
		globals, err := i.Run(p.Global)
		if err != nil {
			return res, err
		}
		res.Globals = globals
	}
	if entry := p.Entry(); entry != nil {
		locals, err := i.Run(entry)
		if err != nil {
			return res, err
		}
		res.Main = locals
	}
	return res, nil
}
