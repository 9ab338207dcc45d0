package vm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a runtime failure.
type ErrorKind int

const (
	IncompatibleOperands ErrorKind = iota + 1
	StackUnderflow
	ConstOutOfRange
	LocalOutOfRange
	DivisionByZero
	IndexOutOfRange
	UnletMismatch
	UnknownOpcode
)

var kindNames = map[ErrorKind]string{
	IncompatibleOperands: "incompatible operands",
	StackUnderflow:       "stack underflow",
	ConstOutOfRange:      "constant index out of range",
	LocalOutOfRange:      "local index out of range",
	DivisionByZero:       "division by zero",
	IndexOutOfRange:      "array index out of range",
	UnletMismatch:        "unlet value mismatch",
	UnknownOpcode:        "unknown opcode",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinel errors, one per kind, for use with errors.Is.
var (
	ErrIncompatibleOperands = errors.New(IncompatibleOperands.String())
	ErrStackUnderflow       = errors.New(StackUnderflow.String())
	ErrConstOutOfRange      = errors.New(ConstOutOfRange.String())
	ErrLocalOutOfRange      = errors.New(LocalOutOfRange.String())
	ErrDivisionByZero       = errors.New(DivisionByZero.String())
	ErrIndexOutOfRange      = errors.New(IndexOutOfRange.String())
	ErrUnletMismatch        = errors.New(UnletMismatch.String())
	ErrUnknownOpcode        = errors.New(UnknownOpcode.String())
)

var kindSentinels = map[ErrorKind]error{
	IncompatibleOperands: ErrIncompatibleOperands,
	StackUnderflow:       ErrStackUnderflow,
	ConstOutOfRange:      ErrConstOutOfRange,
	LocalOutOfRange:      ErrLocalOutOfRange,
	DivisionByZero:       ErrDivisionByZero,
	IndexOutOfRange:      ErrIndexOutOfRange,
	UnletMismatch:        ErrUnletMismatch,
	UnknownOpcode:        ErrUnknownOpcode,
}

// RuntimeError reports a fatal failure while executing a function.
// IP is the index of the failing instruction.
type RuntimeError struct {
	Kind     ErrorKind
	Function string
	IP       int
	Op       Opcode
	Detail   string
}

func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s at %s:%04d (%s)", e.Kind, e.Function, e.IP, e.Op)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap returns the sentinel error for the kind.
func (e *RuntimeError) Unwrap() error {
	return kindSentinels[e.Kind]
}

// errorf builds an error without location; the interpreter fills it in.
func errorf(kind ErrorKind, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
