package compiler

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a compile-time failure.
type ErrorKind int

const (
	UndefinedVariable ErrorKind = iota + 1
	DuplicateDeclaration
	AliasedDestroy
	InvalidUnref
	LeakedVariable
	Unsupported
	SyntaxError
)

var kindNames = map[ErrorKind]string{
	UndefinedVariable:    "undefined variable",
	DuplicateDeclaration: "duplicate declaration",
	AliasedDestroy:       "destroying aliased variable",
	InvalidUnref:         "invalid unref",
	LeakedVariable:       "leaked variable",
	Unsupported:          "unsupported",
	SyntaxError:          "syntax error",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinel errors, one per kind, for use with errors.Is.
var (
	ErrUndefinedVariable    = errors.New(UndefinedVariable.String())
	ErrDuplicateDeclaration = errors.New(DuplicateDeclaration.String())
	ErrAliasedDestroy       = errors.New(AliasedDestroy.String())
	ErrInvalidUnref         = errors.New(InvalidUnref.String())
	ErrLeakedVariable       = errors.New(LeakedVariable.String())
	ErrUnsupported          = errors.New(Unsupported.String())
	ErrSyntax               = errors.New(SyntaxError.String())
)

var kindSentinels = map[ErrorKind]error{
	UndefinedVariable:    ErrUndefinedVariable,
	DuplicateDeclaration: ErrDuplicateDeclaration,
	AliasedDestroy:       ErrAliasedDestroy,
	InvalidUnref:         ErrInvalidUnref,
	LeakedVariable:       ErrLeakedVariable,
	Unsupported:          ErrUnsupported,
	SyntaxError:          ErrSyntax,
}

// Error is a compile-time failure. Name is the offending identifier, if any;
// Register is -1 when no register is involved.
type Error struct {
	Kind     ErrorKind
	Pos      Position
	Name     string
	Register int
	Msg      string
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Pos, msg)
	}
	return msg
}

// Unwrap returns the sentinel error for the kind.
func (e *Error) Unwrap() error {
	return kindSentinels[e.Kind]
}

// newError builds an error with no position; lowering fills it in.
func newError(kind ErrorKind, name string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Name: name, Register: -1, Msg: fmt.Sprintf(format, args...)}
}

// atNode attaches the start of n's span to err if err is an *Error that has
// no position yet. Other errors pass through unchanged.
func atNode(n Node, err error) error {
	var ce *Error
	if errors.As(err, &ce) && !ce.Pos.IsValid() {
		ce.Pos = n.Span().Start
	}
	return err
}
