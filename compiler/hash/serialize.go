package hash

import (
	"encoding/binary"
	"fmt"

	"github.com/chazu/remix/syntax"
	"github.com/chazu/remix/vm"
)

// ---------------------------------------------------------------------------
// Deterministic binary serialization of lowered functions.
//
// Encoding conventions:
//   - First byte: HashVersion
//   - Integers: big-endian int64
//   - Fractions: their normalized n/d text as a string
//   - Strings: uint32 big-endian length + UTF-8 bytes
//   - Booleans: single byte (0/1)
//   - Child nodes: serialized inline (flat)
//
// Variable names never appear: lowering has already replaced them with
// registers, so renaming a variable does not change the encoding.
// ---------------------------------------------------------------------------

// SerializeFunction produces a deterministic byte serialization of fn.
func SerializeFunction(fn *syntax.Function) ([]byte, error) {
	s := &serializer{buf: make([]byte, 0, 256)}
	s.writeByte(HashVersion)
	s.function(fn)
	return s.buf, s.err
}

// SerializeModule produces a deterministic byte serialization of m.
func SerializeModule(m *syntax.Module) ([]byte, error) {
	s := &serializer{buf: make([]byte, 0, 1024)}
	s.writeByte(HashVersion)
	s.writeByte(TagModule)
	s.writeInt(m.MainIdx)
	s.writeUint32(uint32(len(m.Functions)))
	for _, fn := range m.Functions {
		s.function(fn)
	}
	if m.Global != nil {
		s.function(m.Global)
	} else {
		s.writeByte(TagAbsent)
	}
	return s.buf, s.err
}

type serializer struct {
	buf []byte
	err error
}

func (s *serializer) fail(format string, args ...interface{}) {
	if s.err == nil {
		s.err = fmt.Errorf("hash: "+format, args...)
	}
}

func (s *serializer) writeByte(b byte) {
	s.buf = append(s.buf, b)
}

func (s *serializer) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeInt64(v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeInt(v int) {
	s.writeInt64(int64(v))
}

func (s *serializer) writeString(v string) {
	s.writeUint32(uint32(len(v)))
	s.buf = append(s.buf, v...)
}

func (s *serializer) writeBool(v bool) {
	if v {
		s.writeByte(1)
	} else {
		s.writeByte(0)
	}
}

func (s *serializer) writeInts(vs []int) {
	s.writeUint32(uint32(len(vs)))
	for _, v := range vs {
		s.writeInt(v)
	}
}

func (s *serializer) function(fn *syntax.Function) {
	s.writeByte(TagFunction)
	s.writeString(fn.Name)
	s.writeInt(fn.NumRegisters)
	s.writeInts(fn.BorrowRegisters)
	s.writeInts(fn.StealRegisters)
	s.writeInts(fn.ReturnRegisters)
	s.writeUint32(uint32(len(fn.Consts)))
	for _, c := range fn.Consts {
		s.value(c)
	}
	s.stmts(fn.Stmts)
}

func (s *serializer) value(v vm.Value) {
	switch x := v.(type) {
	case vm.Fraction:
		s.writeByte(TagFractionValue)
		s.writeString(x.String())
	case vm.String:
		s.writeByte(TagStringValue)
		s.writeString(string(x))
	case *vm.Array:
		s.writeByte(TagArrayValue)
		s.writeUint32(uint32(len(x.Items)))
		for _, item := range x.Items {
			s.value(item)
		}
	default:
		s.fail("cannot serialize value %s", vm.KindName(v))
	}
}

func (s *serializer) stmts(stmts []syntax.Stmt) {
	s.writeUint32(uint32(len(stmts)))
	for _, st := range stmts {
		s.stmt(st)
	}
}

func (s *serializer) stmt(st syntax.Stmt) {
	switch n := st.(type) {
	case *syntax.LetUnlet:
		s.writeByte(TagLetUnlet)
		s.writeBool(n.IsUnlet)
		s.writeInt(n.Register)
		s.writeInt(int(n.Var))
		s.expr(n.Rhs)

	case *syntax.RefUnref:
		s.writeByte(TagRefUnref)
		s.writeBool(n.IsUnref)
		s.writeBool(n.Interior)
		s.writeInt(n.Register)
		s.expr(n.Rhs)

	case *syntax.Modop:
		s.writeByte(TagModop)
		s.writeByte(byte(n.Op))
		s.expr(n.Lookup)
		s.expr(n.Rhs)

	case *syntax.If:
		s.writeByte(TagIf)
		s.expr(n.FwdExpr)
		s.stmts(n.IfStmts)
		s.stmts(n.ElseStmts)
		s.expr(n.BkwdExpr)

	case *syntax.Catch:
		s.writeByte(TagCatch)
		s.expr(n.Expr)

	default:
		s.fail("cannot serialize statement %T", st)
	}
}

func (s *serializer) expr(e syntax.Expr) {
	switch n := e.(type) {
	case *syntax.Fraction:
		s.writeByte(TagFraction)
		s.writeInt(n.ConstIdx)

	case *syntax.String:
		s.writeByte(TagString)
		s.writeInt(n.ConstIdx)

	case *syntax.ArrayLiteral:
		s.writeByte(TagArrayLiteral)
		s.writeInt(n.ConstIdx)
		s.writeUint32(uint32(len(n.Items)))
		for _, item := range n.Items {
			s.expr(item)
		}

	case *syntax.Lookup:
		s.writeByte(TagLookup)
		s.writeInt(n.Register)
		s.writeInt(int(n.Var))
		s.writeUint32(uint32(len(n.Indices)))
		for _, idx := range n.Indices {
			s.expr(idx)
		}

	case *syntax.Binop:
		s.writeByte(TagBinop)
		s.writeByte(byte(n.Op))
		s.expr(n.Lhs)
		s.expr(n.Rhs)

	default:
		s.fail("cannot serialize expression %T", e)
	}
}
