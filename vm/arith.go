package vm

import "math/big"

// ---------------------------------------------------------------------------
// Binary operations
// ---------------------------------------------------------------------------

// binaryOp applies an arithmetic or comparison opcode to two operands.
func binaryOp(op Opcode, a, b Value) (Value, *RuntimeError) {
	switch {
	case op.IsArithmetic():
		return arith(op, a, b)
	case op == OpEq:
		return truth(Equal(a, b)), nil
	case op == OpNe:
		return truth(!Equal(a, b)), nil
	case op.IsComparison():
		x, okA := a.(Fraction)
		y, okB := b.(Fraction)
		if !okA || !okB {
			return nil, errorf(IncompatibleOperands, "cannot order %s and %s", KindName(a), KindName(b))
		}
		c := x.Cmp(y)
		switch op {
		case OpLt:
			return truth(c < 0), nil
		case OpGt:
			return truth(c > 0), nil
		case OpLe:
			return truth(c <= 0), nil
		default:
			return truth(c >= 0), nil
		}
	}
	return nil, errorf(UnknownOpcode, "%s is not a binary operator", op)
}

// arith adds, subtracts, multiplies or divides. Fractions combine exactly;
// arrays of equal length combine element-wise.
func arith(op Opcode, a, b Value) (Value, *RuntimeError) {
	switch x := a.(type) {
	case Fraction:
		y, ok := b.(Fraction)
		if !ok {
			break
		}
		r := new(big.Rat)
		switch op {
		case OpAdd:
			r.Add(x.r(), y.r())
		case OpSub:
			r.Sub(x.r(), y.r())
		case OpMul:
			r.Mul(x.r(), y.r())
		case OpDiv:
			if y.IsZero() {
				return nil, errorf(DivisionByZero, "%s / 0", x)
			}
			r.Quo(x.r(), y.r())
		}
		return Fraction{rat: r}, nil

	case *Array:
		y, ok := b.(*Array)
		if !ok {
			break
		}
		if len(x.Items) != len(y.Items) {
			return nil, errorf(IncompatibleOperands, "array lengths differ: %d and %d", len(x.Items), len(y.Items))
		}
		items := make([]Value, len(x.Items))
		for i := range x.Items {
			v, err := arith(op, x.Items[i], y.Items[i])
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return &Array{Items: items}, nil
	}
	return nil, errorf(IncompatibleOperands, "%s %s %s", KindName(a), op, KindName(b))
}

func truth(b bool) Fraction {
	if b {
		return Int(1)
	}
	return Int(0)
}

// index returns arr[idx]; idx must be an integral fraction within bounds.
func index(arr, idx Value) (Value, *RuntimeError) {
	a, ok := arr.(*Array)
	if !ok {
		return nil, errorf(IncompatibleOperands, "cannot index %s", KindName(arr))
	}
	f, ok := idx.(Fraction)
	if !ok || !f.r().IsInt() {
		return nil, errorf(IncompatibleOperands, "index must be an integer, got %s", idx)
	}
	n := f.r().Num()
	if n.Sign() < 0 || !n.IsInt64() || n.Int64() >= int64(len(a.Items)) {
		return nil, errorf(IndexOutOfRange, "index %s, length %d", f, len(a.Items))
	}
	return a.Items[n.Int64()], nil
}
