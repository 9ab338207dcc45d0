package vm

import (
	"fmt"
	"math/big"
	"strings"
)

// Value is a runtime value held on the operand stack, in a local register or
// in a function's constant pool.
//
// The set of implementations is closed: Fraction, Array and String.
type Value interface {
	String() string
	value() // marker method
}

// ---------------------------------------------------------------------------
// Fraction: exact rational number
// ---------------------------------------------------------------------------

// Fraction is an immutable arbitrary-precision rational number.
// The zero Fraction is 0.
type Fraction struct {
	rat *big.Rat
}

func (Fraction) value() {}

// NewFraction returns num/den. It panics if den is zero.
func NewFraction(num, den int64) Fraction {
	return Fraction{rat: big.NewRat(num, den)}
}

// Int returns the fraction n/1.
func Int(n int64) Fraction {
	return Fraction{rat: new(big.Rat).SetInt64(n)}
}

// FractionFromRat returns a fraction holding a copy of r.
func FractionFromRat(r *big.Rat) Fraction {
	return Fraction{rat: new(big.Rat).Set(r)}
}

// ParseFraction parses "n" or "n/d" into an exact fraction.
func ParseFraction(s string) (Fraction, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Fraction{}, fmt.Errorf("invalid fraction literal %q", s)
	}
	return Fraction{rat: r}, nil
}

// Rat returns a copy of the underlying rational.
func (f Fraction) Rat() *big.Rat {
	if f.rat == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(f.rat)
}

// r returns the underlying rational without copying. Callers must not mutate it.
func (f Fraction) r() *big.Rat {
	if f.rat == nil {
		return new(big.Rat)
	}
	return f.rat
}

// IsZero reports whether f == 0.
func (f Fraction) IsZero() bool {
	return f.rat == nil || f.rat.Sign() == 0
}

// Cmp compares f and g and returns -1, 0 or +1.
func (f Fraction) Cmp(g Fraction) int {
	return f.r().Cmp(g.r())
}

// String renders integers without a denominator and other values as n/d.
func (f Fraction) String() string {
	return f.r().RatString()
}

// ---------------------------------------------------------------------------
// Array
// ---------------------------------------------------------------------------

// Array is an ordered sequence of values.
type Array struct {
	Items []Value
}

func (*Array) value() {}

// NewArray returns an array holding items.
func NewArray(items ...Value) *Array {
	return &Array{Items: items}
}

// Len returns the number of items.
func (a *Array) Len() int {
	return len(a.Items)
}

func (a *Array) String() string {
	parts := make([]string, len(a.Items))
	for i, item := range a.Items {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ---------------------------------------------------------------------------
// String
// ---------------------------------------------------------------------------

// String is an immutable string value.
type String string

func (String) value() {}

func (s String) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// Zero returns the default value of an unused register.
func Zero() Value {
	return Fraction{}
}

// Equal reports structural equality: fractions by value, arrays item by item,
// strings by content. Values of different kinds are never equal.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Fraction:
		y, ok := b.(Fraction)
		return ok && x.Cmp(y) == 0
	case String:
		y, ok := b.(String)
		return ok && x == y
	case *Array:
		y, ok := b.(*Array)
		if !ok || len(x.Items) != len(y.Items) {
			return false
		}
		for i := range x.Items {
			if !Equal(x.Items[i], y.Items[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Copy returns a value that shares no mutable state with v.
func Copy(v Value) Value {
	if a, ok := v.(*Array); ok {
		items := make([]Value, len(a.Items))
		for i, item := range a.Items {
			items[i] = Copy(item)
		}
		return &Array{Items: items}
	}
	return v
}

// KindName returns a short name for the kind of v, for diagnostics.
func KindName(v Value) string {
	switch v.(type) {
	case Fraction:
		return "fraction"
	case *Array:
		return "array"
	case String:
		return "string"
	case nil:
		return "nothing"
	}
	return fmt.Sprintf("%T", v)
}
