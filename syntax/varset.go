// Package syntax defines the register-based syntax tree produced by lowering.
//
// Every name in the parse tree is replaced by a resolved register index.
// Nodes report whether their execution is free of aliasing ambiguity
// (IsMono) and which variables they touch (UsedVars).
package syntax

import "sort"

// VarID identifies a logical variable within one function. All aliases of a
// variable share its VarID even when they occupy different registers.
type VarID int

// VarSet is a set of variable identities. The nil VarSet is empty and may be
// read but not written.
type VarSet map[VarID]struct{}

// NewVarSet returns a set holding ids.
func NewVarSet(ids ...VarID) VarSet {
	s := make(VarSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s VarSet) Has(id VarID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of ids in the set.
func (s VarSet) Len() int {
	return len(s)
}

// Union returns a new set holding every id of s and the other sets.
func (s VarSet) Union(others ...VarSet) VarSet {
	n := len(s)
	for _, o := range others {
		n += len(o)
	}
	out := make(VarSet, n)
	for id := range s {
		out[id] = struct{}{}
	}
	for _, o := range others {
		for id := range o {
			out[id] = struct{}{}
		}
	}
	return out
}

// Sorted returns the ids in ascending order.
func (s VarSet) Sorted() []VarID {
	ids := make([]VarID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
