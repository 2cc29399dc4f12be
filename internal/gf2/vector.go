// Package gf2 implements the small amount of binary linear algebra needed to
// reason about parity-check matrices: fixed-length vectors, row reduction,
// rank, span membership and null spaces. Vectors are backed by bitsets.
package gf2

import (
	"slices"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Vector is a fixed-length row vector over GF(2). The zero value is an empty
// vector of length 0.
type Vector struct {
	n    uint
	bits *bitset.BitSet
}

// NewVector returns the zero vector of length n.
func NewVector(n int) Vector {
	return Vector{n: uint(n), bits: bitset.New(uint(n))}
}

// FromSupport returns a vector of length n with the given positions set.
// Positions outside [0, n) are ignored; callers validate ranges.
func FromSupport(n int, support []int) Vector {
	v := NewVector(n)
	for _, i := range support {
		if i >= 0 && i < n {
			v.bits.Set(uint(i))
		}
	}
	return v
}

// Len is the vector length.
func (v Vector) Len() int { return int(v.n) }

// Get reports whether position i is set.
func (v Vector) Get(i int) bool {
	if v.bits == nil || i < 0 || uint(i) >= v.n {
		return false
	}
	return v.bits.Test(uint(i))
}

// Set sets position i to one.
func (v Vector) Set(i int) {
	if i >= 0 && uint(i) < v.n {
		v.bits.Set(uint(i))
	}
}

// Flip toggles position i.
func (v Vector) Flip(i int) {
	if i >= 0 && uint(i) < v.n {
		v.bits.Flip(uint(i))
	}
}

// Add returns v + o. Both vectors must have the same length.
func (v Vector) Add(o Vector) Vector {
	return Vector{n: v.n, bits: v.bits.SymmetricDifference(o.bits)}
}

// AddInPlace sets v to v + o.
func (v Vector) AddInPlace(o Vector) {
	v.bits.InPlaceSymmetricDifference(o.bits)
}

// Dot is the GF(2) inner product: the parity of the overlap.
func (v Vector) Dot(o Vector) bool {
	return v.bits.IntersectionCardinality(o.bits)%2 == 1
}

// Overlap counts positions set in both vectors.
func (v Vector) Overlap(o Vector) int {
	return int(v.bits.IntersectionCardinality(o.bits))
}

// Weight is the number of set positions.
func (v Vector) Weight() int {
	if v.bits == nil {
		return 0
	}
	return int(v.bits.Count())
}

// IsZero reports whether no position is set.
func (v Vector) IsZero() bool {
	return v.bits == nil || v.bits.None()
}

// Equal reports whether both vectors have the same length and support.
func (v Vector) Equal(o Vector) bool {
	if v.n != o.n {
		return false
	}
	if v.IsZero() || o.IsZero() {
		return v.IsZero() && o.IsZero()
	}
	return v.bits.SymmetricDifferenceCardinality(o.bits) == 0
}

// Clone returns an independent copy.
func (v Vector) Clone() Vector {
	if v.bits == nil {
		return NewVector(int(v.n))
	}
	return Vector{n: v.n, bits: v.bits.Clone()}
}

// Support returns the set positions in ascending order.
func (v Vector) Support() []int {
	out := make([]int, 0, v.Weight())
	if v.bits == nil {
		return out
	}
	for i, ok := v.bits.NextSet(0); ok && i < v.n; i, ok = v.bits.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

// Less orders vectors by weight, then lexicographically by support.
func (v Vector) Less(o Vector) bool {
	if v.Weight() != o.Weight() {
		return v.Weight() < o.Weight()
	}
	return slices.Compare(v.Support(), o.Support()) < 0
}

// String renders the vector with position 0 first, e.g. "1010101".
func (v Vector) String() string {
	var b strings.Builder
	b.Grow(int(v.n))
	for i := range int(v.n) {
		if v.Get(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
