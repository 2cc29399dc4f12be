// Package stabilizer describes CSS stabilizer codes with one logical qubit.
//
// A code is a list of check groups. Each group belongs to one family:
// BitFlip groups hold Z-type checks that detect X errors and are corrected
// with X, PhaseFlip groups hold X-type checks that detect Z errors and are
// corrected with Z. A group is given by its coordinates: coordinate v-1 is
// the set of block-local qubits an error on which produces syndrome value v.
// Check row j of the group is the union of the coordinates whose value has
// bit j set, so the rows and the syndrome table are two readings of the same
// parity-check matrix and cannot disagree.
//
// Plain codes (repetition, Steane) use singleton coordinates: syndrome v
// points at qubit v-1. Concatenated codes lift the outer code's coordinates
// onto the logical operators of whole inner blocks.
//
// Every code is validated once, when it is built: coordinates, CSS
// commutation, the logical qubit count and the existence of an encoding
// plan. Synthesis never re-checks any of it.
package stabilizer

import (
	"fmt"
	"math/bits"
	"slices"
)

// Family selects which kind of error a check group detects.
type Family uint8

const (
	BitFlip Family = iota + 1
	PhaseFlip
)

func (f Family) String() string {
	switch f {
	case BitFlip:
		return "bit_flip"
	case PhaseFlip:
		return "phase_flip"
	default:
		return fmt.Sprintf("family(%d)", uint8(f))
	}
}

// ParseFamily accepts the String form plus "bit"/"phase" and "x"/"z" aliases
// naming the detected error.
func ParseFamily(s string) (Family, bool) {
	switch s {
	case "bit_flip", "bit", "x", "X":
		return BitFlip, true
	case "phase_flip", "phase", "z", "Z":
		return PhaseFlip, true
	}
	return 0, false
}

// Group is one family of parity checks plus its syndrome table.
type Group struct {
	Family Family
	// Coordinates[v-1] lists the block-local qubits reported by syndrome v.
	Coordinates [][]int
	// Targets[v-1] is the block-local qubit corrected for syndrome v.
	Targets []int
	// Rows[j] lists the block-local qubits in check j.
	Rows [][]int
}

// Width is the number of check rows, which is also the number of ancillas
// needed to extract the group's syndrome.
func (g Group) Width() int { return len(g.Rows) }

// Values is the number of nonzero syndrome values the group corrects.
func (g Group) Values() int { return len(g.Coordinates) }

// Table maps every syndrome value to its correction target.
func (g Group) Table() map[int]int {
	out := make(map[int]int, len(g.Targets))
	for i, t := range g.Targets {
		out[i+1] = t
	}
	return out
}

// Syndrome computes the value produced by an error on qubit q: bit j is set
// iff q is in row j.
func (g Group) Syndrome(q int) int {
	v := 0
	for j, row := range g.Rows {
		if slices.Contains(row, q) {
			v |= 1 << j
		}
	}
	return v
}

func (g Group) clone() Group {
	out := Group{Family: g.Family, Targets: slices.Clone(g.Targets)}
	out.Coordinates = cloneSets(g.Coordinates)
	out.Rows = cloneSets(g.Rows)
	return out
}

// rowsFor reads check rows off the coordinate columns.
func rowsFor(coords [][]int) [][]int {
	m := bits.Len(uint(len(coords)))
	rows := make([][]int, m)
	for j := range m {
		rows[j] = []int{}
		for i, c := range coords {
			if (i+1)&(1<<j) != 0 {
				rows[j] = append(rows[j], c...)
			}
		}
		slices.Sort(rows[j])
	}
	return rows
}

// Plan is the encoding recipe derived from the checks. The encoder applies
// Hadamard to CheckQubits, fans the carrier out to FanOut, then fans each
// check qubit out to its Generators entry.
type Plan struct {
	Carrier     int
	LogicalX    []int
	LogicalZ    []int
	FanOut      []int
	CheckQubits []int
	Generators  [][]int
}

func (p Plan) clone() Plan {
	return Plan{
		Carrier:     p.Carrier,
		LogicalX:    slices.Clone(p.LogicalX),
		LogicalZ:    slices.Clone(p.LogicalZ),
		FanOut:      slices.Clone(p.FanOut),
		CheckQubits: slices.Clone(p.CheckQubits),
		Generators:  cloneSets(p.Generators),
	}
}

// Code is a validated CSS code with one logical qubit. It is immutable and
// safe to share.
type Code struct {
	name        string
	n           int
	groups      []Group
	transversal bool
	plan        Plan
}

func (c *Code) Name() string { return c.name }

// Len is the number of physical data qubits.
func (c *Code) Len() int { return c.n }

// Transversal reports whether transversal Hadamard acts as logical Hadamard
// on this code. Transversal CNOT is logical for every CSS code.
func (c *Code) Transversal() bool { return c.transversal }

// Plan returns a copy of the encoding plan.
func (c *Code) Plan() Plan { return c.plan.clone() }

// Groups returns copies of all check groups in processing order.
func (c *Code) Groups() []Group {
	out := make([]Group, len(c.groups))
	for i, g := range c.groups {
		out[i] = g.clone()
	}
	return out
}

// GroupsOf returns the groups of one family in processing order.
func (c *Code) GroupsOf(f Family) []Group {
	var out []Group
	for _, g := range c.groups {
		if g.Family == f {
			out = append(out, g.clone())
		}
	}
	return out
}

// Rows returns every check row of a family.
func (c *Code) Rows(f Family) [][]int {
	var out [][]int
	for _, g := range c.groups {
		if g.Family == f {
			out = append(out, cloneSets(g.Rows)...)
		}
	}
	return out
}

// AncillaWidth is the widest group, i.e. the ancilla pool a block needs.
func (c *Code) AncillaWidth() int {
	w := 0
	for _, g := range c.groups {
		w = max(w, g.Width())
	}
	return w
}

// MaxControls is the widest control set any corrective gate needs. Each gate
// reads the full syndrome of its group, so this is the widest group.
func (c *Code) MaxControls() int {
	return c.AncillaWidth()
}

func (c *Code) String() string {
	return fmt.Sprintf("%s[[%d,1]]", c.name, c.n)
}

func cloneSets(in [][]int) [][]int {
	if in == nil {
		return nil
	}
	out := make([][]int, len(in))
	for i, s := range in {
		out[i] = slices.Clone(s)
	}
	return out
}
