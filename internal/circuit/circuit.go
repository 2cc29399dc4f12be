// Package circuit holds the boundary artifact of synthesis: an ordered,
// loop-free list of gates, resets and measurements over a declared qubit and
// classical register. Circuits are built with a Builder and are immutable
// once finalized. They can be exported as JSON, msgpack or OpenQASM 2.0.
package circuit

import (
	"slices"
)

// Circuit is a finalized operation list.
type Circuit struct {
	qubits int
	clbits int
	ops    []Operation
}

// Qubits is the declared qubit width.
func (c *Circuit) Qubits() int { return c.qubits }

// Clbits is the declared classical register width. It is greater than every
// classical bit the circuit references.
func (c *Circuit) Clbits() int { return c.clbits }

// Len is the number of operations.
func (c *Circuit) Len() int { return len(c.ops) }

// Op returns a copy of operation i.
func (c *Circuit) Op(i int) Operation { return cloneOp(c.ops[i]) }

// Ops returns a copy of the operation list.
func (c *Circuit) Ops() []Operation {
	out := make([]Operation, len(c.ops))
	for i, op := range c.ops {
		out[i] = cloneOp(op)
	}
	return out
}

// Counts tallies operations per kind.
func (c *Circuit) Counts() map[Kind]int {
	out := make(map[Kind]int)
	for _, op := range c.ops {
		out[op.Kind]++
	}
	return out
}

// Depth is the number of qubit layers: each operation sits one layer above
// the deepest operation that touched any of its qubits before it.
func (c *Circuit) Depth() int {
	level := make([]int, c.qubits)
	depth := 0
	for _, op := range c.ops {
		l := 0
		for _, q := range op.Qubits {
			l = max(l, level[q])
		}
		l++
		for _, q := range op.Qubits {
			level[q] = l
		}
		depth = max(depth, l)
	}
	return depth
}

// MaxControls is the widest control set used by any operation.
func (c *Circuit) MaxControls() int {
	m := 0
	for _, op := range c.ops {
		m = max(m, len(op.Controls()))
	}
	return m
}

// Touches reports whether any operation acts on qubit q.
func (c *Circuit) Touches(q int) bool {
	for _, op := range c.ops {
		if slices.Contains(op.Qubits, q) {
			return true
		}
	}
	return false
}

// Inverse returns the operations of a unitary circuit in reverse order. It
// reports false when the circuit holds a reset, measurement or condition.
// Every supported gate is self-inverse.
func (c *Circuit) Inverse() ([]Operation, bool) {
	out := make([]Operation, 0, len(c.ops))
	for i := len(c.ops) - 1; i >= 0; i-- {
		op := c.ops[i]
		if op.Kind == KindReset || op.Kind == KindMeasure || op.Cond != nil {
			return nil, false
		}
		out = append(out, cloneOp(op))
	}
	return out, true
}
