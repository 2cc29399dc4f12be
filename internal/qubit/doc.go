// Package qubit owns the physical index space of a circuit. It hands out
// data and ancilla handles from a single serialized counter, tracks which
// handles are live, and only takes ancillas back into its free pool after the
// caller has acknowledged that they were reset to the zero state.
//
// The Allocator is the one synchronization point of the synthesis pipeline:
// every other component is a pure function of the handles it is given.
package qubit
