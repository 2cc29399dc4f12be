package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Codes  []*Code  `hcl:"code,block"`
	Runs   []*Run   `hcl:"run,block"`
	Remain hcl.Body `hcl:",remain"`
}

// Code is the HCL schema of a `code "name" { ... }` block.
type Code struct {
	Name        string   `hcl:"name,label"`
	Length      int      `hcl:"length"`
	Transversal *bool    `hcl:"transversal,optional"`
	Groups      []*Group `hcl:"group,block"`
}

// Group is a `group "family" { ... }` block. Its attributes are decoded
// with the Converter so that list arguments can come from expressions.
type Group struct {
	Family string   `hcl:"family,label"`
	Body   hcl.Body `hcl:",remain"`
}

// Run is the HCL schema of the `run { ... }` block.
type Run struct {
	Code         *string  `hcl:"code,optional"`
	Rounds       *int     `hcl:"rounds,optional"`
	Bell         *bool    `hcl:"bell,optional"`
	Strategy     *string  `hcl:"strategy,optional"`
	MaxControls  *int     `hcl:"max_controls,optional"`
	Shots        *int     `hcl:"shots,optional"`
	Seed         *int64   `hcl:"seed,optional"`
	RandomFaults *int     `hcl:"random_faults,optional"`
	Workers      *int     `hcl:"workers,optional"`
	Inputs       []*Input `hcl:"input,block"`
	Faults       []*Fault `hcl:"fault,block"`
}

// Input is an `input "block" { state = "plus" }` block.
type Input struct {
	Block string `hcl:"block,label"`
	State string `hcl:"state"`
}

// Fault is a `fault { block = "a" qubit = 1 pauli = "X" }` block.
type Fault struct {
	Block string `hcl:"block"`
	Qubit int    `hcl:"qubit"`
	Pauli string `hcl:"pauli"`
}

// groupArgs is the decoded body of a Group.
type groupArgs struct {
	Coordinates [][]int `qec:"coordinates"`
	Targets     []int   `qec:"targets"`
	Rows        [][]int `qec:"rows"`
}
