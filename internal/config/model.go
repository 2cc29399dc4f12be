package config

import (
	"fmt"
	"strings"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/stabilizer"
)

// Model is the unified, format-agnostic representation of every loaded
// configuration file.
type Model struct {
	Codes map[string]*CodeDefinition
	Run   *RunSpec
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{Codes: make(map[string]*CodeDefinition)}
}

// CodeDefinition is the format-agnostic representation of a `code` block.
type CodeDefinition struct {
	Name        string
	Length      int
	Transversal bool
	Groups      []*GroupDefinition
}

// GroupDefinition is one check group of a code. Rows and Targets are
// optional; when given they are verified against Coordinates.
type GroupDefinition struct {
	Family      string
	Coordinates [][]int
	Targets     []int
	Rows        [][]int
}

// RunSpec is the format-agnostic representation of the `run` block.
type RunSpec struct {
	Code         string
	Rounds       int
	Bell         bool
	Strategy     string
	MaxControls  int
	Shots        int
	Seed         uint64
	RandomFaults int
	Workers      int
	Inputs       []InputSpec
	Faults       []FaultSpec
}

// InputSpec sets the logical input of one block.
type InputSpec struct {
	Block string
	State string
}

// FaultSpec is a Pauli fault on a block-local data qubit.
type FaultSpec struct {
	Block string
	Qubit int
	Pauli string
}

// DefaultRun is the run used when no file provides one. Loaders start from
// it so that omitted attributes keep these values.
func DefaultRun() *RunSpec {
	return &RunSpec{
		Code:     stabilizer.NameSteane7,
		Rounds:   1,
		Strategy: "network",
		Shots:    1000,
		Seed:     1,
	}
}

// Merge folds src into m. Codes must be unique by name and at most one run
// may be defined across all files.
func (m *Model) Merge(src *Model) error {
	for name, def := range src.Codes {
		key := strings.ToLower(name)
		if _, ok := m.Codes[key]; ok {
			return fmt.Errorf("code %q is defined more than once", name)
		}
		m.Codes[key] = def
	}
	if src.Run != nil {
		if m.Run != nil {
			return fmt.Errorf("more than one run block is defined")
		}
		m.Run = src.Run
	}
	return nil
}

// Definition converts d into a stabilizer definition. Structural checks are
// left to stabilizer.Build.
func (d *CodeDefinition) Definition() (stabilizer.Definition, error) {
	def := stabilizer.Definition{Name: d.Name, Length: d.Length, Transversal: d.Transversal}
	for i, g := range d.Groups {
		f, ok := stabilizer.ParseFamily(g.Family)
		if !ok {
			return def, fmt.Errorf("code %q group %d: unknown family %q", d.Name, i, g.Family)
		}
		def.Groups = append(def.Groups, stabilizer.GroupDefinition{
			Family:      f,
			Coordinates: g.Coordinates,
			Targets:     g.Targets,
			Rows:        g.Rows,
		})
	}
	return def, nil
}

// Register defines every code of the model on f.
func (m *Model) Register(f *stabilizer.Factory) error {
	for _, d := range m.Codes {
		def, err := d.Definition()
		if err != nil {
			return err
		}
		if _, err := f.Define(def); err != nil {
			return fmt.Errorf("code %q: %w", d.Name, err)
		}
	}
	return nil
}
