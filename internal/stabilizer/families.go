package stabilizer

import (
	"github.com/pkg/errors"
)

// Canonical names of the built-in codes.
const (
	NameRepetition3Bit   = "repetition3_bit"
	NameRepetition3Phase = "repetition3_phase"
	NameSteane7          = "steane7"
	NameShor9            = "shor9"
	NameShor9Standard    = "shor9_standard"
)

// Repetition3Bit is the three-qubit bit-flip code: two Z-type checks on
// qubits {0,2} and {1,2}, no phase protection.
func Repetition3Bit() (*Code, error) {
	return Build(Definition{
		Name:   NameRepetition3Bit,
		Length: 3,
		Groups: []GroupDefinition{{Family: BitFlip, Coordinates: Singletons(3)}},
	})
}

// Repetition3Phase is the Hadamard-basis analog of Repetition3Bit: two X-type
// checks on the same qubit pairs.
func Repetition3Phase() (*Code, error) {
	return Build(Definition{
		Name:   NameRepetition3Phase,
		Length: 3,
		Groups: []GroupDefinition{{Family: PhaseFlip, Coordinates: Singletons(3)}},
	})
}

// Steane7 is the [[7,1,3]] code built from Hamming(7,4) in both families.
func Steane7() (*Code, error) {
	hamming := [][]int{{0, 2, 4, 6}, {1, 2, 5, 6}, {3, 4, 5, 6}}
	return Build(Definition{
		Name:        NameSteane7,
		Length:      7,
		Transversal: true,
		Groups: []GroupDefinition{
			{Family: BitFlip, Coordinates: Singletons(7), Rows: hamming},
			{Family: PhaseFlip, Coordinates: Singletons(7), Rows: hamming},
		},
	})
}

// Shor9 nests three Repetition3Phase blocks inside one Repetition3Bit block.
func Shor9() (*Code, error) {
	outer, err := Repetition3Bit()
	if err != nil {
		return nil, err
	}
	inner, err := Repetition3Phase()
	if err != nil {
		return nil, err
	}
	return Concatenate(NameShor9, outer, inner)
}

// Shor9Standard is the textbook orientation: three bit-flip blocks inside
// one phase-flip block.
func Shor9Standard() (*Code, error) {
	outer, err := Repetition3Phase()
	if err != nil {
		return nil, err
	}
	inner, err := Repetition3Bit()
	if err != nil {
		return nil, err
	}
	return Concatenate(NameShor9Standard, outer, inner)
}

// Concatenate nests one copy of inner in every qubit of outer. Inner groups
// are replicated per block. Outer bit-flip checks are lifted onto the inner
// logical Z support and corrected with the inner logical X; outer phase-flip
// checks are lifted onto the inner logical X support and corrected with the
// inner logical Z. The correcting logical operator must act on one qubit.
func Concatenate(name string, outer, inner *Code) (*Code, error) {
	if outer == nil || inner == nil {
		return nil, errors.Wrap(ErrConfiguration, "concatenate: nil code")
	}
	n := inner.n
	def := Definition{Name: name, Length: outer.n * n}

	for b := range outer.n {
		for _, g := range inner.groups {
			gd := GroupDefinition{Family: g.Family, Coordinates: shiftSets(g.Coordinates, b*n), Targets: shift(g.Targets, b*n)}
			def.Groups = append(def.Groups, gd)
		}
	}

	for _, g := range outer.groups {
		detect, correct := inner.plan.LogicalZ, inner.plan.LogicalX
		if g.Family == PhaseFlip {
			detect, correct = inner.plan.LogicalX, inner.plan.LogicalZ
		}
		if len(correct) != 1 {
			return nil, errors.Wrapf(ErrConfiguration, "concatenate %q: inner %s logical correction spans %d qubits, want 1",
				name, inner.name, len(correct))
		}

		gd := GroupDefinition{Family: g.Family, Targets: make([]int, len(g.Targets))}
		for _, coord := range g.Coordinates {
			var lifted []int
			for _, o := range coord {
				lifted = append(lifted, shift(detect, o*n)...)
			}
			gd.Coordinates = append(gd.Coordinates, lifted)
		}
		for i, t := range g.Targets {
			gd.Targets[i] = t*n + correct[0]
		}
		def.Groups = append(def.Groups, gd)
	}

	return Build(def)
}

func shift(in []int, by int) []int {
	out := make([]int, len(in))
	for i, q := range in {
		out[i] = q + by
	}
	return out
}

func shiftSets(in [][]int, by int) [][]int {
	out := make([][]int, len(in))
	for i, s := range in {
		out[i] = shift(s, by)
	}
	return out
}
