// Package sim is a small state-vector executor for finished circuits. It
// stands in for a simulation backend: it takes the circuit artifact and
// returns outcome frequencies keyed by classical bit string.
package sim

import (
	"math"
	"math/cmplx"
	"math/rand/v2"

	"fortio.org/safecast"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/circuit"
	"github.com/pkg/errors"
)

// MaxQubits bounds the state vector at 2^MaxQubits amplitudes.
const MaxQubits = 26

const epsilon = 1e-9

var (
	// ErrTooWide is returned for circuits wider than MaxQubits.
	ErrTooWide = errors.New("sim: circuit too wide")
	// ErrNondeterministic is returned by Evolve when the circuit contains a
	// measurement or a reset whose outcome is not certain.
	ErrNondeterministic = errors.New("sim: circuit is not deterministic")
)

// State is a pure state over n qubits. Qubit q is bit q of the basis index.
type State struct {
	n   int
	amp []complex128
}

// NewState returns |0...0> on n qubits.
func NewState(n int) (*State, error) {
	if n < 0 || n > MaxQubits {
		return nil, errors.Wrapf(ErrTooWide, "%d qubits, limit %d", n, MaxQubits)
	}
	s := &State{n: n, amp: make([]complex128, 1<<n)}
	s.amp[0] = 1
	return s, nil
}

func (s *State) Qubits() int { return s.n }

// Amplitude returns the amplitude of a basis state.
func (s *State) Amplitude(basis uint64) complex128 { return s.amp[basis] }

func (s *State) Clone() *State {
	return &State{n: s.n, amp: append([]complex128(nil), s.amp...)}
}

func mask(q int) uint64 {
	m, err := safecast.Conv[uint](q)
	if err != nil {
		panic(err)
	}
	return uint64(1) << m
}

func maskOf(qs []int) uint64 {
	var m uint64
	for _, q := range qs {
		m |= mask(q)
	}
	return m
}

// Prob1 is the probability that qubit q reads 1.
func (s *State) Prob1(q int) float64 {
	m := mask(q)
	p := 0.0
	for i, a := range s.amp {
		if uint64(i)&m != 0 {
			p += real(a)*real(a) + imag(a)*imag(a)
		}
	}
	return p
}

// Apply performs a unitary operation. Reset, Measure and classically
// conditioned operations need a register and a source of randomness; use
// Step for those.
func (s *State) Apply(op circuit.Operation) {
	switch op.Kind {
	case circuit.KindH:
		s.hadamard(op.Target())
	case circuit.KindX, circuit.KindCNOT, circuit.KindCCX, circuit.KindMultiCX:
		s.controlledX(maskOf(op.Controls()), mask(op.Target()))
	case circuit.KindZ, circuit.KindCZ, circuit.KindMultiCZ:
		s.phaseFlip(maskOf(op.Qubits))
	}
}

func (s *State) hadamard(q int) {
	m := mask(q)
	r := complex(1/math.Sqrt2, 0)
	for i := range s.amp {
		j := uint64(i)
		if j&m != 0 {
			continue
		}
		a, b := s.amp[j], s.amp[j|m]
		s.amp[j], s.amp[j|m] = r*(a+b), r*(a-b)
	}
}

func (s *State) controlledX(controls, target uint64) {
	for i := range s.amp {
		j := uint64(i)
		if j&target != 0 || j&controls != controls {
			continue
		}
		s.amp[j], s.amp[j|target] = s.amp[j|target], s.amp[j]
	}
}

// phaseFlip negates every amplitude whose basis index has all bits of m set.
// A multi-controlled Z is symmetric in its operands.
func (s *State) phaseFlip(m uint64) {
	for i := range s.amp {
		if uint64(i)&m == m {
			s.amp[i] = -s.amp[i]
		}
	}
}

// Measure collapses qubit q and returns the outcome.
func (s *State) Measure(q int, rng *rand.Rand) int {
	p1 := s.Prob1(q)
	outcome := 0
	if rng.Float64() < p1 {
		outcome = 1
	}
	s.collapse(q, outcome, p1)
	return outcome
}

func (s *State) collapse(q, outcome int, p1 float64) {
	m := mask(q)
	p := p1
	if outcome == 0 {
		p = 1 - p1
	}
	norm := complex(1/math.Sqrt(p), 0)
	for i := range s.amp {
		set := uint64(i)&m != 0
		if set == (outcome == 1) {
			s.amp[i] *= norm
		} else {
			s.amp[i] = 0
		}
	}
}

// Reset measures q and flips it back to zero if it read one.
func (s *State) Reset(q int, rng *rand.Rand) {
	if s.Measure(q, rng) == 1 {
		s.controlledX(0, mask(q))
	}
}

// EqualUpToPhase reports whether two states differ only by a global phase.
func (s *State) EqualUpToPhase(o *State) bool {
	if s.n != o.n {
		return false
	}
	var phase complex128
	for i := range s.amp {
		a, b := s.amp[i], o.amp[i]
		if cmplx.Abs(a) < epsilon && cmplx.Abs(b) < epsilon {
			continue
		}
		if phase == 0 {
			if cmplx.Abs(b) < epsilon {
				return false
			}
			phase = a / b
			continue
		}
		if cmplx.Abs(a-phase*b) > 1e-6 {
			return false
		}
	}
	return phase != 0 && math.Abs(cmplx.Abs(phase)-1) < 1e-6
}

// Probabilities returns the distribution of the joint outcome of qs, keyed
// by the outcome with qs[i] as bit i.
func (s *State) Probabilities(qs []int) map[uint64]float64 {
	out := make(map[uint64]float64)
	masks := make([]uint64, len(qs))
	for i, q := range qs {
		masks[i] = mask(q)
	}
	for i, a := range s.amp {
		p := real(a)*real(a) + imag(a)*imag(a)
		if p < epsilon*epsilon {
			continue
		}
		var key uint64
		for k, m := range masks {
			if uint64(i)&m != 0 {
				key |= 1 << k
			}
		}
		out[key] += p
	}
	return out
}

// Evolve runs a circuit without measurements from |0...0> and returns the
// final state. Resets are allowed only where the qubit is certainly 0 or
// certainly 1.
func Evolve(c *circuit.Circuit) (*State, error) {
	s, err := NewState(c.Qubits())
	if err != nil {
		return nil, err
	}
	for i, op := range c.Ops() {
		switch {
		case op.Cond != nil, op.Kind == circuit.KindMeasure:
			return nil, errors.Wrapf(ErrNondeterministic, "operation %d: %s", i, op)
		case op.Kind == circuit.KindReset:
			if !s.resetDeterministic(op.Target()) {
				return nil, errors.Wrapf(ErrNondeterministic, "operation %d: %s on a superposed qubit", i, op)
			}
		default:
			s.Apply(op)
		}
	}
	return s, nil
}

// resetDeterministic resets q when its value is certain and reports whether
// it was.
func (s *State) resetDeterministic(q int) bool {
	p1 := s.Prob1(q)
	switch {
	case p1 < epsilon:
		return true
	case p1 > 1-epsilon:
		s.controlledX(0, mask(q))
		return true
	default:
		return false
	}
}
