// Package noise injects single-qubit Pauli faults into a circuit under
// construction. It is a demonstration and test concern: faults are chosen
// from an explicit seed so every run is reproducible.
package noise

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/block"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/circuit"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/ctxlog"
	"github.com/pkg/errors"
)

// ErrInvalidFault is returned for faults outside their block.
var ErrInvalidFault = errors.New("noise: invalid fault")

// Pauli is a single-qubit error.
type Pauli uint8

const (
	PauliX Pauli = iota + 1
	PauliZ
	PauliY
)

var pauliNames = map[Pauli]string{PauliX: "X", PauliZ: "Z", PauliY: "Y"}

func (p Pauli) String() string {
	if s, ok := pauliNames[p]; ok {
		return s
	}
	return fmt.Sprintf("pauli(%d)", uint8(p))
}

// ParsePauli accepts X, Y and Z in either case, plus the family aliases
// bit (X) and phase (Z).
func ParsePauli(s string) (Pauli, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x", "bit":
		return PauliX, nil
	case "z", "phase":
		return PauliZ, nil
	case "y":
		return PauliY, nil
	default:
		return 0, errors.Wrapf(ErrInvalidFault, "unknown pauli %q", s)
	}
}

// Ops returns the gates realizing p on qubit q. Y is applied as X then Z,
// which equals Y up to global phase.
func (p Pauli) Ops(q int) []circuit.Operation {
	switch p {
	case PauliX:
		return []circuit.Operation{circuit.X(q)}
	case PauliZ:
		return []circuit.Operation{circuit.Z(q)}
	case PauliY:
		return []circuit.Operation{circuit.X(q), circuit.Z(q)}
	default:
		return nil
	}
}

// Fault is one Pauli error on a block-local data qubit.
type Fault struct {
	Block string
	Qubit int
	Pauli Pauli
}

func (f Fault) String() string { return fmt.Sprintf("%s:%d:%s", f.Block, f.Qubit, f.Pauli) }

// ParseFault reads the "block:qubit:pauli" form used on the command line.
func ParseFault(s string) (Fault, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Fault{}, errors.Wrapf(ErrInvalidFault, "%q is not block:qubit:pauli", s)
	}
	q, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Fault{}, errors.Wrapf(ErrInvalidFault, "%q: qubit %q", s, parts[1])
	}
	p, err := ParsePauli(parts[2])
	if err != nil {
		return Fault{}, err
	}
	return Fault{Block: strings.TrimSpace(parts[0]), Qubit: q, Pauli: p}, nil
}

// Apply appends the faults that target blk.
func Apply(ctx context.Context, bld *circuit.Builder, blk *block.Block, faults []Fault) error {
	logger := ctxlog.FromContext(ctx)
	for _, f := range faults {
		if f.Block != blk.Name() {
			continue
		}
		if f.Qubit < 0 || f.Qubit >= blk.Code().Len() {
			return errors.Wrapf(ErrInvalidFault, "%s: block %s has %d data qubits", f, blk.Name(), blk.Code().Len())
		}
		if err := bld.AppendAll(f.Pauli.Ops(blk.Qubit(f.Qubit))...); err != nil {
			return err
		}
		logger.Debug("Injected fault.", "block", blk.Name(), "qubit", f.Qubit, "pauli", f.Pauli)
	}
	return nil
}

// Injector draws random faults from an explicit seed.
type Injector struct {
	rng *rand.Rand
}

func NewInjector(seed uint64) *Injector {
	return &Injector{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Draw returns up to n faults on distinct qubits of the named block.
func (in *Injector) Draw(blk string, length, n int) []Fault {
	n = min(n, length)
	if n <= 0 {
		return nil
	}
	qs := in.rng.Perm(length)[:n]
	out := make([]Fault, n)
	for i, q := range qs {
		out[i] = Fault{Block: blk, Qubit: q, Pauli: Pauli(1 + in.rng.IntN(3))}
	}
	return out
}
