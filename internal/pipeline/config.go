package pipeline

import (
	"strings"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/circuit"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/noise"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/stabilizer"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/syndrome"
	"github.com/pkg/errors"
)

// ErrInvalidConfig is returned for a pipeline configuration that cannot be
// synthesized.
var ErrInvalidConfig = errors.New("pipeline: invalid configuration")

// Input is the logical state prepared on a block's carrier before encoding.
type Input string

const (
	InputZero  Input = "zero"
	InputOne   Input = "one"
	InputPlus  Input = "plus"
	InputMinus Input = "minus"
)

// ParseInput accepts the names above and the kets 0, 1, + and -.
func ParseInput(s string) (Input, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zero", "0":
		return InputZero, nil
	case "one", "1":
		return InputOne, nil
	case "plus", "+":
		return InputPlus, nil
	case "minus", "-":
		return InputMinus, nil
	default:
		return "", errors.Wrapf(ErrInvalidConfig, "unknown input state %q", s)
	}
}

// Ops prepares the input on qubit q from |0>.
func (in Input) Ops(q int) []circuit.Operation {
	switch in {
	case InputOne:
		return []circuit.Operation{circuit.X(q)}
	case InputPlus:
		return []circuit.Operation{circuit.H(q)}
	case InputMinus:
		return []circuit.Operation{circuit.X(q), circuit.H(q)}
	default:
		return nil
	}
}

// Config describes one synthesis run.
type Config struct {
	// Code names the code of every block.
	Code string
	// Factory resolves Code. Nil uses the built-in factory.
	Factory *stabilizer.Factory
	// Inputs holds one logical input per block; blocks are named a, b, ...
	// Empty means one block in |0>, or two when Bell is set.
	Inputs []Input
	// Bell entangles blocks a and b after encoding.
	Bell bool
	// Rounds is the number of QEC cycles per block.
	Rounds int
	// Corrector defaults to an unbounded network.
	Corrector syndrome.Corrector
	// Faults are injected after encoding (and after the Bell pair).
	Faults []noise.Fault
	// RandomFaults draws that many extra faults per block from Seed.
	RandomFaults int
	Seed         uint64
	// Workers bounds stage concurrency. Zero means GOMAXPROCS.
	Workers int
	// Capacity bounds the qubit index space. Zero means unbounded.
	Capacity int
}

const maxBlocks = 26

func blockName(i int) string { return string(rune('a' + i)) }

func (c Config) withDefaults() (Config, error) {
	if strings.TrimSpace(c.Code) == "" {
		return c, errors.Wrap(ErrInvalidConfig, "no code selected")
	}
	if c.Rounds < 0 {
		return c, errors.Wrapf(ErrInvalidConfig, "rounds must not be negative, got %d", c.Rounds)
	}
	if c.RandomFaults < 0 {
		return c, errors.Wrapf(ErrInvalidConfig, "random faults must not be negative, got %d", c.RandomFaults)
	}
	if len(c.Inputs) == 0 {
		c.Inputs = []Input{InputZero}
		if c.Bell {
			c.Inputs = append(c.Inputs, InputZero)
		}
	}
	if c.Bell && len(c.Inputs) != 2 {
		return c, errors.Wrapf(ErrInvalidConfig, "a Bell pair needs exactly 2 blocks, got %d", len(c.Inputs))
	}
	if len(c.Inputs) > maxBlocks {
		return c, errors.Wrapf(ErrInvalidConfig, "%d blocks, limit %d", len(c.Inputs), maxBlocks)
	}
	if c.Corrector == nil {
		c.Corrector = syndrome.Network{}
	}
	names := make(map[string]bool, len(c.Inputs))
	for i := range c.Inputs {
		names[blockName(i)] = true
	}
	for _, f := range c.Faults {
		if !names[f.Block] {
			return c, errors.Wrapf(ErrInvalidConfig, "fault %s targets unknown block %q", f, f.Block)
		}
	}
	return c, nil
}
