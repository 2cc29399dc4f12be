package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/bell"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/circuit"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/noise"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/qubit"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/sim"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/stabilizer"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/syndrome"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStagePlan(t *testing.T) {
	t.Parallel()
	res, err := Run(context.Background(), Config{Code: stabilizer.NameSteane7, Bell: true, Rounds: 2})
	require.NoError(t, err)

	want := []string{
		"prepare/a", "prepare/b",
		"encode/a", "encode/b",
		"bell",
		"fault/a", "fault/b",
		"round1/a", "round1/b",
		"round2/a", "round2/b",
		"decode/a", "decode/b",
		"measure/a", "measure/b",
		"release/a", "release/b",
	}
	assert.Equal(t, want, res.Stages)
	require.Len(t, res.Blocks, 2)
	assert.Equal(t, 0, res.Blocks[0].Carrier)
	assert.Equal(t, 10, res.Blocks[1].Carrier)
	assert.Equal(t, []int{7, 8, 9}, res.Blocks[0].Ancillas)
	assert.Equal(t, 20, res.Circuit.Qubits())
	assert.Equal(t, 2, res.Circuit.Clbits())
	assert.Equal(t, "network", res.Corrector)
}

func TestDeterministicAcrossWorkers(t *testing.T) {
	t.Parallel()
	cfg := Config{
		Code:         stabilizer.NameShor9,
		Inputs:       []Input{InputPlus, InputOne},
		Rounds:       2,
		Corrector:    syndrome.Decomposed{},
		RandomFaults: 1,
		Seed:         5,
	}
	var first []circuit.Operation
	for _, workers := range []int{1, 2, 8} {
		cfg.Workers = workers
		res, err := Run(context.Background(), cfg)
		require.NoError(t, err)
		ops := res.Circuit.Ops()
		if first == nil {
			first = ops
			continue
		}
		if diff := cmp.Diff(first, ops); diff != "" {
			t.Errorf("workers=%d changed the circuit (-first +got):\n%s", workers, diff)
		}
	}
}

func carrierCounts(t *testing.T, cfg Config, shots int) sim.Counts {
	t.Helper()
	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	counts, err := (&sim.Simulator{}).Run(context.Background(), res.Circuit, shots, cfg.Seed)
	require.NoError(t, err)

	// Keep only the carrier bits, which are the lowest ones.
	n := len(res.Blocks)
	out := make(sim.Counts)
	for k, v := range counts {
		out[k[len(k)-n:]] += v
	}
	return out
}

func TestRepetitionScenario(t *testing.T) {
	t.Parallel()
	cfg := Config{
		Code:   stabilizer.NameRepetition3Bit,
		Inputs: []Input{InputOne},
		Rounds: 1,
		Faults: []noise.Fault{{Block: "a", Qubit: 1, Pauli: noise.PauliX}},
	}
	assert.Equal(t, sim.Counts{"1": 200}, carrierCounts(t, cfg, 200))
}

func TestNetworkCorrectsMultiBitSyndromes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		code  string
		qubit int
	}{
		{stabilizer.NameRepetition3Bit, 2},
		{stabilizer.NameSteane7, 2},
		{stabilizer.NameSteane7, 6},
		{stabilizer.NameShor9, 7},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/X on %d", tt.code, tt.qubit), func(t *testing.T) {
			t.Parallel()
			cfg := Config{
				Code:   tt.code,
				Inputs: []Input{InputOne},
				Rounds: 1,
				Faults: []noise.Fault{{Block: "a", Qubit: tt.qubit, Pauli: noise.PauliX}},
			}
			assert.Equal(t, sim.Counts{"1": 100}, carrierCounts(t, cfg, 100))
		})
	}
}

func TestSteaneBellPair(t *testing.T) {
	t.Parallel()
	counts := carrierCounts(t, Config{Code: stabilizer.NameSteane7, Bell: true, Rounds: 1, Seed: 3}, 1000)

	assert.Equal(t, 1000, counts.Total())
	for _, k := range counts.Keys() {
		assert.Contains(t, []string{"00", "11"}, k)
	}
}

func TestCorrectsRandomFaults(t *testing.T) {
	t.Parallel()
	codes := []string{
		stabilizer.NameRepetition3Bit,
		stabilizer.NameSteane7,
		stabilizer.NameShor9,
		stabilizer.NameShor9Standard,
	}
	strategies := []syndrome.Corrector{syndrome.Network{}, syndrome.Decomposed{}, syndrome.Measured{}}
	for _, name := range codes {
		for _, c := range strategies {
			t.Run(name+"/"+c.Name(), func(t *testing.T) {
				t.Parallel()
				for seed := range uint64(4) {
					cfg := Config{
						Code:         name,
						Inputs:       []Input{InputOne},
						Rounds:       1,
						Corrector:    c,
						RandomFaults: 1,
						Seed:         seed,
					}
					if name == stabilizer.NameRepetition3Bit {
						// Only bit flips are correctable there.
						cfg.RandomFaults = 0
						cfg.Faults = []noise.Fault{{Block: "a", Qubit: int(seed % 3), Pauli: noise.PauliX}}
					}
					assert.Equal(t, sim.Counts{"1": 50}, carrierCounts(t, cfg, 50), "seed %d", seed)
				}
			})
		}
	}
}

func TestRunErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"no code", Config{}, ErrInvalidConfig},
		{"unknown code", Config{Code: "golay23"}, stabilizer.ErrUnsupportedCode},
		{"negative rounds", Config{Code: "steane7", Rounds: -1}, ErrInvalidConfig},
		{"bell needs two blocks", Config{Code: "steane7", Bell: true, Inputs: []Input{InputZero}}, ErrInvalidConfig},
		{"unknown fault block", Config{Code: "steane7", Faults: []noise.Fault{{Block: "z", Pauli: noise.PauliX}}}, ErrInvalidConfig},
		{"fault out of range", Config{Code: "steane7", Faults: []noise.Fault{{Block: "a", Qubit: 7, Pauli: noise.PauliX}}}, noise.ErrInvalidFault},
		{"not transversal", Config{Code: "shor9", Bell: true}, bell.ErrNotTransversal},
		{"capacity", Config{Code: "steane7", Bell: true, Capacity: 12}, qubit.ErrAllocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Run(context.Background(), tt.cfg)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestParseInput(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]Input{"": InputZero, "1": InputOne, "+": InputPlus, "Minus": InputMinus} {
		got, err := ParseInput(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseInput("i")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}
