package app

import (
	"testing"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/config"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/noise"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/pipeline"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/syndrome"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()
	cfg, err := NewConfig(Config{})
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Equal(t, BackendLocal, cfg.Backend)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)

	bad := []Config{
		{Format: "yaml"},
		{Backend: "gpu"},
		{Backend: BackendRemote, Simulate: true},
		{LogFormat: "xml"},
		{LogLevel: "trace"},
		{WorkerCount: -1},
	}
	for _, c := range bad {
		_, err := NewConfig(c)
		assert.Error(t, err, "%+v", c)
	}
}

func TestPipelineConfig(t *testing.T) {
	t.Parallel()
	run := config.DefaultRun()
	run.Strategy = "decomposed"
	run.MaxControls = 3
	run.Inputs = []config.InputSpec{{Block: "c", State: "minus"}}
	run.Faults = []config.FaultSpec{{Block: "a", Qubit: 2, Pauli: "z"}}

	got, err := pipelineConfig(run, nil, 4)
	require.NoError(t, err)
	assert.Equal(t, []pipeline.Input{pipeline.InputZero, pipeline.InputZero, pipeline.InputMinus}, got.Inputs)
	assert.Equal(t, syndrome.Decomposed{MaxControls: 3}, got.Corrector)
	assert.Equal(t, []noise.Fault{{Block: "a", Qubit: 2, Pauli: noise.PauliZ}}, got.Faults)
	assert.Equal(t, 4, got.Workers)

	run.Bell = true
	run.Inputs = nil
	got, err = pipelineConfig(run, nil, 0)
	require.NoError(t, err)
	assert.Len(t, got.Inputs, 2)

	run.Inputs = []config.InputSpec{{Block: "alpha", State: "one"}}
	_, err = pipelineConfig(run, nil, 0)
	assert.ErrorIs(t, err, pipeline.ErrInvalidConfig)

	run.Inputs = []config.InputSpec{{Block: "a", State: "i"}}
	_, err = pipelineConfig(run, nil, 0)
	assert.ErrorIs(t, err, pipeline.ErrInvalidConfig)
}

func TestApplyOverrides(t *testing.T) {
	t.Parallel()
	run := config.DefaultRun()
	run.Inputs = []config.InputSpec{{Block: "a", State: "zero"}}
	code, bell, seed := "shor9", true, uint64(99)
	b := "plus"

	require.NoError(t, applyOverrides(run, Overrides{Code: &code, Bell: &bell, Seed: &seed, InputB: &b, Faults: []string{"b:0:phase"}}))

	assert.Equal(t, "shor9", run.Code)
	assert.True(t, run.Bell)
	assert.Equal(t, uint64(99), run.Seed)
	assert.Equal(t, 1, run.Rounds, "unset overrides keep the loaded value")
	assert.Equal(t, []config.InputSpec{{Block: "a", State: "zero"}, {Block: "b", State: "plus"}}, run.Inputs)
	assert.Equal(t, []config.FaultSpec{{Block: "b", Qubit: 0, Pauli: "Z"}}, run.Faults)
}
