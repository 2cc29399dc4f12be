package app_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/app"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/circuit"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestRun_DefaultSimulation(t *testing.T) {
	t.Parallel()

	// Act
	res := testutil.RunApp(t, nil, app.Config{Simulate: true, LogLevel: "error"})

	// Assert
	require.NoError(t, res.Err)
	assert.Contains(t, res.Output, "steane7, 1 block(s), corrector network")
	assert.Contains(t, res.Output, "logical outcomes")
	assert.Contains(t, res.Output, "1.0000")
	assert.Contains(t, res.Output, "1000 shots")
}

func TestRun_HCLBellPairArtifact(t *testing.T) {
	t.Parallel()

	// Arrange
	files := map[string]string{
		"codes/hamming.hcl": `
code "hamming_css" {
  length      = 7
  transversal = true
  group "bit_flip"   { coordinates = singletons(7) }
  group "phase_flip" { coordinates = singletons(7) }
}
`,
		"run.hcl": `
run {
  code   = "hamming_css"
  bell   = true
  rounds = 1
  shots  = 200
  seed   = 3
  fault {
    block = "b"
    qubit = 5
    pauli = "Y"
  }
}
`,
	}
	out := filepath.Join(t.TempDir(), "bell.json")

	// Act
	res := testutil.RunApp(t, files, app.Config{Simulate: true, OutPath: out, LogLevel: "warn"})

	// Assert
	require.NoError(t, res.Err)
	assert.Contains(t, res.Output, "hamming_css, 2 block(s)")
	assert.Contains(t, res.Output, "faults: b:5:Y")
	assert.NotContains(t, res.Output, " 01 |")
	assert.NotContains(t, res.Output, " 10 |")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	c, err := circuit.ReadJSON(f)
	require.NoError(t, err)
	assert.Equal(t, 20, c.Qubits())
	assert.Equal(t, 2, c.Clbits())
}

func TestRun_TOMLWithOverrides(t *testing.T) {
	t.Parallel()

	// Arrange
	files := map[string]string{"run.toml": `
[run]
code = "repetition3_bit"
rounds = 3
shots = 100

[[run.input]]
block = "a"
state = "zero"
`}
	cfg := app.Config{
		Simulate: true,
		LogLevel: "error",
		Overrides: app.Overrides{
			Rounds: ptr(1),
			InputA: ptr("one"),
			Faults: []string{"a:1:X"},
		},
	}

	// Act
	res := testutil.RunApp(t, files, cfg)

	// Assert
	require.NoError(t, res.Err)
	run := res.App.RunSpec()
	assert.Equal(t, 1, run.Rounds)
	assert.Equal(t, 100, run.Shots)
	assert.Equal(t, "one", run.Inputs[0].State)
	assert.Contains(t, res.Output, "faults: a:1:X")
	assert.Contains(t, res.Output, "100 shots")
	assert.Contains(t, res.Output, "1.0000")
}

func TestRun_QASMToOutput(t *testing.T) {
	t.Parallel()
	cfg := app.Config{
		OutPath:   "-",
		Format:    app.FormatQASM,
		LogLevel:  "error",
		Overrides: app.Overrides{Code: ptr("repetition3_bit")},
	}
	res := testutil.RunApp(t, nil, cfg)

	require.NoError(t, res.Err)
	assert.True(t, strings.HasPrefix(res.Output, "OPENQASM 2.0;"), res.Output)
	assert.Contains(t, res.Output, "ccx")
	assert.NotContains(t, res.Output, "block(s)", "the report must not interleave with the artifact")
}

func TestRun_ListCodes(t *testing.T) {
	t.Parallel()
	files := map[string]string{"extra.hcl": `
code "my_code" {
  length = 3
  group "bit_flip" { coordinates = singletons(3) }
}
`}
	res := testutil.RunApp(t, files, app.Config{ListCodes: true, LogLevel: "error"})

	require.NoError(t, res.Err)
	for _, name := range []string{"steane7", "shor9", "repetition3_phase", "my_code"} {
		assert.Contains(t, res.Output, name)
	}
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		files map[string]string
		over  app.Overrides
		want  string
	}{
		{name: "broken file", files: map[string]string{"bad.hcl": `run {`}, want: "failed to load configuration"},
		{name: "broken code", files: map[string]string{"bad.hcl": `code "x" {
  length = 4
  group "bit_flip" { coordinates = singletons(3) }
}`}, want: "failed to register codes"},
		{name: "unknown strategy", over: app.Overrides{Strategy: ptr("magic")}, want: "invalid run"},
		{name: "unknown code", over: app.Overrides{Code: ptr("golay23")}, want: "synthesis failed"},
		{name: "bad fault flag", over: app.Overrides{Faults: []string{"a:1"}}, want: "invalid fault"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := testutil.RunApp(t, tt.files, app.Config{Overrides: tt.over})
			assert.ErrorContains(t, res.Err, tt.want)
		})
	}
}
