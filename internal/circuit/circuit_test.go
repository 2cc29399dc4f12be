package circuit

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGuard struct {
	width int
	dead  map[int]bool
}

func (g *fakeGuard) IsLive(i int) bool { return i < g.width && !g.dead[i] }
func (g *fakeGuard) Width() int        { return g.width }

func TestControlledConstructors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		op       Operation
		kind     Kind
		controls []int
	}{
		{"mcx zero controls", MCX(nil, 4), KindX, nil},
		{"mcx one control", MCX([]int{1}, 4), KindCNOT, []int{1}},
		{"mcx two controls", MCX([]int{1, 2}, 4), KindCCX, []int{1, 2}},
		{"mcx three controls", MCX([]int{1, 2, 3}, 4), KindMultiCX, []int{1, 2, 3}},
		{"mcz zero controls", MCZ(nil, 4), KindZ, nil},
		{"mcz one control", MCZ([]int{1}, 4), KindCZ, []int{1}},
		{"mcz two controls", MCZ([]int{1, 2}, 4), KindMultiCZ, []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.kind, tt.op.Kind)
			assert.Equal(t, 4, tt.op.Target())
			if tt.controls == nil {
				assert.Empty(t, tt.op.Controls())
			} else {
				assert.Equal(t, tt.controls, tt.op.Controls())
			}
		})
	}

	controls := []int{0, 1, 2}
	op := MCX(controls, 3)
	controls[0] = 9
	assert.Equal(t, 0, op.Qubits[0], "constructor must copy its controls")
}

func TestBuilderValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		op      Operation
		wantErr string
	}{
		{"out of range", H(5), "out of range"},
		{"negative", X(-1), "out of range"},
		{"duplicate operand", CNOT(1, 1), "used twice"},
		{"released qubit", H(3), "not live"},
		{"bad arity", Operation{Kind: KindCCX, Qubits: []int{0, 1}}, "takes 3..3"},
		{"unknown kind", Operation{Kind: 0, Qubits: []int{0}}, "unknown operation kind"},
		{"negative clbit", Measure(0, -2), "negative classical bit"},
		{"empty condition", X(0).If(nil, 1), "condition needs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := NewBuilder(0, WithGuard(&fakeGuard{width: 5, dead: map[int]bool{3: true}}))
			err := b.Append(tt.op)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidOperand))
			assert.ErrorContains(t, err, tt.wantErr)
			assert.Zero(t, b.Len())
		})
	}
}

func TestBuilderFinalize(t *testing.T) {
	t.Parallel()
	b := NewBuilder(3)
	require.NoError(t, b.AppendAll(H(0), CNOT(0, 1), MCX([]int{0, 1}, 2), Measure(2, 4)))

	c := b.Finalize()
	assert.Equal(t, 3, c.Qubits())
	assert.Equal(t, 5, c.Clbits(), "classical width covers every referenced bit")
	assert.Equal(t, 4, c.Len())

	err := b.Append(X(0))
	assert.True(t, errors.Is(err, ErrFinalized))

	ops := c.Ops()
	ops[0].Qubits[0] = 2
	assert.Equal(t, 0, c.Op(0).Qubits[0], "finalized circuit is immutable")
}

func TestBuilderExtend(t *testing.T) {
	t.Parallel()
	a := NewBuilder(4)
	require.NoError(t, a.AppendAll(H(0), CNOT(0, 1)))
	b := NewBuilder(4)
	require.NoError(t, b.AppendAll(H(2), CNOT(2, 3), Measure(3, 1)))

	whole := NewBuilder(4)
	require.NoError(t, whole.Extend(a.Finalize()))
	require.NoError(t, whole.Extend(b.Finalize()))
	c := whole.Finalize()

	want := []Operation{H(0), CNOT(0, 1), H(2), CNOT(2, 3), Measure(3, 1)}
	assert.Empty(t, cmp.Diff(want, c.Ops()))
	assert.Equal(t, 2, c.Clbits())

	narrow := NewBuilder(2)
	err := narrow.Extend(c)
	assert.True(t, errors.Is(err, ErrInvalidOperand))
}

func TestStats(t *testing.T) {
	t.Parallel()
	b := NewBuilder(4)
	require.NoError(t, b.AppendAll(
		H(0), H(1), // layer 1
		CNOT(0, 2),                // layer 2
		MCX([]int{0, 1, 2}, 3),    // layer 3
		MCZ([]int{1, 2}, 3),       // layer 4
		Reset(0),                  // layer 4
	))
	c := b.Finalize()

	assert.Equal(t, 4, c.Depth())
	assert.Equal(t, 3, c.MaxControls())
	assert.Equal(t, map[Kind]int{KindH: 2, KindCNOT: 1, KindMultiCX: 1, KindMultiCZ: 1, KindReset: 1}, c.Counts())
	assert.True(t, c.Touches(3))

	_, ok := c.Inverse()
	assert.False(t, ok, "reset is not invertible")
}

func TestInverse(t *testing.T) {
	t.Parallel()
	b := NewBuilder(3)
	require.NoError(t, b.AppendAll(H(2), CNOT(0, 1), CZ(1, 2)))
	inv, ok := b.Finalize().Inverse()
	require.True(t, ok)
	assert.Empty(t, cmp.Diff([]Operation{CZ(1, 2), CNOT(0, 1), H(2)}, inv))
}

func sampleCircuit(t *testing.T) *Circuit {
	t.Helper()
	b := NewBuilder(5)
	require.NoError(t, b.AppendAll(
		H(0),
		CNOT(0, 1),
		MCX([]int{0, 1, 2}, 3),
		MCZ([]int{1, 2}, 4),
		Measure(3, 0),
		Measure(4, 1),
		X(2).If([]int{0, 1}, 2),
		Reset(3),
	))
	return b.Finalize()
}

func TestArtifactCodecs(t *testing.T) {
	t.Parallel()
	c := sampleCircuit(t)

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, c.WriteJSON(&buf))
		assert.Contains(t, buf.String(), `"kind": "MultiCX"`)
		assert.Contains(t, buf.String(), `"classical_bit": 1`)

		back, err := ReadJSON(&buf)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(c.Ops(), back.Ops()))
		assert.Equal(t, c.Qubits(), back.Qubits())
		assert.Equal(t, c.Clbits(), back.Clbits())
	})

	t.Run("msgpack", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, c.WriteMsgpack(&buf))
		back, err := ReadMsgpack(&buf)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(c.Ops(), back.Ops()))
	})

	t.Run("rejects invalid artifacts", func(t *testing.T) {
		t.Parallel()
		_, err := ReadJSON(strings.NewReader(`{"qubit_count":2,"operations":[{"kind":"CNOT","qubits":[0,2]}]}`))
		assert.True(t, errors.Is(err, ErrInvalidOperand))

		_, err = ReadJSON(strings.NewReader(`{"qubit_count":2,"operations":[{"kind":"SWAP","qubits":[0,1]}]}`))
		assert.ErrorContains(t, err, "unknown kind")

		_, err = ReadJSON(strings.NewReader(`{"qubit_count":1,"operations":[{"kind":"Measure","qubits":[0]}]}`))
		assert.ErrorContains(t, err, "without classical bit")
	})
}

func TestWriteQASM(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, sampleCircuit(t).WriteQASM(&buf))

	want := strings.Join([]string{
		"OPENQASM 2.0;",
		`include "qelib1.inc";`,
		"",
		"qreg q[5];",
		"creg c[2];",
		"",
		"h q[0];",
		"cx q[0],q[1];",
		"c3x q[0],q[1],q[2],q[3];",
		"h q[4];",
		"ccx q[1],q[2],q[4];",
		"h q[4];",
		"measure q[3] -> c[0];",
		"measure q[4] -> c[1];",
		"if(c==2) x q[2];",
		"reset q[3];",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())

	b := NewBuilder(3)
	require.NoError(t, b.AppendAll(Measure(0, 0), Measure(1, 1), X(2).If([]int{1}, 1)))
	err := b.Finalize().WriteQASM(&bytes.Buffer{})
	assert.True(t, errors.Is(err, ErrQASMUnsupported))
}
