package syndrome

import (
	"context"
	"fmt"
	"testing"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/block"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/circuit"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/encoder"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/qubit"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/sim"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/stabilizer"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allCodes = []string{
	stabilizer.NameRepetition3Bit,
	stabilizer.NameRepetition3Phase,
	stabilizer.NameSteane7,
	stabilizer.NameShor9,
	stabilizer.NameShor9Standard,
}

type fixture struct {
	blk   *block.Block
	alloc *qubit.Allocator
	bld   *circuit.Builder
}

// setup lays out one block with whatever c needs and encodes logical input
// one or plus onto it.
func setup(t *testing.T, name string, c Corrector, prep ...func(int) circuit.Operation) fixture {
	t.Helper()
	code, err := stabilizer.Lookup(name)
	require.NoError(t, err)
	req := RequirementsFor(c, code)
	clbits := make([]int, req.Clbits)
	for i := range clbits {
		clbits[i] = i + 1
	}

	alloc := qubit.NewAllocator()
	blk, err := block.New("a", code, alloc, block.WithScratch(req.Scratch), block.WithClbits(clbits))
	require.NoError(t, err)
	bld := circuit.NewBuilder(0, circuit.WithGuard(alloc))
	for _, p := range prep {
		require.NoError(t, bld.Append(p(blk.Carrier())))
	}
	require.NoError(t, encoder.Encode(context.Background(), bld, blk))
	return fixture{blk: blk, alloc: alloc, bld: bld}
}

func group(t *testing.T, name string, f stabilizer.Family) stabilizer.Group {
	t.Helper()
	code, err := stabilizer.Lookup(name)
	require.NoError(t, err)
	gs := code.GroupsOf(f)
	require.NotEmpty(t, gs)
	return gs[0]
}

func TestExtractOps(t *testing.T) {
	t.Parallel()
	data := []int{0, 1, 2}
	anc := []int{3, 4}

	bit, err := ExtractOps(group(t, stabilizer.NameRepetition3Bit, stabilizer.BitFlip), data, anc)
	require.NoError(t, err)
	want := []circuit.Operation{
		circuit.CNOT(0, 3), circuit.CNOT(2, 3),
		circuit.CNOT(1, 4), circuit.CNOT(2, 4),
	}
	if diff := cmp.Diff(want, bit); diff != "" {
		t.Errorf("bit-flip fan-in mismatch (-want +got):\n%s", diff)
	}

	phase, err := ExtractOps(group(t, stabilizer.NameRepetition3Phase, stabilizer.PhaseFlip), data, anc)
	require.NoError(t, err)
	want = []circuit.Operation{
		circuit.H(3), circuit.CNOT(3, 0), circuit.CNOT(3, 2), circuit.H(3),
		circuit.H(4), circuit.CNOT(4, 1), circuit.CNOT(4, 2), circuit.H(4),
	}
	if diff := cmp.Diff(want, phase); diff != "" {
		t.Errorf("phase-flip fan-in mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractRejects(t *testing.T) {
	t.Parallel()
	bld := circuit.NewBuilder(8)

	empty := stabilizer.Group{Family: stabilizer.BitFlip, Rows: [][]int{{0, 1}, {}}}
	err := Extract(context.Background(), bld, empty, []int{0, 1, 2}, []int{3, 4})
	assert.True(t, errors.Is(err, stabilizer.ErrInvalidStabilizer))

	err = Extract(context.Background(), bld, stabilizer.Group{Family: stabilizer.PhaseFlip}, []int{0}, []int{1})
	assert.True(t, errors.Is(err, stabilizer.ErrInvalidStabilizer), "no rows")

	narrow := group(t, stabilizer.NameSteane7, stabilizer.BitFlip)
	err = Extract(context.Background(), bld, narrow, []int{0, 1, 2, 3, 4, 5, 6}, []int{7})
	assert.True(t, errors.Is(err, qubit.ErrAllocation))

	assert.Zero(t, bld.Len(), "nothing emitted")
}

func TestNetworkSteane(t *testing.T) {
	t.Parallel()
	// Arrange
	fx := setup(t, stabilizer.NameSteane7, Network{})
	require.NoError(t, fx.blk.BeginRound())
	anc, err := fx.blk.ClaimAncillas(3)
	require.NoError(t, err)
	a0, a1, a2 := anc[0], anc[1], anc[2]
	before := fx.bld.Len()

	// Act
	err = Network{}.Correct(context.Background(), Request{
		Builder:  fx.bld,
		Block:    fx.blk,
		Group:    group(t, stabilizer.NameSteane7, stabilizer.BitFlip),
		Ancillas: anc,
	})

	// Assert: ancillas reading 0 for a value are inverted around its gate,
	// and the inversions are carried from one value to the next.
	require.NoError(t, err)
	ops := fx.bld.Finalize().Ops()[before:]
	all := []int{a0, a1, a2}
	want := []circuit.Operation{
		circuit.X(a1), circuit.X(a2), circuit.MCX(all, 0),
		circuit.X(a0), circuit.X(a1), circuit.MCX(all, 1),
		circuit.X(a0), circuit.MCX(all, 2),
		circuit.X(a0), circuit.X(a1), circuit.X(a2), circuit.MCX(all, 3),
		circuit.X(a0), circuit.MCX(all, 4),
		circuit.X(a0), circuit.X(a1), circuit.MCX(all, 5),
		circuit.X(a0), circuit.MCX(all, 6),
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("network mismatch (-want +got):\n%s", diff)
	}
}

func TestCorrectionFiresOnlyOnItsSyndrome(t *testing.T) {
	t.Parallel()
	code, err := stabilizer.Lookup(stabilizer.NameSteane7)
	require.NoError(t, err)
	g := group(t, stabilizer.NameSteane7, stabilizer.BitFlip)

	for _, c := range []Corrector{Network{}, Decomposed{}} {
		for s := 1; s <= g.Values(); s++ {
			t.Run(fmt.Sprintf("%s/syndrome %d", c.Name(), s), func(t *testing.T) {
				t.Parallel()
				// Arrange: data in |0> and the ancillas holding s.
				alloc := qubit.NewAllocator()
				blk, err := block.New("a", code, alloc, block.WithScratch(RequirementsFor(c, code).Scratch))
				require.NoError(t, err)
				require.NoError(t, blk.MarkEncoded())
				require.NoError(t, blk.BeginRound())
				anc, err := blk.ClaimAncillas(g.Width())
				require.NoError(t, err)
				bld := circuit.NewBuilder(0, circuit.WithGuard(alloc))
				for j, a := range anc {
					if s&(1<<j) != 0 {
						require.NoError(t, bld.Append(circuit.X(a)))
					}
				}

				// Act
				require.NoError(t, c.Correct(context.Background(), Request{Builder: bld, Block: blk, Group: g, Ancillas: anc}))

				// Assert: only the table's target flipped and the syndrome is intact.
				st, err := sim.Evolve(bld.Finalize())
				require.NoError(t, err)
				target := g.Table()[s]
				for q := range code.Len() {
					want := 0.0
					if q == target {
						want = 1
					}
					assert.InDelta(t, want, st.Prob1(blk.Qubit(q)), 1e-9, "data qubit %d", q)
				}
				for j, a := range anc {
					assert.InDelta(t, float64(s>>j&1), st.Prob1(a), 1e-9, "ancilla %d", j)
				}
			})
		}
	}
}

func TestPhaseNetworkUsesZ(t *testing.T) {
	t.Parallel()
	fx := setup(t, stabilizer.NameSteane7, Network{})
	require.NoError(t, fx.blk.BeginRound())
	anc, err := fx.blk.ClaimAncillas(3)
	require.NoError(t, err)
	before := fx.bld.Len()

	require.NoError(t, Network{}.Correct(context.Background(), Request{
		Builder: fx.bld, Block: fx.blk, Ancillas: anc,
		Group: group(t, stabilizer.NameSteane7, stabilizer.PhaseFlip),
	}))

	for _, op := range fx.bld.Finalize().Ops()[before:] {
		if op.Kind == circuit.KindX {
			assert.Contains(t, anc, op.Qubits[0], "inversions stay on the ancillas")
			continue
		}
		assert.True(t, op.Kind.IsZType(), "%s", op)
	}
}

func TestNetworkErrors(t *testing.T) {
	t.Parallel()

	t.Run("overflow emits nothing", func(t *testing.T) {
		t.Parallel()
		fx := setup(t, stabilizer.NameSteane7, Network{})
		require.NoError(t, fx.blk.BeginRound())
		anc, err := fx.blk.ClaimAncillas(3)
		require.NoError(t, err)
		before := fx.bld.Len()

		err = Network{MaxControls: 2}.Correct(context.Background(), Request{
			Builder: fx.bld, Block: fx.blk, Ancillas: anc,
			Group: group(t, stabilizer.NameSteane7, stabilizer.BitFlip),
		})
		assert.True(t, errors.Is(err, ErrControlSetOverflow))
		assert.Equal(t, before, fx.bld.Len())
	})

	t.Run("table gap", func(t *testing.T) {
		t.Parallel()
		fx := setup(t, stabilizer.NameRepetition3Bit, Network{})
		require.NoError(t, fx.blk.BeginRound())
		anc, err := fx.blk.ClaimAncillas(2)
		require.NoError(t, err)
		g := group(t, stabilizer.NameRepetition3Bit, stabilizer.BitFlip)
		g.Targets = g.Targets[:2]

		for _, c := range []Corrector{Network{}, Decomposed{}, Measured{}} {
			err = c.Correct(context.Background(), Request{Builder: fx.bld, Block: fx.blk, Group: g, Ancillas: anc})
			assert.True(t, errors.Is(err, stabilizer.ErrSyndromeTableGap), c.Name())
		}
	})
}

func TestRequirements(t *testing.T) {
	t.Parallel()
	steane, err := stabilizer.Lookup(stabilizer.NameSteane7)
	require.NoError(t, err)
	shor, err := stabilizer.Lookup(stabilizer.NameShor9)
	require.NoError(t, err)

	assert.Equal(t, Requirements{}, RequirementsFor(Network{}, steane))
	assert.Equal(t, Requirements{Scratch: 1}, RequirementsFor(Decomposed{}, steane))
	assert.Equal(t, Requirements{}, RequirementsFor(Decomposed{MaxControls: 3}, steane))
	assert.Equal(t, Requirements{Clbits: 3}, RequirementsFor(Measured{}, steane))
	assert.Equal(t, Requirements{}, RequirementsFor(Decomposed{}, shor))

	fb := Fallback{Primary: Measured{}, Secondary: Decomposed{}}
	assert.Equal(t, Requirements{Scratch: 1, Clbits: 3}, RequirementsFor(fb, steane))
}

func TestNew(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		want Corrector
	}{
		{"", Network{MaxControls: 2}},
		{"network", Network{MaxControls: 2}},
		{" Decomposed ", Decomposed{MaxControls: 2}},
		{"measured", Measured{}},
		{"fallback", Fallback{Primary: Network{MaxControls: 2}, Secondary: Decomposed{MaxControls: 2}}},
	}
	for _, tt := range tests {
		got, err := New(tt.name, 2)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	_, err := New("lookup", 0)
	assert.ErrorContains(t, err, "unknown correction strategy")
}

func TestDecomposedLadder(t *testing.T) {
	t.Parallel()
	got := ladder(stabilizer.BitFlip, []int{1, 2, 3, 4}, 0, []int{8, 9})
	want := []circuit.Operation{
		circuit.MCX([]int{1, 2}, 8),
		circuit.MCX([]int{3, 8}, 9),
		circuit.MCX([]int{4, 9}, 0),
		circuit.MCX([]int{3, 8}, 9),
		circuit.MCX([]int{1, 2}, 8),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ladder mismatch (-want +got):\n%s", diff)
	}
	z := ladder(stabilizer.PhaseFlip, []int{1, 2, 3}, 0, []int{8})
	assert.Equal(t, circuit.MCZ([]int{3, 8}, 0), z[1])
}

func TestFallback(t *testing.T) {
	t.Parallel()
	c := Fallback{Primary: Network{MaxControls: 2}, Secondary: Decomposed{MaxControls: 2}}
	fx := setup(t, stabilizer.NameSteane7, c)

	require.NoError(t, Round(context.Background(), fx.bld, fx.blk, c))

	circ := fx.bld.Finalize()
	assert.LessOrEqual(t, circ.MaxControls(), 2)
	assert.Equal(t, 1, fx.blk.Rounds())
}

func TestRoundLifecycle(t *testing.T) {
	t.Parallel()
	code, err := stabilizer.Lookup(stabilizer.NameRepetition3Bit)
	require.NoError(t, err)
	alloc := qubit.NewAllocator()
	blk, err := block.New("a", code, alloc)
	require.NoError(t, err)
	bld := circuit.NewBuilder(0, circuit.WithGuard(alloc))

	err = Round(context.Background(), bld, blk, Network{})
	assert.True(t, errors.Is(err, block.ErrLifecycle))
	assert.Zero(t, bld.Len())
}

func faultOps(pauli string, q int) []circuit.Operation {
	switch pauli {
	case "X":
		return []circuit.Operation{circuit.X(q)}
	case "Z":
		return []circuit.Operation{circuit.Z(q)}
	default:
		return []circuit.Operation{circuit.X(q), circuit.Z(q)}
	}
}

// correctable lists the single-qubit Paulis code can undo: X needs a
// bit-flip group, Z a phase-flip group, and Y both.
func correctable(code *stabilizer.Code) []string {
	var out []string
	if len(code.GroupsOf(stabilizer.BitFlip)) > 0 {
		out = append(out, "X")
	}
	if len(code.GroupsOf(stabilizer.PhaseFlip)) > 0 {
		out = append(out, "Z")
	}
	if len(out) == 2 {
		out = append(out, "Y")
	}
	return out
}

func TestSingleErrorCorrection(t *testing.T) {
	t.Parallel()
	strategies := []Corrector{
		Network{},
		Decomposed{},
		Fallback{Primary: Network{MaxControls: 1}, Secondary: Decomposed{}},
	}
	for _, name := range allCodes {
		for _, c := range strategies {
			t.Run(name+"/"+c.Name(), func(t *testing.T) {
				t.Parallel()
				// Arrange: an error-free reference and one faulty copy per
				// qubit and Pauli, all with the same layout.
				ref := setup(t, name, c, circuit.H)
				require.NoError(t, Round(context.Background(), ref.bld, ref.blk, c))
				want, err := sim.Evolve(ref.bld.Finalize())
				require.NoError(t, err)

				for q := range ref.blk.Code().Len() {
					for _, pauli := range correctable(ref.blk.Code()) {
						fx := setup(t, name, c, circuit.H)
						require.NoError(t, fx.bld.AppendAll(faultOps(pauli, fx.blk.Qubit(q))...))

						// Act
						require.NoError(t, Round(context.Background(), fx.bld, fx.blk, c))

						// Assert
						got, err := sim.Evolve(fx.bld.Finalize())
						require.NoError(t, err)
						assert.True(t, got.EqualUpToPhase(want), "%s on qubit %d", pauli, q)
					}
				}
			})
		}
	}
}

func TestAncillaCleanliness(t *testing.T) {
	t.Parallel()
	for _, name := range allCodes {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			fx := setup(t, name, Decomposed{}, circuit.X)
			require.NoError(t, Round(context.Background(), fx.bld, fx.blk, Decomposed{}))
			require.NoError(t, Round(context.Background(), fx.bld, fx.blk, Decomposed{}))

			s, err := sim.Evolve(fx.bld.Finalize())
			require.NoError(t, err)
			for _, q := range append(fx.blk.Ancillas(), fx.blk.ScratchQubits()...) {
				assert.InDelta(t, 0, s.Prob1(q), 1e-9, "qubit %d", q)
			}
			assert.Equal(t, 2, fx.blk.Rounds())
		})
	}
}

func TestNullSyndromeFiresNothing(t *testing.T) {
	t.Parallel()
	// Without a fault every ancilla holds 0 after extraction, so the state
	// after the correction network equals the state before it.
	fx := setup(t, stabilizer.NameSteane7, Network{}, circuit.H)
	require.NoError(t, fx.blk.BeginRound())
	g := group(t, stabilizer.NameSteane7, stabilizer.BitFlip)
	anc, err := fx.blk.ClaimAncillas(g.Width())
	require.NoError(t, err)
	require.NoError(t, Extract(context.Background(), fx.bld, g, fx.blk.Data(), anc))
	extracted := fx.bld.Finalize()

	after := circuit.NewBuilder(extracted.Qubits())
	require.NoError(t, after.Extend(extracted))
	require.NoError(t, Network{}.Correct(context.Background(), Request{Builder: after, Block: fx.blk, Group: g, Ancillas: anc}))

	want, err := sim.Evolve(extracted)
	require.NoError(t, err)
	got, err := sim.Evolve(after.Finalize())
	require.NoError(t, err)
	assert.True(t, got.EqualUpToPhase(want))
}

func TestMeasuredScenario(t *testing.T) {
	t.Parallel()
	// Arrange: logical one on the bit-flip repetition code, flip qubit 1.
	fx := setup(t, stabilizer.NameRepetition3Bit, Measured{}, circuit.X)
	require.NoError(t, fx.bld.Append(circuit.X(fx.blk.Qubit(1))))

	// Act
	require.NoError(t, Round(context.Background(), fx.bld, fx.blk, Measured{}))
	require.NoError(t, encoder.Decode(context.Background(), fx.bld, fx.blk))
	require.NoError(t, fx.bld.Append(circuit.Measure(fx.blk.Carrier(), 0)))
	counts, err := (&sim.Simulator{}).Run(context.Background(), fx.bld.Finalize(), 64, 3)

	// Assert: carrier reads 1 and the syndrome bits read value 2.
	require.NoError(t, err)
	assert.Equal(t, sim.Counts{"101": 64}, counts)
}
