package syndrome

import (
	"context"
	"strings"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/block"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/circuit"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/ctxlog"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/stabilizer"
	"github.com/pkg/errors"
)

// ErrControlSetOverflow is returned when a corrective gate needs more
// controls than the strategy may use.
var ErrControlSetOverflow = errors.New("syndrome: control set overflow")

// Strategy names accepted by New.
const (
	StrategyNetwork    = "network"
	StrategyDecomposed = "decomposed"
	StrategyMeasured   = "measured"
	StrategyFallback   = "fallback"
)

// Requirements are the extra resources a corrector needs per block.
type Requirements struct {
	Scratch int
	Clbits  int
}

func (r Requirements) union(o Requirements) Requirements {
	return Requirements{Scratch: max(r.Scratch, o.Scratch), Clbits: max(r.Clbits, o.Clbits)}
}

// Request is one correction: the syndrome of Group sits on Ancillas, with
// Ancillas[j] holding bit j.
type Request struct {
	Builder  *circuit.Builder
	Block    *block.Block
	Group    stabilizer.Group
	Ancillas []int
}

// Corrector turns an extracted syndrome into corrective gates on the block's
// data qubits: X after a bit-flip group, Z after a phase-flip group.
type Corrector interface {
	Name() string
	Requirements(g stabilizer.Group) Requirements
	Correct(ctx context.Context, req Request) error
}

// RequirementsFor is the union of c's requirements over every group of code.
func RequirementsFor(c Corrector, code *stabilizer.Code) Requirements {
	var r Requirements
	for _, g := range code.Groups() {
		r = r.union(c.Requirements(g))
	}
	return r
}

// New returns the named strategy. maxControls bounds the native control set
// of network and decomposed; zero means unbounded for network and two for
// decomposed. Fallback is a bounded network falling back to decomposition.
func New(name string, maxControls int) (Corrector, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyNetwork:
		return Network{MaxControls: maxControls}, nil
	case StrategyDecomposed:
		return Decomposed{MaxControls: maxControls}, nil
	case StrategyMeasured:
		return Measured{}, nil
	case StrategyFallback:
		return Fallback{
			Primary:   Network{MaxControls: maxControls},
			Secondary: Decomposed{MaxControls: maxControls},
		}, nil
	default:
		return nil, errors.Errorf("syndrome: unknown correction strategy %q", name)
	}
}

// entry is one row of the lookup table: syndrome value, the ancillas that
// read 0 for it, and the physical qubit to correct. Its gate is controlled on
// all of the group's ancillas, with the zeros inverted around it.
type entry struct {
	value  int
	zeros  []int
	target int
}

// table resolves every syndrome value 1..Values of the request. Value 0 is
// the null syndrome and has no entry.
func table(req Request) ([]entry, error) {
	g := req.Group
	if len(req.Ancillas) < g.Width() {
		return nil, errors.Errorf("syndrome: %s group needs %d ancillas, got %d", g.Family, g.Width(), len(req.Ancillas))
	}
	lookup := g.Table()
	out := make([]entry, 0, g.Values())
	for v := 1; v <= g.Values(); v++ {
		t, ok := lookup[v]
		if !ok {
			return nil, errors.Wrapf(stabilizer.ErrSyndromeTableGap, "%s group: no target for syndrome %d", g.Family, v)
		}
		var zeros []int
		for j := range g.Width() {
			if v&(1<<j) == 0 {
				zeros = append(zeros, req.Ancillas[j])
			}
		}
		out = append(out, entry{value: v, zeros: zeros, target: req.Block.Qubit(t)})
	}
	return out, nil
}

// exact lays out one gate per entry so that each fires on its own syndrome
// pattern only. Before an entry's gate the ancillas reading 0 for it are
// inverted; inversions carry over between consecutive entries and are undone
// after the last one, leaving the syndrome on the ancillas.
func exact(entries []entry, ancillas []int, emit func(e entry) []circuit.Operation) []circuit.Operation {
	inverted := make(map[int]bool, len(ancillas))
	var ops []circuit.Operation
	align := func(want map[int]bool) {
		for _, a := range ancillas {
			if inverted[a] != want[a] {
				ops = append(ops, circuit.X(a))
				inverted[a] = want[a]
			}
		}
	}
	for _, e := range entries {
		want := make(map[int]bool, len(e.zeros))
		for _, a := range e.zeros {
			want[a] = true
		}
		align(want)
		ops = append(ops, emit(e)...)
	}
	align(nil)
	return ops
}

func gate(f stabilizer.Family, controls []int, target int) circuit.Operation {
	if f == stabilizer.PhaseFlip {
		return circuit.MCZ(controls, target)
	}
	return circuit.MCX(controls, target)
}

// Network is the unconditional lookup-table network: one gate per nonzero
// syndrome value, controlled on every ancilla of the group and firing only
// when the ancillas hold exactly that value. No gate fires for the null
// syndrome.
type Network struct {
	// MaxControls is the widest native control set. Zero means unbounded.
	MaxControls int
}

func (Network) Name() string { return StrategyNetwork }

func (Network) Requirements(stabilizer.Group) Requirements { return Requirements{} }

func (n Network) Correct(ctx context.Context, req Request) error {
	entries, err := table(req)
	if err != nil {
		return err
	}
	g := req.Group
	if n.MaxControls > 0 && g.Width() > n.MaxControls {
		return errors.Wrapf(ErrControlSetOverflow, "%s group needs %d controls, limit %d", g.Family, g.Width(), n.MaxControls)
	}
	controls := req.Ancillas[:g.Width()]
	ops := exact(entries, controls, func(e entry) []circuit.Operation {
		return []circuit.Operation{gate(g.Family, controls, e.target)}
	})
	if err := req.Builder.AppendAll(ops...); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Applied correction network.", "block", req.Block.Name(), "family", g.Family, "gates", len(entries))
	return nil
}

// Decomposed emits gates wider than MaxControls as a Toffoli ladder over
// clean scratch qubits: the conjunction of the controls is computed into
// the scratch, used for the final gate, and uncomputed. The scratch is reset
// after the network.
type Decomposed struct {
	// MaxControls is the widest native control set, at least two.
	MaxControls int
}

func (d Decomposed) limit() int { return max(d.MaxControls, 2) }

func (Decomposed) Name() string { return StrategyDecomposed }

func (d Decomposed) Requirements(g stabilizer.Group) Requirements {
	if w := g.Width(); w > d.limit() {
		return Requirements{Scratch: w - 2}
	}
	return Requirements{}
}

func (d Decomposed) Correct(ctx context.Context, req Request) error {
	entries, err := table(req)
	if err != nil {
		return err
	}
	need := d.Requirements(req.Group).Scratch
	var scratch []int
	if need > 0 {
		if scratch, err = req.Block.ClaimScratch(need); err != nil {
			return err
		}
	}

	f := req.Group.Family
	controls := req.Ancillas[:req.Group.Width()]
	ops := exact(entries, controls, func(e entry) []circuit.Operation {
		if len(controls) <= d.limit() {
			return []circuit.Operation{gate(f, controls, e.target)}
		}
		return ladder(f, controls, e.target, scratch)
	})
	if err := req.Builder.AppendAll(ops...); err != nil {
		return err
	}

	if need > 0 {
		if err := req.Block.ResetScratch(req.Builder, scratch); err != nil {
			return err
		}
	}
	ctxlog.FromContext(ctx).Debug("Applied decomposed correction.", "block", req.Block.Name(), "family", req.Group.Family, "scratch", need)
	return nil
}

// ladder realizes a gate with k >= 3 controls using k-2 scratch qubits.
func ladder(f stabilizer.Family, controls []int, target int, scratch []int) []circuit.Operation {
	k := len(controls)
	compute := []circuit.Operation{circuit.MCX([]int{controls[0], controls[1]}, scratch[0])}
	for i := 2; i < k-1; i++ {
		compute = append(compute, circuit.MCX([]int{controls[i], scratch[i-2]}, scratch[i-1]))
	}

	ops := append([]circuit.Operation(nil), compute...)
	ops = append(ops, gate(f, []int{controls[k-1], scratch[k-3]}, target))
	for i := len(compute) - 1; i >= 0; i-- {
		ops = append(ops, compute[i])
	}
	return ops
}

// Measured reads the ancillas into the block's classical bits and applies
// one classically conditioned X or Z per syndrome value.
type Measured struct{}

func (Measured) Name() string { return StrategyMeasured }

func (Measured) Requirements(g stabilizer.Group) Requirements {
	return Requirements{Clbits: g.Width()}
}

func (Measured) Correct(ctx context.Context, req Request) error {
	entries, err := table(req)
	if err != nil {
		return err
	}
	w := req.Group.Width()
	clbits := req.Block.Clbits()
	if len(clbits) < w {
		return errors.Errorf("syndrome: block %s has %d classical bits, %s group needs %d", req.Block.Name(), len(clbits), req.Group.Family, w)
	}
	clbits = clbits[:w]

	for j := range w {
		if err := req.Builder.Append(circuit.Measure(req.Ancillas[j], clbits[j])); err != nil {
			return err
		}
	}
	for _, e := range entries {
		op := gate(req.Group.Family, nil, e.target).If(clbits, uint64(e.value))
		if err := req.Builder.Append(op); err != nil {
			return err
		}
	}
	ctxlog.FromContext(ctx).Debug("Applied measured correction.", "block", req.Block.Name(), "family", req.Group.Family, "clbits", clbits)
	return nil
}

// Fallback runs Primary and, only if it overflows its control limit, runs
// Secondary instead.
type Fallback struct {
	Primary   Corrector
	Secondary Corrector
}

func (f Fallback) Name() string { return StrategyFallback }

func (f Fallback) Requirements(g stabilizer.Group) Requirements {
	return f.Primary.Requirements(g).union(f.Secondary.Requirements(g))
}

func (f Fallback) Correct(ctx context.Context, req Request) error {
	err := f.Primary.Correct(ctx, req)
	if !errors.Is(err, ErrControlSetOverflow) {
		return err
	}
	ctxlog.FromContext(ctx).Info("Falling back to secondary corrector.", "block", req.Block.Name(), "primary", f.Primary.Name(), "secondary", f.Secondary.Name(), "reason", err)
	return f.Secondary.Correct(ctx, req)
}
