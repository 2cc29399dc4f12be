package stabilizer

import (
	"slices"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/gf2"
	"github.com/pkg/errors"
)

// maxCosetBasis bounds the exhaustive search for low-weight logical
// representatives to 2^maxCosetBasis candidates.
const maxCosetBasis = 16

// Definition is the declarative input to Build.
type Definition struct {
	Name   string
	Length int
	// Transversal asserts that transversal Hadamard is a logical gate. It is
	// verified (the code must be self-dual) rather than trusted.
	Transversal bool
	Groups      []GroupDefinition
}

// GroupDefinition describes one check group. Targets default to the lowest
// qubit of each coordinate. Rows, when given, must equal the rows read off
// the coordinates.
type GroupDefinition struct {
	Family      Family
	Coordinates [][]int
	Targets     []int
	Rows        [][]int
}

// Singletons returns the coordinates {0},{1},...,{n-1}.
func Singletons(n int) [][]int {
	out := make([][]int, n)
	for i := range out {
		out[i] = []int{i}
	}
	return out
}

// Build validates a definition and derives its encoding plan. Every failure
// wraps ErrConfiguration.
func Build(def Definition) (*Code, error) {
	if def.Name == "" {
		return nil, errors.Wrap(ErrConfiguration, "code name is empty")
	}
	if def.Length < 1 {
		return nil, errors.Wrapf(ErrConfiguration, "code %q: length must be positive, got %d", def.Name, def.Length)
	}
	if len(def.Groups) == 0 {
		return nil, errors.Wrapf(ErrConfiguration, "code %q: no check groups", def.Name)
	}

	c := &Code{name: def.Name, n: def.Length}
	for i, gd := range def.Groups {
		g, err := buildGroup(def.Length, gd)
		if err != nil {
			return nil, errors.Wrapf(err, "code %q: group %d (%s)", def.Name, i, gd.Family)
		}
		c.groups = append(c.groups, g)
	}

	bz := gf2.FromSupports(c.n, c.Rows(BitFlip))
	bx := gf2.FromSupports(c.n, c.Rows(PhaseFlip))

	if ok, i, j := bz.Orthogonal(bx); !ok {
		return nil, errors.Wrapf(ErrConfiguration, "code %q: bit-flip row %v and phase-flip row %v overlap oddly, checks do not commute",
			def.Name, bz.Row(i).Support(), bx.Row(j).Support())
	}
	if k := c.n - bz.Rank() - bx.Rank(); k != 1 {
		return nil, errors.Wrapf(ErrConfiguration, "code %q encodes %d logical qubits, want 1", def.Name, k)
	}

	plan, err := derivePlan(c.n, bz, bx)
	if err != nil {
		return nil, errors.Wrapf(err, "code %q", def.Name)
	}
	c.plan = plan

	if def.Transversal {
		if !selfDual(bz, bx) {
			return nil, errors.Wrapf(ErrConfiguration, "code %q is declared transversal but its check families differ", def.Name)
		}
		c.transversal = true
	}
	return c, nil
}

func buildGroup(n int, gd GroupDefinition) (Group, error) {
	if gd.Family != BitFlip && gd.Family != PhaseFlip {
		return Group{}, errors.Wrapf(ErrConfiguration, "unknown family %s", gd.Family)
	}
	if len(gd.Coordinates) == 0 {
		return Group{}, errors.Wrap(ErrConfiguration, "no coordinates")
	}

	seen := make(map[int]int)
	coords := make([][]int, len(gd.Coordinates))
	for i, c := range gd.Coordinates {
		if len(c) == 0 {
			return Group{}, errors.Wrapf(ErrConfiguration, "coordinate for syndrome %d is empty", i+1)
		}
		for _, q := range c {
			if q < 0 || q >= n {
				return Group{}, errors.Wrapf(ErrConfiguration, "syndrome %d: qubit %d out of range [0,%d)", i+1, q, n)
			}
			if prev, ok := seen[q]; ok {
				// Two syndrome values reporting one qubit break the bijection.
				return Group{}, errors.Wrapf(ErrConfiguration, "qubit %d reported by syndromes %d and %d", q, prev, i+1)
			}
			seen[q] = i + 1
		}
		coords[i] = slices.Sorted(slices.Values(c))
	}

	targets := slices.Clone(gd.Targets)
	switch {
	case targets == nil:
		targets = make([]int, len(coords))
		for i, c := range coords {
			targets[i] = c[0]
		}
	case len(targets) != len(coords):
		return Group{}, errors.Wrapf(ErrConfiguration, "%d targets for %d syndrome values", len(targets), len(coords))
	}
	for i, t := range targets {
		if t < 0 || t >= n {
			return Group{}, errors.Wrapf(ErrConfiguration, "syndrome %d: target %d out of range [0,%d)", i+1, t, n)
		}
	}

	rows := rowsFor(coords)
	if gd.Rows != nil {
		if err := matchRows(rows, gd.Rows); err != nil {
			return Group{}, err
		}
	}

	return Group{Family: gd.Family, Coordinates: coords, Targets: targets, Rows: rows}, nil
}

func matchRows(derived, given [][]int) error {
	if len(given) != len(derived) {
		return errors.Wrapf(ErrConfiguration, "%d rows given, coordinates imply %d", len(given), len(derived))
	}
	for j := range given {
		g := slices.Sorted(slices.Values(given[j]))
		if !slices.Equal(g, derived[j]) {
			return errors.Wrapf(ErrConfiguration, "row %d is %v, but the syndrome table implies %v", j, g, derived[j])
		}
	}
	return nil
}

func selfDual(bz, bx *gf2.Matrix) bool {
	both, err := gf2.Stack(bz, bx)
	if err != nil {
		return false
	}
	r := both.Rank()
	return bz.Rank() == r && bx.Rank() == r
}

// derivePlan picks the logical operators and the check qubits of the
// encoder. Logical X is the lowest weight vector that contains the carrier
// (qubit 0), satisfies every bit-flip check and is not a phase-flip
// stabilizer. Check qubits are pivots of the phase-flip rows chosen outside
// logical X from the highest index down.
func derivePlan(n int, bz, bx *gf2.Matrix) (Plan, error) {
	const carrier = 0

	x0, ok := outsideSpan(bz.Nullspace(), bx)
	if !ok {
		return Plan{}, errors.Wrap(ErrConfiguration, "no logical X operator")
	}
	xs := coset(x0, bx.Basis())
	xs = slices.DeleteFunc(xs, func(v gf2.Vector) bool { return !v.Get(carrier) })
	if len(xs) == 0 {
		return Plan{}, errors.Wrap(ErrConfiguration, "no logical X operator acts on the carrier qubit 0")
	}

	z0, ok := outsideSpan(bx.Nullspace(), bz)
	if !ok {
		return Plan{}, errors.Wrap(ErrConfiguration, "no logical Z operator")
	}
	zs := coset(z0, bz.Basis())
	logicalZ := zs[0]

	var lastErr error
	for _, xl := range xs {
		if !xl.Dot(logicalZ) {
			return Plan{}, errors.Wrap(ErrConfiguration, "logical operators commute")
		}
		order := make([]int, 0, n)
		for q := n - 1; q >= 0; q-- {
			if !xl.Get(q) {
				order = append(order, q)
			}
		}
		red, err := bx.Reduce(order)
		if err != nil {
			lastErr = err
			continue
		}

		plan := Plan{
			Carrier:     carrier,
			LogicalX:    xl.Support(),
			LogicalZ:    logicalZ.Support(),
			CheckQubits: red.Pivots,
			Generators:  make([][]int, len(red.Rows)),
		}
		plan.FanOut = slices.DeleteFunc(xl.Support(), func(q int) bool { return q == carrier })
		for i, row := range red.Rows {
			p := red.Pivots[i]
			plan.Generators[i] = slices.DeleteFunc(row.Support(), func(q int) bool { return q == p })
		}
		return plan, nil
	}
	return Plan{}, errors.Wrapf(ErrConfiguration, "no encoding plan: every logical X choice blocks a check qubit: %v", lastErr)
}

// outsideSpan returns the first candidate not in the row space of m.
func outsideSpan(candidates []gf2.Vector, m *gf2.Matrix) (gf2.Vector, bool) {
	for _, v := range candidates {
		if !m.InSpan(v) {
			return v, true
		}
	}
	return gf2.Vector{}, false
}

// coset enumerates v + span(basis), sorted by weight then support. Only the
// first maxCosetBasis basis rows are combined.
func coset(v gf2.Vector, basis []gf2.Vector) []gf2.Vector {
	if len(basis) > maxCosetBasis {
		basis = basis[:maxCosetBasis]
	}
	out := make([]gf2.Vector, 0, 1<<len(basis))
	for mask := range 1 << len(basis) {
		w := v.Clone()
		for i, b := range basis {
			if mask&(1<<i) != 0 {
				w.AddInPlace(b)
			}
		}
		out = append(out, w)
	}
	slices.SortStableFunc(out, func(a, b gf2.Vector) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})
	return out
}
