package sim

import (
	"context"
	"math/rand/v2"
	"runtime"
	"sort"
	"strings"
	"sync"

	"fortio.org/safecast"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/circuit"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/ctxlog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Counts maps an observed classical bit string to the number of shots that
// produced it. Classical bit 0 is the rightmost character.
type Counts map[string]int

// Total is the number of shots recorded.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Keys returns the observed bit strings in lexical order.
func (c Counts) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Simulator executes circuits shot by shot.
type Simulator struct {
	// Workers bounds the number of trajectories simulated at once. Zero means
	// GOMAXPROCS.
	Workers int
}

type read struct{ qubit, bit int }

// Run executes c for the given number of shots. When every measurement is
// terminal and every reset is certain, the state is evolved once and the
// outcomes are sampled from it; otherwise each shot is a separate
// trajectory. Results depend only on seed.
func (sim *Simulator) Run(ctx context.Context, c *circuit.Circuit, shots int, seed uint64) (Counts, error) {
	if shots <= 0 {
		return nil, errors.Errorf("sim: shots must be positive, got %d", shots)
	}
	if c.Qubits() > MaxQubits {
		return nil, errors.Wrapf(ErrTooWide, "%d qubits, limit %d", c.Qubits(), MaxQubits)
	}
	logger := ctxlog.FromContext(ctx)

	s, reads, ok := terminal(c)
	if ok {
		logger.Debug("Sampling terminal measurements.", "qubits", c.Qubits(), "shots", shots)
		return sample(s, reads, c.Clbits(), shots, seed), nil
	}
	logger.Debug("Running trajectories.", "qubits", c.Qubits(), "shots", shots)
	return sim.trajectories(ctx, c, shots, seed)
}

// terminal evolves c once, deferring its measurements. It reports false if
// any measurement is followed by an operation other than a reset on the
// same qubit, if any operation is conditioned, or if a reset is uncertain.
func terminal(c *circuit.Circuit) (*State, []read, bool) {
	s, err := NewState(c.Qubits())
	if err != nil {
		return nil, nil, false
	}
	measured := make(map[int]bool)
	var reads []read
	for _, op := range c.Ops() {
		if op.Cond != nil {
			return nil, nil, false
		}
		if op.Kind == circuit.KindReset && measured[op.Target()] {
			continue
		}
		for _, q := range op.Qubits {
			if measured[q] {
				return nil, nil, false
			}
		}
		switch op.Kind {
		case circuit.KindMeasure:
			measured[op.Target()] = true
			reads = append(reads, read{qubit: op.Target(), bit: op.Clbit})
		case circuit.KindReset:
			if !s.resetDeterministic(op.Target()) {
				return nil, nil, false
			}
		default:
			s.Apply(op)
		}
	}
	return s, reads, true
}

func sample(s *State, reads []read, clbits, shots int, seed uint64) Counts {
	qs := make([]int, len(reads))
	for i, r := range reads {
		qs[i] = r.qubit
	}
	probs := s.Probabilities(qs)
	keys := make([]uint64, 0, len(probs))
	total := 0.0
	for k, p := range probs {
		keys = append(keys, k)
		total += p
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	rng := rand.New(rand.NewPCG(seed, 0))
	counts := make(Counts)
	for range shots {
		x := rng.Float64() * total
		pick := keys[len(keys)-1]
		for _, k := range keys {
			if x < probs[k] {
				pick = k
				break
			}
			x -= probs[k]
		}
		reg := make([]int, clbits)
		for i, r := range reads {
			reg[r.bit] = int(pick>>i) & 1
		}
		counts[bitString(reg)]++
	}
	return counts
}

func (sim *Simulator) trajectories(ctx context.Context, c *circuit.Circuit, shots int, seed uint64) (Counts, error) {
	workers := sim.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	ops := c.Ops()
	counts := make(Counts)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for shot := range shots {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			stream, err := safecast.Conv[uint64](shot)
			if err != nil {
				return err
			}
			key, err := trajectory(ops, c.Qubits(), c.Clbits(), rand.New(rand.NewPCG(seed, stream)))
			if err != nil {
				return err
			}
			mu.Lock()
			counts[key]++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

func trajectory(ops []circuit.Operation, qubits, clbits int, rng *rand.Rand) (string, error) {
	s, err := NewState(qubits)
	if err != nil {
		return "", err
	}
	reg := make([]int, clbits)
	for _, op := range ops {
		if op.Cond != nil && !satisfied(op.Cond, reg) {
			continue
		}
		switch op.Kind {
		case circuit.KindMeasure:
			reg[op.Clbit] = s.Measure(op.Target(), rng)
		case circuit.KindReset:
			s.Reset(op.Target(), rng)
		default:
			s.Apply(op)
		}
	}
	return bitString(reg), nil
}

func satisfied(c *circuit.Condition, reg []int) bool {
	for i, b := range c.Bits {
		if uint64(reg[b]) != (c.Value>>i)&1 {
			return false
		}
	}
	return true
}

func bitString(reg []int) string {
	var sb strings.Builder
	for i := len(reg) - 1; i >= 0; i-- {
		sb.WriteByte(byte('0' + reg[i]))
	}
	return sb.String()
}
