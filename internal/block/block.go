// Package block tracks one logical qubit: the physical data qubits holding
// it, the private ancilla pool used for its syndrome rounds, optional
// scratch qubits for decomposed corrections, and its lifecycle state.
//
// A Block is owned by one synthesis stage at a time and is not safe for
// concurrent use.
package block

import (
	"fmt"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/circuit"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/qubit"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/stabilizer"
	"github.com/pkg/errors"
)

var (
	// ErrLifecycle is returned for a transition the current state forbids.
	ErrLifecycle = errors.New("block: illegal lifecycle transition")
	// ErrAncillaNotReset is returned when an ancilla or scratch qubit is
	// claimed again without an intervening reset.
	ErrAncillaNotReset = errors.New("block: ancilla reused without reset")
)

// State is the lifecycle position of a block.
type State uint8

const (
	Unencoded State = iota
	Encoded
	InRound
	Decoded
	Measured
	Released
)

func (s State) String() string {
	switch s {
	case Unencoded:
		return "unencoded"
	case Encoded:
		return "encoded"
	case InRound:
		return "in_round"
	case Decoded:
		return "decoded"
	case Measured:
		return "measured"
	case Released:
		return "released"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Option configures a Block.
type Option func(*options)

type options struct {
	scratch int
	clbits  []int
}

// WithScratch reserves n scratch qubits next to the ancilla pool.
func WithScratch(n int) Option {
	return func(o *options) { o.scratch = n }
}

// WithClbits assigns classical bits the block may measure its ancillas into.
func WithClbits(bits []int) Option {
	return func(o *options) { o.clbits = append([]int(nil), bits...) }
}

// Block is a logical qubit laid out on reserved physical qubits.
type Block struct {
	name  string
	code  *stabilizer.Code
	alloc *qubit.Allocator

	data     []qubit.Handle
	ancillas pool
	scratch  pool
	clbits   []int

	state  State
	rounds int
}

// New reserves the data qubits, then the ancilla pool, then the scratch
// qubits of a block. Reservation order fixes the physical layout, so callers
// that need a reproducible layout must create blocks serially.
func New(name string, code *stabilizer.Code, alloc *qubit.Allocator, opts ...Option) (*Block, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	data, err := alloc.Reserve(code.Len())
	if err != nil {
		return nil, errors.Wrapf(err, "block %s: data qubits", name)
	}
	b := &Block{name: name, code: code, alloc: alloc, data: data, clbits: o.clbits}

	if w := code.AncillaWidth(); w > 0 {
		anc, err := alloc.ReserveAncilla(w)
		if err != nil {
			return nil, errors.Wrapf(err, "block %s: ancilla pool", name)
		}
		b.ancillas = newPool(anc)
	}
	if o.scratch > 0 {
		s, err := alloc.ReserveAncilla(o.scratch)
		if err != nil {
			return nil, errors.Wrapf(err, "block %s: scratch qubits", name)
		}
		b.scratch = newPool(s)
	}
	return b, nil
}

func (b *Block) Name() string { return b.name }
func (b *Block) Code() *stabilizer.Code { return b.code }
func (b *Block) State() State { return b.state }
func (b *Block) Rounds() int { return b.rounds }
func (b *Block) Clbits() []int { return append([]int(nil), b.clbits...) }
func (b *Block) Carrier() int { return b.data[b.code.Plan().Carrier].Index }
func (b *Block) Data() []int { return qubit.Indices(b.data) }
func (b *Block) Ancillas() []int { return qubit.Indices(b.ancillas.handles) }
func (b *Block) ScratchQubits() []int { return qubit.Indices(b.scratch.handles) }
func (b *Block) String() string { return fmt.Sprintf("%s(%s, %s)", b.name, b.code.Name(), b.state) }

func (b *Block) transition(from, to State) error {
	if b.state != from {
		return errors.Wrapf(ErrLifecycle, "block %s: %s -> %s requires %s", b.name, b.state, to, from)
	}
	b.state = to
	return nil
}

// Qubit maps a block-local data position to its physical index.
func (b *Block) Qubit(local int) int { return b.data[local].Index }

// Physical maps block-local positions to physical indices.
func (b *Block) Physical(local []int) []int {
	out := make([]int, len(local))
	for i, q := range local {
		out[i] = b.data[q].Index
	}
	return out
}

// MarkEncoded records that the encoder ran.
func (b *Block) MarkEncoded() error { return b.transition(Unencoded, Encoded) }

// BeginRound opens a syndrome round.
func (b *Block) BeginRound() error { return b.transition(Encoded, InRound) }

// EndRound closes a syndrome round. Every ancilla and scratch qubit must be
// back in the pool.
func (b *Block) EndRound() error {
	if b.state != InRound {
		return errors.Wrapf(ErrLifecycle, "block %s: end round while %s", b.name, b.state)
	}
	if i := b.ancillas.firstClaimed(); i >= 0 {
		return errors.Wrapf(ErrAncillaNotReset, "block %s: ancilla %d still claimed at end of round", b.name, b.ancillas.handles[i].Index)
	}
	if i := b.scratch.firstClaimed(); i >= 0 {
		return errors.Wrapf(ErrAncillaNotReset, "block %s: scratch %d still claimed at end of round", b.name, b.scratch.handles[i].Index)
	}
	b.state = Encoded
	b.rounds++
	return nil
}

// MarkDecoded records that the decoder ran.
func (b *Block) MarkDecoded() error { return b.transition(Encoded, Decoded) }

// MarkMeasured records that the carrier was measured.
func (b *Block) MarkMeasured() error { return b.transition(Decoded, Measured) }

// ClaimAncillas hands out the first m pool ancillas. They must all have been
// reset since their last use. The block must be in a round.
func (b *Block) ClaimAncillas(m int) ([]int, error) {
	if b.state != InRound {
		return nil, errors.Wrapf(ErrLifecycle, "block %s: claim ancillas while %s", b.name, b.state)
	}
	hs, err := b.ancillas.claim(m)
	if err != nil {
		return nil, errors.Wrapf(err, "block %s: ancillas", b.name)
	}
	b.alloc.MarkDirty(hs...)
	return qubit.Indices(hs), nil
}

// ClaimScratch hands out the first n scratch qubits under the same rules.
func (b *Block) ClaimScratch(n int) ([]int, error) {
	if b.state != InRound {
		return nil, errors.Wrapf(ErrLifecycle, "block %s: claim scratch while %s", b.name, b.state)
	}
	hs, err := b.scratch.claim(n)
	if err != nil {
		return nil, errors.Wrapf(err, "block %s: scratch", b.name)
	}
	b.alloc.MarkDirty(hs...)
	return qubit.Indices(hs), nil
}

// ResetAncillas emits a Reset on each claimed ancilla and returns them to the
// pool.
func (b *Block) ResetAncillas(bld *circuit.Builder, qs []int) error {
	return b.reset(bld, &b.ancillas, qs)
}

// ResetScratch emits a Reset on each claimed scratch qubit and returns them
// to the pool.
func (b *Block) ResetScratch(bld *circuit.Builder, qs []int) error {
	return b.reset(bld, &b.scratch, qs)
}

func (b *Block) reset(bld *circuit.Builder, p *pool, qs []int) error {
	hs, err := p.lookup(qs)
	if err != nil {
		return errors.Wrapf(err, "block %s", b.name)
	}
	for _, h := range hs {
		if err := bld.Append(circuit.Reset(h.Index)); err != nil {
			return err
		}
	}
	if err := b.alloc.AcknowledgeReset(hs...); err != nil {
		return err
	}
	p.release(hs)
	return nil
}

// Release resets the measured data qubits and returns every qubit of the
// block to the allocator.
func (b *Block) Release(bld *circuit.Builder) error {
	if b.state != Measured {
		return errors.Wrapf(ErrLifecycle, "block %s: release while %s", b.name, b.state)
	}
	for _, h := range b.data {
		if err := bld.Append(circuit.Reset(h.Index)); err != nil {
			return err
		}
	}
	if err := b.alloc.AcknowledgeReset(b.data...); err != nil {
		return err
	}

	all := append(append(append([]qubit.Handle(nil), b.data...), b.ancillas.handles...), b.scratch.handles...)
	if err := b.alloc.Release(all...); err != nil {
		return errors.Wrapf(err, "block %s", b.name)
	}
	b.state = Released
	return nil
}
