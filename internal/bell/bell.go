// Package bell entangles two encoded logical blocks into a logical Bell pair
// using transversal gates only.
package bell

import (
	"context"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/block"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/circuit"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/ctxlog"
	"github.com/pkg/errors"
)

var (
	// ErrBlockSizeMismatch is returned when the two blocks differ in length.
	ErrBlockSizeMismatch = errors.New("bell: block size mismatch")
	// ErrNotTransversal is returned when the code does not admit transversal
	// Hadamard and CNOT, or the blocks use different codes.
	ErrNotTransversal = errors.New("bell: code is not transversal")
)

// Ops returns a Hadamard on every qubit of a followed by CNOT a[i] -> b[i].
func Ops(a, b []int) ([]circuit.Operation, error) {
	if len(a) != len(b) {
		return nil, errors.Wrapf(ErrBlockSizeMismatch, "%d and %d qubits", len(a), len(b))
	}
	ops := make([]circuit.Operation, 0, 2*len(a))
	for _, q := range a {
		ops = append(ops, circuit.H(q))
	}
	for i := range a {
		ops = append(ops, circuit.CNOT(a[i], b[i]))
	}
	return ops, nil
}

// Compose appends the transversal logical H on a and logical CNOT a -> b.
// Both blocks must be encoded with the same transversal code.
func Compose(ctx context.Context, bld *circuit.Builder, a, b *block.Block) error {
	if a.Code().Len() != b.Code().Len() {
		return errors.Wrapf(ErrBlockSizeMismatch, "%s has %d qubits, %s has %d", a, a.Code().Len(), b, b.Code().Len())
	}
	if a.Code().Name() != b.Code().Name() {
		return errors.Wrapf(ErrNotTransversal, "%s and %s use different codes", a, b)
	}
	if !a.Code().Transversal() {
		return errors.Wrapf(ErrNotTransversal, "code %s", a.Code().Name())
	}
	for _, blk := range []*block.Block{a, b} {
		if blk.State() != block.Encoded {
			return errors.Wrapf(block.ErrLifecycle, "bell pair needs encoded blocks, %s", blk)
		}
	}

	ops, err := Ops(a.Data(), b.Data())
	if err != nil {
		return err
	}
	if err := bld.AppendAll(ops...); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Composed logical Bell pair.", "a", a.Name(), "b", b.Name(), "ops", len(ops))
	return nil
}
