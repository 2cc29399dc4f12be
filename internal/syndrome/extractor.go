// Package syndrome builds the detect and correct half of a QEC cycle: the
// ancilla-mediated parity checks of each group, the corrective gate network
// that consumes the syndrome, and the ancilla resets between them.
package syndrome

import (
	"context"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/circuit"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/ctxlog"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/qubit"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/stabilizer"
	"github.com/pkg/errors"
)

// Validate checks that every row of g has at least one qubit.
func Validate(g stabilizer.Group) error {
	if len(g.Rows) == 0 {
		return errors.Wrapf(stabilizer.ErrInvalidStabilizer, "%s group has no rows", g.Family)
	}
	for j, row := range g.Rows {
		if len(row) == 0 {
			return errors.Wrapf(stabilizer.ErrInvalidStabilizer, "%s row %d is empty", g.Family, j)
		}
	}
	return nil
}

// ExtractOps returns the parity-check fan-in of g. data maps block-local
// qubits to physical ones; ancillas[j] receives the parity of row j and must
// start in |0>.
//
// A bit-flip row is a Z parity, collected by CNOT from each data qubit into
// the ancilla. A phase-flip row is an X parity, collected by phase kickback:
// the ancilla is rotated with H, drives a CNOT into each data qubit, and is
// rotated back.
func ExtractOps(g stabilizer.Group, data, ancillas []int) ([]circuit.Operation, error) {
	if err := Validate(g); err != nil {
		return nil, err
	}
	if len(ancillas) < g.Width() {
		return nil, errors.Wrapf(qubit.ErrAllocation, "%s group needs %d ancillas, got %d", g.Family, g.Width(), len(ancillas))
	}

	var ops []circuit.Operation
	for j, row := range g.Rows {
		anc := ancillas[j]
		switch g.Family {
		case stabilizer.BitFlip:
			for _, q := range row {
				ops = append(ops, circuit.CNOT(data[q], anc))
			}
		case stabilizer.PhaseFlip:
			ops = append(ops, circuit.H(anc))
			for _, q := range row {
				ops = append(ops, circuit.CNOT(anc, data[q]))
			}
			ops = append(ops, circuit.H(anc))
		default:
			return nil, errors.Wrapf(stabilizer.ErrInvalidStabilizer, "unknown family %s", g.Family)
		}
	}
	return ops, nil
}

// Extract appends the fan-in of g. Nothing is appended if g is malformed.
func Extract(ctx context.Context, bld *circuit.Builder, g stabilizer.Group, data, ancillas []int) error {
	ops, err := ExtractOps(g, data, ancillas)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Extracting syndrome.", "family", g.Family, "rows", g.Width(), "ops", len(ops))
	return bld.AppendAll(ops...)
}
