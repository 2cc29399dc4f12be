// Package encoder synthesizes the isometry that spreads the logical state of
// a carrier qubit over a block of data qubits, and its inverse.
//
// The circuit has the same two-phase shape for every code: Hadamard on the
// check qubits, a fan-out from the carrier onto the rest of the logical X
// support, then one fan-out per check qubit along its reduced generator.
// Which qubits play which role comes entirely from the code's plan.
package encoder

import (
	"context"
	"slices"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/block"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/circuit"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/ctxlog"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/stabilizer"
)

// Ops returns the encoder of code on the physical qubits data, where data[i]
// holds block-local qubit i.
func Ops(code *stabilizer.Code, data []int) []circuit.Operation {
	p := code.Plan()
	carrier := data[p.Carrier]

	var ops []circuit.Operation
	for _, c := range p.CheckQubits {
		ops = append(ops, circuit.H(data[c]))
	}
	for _, q := range p.FanOut {
		ops = append(ops, circuit.CNOT(carrier, data[q]))
	}
	for i, c := range p.CheckQubits {
		for _, q := range p.Generators[i] {
			ops = append(ops, circuit.CNOT(data[c], data[q]))
		}
	}
	return ops
}

// InverseOps returns the decoder: the encoder reversed. Every gate the
// encoder uses is self-inverse.
func InverseOps(code *stabilizer.Code, data []int) []circuit.Operation {
	ops := Ops(code, data)
	slices.Reverse(ops)
	return ops
}

// Encode appends the encoder for blk and marks it encoded. The logical input
// must already be prepared on the block's carrier.
func Encode(ctx context.Context, bld *circuit.Builder, blk *block.Block) error {
	ops := Ops(blk.Code(), blk.Data())
	if err := bld.AppendAll(ops...); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Encoded block.", "block", blk.Name(), "code", blk.Code().Name(), "ops", len(ops))
	return blk.MarkEncoded()
}

// Decode appends the decoder for blk and marks it decoded, leaving the
// logical state on the carrier.
func Decode(ctx context.Context, bld *circuit.Builder, blk *block.Block) error {
	ops := InverseOps(blk.Code(), blk.Data())
	if err := bld.AppendAll(ops...); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Decoded block.", "block", blk.Name(), "code", blk.Code().Name(), "ops", len(ops))
	return blk.MarkDecoded()
}
