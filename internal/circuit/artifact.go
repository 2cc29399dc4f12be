package circuit

import (
	"encoding/json"
	"io"

	"fortio.org/safecast"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Artifact is the wire shape of a Circuit handed to execution backends.
type Artifact struct {
	QubitCount        uint32       `json:"qubit_count" msgpack:"qubit_count"`
	ClassicalBitCount uint32       `json:"classical_bit_count" msgpack:"classical_bit_count"`
	Operations        []ArtifactOp `json:"operations" msgpack:"operations"`
}

// ArtifactOp is one operation: qubits are the controls followed by the target.
type ArtifactOp struct {
	Kind         string     `json:"kind" msgpack:"kind"`
	Qubits       []uint32   `json:"qubits" msgpack:"qubits"`
	ClassicalBit *uint32    `json:"classical_bit,omitempty" msgpack:"classical_bit,omitempty"`
	Condition    *Condition `json:"condition,omitempty" msgpack:"condition,omitempty"`
}

// Artifact converts the circuit to its wire shape.
func (c *Circuit) Artifact() (Artifact, error) {
	qc, err := safecast.Conv[uint32](c.qubits)
	if err != nil {
		return Artifact{}, errors.Wrap(err, "qubit count")
	}
	cc, err := safecast.Conv[uint32](c.clbits)
	if err != nil {
		return Artifact{}, errors.Wrap(err, "classical bit count")
	}

	a := Artifact{QubitCount: qc, ClassicalBitCount: cc, Operations: make([]ArtifactOp, len(c.ops))}
	for i, op := range c.ops {
		aop := ArtifactOp{Kind: op.Kind.String(), Qubits: make([]uint32, len(op.Qubits))}
		for j, q := range op.Qubits {
			// Builder validation keeps operands in [0, qubits).
			aop.Qubits[j] = uint32(q)
		}
		if op.Kind == KindMeasure {
			bit := uint32(op.Clbit)
			aop.ClassicalBit = &bit
		}
		if op.Cond != nil {
			cond := *op.Cond
			aop.Condition = &cond
		}
		a.Operations[i] = aop
	}
	return a, nil
}

// FromArtifact rebuilds and revalidates a Circuit.
func FromArtifact(a Artifact) (*Circuit, error) {
	width, err := safecast.Conv[int](a.QubitCount)
	if err != nil {
		return nil, errors.Wrap(err, "qubit count")
	}
	clbits, err := safecast.Conv[int](a.ClassicalBitCount)
	if err != nil {
		return nil, errors.Wrap(err, "classical bit count")
	}

	b := NewBuilder(width, WithClassicalBits(clbits))
	for i, aop := range a.Operations {
		kind, ok := ParseKind(aop.Kind)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidOperand, "operation %d: unknown kind %q", i, aop.Kind)
		}
		op := Operation{Kind: kind, Qubits: make([]int, len(aop.Qubits)), Clbit: -1, Cond: aop.Condition}
		for j, q := range aop.Qubits {
			op.Qubits[j] = int(q)
		}
		if kind == KindMeasure {
			if aop.ClassicalBit == nil {
				return nil, errors.Wrapf(ErrInvalidOperand, "operation %d: measure without classical bit", i)
			}
			op.Clbit = int(*aop.ClassicalBit)
		}
		if err := b.Append(op); err != nil {
			return nil, errors.Wrapf(err, "operation %d", i)
		}
	}

	c := b.Finalize()
	if c.clbits > clbits {
		return nil, errors.Wrapf(ErrInvalidOperand, "classical bit count %d is below referenced width %d", clbits, c.clbits)
	}
	return c, nil
}

// WriteJSON encodes the artifact as indented JSON.
func (c *Circuit) WriteJSON(w io.Writer) error {
	a, err := c.Artifact()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

// ReadJSON decodes and validates a JSON artifact.
func ReadJSON(r io.Reader) (*Circuit, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, errors.Wrap(err, "decode json artifact")
	}
	return FromArtifact(a)
}

// WriteMsgpack encodes the artifact as msgpack.
func (c *Circuit) WriteMsgpack(w io.Writer) error {
	a, err := c.Artifact()
	if err != nil {
		return err
	}
	return msgpack.NewEncoder(w).Encode(&a)
}

// ReadMsgpack decodes and validates a msgpack artifact.
func ReadMsgpack(r io.Reader) (*Circuit, error) {
	var a Artifact
	if err := msgpack.NewDecoder(r).Decode(&a); err != nil {
		return nil, errors.Wrap(err, "decode msgpack artifact")
	}
	return FromArtifact(a)
}
