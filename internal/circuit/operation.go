package circuit

import (
	"fmt"
	"slices"
	"strings"
)

// Kind identifies an operation.
type Kind uint8

const (
	KindH Kind = iota + 1
	KindX
	KindZ
	KindCNOT
	KindCZ
	KindCCX
	KindMultiCX
	KindMultiCZ
	KindReset
	KindMeasure
)

var kindNames = map[Kind]string{
	KindH:       "H",
	KindX:       "X",
	KindZ:       "Z",
	KindCNOT:    "CNOT",
	KindCZ:      "CZ",
	KindCCX:     "CCX",
	KindMultiCX: "MultiCX",
	KindMultiCZ: "MultiCZ",
	KindReset:   "Reset",
	KindMeasure: "Measure",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// arity returns the allowed operand count range for a kind.
func (k Kind) arity() (lo, hi int) {
	switch k {
	case KindH, KindX, KindZ, KindReset, KindMeasure:
		return 1, 1
	case KindCNOT, KindCZ:
		return 2, 2
	case KindCCX:
		return 3, 3
	case KindMultiCX:
		return 4, -1
	case KindMultiCZ:
		return 3, -1
	default:
		return 0, 0
	}
}

// IsXType reports whether the kind flips its target in the computational basis.
func (k Kind) IsXType() bool {
	return k == KindX || k == KindCNOT || k == KindCCX || k == KindMultiCX
}

// IsZType reports whether the kind applies a phase to its target.
func (k Kind) IsZType() bool {
	return k == KindZ || k == KindCZ || k == KindMultiCZ
}

// Condition gates an operation on the classical register: the operation
// applies only when the bits, read with Bits[0] as the least significant,
// equal Value.
type Condition struct {
	Bits  []int  `json:"bits" msgpack:"bits"`
	Value uint64 `json:"value" msgpack:"value"`
}

// Operation is one gate, reset or measurement. Qubits lists the controls
// followed by the target.
type Operation struct {
	Kind   Kind
	Qubits []int
	// Clbit is the destination of a Measure and -1 otherwise.
	Clbit int
	Cond  *Condition
}

func H(q int) Operation       { return single(KindH, q) }
func X(q int) Operation       { return single(KindX, q) }
func Z(q int) Operation       { return single(KindZ, q) }
func Reset(q int) Operation   { return single(KindReset, q) }
func CNOT(c, t int) Operation { return Operation{Kind: KindCNOT, Qubits: []int{c, t}, Clbit: -1} }
func CZ(c, t int) Operation   { return Operation{Kind: KindCZ, Qubits: []int{c, t}, Clbit: -1} }

// Measure reads q into classical bit bit.
func Measure(q, bit int) Operation {
	return Operation{Kind: KindMeasure, Qubits: []int{q}, Clbit: bit}
}

// MCX is a controlled-X with any number of controls. Zero, one and two
// controls produce X, CNOT and CCX.
func MCX(controls []int, target int) Operation {
	qs := append(slices.Clone(controls), target)
	switch len(controls) {
	case 0:
		return X(target)
	case 1:
		return Operation{Kind: KindCNOT, Qubits: qs, Clbit: -1}
	case 2:
		return Operation{Kind: KindCCX, Qubits: qs, Clbit: -1}
	default:
		return Operation{Kind: KindMultiCX, Qubits: qs, Clbit: -1}
	}
}

// MCZ is a controlled-Z with any number of controls. Zero and one controls
// produce Z and CZ; everything wider is MultiCZ.
func MCZ(controls []int, target int) Operation {
	qs := append(slices.Clone(controls), target)
	switch len(controls) {
	case 0:
		return Z(target)
	case 1:
		return Operation{Kind: KindCZ, Qubits: qs, Clbit: -1}
	default:
		return Operation{Kind: KindMultiCZ, Qubits: qs, Clbit: -1}
	}
}

func single(k Kind, q int) Operation {
	return Operation{Kind: k, Qubits: []int{q}, Clbit: -1}
}

// If returns a copy of op conditioned on the classical register.
func (op Operation) If(bits []int, value uint64) Operation {
	op.Qubits = slices.Clone(op.Qubits)
	op.Cond = &Condition{Bits: slices.Clone(bits), Value: value}
	return op
}

// Controls returns the control qubits, empty for uncontrolled kinds.
func (op Operation) Controls() []int {
	switch op.Kind {
	case KindCNOT, KindCZ, KindCCX, KindMultiCX, KindMultiCZ:
		return op.Qubits[:len(op.Qubits)-1]
	default:
		return nil
	}
}

// Target is the last operand.
func (op Operation) Target() int {
	return op.Qubits[len(op.Qubits)-1]
}

// Equal compares two operations structurally.
func (op Operation) Equal(o Operation) bool {
	if op.Kind != o.Kind || op.Clbit != o.Clbit || !slices.Equal(op.Qubits, o.Qubits) {
		return false
	}
	if (op.Cond == nil) != (o.Cond == nil) {
		return false
	}
	return op.Cond == nil || (op.Cond.Value == o.Cond.Value && slices.Equal(op.Cond.Bits, o.Cond.Bits))
}

func (op Operation) String() string {
	var b strings.Builder
	if op.Cond != nil {
		fmt.Fprintf(&b, "if(c%v==%d) ", op.Cond.Bits, op.Cond.Value)
	}
	b.WriteString(op.Kind.String())
	for i, q := range op.Qubits {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "q%d", q)
	}
	if op.Kind == KindMeasure {
		fmt.Fprintf(&b, " -> c%d", op.Clbit)
	}
	return b.String()
}
