package circuit

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// ErrQASMUnsupported is returned when an operation has no OpenQASM 2.0
// rendering in qelib1.inc.
var ErrQASMUnsupported = errors.New("circuit: operation not expressible in OpenQASM 2.0")

// qelib1.inc provides multi-controlled X up to four controls.
var qasmMCX = map[int]string{1: "cx", 2: "ccx", 3: "c3x", 4: "c4x"}

// WriteQASM renders the circuit as OpenQASM 2.0 with a single qreg q and
// creg c. Conditions are only supported when they cover the whole creg in
// order, which is all the 2.0 `if` statement can express.
func (c *Circuit) WriteQASM(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "OPENQASM 2.0;")
	fmt.Fprintln(bw, `include "qelib1.inc";`)
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "qreg q[%d];\n", c.qubits)
	if c.clbits > 0 {
		fmt.Fprintf(bw, "creg c[%d];\n", c.clbits)
	}
	fmt.Fprintln(bw)

	for i, op := range c.ops {
		lines, err := c.qasmLines(op)
		if err != nil {
			return errors.Wrapf(err, "operation %d (%s)", i, op)
		}
		for _, l := range lines {
			fmt.Fprintln(bw, l)
		}
	}
	return bw.Flush()
}

func (c *Circuit) qasmLines(op Operation) ([]string, error) {
	prefix := ""
	if op.Cond != nil {
		if !c.wholeRegister(op.Cond.Bits) {
			return nil, errors.Wrapf(ErrQASMUnsupported, "condition on bits %v does not cover creg c[%d]", op.Cond.Bits, c.clbits)
		}
		prefix = fmt.Sprintf("if(c==%d) ", op.Cond.Value)
	}

	args := make([]string, len(op.Qubits))
	for i, q := range op.Qubits {
		args[i] = fmt.Sprintf("q[%d]", q)
	}
	operands := strings.Join(args, ",")
	target := args[len(args)-1]

	switch op.Kind {
	case KindH:
		return []string{prefix + "h " + operands + ";"}, nil
	case KindX:
		return []string{prefix + "x " + operands + ";"}, nil
	case KindZ:
		return []string{prefix + "z " + operands + ";"}, nil
	case KindCZ:
		return []string{prefix + "cz " + operands + ";"}, nil
	case KindReset:
		if prefix != "" {
			return nil, errors.Wrap(ErrQASMUnsupported, "conditional reset")
		}
		return []string{"reset " + operands + ";"}, nil
	case KindMeasure:
		if prefix != "" {
			return nil, errors.Wrap(ErrQASMUnsupported, "conditional measure")
		}
		return []string{fmt.Sprintf("measure %s -> c[%d];", operands, op.Clbit)}, nil
	case KindCNOT, KindCCX, KindMultiCX:
		name, ok := qasmMCX[len(op.Controls())]
		if !ok {
			return nil, errors.Wrapf(ErrQASMUnsupported, "%d-controlled X", len(op.Controls()))
		}
		return []string{prefix + name + " " + operands + ";"}, nil
	case KindMultiCZ:
		name, ok := qasmMCX[len(op.Controls())]
		if !ok {
			return nil, errors.Wrapf(ErrQASMUnsupported, "%d-controlled Z", len(op.Controls()))
		}
		// CZ^k = H(t) C^kX H(t)
		return []string{
			prefix + "h " + target + ";",
			prefix + name + " " + operands + ";",
			prefix + "h " + target + ";",
		}, nil
	default:
		return nil, errors.Wrapf(ErrQASMUnsupported, "kind %s", op.Kind)
	}
}

func (c *Circuit) wholeRegister(bits []int) bool {
	if len(bits) != c.clbits {
		return false
	}
	for i, b := range bits {
		if b != i {
			return false
		}
	}
	return true
}
