package circuit

import (
	"slices"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidOperand is returned for out-of-range, released, duplicated or
	// miscounted operands.
	ErrInvalidOperand = errors.New("circuit: invalid operand")
	// ErrFinalized is returned when appending to a finalized builder.
	ErrFinalized = errors.New("circuit: builder already finalized")
)

// QubitGuard reports which physical indices currently exist and are live.
// *qubit.Allocator satisfies it.
type QubitGuard interface {
	IsLive(index int) bool
	Width() int
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithGuard validates every operand against guard instead of a fixed width.
func WithGuard(g QubitGuard) BuilderOption {
	return func(b *Builder) {
		b.guard = g
	}
}

// WithClassicalBits declares a minimum classical register width.
func WithClassicalBits(n int) BuilderOption {
	return func(b *Builder) {
		b.clbits = max(b.clbits, n)
	}
}

// Builder accumulates operations. It is a single-writer object; independent
// fragments are built on separate Builders and joined with Extend.
type Builder struct {
	width     int
	clbits    int
	guard     QubitGuard
	ops       []Operation
	finalized bool
}

// NewBuilder returns a builder for a register of width qubits. With a guard,
// the guard's width takes precedence when it is larger.
func NewBuilder(width int, opts ...BuilderOption) *Builder {
	b := &Builder{width: width}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Append validates op and appends it.
func (b *Builder) Append(op Operation) error {
	if b.finalized {
		return ErrFinalized
	}
	if err := b.validate(op, true); err != nil {
		return err
	}
	b.ops = append(b.ops, cloneOp(op))
	if op.Kind == KindMeasure {
		b.clbits = max(b.clbits, op.Clbit+1)
	}
	if op.Cond != nil {
		for _, bit := range op.Cond.Bits {
			b.clbits = max(b.clbits, bit+1)
		}
	}
	return nil
}

// AppendAll appends ops in order, stopping at the first error.
func (b *Builder) AppendAll(ops ...Operation) error {
	for _, op := range ops {
		if err := b.Append(op); err != nil {
			return err
		}
	}
	return nil
}

// Extend appends every operation of a finalized fragment. Operands are
// range-checked but not liveness-checked: the fragment was validated when it
// was built, and its qubits may have been released since.
func (b *Builder) Extend(fragment *Circuit) error {
	if b.finalized {
		return ErrFinalized
	}
	for i, op := range fragment.ops {
		if err := b.validate(op, false); err != nil {
			return errors.Wrapf(err, "fragment operation %d", i)
		}
	}
	b.ops = append(b.ops, fragment.Ops()...)
	b.clbits = max(b.clbits, fragment.clbits)
	return nil
}

// Len is the number of operations appended so far.
func (b *Builder) Len() int { return len(b.ops) }

// Finalize freezes the builder and returns the Circuit. Further appends fail.
func (b *Builder) Finalize() *Circuit {
	b.finalized = true
	return &Circuit{
		qubits: b.currentWidth(),
		clbits: b.clbits,
		ops:    slices.Clone(b.ops),
	}
}

func (b *Builder) currentWidth() int {
	if b.guard != nil {
		return max(b.width, b.guard.Width())
	}
	return b.width
}

func (b *Builder) validate(op Operation, live bool) error {
	lo, hi := op.Kind.arity()
	if lo == 0 {
		return errors.Wrapf(ErrInvalidOperand, "unknown operation kind %s", op.Kind)
	}
	n := len(op.Qubits)
	if n < lo || (hi > 0 && n > hi) {
		return errors.Wrapf(ErrInvalidOperand, "%s takes %d..%d qubits, got %d", op.Kind, lo, hi, n)
	}

	width := b.currentWidth()
	for i, q := range op.Qubits {
		if q < 0 || q >= width {
			return errors.Wrapf(ErrInvalidOperand, "%s: qubit %d out of range [0,%d)", op.Kind, q, width)
		}
		if slices.Contains(op.Qubits[:i], q) {
			return errors.Wrapf(ErrInvalidOperand, "%s: qubit %d used twice", op.Kind, q)
		}
		if live && b.guard != nil && !b.guard.IsLive(q) {
			return errors.Wrapf(ErrInvalidOperand, "%s: qubit %d is not live", op.Kind, q)
		}
	}

	if op.Kind == KindMeasure && op.Clbit < 0 {
		return errors.Wrapf(ErrInvalidOperand, "measure q%d: negative classical bit %d", op.Qubits[0], op.Clbit)
	}
	if op.Cond != nil {
		if len(op.Cond.Bits) == 0 || len(op.Cond.Bits) > 64 {
			return errors.Wrapf(ErrInvalidOperand, "%s: condition needs 1..64 bits, got %d", op.Kind, len(op.Cond.Bits))
		}
		for _, bit := range op.Cond.Bits {
			if bit < 0 {
				return errors.Wrapf(ErrInvalidOperand, "%s: negative condition bit %d", op.Kind, bit)
			}
		}
	}
	return nil
}

func cloneOp(op Operation) Operation {
	op.Qubits = slices.Clone(op.Qubits)
	if op.Cond != nil {
		c := *op.Cond
		c.Bits = slices.Clone(c.Bits)
		op.Cond = &c
	}
	return op
}
