package block

import (
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/qubit"
	"github.com/pkg/errors"
)

// pool is a fixed set of reusable qubits with a claimed flag per qubit. A
// claimed qubit is dirty until it is reset.
type pool struct {
	handles []qubit.Handle
	claimed []bool
}

func newPool(hs []qubit.Handle) pool {
	return pool{handles: hs, claimed: make([]bool, len(hs))}
}

func (p *pool) claim(m int) ([]qubit.Handle, error) {
	if m > len(p.handles) {
		return nil, errors.Wrapf(qubit.ErrAllocation, "%d requested, pool holds %d", m, len(p.handles))
	}
	for i := range m {
		if p.claimed[i] {
			return nil, errors.Wrapf(ErrAncillaNotReset, "qubit %d", p.handles[i].Index)
		}
	}
	for i := range m {
		p.claimed[i] = true
	}
	return append([]qubit.Handle(nil), p.handles[:m]...), nil
}

func (p *pool) lookup(qs []int) ([]qubit.Handle, error) {
	out := make([]qubit.Handle, 0, len(qs))
	for _, q := range qs {
		i := p.indexOf(q)
		if i < 0 {
			return nil, errors.Wrapf(qubit.ErrAllocation, "qubit %d is not in the pool", q)
		}
		out = append(out, p.handles[i])
	}
	return out, nil
}

func (p *pool) release(hs []qubit.Handle) {
	for _, h := range hs {
		if i := p.indexOf(h.Index); i >= 0 {
			p.claimed[i] = false
		}
	}
}

func (p *pool) indexOf(q int) int {
	for i, h := range p.handles {
		if h.Index == q {
			return i
		}
	}
	return -1
}

func (p *pool) firstClaimed() int {
	for i, c := range p.claimed {
		if c {
			return i
		}
	}
	return -1
}
