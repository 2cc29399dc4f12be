package qubit

import (
	"fmt"
	"slices"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
)

// ErrAllocation is returned on pool exhaustion, double release, or release of
// a handle whose reset was never acknowledged.
var ErrAllocation = errors.New("qubit: allocation error")

// Role tags a handle as protected data or as a reusable auxiliary qubit.
type Role uint8

const (
	RoleData Role = iota
	RoleAncilla
)

func (r Role) String() string {
	switch r {
	case RoleData:
		return "data"
	case RoleAncilla:
		return "ancilla"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// Handle is an opaque physical index plus its role.
type Handle struct {
	Index int
	Role  Role
}

func (h Handle) String() string {
	return fmt.Sprintf("%s[%d]", h.Role, h.Index)
}

// Indices flattens handles into their physical indices.
func Indices(hs []Handle) []int {
	out := make([]int, len(hs))
	for i, h := range hs {
		out[i] = h.Index
	}
	return out
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithCapacity bounds the index space. Reservations beyond it fail with
// ErrAllocation. Zero means unbounded.
func WithCapacity(n int) Option {
	return func(a *Allocator) {
		a.capacity = n
	}
}

// Allocator assigns physical indices. All methods are safe for concurrent use.
type Allocator struct {
	mu       sync.Mutex
	next     int
	capacity int

	roles    map[int]Role
	live     mapset.Set[int]
	clean    mapset.Set[int]
	free     []int
	released mapset.Set[int]
}

// NewAllocator creates an empty allocator.
func NewAllocator(opts ...Option) *Allocator {
	a := &Allocator{
		roles:    make(map[int]Role),
		live:     mapset.NewThreadUnsafeSet[int](),
		clean:    mapset.NewThreadUnsafeSet[int](),
		released: mapset.NewThreadUnsafeSet[int](),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Reserve returns n fresh, contiguous data handles and grows the width.
func (a *Allocator) Reserve(n int) ([]Handle, error) {
	if n <= 0 {
		return nil, errors.Wrapf(ErrAllocation, "reserve: count must be positive, got %d", n)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.checkCapacity(n); err != nil {
		return nil, err
	}
	out := make([]Handle, n)
	for i := range out {
		out[i] = a.fresh(RoleData)
	}
	return out, nil
}

// ReserveAncilla returns m ancilla handles. Previously released ancillas are
// reused lowest index first; fresh indices make up the remainder.
func (a *Allocator) ReserveAncilla(m int) ([]Handle, error) {
	if m <= 0 {
		return nil, errors.Wrapf(ErrAllocation, "reserve ancilla: count must be positive, got %d", m)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	reuse := min(m, len(a.free))
	if err := a.checkCapacity(m - reuse); err != nil {
		return nil, err
	}

	out := make([]Handle, 0, m)
	for _, idx := range a.free[:reuse] {
		a.live.Add(idx)
		a.clean.Add(idx)
		a.released.Remove(idx)
		out = append(out, Handle{Index: idx, Role: RoleAncilla})
	}
	a.free = a.free[reuse:]
	for len(out) < m {
		out = append(out, a.fresh(RoleAncilla))
	}
	return out, nil
}

// AcknowledgeReset records that the caller emitted a reset on every handle.
func (a *Allocator) AcknowledgeReset(hs ...Handle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, h := range hs {
		if !a.live.Contains(h.Index) {
			return errors.Wrapf(ErrAllocation, "acknowledge reset: %s is not live", h)
		}
	}
	for _, h := range hs {
		a.clean.Add(h.Index)
	}
	return nil
}

// MarkDirty clears a previous reset acknowledgement, e.g. once an ancilla has
// been written to again.
func (a *Allocator) MarkDirty(hs ...Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, h := range hs {
		a.clean.Remove(h.Index)
	}
}

// Release returns handles to the allocator. Every handle must be live, carry
// the role it was reserved with and have had its reset acknowledged. Released ancillas join the free pool;
// released data indices are retired. The call is all-or-nothing.
func (a *Allocator) Release(hs ...Handle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	seen := mapset.NewThreadUnsafeSet[int]()
	for _, h := range hs {
		switch {
		case a.released.Contains(h.Index), seen.Contains(h.Index):
			return errors.Wrapf(ErrAllocation, "release: %s released twice", h)
		case !a.live.Contains(h.Index):
			return errors.Wrapf(ErrAllocation, "release: %s was never reserved", h)
		case a.roles[h.Index] != h.Role:
			return errors.Wrapf(ErrAllocation, "release: %s was reserved as %s", h, a.roles[h.Index])
		case !a.clean.Contains(h.Index):
			return errors.Wrapf(ErrAllocation, "release: %s has no acknowledged reset", h)
		}
		seen.Add(h.Index)
	}

	for _, h := range hs {
		a.live.Remove(h.Index)
		a.clean.Remove(h.Index)
		a.released.Add(h.Index)
		if a.roles[h.Index] == RoleAncilla {
			a.free = append(a.free, h.Index)
		}
	}
	slices.Sort(a.free)
	return nil
}

// IsLive reports whether index is reserved and not released.
func (a *Allocator) IsLive(index int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.live.Contains(index)
}

// Width is the number of indices ever assigned, i.e. the circuit's qubit count.
func (a *Allocator) Width() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}

// Live returns the number of currently reserved handles.
func (a *Allocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.live.Cardinality()
}

func (a *Allocator) checkCapacity(extra int) error {
	if a.capacity > 0 && a.next+extra > a.capacity {
		return errors.Wrapf(ErrAllocation, "pool exhausted: %d in use, %d requested, capacity %d", a.next, extra, a.capacity)
	}
	return nil
}

// fresh must be called with mu held.
func (a *Allocator) fresh(role Role) Handle {
	idx := a.next
	a.next++
	a.roles[idx] = role
	a.live.Add(idx)
	// A fresh qubit starts in the zero state.
	a.clean.Add(idx)
	return Handle{Index: idx, Role: role}
}
