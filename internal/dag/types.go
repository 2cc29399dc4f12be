package dag

import (
	"context"
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
)

// Task is the unit of work attached to a node.
type Task func(ctx context.Context) error

// State is the execution state of a node.
type State int32

const (
	Pending State = iota
	Running
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Graph holds named tasks and the ordering constraints between them.
// Building the graph is concurrency-safe; it must not change during Run.
type Graph struct {
	mutex sync.RWMutex
	nodes map[string]*node
	// order is insertion order, used wherever iteration must be reproducible.
	order []string
}

type node struct {
	id   string
	task Task
	// after and before hold the IDs this node waits for and the IDs
	// waiting for it.
	after  mapset.Set[string]
	before mapset.Set[string]

	// Run-time state, reset by every Run.
	next     []*node
	pending  atomic.Int32
	state    atomic.Int32
	err      error
	skipOnce sync.Once
}
