package dag

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/ctxlog"
)

// ErrSkipped marks nodes that never ran because a dependency failed.
var ErrSkipped = errors.New("skipped")

// Executor runs the tasks of a Graph on a fixed pool of workers, starting a
// node as soon as all of its dependencies are done.
type Executor struct {
	graph      *Graph
	numWorkers int
	wg         sync.WaitGroup
}

// NewExecutor returns an executor for g. A non-positive worker count uses
// GOMAXPROCS.
func NewExecutor(g *Graph, workers int) *Executor {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Executor{graph: g, numWorkers: workers}
}

// Run executes the entire graph concurrently and returns an error if any node fails.
// It respects the cancellation signal from the provided context. The graph
// must not be modified while Run is in progress.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	if err := e.graph.DetectCycles(); err != nil {
		return err
	}

	e.graph.mutex.RLock()
	nodes := make([]*node, 0, len(e.graph.order))
	for _, id := range e.graph.order {
		nodes = append(nodes, e.graph.nodes[id])
	}
	e.graph.mutex.RUnlock()

	if len(nodes) == 0 {
		return nil
	}

	for _, n := range nodes {
		ids := n.before.ToSlice()
		slices.Sort(ids)
		n.next = n.next[:0]
		for _, id := range ids {
			n.next = append(n.next, e.graph.nodes[id])
		}
		n.pending.Store(int32(n.after.Cardinality()))
		n.state.Store(int32(Pending))
		n.err = nil
		n.skipOnce = sync.Once{}
	}

	readyChan := make(chan *node, len(nodes))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rootNodeCount := 0
	for _, n := range nodes {
		if n.pending.Load() == 0 {
			readyChan <- n
			rootNodeCount++
		}
	}
	logger.Debug("Found all root nodes.", "count", rootNodeCount)

	e.wg.Add(len(nodes))

	var workers sync.WaitGroup
	for i := 0; i < e.numWorkers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			e.worker(runCtx, readyChan, cancel, i)
		}()
	}

	e.wg.Wait()
	close(readyChan)
	workers.Wait()

	var failedNodes []string
	var rootCauseError error
	for _, n := range nodes {
		if State(n.state.Load()) != Failed {
			continue
		}
		// A skip is a symptom, not a cause.
		if n.err != nil && !errors.Is(n.err, ErrSkipped) && !errors.Is(n.err, context.Canceled) {
			failedNodes = append(failedNodes, n.id)
			if rootCauseError == nil {
				rootCauseError = n.err
			}
		}
	}

	if rootCauseError != nil {
		return fmt.Errorf("execution failed for %s: %w", strings.Join(failedNodes, ", "), rootCauseError)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// skipDependents recursively marks all downstream nodes as failed and decrements the WaitGroup.
func (e *Executor) skipDependents(ctx context.Context, n *node) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range n.next {
		dependent.skipOnce.Do(func() {
			logger.Debug("Skipping dependent node due to upstream failure.", "nodeID", dependent.id, "dependency", n.id)
			dependent.state.Store(int32(Failed))
			dependent.err = fmt.Errorf("%w due to upstream failure of '%s'", ErrSkipped, n.id)
			e.wg.Done()
			e.skipDependents(ctx, dependent)
		})
	}
}

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *node, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)

	for n := range readyChan {
		workerLogger := logger.With("workerID", workerID, "nodeID", n.id)

		if ctx.Err() != nil {
			n.skipOnce.Do(func() {
				n.state.Store(int32(Failed))
				n.err = ctx.Err()
				e.wg.Done()
				e.skipDependents(ctx, n)
			})
			continue
		}

		n.state.Store(int32(Running))
		var err error
		if n.task != nil {
			err = n.task(ctx)
		}

		if err != nil {
			workerLogger.Debug("Node execution failed.", "error", err)
			n.skipOnce.Do(func() {
				n.state.Store(int32(Failed))
				n.err = err
				cancel()
				e.skipDependents(ctx, n)
				e.wg.Done()
			})
			continue
		}

		n.state.Store(int32(Done))
		for _, dependent := range n.next {
			if dependent.pending.Add(-1) == 0 {
				readyChan <- dependent
			}
		}
		e.wg.Done()
	}
}
