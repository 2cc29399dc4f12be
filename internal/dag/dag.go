package dag

import (
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

// AddNode adds a node without a task, which completes immediately when run.
// Adding an existing ID does nothing.
func (g *Graph) AddNode(id string) {
	g.AddTask(id, nil)
}

// AddTask adds a node that runs task. Adding an existing ID replaces its
// task and keeps its edges.
func (g *Graph) AddTask(id string, task Task) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if n, ok := g.nodes[id]; ok {
		if task != nil {
			n.task = task
		}
		return
	}
	g.nodes[id] = &node{
		id:     id,
		task:   task,
		after:  mapset.NewThreadUnsafeSet[string](),
		before: mapset.NewThreadUnsafeSet[string](),
	}
	g.order = append(g.order, id)
}

// AddEdge makes `to` wait for `from`. Both nodes must exist.
func (g *Graph) AddEdge(from, to string) error {
	if from == to {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", from, from)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	src, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("source node not found: %s", from)
	}
	dst, ok := g.nodes[to]
	if !ok {
		return fmt.Errorf("destination node not found: %s", to)
	}
	dst.after.Add(from)
	src.before.Add(to)
	return nil
}

// Chain adds edges ids[0] -> ids[1] -> ... -> ids[n-1].
func (g *Graph) Chain(ids ...string) error {
	for i := 1; i < len(ids); i++ {
		if err := g.AddEdge(ids[i-1], ids[i]); err != nil {
			return err
		}
	}
	return nil
}

// Len is the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
}

func (g *Graph) edges(id string, pick func(*node) mapset.Set[string]) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	out := pick(n).ToSlice()
	slices.Sort(out)
	return out, nil
}

// Dependencies returns the sorted IDs the node waits for.
func (g *Graph) Dependencies(id string) ([]string, error) {
	return g.edges(id, func(n *node) mapset.Set[string] { return n.after })
}

// Dependents returns the sorted IDs waiting for the node.
func (g *Graph) Dependents(id string) ([]string, error) {
	return g.edges(id, func(n *node) mapset.Set[string] { return n.before })
}

// State reports the execution state of a node after the last Run.
func (g *Graph) State(id string) (State, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return Pending, fmt.Errorf("node not found: %s", id)
	}
	return State(n.state.Load()), nil
}

// DetectCycles returns an error naming a node on the first cycle found,
// searching from nodes in insertion order.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Three colours: absent is unvisited, open is on the DFS stack, closed
	// is finished.
	const open, closed = 1, 2
	colour := make(map[string]int, len(g.nodes))

	var visit func(id string) error
	visit = func(id string) error {
		switch colour[id] {
		case closed:
			return nil
		case open:
			return fmt.Errorf("cycle detected involving node '%s'", id)
		}
		colour[id] = open
		next := g.nodes[id].before.ToSlice()
		slices.Sort(next)
		for _, d := range next {
			if err := visit(d); err != nil {
				return err
			}
		}
		colour[id] = closed
		return nil
	}

	for _, id := range g.order {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}
