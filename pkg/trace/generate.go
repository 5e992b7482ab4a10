package trace

import (
	"fmt"
	"maps"

	"github.com/matzehuels/pathstep/pkg/graph"
)

// Generate runs Dijkstra from start over g and returns the full trace.
//
// start must be a node of g; callers validate it with [graph.Graph.HasNode]
// first. Generate panics on a nil graph or an unknown start node.
func Generate(g *graph.Graph, start string) *Trace {
	if g == nil {
		panic("trace: Generate called with nil graph")
	}
	if !g.HasNode(start) {
		panic(fmt.Sprintf("trace: start node %q not in graph", start))
	}

	r := newRunner(g, start)
	r.init()
	r.loop()
	r.complete()

	return &Trace{Start: start, Nodes: g.Nodes(), Steps: r.steps}
}

// runner holds the mutable working state of one Generate call. Steps copy
// out of it on emit.
type runner struct {
	g         *graph.Graph
	start     string
	nodes     []string
	dist      map[string]Distance
	prev      map[string]string
	unvisited map[string]bool
	steps     []Step
}

func newRunner(g *graph.Graph, start string) *runner {
	nodes := g.Nodes()
	return &runner{
		g:         g,
		start:     start,
		nodes:     nodes,
		dist:      make(map[string]Distance, len(nodes)),
		prev:      make(map[string]string, len(nodes)),
		unvisited: make(map[string]bool, len(nodes)),
		steps:     make([]Step, 0, 2*len(nodes)+g.EdgeCount()*2+2),
	}
}

func (r *runner) init() {
	for _, n := range r.nodes {
		r.dist[n] = Unreachable()
		r.prev[n] = ""
		r.unvisited[n] = true
	}
	r.dist[r.start] = Finite(0)

	r.emit(Step{
		Kind: KindInitialize,
		Explanation: fmt.Sprintf("Initializing Dijkstra's algorithm with start node %s. "+
			"Distance to start is 0, all others are infinity.", r.start),
	})
}

func (r *runner) loop() {
	for len(r.unvisited) > 0 {
		current, ok := r.closest()
		if !ok {
			r.emit(Step{
				Kind:        KindUnreachable,
				Explanation: "Algorithm completed. Some nodes are unreachable from the start node.",
			})
			return
		}

		r.emit(Step{
			Kind:        KindSelectNode,
			CurrentNode: current,
			Explanation: fmt.Sprintf("Selected node %s with current shortest distance %s",
				current, r.dist[current]),
		})
		delete(r.unvisited, current)

		neighbors := r.g.Neighbors(current)
		if len(neighbors) == 0 {
			r.emit(Step{
				Kind:        KindNoNeighbors,
				CurrentNode: current,
				Explanation: fmt.Sprintf("Node %s has no outgoing edges", current),
			})
		}
		for _, nb := range neighbors {
			if !r.unvisited[nb.To] {
				continue
			}
			r.relax(graph.Edge{From: current, To: nb.To, Weight: nb.Weight})
		}
	}
}

// closest returns the first unvisited node, in insertion order, with the
// strictly smallest finite distance.
func (r *runner) closest() (string, bool) {
	best, found := "", false
	for _, n := range r.nodes {
		if !r.unvisited[n] || !r.dist[n].IsFinite() {
			continue
		}
		if !found || r.dist[n].Less(r.dist[best]) {
			best, found = n, true
		}
	}
	return best, found
}

func (r *runner) relax(e graph.Edge) {
	edges := []graph.Edge{e}
	prior := r.dist[e.To]
	candidate := r.dist[e.From].Add(e.Weight)
	rel := &Relaxation{Edge: e, Prior: prior, Candidate: candidate}

	r.emit(Step{
		Kind:            KindCheckNeighbor,
		CurrentNode:     e.From,
		ProcessingEdges: edges,
		Relaxation:      rel,
		Explanation:     fmt.Sprintf("Checking edge %s → %s with weight %d", e.From, e.To, e.Weight),
	})

	if candidate.Less(prior) {
		r.dist[e.To] = candidate
		r.prev[e.To] = e.From
		r.emit(Step{
			Kind:            KindUpdateDistance,
			CurrentNode:     e.From,
			ProcessingEdges: edges,
			Relaxation:      rel,
			Explanation: fmt.Sprintf("Found shorter path to %s: %s → %s via %s",
				e.To, prior, candidate, e.From),
		})
		return
	}

	r.emit(Step{
		Kind:            KindNoUpdate,
		CurrentNode:     e.From,
		ProcessingEdges: edges,
		Relaxation:      rel,
		Explanation: fmt.Sprintf("No update needed for %s: current distance %s is already shorter than new path (%s)",
			e.To, prior, candidate),
	})
}

func (r *runner) complete() {
	s := Step{
		Kind:        KindComplete,
		Explanation: "Algorithm completed. All reachable nodes have been processed.",
	}
	s.Visited = append([]string(nil), r.nodes...)
	r.emit(s)
}

// emit snapshots the working state into s and appends it.
func (r *runner) emit(s Step) {
	if s.Visited == nil {
		s.Visited = r.visited()
	}
	if s.ProcessingEdges == nil {
		s.ProcessingEdges = []graph.Edge{}
	}
	s = s.Clone()
	s.Distances = maps.Clone(r.dist)
	s.Previous = maps.Clone(r.prev)
	r.steps = append(r.steps, s)
}

func (r *runner) visited() []string {
	out := make([]string, 0, len(r.nodes)-len(r.unvisited))
	for _, n := range r.nodes {
		if !r.unvisited[n] {
			out = append(out, n)
		}
	}
	return out
}
