package trace

import (
	"slices"

	"github.com/matzehuels/pathstep/pkg/graph"
)

// PathTo follows previous pointers from node back to the source and returns
// the path in travel order. It returns nil when node has no finite distance
// in s or the pointer chain is broken.
func (s Step) PathTo(node string) []string {
	if !s.Distances[node].IsFinite() {
		return nil
	}
	path := []string{node}
	for cur := node; s.Previous[cur] != ""; {
		cur = s.Previous[cur]
		if len(path) > len(s.Previous) {
			return nil
		}
		path = append(path, cur)
	}
	slices.Reverse(path)
	return path
}

// PathTo returns the shortest path from the start node to node using the
// final distances, or nil when node is unreachable.
func (t *Trace) PathTo(node string) []string {
	path := t.Final().PathTo(node)
	if len(path) == 0 || path[0] != t.Start {
		return nil
	}
	return path
}

// ShortestPathTree returns the edges of g that are part of the shortest-path
// tree recorded in s: both endpoints visited and previous[to] == from.
// Edges are returned in g's edge order.
func ShortestPathTree(g *graph.Graph, s Step) []graph.Edge {
	var out []graph.Edge
	for _, e := range g.Edges() {
		if isTreeEdge(s, e) {
			out = append(out, e)
		}
	}
	return out
}

func isTreeEdge(s Step, e graph.Edge) bool {
	return s.Previous[e.To] == e.From && s.IsVisited(e.From) && s.IsVisited(e.To)
}
