package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/pathstep/pkg/errors"
)

// MaxWeight is the largest accepted edge weight.
const MaxWeight = 1<<31 - 1

// Edge is a directed, positively weighted connection between two nodes.
type Edge struct {
	From   string `json:"from" bson:"from"`
	To     string `json:"to" bson:"to"`
	Weight int64  `json:"weight" bson:"weight"`
}

// String returns the edge in input grammar form, e.g. "A-B:5".
func (e Edge) String() string {
	return fmt.Sprintf("%s-%s:%d", e.From, e.To, e.Weight)
}

// Neighbor is an outgoing edge target and its weight.
type Neighbor struct {
	To     string
	Weight int64
}

// Graph is a validated weighted directed graph.
// Construct it with [Parse] or [FromEdges]; it is immutable afterwards.
type Graph struct {
	nodes []string
	index map[string]int
	adj   map[string][]Neighbor
	edges int
}

// FromEdges builds a graph from already-tokenized nodes and edges, applying
// the same validation rules as [Parse].
func FromEdges(nodes []string, edges []Edge) (*Graph, error) {
	g, err := newGraph(nodes)
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		name := e.From + "-" + e.To
		if strings.ContainsAny(e.From, "-:") || strings.ContainsAny(e.To, "-:") {
			return nil, errors.Invalid(errors.ErrCodeMalformedEdge, e.String(),
				"invalid edge format: %s. Use format 'A-B:5'", e.String())
		}
		if !g.HasNode(e.From) || !g.HasNode(e.To) {
			return nil, errors.Invalid(errors.ErrCodeUnknownNodeRef, name,
				"edge %s references unknown node", name)
		}
		if e.Weight <= 0 || e.Weight > MaxWeight {
			return nil, errors.Invalid(errors.ErrCodeInvalidWeight, name,
				"invalid weight for edge %s", name)
		}
		g.setEdge(e.From, e.To, e.Weight)
	}
	return g, nil
}

func newGraph(nodes []string) (*Graph, error) {
	if len(nodes) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyNodeList, "please enter at least one node")
	}
	g := &Graph{
		nodes: make([]string, 0, len(nodes)),
		index: make(map[string]int, len(nodes)),
		adj:   make(map[string][]Neighbor, len(nodes)),
	}
	for _, n := range nodes {
		if n == "" || n != strings.TrimSpace(n) || strings.Contains(n, ",") {
			return nil, errors.Invalid(errors.ErrCodeInvalidInput, n, "invalid node id: %q", n)
		}
		if _, dup := g.index[n]; dup {
			return nil, errors.Invalid(errors.ErrCodeDuplicateNode, n,
				"duplicate nodes are not allowed: %s", n)
		}
		g.index[n] = len(g.nodes)
		g.nodes = append(g.nodes, n)
	}
	return g, nil
}

// setEdge records from→to, overwriting the weight in place when the pair exists.
func (g *Graph) setEdge(from, to string, w int64) {
	for i, nb := range g.adj[from] {
		if nb.To == to {
			g.adj[from][i].Weight = w
			return
		}
	}
	g.adj[from] = append(g.adj[from], Neighbor{To: to, Weight: w})
	g.edges++
}

// Nodes returns node ids in insertion order.
func (g *Graph) Nodes() []string {
	return slices.Clone(g.nodes)
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of distinct ordered pairs with an edge.
func (g *Graph) EdgeCount() int { return g.edges }

// HasNode reports whether id is a node of g.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.index[id]
	return ok
}

// IndexOf returns the insertion position of id, or -1.
func (g *Graph) IndexOf(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	return -1
}

// Neighbors returns the outgoing edges of id in adjacency insertion order.
func (g *Graph) Neighbors(id string) []Neighbor {
	return slices.Clone(g.adj[id])
}

// Weight returns the weight of from→to and whether the edge exists.
func (g *Graph) Weight(from, to string) (int64, bool) {
	for _, nb := range g.adj[from] {
		if nb.To == to {
			return nb.Weight, true
		}
	}
	return 0, false
}

// Edges returns all edges, grouped by source in node order and by target in
// adjacency order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges)
	for _, from := range g.nodes {
		for _, nb := range g.adj[from] {
			out = append(out, Edge{From: from, To: nb.To, Weight: nb.Weight})
		}
	}
	return out
}

// Text re-serializes g into the input grammar accepted by [Parse].
func (g *Graph) Text() (nodeText, edgeText string) {
	edges := g.Edges()
	parts := make([]string, len(edges))
	for i, e := range edges {
		parts[i] = e.String()
	}
	return strings.Join(g.nodes, ", "), strings.Join(parts, ", ")
}

// String returns a compact one-line description of g.
func (g *Graph) String() string {
	nodes, edges := g.Text()
	return fmt.Sprintf("nodes=[%s] edges=[%s]", nodes, edges)
}
