// Package random produces small random graphs as input text.
//
// The output is plain node and edge text in the grammar accepted by
// [graph.Parse], so callers treat it exactly like user input. With a fixed
// seed the output is reproducible.
package random

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/matzehuels/pathstep/pkg/graph"
)

// Options bounds the generated graph. Zero fields take the defaults.
type Options struct {
	MinNodes     int // default 5
	MaxNodes     int // default 7, at most 26
	MinOutDegree int // default 1
	MaxOutDegree int // default 3
	MaxWeight    int // default 10
}

var defaultOpts = Options{
	MinNodes:     5,
	MaxNodes:     7,
	MinOutDegree: 1,
	MaxOutDegree: 3,
	MaxWeight:    10,
}

func (o Options) withDefaults() Options {
	if o.MinNodes <= 0 {
		o.MinNodes = defaultOpts.MinNodes
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = defaultOpts.MaxNodes
	}
	o.MaxNodes = min(max(o.MaxNodes, o.MinNodes), 26)
	o.MinNodes = min(o.MinNodes, o.MaxNodes)
	if o.MinOutDegree <= 0 {
		o.MinOutDegree = defaultOpts.MinOutDegree
	}
	if o.MaxOutDegree <= 0 {
		o.MaxOutDegree = defaultOpts.MaxOutDegree
	}
	o.MaxOutDegree = max(o.MaxOutDegree, o.MinOutDegree)
	if o.MaxWeight <= 0 {
		o.MaxWeight = defaultOpts.MaxWeight
	}
	return o
}

// Text returns node and edge text for a random graph: nodes named A, B, …,
// each with distinct outgoing targets and no self-loops.
func Text(seed uint64, opts *Options) (nodeText, edgeText string) {
	o := defaultOpts
	if opts != nil {
		o = opts.withDefaults()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))

	n := o.MinNodes + rng.IntN(o.MaxNodes-o.MinNodes+1)
	nodes := make([]string, n)
	for i := range nodes {
		nodes[i] = string(rune('A' + i))
	}

	var edges []string
	for i, from := range nodes {
		targets := make([]string, 0, n-1)
		targets = append(targets, nodes[:i]...)
		targets = append(targets, nodes[i+1:]...)

		count := min(o.MinOutDegree+rng.IntN(o.MaxOutDegree-o.MinOutDegree+1), len(targets))
		for range count {
			j := rng.IntN(len(targets))
			to := targets[j]
			targets = append(targets[:j], targets[j+1:]...)
			w := 1 + rng.IntN(o.MaxWeight)
			edges = append(edges, from+"-"+to+":"+strconv.Itoa(w))
		}
	}
	return strings.Join(nodes, ", "), strings.Join(edges, ", ")
}

// Graph parses the output of Text.
func Graph(seed uint64, opts *Options) (*graph.Graph, error) {
	return graph.Parse(Text(seed, opts))
}
