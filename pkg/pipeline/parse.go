package pipeline

import (
	"fmt"

	"github.com/matzehuels/pathstep/pkg/errors"
	"github.com/matzehuels/pathstep/pkg/graph"
	"github.com/matzehuels/pathstep/pkg/trace"
)

// Parse validates the node and edge text of opts and resolves the start node.
func Parse(opts Options) (*graph.Graph, string, error) {
	g, err := graph.Parse(opts.Nodes, opts.Edges)
	if err != nil {
		return nil, "", err
	}
	start, err := ResolveStart(g, opts.Start)
	if err != nil {
		return nil, "", err
	}
	return g, start, nil
}

// ResolveStart returns start when it names a node of g, or the first node
// when start is empty.
func ResolveStart(g *graph.Graph, start string) (string, error) {
	if start == "" {
		return g.Nodes()[0], nil
	}
	if !g.HasNode(start) {
		return "", errors.Invalid(errors.ErrCodeInvalidStartNode, start,
			"start node %q is not in the graph", start)
	}
	return start, nil
}

// ResolveStep maps a requested step index onto tr, translating [LastStep].
func ResolveStep(tr *trace.Trace, step int) (int, error) {
	if step == LastStep {
		return tr.Last(), nil
	}
	if step < 0 || step >= tr.Len() {
		return 0, errors.Invalid(errors.ErrCodeStepOutOfRange, fmt.Sprint(step),
			"step %d out of range (trace has %d steps)", step, tr.Len())
	}
	return step, nil
}
