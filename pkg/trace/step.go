package trace

import (
	"maps"
	"slices"

	"github.com/matzehuels/pathstep/pkg/graph"
)

// Kind identifies the event a Step records.
type Kind string

const (
	KindInitialize     Kind = "INITIALIZE"
	KindSelectNode     Kind = "SELECT_NODE"
	KindUnreachable    Kind = "UNREACHABLE"
	KindNoNeighbors    Kind = "NO_NEIGHBORS"
	KindCheckNeighbor  Kind = "CHECK_NEIGHBOR"
	KindUpdateDistance Kind = "UPDATE_DISTANCE"
	KindNoUpdate       Kind = "NO_UPDATE"
	KindComplete       Kind = "COMPLETE"
)

// Kinds lists every step kind in the order they can first appear.
var Kinds = []Kind{
	KindInitialize, KindSelectNode, KindUnreachable, KindNoNeighbors,
	KindCheckNeighbor, KindUpdateDistance, KindNoUpdate, KindComplete,
}

// Relaxation describes one edge relaxation attempt.
type Relaxation struct {
	Edge      graph.Edge `json:"edge"`
	Prior     Distance   `json:"prior"`
	Candidate Distance   `json:"candidate"`
}

// Improved reports whether the candidate is strictly shorter than the prior.
func (r Relaxation) Improved() bool { return r.Candidate.Less(r.Prior) }

// Step is a snapshot of the algorithm state at one event.
type Step struct {
	Kind Kind `json:"kind"`
	// CurrentNode is empty for INITIALIZE, UNREACHABLE and COMPLETE.
	CurrentNode string `json:"current_node,omitempty"`
	// Visited holds the finalized nodes in node-insertion order.
	Visited []string `json:"visited"`
	// ProcessingEdges holds at most one edge, the one under examination.
	ProcessingEdges []graph.Edge        `json:"processing_edges"`
	Distances       map[string]Distance `json:"distances"`
	// Previous maps each node to its predecessor on the best known path,
	// or to "" when it has none.
	Previous    map[string]string `json:"previous"`
	Relaxation  *Relaxation       `json:"relaxation,omitempty"`
	Explanation string            `json:"explanation"`
}

// Clone returns a deep copy of s.
func (s Step) Clone() Step {
	c := s
	c.Visited = slices.Clone(s.Visited)
	c.ProcessingEdges = slices.Clone(s.ProcessingEdges)
	c.Distances = maps.Clone(s.Distances)
	c.Previous = maps.Clone(s.Previous)
	if s.Relaxation != nil {
		r := *s.Relaxation
		c.Relaxation = &r
	}
	return c
}

// IsVisited reports whether node was finalized before this step.
func (s Step) IsVisited(node string) bool {
	return slices.Contains(s.Visited, node)
}

// Distance returns the recorded distance of node.
func (s Step) Distance(node string) Distance {
	return s.Distances[node]
}

// Trace is the full step sequence for one (graph, start) pair.
type Trace struct {
	Start string   `json:"start"`
	Nodes []string `json:"nodes"`
	Steps []Step   `json:"steps"`
}

// Len returns the number of steps.
func (t *Trace) Len() int { return len(t.Steps) }

// At returns the step at index i and whether i is in range.
func (t *Trace) At(i int) (Step, bool) {
	if i < 0 || i >= len(t.Steps) {
		return Step{}, false
	}
	return t.Steps[i], true
}

// Last returns the index of the final step.
func (t *Trace) Last() int { return len(t.Steps) - 1 }

// Final returns the terminal COMPLETE step.
func (t *Trace) Final() Step {
	if len(t.Steps) == 0 {
		return Step{}
	}
	return t.Steps[len(t.Steps)-1]
}

// Unreachable returns the nodes whose final distance is unreachable, in
// node-insertion order.
func (t *Trace) Unreachable() []string {
	final := t.Final()
	var out []string
	for _, n := range t.Nodes {
		if !final.Distances[n].IsFinite() {
			out = append(out, n)
		}
	}
	return out
}

// Count returns how many steps of kind k the trace contains.
func (t *Trace) Count(k Kind) int {
	n := 0
	for _, s := range t.Steps {
		if s.Kind == k {
			n++
		}
	}
	return n
}
