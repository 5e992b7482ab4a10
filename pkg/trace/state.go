package trace

import "github.com/matzehuels/pathstep/pkg/graph"

// NodeState classifies a node for display at one step.
type NodeState int

const (
	NodeUnvisited NodeState = iota
	NodeVisited
	NodeCurrent
)

func (s NodeState) String() string {
	switch s {
	case NodeCurrent:
		return "current"
	case NodeVisited:
		return "visited"
	default:
		return "unvisited"
	}
}

// EdgeState classifies an edge for display at one step.
type EdgeState int

const (
	EdgeIdle EdgeState = iota
	EdgeTree
	EdgeProcessing
)

func (s EdgeState) String() string {
	switch s {
	case EdgeProcessing:
		return "processing"
	case EdgeTree:
		return "tree"
	default:
		return "idle"
	}
}

// NodeStateOf returns how node should be drawn at step s. The current node
// takes precedence over visited.
func NodeStateOf(s Step, node string) NodeState {
	switch {
	case node == s.CurrentNode:
		return NodeCurrent
	case s.IsVisited(node):
		return NodeVisited
	default:
		return NodeUnvisited
	}
}

// EdgeStateOf returns how e should be drawn at step s. An edge under
// examination takes precedence over a shortest-path-tree edge.
func EdgeStateOf(s Step, e graph.Edge) EdgeState {
	for _, p := range s.ProcessingEdges {
		if p.From == e.From && p.To == e.To {
			return EdgeProcessing
		}
	}
	if isTreeEdge(s, e) {
		return EdgeTree
	}
	return EdgeIdle
}
