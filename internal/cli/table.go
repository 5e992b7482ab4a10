package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/pathstep/pkg/graph"
	"github.com/matzehuels/pathstep/pkg/trace"
)

// fmtDistances renders the distances of s in node order, e.g. "A=0 B=4 C=∞".
func fmtDistances(nodes []string, s trace.Step) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n + "=" + s.Distance(n).String()
	}
	return strings.Join(parts, " ")
}

// fmtPath renders a node path with arrows, or "—" when empty.
func fmtPath(path []string) string {
	if len(path) == 0 {
		return "—"
	}
	return strings.Join(path, " "+iconArrow+" ")
}

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// stepsTable lists every step of tr with its event, node and explanation.
func stepsTable(tr *trace.Trace) string {
	rows := make([][]string, 0, tr.Len())
	for i, s := range tr.Steps {
		node := s.CurrentNode
		if node == "" {
			node = "—"
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			string(s.Kind),
			node,
			fmtDistances(tr.Nodes, s),
			s.Explanation,
		})
	}
	return newTable().
		Headers("#", "Event", "Node", "Distances", "Explanation").
		Rows(rows...).
		Render()
}

// distanceTable lists the final distance, predecessor and path of every node.
func distanceTable(tr *trace.Trace) string {
	final := tr.Final()
	rows := make([][]string, 0, len(tr.Nodes))
	for _, n := range tr.Nodes {
		prev := final.Previous[n]
		if prev == "" {
			prev = "—"
		}
		rows = append(rows, []string{n, final.Distance(n).String(), prev, fmtPath(tr.PathTo(n))})
	}
	return newTable().
		Headers("Node", "Distance", "Previous", "Path").
		Rows(rows...).
		Render()
}

// styledNode renders a node id coloured by its state at s.
func styledNode(s trace.Step, node, start string) string {
	var st lipgloss.Style
	switch trace.NodeStateOf(s, node) {
	case trace.NodeCurrent:
		st = styleNodeCurrent
	case trace.NodeVisited:
		st = styleNodeVisited
	default:
		st = styleNodeUnvisited
	}
	if node == start {
		st = st.Inherit(styleNodeStart)
	}
	return st.Render(node)
}

// styledEdge renders an edge coloured by its state at s.
func styledEdge(s trace.Step, e graph.Edge) string {
	label := fmt.Sprintf("%s %s %s (%d)", e.From, iconArrow, e.To, e.Weight)
	switch trace.EdgeStateOf(s, e) {
	case trace.EdgeProcessing:
		return styleEdgeActive.Render(label)
	case trace.EdgeTree:
		return styleEdgeTree.Render(label)
	default:
		return styleEdgeIdle.Render(label)
	}
}
