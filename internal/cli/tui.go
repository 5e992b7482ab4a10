package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/pathstep/pkg/graph"
	"github.com/matzehuels/pathstep/pkg/playback"
)

// delayStep is how much +/- change the auto-play delay, in milliseconds.
const delayStep = 100

var (
	playerKeyStyle     = lipgloss.NewStyle().Foreground(colorBlue)
	playerPanelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	playerExplainStyle = lipgloss.NewStyle().Foreground(colorWhite).Italic(true)
)

// advanceMsg carries the state after a timer-driven advance.
type advanceMsg playback.State

// PlayerModel is the bubbletea model for stepping through a trace.
type PlayerModel struct {
	ctrl     *playback.Controller
	edges    []graph.Edge
	advances chan playback.State
	state    playback.State
	width    int
}

// NewPlayerModel creates a player for g. The controller must already hold
// the trace for g, and timer-driven steps only show up when it was built
// with forwardAdvances(advances).
func NewPlayerModel(ctrl *playback.Controller, g *graph.Graph, advances chan playback.State) PlayerModel {
	return PlayerModel{
		ctrl:     ctrl,
		edges:    g.Edges(),
		advances: advances,
		state:    ctrl.State(),
	}
}

// forwardAdvances returns an OnAdvance callback that feeds ch without
// blocking the controller. A dropped state is harmless because the next
// message re-reads the controller.
func forwardAdvances(ch chan playback.State) func(playback.State) {
	return func(s playback.State) {
		select {
		case ch <- s:
		default:
		}
	}
}

// waitForAdvance blocks until the controller advances on its own.
func waitForAdvance(ch <-chan playback.State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return advanceMsg(s)
	}
}

// State returns the last observed controller state.
func (m PlayerModel) State() playback.State { return m.state }

func (m PlayerModel) Init() tea.Cmd {
	return waitForAdvance(m.advances)
}

func (m PlayerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case advanceMsg:
		m.state = m.ctrl.State()
		return m, waitForAdvance(m.advances)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.ctrl.StopAutoPlay()
			m.state = m.ctrl.State()
			return m, tea.Quit
		case "right", "l", "n":
			m.ctrl.StepForward()
		case "left", "h", "p":
			m.ctrl.StepBackward()
		case " ", "enter":
			m.ctrl.ToggleAutoPlay()
		case "r":
			m.ctrl.Reset()
		case "end", "G":
			m.ctrl.Seek(m.state.Len - 1)
		case "+", "=":
			m.ctrl.SetDelay(m.state.DelayMs + delayStep)
		case "-", "_":
			m.ctrl.SetDelay(m.state.DelayMs - delayStep)
		}
		m.state = m.ctrl.State()
	}
	return m, nil
}

func (m PlayerModel) View() string {
	tr := m.ctrl.Trace()
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Dijkstra from " + tr.Start))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render(m.status()))
	b.WriteString("\n\n")

	if m.state.Step == nil {
		b.WriteString(StyleDim.Render("Press → to take the first step or space to auto-play."))
		b.WriteString("\n\n")
	} else {
		s := *m.state.Step
		b.WriteString(playerExplainStyle.Render(s.Explanation))
		b.WriteString("\n\n")

		nodes := make([]string, len(tr.Nodes))
		for i, n := range tr.Nodes {
			nodes[i] = styledNode(s, n, tr.Start) + StyleDim.Render("="+s.Distance(n).String())
		}
		edges := make([]string, len(m.edges))
		for i, e := range m.edges {
			edges[i] = styledEdge(s, e)
		}
		panel := StyleDim.Render("Nodes") + "\n" + strings.Join(nodes, "  ") +
			"\n\n" + StyleDim.Render("Edges") + "\n" + strings.Join(edges, "\n")
		if s.CurrentNode != "" {
			panel += "\n\n" + StyleDim.Render("Path to "+s.CurrentNode) + "\n" + fmtPath(s.PathTo(s.CurrentNode))
		}
		b.WriteString(playerPanelStyle.Render(panel))
		b.WriteString("\n\n")
	}

	b.WriteString(m.help())
	return b.String()
}

func (m PlayerModel) status() string {
	var parts []string
	if m.state.Index < 0 {
		parts = append(parts, fmt.Sprintf("Ready · %d steps", m.state.Len))
	} else {
		parts = append(parts, m.state.Progress())
	}
	if m.state.AutoPlaying {
		parts = append(parts, styleIconSpinner.Render("▶ playing"))
	} else {
		parts = append(parts, "⏸ paused")
	}
	parts = append(parts, fmt.Sprintf("%dms", m.state.DelayMs))
	return strings.Join(parts, " · ")
}

func (m PlayerModel) help() string {
	keys := [][2]string{
		{"←/→", "step"},
		{"space", "play/pause"},
		{"r", "reset"},
		{"G", "last"},
		{"+/-", "speed"},
		{"q", "quit"},
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = playerKeyStyle.Render(k[0]) + " " + StyleDim.Render(k[1])
	}
	return strings.Join(parts, "  ")
}
