package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pathstep/pkg/graph"
	"github.com/matzehuels/pathstep/pkg/trace"
)

// Engine is a Graphviz layout engine.
type Engine string

const (
	EngineCirco Engine = "circo"
	EngineDot   Engine = "dot"
)

// Colours used for node and edge states.
const (
	ColorCurrent    = "#9333EA"
	ColorVisited    = "#22C55E"
	ColorUnvisited  = "#3B82F6"
	ColorStart      = "#FDE047"
	ColorProcessing = "#EF4444"
	ColorTree       = "#10B981"
	ColorIdle       = "#9CA3AF"
)

// Options configures diagram generation.
type Options struct {
	// Distances adds the step's distance under each node id.
	Distances bool
	// Engine selects the layout. Empty means circo.
	Engine Engine
	// Caption is drawn below the diagram, typically the step explanation.
	Caption string
}

// ToDOT converts g to Graphviz DOT coloured by step. A nil step draws every
// node as unvisited and every edge as idle.
func ToDOT(g *graph.Graph, start string, step *trace.Step, opts Options) string {
	var s trace.Step
	if step != nil {
		s = *step
	}
	engine := opts.Engine
	if engine == "" {
		engine = EngineCirco
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  layout=%s;\n", engine)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fontcolor=white, fontname=\"Helvetica-Bold\", fontsize=16, width=0.7, fixedsize=true];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=12, arrowsize=0.8];\n")
	if opts.Caption != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=b;\n  fontname=\"Helvetica\";\n", opts.Caption)
	}
	buf.WriteString("\n")

	for _, id := range g.Nodes() {
		label := fmtLabel(s, id, opts.Distances && step != nil)
		attrs := fmtNodeAttrs(s, id, id == start, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(fmtEdgeAttrs(s, e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(s trace.Step, id string, distances bool) string {
	if !distances {
		return id
	}
	return id + "\n" + s.Distance(id).String()
}

func fmtNodeAttrs(s trace.Step, id string, isStart bool, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch trace.NodeStateOf(s, id) {
	case trace.NodeCurrent:
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", ColorCurrent))
	case trace.NodeVisited:
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", ColorVisited))
	default:
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", ColorUnvisited))
	}
	if isStart {
		attrs = append(attrs, fmt.Sprintf("color=%q", ColorStart), "penwidth=4")
	}
	return attrs
}

func fmtEdgeAttrs(s trace.Step, e graph.Edge) []string {
	attrs := []string{fmt.Sprintf("label=\"%d\"", e.Weight)}
	switch trace.EdgeStateOf(s, e) {
	case trace.EdgeProcessing:
		attrs = append(attrs, fmt.Sprintf("color=%q", ColorProcessing), fmt.Sprintf("fontcolor=%q", ColorProcessing), "penwidth=3")
	case trace.EdgeTree:
		attrs = append(attrs, fmt.Sprintf("color=%q", ColorTree), fmt.Sprintf("fontcolor=%q", ColorTree), "penwidth=2")
	default:
		attrs = append(attrs, fmt.Sprintf("color=%q", ColorIdle))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// The result can be converted further with render.ToPDF or render.ToPNG.
func RenderSVG(dot string) ([]byte, error) {
	return RenderSVGContext(context.Background(), dot)
}

// RenderSVGContext is RenderSVG with a caller-supplied context.
func RenderSVGContext(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
