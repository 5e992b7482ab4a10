// Package nodelink renders one step of a Dijkstra trace as a node-link diagram.
//
// # Overview
//
// [ToDOT] turns a graph plus the step being displayed into Graphviz DOT
// source. Node and edge colours follow the step's state:
//
//   - current node: purple; visited: green; unvisited: blue
//   - start node: gold outline
//   - edge under examination: red
//   - shortest-path-tree edge (both ends visited, previous[to] == from): green
//   - other edges: grey
//
// Edge labels carry the weight; node labels carry the id and, with
// [Options.Distances], the distance recorded in the step (∞ when unreachable).
//
// # Usage
//
//	dot := nodelink.ToDOT(g, tr.Start, &step, nodelink.Options{Distances: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// For PDF or PNG output, convert the SVG:
//
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// # Layout
//
// The default engine is circo, which places nodes on a circle so small
// graphs read like textbook figures. [EngineDot] gives a layered layout.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
