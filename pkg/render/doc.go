// Package render converts rendered step diagrams between output formats.
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg):
//
//	svg, err := nodelink.RenderSVG(dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// A missing rsvg-convert is reported as an UNSUPPORTED error.
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage draws a graph coloured by one trace step using
// Graphviz.
//
// [nodelink]: github.com/matzehuels/pathstep/pkg/render/nodelink
package render
