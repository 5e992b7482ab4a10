package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/pathstep/pkg/graph"
	"github.com/matzehuels/pathstep/pkg/render"
	"github.com/matzehuels/pathstep/pkg/render/nodelink"
	"github.com/matzehuels/pathstep/pkg/trace"
)

// Render draws step index of tr in every format of opts.Formats.
// SVG is produced at most once and reused for PDF and PNG conversion.
func Render(ctx context.Context, g *graph.Graph, tr *trace.Trace, index int, opts Options) (map[string][]byte, error) {
	step, ok := tr.At(index)
	if !ok {
		return nil, fmt.Errorf("step %d not in trace", index)
	}
	dot := nodelink.ToDOT(g, tr.Start, &step, opts.NodelinkOptions(step.Explanation))

	var svg []byte
	svgOnce := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		var err error
		svg, err = nodelink.RenderSVGContext(ctx, dot)
		return svg, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = svgOnce()
		case FormatPDF:
			if data, err = svgOnce(); err == nil {
				data, err = render.ToPDF(ctx, data)
			}
		case FormatPNG:
			if data, err = svgOnce(); err == nil {
				data, err = render.ToPNG(ctx, data, opts.Scale)
			}
		case FormatJSON:
			data, err = json.MarshalIndent(step, "", "  ")
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
