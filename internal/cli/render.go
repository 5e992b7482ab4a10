package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pathstep/pkg/errors"
	"github.com/matzehuels/pathstep/pkg/pipeline"
)

// defaultOutputBase names output files when neither -o nor --graph is given.
const defaultOutputBase = "step"

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string  // output file (single format) or base path
	formats   string  // comma-separated output formats
	step      int     // step index, pipeline.LastStep for the final step
	engine    string  // graphviz layout engine
	distances bool    // annotate nodes with their distances
	scale     float64 // png resolution multiplier
	noCache   bool
	refresh   bool
}

// renderCommand creates the render command for drawing one step.
func (c *CLI) renderCommand() *cobra.Command {
	var gf graphFlags
	opts := renderOpts{
		formats:   pipeline.FormatSVG,
		step:      pipeline.LastStep,
		engine:    pipeline.DefaultEngine,
		distances: true,
		scale:     pipeline.DefaultScale,
	}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one step of a trace as a diagram",
		Long: `Render one step of the Dijkstra trace as a Graphviz diagram.

Nodes are coloured by state (current, visited, unvisited), the edge under
examination is highlighted and the shortest-path tree found so far is
drawn in green. The step explanation is used as the caption.`,
		Example: `  pathstep render -n "A, B, C" -e "A-B:4, A-C:1, C-B:2" -o final.svg
  pathstep render --random --seed 3 --step 4 -f svg,png -o step4
  pathstep render --graph graph.json -f dot -o -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			popts, err := gf.options(cmd)
			if err != nil {
				return err
			}
			popts.Step = opts.step
			popts.Formats = pipeline.ParseFormats(opts.formats)
			popts.Engine = opts.engine
			popts.Distances = opts.distances
			popts.Scale = opts.scale
			popts.Refresh = opts.refresh
			if len(popts.Formats) == 0 {
				popts.Formats = []string{pipeline.FormatSVG}
			}
			if err := popts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			base := basePath(opts.output, gf.file)
			return c.runRender(cmd, popts, base, opts)
		},
	}

	gf.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `output file (single format) or base path; "-" writes to stdout`)
	cmd.Flags().StringVarP(&opts.formats, "format", "f", opts.formats, "output format(s): svg, dot, pdf, png, json (comma-separated)")
	cmd.Flags().IntVar(&opts.step, "step", opts.step, "step index to render (-1 for the final step)")
	cmd.Flags().StringVar(&opts.engine, "engine", opts.engine, "layout engine: circo, dot")
	cmd.Flags().BoolVar(&opts.distances, "distances", opts.distances, "show distances under node ids")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG resolution multiplier")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the trace and artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "regenerate even when cached")

	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return outputFormats(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("engine", cobra.FixedCompletions(
		[]string{pipeline.DefaultEngine, "dot"}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, popts pipeline.Options, base string, opts renderOpts) error {
	ctx := cmd.Context()
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	toStdout := opts.output == "-"
	if toStdout && len(popts.Formats) > 1 {
		return fmt.Errorf("-o - needs exactly one format, got %d", len(popts.Formats))
	}
	if !toStdout {
		if err := errors.ValidateOutputPath(base); err != nil {
			return err
		}
	}

	var spin *Spinner
	if !toStdout {
		spin = newSpinnerWithContext(ctx, os.Stderr, "Rendering "+strings.Join(popts.Formats, ", "))
		spin.Start()
	}
	prog := newProgress(c.Logger)
	res, err := runner.Run(ctx, popts)
	if spin != nil {
		if err != nil && !spin.Cancelled() {
			spin.StopWithError("Render failed")
		}
		spin.Stop()
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered step %d of %d", res.Step+1, res.Trace.Len()))

	if toStdout {
		_, err := cmd.OutOrStdout().Write(res.Artifacts[popts.Formats[0]])
		return err
	}

	paths, err := writeArtifacts(res.Artifacts, popts.Formats, opts.output, base)
	if err != nil {
		return err
	}
	printSuccess("Rendered step %s", StyleNumber.Render(fmt.Sprintf("%d/%d", res.Step+1, res.Trace.Len())))
	for _, p := range paths {
		printFile(p)
	}
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.StepCount, res.CacheInfo.TraceHit && res.CacheInfo.RenderHit)
	return nil
}

// writeArtifacts writes each format's bytes and returns the paths written.
// A single format goes to output verbatim when it is set; otherwise files
// are named base.format.
func writeArtifacts(artifacts map[string][]byte, formats []string, output, base string) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path := base + "." + format
		if len(formats) == 1 && output != "" {
			path = output
		}
		if err := writeFile(path, artifacts[format]); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = out.Write(data)
	return err
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input, falling back to
// "step". If output has a format extension (.svg, .pdf, etc.), it strips that
// extension.
func basePath(output, input string) string {
	if output == "" {
		if input == "" {
			return defaultOutputBase
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{stdout}, nil
	}
	return os.Create(path)
}

// outputFormats lists formats for shell completion.
func outputFormats() []string {
	formats := make([]string, 0, len(pipeline.ValidFormats))
	for f := range pipeline.ValidFormats {
		formats = append(formats, f)
	}
	slices.Sort(formats)
	return formats
}
