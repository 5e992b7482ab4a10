package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pathstep/pkg/errors"
	"github.com/matzehuels/pathstep/pkg/trace"
)

// Trace output formats.
const (
	traceTable = "table"
	traceJSON  = "json"
)

// traceCommand creates the trace command.
func (c *CLI) traceCommand() *cobra.Command {
	var (
		gf      graphFlags
		format  string
		steps   bool
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Generate the Dijkstra trace for a graph",
		Long: `Generate the complete step trace of Dijkstra's algorithm for a graph.

The table view prints the final distances and shortest paths; add --steps
to list every recorded step. The json view prints the trace document.`,
		Example: `  pathstep trace -n "A, B, C" -e "A-B:4, A-C:1, C-B:2"
  pathstep trace --random --seed 7 --steps
  pathstep trace --graph graph.json --format json > trace.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != traceTable && format != traceJSON {
				return errors.Invalid(errors.ErrCodeInvalidFormat, format,
					"invalid format: %q (must be one of: json, table)", format)
			}
			opts, err := gf.options(cmd)
			if err != nil {
				return err
			}
			opts.Refresh = refresh

			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			res, err := runner.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			c.Logger.Debug("trace ready", "start", res.Start, "steps", res.Stats.StepCount,
				"parse", res.Stats.ParseTime, "generate", res.Stats.GenerateTime)

			out := cmd.OutOrStdout()
			if format == traceJSON {
				return trace.WriteTrace(res.Trace, out)
			}
			writeTraceTables(out, res.Trace, steps)
			printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.StepCount, res.CacheInfo.TraceHit)
			return nil
		},
	}

	gf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", traceTable, "output format: table, json")
	cmd.Flags().BoolVar(&steps, "steps", false, "list every step, not just the final distances")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the trace cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "regenerate even when cached")

	return cmd
}

// writeTraceTables prints the distance table and optionally the step table.
func writeTraceTables(w io.Writer, tr *trace.Trace, steps bool) {
	fmt.Fprintln(w, StyleTitle.Render("Shortest paths from "+tr.Start))
	fmt.Fprintln(w, distanceTable(tr))
	if unreachable := tr.Unreachable(); len(unreachable) > 0 {
		fmt.Fprintln(w, StyleWarning.Render(fmt.Sprintf("%d unreachable: %v", len(unreachable), unreachable)))
	}
	if steps {
		fmt.Fprintln(w)
		fmt.Fprintln(w, StyleTitle.Render("Steps"))
		fmt.Fprintln(w, stepsTable(tr))
	}
}
