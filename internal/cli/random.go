package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pathstep/pkg/random"
)

// randomCommand creates the random graph command.
func (c *CLI) randomCommand() *cobra.Command {
	var (
		seed uint64
		opts random.Options
	)

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Print a random graph as node and edge text",
		Long: `Print a random weighted directed graph in the node and edge grammar.

The same seed always produces the same graph.`,
		Example: `  pathstep random
  pathstep random --seed 42 --max-nodes 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = uint64(time.Now().UnixNano())
			}
			nodes, edges := random.Text(seed, &opts)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, StyleDim.Render("nodes:")+" "+StyleValue.Render(nodes))
			fmt.Fprintln(out, StyleDim.Render("edges:")+" "+StyleValue.Render(edges))
			printDetail("seed %d", seed)
			printNextStep("Explore it", fmt.Sprintf("%s play --random --seed %d", appName, seed))
			return nil
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (default: time based)")
	cmd.Flags().IntVar(&opts.MinNodes, "min-nodes", 0, "minimum node count (default 5)")
	cmd.Flags().IntVar(&opts.MaxNodes, "max-nodes", 0, "maximum node count, at most 26 (default 7)")
	cmd.Flags().IntVar(&opts.MaxWeight, "max-weight", 0, "maximum edge weight (default 10)")

	return cmd
}
