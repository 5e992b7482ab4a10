package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pathstep/pkg/buildinfo"
	"github.com/matzehuels/pathstep/pkg/cache"
	"github.com/matzehuels/pathstep/pkg/config"
	"github.com/matzehuels/pathstep/pkg/errors"
	"github.com/matzehuels/pathstep/pkg/graph"
	"github.com/matzehuels/pathstep/pkg/pipeline"
	"github.com/matzehuels/pathstep/pkg/random"
)

// appName is the application name used for directories and display.
const appName = "pathstep"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	configPath string
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "pathstep replays Dijkstra's shortest-path algorithm step by step",
		Long: `pathstep turns a small weighted directed graph into a complete,
replayable trace of Dijkstra's algorithm: every node selection, every edge
relaxation and every distance update, each with a plain-language explanation.

Graphs are given as a node list and an edge list:

  pathstep trace --nodes "A, B, C" --edges "A-B:4, A-C:1, C-B:2"`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			if c.Logger.GetLevel() <= log.DebugLevel {
				installLogHooks(c.Logger)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/pathstep/config.toml)")

	root.AddCommand(c.traceCommand())
	root.AddCommand(c.playCommand())
	root.AddCommand(c.randomCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg := *c.Config
	if noCache {
		cfg.Cache.Backend = config.CacheNone
	}
	ch, err := cfg.OpenCache(ctx)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "backend", cfg.Cache.Backend, "error", err)
		ch = cache.NewNullCache()
	}
	r := pipeline.NewRunner(ch, cfg.Keyer(), c.Logger)
	if ttl := cfg.Cache.TTL.Duration; ttl > 0 {
		r.TTL = ttl
	}
	return r, nil
}

// graphFlags are the graph input flags shared by trace, play and render.
type graphFlags struct {
	nodes  string
	edges  string
	start  string
	file   string
	random bool
	seed   uint64
}

func (f *graphFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.nodes, "nodes", "n", "", `comma-separated node ids, e.g. "A, B, C"`)
	cmd.Flags().StringVarP(&f.edges, "edges", "e", "", `comma-separated weighted edges, e.g. "A-B:4, B-C:1"`)
	cmd.Flags().StringVarP(&f.start, "start", "s", "", "start node (default: first node)")
	cmd.Flags().StringVar(&f.file, "graph", "", "read the graph from a JSON file")
	cmd.Flags().BoolVar(&f.random, "random", false, "generate a random graph")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "seed for --random (default: time based)")
}

// text returns node and edge text from whichever input source was chosen.
func (f *graphFlags) text(cmd *cobra.Command) (nodes, edges string, err error) {
	switch {
	case f.random:
		seed := f.seed
		if !cmd.Flags().Changed("seed") {
			seed = uint64(time.Now().UnixNano())
		}
		loggerFromContext(cmd.Context()).Debug("random graph", "seed", seed)
		nodes, edges = random.Text(seed, nil)
		return nodes, edges, nil
	case f.file != "":
		g, err := graph.ReadGraphFile(f.file)
		if err != nil {
			return "", "", err
		}
		nodes, edges = g.Text()
		return nodes, edges, nil
	case f.nodes == "":
		return "", "", errors.New(errors.ErrCodeInvalidInput, "--nodes is required (or use --random or --graph)")
	}
	return f.nodes, f.edges, nil
}

// options builds pipeline options from the graph flags.
func (f *graphFlags) options(cmd *cobra.Command) (pipeline.Options, error) {
	nodes, edges, err := f.text(cmd)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{Nodes: nodes, Edges: edges, Start: f.start}, nil
}
