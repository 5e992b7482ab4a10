package cli

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pathstep/pkg/pipeline"
	"github.com/matzehuels/pathstep/pkg/playback"
	"github.com/matzehuels/pathstep/pkg/session"
)

// playCommand creates the interactive player command.
func (c *CLI) playCommand() *cobra.Command {
	var (
		gf      graphFlags
		delay   int
		resume  bool
		noSave  bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Step through a Dijkstra trace interactively",
		Long: `Open a terminal player for the Dijkstra trace of a graph.

Use ←/→ to step, space to auto-play, r to reset and q to quit. The graph
and position are saved on exit; --resume reopens the most recent session.`,
		Example: `  pathstep play -n "A, B, C, D" -e "A-B:1, B-C:2, A-C:5, C-D:1"
  pathstep play --random --delay 300
  pathstep play --resume`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("delay") {
				delay = c.Config.Playback.DelayMs
			}
			return c.runPlay(cmd, &gf, playback.ClampDelay(delay), resume, !noSave, noCache)
		},
	}

	gf.register(cmd)
	cmd.Flags().IntVarP(&delay, "delay", "d", playback.DefaultDelay, "auto-play delay in milliseconds (100-2000)")
	cmd.Flags().BoolVar(&resume, "resume", false, "reopen the most recent session")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not save the session on exit")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the trace cache")

	return cmd
}

func (c *CLI) runPlay(cmd *cobra.Command, gf *graphFlags, delay int, resume, save, noCache bool) error {
	ctx := cmd.Context()
	store, err := session.NewFileStore(c.Config.Session.Dir)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, opts, err := c.playSession(cmd, gf, store, resume)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, err := runner.Run(ctx, opts)
	if err != nil {
		return err
	}
	if sess == nil {
		nodes, edges := res.Graph.Text()
		sess = session.New(nodes, edges, res.Start, c.Config.Session.TTL.Duration)
	}
	if resume && sess.DelayMs > 0 && !cmd.Flags().Changed("delay") {
		delay = sess.DelayMs
	}

	final, err := c.play(ctx, res, sess.Index, delay)
	if err != nil {
		return err
	}
	if !save {
		return nil
	}

	sess.Index = final.Index
	sess.DelayMs = final.DelayMs
	sess.Touch(c.Config.Session.TTL.Duration)
	if err := store.Set(ctx, sess); err != nil {
		return err
	}
	printSuccess("Saved session %s", StyleValue.Render(sess.ID))
	printDetail("%s · %s", final.Progress(), store.Path())
	printNextStep("Resume", appName+" play --resume")
	return nil
}

// playSession picks the pipeline input: the latest saved session when
// resuming, otherwise the graph flags.
func (c *CLI) playSession(cmd *cobra.Command, gf *graphFlags, store *session.FileStore, resume bool) (*session.Session, pipeline.Options, error) {
	if !resume {
		opts, err := gf.options(cmd)
		return nil, opts, err
	}
	sess, err := store.Latest(cmd.Context())
	if errors.Is(err, session.ErrNotFound) {
		printInfo("No saved session in %s", store.Path())
		printNextStep("Start one with", appName+" play --random")
		return nil, pipeline.Options{}, err
	}
	if err != nil {
		return nil, pipeline.Options{}, err
	}
	c.Logger.Debug("resuming session", "id", sess.ID, "index", sess.Index)
	return sess, pipeline.Options{Nodes: sess.Nodes, Edges: sess.Edges, Start: sess.Start}, nil
}

// play runs the player until the user quits and returns the final state.
// Logging is muted while the player owns the terminal.
func (c *CLI) play(ctx context.Context, res *pipeline.Result, index, delay int) (playback.State, error) {
	advances := make(chan playback.State, 1)
	ctrl := playback.NewController(
		playback.WithDelay(delay),
		playback.WithOnAdvance(forwardAdvances(advances)),
	)
	defer ctrl.Close()
	ctrl.Load(res.Trace)
	if index >= 0 {
		ctrl.Seek(min(index, res.Trace.Last()))
	}

	level := c.Logger.GetLevel()
	c.Logger.SetLevel(log.FatalLevel)
	defer c.Logger.SetLevel(level)

	p := tea.NewProgram(NewPlayerModel(ctrl, res.Graph, advances), tea.WithContext(ctx), tea.WithAltScreen())
	m, err := p.Run()
	if err != nil {
		return playback.State{}, err
	}
	return m.(PlayerModel).State(), nil
}
