package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pathstep/pkg/server"
	"github.com/matzehuels/pathstep/pkg/session"
)

// sessionCleanupInterval is how often the server drops expired sessions.
const sessionCleanupInterval = time.Hour

// serveCommand creates the HTTP API command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve traces and step diagrams over HTTP",
		Long: `Run the pathstep HTTP API.

Sessions are kept in the configured session store (file, memory or mongo)
and traces in the configured cache (file, redis or none).`,
		Example: `  pathstep serve
  PATHSTEP_CACHE=redis REDIS_URL=redis://localhost:6379 pathstep serve --addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}
			ctx := cmd.Context()

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			sessions, err := c.Config.OpenSessions(ctx)
			if err != nil {
				return err
			}
			defer sessions.Close()

			go cleanupSessions(ctx, sessions, c.Logger, sessionCleanupInterval)

			c.Logger.Info("starting server",
				"addr", addr,
				"cache", c.Config.Cache.Backend,
				"sessions", c.Config.Session.Backend)

			opts := []server.Option{server.WithLogger(c.Logger)}
			if ttl := c.Config.Session.TTL.Duration; ttl > 0 {
				opts = append(opts, server.WithSessionTTL(ttl))
			}
			return server.New(runner, sessions, opts...).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the trace cache")

	return cmd
}

// cleanupSessions removes expired sessions every interval until ctx ends.
func cleanupSessions(ctx context.Context, store session.Store, logger *log.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Cleanup(ctx); err != nil {
				logger.Warn("session cleanup failed", "error", err)
			}
		}
	}
}
