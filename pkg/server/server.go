// Package server exposes traces and steps over HTTP for external renderers.
//
// The API is stateless apart from the session store: every request parses
// the session's graph text and obtains its trace through the pipeline
// runner, which serves repeated requests from the trace cache.
//
// # Routes
//
//	GET    /healthz
//	GET    /api/random?seed=N
//	POST   /api/sessions
//	GET    /api/sessions/{id}
//	PUT    /api/sessions/{id}/position
//	DELETE /api/sessions/{id}
//	GET    /api/sessions/{id}/steps/{index}
//	GET    /api/sessions/{id}/steps/{index}/svg
//	GET    /api/sessions/{id}/steps/{index}/dot
//
// Errors are returned as {"error": {"code", "message", "subject"}} with the
// status derived from the error code.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pathstep/pkg/pipeline"
	"github.com/matzehuels/pathstep/pkg/session"
)

// Server serves the pathstep HTTP API.
type Server struct {
	runner   *pipeline.Runner
	sessions session.Store
	logger   *log.Logger
	ttl      time.Duration
	seed     func() uint64
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithSessionTTL sets the lifetime of created and updated sessions.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) { s.ttl = ttl }
}

// WithSeedSource sets the seed used by /api/random when none is given.
func WithSeedSource(fn func() uint64) Option {
	return func(s *Server) { s.seed = fn }
}

// New creates a server backed by runner and sessions.
func New(runner *pipeline.Runner, sessions session.Store, opts ...Option) *Server {
	s := &Server{
		runner:   runner,
		sessions: sessions,
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
		ttl:      session.DefaultTTL,
		seed:     func() uint64 { return uint64(time.Now().UnixNano()) },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/random", s.handleRandom)
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Put("/position", s.handleSetPosition)
			r.Get("/steps/{index}", s.handleGetStep)
			r.Get("/steps/{index}/{format:svg|dot}", s.handleRenderStep)
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errNotFound(r.URL.Path))
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
