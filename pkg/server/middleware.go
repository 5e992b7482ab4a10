package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pathstep/pkg/observability"
)

// recorder captures the response status and any error reported by a handler.
type recorder struct {
	middleware.WrapResponseWriter
	err error
}

// instrument reports each request to the HTTP hooks and the debug log.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		ctx := r.Context()
		hooks.OnRequest(ctx, r.Method, r.URL.Path)

		rec := &recorder{WrapResponseWriter: middleware.NewWrapResponseWriter(w, r.ProtoMajor)}
		began := time.Now()
		next.ServeHTTP(rec, r)
		dur := time.Since(began)

		status := rec.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if rec.err != nil {
			hooks.OnError(ctx, r.Method, r.URL.Path, rec.err)
			if status >= http.StatusInternalServerError {
				s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", rec.err)
			}
		}
		hooks.OnResponse(ctx, r.Method, r.URL.Path, status, dur)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", rec.BytesWritten(),
			"duration", dur,
			"request_id", middleware.GetReqID(ctx))
	})
}
