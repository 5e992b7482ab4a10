package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/pathstep/pkg/buildinfo"
	"github.com/matzehuels/pathstep/pkg/errors"
	"github.com/matzehuels/pathstep/pkg/pipeline"
	"github.com/matzehuels/pathstep/pkg/playback"
	"github.com/matzehuels/pathstep/pkg/random"
	"github.com/matzehuels/pathstep/pkg/session"
	"github.com/matzehuels/pathstep/pkg/trace"
)

const maxBodyBytes = 1 << 20

type createSessionRequest struct {
	Nodes string `json:"nodes"`
	Edges string `json:"edges"`
	Start string `json:"start"`
}

type positionRequest struct {
	Index   *int `json:"index"`
	DelayMs *int `json:"delay_ms"`
}

type sessionResponse struct {
	Session *session.Session `json:"session"`
	Trace   *trace.Trace     `json:"trace"`
}

type randomResponse struct {
	Seed  uint64 `json:"seed"`
	Nodes string `json:"nodes"`
	Edges string `json:"edges"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Short()})
}

func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	seed := s.seed()
	if v := r.URL.Query().Get("seed"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, r, errors.Invalid(errors.ErrCodeInvalidInput, v, "seed must be a non-negative integer"))
			return
		}
		seed = n
	}
	nodes, edges := random.Text(seed, nil)
	writeJSON(w, http.StatusOK, randomResponse{Seed: seed, Nodes: nodes, Edges: edges})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.runner.Run(r.Context(), pipeline.Options{Nodes: req.Nodes, Edges: req.Edges, Start: req.Start})
	if err != nil {
		writeError(w, r, err)
		return
	}

	nodes, edges := res.Graph.Text()
	sess := session.New(nodes, edges, res.Start, s.ttl)
	sess.DelayMs = playback.DefaultDelay
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "save session"))
		return
	}
	w.Header().Set("Location", "/api/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, sessionResponse{Session: sess, Trace: res.Trace})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, res, err := s.load(r, pipeline.Options{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: sess, Trace: res.Trace})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateSessionID(id); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.sessions.Get(r.Context(), id); err != nil {
		writeError(w, r, storeError(id, err))
		return
	}
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		writeError(w, r, storeError(id, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetPosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sess, res, err := s.load(r, pipeline.Options{})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if req.Index != nil {
		i := *req.Index
		if i < -1 || i >= res.Trace.Len() {
			writeError(w, r, errors.Invalid(errors.ErrCodeStepOutOfRange, strconv.Itoa(i),
				"index %d out of range [-1, %d]", i, res.Trace.Last()))
			return
		}
		sess.Index = i
	}
	if req.DelayMs != nil {
		sess.DelayMs = playback.ClampDelay(*req.DelayMs)
	}
	sess.Touch(s.ttl)
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "save session"))
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleGetStep(w http.ResponseWriter, r *http.Request) {
	_, res, err := s.load(r, pipeline.Options{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	index, err := stepParam(r)
	if err == nil {
		index, err = pipeline.ResolveStep(res.Trace, index)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	step, _ := res.Trace.At(index)
	w.Header().Set("X-Step-Index", strconv.Itoa(index))
	w.Header().Set("X-Step-Count", strconv.Itoa(res.Trace.Len()))
	writeJSON(w, http.StatusOK, step)
}

func (s *Server) handleRenderStep(w http.ResponseWriter, r *http.Request) {
	index, err := stepParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	format := chi.URLParam(r, "format")
	_, res, err := s.load(r, pipeline.Options{
		Step:      index,
		Formats:   []string{format},
		Engine:    r.URL.Query().Get("engine"),
		Distances: r.URL.Query().Get("distances") != "false",
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	contentType := "image/svg+xml"
	if format == pipeline.FormatDOT {
		contentType = "text/vnd.graphviz; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Step-Index", strconv.Itoa(res.Step))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

// load fetches the session named in the URL and runs the pipeline over it
// with the given render options.
func (s *Server) load(r *http.Request, opts pipeline.Options) (*session.Session, *pipeline.Result, error) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateSessionID(id); err != nil {
		return nil, nil, err
	}
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		return nil, nil, storeError(id, err)
	}
	opts.Nodes, opts.Edges, opts.Start = sess.Nodes, sess.Edges, sess.Start
	res, err := s.runner.Run(r.Context(), opts)
	if err != nil {
		return nil, nil, err
	}
	return sess, res, nil
}

func storeError(id string, err error) error {
	if stderrors.Is(err, session.ErrNotFound) {
		return errSessionNotFound(id, err)
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "session store")
}

// stepParam parses the {index} URL parameter; "last" selects the final step.
func stepParam(r *http.Request) (int, error) {
	v := chi.URLParam(r, "index")
	if v == "last" {
		return pipeline.LastStep, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return 0, errors.Invalid(errors.ErrCodeStepOutOfRange, v, "step index must be a non-negative integer or \"last\"")
	}
	return i, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}
