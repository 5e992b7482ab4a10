package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/pathstep/pkg/errors"
	"github.com/matzehuels/pathstep/pkg/observability"
	"github.com/matzehuels/pathstep/pkg/pipeline"
	"github.com/matzehuels/pathstep/pkg/playback"
	"github.com/matzehuels/pathstep/pkg/random"
	"github.com/matzehuels/pathstep/pkg/session"
	"github.com/matzehuels/pathstep/pkg/trace"
)

func newTestServer(t *testing.T) (*httptest.Server, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore()
	srv := New(pipeline.NewRunner(nil, nil, nil), store, WithSeedSource(func() uint64 { return 7 }))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func expectError(t *testing.T, resp *http.Response, status int, code errors.Code) errorBody {
	t.Helper()
	if resp.StatusCode != status {
		t.Errorf("status = %d, want %d", resp.StatusCode, status)
	}
	body := decode[errorResponse](t, resp)
	if body.Error.Code != code {
		t.Errorf("code = %s, want %s", body.Error.Code, code)
	}
	return body.Error
}

func createSession(t *testing.T, ts *httptest.Server) sessionResponse {
	t.Helper()
	resp := do(t, http.MethodPost, ts.URL+"/api/sessions", createSessionRequest{
		Nodes: "A, B, C",
		Edges: "A-B:4, A-C:1, C-B:2",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	return decode[sessionResponse](t, resp)
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := decode[map[string]string](t, resp); got["status"] != "ok" {
		t.Errorf("body = %v", got)
	}
}

func TestRandom(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		query string
		seed  uint64
	}{
		{"?seed=42", 42},
		{"", 7},
	}
	for _, tt := range tests {
		resp := do(t, http.MethodGet, ts.URL+"/api/random"+tt.query, nil)
		got := decode[randomResponse](t, resp)
		nodes, edges := random.Text(tt.seed, nil)
		if got.Seed != tt.seed || got.Nodes != nodes || got.Edges != edges {
			t.Errorf("random%s = %+v, want seed %d %q %q", tt.query, got, tt.seed, nodes, edges)
		}
	}

	expectError(t, do(t, http.MethodGet, ts.URL+"/api/random?seed=-1", nil),
		http.StatusBadRequest, errors.ErrCodeInvalidInput)
}

func TestCreateSession(t *testing.T) {
	ts, store := newTestServer(t)
	got := createSession(t, ts)

	if got.Session == nil || got.Session.ID == "" {
		t.Fatal("missing session")
	}
	if got.Session.Start != "A" || got.Session.Index != -1 || got.Session.DelayMs != playback.DefaultDelay {
		t.Errorf("session = %+v", got.Session)
	}
	if got.Trace == nil || got.Trace.Final().Kind != trace.KindComplete {
		t.Fatal("missing or incomplete trace")
	}
	if store.Len() != 1 {
		t.Errorf("store has %d sessions, want 1", store.Len())
	}
}

func TestCreateSessionErrors(t *testing.T) {
	ts, store := newTestServer(t)

	tests := []struct {
		name    string
		body    any
		status  int
		code    errors.Code
		subject string
	}{
		{"malformed edge", createSessionRequest{Nodes: "A, B", Edges: "AB:3"}, http.StatusUnprocessableEntity, errors.ErrCodeMalformedEdge, "AB:3"},
		{"unknown node", createSessionRequest{Nodes: "A, B", Edges: "A-Z:3"}, http.StatusUnprocessableEntity, errors.ErrCodeUnknownNodeRef, "A-Z"},
		{"empty nodes", createSessionRequest{Nodes: "", Edges: ""}, http.StatusUnprocessableEntity, errors.ErrCodeEmptyNodeList, ""},
		{"bad start", createSessionRequest{Nodes: "A, B", Edges: "A-B:1", Start: "Q"}, http.StatusUnprocessableEntity, errors.ErrCodeInvalidStartNode, "Q"},
		{"bad json", "{nodes:", http.StatusBadRequest, errors.ErrCodeInvalidInput, ""},
		{"unknown field", `{"nodes":"A","colour":"red"}`, http.StatusBadRequest, errors.ErrCodeInvalidInput, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := expectError(t, do(t, http.MethodPost, ts.URL+"/api/sessions", tt.body), tt.status, tt.code)
			if body.Subject != tt.subject {
				t.Errorf("subject = %q, want %q", body.Subject, tt.subject)
			}
		})
	}
	if store.Len() != 0 {
		t.Errorf("failed submissions stored %d sessions", store.Len())
	}
}

func TestGetSession(t *testing.T) {
	ts, _ := newTestServer(t)
	created := createSession(t, ts)

	resp := do(t, http.MethodGet, ts.URL+"/api/sessions/"+created.Session.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[sessionResponse](t, resp)
	if got.Session.ID != created.Session.ID || got.Trace.Len() != created.Trace.Len() {
		t.Errorf("got session %s with %d steps", got.Session.ID, got.Trace.Len())
	}

	expectError(t, do(t, http.MethodGet, ts.URL+"/api/sessions/00000000-0000-0000-0000-000000000000", nil),
		http.StatusNotFound, errors.ErrCodeSessionNotFound)
}

func TestSetPosition(t *testing.T) {
	ts, _ := newTestServer(t)
	created := createSession(t, ts)
	url := ts.URL + "/api/sessions/" + created.Session.ID + "/position"

	two, slow := 2, 99999
	resp := do(t, http.MethodPut, url, positionRequest{Index: &two, DelayMs: &slow})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[session.Session](t, resp)
	if got.Index != 2 || got.DelayMs != playback.MaxDelay {
		t.Errorf("index=%d delay=%d, want 2 and %d", got.Index, got.DelayMs, playback.MaxDelay)
	}

	tooFar := created.Trace.Len()
	expectError(t, do(t, http.MethodPut, url, positionRequest{Index: &tooFar}),
		http.StatusBadRequest, errors.ErrCodeStepOutOfRange)

	below := -2
	expectError(t, do(t, http.MethodPut, url, positionRequest{Index: &below}),
		http.StatusBadRequest, errors.ErrCodeStepOutOfRange)

	reloaded := decode[sessionResponse](t, do(t, http.MethodGet, ts.URL+"/api/sessions/"+created.Session.ID, nil))
	if reloaded.Session.Index != 2 {
		t.Errorf("rejected update changed index to %d", reloaded.Session.Index)
	}
}

func TestGetStep(t *testing.T) {
	ts, _ := newTestServer(t)
	created := createSession(t, ts)
	base := ts.URL + "/api/sessions/" + created.Session.ID + "/steps/"

	tests := []struct {
		index string
		kind  trace.Kind
	}{
		{"0", trace.KindInitialize},
		{"1", trace.KindSelectNode},
		{"last", trace.KindComplete},
	}
	for _, tt := range tests {
		resp := do(t, http.MethodGet, base+tt.index, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("step %s status = %d", tt.index, resp.StatusCode)
		}
		step := decode[trace.Step](t, resp)
		if step.Kind != tt.kind {
			t.Errorf("step %s kind = %s, want %s", tt.index, step.Kind, tt.kind)
		}
	}

	resp := do(t, http.MethodGet, base+"last", nil)
	if got := resp.Header.Get("X-Step-Count"); got != strconv.Itoa(created.Trace.Len()) {
		t.Errorf("X-Step-Count = %q", got)
	}

	expectError(t, do(t, http.MethodGet, base+"999", nil), http.StatusBadRequest, errors.ErrCodeStepOutOfRange)
	expectError(t, do(t, http.MethodGet, base+"abc", nil), http.StatusBadRequest, errors.ErrCodeStepOutOfRange)
}

func TestRenderStep(t *testing.T) {
	ts, _ := newTestServer(t)
	created := createSession(t, ts)
	base := ts.URL + "/api/sessions/" + created.Session.ID + "/steps/"

	resp := do(t, http.MethodGet, base+"0/dot", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dot status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
		t.Errorf("Content-Type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(body), "digraph G {") {
		t.Errorf("unexpected dot body:\n%s", body)
	}

	resp = do(t, http.MethodGet, base+"last/svg", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("svg status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	body, _ = io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte("<svg")) {
		t.Error("svg body missing <svg> element")
	}

	expectError(t, do(t, http.MethodGet, base+"0/dot?engine=neato", nil), http.StatusBadRequest, errors.ErrCodeInvalidInput)
}

func TestDeleteSession(t *testing.T) {
	ts, store := newTestServer(t)
	created := createSession(t, ts)
	url := ts.URL + "/api/sessions/" + created.Session.ID

	if resp := do(t, http.MethodDelete, url, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	if store.Len() != 0 {
		t.Error("session still stored")
	}
	expectError(t, do(t, http.MethodDelete, url, nil), http.StatusNotFound, errors.ErrCodeSessionNotFound)
	expectError(t, do(t, http.MethodGet, url, nil), http.StatusNotFound, errors.ErrCodeSessionNotFound)
}

func TestNotFoundRoute(t *testing.T) {
	ts, _ := newTestServer(t)
	expectError(t, do(t, http.MethodGet, ts.URL+"/api/nope", nil), http.StatusNotFound, errors.ErrCodeNotFound)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeMalformedEdge, "x"), http.StatusUnprocessableEntity},
		{errors.New(errors.ErrCodeInvalidFormat, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeStepOutOfRange, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeSessionNotFound, "x"), http.StatusNotFound},
		{session.ErrNotFound, http.StatusNotFound},
		{errors.New(errors.ErrCodeUnsupported, "x"), http.StatusNotImplemented},
		{errors.New(errors.ErrCodeInternal, "x"), http.StatusInternalServerError},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

type recordingHTTPHooks struct {
	mu        sync.Mutex
	requests  int
	statuses  []int
	errorSeen int
}

func (h *recordingHTTPHooks) OnRequest(context.Context, string, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests++
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func (h *recordingHTTPHooks) OnError(context.Context, string, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errorSeen++
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	ts, _ := newTestServer(t)
	do(t, http.MethodGet, ts.URL+"/healthz", nil)
	do(t, http.MethodGet, ts.URL+"/api/sessions/00000000-0000-0000-0000-000000000000", nil)

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if hooks.requests != 2 {
		t.Errorf("requests = %d, want 2", hooks.requests)
	}
	if len(hooks.statuses) != 2 || hooks.statuses[0] != http.StatusOK || hooks.statuses[1] != http.StatusNotFound {
		t.Errorf("statuses = %v, want [200 404]", hooks.statuses)
	}
	if hooks.errorSeen != 1 {
		t.Errorf("errors = %d, want 1", hooks.errorSeen)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	srv := New(pipeline.NewRunner(nil, nil, nil), session.NewMemoryStore())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v, want nil after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
