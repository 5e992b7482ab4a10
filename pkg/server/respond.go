package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pathstep/pkg/errors"
	"github.com/matzehuels/pathstep/pkg/session"
)

type errorBody struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	Subject   string      `json:"subject,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeError reports err with the status implied by its code. The error is
// stashed on the request for the instrumentation middleware.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if rec, ok := w.(*recorder); ok {
		rec.err = err
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	msg := errors.UserMessage(err)
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, map[string]errorBody{"error": {
		Code:      code,
		Message:   msg,
		Subject:   errors.GetSubject(err),
		RequestID: middleware.GetReqID(r.Context()),
	}})
}

// statusFor maps error codes onto HTTP status codes. Graph input errors are
// well-formed requests with unusable content and map to 422.
func statusFor(err error) int {
	if stderrors.Is(err, session.ErrNotFound) {
		return http.StatusNotFound
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeEmptyNodeList, errors.ErrCodeDuplicateNode, errors.ErrCodeMalformedEdge,
		errors.ErrCodeUnknownNodeRef, errors.ErrCodeInvalidWeight, errors.ErrCodeInvalidStartNode:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	switch {
	case errors.IsValidation(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func errNotFound(path string) error {
	return errors.Invalid(errors.ErrCodeNotFound, path, "no route for %s", path)
}

func errSessionNotFound(id string, cause error) error {
	e := errors.Wrap(errors.ErrCodeSessionNotFound, cause, "session %s not found", id)
	e.Subject = id
	return e
}
