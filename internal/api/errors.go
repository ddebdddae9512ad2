package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"streaker/internal/storage"
)

const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json; charset=utf-8"
)

// httpError is an error with a status code and a message safe to show to
// clients.
type httpError struct {
	code  int
	msg   string
	cause error
}

func (e *httpError) Error() string { return e.msg }

func (e *httpError) Unwrap() error { return e.cause }

func errBadRequest(format string, args ...any) *httpError {
	msg := fmt.Sprintf(format, args...)
	return &httpError{code: http.StatusBadRequest, msg: msg, cause: errors.New(msg)}
}

func errNotFound(msg string, cause error) *httpError {
	return &httpError{code: http.StatusNotFound, msg: msg, cause: cause}
}

// appHandler is an http handler that reports failures by returning them.
type appHandler func(w http.ResponseWriter, r *http.Request) error

// handle adapts h to http.HandlerFunc and turns returned errors into JSON
// error responses.
func (s *Server) handle(h appHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}

		var he *httpError
		switch {
		case errors.As(err, &he):
			s.log.Warn("client error", "code", he.code, "msg", he.msg, "path", r.URL.Path, "error", he.cause)
		case errors.Is(err, storage.ErrNotFound):
			he = errNotFound("not found", err)
			s.log.Info("not found", "path", r.URL.Path, "error", err)
		default:
			he = &httpError{code: http.StatusInternalServerError, msg: "internal server error", cause: err}
			s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		}
		respondJSON(w, he.code, map[string]string{"error": he.msg})
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal response", "error", err)
		w.Header().Set(headerContentType, contentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
