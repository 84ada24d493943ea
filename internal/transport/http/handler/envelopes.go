package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/card-offer-notifier/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// MarkReadEnvelope reports how many notifications changed to read.
type MarkReadEnvelope struct {
	Updated int `json:"updated"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, ErrorCode: status})
}

// httpError maps domain sentinel errors to HTTP status codes. Anything
// unrecognised is a 500 with a generic message.
func httpError(w http.ResponseWriter, err error) {
	status, msg := errorStatus(err)
	writeError(w, status, msg)
}

// errorStatus returns the status and client-facing message for err. Only
// bad request errors carry their own text; the rest get a fixed message so
// store errors never reach the client.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrJobRunning):
		return http.StatusConflict, "offer job already running"
	case errors.Is(err, domain.ErrCatalogScan):
		return http.StatusServiceUnavailable, "card catalog unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
