package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"lumina/internal/domain"
)

// ErrorResponse is the wire shape for every non-2xx body.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine code plus a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encode errors at this point cannot be reported to the client anymore;
	// the status line is already on the wire.
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// writeDomainError maps the domain sentinels onto HTTP statuses:
//
//	ErrValidation       → 422
//	ErrNotFound         → 404
//	ErrNotAuthenticated → 401
//	ErrBusy/ErrConflict → 409
//	ErrStore            → 502 (the upstream store failed, not this server)
//
// Anything unrecognized becomes a 500 with a generic body; the wrapped
// detail goes to the log, not the client.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "entry not found")
	case errors.Is(err, domain.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "not_authenticated", "no active session")
	case errors.Is(err, domain.ErrBusy):
		writeError(w, http.StatusConflict, "busy", "another operation is in flight for this draft")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", "entry id belongs to another account")
	case errors.Is(err, domain.ErrStore):
		writeError(w, http.StatusBadGateway, "store_unavailable", "the entry store is unavailable; your changes were not saved")
	default:
		s.log.Error("unhandled handler error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// unwrapMessage extracts the human-readable tail from a wrapped sentinel,
// e.g. "editor.Editor.Commit: validation error: title is required" →
// "title is required". Falls back to the full message when there is no
// recognizable sentinel prefix.
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.LastIndex(msg, domain.ErrValidation.Error()+": "); i >= 0 {
		return msg[i+len(domain.ErrValidation.Error())+2:]
	}
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
