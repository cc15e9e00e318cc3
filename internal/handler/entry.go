package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"lumina/internal/editor"
)

// saveEntryRequest is the body for POST /api/entries and PUT /api/entries/{id}.
// Mood and AIReflection are set together or not at all (they come as a pair
// from an earlier reflect call). Reflect asks the server to run the analysis
// inline and merge the result into the draft before committing.
type saveEntryRequest struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	Mood         string `json:"mood"`
	AIReflection string `json:"aiReflection"`
	Reflect      bool   `json:"reflect"`
}

type reflectRequest struct {
	Content string `json:"content"`
}

// listEntries handles GET /api/entries. Reads soft-fail: a store problem
// yields an empty list and a log line, never a 5xx.
func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	entries := s.entries.List(r.Context(), sessionUser(r.Context()), r.URL.Query().Get("search"))
	writeJSON(w, http.StatusOK, entries)
}

// getEntry handles GET /api/entries/{id}. A missing, inaccessible, or
// transiently unreadable entry all present as 404; the caller's recovery
// is the same either way (navigate back to the list).
func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	entry := s.entries.GetByID(r.Context(), sessionUser(r.Context()), id)
	if entry == nil {
		writeError(w, http.StatusNotFound, "not_found", "entry not found")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// saveEntry handles POST /api/entries and PUT /api/entries/{id}. The save
// runs through a per-request draft editor: open, apply the submitted
// fields, optionally run the reflection analysis, commit. PUT accepts the
// literal id "new" as an alias for a create.
func (s *Server) saveEntry(w http.ResponseWriter, r *http.Request) {
	id := uuid.Nil
	if chi.URLParam(r, "id") != "" {
		var ok bool
		if id, ok = entryID(w, r); !ok {
			return
		}
	}

	var req saveEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body must be valid JSON")
		return
	}

	ed := editor.New(s.entries, s.analyzer)
	if err := ed.Open(r.Context(), sessionUser(r.Context()), id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if err := ed.SetTitle(req.Title); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if err := ed.SetContent(req.Content); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if req.Mood != "" || req.AIReflection != "" {
		if err := ed.SetInsight(req.Mood, req.AIReflection); err != nil {
			s.writeDomainError(w, err)
			return
		}
	}
	if req.Reflect {
		// The analyzer is total, so a generator fault still yields a
		// fallback pair and the save proceeds.
		if _, err := ed.RequestReflection(r.Context()); err != nil {
			s.writeDomainError(w, err)
			return
		}
	}

	saved, err := ed.Commit(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	status := http.StatusOK
	if id == uuid.Nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, saved)
}

// deleteEntry handles DELETE /api/entries/{id}. Deleting an absent entry is
// a success; only a store failure is an error, and the row's fate is then
// unknown until the caller re-lists.
func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	if err := s.entries.Delete(r.Context(), sessionUser(r.Context()), id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reflect handles POST /api/entries/{id}/reflect. Always 200 for non-empty
// content: generator faults and malformed output come back as the adapter's
// fallback pairs, not as errors.
func (s *Server) reflect(w http.ResponseWriter, r *http.Request) {
	var req reflectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "content is required")
		return
	}
	writeJSON(w, http.StatusOK, s.analyzer.Analyze(r.Context(), req.Content))
}

// entryID parses the {id} path parameter. The literal "new" maps to
// uuid.Nil (a draft that has never been saved); anything else must be a
// well-formed UUID.
func entryID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "new" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "entry id must be a UUID or the literal \"new\"")
		return uuid.Nil, false
	}
	return id, true
}
