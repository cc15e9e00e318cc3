package domain

import "errors"

// ErrNotFound is returned by repo functions when the requested resource
// does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. empty title or content on save).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrNotAuthenticated is returned when a write is attempted without an
// active session. Fatal to the operation; handlers map it to HTTP 401.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrStore wraps transport or store failures on the write path (save,
// delete, logout). These must be surfaced to the user, never swallowed;
// the in-memory draft is preserved so the user can retry manually.
// Handlers map it to HTTP 502.
var ErrStore = errors.New("store error")

// ErrBusy is returned by the editor when a commit or reflection request
// arrives while another operation is already in flight on the same draft.
// Handlers map it to HTTP 409.
var ErrBusy = errors.New("operation already in flight")

// ErrConflict is returned when an entry id collides with a row owned by a
// different user. Handlers map it to HTTP 409.
var ErrConflict = errors.New("conflict")
