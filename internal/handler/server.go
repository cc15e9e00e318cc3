// Package handler implements the HTTP surface of the Lumina API.
// All handlers are methods on Server. Methods are split into files by
// resource (auth.go, entry.go, health.go) but share the same Server struct
// so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"lumina/internal/domain"
	"lumina/internal/reflection"
)

// EntryServicer defines the entry operations the handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
//
// GetByID and Save match editor.EntryStore, so an EntryServicer can be
// handed straight to the per-request draft editor.
type EntryServicer interface {
	List(ctx context.Context, user *domain.User, query string) []domain.JournalEntry
	GetByID(ctx context.Context, user *domain.User, id uuid.UUID) *domain.JournalEntry
	Save(ctx context.Context, user *domain.User, patch domain.EntryPatch) (domain.JournalEntry, error)
	Delete(ctx context.Context, user *domain.User, id uuid.UUID) error
}

// AuthServicer is the account surface consumed by the auth handlers.
type AuthServicer interface {
	SignUp(ctx context.Context, email, password, displayName string) (*domain.User, string, error)
	SignIn(ctx context.Context, email, password string) (*domain.User, string, error)
}

// SessionManager is the slice of session.Manager the handlers use: token
// resolution for the auth middleware, provider-confirmed logout, and the
// login broadcast.
type SessionManager interface {
	CurrentUser(ctx context.Context, token string) *domain.User
	Logout(ctx context.Context, token string) error
	NotifyLogin(user *domain.User)
}

// Server holds the dependencies for all API endpoints.
type Server struct {
	entries  EntryServicer
	auth     AuthServicer
	sessions SessionManager
	analyzer reflection.Analyzer
	log      *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(entries EntryServicer, auth AuthServicer, sessions SessionManager, analyzer reflection.Analyzer, log *slog.Logger) *Server {
	return &Server{entries: entries, auth: auth, sessions: sessions, analyzer: analyzer, log: log}
}
