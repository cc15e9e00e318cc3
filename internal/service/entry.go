// Package service contains the business logic for the Lumina journal API.
// Services validate inputs, enforce ownership, and orchestrate repo calls.
// No SQL lives here — services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"lumina/internal/domain"
	"lumina/internal/repo"
)

// EntryService implements the entry persistence workflow.
//
// Failure policy, deliberately asymmetric:
//   - Reads (List, Search, GetByID) soft-fail: a store problem degrades to
//     "no entries" rather than an error page. The caller cannot distinguish
//     empty from broken; that trade-off is accepted.
//   - Writes (Save, Delete) propagate: the user must know a save or delete
//     did not happen so they can retry with their draft intact.
type EntryService struct {
	entries repo.EntryRepo
	log     *slog.Logger
}

// NewEntryService constructs an EntryService backed by the provided EntryRepo.
func NewEntryService(entries repo.EntryRepo, log *slog.Logger) *EntryService {
	return &EntryService{entries: entries, log: log}
}

// List returns the user's entries ordered by date descending, optionally
// filtered by a case-insensitive substring over title and content.
// Always returns a non-nil slice; store failures are logged and absorbed.
func (s *EntryService) List(ctx context.Context, user *domain.User, query string) []domain.JournalEntry {
	if user == nil {
		return []domain.JournalEntry{}
	}

	var (
		entries []domain.JournalEntry
		err     error
	)
	if q := strings.TrimSpace(query); q != "" {
		entries, err = s.entries.Search(ctx, user.ID, q)
	} else {
		entries, err = s.entries.List(ctx, user.ID)
	}
	if err != nil {
		s.log.Warn("entry list degraded to empty", "user_id", user.ID, "error", err)
		return []domain.JournalEntry{}
	}
	if entries == nil {
		return []domain.JournalEntry{}
	}
	return entries
}

// GetByID returns the user's entry with the given id, or nil when the entry
// does not exist or the fetch failed. The two cases are indistinguishable
// here; callers treat nil as "navigate away".
func (s *EntryService) GetByID(ctx context.Context, user *domain.User, id uuid.UUID) *domain.JournalEntry {
	if user == nil {
		return nil
	}

	entry, err := s.entries.GetByID(ctx, user.ID, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("entry fetch degraded to none", "entry_id", id, "error", err)
		}
		return nil
	}
	return &entry
}

// Save persists the patch under the given session identity.
//
// A zero patch.ID inserts; the store assigns the id. A non-zero id updates
// the existing row. The owner is always pinned from the session, never from
// the payload. The authored date is written only on create (patch date,
// defaulting to now); an update never touches it, so the stored value
// survives.
//
// Returns domain.ErrNotAuthenticated when user is nil, domain.ErrValidation
// for empty title or content, domain.ErrConflict for a cross-owner id
// collision, domain.ErrNotFound when the updated row no longer exists, and
// domain.ErrStore for transport/store failures.
func (s *EntryService) Save(ctx context.Context, user *domain.User, patch domain.EntryPatch) (domain.JournalEntry, error) {
	if user == nil {
		return domain.JournalEntry{}, fmt.Errorf("service.EntryService.Save: %w", domain.ErrNotAuthenticated)
	}
	if strings.TrimSpace(patch.Title) == "" {
		return domain.JournalEntry{}, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if strings.TrimSpace(patch.Content) == "" {
		return domain.JournalEntry{}, fmt.Errorf("%w: content is required", domain.ErrValidation)
	}

	entry := domain.JournalEntry{
		ID:           patch.ID,
		OwnerID:      user.ID, // pinned from the session, whatever the caller sent
		Title:        patch.Title,
		Content:      patch.Content,
		Date:         patch.Date,
		Mood:         patch.Mood,
		AIReflection: patch.AIReflection,
	}

	var (
		saved domain.JournalEntry
		err   error
	)
	if patch.IsCreate() {
		if entry.Date.IsZero() {
			entry.Date = time.Now().UTC()
		}
		saved, err = s.entries.Create(ctx, entry)
	} else {
		saved, err = s.entries.Update(ctx, entry)
	}
	if err != nil {
		if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) {
			return domain.JournalEntry{}, fmt.Errorf("service.EntryService.Save: %w", err)
		}
		return domain.JournalEntry{}, fmt.Errorf("service.EntryService.Save: %w: %w", domain.ErrStore, err)
	}
	return saved, nil
}

// Delete removes the user's entry by id. Deleting an absent entry succeeds;
// only transport/store failures are reported, wrapped in domain.ErrStore.
func (s *EntryService) Delete(ctx context.Context, user *domain.User, id uuid.UUID) error {
	if user == nil {
		return fmt.Errorf("service.EntryService.Delete: %w", domain.ErrNotAuthenticated)
	}

	if err := s.entries.Delete(ctx, user.ID, id); err != nil {
		return fmt.Errorf("service.EntryService.Delete: %w: %w", domain.ErrStore, err)
	}
	return nil
}
