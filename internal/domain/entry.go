// Package domain contains the core data types for the Lumina journal backend.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (repo, service, editor, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// JournalEntry is the central entity: one dated entry owned by one user.
// Mood and AIReflection are optional enrichments; an empty string means
// "absent" and is stored as NULL.
type JournalEntry struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"userId"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Date         time.Time `json:"date"` // authored-on timestamp, immutable after creation
	Mood         string    `json:"mood,omitempty"`
	AIReflection string    `json:"aiReflection,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// EntryPatch is the save payload for an entry. A zero ID means "create";
// the store assigns the id. A zero Date means "do not touch the stored
// date" — the date column is written only when the caller supplies it,
// which is how edits preserve the original authored date.
type EntryPatch struct {
	ID           uuid.UUID
	Title        string
	Content      string
	Date         time.Time
	Mood         string
	AIReflection string
}

// IsCreate reports whether this patch describes a not-yet-persisted draft.
func (p EntryPatch) IsCreate() bool {
	return p.ID == uuid.Nil
}
