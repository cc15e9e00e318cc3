// Package repo contains all database access logic for the Lumina journal API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"lumina/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EntryRepo defines the persistence operations for journal entries.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type EntryRepo interface {
	// List returns all entries owned by ownerID, ordered by date descending.
	List(ctx context.Context, ownerID uuid.UUID) ([]domain.JournalEntry, error)

	// Search returns the owner's entries whose title or content contains q
	// (case-insensitive substring), ordered by date descending.
	Search(ctx context.Context, ownerID uuid.UUID, q string) ([]domain.JournalEntry, error)

	// GetByID retrieves a single entry by id, scoped to ownerID.
	// Returns domain.ErrNotFound if no such entry exists for that owner.
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.JournalEntry, error)

	// Create inserts a new entry and returns the persisted record (with
	// DB-generated id and last_modified populated).
	Create(ctx context.Context, entry domain.JournalEntry) (domain.JournalEntry, error)

	// Update rewrites the editable columns of an existing entry. date and
	// user_id are never touched: an edit must not move the authored date or
	// reassign ownership, so repeating an identical Update yields an
	// identical row. Returns domain.ErrConflict when the id belongs to a
	// different owner and domain.ErrNotFound when the row no longer exists.
	Update(ctx context.Context, entry domain.JournalEntry) (domain.JournalEntry, error)

	// Delete removes an entry by id, scoped to ownerID. Deleting an absent
	// row is a no-op, not an error — deletion is idempotent.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// pgEntryRepo is the Postgres implementation of EntryRepo.
type pgEntryRepo struct {
	db db
}

// NewEntryRepo constructs an EntryRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewEntryRepo(db db) EntryRepo {
	return &pgEntryRepo{db: db}
}

const entryColumns = `id, user_id, title, content, date, mood, ai_reflection, last_modified`

// List returns the owner's entries, most recently authored first.
func (r *pgEntryRepo) List(ctx context.Context, ownerID uuid.UUID) ([]domain.JournalEntry, error) {
	const q = `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE user_id = @user_id
		ORDER BY date DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("repo.EntryRepo.List: %w", err)
	}
	defer rows.Close()

	entries, err := collectEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.EntryRepo.List: %w", err)
	}
	return entries, nil
}

// Search filters the owner's entries by case-insensitive substring over
// title and content.
func (r *pgEntryRepo) Search(ctx context.Context, ownerID uuid.UUID, q string) ([]domain.JournalEntry, error) {
	const query = `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE user_id = @user_id
		  AND (title ILIKE @pattern OR content ILIKE @pattern)
		ORDER BY date DESC`

	args := pgx.NamedArgs{
		"user_id": ownerID,
		"pattern": "%" + escapeLike(q) + "%",
	}

	rows, err := r.db.Query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("repo.EntryRepo.Search: %w", err)
	}
	defer rows.Close()

	entries, err := collectEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.EntryRepo.Search: %w", err)
	}
	return entries, nil
}

// GetByID retrieves an entry by primary key, scoped to its owner.
func (r *pgEntryRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.JournalEntry, error) {
	const q = `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE id = @id AND user_id = @user_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "user_id": ownerID})
	result, err := scanEntry(row)
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("repo.EntryRepo.GetByID: %w", err)
	}
	return result, nil
}

// Create inserts a new entry row and returns the full persisted record.
func (r *pgEntryRepo) Create(ctx context.Context, entry domain.JournalEntry) (domain.JournalEntry, error) {
	const q = `
		INSERT INTO entries (user_id, title, content, date, mood, ai_reflection, last_modified)
		VALUES (@user_id, @title, @content, @date, @mood, @ai_reflection, now())
		RETURNING ` + entryColumns

	row := r.db.QueryRow(ctx, q, entryArgs(entry))
	result, err := scanEntry(row)
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("repo.EntryRepo.Create: %w", err)
	}
	return result, nil
}

// Update rewrites the editable columns of an existing entry. The SET list
// deliberately leaves date and user_id out: an edit must never move the
// authored date or reassign ownership. The owner scope in the WHERE clause
// makes a cross-owner id collision update nothing, and a row that vanished
// between load and save fails loudly instead of being resurrected.
func (r *pgEntryRepo) Update(ctx context.Context, entry domain.JournalEntry) (domain.JournalEntry, error) {
	const q = `
		UPDATE entries SET
			title         = @title,
			content       = @content,
			mood          = @mood,
			ai_reflection = @ai_reflection,
			last_modified = now()
		WHERE id = @id AND user_id = @user_id
		RETURNING ` + entryColumns

	args := pgx.NamedArgs{
		"id":            entry.ID,
		"user_id":       entry.OwnerID,
		"title":         entry.Title,
		"content":       entry.Content,
		"mood":          nullIfEmpty(entry.Mood),
		"ai_reflection": nullIfEmpty(entry.AIReflection),
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.JournalEntry{}, r.classifyUpdateMiss(ctx, entry.ID)
		}
		return domain.JournalEntry{}, fmt.Errorf("repo.EntryRepo.Update: %w", err)
	}
	return result, nil
}

// classifyUpdateMiss tells apart the two ways an owner-scoped UPDATE can
// match zero rows: the id is held by another owner (conflict) or the row
// is gone (not found).
func (r *pgEntryRepo) classifyUpdateMiss(ctx context.Context, id uuid.UUID) error {
	const q = `SELECT EXISTS (SELECT 1 FROM entries WHERE id = @id)`

	var taken bool
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}).Scan(&taken); err != nil {
		return fmt.Errorf("repo.EntryRepo.Update: %w", err)
	}
	if taken {
		return fmt.Errorf("repo.EntryRepo.Update: %w", domain.ErrConflict)
	}
	return fmt.Errorf("repo.EntryRepo.Update: %w", domain.ErrNotFound)
}

// Delete removes an entry by primary key, scoped to its owner.
// Zero rows affected is success: the end state is the same either way.
func (r *pgEntryRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	const q = `DELETE FROM entries WHERE id = @id AND user_id = @user_id`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "user_id": ownerID}); err != nil {
		return fmt.Errorf("repo.EntryRepo.Delete: %w", err)
	}
	return nil
}

// entryArgs maps the insert columns for Create. Empty mood/reflection
// become NULL so "absent" round-trips cleanly; a zero Date becomes NULL so
// a missing authored date trips the NOT NULL constraint instead of storing
// the zero time.
func entryArgs(entry domain.JournalEntry) pgx.NamedArgs {
	var date any
	if !entry.Date.IsZero() {
		date = entry.Date
	}
	return pgx.NamedArgs{
		"user_id":       entry.OwnerID,
		"title":         entry.Title,
		"content":       entry.Content,
		"date":          date,
		"mood":          nullIfEmpty(entry.Mood),
		"ai_reflection": nullIfEmpty(entry.AIReflection),
	}
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search input
// so "%" and "_" match literally.
func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanEntry to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanEntry maps a single database row into a domain.JournalEntry.
// It handles the UUID and nullable mood/ai_reflection conversions.
func scanEntry(s scanner) (domain.JournalEntry, error) {
	var (
		e          domain.JournalEntry
		id         pgtype.UUID
		ownerID    pgtype.UUID
		mood       pgtype.Text
		reflection pgtype.Text
	)

	err := s.Scan(&id, &ownerID, &e.Title, &e.Content, &e.Date, &mood, &reflection, &e.LastModified)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.JournalEntry{}, domain.ErrNotFound
		}
		return domain.JournalEntry{}, err
	}

	e.ID = uuid.UUID(id.Bytes)
	e.OwnerID = uuid.UUID(ownerID.Bytes)
	if mood.Valid {
		e.Mood = mood.String
	}
	if reflection.Valid {
		e.AIReflection = reflection.String
	}

	return e, nil
}

// collectEntries drains rows into a slice, checking rows.Err at the end.
func collectEntries(rows pgx.Rows) ([]domain.JournalEntry, error) {
	var entries []domain.JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return entries, nil
}
