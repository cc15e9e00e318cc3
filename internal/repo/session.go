package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"lumina/internal/domain"
)

// SessionRecord is a stored login session. Tokens are stored hashed; the
// raw token exists only in the client's hands.
type SessionRecord struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionRepo defines the persistence operations for login sessions.
// The auth provider consults it on every request, so a deleted row is an
// immediately effective logout.
type SessionRepo interface {
	// Create inserts a new session row for the user.
	Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (SessionRecord, error)

	// GetByTokenHash retrieves a live (unexpired) session by token hash.
	// Returns domain.ErrNotFound for unknown or expired tokens.
	GetByTokenHash(ctx context.Context, tokenHash string) (SessionRecord, error)

	// Delete removes a session by token hash. Returns domain.ErrNotFound
	// if no such session exists — logout of a dead session is reported,
	// not silently absorbed, so the caller knows the provider state.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteExpired removes all sessions past their expiry and reports
	// how many rows were purged.
	DeleteExpired(ctx context.Context) (int64, error)
}

type pgSessionRepo struct {
	db db
}

// NewSessionRepo constructs a SessionRepo backed by the provided db connection.
func NewSessionRepo(db db) SessionRepo {
	return &pgSessionRepo{db: db}
}

const sessionColumns = `id, user_id, token_hash, created_at, expires_at`

func (r *pgSessionRepo) Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (SessionRecord, error) {
	const q = `
		INSERT INTO sessions (user_id, token_hash, expires_at)
		VALUES (@user_id, @token_hash, @expires_at)
		RETURNING ` + sessionColumns

	args := pgx.NamedArgs{
		"user_id":    userID,
		"token_hash": tokenHash,
		"expires_at": expiresAt,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanSession(row)
	if err != nil {
		return SessionRecord{}, fmt.Errorf("repo.SessionRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgSessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (SessionRecord, error) {
	const q = `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE token_hash = @token_hash AND expires_at > now()`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"token_hash": tokenHash})
	result, err := scanSession(row)
	if err != nil {
		return SessionRecord{}, fmt.Errorf("repo.SessionRepo.GetByTokenHash: %w", err)
	}
	return result, nil
}

func (r *pgSessionRepo) Delete(ctx context.Context, tokenHash string) error {
	const q = `DELETE FROM sessions WHERE token_hash = @token_hash`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"token_hash": tokenHash})
	if err != nil {
		return fmt.Errorf("repo.SessionRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.SessionRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM sessions WHERE expires_at <= now()`

	tag, err := r.db.Exec(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("repo.SessionRepo.DeleteExpired: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSession(s scanner) (SessionRecord, error) {
	var (
		rec    SessionRecord
		id     pgtype.UUID
		userID pgtype.UUID
	)

	err := s.Scan(&id, &userID, &rec.TokenHash, &rec.CreatedAt, &rec.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SessionRecord{}, domain.ErrNotFound
		}
		return SessionRecord{}, err
	}

	rec.ID = uuid.UUID(id.Bytes)
	rec.UserID = uuid.UUID(userID.Bytes)
	return rec, nil
}
