package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"lumina/internal/domain"
)

// UserRecord is a stored account: the domain identity projection plus the
// credential hash, which never leaves the auth layer.
type UserRecord struct {
	ID           uuid.UUID
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// User projects the record into the identity type the rest of the core
// passes around.
func (u UserRecord) User() domain.User {
	return domain.User{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName}
}

// UserRepo defines the persistence operations for user accounts.
type UserRepo interface {
	// Create inserts a new account. Returns domain.ErrConflict if the
	// email is already registered.
	Create(ctx context.Context, email, displayName, passwordHash string) (UserRecord, error)

	// GetByEmail retrieves an account by email.
	// Returns domain.ErrNotFound if no such account exists.
	GetByEmail(ctx context.Context, email string) (UserRecord, error)

	// GetByID retrieves an account by primary key.
	// Returns domain.ErrNotFound if no such account exists.
	GetByID(ctx context.Context, id uuid.UUID) (UserRecord, error)
}

type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

const userColumns = `id, email, display_name, password_hash, created_at`

func (r *pgUserRepo) Create(ctx context.Context, email, displayName, passwordHash string) (UserRecord, error) {
	const q = `
		INSERT INTO users (email, display_name, password_hash)
		VALUES (@email, @display_name, @password_hash)
		RETURNING ` + userColumns

	args := pgx.NamedArgs{
		"email":         email,
		"display_name":  displayName,
		"password_hash": passwordHash,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return UserRecord{}, fmt.Errorf("repo.UserRepo.Create: %w", domain.ErrConflict)
		}
		return UserRecord{}, fmt.Errorf("repo.UserRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByEmail(ctx context.Context, email string) (UserRecord, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = @email`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"email": email})
	result, err := scanUser(row)
	if err != nil {
		return UserRecord{}, fmt.Errorf("repo.UserRepo.GetByEmail: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (UserRecord, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanUser(row)
	if err != nil {
		return UserRecord{}, fmt.Errorf("repo.UserRepo.GetByID: %w", err)
	}
	return result, nil
}

func scanUser(s scanner) (UserRecord, error) {
	var (
		u  UserRecord
		id pgtype.UUID
	)

	err := s.Scan(&id, &u.Email, &u.DisplayName, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, domain.ErrNotFound
		}
		return UserRecord{}, err
	}

	u.ID = uuid.UUID(id.Bytes)
	return u, nil
}
