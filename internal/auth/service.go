package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"lumina/internal/domain"
	"lumina/internal/repo"
)

// ErrInvalidCredentials is returned for a bad email/password pair. It is
// the same error for "no such account" and "wrong password" so responses
// do not leak which emails are registered.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service implements signup, login, and the session.Provider contract.
type Service struct {
	users    repo.UserRepo
	sessions repo.SessionRepo
	jwt      *JWTManager
	ttl      time.Duration
}

// NewService constructs the auth service.
func NewService(users repo.UserRepo, sessions repo.SessionRepo, jwt *JWTManager, ttl time.Duration) *Service {
	return &Service{users: users, sessions: sessions, jwt: jwt, ttl: ttl}
}

// SignUp registers a new account and opens a session for it.
// Returns domain.ErrConflict if the email is taken, domain.ErrValidation
// for an empty email or password.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*domain.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("auth.Service.SignUp: hash password: %w", err)
	}

	record, err := s.users.Create(ctx, email, strings.TrimSpace(displayName), string(hashed))
	if err != nil {
		return nil, "", fmt.Errorf("auth.Service.SignUp: %w", err)
	}

	user := record.User()
	token, err := s.openSession(ctx, record)
	if err != nil {
		return nil, "", fmt.Errorf("auth.Service.SignUp: %w", err)
	}
	return &user, token, nil
}

// SignIn checks credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*domain.User, string, error) {
	record, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("auth.Service.SignIn: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	user := record.User()
	token, err := s.openSession(ctx, record)
	if err != nil {
		return nil, "", fmt.Errorf("auth.Service.SignIn: %w", err)
	}
	return &user, token, nil
}

// CurrentUser resolves a bearer token to an identity. The token must be a
// valid JWT AND have a live session row: deleting the row logs the session
// out immediately, whatever the JWT's expiry says.
func (s *Service) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.jwt.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("auth.Service.CurrentUser: %w", err)
	}

	if _, err := s.sessions.GetByTokenHash(ctx, HashToken(token)); err != nil {
		return nil, fmt.Errorf("auth.Service.CurrentUser: session: %w", err)
	}

	record, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("auth.Service.CurrentUser: %w", err)
	}

	user := record.User()
	return &user, nil
}

// SignOut deletes the session row. A store failure is returned as-is: the
// session is then still live and the caller must not pretend otherwise.
// Signing out an already-dead session succeeds — the end state matches.
func (s *Service) SignOut(ctx context.Context, token string) error {
	err := s.sessions.Delete(ctx, HashToken(token))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("auth.Service.SignOut: %w: %w", domain.ErrStore, err)
	}
	return nil
}

// PurgeExpiredSessions removes sessions past their expiry. Wired to a
// background ticker in main.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx)
}

// openSession issues a JWT and records its hashed session row.
func (s *Service) openSession(ctx context.Context, record repo.UserRecord) (string, error) {
	token, err := s.jwt.Generate(record.ID)
	if err != nil {
		return "", err
	}
	if _, err := s.sessions.Create(ctx, record.ID, HashToken(token), time.Now().Add(s.ttl)); err != nil {
		return "", err
	}
	return token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
