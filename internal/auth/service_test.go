package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"lumina/internal/auth"
	"lumina/internal/domain"
	"lumina/internal/repo"
)

// mockUserRepo and mockSessionRepo are hand-written doubles in the same
// function-field style as the service tests.
type mockUserRepo struct {
	create     func(ctx context.Context, email, displayName, passwordHash string) (repo.UserRecord, error)
	getByEmail func(ctx context.Context, email string) (repo.UserRecord, error)
	getByID    func(ctx context.Context, id uuid.UUID) (repo.UserRecord, error)
}

func (m *mockUserRepo) Create(ctx context.Context, email, displayName, passwordHash string) (repo.UserRecord, error) {
	return m.create(ctx, email, displayName, passwordHash)
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (repo.UserRecord, error) {
	return m.getByEmail(ctx, email)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (repo.UserRecord, error) {
	return m.getByID(ctx, id)
}

var _ repo.UserRepo = (*mockUserRepo)(nil)

type mockSessionRepo struct {
	create         func(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (repo.SessionRecord, error)
	getByTokenHash func(ctx context.Context, tokenHash string) (repo.SessionRecord, error)
	delete         func(ctx context.Context, tokenHash string) error
	deleteExpired  func(ctx context.Context) (int64, error)
}

func (m *mockSessionRepo) Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (repo.SessionRecord, error) {
	return m.create(ctx, userID, tokenHash, expiresAt)
}
func (m *mockSessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (repo.SessionRecord, error) {
	return m.getByTokenHash(ctx, tokenHash)
}
func (m *mockSessionRepo) Delete(ctx context.Context, tokenHash string) error {
	return m.delete(ctx, tokenHash)
}
func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return m.deleteExpired(ctx)
}

var _ repo.SessionRepo = (*mockSessionRepo)(nil)

// ---- helpers ---------------------------------------------------------------

func okSessions() *mockSessionRepo {
	return &mockSessionRepo{
		create: func(_ context.Context, userID uuid.UUID, hash string, exp time.Time) (repo.SessionRecord, error) {
			return repo.SessionRecord{ID: uuid.New(), UserID: userID, TokenHash: hash, ExpiresAt: exp}, nil
		},
		getByTokenHash: func(_ context.Context, hash string) (repo.SessionRecord, error) {
			return repo.SessionRecord{TokenHash: hash}, nil
		},
		delete: func(context.Context, string) error { return nil },
	}
}

func storedUser(t *testing.T, email, password string) repo.UserRecord {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return repo.UserRecord{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  "Stored",
		PasswordHash: string(hash),
	}
}

func newAuth(users repo.UserRepo, sessions repo.SessionRepo) *auth.Service {
	return auth.NewService(users, sessions, auth.NewJWTManager(testSecret, time.Hour), time.Hour)
}

// ---- SignUp ----------------------------------------------------------------

func TestSignUp_CreatesAccountAndSession(t *testing.T) {
	var createdHash string
	users := &mockUserRepo{
		create: func(_ context.Context, email, name, passwordHash string) (repo.UserRecord, error) {
			createdHash = passwordHash
			return repo.UserRecord{ID: uuid.New(), Email: email, DisplayName: name, PasswordHash: passwordHash}, nil
		},
	}
	svc := newAuth(users, okSessions())

	user, token, err := svc.SignUp(context.Background(), "  New@Example.COM ", "hunter22", "New User")

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "new@example.com", user.Email, "email normalized before storage")
	assert.NotEmpty(t, token)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(createdHash), []byte("hunter22")))
}

func TestSignUp_MissingFields(t *testing.T) {
	svc := newAuth(&mockUserRepo{}, okSessions())

	_, _, err := svc.SignUp(context.Background(), "", "pw", "X")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = svc.SignUp(context.Background(), "a@b.c", "", "X")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	users := &mockUserRepo{
		create: func(context.Context, string, string, string) (repo.UserRecord, error) {
			return repo.UserRecord{}, domain.ErrConflict
		},
	}
	svc := newAuth(users, okSessions())

	_, _, err := svc.SignUp(context.Background(), "dup@example.com", "pw", "X")

	assert.ErrorIs(t, err, domain.ErrConflict)
}

// ---- SignIn ----------------------------------------------------------------

func TestSignIn_Valid(t *testing.T) {
	record := storedUser(t, "user@example.com", "correct horse")
	users := &mockUserRepo{
		getByEmail: func(context.Context, string) (repo.UserRecord, error) { return record, nil },
	}
	svc := newAuth(users, okSessions())

	user, token, err := svc.SignIn(context.Background(), "user@example.com", "correct horse")

	require.NoError(t, err)
	assert.Equal(t, record.ID, user.ID)
	assert.NotEmpty(t, token)
}

func TestSignIn_WrongPassword(t *testing.T) {
	record := storedUser(t, "user@example.com", "correct horse")
	users := &mockUserRepo{
		getByEmail: func(context.Context, string) (repo.UserRecord, error) { return record, nil },
	}
	svc := newAuth(users, okSessions())

	_, _, err := svc.SignIn(context.Background(), "user@example.com", "battery staple")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestSignIn_UnknownEmailSameError(t *testing.T) {
	users := &mockUserRepo{
		getByEmail: func(context.Context, string) (repo.UserRecord, error) {
			return repo.UserRecord{}, domain.ErrNotFound
		},
	}
	svc := newAuth(users, okSessions())

	_, _, err := svc.SignIn(context.Background(), "ghost@example.com", "pw")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials,
		"unknown email and wrong password must be indistinguishable")
}

// ---- CurrentUser -----------------------------------------------------------

func TestCurrentUser_RevokedSessionRejected(t *testing.T) {
	record := storedUser(t, "user@example.com", "pw")
	users := &mockUserRepo{
		getByID: func(context.Context, uuid.UUID) (repo.UserRecord, error) { return record, nil },
	}
	sessions := okSessions()
	sessions.getByTokenHash = func(context.Context, string) (repo.SessionRecord, error) {
		return repo.SessionRecord{}, domain.ErrNotFound // row deleted: logged out
	}
	svc := newAuth(users, sessions)

	token, err := auth.NewJWTManager(testSecret, time.Hour).Generate(record.ID)
	require.NoError(t, err)

	_, err = svc.CurrentUser(context.Background(), token)

	assert.Error(t, err, "a valid JWT without a live session row is not a session")
}

func TestCurrentUser_GarbageToken(t *testing.T) {
	svc := newAuth(&mockUserRepo{}, okSessions())

	_, err := svc.CurrentUser(context.Background(), "not-a-jwt")

	assert.Error(t, err)
}

// ---- SignOut ---------------------------------------------------------------

func TestSignOut_StoreFailurePropagates(t *testing.T) {
	sessions := okSessions()
	sessions.delete = func(context.Context, string) error {
		return errors.New("connection reset")
	}
	svc := newAuth(&mockUserRepo{}, sessions)

	err := svc.SignOut(context.Background(), "token")

	assert.ErrorIs(t, err, domain.ErrStore)
}

func TestSignOut_AlreadyGoneSucceeds(t *testing.T) {
	sessions := okSessions()
	sessions.delete = func(context.Context, string) error {
		return domain.ErrNotFound
	}
	svc := newAuth(&mockUserRepo{}, sessions)

	assert.NoError(t, svc.SignOut(context.Background(), "token"))
}
