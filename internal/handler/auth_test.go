package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina/internal/auth"
	"lumina/internal/domain"
	"lumina/internal/handler"
)

type mockAuthServicer struct {
	signUp func(ctx context.Context, email, password, displayName string) (*domain.User, string, error)
	signIn func(ctx context.Context, email, password string) (*domain.User, string, error)
}

func (m *mockAuthServicer) SignUp(ctx context.Context, email, password, displayName string) (*domain.User, string, error) {
	return m.signUp(ctx, email, password, displayName)
}
func (m *mockAuthServicer) SignIn(ctx context.Context, email, password string) (*domain.User, string, error) {
	return m.signIn(ctx, email, password)
}

var _ handler.AuthServicer = (*mockAuthServicer)(nil)

func TestSignUp_201_BroadcastsLogin(t *testing.T) {
	user := userFixture()
	authSvc := &mockAuthServicer{
		signUp: func(_ context.Context, email, password, name string) (*domain.User, string, error) {
			assert.Equal(t, "new@example.com", email)
			return user, "issued-token", nil
		},
	}
	var broadcast *domain.User
	sessions := &mockSessions{notifyLogin: func(u *domain.User) { broadcast = u }}

	body := jsonBody(t, map[string]any{"email": "new@example.com", "password": "pw", "name": "New"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newAPI(nil, authSvc, sessions, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Token string      `json:"token"`
		User  domain.User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "issued-token", resp.Token)
	assert.Equal(t, user.ID, resp.User.ID)
	require.NotNil(t, broadcast, "subscribers learn about the new session")
	assert.Equal(t, user.ID, broadcast.ID)
}

func TestSignUp_409_DuplicateEmail(t *testing.T) {
	authSvc := &mockAuthServicer{
		signUp: func(context.Context, string, string, string) (*domain.User, string, error) {
			return nil, "", fmt.Errorf("auth.Service.SignUp: %w", domain.ErrConflict)
		},
	}

	body := jsonBody(t, map[string]any{"email": "dup@example.com", "password": "pw", "name": "X"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", body)
	rec := httptest.NewRecorder()

	newAPI(nil, authSvc, &mockSessions{}, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignUp_422_Validation(t *testing.T) {
	authSvc := &mockAuthServicer{
		signUp: func(context.Context, string, string, string) (*domain.User, string, error) {
			return nil, "", fmt.Errorf("auth.Service.SignUp: %w: email is required", domain.ErrValidation)
		},
	}

	body := jsonBody(t, map[string]any{"password": "pw"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", body)
	rec := httptest.NewRecorder()

	newAPI(nil, authSvc, &mockSessions{}, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "email is required", resp.Error.Message)
}

func TestSignIn_200(t *testing.T) {
	user := userFixture()
	authSvc := &mockAuthServicer{
		signIn: func(context.Context, string, string) (*domain.User, string, error) {
			return user, "issued-token", nil
		},
	}

	body := jsonBody(t, map[string]any{"email": user.Email, "password": "pw"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()

	newAPI(nil, authSvc, &mockSessions{}, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignIn_401_BadCredentials(t *testing.T) {
	authSvc := &mockAuthServicer{
		signIn: func(context.Context, string, string) (*domain.User, string, error) {
			return nil, "", fmt.Errorf("auth.Service.SignIn: %w", auth.ErrInvalidCredentials)
		},
	}
	notified := false
	sessions := &mockSessions{notifyLogin: func(*domain.User) { notified = true }}

	body := jsonBody(t, map[string]any{"email": "user@example.com", "password": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()

	newAPI(nil, authSvc, sessions, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, notified, "a failed login must not broadcast a session change")
}

func TestSignIn_400_MalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	newAPI(nil, &mockAuthServicer{}, &mockSessions{}, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "bad_request", resp.Error.Code)
}

func TestSignOut_204(t *testing.T) {
	user := userFixture()
	var seenToken string
	sessions := &mockSessions{
		user:   user,
		logout: func(_ context.Context, token string) error { seenToken = token; return nil },
	}

	rec := httptest.NewRecorder()
	newAPI(nil, nil, sessions, nil).
		ServeHTTP(rec, authedRequest(http.MethodPost, "/api/auth/logout", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "token", seenToken, "logout terminates the presented session, not some other one")
}

func TestSignOut_502_ProviderFailure(t *testing.T) {
	user := userFixture()
	sessions := &mockSessions{
		user: user,
		logout: func(context.Context, string) error {
			return fmt.Errorf("auth.Service.SignOut: %w: connection refused", domain.ErrStore)
		},
	}

	rec := httptest.NewRecorder()
	newAPI(nil, nil, sessions, nil).
		ServeHTTP(rec, authedRequest(http.MethodPost, "/api/auth/logout", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code, "the caller is still logged in and must know it")
}

func TestSignOut_401_WithoutSession(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)

	newAPI(nil, nil, &mockSessions{user: nil}, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthz_200(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	newAPI(nil, nil, &mockSessions{}, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
