package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina/internal/auth"
)

const testSecret = "test-secret-at-least-32-characters-long"

func TestJWT_RoundTrip(t *testing.T) {
	m := auth.NewJWTManager(testSecret, time.Hour)
	userID := uuid.New()

	token, err := m.Generate(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestJWT_Expired(t *testing.T) {
	m := auth.NewJWTManager(testSecret, -time.Minute)

	token, err := m.Generate(uuid.New())
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.Error(t, err)
}

func TestJWT_WrongSecret(t *testing.T) {
	token, err := auth.NewJWTManager(testSecret, time.Hour).Generate(uuid.New())
	require.NoError(t, err)

	_, err = auth.NewJWTManager("a-completely-different-32-char-secret!!", time.Hour).Validate(token)
	assert.Error(t, err)
}

func TestJWT_EmptyToken(t *testing.T) {
	_, err := auth.NewJWTManager(testSecret, time.Hour).Validate("")
	assert.Error(t, err)
}

func TestHashToken_StableAndHex(t *testing.T) {
	a := auth.HashToken("some-token")
	b := auth.HashToken("some-token")
	c := auth.HashToken("other-token")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64, "sha-256 hex digest")
}
