package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, err := m.Generate("user-1", "ramesh")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ramesh", claims.Username)
}

func TestJWTManager_RejectsGarbage(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	_, err := m.Validate("not.a.token")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestJWTManager_RejectsWrongSecret(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	other := NewJWTManager("different-secret", time.Hour)

	token, err := m.Generate("user-1", "ramesh")
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestJWTManager_RejectsExpired(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute)

	token, err := m.Generate("user-1", "ramesh")
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
