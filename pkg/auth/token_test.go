package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateValidateRoundTrip(t *testing.T) {
	svc := NewAPITokenService("test-secret", time.Hour)
	providerUUID := uuid.New()

	token, err := svc.Generate(providerUUID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, providerUUID, got)
}

func TestValidateWrongSecret(t *testing.T) {
	token, err := NewAPITokenService("secret-a", time.Hour).Generate(uuid.New())
	require.NoError(t, err)

	_, err = NewAPITokenService("secret-b", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpired(t *testing.T) {
	svc := NewAPITokenService("test-secret", -time.Minute)

	token, err := svc.Generate(uuid.New())
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateGarbage(t *testing.T) {
	svc := NewAPITokenService("test-secret", time.Hour)

	_, err := svc.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWithoutExpiryNeverExpires(t *testing.T) {
	svc := NewAPITokenService("test-secret", 0)

	token, err := svc.Generate(uuid.New())
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.NoError(t, err)
}
