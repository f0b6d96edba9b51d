package jwtutil

import (
	"testing"

	"github.com/ogboNoble001/brightnal-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	j := NewJWTUtil(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})

	token, err := j.GenerateToken(7, "ada@example.com", "admin")
	require.NoError(t, err)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	issuer := NewJWTUtil(&config.JWTConfig{SigningKey: "key-a", ExpirationHours: 1})
	verifier := NewJWTUtil(&config.JWTConfig{SigningKey: "key-b", ExpirationHours: 1})

	token, err := issuer.GenerateToken(7, "ada@example.com", "customer")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	j := NewJWTUtil(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: -1})

	token, err := j.GenerateToken(7, "ada@example.com", "customer")
	require.NoError(t, err)

	_, err = j.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	j := NewJWTUtil(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})

	_, err := j.ValidateToken("not-a-token")
	assert.Error(t, err)
}
