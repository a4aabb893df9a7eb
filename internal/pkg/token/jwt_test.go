package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("segredo", time.Hour)

	tok, err := svc.GenerateToken("user-1", "maria@example.com")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "maria@example.com", claims.Email)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestValidate_WrongSecretAndExpired(t *testing.T) {
	tok, err := NewService("a", time.Hour).GenerateToken("user-1", "x@y.z")
	require.NoError(t, err)
	_, err = NewService("b", time.Hour).ValidateToken(tok)
	assert.Error(t, err)

	expired := NewService("a", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tok, err = expired.GenerateToken("user-1", "x@y.z")
	require.NoError(t, err)
	_, err = NewService("a", time.Minute).ValidateToken(tok)
	assert.Error(t, err)
}
