package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hashed, err := HashPassword("changeme")
	require.NoError(t, err)
	assert.NotEqual(t, "changeme", hashed)

	assert.True(t, VerifyPassword(hashed, "changeme"))
	assert.False(t, VerifyPassword(hashed, "wrong"))
	assert.False(t, VerifyPassword("not-a-hash", "changeme"))
}

func TestTokenRoundTrip(t *testing.T) {
	signer := NewSigner("secret", time.Hour)

	token, err := signer.Issue("42", "admin", "admin", []string{"roles:manage"})
	require.NoError(t, err)

	claims, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, []string{"roles:manage"}, claims.Permissions)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewSigner("secret", time.Hour).Issue("42", "admin", "admin", nil)
	require.NoError(t, err)

	_, err = NewSigner("other", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	signer := NewSigner("secret", -time.Minute)

	token, err := signer.Issue("42", "admin", "admin", nil)
	require.NoError(t, err)

	_, err = signer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	_, err := NewSigner("secret", time.Hour).Parse("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
