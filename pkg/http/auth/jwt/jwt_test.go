package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenAndParseToken(t *testing.T) {
	secret := []byte("bf284d03-ba65-42d4-a9fe-0d2fbfe61060")
	token, err := GenToken("admin-1", "guildsync", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.UserId)
	assert.Equal(t, "guildsync", claims.Issuer)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := GenToken("admin-1", "guildsync", []byte("a"), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, []byte("b"))
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	secret := []byte("s")
	token, err := GenToken("admin-1", "guildsync", secret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, secret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}
