package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)

	token, err := svc.GenerateToken("42")
	require.NoError(t, err)

	userID, err := svc.ValidateToken(*token)
	require.NoError(t, err)
	assert.Equal(t, "42", *userID)
}

func TestJWTRejects(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)

	other, err := NewJWTService("another-secret", time.Hour).GenerateToken("42")
	require.NoError(t, err)
	_, err = svc.ValidateToken(*other)
	assert.Error(t, err, "wrong signing key")

	expired, err := NewJWTService("secret", -time.Minute).GenerateToken("42")
	require.NoError(t, err)
	_, err = svc.ValidateToken(*expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	noUser := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": jwtIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := noUser.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)

	_, err = svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}
