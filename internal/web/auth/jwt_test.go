package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yahoo/elide-sub004/internal/dictionary"
)

func TestTokenService_RoundTrip(t *testing.T) {
	s := NewTokenService("secret", time.Hour)

	token, err := s.GenerateToken(&dictionary.User{Name: "ada", Roles: []string{"admin"}})
	require.NoError(t, err)

	user, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ada", user.Name)
	assert.True(t, user.InRole("admin"))
}

func TestTokenService_Rejects(t *testing.T) {
	s := NewTokenService("secret", time.Hour)
	valid, err := s.GenerateToken(&dictionary.User{Name: "ada"})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenService("other", time.Hour).ValidateToken(valid)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokenService("secret", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.ValidateToken(valid)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "ada",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		signed, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = s.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no expiry", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "ada"},
		})
		signed, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = s.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := s.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no subject", func(t *testing.T) {
		_, err := s.GenerateToken(&dictionary.User{})
		assert.Error(t, err)
	})
}
