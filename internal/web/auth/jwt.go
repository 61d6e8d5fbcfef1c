// Package auth issues and validates the bearer tokens guarding the docs
// server. A token carries the principal that role checks are evaluated for.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yahoo/elide-sub004/internal/dictionary"
)

// ErrInvalidToken is returned for tokens that fail validation
var ErrInvalidToken = errors.New("invalid token")

// Claims are the JWT claims of an elide principal
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// TokenService provides JWT token generation and validation
type TokenService struct {
	secretKey []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewTokenService creates a TokenService signing with HS256
func NewTokenService(secretKey string, tokenTTL time.Duration) *TokenService {
	return &TokenService{
		secretKey: []byte(secretKey),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// GenerateToken issues a token for user
func (s *TokenService) GenerateToken(user *dictionary.User) (string, error) {
	if user == nil || user.Name == "" {
		return "", fmt.Errorf("cannot issue a token without a subject")
	}

	now := s.now()
	claims := Claims{
		Roles: user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ValidateToken validates a token and returns its principal
func (s *TokenService) ValidateToken(tokenString string) (*dictionary.User, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (interface{}, error) { return s.secretKey, nil },
		// Pin the algorithm to prevent algorithm confusion attacks
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &dictionary.User{Name: claims.Subject, Roles: claims.Roles}, nil
}
