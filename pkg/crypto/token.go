package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecret  = errors.New("signing secret cannot be empty")
	ErrTokenInvalid = errors.New("token is invalid")
)

// TokenSigner signs and parses HS256 tokens with a shared secret
type TokenSigner struct {
	secret []byte
	now    func() time.Time
}

type SignerOption func(*TokenSigner)

// WithClock replaces time.Now for issuing and expiry checks
func WithClock(now func() time.Time) SignerOption {
	return func(s *TokenSigner) { s.now = now }
}

func NewTokenSigner(secret string, opts ...SignerOption) (*TokenSigner, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	s := &TokenSigner{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Now returns the signer's clock reading
func (s *TokenSigner) Now() time.Time {
	return s.now()
}

func (s *TokenSigner) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, algorithm and expiry, then fills claims.
// Tokens without an expiry are rejected.
func (s *TokenSigner) Parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
