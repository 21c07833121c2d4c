package services

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lborres/studysync/core"
	"github.com/lborres/studysync/pkg/crypto"
)

// sessionClaims is the JWT body: the user identity plus sub/iat/exp
type sessionClaims struct {
	core.Claims
	jwt.RegisteredClaims
}

// SessionManager issues and verifies stateless session tokens.
// Nothing is persisted; logout is the transport clearing its cookie.
type SessionManager struct {
	config core.SessionConfig
	signer *crypto.TokenSigner
}

func NewSessionManager(config core.SessionConfig, signer *crypto.TokenSigner) *SessionManager {
	if config.MaxAge <= 0 {
		config.MaxAge = core.DefaultSessionAge
	}
	return &SessionManager{config: config, signer: signer}
}

func (sm *SessionManager) Config() core.SessionConfig {
	return sm.config
}

func (sm *SessionManager) Issue(claims core.Claims) (*core.IssuedToken, error) {
	now := sm.signer.Now()
	expiresAt := now.Add(sm.config.MaxAge)

	token, err := sm.signer.Sign(sessionClaims{
		Claims: claims,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	return &core.IssuedToken{Value: token, ExpiresAt: expiresAt}, nil
}

// Verify returns the claims of a valid token. Malformed, tampered and
// expired tokens all yield ok=false without telling them apart.
func (sm *SessionManager) Verify(token string) (*core.Claims, bool) {
	if token == "" {
		return nil, false
	}

	var claims sessionClaims
	if err := sm.signer.Parse(token, &claims); err != nil {
		return nil, false
	}
	if claims.UserID == "" {
		return nil, false
	}

	return &claims.Claims, true
}
