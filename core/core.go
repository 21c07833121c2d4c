package core

import "time"

const (
	SessionCookieName = "token"
	DefaultSessionAge = 7 * 24 * time.Hour
)

type SessionConfig struct {
	MaxAge time.Duration
	// Secure marks the cookie Secure; set in production
	Secure bool
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxAge: DefaultSessionAge,
	}
}
