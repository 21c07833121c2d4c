package core

import "errors"

// User errors
var (
	ErrUserExists   = errors.New("user already exists") // 409 Conflict
	ErrUserNotFound = errors.New("user not found")      // 404 Not Found
)

// Repository errors
var (
	ErrNotFound  = errors.New("record not found") // 404, also returned for records owned by someone else
	ErrCacheMiss = errors.New("view not found in cache")
	ErrStaleView = errors.New("view was invalidated while loading")
)

// Config errors (server-side configuration)
var (
	ErrDBAdapterRequired   = errors.New("database adapter is required") // 500
	ErrHTTPAdapterRequired = errors.New("adapter is required")          // 500
	ErrAIProviderRequired  = errors.New("ai provider is required")      // 500
	ErrSecretRequired      = errors.New("secret is required")           // 500
	ErrSecretTooShort      = errors.New("secret too short")             // 500
)
