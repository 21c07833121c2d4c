package core

import (
	"context"
	"time"
)

// Ports define interfaces for external dependencies

// ============================================
// STORAGE PORTS (Database operations)
// ============================================

// UserStorage defines user-related database operations
type UserStorage interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// MaterialStorage defines material operations. Every call is scoped to
// ownerID; a record owned by someone else yields ErrNotFound.
type MaterialStorage interface {
	CreateMaterial(ctx context.Context, m *Material) error
	GetMaterial(ctx context.Context, ownerID, id string) (*Material, error)
	ListMaterials(ctx context.Context, ownerID string, filter MaterialFilter) ([]*Material, error)
	UpdateMaterial(ctx context.Context, m *Material) error
	SetMaterialSummary(ctx context.Context, ownerID, id, summary string) error
	DeleteMaterial(ctx context.Context, ownerID, id string) error
	CountMaterials(ctx context.Context, ownerID string) (int, error)
}

// FlashcardStorage defines flashcard operations, scoped like MaterialStorage.
type FlashcardStorage interface {
	CreateFlashcard(ctx context.Context, f *Flashcard) error
	CreateFlashcards(ctx context.Context, cards []*Flashcard) error
	ListFlashcards(ctx context.Context, ownerID string, filter FlashcardFilter) ([]*Flashcard, error)
	UpdateFlashcard(ctx context.Context, f *Flashcard) error
	DeleteFlashcard(ctx context.Context, ownerID, id string) error
	CountFlashcards(ctx context.Context, ownerID string) (int, error)
}

type StorageAdapter interface {
	UserStorage
	MaterialStorage
	FlashcardStorage
}

// ============================================
// VIEW CACHE PORT
// ============================================

// ViewCache holds per-user list views. A view is addressed by path
// (e.g. "/materials") and a variant (the filter that produced it).
// Invalidate drops every variant of the given paths for one user and
// advances their version, so a load that started before the invalidation
// cannot be written back with SetIfCurrent.
type ViewCache interface {
	Get(ctx context.Context, userID, path, variant string) ([]byte, error)
	Set(ctx context.Context, userID, path, variant string, payload []byte) error
	Version(ctx context.Context, userID, path string) (uint64, error)
	// SetIfCurrent stores payload only while the view is still at version,
	// returning ErrStaleView otherwise.
	SetIfCurrent(ctx context.Context, userID, path, variant string, version uint64, payload []byte) error
	Invalidate(ctx context.Context, userID string, paths ...string) error
}

// CacheConfig configures cache behavior
type CacheConfig struct {
	TTL     time.Duration
	MaxSize int
}

// CacheStats tracks cache performance metrics
type CacheStats struct {
	Hits          int64         `json:"hits"`
	Misses        int64         `json:"misses"`
	Sets          int64         `json:"sets"`
	Invalidations int64         `json:"invalidations"`
	Evictions     int64         `json:"evictions"`
	Size          int           `json:"size"`
	TTL           time.Duration `json:"ttl"`
}

// ============================================
// AI PORT
// ============================================

// TextGenerator sends a prompt to a generative model and returns its raw text
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// View paths whose cached lists are invalidated by mutations
const (
	PathDashboard  = "/dashboard"
	PathMaterials  = "/materials"
	PathFlashcards = "/flashcards"
)
