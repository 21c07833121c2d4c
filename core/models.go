package core

import "time"

// User is a registered account.
//
// Created at registration, never mutated or deleted afterwards.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Material is a user-owned body of study text.
type Material struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Subject   string    `json:"subject"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	AISummary *string   `json:"aiSummary,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Flashcard is a user-owned question/answer pair.
//
// MaterialID is a weak reference: the material may be deleted while the
// card survives. The review fields are reserved and not driven by any logic.
type Flashcard struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	MaterialID    *string    `json:"materialId,omitempty"`
	Question      string     `json:"question"`
	Answer        string     `json:"answer"`
	Subject       string     `json:"subject"`
	Difficulty    Difficulty `json:"difficulty"`
	IsAIGenerated bool       `json:"isAIGenerated"`
	LastReviewed  *time.Time `json:"lastReviewed,omitempty"`
	NextReview    *time.Time `json:"nextReview,omitempty"`
	ReviewCount   int        `json:"reviewCount"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Claims is the identity carried inside a session token
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// SessionUser is the resolved current user, as returned to clients
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// IssuedToken is handed to the transport layer, which owns the cookie
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// MaterialFilter narrows a material listing. Zero values do not filter.
type MaterialFilter struct {
	Search  string
	Subject string
}

// FlashcardFilter narrows a flashcard listing. Zero values do not filter.
type FlashcardFilter struct {
	Subject    string
	MaterialID string
}

type DashboardStats struct {
	Materials  int `json:"materials"`
	Flashcards int `json:"flashcards"`
}
