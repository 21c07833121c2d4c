package core

// FailureKind classifies a failed action. It never reaches the client body;
// transports use it to pick a status code.
type FailureKind string

const (
	FailureNone         FailureKind = ""
	FailureUnauthorized FailureKind = "unauthorized"
	FailureValidation   FailureKind = "validation"
	FailureNotFound     FailureKind = "not_found"
	FailureConflict     FailureKind = "conflict"
	FailureInternal     FailureKind = "internal"
)

// NoData is the payload type of actions that only report an outcome
type NoData struct{}

// Result is the uniform envelope every action returns
type Result[T any] struct {
	Success bool        `json:"success"`
	Data    *T          `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    FailureKind `json:"-"`
}

func Succeed[T any](data *T, message string) Result[T] {
	return Result[T]{Success: true, Data: data, Message: message}
}

func Fail[T any](kind FailureKind, message string) Result[T] {
	return Result[T]{Success: false, Error: message, Kind: kind}
}

// Unauthorized is the failure every action returns when no user resolves
func Unauthorized[T any]() Result[T] {
	return Fail[T](FailureUnauthorized, "Unauthorized")
}

// Created is the data of a create action
type Created struct {
	ID string `json:"id"`
}

type SummaryData struct {
	Summary string `json:"summary"`
}

type GeneratedCard struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type GeneratedFlashcards struct {
	Count      int             `json:"count"`
	Flashcards []GeneratedCard `json:"flashcards"`
}

type Explanation struct {
	Answer string `json:"answer"`
}
