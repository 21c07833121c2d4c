package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Form is an untyped client payload, keyed by field name
type Form map[string]string

type ViolationKind string

const (
	ViolationRequired     ViolationKind = "required"
	ViolationTooShort     ViolationKind = "too_short"
	ViolationTooLong      ViolationKind = "too_long"
	ViolationTooMany      ViolationKind = "too_many"
	ViolationInvalidEmail ViolationKind = "invalid_email"
	ViolationNotOneOf     ViolationKind = "not_one_of"
	ViolationInvalid      ViolationKind = "invalid"
)

// Violation describes the first constraint an input failed
type Violation struct {
	Field   string        `json:"field"`
	Kind    ViolationKind `json:"kind"`
	Limit   string        `json:"limit,omitempty"`
	Message string        `json:"message"`
}

type ValidationError struct {
	Violation Violation
}

func (e *ValidationError) Error() string {
	return e.Violation.Message
}

type RegisterInput struct {
	Name     string `json:"name" validate:"min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type MaterialInput struct {
	Title   string   `json:"title" validate:"min=3,max=200"`
	Subject string   `json:"subject" validate:"required,max=50"`
	Content string   `json:"content" validate:"min=10"`
	Tags    []string `json:"tags" validate:"max=10,dive,required"`
}

type FlashcardInput struct {
	Question   string     `json:"question" validate:"min=5,max=500"`
	Answer     string     `json:"answer" validate:"required,max=1000"`
	Subject    string     `json:"subject" validate:"required"`
	Difficulty Difficulty `json:"difficulty" validate:"oneof=easy medium hard"`
	MaterialID string     `json:"materialId"`
}

type ExplainInput struct {
	Question string `json:"question" validate:"required,max=1000"`
}

// validator.Validate caches struct metadata and is safe for concurrent use
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks input against its struct constraints and reports the
// first failing field as a *ValidationError.
func Validate(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}

	return &ValidationError{Violation: violationFrom(errs[0])}
}

func violationFrom(fe validator.FieldError) Violation {
	field := fe.Field()
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}
	label := labelFor(field)

	v := Violation{Field: field, Limit: fe.Param()}

	switch fe.Tag() {
	case "required":
		v.Kind = ViolationRequired
		v.Message = label + " is required"
		if fe.Field() != field {
			v.Message = label + " cannot contain empty values"
		}
	case "min":
		v.Kind = ViolationTooShort
		v.Message = fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			v.Kind = ViolationTooMany
			v.Message = fmt.Sprintf("Cannot have more than %s %s", fe.Param(), field)
		} else {
			v.Kind = ViolationTooLong
			v.Message = fmt.Sprintf("%s cannot exceed %s characters", label, fe.Param())
		}
	case "email":
		v.Kind = ViolationInvalidEmail
		v.Message = "Invalid email address"
	case "oneof":
		v.Kind = ViolationNotOneOf
		v.Message = fmt.Sprintf("%s must be one of %s", label, strings.Join(strings.Fields(fe.Param()), ", "))
	default:
		v.Kind = ViolationInvalid
		v.Message = label + " is invalid"
	}

	return v
}

func labelFor(field string) string {
	if field == "" {
		return "Value"
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

// ParseRegisterInput maps a registration form to a validated input.
// The email is lower-cased so uniqueness is case-insensitive.
func ParseRegisterInput(form Form) (RegisterInput, error) {
	input := RegisterInput{
		Name:     strings.TrimSpace(form["name"]),
		Email:    strings.ToLower(strings.TrimSpace(form["email"])),
		Password: form["password"],
	}
	return input, Validate(input)
}

func ParseLoginInput(form Form) (LoginInput, error) {
	input := LoginInput{
		Email:    strings.ToLower(strings.TrimSpace(form["email"])),
		Password: form["password"],
	}
	return input, Validate(input)
}

// ParseMaterialInput maps a material form to a validated input.
// Tags arrive as one comma-separated string.
func ParseMaterialInput(form Form) (MaterialInput, error) {
	input := MaterialInput{
		Title:   strings.TrimSpace(form["title"]),
		Subject: strings.TrimSpace(form["subject"]),
		Content: form["content"],
		Tags:    ParseTags(form["tags"]),
	}
	return input, Validate(input)
}

// ParseFlashcardInput maps a flashcard form to a validated input.
// An empty difficulty defaults to medium.
func ParseFlashcardInput(form Form) (FlashcardInput, error) {
	input := FlashcardInput{
		Question:   strings.TrimSpace(form["question"]),
		Answer:     strings.TrimSpace(form["answer"]),
		Subject:    strings.TrimSpace(form["subject"]),
		Difficulty: Difficulty(strings.TrimSpace(form["difficulty"])),
		MaterialID: strings.TrimSpace(form["materialId"]),
	}
	if input.Difficulty == "" {
		input.Difficulty = DifficultyMedium
	}
	return input, Validate(input)
}

func ParseExplainInput(form Form) (ExplainInput, error) {
	input := ExplainInput{Question: strings.TrimSpace(form["question"])}
	return input, Validate(input)
}

// ParseTags splits a comma-separated list, trimming entries and dropping empty ones
func ParseTags(raw string) []string {
	tags := []string{}
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
