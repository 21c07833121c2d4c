// Package ai turns study material into summaries, flashcard drafts and
// explanations through a core.TextGenerator.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lborres/studysync/core"
)

var (
	ErrGenerationFailed      = errors.New("generation failed")
	ErrInvalidResponseFormat = errors.New("invalid response format")
	ErrMalformedResponse     = errors.New("malformed flashcard array")
)

// CardDraft is a generated question/answer pair not yet stored
type CardDraft struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Bridge struct {
	gen core.TextGenerator
}

func NewBridge(gen core.TextGenerator) *Bridge {
	return &Bridge{gen: gen}
}

// Summarize returns the model's summary of text verbatim
func (b *Bridge) Summarize(ctx context.Context, text string) (string, error) {
	out, err := b.gen.Generate(ctx, summaryPrompt(text))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return out, nil
}

// GenerateCards asks for count cards. The model may return more or fewer;
// callers should treat the length of the result as authoritative.
func (b *Bridge) GenerateCards(ctx context.Context, text string, count int) ([]CardDraft, error) {
	out, err := b.gen.Generate(ctx, flashcardsPrompt(text, count))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return ExtractCards(out)
}

// Explain answers question using text as the only context
func (b *Bridge) Explain(ctx context.Context, text, question string) (string, error) {
	out, err := b.gen.Generate(ctx, explainPrompt(text, question))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return out, nil
}

func summaryPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("Summarize the study material below in under 200 words. ")
	sb.WriteString("Cover the key concepts, the main ideas and any details a student must remember.\n\n")
	sb.WriteString("Study material:\n")
	sb.WriteString(text)
	return sb.String()
}

func flashcardsPrompt(text string, count int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write %d flashcards that test understanding of the study material below.\n", count)
	sb.WriteString(`Respond with a JSON array only, where every element is an object with "question" and "answer" string fields. `)
	sb.WriteString("Keep questions short and unambiguous.\n\n")
	sb.WriteString("Study material:\n")
	sb.WriteString(text)
	return sb.String()
}

func explainPrompt(text, question string) string {
	var sb strings.Builder
	sb.WriteString("You are a study assistant. Answer the question using the study material as context. ")
	sb.WriteString("Be clear and concise, and use an example where it helps.\n\n")
	sb.WriteString("Study material:\n")
	sb.WriteString(text)
	sb.WriteString("\n\nQuestion:\n")
	sb.WriteString(question)
	return sb.String()
}
