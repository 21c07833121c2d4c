package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	out     string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.out, f.err
}

func TestBridge_Summarize(t *testing.T) {
	gen := &fakeGenerator{out: "  Cells are small.\n"}
	b := NewBridge(gen)

	summary, err := b.Summarize(context.Background(), "Cells are the basic unit of life.")

	require.NoError(t, err)
	assert.Equal(t, "  Cells are small.\n", summary, "summary is returned verbatim")
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Cells are the basic unit of life.")
}

func TestBridge_GenerateCards(t *testing.T) {
	gen := &fakeGenerator{out: `[
		{"question":"Q1","answer":"A1"},
		{"question":"Q2","answer":"A2"},
		{"question":"Q3","answer":"A3"},
		{"question":"Q4","answer":"A4"}
	]`}
	b := NewBridge(gen)

	cards, err := b.GenerateCards(context.Background(), "material", 5)

	require.NoError(t, err)
	assert.Len(t, cards, 4, "received count is advisory")
	assert.True(t, strings.HasPrefix(gen.prompts[0], "Write 5 flashcards"))
}

func TestBridge_ProviderFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	b := NewBridge(gen)
	ctx := context.Background()

	_, err := b.Summarize(ctx, "text")
	assert.ErrorIs(t, err, ErrGenerationFailed)

	_, err = b.GenerateCards(ctx, "text", 3)
	assert.ErrorIs(t, err, ErrGenerationFailed)

	_, err = b.Explain(ctx, "text", "why?")
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestBridge_GenerateCardsWithoutArray(t *testing.T) {
	b := NewBridge(&fakeGenerator{out: "Sorry, I can't do that."})

	_, err := b.GenerateCards(context.Background(), "text", 3)

	assert.ErrorIs(t, err, ErrInvalidResponseFormat)
}

func TestBridge_Explain(t *testing.T) {
	gen := &fakeGenerator{out: "Because ATP stores energy."}
	b := NewBridge(gen)

	answer, err := b.Explain(context.Background(), "ATP is the energy currency.", "Why is ATP important?")

	require.NoError(t, err)
	assert.Equal(t, "Because ATP stores energy.", answer)
	assert.Contains(t, gen.prompts[0], "Why is ATP important?")
	assert.Contains(t, gen.prompts[0], "ATP is the energy currency.")
}
