package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lborres/studysync/ai"
	"github.com/lborres/studysync/core"
	"github.com/lborres/studysync/pkg/metrics"
)

const (
	DefaultCardCount = 5
	MaxCardCount     = 20
)

// AIService runs generative actions against one owned material.
// Provider errors are logged and surface only as generic messages.
type AIService struct {
	materials  core.MaterialStorage
	flashcards core.FlashcardStorage
	bridge     *ai.Bridge
	deps       actionDeps
}

func NewAIService(materials core.MaterialStorage, flashcards core.FlashcardStorage, bridge *ai.Bridge, identity IdentityResolver, views core.ViewCache, logger *zap.Logger, m *metrics.Metrics) *AIService {
	return &AIService{
		materials:  materials,
		flashcards: flashcards,
		bridge:     bridge,
		deps:       newActionDeps(identity, views, logger, m),
	}
}

// loadMaterial fetches one of the user's materials. On failure the returned
// kind and message are ready for the envelope.
func (s *AIService) loadMaterial(ctx context.Context, userID, materialID string) (*core.Material, core.FailureKind, string) {
	material, err := s.materials.GetMaterial(ctx, userID, materialID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.FailureNotFound, msgMaterialNotFound
		}
		s.deps.logger.Error("failed to load material", zap.String("materialId", materialID), zap.Error(err))
		return nil, core.FailureInternal, "Failed to fetch material"
	}
	return material, core.FailureNone, ""
}

// GenerateSummary stores a fresh summary on the material, overwriting any previous one
func (s *AIService) GenerateSummary(ctx context.Context, token, materialID string) (res core.Result[core.SummaryData]) {
	defer s.deps.track("generateSummary", &res.Kind)()

	user := s.deps.identity.CurrentUser(ctx, token)
	if user == nil {
		return core.Unauthorized[core.SummaryData]()
	}

	material, kind, msg := s.loadMaterial(ctx, user.ID, materialID)
	if kind != core.FailureNone {
		return core.Fail[core.SummaryData](kind, msg)
	}

	summary, err := s.bridge.Summarize(ctx, material.Content)
	s.deps.metrics.ObserveAI("summary", err)
	if err != nil {
		s.deps.logger.Error("failed to generate summary", zap.String("materialId", material.ID), zap.Error(err))
		return core.Fail[core.SummaryData](core.FailureInternal, "Failed to generate summary")
	}

	if err := s.materials.SetMaterialSummary(ctx, user.ID, material.ID, summary); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Fail[core.SummaryData](core.FailureNotFound, msgMaterialNotFound)
		}
		s.deps.logger.Error("failed to save summary", zap.String("materialId", material.ID), zap.Error(err))
		return core.Fail[core.SummaryData](core.FailureInternal, "Failed to generate summary")
	}

	s.deps.invalidate(ctx, user.ID, core.PathMaterials)
	return core.Succeed(&core.SummaryData{Summary: summary}, "Summary generated successfully")
}

// GenerateFlashcards asks for count cards and stores the usable ones in a
// single batch. count defaults to DefaultCardCount and is capped at MaxCardCount.
func (s *AIService) GenerateFlashcards(ctx context.Context, token, materialID string, count int) (res core.Result[core.GeneratedFlashcards]) {
	defer s.deps.track("generateFlashcards", &res.Kind)()
	const failed = "Failed to generate flashcards"

	user := s.deps.identity.CurrentUser(ctx, token)
	if user == nil {
		return core.Unauthorized[core.GeneratedFlashcards]()
	}

	material, kind, msg := s.loadMaterial(ctx, user.ID, materialID)
	if kind != core.FailureNone {
		return core.Fail[core.GeneratedFlashcards](kind, msg)
	}

	switch {
	case count <= 0:
		count = DefaultCardCount
	case count > MaxCardCount:
		count = MaxCardCount
	}

	drafts, err := s.bridge.GenerateCards(ctx, material.Content, count)
	s.deps.metrics.ObserveAI("flashcards", err)
	if err != nil {
		s.deps.logger.Error("failed to generate flashcards", zap.String("materialId", material.ID), zap.Error(err))
		return core.Fail[core.GeneratedFlashcards](core.FailureInternal, failed)
	}

	cards := s.draftsToCards(user.ID, material, drafts)
	if len(cards) == 0 {
		s.deps.logger.Warn("model returned no usable flashcards",
			zap.String("materialId", material.ID),
			zap.Int("drafts", len(drafts)),
		)
		return core.Fail[core.GeneratedFlashcards](core.FailureInternal, failed)
	}

	if err := s.flashcards.CreateFlashcards(ctx, cards); err != nil {
		s.deps.logger.Error("failed to store generated flashcards", zap.String("materialId", material.ID), zap.Error(err))
		return core.Fail[core.GeneratedFlashcards](core.FailureInternal, failed)
	}

	out := core.GeneratedFlashcards{
		Count:      len(cards),
		Flashcards: make([]core.GeneratedCard, len(cards)),
	}
	for i, card := range cards {
		out.Flashcards[i] = core.GeneratedCard{ID: card.ID, Question: card.Question, Answer: card.Answer}
	}

	s.deps.invalidate(ctx, user.ID, core.PathFlashcards, core.PathDashboard)
	return core.Succeed(&out, fmt.Sprintf("Generated %d flashcards successfully", out.Count))
}

// draftsToCards keeps drafts that satisfy the flashcard constraints
func (s *AIService) draftsToCards(userID string, material *core.Material, drafts []ai.CardDraft) []*core.Flashcard {
	materialID := material.ID
	cards := make([]*core.Flashcard, 0, len(drafts))

	for i, draft := range drafts {
		input := core.FlashcardInput{
			Question:   strings.TrimSpace(draft.Question),
			Answer:     strings.TrimSpace(draft.Answer),
			Subject:    material.Subject,
			Difficulty: core.DifficultyMedium,
		}
		if err := core.Validate(input); err != nil {
			s.deps.logger.Debug("skipping generated flashcard", zap.Int("index", i), zap.Error(err))
			continue
		}

		cards = append(cards, &core.Flashcard{
			UserID:        userID,
			MaterialID:    &materialID,
			Question:      input.Question,
			Answer:        input.Answer,
			Subject:       input.Subject,
			Difficulty:    input.Difficulty,
			IsAIGenerated: true,
		})
	}

	return cards
}

// ExplainConcept answers a question about one of the user's materials
func (s *AIService) ExplainConcept(ctx context.Context, token, materialID string, form core.Form) (res core.Result[core.Explanation]) {
	defer s.deps.track("explainConcept", &res.Kind)()

	user := s.deps.identity.CurrentUser(ctx, token)
	if user == nil {
		return core.Unauthorized[core.Explanation]()
	}

	input, err := core.ParseExplainInput(form)
	if err != nil {
		return invalid[core.Explanation](err)
	}

	material, kind, msg := s.loadMaterial(ctx, user.ID, materialID)
	if kind != core.FailureNone {
		return core.Fail[core.Explanation](kind, msg)
	}

	answer, err := s.bridge.Explain(ctx, material.Content, input.Question)
	s.deps.metrics.ObserveAI("explain", err)
	if err != nil {
		s.deps.logger.Error("failed to explain concept", zap.String("materialId", material.ID), zap.Error(err))
		return core.Fail[core.Explanation](core.FailureInternal, "Failed to explain concept")
	}

	return core.Succeed(&core.Explanation{Answer: answer}, "")
}
