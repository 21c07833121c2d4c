package services

import (
	"context"
	"errors"
	"net/url"

	"go.uber.org/zap"

	"github.com/lborres/studysync/core"
	"github.com/lborres/studysync/pkg/metrics"
)

const msgFlashcardNotFound = "Flashcard not found"

type FlashcardService struct {
	flashcards core.FlashcardStorage
	deps       actionDeps
}

func NewFlashcardService(flashcards core.FlashcardStorage, identity IdentityResolver, views core.ViewCache, logger *zap.Logger, m *metrics.Metrics) *FlashcardService {
	return &FlashcardService{
		flashcards: flashcards,
		deps:       newActionDeps(identity, views, logger, m),
	}
}

// List returns the user's flashcards, newest first
func (s *FlashcardService) List(ctx context.Context, token string, filter core.FlashcardFilter) (res core.Result[[]*core.Flashcard]) {
	defer s.deps.track("listFlashcards", &res.Kind)()

	user := s.deps.identity.CurrentUser(ctx, token)
	if user == nil {
		return core.Unauthorized[[]*core.Flashcard]()
	}

	variant := url.Values{"materialId": {filter.MaterialID}, "subject": {filter.Subject}}.Encode()
	cards, err := cached(ctx, &s.deps, user.ID, core.PathFlashcards, variant, func() ([]*core.Flashcard, error) {
		return s.flashcards.ListFlashcards(ctx, user.ID, filter)
	})
	if err != nil {
		s.deps.logger.Error("failed to list flashcards", zap.String("userId", user.ID), zap.Error(err))
		return core.Fail[[]*core.Flashcard](core.FailureInternal, "Failed to fetch flashcards")
	}

	return core.Succeed(&cards, "")
}

func (s *FlashcardService) Create(ctx context.Context, token string, form core.Form) (res core.Result[core.Created]) {
	defer s.deps.track("createFlashcard", &res.Kind)()

	user := s.deps.identity.CurrentUser(ctx, token)
	if user == nil {
		return core.Unauthorized[core.Created]()
	}

	input, err := core.ParseFlashcardInput(form)
	if err != nil {
		return invalid[core.Created](err)
	}

	card := &core.Flashcard{
		UserID:     user.ID,
		Question:   input.Question,
		Answer:     input.Answer,
		Subject:    input.Subject,
		Difficulty: input.Difficulty,
	}
	if input.MaterialID != "" {
		card.MaterialID = &input.MaterialID
	}

	if err := s.flashcards.CreateFlashcard(ctx, card); err != nil {
		s.deps.logger.Error("failed to create flashcard", zap.String("userId", user.ID), zap.Error(err))
		return core.Fail[core.Created](core.FailureInternal, "Failed to create flashcard")
	}

	s.deps.invalidate(ctx, user.ID, core.PathFlashcards, core.PathDashboard)
	return core.Succeed(&core.Created{ID: card.ID}, "Flashcard created successfully")
}

// Update replaces question, answer, subject and difficulty. The material
// reference cannot be changed.
func (s *FlashcardService) Update(ctx context.Context, token, id string, form core.Form) (res core.Result[core.NoData]) {
	defer s.deps.track("updateFlashcard", &res.Kind)()

	user := s.deps.identity.CurrentUser(ctx, token)
	if user == nil {
		return core.Unauthorized[core.NoData]()
	}

	input, err := core.ParseFlashcardInput(form)
	if err != nil {
		return invalid[core.NoData](err)
	}

	card := &core.Flashcard{
		ID:         id,
		UserID:     user.ID,
		Question:   input.Question,
		Answer:     input.Answer,
		Subject:    input.Subject,
		Difficulty: input.Difficulty,
	}
	if err := s.flashcards.UpdateFlashcard(ctx, card); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Fail[core.NoData](core.FailureNotFound, msgFlashcardNotFound)
		}
		s.deps.logger.Error("failed to update flashcard", zap.String("flashcardId", id), zap.Error(err))
		return core.Fail[core.NoData](core.FailureInternal, "Failed to update flashcard")
	}

	s.deps.invalidate(ctx, user.ID, core.PathFlashcards)
	return core.Succeed[core.NoData](nil, "Flashcard updated successfully")
}

func (s *FlashcardService) Delete(ctx context.Context, token, id string) (res core.Result[core.NoData]) {
	defer s.deps.track("deleteFlashcard", &res.Kind)()

	user := s.deps.identity.CurrentUser(ctx, token)
	if user == nil {
		return core.Unauthorized[core.NoData]()
	}

	if err := s.flashcards.DeleteFlashcard(ctx, user.ID, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Fail[core.NoData](core.FailureNotFound, msgFlashcardNotFound)
		}
		s.deps.logger.Error("failed to delete flashcard", zap.String("flashcardId", id), zap.Error(err))
		return core.Fail[core.NoData](core.FailureInternal, "Failed to delete flashcard")
	}

	s.deps.invalidate(ctx, user.ID, core.PathFlashcards, core.PathDashboard)
	return core.Succeed[core.NoData](nil, "Flashcard deleted successfully")
}
