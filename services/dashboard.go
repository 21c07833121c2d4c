package services

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lborres/studysync/core"
	"github.com/lborres/studysync/pkg/metrics"
)

type DashboardService struct {
	materials  core.MaterialStorage
	flashcards core.FlashcardStorage
	deps       actionDeps
}

func NewDashboardService(materials core.MaterialStorage, flashcards core.FlashcardStorage, identity IdentityResolver, views core.ViewCache, logger *zap.Logger, m *metrics.Metrics) *DashboardService {
	return &DashboardService{
		materials:  materials,
		flashcards: flashcards,
		deps:       newActionDeps(identity, views, logger, m),
	}
}

// Stats counts the user's materials and flashcards
func (s *DashboardService) Stats(ctx context.Context, token string) (res core.Result[core.DashboardStats]) {
	defer s.deps.track("dashboardStats", &res.Kind)()

	user := s.deps.identity.CurrentUser(ctx, token)
	if user == nil {
		return core.Unauthorized[core.DashboardStats]()
	}

	stats, err := cached(ctx, &s.deps, user.ID, core.PathDashboard, "stats", func() (core.DashboardStats, error) {
		var stats core.DashboardStats
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			stats.Materials, err = s.materials.CountMaterials(gctx, user.ID)
			return err
		})
		g.Go(func() (err error) {
			stats.Flashcards, err = s.flashcards.CountFlashcards(gctx, user.ID)
			return err
		})
		return stats, g.Wait()
	})
	if err != nil {
		s.deps.logger.Error("failed to load dashboard stats", zap.String("userId", user.ID), zap.Error(err))
		return core.Fail[core.DashboardStats](core.FailureInternal, "Failed to fetch dashboard stats")
	}

	return core.Succeed(&stats, "")
}
