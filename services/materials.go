package services

import (
	"context"
	"errors"
	"net/url"

	"go.uber.org/zap"

	"github.com/lborres/studysync/core"
	"github.com/lborres/studysync/pkg/metrics"
)

const msgMaterialNotFound = "Material not found"

type MaterialService struct {
	materials core.MaterialStorage
	deps      actionDeps
}

func NewMaterialService(materials core.MaterialStorage, identity IdentityResolver, views core.ViewCache, logger *zap.Logger, m *metrics.Metrics) *MaterialService {
	return &MaterialService{
		materials: materials,
		deps:      newActionDeps(identity, views, logger, m),
	}
}

// List returns the user's materials, newest first
func (s *MaterialService) List(ctx context.Context, token string, filter core.MaterialFilter) (res core.Result[[]*core.Material]) {
	defer s.deps.track("listMaterials", &res.Kind)()

	user := s.deps.identity.CurrentUser(ctx, token)
	if user == nil {
		return core.Unauthorized[[]*core.Material]()
	}

	variant := url.Values{"search": {filter.Search}, "subject": {filter.Subject}}.Encode()
	materials, err := cached(ctx, &s.deps, user.ID, core.PathMaterials, variant, func() ([]*core.Material, error) {
		return s.materials.ListMaterials(ctx, user.ID, filter)
	})
	if err != nil {
		s.deps.logger.Error("failed to list materials", zap.String("userId", user.ID), zap.Error(err))
		return core.Fail[[]*core.Material](core.FailureInternal, "Failed to fetch materials")
	}

	return core.Succeed(&materials, "")
}

func (s *MaterialService) Get(ctx context.Context, token, id string) (res core.Result[core.Material]) {
	defer s.deps.track("getMaterial", &res.Kind)()

	user := s.deps.identity.CurrentUser(ctx, token)
	if user == nil {
		return core.Unauthorized[core.Material]()
	}

	material, err := s.materials.GetMaterial(ctx, user.ID, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Fail[core.Material](core.FailureNotFound, msgMaterialNotFound)
		}
		s.deps.logger.Error("failed to get material", zap.String("materialId", id), zap.Error(err))
		return core.Fail[core.Material](core.FailureInternal, "Failed to fetch material")
	}

	return core.Succeed(material, "")
}

func (s *MaterialService) Create(ctx context.Context, token string, form core.Form) (res core.Result[core.Created]) {
	defer s.deps.track("createMaterial", &res.Kind)()

	user := s.deps.identity.CurrentUser(ctx, token)
	if user == nil {
		return core.Unauthorized[core.Created]()
	}

	input, err := core.ParseMaterialInput(form)
	if err != nil {
		return invalid[core.Created](err)
	}

	material := &core.Material{
		UserID:  user.ID,
		Title:   input.Title,
		Subject: input.Subject,
		Content: input.Content,
		Tags:    input.Tags,
	}
	if err := s.materials.CreateMaterial(ctx, material); err != nil {
		s.deps.logger.Error("failed to create material", zap.String("userId", user.ID), zap.Error(err))
		return core.Fail[core.Created](core.FailureInternal, "Failed to create material")
	}

	s.deps.invalidate(ctx, user.ID, core.PathMaterials, core.PathDashboard)
	return core.Succeed(&core.Created{ID: material.ID}, "Material created successfully")
}

// Update replaces title, subject, content and tags. The summary is kept.
func (s *MaterialService) Update(ctx context.Context, token, id string, form core.Form) (res core.Result[core.NoData]) {
	defer s.deps.track("updateMaterial", &res.Kind)()

	user := s.deps.identity.CurrentUser(ctx, token)
	if user == nil {
		return core.Unauthorized[core.NoData]()
	}

	input, err := core.ParseMaterialInput(form)
	if err != nil {
		return invalid[core.NoData](err)
	}

	material := &core.Material{
		ID:      id,
		UserID:  user.ID,
		Title:   input.Title,
		Subject: input.Subject,
		Content: input.Content,
		Tags:    input.Tags,
	}
	if err := s.materials.UpdateMaterial(ctx, material); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Fail[core.NoData](core.FailureNotFound, msgMaterialNotFound)
		}
		s.deps.logger.Error("failed to update material", zap.String("materialId", id), zap.Error(err))
		return core.Fail[core.NoData](core.FailureInternal, "Failed to update material")
	}

	s.deps.invalidate(ctx, user.ID, core.PathMaterials, core.PathDashboard)
	return core.Succeed[core.NoData](nil, "Material updated successfully")
}

// Delete removes the material. Flashcards referencing it are left in place.
func (s *MaterialService) Delete(ctx context.Context, token, id string) (res core.Result[core.NoData]) {
	defer s.deps.track("deleteMaterial", &res.Kind)()

	user := s.deps.identity.CurrentUser(ctx, token)
	if user == nil {
		return core.Unauthorized[core.NoData]()
	}

	if err := s.materials.DeleteMaterial(ctx, user.ID, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Fail[core.NoData](core.FailureNotFound, msgMaterialNotFound)
		}
		s.deps.logger.Error("failed to delete material", zap.String("materialId", id), zap.Error(err))
		return core.Fail[core.NoData](core.FailureInternal, "Failed to delete material")
	}

	s.deps.invalidate(ctx, user.ID, core.PathMaterials, core.PathDashboard)
	return core.Succeed[core.NoData](nil, "Material deleted successfully")
}
