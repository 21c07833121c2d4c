package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lborres/studysync/core"
	"github.com/lborres/studysync/pkg/metrics"
)

// IdentityResolver turns a session token into the current user, or nil
type IdentityResolver interface {
	CurrentUser(ctx context.Context, token string) *core.SessionUser
}

// actionDeps is shared by every action service
type actionDeps struct {
	identity IdentityResolver
	views    core.ViewCache // optional
	logger   *zap.Logger
	metrics  *metrics.Metrics // optional
}

func newActionDeps(identity IdentityResolver, views core.ViewCache, logger *zap.Logger, m *metrics.Metrics) actionDeps {
	if logger == nil {
		logger = zap.NewNop()
	}
	return actionDeps{identity: identity, views: views, logger: logger, metrics: m}
}

// track records the action when the returned func runs. kind must point
// at the named result's Kind so the deferred call sees the final outcome.
func (d *actionDeps) track(action string, kind *core.FailureKind) func() {
	started := time.Now()
	return func() {
		d.metrics.ObserveAction(action, string(*kind), started)
	}
}

// invalidate marks the user's list views stale. Failures are logged only;
// the mutation has already been applied.
func (d *actionDeps) invalidate(ctx context.Context, userID string, paths ...string) {
	if d.views == nil {
		return
	}
	if err := d.views.Invalidate(ctx, userID, paths...); err != nil {
		d.logger.Warn("failed to invalidate views",
			zap.String("userId", userID),
			zap.Strings("paths", paths),
			zap.Error(err),
		)
	}
}

// cached reads a view through the view cache, loading and storing it on a
// miss. The view's version is taken before loading; a load that races an
// invalidation is returned but not stored.
func cached[T any](ctx context.Context, d *actionDeps, userID, path, variant string, load func() (T, error)) (T, error) {
	var version uint64
	storable := d.views != nil

	if d.views != nil {
		var err error
		if version, err = d.views.Version(ctx, userID, path); err != nil {
			d.logger.Warn("failed to read view version", zap.String("path", path), zap.Error(err))
			storable = false
		}

		payload, err := d.views.Get(ctx, userID, path, variant)
		switch {
		case err == nil:
			var v T
			if err := json.Unmarshal(payload, &v); err == nil {
				return v, nil
			}
		case !errors.Is(err, core.ErrCacheMiss):
			d.logger.Warn("failed to read cached view", zap.String("path", path), zap.Error(err))
		}
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	if storable {
		if payload, err := json.Marshal(v); err == nil {
			err := d.views.SetIfCurrent(ctx, userID, path, variant, version, payload)
			switch {
			case errors.Is(err, core.ErrStaleView):
				d.logger.Debug("skipped caching a view invalidated during load", zap.String("path", path))
			case err != nil:
				d.logger.Warn("failed to cache view", zap.String("path", path), zap.Error(err))
			}
		}
	}
	return v, nil
}

// invalid maps a schema error to a validation failure carrying its message
func invalid[T any](err error) core.Result[T] {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		return core.Fail[T](core.FailureValidation, verr.Error())
	}
	return core.Fail[T](core.FailureValidation, "Invalid input")
}
