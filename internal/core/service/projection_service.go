package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/etherealapi/identity-platform/internal/api/metrics"
	"github.com/etherealapi/identity-platform/internal/core/domain"
	"github.com/etherealapi/identity-platform/internal/core/ports"
)

// ProjectionService manages the follow relationship between platform users
// and applications (the AppUser records) and the per-app data attached to
// it.
type ProjectionService struct {
	projections ports.ProjectionRepository
	apps        ports.ApplicationRepository
	log         zerolog.Logger
}

func NewProjectionService(
	projections ports.ProjectionRepository,
	apps ports.ApplicationRepository,
	log zerolog.Logger,
) *ProjectionService {
	return &ProjectionService{projections: projections, apps: apps, log: log}
}

// CreateAppUser records a fresh follow of app by user.
func (s *ProjectionService) CreateAppUser(ctx context.Context, appID, userID, alias string) error {
	projection := &domain.UserProjection{
		AppID:    appID,
		UserID:   userID,
		Alias:    alias,
		IsActive: true,
	}
	if _, err := s.projections.Create(ctx, projection); err != nil {
		return domain.ErrAppUserCannotBeCreated.With(domain.Params{"appId": appID, "userId": userID})
	}
	return nil
}

// DeactivateAppUser marks the follow record inactive; the record is kept for
// history.
func (s *ProjectionService) DeactivateAppUser(ctx context.Context, appID, userID string) error {
	inactive := false
	if _, err := s.projections.Update(ctx, appID, userID, ports.ProjectionPatch{IsActive: &inactive}); err != nil {
		return domain.ErrAppUserCannotBeDeactivated.With(domain.Params{"appId": appID, "userId": userID})
	}
	return nil
}

// ReactivateAppUser revives a previously unfollowed record.
func (s *ProjectionService) ReactivateAppUser(ctx context.Context, appID, userID string) error {
	active := true
	if _, err := s.projections.Update(ctx, appID, userID, ports.ProjectionPatch{IsActive: &active}); err != nil {
		return domain.ErrAppUserCannotBeReactivated.With(domain.Params{"appId": appID, "userId": userID})
	}
	return nil
}

// GetAppUser returns the active follow record for (app, user) or the
// not-following error. The user's email and the app's name only feed the
// error message.
func (s *ProjectionService) GetAppUser(ctx context.Context, appID, userID, userEmail, appName string) (*ports.AppUserView, error) {
	projection, err := s.projections.Get(ctx, appID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrAppUserDoesntExist.With(domain.Params{"appName": appName, "email": userEmail})
		}
		return nil, err
	}
	if !projection.IsActive {
		return nil, domain.ErrAppUserDoesntExist.With(domain.Params{"appName": appName, "email": userEmail})
	}

	return &ports.AppUserView{
		Alias:     projection.Alias,
		AppData:   projection.AppData,
		CreatedAt: projection.CreatedAt,
		UpdatedAt: projection.UpdatedAt,
	}, nil
}

// FollowedApps returns the public view of every app the user actively
// follows. Apps that cannot be fetched are skipped.
func (s *ProjectionService) FollowedApps(ctx context.Context, userID string) ([]ports.AppView, error) {
	projections, err := s.projections.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]ports.AppView, 0, len(projections))
	for _, projection := range projections {
		if !projection.IsActive {
			continue
		}
		app, err := s.apps.GetByID(ctx, projection.AppID)
		if err != nil {
			s.log.Warn().Err(err).Str("app_id", projection.AppID).Msg("followed app could not be fetched")
			continue
		}
		views = append(views, ports.AppView{Name: app.Name, URL: app.URL})
	}
	return views, nil
}

// AppsForUser lists every registered app annotated with whether the user
// follows it.
func (s *ProjectionService) AppsForUser(ctx context.Context, userID string) ([]ports.RelatedAppView, error) {
	apps, err := s.apps.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]ports.RelatedAppView, 0, len(apps))
	for _, app := range apps {
		isFollowing := false
		projection, err := s.projections.Get(ctx, app.ID, userID)
		if err == nil && projection != nil {
			isFollowing = true
		} else if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
			return nil, err
		}
		views = append(views, ports.RelatedAppView{
			AppView:     ports.AppView{Name: app.Name, URL: app.URL},
			IsFollowing: isFollowing,
		})
	}
	return views, nil
}

// DeleteAllForUser removes the user's projections across every app,
// best-effort: each deletion is attempted independently and failures are
// logged, never propagated.
func (s *ProjectionService) DeleteAllForUser(ctx context.Context, userID string) error {
	projections, err := s.projections.ListByUserID(ctx, userID)
	if err != nil {
		return err
	}

	var undeleted []string
	for _, projection := range projections {
		if _, err := s.projections.Delete(ctx, projection.AppID, projection.UserID); err != nil {
			undeleted = append(undeleted, projection.AppID)
		}
	}

	if len(undeleted) > 0 {
		metrics.CascadeFailuresTotal.WithLabelValues("projections").Add(float64(len(undeleted)))
		s.log.Warn().
			Str("user_id", userID).
			Strs("undeleted_projection_apps", undeleted).
			Msg("some user projections could not be deleted, remove them manually")
	}
	return nil
}
