package service

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/etherealapi/identity-platform/internal/api/metrics"
	"github.com/etherealapi/identity-platform/internal/core/domain"
	"github.com/etherealapi/identity-platform/internal/core/ports"
)

// AppService coordinates the application lifecycle: registration with
// access-key issuance and compensating rollback, key reset via backup code,
// profile updates, deactivation and app-user listings.
type AppService struct {
	apps        ports.ApplicationRepository
	projections ports.ProjectionRepository
	appSecrets  *AppSecretService
	audit       ports.AuditSink
	now         func() time.Time
	log         zerolog.Logger
}

func NewAppService(
	apps ports.ApplicationRepository,
	projections ports.ProjectionRepository,
	appSecrets *AppSecretService,
	audit ports.AuditSink,
	log zerolog.Logger,
) *AppService {
	return &AppService{
		apps:        apps,
		projections: projections,
		appSecrets:  appSecrets,
		audit:       audit,
		now:         time.Now,
		log:         log,
	}
}

var _ ports.AppService = (*AppService)(nil)

// ── Registration ─────────────────────────────────────────────────────────────

// RegisterApp creates an application and its secret, returning the access-key
// pair and backup code. A failed secret creation rolls the application back;
// a failed rollback is a distinct critical error.
func (s *AppService) RegisterApp(ctx context.Context, name, email, appURL string) (*domain.AccessKeys, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if _, err := url.ParseRequestURI(appURL); err != nil {
		return nil, domain.ErrAppURLInvalid
	}

	available, err := s.appNameAvailable(ctx, name)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, domain.ErrAppNameNotAvailable.With(domain.Params{"appName": name})
	}

	now := s.now().UTC()
	newApp, err := s.apps.Create(ctx, &domain.Application{
		Name:      name,
		URL:       appURL,
		Email:     email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, domain.ErrAppCannotBeCreated.With(domain.Params{"appName": name})
	}

	secret, backupCode, err := s.appSecrets.CreateAppSecret(ctx, newApp.ID, newApp.CreatedAt)
	if err != nil {
		s.log.Warn().Str("app_id", newApp.ID).Msg("performing app rollback, aborting app registration")
		if _, delErr := s.apps.Delete(ctx, newApp.ID); delErr != nil {
			metrics.RollbacksTotal.WithLabelValues("app", "failed").Inc()
			return nil, domain.ErrAppRollback.With(domain.Params{"appId": newApp.ID, "appName": name})
		}
		metrics.RollbacksTotal.WithLabelValues("app", "ok").Inc()
		return nil, domain.ErrAppCannotBeCreated.With(domain.Params{"appName": name})
	}

	keys, err := s.appSecrets.IssueKeys(secret, backupCode)
	if err != nil {
		return nil, err
	}

	s.emit("app.registered", newApp.ID, nil)
	s.log.Info().Str("app_id", newApp.ID).Str("app_name", name).Msg("application registered")
	return keys, nil
}

// appNameAvailable mirrors emailAvailable: a deactivated application keeps
// its name reserved.
func (s *AppService) appNameAvailable(ctx context.Context, name string) (bool, error) {
	_, err := s.apps.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// ResetAccessKeys rotates an application's key pair after checking the
// contact email and backup code. The email gate fails with the same generic
// credentials error as a bad backup code.
func (s *AppService) ResetAccessKeys(ctx context.Context, appName, email, backupCode string) (*domain.AccessKeys, error) {
	app, err := s.resolveAppByName(ctx, appName)
	if err != nil {
		return nil, err
	}
	if app.Email != email {
		metrics.AccessKeyResetsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidAppCredentials
	}
	return s.appSecrets.ResetKeys(ctx, app.ID, app.CreatedAt, backupCode)
}

// ── Lookups ──────────────────────────────────────────────────────────────────

func (s *AppService) GetApp(ctx context.Context, appName string) (*ports.AppView, error) {
	app, err := s.resolveAppByName(ctx, appName)
	if err != nil {
		return nil, err
	}
	return &ports.AppView{Name: app.Name, URL: app.URL}, nil
}

// ListApps returns the public view of every active application.
func (s *AppService) ListApps(ctx context.Context) ([]ports.AppView, error) {
	apps, err := s.apps.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]ports.AppView, 0, len(apps))
	for _, app := range apps {
		if !app.IsActive {
			continue
		}
		views = append(views, ports.AppView{Name: app.Name, URL: app.URL})
	}
	return views, nil
}

func (s *AppService) GetAppAccount(ctx context.Context, keys ports.AccessKeyPair) (*ports.AppAccountView, error) {
	app, err := s.resolveAppByAccessKey(ctx, keys)
	if err != nil {
		return nil, err
	}
	return &ports.AppAccountView{
		Name:          app.Name,
		URL:           app.URL,
		Email:         app.Email,
		EmailVerified: app.EmailVerified,
		CreatedAt:     app.CreatedAt,
		UpdatedAt:     app.UpdatedAt,
	}, nil
}

// ── Updates ──────────────────────────────────────────────────────────────────

func (s *AppService) UpdateAppName(ctx context.Context, keys ports.AccessKeyPair, name string) error {
	app, err := s.resolveAppByAccessKey(ctx, keys)
	if err != nil {
		return err
	}

	available, err := s.appNameAvailable(ctx, name)
	if err != nil {
		return err
	}
	if !available {
		return domain.ErrAppNameNotAvailable.With(domain.Params{"appName": name})
	}

	if _, err := s.apps.Update(ctx, app.ID, ports.AppPatch{Name: &name}); err != nil {
		return domain.ErrAppNameCannotBeUpdated.With(domain.Params{"appId": app.ID})
	}
	return nil
}

func (s *AppService) UpdateAppURL(ctx context.Context, keys ports.AccessKeyPair, appURL string) error {
	app, err := s.resolveAppByAccessKey(ctx, keys)
	if err != nil {
		return err
	}
	if _, err := url.ParseRequestURI(appURL); err != nil {
		return domain.ErrAppURLInvalid
	}
	if _, err := s.apps.Update(ctx, app.ID, ports.AppPatch{URL: &appURL}); err != nil {
		return domain.ErrAppURLCannotBeUpdated.With(domain.Params{"appId": app.ID})
	}
	return nil
}

func (s *AppService) UpdateAppEmail(ctx context.Context, keys ports.AccessKeyPair, email string) error {
	app, err := s.resolveAppByAccessKey(ctx, keys)
	if err != nil {
		return err
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	if _, err := s.apps.Update(ctx, app.ID, ports.AppPatch{Email: &email}); err != nil {
		return domain.ErrAppEmailCannotBeUpdated.With(domain.Params{"appId": app.ID})
	}
	return nil
}

// ── Deactivation ─────────────────────────────────────────────────────────────

// DeactivateApp flips the app inactive and removes its secret. Both steps
// are mandatory: an app must never remain attackable (valid access keys) or
// falsely active after deactivation.
func (s *AppService) DeactivateApp(ctx context.Context, keys ports.AccessKeyPair) error {
	app, err := s.resolveAppByAccessKey(ctx, keys)
	if err != nil {
		return err
	}

	inactive := false
	if _, err := s.apps.Update(ctx, app.ID, ports.AppPatch{IsActive: &inactive}); err != nil {
		return domain.ErrAppCannotBeDeactivated.With(domain.Params{"appId": app.ID})
	}

	if err := s.appSecrets.DeleteAppSecret(ctx, app.ID); err != nil {
		return err
	}

	s.emit("app.deactivated", app.ID, nil)
	s.log.Info().Str("app_id", app.ID).Msg("application deactivated")
	return nil
}

// ── App users ────────────────────────────────────────────────────────────────

// GetAppUsers lists the active followers of the calling application.
func (s *AppService) GetAppUsers(ctx context.Context, keys ports.AccessKeyPair) ([]ports.AppUserView, error) {
	appID, err := s.appSecrets.ResolveAppID(ctx, keys)
	if err != nil {
		return nil, err
	}

	projections, err := s.projections.ListByAppID(ctx, appID)
	if err != nil {
		return nil, err
	}

	views := make([]ports.AppUserView, 0, len(projections))
	for _, projection := range projections {
		if !projection.IsActive {
			continue
		}
		views = append(views, ports.AppUserView{
			Alias:     projection.Alias,
			AppData:   projection.AppData,
			CreatedAt: projection.CreatedAt,
			UpdatedAt: projection.UpdatedAt,
		})
	}
	return views, nil
}

// ── Resolution ───────────────────────────────────────────────────────────────

// resolveAppByName is the user-facing lookup: a missing or deactivated app
// is a plain not-found, not a security event.
func (s *AppService) resolveAppByName(ctx context.Context, appName string) (*domain.Application, error) {
	app, err := s.apps.GetByName(ctx, appName)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrAppDoesntExist.With(domain.Params{"appName": appName})
		}
		return nil, err
	}
	if !app.IsActive {
		return nil, domain.ErrAppGone.With(domain.Params{"appId": app.ID})
	}
	return app, nil
}

// resolveAppByAccessKey turns a verified key pair into a live, active
// application. A verified secret pointing at a missing or inactive app is an
// orphan: cleanup should have removed the secret, so it is logged as a
// critical consistency violation while the caller only learns the app is
// gone.
func (s *AppService) resolveAppByAccessKey(ctx context.Context, keys ports.AccessKeyPair) (*domain.Application, error) {
	appID, err := s.appSecrets.ResolveAppID(ctx, keys)
	if err != nil {
		return nil, err
	}

	app, err := s.apps.GetByID(ctx, appID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			metrics.ZombieDetectionsTotal.WithLabelValues("app", "missing").Inc()
			s.log.Error().
				Str("app_id", appID).
				Msg("CRITICAL orphan secret: leftover secret references an app that no longer exists")
			return nil, domain.ErrAppGoneAccessKeys.With(domain.Params{"appId": appID})
		}
		return nil, err
	}

	if !app.IsActive {
		metrics.ZombieDetectionsTotal.WithLabelValues("app", "inactive").Inc()
		s.log.Error().
			Str("app_id", app.ID).
			Msg("CRITICAL orphan secret: leftover secret references a deactivated app")
		return nil, domain.ErrAppGoneAccessKeys.With(domain.Params{"appId": app.ID})
	}

	return app, nil
}

func (s *AppService) emit(action, appID string, details map[string]string) {
	if s.audit == nil {
		return
	}
	s.audit.Emit(ports.AuditEvent{
		Action:        action,
		PrincipalType: "app",
		PrincipalID:   appID,
		At:            s.now().UTC(),
		Details:       details,
	})
}
