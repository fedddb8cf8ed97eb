package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/etherealapi/identity-platform/internal/api/metrics"
	"github.com/etherealapi/identity-platform/internal/core/domain"
	"github.com/etherealapi/identity-platform/internal/core/ports"
)

// AccountService coordinates the platform-user lifecycle: registration with
// compensating rollback, sign-in with device-bound session reuse, profile
// updates, cascading deactivation, and the follow graph.
//
// User+Secret creation spans two independent stores with no shared
// transaction; consistency is emulated by sequential steps with compensation
// on failure, and the session resolver rejects anyone whose principal is
// gone or inactive, which is the standing defense for whatever slips
// through.
type AccountService struct {
	users       ports.UserRepository
	apps        ports.ApplicationRepository
	projections ports.ProjectionRepository
	secrets     ports.SecretRepository
	devices     ports.DeviceRepository
	sessions    *SessionService
	appUsers    *ProjectionService
	processor   *SecretProcessor
	audit       ports.AuditSink
	now         func() time.Time
	log         zerolog.Logger
}

func NewAccountService(
	users ports.UserRepository,
	apps ports.ApplicationRepository,
	projections ports.ProjectionRepository,
	secrets ports.SecretRepository,
	devices ports.DeviceRepository,
	sessions *SessionService,
	appUsers *ProjectionService,
	processor *SecretProcessor,
	audit ports.AuditSink,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{
		users:       users,
		apps:        apps,
		projections: projections,
		secrets:     secrets,
		devices:     devices,
		sessions:    sessions,
		appUsers:    appUsers,
		processor:   processor,
		audit:       audit,
		now:         time.Now,
		log:         log,
	}
}

var _ ports.UserService = (*AccountService)(nil)

// ── Registration ─────────────────────────────────────────────────────────────

// CreateUser registers a platform user and their password secret. If the
// secret cannot be persisted, the freshly created user is rolled back and
// the operation is reported as if the user was never created; a failed
// rollback is surfaced as a distinct critical error because the store is
// then in a confirmed inconsistent state.
func (s *AccountService) CreateUser(ctx context.Context, email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	available, err := s.emailAvailable(ctx, email)
	if err != nil {
		return err
	}
	if !available {
		return domain.ErrEmailNotAvailable
	}

	now := s.now().UTC()
	newUser, err := s.users.Create(ctx, &domain.User{
		Email:     email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.ErrUserCannotBeCreated.With(domain.Params{"email": email})
	}

	if err := s.createUserSecret(ctx, newUser.ID, password); err != nil {
		s.log.Warn().Str("user_id", newUser.ID).Msg("performing user rollback, aborting user creation")
		if _, delErr := s.users.Delete(ctx, newUser.ID); delErr != nil {
			metrics.RollbacksTotal.WithLabelValues("user", "failed").Inc()
			return domain.ErrUserRollback.With(domain.Params{"email": email, "userId": newUser.ID})
		}
		metrics.RollbacksTotal.WithLabelValues("user", "ok").Inc()
		return domain.ErrUserCannotBeCreated.With(domain.Params{"email": email})
	}

	s.emit("user.created", "user", newUser.ID, nil)
	s.log.Info().Str("user_id", newUser.ID).Msg("platform user created")
	return nil
}

// emailAvailable reports whether email can be claimed. A deactivated
// account keeps its address reserved: accounts are never hard-deleted, so
// releasing the address would orphan the historical record.
func (s *AccountService) emailAvailable(ctx context.Context, email string) (bool, error) {
	_, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// ── Sign-in / sign-out ───────────────────────────────────────────────────────

// SignIn authenticates a user and returns a session. Sign-in is idempotent
// per device: if the device already points at a live session, that session
// is returned without a credential check creating a new one.
//
// Two requests racing through a first-time sign-in from the same new device
// can both observe "no device" and mint duplicate sessions; there is no
// uniqueness guard on the device→session binding beyond this sequencing.
func (s *AccountService) SignIn(ctx context.Context, email, password, userAgent, ip string) (*domain.Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			metrics.SignInsTotal.WithLabelValues("invalid_credentials").Inc()
			return nil, domain.ErrInvalidUserCredentials
		}
		metrics.SignInsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if !user.IsActive {
		metrics.SignInsTotal.WithLabelValues("account_gone").Inc()
		return nil, domain.ErrUserAccountGone
	}

	device, err := s.resolveDevice(ctx, userAgent, ip, user.ID)
	if err != nil {
		metrics.SignInsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if device.SessionID != "" {
		// A live session on this device is simply reused. Resolution errors
		// (no session, expired and wiped) are the expected path to a fresh
		// sign-in and are not propagated.
		if session, err := s.sessions.Resolve(ctx, device.SessionID); err == nil {
			metrics.SignInsTotal.WithLabelValues("reused").Inc()
			return session, nil
		}
	}

	matching, err := s.verifyUserSecret(ctx, user.ID, password)
	if err != nil {
		metrics.SignInsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if !matching {
		metrics.SignInsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidUserCredentials
	}

	session, err := s.sessions.Create(ctx, device.ID, user.ID)
	if err != nil {
		metrics.SignInsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if _, err := s.devices.Update(ctx, device.ID, ports.DevicePatch{SessionID: &session.ID}); err != nil {
		// The device record losing its session pointer is a documented
		// inconsistency window, not a sign-in failure.
		s.log.Warn().Err(err).Str("device_id", device.ID).Msg("could not bind session to device")
	}

	metrics.SignInsTotal.WithLabelValues("created").Inc()
	s.emit("user.signed_in", "user", user.ID, map[string]string{"device_id": device.ID})
	return session, nil
}

func (s *AccountService) resolveDevice(ctx context.Context, userAgent, ip, userID string) (*domain.Device, error) {
	device, err := s.devices.GetByFingerprint(ctx, userAgent, ip)
	if err == nil {
		return device, nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	s.log.Info().Str("user_id", userID).Str("user_agent", userAgent).Str("ip", ip).Msg("user is signing in with a new device")

	now := s.now().UTC()
	created, err := s.devices.Create(ctx, &domain.Device{
		UserAgent: userAgent,
		IP:        ip,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, domain.ErrDeviceCannotBeCreated.With(domain.Params{
			"userId": userID, "userAgent": userAgent, "ip": ip,
		})
	}
	return created, nil
}

func (s *AccountService) SignOut(ctx context.Context, sessionID string) error {
	if err := s.sessions.Terminate(ctx, sessionID); err != nil {
		return err
	}
	s.emit("user.signed_out", "user", "", map[string]string{"session_id": sessionID})
	return nil
}

func (s *AccountService) SessionStatus(ctx context.Context, sessionID string) ports.SessionStatus {
	return s.sessions.Status(ctx, sessionID)
}

func (s *AccountService) SessionCookie(ctx context.Context, sessionID string) (*domain.SessionCookie, error) {
	return s.sessions.IssueCookie(ctx, sessionID)
}

// ── Principal resolution ─────────────────────────────────────────────────────

// resolveUserBySession turns a session id into a live, active user. It is
// the single enforcement point that a deactivated or deleted user can never
// act, even if a session row survived deactivation. Such leftovers are
// zombie sessions: the caller sees a generic "account doesn't exist anymore"
// while the real state is logged for manual intervention.
func (s *AccountService) resolveUserBySession(ctx context.Context, sessionID string) (*domain.User, error) {
	session, err := s.sessions.Resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			metrics.ZombieDetectionsTotal.WithLabelValues("user", "missing").Inc()
			s.log.Error().
				Str("session_id", session.ID).
				Str("user_id", session.UserID).
				Msg("CRITICAL zombie session: live session references a user that no longer exists")
			return nil, domain.ErrUserAccountGoneSessions
		}
		return nil, err
	}

	if !user.IsActive {
		metrics.ZombieDetectionsTotal.WithLabelValues("user", "inactive").Inc()
		s.log.Error().
			Str("session_id", session.ID).
			Str("user_id", user.ID).
			Msg("CRITICAL zombie session: live session references a deactivated user")
		return nil, domain.ErrUserAccountGoneSessions
	}

	return user, nil
}

func (s *AccountService) GetUser(ctx context.Context, sessionID string) (*domain.User, error) {
	return s.resolveUserBySession(ctx, sessionID)
}

// ── Profile updates ──────────────────────────────────────────────────────────

func (s *AccountService) UpdateEmail(ctx context.Context, sessionID, email string) error {
	user, err := s.resolveUserBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := validateEmail(email); err != nil {
		return err
	}

	available, err := s.emailAvailable(ctx, email)
	if err != nil {
		return err
	}
	if !available {
		return domain.ErrEmailNotAvailable
	}

	if _, err := s.users.Update(ctx, user.ID, ports.UserPatch{Email: &email}); err != nil {
		return domain.ErrUserEmailCannotBeUpdated.With(domain.Params{"userId": user.ID})
	}
	return nil
}

func (s *AccountService) UpdateUsername(ctx context.Context, sessionID, username string) error {
	user, err := s.resolveUserBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := validateUsername(username); err != nil {
		return err
	}

	if _, err := s.users.Update(ctx, user.ID, ports.UserPatch{Username: &username}); err != nil {
		return domain.ErrUsernameCannotBeUpdated.With(domain.Params{"userId": user.ID})
	}
	return nil
}

func (s *AccountService) UpdateName(ctx context.Context, sessionID, firstName, lastName string) error {
	user, err := s.resolveUserBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := validateName(firstName); err != nil {
		return err
	}
	if err := validateName(lastName); err != nil {
		return err
	}

	if _, err := s.users.Update(ctx, user.ID, ports.UserPatch{FirstName: &firstName, LastName: &lastName}); err != nil {
		return domain.ErrUserNameCannotBeUpdated.With(domain.Params{"userId": user.ID})
	}
	return nil
}

func (s *AccountService) ChangePassword(ctx context.Context, sessionID, oldPassword, newPassword string) error {
	user, err := s.resolveUserBySession(ctx, sessionID)
	if err != nil {
		return err
	}

	matching, err := s.verifyUserSecret(ctx, user.ID, oldPassword)
	if err != nil {
		return err
	}
	if !matching {
		return domain.ErrInvalidOldPassword
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, salt, err := s.processor.HashSecret(newPassword)
	if err != nil {
		return domain.ErrUserSecretCannotBeUpdated.With(domain.Params{"userId": user.ID})
	}
	if _, err := s.secrets.Update(ctx, user.ID, domain.SecretTypeUser, ports.SecretPatch{
		PassHash: &hash,
		Salt:     &salt,
	}); err != nil {
		return domain.ErrUserSecretCannotBeUpdated.With(domain.Params{"userId": user.ID})
	}
	return nil
}

// ── Deactivation ─────────────────────────────────────────────────────────────

// DeactivateUser runs the deactivation fan-out. Session and projection
// cleanup is best-effort (a stray row is a nuisance the resolver defends
// against); flipping isActive and removing the secret are mandatory — a
// deactivated principal must never remain attackable or falsely active.
func (s *AccountService) DeactivateUser(ctx context.Context, sessionID string) error {
	user, err := s.resolveUserBySession(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := s.sessions.DeleteAllForUser(ctx, user.ID); err != nil {
		return err
	}

	inactive := false
	if _, err := s.users.Update(ctx, user.ID, ports.UserPatch{IsActive: &inactive}); err != nil {
		return domain.ErrUserCannotBeDeactivated.With(domain.Params{"userId": user.ID})
	}

	if _, err := s.secrets.Delete(ctx, user.ID, domain.SecretTypeUser); err != nil {
		return domain.ErrUserSecretCannotBeDeleted.With(domain.Params{"userId": user.ID})
	}

	if err := s.appUsers.DeleteAllForUser(ctx, user.ID); err != nil {
		return err
	}

	s.emit("user.deactivated", "user", user.ID, nil)
	s.log.Info().Str("user_id", user.ID).Msg("platform user deactivated")
	return nil
}

// ── Follow graph ─────────────────────────────────────────────────────────────

func (s *AccountService) resolveAppByName(ctx context.Context, appName string) (*domain.Application, error) {
	app, err := s.apps.GetByName(ctx, appName)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrAppDoesntExist.With(domain.Params{"appName": appName})
		}
		return nil, err
	}
	return app, nil
}

func (s *AccountService) FollowApp(ctx context.Context, sessionID, appName, alias string) error {
	user, err := s.resolveUserBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	app, err := s.resolveAppByName(ctx, appName)
	if err != nil {
		return err
	}

	projection, err := s.projections.Get(ctx, app.ID, user.ID)
	switch {
	case err == nil:
		if projection.IsActive {
			return domain.ErrAppUserAlreadyExists.With(domain.Params{"email": user.Email, "appName": app.Name})
		}
		if err := s.appUsers.ReactivateAppUser(ctx, projection.AppID, projection.UserID); err != nil {
			return err
		}
	case errors.Is(err, domain.ErrRecordNotFound):
		if err := s.appUsers.CreateAppUser(ctx, app.ID, user.ID, alias); err != nil {
			return err
		}
	default:
		return err
	}

	s.emit("app.followed", "user", user.ID, map[string]string{"app_id": app.ID})
	return nil
}

func (s *AccountService) UnfollowApp(ctx context.Context, sessionID, appName string) error {
	user, err := s.resolveUserBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	app, err := s.resolveAppByName(ctx, appName)
	if err != nil {
		return err
	}

	projection, err := s.projections.Get(ctx, app.ID, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.ErrAppUserDoesntExist.With(domain.Params{"appName": app.Name, "email": user.Email})
		}
		return err
	}
	if !projection.IsActive {
		return domain.ErrAppUserDoesntExist.With(domain.Params{"appName": app.Name, "email": user.Email})
	}

	if err := s.appUsers.DeactivateAppUser(ctx, app.ID, user.ID); err != nil {
		return err
	}

	s.emit("app.unfollowed", "user", user.ID, map[string]string{"app_id": app.ID})
	return nil
}

func (s *AccountService) GetAppUser(ctx context.Context, sessionID, appName string) (*ports.AppUserView, error) {
	user, err := s.resolveUserBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	app, err := s.resolveAppByName(ctx, appName)
	if err != nil {
		return nil, err
	}
	return s.appUsers.GetAppUser(ctx, app.ID, user.ID, user.Email, app.Name)
}

// GetAppURL returns the app's URL, gated on the user actually following it.
func (s *AccountService) GetAppURL(ctx context.Context, sessionID, appName string) (string, error) {
	user, err := s.resolveUserBySession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	app, err := s.resolveAppByName(ctx, appName)
	if err != nil {
		return "", err
	}
	if _, err := s.appUsers.GetAppUser(ctx, app.ID, user.ID, user.Email, app.Name); err != nil {
		return "", err
	}
	return app.URL, nil
}

func (s *AccountService) FollowedApps(ctx context.Context, sessionID string) ([]ports.AppView, error) {
	user, err := s.resolveUserBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.appUsers.FollowedApps(ctx, user.ID)
}

func (s *AccountService) AppsForUser(ctx context.Context, sessionID string) ([]ports.RelatedAppView, error) {
	user, err := s.resolveUserBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.appUsers.AppsForUser(ctx, user.ID)
}

// ── User secrets ─────────────────────────────────────────────────────────────

func (s *AccountService) createUserSecret(ctx context.Context, userID, password string) error {
	hash, salt, err := s.processor.HashSecret(password)
	if err != nil {
		return domain.ErrUserSecretCannotBeCreated.With(domain.Params{"userId": userID})
	}
	if _, err := s.secrets.Create(ctx, &domain.Secret{
		ExternalID: userID,
		Type:       domain.SecretTypeUser,
		PassHash:   hash,
		Salt:       salt,
	}); err != nil {
		return domain.ErrUserSecretCannotBeCreated.With(domain.Params{"userId": userID})
	}
	return nil
}

func (s *AccountService) verifyUserSecret(ctx context.Context, userID, password string) (bool, error) {
	secret, err := s.secrets.Get(ctx, userID, domain.SecretTypeUser)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			s.log.Error().Str("user_id", userID).Msg("CRITICAL registered user has no secret record, investigate the sign-up flow")
			return false, domain.ErrUserSecretMissing.With(domain.Params{"userId": userID})
		}
		return false, err
	}
	return s.processor.VerifySecret(password, secret.PassHash, secret.Salt), nil
}

func (s *AccountService) emit(action, principalType, principalID string, details map[string]string) {
	if s.audit == nil {
		return
	}
	s.audit.Emit(ports.AuditEvent{
		Action:        action,
		PrincipalType: principalType,
		PrincipalID:   principalID,
		At:            s.now().UTC(),
		Details:       details,
	})
}
