package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/etherealapi/identity-platform/internal/api/metrics"
	"github.com/etherealapi/identity-platform/internal/core/domain"
	"github.com/etherealapi/identity-platform/internal/core/ports"
)

const defaultSessionTTL = 24 * time.Hour

// SessionService implements the session state machine: Active (expiresAt in
// the future) → Expired (record still persisted) → Deleted (record absent).
// There is no background sweeper; expiry is observed, and cleaned up, on the
// next access.
type SessionService struct {
	sessions  ports.SessionRepository
	processor *SecretProcessor
	encrypter ports.Encrypter
	ttl       time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

func NewSessionService(
	sessions ports.SessionRepository,
	processor *SecretProcessor,
	encrypter ports.Encrypter,
	ttl time.Duration,
	log zerolog.Logger,
) *SessionService {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionService{
		sessions:  sessions,
		processor: processor,
		encrypter: encrypter,
		ttl:       ttl,
		now:       time.Now,
		log:       log,
	}
}

// Resolve fetches a session by id. An absent session means not
// authenticated; an expired one is deleted on the spot and reported as
// expired.
func (s *SessionService) Resolve(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrUserNotAuthenticated
		}
		return nil, err
	}

	if session.IsExpired(s.now()) {
		if _, err := s.sessions.Delete(ctx, sessionID); err != nil {
			return nil, domain.ErrExpiredSessionCannotBeDeleted.With(domain.Params{"sessionId": sessionID})
		}
		metrics.SessionsExpiredTotal.Inc()
		return nil, domain.ErrSessionExpired
	}

	return session, nil
}

// Create mints a fresh session for (deviceID, userID) with a new opaque
// token and the configured TTL.
func (s *SessionService) Create(ctx context.Context, deviceID, userID string) (*domain.Session, error) {
	token, err := s.processor.GenerateUniqueToken()
	if err != nil {
		return nil, domain.ErrSessionCannotBeCreated.With(domain.Params{"userId": userID, "deviceId": deviceID})
	}

	now := s.now().UTC()
	session := &domain.Session{
		ID:        token,
		DeviceID:  deviceID,
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.sessions.Create(ctx, session)
	if err != nil {
		return nil, domain.ErrSessionCannotBeCreated.With(domain.Params{"userId": userID, "deviceId": deviceID})
	}

	metrics.SessionsCreatedTotal.Inc()
	s.log.Info().Str("user_id", userID).Str("device_id", deviceID).Msg("session created")
	return created, nil
}

// Terminate resolves the session and deletes it. A delete that does not
// affirmatively return a removed record is an internal failure.
func (s *SessionService) Terminate(ctx context.Context, sessionID string) error {
	session, err := s.Resolve(ctx, sessionID)
	if err != nil {
		return err
	}

	if _, err := s.sessions.Delete(ctx, session.ID); err != nil {
		return domain.ErrSessionCannotBeDeleted.With(domain.Params{"sessionId": session.ID})
	}

	metrics.SessionsTerminatedTotal.Inc()
	return nil
}

// Status probes whether the session is alive, swallowing resolution errors.
func (s *SessionService) Status(ctx context.Context, sessionID string) ports.SessionStatus {
	if _, err := s.Resolve(ctx, sessionID); err != nil {
		s.log.Warn().Err(err).Msg("session status probe failed")
		return ports.SessionStatus{IsSessionAlive: false}
	}
	return ports.SessionStatus{IsSessionAlive: true}
}

// IssueCookie resolves the session and returns its transport-safe cookie
// form: the session id run through the platform blinding.
func (s *SessionService) IssueCookie(ctx context.Context, sessionID string) (*domain.SessionCookie, error) {
	session, err := s.Resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	value, err := s.encrypter.Encrypt(session.ID)
	if err != nil {
		return nil, err
	}

	return &domain.SessionCookie{
		Name:      domain.SessionCookieName,
		Value:     value,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// ParseCookie is the inverse of IssueCookie. Structurally malformed cookie
// strings are rejected with an error distinct from "not authenticated".
func (s *SessionService) ParseCookie(raw string) (string, error) {
	parts := strings.Split(raw, "=")
	if len(parts) != 2 || parts[0] != domain.SessionCookieName || parts[1] == "" {
		return "", domain.ErrSessionCookieMalformed
	}

	sessionID, err := s.encrypter.Decrypt(parts[1])
	if err != nil {
		return "", domain.ErrSessionCookieMalformed
	}
	return sessionID, nil
}

// DeleteAllForUser deletes every session owned by userID, best-effort: each
// deletion is attempted independently and failures are logged, never
// propagated. Only a failure to list the sessions aborts.
func (s *SessionService) DeleteAllForUser(ctx context.Context, userID string) error {
	sessions, err := s.sessions.ListByUserID(ctx, userID)
	if err != nil {
		return err
	}

	var unterminated []string
	for _, session := range sessions {
		if _, err := s.sessions.Delete(ctx, session.ID); err != nil {
			unterminated = append(unterminated, session.ID)
		}
	}

	if len(unterminated) > 0 {
		metrics.CascadeFailuresTotal.WithLabelValues("sessions").Add(float64(len(unterminated)))
		s.log.Warn().
			Str("user_id", userID).
			Strs("unterminated_sessions", unterminated).
			Msg("some sessions could not be terminated, remove them manually")
	}
	return nil
}
