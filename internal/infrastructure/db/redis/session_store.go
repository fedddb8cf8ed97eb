package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/etherealapi/identity-platform/internal/core/domain"
	"github.com/etherealapi/identity-platform/internal/core/ports"
)

// SessionStore is the Redis adapter for sessions.
//
// Key format:
//
//	session:<id>        → JSON-encoded session record
//	user_sessions:<uid> → set of session ids owned by the user
//
// Records carry no server-side TTL: an expired session must stay observable
// so that the next access can report "expired" rather than "absent" and
// clean the record up itself.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

var _ ports.SessionRepository = (*SessionStore)(nil)

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func userSessionsKey(userID string) string {
	return fmt.Sprintf("user_sessions:%s", userID)
}

func (s *SessionStore) Create(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	payload, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("session marshal: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), payload, 0)
	pipe.SAdd(ctx, userSessionsKey(session.UserID), session.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("session create: %w", err)
	}
	return session, nil
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("session get: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	return &session, nil
}

func (s *SessionStore) ListByUserID(ctx context.Context, userID string) ([]*domain.Session, error) {
	ids, err := s.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("session list: %w", err)
	}

	sessions := make([]*domain.Session, 0, len(ids))
	for _, id := range ids {
		session, err := s.GetByID(ctx, id)
		if err != nil {
			// A stale index entry is self-healed, not surfaced.
			if errors.Is(err, domain.ErrRecordNotFound) {
				s.client.SRem(ctx, userSessionsKey(userID), id)
				continue
			}
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Delete removes the session and returns the removed record. GETDEL makes
// the removal affirmative: redis.Nil means nothing was deleted.
func (s *SessionStore) Delete(ctx context.Context, id string) (*domain.Session, error) {
	payload, err := s.client.GetDel(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("session delete: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}

	if err := s.client.SRem(ctx, userSessionsKey(session.UserID), id).Err(); err != nil {
		return nil, fmt.Errorf("session index cleanup: %w", err)
	}
	return &session, nil
}
