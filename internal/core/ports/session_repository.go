package ports

import (
	"context"

	"github.com/etherealapi/identity-platform/internal/core/domain"
)

// SessionRepository defines persistence operations for sessions. Expired
// records stay in the store until observed; there is no store-side TTL.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) (*domain.Session, error)
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	ListByUserID(ctx context.Context, userID string) ([]*domain.Session, error)
	// Delete returns the removed record; domain.ErrRecordNotFound means
	// nothing was affirmatively deleted.
	Delete(ctx context.Context, id string) (*domain.Session, error)
}

// DevicePatch carries the mutable fields of a device record.
type DevicePatch struct {
	SessionID *string
}

// DeviceRepository defines persistence operations for device fingerprints,
// unique per (userAgent, ip).
type DeviceRepository interface {
	Create(ctx context.Context, device *domain.Device) (*domain.Device, error)
	GetByID(ctx context.Context, id string) (*domain.Device, error)
	GetByFingerprint(ctx context.Context, userAgent, ip string) (*domain.Device, error)
	Update(ctx context.Context, id string, patch DevicePatch) (*domain.Device, error)
}
