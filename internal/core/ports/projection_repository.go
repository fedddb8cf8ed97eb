package ports

import (
	"context"

	"github.com/etherealapi/identity-platform/internal/core/domain"
)

// ProjectionPatch carries the mutable fields of a user projection.
type ProjectionPatch struct {
	Alias    *string
	AppData  map[string]any
	IsActive *bool
}

// ProjectionRepository defines persistence operations for the (appId, userId)
// keyed follow records.
type ProjectionRepository interface {
	Create(ctx context.Context, projection *domain.UserProjection) (*domain.UserProjection, error)
	Get(ctx context.Context, appID, userID string) (*domain.UserProjection, error)
	ListByUserID(ctx context.Context, userID string) ([]*domain.UserProjection, error)
	ListByAppID(ctx context.Context, appID string) ([]*domain.UserProjection, error)
	Update(ctx context.Context, appID, userID string, patch ProjectionPatch) (*domain.UserProjection, error)
	Delete(ctx context.Context, appID, userID string) (*domain.UserProjection, error)
}
