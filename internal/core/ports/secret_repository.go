package ports

import (
	"context"

	"github.com/etherealapi/identity-platform/internal/core/domain"
)

// SecretPatch carries the mutable fields of a secret record.
type SecretPatch struct {
	PassHash *string
	Salt     *string
}

// SecretRepository defines persistence operations for hashed credentials.
// The (externalId, type) pair is the unique composite key; the store, not
// application logic, enforces at-most-one secret per principal.
type SecretRepository interface {
	Create(ctx context.Context, secret *domain.Secret) (*domain.Secret, error)
	Get(ctx context.Context, externalID string, typ domain.SecretType) (*domain.Secret, error)
	Update(ctx context.Context, externalID string, typ domain.SecretType, patch SecretPatch) (*domain.Secret, error)
	// Delete returns the removed record; domain.ErrRecordNotFound means
	// nothing was affirmatively deleted.
	Delete(ctx context.Context, externalID string, typ domain.SecretType) (*domain.Secret, error)
}
