package ports

import (
	"context"

	"github.com/etherealapi/identity-platform/internal/core/domain"
)

// UserPatch carries the mutable fields of a user. Nil pointers are left
// untouched by Update.
type UserPatch struct {
	Email         *string
	EmailVerified *bool
	Username      *string
	FirstName     *string
	LastName      *string
	IsActive      *bool
}

// UserRepository defines persistence operations for platform users.
// Absence is reported as domain.ErrRecordNotFound, unique-key violations as
// domain.ErrDuplicateRecord.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, id string, patch UserPatch) (*domain.User, error)
	// Delete removes the record permanently. It exists solely as a rollback
	// primitive for failed registrations; user-facing removal is always a
	// soft deactivation.
	Delete(ctx context.Context, id string) (*domain.User, error)
}
