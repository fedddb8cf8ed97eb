package ports

import (
	"context"

	"github.com/etherealapi/identity-platform/internal/core/domain"
)

// AppPatch carries the mutable fields of an application.
type AppPatch struct {
	Name          *string
	URL           *string
	Email         *string
	EmailVerified *bool
	IsActive      *bool
}

// ApplicationRepository defines persistence operations for registered
// applications.
type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.Application) (*domain.Application, error)
	GetByID(ctx context.Context, id string) (*domain.Application, error)
	GetByName(ctx context.Context, name string) (*domain.Application, error)
	List(ctx context.Context) ([]*domain.Application, error)
	Update(ctx context.Context, id string, patch AppPatch) (*domain.Application, error)
	// Delete is the hard-delete rollback primitive, mirroring UserRepository.Delete.
	Delete(ctx context.Context, id string) (*domain.Application, error)
}
