package ports

import (
	"context"
	"time"

	"github.com/etherealapi/identity-platform/internal/core/domain"
)

// AccessKeyPair is an application's presented credential: two opaque halves,
// each a blinded reference into the app's secret record.
type AccessKeyPair struct {
	AccessKeyID     string
	SecretAccessKey string
}

// AppView is the public projection of an application.
type AppView struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// RelatedAppView is an AppView annotated with the caller's follow state.
type RelatedAppView struct {
	AppView
	IsFollowing bool `json:"is_following"`
}

// AppAccountView is the application's private view of its own account.
type AppAccountView struct {
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AppUserView is the follow-relationship record as exposed to callers.
type AppUserView struct {
	Alias     string         `json:"alias,omitempty"`
	AppData   map[string]any `json:"app_data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// AppService exposes the application side of the identity platform:
// registration with access-key issuance, key reset via backup code, profile
// updates, deactivation and app-user listings. Every authenticated operation
// resolves the access-key pair to a live, active application first.
type AppService interface {
	RegisterApp(ctx context.Context, name, email, url string) (*domain.AccessKeys, error)
	ResetAccessKeys(ctx context.Context, appName, email, backupCode string) (*domain.AccessKeys, error)

	GetApp(ctx context.Context, appName string) (*AppView, error)
	ListApps(ctx context.Context) ([]AppView, error)

	GetAppAccount(ctx context.Context, keys AccessKeyPair) (*AppAccountView, error)
	UpdateAppName(ctx context.Context, keys AccessKeyPair, name string) error
	UpdateAppURL(ctx context.Context, keys AccessKeyPair, url string) error
	UpdateAppEmail(ctx context.Context, keys AccessKeyPair, email string) error
	DeactivateApp(ctx context.Context, keys AccessKeyPair) error

	GetAppUsers(ctx context.Context, keys AccessKeyPair) ([]AppUserView, error)
}
