package ports

import (
	"context"

	"github.com/etherealapi/identity-platform/internal/core/domain"
)

// SessionStatus is the lightweight probe result for "am I still signed in".
type SessionStatus struct {
	IsSessionAlive bool `json:"is_session_alive"`
}

// UserService exposes the platform-user side of the identity platform:
// registration, sign-in/out, profile updates, deactivation and the follow
// graph. Every authenticated operation resolves the session to a live, active
// user first; a deactivated or deleted user can never act.
type UserService interface {
	CreateUser(ctx context.Context, email, password string) error
	SignIn(ctx context.Context, email, password, userAgent, ip string) (*domain.Session, error)
	SignOut(ctx context.Context, sessionID string) error
	SessionStatus(ctx context.Context, sessionID string) SessionStatus
	SessionCookie(ctx context.Context, sessionID string) (*domain.SessionCookie, error)

	GetUser(ctx context.Context, sessionID string) (*domain.User, error)
	UpdateEmail(ctx context.Context, sessionID, email string) error
	UpdateUsername(ctx context.Context, sessionID, username string) error
	UpdateName(ctx context.Context, sessionID, firstName, lastName string) error
	ChangePassword(ctx context.Context, sessionID, oldPassword, newPassword string) error
	DeactivateUser(ctx context.Context, sessionID string) error

	FollowApp(ctx context.Context, sessionID, appName, alias string) error
	UnfollowApp(ctx context.Context, sessionID, appName string) error
	GetAppUser(ctx context.Context, sessionID, appName string) (*AppUserView, error)
	GetAppURL(ctx context.Context, sessionID, appName string) (string, error)
	FollowedApps(ctx context.Context, sessionID string) ([]AppView, error)
	AppsForUser(ctx context.Context, sessionID string) ([]RelatedAppView, error)
}
