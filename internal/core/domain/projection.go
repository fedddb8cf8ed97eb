package domain

import "time"

// UserProjection (aka AppUser) links a platform user to an application they
// follow and carries the per-app data attached to that relationship.
// Unique per (AppID, UserID). IsActive=false means "unfollowed"; the record
// is retained for history.
type UserProjection struct {
	AppID     string         `json:"app_id"`
	UserID    string         `json:"user_id"`
	Alias     string         `json:"alias,omitempty"`
	AppData   map[string]any `json:"app_data,omitempty"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
