package domain

import "time"

// Session is an authenticated user's server-side session. Its existence
// implies "authenticated"; absence or expiry implies "not authenticated".
// Expired records are not swept in the background — they are deleted when
// next observed.
type Session struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsExpired reports whether the session's TTL has elapsed at instant now.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// SessionCookie is the transport-safe form of a session handed to clients.
type SessionCookie struct {
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionCookieName is the canonical cookie name for platform sessions.
const SessionCookieName = "SESS_ID"
