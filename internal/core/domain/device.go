package domain

import "time"

// Device is a client fingerprint, unique per (UserAgent, IP) pair. It may
// reference the single outstanding session created from it. A device
// outlives its session; the SessionID pointer simply goes stale after the
// session is deleted (documented inconsistency window).
type Device struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent"`
	IP        string    `json:"ip"`
	SessionID string    `json:"session_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
