package domain

import "time"

// SecretType discriminates which kind of principal a Secret belongs to.
type SecretType string

const (
	SecretTypeUser SecretType = "USER"
	SecretTypeApp  SecretType = "APP"
)

// Secret is a generic hashed credential keyed by (ExternalID, Type).
// It backs both user passwords and application API keys; only the type and
// the owning principal id differ. At most one secret exists per
// (ExternalID, Type) pair — enforced by the store's unique composite key.
type Secret struct {
	ExternalID string     `json:"external_id"`
	Type       SecretType `json:"type"`
	PassHash   string     `json:"-"`
	Salt       string     `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
