package domain

import "time"

// Application is a registered client system that platform users can follow.
// Applications authenticate with an access-key pair instead of a password.
type Application struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AccessKeys is an application's credential pair plus the one-time backup
// code that allows resetting the pair. Both halves are blinded references
// into the application's Secret record, never raw database ids.
type AccessKeys struct {
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	BackupCode      string `json:"backup_code"`
}
