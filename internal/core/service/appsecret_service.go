package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/etherealapi/identity-platform/internal/api/metrics"
	"github.com/etherealapi/identity-platform/internal/core/domain"
	"github.com/etherealapi/identity-platform/internal/core/ports"
)

// AppSecretService issues and verifies application access-key pairs on top
// of the generic secret store.
//
// The credential design is deliberate: accessKeyId = encrypt(externalId) and
// secretAccessKey = encrypt(passHash) — the "secret" handed back is the
// stored hash itself, so verification is a decrypt + equality check, not a
// re-hash. This makes the secret store the source of truth for app API keys,
// at the cost that rotating the hashing algorithm invalidates every
// outstanding pair.
type AppSecretService struct {
	secrets   ports.SecretRepository
	processor *SecretProcessor
	encrypter ports.Encrypter
	log       zerolog.Logger
}

func NewAppSecretService(
	secrets ports.SecretRepository,
	processor *SecretProcessor,
	encrypter ports.Encrypter,
	log zerolog.Logger,
) *AppSecretService {
	return &AppSecretService{
		secrets:   secrets,
		processor: processor,
		encrypter: encrypter,
		log:       log,
	}
}

// compileSecretSource derives the string that is hashed into an app secret.
// It binds the secret to the app id, the current backup code and the app's
// registration instant, so presenting the right backup code later proves
// ownership.
func compileSecretSource(appID, backupCode string, createdAt time.Time) string {
	return appID + backupCode + createdAt.UTC().Format(time.RFC3339Nano)
}

// CreateAppSecret generates a backup code, hashes the derived secret source
// and persists a Secret of type APP. Returns the secret and the backup code
// (shown to the application exactly once).
func (s *AppSecretService) CreateAppSecret(ctx context.Context, appID string, createdAt time.Time) (*domain.Secret, string, error) {
	backupCode := uuid.NewString()

	hash, salt, err := s.processor.HashSecret(compileSecretSource(appID, backupCode, createdAt))
	if err != nil {
		return nil, "", domain.ErrAppSecretCannotBeCreated.With(domain.Params{"appId": appID})
	}

	created, err := s.secrets.Create(ctx, &domain.Secret{
		ExternalID: appID,
		Type:       domain.SecretTypeApp,
		PassHash:   hash,
		Salt:       salt,
	})
	if err != nil {
		return nil, "", domain.ErrAppSecretCannotBeCreated.With(domain.Params{"appId": appID})
	}

	return created, backupCode, nil
}

// IssueKeys blinds a secret into the access-key pair handed to the
// application.
func (s *AppSecretService) IssueKeys(secret *domain.Secret, backupCode string) (*domain.AccessKeys, error) {
	accessKeyID, err := s.encrypter.Encrypt(secret.ExternalID)
	if err != nil {
		return nil, err
	}
	secretAccessKey, err := s.encrypter.Encrypt(secret.PassHash)
	if err != nil {
		return nil, err
	}
	return &domain.AccessKeys{
		AccessKeyID:     accessKeyID,
		SecretAccessKey: secretAccessKey,
		BackupCode:      backupCode,
	}, nil
}

// ResolveAppID verifies an access-key pair and returns the owning app id.
// A missing secret and a hash mismatch are deliberately indistinguishable to
// the caller, to avoid oracle attacks.
func (s *AppSecretService) ResolveAppID(ctx context.Context, keys ports.AccessKeyPair) (string, error) {
	secretID, err := s.encrypter.Decrypt(keys.AccessKeyID)
	if err != nil {
		return "", domain.ErrInvalidAppAccessKey
	}
	unverifiedHash, err := s.encrypter.Decrypt(keys.SecretAccessKey)
	if err != nil {
		return "", domain.ErrInvalidAppAccessKey
	}

	secret, err := s.secrets.Get(ctx, secretID, domain.SecretTypeApp)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			s.log.Error().Err(err).Msg("secret lookup failed during access key verification")
		}
		return "", domain.ErrInvalidAppAccessKey
	}

	if subtle.ConstantTimeCompare([]byte(unverifiedHash), []byte(secret.PassHash)) != 1 {
		return "", domain.ErrInvalidAppAccessKey
	}

	return secret.ExternalID, nil
}

// ResetKeys verifies the supplied backup code against the stored hash and,
// on success, rotates the secret and returns a fresh pair plus a new backup
// code. A wrong backup code yields the generic invalid-credentials error,
// never a specific one, to discourage brute-forcing.
func (s *AppSecretService) ResetKeys(ctx context.Context, appID string, createdAt time.Time, backupCode string) (*domain.AccessKeys, error) {
	secret, err := s.secrets.Get(ctx, appID, domain.SecretTypeApp)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrAppSecretMissing.With(domain.Params{"appId": appID})
		}
		return nil, err
	}

	assumedSource := compileSecretSource(appID, backupCode, createdAt)
	if !s.processor.VerifySecret(assumedSource, secret.PassHash, secret.Salt) {
		metrics.AccessKeyResetsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidAppCredentials
	}

	newBackupCode := uuid.NewString()
	hash, salt, err := s.processor.HashSecret(compileSecretSource(appID, newBackupCode, createdAt))
	if err != nil {
		metrics.AccessKeyResetsTotal.WithLabelValues("error").Inc()
		return nil, domain.ErrAppSecretCannotBeUpdated.With(domain.Params{"appId": appID})
	}

	updated, err := s.secrets.Update(ctx, appID, domain.SecretTypeApp, ports.SecretPatch{
		PassHash: &hash,
		Salt:     &salt,
	})
	if err != nil {
		metrics.AccessKeyResetsTotal.WithLabelValues("error").Inc()
		return nil, domain.ErrAppSecretCannotBeUpdated.With(domain.Params{"appId": appID})
	}

	metrics.AccessKeyResetsTotal.WithLabelValues("ok").Inc()
	s.log.Info().Str("app_id", appID).Msg("access keys rotated")
	return s.IssueKeys(updated, newBackupCode)
}

// DeleteAppSecret hard-deletes the app's secret. Used only during
// deactivation; a delete that removes nothing is an internal failure.
func (s *AppSecretService) DeleteAppSecret(ctx context.Context, appID string) error {
	if _, err := s.secrets.Delete(ctx, appID, domain.SecretTypeApp); err != nil {
		return domain.ErrAppSecretCannotBeDeleted.With(domain.Params{"appId": appID})
	}
	return nil
}
