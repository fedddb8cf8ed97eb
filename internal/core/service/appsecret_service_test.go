package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/etherealapi/identity-platform/internal/core/domain"
	"github.com/etherealapi/identity-platform/internal/core/ports"
)

func newAppSecretFixture(t *testing.T) (*AppSecretService, *stubSecretRepo) {
	t.Helper()
	repo := newStubSecretRepo()
	encrypter, err := NewEnchantEncrypter(testTheme)
	if err != nil {
		t.Fatalf("NewEnchantEncrypter: %v", err)
	}
	return NewAppSecretService(repo, NewSecretProcessor(), encrypter, zerolog.Nop()), repo
}

func TestAccessKeyLifecycle(t *testing.T) {
	svc, _ := newAppSecretFixture(t)
	ctx := context.Background()
	createdAt := time.Now().UTC()

	secret, backupCode, err := svc.CreateAppSecret(ctx, "app-1", createdAt)
	if err != nil {
		t.Fatalf("CreateAppSecret: %v", err)
	}
	if backupCode == "" {
		t.Fatal("empty backup code")
	}

	keys, err := svc.IssueKeys(secret, backupCode)
	if err != nil {
		t.Fatalf("IssueKeys: %v", err)
	}
	if keys.AccessKeyID == "app-1" {
		t.Fatal("access key id leaks the raw app id")
	}
	if keys.BackupCode != backupCode {
		t.Fatalf("backup code = %q, want %q", keys.BackupCode, backupCode)
	}

	appID, err := svc.ResolveAppID(ctx, ports.AccessKeyPair{
		AccessKeyID:     keys.AccessKeyID,
		SecretAccessKey: keys.SecretAccessKey,
	})
	if err != nil {
		t.Fatalf("ResolveAppID: %v", err)
	}
	if appID != "app-1" {
		t.Fatalf("resolved app id = %q, want app-1", appID)
	}
}

func TestResolveAppIDRejectsBadPairs(t *testing.T) {
	svc, _ := newAppSecretFixture(t)
	ctx := context.Background()
	createdAt := time.Now().UTC()

	secret, backupCode, err := svc.CreateAppSecret(ctx, "app-1", createdAt)
	if err != nil {
		t.Fatalf("CreateAppSecret: %v", err)
	}
	keys, err := svc.IssueKeys(secret, backupCode)
	if err != nil {
		t.Fatalf("IssueKeys: %v", err)
	}

	otherEncrypter, err := NewEnchantEncrypter(testTheme)
	if err != nil {
		t.Fatalf("NewEnchantEncrypter: %v", err)
	}
	unknownID, err := otherEncrypter.Encrypt("app-unknown")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	mismatchedSecret, err := otherEncrypter.Encrypt("not-the-stored-hash")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	cases := []struct {
		name string
		pair ports.AccessKeyPair
	}{
		{"garbage access key id", ports.AccessKeyPair{AccessKeyID: "!!!", SecretAccessKey: keys.SecretAccessKey}},
		{"garbage secret", ports.AccessKeyPair{AccessKeyID: keys.AccessKeyID, SecretAccessKey: "!!!"}},
		{"unknown app", ports.AccessKeyPair{AccessKeyID: unknownID, SecretAccessKey: keys.SecretAccessKey}},
		{"mismatched secret", ports.AccessKeyPair{AccessKeyID: keys.AccessKeyID, SecretAccessKey: mismatchedSecret}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.ResolveAppID(ctx, tc.pair); !errors.Is(err, domain.ErrInvalidAppAccessKey) {
				t.Fatalf("err = %v, want ErrInvalidAppAccessKey", err)
			}
		})
	}
}

func TestResetKeysRotatesThePair(t *testing.T) {
	svc, _ := newAppSecretFixture(t)
	ctx := context.Background()
	createdAt := time.Now().UTC()

	secret, backupCode, err := svc.CreateAppSecret(ctx, "app-1", createdAt)
	if err != nil {
		t.Fatalf("CreateAppSecret: %v", err)
	}
	oldKeys, err := svc.IssueKeys(secret, backupCode)
	if err != nil {
		t.Fatalf("IssueKeys: %v", err)
	}

	if _, err := svc.ResetKeys(ctx, "app-1", createdAt, "wrong-backup-code"); !errors.Is(err, domain.ErrInvalidAppCredentials) {
		t.Fatalf("err = %v, want ErrInvalidAppCredentials", err)
	}

	newKeys, err := svc.ResetKeys(ctx, "app-1", createdAt, backupCode)
	if err != nil {
		t.Fatalf("ResetKeys: %v", err)
	}
	if newKeys.BackupCode == backupCode {
		t.Fatal("backup code was not rotated")
	}

	oldPair := ports.AccessKeyPair{AccessKeyID: oldKeys.AccessKeyID, SecretAccessKey: oldKeys.SecretAccessKey}
	if _, err := svc.ResolveAppID(ctx, oldPair); !errors.Is(err, domain.ErrInvalidAppAccessKey) {
		t.Fatalf("old pair err = %v, want ErrInvalidAppAccessKey", err)
	}

	newPair := ports.AccessKeyPair{AccessKeyID: newKeys.AccessKeyID, SecretAccessKey: newKeys.SecretAccessKey}
	appID, err := svc.ResolveAppID(ctx, newPair)
	if err != nil {
		t.Fatalf("ResolveAppID with new pair: %v", err)
	}
	if appID != "app-1" {
		t.Fatalf("resolved app id = %q, want app-1", appID)
	}
}

func TestResetKeysWithoutSecretRecord(t *testing.T) {
	svc, _ := newAppSecretFixture(t)

	_, err := svc.ResetKeys(context.Background(), "app-ghost", time.Now(), "any")
	if !errors.Is(err, domain.ErrAppSecretMissing) {
		t.Fatalf("err = %v, want ErrAppSecretMissing", err)
	}
}

func TestDeleteAppSecret(t *testing.T) {
	svc, repo := newAppSecretFixture(t)
	ctx := context.Background()

	if _, _, err := svc.CreateAppSecret(ctx, "app-1", time.Now()); err != nil {
		t.Fatalf("CreateAppSecret: %v", err)
	}
	if err := svc.DeleteAppSecret(ctx, "app-1"); err != nil {
		t.Fatalf("DeleteAppSecret: %v", err)
	}
	if len(repo.secrets) != 0 {
		t.Fatal("secret record still present after delete")
	}

	if err := svc.DeleteAppSecret(ctx, "app-1"); !errors.Is(err, domain.ErrAppSecretCannotBeDeleted) {
		t.Fatalf("second delete err = %v, want ErrAppSecretCannotBeDeleted", err)
	}
}
