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

type accountFixture struct {
	users       *stubUserRepo
	apps        *stubAppRepo
	projections *stubProjectionRepo
	secrets     *stubSecretRepo
	devices     *stubDeviceRepo
	sessionRepo *stubSessionRepo
	sessions    *SessionService
	audit       *stubAuditSink
	svc         *AccountService
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()

	f := &accountFixture{
		users:       newStubUserRepo(),
		apps:        newStubAppRepo(),
		projections: newStubProjectionRepo(),
		secrets:     newStubSecretRepo(),
		devices:     newStubDeviceRepo(),
		sessionRepo: newStubSessionRepo(),
		audit:       &stubAuditSink{},
	}

	encrypter, err := NewEnchantEncrypter(testTheme)
	if err != nil {
		t.Fatalf("NewEnchantEncrypter: %v", err)
	}
	processor := NewSecretProcessor()
	f.sessions = NewSessionService(f.sessionRepo, processor, encrypter, time.Hour, zerolog.Nop())
	appUsers := NewProjectionService(f.projections, f.apps, zerolog.Nop())
	f.svc = NewAccountService(
		f.users, f.apps, f.projections, f.secrets, f.devices,
		f.sessions, appUsers, processor, f.audit, zerolog.Nop(),
	)
	return f
}

func (f *accountFixture) addApp(t *testing.T, name string) *domain.Application {
	t.Helper()
	app, err := f.apps.Create(context.Background(), &domain.Application{
		Name:     name,
		URL:      "https://" + name + ".example.com",
		Email:    name + "@example.com",
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("seed app: %v", err)
	}
	return app
}

// signedInUser registers and signs in a user, returning the session and the
// user id.
func (f *accountFixture) signedInUser(t *testing.T, email, password string) (*domain.Session, string) {
	t.Helper()
	ctx := context.Background()

	if err := f.svc.CreateUser(ctx, email, password); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	session, err := f.svc.SignIn(ctx, email, password, "test-agent", "10.0.0.1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	return session, session.UserID
}

// ── Registration ─────────────────────────────────────────────────────────────

func TestCreateUserStoresUserAndSecret(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	if err := f.svc.CreateUser(ctx, "ada@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	user, err := f.users.GetByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if !user.IsActive {
		t.Fatal("new user is not active")
	}

	matching, err := f.svc.verifyUserSecret(ctx, user.ID, "hunter2hunter2")
	if err != nil {
		t.Fatalf("verifyUserSecret: %v", err)
	}
	if !matching {
		t.Fatal("stored secret does not verify the registration password")
	}
}

func TestCreateUserValidation(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	if err := f.svc.CreateUser(ctx, "not-an-email", "hunter2hunter2"); !errors.Is(err, domain.ErrEmailInvalid) {
		t.Fatalf("err = %v, want ErrEmailInvalid", err)
	}
	if err := f.svc.CreateUser(ctx, "ada@example.com", "short"); !errors.Is(err, domain.ErrPasswordInvalid) {
		t.Fatalf("err = %v, want ErrPasswordInvalid", err)
	}
}

func TestCreateUserEmailStaysReserved(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	if err := f.svc.CreateUser(ctx, "ada@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := f.svc.CreateUser(ctx, "ada@example.com", "hunter2hunter2"); !errors.Is(err, domain.ErrEmailNotAvailable) {
		t.Fatalf("err = %v, want ErrEmailNotAvailable", err)
	}

	// A deactivated account keeps its address reserved.
	user, err := f.users.GetByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	inactive := false
	if _, err := f.users.Update(ctx, user.ID, ports.UserPatch{IsActive: &inactive}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := f.svc.CreateUser(ctx, "ada@example.com", "hunter2hunter2"); !errors.Is(err, domain.ErrEmailNotAvailable) {
		t.Fatalf("err after deactivation = %v, want ErrEmailNotAvailable", err)
	}
}

func TestCreateUserRollsBackOnSecretFailure(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.secrets.createErr = errors.New("secret store down")

	err := f.svc.CreateUser(ctx, "ada@example.com", "hunter2hunter2")
	if !errors.Is(err, domain.ErrUserCannotBeCreated) {
		t.Fatalf("err = %v, want ErrUserCannotBeCreated", err)
	}
	if len(f.users.users) != 0 {
		t.Fatal("user record survived the rollback")
	}
}

func TestCreateUserRollbackFailureIsDistinct(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.secrets.createErr = errors.New("secret store down")
	f.users.deleteErr = errors.New("user store down")

	err := f.svc.CreateUser(ctx, "ada@example.com", "hunter2hunter2")
	if !errors.Is(err, domain.ErrUserRollback) {
		t.Fatalf("err = %v, want ErrUserRollback", err)
	}
	if len(f.users.users) != 1 {
		t.Fatal("expected the orphaned user record to remain for manual cleanup")
	}
}

// ── Sign-in ──────────────────────────────────────────────────────────────────

func TestSignInRejectsBadCredentials(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	if _, err := f.svc.SignIn(ctx, "ghost@example.com", "whatever", "agent", "ip"); !errors.Is(err, domain.ErrInvalidUserCredentials) {
		t.Fatalf("unknown email err = %v, want ErrInvalidUserCredentials", err)
	}

	if err := f.svc.CreateUser(ctx, "ada@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := f.svc.SignIn(ctx, "ada@example.com", "wrong-password", "agent", "ip"); !errors.Is(err, domain.ErrInvalidUserCredentials) {
		t.Fatalf("wrong password err = %v, want ErrInvalidUserCredentials", err)
	}
}

func TestSignInRejectsDeactivatedAccount(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	if err := f.svc.CreateUser(ctx, "ada@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	user, err := f.users.GetByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	inactive := false
	if _, err := f.users.Update(ctx, user.ID, ports.UserPatch{IsActive: &inactive}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if _, err := f.svc.SignIn(ctx, "ada@example.com", "hunter2hunter2", "agent", "ip"); !errors.Is(err, domain.ErrUserAccountGone) {
		t.Fatalf("err = %v, want ErrUserAccountGone", err)
	}
}

func TestSignInBindsSessionToDevice(t *testing.T) {
	f := newAccountFixture(t)
	session, _ := f.signedInUser(t, "ada@example.com", "hunter2hunter2")

	device, err := f.devices.GetByFingerprint(context.Background(), "test-agent", "10.0.0.1")
	if err != nil {
		t.Fatalf("GetByFingerprint: %v", err)
	}
	if device.SessionID != session.ID {
		t.Fatalf("device session = %q, want %q", device.SessionID, session.ID)
	}
}

func TestSignInIsIdempotentPerDevice(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	first, _ := f.signedInUser(t, "ada@example.com", "hunter2hunter2")

	// Same device, live session: the session is reused before credentials
	// are even checked.
	second, err := f.svc.SignIn(ctx, "ada@example.com", "wrong-password", "test-agent", "10.0.0.1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected session reuse, got %q and %q", first.ID, second.ID)
	}

	// A different device starts a fresh session and does check credentials.
	if _, err := f.svc.SignIn(ctx, "ada@example.com", "wrong-password", "other-agent", "10.0.0.2"); !errors.Is(err, domain.ErrInvalidUserCredentials) {
		t.Fatalf("err = %v, want ErrInvalidUserCredentials", err)
	}
	third, err := f.svc.SignIn(ctx, "ada@example.com", "hunter2hunter2", "other-agent", "10.0.0.2")
	if err != nil {
		t.Fatalf("SignIn from second device: %v", err)
	}
	if third.ID == first.ID {
		t.Fatal("second device reused the first device's session")
	}
}

func TestSignInAfterExpiryCreatesFreshSession(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	first, _ := f.signedInUser(t, "ada@example.com", "hunter2hunter2")

	f.sessions.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	second, err := f.svc.SignIn(ctx, "ada@example.com", "hunter2hunter2", "test-agent", "10.0.0.1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expired session was reused")
	}
	if _, ok := f.sessionRepo.sessions[first.ID]; ok {
		t.Fatal("expired session record was not cleaned up")
	}
}

// ── Session-bound operations ─────────────────────────────────────────────────

func TestGetUserDetectsZombieSessions(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	session, userID := f.signedInUser(t, "ada@example.com", "hunter2hunter2")

	// Deactivated principal behind a live session.
	inactive := false
	if _, err := f.users.Update(ctx, userID, ports.UserPatch{IsActive: &inactive}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := f.svc.GetUser(ctx, session.ID); !errors.Is(err, domain.ErrUserAccountGoneSessions) {
		t.Fatalf("inactive err = %v, want ErrUserAccountGoneSessions", err)
	}

	// Hard-deleted principal behind a live session.
	delete(f.users.users, userID)
	if _, err := f.svc.GetUser(ctx, session.ID); !errors.Is(err, domain.ErrUserAccountGoneSessions) {
		t.Fatalf("missing err = %v, want ErrUserAccountGoneSessions", err)
	}
}

func TestSignOut(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	session, _ := f.signedInUser(t, "ada@example.com", "hunter2hunter2")

	if err := f.svc.SignOut(ctx, session.ID); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, err := f.svc.GetUser(ctx, session.ID); !errors.Is(err, domain.ErrUserNotAuthenticated) {
		t.Fatalf("err = %v, want ErrUserNotAuthenticated", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	session, userID := f.signedInUser(t, "ada@example.com", "hunter2hunter2")

	if err := f.svc.ChangePassword(ctx, session.ID, "wrong-old", "new-password-1"); !errors.Is(err, domain.ErrInvalidOldPassword) {
		t.Fatalf("err = %v, want ErrInvalidOldPassword", err)
	}
	if err := f.svc.ChangePassword(ctx, session.ID, "hunter2hunter2", "short"); !errors.Is(err, domain.ErrPasswordInvalid) {
		t.Fatalf("err = %v, want ErrPasswordInvalid", err)
	}

	if err := f.svc.ChangePassword(ctx, session.ID, "hunter2hunter2", "new-password-1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	matching, err := f.svc.verifyUserSecret(ctx, userID, "new-password-1")
	if err != nil {
		t.Fatalf("verifyUserSecret: %v", err)
	}
	if !matching {
		t.Fatal("new password does not verify")
	}
	matching, err = f.svc.verifyUserSecret(ctx, userID, "hunter2hunter2")
	if err != nil {
		t.Fatalf("verifyUserSecret: %v", err)
	}
	if matching {
		t.Fatal("old password still verifies")
	}
}

func TestProfileUpdates(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	session, userID := f.signedInUser(t, "ada@example.com", "hunter2hunter2")

	if err := f.svc.UpdateUsername(ctx, session.ID, "x"); !errors.Is(err, domain.ErrUsernameInvalid) {
		t.Fatalf("err = %v, want ErrUsernameInvalid", err)
	}
	if err := f.svc.UpdateUsername(ctx, session.ID, "ada_lovelace"); err != nil {
		t.Fatalf("UpdateUsername: %v", err)
	}
	if err := f.svc.UpdateName(ctx, session.ID, "Ada", "Lovelace"); err != nil {
		t.Fatalf("UpdateName: %v", err)
	}
	if err := f.svc.UpdateEmail(ctx, session.ID, "countess@example.com"); err != nil {
		t.Fatalf("UpdateEmail: %v", err)
	}

	user, err := f.users.GetByID(ctx, userID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if user.Username != "ada_lovelace" || user.FirstName != "Ada" || user.LastName != "Lovelace" || user.Email != "countess@example.com" {
		t.Fatalf("profile not updated: %+v", user)
	}
}

func TestUpdateEmailRejectsTakenAddress(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	session, _ := f.signedInUser(t, "ada@example.com", "hunter2hunter2")
	if err := f.svc.CreateUser(ctx, "grace@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if err := f.svc.UpdateEmail(ctx, session.ID, "grace@example.com"); !errors.Is(err, domain.ErrEmailNotAvailable) {
		t.Fatalf("err = %v, want ErrEmailNotAvailable", err)
	}
}

// ── Deactivation ─────────────────────────────────────────────────────────────

func TestDeactivateUserCascade(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	app := f.addApp(t, "shop")
	session, userID := f.signedInUser(t, "ada@example.com", "hunter2hunter2")

	if err := f.svc.FollowApp(ctx, session.ID, "shop", "ada"); err != nil {
		t.Fatalf("FollowApp: %v", err)
	}

	if err := f.svc.DeactivateUser(ctx, session.ID); err != nil {
		t.Fatalf("DeactivateUser: %v", err)
	}

	user, err := f.users.GetByID(ctx, userID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if user.IsActive {
		t.Fatal("user still active")
	}
	if _, err := f.secrets.Get(ctx, userID, domain.SecretTypeUser); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatal("user secret survived deactivation")
	}
	if len(f.sessionRepo.sessions) != 0 {
		t.Fatal("sessions survived deactivation")
	}
	if _, err := f.projections.Get(ctx, app.ID, userID); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatal("projection survived deactivation")
	}
}

func TestDeactivateUserToleratesSessionCleanupFailure(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	session, userID := f.signedInUser(t, "ada@example.com", "hunter2hunter2")

	other, err := f.svc.SignIn(ctx, "ada@example.com", "hunter2hunter2", "other-agent", "10.0.0.2")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	f.sessionRepo.failDelete[other.ID] = true

	if err := f.svc.DeactivateUser(ctx, session.ID); err != nil {
		t.Fatalf("DeactivateUser: %v", err)
	}
	user, err := f.users.GetByID(ctx, userID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if user.IsActive {
		t.Fatal("user still active despite best-effort session cleanup")
	}
}

func TestDeactivateUserFailsWhenSecretCannotBeDeleted(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	session, _ := f.signedInUser(t, "ada@example.com", "hunter2hunter2")
	f.secrets.deleteErr = errors.New("secret store down")

	if err := f.svc.DeactivateUser(ctx, session.ID); !errors.Is(err, domain.ErrUserSecretCannotBeDeleted) {
		t.Fatalf("err = %v, want ErrUserSecretCannotBeDeleted", err)
	}
}

// ── Follow graph ─────────────────────────────────────────────────────────────

func TestFollowGraphLifecycle(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	app := f.addApp(t, "shop")
	f.addApp(t, "blog")
	session, userID := f.signedInUser(t, "ada@example.com", "hunter2hunter2")

	if err := f.svc.FollowApp(ctx, session.ID, "ghost-app", "ada"); !errors.Is(err, domain.ErrAppDoesntExist) {
		t.Fatalf("err = %v, want ErrAppDoesntExist", err)
	}

	if err := f.svc.FollowApp(ctx, session.ID, "shop", "ada"); err != nil {
		t.Fatalf("FollowApp: %v", err)
	}
	if err := f.svc.FollowApp(ctx, session.ID, "shop", "ada"); !errors.Is(err, domain.ErrAppUserAlreadyExists) {
		t.Fatalf("err = %v, want ErrAppUserAlreadyExists", err)
	}

	view, err := f.svc.GetAppUser(ctx, session.ID, "shop")
	if err != nil {
		t.Fatalf("GetAppUser: %v", err)
	}
	if view.Alias != "ada" {
		t.Fatalf("alias = %q, want ada", view.Alias)
	}

	appURL, err := f.svc.GetAppURL(ctx, session.ID, "shop")
	if err != nil {
		t.Fatalf("GetAppURL: %v", err)
	}
	if appURL != app.URL {
		t.Fatalf("url = %q, want %q", appURL, app.URL)
	}
	if _, err := f.svc.GetAppURL(ctx, session.ID, "blog"); !errors.Is(err, domain.ErrAppUserDoesntExist) {
		t.Fatalf("unfollowed app url err = %v, want ErrAppUserDoesntExist", err)
	}

	followed, err := f.svc.FollowedApps(ctx, session.ID)
	if err != nil {
		t.Fatalf("FollowedApps: %v", err)
	}
	if len(followed) != 1 || followed[0].Name != "shop" {
		t.Fatalf("followed = %+v, want just shop", followed)
	}

	related, err := f.svc.AppsForUser(ctx, session.ID)
	if err != nil {
		t.Fatalf("AppsForUser: %v", err)
	}
	if len(related) != 2 {
		t.Fatalf("related = %+v, want two entries", related)
	}
	for _, entry := range related {
		wantFollowing := entry.Name == "shop"
		if entry.IsFollowing != wantFollowing {
			t.Fatalf("app %q following = %v, want %v", entry.Name, entry.IsFollowing, wantFollowing)
		}
	}

	if err := f.svc.UnfollowApp(ctx, session.ID, "shop"); err != nil {
		t.Fatalf("UnfollowApp: %v", err)
	}
	if err := f.svc.UnfollowApp(ctx, session.ID, "shop"); !errors.Is(err, domain.ErrAppUserDoesntExist) {
		t.Fatalf("double unfollow err = %v, want ErrAppUserDoesntExist", err)
	}
	if _, err := f.svc.GetAppUser(ctx, session.ID, "shop"); !errors.Is(err, domain.ErrAppUserDoesntExist) {
		t.Fatalf("err = %v, want ErrAppUserDoesntExist", err)
	}

	// Re-following revives the inactive record instead of duplicating it.
	if err := f.svc.FollowApp(ctx, session.ID, "shop", "ignored"); err != nil {
		t.Fatalf("re-follow: %v", err)
	}
	projection, err := f.projections.Get(ctx, app.ID, userID)
	if err != nil {
		t.Fatalf("Get projection: %v", err)
	}
	if !projection.IsActive {
		t.Fatal("re-followed projection is not active")
	}
	if projection.Alias != "ada" {
		t.Fatalf("alias = %q, reactivation should keep the original alias", projection.Alias)
	}
}
