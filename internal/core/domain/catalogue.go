package domain

import "net/http"

// Platform error catalogue. Codes are stable and grouped per subsystem:
// E10xx user auth/session, E101x user registration, E102x user deactivation,
// E103x user updates, E106x app auth, E107x app registration/lifecycle,
// E108x app users, E109x transport structure.
//
// Credential-mismatch errors are deliberately generic: they never reveal
// which half of a credential pair was wrong.

// ── User authentication & sessions ───────────────────────────────────────────

var (
	// ErrUserSecretMissing fires when a registered user has no secret record.
	// This should never happen; it means the sign-up flow is broken.
	ErrUserSecretMissing = &Error{
		Kind: KindInternal, Code: "E1000.1", Status: http.StatusInternalServerError, Internal: true,
		Template: "registered user {userId} has no associated secret record",
	}
	ErrSessionCannotBeDeleted = &Error{
		Kind: KindInternal, Code: "E1000.2", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not terminate session {sessionId}, remove the record manually",
	}
	ErrExpiredSessionCannotBeDeleted = &Error{
		Kind: KindInternal, Code: "E1000.3", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not delete expired session {sessionId}, remove the record manually",
	}
	ErrDeviceCannotBeCreated = &Error{
		Kind: KindInternal, Code: "E1000.4", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not create device record for user {userId} ({userAgent} @ {ip})",
	}
	ErrSessionCannotBeCreated = &Error{
		Kind: KindInternal, Code: "E1000.5", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not create session for user {userId} on device {deviceId}",
	}
	ErrUserNotAuthenticated = &Error{
		Kind: KindNotAuthenticated, Code: "E1001", Status: http.StatusUnauthorized,
		Template: "user is not signed in",
	}
	ErrSessionExpired = &Error{
		Kind: KindNotAuthenticated, Code: "E1002", Status: http.StatusUnauthorized,
		Template: "user session has expired",
	}
	ErrUserAccountGone = &Error{
		Kind: KindNotFound, Code: "E1003", Status: http.StatusNotFound,
		Template: "user account doesn't exist anymore",
	}
	// ErrUserAccountGoneSessions is the zombie-session variant of E1003: a
	// live session referenced a deleted or deactivated user.
	ErrUserAccountGoneSessions = &Error{
		Kind: KindNotFound, Code: "E1004", Status: http.StatusNotFound,
		Template: "user account doesn't exist anymore, associated sessions have been invalidated",
	}
	ErrInvalidUserCredentials = &Error{
		Kind: KindNotAuthenticated, Code: "E1005", Status: http.StatusUnauthorized,
		Template: "invalid credentials, cannot sign in",
	}
)

// ── User registration ────────────────────────────────────────────────────────

var (
	ErrUserSecretCannotBeCreated = &Error{
		Kind: KindInternal, Code: "E1010.1", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not create secret record for user {userId}",
	}
	ErrUserCannotBeCreated = &Error{
		Kind: KindInternal, Code: "E1010.2", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not create user account for {email}",
	}
	// ErrUserRollback means the compensating delete after a failed secret
	// creation itself failed: the store holds a user without a secret and
	// needs manual intervention.
	ErrUserRollback = &Error{
		Kind: KindInternal, Code: "E1010.3", Status: http.StatusInternalServerError, Internal: true,
		Template: "rollback failed for user {userId} ({email}), account is in an inconsistent state",
	}
	ErrPasswordInvalid = &Error{
		Kind: KindValidation, Code: "E1011", Status: http.StatusBadRequest,
		Template: "invalid password: must be at least {minLength} characters, got {actualLength}",
	}
	ErrEmailInvalid = &Error{
		Kind: KindValidation, Code: "E1012", Status: http.StatusBadRequest,
		Template: "invalid email address format",
	}
	ErrEmailNotAvailable = &Error{
		Kind: KindConflict, Code: "E1013", Status: http.StatusConflict,
		Template: "email address is not available",
	}
)

// ── User deactivation ────────────────────────────────────────────────────────

var (
	ErrUserCannotBeDeactivated = &Error{
		Kind: KindInternal, Code: "E1020.1", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not deactivate user account {userId}, deactivate it manually",
	}
	ErrUserSecretCannotBeDeleted = &Error{
		Kind: KindInternal, Code: "E1020.2", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not delete secret record for user {userId}",
	}
)

// ── User updates ─────────────────────────────────────────────────────────────

var (
	ErrUserEmailCannotBeUpdated = &Error{
		Kind: KindInternal, Code: "E1030.1", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not update email for user {userId}",
	}
	ErrUsernameCannotBeUpdated = &Error{
		Kind: KindInternal, Code: "E1030.2", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not update username for user {userId}",
	}
	ErrUserNameCannotBeUpdated = &Error{
		Kind: KindInternal, Code: "E1030.3", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not update name for user {userId}",
	}
	ErrUserSecretCannotBeUpdated = &Error{
		Kind: KindInternal, Code: "E1030.4", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not update secret record for user {userId}",
	}
	ErrInvalidOldPassword = &Error{
		Kind: KindNotAuthenticated, Code: "E1031", Status: http.StatusUnauthorized,
		Template: "old password does not match, cannot change password",
	}
	ErrUsernameInvalid = &Error{
		Kind: KindValidation, Code: "E1032", Status: http.StatusBadRequest,
		Template: "invalid username format",
	}
	ErrNameInvalid = &Error{
		Kind: KindValidation, Code: "E1033", Status: http.StatusBadRequest,
		Template: "invalid first or last name format",
	}
)

// ── Application authentication ───────────────────────────────────────────────

var (
	// ErrAppSecretMissing fires when a registered application has no secret
	// record. Like E1000.1 this signals a broken registration flow.
	ErrAppSecretMissing = &Error{
		Kind: KindInternal, Code: "E1060.1", Status: http.StatusInternalServerError, Internal: true,
		Template: "registered application {appId} has no associated secret record",
	}
	ErrInvalidAppAccessKey = &Error{
		Kind: KindNotAuthenticated, Code: "E1061", Status: http.StatusUnauthorized,
		Template: "invalid application access key, access denied",
	}
	ErrInvalidAppCredentials = &Error{
		Kind: KindNotAuthenticated, Code: "E1062", Status: http.StatusUnauthorized,
		Template: "invalid application credentials, access keys will not be reset",
	}
	ErrAppGone = &Error{
		Kind: KindNotFound, Code: "E1063", Status: http.StatusNotFound,
		Template: "application doesn't exist anymore",
	}
	// ErrAppGoneAccessKeys is the orphan-secret variant of E1063: a secret
	// record referenced a deleted or deactivated application.
	ErrAppGoneAccessKeys = &Error{
		Kind: KindNotFound, Code: "E1064", Status: http.StatusNotFound,
		Template: "application doesn't exist anymore, associated access keys have been invalidated",
	}
	ErrAppDoesntExist = &Error{
		Kind: KindNotFound, Code: "E1065", Status: http.StatusNotFound,
		Template: "application {appName} doesn't exist",
	}
)

// ── Application registration & lifecycle ─────────────────────────────────────

var (
	ErrAppNameNotAvailable = &Error{
		Kind: KindConflict, Code: "E1070", Status: http.StatusConflict,
		Template: "application name {appName} is not available",
	}
	ErrAppCannotBeCreated = &Error{
		Kind: KindInternal, Code: "E1070.1", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not register application {appName}",
	}
	ErrAppRollback = &Error{
		Kind: KindInternal, Code: "E1070.2", Status: http.StatusInternalServerError, Internal: true,
		Template: "rollback failed for application {appId} ({appName}), record is in an inconsistent state",
	}
	ErrAppSecretCannotBeCreated = &Error{
		Kind: KindInternal, Code: "E1070.3", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not create secret record for application {appId}",
	}
	ErrAppSecretCannotBeUpdated = &Error{
		Kind: KindInternal, Code: "E1070.4", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not update secret record for application {appId}",
	}
	ErrAppSecretCannotBeDeleted = &Error{
		Kind: KindInternal, Code: "E1070.5", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not delete secret record for application {appId}",
	}
	ErrAppCannotBeDeactivated = &Error{
		Kind: KindInternal, Code: "E1070.6", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not deactivate application {appId}, deactivate it manually",
	}
	ErrAppNameCannotBeUpdated = &Error{
		Kind: KindInternal, Code: "E1071.1", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not update name for application {appId}",
	}
	ErrAppURLCannotBeUpdated = &Error{
		Kind: KindInternal, Code: "E1071.2", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not update url for application {appId}",
	}
	ErrAppEmailCannotBeUpdated = &Error{
		Kind: KindInternal, Code: "E1071.3", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not update email for application {appId}",
	}
	ErrAppURLInvalid = &Error{
		Kind: KindValidation, Code: "E1072", Status: http.StatusBadRequest,
		Template: "invalid application url format",
	}
)

// ── App users (user projections) ─────────────────────────────────────────────

var (
	ErrAppUserAlreadyExists = &Error{
		Kind: KindConflict, Code: "E1080", Status: http.StatusConflict,
		Template: "user {email} already follows application {appName}",
	}
	ErrAppUserDoesntExist = &Error{
		Kind: KindNotFound, Code: "E1081", Status: http.StatusNotFound,
		Template: "user {email} does not follow application {appName}",
	}
	ErrAppUserCannotBeCreated = &Error{
		Kind: KindInternal, Code: "E1082.1", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not create app user for application {appId} and user {userId}",
	}
	ErrAppUserCannotBeDeactivated = &Error{
		Kind: KindInternal, Code: "E1082.2", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not deactivate app user for application {appId} and user {userId}",
	}
	ErrAppUserCannotBeReactivated = &Error{
		Kind: KindInternal, Code: "E1082.3", Status: http.StatusInternalServerError, Internal: true,
		Template: "could not reactivate app user for application {appId} and user {userId}",
	}
)

// ── Transport structure ──────────────────────────────────────────────────────

var (
	// ErrSessionCookieMalformed is a structural cookie failure, deliberately
	// distinct from "not authenticated".
	ErrSessionCookieMalformed = &Error{
		Kind: KindValidation, Code: "E1090", Status: http.StatusBadRequest,
		Template: "malformed session cookie",
	}
)
