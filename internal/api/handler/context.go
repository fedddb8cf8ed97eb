package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/etherealapi/identity-platform/internal/api/middleware"
	"github.com/etherealapi/identity-platform/internal/core/domain"
	"github.com/etherealapi/identity-platform/internal/core/ports"
)

// ctxSessionID extracts the session id injected by the Session middleware.
// Absence means the middleware did not run on this route.
func ctxSessionID(c echo.Context) (string, error) {
	sessionID, _ := c.Get(middleware.SessionIDKey).(string)
	if sessionID == "" {
		return "", domain.ErrUserNotAuthenticated
	}
	return sessionID, nil
}

// ctxAccessKeys extracts the credential pair injected by the AccessKeys
// middleware.
func ctxAccessKeys(c echo.Context) (ports.AccessKeyPair, error) {
	keys, _ := c.Get(middleware.AccessKeysKey).(ports.AccessKeyPair)
	if keys.AccessKeyID == "" || keys.SecretAccessKey == "" {
		return ports.AccessKeyPair{}, domain.ErrInvalidAppAccessKey
	}
	return keys, nil
}
