package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/etherealapi/identity-platform/internal/core/domain"
)

// CookieParser turns a raw "NAME=value" cookie string into the session id it
// blinds. Malformed input fails with domain.ErrSessionCookieMalformed.
type CookieParser interface {
	ParseCookie(raw string) (string, error)
}

// SessionIDKey is the echo context key under which Session stores the
// resolved session id.
const SessionIDKey = "session_id"

// Session extracts the platform session cookie, unblinds it and injects the
// session id into the request context. A missing cookie is "not
// authenticated"; a present but unparseable one is a structural error.
func Session(parser CookieParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(domain.SessionCookieName)
			if err != nil {
				return domain.ErrUserNotAuthenticated
			}

			sessionID, err := parser.ParseCookie(cookie.Name + "=" + cookie.Value)
			if err != nil {
				return err
			}

			c.Set(SessionIDKey, sessionID)
			return next(c)
		}
	}
}
