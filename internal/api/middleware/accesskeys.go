package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/etherealapi/identity-platform/internal/core/domain"
	"github.com/etherealapi/identity-platform/internal/core/ports"
)

// Header names for application credentials.
const (
	HeaderAccessKeyID     = "X-Access-Key-Id"
	HeaderSecretAccessKey = "X-Secret-Access-Key"
)

// AccessKeysKey is the echo context key under which AccessKeys stores the
// presented credential pair.
const AccessKeysKey = "access_keys"

// AccessKeys extracts the application access-key pair from the request
// headers. The pair is not verified here; services resolve it against the
// secret store so that every failure mode maps to the same generic error.
func AccessKeys() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			keys := ports.AccessKeyPair{
				AccessKeyID:     c.Request().Header.Get(HeaderAccessKeyID),
				SecretAccessKey: c.Request().Header.Get(HeaderSecretAccessKey),
			}
			if keys.AccessKeyID == "" || keys.SecretAccessKey == "" {
				return domain.ErrInvalidAppAccessKey
			}

			c.Set(AccessKeysKey, keys)
			return next(c)
		}
	}
}
