package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/etherealapi/identity-platform/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps platform errors to their declared HTTP status and public code.
//   - Logs internal-only errors with their full rendered message before
//     redacting them to the generic envelope.
//   - Renders a consistent JSON envelope: {"code": "...", "error": "..."}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, code, msg := resolveError(err, log, c)
		_ = c.JSON(status, errorResponse{Code: code, Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (status int, code, msg string) {
	// Platform errors carry their own status, code and redaction policy.
	var pe *domain.Error
	if errors.As(err, &pe) {
		if pe.Internal {
			log.Error().
				Str("code", pe.Code).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg(pe.Error())
		}
		code, msg = pe.Public()
		return pe.Status, code, msg
	}

	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, "", fmt.Sprintf("%v", he.Message)
	}

	// Unexpected error: log the real cause, return the redacted envelope.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, domain.RedactedCode, domain.RedactedMessage
}
