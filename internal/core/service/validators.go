package service

import (
	"net/mail"
	"regexp"

	"github.com/etherealapi/identity-platform/internal/core/domain"
)

// Input validators. The platform treats format policy as accept/reject;
// anything fancier belongs to the caller.

const minPasswordLength = 8

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)
	namePattern     = regexp.MustCompile(`^[\p{L}][\p{L}' -]{0,63}$`)
)

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.ErrEmailInvalid
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return domain.ErrPasswordInvalid.With(domain.Params{
			"minLength":    minPasswordLength,
			"actualLength": len(password),
		})
	}
	return nil
}

func validateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return domain.ErrUsernameInvalid
	}
	return nil
}

func validateName(name string) error {
	if !namePattern.MatchString(name) {
		return domain.ErrNameInvalid
	}
	return nil
}
