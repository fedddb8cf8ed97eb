package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Store-level sentinels. Repositories return these; services translate them
// into platform errors before anything crosses the API boundary.
var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrDuplicateRecord = errors.New("record already exists")
)

// ErrorKind classifies a platform error for propagation purposes.
type ErrorKind string

const (
	KindValidation       ErrorKind = "validation"
	KindConflict         ErrorKind = "conflict"
	KindNotAuthenticated ErrorKind = "not_authenticated"
	KindNotFound         ErrorKind = "not_found"
	KindInternal         ErrorKind = "internal"
)

// Params carries the structured values referenced by an error's message
// template. Rendering is a pure function of (template, params); no string
// concatenation happens at raise sites.
type Params map[string]any

// RedactedCode and RedactedMessage are what callers see in place of any
// internal-only error. The real template and params are always logged
// server-side before redaction.
const (
	RedactedCode    = "E0000"
	RedactedMessage = "internal server error"
)

// Error is the platform error variant: a stable code, an HTTP status hint,
// an internal-only flag and a message template with {name} placeholders.
// Errors with the same Code compare equal under errors.Is regardless of
// their params.
type Error struct {
	Kind     ErrorKind
	Code     string
	Status   int
	Internal bool
	Template string
	Params   Params
}

func (e *Error) Error() string {
	msg := e.Template
	for key, value := range e.Params {
		msg = strings.ReplaceAll(msg, "{"+key+"}", fmt.Sprint(value))
	}
	return msg
}

// Is matches platform errors by code, so errors.Is(err, ErrInvalidUserCredentials)
// works on instances carrying params.
func (e *Error) Is(target error) bool {
	var pe *Error
	if !errors.As(target, &pe) {
		return false
	}
	return e.Code == pe.Code
}

// With returns a copy of the error carrying the given params.
func (e *Error) With(params Params) *Error {
	clone := *e
	clone.Params = params
	return &clone
}

// Public returns the code and message safe to surface to a caller,
// applying the internal-only redaction.
func (e *Error) Public() (code, message string) {
	if e.Internal {
		return RedactedCode, RedactedMessage
	}
	return e.Code, e.Error()
}
