// Package common defines shared constants and sentinel errors used across
// the server, its transports and the CLI client. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation error")

	// Login errors. Unknown user and wrong password both yield
	// ErrInvalidCredentials so callers cannot tell them apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnavailable        = errors.New("service unavailable")

	// Access token errors.
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMalformedToken   = errors.New("malformed token")
)

// IsTokenError reports whether err is one of the access token verification
// failures.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrMalformedToken)
}

// IsAuthError reports whether err should be answered with an
// "unauthenticated" response on the wire.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) || IsTokenError(err)
}
