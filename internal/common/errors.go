// Package common defines shared constants and sentinel errors used across
// the server and the command-line client. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Input errors.
	ErrorValidation = errors.New("validation error")
	ErrorConflict   = errors.New("conflict")

	// Credential and one-time code errors.
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorInvalidCode        = errors.New("invalid code")
	ErrorExpired            = errors.New("expired")
)
