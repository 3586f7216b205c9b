// Package common defines sentinel errors shared by the development server's
// layers, plus small helpers. Callers should use errors.Is to match them.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid, expired or revoked token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Verification errors.
	ErrUnknownStep            = errors.New("unknown verification step")
	ErrVerificationIncomplete = errors.New("verification incomplete")
)
