package session

import "errors"

var (
	// ErrNotAuthenticated is returned by operations that need a signed-in identity.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrVerificationIncomplete is returned by CompleteVerification when any
	// of the three steps is not confirmed by the caller.
	ErrVerificationIncomplete = errors.New("verification incomplete")

	ErrClosed = errors.New("session controller closed")
)
