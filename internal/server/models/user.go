package models

import "time"

// User is the server-side account record. PasswordHash never leaves the
// server; handlers render users through a separate view.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash []byte
	Roles        []string

	EmailVerified           bool
	PhoneVerified           bool
	IdentityVerified        bool
	VerificationCompletedAt *time.Time

	// TokenVersion is embedded in issued tokens; bumping it revokes them.
	TokenVersion int
	CreatedAt    time.Time
}

// Verified reports whether all three verification steps are done.
func (u User) Verified() bool {
	return u.EmailVerified && u.PhoneVerified && u.IdentityVerified
}
