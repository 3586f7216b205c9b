// Package models defines client-side data models shared by the session core
// and its consumers (views, route guards).
package models

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"
)

// IdentityStatus is the state of the government-issued identity check.
type IdentityStatus string

const (
	IdentityIncomplete IdentityStatus = "incomplete"
	IdentityPending    IdentityStatus = "pending"
	IdentityVerified   IdentityStatus = "verified"
)

// ID is a user identifier. Backends disagree on whether ids are JSON
// numbers or strings, so both decode into the same textual form.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Identity is the in-memory representation of the signed-in user.
// It is owned by the session controller and never persisted in full.
type Identity struct {
	ID          ID       `json:"id"`
	DisplayName string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Roles       []string `json:"roles"`

	EmailVerified  bool           `json:"email_verified"`
	PhoneVerified  bool           `json:"phone_verified"`
	IdentityStatus IdentityStatus `json:"identity_status"`

	// VerificationCompletedAt is set once all three verification steps are done.
	VerificationCompletedAt *time.Time `json:"verification_completed_at,omitempty"`
}

// HasRole reports whether the identity carries the given role.
func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// Clone returns a deep copy, so snapshots handed to consumers cannot be
// used to mutate controller state.
func (i Identity) Clone() Identity {
	c := i
	c.Roles = slices.Clone(i.Roles)
	if i.VerificationCompletedAt != nil {
		t := *i.VerificationCompletedAt
		c.VerificationCompletedAt = &t
	}
	return c
}
