// Package verification derives seller verification progress from an Identity.
//
// Progress is never stored: route guards gating seller-only features call
// Compute on the current identity every time they need an answer.
package verification

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/storekeeper/internal/client/models"
)

// Step is one of the three independent verification confirmations.
type Step string

const (
	StepEmail    Step = "email"
	StepPhone    Step = "phone"
	StepIdentity Step = "identity"
)

// TotalSteps is the number of steps required for full verification.
const TotalSteps = 3

var ErrUnknownStep = errors.New("unknown verification step")

// Steps lists all steps in display order.
var Steps = []Step{StepEmail, StepPhone, StepIdentity}

func ParseStep(s string) (Step, error) {
	switch Step(s) {
	case StepEmail, StepPhone, StepIdentity:
		return Step(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStep, s)
}

type Progress struct {
	Completed  int
	Total      int
	IsComplete bool
}

// Compute counts completed steps for the identity.
func Compute(id models.Identity) Progress {
	n := 0
	for _, s := range Steps {
		if IsVerified(id, s) {
			n++
		}
	}
	return Progress{Completed: n, Total: TotalSteps, IsComplete: n == TotalSteps}
}

// IsVerified reports whether a single step is done.
func IsVerified(id models.Identity, step Step) bool {
	switch step {
	case StepEmail:
		return id.EmailVerified
	case StepPhone:
		return id.PhoneVerified
	case StepIdentity:
		return id.IdentityStatus == models.IdentityVerified
	}
	return false
}

// Apply returns a copy of id with step set to verified. Clearing any step
// also clears the completion timestamp.
func Apply(id models.Identity, step Step, verified bool) (models.Identity, error) {
	out := id.Clone()
	switch step {
	case StepEmail:
		out.EmailVerified = verified
	case StepPhone:
		out.PhoneVerified = verified
	case StepIdentity:
		if verified {
			out.IdentityStatus = models.IdentityVerified
		} else {
			out.IdentityStatus = models.IdentityIncomplete
		}
	default:
		return id, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	if !verified {
		out.VerificationCompletedAt = nil
	}
	return out, nil
}

// CanSell is the guard used by seller-only features.
func CanSell(id models.Identity) bool {
	return Compute(id).IsComplete
}
