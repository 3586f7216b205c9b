package cli

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrijs2005/storekeeper/internal/client/gateway"
	"github.com/dmitrijs2005/storekeeper/internal/client/session"
	"github.com/dmitrijs2005/storekeeper/internal/client/vault"
)

var errUsage = errors.New("usage: verify <email|phone|identity> [on|off]")

// formError carries local validation failures per field.
type formError struct {
	fields map[string][]string
}

func (e *formError) Error() string { return "invalid input" }

// describe renders an error for the terminal.
func describe(err error) string {
	var (
		fe   *formError
		herr *gateway.HTTPError
	)
	switch {
	case errors.As(err, &fe):
		return "Please fix the following:\n" + formatFields(fe.fields)
	case errors.Is(err, gateway.ErrSessionExpired):
		return "Your session has expired. Please log in again."
	case errors.Is(err, gateway.ErrNetwork):
		return "Server unavailable, try again later."
	case errors.As(err, &herr):
		if len(herr.FieldErrors) > 0 {
			return herr.Message + "\n" + formatFields(herr.FieldErrors)
		}
		return herr.Message
	case errors.Is(err, session.ErrNotAuthenticated):
		return "Please log in first."
	case errors.Is(err, vault.ErrLeaseHeld):
		return "Another session is active elsewhere. Log out there first."
	case errors.Is(err, session.ErrVerificationIncomplete):
		return "Cannot complete verification: " + strings.TrimPrefix(err.Error(), session.ErrVerificationIncomplete.Error()+": ")
	}
	return "Error: " + err.Error()
}

func formatFields(fields map[string][]string) string {
	var b strings.Builder
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		fmt.Fprintf(&b, "  %s: %s\n", name, strings.Join(fields[name], "; "))
	}
	return strings.TrimRight(b.String(), "\n")
}
