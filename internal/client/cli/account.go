package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/storekeeper/internal/client/models"
	"github.com/dmitrijs2005/storekeeper/internal/client/session"
	"github.com/dmitrijs2005/storekeeper/internal/client/verification"
)

func (a *App) identity() (*models.Identity, error) {
	snap := a.session.Snapshot()
	if !snap.IsAuthenticated || snap.Identity == nil {
		return nil, session.ErrNotAuthenticated
	}
	return snap.Identity, nil
}

// WhoAmI prints the signed-in identity.
func (a *App) WhoAmI(_ context.Context) error {
	id, err := a.identity()
	if err != nil {
		return err
	}
	a.screen.Go(PageAccount)

	roles := "-"
	if len(id.Roles) > 0 {
		roles = strings.Join(id.Roles, ", ")
	}
	fmt.Fprintf(a.out, "Name:   %s\n", id.DisplayName)
	fmt.Fprintf(a.out, "Email:  %s\n", id.Email)
	if id.Phone != "" {
		fmt.Fprintf(a.out, "Phone:  %s\n", id.Phone)
	}
	fmt.Fprintf(a.out, "Roles:  %s\n", roles)
	fmt.Fprintf(a.out, "Seller: %s\n", yesNo(verification.CanSell(*id)))
	return nil
}

// ShowProgress prints the verification checklist.
func (a *App) ShowProgress(_ context.Context) error {
	id, err := a.identity()
	if err != nil {
		return err
	}
	a.screen.Go(PageVerification)

	p := a.session.Progress()
	fmt.Fprintf(a.out, "Verification: %d/%d\n", p.Completed, p.Total)
	for _, step := range verification.Steps {
		mark := " "
		if verification.IsVerified(*id, step) {
			mark = "x"
		}
		fmt.Fprintf(a.out, "  [%s] %s\n", mark, step)
	}
	if id.VerificationCompletedAt != nil {
		fmt.Fprintf(a.out, "Completed at %s\n", id.VerificationCompletedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// Verify marks one step as verified ("on", the default) or not ("off").
func (a *App) Verify(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return errUsage
	}
	step, err := verification.ParseStep(args[0])
	if err != nil {
		return err
	}
	verified := true
	if len(args) == 2 {
		switch strings.ToLower(args[1]) {
		case "on", "yes", "true":
		case "off", "no", "false":
			verified = false
		default:
			return errUsage
		}
	}

	return a.command(func() error {
		a.screen.Go(PageVerification)
		if err := a.session.UpdateVerificationStep(ctx, step, verified); err != nil {
			return err
		}
		state := "verified"
		if !verified {
			state = "cleared"
		}
		p := a.session.Progress()
		fmt.Fprintf(a.out, "%s %s (%d/%d)\n", step, state, p.Completed, p.Total)
		return nil
	})
}

// Complete finalizes verification once every step is confirmed.
func (a *App) Complete(ctx context.Context) error {
	id, err := a.identity()
	if err != nil {
		return err
	}

	return a.command(func() error {
		a.screen.Go(PageVerification)
		err := a.session.CompleteVerification(ctx,
			id.EmailVerified,
			id.PhoneVerified,
			verification.IsVerified(*id, verification.StepIdentity),
		)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Verification complete. You can now sell.")
		return nil
	})
}

// Refresh re-reads the identity from the server.
func (a *App) Refresh(ctx context.Context) error {
	return a.command(func() error {
		if err := a.session.RefreshIdentity(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Profile refreshed.")
		return nil
	})
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
