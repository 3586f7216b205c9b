package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/storekeeper/internal/client/forms"
	"github.com/dmitrijs2005/storekeeper/internal/client/session"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for the registration form, validates it locally and
// creates the account. On success the new user is signed in.
func (a *App) Register(ctx context.Context) error {
	return a.command(func() error {
		a.screen.Go(PageRegister)

		var f forms.RegisterForm
		var err error
		if f.Name, err = getSimpleText(a.reader, "Name", a.out); err != nil {
			return err
		}
		if f.Email, err = getSimpleText(a.reader, "Email", a.out); err != nil {
			return err
		}
		if f.Phone, err = getSimpleText(a.reader, "Phone (optional)", a.out); err != nil {
			return err
		}
		if f.Password, err = getPassword("Password", a.out); err != nil {
			return err
		}
		if f.PasswordConfirmation, err = getPassword("Confirm password", a.out); err != nil {
			return err
		}
		if f.CaptchaToken, err = getSimpleText(a.reader, "CAPTCHA token", a.out); err != nil {
			return err
		}
		f.Region = a.region

		req, err := f.Request()
		if err != nil {
			if fields := forms.FieldErrors(err); fields != nil {
				return &formError{fields: fields}
			}
			return err
		}

		if err := a.session.Register(ctx, req); err != nil {
			return err
		}
		a.screen.Go(PageAccount)
		fmt.Fprintf(a.out, "Welcome, %s!\n", req.Name)
		return nil
	})
}

// Login prompts for credentials and signs in. A phone number identifier is
// normalized to E.164 first.
func (a *App) Login(ctx context.Context) error {
	return a.command(func() error {
		a.screen.Go(PageLogin)

		identifier, err := getSimpleText(a.reader, "Email or phone", a.out)
		if err != nil {
			return err
		}
		secret, err := getPassword("Password", a.out)
		if err != nil {
			return err
		}
		remember, err := GetYesNo(a.reader, "Remember me?", a.out)
		if err != nil {
			return err
		}

		f := forms.LoginForm{Identifier: identifier, Secret: secret, Remember: remember}
		if err := f.Validate(); err != nil {
			if fields := forms.FieldErrors(err); fields != nil {
				return &formError{fields: fields}
			}
			return err
		}
		if !strings.Contains(f.Identifier, "@") {
			if phone, err := forms.NormalizePhone(f.Identifier, a.region); err == nil {
				f.Identifier = phone
			}
		}

		if err := a.session.SignIn(ctx, f.Identifier, f.Secret, f.Remember); err != nil {
			return err
		}
		a.screen.Go(PageAccount)
		if id := a.session.Snapshot().Identity; id != nil {
			fmt.Fprintf(a.out, "Logged in as %s\n", id.Email)
		}
		return nil
	})
}

func (a *App) Logout(ctx context.Context) error {
	return a.command(func() error {
		if !a.isLoggedIn() {
			return session.ErrNotAuthenticated
		}
		a.session.SignOut(ctx)
		a.screen.Go(PageHome)
		fmt.Fprintln(a.out, "Logged out.")
		return nil
	})
}
