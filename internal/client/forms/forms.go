package forms

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/storekeeper/internal/client/client"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 100
)

// LoginForm is the sign-in input. Identifier is an email or phone number.
type LoginForm struct {
	Identifier string `json:"email"`
	Secret     string `json:"password"`
	Remember   bool   `json:"remember"`
}

func (f LoginForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Identifier, validation.Required, validation.Length(3, 255)),
		validation.Field(&f.Secret, validation.Required),
	)
}

type RegisterForm struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	CaptchaToken         string `json:"captcha"`

	// Region is used to interpret Phone when it has no country code.
	Region string `json:"-"`
}

// Validate will validate the registration payload. The CAPTCHA token must be
// present; its value is checked by the server.
func (f RegisterForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&f.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&f.Phone, validation.By(validPhone(f.Region))),
		validation.Field(&f.Password, validation.Required, validation.Length(minPasswordLen, maxPasswordLen)),
		validation.Field(
			&f.PasswordConfirmation,
			validation.Required,
			validation.By(stringEquals(f.Password)),
		),
		validation.Field(&f.CaptchaToken, validation.Required),
	)
}

// Request validates the form and converts it to the API payload with the
// phone number normalized to E.164.
func (f RegisterForm) Request() (client.RegisterRequest, error) {
	if err := f.Validate(); err != nil {
		return client.RegisterRequest{}, err
	}

	phone := ""
	if strings.TrimSpace(f.Phone) != "" {
		p, err := NormalizePhone(f.Phone, f.Region)
		if err != nil {
			return client.RegisterRequest{}, err
		}
		phone = p
	}

	return client.RegisterRequest{
		Name:                 strings.TrimSpace(f.Name),
		Email:                strings.ToLower(strings.TrimSpace(f.Email)),
		Phone:                phone,
		Password:             f.Password,
		PasswordConfirmation: f.PasswordConfirmation,
		CaptchaToken:         f.CaptchaToken,
	}, nil
}

func stringEquals(str string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// FieldErrors flattens a validation error into field -> message, the same
// shape the server uses for 422 responses. Non-validation errors map to nil.
func FieldErrors(err error) map[string][]string {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return nil
	}
	out := make(map[string][]string, len(errs))
	for field, e := range errs {
		if e == nil {
			continue
		}
		out[field] = []string{e.Error()}
	}
	return out
}
