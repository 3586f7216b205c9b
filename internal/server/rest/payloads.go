package rest

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"

	"github.com/dmitrijs2005/storekeeper/internal/server/models"
	"github.com/dmitrijs2005/storekeeper/internal/server/users"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// Validate will run validation rules
func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type registerRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	TurnstileToken       string `json:"turnstile_token"`
}

// Validate will validate the payload
func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&r.Phone, validation.By(e164)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.PasswordConfirmation,
			validation.Required,
			validation.By(stringEquals(r.Password)),
		),
	)
}

type verificationRequest struct {
	Step     string `json:"step"`
	Verified bool   `json:"verified"`
}

func (r verificationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Step, validation.Required, validation.In(users.StepEmail, users.StepPhone, users.StepIdentity)),
	)
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

// e164 accepts an empty value or a valid phone number with country code.
func e164(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	num, err := phonenumbers.Parse(s, "")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number in international format")
	}
	return nil
}

type userView struct {
	ID                      string     `json:"id"`
	Name                    string     `json:"name"`
	Email                   string     `json:"email"`
	Phone                   string     `json:"phone,omitempty"`
	Roles                   []string   `json:"roles"`
	EmailVerified           bool       `json:"email_verified"`
	PhoneVerified           bool       `json:"phone_verified"`
	IdentityStatus          string     `json:"identity_status"`
	VerificationCompletedAt *time.Time `json:"verification_completed_at,omitempty"`
}

func newUserView(u *models.User) userView {
	status := "incomplete"
	if u.IdentityVerified {
		status = "verified"
	}
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return userView{
		ID:                      u.ID,
		Name:                    u.Name,
		Email:                   u.Email,
		Phone:                   u.Phone,
		Roles:                   roles,
		EmailVerified:           u.EmailVerified,
		PhoneVerified:           u.PhoneVerified,
		IdentityStatus:          status,
		VerificationCompletedAt: u.VerificationCompletedAt,
	}
}

type authResponse struct {
	User        userView `json:"user"`
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int64    `json:"expires_in"`
}

func newAuthResponse(s *users.Session) authResponse {
	return authResponse{
		User:        newUserView(s.User),
		AccessToken: s.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.ExpiresIn.Seconds()),
	}
}

type userResponse struct {
	User userView `json:"user"`
}
