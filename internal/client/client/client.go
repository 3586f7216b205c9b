package client

import (
	"context"

	"github.com/dmitrijs2005/storekeeper/internal/client/gateway"
	"github.com/dmitrijs2005/storekeeper/internal/client/models"
	"github.com/dmitrijs2005/storekeeper/internal/client/verification"
)

// Client is the storefront auth API used by the session controller.
type Client interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResult, error)
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.Identity, error)
	UpdateVerification(ctx context.Context, step verification.Step, verified bool) error
	// CompleteVerification returns the server's view of the identity when the
	// response includes one, nil otherwise.
	CompleteVerification(ctx context.Context) (*models.Identity, error)
}

type LoginRequest struct {
	Identifier string `json:"email"`
	Password   string `json:"password"`
	Remember   bool   `json:"remember"`
}

type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Phone                string `json:"phone,omitempty"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	CaptchaToken         string `json:"turnstile_token,omitempty"`
}

// AuthResult is a decoded login/registration response. Identity is nil when
// the server returned a token without a user object.
type AuthResult struct {
	Identity    *models.Identity
	AccessToken string
	TokenType   string
	ExpiresIn   int64
	Shape       gateway.Shape
}
