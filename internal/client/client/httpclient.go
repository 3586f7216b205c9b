package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/storekeeper/internal/client/gateway"
	"github.com/dmitrijs2005/storekeeper/internal/client/models"
	"github.com/dmitrijs2005/storekeeper/internal/client/verification"
)

const (
	loginPath                = "/auth/login"
	registerPath             = "/auth/register"
	logoutPath               = "/auth/logout"
	mePath                   = "/auth/me"
	verificationPath         = "/auth/verification"
	completeVerificationPath = "/auth/verification/complete"
)

// Sender is implemented by *gateway.Gateway.
type Sender interface {
	Send(ctx context.Context, endpoint string, opts gateway.Options) (*gateway.Response, error)
}

type HTTPClient struct {
	gw Sender
}

func NewHTTPClient(gw Sender) *HTTPClient {
	return &HTTPClient{gw: gw}
}

type authPayload struct {
	User        *models.Identity `json:"user"`
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresIn   int64            `json:"expires_in"`
}

func (c *HTTPClient) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	// a stale stored token must not turn a sign-in attempt into a 401
	resp, err := c.gw.Send(ctx, loginPath, gateway.Options{Method: http.MethodPost, Body: req, SkipCredential: true})
	if err != nil {
		return nil, err
	}
	return decodeAuth("login", resp.Body)
}

func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	resp, err := c.gw.Send(ctx, registerPath, gateway.Options{Method: http.MethodPost, Body: req, SkipCredential: true})
	if err != nil {
		return nil, err
	}
	return decodeAuth("register", resp.Body)
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	_, err := c.gw.Send(ctx, logoutPath, gateway.Options{Method: http.MethodPost})
	return err
}

func (c *HTTPClient) Me(ctx context.Context) (*models.Identity, error) {
	resp, err := c.gw.Send(ctx, mePath, gateway.Options{})
	if err != nil {
		return nil, err
	}
	id, err := decodeIdentity(resp.Body)
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, &gateway.ProtocolError{Op: "me", Reason: "response contains no user"}
	}
	return id, nil
}

func (c *HTTPClient) UpdateVerification(ctx context.Context, step verification.Step, verified bool) error {
	body := map[string]any{"step": step, "verified": verified}
	_, err := c.gw.Send(ctx, verificationPath, gateway.Options{Method: http.MethodPatch, Body: body})
	return err
}

func (c *HTTPClient) CompleteVerification(ctx context.Context) (*models.Identity, error) {
	resp, err := c.gw.Send(ctx, completeVerificationPath, gateway.Options{Method: http.MethodPost})
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return nil, nil
	}
	return decodeIdentity(resp.Body)
}

func decodeAuth(op string, body []byte) (*AuthResult, error) {
	env, err := gateway.DecodeEnvelope[authPayload](body)
	if err != nil {
		return nil, err
	}
	p := env.Value
	if p.AccessToken == "" {
		return nil, &gateway.ProtocolError{Op: op, Reason: "response contains no access_token"}
	}
	if p.User != nil && p.User.ID == "" {
		p.User = nil
	}
	return &AuthResult{
		Identity:    p.User,
		AccessToken: p.AccessToken,
		TokenType:   p.TokenType,
		ExpiresIn:   p.ExpiresIn,
		Shape:       env.Shape,
	}, nil
}

// decodeIdentity accepts an identity either bare or under "user", each
// optionally wrapped in "data". It returns nil when no identity is present.
func decodeIdentity(body []byte) (*models.Identity, error) {
	env, err := gateway.DecodeEnvelope[json.RawMessage](body)
	if err != nil {
		return nil, err
	}

	var holder struct {
		User *models.Identity `json:"user"`
	}
	if err := json.Unmarshal(env.Value, &holder); err != nil {
		return nil, &gateway.ProtocolError{Op: "decode identity", Reason: err.Error()}
	}
	if holder.User != nil && holder.User.ID != "" {
		return holder.User, nil
	}

	var id models.Identity
	if err := json.Unmarshal(env.Value, &id); err != nil {
		return nil, &gateway.ProtocolError{Op: "decode identity", Reason: err.Error()}
	}
	if id.ID == "" {
		return nil, nil
	}
	return &id, nil
}
