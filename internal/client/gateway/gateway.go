package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrijs2005/storekeeper/internal/logging"
)

const tracerName = "github.com/dmitrijs2005/storekeeper/internal/client/gateway"

// SignInPath is where a 401 sends the user.
const SignInPath = "/login"

// EntryPoints are the unauthenticated pages. A 401 observed while the user
// is on one of them erases the credential but does not redirect, so a stale
// in-flight request cannot bounce a user who is signing in right now.
var EntryPoints = []string{"/login", "/register", "/admin/login"}

// CredentialSource is the subset of the vault the gateway needs.
type CredentialSource interface {
	Retrieve(ctx context.Context, name string) (string, bool)
	Erase(ctx context.Context, name string)
}

// Navigator exposes the current location and performs forced redirects.
type Navigator interface {
	Location() string
	Redirect(path string)
}

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Options struct {
	Method string
	// Body is encoded as JSON.
	Body any
	// RawBody is sent as-is (multipart uploads etc.); no JSON Content-Type
	// is forced and the caller sets its own through Headers.
	RawBody io.Reader
	// Headers override the defaults. A vault credential always wins over a
	// caller-supplied Authorization header.
	Headers http.Header
	// SkipCredential sends the request without the stored credential.
	SkipCredential bool
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the raw body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &ProtocolError{Op: "decode response", Reason: err.Error()}
	}
	return nil
}

type Option func(*Gateway)

func WithHTTPClient(d Doer) Option { return func(g *Gateway) { g.doer = d } }

func WithNavigator(n Navigator) Option { return func(g *Gateway) { g.nav = n } }

func WithLogger(l logging.Logger) Option { return func(g *Gateway) { g.log = l } }

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(g *Gateway) { g.tracer = tp.Tracer(tracerName) }
}

// WithCredentialName selects the vault entry used for the bearer token.
func WithCredentialName(name string) Option { return func(g *Gateway) { g.credName = name } }

type Gateway struct {
	baseURL  string
	creds    CredentialSource
	credName string
	doer     Doer
	nav      Navigator
	log      logging.Logger
	tracer   trace.Tracer
}

func New(baseURL string, creds CredentialSource, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL:  strings.TrimRight(baseURL, "/"),
		creds:    creds,
		credName: "auth_token",
		doer:     http.DefaultClient,
		log:      logging.Discard(),
		tracer:   otel.GetTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CredentialName returns the vault entry this gateway authenticates with.
func (g *Gateway) CredentialName() string {
	return g.credName
}

func (g *Gateway) Send(ctx context.Context, endpoint string, opts Options) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	op := method + " " + endpoint

	ctx, span := g.tracer.Start(ctx, "gateway.send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", endpoint),
		),
	)
	defer span.End()

	req, sent, err := g.newRequest(ctx, method, endpoint, opts)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	authenticated := sent != ""
	span.SetAttributes(attribute.Bool("storekeeper.authenticated", authenticated))

	resp, err := g.doer.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			span.SetStatus(codes.Error, ctx.Err().Error())
			return nil, ctx.Err()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "network error")
		g.log.Warn(ctx, "request failed", "method", method, "endpoint", endpoint, "error", err)
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "network error")
		return nil, &NetworkError{Op: op, Err: err}
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	g.log.Debug(ctx, "request", "method", method, "endpoint", endpoint,
		"status", resp.StatusCode, "authenticated", authenticated)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		span.SetStatus(codes.Error, "session expired")
		g.handleUnauthorized(ctx, sent)
		return nil, ErrSessionExpired
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		herr := newHTTPError(resp.StatusCode, body)
		span.SetStatus(codes.Error, herr.Message)
		return nil, herr
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// newRequest also returns the vault credential attached to the request, or ""
// when none was.
func (g *Gateway) newRequest(ctx context.Context, method, endpoint string, opts Options) (*http.Request, string, error) {
	var body io.Reader
	switch {
	case opts.RawBody != nil:
		body = opts.RawBody
	case opts.Body != nil:
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.url(endpoint), body)
	if err != nil {
		return nil, "", fmt.Errorf("build request %s %s: %w", method, endpoint, err)
	}

	if opts.RawBody == nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	for k, vs := range opts.Headers {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	var sent string
	if !opts.SkipCredential {
		// read on every call: a request issued right after sign-out or a
		// refresh must see the new state
		if token, ok := g.creds.Retrieve(ctx, g.credName); ok && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			sent = token
		}
	}
	return req, sent, nil
}

// handleUnauthorized erases the credential the rejected request carried. If
// the vault already holds a different one, a newer sign-in replaced it while
// the request was in flight; that credential is kept and no redirect happens.
func (g *Gateway) handleUnauthorized(ctx context.Context, sent string) {
	if sent != "" {
		if cur, ok := g.creds.Retrieve(ctx, g.credName); ok && cur != sent {
			g.log.Info(ctx, "unauthorized response for a replaced credential, keeping the current one")
			return
		}
	}
	g.creds.Erase(ctx, g.credName)

	if g.nav == nil {
		return
	}
	loc := g.nav.Location()
	if IsEntryPoint(loc) {
		g.log.Info(ctx, "unauthorized on entry point, not redirecting", "location", loc)
		return
	}
	g.log.Info(ctx, "session expired, redirecting to sign-in", "from", loc)
	g.nav.Redirect(SignInPath)
}

func (g *Gateway) url(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return g.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

// IsEntryPoint reports whether location (path, optionally with query or
// fragment) is one of EntryPoints.
func IsEntryPoint(location string) bool {
	path := location
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return slices.Contains(EntryPoints, path)
}
