package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/storekeeper/internal/client/client"
	"github.com/dmitrijs2005/storekeeper/internal/client/gateway"
	"github.com/dmitrijs2005/storekeeper/internal/client/models"
	"github.com/dmitrijs2005/storekeeper/internal/client/vault"
	"github.com/dmitrijs2005/storekeeper/internal/client/verification"
	"github.com/dmitrijs2005/storekeeper/internal/logging"
)

// Credentials is the part of the vault the controller needs. *vault.Vault
// implements it.
type Credentials interface {
	Store(ctx context.Context, name, raw string) error
	Retrieve(ctx context.Context, name string) (string, bool)
	Erase(ctx context.Context, name string)
}

type Option func(*Controller)

func WithLogger(l logging.Logger) Option { return func(c *Controller) { c.log = l } }

// WithClock sets the clock used to stamp verification completion.
func WithClock(clk vault.Clock) Option { return func(c *Controller) { c.clock = clk } }

func WithCredentialName(name string) Option { return func(c *Controller) { c.name = name } }

type Controller struct {
	api   client.Client
	creds Credentials
	log   logging.Logger
	clock vault.Clock
	name  string

	mu       sync.Mutex
	state    models.State
	identity *models.Identity
	gen      uint64 // advanced by operations that supersede in-flight results
	rev      uint64 // advanced on every identity change
	subs     map[int]chan models.Snapshot
	nextSub  int
	cancels  []context.CancelFunc
	closed   bool
	watchers sync.WaitGroup
}

func New(api client.Client, creds Credentials, opts ...Option) *Controller {
	c := &Controller{
		api:   api,
		creds: creds,
		log:   logging.Discard(),
		clock: vault.SystemClock{},
		name:  vault.DefaultName,
		subs:  make(map[int]chan models.Snapshot),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize restores the session from a stored credential. Failures are
// logged and end in Unauthenticated with the credential erased; they are
// never returned.
func (c *Controller) Initialize(ctx context.Context) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.state = models.StateInitializing
	c.identity = nil
	c.rev++
	c.notifyLocked()
	c.mu.Unlock()

	if _, ok := c.creds.Retrieve(ctx, c.name); !ok {
		c.mu.Lock()
		if c.gen == gen {
			c.clearLocked()
		}
		c.mu.Unlock()
		c.log.Debug(ctx, "no stored session")
		return
	}

	id, err := c.api.Me(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		c.log.Debug(ctx, "discarding stale session restore")
		if errors.Is(err, client.ErrSessionExpired) {
			c.reconcileLocked(ctx)
		}
		return
	}
	if err != nil {
		c.log.Warn(ctx, "session restore failed", "error", err)
		c.creds.Erase(ctx, c.name)
		c.clearLocked()
		return
	}
	c.setIdentityLocked(id)
	c.log.Info(ctx, "session restored", "user_id", id.ID)
}

// SignIn authenticates with the backend and stores the returned credential.
// remember is forwarded to the server; the local credential lifetime is
// fixed.
func (c *Controller) SignIn(ctx context.Context, identifier, secret string, remember bool) error {
	res, err := c.api.Login(ctx, client.LoginRequest{Identifier: identifier, Password: secret, Remember: remember})
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	return c.establish(ctx, "sign in", res)
}

// Register creates an account and signs it in. CAPTCHA validation is the
// caller's responsibility.
func (c *Controller) Register(ctx context.Context, req client.RegisterRequest) error {
	res, err := c.api.Register(ctx, req)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return c.establish(ctx, "register", res)
}

func (c *Controller) establish(ctx context.Context, op string, res *client.AuthResult) error {
	if res == nil || res.AccessToken == "" {
		return fmt.Errorf("%s: %w", op, &gateway.ProtocolError{Op: op, Reason: "response contains no access_token"})
	}

	c.mu.Lock()
	if err := c.creds.Store(ctx, c.name, res.AccessToken); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("%s: %w", op, err)
	}
	c.gen++
	gen := c.gen
	if res.Identity != nil {
		c.setIdentityLocked(res.Identity)
		c.mu.Unlock()
		c.log.Info(ctx, "signed in", "op", op, "user_id", res.Identity.ID)
		return nil
	}
	c.mu.Unlock()

	// token without a user object: ask the backend who we are
	id, err := c.api.Me(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		if errors.Is(err, client.ErrSessionExpired) {
			c.reconcileLocked(ctx)
		}
		return nil
	}
	if err != nil {
		c.gen++
		c.creds.Erase(ctx, c.name)
		c.clearLocked()
		return fmt.Errorf("%s: %w", op, err)
	}
	c.setIdentityLocked(id)
	c.log.Info(ctx, "signed in", "op", op, "user_id", id.ID)
	return nil
}

// SignOut tells the backend the session is over, then erases the credential
// and clears local state whatever the backend answered.
func (c *Controller) SignOut(ctx context.Context) {
	c.mu.Lock()
	c.gen++
	c.mu.Unlock()

	if err := c.api.Logout(ctx); err != nil {
		c.log.Warn(ctx, "remote logout failed", "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds.Erase(ctx, c.name)
	c.clearLocked()
	c.log.Info(ctx, "signed out")
}

// RefreshIdentity re-fetches the identity when a credential is present. A
// failed fetch is handled like an expired session.
func (c *Controller) RefreshIdentity(ctx context.Context) error {
	return c.refresh(ctx, true)
}

func (c *Controller) refresh(ctx context.Context, eraseOnFailure bool) error {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	if _, ok := c.creds.Retrieve(ctx, c.name); !ok {
		c.mu.Lock()
		if c.gen == gen && c.state != models.StateUnauthenticated {
			c.gen++
			c.clearLocked()
		}
		c.mu.Unlock()
		return nil
	}

	id, err := c.api.Me(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		switch {
		case c.gen == gen && (eraseOnFailure || errors.Is(err, client.ErrSessionExpired)):
			c.gen++
			c.creds.Erase(ctx, c.name)
			c.clearLocked()
		case c.gen != gen && errors.Is(err, client.ErrSessionExpired):
			c.reconcileLocked(ctx)
		}
		return fmt.Errorf("refresh identity: %w", err)
	}
	if c.gen != gen {
		return nil
	}
	c.setIdentityLocked(id)
	return nil
}

// UpdateVerificationStep applies the change locally before the backend
// confirms it. If the backend rejects it the previous identity is restored
// and the error returned.
func (c *Controller) UpdateVerificationStep(ctx context.Context, step verification.Step, verified bool) error {
	c.mu.Lock()
	if c.state != models.StateAuthenticated || c.identity == nil {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	prev := c.identity.Clone()
	next, err := verification.Apply(prev, step, verified)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	gen, rev := c.commitLocked(next)
	c.mu.Unlock()

	if err := c.api.UpdateVerification(ctx, step, verified); err != nil {
		c.rollback(ctx, gen, rev, prev, err, func(cur models.Identity) models.Identity {
			out, _ := verification.Apply(cur, step, verification.IsVerified(prev, step))
			return out
		})
		return fmt.Errorf("update verification %s: %w", step, err)
	}
	return nil
}

// CompleteVerification marks all three steps verified and stamps the
// completion time. The caller states what it observed for each step; if any
// is false nothing is changed and ErrVerificationIncomplete is returned.
func (c *Controller) CompleteVerification(ctx context.Context, emailVerified, phoneVerified, identityVerified bool) error {
	var missing []string
	if !emailVerified {
		missing = append(missing, string(verification.StepEmail))
	}
	if !phoneVerified {
		missing = append(missing, string(verification.StepPhone))
	}
	if !identityVerified {
		missing = append(missing, string(verification.StepIdentity))
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s not verified", ErrVerificationIncomplete, strings.Join(missing, ", "))
	}

	c.mu.Lock()
	if c.state != models.StateAuthenticated || c.identity == nil {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	prev := c.identity.Clone()
	next := prev.Clone()
	next.EmailVerified = true
	next.PhoneVerified = true
	next.IdentityStatus = models.IdentityVerified
	now := c.clock.Now().UTC()
	next.VerificationCompletedAt = &now
	gen, rev := c.commitLocked(next)
	c.mu.Unlock()

	confirmed, err := c.api.CompleteVerification(ctx)
	if err != nil {
		c.rollback(ctx, gen, rev, prev, err, func(cur models.Identity) models.Identity {
			cur.EmailVerified = prev.EmailVerified
			cur.PhoneVerified = prev.PhoneVerified
			cur.IdentityStatus = prev.IdentityStatus
			cur.VerificationCompletedAt = prev.VerificationCompletedAt
			return cur
		})
		return fmt.Errorf("complete verification: %w", err)
	}

	if confirmed == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.rev != rev || c.identity == nil || confirmed.ID != c.identity.ID {
		return nil
	}
	if !verification.Compute(*confirmed).IsComplete {
		c.log.Warn(ctx, "backend confirmed completion with unverified steps", "user_id", confirmed.ID)
		return nil
	}
	if confirmed.VerificationCompletedAt == nil {
		confirmed.VerificationCompletedAt = &now
	}
	c.setIdentityLocked(confirmed)
	return nil
}

// rollback undoes an optimistic change. If nothing else touched the identity
// since, prev is restored as is; otherwise partial re-applies only this
// change's inverse to the current identity.
func (c *Controller) rollback(ctx context.Context, gen, rev uint64, prev models.Identity, cause error, partial func(models.Identity) models.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if errors.Is(cause, client.ErrSessionExpired) {
		c.gen++
		c.clearLocked()
		return
	}
	if c.gen != gen || c.identity == nil {
		return
	}
	if c.rev == rev {
		c.setIdentityLocked(&prev)
	} else {
		reverted := partial(c.identity.Clone())
		c.setIdentityLocked(&reverted)
	}
	c.log.Warn(ctx, "verification change rejected, reverted", "error", cause)
}

// Reset forgets the in-memory session without touching the stored
// credential. Results of operations still in flight are discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.clearLocked()
}

// Close stops credential event watchers and closes all subscriptions.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancels := c.cancels
	c.cancels = nil
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	c.watchers.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	return nil
}

func (c *Controller) commitLocked(id models.Identity) (gen, rev uint64) {
	c.identity = &id
	c.rev++
	c.notifyLocked()
	return c.gen, c.rev
}

func (c *Controller) setIdentityLocked(id *models.Identity) {
	cp := id.Clone()
	c.state = models.StateAuthenticated
	c.identity = &cp
	c.rev++
	c.notifyLocked()
}

// reconcileLocked handles a 401 that arrived after a newer operation took
// over. The newer session stands only while the vault still holds a
// credential for it.
func (c *Controller) reconcileLocked(ctx context.Context) {
	if c.state != models.StateAuthenticated {
		return
	}
	if _, ok := c.creds.Retrieve(ctx, c.name); ok {
		return
	}
	c.log.Info(ctx, "credential gone after a late unauthorized response, signing out locally")
	c.gen++
	c.clearLocked()
}

func (c *Controller) clearLocked() {
	c.state = models.StateUnauthenticated
	c.identity = nil
	c.rev++
	c.notifyLocked()
}
