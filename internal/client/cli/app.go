package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/storekeeper/internal/client/client"
	"github.com/dmitrijs2005/storekeeper/internal/client/models"
	"github.com/dmitrijs2005/storekeeper/internal/client/verification"
	"github.com/dmitrijs2005/storekeeper/internal/logging"
)

// Session is the part of session.Controller the CLI drives.
type Session interface {
	Snapshot() models.Snapshot
	Progress() verification.Progress
	Subscribe() (<-chan models.Snapshot, func())
	SignIn(ctx context.Context, identifier, secret string, remember bool) error
	Register(ctx context.Context, req client.RegisterRequest) error
	SignOut(ctx context.Context)
	RefreshIdentity(ctx context.Context) error
	UpdateVerificationStep(ctx context.Context, step verification.Step, verified bool) error
	CompleteVerification(ctx context.Context, emailVerified, phoneVerified, identityVerified bool) error
}

type App struct {
	session Session
	screen  *Screen
	reader  *bufio.Reader
	out     io.Writer
	region  string
	logger  logging.Logger

	// busy is set while a command runs; known is the sign-in state the
	// user last saw. The watcher only reports changes made elsewhere.
	busy  atomic.Bool
	known atomic.Bool
}

type Option func(*App)

// WithRegion sets the default region for phone numbers without a country code.
func WithRegion(region string) Option { return func(a *App) { a.region = region } }

func WithLogger(l logging.Logger) Option { return func(a *App) { a.logger = l } }

func NewApp(s Session, screen *Screen, in io.Reader, out io.Writer, opts ...Option) *App {
	a := &App{
		session: s,
		screen:  screen,
		reader:  bufio.NewReader(in),
		out:     &lockedWriter{w: out},
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the REPL and blocks until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to storekeeper (type 'help' for commands)")
	if a.isLoggedIn() {
		a.screen.Go(PageAccount)
	}

	a.known.Store(a.isLoggedIn())
	go a.watchSession(ctx)
	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().IsAuthenticated
}

func (a *App) getStatus() string {
	snap := a.session.Snapshot()
	switch {
	case snap.IsLoading:
		return "(loading)"
	case snap.IsAuthenticated && snap.Identity != nil:
		return fmt.Sprintf("(%s %s)", snap.Identity.Email, a.screen.Location())
	default:
		return "(guest)"
	}
}

// watchSession reports sign-ins and sign-outs that happened outside this
// REPL, e.g. in another client sharing the same vault.
func (a *App) watchSession(ctx context.Context) {
	updates, cancel := a.session.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if snap.IsLoading {
				continue
			}
			in := snap.IsAuthenticated
			if a.busy.Load() || in == a.known.Load() {
				continue
			}
			a.known.Store(in)
			a.logger.Debug(ctx, "session changed outside the REPL", "authenticated", in)
			if in {
				fmt.Fprintln(a.out, "\nSigned in elsewhere.")
			} else {
				a.screen.Go(PageLogin)
				fmt.Fprintln(a.out, "\nSigned out elsewhere.")
			}
		}
	}
}

// command marks the app busy for the duration of fn.
func (a *App) command(fn func() error) error {
	a.busy.Store(true)
	defer func() {
		a.known.Store(a.isLoggedIn())
		a.busy.Store(false)
	}()
	return fn()
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
