package session_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/storekeeper/internal/client/client"
	"github.com/dmitrijs2005/storekeeper/internal/client/gateway"
	"github.com/dmitrijs2005/storekeeper/internal/client/session"
	"github.com/dmitrijs2005/storekeeper/internal/client/storage"
	"github.com/dmitrijs2005/storekeeper/internal/client/vault"
	"github.com/dmitrijs2005/storekeeper/internal/client/verification"
	"github.com/dmitrijs2005/storekeeper/internal/logging"
	"github.com/dmitrijs2005/storekeeper/internal/server/config"
	"github.com/dmitrijs2005/storekeeper/internal/server/rest"
	"github.com/dmitrijs2005/storekeeper/internal/server/users"
)

// startBackend serves the development backend on a loopback port and
// returns its API base URL.
func startBackend(t *testing.T, wrap bool) string {
	t.Helper()

	cfg := &config.Config{
		SecretKey:                   "e2e-secret",
		AccessTokenValidityDuration: time.Hour,
		BcryptCost:                  bcrypt.MinCost,
	}
	srv := rest.NewServer(rest.Options{BasePath: "/api", WrapResponses: wrap},
		users.NewService(users.NewInMemoryRepository(), cfg), logging.Discard())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("backend did not shut down")
		}
	})

	return "http://" + ln.Addr().String() + "/api"
}

type stack struct {
	vault *vault.Vault
	ctl   *session.Controller
}

func newStack(t *testing.T, baseURL string, store storage.Storage) stack {
	t.Helper()
	v, err := vault.New(store, "e2e-obfuscation")
	require.NoError(t, err)

	api := client.NewHTTPClient(gateway.New(baseURL, v))
	ctl := session.New(api, v)
	t.Cleanup(func() { _ = ctl.Close() })
	return stack{vault: v, ctl: ctl}
}

func TestEndToEnd_SessionLifecycle(t *testing.T) {
	for _, wrap := range []bool{false, true} {
		name := "direct"
		if wrap {
			name = "wrapped"
		}
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			baseURL := startBackend(t, wrap)
			store := storage.NewMemoryStorage()
			s := newStack(t, baseURL, store)

			err := s.ctl.Register(ctx, client.RegisterRequest{
				Name:                 "Ann",
				Email:                "ann@example.com",
				Phone:                "+16502530000",
				Password:             "s3cret-pass",
				PasswordConfirmation: "s3cret-pass",
				CaptchaToken:         "tok",
			})
			require.NoError(t, err)
			require.True(t, s.ctl.IsAuthenticated())
			require.True(t, s.vault.Exists(ctx, vault.DefaultName))
			token, _ := s.vault.Retrieve(ctx, vault.DefaultName)

			snap := s.ctl.Snapshot()
			require.NotNil(t, snap.Identity)
			assert.Equal(t, "ann@example.com", snap.Identity.Email)
			assert.Equal(t, 0, s.ctl.Progress().Completed)

			// a second controller over the same storage restores the session
			restored := newStack(t, baseURL, store)
			restored.ctl.Initialize(ctx)
			require.True(t, restored.ctl.IsAuthenticated())
			assert.Equal(t, snap.Identity.ID, restored.ctl.Snapshot().Identity.ID)

			err = s.ctl.CompleteVerification(ctx, false, false, false)
			require.ErrorIs(t, err, session.ErrVerificationIncomplete)

			for _, step := range verification.Steps {
				require.NoError(t, s.ctl.UpdateVerificationStep(ctx, step, true), step)
			}
			require.True(t, s.ctl.Progress().IsComplete)

			require.NoError(t, s.ctl.CompleteVerification(ctx, true, true, true))
			id := s.ctl.Snapshot().Identity
			require.NotNil(t, id)
			assert.True(t, id.HasRole("seller"), "backend grants the seller role on completion")
			assert.NotNil(t, id.VerificationCompletedAt)

			require.NoError(t, s.ctl.RefreshIdentity(ctx))
			assert.True(t, s.ctl.Snapshot().Identity.HasRole("seller"))

			s.ctl.SignOut(ctx)
			assert.False(t, s.ctl.IsAuthenticated())
			assert.False(t, s.vault.Exists(ctx, vault.DefaultName))

			// the revoked token is rejected and purged on startup
			require.NoError(t, s.vault.Store(ctx, vault.DefaultName, token))
			fresh := newStack(t, baseURL, store)
			fresh.ctl.Initialize(ctx)
			assert.False(t, fresh.ctl.IsAuthenticated())
			assert.False(t, fresh.vault.Exists(ctx, vault.DefaultName))

			err = s.ctl.SignIn(ctx, "ann@example.com", "wrong", false)
			require.Error(t, err)
			var herr *gateway.HTTPError
			require.True(t, errors.As(err, &herr))
			assert.Equal(t, 422, herr.Status)
			assert.False(t, s.ctl.IsAuthenticated())

			require.NoError(t, s.ctl.SignIn(ctx, "ann@example.com", "s3cret-pass", true))
			assert.True(t, s.ctl.IsAuthenticated())
			assert.True(t, s.ctl.Snapshot().Identity.HasRole("seller"))
		})
	}
}
