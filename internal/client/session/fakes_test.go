package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/storekeeper/internal/client/client"
	"github.com/dmitrijs2005/storekeeper/internal/client/models"
	"github.com/dmitrijs2005/storekeeper/internal/client/storage"
	"github.com/dmitrijs2005/storekeeper/internal/client/vault"
	"github.com/dmitrijs2005/storekeeper/internal/client/verification"
	"github.com/stretchr/testify/require"
)

// fakeClient implements client.Client for controller tests.
type fakeClient struct {
	mu sync.Mutex

	LoginRet    *client.AuthResult
	LoginErr    error
	RegisterRet *client.AuthResult
	RegisterErr error
	LogoutErr   error
	MeRet       *models.Identity
	MeErr       error
	UpdateErr   error
	CompleteRet *models.Identity
	CompleteErr error

	// optional hooks, run instead of the fixed results above
	MeHook       func(ctx context.Context) (*models.Identity, error)
	UpdateHook   func(ctx context.Context, step verification.Step, verified bool) error
	CompleteHook func(ctx context.Context) (*models.Identity, error)

	LastLogin    client.LoginRequest
	LastRegister client.RegisterRequest
	LastUpdate   struct {
		Step     verification.Step
		Verified bool
	}

	LoginCalls, LogoutCalls, MeCalls, UpdateCalls, CompleteCalls int
}

func (f *fakeClient) Login(_ context.Context, req client.LoginRequest) (*client.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LoginCalls++
	f.LastLogin = req
	return f.LoginRet, f.LoginErr
}

func (f *fakeClient) Register(_ context.Context, req client.RegisterRequest) (*client.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastRegister = req
	return f.RegisterRet, f.RegisterErr
}

func (f *fakeClient) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LogoutCalls++
	return f.LogoutErr
}

func (f *fakeClient) Me(ctx context.Context) (*models.Identity, error) {
	f.mu.Lock()
	f.MeCalls++
	hook, ret, err := f.MeHook, f.MeRet, f.MeErr
	f.mu.Unlock()
	if hook != nil {
		return hook(ctx)
	}
	if ret != nil {
		cp := ret.Clone()
		return &cp, err
	}
	return nil, err
}

func (f *fakeClient) UpdateVerification(ctx context.Context, step verification.Step, verified bool) error {
	f.mu.Lock()
	f.UpdateCalls++
	f.LastUpdate.Step = step
	f.LastUpdate.Verified = verified
	hook, err := f.UpdateHook, f.UpdateErr
	f.mu.Unlock()
	if hook != nil {
		return hook(ctx, step, verified)
	}
	return err
}

func (f *fakeClient) CompleteVerification(ctx context.Context) (*models.Identity, error) {
	f.mu.Lock()
	f.CompleteCalls++
	hook, ret, err := f.CompleteHook, f.CompleteRet, f.CompleteErr
	f.mu.Unlock()
	if hook != nil {
		return hook(ctx)
	}
	return ret, err
}

func (f *fakeClient) counts() (login, logout, me, update, complete int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.LoginCalls, f.LogoutCalls, f.MeCalls, f.UpdateCalls, f.CompleteCalls
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type fixture struct {
	api   *fakeClient
	store *storage.MemoryStorage
	vault *vault.Vault
	clock *fakeClock
	ctrl  *Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		api:   &fakeClient{},
		store: storage.NewMemoryStorage(),
		clock: &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	v, err := vault.New(f.store, "test-secret", vault.WithClock(f.clock))
	require.NoError(t, err)
	f.vault = v
	f.ctrl = New(f.api, v, WithClock(f.clock))
	t.Cleanup(func() { _ = f.ctrl.Close() })
	return f
}

func (f *fixture) storedKeys(t *testing.T) []string {
	t.Helper()
	keys, err := f.store.Keys(context.Background())
	require.NoError(t, err)
	return keys
}

func (f *fixture) token(t *testing.T) (string, bool) {
	t.Helper()
	return f.vault.Retrieve(context.Background(), vault.DefaultName)
}

func ann() *models.Identity {
	return &models.Identity{
		ID:             "1",
		DisplayName:    "Ann",
		Email:          "ann@example.com",
		IdentityStatus: models.IdentityIncomplete,
	}
}

// signedIn returns a fixture with Ann authenticated and "tok" stored.
func signedIn(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.api.LoginRet = &client.AuthResult{Identity: ann(), AccessToken: "tok"}
	require.NoError(t, f.ctrl.SignIn(context.Background(), "ann@example.com", "pw", false))
	return f
}
