package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/storekeeper/internal/client/client"
	"github.com/dmitrijs2005/storekeeper/internal/client/gateway"
	"github.com/dmitrijs2005/storekeeper/internal/client/models"
	"github.com/dmitrijs2005/storekeeper/internal/client/vault"
	"github.com/dmitrijs2005/storekeeper/internal/client/verification"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StartsUnauthenticated(t *testing.T) {
	f := newFixture(t)
	snap := f.ctrl.Snapshot()
	assert.Equal(t, models.StateUnauthenticated, snap.State)
	assert.False(t, snap.IsAuthenticated)
	assert.False(t, snap.IsLoading)
	assert.Nil(t, snap.Identity)
}

func TestInitialize_NoCredential(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Initialize(context.Background())

	assert.False(t, f.ctrl.IsAuthenticated())
	_, _, me, _, _ := f.api.counts()
	assert.Equal(t, 0, me)
}

func TestInitialize_RestoresSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.vault.Store(context.Background(), vault.DefaultName, "tok"))
	f.api.MeRet = ann()

	f.ctrl.Initialize(context.Background())

	snap := f.ctrl.Snapshot()
	require.True(t, snap.IsAuthenticated)
	assert.Equal(t, models.StateAuthenticated, snap.State)
	if diff := cmp.Diff(ann(), snap.Identity); diff != "" {
		t.Fatalf("identity mismatch (-want +got):\n%s", diff)
	}
}

func TestInitialize_FailureIsSwallowedAndErases(t *testing.T) {
	for name, cause := range map[string]error{
		"network": &gateway.NetworkError{Op: "GET /auth/me", Err: errors.New("refused")},
		"expired": gateway.ErrSessionExpired,
		"server":  &gateway.HTTPError{Status: 500, Message: "boom"},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			require.NoError(t, f.vault.Store(context.Background(), vault.DefaultName, "tok"))
			f.api.MeErr = cause

			f.ctrl.Initialize(context.Background())

			assert.False(t, f.ctrl.IsAuthenticated())
			assert.Empty(t, f.storedKeys(t))
		})
	}
}

func TestInitialize_ExpiredCredentialNeverCallsBackend(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.vault.Store(context.Background(), vault.DefaultName, "tok"))
	f.clock.now = f.clock.now.Add(vault.DefaultTTL + time.Millisecond)

	f.ctrl.Initialize(context.Background())

	assert.False(t, f.ctrl.IsAuthenticated())
	_, _, me, _, _ := f.api.counts()
	assert.Equal(t, 0, me)
	assert.Empty(t, f.storedKeys(t))
}

func TestInitialize_LoadingWhileInFlight(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.vault.Store(context.Background(), vault.DefaultName, "tok"))

	entered := make(chan struct{})
	release := make(chan struct{})
	f.api.MeHook = func(context.Context) (*models.Identity, error) {
		close(entered)
		<-release
		return ann(), nil
	}

	done := make(chan struct{})
	go func() {
		f.ctrl.Initialize(context.Background())
		close(done)
	}()

	<-entered
	snap := f.ctrl.Snapshot()
	assert.True(t, snap.IsLoading)
	assert.False(t, snap.IsAuthenticated)

	close(release)
	<-done
	assert.True(t, f.ctrl.IsAuthenticated())
}

func TestInitialize_StaleResultDiscardedAfterSignIn(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.vault.Store(context.Background(), vault.DefaultName, "old"))

	entered := make(chan struct{})
	release := make(chan struct{})
	f.api.MeHook = func(context.Context) (*models.Identity, error) {
		close(entered)
		<-release
		return nil, gateway.ErrSessionExpired
	}

	done := make(chan struct{})
	go func() {
		f.ctrl.Initialize(context.Background())
		close(done)
	}()
	<-entered

	bob := &models.Identity{ID: "2", DisplayName: "Bob"}
	f.api.LoginRet = &client.AuthResult{Identity: bob, AccessToken: "new"}
	require.NoError(t, f.ctrl.SignIn(context.Background(), "bob", "pw", true))

	close(release)
	<-done

	snap := f.ctrl.Snapshot()
	require.True(t, snap.IsAuthenticated)
	assert.Equal(t, models.ID("2"), snap.Identity.ID)
	tok, ok := f.token(t)
	require.True(t, ok)
	assert.Equal(t, "new", tok)
}

func TestInitialize_StaleUnauthorizedClearsWhenCredentialGone(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.vault.Store(context.Background(), vault.DefaultName, "old"))

	entered := make(chan struct{})
	release := make(chan struct{})
	f.api.MeHook = func(ctx context.Context) (*models.Identity, error) {
		close(entered)
		<-release
		// the newer credential was erased too, e.g. by a sign-out elsewhere
		f.vault.Erase(ctx, vault.DefaultName)
		return nil, gateway.ErrSessionExpired
	}

	done := make(chan struct{})
	go func() {
		f.ctrl.Initialize(context.Background())
		close(done)
	}()
	<-entered

	f.api.LoginRet = &client.AuthResult{Identity: &models.Identity{ID: "2"}, AccessToken: "new"}
	require.NoError(t, f.ctrl.SignIn(context.Background(), "bob", "pw", true))

	close(release)
	<-done

	assert.False(t, f.ctrl.IsAuthenticated())
	_, ok := f.token(t)
	assert.False(t, ok)
}

func TestSignIn_StoresCredentialAndAuthenticates(t *testing.T) {
	f := newFixture(t)
	f.api.LoginRet = &client.AuthResult{Identity: ann(), AccessToken: "tok", Shape: gateway.ShapeWrapped}

	require.NoError(t, f.ctrl.SignIn(context.Background(), "ann@example.com", "pw", true))

	assert.Equal(t, client.LoginRequest{Identifier: "ann@example.com", Password: "pw", Remember: true}, f.api.LastLogin)
	tok, ok := f.token(t)
	require.True(t, ok)
	assert.Equal(t, "tok", tok)

	snap := f.ctrl.Snapshot()
	require.True(t, snap.IsAuthenticated)
	assert.Equal(t, "Ann", snap.Identity.DisplayName)
}

func TestSignIn_ErrorsPropagateWithoutStateChange(t *testing.T) {
	f := newFixture(t)
	f.api.LoginErr = &gateway.HTTPError{Status: 422, Message: "The provided credentials are incorrect."}

	err := f.ctrl.SignIn(context.Background(), "ann", "bad", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gateway.ErrHTTP))

	var he *gateway.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "The provided credentials are incorrect.", he.Message)

	assert.False(t, f.ctrl.IsAuthenticated())
	assert.Empty(t, f.storedKeys(t))
}

func TestSignIn_MissingTokenIsProtocolErrorWithoutWrite(t *testing.T) {
	f := newFixture(t)
	f.api.LoginRet = &client.AuthResult{Identity: ann()}

	err := f.ctrl.SignIn(context.Background(), "ann", "pw", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gateway.ErrProtocol))
	assert.Empty(t, f.storedKeys(t))
	assert.False(t, f.ctrl.IsAuthenticated())
}

func TestSignIn_TokenWithoutUserFetchesIdentity(t *testing.T) {
	f := newFixture(t)
	f.api.LoginRet = &client.AuthResult{AccessToken: "tok"}
	f.api.MeRet = ann()

	require.NoError(t, f.ctrl.SignIn(context.Background(), "ann", "pw", false))
	snap := f.ctrl.Snapshot()
	require.True(t, snap.IsAuthenticated)
	assert.Equal(t, models.ID("1"), snap.Identity.ID)
}

func TestSignIn_TokenWithoutUserAndFailedFetchErases(t *testing.T) {
	f := newFixture(t)
	f.api.LoginRet = &client.AuthResult{AccessToken: "tok"}
	f.api.MeErr = &gateway.NetworkError{Op: "GET /auth/me", Err: errors.New("reset")}

	err := f.ctrl.SignIn(context.Background(), "ann", "pw", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gateway.ErrNetwork))
	assert.False(t, f.ctrl.IsAuthenticated())
	assert.Empty(t, f.storedKeys(t))
}

func TestRegister_SameContractAsSignIn(t *testing.T) {
	f := newFixture(t)
	f.api.RegisterRet = &client.AuthResult{Identity: ann(), AccessToken: "reg"}

	req := client.RegisterRequest{Name: "Ann", Email: "ann@example.com", Password: "secret123", PasswordConfirmation: "secret123"}
	require.NoError(t, f.ctrl.Register(context.Background(), req))
	assert.Equal(t, req, f.api.LastRegister)
	assert.True(t, f.ctrl.IsAuthenticated())

	f2 := newFixture(t)
	f2.api.RegisterRet = &client.AuthResult{Identity: ann()}
	err := f2.ctrl.Register(context.Background(), req)
	assert.True(t, errors.Is(err, gateway.ErrProtocol))
	assert.Empty(t, f2.storedKeys(t))
}

func TestSignOut_AlwaysClearsLocalState(t *testing.T) {
	f := signedIn(t)
	f.api.LogoutErr = &gateway.NetworkError{Op: "POST /auth/logout", Err: errors.New("offline")}

	f.ctrl.SignOut(context.Background())

	assert.False(t, f.ctrl.IsAuthenticated())
	assert.Nil(t, f.ctrl.Snapshot().Identity)
	assert.Empty(t, f.storedKeys(t))
	_, logout, _, _, _ := f.api.counts()
	assert.Equal(t, 1, logout)
}

func TestSignOut_WhenNotSignedIn(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SignOut(context.Background())
	assert.False(t, f.ctrl.IsAuthenticated())
}

func TestRefreshIdentity_UpdatesIdentity(t *testing.T) {
	f := signedIn(t)
	updated := ann()
	updated.EmailVerified = true
	f.api.MeRet = updated

	require.NoError(t, f.ctrl.RefreshIdentity(context.Background()))
	assert.True(t, f.ctrl.Snapshot().Identity.EmailVerified)
}

func TestRefreshIdentity_FailureActsLikeExpiry(t *testing.T) {
	f := signedIn(t)
	f.api.MeErr = &gateway.HTTPError{Status: 500, Message: "boom"}

	err := f.ctrl.RefreshIdentity(context.Background())
	require.Error(t, err)
	assert.False(t, f.ctrl.IsAuthenticated())
	assert.Empty(t, f.storedKeys(t))
}

func TestRefreshIdentity_NoCredentialClearsState(t *testing.T) {
	f := signedIn(t)
	f.vault.Erase(context.Background(), vault.DefaultName)

	require.NoError(t, f.ctrl.RefreshIdentity(context.Background()))
	assert.False(t, f.ctrl.IsAuthenticated())
	_, _, me, _, _ := f.api.counts()
	assert.Equal(t, 0, me)
}

func TestUpdateVerificationStep_Optimistic(t *testing.T) {
	f := signedIn(t)

	var during models.Snapshot
	f.api.UpdateHook = func(context.Context, verification.Step, bool) error {
		during = f.ctrl.Snapshot()
		return nil
	}

	require.NoError(t, f.ctrl.UpdateVerificationStep(context.Background(), verification.StepEmail, true))

	require.NotNil(t, during.Identity)
	assert.True(t, during.Identity.EmailVerified, "change must be visible before the backend answers")
	assert.True(t, f.ctrl.Snapshot().Identity.EmailVerified)
	assert.Equal(t, verification.StepEmail, f.api.LastUpdate.Step)
	assert.True(t, f.api.LastUpdate.Verified)
	assert.Equal(t, 1, f.ctrl.Progress().Completed)
}

func TestUpdateVerificationStep_RevertsOnFailure(t *testing.T) {
	f := signedIn(t)
	f.api.UpdateErr = &gateway.HTTPError{Status: 422, Message: "invalid step"}

	before := f.ctrl.Snapshot().Identity
	err := f.ctrl.UpdateVerificationStep(context.Background(), verification.StepPhone, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gateway.ErrHTTP))

	if diff := cmp.Diff(before, f.ctrl.Snapshot().Identity); diff != "" {
		t.Fatalf("identity not reverted (-want +got):\n%s", diff)
	}
	assert.True(t, f.ctrl.IsAuthenticated())
}

func TestUpdateVerificationStep_RevertKeepsConcurrentChange(t *testing.T) {
	f := signedIn(t)

	f.api.UpdateHook = func(ctx context.Context, step verification.Step, _ bool) error {
		if step == verification.StepPhone {
			f.api.mu.Lock()
			f.api.UpdateHook = nil
			f.api.mu.Unlock()
			require.NoError(t, f.ctrl.UpdateVerificationStep(ctx, verification.StepEmail, true))
			return &gateway.HTTPError{Status: 500, Message: "boom"}
		}
		return nil
	}

	err := f.ctrl.UpdateVerificationStep(context.Background(), verification.StepPhone, true)
	require.Error(t, err)

	id := f.ctrl.Snapshot().Identity
	assert.False(t, id.PhoneVerified)
	assert.True(t, id.EmailVerified)
}

func TestUpdateVerificationStep_SessionExpiredClears(t *testing.T) {
	f := signedIn(t)
	f.api.UpdateErr = gateway.ErrSessionExpired

	err := f.ctrl.UpdateVerificationStep(context.Background(), verification.StepEmail, true)
	require.ErrorIs(t, err, gateway.ErrSessionExpired)
	assert.False(t, f.ctrl.IsAuthenticated())
}

func TestUpdateVerificationStep_Preconditions(t *testing.T) {
	f := newFixture(t)
	err := f.ctrl.UpdateVerificationStep(context.Background(), verification.StepEmail, true)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	f = signedIn(t)
	err = f.ctrl.UpdateVerificationStep(context.Background(), verification.Step("passport"), true)
	assert.ErrorIs(t, err, verification.ErrUnknownStep)
	_, _, _, update, _ := f.api.counts()
	assert.Equal(t, 0, update)
}

func TestCompleteVerification_RequiresAllSteps(t *testing.T) {
	f := signedIn(t)
	before := f.ctrl.Snapshot().Identity

	for _, flags := range [][3]bool{
		{false, true, true},
		{true, false, true},
		{true, true, false},
		{false, false, false},
	} {
		err := f.ctrl.CompleteVerification(context.Background(), flags[0], flags[1], flags[2])
		assert.ErrorIs(t, err, ErrVerificationIncomplete)
	}

	_, _, _, _, complete := f.api.counts()
	assert.Equal(t, 0, complete)
	if diff := cmp.Diff(before, f.ctrl.Snapshot().Identity); diff != "" {
		t.Fatalf("identity changed (-want +got):\n%s", diff)
	}
}

func TestCompleteVerification_Success(t *testing.T) {
	f := signedIn(t)

	require.NoError(t, f.ctrl.CompleteVerification(context.Background(), true, true, true))

	p := f.ctrl.Progress()
	assert.True(t, p.IsComplete)
	assert.Equal(t, 3, p.Completed)
	assert.Equal(t, 3, p.Total)

	id := f.ctrl.Snapshot().Identity
	assert.Equal(t, models.IdentityVerified, id.IdentityStatus)
	require.NotNil(t, id.VerificationCompletedAt)
	assert.True(t, id.VerificationCompletedAt.Equal(f.clock.now))
	assert.True(t, verification.CanSell(*id))
}

func TestCompleteVerification_AdoptsConfirmedIdentity(t *testing.T) {
	f := signedIn(t)
	at := f.clock.now.Add(-time.Minute)
	confirmed := ann()
	confirmed.EmailVerified = true
	confirmed.PhoneVerified = true
	confirmed.IdentityStatus = models.IdentityVerified
	confirmed.VerificationCompletedAt = &at
	confirmed.Roles = []string{"seller"}
	f.api.CompleteRet = confirmed

	require.NoError(t, f.ctrl.CompleteVerification(context.Background(), true, true, true))
	id := f.ctrl.Snapshot().Identity
	assert.True(t, id.HasRole("seller"))
	assert.True(t, id.VerificationCompletedAt.Equal(at))
}

func TestCompleteVerification_RevertsOnFailure(t *testing.T) {
	f := signedIn(t)
	f.api.CompleteErr = &gateway.NetworkError{Op: "POST /auth/verification/complete", Err: errors.New("timeout")}

	before := f.ctrl.Snapshot().Identity
	err := f.ctrl.CompleteVerification(context.Background(), true, true, true)
	require.ErrorIs(t, err, gateway.ErrNetwork)

	if diff := cmp.Diff(before, f.ctrl.Snapshot().Identity); diff != "" {
		t.Fatalf("identity not reverted (-want +got):\n%s", diff)
	}
	assert.False(t, f.ctrl.Progress().IsComplete)
}

func TestCompleteVerification_RevertKeepsConcurrentChange(t *testing.T) {
	f := signedIn(t)
	f.api.CompleteHook = func(ctx context.Context) (*models.Identity, error) {
		renamed := ann()
		renamed.DisplayName = "Ann B."
		f.api.mu.Lock()
		f.api.MeRet = renamed
		f.api.mu.Unlock()
		require.NoError(t, f.ctrl.RefreshIdentity(ctx))
		return nil, &gateway.HTTPError{Status: 500, Message: "boom"}
	}

	err := f.ctrl.CompleteVerification(context.Background(), true, true, true)
	require.Error(t, err)

	id := f.ctrl.Snapshot().Identity
	assert.Equal(t, "Ann B.", id.DisplayName, "unrelated change survives the revert")
	assert.False(t, id.EmailVerified)
	assert.False(t, id.PhoneVerified)
	assert.Equal(t, models.IdentityIncomplete, id.IdentityStatus)
	assert.Nil(t, id.VerificationCompletedAt)
}

func TestCompleteVerification_NotAuthenticated(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.ctrl.CompleteVerification(context.Background(), true, true, true), ErrNotAuthenticated)
}

func TestProgress_Unauthenticated(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, verification.Progress{Total: 3}, f.ctrl.Progress())
}

func TestSnapshot_IsACopy(t *testing.T) {
	f := signedIn(t)
	snap := f.ctrl.Snapshot()
	snap.Identity.DisplayName = "Mallory"
	assert.Equal(t, "Ann", f.ctrl.Snapshot().Identity.DisplayName)
}

func TestReset_KeepsCredential(t *testing.T) {
	f := signedIn(t)
	f.ctrl.Reset()

	assert.False(t, f.ctrl.IsAuthenticated())
	_, ok := f.token(t)
	assert.True(t, ok)
}
