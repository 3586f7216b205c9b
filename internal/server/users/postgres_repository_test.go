package users

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/storekeeper/internal/common"
	"github.com/dmitrijs2005/storekeeper/internal/server/models"
)

func TestRoles_RoundTrip(t *testing.T) {
	assert.Equal(t, []string{}, splitRoles(""))
	assert.Equal(t, []string{"customer", "seller"}, splitRoles(joinRoles([]string{"customer", "seller"})))
	assert.Equal(t, "", joinRoles(nil))
}

func TestNullTime(t *testing.T) {
	assert.False(t, nullTime(nil).Valid)

	now := time.Now()
	nt := nullTime(&now)
	assert.True(t, nt.Valid)
	assert.True(t, nt.Time.Equal(now))
}

// Runs against a real database when STOREKEEPER_TEST_POSTGRES_DSN is set.
func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("STOREKEEPER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("STOREKEEPER_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	db, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	r := NewPostgresRepository(db)
	email := "pg-" + time.Now().Format("150405.000000") + "@example.com"

	u, err := r.Create(ctx, &models.User{Name: "Ann", Email: email, PasswordHash: []byte("h"), Roles: []string{"customer"}})
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = db.Exec(`DELETE FROM users WHERE id = $1`, u.ID) })

	_, err = r.Create(ctx, &models.User{Name: "Dup", Email: email, PasswordHash: []byte("h")})
	require.ErrorIs(t, err, common.ErrorAlreadyExists)

	got, err := r.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	stamp := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	updated, err := r.Update(ctx, u.ID, func(u *models.User) error {
		u.EmailVerified = true
		u.VerificationCompletedAt = &stamp
		u.Roles = append(u.Roles, RoleSeller)
		u.TokenVersion++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TokenVersion)

	got, err = r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)
	assert.Equal(t, []string{"customer", RoleSeller}, got.Roles)
	require.NotNil(t, got.VerificationCompletedAt)
	assert.True(t, got.VerificationCompletedAt.Equal(stamp))

	_, err = r.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
