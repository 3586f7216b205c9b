package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/storekeeper/internal/common"
	"github.com/dmitrijs2005/storekeeper/internal/dbx"
	"github.com/dmitrijs2005/storekeeper/internal/server/migrations"
	"github.com/dmitrijs2005/storekeeper/internal/server/models"
)

const uniqueViolation = "23505"

const userColumns = `id, name, email, phone, password_hash, roles,
	email_verified, phone_verified, identity_verified, verification_completed_at,
	token_version, created_at`

// OpenPostgres connects through the pgx driver and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return db, nil
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	u := copyUser(user)
	u.ID = uuid.NewString()
	u.Email = strings.ToLower(u.Email)

	query :=
		`INSERT INTO users (id, name, email, phone, password_hash, roles)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, joinRoles(u.Roles)).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return u, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return getUser(ctx, r.db, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return getUser(ctx, r.db, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
}

// Update loads the row under FOR UPDATE, applies fn and writes the mutable
// columns back in the same transaction.
func (r *PostgresRepository) Update(ctx context.Context, id string, fn func(u *models.User) error) (*models.User, error) {
	var out *models.User
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := getUser(ctx, tx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		if err := fn(u); err != nil {
			return err
		}

		query :=
			`UPDATE users SET name = $2, phone = $3, password_hash = $4, roles = $5,
			 email_verified = $6, phone_verified = $7, identity_verified = $8,
			 verification_completed_at = $9, token_version = $10
			 WHERE id = $1
			 `
		_, err = tx.ExecContext(ctx, query, id, u.Name, u.Phone, u.PasswordHash, joinRoles(u.Roles),
			u.EmailVerified, u.PhoneVerified, u.IdentityVerified, nullTime(u.VerificationCompletedAt), u.TokenVersion)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func getUser(ctx context.Context, db dbx.DBTX, query string, arg string) (*models.User, error) {
	var (
		u         models.User
		roles     string
		completed sql.NullTime
	)
	err := db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &roles,
		&u.EmailVerified, &u.PhoneVerified, &u.IdentityVerified, &completed,
		&u.TokenVersion, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	u.Roles = splitRoles(roles)
	if completed.Valid {
		t := completed.Time.UTC()
		u.VerificationCompletedAt = &t
	}
	return &u, nil
}

// roles are stored as a comma-separated list
func joinRoles(roles []string) string {
	return strings.Join(roles, ",")
}

func splitRoles(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
