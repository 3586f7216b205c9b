package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/storekeeper/internal/common"
	"github.com/dmitrijs2005/storekeeper/internal/server/auth"
	"github.com/dmitrijs2005/storekeeper/internal/server/config"
	"github.com/dmitrijs2005/storekeeper/internal/server/models"
)

// RoleSeller is granted once all verification steps are complete.
const RoleSeller = "seller"

// Verification step names, as sent by the client.
const (
	StepEmail    = "email"
	StepPhone    = "phone"
	StepIdentity = "identity"
)

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Session is the result of a successful login or registration.
type Session struct {
	User        *models.User
	AccessToken string
	ExpiresIn   time.Duration
}

type Service struct {
	repo                        Repository
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	bcryptCost                  int
	now                         func() time.Time
}

func NewService(repo Repository, cfg *config.Config) *Service {
	return &Service{
		repo:                        repo,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		bcryptCost:                  cfg.BcryptCost,
		now:                         time.Now,
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, &models.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Roles:        []string{"customer"},
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return s.issue(user)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrorUnauthorized
	}

	return s.issue(user)
}

// Logout revokes every token issued to the user so far.
func (s *Service) Logout(ctx context.Context, userID string) error {
	_, err := s.repo.Update(ctx, userID, func(u *models.User) error {
		u.TokenVersion++
		return nil
	})
	return err
}

// Authenticate resolves a bearer token to its user. Revoked tokens are
// reported as common.ErrInvalidToken.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	if user.TokenVersion != claims.Version {
		return nil, common.ErrInvalidToken
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*models.User, error) {
	return s.repo.GetByID(ctx, userID)
}

// SetVerification toggles one step. Clearing a step also clears completion
// and the seller role.
func (s *Service) SetVerification(ctx context.Context, userID, step string, verified bool) (*models.User, error) {
	return s.repo.Update(ctx, userID, func(u *models.User) error {
		switch step {
		case StepEmail:
			u.EmailVerified = verified
		case StepPhone:
			u.PhoneVerified = verified
		case StepIdentity:
			u.IdentityVerified = verified
		default:
			return fmt.Errorf("%w: %q", common.ErrUnknownStep, step)
		}
		if !verified {
			u.VerificationCompletedAt = nil
			u.Roles = removeRole(u.Roles, RoleSeller)
		}
		return nil
	})
}

// CompleteVerification stamps completion and grants the seller role. The
// server checks completeness itself; it does not trust the client.
func (s *Service) CompleteVerification(ctx context.Context, userID string) (*models.User, error) {
	return s.repo.Update(ctx, userID, func(u *models.User) error {
		if !u.Verified() {
			return common.ErrVerificationIncomplete
		}
		if u.VerificationCompletedAt == nil {
			now := s.now().UTC()
			u.VerificationCompletedAt = &now
		}
		u.Roles = addRole(u.Roles, RoleSeller)
		return nil
	})
}

func (s *Service) issue(user *models.User) (*Session, error) {
	token, err := auth.GenerateToken(user.ID, user.TokenVersion, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &Session{User: user, AccessToken: token, ExpiresIn: s.accessTokenValidityDuration}, nil
}

func addRole(roles []string, role string) []string {
	for _, r := range roles {
		if r == role {
			return roles
		}
	}
	return append(roles, role)
}

func removeRole(roles []string, role string) []string {
	out := roles[:0]
	for _, r := range roles {
		if r != role {
			out = append(out, r)
		}
	}
	return out
}
