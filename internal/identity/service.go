// Package identity registers users, checks credentials, binds sessions and
// issues signed tokens. Every other component receives the resulting
// models.Identity explicitly.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/models"
	"storefront/internal/repository"
)

// NoRole disables the role check in Authorize.
const NoRole = 0

type Registration struct {
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type LoginResult struct {
	User      models.User
	Identity  models.Identity
	Session   string
	Token     string
	ExpiresAt time.Time
}

type Service struct {
	users    *repository.UserRepository
	hasher   *Hasher
	tokens   *TokenIssuer
	sessions Sessions
	log      *logrus.Entry
	now      func() time.Time
}

func NewService(users *repository.UserRepository, hasher *Hasher, tokens *TokenIssuer, sessions Sessions, log *logrus.Entry) *Service {
	return &Service{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		sessions: sessions,
		log:      log,
		now:      time.Now,
	}
}

// Register validates the request before touching storage, then stores the
// new customer with a bcrypt digest of the password.
func (s *Service) Register(ctx context.Context, r Registration) (models.User, error) {
	if r.Password != r.ConfirmPassword {
		return models.User{}, models.ValidationError("passwords do not match")
	}
	if !ValidPhone(r.Phone) {
		return models.User{}, models.ValidationError("invalid phone number")
	}

	exists, err := s.users.Exists(ctx, r.Email, r.Phone)
	if err != nil {
		return models.User{}, err
	}
	if exists {
		return models.User{}, models.Conflict(models.ErrDuplicate, "a user with this email or phone number is already registered")
	}

	hash, err := s.hasher.Hash(r.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return models.User{}, models.ValidationError("password is too long")
		}
		return models.User{}, err
	}

	now := s.now().UTC()
	user, err := s.users.Insert(ctx, models.User{
		Phone:        r.Phone,
		Email:        r.Email,
		PasswordHash: hash,
		RoleID:       models.RoleCustomer,
		RegisteredAt: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		return models.User{}, err
	}

	s.log.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

func invalidCredentials() error {
	return models.Unauthorized("invalid credentials")
}

// Login never tells an unknown email apart from a wrong password, neither in
// the error nor in the time taken.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.users.ByEmail(ctx, email)
	if errors.Is(err, models.ErrNoRecord) {
		s.hasher.VerifyNothing(password)
		s.log.Warn("login failed")
		return LoginResult{}, invalidCredentials()
	}
	if err != nil {
		return LoginResult{}, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.WithField("user_id", user.ID).Warn("login failed")
		return LoginResult{}, invalidCredentials()
	}

	roleName, err := s.users.RoleName(ctx, user.RoleID)
	if err != nil {
		return LoginResult{}, err
	}

	id := models.Identity{UserID: user.ID, RoleID: user.RoleID, Authenticated: true}
	session, err := s.sessions.Bind(ctx, id)
	if err != nil {
		return LoginResult{}, err
	}
	token, expires, err := s.tokens.Issue(user, roleName)
	if err != nil {
		return LoginResult{}, err
	}
	id.Token = token

	s.log.WithField("user_id", user.ID).Info("user logged in")
	return LoginResult{
		User:      user,
		Identity:  id,
		Session:   session,
		Token:     token,
		ExpiresAt: expires,
	}, nil
}

func (s *Service) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}

func (s *Service) Profile(ctx context.Context, id models.Identity) (models.Profile, error) {
	if !id.Authenticated {
		return models.Profile{}, models.Unauthorized("authentication required")
	}
	u, err := s.users.Get(ctx, id.UserID)
	if err != nil {
		return models.Profile{}, err
	}
	return u.Profile(), nil
}

// IdentityFromToken verifies a bearer token.
func (s *Service) IdentityFromToken(raw string) (models.Identity, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		s.log.WithError(err).Debug("token rejected")
		return models.Identity{}, models.Unauthorized("invalid or expired token")
	}
	id, err := claims.Identity(raw)
	if err != nil {
		return models.Identity{}, models.Unauthorized("invalid or expired token")
	}
	return id, nil
}

func (s *Service) IdentityFromSession(ctx context.Context) models.Identity {
	return s.sessions.Load(ctx)
}

// Authorize reports whether id is authenticated and, unless requiredRole is
// NoRole, holds that role.
func Authorize(id models.Identity, requiredRole int) bool {
	return id.Authenticated && (requiredRole == NoRole || id.RoleID == requiredRole)
}

// RequireRole is Authorize with a tagged error explaining the refusal.
func RequireRole(id models.Identity, requiredRole int) error {
	if !id.Authenticated {
		return models.Unauthorized("authentication required")
	}
	if !Authorize(id, requiredRole) {
		return models.Forbidden("insufficient role")
	}
	return nil
}
