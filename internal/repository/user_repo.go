package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/models"
)

// UserRepository translates user storage results into tagged errors.
type UserRepository struct {
	Users models.UserStore
	Roles models.RoleStore
}

// Insert stores u with the given password hash. Storage uniqueness is the
// authority on duplicates, whatever pre-check the caller did.
func (m *UserRepository) Insert(ctx context.Context, u models.User) (models.User, error) {
	if u.RegisteredAt.IsZero() {
		u.RegisteredAt = time.Now().UTC().Truncate(24 * time.Hour)
	}

	id, err := m.Users.InsertUser(ctx, u)
	if err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return models.User{}, models.Conflict(err, "a user with this email or phone number is already registered")
		}
		return models.User{}, err
	}
	u.ID = id
	return u, nil
}

// Exists reports whether email or phone is already taken. An empty email is
// never matched.
func (m *UserRepository) Exists(ctx context.Context, email, phone string) (bool, error) {
	return m.Users.UserExists(ctx, email, phone)
}

// ByEmail returns models.ErrNoRecord untranslated so callers can fold it into
// their own outcome.
func (m *UserRepository) ByEmail(ctx context.Context, email string) (models.User, error) {
	return m.Users.GetUserByEmail(ctx, email)
}

func (m *UserRepository) Get(ctx context.Context, id int64) (models.User, error) {
	u, err := m.Users.GetUser(ctx, id)
	if errors.Is(err, models.ErrNoRecord) {
		return models.User{}, models.NotFound("user not found")
	}
	return u, err
}

func (m *UserRepository) RoleName(ctx context.Context, roleID int) (string, error) {
	r, err := m.Roles.GetRole(ctx, roleID)
	if errors.Is(err, models.ErrNoRecord) {
		return "", models.NotFound("role %d not found", roleID)
	}
	return r.Name, err
}

func (m *UserRepository) Count(ctx context.Context) (int64, error) {
	return m.Users.CountUsers(ctx)
}
