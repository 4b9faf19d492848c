package identity

import (
	"context"

	"github.com/alexedwards/scs/v2"

	"storefront/internal/models"
)

const (
	sessionUserKey = "authenticatedUserID"
	sessionRoleKey = "userRole"
	sessionAuthKey = "isAuthenticated"
)

// Sessions binds identities to server-side sessions. The session itself
// travels in ctx, loaded by the session manager's middleware.
type Sessions interface {
	Bind(ctx context.Context, id models.Identity) (string, error)
	Clear(ctx context.Context) error
	Load(ctx context.Context) models.Identity
}

// ScsSessions stores the identity binding in an scs session.
type ScsSessions struct {
	Manager *scs.SessionManager
}

// Bind rotates the session token to prevent fixation and records the
// identity. It returns the new session token.
func (s ScsSessions) Bind(ctx context.Context, id models.Identity) (string, error) {
	if err := s.Manager.RenewToken(ctx); err != nil {
		return "", err
	}
	s.Manager.Put(ctx, sessionUserKey, id.UserID)
	s.Manager.Put(ctx, sessionRoleKey, id.RoleID)
	s.Manager.Put(ctx, sessionAuthKey, true)
	return s.Manager.Token(ctx), nil
}

func (s ScsSessions) Clear(ctx context.Context) error {
	return s.Manager.Destroy(ctx)
}

func (s ScsSessions) Load(ctx context.Context) models.Identity {
	if !s.Manager.GetBool(ctx, sessionAuthKey) {
		return models.Identity{}
	}
	userID := s.Manager.GetInt64(ctx, sessionUserKey)
	if userID == 0 {
		return models.Identity{}
	}
	return models.Identity{
		UserID:        userID,
		RoleID:        s.Manager.GetInt(ctx, sessionRoleKey),
		Authenticated: true,
	}
}
