package identity

import (
	"context"

	"storefront/internal/models"
)

type contextKey string

const identityContextKey = contextKey("identity")

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// FromContext returns the identity stored in ctx, or an anonymous one.
func FromContext(ctx context.Context) models.Identity {
	id, ok := ctx.Value(identityContextKey).(models.Identity)
	if !ok {
		return models.Identity{}
	}
	return id
}
