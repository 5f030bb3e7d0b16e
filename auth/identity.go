package auth

import (
	"context"
	"slices"
	"time"
)

// Identity represents an authenticated operator.
type Identity struct {
	// Principal is the token subject.
	Principal string

	// Roles are read from the "roles" claim.
	Roles []string

	// ExpiresAt is the token expiry.
	ExpiresAt time.Time
}

// HasRole checks if the identity has a specific role.
func (id *Identity) HasRole(role string) bool {
	return slices.Contains(id.Roles, role)
}

type contextKey struct{}

// WithIdentity returns a new context with the given identity attached.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext retrieves the identity from the context.
// Returns nil if no identity is present.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(contextKey{}).(*Identity)
	return id
}
