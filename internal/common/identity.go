package common

import (
	"context"
	"slices"
)

// Identity is the request-scoped authenticated principal. It is attached to
// the request context by the bearer-token middleware after a session token
// has been validated and its subject resolved against the user store.
// A nil Identity means the request is anonymous.
type Identity struct {
	Username string
	Roles    []string
}

// HasRole reports whether the identity carries the given role.
func (id *Identity) HasRole(role string) bool {
	if id == nil {
		return false
	}
	return slices.Contains(id.Roles, role)
}

type contextKey int

const identityKey contextKey = iota

// WithIdentity stores an Identity in the request context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the Identity from context, or nil if the
// request is anonymous.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// ResolveUsername returns the authenticated username from context, or ""
// when the request is anonymous.
func ResolveUsername(ctx context.Context) string {
	if id := IdentityFromContext(ctx); id != nil {
		return id.Username
	}
	return ""
}
