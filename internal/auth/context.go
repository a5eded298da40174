// ABOUTME: Authentication context carrying tenant and user identity through requests.
// ABOUTME: Provides WithAuth/FromContext for propagating auth info via context.

package auth

import (
	"context"
)

// AuthContext holds the authenticated identity extracted from a request.
// TenantID is the isolation boundary: tools, calls, and registry entries
// must never cross it.
type AuthContext struct {
	TenantID string
	UserID   string
}

// authContextKey is the key type for storing AuthContext in context.Context.
type authContextKey struct{}

// WithAuth returns a new context with the AuthContext attached.
func WithAuth(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

// FromContext retrieves the AuthContext from the context, returning nil if
// not present.
func FromContext(ctx context.Context) *AuthContext {
	val := ctx.Value(authContextKey{})
	if val == nil {
		return nil
	}
	auth, ok := val.(*AuthContext)
	if !ok {
		return nil
	}
	return auth
}
