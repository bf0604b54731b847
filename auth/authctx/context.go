// Package authctx propagates the authenticated principal through
// request contexts. Middleware stores the principal once; handlers
// retrieve it without threading it through every signature.
package authctx

import (
	"context"
	"errors"

	"github.com/cataloghq/idkit/authz"
)

// contextKey is an unexported type to prevent collisions with other
// packages.
type contextKey struct{}

var principalKey = contextKey{}

// ErrNoPrincipal is returned when no principal is stored in the context.
var ErrNoPrincipal = errors.New("authctx: no principal in context")

// Set stores the authenticated principal in the context.
func Set(ctx context.Context, actx *authz.AuthContext) context.Context {
	return context.WithValue(ctx, principalKey, actx)
}

// Get retrieves the principal from the context.
func Get(ctx context.Context) (*authz.AuthContext, bool) {
	actx, ok := ctx.Value(principalKey).(*authz.AuthContext)
	return actx, ok
}

// MustGet retrieves the principal and panics if it is missing. Use in
// handlers where authentication middleware guarantees it exists.
func MustGet(ctx context.Context) *authz.AuthContext {
	actx, ok := Get(ctx)
	if !ok {
		panic("authctx: no principal in context")
	}
	return actx
}

// GetOrError retrieves the principal, returning ErrNoPrincipal when it
// is missing.
func GetOrError(ctx context.Context) (*authz.AuthContext, error) {
	actx, ok := Get(ctx)
	if !ok {
		return nil, ErrNoPrincipal
	}
	return actx, nil
}
