package api

import (
	"context"
	"time"

	"github.com/odontoforense/case-api/models"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

type identityKey struct{}

// WithQueryTimeout creates a context with query timeout. A WebSocket handler has no
// request deadline of its own, so every persistence call goes through here.
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

// WithIdentity returns a copy of ctx carrying the identity
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom returns the identity stored by Middleware
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(models.Identity)
	return identity, ok
}
