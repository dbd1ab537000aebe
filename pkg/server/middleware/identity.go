// Package middleware holds the HTTP middleware: token authentication,
// route permission enforcement and per-client rate limiting.
package middleware

import "context"

type contextKey int

const identityKey contextKey = iota

// Identity is the authenticated caller, extracted from a verified
// access token.
type Identity struct {
	UserID      string
	Username    string
	Role        string
	Permissions []string
}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity stored in the context, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
