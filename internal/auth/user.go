// Package auth carries the authenticated user attached to a request by the route handlers.
//
// The server core does not authenticate anyone: it only defines where the user lives
// (the request context) and what it looks like, so handlers agree on a single closed type.
package auth

import "context"

// User is the authenticated principal for a request.
type User struct {
	// Subject uniquely identifies the user within the authentication provider.
	Subject string

	// Roles granted to the user. Interpretation is left to the handlers.
	Roles []string
}

// HasRole reports whether the user was granted role.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type contextKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// UserFromContext returns the user attached to ctx. ok is false when the request is anonymous.
func UserFromContext(ctx context.Context) (u User, ok bool) {
	u, ok = ctx.Value(contextKey{}).(User)
	return u, ok
}
