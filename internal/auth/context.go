// internal/auth/context.go
//
// Request-scoped identity helpers.
//
// Usage
// -----
//     // Attach the authenticated user (done by Authenticate).
//     ctx = auth.WithUser(ctx, auth.User{ID: "u1", Role: auth.RoleUser})
//
//     // Downstream code retrieves it.
//     u, ok := auth.UserFrom(ctx)
//
// Notes
// -----
// • The raw bearer token rides along so backend calls can forward it.
// • Oxford commas, two spaces after periods.

package auth

import "context"

// Role names issued by the backend.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User is the identity carried by a verified token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// userKey and tokenKey are unexported to avoid context-key collisions.
type (
	userKey  struct{}
	tokenKey struct{}
)

// WithUser returns a new context carrying u.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom extracts the user from ctx.  It returns (User{}, false) if none
// is set.
func UserFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey{}).(User)
	return u, ok
}

// WithToken stores the raw access token.
func WithToken(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, tokenKey{}, raw)
}

// TokenFrom returns the raw access token or "".
func TokenFrom(ctx context.Context) string {
	s, _ := ctx.Value(tokenKey{}).(string)
	return s
}
