// internal/auth/token.go
//
// Access-token verification.  Tokens are HS256 JWTs minted by the backend
// with claims id, email, role, and exp.  The portal only verifies them; it
// never issues tokens.

package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

// ErrInvalidToken covers every verification failure.  The wrapped cause is
// for logs only.
var ErrInvalidToken = errors.New("invalid access token")

// Claims mirrors the backend's token payload.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// ParseToken verifies raw with secret and returns the user it names.
func ParseToken(secret []byte, raw string) (User, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.ID == "" {
		return User{}, fmt.Errorf("%w: missing id claim", ErrInvalidToken)
	}
	return User{ID: c.ID, Email: c.Email, Role: c.Role}, nil
}

// SignToken mints a token for u.  Used by tests and local tooling.
func SignToken(secret []byte, u User, claims jwt.RegisteredClaims) (string, error) {
	c := Claims{ID: u.ID, Email: u.Email, Role: u.Role, RegisteredClaims: claims}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}
