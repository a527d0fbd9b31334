// internal/auth/middleware.go
//
// Chi middleware that authenticates API calls.

package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/plasmapioneers/portal/internal/logger"
)

// Authenticate verifies the Authorization header.  Both “<token>” and
// “Bearer <token>” are accepted because the frontend sends the bare token.
// On success the user and raw token are placed in the request context.
func Authenticate(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearer(r.Header.Get("Authorization"))
			if raw == "" {
				unauthorized(w, "missing access token")
				return
			}
			u, err := ParseToken(secret, raw)
			if err != nil {
				logger.FromContext(r.Context()).Debugw("token rejected", "err", err)
				unauthorized(w, "invalid access token")
				return
			}
			ctx := WithToken(WithUser(r.Context(), u), raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearer(h string) string {
	h = strings.TrimSpace(h)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return h
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
