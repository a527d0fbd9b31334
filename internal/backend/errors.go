package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned by single-record reads on HTTP 404.
var ErrNotFound = errors.New("backend: not found")

// APIError is a non-2xx reply from the backend.  Message is the envelope's
// message when the body parsed, else the status text.
type APIError struct {
	Op      string
	Status  int
	Message string
}

// IsAuthError reports whether err is a 401 or 403 reply.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend %s: %d %s", e.Op, e.Status, e.Message)
}
