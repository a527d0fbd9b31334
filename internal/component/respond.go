package component

import (
	"encoding/json"
	"net/http"

	"github.com/plasmapioneers/portal/internal/logger"
)

// WriteJSON writes v with status.  Encoding errors are logged; the status
// line has already gone out by then.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Warnw("encode response", "err", err)
	}
}

// WriteError writes {"error": msg}.
func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	WriteJSON(w, r, status, map[string]string{"error": msg})
}
