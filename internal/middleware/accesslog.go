// internal/middleware/accesslog.go
//
// Request-scoped logging.
//
// AccessLog attaches a child logger carrying the chi request id to the
// context, so every log line emitted while serving the request can be
// correlated, and writes one INFO line when the response is done.
//
// Notes
// -----
// • Mount after chi's RequestID and requestinfo.Enrich so both fields are
//   available.
// • /healthz and /metrics are logged at DEBUG to keep scrapes out of the
//   file.

package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/plasmapioneers/portal/internal/logger"
	"github.com/plasmapioneers/portal/internal/requestinfo"
)

// AccessLog returns the access-log middleware writing through base.
func AccessLog(base *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			l := base.With("req_id", chimw.GetReqID(r.Context()))
			ctx := logger.WithContext(r.Context(), l)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"dur", time.Since(start),
			}
			if info := requestinfo.FromContext(r.Context()); info != nil {
				fields = append(fields, "device", info.UA.Device, "ip", info.Geo.IP)
			}

			switch {
			case r.URL.Path == "/healthz" || r.URL.Path == "/metrics":
				l.Debugw("request", fields...)
			case status >= 500:
				l.Warnw("request", fields...)
			default:
				l.Infow("request", fields...)
			}
		})
	}
}
