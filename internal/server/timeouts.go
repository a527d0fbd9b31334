// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts.
//
// Production hardening recommends:
//
//   • ReadTimeout   – abort slow-loris headers (default 10 s)
//   • WriteTimeout  – cap total response time (default 15 s)
//   • IdleTimeout   – close keep-alives on idle clients (default 60 s)
//
// The values come from config.HTTP; Load fills the defaults.  Backend calls
// made while serving a submit must finish inside WriteTimeout, so keep
// backend.timeout below it.

package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/plasmapioneers/portal/internal/config"
)

// New constructs an *http.Server from the HTTP config section.
func New(cfg config.HTTP, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ErrorLog:     zap.NewStdLog(zap.L().Named("http")),
	}
}
