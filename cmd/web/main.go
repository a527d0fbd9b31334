// cmd/web/main.go
//
// Plasma Pioneers portal – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (install-wide file → .env fallback).
//
//  2. Build a Vault client when VAULT_ADDR is set, so config values of the
//     form vault:<path>#<key> can be resolved.
//
//  3. Load and validate configuration.
//
//  4. Start the daily rotating logger (tees to console in a TTY).
//
//  5. Open the optional GeoIP database and the optional audit DB.
//
//  6. Build shared services: backend client, donor cache, notification
//     feed, draft store, and ACL policy.
//
//  7. Boot components, apply their migrations, and mount their routes
//     under /api behind JWT authentication.
//
//  8. Serve until SIGINT or SIGTERM, then drain in-flight requests.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plasmapioneers/portal/internal/acl"
	"github.com/plasmapioneers/portal/internal/auth"
	"github.com/plasmapioneers/portal/internal/backend"
	"github.com/plasmapioneers/portal/internal/component"
	"github.com/plasmapioneers/portal/internal/config"
	"github.com/plasmapioneers/portal/internal/database"
	"github.com/plasmapioneers/portal/internal/donor"
	"github.com/plasmapioneers/portal/internal/logger"
	"github.com/plasmapioneers/portal/internal/middleware"
	"github.com/plasmapioneers/portal/internal/notify"
	"github.com/plasmapioneers/portal/internal/request"
	"github.com/plasmapioneers/portal/internal/requestinfo"
	"github.com/plasmapioneers/portal/internal/server"
	"github.com/plasmapioneers/portal/internal/vault"

	_ "github.com/plasmapioneers/portal/components/dashboard"
	_ "github.com/plasmapioneers/portal/components/donors"
	_ "github.com/plasmapioneers/portal/components/request"
)

const (
	serverEnvPath = "/usr/local/etc/plasma-portal/global.env"

	// feedUsers and feedDepth bound the notification history.
	feedUsers = 10000
	feedDepth = 20

	shutdownGrace = 20 * time.Second
)

// loadEnv prefers the install-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Secrets and configuration ──────────────────────────────────
	//
	var secrets config.SecretResolver
	var vc *vault.Client
	if os.Getenv("VAULT_ADDR") != "" {
		var err error
		vc, err = vault.New(vault.Options{Log: log.Printf})
		if err != nil {
			log.Fatalf("vault: %v", err)
		}
		secrets = vc
	}
	cfg, err := config.Load(ctx, secrets)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	//
	// ── 2.  Logger ─────────────────────────────────────────────────────
	//
	logDir := cfg.Log.Dir
	if logDir == "" {
		logDir = filepath.Join(cfg.Paths.Root, "logs")
	}
	logOut, err := logger.New(logger.Options{Dir: logDir, Level: cfg.Log.Level, Tee: runningInTTY()})
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer logOut.Sync()

	if vc != nil {
		go vc.RenewLoop(ctx)
	}

	//
	// ── 3.  Optional stores ────────────────────────────────────────────
	//
	if err := requestinfo.InitGeo(cfg.Geo.DBPath); err != nil {
		logOut.Warnw("geoip disabled", "path", cfg.Geo.DBPath, "err", err)
	}
	defer requestinfo.CloseGeo()

	var db *sqlx.DB
	if cfg.Database.DSN != "" {
		opts := database.DefaultOptions
		if cfg.Database.MaxOpenConns > 0 {
			opts.MaxOpenConns = cfg.Database.MaxOpenConns
		}
		if cfg.Database.MaxIdleConns > 0 {
			opts.MaxIdleConns = cfg.Database.MaxIdleConns
		}
		db, err = database.OpenWithOptions(ctx, cfg.Database.DSN, opts)
		if err != nil {
			logOut.Fatalw("connect audit DB", "err", err)
		}
		defer db.Close()
		logOut.Info("audit DB online")
	} else {
		logOut.Info("audit DB not configured; submit attempts are not recorded")
	}

	//
	// ── 4.  Shared services ────────────────────────────────────────────
	//
	bc, err := backend.New(backend.Options{
		BaseURL:  cfg.Backend.BaseURL,
		Timeout:  cfg.Backend.Timeout,
		RetryMax: cfg.Backend.RetryMax,
		Log:      logOut.Named("backend"),
	})
	if err != nil {
		logOut.Fatalw("backend client", "err", err)
	}

	donors := donor.New(bc, donor.Options{
		IdleTTL:       cfg.Donors.IdleTTL,
		MaxEntries:    cfg.Donors.MaxEntries,
		EvictInterval: cfg.Donors.EvictInterval,
		Log:           logOut.Named("donors"),
	})
	defer donors.Close()

	var audit *request.AuditLog
	if db != nil {
		audit = request.NewAuditLog(db)
	}
	feed := notify.NewFeed(feedUsers, feedDepth)
	deps := request.Deps{Reader: donors, Writer: bc, Log: logOut.Named("request")}
	if audit != nil {
		deps.Audit = audit
	}
	drafts := request.NewDrafts(cfg.Drafts.MaxEntries, deps, feed)

	svc := &component.Bundle{
		Config:  cfg,
		DB:      db,
		Backend: bc,
		Donors:  donors,
		Drafts:  drafts,
		Feed:    feed,
		Audit:   audit,
		Policy:  acl.DefaultPolicy,
	}

	//
	// ── 5.  Components ─────────────────────────────────────────────────
	//
	stmts, err := component.Boot(svc)
	if err != nil {
		logOut.Fatalw("boot components", "err", err)
	}
	if db != nil {
		if err := database.Migrate(ctx, db, stmts); err != nil {
			logOut.Fatalw("migrate", "err", err)
		}
	}

	//
	// ── 6.  Router ─────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestinfo.Enrich)
	r.Use(middleware.AccessLog(logOut))
	r.Use(middleware.Security)
	r.Use(middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS))
	r.Use(middleware.CORS(cfg.HTTP.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Authenticate([]byte(cfg.Auth.JWTSecret)))
		component.Mount(r)
	})

	//
	// ── 7.  Serve ──────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP, r)
	errCh := make(chan error, 1)
	go func() {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr, "components", len(component.All()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logOut.Errorw("http server", "err", err)
		}
	case <-ctx.Done():
		logOut.Info("shutdown requested")
	}

	shCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logOut.Errorw("graceful shutdown", "err", err)
	}
	logOut.Info("portal stopped")
}
