// internal/config/model.go
//
// Typed configuration model for the portal.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `conf/.env`                     – dotenv values,
//   • `conf/global.yaml`                       – primary static file,
//   • `PORTAL_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Durations are Go duration strings ("30s", "5m").

package config

import "time"

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ForceHTTPS   bool          `koanf:"force_https"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	// AllowedOrigins lists browser origins permitted by CORS.  Empty
	// disables cross-origin access.
	AllowedOrigins []string `koanf:"allowed_origins" validate:"dive,url"`
}

// Backend points at the external donor/request API.
type Backend struct {
	BaseURL  string        `koanf:"base_url"  validate:"required,url"`
	Timeout  time.Duration `koanf:"timeout"   validate:"gte=0"`
	RetryMax int           `koanf:"retry_max" validate:"gte=0,lte=10"`
}

// Auth holds the shared JWT signing secret.  Usually a vault: reference.
type Auth struct {
	JWTSecret string `koanf:"jwt_secret" validate:"required,min=16"`
}

// Database configures the audit-log pool.  An empty DSN disables auditing.
type Database struct {
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `koanf:"max_idle_conns" validate:"gte=0"`
}

// Donors tunes the donor read cache.
type Donors struct {
	IdleTTL       time.Duration `koanf:"idle_ttl"`
	MaxEntries    int           `koanf:"max_entries"    validate:"gte=0"`
	EvictInterval time.Duration `koanf:"evict_interval"`
}

// Drafts bounds the in-memory form sessions.
type Drafts struct {
	MaxEntries int `koanf:"max_entries" validate:"gte=0"`
}

// Geo points at an optional GeoLite2-City database.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

// Log configures the file logger.
type Log struct {
	Dir   string `koanf:"dir"`
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // PORTAL_ROOT or discovered parent
}

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Backend  Backend  `koanf:"backend"`
	Auth     Auth     `koanf:"auth"`
	Database Database `koanf:"database"`
	Donors   Donors   `koanf:"donors"`
	Drafts   Drafts   `koanf:"drafts"`
	Geo      Geo      `koanf:"geo"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"`
}

// defaults fills zero values that have a sensible fallback.
func (c *Config) defaults() {
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 10 * time.Second
	}
	if c.Donors.IdleTTL == 0 {
		c.Donors.IdleTTL = 5 * time.Minute
	}
	if c.Donors.MaxEntries == 0 {
		c.Donors.MaxEntries = 1000
	}
	if c.Donors.EvictInterval == 0 {
		c.Donors.EvictInterval = time.Minute
	}
	if c.Drafts.MaxEntries == 0 {
		c.Drafts.MaxEntries = 4096
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
