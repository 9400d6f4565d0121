// internal/config/model.go
//
// Typed configuration model for Gatehouse.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `conf/.env`                        – dotenv values,
//   • `conf/gatehouse.yaml`                       – primary static file,
//   • `GATEHOUSE_`-prefixed environment overrides – highest precedence.
//
// A `database.password` beginning with `vault:` is a Vault reference; the
// composition root resolves it before opening the pool, so the model only
// ever carries the reference string.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
//
// TrustedProxies lists the CIDRs (or single addresses) allowed to set
// X-Forwarded-For.  Empty means the TCP peer is always the client.
type HTTP struct {
	ListenAddr     string        `koanf:"listen_addr"     validate:"required,hostname_port"`
	ForceHTTPS     bool          `koanf:"force_https"`
	ReadTimeout    time.Duration `koanf:"read_timeout"    validate:"gte=0"`
	WriteTimeout   time.Duration `koanf:"write_timeout"   validate:"gte=0"`
	IdleTimeout    time.Duration `koanf:"idle_timeout"    validate:"gte=0"`
	TrustedProxies []string      `koanf:"trusted_proxies" validate:"dive,cidr|ip"`
}

//
// Auth section
//

// Auth points at the external authentication service.
//
// RequestTimeout is zero by default: the service owns timeout policy, and a
// hung call leaves the submitting form pending until the browser gives up.
type Auth struct {
	BaseURL        string        `koanf:"base_url"        validate:"required,url"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gte=0"`
	LookupRetries  int           `koanf:"lookup_retries"  validate:"gte=0,lte=10"`
}

//
// Database section
//

// Database describes the single process-wide pool.  DSN is a MySQL DSN
// without a password; Password is injected at open time (plain or a
// `vault:` reference).
type Database struct {
	DSN          string `koanf:"dsn"`
	Password     string `koanf:"password"`
	MaxOpenConns int    `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `koanf:"max_idle_conns" validate:"gte=0"`
}

//
// Audit section
//

// Audit toggles the auth_event trail.  Requires Database.DSN.  GeoIPDB is
// an optional MaxMind database used to add a country to each event.
type Audit struct {
	Enabled bool   `koanf:"enabled"`
	GeoIPDB string `koanf:"geoip_db"`
}

//
// Forms section
//

// Forms optionally replaces the embedded form definitions with YAML files
// from Dir.
type Forms struct {
	Dir             string `koanf:"dir"`
	TrackerCapacity int    `koanf:"tracker_capacity" validate:"gte=0"`
}

//
// Log section
//

// Log controls the rotating file logger.
type Log struct {
	Dir   string `koanf:"dir"`
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // GATEHOUSE_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Auth     Auth     `koanf:"auth"`
	Database Database `koanf:"database"`
	Audit    Audit    `koanf:"audit"`
	Forms    Forms    `koanf:"forms"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"`
}
