// Package config loads server configuration: defaults, then an optional YAML
// file, then SPINBET_* environment variables.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ConfigPathEnv names the variable holding the YAML file path.
const ConfigPathEnv = "SPINBET_CONFIG_PATH"

// Session store kinds.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

const keySize = 32

// Config defines server configuration.
type Config struct {
	Env       string          `yaml:"env" env:"SPINBET_ENV"`
	Addr      string          `yaml:"addr" env:"SPINBET_ADDR"`
	API       APIConfig       `yaml:"api"`
	Session   SessionConfig   `yaml:"session"`
	Security  SecurityConfig  `yaml:"security"`
	Log       LogConfig       `yaml:"log"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	OTel      OTelConfig      `yaml:"otel"`
	Perf      PerfConfig      `yaml:"perf"`

	sessionKey []byte
	csrfKey    []byte
	keysRandom bool
}

type APIConfig struct {
	URL     string        `yaml:"url" env:"SPINBET_API_URL"`
	Timeout time.Duration `yaml:"timeout" env:"SPINBET_API_TIMEOUT"` // 0 = no client timeout
}

type SessionConfig struct {
	Store     string        `yaml:"store" env:"SPINBET_SESSION_STORE"`
	DBPath    string        `yaml:"db_path" env:"SPINBET_SESSION_DB"`
	TTL       time.Duration `yaml:"ttl" env:"SPINBET_SESSION_TTL"`
	LoginPath string        `yaml:"login_path" env:"SPINBET_LOGIN_PATH"`
}

type SecurityConfig struct {
	SessionKey     string   `yaml:"session_key" env:"SPINBET_SESSION_KEY"` // 64 hex chars
	CSRFKey        string   `yaml:"csrf_key" env:"SPINBET_CSRF_KEY"`       // 64 hex chars
	TrustedOrigins []string `yaml:"trusted_origins" env:"SPINBET_TRUSTED_ORIGINS" envSeparator:","`
	RateLimit      int      `yaml:"rate_limit" env:"SPINBET_RATE_LIMIT"` // requests per minute per IP
}

type LogConfig struct {
	Level  string `yaml:"level" env:"SPINBET_LOG_LEVEL"`
	Format string `yaml:"format" env:"SPINBET_LOG_FORMAT"` // text or json
}

type DashboardConfig struct {
	Intro string `yaml:"intro" env:"SPINBET_DASHBOARD_INTRO"` // markdown
}

type OTelConfig struct {
	Enabled     bool   `yaml:"enabled" env:"SPINBET_OTEL_ENABLED"`
	Endpoint    string `yaml:"endpoint" env:"SPINBET_OTEL_ENDPOINT"` // OTLP/HTTP collector URL
	ServiceName string `yaml:"service_name" env:"SPINBET_OTEL_SERVICE_NAME"`
}

type PerfConfig struct {
	SlowRequestMs  int `yaml:"slow_request_ms" env:"SPINBET_SLOW_REQUEST_MS"`
	SlowQueryMs    int `yaml:"slow_query_ms" env:"SPINBET_SLOW_QUERY_MS"`
	SlowUpstreamMs int `yaml:"slow_upstream_ms" env:"SPINBET_SLOW_UPSTREAM_MS"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Env:  "development",
		Addr: ":8080",
		API: APIConfig{
			URL: "http://localhost:5000",
		},
		Session: SessionConfig{
			Store:     StoreSQLite,
			DBPath:    "spinbet.db",
			TTL:       24 * time.Hour,
			LoginPath: "/login",
		},
		Security: SecurityConfig{
			TrustedOrigins: []string{"localhost:8080", "127.0.0.1:8080"},
			RateLimit:      120,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Dashboard: DashboardConfig{
			Intro: "Lorem ipsum dolor sit amet, consectetur adipiscing elit.",
		},
		OTel: OTelConfig{
			ServiceName: "spinbet-frontend",
		},
		Perf: PerfConfig{
			SlowRequestMs:  200,
			SlowQueryMs:    50,
			SlowUpstreamMs: 500,
		},
	}
}

// Load reads configuration using the file named by SPINBET_CONFIG_PATH, if any.
func Load() (Config, error) {
	return LoadFrom(os.Getenv(ConfigPathEnv))
}

// LoadFrom reads configuration from an optional YAML file and environment variables.
// PRE: path is empty or names a readable YAML file
// POST: Returns a validated config with session and CSRF keys resolved
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if err := cfg.resolveKeys(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// SessionKey returns the 32-byte key that seals tokens at rest.
func (c Config) SessionKey() []byte { return c.sessionKey }

// CSRFKey returns the 32-byte CSRF authentication key.
func (c Config) CSRFKey() []byte { return c.csrfKey }

// KeysGenerated reports whether at least one key was generated for this process only.
func (c Config) KeysGenerated() bool { return c.keysRandom }

func (c *Config) validate() error {
	var errs []error

	u, err := url.Parse(c.API.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("SPINBET_API_URL %q must be an absolute http(s) URL", c.API.URL))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, errors.New("SPINBET_API_TIMEOUT must not be negative"))
	}
	if c.Session.Store != StoreSQLite && c.Session.Store != StoreMemory {
		errs = append(errs, fmt.Errorf("SPINBET_SESSION_STORE %q must be %q or %q", c.Session.Store, StoreSQLite, StoreMemory))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SPINBET_SESSION_TTL must be positive"))
	}
	if !strings.HasPrefix(c.Session.LoginPath, "/") {
		errs = append(errs, fmt.Errorf("SPINBET_LOGIN_PATH %q must start with /", c.Session.LoginPath))
	}
	if c.Security.RateLimit <= 0 {
		errs = append(errs, errors.New("SPINBET_RATE_LIMIT must be positive"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("SPINBET_LOG_FORMAT %q must be text or json", c.Log.Format))
	}
	if c.OTel.Enabled && c.OTel.Endpoint == "" {
		errs = append(errs, errors.New("SPINBET_OTEL_ENDPOINT is required when tracing is enabled"))
	}
	return errors.Join(errs...)
}

// resolveKeys decodes the configured keys. Outside production a missing key is
// generated per process, which invalidates sessions and forms on restart.
func (c *Config) resolveKeys() error {
	var err error
	if c.sessionKey, err = c.resolveKey("SPINBET_SESSION_KEY", c.Security.SessionKey); err != nil {
		return err
	}
	c.csrfKey, err = c.resolveKey("SPINBET_CSRF_KEY", c.Security.CSRFKey)
	return err
}

func (c *Config) resolveKey(name, value string) ([]byte, error) {
	if value == "" {
		if c.IsProduction() {
			return nil, fmt.Errorf("%s is required in production", name)
		}
		key := make([]byte, keySize)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate %s: %w", name, err)
		}
		c.keysRandom = true
		return key, nil
	}
	key, err := hex.DecodeString(value)
	if err != nil || len(key) != keySize {
		return nil, fmt.Errorf("%s must be %d hex-encoded bytes", name, keySize)
	}
	return key, nil
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("SPINBET_LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}
