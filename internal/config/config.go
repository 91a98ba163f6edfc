package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/setu/internal/sessions"
	"github.com/JaimeStill/setu/pkg/backend"
	"github.com/JaimeStill/setu/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvSetuEnv             = "SETU_ENV"
	EnvSetuShutdownTimeout = "SETU_SHUTDOWN_TIMEOUT"
	EnvSetuVersion         = "SETU_VERSION"
)

var backendEnv = &backend.Env{
	BaseURL:     "SETU_BACKEND_BASE_URL",
	Timeout:     "SETU_BACKEND_TIMEOUT",
	TrendPeriod: "SETU_BACKEND_TREND_PERIOD",
}

var sessionsEnv = &sessions.Env{
	Store:      "SETU_SESSIONS_STORE",
	RedisURL:   "SETU_SESSIONS_REDIS_URL",
	TTL:        "SETU_SESSIONS_TTL",
	CookieName: "SETU_SESSIONS_COOKIE_NAME",
	Secure:     "SETU_SESSIONS_SECURE",
}

var storageEnv = &storage.Env{
	ContainerName:    "SETU_STORAGE_CONTAINER_NAME",
	ConnectionString: "SETU_STORAGE_CONNECTION_STRING",
	MaxListSize:      "SETU_STORAGE_MAX_LIST_SIZE",
}

// Config is the root configuration for the setu service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Backend         backend.Config  `toml:"backend"`
	Sessions        sessions.Config `toml:"sessions"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Web             WebConfig       `toml:"web"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the SETU_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvSetuEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Backend.Merge(&overlay.Backend)
	c.Sessions.Merge(&overlay.Sessions)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Web.Merge(&overlay.Web)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Backend.Finalize(backendEnv); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if err := c.Sessions.Finalize(sessionsEnv); err != nil {
		return fmt.Errorf("sessions: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Web.Finalize(); err != nil {
		return fmt.Errorf("web: %w", err)
	}
	if w, b := c.Server.WriteTimeoutDuration(), c.Backend.TimeoutDuration(); w <= b {
		return fmt.Errorf("server write_timeout %s must exceed backend timeout %s", w, b)
	}
	if c.API.BasePath == c.Web.BasePath {
		return fmt.Errorf("api and web base_path must differ: both %q", c.API.BasePath)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvSetuShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvSetuVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvSetuEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
