package backend

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"time"
)

// Periods lists the trend bucket sizes the emissions backend understands.
var Periods = []string{"day", "week", "month", "year"}

// Config holds connection parameters for the external emissions backend.
type Config struct {
	BaseURL     string `toml:"base_url"`
	Timeout     string `toml:"timeout"`
	TrendPeriod string `toml:"trend_period"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL     string
	Timeout     string
	TrendPeriod string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.TrendPeriod != "" {
		c.TrendPeriod = overlay.TrendPeriod
	}
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8000"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.TrendPeriod == "" {
		c.TrendPeriod = "month"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.TrendPeriod != "" {
		if v := os.Getenv(env.TrendPeriod); v != "" {
			c.TrendPeriod = v
		}
	}
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base_url scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url host required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if !slices.Contains(Periods, c.TrendPeriod) {
		return fmt.Errorf("invalid trend_period: %q", c.TrendPeriod)
	}
	return nil
}
