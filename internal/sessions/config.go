package sessions

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config selects and tunes the session store.
type Config struct {
	Store      string `toml:"store"`
	RedisURL   string `toml:"redis_url"`
	TTL        string `toml:"ttl"`
	CookieName string `toml:"cookie_name"`
	Secure     bool   `toml:"secure"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Store      string
	RedisURL   string
	TTL        string
	CookieName string
	Secure     string
}

// TTLDuration returns TTL as a time.Duration.
func (c *Config) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
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

// Merge overwrites non-zero fields from overlay. Secure always applies.
func (c *Config) Merge(overlay *Config) {
	if overlay.Store != "" {
		c.Store = overlay.Store
	}
	if overlay.RedisURL != "" {
		c.RedisURL = overlay.RedisURL
	}
	if overlay.TTL != "" {
		c.TTL = overlay.TTL
	}
	if overlay.CookieName != "" {
		c.CookieName = overlay.CookieName
	}
	c.Secure = overlay.Secure
}

func (c *Config) loadDefaults() {
	if c.Store == "" {
		c.Store = StoreMemory
	}
	if c.TTL == "" {
		c.TTL = "24h"
	}
	if c.CookieName == "" {
		c.CookieName = "setu_session"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Store != "" {
		if v := os.Getenv(env.Store); v != "" {
			c.Store = v
		}
	}
	if env.RedisURL != "" {
		if v := os.Getenv(env.RedisURL); v != "" {
			c.RedisURL = v
		}
	}
	if env.TTL != "" {
		if v := os.Getenv(env.TTL); v != "" {
			c.TTL = v
		}
	}
	if env.CookieName != "" {
		if v := os.Getenv(env.CookieName); v != "" {
			c.CookieName = v
		}
	}
	if env.Secure != "" {
		if v := os.Getenv(env.Secure); v != "" {
			if secure, err := strconv.ParseBool(v); err == nil {
				c.Secure = secure
			}
		}
	}
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("redis_url required when store is %q", StoreRedis)
		}
	default:
		return fmt.Errorf("invalid store %q: want %s or %s", c.Store, StoreMemory, StoreRedis)
	}

	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return fmt.Errorf("invalid ttl: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("ttl must be positive: %s", c.TTL)
	}
	return nil
}
