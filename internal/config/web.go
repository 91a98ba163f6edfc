package config

import (
	"fmt"
	"os"
	"strings"
)

// WebConfig holds settings for the server-rendered pages.
type WebConfig struct {
	BasePath string `toml:"base_path"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *WebConfig) Finalize() error {
	if c.BasePath == "" {
		c.BasePath = "/app"
	}
	if v := os.Getenv("SETU_WEB_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	return validateBasePath(c.BasePath)
}

// Merge overwrites non-zero fields from overlay.
func (c *WebConfig) Merge(overlay *WebConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
}

// validateBasePath requires a single-level prefix such as "/api", the
// form modules can be mounted under.
func validateBasePath(p string) error {
	if !strings.HasPrefix(p, "/") || len(p) < 2 || strings.Contains(p[1:], "/") {
		return fmt.Errorf("invalid base_path %q: must be a single-level path like /api", p)
	}
	return nil
}
