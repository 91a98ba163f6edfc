package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/setu/pkg/formatting"
	"github.com/JaimeStill/setu/pkg/middleware"
)

// DefaultMaxUploadSize bounds CSV log uploads when max_upload_size is unset or invalid.
const DefaultMaxUploadSize int64 = 5 * 1000 * 1000

var corsEnv = &middleware.CORSEnv{
	Enabled:          "SETU_CORS_ENABLED",
	Origins:          "SETU_CORS_ORIGINS",
	AllowedMethods:   "SETU_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "SETU_CORS_ALLOWED_HEADERS",
	AllowCredentials: "SETU_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "SETU_CORS_MAX_AGE",
}

// APIConfig holds JSON API routing, upload, and CORS settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return DefaultMaxUploadSize
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS config.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := validateBasePath(c.BasePath); err != nil {
		return err
	}
	if _, err := formatting.ParseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "5MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("SETU_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("SETU_API_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}
}
