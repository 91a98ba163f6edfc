package api

import (
	"github.com/JaimeStill/setu/internal/config"
	"github.com/JaimeStill/setu/internal/infrastructure"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	TrendPeriod   string
	MaxUploadSize int64
	MaxListSize   int32
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Registry:  infra.Registry,
			Metrics:   infra.Metrics,
			Backend:   infra.Backend,
			Sessions:  infra.Sessions,
			Storage:   infra.Storage,
		},
		TrendPeriod:   cfg.Backend.TrendPeriod,
		MaxUploadSize: cfg.API.MaxUploadSizeBytes(),
		MaxListSize:   cfg.Storage.MaxListSize,
	}
}
