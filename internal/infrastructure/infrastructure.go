// Package infrastructure provides core service initialization for application startup.
// It assembles the dependencies (logging, metrics, backend client, sessions,
// storage) that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JaimeStill/setu/internal/config"
	"github.com/JaimeStill/setu/internal/sessions"
	"github.com/JaimeStill/setu/pkg/backend"
	"github.com/JaimeStill/setu/pkg/lifecycle"
	"github.com/JaimeStill/setu/pkg/middleware"
	"github.com/JaimeStill/setu/pkg/storage"
)

const probeTimeout = 5 * time.Second

// Infrastructure holds the core systems required by all domain modules.
// Storage is nil when no connection string is configured.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Registry  *prometheus.Registry
	Metrics   *middleware.Metrics
	Backend   *backend.Client
	Sessions  sessions.Store
	Storage   storage.System
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	return NewWithLogger(cfg, slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

// NewWithLogger is New with a caller-supplied logger.
func NewWithLogger(cfg *config.Config, logger *slog.Logger) (*Infrastructure, error) {
	lc := lifecycle.New()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client, err := backend.New(&cfg.Backend, logger, backend.NewMetrics(reg))
	if err != nil {
		return nil, fmt.Errorf("backend init failed: %w", err)
	}

	store, err := sessions.New(&cfg.Sessions, logger)
	if err != nil {
		return nil, fmt.Errorf("sessions init failed: %w", err)
	}

	var blobs storage.System
	if cfg.Storage.Enabled() {
		blobs, err = storage.New(&cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Registry:  reg,
		Metrics:   middleware.NewMetrics(reg),
		Backend:   client,
		Sessions:  store,
		Storage:   blobs,
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// The backend probe only logs: an unreachable backend degrades pages to
// their error states and does not fail readiness.
func (i *Infrastructure) Start() error {
	if err := i.Sessions.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("sessions start failed: %w", err)
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	} else {
		i.Logger.Info("export archive disabled")
	}

	i.Lifecycle.OnStartup("backend", func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()

		if err := i.Backend.Ping(ctx); err != nil {
			i.Logger.Warn("emissions backend unreachable", "base_url", i.Backend.BaseURL(), "error", err)
			return nil
		}
		i.Logger.Info("emissions backend reachable", "base_url", i.Backend.BaseURL())
		return nil
	})

	return nil
}
