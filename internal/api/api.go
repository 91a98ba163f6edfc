// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/setu/internal/config"
	"github.com/JaimeStill/setu/internal/sessions"
	"github.com/JaimeStill/setu/pkg/middleware"
	"github.com/JaimeStill/setu/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, runtime *Runtime, domain *Domain) *module.Module {
	mux := http.NewServeMux()
	registerRoutes(mux, domain)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(runtime.Metrics.Instrument("api"))
	m.Use(sessions.Middleware(&cfg.Sessions))

	return m
}
