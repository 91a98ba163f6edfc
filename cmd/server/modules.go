package main

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/setu/internal/api"
	"github.com/JaimeStill/setu/internal/config"
	"github.com/JaimeStill/setu/internal/infrastructure"
	"github.com/JaimeStill/setu/internal/sessions"
	"github.com/JaimeStill/setu/pkg/middleware"
	"github.com/JaimeStill/setu/pkg/module"
	"github.com/JaimeStill/setu/web/app"
)

type Modules struct {
	API *module.Module
	App *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	runtime := api.NewRuntime(cfg, infra)
	domain := api.NewDomain(runtime)

	apiModule := api.NewModule(cfg, runtime, domain)

	appLogger := infra.Logger.With("module", "app")
	appModule, err := app.NewModule(cfg.Web.BasePath, app.Systems{
		Dashboard: domain.Dashboard,
		Directory: domain.Directory,
		Emissions: domain.Emissions,
	}, appLogger)
	if err != nil {
		return nil, err
	}
	appModule.Use(middleware.Logger(appLogger))
	appModule.Use(infra.Metrics.Instrument("app"))
	appModule.Use(sessions.Middleware(&cfg.Sessions))

	return &Modules{
		API: apiModule,
		App: appModule,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Mount(m.App)
}

func writeStatus(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func buildRouter(infra *infrastructure.Infrastructure, cfg *config.Config) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /{$}", http.RedirectHandler(cfg.Web.BasePath+"/analytics", http.StatusFound))

	router.HandleNative("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{"status": "ok"})
	}))

	router.HandleNative("GET /readyz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			failures := make(map[string]string)
			for name, err := range infra.Lifecycle.Failures() {
				failures[name] = err.Error()
			}
			writeStatus(w, http.StatusServiceUnavailable, map[string]any{
				"status":   "not ready",
				"failures": failures,
			})
			return
		}
		writeStatus(w, http.StatusOK, map[string]string{"status": "ready"})
	}))

	router.HandleNative("GET /metrics", promhttp.HandlerFor(infra.Registry, promhttp.HandlerOpts{}))

	return router
}
