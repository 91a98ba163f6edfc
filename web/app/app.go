// Package app serves the server-rendered dashboard: the analytics,
// data management, and recommendations pages with their form posts.
package app

import (
	"embed"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/setu/internal/dashboard"
	"github.com/JaimeStill/setu/internal/directory"
	"github.com/JaimeStill/setu/internal/emissions"
	"github.com/JaimeStill/setu/pkg/module"
	"github.com/JaimeStill/setu/pkg/web"
)

//go:embed templates static
var content embed.FS

const layout = "app"

var (
	analyticsView = web.ViewDef{
		Route:    "/analytics",
		Template: "analytics.html",
		Title:    "Carbon Analytics",
		Nav:      "analytics",
	}
	dataView = web.ViewDef{
		Route:    "/data",
		Template: "data.html",
		Title:    "Data Management",
		Nav:      "data",
	}
	recommendationsView = web.ViewDef{
		Route:    "/recommendations",
		Template: "recommendations.html",
		Title:    "Recommendations",
		Nav:      "recommendations",
	}
	notFoundView = web.ViewDef{
		Template: "404.html",
		Title:    "Page Not Found",
	}
)

var views = []web.ViewDef{analyticsView, dataView, recommendationsView, notFoundView}

// Systems are the domain systems the pages read from and submit to.
type Systems struct {
	Dashboard dashboard.System
	Directory directory.System
	Emissions emissions.System
}

// NewModule creates the web module mounted at basePath. Session middleware
// must be added by the caller before the module serves traffic.
func NewModule(basePath string, sys Systems, logger *slog.Logger) (*module.Module, error) {
	ts, err := web.NewTemplateSet(
		content, content,
		"templates/layouts/*.html",
		"templates/views",
		basePath,
		views,
	)
	if err != nil {
		return nil, err
	}

	h := newHandler(ts, sys, logger)

	router := web.NewRouter()
	router.Register(h.routes())
	router.Handle("GET /static/", web.DistServer(content, "static", "/static/"))
	router.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, web.JoinPath(basePath, analyticsView.Route), http.StatusFound)
	})
	router.SetFallback(ts.ErrorHandler(layout, notFoundView, http.StatusNotFound))

	return module.New(basePath, router), nil
}
