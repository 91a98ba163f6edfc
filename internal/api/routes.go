package api

import (
	"net/http"

	"github.com/JaimeStill/setu/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	routes.Register(
		mux,
		domain.Dashboard.Handler().Routes(),
		domain.Directory.Handler().Routes(),
		domain.Emissions.Handler().Routes(),
		domain.Exports.Handler().Routes(),
	)
}
