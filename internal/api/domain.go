package api

import (
	"github.com/JaimeStill/setu/internal/analytics"
	"github.com/JaimeStill/setu/internal/dashboard"
	"github.com/JaimeStill/setu/internal/directory"
	"github.com/JaimeStill/setu/internal/emissions"
	"github.com/JaimeStill/setu/internal/exports"
	"github.com/JaimeStill/setu/internal/recommendations"
)

// Domain holds all domain systems that comprise the API. The web pages
// share the same systems.
type Domain struct {
	Analytics       analytics.System
	Dashboard       dashboard.System
	Directory       directory.System
	Emissions       emissions.System
	Exports         exports.System
	Recommendations recommendations.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	directorySystem := directory.New(runtime.Backend, runtime.Logger)

	emissionsSystem := emissions.New(
		runtime.Backend,
		runtime.MaxUploadSize,
		runtime.Logger,
	)

	analyticsSystem := analytics.New(
		runtime.Backend,
		runtime.TrendPeriod,
		runtime.Logger,
	)

	recommendationsSystem := recommendations.New(runtime.Backend, runtime.Logger)

	exportsSystem := exports.New(
		runtime.Storage,
		runtime.MaxListSize,
		runtime.Logger,
	)

	var archive dashboard.Archive
	if exportsSystem.Enabled() {
		archive = exportsSystem
	}

	dashboardSystem := dashboard.New(
		runtime.Sessions,
		analyticsSystem,
		recommendationsSystem,
		directorySystem,
		archive,
		runtime.Logger,
	)

	return &Domain{
		Analytics:       analyticsSystem,
		Dashboard:       dashboardSystem,
		Directory:       directorySystem,
		Emissions:       emissionsSystem,
		Exports:         exportsSystem,
		Recommendations: recommendationsSystem,
	}
}
