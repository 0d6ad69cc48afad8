// Package api provides the HTTP API for the application
package api

import (
	"storepulse/internal/platform/config"
	"storepulse/internal/platform/metrics"
	phttp "storepulse/internal/platform/net/http"
	"storepulse/internal/platform/net/middleware"
	"storepulse/internal/platform/store"

	"storepulse/internal/modkit"
	"storepulse/internal/modkit/httpkit"
	"storepulse/internal/modkit/module"
	"storepulse/internal/modkit/swaggerkit"

	metamod "storepulse/internal/services/api/meta/module"
	reportsmod "storepulse/internal/services/reports/module"

	// registers the OpenAPI document served by swaggerkit
	_ "storepulse/internal/services/api/docs"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Metrics        *metrics.Registry
	EnableSwagger  bool
	EnableProfiler bool
	EnableMetrics  bool
}

// API is the mounted application, the caller runs the reports background loops
type API struct {
	Reports *reportsmod.Module
	Modules []module.Module
}

// Mount mounts the API service onto the given router, it must run before any other route is added
func Mount(r phttp.Router, opt Options) *API {
	if opt.Store == nil {
		panic("api.Mount requires a store")
	}
	reg := opt.Metrics
	if reg == nil {
		reg = metrics.NewBare()
	}

	deps := modkit.Deps{
		Cfg:     opt.Config,
		PG:      opt.Store.PG,
		CH:      opt.Store.CH,
		Metrics: reg,
	}

	// job status changes under the client, polls must never be served from a cache
	reports := reportsmod.New(deps, modkit.WithMiddlewares(middleware.NoCache()))
	mods := []module.Module{
		metamod.New(deps, reports.Options().Sink),
		reports,
	}

	r.Use(middleware.Defaults()...)
	r.Use(reg.HTTP())

	swaggerkit.Mount(r, opt.EnableSwagger, reports.DocMutator())
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
	reg.Mount(r, "/metrics", opt.EnableMetrics)

	httpkit.MountAPIV1(r, httpkit.CommonStack(opt.Config.Prefix("CORE_API_")), func(api httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(api)
		}
	})

	return &API{Reports: reports, Modules: mods}
}
