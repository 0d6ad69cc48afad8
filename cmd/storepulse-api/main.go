// @title         Storepulse API
// @version       0.1.0
// @description   Store uptime and downtime reports over business hours

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"storepulse/internal/core/version"
	"storepulse/internal/modkit/module"
	"storepulse/internal/platform/config"
	"storepulse/internal/platform/logger"
	"storepulse/internal/platform/metrics"
	phttp "storepulse/internal/platform/net/http"
	"storepulse/internal/platform/store"

	"storepulse/internal/services/api"
	reportsmod "storepulse/internal/services/reports/module"

	"golang.org/x/sync/errgroup"
)

func main() {
	// before config, a bad value logs through the root logger
	l := logger.Setup("storepulse-api", version.Info().Version)

	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.FromEnv(root, "api", version.Info().Version), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// http server (reads CORE_API_PORT etc)
	srv := phttp.NewServer(apiCfg)

	a := api.Mount(srv.Router(), api.Options{
		Config:         root,
		Store:          st,
		Metrics:        metrics.New(),
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
		EnableMetrics:  apiCfg.MayBool("METRICS", true),
	})
	if err := a.Reports.Prepare(ctx); err != nil {
		l.Panic().Err(err).Msg("reports schema setup failed")
	}
	ports := module.MustPortsOf[reportsmod.Ports](a.Reports)

	// workers and janitor stop with the server; jobs already running finish first
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return ports.Worker.Run(gctx) })
	g.Go(func() error { return ports.Janitor.RunJanitor(gctx) })

	if err := g.Wait(); err != nil {
		l.Error().Err(err).Msg("api stopped with error")
		os.Exit(1)
	}
	l.Info().Msg("api stopped")
}
