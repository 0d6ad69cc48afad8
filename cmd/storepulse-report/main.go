package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"storepulse/internal/core/version"
	"storepulse/internal/modkit"
	"storepulse/internal/modkit/module"
	"storepulse/internal/platform/config"
	"storepulse/internal/platform/logger"
	"storepulse/internal/platform/metrics"
	"storepulse/internal/platform/store"

	"storepulse/internal/services/reports/domain"
	reportsmod "storepulse/internal/services/reports/module"
	"storepulse/internal/services/reports/repo"
)

// one report computed inline, the job record lives only for this process
func main() {
	l := logger.Setup("storepulse-report", version.Info().Version)
	root := config.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.FromEnv(root, "report", version.Info().Version), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	mod := reportsmod.New(modkit.Deps{
		Log:     *l,
		Cfg:     root,
		PG:      st.PG,
		CH:      st.CH,
		Metrics: metrics.NewBare(),
	}, modkit.WithPorts[domain.JobStore](repo.NewMemory()))
	if err := mod.Prepare(ctx); err != nil {
		l.Panic().Err(err).Msg("reports schema setup failed")
	}

	job, err := module.MustPortsOf[reportsmod.Ports](mod).Runner.RunSync(ctx)
	if err != nil {
		l.Error().Err(err).Str("job_id", job.ID).Msg("report failed")
		stop()
		os.Exit(1)
	}
	l.Info().Str("job_id", job.ID).Int("stores", job.Entities).Int("failed_stores", job.FailedEntities).
		Msg("report complete")
	fmt.Println(job.ResultHandle)
}
