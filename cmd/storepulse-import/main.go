package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"storepulse/internal/core/version"
	"storepulse/internal/platform/config"
	"storepulse/internal/platform/logger"
	"storepulse/internal/platform/store"

	"storepulse/internal/services/ingest"
)

func main() {
	l := logger.Setup("storepulse-import", version.Info().Version)
	root := config.New()

	// flags default to CORE_IMPORT_* so either works
	opts := ingest.FromConfig(root)
	flag.StringVar(&opts.StatusCSV, "status", opts.StatusCSV, "store_status.csv path, - to skip")
	flag.StringVar(&opts.HoursCSV, "hours", opts.HoursCSV, "menu_hours.csv path, - to skip")
	flag.StringVar(&opts.TimezonesCSV, "timezones", opts.TimezonesCSV, "timezones.csv path, - to skip")
	flag.IntVar(&opts.Batch, "batch", opts.Batch, "rows per COPY batch")
	flag.BoolVar(&opts.Truncate, "truncate", opts.Truncate, "clear the input tables first")
	flag.Parse()
	for _, p := range []*string{&opts.StatusCSV, &opts.HoursCSV, &opts.TimezonesCSV} {
		if *p == "-" {
			*p = ""
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := store.FromEnv(root, "import", version.Info().Version)
	cfg.CH = store.CHConfig{}
	st, err := store.Open(ctx, cfg, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	sums, err := ingest.New(st.PG, opts).Run(ctx)
	if err != nil {
		l.Error().Err(err).Msg("import failed, nothing was committed")
		stop()
		os.Exit(1)
	}
	var loaded, skipped int64
	for _, s := range sums {
		loaded += s.Loaded
		skipped += int64(s.Skipped)
	}
	l.Info().Int64("loaded", loaded).Int64("skipped", skipped).Msg("import finished")
}
