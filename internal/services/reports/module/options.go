package module

import (
	"time"

	"storepulse/internal/platform/config"
)

// Sink kinds
const (
	SinkCSV        = "csv"
	SinkClickHouse = "clickhouse"
)

// Options holds configuration settings for the reports module
type Options struct {
	JobWorkers    int
	QueueSize     int
	EntityWorkers int

	Sink        string
	Dir         string
	CHTable     string
	DefaultZone string

	Retention    time.Duration
	CleanupEvery time.Duration

	BreakerFailures int
	BreakerCooldown time.Duration
}

// FromConfig reads CORE_REPORTS_* settings
func FromConfig(cfg config.Conf) Options {
	rc := cfg.Prefix("CORE_REPORTS_")
	return Options{
		JobWorkers:      rc.MayAtLeast("JOB_WORKERS", 2, 1),
		QueueSize:       rc.MayAtLeast("QUEUE_SIZE", 16, 1),
		EntityWorkers:   rc.MayAtLeast("ENTITY_WORKERS", 8, 1),
		Sink:            rc.MayEnum("SINK", SinkCSV, SinkCSV, SinkClickHouse),
		Dir:             rc.MayString("DIR", "reports"),
		CHTable:         rc.MayString("CH_TABLE", "store_report_rows"),
		DefaultZone:     rc.MayString("DEFAULT_ZONE", "America/Chicago"),
		Retention:       rc.MayDuration("RETENTION", 168*time.Hour),
		CleanupEvery:    rc.MayDuration("CLEANUP_EVERY", time.Hour),
		BreakerFailures: rc.MayAtLeast("BREAKER_FAILURES", 3, 1),
		BreakerCooldown: rc.MayDuration("BREAKER_COOLDOWN", 30*time.Second),
	}
}
