package store

import (
	"time"

	"storepulse/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG PGConfig
	CH CHConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int
	// StatementTimeout caps every statement, 0 keeps the server default
	StatementTimeout time.Duration

	// ConnectRetries bounds the boot ping loop, 0 means 20
	ConnectRetries int
	// PingTimeout bounds each boot ping, 0 means 3s
	PingTimeout time.Duration
}

// CHConfig configures clickhouse connectivity for the report row sink
type CHConfig struct {
	Enabled  bool
	URL      string
	Database string

	// Role names the binary in system.query_log, e.g. "api" or "report"
	Role string
	// Tag is the build version reported alongside Role
	Tag string

	DialTimeout    time.Duration
	MaxOpenConns   int
	ConnectRetries int
	PingTimeout    time.Duration
}

// FromEnv reads SERVICE_PGSQL_* and SERVICE_CLICKHOUSE_* from root
// postgres is always enabled; clickhouse only with SERVICE_CLICKHOUSE_ENABLED=true
func FromEnv(root config.Conf, role, tag string) Config {
	pg := root.Prefix("SERVICE_PGSQL_")
	ch := root.Prefix("SERVICE_CLICKHOUSE_")
	cfg := Config{
		AppName: "storepulse-" + role,
		PG: PGConfig{
			Enabled:     true,
			URL:         pg.MustString("DBURL"),
			MaxConns:    int32(pg.MayAtLeast("MAX_CONNS", 4, 1)),
			SlowQueryMs: pg.MayInt("SLOW_MS", 500),
			LogSQL:      pg.MayBool("LOG_SQL", false),

			StatementTimeout: pg.MayDuration("STATEMENT_TIMEOUT", 0),
		},
	}
	if ch.MayBool("ENABLED", false) {
		cfg.CH = CHConfig{
			Enabled:  true,
			URL:      ch.MustString("DBURL"),
			Database: ch.MayString("DATABASE", ""),
			Role:     role,
			Tag:      tag,
		}
	}
	return cfg
}
